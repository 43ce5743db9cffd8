package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/bookster/catalog-server/internal/domain"
	"github.com/bookster/catalog-server/internal/query"
	"github.com/bookster/catalog-server/internal/service"
)

type searchOptions struct {
	limit    int
	offset   int
	language string
	yearMin  int
	yearMax  int
	genres   string
	sort     string
	timeout  time.Duration
}

func newSearchCmd(root *rootOptions) *cobra.Command {
	opts := &searchOptions{}

	cmd := &cobra.Command{
		Use:   "search <query...>",
		Short: "Search the catalog",
		Long: `Search runs the same tiered lookup as the API: the index, then a title
scan of the store, then OpenLibrary. External hits are imported.

Examples:
  bookctl search dune
  bookctl search --language en --sort published_year:desc frank herbert
  bookctl search --offline --genres science-fiction,horror ""`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, root, opts, strings.Join(args, " "))
		},
	}

	f := cmd.Flags()
	f.IntVarP(&opts.limit, "limit", "l", query.DefaultLimit, "Maximum number of results (capped at 100)")
	f.IntVar(&opts.offset, "offset", 0, "Pagination offset")
	f.StringVar(&opts.language, "language", "", "Language code filter")
	f.IntVar(&opts.yearMin, "year-min", 0, "Earliest publication year")
	f.IntVar(&opts.yearMax, "year-max", 0, "Latest publication year")
	f.StringVarP(&opts.genres, "genres", "g", "", "Comma-separated genre slugs")
	f.StringVarP(&opts.sort, "sort", "s", "", "Sort key, e.g. published_year:desc")
	f.DurationVar(&opts.timeout, "timeout", 30*time.Second, "Search timeout")

	return cmd
}

func runSearch(cmd *cobra.Command, root *rootOptions, opts *searchOptions, text string) error {
	injector, err := root.newInjector(cmd)
	if err != nil {
		return err
	}
	defer injector.Shutdown() //nolint:errcheck // CLI exit

	catalog, err := do.Invoke[*service.CatalogService](injector)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
	defer cancel()

	result, err := catalog.Search(ctx, query.Request{
		Query:            text,
		Limit:            opts.limit,
		Offset:           opts.offset,
		Language:         opts.language,
		PublishedYearMin: opts.yearMin,
		PublishedYearMax: opts.yearMax,
		GenreSlugs:       query.ParseGenreSlugs(opts.genres),
		Sort:             opts.sort,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if root.jsonOutput {
		return printJSON(out, result)
	}

	if len(result.Books) == 0 {
		fmt.Fprintln(out, "No books found.")
		return nil
	}
	fmt.Fprintf(out, "%d of ~%d books\n\n", len(result.Books), result.Total)
	for _, b := range result.Books {
		printBookLine(out, b)
	}
	return nil
}

func printBookLine(w io.Writer, b *domain.Book) {
	line := b.Title
	if b.PrimaryAuthor != "" {
		line += " by " + b.PrimaryAuthor
	}
	if b.PublishedYear > 0 {
		line += fmt.Sprintf(" (%d)", b.PublishedYear)
	}
	fmt.Fprintf(w, "%s  %s\n", b.ID, line)
}
