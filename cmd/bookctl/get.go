package main

import (
	"fmt"
	"strings"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/bookster/catalog-server/internal/service"
)

func newGetCmd(root *rootOptions) *cobra.Command {
	var stats bool

	cmd := &cobra.Command{
		Use:   "get <book-id>",
		Short: "Show one book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			injector, err := root.newInjector(cmd)
			if err != nil {
				return err
			}
			defer injector.Shutdown() //nolint:errcheck // CLI exit

			catalog, err := do.Invoke[*service.CatalogService](injector)
			if err != nil {
				return err
			}

			book, err := catalog.GetBook(cmd.Context(), args[0], stats)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if root.jsonOutput {
				return printJSON(out, book)
			}

			fmt.Fprintf(out, "ID:        %s\n", book.ID)
			fmt.Fprintf(out, "Title:     %s\n", book.Title)
			if book.Subtitle != "" {
				fmt.Fprintf(out, "Subtitle:  %s\n", book.Subtitle)
			}
			if len(book.AuthorNames) > 0 {
				fmt.Fprintf(out, "Authors:   %s\n", strings.Join(book.AuthorNames, ", "))
			}
			if len(book.GenreSlugs) > 0 {
				fmt.Fprintf(out, "Genres:    %s\n", strings.Join(book.GenreSlugs, ", "))
			}
			if book.Language != "" {
				fmt.Fprintf(out, "Language:  %s\n", book.Language)
			}
			if book.PublishedYear > 0 {
				fmt.Fprintf(out, "Published: %d\n", book.PublishedYear)
			}
			if book.HasExternalIdentity() {
				fmt.Fprintf(out, "External:  %s %s\n", book.ExternalSource, book.ExternalID)
			}
			if stats {
				fmt.Fprintf(out, "Reactions: %d like, %d dislike\n", book.LikeCount, book.DislikeCount)
				fmt.Fprintf(out, "Statuses:  %d want, %d reading, %d read, %d dnf\n",
					book.WantCount, book.ReadingCount, book.ReadCount, book.DNFCount)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&stats, "stats", false, "Compute reaction and status counters")
	return cmd
}
