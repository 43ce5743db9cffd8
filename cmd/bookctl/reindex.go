package main

import (
	"fmt"
	"time"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/bookster/catalog-server/internal/service"
)

func newReindexCmd(root *rootOptions) *cobra.Command {
	var ifEmpty, rebuild bool

	cmd := &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild search documents from the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			injector, err := root.newInjector(cmd)
			if err != nil {
				return err
			}
			defer injector.Shutdown() //nolint:errcheck // CLI exit

			catalog, err := do.Invoke[*service.CatalogService](injector)
			if err != nil {
				return err
			}
			if err := catalog.EnsureIndexSettings(cmd.Context()); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			start := time.Now()

			if ifEmpty {
				ran, err := catalog.ReindexIfEmpty(cmd.Context())
				if err != nil {
					return err
				}
				if !ran {
					fmt.Fprintln(out, "Index already populated or store empty; nothing to do.")
					return nil
				}
				count, err := catalog.IndexedDocuments()
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Indexed %d books in %s\n", count, time.Since(start).Round(time.Millisecond))
				return nil
			}

			reindex := catalog.ReindexAll
			if rebuild {
				reindex = catalog.RebuildIndex
			}
			n, err := reindex(cmd.Context())
			if err != nil {
				return err
			}
			if rebuild {
				fmt.Fprintln(out, "Search index emptied and rebuilt.")
			}
			fmt.Fprintf(out, "Indexed %d books in %s\n", n, time.Since(start).Round(time.Millisecond))
			return nil
		},
	}

	cmd.Flags().BoolVar(&ifEmpty, "if-empty", false, "Only reindex when the index holds no documents")
	cmd.Flags().BoolVar(&rebuild, "rebuild", false, "Empty the index before writing documents")
	cmd.MarkFlagsMutuallyExclusive("if-empty", "rebuild")
	return cmd
}
