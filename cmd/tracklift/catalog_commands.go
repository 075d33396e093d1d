package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"tracklift/internal/catalog"
)

func newCatalogCommand(ctx *commandContext) *cobra.Command {
	catalogCmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect migrated catalog tracks",
	}

	catalogCmd.AddCommand(newCatalogListCommand(ctx))

	return catalogCmd
}

func newCatalogListCommand(ctx *commandContext) *cobra.Command {
	var catalogNo string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List catalog tracks",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withCatalog(func(store *catalog.Store) error {
				var tracks []*catalog.Track
				var err error
				if catalogNo != "" {
					tracks, err = store.ListByCatalogNo(cmd.Context(), catalogNo)
				} else {
					tracks, err = store.List(cmd.Context(), limit)
				}
				if err != nil {
					return err
				}

				stdout := cmd.OutOrStdout()
				if len(tracks) == 0 {
					fmt.Fprintln(stdout, "No catalog tracks found")
					return nil
				}

				rows := make([][]string, 0, len(tracks))
				for _, track := range tracks {
					rows = append(rows, []string{
						fmt.Sprintf("%d", track.ID),
						track.OriginalTitle,
						track.CatalogNo,
						track.ISRC,
						track.MigrationStatus,
						humanize.Time(track.CreatedAt),
					})
				}
				table := renderTable([]tableColumn{
					numericColumn("ID"),
					column("Title"),
					column("Catalog No"),
					column("ISRC"),
					column("Migration"),
					column("Created"),
				}, rows)
				fmt.Fprintln(stdout, table)

				total, err := store.CountAll(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(stdout, "%s track(s) in catalog\n", humanize.Comma(total))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&catalogNo, "catalog-no", "", "Only show tracks for one catalog number")
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "Maximum tracks to list (0 for all)")
	return cmd
}
