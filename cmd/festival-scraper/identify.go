package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/sydlexius/festival-scraper/internal/festival"
	"github.com/sydlexius/festival-scraper/internal/provider"
)

func identifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "identify <name>...",
		Short: "Look artists up in the catalog without opening issues",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			store, err := a.paramStore(ctx)
			if err != nil {
				return err
			}
			catalog, err := a.catalog(ctx, store)
			if err != nil {
				return err
			}

			names := festival.TrimNames(args)
			queries := make([]provider.ArtistQuery, len(names))
			for i, n := range names {
				queries[i] = provider.ArtistQuery{Name: n, GenreHints: a.cfg.Catalog.GenreHints}
			}
			ids, err := a.runner(catalog).RunAll(ctx, queries)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, id := range ids {
				fmt.Fprintln(out, describe(id))
			}
			return nil
		},
	}
}

func describe(id provider.ArtistIdentification) string {
	var status string
	switch {
	case id.FromOverride:
		status = color.New(color.FgYellow).Sprint("override")
	case id.Found():
		status = color.New(color.FgGreen).Sprint("matched ")
	default:
		status = color.New(color.FgRed).Sprint("no match")
	}

	line := fmt.Sprintf("%s  %s", status, id.SearchName)
	if id.DisplayName != id.SearchName {
		line += fmt.Sprintf(" -> %s", id.DisplayName)
	}
	if id.CatalogID != "" {
		line += fmt.Sprintf("  [%s]", id.CatalogID)
	}
	if id.ImageURL != "" {
		line += "  " + id.ImageURL
	}
	return line
}
