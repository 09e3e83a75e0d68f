package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func overridesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "overrides",
		Short: "Inspect the artist override table",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List overrides, embedded and from overrides_path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			o, err := a.overrides()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, name := range o.Names() {
				id, _ := o.Lookup(name)
				fmt.Fprintln(out, describe(id))
			}
			fmt.Fprintf(out, "%s\n", color.New(color.Faint).Sprintf("%d overrides", o.Len()))
			return nil
		},
	})
	return cmd
}
