package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/sydlexius/festival-scraper/internal/config"
)

func paramsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "params",
		Short: "Manage credentials in the local parameter store",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "set <name> [value]",
		Short: "Store a sealed parameter (sqlite backend only)",
		Long: `Store a parameter such as /spotify/client-id in the local SQLite
database. Values are encrypted with the configured key, or with a key
generated next to the database on first use. Without a value argument
the value is read from standard input, without echo on a terminal.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if a.cfg.Params.Backend != config.ParamsSQLite {
				return fmt.Errorf("params set requires the %q backend, configured %q", config.ParamsSQLite, a.cfg.Params.Backend)
			}
			store, err := a.sqlStore(cmd.Context())
			if err != nil {
				return err
			}
			value, err := paramValue(cmd, args)
			if err != nil {
				return err
			}
			if err := store.Put(cmd.Context(), args[0], value); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "stored %s\n", args[0])
			return nil
		},
	})
	return cmd
}

// paramValue returns the value argument, or reads one line from stdin. A
// terminal on stdin is read without echo.
func paramValue(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 2 {
		return args[1], nil
	}

	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) { //nolint:gosec // G115: fd fits in int
		fmt.Fprintf(cmd.ErrOrStderr(), "value for %s: ", args[0])
		b, err := term.ReadPassword(int(f.Fd())) //nolint:gosec // G115: fd fits in int
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("reading value: %w", err)
		}
		return string(b), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("reading value: %w", err)
	}
	value := strings.TrimRight(line, "\r\n")
	if value == "" {
		return "", fmt.Errorf("no value given for %s", args[0])
	}
	return value, nil
}
