package cli

import (
	"fmt"
	"log/slog"

	"github.com/kr/pretty"
	"github.com/spf13/cobra"

	"github.com/roach88/sqlra/internal/pipeline"
	"github.com/roach88/sqlra/internal/store"
)

// ConvertOptions holds flags for the convert command.
type ConvertOptions struct {
	*RootOptions
	Schema   string
	Trace    bool
	Database string
	DumpCore bool
}

// NewConvertCommand creates the convert command.
func NewConvertCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ConvertOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "convert [sql...]",
		Short: "Translate a SELECT statement into relational algebra",
		Long: `Translate a SELECT statement into relational algebra.

The query is taken from the arguments, or from stdin when none are given
(or the single argument is "-"). Rejected queries print every diagnostic
and exit with code 1.

Examples:
  sqlra convert --schema shop.yaml "SELECT name FROM Users WHERE age > 18"
  sqlra convert --schema shop.yaml --trace < query.sql
  sqlra convert --schema shop.db --db history.db --format json "SELECT * FROM A"`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(opts, args, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Schema, "schema", "s", "", "schema file (.yaml, .json, .cue or SQLite database)")
	cmd.Flags().BoolVar(&opts.Trace, "trace", false, "print the derivation steps")
	cmd.Flags().StringVar(&opts.Database, "db", "", "record the conversion in this SQLite history database")
	cmd.Flags().BoolVar(&opts.DumpCore, "dump-core", false, "print the canonical Core tree to stderr")

	return cmd
}

func runConvert(opts *ConvertOptions, args []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	s, err := LoadSchema(opts.Schema)
	if err != nil {
		return commandError(formatter, err)
	}
	sql, err := ReadQuery(args, cmd.InOrStdin())
	if err != nil {
		return commandError(formatter, err)
	}

	tr := newTranslator(opts.RootOptions, newLogger(opts.RootOptions, cmd.ErrOrStderr(), slog.LevelWarn))
	resp := tr.Translate(pipeline.Request{Schema: s, SQL: sql, Trace: opts.Trace})
	formatter.VerboseLog("request %s finished with %d diagnostic(s)", resp.RequestID, len(resp.Diagnostics))

	if opts.DumpCore && resp.Core != nil {
		fmt.Fprintf(formatter.GetErrWriter(), "core:\n%s\n", pretty.Sprint(resp.Core))
	}

	err = withStore(opts.Database, func(st *store.Store) error {
		return record(cmd.Context(), st, sql, s, resp)
	})
	if err != nil {
		return commandError(formatter, err)
	}

	return formatter.Translation(resp)
}
