package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/sqlra/internal/repl"
)

// ReplOptions holds flags for the repl command.
type ReplOptions struct {
	*RootOptions
	Schema string
	Trace  bool
}

// NewReplCommand creates the repl command.
func NewReplCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Translate queries interactively",
		Long: `Start an interactive prompt that translates each statement against
one schema. End a statement with ';' or an empty line. Type \help for
the list of commands.

Example:
  sqlra repl --schema shop.yaml`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRepl(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Schema, "schema", "s", "", "path to schema file (required)")
	cmd.Flags().BoolVar(&opts.Trace, "trace", false, "start with derivation steps shown")
	_ = cmd.MarkFlagRequired("schema")

	return cmd
}

func runRepl(opts *ReplOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	s, err := LoadSchema(opts.Schema)
	if err != nil {
		return commandError(formatter, err)
	}

	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr(), slog.LevelWarn)
	session := repl.NewSession(newTranslator(opts.RootOptions, logger), s, cmd.OutOrStdout())
	if opts.Trace {
		session.Consume(`\trace`)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "sqlra %s, %d table(s) loaded. Type \\help for help.\n", Version, len(s.Tables))
	if err := repl.Run(session); err != nil {
		return commandError(formatter, err)
	}
	return nil
}
