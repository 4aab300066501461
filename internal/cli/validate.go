package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/sqlra/internal/pipeline"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Schema string
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate [sql...]",
		Short: "Check a SELECT statement without converting it",
		Long: `Check a SELECT statement against a schema without converting it.

Runs every check convert runs (schema structure, syntax, supported subset,
name resolution and types) and prints "Query valid." or the diagnostics.
Faster feedback than convert when only acceptance matters.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Schema, "schema", "s", "", "schema file (.yaml, .json, .cue or SQLite database)")

	return cmd
}

func runValidate(opts *ValidateOptions, args []string, cmd *cobra.Command) error {
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
	return formatter.Translation(tr.Check(pipeline.Request{Schema: s, SQL: sql}))
}
