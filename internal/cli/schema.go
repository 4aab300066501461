package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/sqlra/internal/diag"
	"github.com/roach88/sqlra/internal/schema"
)

// NewSchemaCommand creates the schema command and its subcommands.
func NewSchemaCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Inspect schema files",
		Long: `Inspect schema files.

Schemas may be YAML, JSON, CUE or an existing SQLite database.`,
	}
	cmd.AddCommand(newSchemaCheckCommand(rootOpts))
	cmd.AddCommand(newSchemaHashCommand(rootOpts))
	return cmd
}

func newSchemaCheckCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check <file>",
		Short: "Check that a schema is well formed",
		Long: `Check table and column names, primary keys and foreign keys.

Exit codes:
  0 - Schema is well formed
  1 - Schema has structural errors
  2 - Command error (file not found, parse error)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchemaCheck(rootOpts, args[0], cmd)
		},
	}
}

func newSchemaHashCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "hash <file>",
		Short:         "Print the content hash used by history --schema-hash",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd)
			s, err := LoadSchema(args[0])
			if err != nil {
				return commandError(formatter, err)
			}
			return formatter.Success(schema.Hash(s))
		},
	}
}

type schemaCheckResult struct {
	Path        string            `json:"path"`
	Tables      int               `json:"tables"`
	Hash        string            `json:"hash"`
	Diagnostics []diag.Diagnostic `json:"diagnostics"`
}

func runSchemaCheck(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	s, err := LoadSchema(path)
	if err != nil {
		return commandError(formatter, err)
	}
	res := schema.Check(s)
	errs := res.Errors()

	if opts.Format == "json" {
		out := CLIResponse{
			Status: "ok",
			Data: schemaCheckResult{
				Path:        path,
				Tables:      len(s.Tables),
				Hash:        schema.Hash(s),
				Diagnostics: res.Items,
			},
		}
		if len(errs) > 0 {
			out.Status = "error"
			out.Error = &CLIError{Code: ErrCodeSchemaInvalid, Message: errs[0].Message}
		}
		if err := formatter.encode(out); err != nil {
			return err
		}
	} else if len(errs) == 0 {
		fmt.Fprintf(formatter.Writer, "✓ %s: %d table(s)\n", path, len(s.Tables))
	} else {
		fmt.Fprintf(formatter.Writer, "✗ %s\n", path)
		for _, d := range errs {
			fmt.Fprintf(formatter.Writer, "  %s\n", d)
		}
	}

	if len(errs) > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%s: schema has %d error(s)", ErrCodeSchemaInvalid, len(errs)))
	}
	return nil
}
