package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/sqlra/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database   string
	Limit      int
	SchemaHash string
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history [request-id]",
		Short: "Show recorded conversions",
		Long: `Show conversions recorded with --db.

Without an argument, lists the most recent conversions, newest first.
With a request ID, shows that conversion in full, including its steps.

Examples:
  sqlra history --db history.db
  sqlra history --db history.db --limit 5
  sqlra history --db history.db 01936f0e-8a4b-7c4d-9e2f-3a1b5c6d7e8f`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite history database (required)")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", store.DefaultListLimit, "maximum number of entries to list")
	cmd.Flags().StringVar(&opts.SchemaHash, "schema-hash", "", "only list conversions against this schema hash")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runHistory(opts *HistoryOptions, args []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	var notFound bool
	err := withStore(opts.Database, func(st *store.Store) error {
		if len(args) == 1 {
			c, err := st.Get(cmd.Context(), args[0])
			if errors.Is(err, store.ErrNotFound) {
				notFound = true
				return nil
			}
			if err != nil {
				return &LoadError{Code: ErrCodeStoreFailed, Message: err.Error()}
			}
			return outputConversion(formatter, c)
		}

		list, err := st.List(cmd.Context(), store.ListOptions{Limit: opts.Limit, SchemaHash: opts.SchemaHash})
		if err != nil {
			return &LoadError{Code: ErrCodeStoreFailed, Message: err.Error()}
		}
		return outputHistory(formatter, list)
	})
	if err != nil {
		return commandError(formatter, err)
	}
	if notFound {
		_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("no conversion with id %s", args[0]), nil)
		return NewExitError(ExitFailure, fmt.Sprintf("%s: conversion %s not found", ErrCodeNotFound, args[0]))
	}
	return nil
}

func outputHistory(f *OutputFormatter, list []store.Conversion) error {
	if f.Format == "json" {
		return f.encode(CLIResponse{Status: "ok", Data: list})
	}
	if len(list) == 0 {
		fmt.Fprintln(f.Writer, "No conversions recorded.")
		return nil
	}
	for _, c := range list {
		fmt.Fprintf(f.Writer, "%s #%d %s\n", mark(c.Valid), c.Seq, c.ID)
		fmt.Fprintf(f.Writer, "    %s\n", c.SQL)
		if c.Valid {
			fmt.Fprintf(f.Writer, "    %s\n", c.AR)
		}
	}
	return nil
}

func outputConversion(f *OutputFormatter, c store.Conversion) error {
	if f.Format == "json" {
		return f.encode(CLIResponse{Status: "ok", Data: c, TraceID: c.ID})
	}
	fmt.Fprintf(f.Writer, "%s #%d %s\n", mark(c.Valid), c.Seq, c.ID)
	fmt.Fprintf(f.Writer, "sql:    %s\n", c.SQL)
	fmt.Fprintf(f.Writer, "schema: %s\n", c.SchemaHash)
	if c.Valid {
		fmt.Fprintf(f.Writer, "ar:     %s\n", c.AR)
	}
	for i, s := range c.Steps {
		fmt.Fprintf(f.Writer, "%2d. %s\n", i+1, s)
	}
	for _, d := range c.Diagnostics {
		fmt.Fprintf(f.Writer, "  %s\n", d)
	}
	return nil
}

func mark(valid bool) string {
	if valid {
		return "✓"
	}
	return "✗"
}
