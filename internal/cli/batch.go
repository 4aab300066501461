package cli

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/sqlra/internal/diag"
	"github.com/roach88/sqlra/internal/pipeline"
	"github.com/roach88/sqlra/internal/schema"
	"github.com/roach88/sqlra/internal/store"
)

// BatchOptions holds flags for the batch command.
type BatchOptions struct {
	*RootOptions
	Schema   string
	Database string
	Workers  int
	Trace    bool
}

// BatchItem is the outcome of one query of a batch.
type BatchItem struct {
	Line     int                `json:"line"`
	SQL      string             `json:"sql"`
	Response *pipeline.Response `json:"response"`
}

// BatchResult holds the outcome of a whole batch, in file order.
type BatchResult struct {
	Items    []BatchItem `json:"items"`
	Valid    int         `json:"valid"`
	Rejected int         `json:"rejected"`
	Total    int         `json:"total"`
}

// NewBatchCommand creates the batch command.
func NewBatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "batch <queries-file>",
		Short: "Translate every query of a file",
		Long: `Translate every query of a file against one schema.

The file holds one query per line; blank lines and lines starting with
"--" are skipped. Queries are translated concurrently but reported in file
order.

Exit codes:
  0 - All queries accepted
  1 - One or more queries rejected
  2 - Command error (missing files, unreadable schema, etc.)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Schema, "schema", "s", "", "schema file (.yaml, .json, .cue or SQLite database)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "record every conversion in this SQLite history database")
	cmd.Flags().IntVarP(&opts.Workers, "workers", "w", runtime.NumCPU(), "number of queries translated concurrently")
	cmd.Flags().BoolVar(&opts.Trace, "trace", false, "include derivation steps")

	return cmd
}

func runBatch(opts *BatchOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	if opts.Workers < 1 {
		return commandError(formatter, &LoadError{Code: ErrCodeMissingArg, Message: "--workers must be at least 1"})
	}
	s, err := LoadSchema(opts.Schema)
	if err != nil {
		return commandError(formatter, err)
	}
	queries, lines, err := ReadQueries(path)
	if err != nil {
		return commandError(formatter, err)
	}
	formatter.VerboseLog("translating %d queries with %d worker(s)", len(queries), opts.Workers)

	tr := newTranslator(opts.RootOptions, newLogger(opts.RootOptions, cmd.ErrOrStderr(), slog.LevelWarn))
	responses, err := translateAll(cmd.Context(), tr, s, queries, opts.Workers, opts.Trace)
	if err != nil {
		return commandError(formatter, err)
	}

	result := BatchResult{Items: make([]BatchItem, len(queries)), Total: len(queries)}
	for i, resp := range responses {
		result.Items[i] = BatchItem{Line: lines[i], SQL: queries[i], Response: resp}
		if resp.Valid {
			result.Valid++
		} else {
			result.Rejected++
		}
	}

	err = withStore(opts.Database, func(st *store.Store) error {
		for _, item := range result.Items {
			if err := record(cmd.Context(), st, item.SQL, s, item.Response); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return commandError(formatter, err)
	}

	if opts.Format == "json" {
		if err := formatter.encode(CLIResponse{Status: batchStatus(result), Data: result}); err != nil {
			return err
		}
	} else {
		outputBatchText(formatter, result)
	}
	if result.Rejected > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%s: %d of %d queries rejected", ErrCodeRejected, result.Rejected, result.Total))
	}
	return nil
}

// translateAll runs the queries on at most workers goroutines. Results
// keep the order of queries.
func translateAll(ctx context.Context, tr *pipeline.Translator, s *schema.Schema, queries []string, workers int, trace bool) ([]*pipeline.Response, error) {
	out := make([]*pipeline.Response, len(queries))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, sql := range queries {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out[i] = tr.Translate(pipeline.Request{Schema: s, SQL: sql, Trace: trace})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func batchStatus(r BatchResult) string {
	if r.Rejected > 0 {
		return "error"
	}
	return "ok"
}

func outputBatchText(f *OutputFormatter, r BatchResult) {
	for _, item := range r.Items {
		resp := item.Response
		fmt.Fprintf(f.Writer, "%s line %d: %s\n", mark(resp.Valid), item.Line, item.SQL)
		for _, s := range resp.Steps {
			fmt.Fprintf(f.Writer, "    %s\n", s)
		}
		if resp.Valid {
			fmt.Fprintf(f.Writer, "    %s\n", resp.AR)
			continue
		}
		for _, d := range resp.Diagnostics {
			if d.Severity == diag.SeverityError {
				fmt.Fprintf(f.Writer, "    %s\n", d)
			}
		}
	}
	fmt.Fprintln(f.Writer)
	fmt.Fprintf(f.Writer, "%d valid, %d rejected, %d total\n", r.Valid, r.Rejected, r.Total)
}
