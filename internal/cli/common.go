package cli

import (
	"context"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/roach88/sqlra/internal/pipeline"
	"github.com/roach88/sqlra/internal/schema"
	"github.com/roach88/sqlra/internal/store"
)

func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}
}

// newLogger writes text logs to w. Pipeline chatter is hidden unless
// --verbose is set.
func newLogger(opts *RootOptions, w io.Writer, base slog.Level) *slog.Logger {
	level := base
	if opts.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func newTranslator(opts *RootOptions, logger *slog.Logger) *pipeline.Translator {
	popts := []pipeline.Option{pipeline.WithLogger(logger)}
	if opts.IDs != nil {
		popts = append(popts, pipeline.WithIDGenerator(opts.IDs))
	}
	return pipeline.New(popts...)
}

// withStore opens the history database at path, runs fn and closes it.
// With an empty path fn receives a nil store.
func withStore(path string, fn func(*store.Store) error) (err error) {
	if path == "" {
		return fn(nil)
	}
	st, err := store.Open(path)
	if err != nil {
		return &LoadError{Code: ErrCodeStoreFailed, Message: err.Error(), Path: path}
	}
	defer func() {
		err = multierr.Append(err, st.Close())
	}()
	return fn(st)
}

// record stores resp in st when st is not nil.
func record(ctx context.Context, st *store.Store, sql string, s *schema.Schema, resp *pipeline.Response) error {
	if st == nil {
		return nil
	}
	if _, err := st.Record(ctx, store.FromResponse(sql, schema.Hash(s), resp)); err != nil {
		return &LoadError{Code: ErrCodeStoreFailed, Message: err.Error()}
	}
	return nil
}
