package cli

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/roach88/sqlra/internal/server"
	"github.com/roach88/sqlra/internal/store"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Addr        string
	Database    string
	CacheSize   int
	CORSOrigins []string
	LogFile     string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the translator over HTTP",
		Long: `Serve the translator over HTTP until interrupted.

Endpoints:
  POST /api/sql/syntax    check a query, diagnostics only
  POST /api/sql/convert   check and convert a query, with steps
  GET  /status            liveness
  GET  /metrics           Prometheus metrics

Both API endpoints take {"tables": [...], "sqlQuery": "..."}.

Example:
  sqlra serve --addr :8080 --db history.db --log-file sqlra.log`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&opts.Database, "db", "", "record every conversion in this SQLite history database")
	cmd.Flags().IntVar(&opts.CacheSize, "cache-size", 256, "number of responses cached (0 disables the cache)")
	cmd.Flags().StringSliceVar(&opts.CORSOrigins, "cors-origin", nil, "allowed CORS origin (may be repeated; default any)")
	cmd.Flags().StringVar(&opts.LogFile, "log-file", "", "write logs to this file, rotated by size")

	return cmd
}

func runServe(ctx context.Context, opts *ServeOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	logger := newLogger(opts.RootOptions, logWriter(opts.LogFile, cmd.ErrOrStderr()), slog.LevelInfo)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())

	err := withStore(opts.Database, func(st *store.Store) error {
		conf := server.Config{
			Logger:      logger,
			Registry:    registry,
			CacheSize:   opts.CacheSize,
			CORSOrigins: opts.CORSOrigins,
			IDs:         opts.IDs,
			Version:     Version,
		}
		if st != nil {
			conf.History = st
		}
		srv, err := server.New(conf)
		if err != nil {
			return err
		}
		return srv.Run(ctx, opts.Addr)
	})
	if err != nil {
		return commandError(formatter, err)
	}
	return nil
}

// logWriter returns a size-rotated file when path is set, else fallback.
func logWriter(path string, fallback io.Writer) io.Writer {
	if path == "" {
		return fallback
	}
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    5, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}
}
