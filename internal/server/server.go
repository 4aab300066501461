// Package server exposes the translator over HTTP.
//
// Two API endpoints accept the same JSON body, {"tables": [...],
// "sqlQuery": "..."}: POST /api/sql/syntax runs every check and answers
// with diagnostics only, POST /api/sql/convert also returns the relational
// algebra and its derivation steps. Accepted queries answer 200, rejected
// ones 400, both with a pipeline.Response body. GET /status and
// GET /metrics serve liveness and Prometheus metrics.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/roach88/sqlra/internal/diag"
	"github.com/roach88/sqlra/internal/pipeline"
	"github.com/roach88/sqlra/internal/schema"
	"github.com/roach88/sqlra/internal/store"
)

// Endpoint names, used in routes and metric labels.
const (
	EndpointSyntax  = "syntax"
	EndpointConvert = "convert"
)

// MsgInternal is the body message of a 500 response.
const MsgInternal = "internal server error"

// maxBodyBytes bounds the request body.
const maxBodyBytes = 1 << 20

// History receives every answered convert request.
type History interface {
	Record(ctx context.Context, c store.Conversion) (int64, error)
}

// Config holds server settings. The zero value serves with the default
// logger, a private registry, no cache, no history and CORS open to any
// origin.
type Config struct {
	Logger *slog.Logger
	// Registry collects metrics and backs /metrics.
	Registry *prometheus.Registry
	// CacheSize is the number of responses kept; 0 disables the cache.
	CacheSize int
	// CORSOrigins lists allowed origins. Empty means "*".
	CORSOrigins []string
	History     History
	IDs         pipeline.IDGenerator
	Version     string
}

// Server routes HTTP requests to a pipeline.Translator.
type Server struct {
	conf       Config
	logger     *slog.Logger
	translator *pipeline.Translator
	metrics    *metrics
	cache      *responseCache
	router     *mux.Router
	handler    http.Handler
}

// sqlRequest is the request body of both API endpoints.
type sqlRequest struct {
	Tables   []schema.Table `json:"tables"`
	SQLQuery string         `json:"sqlQuery"`
}

// New builds a Server from conf.
func New(conf Config) (*Server, error) {
	if conf.Logger == nil {
		conf.Logger = slog.Default()
	}
	if conf.Registry == nil {
		conf.Registry = prometheus.NewRegistry()
	}
	if conf.IDs == nil {
		conf.IDs = pipeline.UUIDv7Generator{}
	}
	if conf.Version == "" {
		conf.Version = "unknown"
	}
	if len(conf.CORSOrigins) == 0 {
		conf.CORSOrigins = []string{"*"}
	}

	m := newMetrics(conf.Registry)
	cache, err := newResponseCache(conf.CacheSize, m)
	if err != nil {
		return nil, fmt.Errorf("create response cache: %w", err)
	}

	s := &Server{
		conf:       conf,
		logger:     conf.Logger.With("component", "server"),
		translator: pipeline.New(pipeline.WithLogger(conf.Logger), pipeline.WithIDGenerator(conf.IDs)),
		metrics:    m,
		cache:      cache,
		router:     mux.NewRouter(),
	}

	s.router.Handle("/metrics", promhttp.HandlerFor(conf.Registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	s.router.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "ok")
	}).Methods(http.MethodGet)
	s.router.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"version": conf.Version})
	}).Methods(http.MethodGet)

	api := s.router.PathPrefix("/api/sql").Subrouter()
	api.Use(requestIDMiddleware(conf.IDs))
	api.Use(accessLogMiddleware(conf.Logger))
	api.Use(panicCatchMiddleware(conf.Logger))
	api.HandleFunc("/syntax", s.translate(EndpointSyntax)).Methods(http.MethodPost)
	api.HandleFunc("/convert", s.translate(EndpointConvert)).Methods(http.MethodPost)

	s.handler = cors.New(cors.Options{
		AllowedOrigins: conf.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{RequestIDHeader},
		MaxAge:         3600,
	}).Handler(s.router)

	s.logger.Info("server created",
		"cache_size", conf.CacheSize,
		"cors_origins", conf.CORSOrigins,
		"history", conf.History != nil,
	)
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) translate(endpoint string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := RequestIDFromContext(r.Context())

		var body sqlRequest
		if err := decodeBody(w, r, &body); err != nil {
			s.metrics.observe(endpoint, outcomeBadRequest, start)
			writeJSON(w, http.StatusBadRequest, failure(id, "invalid request body: "+err.Error()))
			return
		}

		req := pipeline.Request{
			ID:     id,
			Schema: &schema.Schema{Tables: body.Tables},
			SQL:    body.SQLQuery,
			Trace:  endpoint == EndpointConvert,
		}
		resp, ok := s.cache.get(endpoint, req)
		if !ok {
			if endpoint == EndpointConvert {
				resp = s.translator.Translate(req)
			} else {
				resp = s.translator.Check(req)
			}
			s.cache.add(endpoint, req, resp)
		}

		if endpoint == EndpointConvert && s.conf.History != nil {
			c := store.FromResponse(req.SQL, schema.Hash(req.Schema), resp)
			if _, err := s.conf.History.Record(r.Context(), c); err != nil {
				s.logger.Warn("record history failed", "request_id", id, "error", err)
			}
		}

		status, outcome := http.StatusOK, outcomeValid
		if !resp.Valid {
			status, outcome = http.StatusBadRequest, outcomeInvalid
		}
		s.metrics.observe(endpoint, outcome, start)
		writeJSON(w, status, resp)
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("empty body")
		}
		return err
	}
	return nil
}

// failure is a rejected response carrying one error message.
func failure(id, msg string) *pipeline.Response {
	return &pipeline.Response{
		RequestID: id,
		Diagnostics: []diag.Diagnostic{{
			Severity: diag.SeverityError,
			Kind:     diag.KindSyntax,
			Message:  msg,
		}},
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.Encode(v)
}
