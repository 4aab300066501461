// Package pipeline runs every stage of a translation for one request:
// schema checks, parsing, statement rules, building, normalization,
// validation, conversion and printing.
//
// Stages run strictly in order and a stage only runs when the previous ones
// reported no errors. Every problem reaches the caller as a diagnostic;
// internal failures are logged and reported generically.
package pipeline

import (
	"log/slog"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/sqlra/internal/ar"
	"github.com/roach88/sqlra/internal/builder"
	"github.com/roach88/sqlra/internal/convert"
	"github.com/roach88/sqlra/internal/core"
	"github.com/roach88/sqlra/internal/diag"
	"github.com/roach88/sqlra/internal/normalize"
	"github.com/roach88/sqlra/internal/schema"
	"github.com/roach88/sqlra/internal/sqlparse"
	"github.com/roach88/sqlra/internal/validate"
)

// Fixed user-facing messages.
const (
	MsgValid            = "Query valid."
	MsgSchemaRequired   = "A schema is required."
	MsgEmptyQuery       = "SQL query must not be empty."
	MsgConversionFailed = "internal error: conversion failed"
)

// maxLoggedSQL bounds how much of a query is written to the log.
const maxLoggedSQL = 200

// Request is one translation request.
type Request struct {
	// ID correlates logs and history entries. Generated when empty.
	ID     string
	Schema *schema.Schema
	SQL    string
	// Trace asks for the step-by-step derivation.
	Trace bool
}

// Response is the outcome of a request. AR and Steps are set only when the
// query was accepted and converted.
type Response struct {
	RequestID   string            `json:"request_id"`
	Valid       bool              `json:"valid"`
	AR          string            `json:"ar,omitempty"`
	Steps       []convert.Step    `json:"steps,omitempty"`
	Diagnostics []diag.Diagnostic `json:"diagnostics"`

	// Core is the canonical Core tree when the query reached validation.
	Core core.Rel `json:"-"`
}

// Translator runs requests. It holds no per-request state and is safe for
// concurrent use.
type Translator struct {
	ids    IDGenerator
	logger *slog.Logger
}

// Option configures a Translator.
type Option func(*Translator)

// WithIDGenerator replaces the default UUIDv7 request IDs.
func WithIDGenerator(g IDGenerator) Option {
	return func(t *Translator) {
		t.ids = g
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(t *Translator) {
		t.logger = l
	}
}

// New creates a Translator.
func New(opts ...Option) *Translator {
	t := &Translator{
		ids:    UUIDv7Generator{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Check runs every stage up to and including validation.
func (t *Translator) Check(req Request) *Response {
	return t.run(req, false)
}

// Translate runs every stage and, when the query is accepted, returns the
// printed relational algebra and, if requested, the derivation steps.
func (t *Translator) Translate(req Request) *Response {
	return t.run(req, true)
}

func (t *Translator) run(req Request, lower bool) *Response {
	id := req.ID
	if id == "" {
		id = t.ids.NewID()
	}
	log := t.logger.With("request_id", id)
	log.Debug("request received", "sql", truncate(req.SQL, maxLoggedSQL), "convert", lower)

	res := diag.New()
	resp := &Response{RequestID: id}

	rel, ok := t.analyze(req, res, log)
	resp.Core = rel
	if ok && lower {
		ok = t.lower(rel, req.Trace, resp, res, log)
	}
	if ok {
		res.AddSuccess(MsgValid)
	}

	resp.Valid = res.Valid()
	resp.Diagnostics = res.Items
	log.Info("request finished",
		"valid", resp.Valid,
		"errors", res.ErrorCount(),
		"warnings", len(res.Warnings()),
	)
	return resp
}

// analyze runs the stages that may reject the query. It returns the
// canonical Core tree and whether res is still free of errors.
func (t *Translator) analyze(req Request, res *diag.Result, log *slog.Logger) (core.Rel, bool) {
	if req.Schema == nil {
		res.AddError(diag.KindSyntax, MsgSchemaRequired)
		return nil, false
	}
	res.Merge(schema.Check(req.Schema))
	if !res.Valid() {
		log.Debug("schema rejected", "errors", res.ErrorCount())
		return nil, false
	}

	sql := strings.TrimSpace(norm.NFC.String(req.SQL))
	if sql == "" {
		res.AddError(diag.KindSyntax, MsgEmptyQuery)
		return nil, false
	}

	stmt, err := sqlparse.Parse(sql)
	if err != nil {
		res.AddError(diag.KindSyntax, "%s", err.Error())
		return nil, false
	}

	res.Merge(validate.CheckStatement(stmt))
	if !res.Valid() {
		return nil, false
	}

	raw, err := builder.Build(stmt)
	if err != nil {
		res.AddError(diag.KindLogic, "%s", err.Error())
		return nil, false
	}

	idx := schema.NewIndex(req.Schema)
	rel, err := normalize.New(idx).Normalize(raw)
	if err != nil {
		res.AddError(diag.KindLogic, "%s", err.Error())
		return nil, false
	}

	res.Merge(validate.Validate(rel, idx))
	return rel, res.Valid()
}

func (t *Translator) lower(rel core.Rel, trace bool, resp *Response, res *diag.Result, log *slog.Logger) bool {
	var (
		out   ar.Rel
		steps []convert.Step
		err   error
	)
	if trace {
		out, steps, err = convert.ConvertWithTrace(rel)
	} else {
		out, err = convert.Convert(rel)
	}
	if err != nil {
		log.Error("conversion failed on validated input", "error", err)
		res.AddError(diag.KindLogic, MsgConversionFailed)
		return false
	}

	resp.AR = ar.Print(out)
	resp.Steps = steps
	return true
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "…"
}
