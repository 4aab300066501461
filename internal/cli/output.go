package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/sqlra/internal/diag"
	"github.com/roach88/sqlra/internal/pipeline"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Query or schema rejected, scenario failed
	ExitCommandError = 2 // Command error (invalid paths, unreadable schema, etc.)
)

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for verbose/diagnostic output (defaults to Writer)
	Verbose   bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status  string    `json:"status"`             // "ok" or "error"
	Data    any       `json:"data,omitempty"`     // success payload, or the rejected response
	Error   *CLIError `json:"error,omitempty"`    // error details
	TraceID string    `json:"trace_id,omitempty"` // request ID of the translation
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`              // "E001", "E201", etc.
	Message string `json:"message"`           // human-readable message
	Details any    `json:"details,omitempty"` // additional context
}

func (f *OutputFormatter) encode(v any) error {
	enc := json.NewEncoder(f.Writer)
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return f.encode(CLIResponse{Status: "ok", Data: data})
	}
	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.Format == "json" {
		return f.encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// Translation outputs a pipeline response. Accepted queries print any
// warnings, the trace steps and the AR; rejected ones print every error
// and return an ExitFailure error.
func (f *OutputFormatter) Translation(resp *pipeline.Response) error {
	if f.Format == "json" {
		if resp.Valid {
			return f.encode(CLIResponse{Status: "ok", Data: resp, TraceID: resp.RequestID})
		}
		first := firstError(resp.Diagnostics)
		if err := f.encode(CLIResponse{
			Status:  "error",
			Data:    resp,
			Error:   &CLIError{Code: ErrCodeRejected, Message: first.Message},
			TraceID: resp.RequestID,
		}); err != nil {
			return err
		}
		return rejected(resp)
	}

	if !resp.Valid {
		fmt.Fprintln(f.Writer, "✗ Query rejected")
		for _, d := range resp.Diagnostics {
			if d.Severity == diag.SeverityError {
				fmt.Fprintf(f.Writer, "  %s\n", d)
			}
		}
		return rejected(resp)
	}

	for _, d := range resp.Diagnostics {
		if d.Severity == diag.SeverityWarning {
			fmt.Fprintf(f.Writer, "! %s\n", d.Message)
		}
	}
	for i, s := range resp.Steps {
		fmt.Fprintf(f.Writer, "%2d. %s\n", i+1, s)
	}
	if resp.AR == "" {
		fmt.Fprintf(f.Writer, "✓ %s\n", pipeline.MsgValid)
		return nil
	}
	fmt.Fprintln(f.Writer, resp.AR)
	return nil
}

func rejected(resp *pipeline.Response) error {
	n := 0
	for _, d := range resp.Diagnostics {
		if d.Severity == diag.SeverityError {
			n++
		}
	}
	return NewExitError(ExitFailure, fmt.Sprintf("%s: query rejected with %d error(s)", ErrCodeRejected, n))
}

func firstError(items []diag.Diagnostic) diag.Diagnostic {
	for _, d := range items {
		if d.Severity == diag.SeverityError {
			return d
		}
	}
	return diag.Diagnostic{}
}

// VerboseLog outputs a message only if verbose mode is enabled.
// Uses ErrWriter if set, otherwise falls back to Writer.
// When format is JSON, verbose logs go to ErrWriter to avoid corrupting JSON output.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter returns the appropriate writer for diagnostic output.
// Returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}

// commandError reports err as a command-level failure (exit code 2).
// LoadErrors keep their code; anything else is E001.
func commandError(f *OutputFormatter, err error) error {
	code, msg := ErrCodeGeneric, err.Error()
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		code, msg = loadErr.Code, loadErr.Message
		if loadErr.Path != "" {
			msg = loadErr.Path + ": " + msg
		}
	}
	_ = f.Error(code, msg, nil)
	return WrapExitError(ExitCommandError, code, err)
}
