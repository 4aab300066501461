// Package diag holds the diagnostics list reported for a single request.
//
// A Result is an ordered list of entries, each carrying a severity, a kind
// and a message. A Result is valid when it contains no error entries.
// Stages append to a Result while they run; once handed back to the caller
// it is treated as read-only.
package diag

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"
)

// Severity is the blocking level of a diagnostic.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeveritySuccess Severity = "success"
)

// Kind classifies the origin of a diagnostic.
type Kind string

const (
	KindSyntax  Kind = "SYNTAX_ERROR"
	KindLogic   Kind = "LOGIC_ERROR"
	KindWarning Kind = "WARNING"
	KindSuccess Kind = "SUCCESS"
)

// Diagnostic is one entry of a Result.
type Diagnostic struct {
	Severity Severity `json:"severity"`
	Kind     Kind     `json:"kind"`
	Message  string   `json:"message"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("[%s] %s", d.Kind, d.Message)
}

// Result accumulates diagnostics in the order they were found.
type Result struct {
	Items []Diagnostic `json:"items"`
}

// New returns an empty Result.
func New() *Result {
	return &Result{Items: []Diagnostic{}}
}

// AddError appends an error of the given kind.
func (r *Result) AddError(kind Kind, format string, args ...any) {
	r.Items = append(r.Items, Diagnostic{
		Severity: SeverityError,
		Kind:     kind,
		Message:  fmt.Sprintf(format, args...),
	})
}

// AddWarning appends a non-blocking note.
func (r *Result) AddWarning(format string, args ...any) {
	r.Items = append(r.Items, Diagnostic{
		Severity: SeverityWarning,
		Kind:     KindWarning,
		Message:  fmt.Sprintf(format, args...),
	})
}

// AddSuccess appends an acceptance entry.
func (r *Result) AddSuccess(format string, args ...any) {
	r.Items = append(r.Items, Diagnostic{
		Severity: SeveritySuccess,
		Kind:     KindSuccess,
		Message:  fmt.Sprintf(format, args...),
	})
}

// Merge appends all entries of other, preserving order.
func (r *Result) Merge(other *Result) {
	if other == nil {
		return
	}
	r.Items = append(r.Items, other.Items...)
}

// Valid reports whether no error entry is present.
func (r *Result) Valid() bool {
	return r.ErrorCount() == 0
}

// ErrorCount returns the number of error entries.
func (r *Result) ErrorCount() int {
	n := 0
	for _, d := range r.Items {
		if d.Severity == SeverityError {
			n++
		}
	}
	return n
}

// Errors returns only the error entries.
func (r *Result) Errors() []Diagnostic {
	return r.filter(SeverityError)
}

// Warnings returns only the warning entries.
func (r *Result) Warnings() []Diagnostic {
	return r.filter(SeverityWarning)
}

func (r *Result) filter(sev Severity) []Diagnostic {
	var out []Diagnostic
	for _, d := range r.Items {
		if d.Severity == sev {
			out = append(out, d)
		}
	}
	return out
}

// Err combines all error entries into a single error, or returns nil when
// the result is valid.
func (r *Result) Err() error {
	var err error
	for _, d := range r.Errors() {
		err = multierr.Append(err, errors.New(d.String()))
	}
	return err
}
