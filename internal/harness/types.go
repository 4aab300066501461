package harness

import (
	"fmt"

	"github.com/roach88/sqlra/internal/pipeline"
)

// Result is the outcome of running one scenario.
type Result struct {
	// Pass is true when every expectation held.
	Pass bool `json:"pass"`

	// Response is the translator's answer.
	Response *pipeline.Response `json:"response"`

	// Errors lists failed expectations. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a passing result for resp.
func NewResult(resp *pipeline.Response) *Result {
	return &Result{
		Pass:     true,
		Response: resp,
		Errors:   []string{},
	}
}

// AddError records a failed expectation and marks the result as failed.
func (r *Result) AddError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
	r.Pass = false
}
