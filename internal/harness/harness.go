package harness

import (
	"io"
	"log/slog"
	"slices"

	"github.com/roach88/sqlra/internal/diag"
	"github.com/roach88/sqlra/internal/pipeline"
	"github.com/roach88/sqlra/internal/testutil"
)

// Run translates the scenario's query with tracing enabled and checks the
// response against the scenario's expectations. The returned error is
// reserved for failures to run; unmet expectations are reported in the
// Result.
func Run(scenario *Scenario) (*Result, error) {
	tr := pipeline.New(
		pipeline.WithIDGenerator(testutil.NewFixedIDGenerator("scenario-"+scenario.Name)),
		pipeline.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	resp := tr.Translate(pipeline.Request{
		Schema: scenario.SchemaValue(),
		SQL:    scenario.SQL,
		Trace:  true,
	})

	result := NewResult(resp)
	checkExpectations(scenario.Expect, resp, result)
	return result, nil
}

func checkExpectations(e Expect, resp *pipeline.Response, result *Result) {
	if resp.Valid != e.Valid {
		result.AddError("valid: got %t, want %t (diagnostics: %v)", resp.Valid, e.Valid, resp.Diagnostics)
	}
	if e.AR != "" && resp.AR != e.AR {
		result.AddError("ar:\n  got  %s\n  want %s", resp.AR, e.AR)
	}
	if len(e.Errors) > 0 {
		if got := messages(resp.Diagnostics, diag.SeverityError); !slices.Equal(got, e.Errors) {
			result.AddError("errors:\n  got  %q\n  want %q", got, e.Errors)
		}
	}
	if len(e.Warnings) > 0 {
		if got := messages(resp.Diagnostics, diag.SeverityWarning); !slices.Equal(got, e.Warnings) {
			result.AddError("warnings:\n  got  %q\n  want %q", got, e.Warnings)
		}
	}
	if e.Steps != nil && len(resp.Steps) != *e.Steps {
		result.AddError("steps: got %d, want %d", len(resp.Steps), *e.Steps)
	}
}

func messages(items []diag.Diagnostic, sev diag.Severity) []string {
	var out []string
	for _, d := range items {
		if d.Severity == sev {
			out = append(out, d.Message)
		}
	}
	return out
}
