package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// Snapshot renders a response as the text stored in golden files:
//
//	scenario: <name>
//	valid: <bool>
//	ar: <algebra or empty>
//	steps:
//	  <label -> header: snapshot>
//	diagnostics:
//	  [<KIND>] <message>
//
// The request ID is left out so that snapshots depend only on the query.
func Snapshot(name string, result *Result) []byte {
	resp := result.Response
	var b strings.Builder
	fmt.Fprintf(&b, "scenario: %s\n", name)
	fmt.Fprintf(&b, "valid: %t\n", resp.Valid)
	fmt.Fprintf(&b, "ar: %s\n", resp.AR)
	b.WriteString("steps:\n")
	for _, s := range resp.Steps {
		fmt.Fprintf(&b, "  %s\n", s)
	}
	b.WriteString("diagnostics:\n")
	for _, d := range resp.Diagnostics {
		fmt.Fprintf(&b, "  %s\n", d)
	}
	return []byte(b.String())
}

// RunWithGolden runs the scenario, fails the test on unmet expectations,
// and compares the snapshot with testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	for _, msg := range result.Errors {
		t.Errorf("%s: %s", scenario.Name, msg)
	}
	AssertGolden(t, scenario.Name, result)
	return nil
}

// AssertGolden compares an existing result against its golden file.
func AssertGolden(t *testing.T, name string, result *Result) {
	t.Helper()
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, Snapshot(name, result))
}

// GoldenPath returns the golden file path for name under dir.
func GoldenPath(dir, name string) string {
	return filepath.Join(dir, name+".golden")
}

// WriteGolden stores the snapshot of result under dir, creating dir if
// needed.
func WriteGolden(dir, name string, result *Result) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create golden dir: %w", err)
	}
	if err := os.WriteFile(GoldenPath(dir, name), Snapshot(name, result), 0o644); err != nil {
		return fmt.Errorf("write golden file: %w", err)
	}
	return nil
}

// CompareGolden reports whether result matches the golden file under dir.
// A missing golden file is an error.
func CompareGolden(dir, name string, result *Result) (bool, error) {
	want, err := os.ReadFile(GoldenPath(dir, name))
	if err != nil {
		return false, fmt.Errorf("read golden file: %w", err)
	}
	return bytes.Equal(want, Snapshot(name, result)), nil
}
