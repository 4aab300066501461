package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/roach88/sqlra/internal/convert"
	"github.com/roach88/sqlra/internal/diag"
)

// marshalJSON encodes v as JSON TEXT for storage. HTML escaping is
// disabled so comparison operators in steps stay readable in the database.
func marshalJSON(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

func marshalSteps(steps []convert.Step) (string, error) {
	if steps == nil {
		steps = []convert.Step{}
	}
	s, err := marshalJSON(steps)
	if err != nil {
		return "", fmt.Errorf("marshal steps: %w", err)
	}
	return s, nil
}

func marshalDiagnostics(items []diag.Diagnostic) (string, error) {
	if items == nil {
		items = []diag.Diagnostic{}
	}
	s, err := marshalJSON(items)
	if err != nil {
		return "", fmt.Errorf("marshal diagnostics: %w", err)
	}
	return s, nil
}

func unmarshalSteps(data string) ([]convert.Step, error) {
	var steps []convert.Step
	if err := json.Unmarshal([]byte(data), &steps); err != nil {
		return nil, fmt.Errorf("unmarshal steps: %w", err)
	}
	return steps, nil
}

func unmarshalDiagnostics(data string) ([]diag.Diagnostic, error) {
	var items []diag.Diagnostic
	if err := json.Unmarshal([]byte(data), &items); err != nil {
		return nil, fmt.Errorf("unmarshal diagnostics: %w", err)
	}
	return items, nil
}
