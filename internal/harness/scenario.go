package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/sqlra/internal/schema"
)

// Scenario defines one translation test case.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario checks.
	Description string `yaml:"description"`

	// Schema is a path to a schema file, relative to the scenario file.
	// Exactly one of Schema and Tables must be set.
	Schema string `yaml:"schema,omitempty"`

	// Tables is an inline schema.
	Tables []schema.Table `yaml:"tables,omitempty"`

	// SQL is the query to translate.
	SQL string `yaml:"sql"`

	Expect Expect `yaml:"expect"`

	// resolved is the schema loaded from Schema or built from Tables.
	resolved *schema.Schema
}

// Expect lists the checks applied to the response. Only Valid is
// mandatory; the other checks run when set.
type Expect struct {
	Valid bool `yaml:"valid"`

	// AR is the exact printed relational algebra.
	AR string `yaml:"ar,omitempty"`

	// Errors are the exact error messages, in order.
	Errors []string `yaml:"errors,omitempty"`

	// Warnings are the exact warning messages, in order.
	Warnings []string `yaml:"warnings,omitempty"`

	// Steps is the expected number of trace steps.
	Steps *int `yaml:"steps,omitempty"`
}

// SchemaValue returns the schema the scenario translates against.
func (s *Scenario) SchemaValue() *schema.Schema {
	if s.resolved == nil {
		return &schema.Schema{Tables: s.Tables}
	}
	return s.resolved
}

// LoadScenario reads and parses a scenario YAML file. A schema path is
// resolved relative to the directory of the scenario file. Unknown fields
// are rejected so that typos surface as errors.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	if scenario.Schema != "" {
		schemaPath := scenario.Schema
		if !filepath.IsAbs(schemaPath) {
			schemaPath = filepath.Join(filepath.Dir(path), schemaPath)
		}
		s, err := schema.Load(schemaPath)
		if err != nil {
			return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
		}
		scenario.resolved = s
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and consistent.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.SQL == "" {
		return fmt.Errorf("sql is required")
	}
	switch {
	case s.Schema == "" && len(s.Tables) == 0:
		return fmt.Errorf("one of schema or tables is required")
	case s.Schema != "" && len(s.Tables) > 0:
		return fmt.Errorf("schema and tables are mutually exclusive")
	}

	e := s.Expect
	if e.Valid && len(e.Errors) > 0 {
		return fmt.Errorf("expect: errors listed for a valid query")
	}
	if !e.Valid && e.AR != "" {
		return fmt.Errorf("expect: ar given for an invalid query")
	}
	if e.Steps != nil && *e.Steps < 0 {
		return fmt.Errorf("expect: steps must be non-negative")
	}
	return nil
}
