package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/roach88/sqlra/internal/schema"
)

// LoadError represents a failure to read command input.
type LoadError struct {
	Code    string
	Message string
	Path    string
}

func (e *LoadError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s: %s", e.Path, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeMissingArg  = "E002" // Required flag or argument missing
	ErrCodeNoQuery     = "E003" // No SQL given
	ErrCodeLoadFailed  = "E004" // Schema or query file could not be parsed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeStoreFailed = "E006" // History database error
	ErrCodeWriteFailed = "E007" // File write error
	ErrCodeFormat      = "E008" // Unsupported schema format

	// Translation results
	ErrCodeRejected      = "E201" // Query rejected
	ErrCodeSchemaInvalid = "E202" // Schema failed structural checks
	ErrCodeScenario      = "E203" // Scenario failed
)

// LoadSchema reads the schema file at path.
func LoadSchema(path string) (*schema.Schema, error) {
	if path == "" {
		return nil, &LoadError{Code: ErrCodeMissingArg, Message: "--schema is required"}
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, &LoadError{Code: ErrCodeNotFound, Message: "schema file not found", Path: path}
		}
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing schema file: %v", err), Path: path}
	}
	s, err := schema.Load(path)
	if err != nil {
		if errors.Is(err, schema.ErrUnsupportedFormat) {
			return nil, &LoadError{Code: ErrCodeFormat, Message: err.Error(), Path: path}
		}
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: err.Error(), Path: path}
	}
	return s, nil
}

// ReadQuery returns the SQL given as arguments. With no arguments, or a
// single "-", the query is read from in.
func ReadQuery(args []string, in io.Reader) (string, error) {
	var sql string
	if len(args) == 0 || (len(args) == 1 && args[0] == "-") {
		data, err := io.ReadAll(in)
		if err != nil {
			return "", &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("reading query: %v", err)}
		}
		sql = string(data)
	} else {
		sql = strings.Join(args, " ")
	}
	if strings.TrimSpace(sql) == "" {
		return "", &LoadError{Code: ErrCodeNoQuery, Message: "no SQL query given"}
	}
	return sql, nil
}

// ReadQueries splits a batch file into queries: one per line, skipping
// blank lines and "--" comment lines. The line number of each query is
// returned alongside it.
func ReadQueries(path string) ([]string, []int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, &LoadError{Code: ErrCodeNotFound, Message: "query file not found", Path: path}
		}
		return nil, nil, &LoadError{Code: ErrCodeLoadFailed, Message: err.Error(), Path: path}
	}
	var (
		queries []string
		lines   []int
	)
	for i, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "--") {
			continue
		}
		queries = append(queries, line)
		lines = append(lines, i+1)
	}
	if len(queries) == 0 {
		return nil, nil, &LoadError{Code: ErrCodeNoQuery, Message: "no queries found", Path: path}
	}
	return queries, lines, nil
}
