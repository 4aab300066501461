package schema

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrUnsupportedFormat is returned by Load for unknown file extensions.
var ErrUnsupportedFormat = errors.New("unsupported schema format")

// Load reads a schema description from path. The format is chosen by file
// extension: .yaml/.yml, .json, .cue, or .db/.sqlite/.sqlite3 (an existing
// SQLite database whose tables are introspected).
func Load(path string) (*Schema, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read schema: %w", err)
		}
		return ParseYAML(data)
	case ".json":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read schema: %w", err)
		}
		return ParseJSON(data)
	case ".cue":
		return LoadCUE(path)
	case ".db", ".sqlite", ".sqlite3":
		return LoadSQLite(path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// ParseYAML decodes a YAML schema description. Unknown fields are rejected.
func ParseYAML(data []byte) (*Schema, error) {
	var s Schema
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("parse yaml schema: %w", err)
	}
	return &s, nil
}

// ParseJSON decodes a JSON schema description. Unknown fields are rejected.
func ParseJSON(data []byte) (*Schema, error) {
	var s Schema
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("parse json schema: %w", err)
	}
	return &s, nil
}

// Hash returns a stable hex digest of the schema content.
func Hash(s *Schema) string {
	data, err := json.Marshal(s)
	if err != nil {
		// Schema holds only strings, bools and slices; Marshal cannot fail.
		panic(fmt.Sprintf("schema: marshal for hash: %v", err))
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
