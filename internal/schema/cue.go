package schema

import (
	"fmt"
	"os"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

// definition constrains CUE schema files. Definitions are closed, so a
// misspelled field is a unification error rather than a silently ignored key.
const definition = `
#ForeignKey: {
	referencedTable:  string
	referencedColumn: string
}

#Column: {
	name:        string
	type:        string
	primaryKey?: bool
	foreignKey?: #ForeignKey
}

#Table: {
	name: string
	columns: [...#Column]
}

#Schema: {
	tables: [...#Table]
}
`

// LoadCUE reads and decodes a CUE schema file.
func LoadCUE(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	return ParseCUE(data, path)
}

// ParseCUE compiles data, unifies it with the schema definition and decodes
// the concrete result. filename is used in error positions only.
func ParseCUE(data []byte, filename string) (*Schema, error) {
	ctx := cuecontext.New()

	def := ctx.CompileString(definition)
	if err := def.Err(); err != nil {
		return nil, fmt.Errorf("compile schema definition: %w", err)
	}

	v := ctx.CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("compile cue schema: %s", formatCUEError(err))
	}

	unified := def.LookupPath(cue.ParsePath("#Schema")).Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("invalid cue schema: %s", formatCUEError(err))
	}

	var s Schema
	if err := unified.Decode(&s); err != nil {
		return nil, fmt.Errorf("decode cue schema: %s", formatCUEError(err))
	}
	return &s, nil
}

func formatCUEError(err error) string {
	return strings.TrimSpace(cueerrors.Details(err, nil))
}
