package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrNotFound is returned by Get for an unknown request ID.
var ErrNotFound = errors.New("conversion not found")

// DefaultListLimit caps List when no limit is given.
const DefaultListLimit = 20

// ListOptions filters List.
type ListOptions struct {
	// Limit caps the number of rows. Zero or negative means DefaultListLimit.
	Limit int
	// SchemaHash, when set, keeps only conversions run against that schema.
	SchemaHash string
}

const selectConversion = `
	SELECT seq, id, sql_text, schema_hash, valid, ar, steps, diagnostics
	FROM conversions
`

// Get returns the conversion recorded under id.
func (s *Store) Get(ctx context.Context, id string) (Conversion, error) {
	row := s.db.QueryRowContext(ctx, selectConversion+" WHERE id = ?", id)
	c, err := scanConversion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Conversion{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return Conversion{}, fmt.Errorf("get conversion: %w", err)
	}
	return c, nil
}

// List returns the most recent conversions, newest first.
//
// Returns an empty slice (not nil) when nothing matches.
func (s *Store) List(ctx context.Context, opts ListOptions) ([]Conversion, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}

	query := selectConversion
	args := []any{}
	if opts.SchemaHash != "" {
		query += " WHERE schema_hash = ?"
		args = append(args, opts.SchemaHash)
	}
	query += " ORDER BY seq DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query conversions: %w", err)
	}
	defer rows.Close()

	conversions := []Conversion{}
	for rows.Next() {
		c, err := scanConversion(rows)
		if err != nil {
			return nil, err
		}
		conversions = append(conversions, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate conversions: %w", err)
	}
	return conversions, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanConversion(row scanner) (Conversion, error) {
	var (
		c            Conversion
		steps, diags string
	)
	if err := row.Scan(&c.Seq, &c.ID, &c.SQL, &c.SchemaHash, &c.Valid, &c.AR, &steps, &diags); err != nil {
		return Conversion{}, err
	}

	var err error
	if c.Steps, err = unmarshalSteps(steps); err != nil {
		return Conversion{}, err
	}
	if len(c.Steps) == 0 {
		c.Steps = nil
	}
	if c.Diagnostics, err = unmarshalDiagnostics(diags); err != nil {
		return Conversion{}, err
	}
	return c, nil
}
