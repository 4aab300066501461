package store

import (
	"context"
	"fmt"

	"github.com/roach88/sqlra/internal/convert"
	"github.com/roach88/sqlra/internal/diag"
	"github.com/roach88/sqlra/internal/pipeline"
)

// Conversion is one recorded request.
type Conversion struct {
	Seq         int64             `json:"seq"`
	ID          string            `json:"id"`
	SQL         string            `json:"sql"`
	SchemaHash  string            `json:"schema_hash"`
	Valid       bool              `json:"valid"`
	AR          string            `json:"ar,omitempty"`
	Steps       []convert.Step    `json:"steps,omitempty"`
	Diagnostics []diag.Diagnostic `json:"diagnostics"`
}

// FromResponse builds the history row for a finished request.
func FromResponse(sql, schemaHash string, resp *pipeline.Response) Conversion {
	return Conversion{
		ID:          resp.RequestID,
		SQL:         sql,
		SchemaHash:  schemaHash,
		Valid:       resp.Valid,
		AR:          resp.AR,
		Steps:       resp.Steps,
		Diagnostics: resp.Diagnostics,
	}
}

// Record inserts c and returns its sequence number. Seq on c is ignored.
// Uses ON CONFLICT(id) DO NOTHING for idempotency: recording the same
// request ID twice keeps the first row and returns its seq.
func (s *Store) Record(ctx context.Context, c Conversion) (int64, error) {
	if c.ID == "" {
		return 0, fmt.Errorf("record conversion: empty id")
	}

	steps, err := marshalSteps(c.Steps)
	if err != nil {
		return 0, fmt.Errorf("record conversion: %w", err)
	}
	diags, err := marshalDiagnostics(c.Diagnostics)
	if err != nil {
		return 0, fmt.Errorf("record conversion: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO conversions (id, sql_text, schema_hash, valid, ar, steps, diagnostics)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		c.ID,
		c.SQL,
		c.SchemaHash,
		c.Valid,
		c.AR,
		steps,
		diags,
	)
	if err != nil {
		return 0, fmt.Errorf("record conversion: %w", err)
	}

	var seq int64
	if err := s.db.QueryRowContext(ctx, "SELECT seq FROM conversions WHERE id = ?", c.ID).Scan(&seq); err != nil {
		return 0, fmt.Errorf("record conversion: read seq: %w", err)
	}
	return seq, nil
}
