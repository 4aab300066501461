package cli

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sqlra/internal/store"
)

const selectWhere = "SELECT name FROM Users WHERE age > 18"

func TestConvert_Text(t *testing.T) {
	stdout, _, err := execute(t, nil, "convert", "-s", shopSchema, selectWhere)
	require.NoError(t, err)
	assert.Equal(t, "π[name](σ[age > 18](Users))\n", stdout)
}

func TestConvert_Trace(t *testing.T) {
	stdout, _, err := execute(t, nil, "convert", "-s", shopSchema, "--trace", selectWhere)
	require.NoError(t, err)
	assert.Equal(t, ""+
		" 1. FROM Users -> (Users): (Users)\n"+
		" 2. WHERE age > 18 -> σ[age > 18]: σ[age > 18](Users)\n"+
		" 3. SELECT name -> π[name]: π[name](σ[age > 18](Users))\n"+
		"π[name](σ[age > 18](Users))\n", stdout)
}

func TestConvert_Stdin(t *testing.T) {
	stdout, _, err := execute(t, strings.NewReader(selectWhere+"\n"), "convert", "-s", shopSchema)
	require.NoError(t, err)
	assert.Equal(t, "π[name](σ[age > 18](Users))\n", stdout)
}

func TestConvert_Rejected(t *testing.T) {
	stdout, _, err := execute(t, nil, "convert", "-s", shopSchema, "SELECT * FROM Userz")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Equal(t, "✗ Query rejected\n  [LOGIC_ERROR] Table not found: Userz (did you mean Users?)\n", stdout)
}

func TestConvert_JSON(t *testing.T) {
	stdout, _, err := execute(t, nil, "--format", "json", "convert", "-s", shopSchema, selectWhere)
	require.NoError(t, err)

	var resp struct {
		Status  string `json:"status"`
		TraceID string `json:"trace_id"`
		Data    struct {
			RequestID string `json:"request_id"`
			Valid     bool   `json:"valid"`
			AR        string `json:"ar"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "req-1", resp.TraceID)
	assert.Equal(t, "req-1", resp.Data.RequestID)
	assert.True(t, resp.Data.Valid)
	assert.Equal(t, "π[name](σ[age > 18](Users))", resp.Data.AR)
}

func TestConvert_CommandErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing schema flag", []string{"convert", selectWhere}, "Error [E002]: --schema is required\n"},
		{"missing schema file", []string{"convert", "-s", "nope.yaml", selectWhere}, "Error [E005]: nope.yaml: schema file not found\n"},
		{"no query", []string{"convert", "-s", shopSchema}, "Error [E003]: no SQL query given\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, _, err := execute(t, nil, tt.args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Equal(t, tt.want, stdout)
		})
	}
}

func TestConvert_RecordsHistory(t *testing.T) {
	db := filepath.Join(t.TempDir(), "history.db")

	_, _, err := execute(t, nil, "convert", "-s", shopSchema, "--db", db, "--trace", selectWhere)
	require.NoError(t, err)

	st, err := store.Open(db)
	require.NoError(t, err)
	defer st.Close()

	c, err := st.Get(context.Background(), "req-1")
	require.NoError(t, err)
	assert.Equal(t, selectWhere, c.SQL)
	assert.True(t, c.Valid)
	assert.Equal(t, "π[name](σ[age > 18](Users))", c.AR)
	assert.Len(t, c.Steps, 3)
	assert.NotEmpty(t, c.SchemaHash)
}

func TestConvert_DumpCore(t *testing.T) {
	stdout, stderr, err := execute(t, nil, "convert", "-s", shopSchema, "--dump-core", selectWhere)
	require.NoError(t, err)
	assert.Equal(t, "π[name](σ[age > 18](Users))\n", stdout)
	assert.True(t, strings.HasPrefix(stderr, "core:\n"), stderr)
	assert.Contains(t, stderr, "Users")
}

func TestValidate(t *testing.T) {
	t.Run("accepted", func(t *testing.T) {
		stdout, _, err := execute(t, nil, "validate", "-s", shopSchema, selectWhere)
		require.NoError(t, err)
		assert.Equal(t, "✓ Query valid.\n", stdout)
	})

	t.Run("unsupported clauses", func(t *testing.T) {
		stdout, _, err := execute(t, nil, "validate", "-s", shopSchema, "SELECT name FROM Users ORDER BY name LIMIT 3")
		require.Error(t, err)
		assert.Equal(t, ExitFailure, GetExitCode(err))
		assert.Equal(t, "✗ Query rejected\n"+
			"  [LOGIC_ERROR] ORDER BY is not supported.\n"+
			"  [LOGIC_ERROR] LIMIT is not supported.\n", stdout)
	})

	t.Run("syntax error", func(t *testing.T) {
		stdout, _, err := execute(t, nil, "validate", "-s", shopSchema, "SELECT FROM")
		require.Error(t, err)
		assert.Equal(t, ExitFailure, GetExitCode(err))
		assert.Contains(t, stdout, "[SYNTAX_ERROR] syntax error at line 1, column ")
	})
}
