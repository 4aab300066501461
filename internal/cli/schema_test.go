package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const keylessSchema = `tables:
  - name: T
    columns:
      - {name: x, type: INT}
      - {name: x, type: TEXT}
`

func TestSchemaCheck(t *testing.T) {
	t.Run("well formed", func(t *testing.T) {
		stdout, _, err := execute(t, nil, "schema", "check", shopSchema)
		require.NoError(t, err)
		assert.Equal(t, "✓ "+shopSchema+": 5 table(s)\n", stdout)
	})

	t.Run("structural errors", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte(keylessSchema), 0o644))

		stdout, _, err := execute(t, nil, "schema", "check", path)
		require.Error(t, err)
		assert.Equal(t, ExitFailure, GetExitCode(err))
		assert.Equal(t, "E202: schema has 2 error(s)", err.Error())
		assert.Equal(t, "✗ "+path+"\n"+
			"  [SYNTAX_ERROR] Duplicate column 'x' in table 'T'.\n"+
			"  [SYNTAX_ERROR] Table 'T' has no primary key.\n", stdout)
	})

	t.Run("json", func(t *testing.T) {
		stdout, _, err := execute(t, nil, "--format", "json", "schema", "check", shopSchema)
		require.NoError(t, err)

		var resp struct {
			Status string            `json:"status"`
			Data   schemaCheckResult `json:"data"`
		}
		require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
		assert.Equal(t, "ok", resp.Status)
		assert.Equal(t, 5, resp.Data.Tables)
		assert.Len(t, resp.Data.Hash, 64)
		assert.Empty(t, resp.Data.Diagnostics)
	})

	t.Run("missing file", func(t *testing.T) {
		_, _, err := execute(t, nil, "schema", "check", "nope.yaml")
		assert.Equal(t, ExitCommandError, GetExitCode(err))
	})
}

func TestSchemaHash_Stable(t *testing.T) {
	first, _, err := execute(t, nil, "schema", "hash", shopSchema)
	require.NoError(t, err)
	second, _, err := execute(t, nil, "schema", "hash", shopSchema)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.NotEmpty(t, first)
}
