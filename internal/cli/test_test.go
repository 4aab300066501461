package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const passingScenario = `name: users_over_18
description: selection under a projection
tables:
  - name: Users
    columns:
      - {name: id, type: INT, primaryKey: true}
      - {name: age, type: INT}
sql: SELECT id FROM Users WHERE age > 18
expect:
  valid: true
  ar: 'π[id](σ[age > 18](Users))'
  steps: 3
`

const failingScenario = `name: wrong_ar
description: expectation that does not hold
tables:
  - name: Users
    columns:
      - {name: id, type: INT, primaryKey: true}
sql: SELECT id FROM Users
expect:
  valid: true
  ar: 'π[id](Customers)'
`

func scenarioDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func TestTestCommand_AllPass(t *testing.T) {
	dir := scenarioDir(t, map[string]string{"users.yaml": passingScenario})

	stdout, _, err := execute(t, nil, "test", dir)
	require.NoError(t, err)
	assert.Equal(t, "✓ users_over_18\n\nTest Summary: 1 passed, 0 failed, 1 total\n✓ All scenarios passed\n", stdout)
}

func TestTestCommand_Failure(t *testing.T) {
	dir := scenarioDir(t, map[string]string{
		"users.yaml": passingScenario,
		"wrong.yaml": failingScenario,
	})

	stdout, _, err := execute(t, nil, "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Equal(t, "E203: 1 scenario(s) failed", err.Error())
	assert.Contains(t, stdout, "✗ wrong_ar\n  ar:\n    got  π[id](Users)\n    want π[id](Customers)\n")
	assert.Contains(t, stdout, "Test Summary: 1 passed, 1 failed, 2 total\n")
}

func TestTestCommand_Filter(t *testing.T) {
	dir := scenarioDir(t, map[string]string{
		"users.yaml": passingScenario,
		"wrong.yaml": failingScenario,
	})

	stdout, _, err := execute(t, nil, "test", dir, "--filter", "user*")
	require.NoError(t, err)
	assert.NotContains(t, stdout, "wrong_ar")
	assert.Contains(t, stdout, "1 passed, 0 failed, 1 total")

	_, _, err = execute(t, nil, "test", dir, "--filter", "[")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTestCommand_GoldenLifecycle(t *testing.T) {
	dir := scenarioDir(t, map[string]string{"users.yaml": passingScenario})
	golden := filepath.Join(dir, "golden", "users_over_18.golden")

	stdout, _, err := execute(t, nil, "test", dir, "--update")
	require.NoError(t, err)
	assert.Contains(t, stdout, "✓ users_over_18 (golden updated)\n")
	data, err := os.ReadFile(golden)
	require.NoError(t, err)
	assert.Contains(t, string(data), "ar: π[id](σ[age > 18](Users))\n")

	_, _, err = execute(t, nil, "test", dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(golden, []byte("scenario: users_over_18\n"), 0o644))
	stdout, _, err = execute(t, nil, "test", dir)
	require.Error(t, err)
	assert.Contains(t, stdout, "snapshot does not match golden file")
}

func TestTestCommand_CustomGoldenDir(t *testing.T) {
	dir := scenarioDir(t, map[string]string{"users.yaml": passingScenario})
	golden := t.TempDir()

	_, _, err := execute(t, nil, "test", dir, "--update", "--golden", golden)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(golden, "users_over_18.golden"))
	assert.NoDirExists(t, filepath.Join(dir, "golden"))
}

func TestTestCommand_LoadError(t *testing.T) {
	dir := scenarioDir(t, map[string]string{"broken.yaml": "name: broken\nsql: SELECT 1\n"})

	stdout, _, err := execute(t, nil, "test", dir)
	require.Error(t, err)
	assert.Contains(t, stdout, "✗ broken.yaml\n  load: ")
}

func TestTestCommand_JSON(t *testing.T) {
	dir := scenarioDir(t, map[string]string{
		"users.yaml": passingScenario,
		"wrong.yaml": failingScenario,
	})

	stdout, _, err := execute(t, nil, "--format", "json", "test", dir)
	require.Error(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
		Error  *CLIError  `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, 2, resp.Data.Total)
	assert.Equal(t, 1, resp.Data.Failed)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeScenario, resp.Error.Code)
}

func TestTestCommand_EmptyAndMissingDir(t *testing.T) {
	stdout, _, err := execute(t, nil, "test", t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "No scenarios found.\n", stdout)

	_, _, err = execute(t, nil, "test", filepath.Join(t.TempDir(), "missing"))
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTestCommand_RepositoryScenarios(t *testing.T) {
	stdout, _, err := execute(t, nil, "test", "../../testdata/scenarios")
	require.NoError(t, err, stdout)
	assert.Contains(t, stdout, "✓ All scenarios passed")
}
