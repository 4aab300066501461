package diag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func TestResultAccumulates(t *testing.T) {
	r := New()
	assert.True(t, r.Valid())
	assert.NoError(t, r.Err())

	r.AddWarning("shadowed %s", "Users")
	assert.True(t, r.Valid(), "warnings do not invalidate")

	r.AddError(KindLogic, "Table not found: %s", "Foo")
	r.AddError(KindSyntax, "bad schema")

	assert.False(t, r.Valid())
	assert.Equal(t, 2, r.ErrorCount())
	require.Len(t, r.Items, 3)
	assert.Equal(t, Diagnostic{Severity: SeverityWarning, Kind: KindWarning, Message: "shadowed Users"}, r.Items[0])
	assert.Equal(t, "Table not found: Foo", r.Errors()[0].Message)
	assert.Len(t, r.Warnings(), 1)
}

func TestResultMergeKeepsOrder(t *testing.T) {
	a := New()
	a.AddError(KindSyntax, "first")
	b := New()
	b.AddError(KindLogic, "second")
	b.AddSuccess("ok")

	a.Merge(b)
	a.Merge(nil)

	require.Len(t, a.Items, 3)
	assert.Equal(t, "first", a.Items[0].Message)
	assert.Equal(t, "second", a.Items[1].Message)
	assert.Equal(t, SeveritySuccess, a.Items[2].Severity)
}

func TestResultErrCombinesErrors(t *testing.T) {
	r := New()
	r.AddError(KindLogic, "one")
	r.AddWarning("not an error")
	r.AddError(KindLogic, "two")

	err := r.Err()
	require.Error(t, err)
	errs := multierr.Errors(err)
	require.Len(t, errs, 2)
	assert.Equal(t, "[LOGIC_ERROR] one", errs[0].Error())
	assert.Equal(t, "[LOGIC_ERROR] two", errs[1].Error())
}
