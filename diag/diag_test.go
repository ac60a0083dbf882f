package diag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector(t *testing.T) {
	c := NewCollector(nil)

	c.Report(Diagnostic{Code: CodeUnknownKey, Path: "colour", Message: "unknown configuration key"})
	c.Report(Diagnostic{Code: CodeUnresolvedType, Path: "Hexagon", Message: "type not registered"})

	require.Equal(t, 2, c.Len())
	unknown := c.ByCode(CodeUnknownKey)
	require.Len(t, unknown, 1)
	assert.Equal(t, "colour", unknown[0].Path)
	assert.Equal(t, "[UNKNOWN_KEY] colour: unknown configuration key", unknown[0].String())

	all := c.All()
	all[0].Path = "mutated"
	assert.Equal(t, "colour", c.All()[0].Path)

	c.Reset()
	assert.Zero(t, c.Len())
}

func TestDiagnosticStringWithoutPath(t *testing.T) {
	d := Diagnostic{Code: CodeEditorUnavailable, Message: "no editor"}
	assert.Equal(t, "[EDITOR_UNAVAILABLE] no editor", d.String())
}
