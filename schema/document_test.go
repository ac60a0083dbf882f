package schema

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"github.com/goliatone/go-typeconf/bind"
	"github.com/goliatone/go-typeconf/editor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestDocumentJSON(t *testing.T) {
	ed, err := bind.EditorOf[Node](bind.New(nil))
	require.NoError(t, err)
	doc, err := Generate(ed)
	require.NoError(t, err)

	out, err := doc.JSON()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(out), "{\n  \"$schema\": \""+DraftURI+"\""), string(out))
	assert.True(t, json.Valid(out))

	parsed := gjson.ParseBytes(out)
	assert.Equal(t, "#/definitions/Node", parsed.Get("\\$ref").String())
	assert.Equal(t, "object", parsed.Get("definitions.Node.type").String())
}

func TestSchemaTypeJSON(t *testing.T) {
	runTestCases(t, []testCase{
		{
			name: "single type is a string",
			run: func(t *testing.T) {
				data, err := json.Marshal(Types(TypeNameString))
				require.NoError(t, err)
				assert.Equal(t, `"string"`, string(data))
			},
		},
		{
			name: "several types are an array",
			run: func(t *testing.T) {
				data, err := json.Marshal(Types(TypeNameString, TypeNameNull))
				require.NoError(t, err)
				assert.Equal(t, `["string","null"]`, string(data))
			},
		},
		{
			name: "empty type is omitted",
			run: func(t *testing.T) {
				data, err := json.Marshal(&Schema{Ref: "#/definitions/X"})
				require.NoError(t, err)
				assert.Equal(t, `{"$ref":"#/definitions/X"}`, string(data))
			},
		},
		{
			name: "unmarshal both forms",
			run: func(t *testing.T) {
				var s Schema
				require.NoError(t, json.Unmarshal([]byte(`{"type":["integer","null"]}`), &s))
				assert.True(t, s.Type.Is(TypeNameNull))
				require.NoError(t, json.Unmarshal([]byte(`{"type":"integer"}`), &s))
				assert.Equal(t, []string{"integer"}, s.Type.Types)
				assert.Error(t, json.Unmarshal([]byte(`{"type":3}`), &s))
			},
		},
	})
}

func TestValidate(t *testing.T) {
	nodeEditor, err := bind.EditorOf[Node](bind.New(nil))
	require.NoError(t, err)
	nodes, err := Generate(nodeEditor)
	require.NoError(t, err)

	shapes, err := Generate(shapeEngine(t).Subclass(reflect.TypeFor[Shape]()))
	require.NoError(t, err)

	leaves, err := Generate(editor.NewMap().
		Field("width", editor.NewInteger(10).WithRange(1, 100)).
		Field("mode", editor.NewEnum([]string{"fast", "slow"}, "")))
	require.NoError(t, err)

	runTestCases(t, []testCase{
		{
			name: "recursive document",
			run: func(t *testing.T) {
				assert.NoError(t, nodes.Validate(map[string]any{
					"name":  "root",
					"child": map[string]any{"name": "leaf", "child": map[string]any{"name": "deep"}},
				}))
			},
		},
		{
			name: "recursive document with a wrong leaf",
			run: func(t *testing.T) {
				assert.Error(t, nodes.Validate(map[string]any{
					"name":  "root",
					"child": map[string]any{"name": 3},
				}))
			},
		},
		{
			name: "missing required key",
			run: func(t *testing.T) {
				assert.Error(t, nodes.Validate(map[string]any{"child": map[string]any{"name": "x"}}))
			},
		},
		{
			name: "selected variant",
			run: func(t *testing.T) {
				assert.NoError(t, shapes.Validate(map[string]any{
					"className":   "Triangle",
					"classConfig": map[string]any{"side": 3},
				}))
			},
		},
		{
			name: "unknown variant",
			run: func(t *testing.T) {
				assert.Error(t, shapes.Validate(map[string]any{"className": "Hexagon"}))
			},
		},
		{
			name: "range and enum",
			run: func(t *testing.T) {
				assert.NoError(t, leaves.Validate(map[string]any{"width": 5, "mode": "slow"}))
				assert.Error(t, leaves.Validate(map[string]any{"width": 500, "mode": "slow"}))
				assert.Error(t, leaves.Validate(map[string]any{"width": 5, "mode": "warp"}))
			},
		},
		{
			name: "editor output validates",
			run: func(t *testing.T) {
				nodeEditor.SetConfig(map[string]any{"name": "a", "child": map[string]any{"name": "b"}})
				assert.NoError(t, nodes.Validate(nodeEditor.Config()))
			},
		},
	})
}
