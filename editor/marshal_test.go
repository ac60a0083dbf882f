package editor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalConfigKeepsDeclarationOrder(t *testing.T) {
	m := NewMap().
		Field("z", NewInteger(1)).
		Field("a", NewString("x")).
		Field("m", NewBool(true)).
		Field("dotted.key", NewInteger(2))
	m.SetConfig(nil)

	data, err := MarshalConfig(m)
	require.NoError(t, err)
	assert.Equal(t, `{"z":1,"a":"x","m":true,"dotted.key":2}`, string(data))
}

func TestMarshalConfigNested(t *testing.T) {
	reg := newShapeRegistry(t)
	binder := &stubBinder{}
	m := NewMap().
		Field("name", NewString("")).
		Field("shapes", NewList(func() Editor { return NewSubclass(reg, shapeType, binder).Merged("type") })).
		Field("main", NewSubclass(reg, shapeType, binder))

	m.SetConfig(map[string]any{
		"name":   "scene",
		"shapes": []any{map[string]any{"side": 3.0, "type": "Triangle"}},
		"main":   map[string]any{"classConfig": map[string]any{"h": 2.0, "w": 5.0}, "className": "Rectangle"},
	})

	data, err := MarshalConfig(m)
	require.NoError(t, err)
	assert.Equal(t,
		`{"name":"scene","shapes":[{"type":"Triangle","side":3}],"main":{"className":"Rectangle","classConfig":{"w":5,"h":2}}}`,
		string(data))

	v, ok := ConfigPath(m, "main.classConfig.w")
	require.True(t, ok)
	assert.Equal(t, 5.0, v)

	_, ok = ConfigPath(m, "main.classConfig.depth")
	assert.False(t, ok)

	pretty, err := MarshalConfigIndent(m)
	require.NoError(t, err)
	assert.Contains(t, string(pretty), "\n")
	assert.JSONEq(t, string(data), string(pretty))
}

func TestMarshalConfigMergedEntries(t *testing.T) {
	point := NewMap().Field("x", NewNumber(0)).Field("y", NewNumber(0))
	m := NewMap().
		Field("name", NewString("p")).
		Field("point", point, Merged()).
		Field("z", NewNumber(0))
	m.SetConfig(map[string]any{"y": 2.0, "x": 1.0, "z": 0.5})

	data, err := MarshalConfig(m)
	require.NoError(t, err)
	assert.Equal(t, `{"name":"p","x":1,"y":2,"z":0.5}`, string(data))
}

func TestMarshalConfigUnresolvedSubclass(t *testing.T) {
	s := NewSubclass(newShapeRegistry(t), shapeType, &stubBinder{})
	s.SetConfig(map[string]any{"className": "Hexagon"})

	data, err := MarshalConfig(s)
	require.NoError(t, err)
	assert.JSONEq(t, `{"className":"Hexagon"}`, string(data))
}
