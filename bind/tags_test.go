package bind

import (
	"reflect"
	"testing"
	"time"

	"github.com/goliatone/go-typeconf/editor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tagged struct {
	MaxRetries int           `config:",min=1,max=10,default=3"`
	Timeout    time.Duration `config:"timeout,default=5s"`
	Ratio      *float64      `config:"ratio,nullable"`
	Tags       []string      `config:"tags,optional"`
	Nested     Circle        `config:"nested,label=Inner,description=inner circle"`
	Shape      Shape         `config:"shape,disc=type,default=Circle"`
	Wrapped    Shape         `config:"wrapped,wrapped,disc=kind,payload=body,optional"`
	Skipped    string        `config:"-"`
	Untagged   string
	hidden     string `config:"hidden"`
}

func TestTagFields(t *testing.T) {
	fields, err := tagFields(reflect.TypeFor[tagged](), editor.DefaultTagName)
	require.NoError(t, err)

	keys := make([]string, 0, len(fields))
	for _, f := range fields {
		keys = append(keys, f.Key())
	}
	assert.Equal(t, []string{"maxRetries", "timeout", "ratio", "tags", "nested", "shape", "wrapped"}, keys)

	runTestCases(t, []testCase{
		{
			name: "integer bounds and default",
			run: func(t *testing.T) {
				f := fields[0]
				assert.Equal(t, KindInteger, f.Kind())
				assert.Equal(t, 1.0, *f.min)
				assert.Equal(t, 10.0, *f.max)
				assert.Equal(t, "3", f.def)
			},
		},
		{
			name: "durations are strings",
			run: func(t *testing.T) {
				assert.Equal(t, KindString, fields[1].Kind())
			},
		},
		{
			name: "pointers to leaves",
			run: func(t *testing.T) {
				assert.Equal(t, KindNumber, fields[2].Kind())
				assert.True(t, fields[2].nullable)
			},
		},
		{
			name: "slices become lists",
			run: func(t *testing.T) {
				assert.Equal(t, KindList, fields[3].Kind())
				assert.Equal(t, KindString, fields[3].elem.Kind())
				assert.True(t, fields[3].optional)
			},
		},
		{
			name: "structs become classes",
			run: func(t *testing.T) {
				assert.Equal(t, KindClass, fields[4].Kind())
				assert.Equal(t, "Inner", fields[4].label)
				assert.Equal(t, "inner circle", fields[4].description)
			},
		},
		{
			name: "merged subclass",
			run: func(t *testing.T) {
				f := fields[5]
				assert.Equal(t, KindSubclass, f.Kind())
				assert.False(t, f.wrapped)
				assert.Equal(t, "type", f.discKey)
				assert.Equal(t, "Circle", f.def)
			},
		},
		{
			name: "wrapped subclass",
			run: func(t *testing.T) {
				f := fields[6]
				assert.True(t, f.wrapped)
				assert.Equal(t, "kind", f.discKey)
				assert.Equal(t, "body", f.payloadKey)
			},
		},
	})
}

func TestTagFieldErrors(t *testing.T) {
	type unknownOption struct {
		N int `config:"n,frobnicate"`
	}
	type unsupported struct {
		C chan int `config:"c"`
	}
	type emptyEnum struct {
		S string `config:"s,values="`
	}

	_, err := tagFields(reflect.TypeFor[unknownOption](), editor.DefaultTagName)
	assert.Error(t, err)

	_, err = tagFields(reflect.TypeFor[unsupported](), editor.DefaultTagName)
	assert.Error(t, err)

	fields, err := tagFields(reflect.TypeFor[emptyEnum](), editor.DefaultTagName)
	require.NoError(t, err)
	_, err = fields[0].build(New(nil))
	assert.Error(t, err)
}

func TestTaggedSubclassModes(t *testing.T) {
	e := newShapeEngine(t)
	ed, _, err := e.EditorFor(reflect.TypeFor[tagged]())
	require.NoError(t, err)
	m := ed.(*editor.MapEditor)

	shape := m.Child("shape").(*editor.SubclassEditor)
	assert.True(t, shape.IsMerged())
	assert.Equal(t, "type", shape.DiscriminatorKey())

	wrapped := m.Child("wrapped").(*editor.SubclassEditor)
	assert.False(t, wrapped.IsMerged())
	assert.Equal(t, "body", wrapped.PayloadKey())

	m.SetConfig(map[string]any{
		"shape":   map[string]any{"type": "Triangle", "side": 4.0},
		"wrapped": map[string]any{"kind": "Circle", "body": map[string]any{"r": 5.0}},
	})
	v, err := shape.Value()
	require.NoError(t, err)
	assert.Equal(t, &Triangle{Side: 4}, v)

	v, err = wrapped.Value()
	require.NoError(t, err)
	assert.Equal(t, &Circle{Radius: 5}, v)
}

func TestTagNameOption(t *testing.T) {
	type yamlTagged struct {
		Size int `yaml:"size,default=4"`
	}
	e := New(nil, WithTagName("yaml"))
	assert.Equal(t, StrategyTags, e.StrategyFor(reflect.TypeFor[yamlTagged]()))

	out, err := Build[yamlTagged](e, map[string]any{"size": 9.0})
	require.NoError(t, err)
	assert.Equal(t, 9, out.Size)
}
