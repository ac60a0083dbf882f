package bind

import (
	goerrors "errors"
	"reflect"
	"testing"

	"github.com/goliatone/go-typeconf/editor"
	"github.com/goliatone/go-typeconf/registry"
	"github.com/stretchr/testify/require"
)

type Shape interface {
	Area() float64
}

// Circle is bound through struct tags.
type Circle struct {
	Radius float64 `config:"r,min=0,default=1,label=Radius"`
}

func (c *Circle) Area() float64 { return 3 * c.Radius * c.Radius }

// Rectangle declares its fields and binds them itself.
type Rectangle struct {
	W, H  float64
	binds int
}

func (r *Rectangle) Area() float64 { return r.W * r.H }

func (r *Rectangle) ConfigFields() []Field {
	return []Field{
		Number("w").Default(1).Describe("width"),
		Number("h").Default(1),
	}
}

func (r *Rectangle) BindConfig(values map[string]any) error {
	r.binds++
	r.W, _ = values["w"].(float64)
	r.H, _ = values["h"].(float64)
	return nil
}

type Triangle struct {
	Side int `config:"side"`
}

func (t *Triangle) Area() float64 { return float64(t.Side) }

// Node refers to itself through an optional child.
type Node struct {
	Name  string `config:"name"`
	Child *Node  `config:"child,optional"`
}

type Scene struct {
	Title      string  `config:"title,default=untitled"`
	Shapes     []Shape `config:"shapes"`
	Main       Shape   `config:"main,optional"`
	Background string  `config:"background,color,default=#FFFFFF"`
	Mode       string  `config:"mode,values=fast|slow"`
	Expert     int     `config:"expert,profiles=expert"`
	Embedded
}

type Embedded struct {
	Depth int `config:"depth,default=2"`
}

// Sized is immutable and built through its constructor.
type Sized struct {
	ctx  any
	full map[string]any
	n    int64
}

func (s *Sized) ConfigConstructor() Constructor {
	return NewConstructor(func(args ...any) (any, error) {
		full, _ := args[1].(map[string]any)
		n, _ := args[2].(int64)
		return &Sized{ctx: args[0], full: full, n: n}, nil
	}, RuntimeParam(), ConfigParam(), FieldParam(Integer("n")))
}

// Gadget builds its own editor.
type Gadget struct {
	Level int
	rt    any
}

func (g *Gadget) NewConfigEditor(rt, ec any) (editor.Editor, error) {
	return editor.NewMap(editor.WithLabel("gadget")).Field("level", editor.NewInteger(3)), nil
}

// Plain has no configurable surface.
type Plain struct {
	Created bool
}

// SelfConfigured exposes an editor from its instance.
type SelfConfigured struct {
	X int64
}

func (s *SelfConfigured) ConfigEditor() (editor.Editor, error) {
	return editor.NewMap().Field("x", editor.NewInteger(0)), nil
}

func (s *SelfConfigured) BindConfig(values map[string]any) error {
	s.X, _ = values["x"].(int64)
	return nil
}

// Dial builds an editor that cannot bind values onto it.
type Dial struct {
	Level int64
}

func (d *Dial) NewConfigEditor(rt, ec any) (editor.Editor, error) {
	return editor.NewInteger(3), nil
}

// Knob keeps the editor it exposes and reads its level from it.
type Knob struct {
	ed *editor.IntegerEditor
}

func (k *Knob) ConfigEditor() (editor.Editor, error) {
	if k.ed == nil {
		k.ed = editor.NewInteger(1)
	}
	return k.ed, nil
}

func (k *Knob) Level() int64 { return k.ed.Int() }

// Restricted is only editable under the expert profile.
type Restricted struct {
	Level int `config:"level"`
}

func (r *Restricted) ConfigProfiles() []string { return []string{"expert"} }

var (
	shapeType = reflect.TypeFor[Shape]()
	errBoom   = goerrors.New("boom")
)

func newShapeEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	reg := registry.New()
	require.NoError(t, registry.Register[Shape, Circle](reg))
	require.NoError(t, registry.Register[Shape, Rectangle](reg))
	require.NoError(t, registry.Register[Shape, Triangle](reg))
	return New(reg, opts...)
}
