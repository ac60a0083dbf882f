package editor

import (
	goerrors "errors"
	"reflect"
	"testing"

	"github.com/goliatone/go-typeconf/registry"
	"github.com/stretchr/testify/require"
)

type Shape interface {
	Area() float64
}

type Circle struct {
	R float64 `config:"r"`
}

func (c *Circle) Area() float64 { return 3 * c.R * c.R }

type Rectangle struct {
	W int64 `config:"w"`
	H int64 `config:"h"`
}

func (r *Rectangle) Area() float64 { return float64(r.W * r.H) }

type Triangle struct {
	Side int `config:"side"`
}

func (t *Triangle) Area() float64 { return float64(t.Side) }

// Tagged declares a key equal to a merged discriminator key.
type Tagged struct {
	Type string `config:"type"`
}

func (t *Tagged) Area() float64 { return 0 }

type Broken struct{}

func (b *Broken) Area() float64 { return 0 }

var (
	shapeType     = reflect.TypeFor[Shape]()
	circleType    = reflect.TypeFor[Circle]()
	rectangleType = reflect.TypeFor[Rectangle]()
	triangleType  = reflect.TypeFor[Triangle]()
	taggedType    = reflect.TypeFor[Tagged]()
	brokenType    = reflect.TypeFor[Broken]()

	errBroken = goerrors.New("broken editor")
)

// stubBinder describes the fixture shapes by hand and binds through SetContentsOn.
type stubBinder struct {
	editorCalls  int
	instantiated int
}

func (b *stubBinder) EditorFor(t reflect.Type) (Editor, any, error) {
	b.editorCalls++
	switch t {
	case circleType:
		return NewMap().Field("r", NewNumber(1)), nil, nil
	case rectangleType:
		return NewMap().Field("w", NewInteger(1)).Field("h", NewInteger(1)), nil, nil
	case triangleType:
		return NewMap().Field("side", NewInteger(1)), nil, nil
	case taggedType:
		return NewMap().Field("type", NewString("")), nil, nil
	case brokenType:
		return nil, nil, errBroken
	}
	return NewMap(), nil, nil
}

func (b *stubBinder) Instantiate(t reflect.Type, ed Editor) (any, error) {
	b.instantiated++
	instance := reflect.New(t).Interface()
	if cs, ok := ed.(ContentSetter); ok {
		if err := cs.SetContentsOn(instance); err != nil {
			return nil, err
		}
	}
	return instance, nil
}

func (b *stubBinder) Apply(instance any, ed Editor) (bool, error) {
	cs, ok := ed.(ContentSetter)
	if !ok {
		return false, nil
	}
	return true, cs.SetContentsOn(instance)
}

func newShapeRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg := registry.New()
	require.NoError(t, registry.Register[Shape, Circle](reg))
	require.NoError(t, registry.Register[Shape, Rectangle](reg))
	require.NoError(t, registry.Register[Shape, Triangle](reg))
	return reg
}
