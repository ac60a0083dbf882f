package registry

import (
	"reflect"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/goliatone/go-typeconf/diag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Shape interface {
	Area() float64
}

type Circle struct{ R float64 }

func (c *Circle) Area() float64 { return 3 * c.R * c.R }

type Rectangle struct{ W, H float64 }

func (r Rectangle) Area() float64 { return r.W * r.H }

type RoundedRectangle struct{ Rectangle }

type NotAShape struct{}

var shapeType = reflect.TypeFor[Shape]()

func newShapes(t *testing.T, opts ...Option) *Registry {
	t.Helper()
	r := New(opts...)
	require.NoError(t, Register[Shape, Circle](r))
	require.NoError(t, Register[Shape, Rectangle](r, DisplayName("Box")))
	return r
}

func TestRegisterValidation(t *testing.T) {
	r := New()

	err := r.Register(reflect.TypeFor[Circle](), reflect.TypeFor[Circle]())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "interface")

	err = Register[Shape, NotAShape](r)
	require.Error(t, err)

	err = r.Register(nil, reflect.TypeFor[Circle]())
	require.Error(t, err)

	assert.NoError(t, Register[Shape, *Circle](r))
}

func TestResolveOrderAndDefaults(t *testing.T) {
	r := newShapes(t)

	entries := r.Resolve(shapeType)
	require.Len(t, entries, 2)

	assert.Equal(t, "Circle", entries[0].Discriminator)
	assert.Equal(t, "Circle", entries[0].DisplayName)
	assert.Equal(t, reflect.TypeFor[Circle](), entries[0].Type)
	assert.Equal(t, "github.com/goliatone/go-typeconf/registry.Circle", entries[0].ID)

	assert.Equal(t, "Rectangle", entries[1].Discriminator)
	assert.Equal(t, "Box", entries[1].DisplayName)
}

func TestFindResolutionOrder(t *testing.T) {
	r := New()
	require.NoError(t, Register[Shape, Circle](r, Discriminator("circle"), DisplayName("Rectangle")))
	require.NoError(t, Register[Shape, Rectangle](r))

	runTestCases(t, []testCase{
		{
			name: "exact discriminator wins over display name",
			run: func(t *testing.T) {
				e, ok := r.Find(shapeType, "Rectangle")
				require.True(t, ok)
				assert.Equal(t, reflect.TypeFor[Rectangle](), e.Type)
			},
		},
		{
			name: "display name",
			run: func(t *testing.T) {
				r2 := New()
				require.NoError(t, Register[Shape, Circle](r2, DisplayName("Round")))
				e, ok := r2.Find(shapeType, "Round")
				require.True(t, ok)
				assert.Equal(t, "Circle", e.Discriminator)
			},
		},
		{
			name: "suffix of type id",
			run: func(t *testing.T) {
				e, ok := r.Find(shapeType, "registry.Circle")
				require.True(t, ok)
				assert.Equal(t, "circle", e.Discriminator)
			},
		},
		{
			name: "deterministic across calls",
			run: func(t *testing.T) {
				first, _ := r.Find(shapeType, "angle")
				for i := 0; i < 5; i++ {
					again, ok := r.Find(shapeType, "angle")
					require.True(t, ok)
					assert.Equal(t, first, again)
				}
			},
		},
		{
			name: "unknown and empty names",
			run: func(t *testing.T) {
				_, ok := r.Find(shapeType, "Hexagon")
				assert.False(t, ok)
				_, ok = r.Find(shapeType, " ")
				assert.False(t, ok)
			},
		},
	})
}

func TestDiscriminatorCollisionFallsBackToTypeID(t *testing.T) {
	collector := diag.NewCollector(nil)
	r := New(WithReporter(collector))
	require.NoError(t, Register[Shape, Circle](r, Discriminator("shape")))
	require.NoError(t, Register[Shape, Rectangle](r, Discriminator("shape")))

	entries := r.Resolve(shapeType)
	require.Len(t, entries, 2)
	assert.Equal(t, "shape", entries[0].Discriminator)
	assert.Equal(t, entries[1].ID, entries[1].Discriminator)
	assert.Equal(t, entries[1].ID, entries[1].DisplayName)

	found := collector.ByCode(diag.CodeDiscriminatorCollision)
	require.Len(t, found, 1)
	assert.Equal(t, entries[1].ID, found[0].Path)
}

func TestScannerIsLazyAndMemoized(t *testing.T) {
	var calls int32
	scanner := func() []reflect.Type {
		atomic.AddInt32(&calls, 1)
		return []reflect.Type{
			reflect.TypeFor[RoundedRectangle](),
			reflect.TypeFor[NotAShape](),
			reflect.TypeFor[*Circle](),
		}
	}

	r := New(WithScanner(scanner))
	assert.Zero(t, atomic.LoadInt32(&calls))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Resolve(shapeType)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	entries := r.Resolve(shapeType)
	require.Len(t, entries, 2)
	assert.Equal(t, "Circle", entries[0].Discriminator)
	assert.Equal(t, "RoundedRectangle", entries[1].Discriminator)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestRegisterInvalidatesScope(t *testing.T) {
	r := newShapes(t)
	require.Len(t, r.Resolve(shapeType), 2)

	require.NoError(t, Register[Shape, RoundedRectangle](r))
	assert.Len(t, r.Resolve(shapeType), 3)
}

func TestResolveReturnsCopy(t *testing.T) {
	r := newShapes(t)
	entries := r.Resolve(shapeType)
	entries[0].Discriminator = "mutated"
	assert.Equal(t, "Circle", r.Resolve(shapeType)[0].Discriminator)
}

func TestLookupAndProfiles(t *testing.T) {
	r := New()
	require.NoError(t, Register[Shape, Circle](r, Profiles("advanced")))

	e, ok := r.Lookup(shapeType, reflect.TypeFor[*Circle]())
	require.True(t, ok)
	assert.Equal(t, []string{"advanced"}, e.Profiles)

	_, ok = r.Lookup(shapeType, reflect.TypeFor[Rectangle]())
	assert.False(t, ok)
}

func TestTypeID(t *testing.T) {
	assert.Equal(t, "github.com/goliatone/go-typeconf/registry.Circle", TypeID(reflect.TypeFor[**Circle]()))
	assert.Equal(t, "int", TypeID(reflect.TypeFor[int]()))
	assert.Equal(t, "", TypeID(nil))
}
