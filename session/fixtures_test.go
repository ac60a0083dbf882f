package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/goliatone/go-typeconf/bind"
	"github.com/goliatone/go-typeconf/logger"
	"github.com/goliatone/go-typeconf/registry"
	"github.com/stretchr/testify/require"
)

type Shape interface {
	Area() float64
}

type Circle struct {
	Radius float64 `config:"r,min=0,default=1"`
}

func (c *Circle) Area() float64 { return 3 * c.Radius * c.Radius }

type Square struct {
	Side float64 `config:"side,default=1"`
}

func (s *Square) Area() float64 { return s.Side * s.Side }

type App struct {
	Name  string `config:"name,default=app"`
	Port  int    `config:"port,default=8080"`
	Debug bool   `config:"debug"`
	Shape Shape  `config:"shape,optional"`
}

// appDefaults feeds the struct provider.
type appDefaults struct {
	Name string `koanf:"name"`
	Port int    `koanf:"port"`
}

func newEngine(t *testing.T) *bind.Engine {
	t.Helper()
	reg := registry.New()
	require.NoError(t, registry.Register[Shape, Circle](reg))
	require.NoError(t, registry.Register[Shape, Square](reg))
	return bind.New(reg)
}

func newSession(t *testing.T, opts ...Option[App]) *Session[App] {
	t.Helper()
	opts = append([]Option[App]{
		WithConfigPath[App](""),
		WithLogger[App](logger.Nop()),
	}, opts...)
	s, err := New[App](newEngine(t), opts...)
	require.NoError(t, err)
	return s
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}
