package solvers

import (
	"encoding/base64"
	"io/fs"
	"os"
	"strings"

	"github.com/knadh/koanf/v2"
)

// ProtocolFunc loads the content addressed by uri.
type ProtocolFunc func(fsys fs.FS, uri string) (string, error)

type uris struct {
	fsys       fs.FS
	start, sep string
	protocols  map[string]ProtocolFunc
}

// NewURISolver replaces values such as "@file://secret.txt" or "@base64://aGk=" with the
// content they address. Files are read relative to the working directory.
func NewURISolver(start, sep string) Solver {
	return NewURISolverWithFS(start, sep, os.DirFS("."))
}

// NewURISolverWithFS reads files from fsys.
func NewURISolverWithFS(start, sep string, fsys fs.FS) Solver {
	return &uris{
		fsys:  fsys,
		start: start,
		sep:   sep,
		protocols: map[string]ProtocolFunc{
			"file":   ReadFile,
			"base64": DecodeBase64,
		},
	}
}

// WithProtocol registers an extra protocol on a solver built by NewURISolver.
func WithProtocol(s Solver, name string, fn ProtocolFunc) Solver {
	if u, ok := s.(*uris); ok && fn != nil {
		u.protocols[name] = fn
	}
	return s
}

func (s *uris) Solve(k *koanf.Koanf) *koanf.Koanf {
	apply(k, s.resolve)
	return k
}

func (s *uris) resolve(val string) (any, bool) {
	if !strings.HasPrefix(val, s.start) {
		return val, false
	}
	protocol, uri, ok := strings.Cut(val[len(s.start):], s.sep)
	if !ok {
		return val, false
	}
	fn, ok := s.protocols[protocol]
	if !ok {
		return val, false
	}
	content, err := fn(s.fsys, uri)
	if err != nil {
		return val, false
	}
	return content, true
}

// ReadFile returns the file content without trailing newlines.
func ReadFile(fsys fs.FS, uri string) (string, error) {
	b, err := fs.ReadFile(fsys, uri)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(b), "\n"), nil
}

func DecodeBase64(_ fs.FS, uri string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(uri)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
