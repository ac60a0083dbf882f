package solvers

import (
	"strings"

	"github.com/knadh/koanf/v2"
)

type variables struct {
	start, end string
}

// NewVariablesSolver replaces references to other keys, e.g. "${server.host}". A value made
// of a single reference takes the referenced value with its type; references embedded in a
// longer string are formatted into it. Unknown references are left untouched.
func NewVariablesSolver(start, end string) Solver {
	if start == "" {
		start = "${"
	}
	if end == "" {
		end = "}"
	}
	return &variables{start: start, end: end}
}

func (s *variables) Solve(k *koanf.Koanf) *koanf.Koanf {
	apply(k, func(val string) (any, bool) {
		return s.resolve(k, val)
	})
	return k
}

func (s *variables) resolve(k *koanf.Koanf, val string) (any, bool) {
	if path, ok := s.whole(val); ok {
		if !k.Exists(path) {
			return val, false
		}
		return k.Get(path), true
	}

	var (
		b       strings.Builder
		changed bool
		rest    = val
	)
	for {
		i := strings.Index(rest, s.start)
		if i == -1 {
			break
		}
		j := strings.Index(rest[i+len(s.start):], s.end)
		if j == -1 {
			break
		}
		path := rest[i+len(s.start) : i+len(s.start)+j]
		token := rest[:i+len(s.start)+j+len(s.end)]
		if path != "" && k.Exists(path) {
			b.WriteString(rest[:i])
			b.WriteString(toString(k.Get(path)))
			changed = true
		} else {
			b.WriteString(token)
		}
		rest = rest[len(token):]
	}
	if !changed {
		return val, false
	}
	b.WriteString(rest)
	return b.String(), true
}

// whole reports whether val is exactly one reference.
func (s *variables) whole(val string) (string, bool) {
	if !strings.HasPrefix(val, s.start) || !strings.HasSuffix(val, s.end) {
		return "", false
	}
	path := val[len(s.start) : len(val)-len(s.end)]
	if path == "" || strings.Contains(path, s.start) || strings.Contains(path, s.end) {
		return "", false
	}
	return path, true
}
