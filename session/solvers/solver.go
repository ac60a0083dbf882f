// Package solvers rewrites string values of a loaded document before it is bound: variable
// references, URI payloads and expressions.
package solvers

import (
	"fmt"

	"github.com/knadh/koanf/v2"
)

// Solver rewrites values of a loaded document in place.
type Solver interface {
	Solve(k *koanf.Koanf) *koanf.Koanf
}

// resolveFunc returns the replacement for a string value and whether it applies.
type resolveFunc func(val string) (any, bool)

// apply runs resolve over every string reachable from the flattened keys of k, including
// strings nested in arrays and in objects held by arrays.
func apply(k *koanf.Koanf, resolve resolveFunc) {
	if k == nil {
		return
	}
	for key, val := range k.All() {
		if out, changed := walk(val, resolve); changed {
			k.Set(key, out)
		}
	}
}

func walk(val any, resolve resolveFunc) (any, bool) {
	switch v := val.(type) {
	case string:
		return resolve(v)
	case []any:
		var out []any
		for i, item := range v {
			next, changed := walk(item, resolve)
			if !changed {
				continue
			}
			if out == nil {
				out = append([]any(nil), v...)
			}
			out[i] = next
		}
		if out == nil {
			return val, false
		}
		return out, true
	case map[string]any:
		var out map[string]any
		for key, item := range v {
			next, changed := walk(item, resolve)
			if !changed {
				continue
			}
			if out == nil {
				out = make(map[string]any, len(v))
				for k2, v2 := range v {
					out[k2] = v2
				}
			}
			out[key] = next
		}
		if out == nil {
			return val, false
		}
		return out, true
	}
	return val, false
}

func toString(v any) string {
	return fmt.Sprintf("%v", v)
}
