package session

import "fmt"

// MergeVariants returns a koanf merge function that merges objects recursively, except when
// both sides carry discKey with different values: the later object then replaces the earlier
// one, so keys of a previously selected implementation do not leak into the new selection.
func MergeVariants(discKey string) func(src, dst map[string]any) error {
	var merge func(src, dst map[string]any) error
	merge = func(src, dst map[string]any) error {
		for key, srcVal := range src {
			srcMap, srcIsMap := srcVal.(map[string]any)
			dstMap, dstIsMap := dst[key].(map[string]any)
			if !srcIsMap || !dstIsMap || switchesVariant(srcMap, dstMap, discKey) {
				dst[key] = srcVal
				continue
			}
			if err := merge(srcMap, dstMap); err != nil {
				return err
			}
		}
		return nil
	}
	return merge
}

func switchesVariant(src, dst map[string]any, discKey string) bool {
	if discKey == "" {
		return false
	}
	a, okA := src[discKey]
	b, okB := dst[discKey]
	return okA && okB && fmt.Sprint(a) != fmt.Sprint(b)
}
