package bind

import (
	"reflect"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-typeconf/editor"
)

// EditorOf returns a root editor for T: a SubclassEditor when T is an interface, a
// ClassEditor when T is a struct or a pointer to one.
func EditorOf[T any](e *Engine, opts ...editor.Option) (editor.Editor, error) {
	t := reflect.TypeFor[T]()
	switch {
	case t.Kind() == reflect.Interface:
		return e.Subclass(t, opts...), nil
	case indirect(t).Kind() == reflect.Struct:
		return e.Class(t, opts...), nil
	}
	return nil, errors.New("type cannot be bound", errors.CategoryBadInput).
		WithTextCode("UNSUPPORTED_TYPE").
		WithMetadata(map[string]any{"type": t.String()})
}

// Build loads doc into a root editor for T and returns the bound value.
func Build[T any](e *Engine, doc any) (T, error) {
	var zero T
	ed, err := EditorOf[T](e)
	if err != nil {
		return zero, err
	}
	ed.SetConfig(doc)
	v, err := ed.Value()
	if err != nil {
		return zero, err
	}
	return As[T](v)
}

// As converts a bound value to T, dereferencing *T when T is a struct type.
func As[T any](v any) (T, error) {
	var zero T
	if v == nil {
		return zero, nil
	}
	if out, ok := v.(T); ok {
		return out, nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer && !rv.IsNil() {
		if out, ok := rv.Elem().Interface().(T); ok {
			return out, nil
		}
	}
	return zero, errors.New("bound value has an unexpected type", errors.CategoryValidation).
		WithTextCode("UNEXPECTED_VALUE_TYPE").
		WithMetadata(map[string]any{
			"expected": reflect.TypeFor[T]().String(),
			"actual":   rv.Type().String(),
		})
}
