package bind

import (
	"reflect"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-typeconf/editor"
	"github.com/goliatone/go-typeconf/registry"
)

// Factory creates bare instances of concrete types. It returns a *T, or a T which is then
// copied into a new *T.
type Factory interface {
	New(t reflect.Type) (any, error)
}

type FactoryFunc func(t reflect.Type) (any, error)

func (f FactoryFunc) New(t reflect.Type) (any, error) {
	return f(t)
}

// DefaultFactory allocates a zero *T.
type DefaultFactory struct{}

func (DefaultFactory) New(t reflect.Type) (any, error) {
	return reflect.New(t).Interface(), nil
}

// FactoryProvider lets the runtime or edit context supply the factory.
type FactoryProvider interface {
	ConfigFactory() Factory
}

// Factory returns the factory in use: the configured one, then one provided by the runtime
// or edit context, then DefaultFactory.
func (e *Engine) Factory() Factory {
	if e.factory != nil {
		return e.factory
	}
	for _, ctx := range []any{e.runtime, e.editCtx} {
		if fp, ok := ctx.(FactoryProvider); ok {
			if f := fp.ConfigFactory(); f != nil {
				return f
			}
		}
	}
	return DefaultFactory{}
}

func (e *Engine) newInstance(t reflect.Type) (any, error) {
	id := registry.TypeID(t)
	instance, err := e.Factory().New(t)
	if err != nil {
		return nil, editor.NewConfigurationError("instantiate", id, editor.ErrInstantiate, err, nil)
	}
	if !isInstanceOf(instance, t) {
		return nil, editor.NewConfigurationError("instantiate", id, editor.ErrInstantiate,
			errors.New("factory returned an unexpected type", errors.CategoryValidation).
				WithTextCode("UNEXPECTED_INSTANCE_TYPE").
				WithMetadata(map[string]any{"returned": typeString(instance)}), nil)
	}
	if reflect.TypeOf(instance) == t {
		ptr := reflect.New(t)
		ptr.Elem().Set(reflect.ValueOf(instance))
		instance = ptr.Interface()
	}
	return instance, nil
}
