package bind

import (
	"reflect"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-typeconf/editor"
	"github.com/goliatone/go-typeconf/registry"
)

// Role tells the engine what to pass for a constructor parameter.
type Role int

const (
	// RoleRuntime receives the engine's runtime context.
	RoleRuntime Role = iota + 1
	// RoleEdit receives the engine's edit context.
	RoleEdit
	// RoleConfig receives a copy of the document the type was loaded from.
	RoleConfig
	// RoleField receives the bound value of one declared field.
	RoleField
)

func (r Role) String() string {
	switch r {
	case RoleRuntime:
		return "runtime"
	case RoleEdit:
		return "edit"
	case RoleConfig:
		return "config"
	case RoleField:
		return "field"
	default:
		return "unknown"
	}
}

// Param is one constructor parameter.
type Param struct {
	Role  Role
	Field Field
}

func RuntimeParam() Param { return Param{Role: RoleRuntime} }
func EditParam() Param    { return Param{Role: RoleEdit} }
func ConfigParam() Param  { return Param{Role: RoleConfig} }

// FieldParam passes the value bound to f. The field also becomes part of the type's editor.
func FieldParam(f Field) Param {
	return Param{Role: RoleField, Field: f}
}

// Constructor is the configuration entry point of an immutable type. New receives one
// argument per parameter, in order.
type Constructor struct {
	Params []Param
	New    func(args ...any) (any, error)
}

// NewConstructor pairs a constructor function with its parameters.
func NewConstructor(fn func(args ...any) (any, error), params ...Param) Constructor {
	return Constructor{Params: params, New: fn}
}

func (c Constructor) fields() []Field {
	var out []Field
	for _, p := range c.Params {
		if p.Role == RoleField {
			out = append(out, p.Field)
		}
	}
	return out
}

// construct calls the constructor of t with the arguments bound from ed.
func (e *Engine) construct(t reflect.Type, ctor Constructor, ed editor.Editor) (any, error) {
	id := registry.TypeID(t)
	m, ok := ed.(*editor.MapEditor)
	if !ok {
		return nil, editor.NewConfigurationError("construct", id, editor.ErrParamRole,
			errors.New("constructor types are bound through a map editor", errors.CategoryValidation).
				WithTextCode("PARAM_ROLE_MISMATCH"), nil)
	}
	if ctor.New == nil {
		return nil, editor.NewConfigurationError("construct", id, editor.ErrInstantiate,
			errors.New("constructor has no function", errors.CategoryValidation).
				WithTextCode("MISSING_CONSTRUCTOR"), nil)
	}

	values, err := m.Values()
	if err != nil {
		return nil, err
	}

	args := make([]any, 0, len(ctor.Params))
	for i, p := range ctor.Params {
		switch p.Role {
		case RoleRuntime:
			args = append(args, e.runtime)
		case RoleEdit:
			args = append(args, e.editCtx)
		case RoleConfig:
			raw := m.RawConfig()
			if raw == nil {
				raw = m.Config()
			}
			args = append(args, editor.CloneDocument(raw))
		case RoleField:
			if m.Child(p.Field.key) == nil {
				return nil, paramError(id, i, p, "parameter field is not bound by the editor")
			}
			args = append(args, values[p.Field.key])
		default:
			return nil, paramError(id, i, p, "unknown parameter role")
		}
	}

	e.logger.Debug("invoking constructor", "type", id, "params", len(args))
	instance, err := ctor.New(args...)
	if err != nil {
		return nil, editor.NewConfigurationError("construct", id, editor.ErrInstantiate, err, nil)
	}
	if !isInstanceOf(instance, t) {
		return nil, editor.NewConfigurationError("construct", id, editor.ErrInstantiate,
			errors.New("constructor returned an unexpected type", errors.CategoryValidation).
				WithTextCode("UNEXPECTED_INSTANCE_TYPE").
				WithMetadata(map[string]any{"returned": typeString(instance)}), nil)
	}
	return instance, nil
}

func paramError(typeID string, index int, p Param, msg string) error {
	meta := map[string]any{
		"index": index,
		"role":  p.Role.String(),
		"key":   p.Field.key,
	}
	return editor.NewConfigurationError("construct", typeID, editor.ErrParamRole,
		errors.New(msg, errors.CategoryValidation).
			WithTextCode("PARAM_ROLE_MISMATCH").
			WithMetadata(meta), meta)
}

func isInstanceOf(instance any, t reflect.Type) bool {
	if instance == nil {
		return false
	}
	it := reflect.TypeOf(instance)
	return it == t || it == reflect.PointerTo(t)
}

func typeString(v any) string {
	if v == nil {
		return "nil"
	}
	return reflect.TypeOf(v).String()
}
