package bind

import (
	"math"
	"reflect"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-typeconf/editor"
	"github.com/spf13/cast"
)

// Kind is the editor kind a Field produces.
type Kind int

const (
	KindNumber Kind = iota + 1
	KindInteger
	KindBool
	KindString
	KindEnum
	KindColor
	KindNull
	KindClass
	KindSubclass
	KindList
	KindCustom
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindInteger:
		return "integer"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindEnum:
		return "enum"
	case KindColor:
		return "color"
	case KindNull:
		return "null"
	case KindClass:
		return "class"
	case KindSubclass:
		return "subclass"
	case KindList:
		return "list"
	case KindCustom:
		return "custom"
	default:
		return "unknown"
	}
}

// Field declares one configurable key of a type. Fields are values; modifiers return copies.
type Field struct {
	key         string
	kind        Kind
	label       string
	description string
	def         any
	min, max    *float64
	optional    bool
	merge       bool
	nullable    bool
	profiles    []string
	values      []string
	typ         reflect.Type
	elem        *Field
	discKey     string
	payloadKey  string
	wrapped     bool
	custom      func(*Engine) (editor.Editor, error)
}

func Number(key string) Field  { return Field{key: key, kind: KindNumber} }
func Integer(key string) Field { return Field{key: key, kind: KindInteger} }
func Bool(key string) Field    { return Field{key: key, kind: KindBool} }
func String(key string) Field  { return Field{key: key, kind: KindString} }
func Color(key string) Field   { return Field{key: key, kind: KindColor} }
func Null(key string) Field    { return Field{key: key, kind: KindNull} }

// Enum declares a string restricted to values.
func Enum(key string, values ...string) Field {
	return Field{key: key, kind: KindEnum, values: append([]string(nil), values...)}
}

// Class declares a nested object bound to the concrete type T.
func Class[T any](key string) Field {
	return Field{key: key, kind: KindClass, typ: reflect.TypeFor[T]()}
}

// Subclass declares a polymorphic slot holding any registered implementation of B.
func Subclass[B any](key string) Field {
	return Field{key: key, kind: KindSubclass, typ: reflect.TypeFor[B]()}
}

// List declares an array whose items are described by elem. The elem key is ignored.
func List(key string, elem Field) Field {
	return Field{key: key, kind: KindList, elem: &elem}
}

// Custom declares a key bound to an editor built by fn.
func Custom(key string, fn func(*Engine) (editor.Editor, error)) Field {
	return Field{key: key, kind: KindCustom, custom: fn}
}

func (f Field) Key() string { return f.key }
func (f Field) Kind() Kind  { return f.kind }

func (f Field) Label(label string) Field {
	f.label = label
	return f
}

func (f Field) Describe(desc string) Field {
	f.description = desc
	return f
}

// Default sets the leaf default, or the default discriminator of a subclass.
func (f Field) Default(v any) Field {
	f.def = v
	return f
}

func (f Field) Range(min, max float64) Field {
	return f.Min(min).Max(max)
}

func (f Field) Min(v float64) Field {
	f.min = &v
	return f
}

func (f Field) Max(v float64) Field {
	f.max = &v
	return f
}

func (f Field) Optional() Field {
	f.optional = true
	return f
}

// Merge flattens the field's object into the enclosing object.
func (f Field) Merge() Field {
	f.merge = true
	return f
}

func (f Field) Nullable() Field {
	f.nullable = true
	return f
}

func (f Field) Profiles(names ...string) Field {
	f.profiles = append(append([]string(nil), f.profiles...), names...)
	return f
}

func (f Field) Values(values ...string) Field {
	f.values = append([]string(nil), values...)
	return f
}

// Wrapped stores a subclass as {discKey: name, payloadKey: {...}}. Empty keys keep the defaults.
func (f Field) Wrapped(discKey, payloadKey string) Field {
	f.wrapped = true
	f.discKey = discKey
	f.payloadKey = payloadKey
	return f
}

// DiscriminatorKey stores a subclass in merged mode, its discriminator under key.
func (f Field) DiscriminatorKey(key string) Field {
	f.wrapped = false
	f.discKey = key
	f.payloadKey = ""
	return f
}

func (f Field) entryOptions() []editor.EntryOption {
	var opts []editor.EntryOption
	if f.optional {
		opts = append(opts, editor.Optional())
	}
	if f.merge {
		opts = append(opts, editor.Merged())
	}
	return opts
}

// build creates the editor described by f.
func (f Field) build(e *Engine) (editor.Editor, error) {
	label := f.label
	if label == "" {
		label = f.key
	}
	opts := []editor.Option{
		editor.WithLabel(label),
		editor.WithDescription(f.description),
		editor.WithProfiles(f.profiles...),
		editor.WithReporter(e.reporter),
		editor.WithLogger(e.logger),
	}

	switch f.kind {
	case KindNumber:
		ed := editor.NewNumber(cast.ToFloat64(f.def), opts...).WithNullable(f.nullable)
		if f.min != nil || f.max != nil {
			ed.WithRange(orNaN(f.min), orNaN(f.max))
		}
		return ed, nil
	case KindInteger:
		ed := editor.NewInteger(cast.ToInt64(f.def), opts...).WithNullable(f.nullable)
		if f.min != nil {
			ed.WithMin(int64(math.Ceil(*f.min)))
		}
		if f.max != nil {
			ed.WithMax(int64(math.Floor(*f.max)))
		}
		return ed, nil
	case KindBool:
		return editor.NewBool(cast.ToBool(f.def), opts...).WithNullable(f.nullable), nil
	case KindString:
		return editor.NewString(cast.ToString(f.def), opts...).WithNullable(f.nullable), nil
	case KindEnum:
		if len(f.values) == 0 {
			return nil, f.invalid("enum declares no values")
		}
		return editor.NewEnum(f.values, cast.ToString(f.def), opts...).WithNullable(f.nullable), nil
	case KindColor:
		return editor.NewColor(cast.ToString(f.def), opts...).WithNullable(f.nullable), nil
	case KindNull:
		return editor.NewNull(opts...), nil
	case KindClass:
		if f.typ == nil || indirect(f.typ).Kind() != reflect.Struct {
			return nil, f.invalid("class fields need a struct type")
		}
		return editor.NewClass(f.typ, e, opts...), nil
	case KindSubclass:
		if f.typ == nil || f.typ.Kind() != reflect.Interface {
			return nil, f.invalid("subclass fields need an interface type")
		}
		ed := editor.NewSubclass(e.reg, f.typ, e, opts...)
		switch {
		case f.wrapped:
			ed.Wrapped(f.discKey, f.payloadKey)
		case f.discKey != "":
			ed.Merged(f.discKey)
		}
		if name := cast.ToString(f.def); name != "" {
			ed.WithDefault(name)
		}
		return ed, nil
	case KindList:
		if f.elem == nil {
			return nil, f.invalid("list declares no element")
		}
		elem := *f.elem
		if _, err := elem.build(e); err != nil {
			return nil, err
		}
		return editor.NewList(func() editor.Editor {
			ed, _ := elem.build(e)
			return ed
		}, opts...), nil
	case KindCustom:
		if f.custom == nil {
			return nil, f.invalid("custom field has no constructor")
		}
		return f.custom(e)
	default:
		return nil, f.invalid("unknown field kind")
	}
}

func (f Field) invalid(msg string) error {
	return errors.New(msg, errors.CategoryBadInput).
		WithTextCode("INVALID_FIELD").
		WithMetadata(map[string]any{
			"key":  f.key,
			"kind": f.kind.String(),
		})
}

func orNaN(p *float64) float64 {
	if p == nil {
		return math.NaN()
	}
	return *p
}

func indirect(t reflect.Type) reflect.Type {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}
