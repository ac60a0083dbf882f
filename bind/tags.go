package bind

import (
	"reflect"
	"strings"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/spf13/cast"
	"github.com/stoewer/go-strcase"
)

var (
	durationType = reflect.TypeFor[time.Duration]()
)

// hasTaggedFields reports whether t, or a struct it embeds, carries the tag on any field.
func hasTaggedFields(t reflect.Type, tagName string) bool {
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if _, ok := sf.Tag.Lookup(tagName); ok {
			return true
		}
		if sf.Anonymous && indirect(sf.Type).Kind() == reflect.Struct && hasTaggedFields(indirect(sf.Type), tagName) {
			return true
		}
	}
	return false
}

// tagFields derives field descriptors from struct tags:
//
//	Width int `config:"width,min=1,max=100,default=10"`
//	Label string `config:",optional,label=Caption"`
//	Shape Shape `config:"shape,disc=type"`
//
// Options: optional, merge, nullable, color, wrapped, min=, max=, default=, label=,
// description=, profiles=a|b, values=a|b, disc=, payload=. An empty key is derived from the
// field name in lower camel case. Untagged fields of embedded structs are flattened.
func tagFields(t reflect.Type, tagName string) ([]Field, error) {
	var out []Field
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		tag, tagged := sf.Tag.Lookup(tagName)
		if sf.Anonymous && !tagged && indirect(sf.Type).Kind() == reflect.Struct {
			nested, err := tagFields(indirect(sf.Type), tagName)
			if err != nil {
				return nil, err
			}
			out = append(out, nested...)
			continue
		}
		if !tagged || tag == "-" || !sf.IsExported() {
			continue
		}

		name, rest, _ := strings.Cut(tag, ",")
		if name == "" {
			name = strcase.LowerCamelCase(sf.Name)
		}
		field, err := fieldForType(name, sf.Type)
		if err != nil {
			return nil, err
		}
		if field, err = applyTagOptions(field, rest); err != nil {
			return nil, errors.Wrap(err, errors.CategoryBadInput, "invalid config tag").
				WithTextCode("INVALID_TAG").
				WithMetadata(map[string]any{
					"type":  t.String(),
					"field": sf.Name,
					"tag":   tag,
				})
		}
		out = append(out, field)
	}
	return out, nil
}

func fieldForType(key string, t reflect.Type) (Field, error) {
	if t == durationType {
		return String(key), nil
	}
	switch t.Kind() {
	case reflect.Float32, reflect.Float64:
		return Number(key), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return Integer(key), nil
	case reflect.Bool:
		return Bool(key), nil
	case reflect.String:
		return String(key), nil
	case reflect.Interface:
		return Field{key: key, kind: KindSubclass, typ: t}, nil
	case reflect.Struct:
		return Field{key: key, kind: KindClass, typ: t}, nil
	case reflect.Pointer:
		if indirect(t).Kind() == reflect.Struct {
			return Field{key: key, kind: KindClass, typ: indirect(t)}, nil
		}
		return fieldForType(key, t.Elem())
	case reflect.Slice, reflect.Array:
		elem, err := fieldForType("", t.Elem())
		if err != nil {
			return Field{}, err
		}
		return List(key, elem), nil
	}
	return Field{}, errors.New("unsupported field type", errors.CategoryBadInput).
		WithTextCode("UNSUPPORTED_FIELD_TYPE").
		WithMetadata(map[string]any{
			"key":  key,
			"type": t.String(),
		})
}

func applyTagOptions(f Field, opts string) (Field, error) {
	if opts == "" {
		return f, nil
	}
	for _, opt := range strings.Split(opts, ",") {
		name, value, hasValue := strings.Cut(strings.TrimSpace(opt), "=")
		switch name {
		case "":
		case "optional":
			f = f.Optional()
		case "merge":
			f = f.Merge()
		case "nullable":
			f = f.Nullable()
		case "color":
			f.kind = KindColor
		case "wrapped":
			f = f.Wrapped(f.discKey, f.payloadKey)
		case "min", "max":
			v, err := cast.ToFloat64E(value)
			if err != nil || !hasValue {
				return f, errors.New("bound is not a number: "+opt, errors.CategoryBadInput)
			}
			if name == "min" {
				f = f.Min(v)
			} else {
				f = f.Max(v)
			}
		case "default":
			f = f.Default(value)
		case "label":
			f = f.Label(value)
		case "description":
			f = f.Describe(value)
		case "profiles":
			f = f.Profiles(splitList(value)...)
		case "values":
			f.kind = KindEnum
			f = f.Values(splitList(value)...)
		case "disc":
			if f.wrapped {
				f.discKey = value
			} else {
				f = f.DiscriminatorKey(value)
			}
		case "payload":
			f = f.Wrapped(f.discKey, value)
		default:
			return f, errors.New("unknown tag option: "+name, errors.CategoryBadInput)
		}
	}
	return f, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, "|") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
