package editor

import (
	"encoding"
	"reflect"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/mitchellh/copystructure"
)

// CloneDocument deep copies a JSON document. Values that cannot be copied are returned as is.
func CloneDocument(doc any) any {
	if doc == nil {
		return nil
	}
	out, err := copystructure.Copy(doc)
	if err != nil {
		return doc
	}
	return out
}

// DecodeHooks returns the hook set used when decoding values onto struct targets.
func DecodeHooks() []mapstructure.DecodeHookFunc {
	return []mapstructure.DecodeHookFunc{
		mapstructure.StringToTimeDurationHookFunc(),
		textUnmarshalerHook(),
	}
}

// Decode writes values onto the struct pointed to by target. Keys match the tagName tag or,
// without one, the field name case insensitively. Keys without a matching field are skipped.
//
// Interface and pointer fields receiving an assignable value are set directly so bound
// instances keep their identity.
func Decode(values map[string]any, target any, tagName string) error {
	if tagName == "" {
		tagName = DefaultTagName
	}
	rest := assignDirect(values, target, tagName)
	if len(rest) == 0 {
		return nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		TagName:          tagName,
		WeaklyTypedInput: true,
		ZeroFields:       true,
		Squash:           true,
		DecodeHook:       mapstructure.ComposeDecodeHookFunc(DecodeHooks()...),
	})
	if err != nil {
		return err
	}
	return decoder.Decode(rest)
}

func assignDirect(values map[string]any, target any, tagName string) map[string]any {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return values
	}
	fields := map[string]reflect.Value{}
	collectFields(rv.Elem(), tagName, fields)

	rest := make(map[string]any, len(values))
	for key, val := range values {
		field, ok := fields[strings.ToLower(key)]
		if !ok || val == nil || !field.CanSet() {
			rest[key] = val
			continue
		}
		kind := field.Kind()
		vt := reflect.TypeOf(val)
		if (kind == reflect.Interface || kind == reflect.Pointer) && vt.AssignableTo(field.Type()) {
			field.Set(reflect.ValueOf(val))
			continue
		}
		rest[key] = val
	}
	return rest
}

func collectFields(v reflect.Value, tagName string, out map[string]reflect.Value) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		tag := sf.Tag.Get(tagName)
		name, _, _ := strings.Cut(tag, ",")
		if name == "-" {
			continue
		}
		if sf.Anonymous && sf.Type.Kind() == reflect.Struct && name == "" {
			collectFields(v.Field(i), tagName, out)
			continue
		}
		if name == "" {
			name = sf.Name
		}
		key := strings.ToLower(name)
		if _, taken := out[key]; !taken {
			out[key] = v.Field(i)
		}
	}
}

func textUnmarshalerHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data any) (any, error) {
		if from.Kind() != reflect.String || from == to {
			return data, nil
		}
		result := reflect.New(to).Interface()
		unmarshaler, ok := result.(encoding.TextUnmarshaler)
		if !ok {
			return data, nil
		}
		if err := unmarshaler.UnmarshalText([]byte(reflect.ValueOf(data).String())); err != nil {
			return nil, err
		}
		return result, nil
	}
}
