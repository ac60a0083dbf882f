package editor

import (
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
)

// MarshalConfig serializes the editor's document keeping object keys in declaration order.
func MarshalConfig(e Editor) ([]byte, error) {
	out, err := orderedJSON(e)
	if err != nil {
		return nil, err
	}
	return []byte(out), nil
}

// MarshalConfigIndent is MarshalConfig with indented output.
func MarshalConfigIndent(e Editor) ([]byte, error) {
	out, err := MarshalConfig(e)
	if err != nil {
		return nil, err
	}
	return pretty.Pretty(out), nil
}

// ConfigPath looks up a gjson path in the editor's document.
func ConfigPath(e Editor, path string) (any, bool) {
	data, err := MarshalConfig(e)
	if err != nil {
		return nil, false
	}
	res := gjson.GetBytes(data, path)
	if !res.Exists() {
		return nil, false
	}
	return res.Value(), true
}

func orderedJSON(e Editor) (string, error) {
	switch ed := e.(type) {
	case *MapEditor:
		return orderedMap(ed)
	case *ListEditor:
		out := "[]"
		for _, item := range ed.items {
			raw, err := orderedJSON(item)
			if err != nil {
				return "", err
			}
			if out, err = sjson.SetRaw(out, "-1", raw); err != nil {
				return "", err
			}
		}
		return out, nil
	case *ClassEditor:
		ed.build()
		if ed.inner == nil {
			return plainJSON(ed.Config())
		}
		return orderedJSON(ed.inner)
	case *SubclassEditor:
		return orderedSubclass(ed)
	default:
		return plainJSON(e.Config())
	}
}

func orderedMap(m *MapEditor) (string, error) {
	out := "{}"
	for _, entry := range m.entries {
		if !m.selected[entry.key] {
			continue
		}
		raw, err := orderedJSON(entry.editor)
		if err != nil {
			return "", err
		}
		if entry.merge {
			if out, err = mergeObject(out, raw, ""); err != nil {
				return "", err
			}
			continue
		}
		if out, err = sjson.SetRaw(out, escapeKey(entry.key), raw); err != nil {
			return "", err
		}
	}
	return out, nil
}

func orderedSubclass(s *SubclassEditor) (string, error) {
	if s.child == nil || s.entry == nil {
		return plainJSON(s.Config())
	}
	raw, err := orderedJSON(s.child)
	if err != nil {
		return "", err
	}
	out, err := sjson.Set("{}", escapeKey(s.discKey), s.entry.Discriminator)
	if err != nil {
		return "", err
	}
	if !s.merged {
		return sjson.SetRaw(out, escapeKey(s.payloadKey), raw)
	}
	return mergeObject(out, raw, s.discKey)
}

// mergeObject copies the members of the raw object into out, in order, skipping skip.
func mergeObject(out, raw, skip string) (string, error) {
	parsed := gjson.Parse(raw)
	if !parsed.IsObject() {
		return out, nil
	}
	var err error
	parsed.ForEach(func(key, value gjson.Result) bool {
		k := key.String()
		if k == skip {
			return true
		}
		out, err = sjson.SetRaw(out, escapeKey(k), value.Raw)
		return err == nil
	})
	return out, err
}

func plainJSON(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

var keyEscaper = strings.NewReplacer(
	`\`, `\\`,
	`.`, `\.`,
	`*`, `\*`,
	`?`, `\?`,
	`|`, `\|`,
	`#`, `\#`,
	`@`, `\@`,
	`:`, `\:`,
)

func escapeKey(k string) string {
	return keyEscaper.Replace(k)
}
