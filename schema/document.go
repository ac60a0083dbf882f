package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-errors"
	"github.com/kaptinlin/jsonschema"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// DraftURI is the $schema value of generated documents.
const DraftURI = "https://json-schema.org/draft/2020-12/schema"

const refPrefix = "#/definitions/"

// Ref returns the reference to a definition key.
func Ref(key string) string {
	return refPrefix + key
}

// Document is a generated schema: a root node plus the flat definitions it references.
type Document struct {
	Root        *Schema
	Definitions map[string]*Schema

	once     sync.Once
	compiled *jsonschema.Schema
	err      error
}

func newDocument() *Document {
	return &Document{Definitions: map[string]*Schema{}}
}

func (d *Document) HasDef(key string) bool {
	_, ok := d.Definitions[key]
	return ok
}

func (d *Document) Def(key string) *Schema {
	return d.Definitions[key]
}

// DefKeys returns the definition keys, sorted.
func (d *Document) DefKeys() []string {
	keys := make([]string, 0, len(d.Definitions))
	for k := range d.Definitions {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// MarshalJSON emits $schema, the root node's members and the definitions.
func (d *Document) MarshalJSON() ([]byte, error) {
	out, err := sjson.Set("{}", "$schema", DraftURI)
	if err != nil {
		return nil, err
	}
	if d.Root != nil {
		root, err := json.Marshal(d.Root)
		if err != nil {
			return nil, err
		}
		gjson.ParseBytes(root).ForEach(func(key, value gjson.Result) bool {
			out, err = sjson.SetRaw(out, escapeKey(key.String()), value.Raw)
			return err == nil
		})
		if err != nil {
			return nil, err
		}
	}
	if len(d.Definitions) > 0 {
		defs := "{}"
		for _, key := range d.DefKeys() {
			body, err := json.Marshal(d.Definitions[key])
			if err != nil {
				return nil, err
			}
			if defs, err = sjson.SetRaw(defs, escapeKey(key), string(body)); err != nil {
				return nil, err
			}
		}
		if out, err = sjson.SetRaw(out, "definitions", defs); err != nil {
			return nil, err
		}
	}
	return []byte(out), nil
}

// JSON returns the indented document.
func (d *Document) JSON() ([]byte, error) {
	raw, err := d.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Validate checks a configuration document against the schema.
func (d *Document) Validate(doc any) error {
	compiled, err := d.compile()
	if err != nil {
		return err
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return errors.Wrap(err, errors.CategoryBadInput, "configuration is not valid JSON").
			WithTextCode("INVALID_DOCUMENT")
	}
	var normalized any
	if err := json.Unmarshal(data, &normalized); err != nil {
		return errors.Wrap(err, errors.CategoryBadInput, "configuration is not valid JSON").
			WithTextCode("INVALID_DOCUMENT")
	}

	result := compiled.Validate(normalized)
	if result.Valid {
		return nil
	}
	messages := make([]string, 0, len(result.Errors))
	for key, evalErr := range result.Errors {
		messages = append(messages, fmt.Sprintf("%s: %v", key, evalErr))
	}
	sort.Strings(messages)
	return errors.New("configuration does not match schema", errors.CategoryValidation).
		WithTextCode("SCHEMA_VALIDATION_FAILED").
		WithMetadata(map[string]any{
			"errors": messages,
		})
}

// compile builds the validator once. Definitions are handed to the compiler under the
// draft 2020-12 $defs keyword.
func (d *Document) compile() (*jsonschema.Schema, error) {
	d.once.Do(func() {
		raw, err := d.MarshalJSON()
		if err != nil {
			d.err = err
			return
		}
		src := string(raw)
		if defs := gjson.Get(src, "definitions"); defs.Exists() {
			src = strings.ReplaceAll(src, `"`+refPrefix, `"#/$defs/`)
			if src, err = sjson.SetRaw(src, "$defs", gjson.Get(src, "definitions").Raw); err == nil {
				src, err = sjson.Delete(src, "definitions")
			}
			if err != nil {
				d.err = err
				return
			}
		}
		compiled, err := jsonschema.NewCompiler().Compile([]byte(src))
		if err != nil {
			d.err = errors.Wrap(err, errors.CategoryOperation, "failed to compile schema").
				WithTextCode("SCHEMA_COMPILE_FAILED")
			return
		}
		d.compiled = compiled
	})
	return d.compiled, d.err
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
