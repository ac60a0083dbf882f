package schema

import (
	"encoding/json"
	"fmt"
)

// JSON Schema type names.
const (
	TypeNameString  = "string"
	TypeNameNumber  = "number"
	TypeNameInteger = "integer"
	TypeNameBoolean = "boolean"
	TypeNameArray   = "array"
	TypeNameObject  = "object"
	TypeNameNull    = "null"
)

const FormatColor = "color"

// Schema is one node of a generated schema document.
type Schema struct {
	Ref         string             `json:"$ref,omitempty"`
	Title       string             `json:"title,omitempty"`
	Description string             `json:"description,omitempty"`
	Type        SchemaType         `json:"type,omitzero"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Required    []string           `json:"required,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	Enum        []any              `json:"enum,omitempty"`
	Const       any                `json:"const,omitempty"`
	Default     any                `json:"default,omitempty"`
	Minimum     *float64           `json:"minimum,omitempty"`
	Maximum     *float64           `json:"maximum,omitempty"`
	Pattern     string             `json:"pattern,omitempty"`
	Format      string             `json:"format,omitempty"`
	AllOf       []*Schema          `json:"allOf,omitempty"`
	OneOf       []*Schema          `json:"oneOf,omitempty"`

	// Tags carries the profile tags of the editor the node was generated from.
	Tags []string `json:"x-profiles,omitempty"`
}

// SchemaType is a single type or a list of types.
type SchemaType struct {
	Types []string
}

// Types builds a SchemaType.
func Types(types ...string) SchemaType {
	return SchemaType{Types: types}
}

func (t *SchemaType) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		t.Types = []string{single}
		return nil
	}
	var arr []string
	if err := json.Unmarshal(data, &arr); err != nil {
		return fmt.Errorf("type must be string or array of strings: %w", err)
	}
	t.Types = arr
	return nil
}

// MarshalJSON outputs a single type as a string, several as an array.
func (t SchemaType) MarshalJSON() ([]byte, error) {
	if len(t.Types) == 1 {
		return json.Marshal(t.Types[0])
	}
	return json.Marshal(t.Types)
}

func (t SchemaType) IsZero() bool {
	return len(t.Types) == 0
}

// Is reports whether typ is one of the types.
func (t SchemaType) Is(typ string) bool {
	for _, st := range t.Types {
		if st == typ {
			return true
		}
	}
	return false
}
