// Package schema describes editor trees as JSON Schema documents.
//
// Types reachable through class and subclass editors are emitted once under "definitions" and
// referenced with "$ref". A definition key is reserved before its body is generated, so types
// that refer to themselves, directly or through other types, terminate.
package schema

import (
	"fmt"
	"reflect"
	"regexp"

	"github.com/goliatone/go-typeconf/editor"
	"github.com/goliatone/go-typeconf/logger"
	"github.com/goliatone/go-typeconf/registry"
)

// Provider is implemented by custom editors that describe themselves.
type Provider interface {
	JSONSchema(g *Generator) (*Schema, error)
}

// InvariantError reports a misuse of the generator. It is raised with panic.
type InvariantError struct {
	Msg string
}

func (e *InvariantError) Error() string {
	return "schema: " + e.Msg
}

type Option func(*Generator)

func WithLogger(l logger.Logger) Option {
	return func(g *Generator) {
		if l != nil {
			g.logger = l
		}
	}
}

// Generator walks editor trees without changing the documents they hold. Class editors and
// lists build their inner editor and element prototype on first read and keep them, so a
// generation may populate those caches.
type Generator struct {
	logger logger.Logger
	doc    *Document
	keys   map[reflect.Type]string
	owners map[string]reflect.Type
	active bool
}

func NewGenerator(opts ...Option) *Generator {
	g := &Generator{logger: logger.Nop()}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	return g
}

// Generate describes e as a complete document. Calling it from within a running generation,
// for instance from a Provider, panics with an *InvariantError; providers use Node instead.
func (g *Generator) Generate(e editor.Editor) (*Document, error) {
	if g.active {
		panic(&InvariantError{Msg: "root document requested while a generation is in progress"})
	}
	g.active = true
	defer func() { g.active = false }()

	g.doc = newDocument()
	g.keys = map[reflect.Type]string{}
	g.owners = map[string]reflect.Type{}

	root, err := g.Node(e)
	if err != nil {
		return nil, err
	}
	g.doc.Root = root
	return g.doc, nil
}

// Generate is a shorthand for NewGenerator().Generate(e).
func Generate(e editor.Editor) (*Document, error) {
	return NewGenerator().Generate(e)
}

// Node describes e within the running generation.
func (g *Generator) Node(e editor.Editor) (*Schema, error) {
	if !g.active {
		panic(&InvariantError{Msg: "node requested outside of a generation"})
	}
	if e == nil {
		return &Schema{}, nil
	}
	if p, ok := e.(Provider); ok {
		return p.JSONSchema(g)
	}

	var (
		node *Schema
		err  error
	)
	switch ed := e.(type) {
	case *editor.NumberEditor:
		node = &Schema{Type: leafType(TypeNameNumber, ed.Nullable())}
		if v, ok := ed.Min(); ok {
			node.Minimum = &v
		}
		if v, ok := ed.Max(); ok {
			node.Maximum = &v
		}
		node.Default = ed.DefaultValue()
	case *editor.IntegerEditor:
		node = &Schema{Type: leafType(TypeNameInteger, ed.Nullable())}
		if v, ok := ed.Min(); ok {
			f := float64(v)
			node.Minimum = &f
		}
		if v, ok := ed.Max(); ok {
			f := float64(v)
			node.Maximum = &f
		}
		node.Default = ed.DefaultValue()
	case *editor.BoolEditor:
		node = &Schema{Type: leafType(TypeNameBoolean, ed.Nullable()), Default: ed.DefaultValue()}
	case *editor.StringEditor:
		node = &Schema{Type: leafType(TypeNameString, ed.Nullable()), Default: ed.DefaultValue()}
	case *editor.EnumEditor:
		node = &Schema{Type: leafType(TypeNameString, ed.Nullable()), Default: ed.DefaultValue()}
		for _, v := range ed.Values() {
			node.Enum = append(node.Enum, v)
		}
		if ed.Nullable() {
			node.Enum = append(node.Enum, nil)
		}
	case *editor.ColorEditor:
		node = &Schema{
			Type:    leafType(TypeNameString, ed.Nullable()),
			Pattern: editor.ColorPattern,
			Format:  FormatColor,
			Default: ed.DefaultValue(),
		}
	case *editor.NullEditor:
		node = &Schema{Type: Types(TypeNameNull)}
	case *editor.MapEditor:
		node, err = g.object(ed)
	case *editor.ListEditor:
		var items *Schema
		if items, err = g.Node(ed.Prototype()); err == nil {
			node = &Schema{Type: Types(TypeNameArray), Items: items}
		}
	case *editor.ClassEditor:
		ref, err := g.class(ed)
		if err != nil {
			return nil, err
		}
		// references stay bare; the definition carries the type's own annotations
		return &Schema{Ref: ref}, nil
	case *editor.SubclassEditor:
		node, err = g.subclass(ed)
	default:
		g.logger.Debug("no schema for editor, emitting an open node", "editor", fmt.Sprintf("%T", e))
		node = &Schema{}
	}
	if err != nil {
		return nil, err
	}
	annotate(node, e)
	return node, nil
}

func (g *Generator) object(m *editor.MapEditor) (*Schema, error) {
	node := &Schema{Type: Types(TypeNameObject)}
	for _, entry := range m.Entries() {
		child, err := g.Node(entry.Editor)
		if err != nil {
			return nil, err
		}
		if entry.Merge {
			node.AllOf = append(node.AllOf, child)
			continue
		}
		if node.Properties == nil {
			node.Properties = map[string]*Schema{}
		}
		node.Properties[entry.Key] = child
		if !entry.Optional {
			node.Required = append(node.Required, entry.Key)
		}
	}
	return node, nil
}

func (g *Generator) class(c *editor.ClassEditor) (string, error) {
	return g.define(c.Type(), func() (*Schema, error) {
		inner, err := c.Inner()
		if err != nil {
			g.logger.Warn("class has no editor, emitting an open definition", "type", registry.TypeID(c.Type()), "error", err)
			return &Schema{}, nil
		}
		return g.Node(inner)
	})
}

func (g *Generator) subclass(s *editor.SubclassEditor) (*Schema, error) {
	node := &Schema{}
	for _, member := range s.Members() {
		member := member
		ref, err := g.define(member.Type, func() (*Schema, error) {
			ed, err := s.EditorForEntry(member)
			if err != nil {
				g.logger.Warn("member has no editor, emitting an open definition", "type", member.ID, "error", err)
				return &Schema{}, nil
			}
			return g.Node(ed)
		})
		if err != nil {
			return nil, err
		}
		node.OneOf = append(node.OneOf, variant(s, member, ref))
	}
	return node, nil
}

func variant(s *editor.SubclassEditor, member registry.Entry, ref string) *Schema {
	disc := &Schema{Const: member.Discriminator}
	if s.IsMerged() {
		return &Schema{
			Title: member.DisplayName,
			AllOf: []*Schema{
				{Ref: ref},
				{
					Type:       Types(TypeNameObject),
					Properties: map[string]*Schema{s.DiscriminatorKey(): disc},
					Required:   []string{s.DiscriminatorKey()},
				},
			},
		}
	}
	return &Schema{
		Title: member.DisplayName,
		Type:  Types(TypeNameObject),
		Properties: map[string]*Schema{
			s.DiscriminatorKey(): disc,
			s.PayloadKey():       {Ref: ref},
		},
		Required: []string{s.DiscriminatorKey()},
	}
}

// define returns the reference for t, generating its definition on first use. The key holds
// a placeholder while the body is generated.
func (g *Generator) define(t reflect.Type, body func() (*Schema, error)) (string, error) {
	key := g.keyFor(t)
	if g.doc.HasDef(key) {
		return Ref(key), nil
	}
	g.doc.Definitions[key] = &Schema{Ref: Ref(key)}
	node, err := body()
	if err != nil {
		delete(g.doc.Definitions, key)
		return "", err
	}
	g.doc.Definitions[key] = node
	return Ref(key), nil
}

var unsafeKeyChars = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)

// keyFor names t by its type name, or by its full id when another type already owns the name.
func (g *Generator) keyFor(t reflect.Type) string {
	t = registry.Indirect(t)
	if key, ok := g.keys[t]; ok {
		return key
	}
	key := unsafeKeyChars.ReplaceAllString(t.Name(), "_")
	if owner, taken := g.owners[key]; key == "" || (taken && owner != t) {
		key = unsafeKeyChars.ReplaceAllString(registry.TypeID(t), "_")
	}
	g.keys[t] = key
	g.owners[key] = t
	return key
}

func leafType(name string, nullable bool) SchemaType {
	if nullable {
		return Types(name, TypeNameNull)
	}
	return Types(name)
}

func annotate(node *Schema, e editor.Editor) {
	if node.Title == "" {
		node.Title = e.Label()
	}
	if node.Description == "" {
		node.Description = e.Description()
	}
	if len(node.Tags) == 0 {
		node.Tags = e.Profiles()
	}
}
