package editor

import (
	"reflect"

	"github.com/goliatone/go-typeconf/diag"
	"github.com/goliatone/go-typeconf/logger"
)

const (
	// DefaultDiscriminatorKey names the concrete type of a polymorphic slot.
	DefaultDiscriminatorKey = "className"
	// DefaultPayloadKey holds the concrete type's own document in wrapped mode.
	DefaultPayloadKey = "classConfig"
	// DefaultTagName is the struct tag used when decoding values onto targets.
	DefaultTagName = "config"
)

// Editor binds one region of a JSON document to a typed value or sub-object.
//
// Documents use the encoding/json generic shapes: map[string]any, []any, numbers, string,
// bool and nil. SetConfig never fails: malformed input degrades to defaults and unknown keys
// are reported as diagnostics. Value is the only step allowed to fail, with a ConfigurationError.
type Editor interface {
	Label() string
	Description() string
	Profiles() []string
	CanEdit(active Profile) bool
	SetConfig(doc any)
	Config() any
	Value() (any, error)
	DefaultValue() any
}

// Binder builds editors for, and instances of, concrete types. The bind package provides the
// implementation; composite editors only depend on this contract.
type Binder interface {
	// EditorFor returns the editor describing t. The instance is non-nil when building the
	// editor required creating one (types configured through their own instance).
	EditorFor(t reflect.Type) (Editor, any, error)
	// Instantiate creates a new instance of t populated from ed.
	Instantiate(t reflect.Type, ed Editor) (any, error)
	// Apply re-binds ed onto an existing instance. It reports false when the instance
	// cannot be updated in place and has to be rebuilt.
	Apply(instance any, ed Editor) (bool, error)
}

// ValueBinder is implemented by targets that bind their own values instead of relying on
// struct decoding. Values are keyed by document key; nil values are never passed.
type ValueBinder interface {
	BindConfig(values map[string]any) error
}

// ContentSetter is implemented by editors able to push their values onto a target.
type ContentSetter interface {
	SetContentsOn(target any) error
}

// KeyClaimer reports whether an editor owns a key of the enclosing object. Editors merged into
// their parent object use it so the parent can route keys and detect unknown ones.
type KeyClaimer interface {
	ClaimsKey(key string) bool
}

// Reset returns an editor to its defaults.
func Reset(e Editor) {
	if e != nil {
		e.SetConfig(nil)
	}
}

// Base carries the attributes shared by every editor.
type Base struct {
	label       string
	description string
	profiles    []string
	reporter    diag.Reporter
	logger      logger.Logger
}

type Option func(*Base)

func WithLabel(label string) Option {
	return func(b *Base) {
		b.label = label
	}
}

func WithDescription(desc string) Option {
	return func(b *Base) {
		b.description = desc
	}
}

// WithProfiles tags the editor; it is editable only under an active profile sharing a tag.
func WithProfiles(names ...string) Option {
	return func(b *Base) {
		b.profiles = append(b.profiles, names...)
	}
}

func WithReporter(r diag.Reporter) Option {
	return func(b *Base) {
		if r != nil {
			b.reporter = r
		}
	}
}

func WithLogger(l logger.Logger) Option {
	return func(b *Base) {
		if l != nil {
			b.logger = l
		}
	}
}

func newBase(opts []Option) Base {
	b := Base{
		reporter: diag.Discard(),
		logger:   logger.Nop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&b)
		}
	}
	return b
}

func (b *Base) Label() string {
	return b.label
}

func (b *Base) Description() string {
	return b.description
}

func (b *Base) Profiles() []string {
	return append([]string(nil), b.profiles...)
}

// CanEdit reports whether the editor is visible and editable under active.
func (b *Base) CanEdit(active Profile) bool {
	return active.Allows(b.profiles)
}

func (b *Base) report(code, path, msg string) {
	b.reporter.Report(diag.Diagnostic{Code: code, Path: path, Message: msg})
}
