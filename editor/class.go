package editor

import (
	"reflect"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-typeconf/diag"
	"github.com/goliatone/go-typeconf/registry"
)

// slot holds the instance produced for a class or subclass editor. Bindable instances are
// updated in place on later reads; the others are rebuilt.
type slot struct {
	instance any
	typ      reflect.Type
}

func (s *slot) seed(instance any, t reflect.Type) {
	s.instance = instance
	s.typ = t
}

func (s *slot) clear() {
	s.instance = nil
	s.typ = nil
}

func (s *slot) value(binder Binder, t reflect.Type, ed Editor) (any, error) {
	if s.instance != nil && s.typ == t {
		ok, err := binder.Apply(s.instance, ed)
		if err != nil {
			return nil, err
		}
		if ok {
			return s.instance, nil
		}
	}
	instance, err := binder.Instantiate(t, ed)
	if err != nil {
		return nil, err
	}
	s.seed(instance, t)
	return instance, nil
}

// ClassEditor wraps the editor of a single concrete type. The inner editor is built on first
// use so a type may refer to itself.
type ClassEditor struct {
	Base
	typ    reflect.Type
	binder Binder
	inner  Editor
	built  bool
	err    error
	raw    any
	slot   slot
}

func NewClass(t reflect.Type, binder Binder, opts ...Option) *ClassEditor {
	return &ClassEditor{
		Base:   newBase(opts),
		typ:    registry.Indirect(t),
		binder: binder,
	}
}

// Type is the concrete struct type.
func (c *ClassEditor) Type() reflect.Type {
	return c.typ
}

func (c *ClassEditor) Binder() Binder {
	return c.binder
}

// Inner returns the editor describing the type, building it if needed.
func (c *ClassEditor) Inner() (Editor, error) {
	c.build()
	return c.inner, c.err
}

func (c *ClassEditor) build() {
	if c.built {
		return
	}
	c.built = true
	if c.binder == nil {
		c.err = errors.New("class editor has no binder", errors.CategoryOperation).
			WithTextCode("NO_BINDER").
			WithMetadata(map[string]any{"type": registry.TypeID(c.typ)})
		return
	}
	ed, instance, err := c.binder.EditorFor(c.typ)
	if err != nil {
		c.err = err
		c.logger.Warn("class editor unavailable", "type", registry.TypeID(c.typ), "error", err)
		c.report(diag.CodeEditorUnavailable, registry.TypeID(c.typ), err.Error())
		return
	}
	c.inner = ed
	c.slot.seed(instance, c.typ)
}

func (c *ClassEditor) SetConfig(doc any) {
	c.raw = CloneDocument(doc)
	if doc == nil && !c.built {
		return
	}
	c.build()
	if c.inner != nil {
		c.inner.SetConfig(doc)
	}
}

func (c *ClassEditor) loadMerged(obj map[string]any) {
	c.raw = CloneDocument(obj)
	c.build()
	if c.inner != nil {
		loadMergedChild(c.inner, obj)
	}
}

func (c *ClassEditor) ClaimsKey(key string) bool {
	c.build()
	if claimer, ok := c.inner.(KeyClaimer); ok {
		return claimer.ClaimsKey(key)
	}
	return false
}

// Config returns the inner editor's document, or the last loaded document when the type
// has no editor.
func (c *ClassEditor) Config() any {
	c.build()
	if c.inner == nil {
		return CloneDocument(c.raw)
	}
	return c.inner.Config()
}

// Value instantiates the type on first call and updates the same instance afterwards.
func (c *ClassEditor) Value() (any, error) {
	c.build()
	if c.err != nil {
		return nil, NewConfigurationError("instantiate", registry.TypeID(c.typ), ErrInstantiate, c.err, nil)
	}
	return c.slot.value(c.binder, c.typ, c.inner)
}

func (c *ClassEditor) DefaultValue() any {
	c.build()
	if c.inner == nil {
		return nil
	}
	return c.inner.DefaultValue()
}

// CanEdit also honours the profiles declared by the type itself.
func (c *ClassEditor) CanEdit(active Profile) bool {
	if !c.Base.CanEdit(active) {
		return false
	}
	c.build()
	return c.inner == nil || c.inner.CanEdit(active)
}
