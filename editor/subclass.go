package editor

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-typeconf/diag"
	"github.com/goliatone/go-typeconf/registry"
)

// Choice is one selectable member of a SubclassEditor.
type Choice struct {
	Discriminator string
	DisplayName   string
	Profiles      []string
}

// SubclassEditor binds a polymorphic slot: a discriminator naming a registered implementation
// of an interface, plus the selected implementation's own editor.
//
// In wrapped mode (default) the document is {className: name, classConfig: {...}}. In merged
// mode the discriminator sits next to the implementation's own keys.
type SubclassEditor struct {
	Base
	reg        *registry.Registry
	base       reflect.Type
	binder     Binder
	merged     bool
	discKey    string
	payloadKey string
	fallback   string

	entry   *registry.Entry
	child   Editor
	pending string
	cause   error

	raw       any
	stored    any
	storedFor string
	quiet     bool
	inherited bool // raw is the enclosing object
	slot      slot
}

// NewSubclass builds a wrapped mode editor over the implementations of base.
func NewSubclass(reg *registry.Registry, base reflect.Type, binder Binder, opts ...Option) *SubclassEditor {
	return &SubclassEditor{
		Base:       newBase(opts),
		reg:        reg,
		base:       base,
		binder:     binder,
		discKey:    DefaultDiscriminatorKey,
		payloadKey: DefaultPayloadKey,
	}
}

// Merged switches to merged mode; an empty key keeps the current discriminator key.
func (s *SubclassEditor) Merged(discKey string) *SubclassEditor {
	s.merged = true
	if discKey != "" {
		s.discKey = discKey
	}
	return s
}

// Wrapped switches to wrapped mode with the given keys; empty keys keep the current ones.
func (s *SubclassEditor) Wrapped(discKey, payloadKey string) *SubclassEditor {
	s.merged = false
	if discKey != "" {
		s.discKey = discKey
	}
	if payloadKey != "" {
		s.payloadKey = payloadKey
	}
	return s
}

// WithDefault selects name whenever the document carries no discriminator.
func (s *SubclassEditor) WithDefault(name string) *SubclassEditor {
	s.fallback = name
	return s
}

func (s *SubclassEditor) IsMerged() bool           { return s.merged }
func (s *SubclassEditor) DiscriminatorKey() string { return s.discKey }
func (s *SubclassEditor) PayloadKey() string       { return s.payloadKey }
func (s *SubclassEditor) BaseType() reflect.Type   { return s.base }
func (s *SubclassEditor) Binder() Binder           { return s.binder }

// Child is the selected implementation's editor, nil when unselected.
func (s *SubclassEditor) Child() Editor {
	return s.child
}

// Selected returns the selected registry entry.
func (s *SubclassEditor) Selected() (registry.Entry, bool) {
	if s.entry == nil {
		return registry.Entry{}, false
	}
	return *s.entry, true
}

// Pending is the requested discriminator that could not be selected.
func (s *SubclassEditor) Pending() string {
	return s.pending
}

// Members lists the registered implementations of the base type.
func (s *SubclassEditor) Members() []registry.Entry {
	if s.reg == nil {
		return nil
	}
	return s.reg.Resolve(s.base)
}

// Options lists the selectable discriminators for renderers.
func (s *SubclassEditor) Options() []Choice {
	members := s.Members()
	out := make([]Choice, 0, len(members))
	for _, m := range members {
		out = append(out, Choice{
			Discriminator: m.Discriminator,
			DisplayName:   m.DisplayName,
			Profiles:      append([]string(nil), m.Profiles...),
		})
	}
	return out
}

// AvailableOptions filters Options down to the members usable under active.
func (s *SubclassEditor) AvailableOptions(active Profile) []Choice {
	var out []Choice
	for _, c := range s.Options() {
		if active.Allows(c.Profiles) {
			out = append(out, c)
		}
	}
	return out
}

// EditorForEntry builds a detached editor for a member, as used to describe it.
func (s *SubclassEditor) EditorForEntry(entry registry.Entry) (Editor, error) {
	if s.binder == nil {
		return nil, s.noBinder()
	}
	ed, _, err := s.binder.EditorFor(entry.Type)
	return ed, err
}

func (s *SubclassEditor) SetConfig(doc any) {
	s.raw = CloneDocument(doc)
	s.inherited = s.quiet
	name, sub := s.split(doc)
	s.stored = sub
	s.storedFor = name

	if s.child != nil && s.entry != nil && name != "" && s.reg != nil {
		if found, ok := s.reg.Find(s.base, name); ok && found.Type == s.entry.Type {
			s.load(s.child, sub)
			return
		}
	}
	s.SetDiscriminator(name)
}

func (s *SubclassEditor) loadMerged(obj map[string]any) {
	s.quiet = true
	defer func() { s.quiet = false }()
	s.SetConfig(obj)
}

func (s *SubclassEditor) split(doc any) (string, any) {
	obj, ok := doc.(map[string]any)
	if !ok || obj == nil {
		return s.fallback, nil
	}
	name := discriminatorName(obj[s.discKey])
	if name == "" {
		name = s.fallback
	}
	if s.merged {
		sub := make(map[string]any, len(obj))
		for k, v := range obj {
			if k != s.discKey {
				sub[k] = v
			}
		}
		return name, sub
	}
	if !s.quiet {
		s.reportExtraKeys(obj)
	}
	return name, obj[s.payloadKey]
}

func (s *SubclassEditor) reportExtraKeys(obj map[string]any) {
	var extra []string
	for k := range obj {
		if k != s.discKey && k != s.payloadKey {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	for _, k := range extra {
		s.logger.Warn("unknown configuration key ignored", "key", k, "label", s.label)
		s.report(diag.CodeUnknownKey, k, fmt.Sprintf("unknown key %q", k))
	}
}

func discriminatorName(v any) string {
	switch name := v.(type) {
	case string:
		return strings.TrimSpace(name)
	case nil:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(name))
	}
}

// SetDiscriminator selects the implementation named name, discarding the previous selection.
// An empty name unselects. It reports whether the slot ends up in the requested state; on
// failure the name is kept as pending and Value reports it.
func (s *SubclassEditor) SetDiscriminator(name string) bool {
	s.entry = nil
	s.child = nil
	s.pending = ""
	s.cause = nil
	s.slot.clear()

	name = strings.TrimSpace(name)
	if name == "" {
		return true
	}
	if s.binder == nil || s.reg == nil {
		s.fail(name, s.noBinder(), diag.CodeEditorUnavailable)
		return false
	}

	found, ok := s.reg.Find(s.base, name)
	if !ok {
		s.fail(name, nil, diag.CodeUnresolvedType)
		return false
	}

	ed, instance, err := s.binder.EditorFor(found.Type)
	if err != nil {
		s.fail(name, err, diag.CodeEditorUnavailable)
		return false
	}

	if s.merged {
		if claimer, ok := ed.(KeyClaimer); ok && claimer.ClaimsKey(s.discKey) {
			cause := errors.New("implementation declares the discriminator key", errors.CategoryValidation).
				WithTextCode("MERGE_KEY_COLLISION").
				WithMetadata(map[string]any{
					"discriminator": found.Discriminator,
					"key":           s.discKey,
				})
			s.fail(name, cause, diag.CodeMergeKeyCollision)
			return false
		}
	}

	s.entry = &found
	s.child = ed
	s.slot.seed(instance, found.Type)

	if name == s.storedFor {
		s.load(ed, s.stored)
	} else {
		ed.SetConfig(nil)
	}
	return true
}

func (s *SubclassEditor) fail(name string, cause error, code string) {
	s.pending = name
	s.cause = cause
	msg := fmt.Sprintf("cannot select %q", name)
	if cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, cause)
	}
	s.logger.Warn("subclass selection failed", "discriminator", name, "code", code)
	s.report(code, s.discKey, msg)
}

func (s *SubclassEditor) load(child Editor, sub any) {
	if obj, ok := sub.(map[string]any); ok && s.quiet {
		loadMergedChild(child, obj)
		return
	}
	child.SetConfig(sub)
}

func (s *SubclassEditor) noBinder() error {
	return errors.New("subclass editor has no binder or registry", errors.CategoryOperation).
		WithTextCode("NO_BINDER").
		WithMetadata(map[string]any{"base": registry.TypeID(s.base)})
}

// ClaimsKey reports the keys owned when merged into an enclosing object.
func (s *SubclassEditor) ClaimsKey(key string) bool {
	if key == s.discKey {
		return true
	}
	if !s.merged {
		return key == s.payloadKey
	}
	if claimer, ok := s.child.(KeyClaimer); ok {
		return claimer.ClaimsKey(key)
	}
	return false
}

// Config emits the canonical discriminator and the child's document. An unresolved selection
// keeps the document it was loaded from, or only the pending name when that document belongs
// to an enclosing object.
func (s *SubclassEditor) Config() any {
	if s.child == nil || s.entry == nil {
		if s.pending == "" {
			return nil
		}
		if s.pending == s.storedFor && s.raw != nil && !s.inherited {
			return CloneDocument(s.raw)
		}
		return map[string]any{s.discKey: s.pending}
	}

	cfg := s.child.Config()
	if !s.merged {
		return map[string]any{
			s.discKey:    s.entry.Discriminator,
			s.payloadKey: cfg,
		}
	}
	out := map[string]any{}
	if obj, ok := cfg.(map[string]any); ok {
		for k, v := range obj {
			out[k] = v
		}
	}
	out[s.discKey] = s.entry.Discriminator
	return out
}

// Value instantiates the selected implementation, reusing the previous instance when it can
// be updated in place. Unselected slots yield nil.
func (s *SubclassEditor) Value() (any, error) {
	if s.child == nil || s.entry == nil {
		if s.pending != "" {
			return nil, unresolvedError("instantiate", s.pending, s.cause)
		}
		return nil, nil
	}
	return s.slot.value(s.binder, s.entry.Type, s.child)
}

func (s *SubclassEditor) DefaultValue() any {
	return nil
}

// CanEdit also honours the profiles of the selected member.
func (s *SubclassEditor) CanEdit(active Profile) bool {
	if !s.Base.CanEdit(active) {
		return false
	}
	if s.entry != nil && !active.Allows(s.entry.Profiles) {
		return false
	}
	return s.child == nil || s.child.CanEdit(active)
}
