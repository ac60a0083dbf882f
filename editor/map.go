package editor

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/goliatone/go-typeconf/diag"
)

// Entry is a MapEditor child as seen by renderers.
type Entry struct {
	Key      string
	Editor   Editor
	Optional bool
	Merge    bool
	Selected bool
}

type mapEntry struct {
	key      string
	editor   Editor
	optional bool
	merge    bool
}

type EntryOption func(*mapEntry)

// Optional marks an entry that only appears in the document once added.
func Optional() EntryOption {
	return func(e *mapEntry) {
		e.optional = true
	}
}

// Merged flattens the child's object into the enclosing object.
func Merged() EntryOption {
	return func(e *mapEntry) {
		e.merge = true
	}
}

// mergeLoader loads the keys it owns from a shared object without flagging the others.
type mergeLoader interface {
	loadMerged(obj map[string]any)
}

// MapEditor binds a JSON object to an ordered set of named child editors.
type MapEditor struct {
	Base
	entries  []*mapEntry
	index    map[string]int
	selected map[string]bool
	reserved map[string]bool
	tagName  string
	raw      any
}

func NewMap(opts ...Option) *MapEditor {
	return &MapEditor{
		Base:     newBase(opts),
		index:    map[string]int{},
		selected: map[string]bool{},
		reserved: map[string]bool{
			DefaultDiscriminatorKey: true,
			DefaultPayloadKey:       true,
		},
		tagName: DefaultTagName,
	}
}

// Field declares a child. Declaring an existing key replaces its editor in place.
func (m *MapEditor) Field(key string, child Editor, opts ...EntryOption) *MapEditor {
	entry := &mapEntry{key: key, editor: child}
	for _, opt := range opts {
		if opt != nil {
			opt(entry)
		}
	}
	if i, ok := m.index[key]; ok {
		m.entries[i] = entry
	} else {
		m.index[key] = len(m.entries)
		m.entries = append(m.entries, entry)
	}
	if !entry.optional {
		m.selected[key] = true
	}
	return m
}

// Reserve adds keys that are never reported as unknown.
func (m *MapEditor) Reserve(keys ...string) *MapEditor {
	for _, k := range keys {
		m.reserved[k] = true
	}
	return m
}

// WithTagName sets the struct tag used by SetContentsOn when decoding.
func (m *MapEditor) WithTagName(name string) *MapEditor {
	if name != "" {
		m.tagName = name
	}
	return m
}

func (m *MapEditor) SetConfig(doc any) {
	m.raw = CloneDocument(doc)
	obj, _ := doc.(map[string]any)
	m.load(obj, true)
}

func (m *MapEditor) loadMerged(obj map[string]any) {
	m.raw = CloneDocument(obj)
	m.load(obj, false)
}

func (m *MapEditor) load(obj map[string]any, strict bool) {
	m.selected = map[string]bool{}

	for _, entry := range m.entries {
		if entry.merge {
			loadMergedChild(entry.editor, obj)
			if !entry.optional || claimsAny(entry.editor, obj) {
				m.selected[entry.key] = true
			}
			continue
		}
		val, ok := obj[entry.key]
		switch {
		case ok:
			entry.editor.SetConfig(val)
			m.selected[entry.key] = true
		case !entry.optional:
			entry.editor.SetConfig(nil)
			m.selected[entry.key] = true
		default:
			entry.editor.SetConfig(nil)
		}
	}

	if strict {
		m.reportUnknown(obj)
	}
}

func (m *MapEditor) reportUnknown(obj map[string]any) {
	var unknown []string
	for key := range obj {
		if !m.reserved[key] && !m.ClaimsKey(key) {
			unknown = append(unknown, key)
		}
	}
	sort.Strings(unknown)
	for _, key := range unknown {
		m.logger.Warn("unknown configuration key ignored", "key", key, "label", m.label)
		m.report(diag.CodeUnknownKey, key, fmt.Sprintf("unknown key %q", key))
	}
}

func loadMergedChild(child Editor, obj map[string]any) {
	if obj == nil {
		child.SetConfig(nil)
		return
	}
	if ml, ok := child.(mergeLoader); ok {
		ml.loadMerged(obj)
		return
	}
	child.SetConfig(obj)
}

func claimsAny(child Editor, obj map[string]any) bool {
	claimer, ok := child.(KeyClaimer)
	if !ok {
		return len(obj) > 0
	}
	for key := range obj {
		if claimer.ClaimsKey(key) {
			return true
		}
	}
	return false
}

// ClaimsKey reports whether key belongs to this object, directly or through a merged child.
func (m *MapEditor) ClaimsKey(key string) bool {
	for _, entry := range m.entries {
		if !entry.merge {
			if entry.key == key {
				return true
			}
			continue
		}
		claimer, ok := entry.editor.(KeyClaimer)
		if !ok || claimer.ClaimsKey(key) {
			return true
		}
	}
	return false
}

// Config emits the selected entries. Merged children are flattened into the result.
func (m *MapEditor) Config() any {
	out := map[string]any{}
	for _, entry := range m.entries {
		if !m.selected[entry.key] {
			continue
		}
		cfg := entry.editor.Config()
		if !entry.merge {
			out[entry.key] = cfg
			continue
		}
		if obj, ok := cfg.(map[string]any); ok {
			for k, v := range obj {
				out[k] = v
			}
		}
	}
	return out
}

// Value returns the selected, non nil child values keyed by entry key.
func (m *MapEditor) Value() (any, error) {
	return m.Values()
}

func (m *MapEditor) Values() (map[string]any, error) {
	out := map[string]any{}
	for _, entry := range m.entries {
		if !m.selected[entry.key] {
			continue
		}
		val, err := entry.editor.Value()
		if err != nil {
			return nil, err
		}
		if val != nil {
			out[entry.key] = val
		}
	}
	return out, nil
}

func (m *MapEditor) DefaultValue() any {
	out := map[string]any{}
	for _, entry := range m.entries {
		if entry.optional {
			continue
		}
		if def := entry.editor.DefaultValue(); def != nil {
			out[entry.key] = def
		}
	}
	return out
}

// RawConfig returns the document passed to the last SetConfig.
func (m *MapEditor) RawConfig() any {
	return m.raw
}

// AddOption selects an optional entry. It reports false for unknown or required keys.
func (m *MapEditor) AddOption(key string) bool {
	entry := m.entry(key)
	if entry == nil || !entry.optional {
		return false
	}
	m.selected[key] = true
	return true
}

// RemoveOption deselects an optional entry and resets it. Required entries are left untouched.
func (m *MapEditor) RemoveOption(key string) bool {
	entry := m.entry(key)
	if entry == nil || !entry.optional || !m.selected[key] {
		return false
	}
	delete(m.selected, key)
	entry.editor.SetConfig(nil)
	return true
}

func (m *MapEditor) IsSelected(key string) bool {
	return m.selected[key]
}

// Child returns the editor declared under key, or nil.
func (m *MapEditor) Child(key string) Editor {
	if entry := m.entry(key); entry != nil {
		return entry.editor
	}
	return nil
}

func (m *MapEditor) Keys() []string {
	keys := make([]string, 0, len(m.entries))
	for _, entry := range m.entries {
		keys = append(keys, entry.key)
	}
	return keys
}

func (m *MapEditor) Len() int {
	return len(m.entries)
}

func (m *MapEditor) Entries() []Entry {
	out := make([]Entry, 0, len(m.entries))
	for _, entry := range m.entries {
		out = append(out, Entry{
			Key:      entry.key,
			Editor:   entry.editor,
			Optional: entry.optional,
			Merge:    entry.merge,
			Selected: m.selected[entry.key],
		})
	}
	return out
}

// VisibleEntries filters Entries down to the children editable under active.
func (m *MapEditor) VisibleEntries(active Profile) []Entry {
	var out []Entry
	for _, entry := range m.Entries() {
		if entry.Editor.CanEdit(active) {
			out = append(out, entry)
		}
	}
	return out
}

// SetContentsOn binds the selected values onto target, through its ValueBinder when it has
// one and by struct decoding otherwise.
func (m *MapEditor) SetContentsOn(target any) error {
	values, err := m.Values()
	if err != nil {
		return err
	}
	if binder, ok := target.(ValueBinder); ok {
		err = binder.BindConfig(values)
	} else {
		err = Decode(values, target, m.tagName)
	}
	if err != nil {
		return NewConfigurationError("bind", typeName(target), ErrBind, err, map[string]any{
			"keys": m.Keys(),
		})
	}
	return nil
}

func (m *MapEditor) entry(key string) *mapEntry {
	i, ok := m.index[key]
	if !ok {
		return nil
	}
	return m.entries[i]
}

func typeName(v any) string {
	if v == nil {
		return ""
	}
	return reflect.TypeOf(v).String()
}
