package editor

import "reflect"

// ListEditor binds a JSON array to a sequence of editors sharing one shape.
type ListEditor struct {
	Base
	factory func() Editor
	items   []Editor
	proto   Editor
}

// NewList builds a list whose items are created by factory.
func NewList(factory func() Editor, opts ...Option) *ListEditor {
	return &ListEditor{
		Base:    newBase(opts),
		factory: factory,
	}
}

// SetConfig rebuilds every item. Anything but an array yields an empty list.
func (l *ListEditor) SetConfig(doc any) {
	l.items = nil
	rv := reflect.ValueOf(doc)
	if doc == nil || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return
	}
	for i := 0; i < rv.Len(); i++ {
		item := l.factory()
		item.SetConfig(rv.Index(i).Interface())
		l.items = append(l.items, item)
	}
}

func (l *ListEditor) Config() any {
	out := make([]any, 0, len(l.items))
	for _, item := range l.items {
		out = append(out, item.Config())
	}
	return out
}

func (l *ListEditor) Value() (any, error) {
	out := make([]any, 0, len(l.items))
	for _, item := range l.items {
		val, err := item.Value()
		if err != nil {
			return nil, err
		}
		out = append(out, val)
	}
	return out, nil
}

func (l *ListEditor) DefaultValue() any {
	return []any{}
}

// Add appends a new item holding its defaults.
func (l *ListEditor) Add() Editor {
	item := l.factory()
	item.SetConfig(nil)
	l.items = append(l.items, item)
	return item
}

// Remove drops the item at i, discarding its state.
func (l *ListEditor) Remove(i int) bool {
	if i < 0 || i >= len(l.items) {
		return false
	}
	l.items = append(l.items[:i], l.items[i+1:]...)
	return true
}

func (l *ListEditor) RemoveEditor(e Editor) bool {
	for i, item := range l.items {
		if item == e {
			return l.Remove(i)
		}
	}
	return false
}

func (l *ListEditor) Items() []Editor {
	return append([]Editor(nil), l.items...)
}

func (l *ListEditor) Len() int {
	return len(l.items)
}

// Prototype returns a detached item used to describe the element shape.
func (l *ListEditor) Prototype() Editor {
	if l.proto == nil {
		l.proto = l.factory()
	}
	return l.proto
}
