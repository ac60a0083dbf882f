package bind

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-typeconf/diag"
	"github.com/goliatone/go-typeconf/editor"
	"github.com/goliatone/go-typeconf/logger"
	"github.com/goliatone/go-typeconf/registry"
)

// EditorFactory is implemented by types building their own editor from the contexts.
type EditorFactory interface {
	NewConfigEditor(runtime, edit any) (editor.Editor, error)
}

// Configurable is implemented by types declaring their fields explicitly.
type Configurable interface {
	ConfigFields() []Field
}

// ProfileScoped restricts the editor of a type to the listed profiles.
type ProfileScoped interface {
	ConfigProfiles() []string
}

// ConstructorProvider is implemented by immutable types built through a constructor.
type ConstructorProvider interface {
	ConfigConstructor() Constructor
}

// InstanceConfigurable is implemented by instances exposing an editor of their own. It is
// consulted only for types without any other configurable surface.
type InstanceConfigurable interface {
	ConfigEditor() (editor.Editor, error)
}

// Strategy is the way a type is turned into an editor and an instance.
type Strategy int

const (
	StrategyNone Strategy = iota
	StrategyFactory
	StrategyFields
	StrategyTags
	StrategyConstructor
)

func (s Strategy) String() string {
	switch s {
	case StrategyFactory:
		return "factory"
	case StrategyFields:
		return "fields"
	case StrategyTags:
		return "tags"
	case StrategyConstructor:
		return "constructor"
	default:
		return "none"
	}
}

// Engine builds editors for types and instances from editors. It implements editor.Binder.
type Engine struct {
	reg        *registry.Registry
	runtime    any
	editCtx    any
	factory    Factory
	logger     logger.Logger
	reporter   diag.Reporter
	profile    editor.Profile
	tagName    string
	strategies sync.Map // reflect.Type -> Strategy
}

var _ editor.Binder = (*Engine)(nil)

type Option func(*Engine)

// WithRuntime sets the runtime context passed to factories and constructors.
func WithRuntime(rt any) Option {
	return func(e *Engine) {
		e.runtime = rt
	}
}

// WithEditContext sets the edit context passed to factories and constructors.
func WithEditContext(ec any) Option {
	return func(e *Engine) {
		e.editCtx = ec
	}
}

func WithFactory(f Factory) Option {
	return func(e *Engine) {
		e.factory = f
	}
}

func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithDiagnostics sets the sink receiving diagnostics of every editor the engine builds.
func WithDiagnostics(r diag.Reporter) Option {
	return func(e *Engine) {
		if r != nil {
			e.reporter = r
		}
	}
}

// WithProfiles sets the active profile names.
func WithProfiles(names ...string) Option {
	return func(e *Engine) {
		e.profile = editor.NewProfile(names...)
	}
}

// WithTagName sets the struct tag read for field discovery and decoding.
func WithTagName(name string) Option {
	return func(e *Engine) {
		if name != "" {
			e.tagName = name
		}
	}
}

// New creates an engine resolving implementations through reg.
func New(reg *registry.Registry, opts ...Option) *Engine {
	if reg == nil {
		reg = registry.New()
	}
	e := &Engine{
		reg:      reg,
		logger:   logger.Nop(),
		reporter: diag.Discard(),
		profile:  editor.NewProfile(),
		tagName:  editor.DefaultTagName,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

func (e *Engine) Registry() *registry.Registry { return e.reg }
func (e *Engine) Runtime() any                 { return e.runtime }
func (e *Engine) EditContext() any             { return e.editCtx }
func (e *Engine) Reporter() diag.Reporter      { return e.reporter }

// Profile is the active profile.
func (e *Engine) Profile() editor.Profile {
	return e.profile
}

// StrategyFor reports how t is bound. Capabilities are checked on a zero *T.
func (e *Engine) StrategyFor(t reflect.Type) Strategy {
	t = indirect(t)
	if cached, ok := e.strategies.Load(t); ok {
		return cached.(Strategy)
	}
	s := e.detect(t)
	e.strategies.Store(t, s)
	return s
}

func (e *Engine) detect(t reflect.Type) Strategy {
	if t.Kind() != reflect.Struct {
		return StrategyNone
	}
	probe := reflect.New(t).Interface()
	if _, ok := probe.(EditorFactory); ok {
		return StrategyFactory
	}
	if _, ok := probe.(Configurable); ok {
		return StrategyFields
	}
	if hasTaggedFields(t, e.tagName) {
		return StrategyTags
	}
	if _, ok := probe.(ConstructorProvider); ok {
		return StrategyConstructor
	}
	return StrategyNone
}

// EditorFor builds the editor describing t. For types without configurable surface an
// instance is created through the factory and returned along with its editor.
func (e *Engine) EditorFor(t reflect.Type) (editor.Editor, any, error) {
	t = indirect(t)
	if t == nil || t.Kind() != reflect.Struct {
		return nil, nil, errors.New("only struct types can be bound", errors.CategoryBadInput).
			WithTextCode("UNSUPPORTED_TYPE").
			WithMetadata(map[string]any{"type": typeName(t)})
	}

	strategy := e.StrategyFor(t)
	e.logger.Debug("building editor", "type", registry.TypeID(t), "strategy", strategy.String())

	probe := reflect.New(t).Interface()
	switch strategy {
	case StrategyFactory:
		ed, err := probe.(EditorFactory).NewConfigEditor(e.runtime, e.editCtx)
		if err != nil {
			return nil, nil, errors.Wrap(err, errors.CategoryOperation, "editor factory failed").
				WithTextCode("EDITOR_FACTORY_FAILED").
				WithMetadata(map[string]any{"type": registry.TypeID(t)})
		}
		return ed, nil, nil
	case StrategyFields, StrategyTags, StrategyConstructor:
		fields, err := e.fieldsFor(t, probe, strategy)
		if err != nil {
			return nil, nil, err
		}
		ed, err := e.mapFor(t, probe, fields)
		if err != nil {
			return nil, nil, err
		}
		return ed, nil, nil
	}

	instance, err := e.newInstance(t)
	if err != nil {
		return nil, nil, err
	}
	if ic, ok := instance.(InstanceConfigurable); ok {
		ed, err := ic.ConfigEditor()
		if err != nil {
			return nil, nil, errors.Wrap(err, errors.CategoryOperation, "instance editor failed").
				WithTextCode("INSTANCE_EDITOR_FAILED").
				WithMetadata(map[string]any{"type": registry.TypeID(t)})
		}
		if ed != nil {
			return ed, instance, nil
		}
	}
	return e.newMap(probe), instance, nil
}

func (e *Engine) fieldsFor(t reflect.Type, probe any, strategy Strategy) ([]Field, error) {
	switch strategy {
	case StrategyFields:
		return probe.(Configurable).ConfigFields(), nil
	case StrategyTags:
		return tagFields(t, e.tagName)
	case StrategyConstructor:
		return probe.(ConstructorProvider).ConfigConstructor().fields(), nil
	}
	return nil, nil
}

func (e *Engine) newMap(probe any) *editor.MapEditor {
	opts := []editor.Option{
		editor.WithReporter(e.reporter),
		editor.WithLogger(e.logger),
	}
	if ps, ok := probe.(ProfileScoped); ok {
		opts = append(opts, editor.WithProfiles(ps.ConfigProfiles()...))
	}
	return editor.NewMap(opts...).WithTagName(e.tagName)
}

func (e *Engine) mapFor(t reflect.Type, probe any, fields []Field) (*editor.MapEditor, error) {
	m := e.newMap(probe)
	for _, f := range fields {
		child, err := f.build(e)
		if err != nil {
			return nil, errors.Wrap(err, errors.CategoryBadInput, "cannot build field editor").
				WithTextCode("FIELD_EDITOR_FAILED").
				WithMetadata(map[string]any{
					"type": registry.TypeID(t),
					"key":  f.key,
				})
		}
		m.Field(f.key, child, f.entryOptions()...)
	}
	return m, nil
}

// Instantiate creates a *T bound to ed, through the type's constructor when it has one and
// through the factory otherwise.
func (e *Engine) Instantiate(t reflect.Type, ed editor.Editor) (any, error) {
	t = indirect(t)
	if e.StrategyFor(t) == StrategyConstructor {
		probe := reflect.New(t).Interface()
		return e.construct(t, probe.(ConstructorProvider).ConfigConstructor(), ed)
	}
	instance, err := e.newInstance(t)
	if err != nil {
		return nil, err
	}
	bound, err := e.Apply(instance, ed)
	if err != nil {
		return nil, err
	}
	if !bound {
		return nil, editor.NewConfigurationError("bind", registry.TypeID(t), editor.ErrBind,
			errors.New("editor cannot bind values onto the instance", errors.CategoryOperation).
				WithTextCode("EDITOR_NOT_BINDABLE").
				WithMetadata(map[string]any{
					"type":   registry.TypeID(t),
					"editor": fmt.Sprintf("%T", ed),
				}), nil)
	}
	return instance, nil
}

// Apply binds ed onto instance. It reports false for constructor built types, which have to
// be rebuilt, and for editors that cannot bind. An instance whose own editor is ed is bound
// already.
func (e *Engine) Apply(instance any, ed editor.Editor) (bool, error) {
	if instance == nil || ed == nil {
		return false, nil
	}
	strategy := e.StrategyFor(reflect.TypeOf(instance))
	if strategy == StrategyConstructor {
		return false, nil
	}
	setter, ok := ed.(editor.ContentSetter)
	if !ok {
		return strategy == StrategyNone && ownsEditor(instance, ed), nil
	}
	if err := setter.SetContentsOn(instance); err != nil {
		return false, err
	}
	return true, nil
}

// ownsEditor reports whether instance exposes ed as its own editor.
func ownsEditor(instance any, ed editor.Editor) bool {
	ic, ok := instance.(InstanceConfigurable)
	if !ok {
		return false
	}
	own, err := ic.ConfigEditor()
	if err != nil || own == nil {
		return false
	}
	a, b := reflect.ValueOf(own), reflect.ValueOf(ed)
	return a.Kind() == reflect.Pointer && b.Kind() == reflect.Pointer && a.Pointer() == b.Pointer() && a.Type() == b.Type()
}

// NewNamed resolves name among the implementations of base and builds an instance from doc.
func (e *Engine) NewNamed(base reflect.Type, name string, doc any) (any, error) {
	entry, ok := e.reg.Find(base, name)
	if !ok {
		return nil, editor.NewConfigurationError("instantiate", name, editor.ErrUnresolvedType,
			errors.New("discriminator does not name a registered type", errors.CategoryBadInput).
				WithTextCode("UNRESOLVED_TYPE").
				WithMetadata(map[string]any{
					"base":          registry.TypeID(base),
					"discriminator": name,
				}), nil)
	}
	ed, instance, err := e.EditorFor(entry.Type)
	if err != nil {
		return nil, editor.NewConfigurationError("instantiate", entry.ID, editor.ErrInstantiate, err, nil)
	}
	ed.SetConfig(doc)
	if instance != nil {
		if ok, err := e.Apply(instance, ed); err != nil || ok {
			return instance, err
		}
	}
	return e.Instantiate(entry.Type, ed)
}

// Class wraps the editor of t for use as a root editor.
func (e *Engine) Class(t reflect.Type, opts ...editor.Option) *editor.ClassEditor {
	return editor.NewClass(t, e, e.editorOptions(opts)...)
}

// Subclass creates a polymorphic root editor over the implementations of base.
func (e *Engine) Subclass(base reflect.Type, opts ...editor.Option) *editor.SubclassEditor {
	return editor.NewSubclass(e.reg, base, e, e.editorOptions(opts)...)
}

func (e *Engine) editorOptions(opts []editor.Option) []editor.Option {
	return append([]editor.Option{
		editor.WithReporter(e.reporter),
		editor.WithLogger(e.logger),
	}, opts...)
}

func typeName(t reflect.Type) string {
	if t == nil {
		return "nil"
	}
	return t.String()
}
