// Package registry catalogs the concrete types available for a base interface.
//
// Each entry maps a concrete struct type to a JSON discriminator name and a display name.
// Entries come from explicit registrations and, optionally, from candidate scanners that are
// consulted lazily the first time a base type is resolved. The resolved scope is memoized per
// Registry handle: building a scope is serialized, reading a built scope takes no lock.
package registry

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-typeconf/diag"
	"github.com/goliatone/go-typeconf/logger"
)

// Entry describes one concrete implementation of a base type.
type Entry struct {
	Type          reflect.Type
	ID            string
	Discriminator string
	DisplayName   string
	Profiles      []string
}

// Scanner returns candidate types; the registry keeps those implementing the base being resolved.
type Scanner func() []reflect.Type

type registration struct {
	base          reflect.Type
	concrete      reflect.Type
	discriminator string
	displayName   string
	profiles      []string
}

type scope struct {
	entries []Entry
}

type Registry struct {
	mu            sync.Mutex
	registrations []registration
	scanners      []Scanner
	scopes        sync.Map // reflect.Type -> *scope
	reporter      diag.Reporter
	logger        logger.Logger
}

type Option func(*Registry)

func WithLogger(l logger.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

func WithReporter(rep diag.Reporter) Option {
	return func(r *Registry) {
		if rep != nil {
			r.reporter = rep
		}
	}
}

func WithScanner(s Scanner) Option {
	return func(r *Registry) {
		if s != nil {
			r.scanners = append(r.scanners, s)
		}
	}
}

func New(opts ...Option) *Registry {
	r := &Registry{
		reporter: diag.Discard(),
		logger:   logger.Nop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

type EntryOption func(*registration)

// Discriminator overrides the JSON name, which defaults to the Go type name.
func Discriminator(name string) EntryOption {
	return func(r *registration) {
		r.discriminator = strings.TrimSpace(name)
	}
}

// DisplayName overrides the human name, which defaults to the discriminator.
func DisplayName(name string) EntryOption {
	return func(r *registration) {
		r.displayName = strings.TrimSpace(name)
	}
}

// Profiles restricts every editor built for the type to the given profiles.
func Profiles(names ...string) EntryOption {
	return func(r *registration) {
		r.profiles = append(r.profiles, names...)
	}
}

// Register adds concrete as an implementation of base. base must be an interface type and
// concrete (or a pointer to it) must implement it. Registering invalidates the cached scope for base.
func (r *Registry) Register(base, concrete reflect.Type, opts ...EntryOption) error {
	if base == nil || concrete == nil {
		return errors.New("base and concrete types are required", errors.CategoryBadInput).
			WithTextCode("NIL_TYPE")
	}
	concrete = Indirect(concrete)
	if base.Kind() != reflect.Interface {
		return errors.New("base type must be an interface", errors.CategoryBadInput).
			WithTextCode("INVALID_BASE_TYPE").
			WithMetadata(map[string]any{
				"base": base.String(),
				"kind": base.Kind().String(),
			})
	}
	if !implements(concrete, base) {
		return errors.New("type does not implement base", errors.CategoryBadInput).
			WithTextCode("TYPE_NOT_ASSIGNABLE").
			WithMetadata(map[string]any{
				"base":     base.String(),
				"concrete": TypeID(concrete),
			})
	}

	reg := registration{base: base, concrete: concrete}
	for _, opt := range opts {
		if opt != nil {
			opt(&reg)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.registrations = append(r.registrations, reg)
	r.scopes.Delete(base)
	r.logger.Debug("registered type", "base", base.String(), "type", TypeID(concrete))
	return nil
}

// Register is the generic form of Registry.Register.
func Register[B any, T any](r *Registry, opts ...EntryOption) error {
	return r.Register(reflect.TypeFor[B](), reflect.TypeFor[T](), opts...)
}

// MustRegister panics when registration fails, for use in package init tables.
func MustRegister[B any, T any](r *Registry, opts ...EntryOption) {
	if err := Register[B, T](r, opts...); err != nil {
		panic(err)
	}
}

// Resolve returns the entries registered for base, in registration order followed by scanned
// candidates sorted by id. The first call per base builds the scope, later calls read the cache.
func (r *Registry) Resolve(base reflect.Type) []Entry {
	if base == nil {
		return nil
	}
	if cached, ok := r.scopes.Load(base); ok {
		return copyEntries(cached.(*scope).entries)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if cached, ok := r.scopes.Load(base); ok {
		return copyEntries(cached.(*scope).entries)
	}

	s := r.buildScope(base)
	r.scopes.Store(base, s)
	return copyEntries(s.entries)
}

// Find resolves name within the base scope: exact discriminator, then exact display name,
// then a suffix of the fully qualified type id.
func (r *Registry) Find(base reflect.Type, name string) (Entry, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Entry{}, false
	}
	entries := r.Resolve(base)
	for _, e := range entries {
		if e.Discriminator == name {
			return e, true
		}
	}
	for _, e := range entries {
		if e.DisplayName == name {
			return e, true
		}
	}
	for _, e := range entries {
		if strings.HasSuffix(e.ID, name) {
			return e, true
		}
	}
	return Entry{}, false
}

// Lookup returns the entry of concrete within base, if registered.
func (r *Registry) Lookup(base, concrete reflect.Type) (Entry, bool) {
	concrete = Indirect(concrete)
	for _, e := range r.Resolve(base) {
		if e.Type == concrete {
			return e, true
		}
	}
	return Entry{}, false
}

// must be called with r.mu held
func (r *Registry) buildScope(base reflect.Type) *scope {
	s := &scope{}
	seen := map[reflect.Type]bool{}
	taken := map[string]bool{}

	for _, reg := range r.registrations {
		if reg.base != base || seen[reg.concrete] {
			continue
		}
		seen[reg.concrete] = true
		s.entries = append(s.entries, r.newEntry(base, reg, taken))
	}

	var scanned []reflect.Type
	for _, scan := range r.scanners {
		for _, candidate := range scan() {
			if candidate == nil {
				continue
			}
			candidate = Indirect(candidate)
			if seen[candidate] || candidate.Kind() != reflect.Struct || !implements(candidate, base) {
				continue
			}
			seen[candidate] = true
			scanned = append(scanned, candidate)
		}
	}
	sort.Slice(scanned, func(i, j int) bool {
		return TypeID(scanned[i]) < TypeID(scanned[j])
	})
	for _, t := range scanned {
		s.entries = append(s.entries, r.newEntry(base, registration{base: base, concrete: t}, taken))
	}

	r.logger.Debug("resolved registry scope", "base", base.String(), "entries", len(s.entries))
	return s
}

func (r *Registry) newEntry(base reflect.Type, reg registration, taken map[string]bool) Entry {
	id := TypeID(reg.concrete)
	disc := reg.discriminator
	if disc == "" {
		disc = reg.concrete.Name()
	}
	display := reg.displayName
	if display == "" {
		display = disc
	}

	if taken[disc] {
		r.reporter.Report(diag.Diagnostic{
			Code:    diag.CodeDiscriminatorCollision,
			Path:    id,
			Message: fmt.Sprintf("discriminator %q already used in scope %s, falling back to type id", disc, base.String()),
		})
		disc = id
		display = id
	}
	taken[disc] = true

	return Entry{
		Type:          reg.concrete,
		ID:            id,
		Discriminator: disc,
		DisplayName:   display,
		Profiles:      append([]string(nil), reg.profiles...),
	}
}

// TypeID is the fully qualified name of t: import path, a dot, and the type name.
func TypeID(t reflect.Type) string {
	if t == nil {
		return ""
	}
	t = Indirect(t)
	if t.PkgPath() == "" {
		return t.String()
	}
	return t.PkgPath() + "." + t.Name()
}

// Indirect strips pointer levels.
func Indirect(t reflect.Type) reflect.Type {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

func implements(concrete, base reflect.Type) bool {
	return concrete.Implements(base) || reflect.PointerTo(concrete).Implements(base)
}

func copyEntries(in []Entry) []Entry {
	out := make([]Entry, len(in))
	copy(out, in)
	return out
}
