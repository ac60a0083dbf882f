// Package session loads a configuration document from prioritized sources, resolves its
// values and binds it into the editor tree of a root type.
package session

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-typeconf/bind"
	"github.com/goliatone/go-typeconf/editor"
	"github.com/goliatone/go-typeconf/logger"
	"github.com/goliatone/go-typeconf/schema"
	"github.com/goliatone/go-typeconf/session/solvers"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/v2"
	"github.com/mitchellh/copystructure"
)

var (
	DefaultDelimiter   = "."
	DefaultConfigPath  = "config/app.json"
	DefaultLoadTimeout = 30 * time.Second
)

// Session owns the editor tree of T and the document it was loaded from.
type Session[T any] struct {
	engine *bind.Engine
	root   editor.Editor
	k      *koanf.Koanf

	builders     []ProviderBuilder[T]
	providers    []Provider
	solvers      []solvers.Solver
	solverPasses int
	loadTimeout  time.Duration
	configPath   string
	discKey      string
	validate     bool
	logger       logger.Logger
}

type Option[T any] func(*Session[T])

// WithProvider adds provider builders. Without any, the session reads DefaultConfigPath
// when it exists.
func WithProvider[T any](builders ...ProviderBuilder[T]) Option[T] {
	return func(s *Session[T]) {
		for _, b := range builders {
			if b != nil {
				s.builders = append(s.builders, b)
			}
		}
	}
}

// WithSolvers replaces the default solvers, in order.
func WithSolvers[T any](slvrs ...solvers.Solver) Option[T] {
	return func(s *Session[T]) {
		s.solvers = append([]solvers.Solver{}, slvrs...)
	}
}

// WithSolverPasses sets the maximum number of solver passes, at least one.
func WithSolverPasses[T any](passes int) Option[T] {
	return func(s *Session[T]) {
		if passes < 1 {
			passes = 1
		}
		s.solverPasses = passes
	}
}

func WithTimeout[T any](timeout time.Duration) Option[T] {
	return func(s *Session[T]) {
		if timeout > 0 {
			s.loadTimeout = timeout
		}
	}
}

// WithConfigPath sets the file read when no provider is configured; empty disables it.
func WithConfigPath[T any](path string) Option[T] {
	return func(s *Session[T]) {
		s.configPath = path
	}
}

// WithDiscriminatorKey sets the key MergeVariants uses to detect a change of implementation.
func WithDiscriminatorKey[T any](key string) Option[T] {
	return func(s *Session[T]) {
		s.discKey = key
	}
}

// WithSchemaValidation validates the merged document against the generated schema on Load.
func WithSchemaValidation[T any](enabled bool) Option[T] {
	return func(s *Session[T]) {
		s.validate = enabled
	}
}

func WithLogger[T any](l logger.Logger) Option[T] {
	return func(s *Session[T]) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a session for T, bound through engine.
func New[T any](engine *bind.Engine, opts ...Option[T]) (*Session[T], error) {
	if engine == nil {
		engine = bind.New(nil)
	}
	root, err := bind.EditorOf[T](engine)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryBadInput, "type cannot be configured").
			WithTextCode("UNSUPPORTED_ROOT_TYPE").
			WithMetadata(map[string]any{"type": reflect.TypeFor[T]().String()})
	}

	s := &Session[T]{
		engine:       engine,
		root:         root,
		solverPasses: 1,
		loadTimeout:  DefaultLoadTimeout,
		configPath:   DefaultConfigPath,
		discKey:      editor.DefaultDiscriminatorKey,
		logger:       logger.NewDefaultLogger("session"),
		solvers: []solvers.Solver{
			solvers.NewVariablesSolver("${", "}"),
			solvers.NewURISolver("@", "://"),
			solvers.NewExpressionSolver("{{", "}}"),
		},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	s.newDocument()
	return s, nil
}

func (s *Session[T]) newDocument() {
	s.k = koanf.NewWithConf(koanf.Conf{
		Delim:       DefaultDelimiter,
		StrictMerge: false,
	})
}

func (s *Session[T]) mergeOption() koanf.Option {
	return koanf.WithMergeFunc(MergeVariants(s.discKey))
}

func (s *Session[T]) Engine() *bind.Engine   { return s.engine }
func (s *Session[T]) Editor() editor.Editor  { return s.root }
func (s *Session[T]) Document() *koanf.Koanf { return s.k }

// MustLoad panics when Load fails.
func (s *Session[T]) MustLoad(ctx context.Context) {
	if err := s.Load(ctx); err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
}

// Load reads every provider in priority order into a fresh document, runs the solvers and
// loads the result into the editor tree.
func (s *Session[T]) Load(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.loadTimeout)
	defer cancel()

	s.newDocument()

	s.providers = nil
	for i, build := range s.builders {
		p, err := build(s)
		if err != nil {
			return errors.Wrap(err, errors.CategoryOperation, "failed to create provider").
				WithTextCode("PROVIDER_CREATION_FAILED").
				WithMetadata(map[string]any{
					"factory_index":   i,
					"total_factories": len(s.builders),
				})
		}
		s.providers = append(s.providers, p)
	}

	if len(s.providers) == 0 && s.configPath != "" {
		s.logger.Debug("no providers specified, loading default file provider", "path", s.configPath)
		p, err := OptionalProvider(FileProvider[T](s.configPath))(s)
		if err != nil {
			return errors.Wrap(err, errors.CategoryOperation, "failed to create default file provider").
				WithTextCode("DEFAULT_PROVIDER_FAILED").
				WithMetadata(map[string]any{"config_path": s.configPath})
		}
		s.providers = append(s.providers, p)
	}

	for i, p := range s.providers {
		if err := p.Validate(); err != nil {
			return errors.Wrap(err, errors.CategoryValidation, "invalid provider source type").
				WithTextCode("INVALID_PROVIDER_TYPE").
				WithMetadata(map[string]any{
					"source_type":    p.Type().String(),
					"provider_index": i,
				})
		}
	}

	sort.SliceStable(s.providers, func(i, j int) bool {
		return s.providers[i].Priority() < s.providers[j].Priority()
	})

	for i, p := range s.providers {
		s.logger.Debug("loading source", "source_type", p.Type().String(), "priority", p.Priority())
		if err := p.Load(ctx, s.k); err != nil {
			return errors.Wrap(err, errors.CategoryOperation, "failed to load configuration from source").
				WithTextCode("CONFIG_LOAD_FAILED").
				WithMetadata(map[string]any{
					"source_type":   p.Type().String(),
					"source_index":  i,
					"total_sources": len(s.providers),
				})
		}
	}

	s.solve()

	doc := s.k.Raw()
	if s.validate {
		if err := s.validateDocument(doc); err != nil {
			return err
		}
	}

	s.root.SetConfig(doc)
	return nil
}

// solve runs the solvers until the document stops changing or the passes run out.
func (s *Session[T]) solve() {
	if len(s.solvers) == 0 {
		return
	}
	for pass := 0; pass < s.solverPasses; pass++ {
		before, err := copystructure.Copy(s.k.Raw())
		for _, solver := range s.solvers {
			solver.Solve(s.k)
		}
		if err == nil && reflect.DeepEqual(before, s.k.Raw()) {
			return
		}
	}
}

func (s *Session[T]) validateDocument(doc map[string]any) error {
	sch, err := s.Schema()
	if err != nil {
		return err
	}
	if err := sch.Validate(doc); err != nil {
		return errors.Wrap(err, errors.CategoryValidation, "configuration validation failed").
			WithTextCode("CONFIG_VALIDATION_FAILED")
	}
	return nil
}

// Value builds T from the editor tree. Instances bound in place keep their identity across
// calls.
func (s *Session[T]) Value() (T, error) {
	v, err := s.root.Value()
	if err != nil {
		var zero T
		return zero, err
	}
	return bind.As[T](v)
}

// Config returns the document held by the editor tree.
func (s *Session[T]) Config() any {
	return s.root.Config()
}

// Schema describes the root editor.
func (s *Session[T]) Schema() (*schema.Document, error) {
	return schema.NewGenerator(schema.WithLogger(s.logger)).Generate(s.root)
}

// Save writes the editor tree's document to path, serialized by extension. JSON output keeps
// declaration order.
func (s *Session[T]) Save(path string) error {
	data, err := s.Marshal(FileTypeOf(path))
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(err, errors.CategoryOperation, "failed to create configuration directory").
				WithTextCode("SAVE_FAILED").
				WithMetadata(map[string]any{"path": path})
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(err, errors.CategoryOperation, "failed to write configuration").
			WithTextCode("SAVE_FAILED").
			WithMetadata(map[string]any{"path": path})
	}
	s.logger.Info("configuration saved", "path", path)
	return nil
}

// Marshal serializes the editor tree's document.
func (s *Session[T]) Marshal(filetype FileType) ([]byte, error) {
	if filetype == FileTypeJSON {
		return editor.MarshalConfigIndent(s.root)
	}
	if err := filetype.Valid(); err != nil {
		return nil, err
	}
	cfg, ok := s.root.Config().(map[string]any)
	if !ok {
		return nil, errors.New("only object documents can be written as "+filetype.String(), errors.CategoryBadInput).
			WithTextCode("UNSUPPORTED_DOCUMENT").
			WithMetadata(map[string]any{"file_type": filetype.String()})
	}
	out := koanf.New(DefaultDelimiter)
	if err := out.Load(confmap.Provider(cfg, ""), nil); err != nil {
		return nil, errors.Wrap(err, errors.CategoryOperation, "failed to prepare configuration").
			WithTextCode("MARSHAL_FAILED")
	}
	data, err := out.Marshal(filetype.Parser())
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryOperation, "failed to serialize configuration").
			WithTextCode("MARSHAL_FAILED").
			WithMetadata(map[string]any{"file_type": filetype.String()})
	}
	return data, nil
}
