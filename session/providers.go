package session

import (
	"context"
	goerrors "errors"
	"io/fs"
	"os"
	"syscall"

	"github.com/goliatone/go-errors"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ProviderType names the kind of source a provider reads.
type ProviderType string

const (
	ProviderTypeDefault ProviderType = "default"
	ProviderTypeFile    ProviderType = "file"
	ProviderTypeStruct  ProviderType = "struct"
	ProviderTypeBytes   ProviderType = "bytes"
)

func (p ProviderType) String() string {
	return string(p)
}

func (p ProviderType) validate() error {
	switch p {
	case ProviderTypeDefault, ProviderTypeFile, ProviderTypeStruct, ProviderTypeBytes:
		return nil
	}
	return errors.New("invalid provider type", errors.CategoryValidation).
		WithTextCode("INVALID_PROVIDER_TYPE").
		WithMetadata(map[string]any{
			"provider_type": string(p),
			"valid_types": []string{
				string(ProviderTypeDefault),
				string(ProviderTypeFile),
				string(ProviderTypeStruct),
				string(ProviderTypeBytes),
			},
		})
}

// Provider loads one source into the session document. Providers load in ascending priority;
// later sources override earlier ones.
type Provider interface {
	Type() ProviderType
	Priority() int
	Validate() error
	Load(ctx context.Context, k *koanf.Koanf) error
}

// ProviderBuilder creates a provider when the session loads.
type ProviderBuilder[T any] func(*Session[T]) (Provider, error)

// Priority orders providers.
type Priority int

// WithOffset shifts p, e.g. PriorityFile.WithOffset(10) for a local override file.
func (p Priority) WithOffset(offset int) Priority {
	return Priority(int(p) + offset)
}

var (
	PriorityDefaults Priority = 0
	PriorityStruct   Priority = 10
	PriorityFile     Priority = 20
	PriorityBytes    Priority = 30
)

type loader struct {
	order        int
	providerType ProviderType
	load         func(context.Context, *koanf.Koanf) error
}

func (l *loader) Type() ProviderType { return l.providerType }
func (l *loader) Priority() int      { return l.order }
func (l *loader) Validate() error    { return l.providerType.validate() }

func (l *loader) Load(ctx context.Context, k *koanf.Koanf) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return l.load(ctx, k)
}

// DefaultValuesProvider loads a nested document of defaults.
func DefaultValuesProvider[T any](values map[string]any, order ...int) ProviderBuilder[T] {
	return func(s *Session[T]) (Provider, error) {
		kprv := confmap.Provider(values, "")
		return &loader{
			providerType: ProviderTypeDefault,
			order:        getOrder(PriorityDefaults, order...),
			load: func(ctx context.Context, k *koanf.Koanf) error {
				s.logger.Debug("default values provider", "keys", len(values))
				if err := k.Load(kprv, nil, s.mergeOption()); err != nil {
					return errors.Wrap(err, errors.CategoryOperation, "failed to load default values").
						WithTextCode("DEFAULT_VALUES_LOAD_FAILED").
						WithMetadata(map[string]any{"values_count": len(values)})
				}
				return nil
			},
		}, nil
	}
}

// FileProvider loads a JSON, YAML or TOML file chosen by extension.
func FileProvider[T any](path string, order ...int) ProviderBuilder[T] {
	filetype := FileTypeOf(path)
	return func(s *Session[T]) (Provider, error) {
		kprv := file.Provider(path)
		return &loader{
			providerType: ProviderTypeFile,
			order:        getOrder(PriorityFile, order...),
			load: func(ctx context.Context, k *koanf.Koanf) error {
				s.logger.Debug("file provider", "path", path, "type", filetype.String())
				if err := k.Load(kprv, filetype.Parser(), s.mergeOption()); err != nil {
					// missing files stay plain fs errors for OptionalProvider
					if goerrors.Is(err, fs.ErrNotExist) {
						return err
					}
					return errors.Wrap(err, errors.CategoryOperation, "failed to load configuration from file").
						WithTextCode("FILE_LOAD_FAILED").
						WithMetadata(map[string]any{
							"path":      path,
							"file_type": filetype.String(),
						})
				}
				return nil
			},
		}, nil
	}
}

// BytesProvider loads an in-memory document of the given type.
func BytesProvider[T any](data []byte, filetype FileType, order ...int) ProviderBuilder[T] {
	return func(s *Session[T]) (Provider, error) {
		if err := filetype.Valid(); err != nil {
			return nil, err
		}
		kprv := rawbytes.Provider(data)
		return &loader{
			providerType: ProviderTypeBytes,
			order:        getOrder(PriorityBytes, order...),
			load: func(ctx context.Context, k *koanf.Koanf) error {
				s.logger.Debug("bytes provider", "size", len(data), "type", filetype.String())
				if err := k.Load(kprv, filetype.Parser(), s.mergeOption()); err != nil {
					return errors.Wrap(err, errors.CategoryOperation, "failed to parse configuration bytes").
						WithTextCode("BYTES_LOAD_FAILED").
						WithMetadata(map[string]any{"file_type": filetype.String()})
				}
				return nil
			},
		}, nil
	}
}

// StructProvider loads the exported fields of v, keyed by their koanf tag.
func StructProvider[T any](v any, order ...int) ProviderBuilder[T] {
	return func(s *Session[T]) (Provider, error) {
		if v == nil {
			return nil, errors.New("struct cannot be nil", errors.CategoryBadInput).
				WithTextCode("NIL_STRUCT")
		}
		kprv := structs.Provider(v, "koanf")
		return &loader{
			providerType: ProviderTypeStruct,
			order:        getOrder(PriorityStruct, order...),
			load: func(ctx context.Context, k *koanf.Koanf) error {
				s.logger.Debug("struct provider")
				if err := k.Load(kprv, nil, s.mergeOption()); err != nil {
					return errors.Wrap(err, errors.CategoryOperation, "failed to load configuration from struct").
						WithTextCode("STRUCT_LOAD_FAILED")
				}
				return nil
			},
		}, nil
	}
}

// ErrorFilter reports whether a provider error can be ignored.
type ErrorFilter func(err error) bool

// DefaultErrorFilter ignores missing files, or the listed errors when any are given.
func DefaultErrorFilter(allowed ...error) ErrorFilter {
	return func(err error) bool {
		if err == nil {
			return false
		}
		if len(allowed) == 0 {
			return os.IsNotExist(err) || goerrors.Is(err, fs.ErrNotExist) || goerrors.Is(err, syscall.ENOENT)
		}
		for _, a := range allowed {
			if goerrors.Is(err, a) {
				return true
			}
		}
		return false
	}
}

// OptionalProvider wraps a provider so errors accepted by the filter are ignored.
func OptionalProvider[T any](f ProviderBuilder[T], filters ...ErrorFilter) ProviderBuilder[T] {
	ignore := DefaultErrorFilter()
	if len(filters) > 0 && filters[0] != nil {
		ignore = filters[0]
	}
	return func(s *Session[T]) (Provider, error) {
		base, err := f(s)
		if err != nil {
			return nil, err
		}
		return &loader{
			providerType: base.Type(),
			order:        base.Priority(),
			load: func(ctx context.Context, k *koanf.Koanf) error {
				err := base.Load(ctx, k)
				if err != nil && ignore(err) {
					s.logger.Debug("optional provider skipped", "type", base.Type().String(), "error", err)
					return nil
				}
				return err
			},
		}, nil
	}
}

func getOrder(def Priority, order ...int) int {
	if len(order) > 0 {
		return order[0]
	}
	return int(def)
}
