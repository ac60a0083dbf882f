package editor

import (
	goerrors "errors"
	"fmt"

	"github.com/goliatone/go-errors"
)

var (
	// ErrUnresolvedType marks a polymorphic slot whose discriminator names no usable type.
	ErrUnresolvedType = goerrors.New("typeconf: unresolved type")
	// ErrInstantiate wraps failures while creating an instance of a bound type.
	ErrInstantiate = goerrors.New("typeconf: instantiation failed")
	// ErrParamRole marks a constructor parameter that cannot be supplied for its declared role.
	ErrParamRole = goerrors.New("typeconf: constructor parameter role mismatch")
	// ErrBind wraps failures while applying values onto an instance.
	ErrBind = goerrors.New("typeconf: binding failed")
)

// ConfigurationError is returned once a real object is requested from a bound configuration
// and cannot be produced. Base is one of the Err* sentinels, Err the underlying cause.
type ConfigurationError struct {
	Op   string
	Type string
	Base error
	Err  error
	Meta map[string]any
}

func (e *ConfigurationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Type == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Type, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches either the sentinel or the wrapped cause.
func (e *ConfigurationError) Is(target error) bool {
	if e == nil {
		return target == nil
	}
	if goerrors.Is(e.Base, target) {
		return true
	}
	return goerrors.Is(e.Err, target)
}

// NewConfigurationError builds a ConfigurationError. A nil err is replaced by the sentinel
// so the error message is never empty. An err that already is a ConfigurationError is returned as is.
func NewConfigurationError(op, typeName string, base, err error, meta map[string]any) error {
	var existing *ConfigurationError
	if err != nil && goerrors.As(err, &existing) {
		return err
	}
	if err == nil {
		err = base
	}
	return &ConfigurationError{
		Op:   op,
		Type: typeName,
		Base: base,
		Err:  err,
		Meta: meta,
	}
}

func unresolvedError(op, name string, cause error) error {
	if cause == nil {
		cause = errors.New("discriminator does not name a registered type", errors.CategoryBadInput).
			WithTextCode("UNRESOLVED_TYPE").
			WithMetadata(map[string]any{
				"discriminator": name,
			})
	}
	return NewConfigurationError(op, name, ErrUnresolvedType, cause, map[string]any{
		"discriminator": name,
	})
}
