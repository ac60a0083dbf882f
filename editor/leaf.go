package editor

import (
	"encoding/json"
	goerrors "errors"
	"math"
	"strconv"
	"regexp"
	"strings"

	"github.com/spf13/cast"
)

// leaf holds the state shared by every primitive editor. Values are kept as loaded;
// bounds are applied on the way out so a later bound change takes effect without reloading.
type leaf[T any] struct {
	Base
	value    T
	def      T
	null     bool
	nullable bool
	parse    func(any) (T, bool)
	out      func(T) T
}

func (l *leaf[T]) SetConfig(doc any) {
	if doc == nil {
		l.reset()
		return
	}
	v, ok := l.parse(doc)
	if !ok {
		l.logger.Debug("leaf input rejected, using default", "label", l.label, "input", doc)
		l.reset()
		return
	}
	l.value = v
	l.null = false
}

func (l *leaf[T]) reset() {
	l.value = l.def
	l.null = l.nullable
}

func (l *leaf[T]) current() T {
	if l.out != nil {
		return l.out(l.value)
	}
	return l.value
}

func (l *leaf[T]) Config() any {
	if l.null {
		return nil
	}
	return l.current()
}

func (l *leaf[T]) Value() (any, error) {
	return l.Config(), nil
}

func (l *leaf[T]) DefaultValue() any {
	if l.nullable {
		return nil
	}
	return l.def
}

// Nullable reports whether null is a legal value.
func (l *leaf[T]) Nullable() bool {
	return l.nullable
}

// IsNull reports whether the editor currently holds null.
func (l *leaf[T]) IsNull() bool {
	return l.null
}

// SetNull clears the value of a nullable editor; non nullable editors return to the default.
func (l *leaf[T]) SetNull() {
	l.reset()
}

// Default is the declared default, regardless of nullability.
func (l *leaf[T]) Default() T {
	return l.def
}

func (l *leaf[T]) set(v T) {
	l.value = v
	l.null = false
}

func (l *leaf[T]) setDefault(v T) {
	l.def = v
	l.value = v
	l.null = l.nullable
}

func (l *leaf[T]) setNullable(v bool) {
	l.nullable = v
	l.null = v
}

// NumberEditor edits a float64.
type NumberEditor struct {
	leaf[float64]
	min, max *float64
}

func NewNumber(def float64, opts ...Option) *NumberEditor {
	e := &NumberEditor{}
	e.Base = newBase(opts)
	e.parse = toFloat
	e.out = e.clamp
	e.setDefault(def)
	return e
}

// WithRange sets inclusive bounds. NaN leaves a side open.
func (e *NumberEditor) WithRange(min, max float64) *NumberEditor {
	e.min = bound(min)
	e.max = bound(max)
	return e
}

func (e *NumberEditor) WithNullable(v bool) *NumberEditor {
	e.setNullable(v)
	return e
}

func (e *NumberEditor) Set(v float64) {
	e.set(v)
}

// Float returns the clamped current value; null reads as the default.
func (e *NumberEditor) Float() float64 {
	if e.null {
		return e.clamp(e.def)
	}
	return e.current()
}

func (e *NumberEditor) Min() (float64, bool) {
	return deref(e.min)
}

func (e *NumberEditor) Max() (float64, bool) {
	return deref(e.max)
}

func (e *NumberEditor) clamp(v float64) float64 {
	if e.min != nil && v < *e.min {
		v = *e.min
	}
	if e.max != nil && v > *e.max {
		v = *e.max
	}
	return v
}

// IntegerEditor edits an int64. Non integral input is rejected.
type IntegerEditor struct {
	leaf[int64]
	min, max *int64
}

func NewInteger(def int64, opts ...Option) *IntegerEditor {
	e := &IntegerEditor{}
	e.Base = newBase(opts)
	e.parse = toInt
	e.out = e.clamp
	e.setDefault(def)
	return e
}

func (e *IntegerEditor) WithRange(min, max int64) *IntegerEditor {
	e.min = &min
	e.max = &max
	return e
}

func (e *IntegerEditor) WithMin(min int64) *IntegerEditor {
	e.min = &min
	return e
}

func (e *IntegerEditor) WithMax(max int64) *IntegerEditor {
	e.max = &max
	return e
}

func (e *IntegerEditor) WithNullable(v bool) *IntegerEditor {
	e.setNullable(v)
	return e
}

func (e *IntegerEditor) Set(v int64) {
	e.set(v)
}

func (e *IntegerEditor) Int() int64 {
	if e.null {
		return e.clamp(e.def)
	}
	return e.current()
}

func (e *IntegerEditor) Min() (int64, bool) {
	return deref(e.min)
}

func (e *IntegerEditor) Max() (int64, bool) {
	return deref(e.max)
}

func (e *IntegerEditor) clamp(v int64) int64 {
	if e.min != nil && v < *e.min {
		v = *e.min
	}
	if e.max != nil && v > *e.max {
		v = *e.max
	}
	return v
}

type BoolEditor struct {
	leaf[bool]
}

func NewBool(def bool, opts ...Option) *BoolEditor {
	e := &BoolEditor{}
	e.Base = newBase(opts)
	e.parse = toBool
	e.setDefault(def)
	return e
}

func (e *BoolEditor) WithNullable(v bool) *BoolEditor {
	e.setNullable(v)
	return e
}

func (e *BoolEditor) Set(v bool) {
	e.set(v)
}

func (e *BoolEditor) Bool() bool {
	if e.null {
		return e.def
	}
	return e.value
}

type StringEditor struct {
	leaf[string]
}

func NewString(def string, opts ...Option) *StringEditor {
	e := &StringEditor{}
	e.Base = newBase(opts)
	e.parse = toString
	e.setDefault(def)
	return e
}

func (e *StringEditor) WithNullable(v bool) *StringEditor {
	e.setNullable(v)
	return e
}

func (e *StringEditor) Set(v string) {
	e.set(v)
}

func (e *StringEditor) String() string {
	if e.null {
		return e.def
	}
	return e.value
}

// EnumEditor edits a string restricted to a fixed set of values.
type EnumEditor struct {
	leaf[string]
	values []string
}

// NewEnum builds an enum editor. An empty or unknown def falls back to the first value.
func NewEnum(values []string, def string, opts ...Option) *EnumEditor {
	e := &EnumEditor{values: append([]string(nil), values...)}
	e.Base = newBase(opts)
	e.parse = e.match
	if _, ok := e.match(def); !ok && len(e.values) > 0 {
		def = e.values[0]
	}
	e.setDefault(def)
	return e
}

func (e *EnumEditor) WithNullable(v bool) *EnumEditor {
	e.setNullable(v)
	return e
}

// Set selects v; values outside the allowed set are ignored.
func (e *EnumEditor) Set(v string) bool {
	if _, ok := e.match(v); !ok {
		return false
	}
	e.set(v)
	return true
}

func (e *EnumEditor) Values() []string {
	return append([]string(nil), e.values...)
}

func (e *EnumEditor) String() string {
	if e.null {
		return e.def
	}
	return e.value
}

func (e *EnumEditor) match(doc any) (string, bool) {
	s, ok := doc.(string)
	if !ok {
		return "", false
	}
	for _, v := range e.values {
		if v == s {
			return v, true
		}
	}
	return "", false
}

// ColorPattern matches the accepted color notations.
const ColorPattern = "^#([0-9a-fA-F]{6}|[0-9a-fA-F]{8})$"

var colorRe = regexp.MustCompile(ColorPattern)

// ColorEditor edits an RGB or RGBA hex color, normalized to lowercase.
type ColorEditor struct {
	leaf[string]
}

func NewColor(def string, opts ...Option) *ColorEditor {
	e := &ColorEditor{}
	e.Base = newBase(opts)
	e.parse = toColor
	if c, ok := toColor(def); ok {
		def = c
	} else {
		def = "#000000"
	}
	e.setDefault(def)
	return e
}

func (e *ColorEditor) WithNullable(v bool) *ColorEditor {
	e.setNullable(v)
	return e
}

func (e *ColorEditor) Set(v string) bool {
	c, ok := toColor(v)
	if !ok {
		return false
	}
	e.set(c)
	return true
}

func (e *ColorEditor) String() string {
	if e.null {
		return e.def
	}
	return e.value
}

// NullEditor always holds null.
type NullEditor struct {
	Base
}

func NewNull(opts ...Option) *NullEditor {
	return &NullEditor{Base: newBase(opts)}
}

func (e *NullEditor) SetConfig(any)       {}
func (e *NullEditor) Config() any         { return nil }
func (e *NullEditor) Value() (any, error) { return nil, nil }
func (e *NullEditor) DefaultValue() any   { return nil }

func toFloat(doc any) (float64, bool) {
	switch v := doc.(type) {
	case bool, nil:
		return 0, false
	case string:
		v = strings.TrimSpace(v)
		if v == "" {
			return 0, false
		}
		doc = v
	}
	f, err := cast.ToFloat64E(doc)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func toInt(doc any) (int64, bool) {
	switch v := doc.(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case uint64:
		if v > math.MaxInt64 {
			return 0, false
		}
		return int64(v), true
	case json.Number:
		if n, ok, exact := parseInt(string(v)); exact {
			return n, ok
		}
	case string:
		if n, ok, exact := parseInt(v); exact {
			return n, ok
		}
	}
	f, ok := toFloat(doc)
	// float64(math.MaxInt64) rounds up to 2^63, which does not fit
	if !ok || f != math.Trunc(f) || f >= 1<<63 || f < -(1<<63) {
		return 0, false
	}
	return int64(f), true
}

// parseInt parses decimal integer text exactly. exact is false when the text is not an
// integer literal and the float path should decide.
func parseInt(s string) (n int64, ok, exact bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	switch {
	case err == nil:
		return n, true, true
	case goerrors.Is(err, strconv.ErrRange):
		return 0, false, true
	}
	return 0, false, false
}

func toBool(doc any) (bool, bool) {
	switch v := doc.(type) {
	case bool:
		return v, true
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true":
			return true, true
		case "false":
			return false, true
		}
	}
	return false, false
}

func toString(doc any) (string, bool) {
	s, ok := doc.(string)
	return s, ok
}

func toColor(doc any) (string, bool) {
	s, ok := doc.(string)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	if !colorRe.MatchString(s) {
		return "", false
	}
	return strings.ToLower(s), true
}

func bound(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}

func deref[T any](p *T) (T, bool) {
	if p == nil {
		var zero T
		return zero, false
	}
	return *p, true
}
