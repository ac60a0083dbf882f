// Package diag collects non-fatal findings raised while editing configuration documents.
//
// Editors and the type registry never fail on recoverable input problems (an unknown key,
// a discriminator collision, a type name that does not resolve). They report a Diagnostic
// instead, so a partially wrong document can still be edited.
package diag

import (
	"fmt"
	"sync"

	"github.com/goliatone/go-typeconf/logger"
)

const (
	CodeUnknownKey             = "UNKNOWN_KEY"
	CodeDiscriminatorCollision = "DISCRIMINATOR_COLLISION"
	CodeUnresolvedType         = "UNRESOLVED_TYPE"
	CodeMergeKeyCollision      = "MERGE_KEY_COLLISION"
	CodeEditorUnavailable      = "EDITOR_UNAVAILABLE"
)

// Diagnostic is a single finding. Path is the document key (or type id) it refers to.
type Diagnostic struct {
	Code    string
	Path    string
	Message string
}

func (d Diagnostic) String() string {
	if d.Path == "" {
		return fmt.Sprintf("[%s] %s", d.Code, d.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", d.Code, d.Path, d.Message)
}

type Reporter interface {
	Report(Diagnostic)
}

type discard struct{}

func (discard) Report(Diagnostic) {}

// Discard returns a Reporter that drops everything.
func Discard() Reporter {
	return discard{}
}

// Collector keeps every reported Diagnostic and mirrors it to a logger at warn level.
// The registry may report from concurrent first-use scans, so access is locked.
type Collector struct {
	mu     sync.Mutex
	items  []Diagnostic
	logger logger.Logger
}

func NewCollector(l logger.Logger) *Collector {
	if l == nil {
		l = logger.Nop()
	}
	return &Collector{logger: l}
}

func (c *Collector) Report(d Diagnostic) {
	c.mu.Lock()
	c.items = append(c.items, d)
	c.mu.Unlock()
	c.logger.Warn(d.Message, "code", d.Code, "path", d.Path)
}

// All returns a copy of the collected diagnostics in report order.
func (c *Collector) All() []Diagnostic {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Diagnostic, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// ByCode filters the collected diagnostics.
func (c *Collector) ByCode(code string) []Diagnostic {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []Diagnostic
	for _, d := range c.items {
		if d.Code == code {
			out = append(out, d)
		}
	}
	return out
}

func (c *Collector) Reset() {
	c.mu.Lock()
	c.items = nil
	c.mu.Unlock()
}
