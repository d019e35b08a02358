// Package resolver asks an external text-generation backend for the mix name
// of a WIP code that is missing from the lookup table. Callers always get a
// usable string back: every failure collapses to Fallback.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Fallback is returned whenever a name cannot be resolved.
const Fallback = "Unknown Mix - Manual Entry Required"

// ErrDisabled is reported by the Disabled backend.
var ErrDisabled = errors.New("resolver: disabled")

// Resolver never fails; see Fallback.
type Resolver interface {
	Resolve(ctx context.Context, code string) string
}

// Backend is a fallible name source.
type Backend interface {
	Lookup(ctx context.Context, code string) (string, error)
}

// BackendFunc adapts a function to Backend.
type BackendFunc func(ctx context.Context, code string) (string, error)

// Lookup calls f.
func (f BackendFunc) Lookup(ctx context.Context, code string) (string, error) {
	return f(ctx, code)
}

// Disabled is the backend used when no API key or model is configured.
var Disabled Backend = BackendFunc(func(context.Context, string) (string, error) {
	return "", ErrDisabled
})

// Guarded wraps a Backend and enforces the never-fail contract.
type Guarded struct {
	backend Backend
	timeout time.Duration
	logger  *zap.Logger
}

// Option customizes Guard.
type Option func(*Guarded)

// WithTimeout bounds each backend call. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(g *Guarded) {
		if d >= 0 {
			g.timeout = d
		}
	}
}

// WithLogger records failures that are otherwise swallowed.
func WithLogger(l *zap.Logger) Option {
	return func(g *Guarded) {
		if l != nil {
			g.logger = l
		}
	}
}

// Guard returns a Resolver around backend. A nil backend behaves as Disabled.
func Guard(backend Backend, opts ...Option) *Guarded {
	if backend == nil {
		backend = Disabled
	}
	g := &Guarded{backend: backend, logger: zap.NewNop()}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	return g
}

// Resolve returns the trimmed backend answer, or Fallback on error, panic,
// or an empty answer.
func (g *Guarded) Resolve(ctx context.Context, code string) (name string) {
	if ctx == nil {
		ctx = context.Background()
	}
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			g.logger.Error("resolver backend panicked", zap.String("code", code), zap.Any("panic", r))
			name = Fallback
		}
	}()
	raw, err := g.backend.Lookup(ctx, code)
	if err != nil {
		g.logger.Warn("resolver lookup failed", zap.String("code", code), zap.Error(err))
		return Fallback
	}
	name = cleanName(raw)
	if name == "" {
		g.logger.Warn("resolver returned empty name", zap.String("code", code))
		return Fallback
	}
	return name
}

// cleanName trims whitespace and stray quoting a model may wrap its answer in.
func cleanName(raw string) string {
	name := strings.TrimSpace(raw)
	if i := strings.IndexAny(name, "\r\n"); i >= 0 {
		name = strings.TrimSpace(name[:i])
	}
	name = strings.Trim(name, "\"'`")
	return strings.TrimSpace(name)
}

// Static resolves from a fixed map; unknown codes fail. Useful for offline
// sites that keep a secondary legacy list.
type Static map[string]string

// Lookup implements Backend.
func (s Static) Lookup(_ context.Context, code string) (string, error) {
	if name, ok := s[code]; ok {
		return name, nil
	}
	return "", fmt.Errorf("resolver: no entry for %s", code)
}
