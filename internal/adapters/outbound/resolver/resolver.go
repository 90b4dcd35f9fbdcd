// Package resolver decides how each check's tool is invoked: from the
// bundled tool cache, from PATH, or inside a container.
package resolver

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/gatekeep/gatekeep/internal/domain"
)

// Strategy is one way of obtaining a runnable tool.
type Strategy interface {
	Kind() domain.StrategyKind
	// Lookup reports an invocation for d, or ok=false when this strategy
	// can not provide the tool.
	Lookup(d domain.CheckDescriptor) (inv domain.Invocation, ok bool)
}

type resolution struct {
	inv domain.Invocation
	err error
}

// Resolver tries its strategies in order and caches the outcome per check
// name for the lifetime of the process.
type Resolver struct {
	strategies []Strategy
	logger     *slog.Logger

	mu    sync.Mutex
	cache map[string]resolution
}

// New creates a resolver trying strategies in the given order.
func New(logger *slog.Logger, strategies ...Strategy) *Resolver {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Resolver{
		strategies: strategies,
		logger:     logger,
		cache:      make(map[string]resolution),
	}
}

// Resolve implements domain.ToolResolver.
func (r *Resolver) Resolve(d domain.CheckDescriptor) (domain.Invocation, error) {
	r.mu.Lock()
	if res, ok := r.cache[d.Name]; ok {
		r.mu.Unlock()
		return res.inv, res.err
	}
	r.mu.Unlock()

	res := r.lookup(d)

	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, ok := r.cache[d.Name]; ok {
		return prev.inv, prev.err
	}
	r.cache[d.Name] = res
	return res.inv, res.err
}

func (r *Resolver) lookup(d domain.CheckDescriptor) resolution {
	for _, s := range r.strategies {
		if inv, ok := s.Lookup(d); ok {
			r.logger.Debug("tool resolved", "check", d.Name, "strategy", s.Kind(), "path", inv.Path)
			return resolution{inv: inv}
		}
	}
	r.logger.Debug("tool unavailable", "check", d.Name, "command", d.Command)
	return resolution{err: fmt.Errorf("%s: %w", d.Command, domain.ErrToolUnavailable)}
}
