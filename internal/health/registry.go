// Package health tracks the dependencies the readiness check reports on.
package health

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
)

// Checker reports whether a dependency is reachable
type Checker interface {
	Type() string
	HealthCheck(ctx context.Context) error
}

// BaseChecker provides the Type method for checkers
type BaseChecker struct {
	checkType string
}

// Type returns the dependency type
func (c *BaseChecker) Type() string {
	return c.checkType
}

// CheckFunc adapts a function into a Checker
type CheckFunc struct {
	BaseChecker
	fn func(ctx context.Context) error
}

// NewCheckFunc wraps fn as a checker of the given type
func NewCheckFunc(checkType string, fn func(ctx context.Context) error) *CheckFunc {
	return &CheckFunc{BaseChecker: BaseChecker{checkType: checkType}, fn: fn}
}

// HealthCheck runs the wrapped function
func (c *CheckFunc) HealthCheck(ctx context.Context) error {
	return c.fn(ctx)
}

// Registry manages named checkers
type Registry struct {
	mu       sync.RWMutex
	checkers map[string]Checker
}

// NewRegistry creates a new registry
func NewRegistry() *Registry {
	return &Registry{
		checkers: make(map[string]Checker),
	}
}

// Register adds a checker to the registry
func (r *Registry) Register(name string, checker Checker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checkers[name] = checker
}

// Get retrieves a checker by name
func (r *Registry) Get(name string) Checker {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.checkers[name]
}

// List returns all registered names in sorted order
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.checkers))
	for name := range r.checkers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HealthCheckAll checks every registered dependency
func (r *Registry) HealthCheckAll(ctx context.Context) map[string]error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	results := make(map[string]error, len(r.checkers))
	for name, checker := range r.checkers {
		results[name] = checker.HealthCheck(ctx)
	}
	return results
}

// Ready reports whether every dependency is healthy, along with a status per dependency
func (r *Registry) Ready(ctx context.Context) (bool, map[string]string) {
	ready := true
	status := make(map[string]string)
	for name, err := range r.HealthCheckAll(ctx) {
		if err != nil {
			ready = false
			status[name] = err.Error()
			continue
		}
		status[name] = "ok"
	}
	return ready, status
}

// Unregister removes a checker from the registry
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.checkers, name)
}

// Close releases checkers that hold their own connections
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for name, checker := range r.checkers {
		if c, ok := checker.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("failed to close %s checker: %w", name, err))
			}
		}
	}
	return errors.Join(errs...)
}
