// Package capability defines the agent's executable capabilities: the
// registry the engine draws tool definitions from and the concrete
// food-delivery implementations.
package capability

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Func executes a capability. Domain-level failures are reported in the
// result map under "error" and "message" so the engine can relay them to the
// model; only infrastructure failures surface as Go errors.
type Func func(ctx context.Context, turn *Turn, args json.RawMessage) map[string]any

// Capability couples a tool definition with its executor.
type Capability struct {
	Name        string
	Description string
	InputSchema map[string]any
	Fn          Func
}

// Registry stores capabilities keyed by name and preserves registration
// order for the engine's tool listing.
type Registry struct {
	mu           sync.RWMutex
	order        []string
	capabilities map[string]Capability
}

// NewRegistry creates an empty capability registry.
func NewRegistry() *Registry {
	return &Registry{capabilities: make(map[string]Capability)}
}

// Register adds a capability.
func (r *Registry) Register(c Capability) error {
	if c.Name == "" {
		return fmt.Errorf("capability name is required")
	}
	if c.Fn == nil {
		return fmt.Errorf("capability function is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.capabilities[c.Name]; exists {
		return fmt.Errorf("capability already registered for %s", c.Name)
	}
	r.capabilities[c.Name] = c
	r.order = append(r.order, c.Name)
	return nil
}

// Execute runs the named capability.
func (r *Registry) Execute(ctx context.Context, turn *Turn, name string, args json.RawMessage) (map[string]any, error) {
	if name == "" {
		return nil, fmt.Errorf("capability name is required")
	}
	r.mu.RLock()
	c, ok := r.capabilities[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no capability registered for %s", name)
	}
	return c.Fn(ctx, turn, args), nil
}

// Definitions returns all capabilities in registration order.
func (r *Registry) Definitions() []Capability {
	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := make([]Capability, 0, len(r.order))
	for _, name := range r.order {
		defs = append(defs, r.capabilities[name])
	}
	return defs
}

// errorResult is the in-band failure shape capabilities return to the model.
func errorResult(err, message string) map[string]any {
	return map[string]any{"error": err, "message": message}
}
