package mcp

import (
	"errors"
	"fmt"
	"sync"
)

// ErrDuplicateTool is returned when a tool name is registered twice.
// Registration happens once at startup, so callers treat this as fatal.
var ErrDuplicateTool = errors.New("tool already registered")

// Registry is the append-only tool table. It is populated once during
// startup and read-only afterwards; lookups are O(1) and List preserves
// registration order. Safe for concurrent reads.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]*Tool
	order []string
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]*Tool)}
}

// Register adds a tool. A second registration under the same name returns
// ErrDuplicateTool; startup code treats that as a programming error and
// aborts before serving.
func (r *Registry) Register(t Tool) error {
	if t.Name == "" {
		return errors.New("tool name must not be empty")
	}
	if t.Handler == nil {
		return fmt.Errorf("tool %q has no handler", t.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[t.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateTool, t.Name)
	}
	tool := t
	r.tools[t.Name] = &tool
	r.order = append(r.order, t.Name)
	return nil
}

// MustRegister is Register for startup wiring; it panics on error so a
// duplicate name can never reach the serving phase.
func (r *Registry) MustRegister(t Tool) {
	if err := r.Register(t); err != nil {
		panic(err)
	}
}

// Lookup returns the tool registered under name.
func (r *Registry) Lookup(name string) (*Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// List returns a fresh slice of all tools in registration order.
func (r *Registry) List() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, *r.tools[name])
	}
	return out
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}
