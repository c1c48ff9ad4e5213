package tools

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Registry manages tool definitions and dispatches tool calls.
type Registry struct {
	mu       sync.RWMutex
	tools    map[string]*toolEntry
	ordering []string // preserve registration order for tools/list
}

type toolEntry struct {
	def     ToolDefinition
	handler Handler
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]*toolEntry),
	}
}

// Register adds a tool definition and handler to the registry.
func (r *Registry) Register(def ToolDefinition, handler Handler) error {
	if def.Name == "" {
		return fmt.Errorf("tool name cannot be empty")
	}
	if handler == nil {
		return fmt.Errorf("handler cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[def.Name]; exists {
		return fmt.Errorf("tool %s already registered", def.Name)
	}

	r.tools[def.Name] = &toolEntry{def: def, handler: handler}
	r.ordering = append(r.ordering, def.Name)

	return nil
}

// MustRegister registers a tool or panics on error (for startup-time registration).
func (r *Registry) MustRegister(def ToolDefinition, handler Handler) {
	if err := r.Register(def, handler); err != nil {
		panic(err)
	}
}

// List returns all registered tool descriptors in registration order.
func (r *Registry) List() []ToolDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	descriptors := make([]ToolDescriptor, 0, len(r.ordering))
	for _, name := range r.ordering {
		entry := r.tools[name]
		descriptors = append(descriptors, ToolDescriptor{
			Name:        entry.def.Name,
			Description: entry.def.Description,
			InputSchema: entry.def.InputSchema,
		})
	}

	return descriptors
}

// Call executes a tool by name. Every failure mode is folded into the
// returned result envelope: an unknown tool, a validation fault, or a
// handler error all produce isError results, never a dispatch failure.
// The invocation is timed and logged regardless of outcome.
func (r *Registry) Call(ctx context.Context, tc *ToolContext, req CallRequest) CallResult {
	start := time.Now()

	result := r.call(ctx, tc, req)

	tc.Logger.Info().
		Str("tool", req.Name).
		Dur("duration", time.Since(start)).
		Bool("isError", result.IsError).
		Msg("tool invocation complete")

	return result
}

func (r *Registry) call(ctx context.Context, tc *ToolContext, req CallRequest) CallResult {
	r.mu.RLock()
	entry, exists := r.tools[req.Name]
	r.mu.RUnlock()

	if !exists {
		return errorResult(fmt.Sprintf("Unknown tool: %s", req.Name))
	}

	if len(req.Arguments) == 0 || string(req.Arguments) == "null" {
		return errorResult("No arguments provided")
	}

	text, err := entry.handler(ctx, tc, req.Arguments)
	if err != nil {
		return errorResult(err.Error())
	}

	return textResult(text)
}

// Get retrieves a tool definition by name.
func (r *Registry) Get(name string) (*ToolDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, exists := r.tools[name]
	if !exists {
		return nil, false
	}

	return &entry.def, true
}
