package engine

import (
	"sync"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/movementfi/moveyield/core"
)

// ToolRegistry holds the tools available to the engine. Registration
// order is preserved so the tool list sent to Claude is deterministic.
type ToolRegistry struct {
	mu    sync.RWMutex
	tools map[string]core.Tool
	order []string
}

// NewToolRegistry creates an empty registry.
func NewToolRegistry() *ToolRegistry {
	return &ToolRegistry{tools: make(map[string]core.Tool)}
}

// Register adds tools to the registry. Re-registering a name replaces
// the previous tool but keeps its position.
func (r *ToolRegistry) Register(tools ...core.Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range tools {
		if _, exists := r.tools[t.Name()]; !exists {
			r.order = append(r.order, t.Name())
		}
		r.tools[t.Name()] = t
	}
}

// Get returns the tool with the given name.
func (r *ToolRegistry) Get(name string) (core.Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Names returns all registered tool names in registration order.
func (r *ToolRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// ToolFilter selects a subset of registered tools.
type ToolFilter func(core.Tool) bool

// FilterByNames selects tools whose name is in the given list.
func FilterByNames(names ...string) ToolFilter {
	allowed := make(map[string]bool, len(names))
	for _, n := range names {
		allowed[n] = true
	}
	return func(t core.Tool) bool {
		return allowed[t.Name()]
	}
}

// ToAPITools converts all registered tools to Claude API tool params.
func (r *ToolRegistry) ToAPITools() []anthropic.ToolUnionParam {
	return r.ToAPIToolsFiltered(nil)
}

// ToAPIToolsFiltered converts the tools accepted by the filter. A nil
// filter accepts everything.
func (r *ToolRegistry) ToAPIToolsFiltered(filter ToolFilter) []anthropic.ToolUnionParam {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var apiTools []anthropic.ToolUnionParam
	for _, name := range r.order {
		t := r.tools[name]
		if filter != nil && !filter(t) {
			continue
		}
		apiTools = append(apiTools, toAPITool(t))
	}
	return apiTools
}

func toAPITool(t core.Tool) anthropic.ToolUnionParam {
	schema := t.InputSchema()
	var properties interface{}
	var required []string
	if schema != nil {
		properties = schema["properties"]
		if req, ok := schema["required"].([]string); ok {
			required = req
		}
	}
	param := anthropic.ToolParam{
		Name:        t.Name(),
		Description: anthropic.String(t.Description()),
		InputSchema: anthropic.ToolInputSchemaParam{
			Properties: properties,
			Required:   required,
		},
	}
	return anthropic.ToolUnionParam{OfTool: &param}
}
