package tools

import (
	"context"
	"encoding/json"

	"github.com/movementfi/moveyield/core"
)

// Handler executes a tool invocation with full access to the execution
// parameters.
type Handler func(ctx context.Context, params *core.ToolParams) (*core.ToolResult, error)

// SimpleHandler is a reduced handler for tools that only need the raw
// input and report success by returning data. A returned error becomes
// a failed ToolResult rather than an infrastructure error.
type SimpleHandler func(ctx context.Context, input json.RawMessage) (interface{}, error)

// Builder assembles a core.Tool fluently:
//
//	tool := tools.New("compare_lending_rates").
//		Description("Compare supply rates between protocols.").
//		Schema(tools.ObjectSchema(...)).
//		Handler(handlerFunc).
//		Build()
type Builder struct {
	def     core.ToolDefinition
	handler Handler
}

// New starts building a tool with the given name.
func New(name string) *Builder {
	return &Builder{def: core.ToolDefinition{ToolName: name}}
}

// Description sets the description exposed to Claude.
func (b *Builder) Description(d string) *Builder {
	b.def.ToolDescription = d
	return b
}

// Schema sets the input JSON Schema.
func (b *Builder) Schema(s map[string]interface{}) *Builder {
	b.def.InputSchema = s
	return b
}

// Handler sets the tool's execution function.
func (b *Builder) Handler(h Handler) *Builder {
	b.handler = h
	return b
}

// HandlerFunc sets a SimpleHandler as the execution function.
func (b *Builder) HandlerFunc(h SimpleHandler) *Builder {
	b.handler = func(ctx context.Context, params *core.ToolParams) (*core.ToolResult, error) {
		data, err := h(ctx, params.Input)
		if err != nil {
			return &core.ToolResult{Success: false, Error: err.Error()}, nil
		}
		return &core.ToolResult{Success: true, Data: data}, nil
	}
	return b
}

// RequiresConfirmation marks the tool as needing user approval before
// execution.
func (b *Builder) RequiresConfirmation() *Builder {
	b.def.RequiresUserConfirmation = true
	return b
}

// SummaryTemplate sets the confirmation summary template, rendered
// against the tool's JSON input (e.g. "Supply {{.amount}} {{.asset}}").
func (b *Builder) SummaryTemplate(t string) *Builder {
	b.def.SummaryTemplate = t
	return b
}

// Build finalizes the tool.
func (b *Builder) Build() core.Tool {
	return &builtTool{def: b.def, handler: b.handler}
}

// builtTool is the Tool produced by Builder.
type builtTool struct {
	def     core.ToolDefinition
	handler Handler
}

func (t *builtTool) Name() string                        { return t.def.ToolName }
func (t *builtTool) Description() string                 { return t.def.ToolDescription }
func (t *builtTool) InputSchema() map[string]interface{} { return t.def.InputSchema }
func (t *builtTool) RequiresConfirmation() bool          { return t.def.RequiresUserConfirmation }

func (t *builtTool) GetSummary(input json.RawMessage) string {
	return t.def.RenderSummary(input)
}

func (t *builtTool) Execute(ctx context.Context, params *core.ToolParams) (*core.ToolResult, error) {
	if t.handler == nil {
		return &core.ToolResult{Success: false, Error: "tool has no handler"}, nil
	}
	return t.handler(ctx, params)
}
