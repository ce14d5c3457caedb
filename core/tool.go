package core

import (
	"bytes"
	"context"
	"encoding/json"
	"text/template"
)

// Tool is a capability the engine can execute on behalf of an agent.
type Tool interface {
	// Name returns the tool's API name.
	Name() string

	// Description returns the description exposed to Claude.
	Description() string

	// InputSchema returns the JSON Schema for the tool's input.
	InputSchema() map[string]interface{}

	// Execute runs the tool.
	Execute(ctx context.Context, params *ToolParams) (*ToolResult, error)

	// RequiresConfirmation reports whether the tool needs explicit user
	// approval before executing.
	RequiresConfirmation() bool

	// GetSummary renders a human-readable summary of an invocation, for
	// confirmation prompts.
	GetSummary(input json.RawMessage) string
}

// ToolParams carries the input for a single tool execution.
type ToolParams struct {
	// UserID identifies the user the tool acts for.
	UserID string

	// Input is the raw JSON input from Claude.
	Input json.RawMessage

	// ConfirmationID is set when executing a previously confirmed
	// action. Empty for direct execution.
	ConfirmationID string

	// RequestID correlates the execution with its originating request.
	RequestID string
}

// ToolResult is the outcome of a tool execution. Failed domain
// operations set Success false with Error rather than returning a Go
// error; Go errors are reserved for infrastructure failures.
type ToolResult struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ToolDefinition is the declarative description of a tool: its API
// surface without behavior.
type ToolDefinition struct {
	ToolName        string
	ToolDescription string
	InputSchema     map[string]interface{}

	// RequiresUserConfirmation marks state-changing tools that must be
	// approved by the user before running.
	RequiresUserConfirmation bool

	// SummaryTemplate renders the confirmation summary. It is a
	// text/template over the tool's JSON input, e.g.
	// "Supply {{.amount}} {{.asset}}".
	SummaryTemplate string
}

// RenderSummary renders the definition's summary template against the
// given input. Falls back to the tool name when the template is empty
// or fails to render.
func (d *ToolDefinition) RenderSummary(input json.RawMessage) string {
	if d.SummaryTemplate == "" {
		return d.ToolName
	}
	var fields map[string]interface{}
	if err := json.Unmarshal(input, &fields); err != nil {
		return d.ToolName
	}
	tmpl, err := template.New("summary").Parse(d.SummaryTemplate)
	if err != nil {
		return d.ToolName
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, fields); err != nil {
		return d.ToolName
	}
	return buf.String()
}

// PendingAction is a tool invocation awaiting user confirmation. It
// holds everything needed to resume the run once the user decides.
type PendingAction struct {
	ID             string          `json:"id"`
	IdempotencyKey string          `json:"idempotency_key"`
	SessionID      string          `json:"session_id"`
	UserID         string          `json:"user_id"`
	Tool           string          `json:"tool"`
	Input          json.RawMessage `json:"input"`
	Thought        string          `json:"thought,omitempty"`
	Summary        string          `json:"summary"`
	BlockID        string          `json:"block_id"`
	CreatedAt      int64           `json:"created_at"`
	ExpiresAt      int64           `json:"expires_at"`
}

// ToolExecution records one tool invocation for the run's output.
type ToolExecution struct {
	Tool       string      `json:"tool"`
	Input      interface{} `json:"input,omitempty"`
	DurationMs int64       `json:"duration_ms"`
	Error      string      `json:"error,omitempty"`
	Result     interface{} `json:"result,omitempty"`
}

// Agent pairs an identity with the capabilities the engine needs to run
// it.
type Agent interface {
	Name() string
	Capabilities() *AgentCapabilities
}

// AgentCapabilities describes how an agent should be executed.
type AgentCapabilities struct {
	// SystemPrompt is the agent's system prompt.
	SystemPrompt string

	// Model selects the Claude model. Empty uses the engine default.
	Model string

	// MaxTokens caps response tokens per API call.
	MaxTokens int64

	// MaxTurns caps ReAct loop iterations.
	MaxTurns int

	// AvailableTools restricts the agent to a subset of registered
	// tools. Empty means all tools.
	AvailableTools []string

	// CanRequestConfirmation allows the agent to surface pending
	// actions for user approval.
	CanRequestConfirmation bool
}
