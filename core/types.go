package core

import (
	"encoding/json"
	"time"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one conversation turn in transport form. The server and
// clients exchange history as Messages; the engine converts them to API
// params when calling Claude.
type Message struct {
	Role    string         `json:"role"`
	Content []ContentBlock `json:"content"`
}

// ContentBlock is a single block inside a message. Type selects which
// fields are meaningful: "text" uses Text, "tool_use" uses ID, Name and
// Input, "tool_result" uses ToolUseID, Content and IsError.
type ContentBlock struct {
	Type      string          `json:"type"`
	Text      string          `json:"text,omitempty"`
	ID        string          `json:"id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Input     json.RawMessage `json:"input,omitempty"`
	ToolUseID string          `json:"tool_use_id,omitempty"`
	Content   string          `json:"content,omitempty"`
	IsError   bool            `json:"is_error,omitempty"`
}

// NewTextBlock creates a text content block.
func NewTextBlock(text string) ContentBlock {
	return ContentBlock{Type: "text", Text: text}
}

// NewToolUseBlock creates a tool_use content block.
func NewToolUseBlock(id, name string, input json.RawMessage) ContentBlock {
	return ContentBlock{Type: "tool_use", ID: id, Name: name, Input: input}
}

// NewToolResultBlock creates a tool_result content block.
func NewToolResultBlock(toolUseID, content string, isError bool) ContentBlock {
	return ContentBlock{Type: "tool_result", ToolUseID: toolUseID, Content: content, IsError: isError}
}

// TokenUsage tracks Claude API token consumption.
type TokenUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Context carries user identity and execution limits through an agent
// run.
type Context struct {
	// UserID identifies the requesting user. Memories, guardrails and
	// audit entries are namespaced by it.
	UserID string

	// ConversationID groups runs belonging to one conversation.
	ConversationID string

	// Limits bounds the run. Nil applies engine defaults.
	Limits *ExecutionLimits

	// AuditParentID links audit entries to a parent request when one
	// agent invokes another.
	AuditParentID *string
}

// ExecutionLimits bounds a single agent run.
type ExecutionLimits struct {
	// MaxTurns caps ReAct loop iterations.
	MaxTurns int

	// MaxTokens caps response tokens per API call.
	MaxTokens int64

	// CanConfirm allows tools that require user confirmation. When
	// false such tools are blocked instead of generating a pending
	// action.
	CanConfirm bool

	// Timeout bounds the whole run. Zero means no deadline beyond the
	// caller's context.
	Timeout time.Duration
}
