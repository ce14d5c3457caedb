package core

// BaseInput provides the common field shared by all tool inputs. Tools
// embed it to pick up ReAct thought support: the agent's reasoning
// arrives alongside the tool's own parameters.
type BaseInput struct {
	// Thought is the agent's reasoning for using this tool. Optional
	// for read operations, required for tools that need confirmation.
	Thought string `json:"thought,omitempty"`
}

// Input is a run request at the agent level.
type Input struct {
	// UserMessage is the user's message to process.
	UserMessage string

	// Context carries identity and limits.
	Context *Context

	// History contains previous messages of the conversation.
	History []Message

	// StreamCallback receives response text incrementally when set.
	// It is called with done=true once the response is complete.
	StreamCallback func(chunk string, done bool)
}

// Output is the result of an agent run.
type Output struct {
	// Type indicates how the run ended.
	Type OutputType

	// Text is the agent's final text response.
	Text string

	// PendingAction is set when Type is OutputConfirmationNeeded.
	PendingAction *PendingAction

	// ToolsUsed records every tool invoked during the run.
	ToolsUsed []ToolExecution

	// ResponseBlocks holds the full assistant response for history
	// persistence, including tool_use blocks.
	ResponseBlocks []ContentBlock

	// TokensUsed accumulates API token consumption across the run.
	TokensUsed TokenUsage

	// Error is set when Type is OutputError.
	Error error
}

// OutputType indicates how an agent run ended.
type OutputType int

const (
	// OutputComplete indicates the agent finished with a response.
	OutputComplete OutputType = iota

	// OutputConfirmationNeeded indicates a tool needs user approval
	// before the run can continue.
	OutputConfirmationNeeded

	// OutputError indicates the run failed.
	OutputError
)
