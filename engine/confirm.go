package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/google/uuid"

	"github.com/movementfi/moveyield/core"
)

// ExecuteTool runs a single tool directly, outside the ReAct loop.
// Callers use it to execute a confirmed action without resuming the
// conversation.
func (e *Engine) ExecuteTool(ctx context.Context, userID, toolName string, input json.RawMessage, confirmationID string) (*core.ToolResult, error) {
	tool, ok := e.registry.Get(toolName)
	if !ok {
		return nil, fmt.Errorf("unknown tool: %s", toolName)
	}

	return tool.Execute(ctx, &core.ToolParams{
		UserID:         userID,
		Input:          input,
		ConfirmationID: confirmationID,
		RequestID:      confirmationID,
	})
}

// RunConfirmedAction resumes the loop for a write operation the user
// approved. The tool runs, its result is traced and audited, and Claude
// gets one more call to respond to the outcome.
func (e *Engine) RunConfirmedAction(ctx context.Context, input *Input, action *core.PendingAction) (*Output, error) {
	userID := ""
	conversationID := ""
	if input.Context != nil {
		userID = input.Context.UserID
		conversationID = input.Context.ConversationID
	}
	session := NewSession(userID, conversationID)

	// History already contains the assistant turn with the original
	// tool_use block.
	session.RestoreHistory(input.History)

	tool, ok := e.registry.Get(action.Tool)
	if !ok {
		return nil, fmt.Errorf("unknown tool: %s", action.Tool)
	}

	trace := &core.Trace{
		ID:          uuid.New().String(),
		SessionID:   session.ID,
		TurnNumber:  session.TurnCount,
		Thought:     action.Thought,
		Action:      action.Tool,
		ActionInput: action.Input,
		Timestamp:   time.Now().Unix(),
		Metadata:    make(map[string]string),
	}
	trace.Metadata["confirmed"] = "true"
	trace.Metadata["confirmation_id"] = action.ID

	// Empty ConfirmationID tells the tool the approval already
	// happened and it should execute directly.
	startTime := time.Now()
	result, toolErr := tool.Execute(ctx, &core.ToolParams{
		UserID:         action.UserID,
		Input:          action.Input,
		ConfirmationID: "",
		RequestID:      session.ID,
	})
	durationMs := time.Since(startTime).Milliseconds()

	trace.Success = toolErr == nil && result != nil && result.Success
	trace.Observation = formatObservation(tool, result, toolErr)
	if !trace.Success {
		if toolErr != nil {
			trace.Metadata["error"] = toolErr.Error()
		} else if result != nil && !result.Success {
			trace.Metadata["error"] = result.Error
		}
		errorType := categorizeError(trace.Metadata["error"])
		trace.Metadata["error_type"] = errorType
		trace.Metadata["prevention"] = generatePrevention(action.Tool, errorType)
	}

	session.AddTrace(trace)
	log.Printf("[TRACE] %s", trace.String())

	if e.audit != nil {
		agentName := input.AgentName
		if agentName == "" {
			agentName = "default"
		}
		var auditParentID *string
		if input.Context != nil {
			auditParentID = input.Context.AuditParentID
		}
		e.audit.Log(ctx, auditEntryFor(session, agentName, auditParentID, action.Tool, action.Input, result, toolErr, durationMs, true, startTime))
	}

	var toolResult anthropic.ContentBlockParamUnion
	if toolErr != nil {
		log.Printf("[CONFIRM] tool execution error: %v", toolErr)
		toolResult = anthropic.NewToolResultBlock(action.BlockID, toolErr.Error(), true)
	} else if result != nil && !result.Success {
		log.Printf("[CONFIRM] tool execution failed: %s", result.Error)
		toolResult = anthropic.NewToolResultBlock(action.BlockID, result.Error, true)
	} else {
		var resultBytes []byte
		if result != nil {
			resultBytes, _ = json.Marshal(result.Data)
		}
		toolResult = anthropic.NewToolResultBlock(action.BlockID, string(resultBytes), false)
	}

	// The tool_use block is already in history, so only the result is
	// appended before the follow-up call.
	session.AddToolResults([]anthropic.ContentBlockParamUnion{toolResult})

	model := input.Model
	if model == "" {
		model = DefaultModel
	}
	maxTokens := input.MaxTokens
	if maxTokens == 0 {
		maxTokens = DefaultMaxTokens
	}
	systemPrompt := input.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = DefaultSystemPrompt
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: maxTokens,
		Messages:  session.Messages(),
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
	}

	var resp *anthropic.Message
	var err error
	if input.StreamCallback != nil {
		resp, err = e.createMessageStreaming(ctx, params, input.StreamCallback)
	} else {
		resp, err = e.client.Messages.New(ctx, params)
	}
	if err != nil {
		return nil, fmt.Errorf("claude API error after confirmation: %w", err)
	}

	var responseText string
	for _, block := range resp.Content {
		if block.Type == "text" {
			responseText += block.Text
		}
	}

	session.AddAssistantResponse(resp)
	if input.StreamCallback != nil {
		input.StreamCallback("", true)
	}

	var toolInput interface{}
	json.Unmarshal(action.Input, &toolInput)
	execution := core.ToolExecution{
		Tool:       action.Tool,
		Input:      toolInput,
		DurationMs: durationMs,
	}
	if toolErr != nil {
		execution.Error = toolErr.Error()
	} else if result != nil {
		if !result.Success {
			execution.Error = result.Error
		} else {
			execution.Result = result.Data
		}
	}

	if e.memory != nil && input.Context != nil {
		if len(session.Traces) > 0 {
			if err := e.memory.RecordTraces(ctx, input.Context.UserID, session.Traces); err != nil {
				log.Printf("[MEMORY] failed to record traces: %v", err)
			}
		}
		if responseText != "" {
			if err := e.memory.RecordConversation(ctx, input.Context.UserID, "", responseText); err != nil {
				log.Printf("[MEMORY] failed to record conversation: %v", err)
			}
		}
	}

	tokens := core.TokenUsage{
		InputTokens:  int(resp.Usage.InputTokens),
		OutputTokens: int(resp.Usage.OutputTokens),
	}

	return &Output{
		Type:           OutputComplete,
		Text:           responseText,
		ToolsUsed:      []core.ToolExecution{execution},
		ResponseBlocks: responseToBlocks(resp),
		TokensUsed:     tokens,
	}, nil
}
