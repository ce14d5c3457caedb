package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/google/uuid"

	"github.com/movementfi/moveyield/core"
	"github.com/movementfi/moveyield/memory"
)

// Default execution parameters, applied when the input leaves them
// unset.
const (
	DefaultModel     = "claude-sonnet-4-20250514"
	DefaultMaxTokens = 4096
	DefaultMaxTurns  = 20

	// confirmationTTL bounds how long a pending action stays valid.
	confirmationTTL = 10 * time.Minute
)

// Engine drives the ReAct loop: it calls Claude, executes the tools
// Claude requests, and feeds observations back until the agent produces
// a final response or a tool needs user confirmation.
type Engine struct {
	client     *anthropic.Client
	registry   *ToolRegistry
	guardrails Guardrails     // optional per-user gating
	audit      AuditLogger    // optional execution audit trail
	memory     memory.Manager // optional cross-session memory
}

// Option configures the engine.
type Option func(*Engine)

// WithGuardrails sets the per-user guardrails implementation.
func WithGuardrails(g Guardrails) Option {
	return func(e *Engine) { e.guardrails = g }
}

// WithAudit sets the audit logger.
func WithAudit(a AuditLogger) Option {
	return func(e *Engine) { e.audit = a }
}

// WithMemory sets the memory manager.
func WithMemory(m memory.Manager) Option {
	return func(e *Engine) { e.memory = m }
}

// NewEngine creates an engine over the given Anthropic client and tool
// registry.
func NewEngine(client *anthropic.Client, registry *ToolRegistry, opts ...Option) *Engine {
	e := &Engine{client: client, registry: registry}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Registry returns the engine's tool registry.
func (e *Engine) Registry() *ToolRegistry {
	return e.registry
}

// Input is a single run request.
type Input struct {
	// UserMessage is the user's message to process.
	UserMessage string

	// Context carries user identity and execution limits.
	Context *core.Context

	// History contains the conversation so far.
	History []core.Message

	// SystemPrompt overrides DefaultSystemPrompt when set.
	SystemPrompt string

	// Model overrides DefaultModel when set.
	Model string

	// MaxTokens overrides DefaultMaxTokens when non-zero.
	MaxTokens int64

	// AgentName labels audit entries. Defaults to "default".
	AgentName string

	// AvailableTools restricts the run to a subset of registered
	// tools. Empty exposes everything.
	AvailableTools []string

	// StreamCallback receives response text incrementally when set.
	StreamCallback func(chunk string, done bool)
}

// Output is the result of a run.
type Output struct {
	// Type indicates how the run ended.
	Type OutputType

	// Text is the agent's text response.
	Text string

	// PendingAction is set when Type is OutputConfirmationNeeded.
	PendingAction *core.PendingAction

	// ToolsUsed records every tool invoked during the run.
	ToolsUsed []core.ToolExecution

	// ResponseBlocks holds the full assistant response for
	// persistence.
	ResponseBlocks []core.ContentBlock

	// TokensUsed accumulates API token consumption.
	TokensUsed core.TokenUsage

	// Error is set when Type is OutputError.
	Error error
}

// OutputType indicates how a run ended.
type OutputType int

const (
	// OutputComplete indicates the agent finished with a response.
	OutputComplete OutputType = iota

	// OutputConfirmationNeeded indicates a tool needs user approval.
	OutputConfirmationNeeded

	// OutputError indicates the run failed.
	OutputError
)

// Run executes the ReAct loop until the agent completes, errors, or
// pauses for confirmation.
func (e *Engine) Run(ctx context.Context, input *Input) (*Output, error) {
	if e.guardrails != nil && input.Context != nil {
		result, err := e.guardrails.Check(ctx, input.Context.UserID)
		if err != nil {
			return &Output{Type: OutputError, Error: fmt.Errorf("guardrails check failed: %w", err)}, nil
		}
		if !result.Allowed {
			return &Output{Type: OutputError, Error: fmt.Errorf("request blocked by guardrails: %s", result.Warning)}, nil
		}
	}

	// Phase 0: retrieve memories relevant to the user's message.
	var enrichment string
	if e.memory != nil && input.UserMessage != "" && input.Context != nil {
		var err error
		enrichment, err = e.memory.Retrieve(ctx, input.Context.UserID, input.UserMessage)
		if err != nil {
			log.Printf("[MEMORY] retrieval failed: %v", err)
			enrichment = ""
		}
	}

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
	if enrichment != "" {
		systemPrompt += "\n\n" + enrichment
	}

	maxTurns := DefaultMaxTurns
	canConfirm := true
	if input.Context != nil && input.Context.Limits != nil {
		if input.Context.Limits.MaxTurns > 0 {
			maxTurns = input.Context.Limits.MaxTurns
		}
		canConfirm = input.Context.Limits.CanConfirm
		if input.Context.Limits.Timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, input.Context.Limits.Timeout)
			defer cancel()
		}
	}

	userID := ""
	conversationID := ""
	if input.Context != nil {
		userID = input.Context.UserID
		conversationID = input.Context.ConversationID
	}
	session := NewSession(userID, conversationID)
	session.RestoreHistory(input.History)
	if input.UserMessage != "" {
		session.AddUserMessage(input.UserMessage)
	}

	var apiTools []anthropic.ToolUnionParam
	if len(input.AvailableTools) > 0 {
		apiTools = e.registry.ToAPIToolsFiltered(FilterByNames(input.AvailableTools...))
	} else {
		apiTools = e.registry.ToAPITools()
	}

	agentName := input.AgentName
	if agentName == "" {
		agentName = "default"
	}
	var auditParentID *string
	if input.Context != nil {
		auditParentID = input.Context.AuditParentID
	}

	var totalTokens core.TokenUsage

	for {
		if ctx.Err() != nil {
			return &Output{
				Type:       OutputError,
				Error:      fmt.Errorf("timed out: %w", ctx.Err()),
				TokensUsed: totalTokens,
			}, nil
		}
		if session.TurnCount >= maxTurns {
			return &Output{
				Type:       OutputError,
				Error:      fmt.Errorf("exceeded maximum turns (%d)", maxTurns),
				TokensUsed: totalTokens,
			}, nil
		}
		session.IncrementTurnCount()

		params := anthropic.MessageNewParams{
			Model:     anthropic.Model(model),
			MaxTokens: maxTokens,
			Messages:  session.Messages(),
			System: []anthropic.TextBlockParam{
				{Text: systemPrompt},
			},
		}
		if len(apiTools) > 0 {
			params.Tools = apiTools
		}

		var resp *anthropic.Message
		var err error
		if input.StreamCallback != nil {
			resp, err = e.createMessageStreaming(ctx, params, input.StreamCallback)
		} else {
			resp, err = e.client.Messages.New(ctx, params)
		}
		if err != nil {
			return &Output{
				Type:       OutputError,
				Error:      fmt.Errorf("claude API error: %w", err),
				TokensUsed: totalTokens,
			}, err
		}

		totalTokens.InputTokens += int(resp.Usage.InputTokens)
		totalTokens.OutputTokens += int(resp.Usage.OutputTokens)

		var toolResults []anthropic.ContentBlockParamUnion
		var responseText string
		var toolsUsed []core.ToolExecution
		var pending *core.PendingAction

		for _, block := range resp.Content {
			switch block.Type {
			case "text":
				responseText += block.Text

			case "tool_use":
				toolName := block.Name
				toolInput := block.Input

				// Think: pull the agent's reasoning out of the input.
				var base core.BaseInput
				if err := json.Unmarshal(toolInput, &base); err != nil {
					toolResults = append(toolResults, anthropic.NewToolResultBlock(
						block.ID, fmt.Sprintf("invalid tool input JSON: %s", err.Error()), true))
					continue
				}
				thought := strings.TrimSpace(base.Thought)

				tool, ok := e.registry.Get(toolName)
				if !ok {
					toolResults = append(toolResults, anthropic.NewToolResultBlock(
						block.ID, fmt.Sprintf("unknown tool: %s", toolName), true))
					continue
				}

				// Validate: confirmation-gated tools must explain themselves.
				if tool.RequiresConfirmation() && thought == "" {
					toolResults = append(toolResults, anthropic.NewToolResultBlock(
						block.ID,
						`Error: Missing or empty "thought" field. Write operations require explicit reasoning.
Please explain:
1. What you've verified (e.g., "USDC resolves on both protocols, Echelon pays more")
2. Why you're taking this action (e.g., "User chose Echelon to supply 100 USDC")
3. What you expect to happen (e.g., "This will open the supply position")`,
						true))
					continue
				}

				inputBytes, _ := json.Marshal(toolInput)
				trace := &core.Trace{
					ID:          uuid.New().String(),
					SessionID:   session.ID,
					TurnNumber:  session.TurnCount,
					Thought:     thought,
					Action:      toolName,
					ActionInput: inputBytes,
					Timestamp:   time.Now().Unix(),
					Metadata:    make(map[string]string),
				}

				if tool.RequiresConfirmation() {
					if !canConfirm {
						trace.Success = false
						trace.Observation = "Operation blocked: confirmation not allowed in this context"
						trace.Metadata["error"] = "confirmation_disabled"
						session.AddTrace(trace)
						log.Printf("[TRACE] %s", trace.String())

						toolResults = append(toolResults, anthropic.NewToolResultBlock(
							block.ID, "error: this operation requires user confirmation", true))
						continue
					}

					pending = &core.PendingAction{
						ID:             uuid.New().String(),
						IdempotencyKey: GenerateIdempotencyKey(session.UserID, toolName, inputBytes),
						SessionID:      session.ID,
						UserID:         session.UserID,
						Tool:           toolName,
						Input:          inputBytes,
						Thought:        thought,
						Summary:        tool.GetSummary(inputBytes),
						BlockID:        block.ID,
						CreatedAt:      time.Now().Unix(),
						ExpiresAt:      time.Now().Add(confirmationTTL).Unix(),
					}

					trace.Success = false
					trace.Observation = "Awaiting user confirmation"
					trace.Metadata["confirmation_id"] = pending.ID
					trace.Metadata["status"] = "pending_confirmation"
					session.AddTrace(trace)
					log.Printf("[TRACE] %s", trace.String())
					break
				}

				// Act: execute the read-only tool.
				startTime := time.Now()
				result, err := tool.Execute(ctx, &core.ToolParams{
					UserID:    session.UserID,
					Input:     inputBytes,
					RequestID: session.ID,
				})
				durationMs := time.Since(startTime).Milliseconds()

				execution := core.ToolExecution{
					Tool:       toolName,
					Input:      toolInput,
					DurationMs: durationMs,
				}

				// Observe: turn the result into a trace observation.
				trace.Success = err == nil && result != nil && result.Success
				trace.Observation = formatObservation(tool, result, err)
				if !trace.Success {
					if err != nil {
						trace.Metadata["error"] = err.Error()
						execution.Error = err.Error()
					} else if result != nil && !result.Success {
						trace.Metadata["error"] = result.Error
						execution.Error = result.Error
					}
					errorType := categorizeError(trace.Metadata["error"])
					trace.Metadata["error_type"] = errorType
					trace.Metadata["prevention"] = generatePrevention(toolName, errorType)
				}

				session.AddTrace(trace)
				log.Printf("[TRACE] %s", trace.String())

				if e.audit != nil {
					e.audit.Log(ctx, auditEntryFor(session, agentName, auditParentID, toolName, inputBytes, result, err, durationMs, tool.RequiresConfirmation(), startTime))
				}

				if err != nil {
					toolResults = append(toolResults, anthropic.NewToolResultBlock(
						block.ID, err.Error(), true))
				} else if result != nil && !result.Success {
					toolResults = append(toolResults, anthropic.NewToolResultBlock(
						block.ID, result.Error, true))
				} else {
					var resultBytes []byte
					if result != nil {
						execution.Result = result.Data
						resultBytes, _ = json.Marshal(result.Data)
					}
					toolResults = append(toolResults, anthropic.NewToolResultBlock(
						block.ID, string(resultBytes), false))
				}

				toolsUsed = append(toolsUsed, execution)
			}

			if pending != nil {
				break
			}
		}

		responseBlocks := responseToBlocks(resp)

		if pending != nil {
			session.AddAssistantResponse(resp)
			return &Output{
				Type:           OutputConfirmationNeeded,
				Text:           responseText,
				PendingAction:  pending,
				ToolsUsed:      toolsUsed,
				ResponseBlocks: responseBlocks,
				TokensUsed:     totalTokens,
			}, nil
		}

		// No tool calls means the agent is done.
		if len(toolResults) == 0 {
			session.AddAssistantMessage(responseText)
			if input.StreamCallback != nil {
				input.StreamCallback("", true)
			}
			if e.guardrails != nil && input.Context != nil {
				e.guardrails.RecordSuccess(ctx, input.Context.UserID)
			}
			e.recordMemories(ctx, input, session, input.UserMessage, responseText)

			return &Output{
				Type:       OutputComplete,
				Text:       responseText,
				ToolsUsed:  toolsUsed,
				TokensUsed: totalTokens,
			}, nil
		}

		session.AddAssistantResponse(resp)
		session.AddToolResults(toolResults)
	}
}

// recordMemories stores the run's traces and final exchange. Failures
// are logged and swallowed since memory is best-effort.
func (e *Engine) recordMemories(ctx context.Context, input *Input, session *Session, userMessage, responseText string) {
	if e.memory == nil || input.Context == nil {
		return
	}
	if len(session.Traces) > 0 {
		if err := e.memory.RecordTraces(ctx, input.Context.UserID, session.Traces); err != nil {
			log.Printf("[MEMORY] failed to record traces: %v", err)
		}
	}
	if userMessage != "" && responseText != "" {
		if err := e.memory.RecordConversation(ctx, input.Context.UserID, userMessage, responseText); err != nil {
			log.Printf("[MEMORY] failed to record conversation: %v", err)
		}
	}
}

// auditEntryFor assembles the audit entry for one tool execution.
func auditEntryFor(session *Session, agentName string, parentID *string, toolName string, inputBytes []byte, result *core.ToolResult, err error, durationMs int64, isWrite bool, startTime time.Time) *AuditEntry {
	var outputBytes json.RawMessage
	var errStr *string
	if result != nil {
		outputBytes, _ = json.Marshal(result.Data)
		if result.Error != "" {
			errStr = &result.Error
		}
	}
	if err != nil {
		msg := err.Error()
		errStr = &msg
	}
	return &AuditEntry{
		ID:         uuid.New().String(),
		UserID:     session.UserID,
		SessionID:  session.ID,
		RequestID:  session.ID,
		ParentID:   parentID,
		AgentName:  agentName,
		ToolName:   toolName,
		ToolInput:  inputBytes,
		ToolOutput: outputBytes,
		Error:      errStr,
		DurationMs: durationMs,
		IsWriteOp:  isWrite,
		Timestamp:  startTime.Unix(),
	}
}

// RunAgent executes an agent, using its capabilities to configure the
// run.
func (e *Engine) RunAgent(ctx context.Context, agent core.Agent, input *core.Input) (*core.Output, error) {
	caps := agent.Capabilities()

	engineInput := &Input{
		UserMessage:    input.UserMessage,
		Context:        input.Context,
		History:        input.History,
		SystemPrompt:   caps.SystemPrompt,
		Model:          caps.Model,
		MaxTokens:      caps.MaxTokens,
		AgentName:      agent.Name(),
		AvailableTools: caps.AvailableTools,
		StreamCallback: input.StreamCallback,
	}

	if engineInput.Context != nil && engineInput.Context.Limits == nil {
		engineInput.Context.Limits = &core.ExecutionLimits{
			MaxTurns:   caps.MaxTurns,
			MaxTokens:  caps.MaxTokens,
			CanConfirm: caps.CanRequestConfirmation,
		}
	}

	output, err := e.Run(ctx, engineInput)
	if err != nil {
		return nil, err
	}

	return &core.Output{
		Type:           core.OutputType(output.Type),
		Text:           output.Text,
		PendingAction:  output.PendingAction,
		ToolsUsed:      output.ToolsUsed,
		ResponseBlocks: output.ResponseBlocks,
		TokensUsed:     output.TokensUsed,
		Error:          output.Error,
	}, nil
}

// DefaultSystemPrompt is used when the input does not set one.
const DefaultSystemPrompt = `You are a helpful DeFi assistant for the Movement network.

GUIDELINES:
- Be conversational and helpful
- Ask clarifying questions when needed
- Use tools when you have enough information
- All position changes require user confirmation

REASONING PATTERN:
When using tools, include a "thought" field explaining your reasoning:
1. What you've verified (e.g., "USDC resolves on both protocols with live rates")
2. Why you're taking this action (e.g., "Need current rates before recommending a protocol")
3. What you expect to happen (e.g., "This will return both protocols' supply APY")

For write operations (supplying, borrowing, repaying), the thought field is REQUIRED.

Good thought examples:
- "User wants the best USDC yield. I've compared both protocols and Echelon pays more."
- "Rates are fetched and MovePosition wins on borrow APR. Proceeding with borrow_asset."

Bad thought examples:
- "Borrowing" (too vague, doesn't explain reasoning)
- "User asked" (doesn't verify or explain decision)

AVAILABLE ACTIONS:
- Compare lending and borrowing rates across protocols
- Check protocol metrics and health factors
- Supply collateral, borrow, and repay on the chosen protocol`
