package engine

import (
	"encoding/json"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/google/uuid"

	"github.com/movementfi/moveyield/core"
)

// Session tracks the state of one agent run: the message history in API
// form, turn counting, and the ReAct traces produced along the way.
type Session struct {
	ID             string
	UserID         string
	ConversationID string
	TurnCount      int
	Traces         []*core.Trace
	CreatedAt      time.Time

	messages []anthropic.MessageParam
}

// NewSession creates a session for the given user and conversation.
func NewSession(userID, conversationID string) *Session {
	return &Session{
		ID:             uuid.New().String(),
		UserID:         userID,
		ConversationID: conversationID,
		CreatedAt:      time.Now(),
	}
}

// Messages returns the conversation in Claude API form.
func (s *Session) Messages() []anthropic.MessageParam {
	return s.messages
}

// RestoreHistory converts transport-form messages into API params.
// Blocks with unknown types are skipped; messages that end up empty are
// dropped entirely since the API rejects them.
func (s *Session) RestoreHistory(history []core.Message) {
	for _, msg := range history {
		var blocks []anthropic.ContentBlockParamUnion
		for _, b := range msg.Content {
			switch b.Type {
			case "text":
				if b.Text != "" {
					blocks = append(blocks, anthropic.NewTextBlock(b.Text))
				}
			case "tool_use":
				blocks = append(blocks, anthropic.NewToolUseBlock(b.ID, json.RawMessage(b.Input), b.Name))
			case "tool_result":
				blocks = append(blocks, anthropic.NewToolResultBlock(b.ToolUseID, b.Content, b.IsError))
			}
		}
		if len(blocks) == 0 {
			continue
		}
		if msg.Role == core.RoleAssistant {
			s.messages = append(s.messages, anthropic.NewAssistantMessage(blocks...))
		} else {
			s.messages = append(s.messages, anthropic.NewUserMessage(blocks...))
		}
	}
}

// AddUserMessage appends a plain text user message.
func (s *Session) AddUserMessage(text string) {
	s.messages = append(s.messages, anthropic.NewUserMessage(anthropic.NewTextBlock(text)))
}

// AddAssistantMessage appends a plain text assistant message.
func (s *Session) AddAssistantMessage(text string) {
	if text == "" {
		return
	}
	s.messages = append(s.messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(text)))
}

// AddAssistantResponse appends a full API response, preserving its
// tool_use blocks.
func (s *Session) AddAssistantResponse(resp *anthropic.Message) {
	s.messages = append(s.messages, resp.ToParam())
}

// AddToolResults appends tool results as a user message, which is how
// the API expects them back.
func (s *Session) AddToolResults(results []anthropic.ContentBlockParamUnion) {
	s.messages = append(s.messages, anthropic.NewUserMessage(results...))
}

// AddTrace records a ReAct trace for this session.
func (s *Session) AddTrace(t *core.Trace) {
	s.Traces = append(s.Traces, t)
}

// IncrementTurnCount advances the turn counter.
func (s *Session) IncrementTurnCount() {
	s.TurnCount++
}
