package memory

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ConversationMemory stores one user/assistant exchange. It captures
// context that never reaches a tool call, like stated risk tolerance or
// a preferred protocol.
type ConversationMemory struct {
	id        string
	ownerID   string
	createdAt time.Time
	embedding []float32
	metadata  map[string]interface{}

	UserMessage       string
	AssistantResponse string
}

// NewConversationMemory creates a ConversationMemory from an exchange.
func NewConversationMemory(ownerID, userMessage, assistantResponse string) *ConversationMemory {
	return &ConversationMemory{
		id:        uuid.New().String(),
		ownerID:   ownerID,
		createdAt: time.Now(),
		metadata:  map[string]interface{}{},

		UserMessage:       userMessage,
		AssistantResponse: assistantResponse,
	}
}

// NewConversationMemoryFromStorage rebuilds a ConversationMemory from
// stored data. Store implementations use it when deserializing.
func NewConversationMemoryFromStorage(
	id string,
	ownerID string,
	createdAt time.Time,
	embedding []float32,
	userMessage string,
	assistantResponse string,
	metadata map[string]interface{},
) *ConversationMemory {
	if metadata == nil {
		metadata = map[string]interface{}{}
	}
	return &ConversationMemory{
		id:        id,
		ownerID:   ownerID,
		createdAt: createdAt,
		embedding: embedding,
		metadata:  metadata,

		UserMessage:       userMessage,
		AssistantResponse: assistantResponse,
	}
}

func (c *ConversationMemory) ID() string             { return c.id }
func (c *ConversationMemory) OwnerID() string        { return c.ownerID }
func (c *ConversationMemory) ConversationID() string { return "" }
func (c *ConversationMemory) Type() string           { return "conversation" }

func (c *ConversationMemory) Content() interface{} {
	return map[string]interface{}{
		"user_message":       c.UserMessage,
		"assistant_response": c.AssistantResponse,
	}
}

func (c *ConversationMemory) Metadata() map[string]interface{} { return c.metadata }
func (c *ConversationMemory) CreatedAt() time.Time             { return c.createdAt }
func (c *ConversationMemory) Embedding() []float32             { return c.embedding }
func (c *ConversationMemory) SetEmbedding(emb []float32)       { c.embedding = emb }

// Format renders the exchange for prompt injection. The user's message
// gets the larger share of the budget since it carries the context.
func (c *ConversationMemory) Format(ctx FormatContext) string {
	var parts []string
	parts = append(parts, "[Conversation]")
	parts = append(parts, fmt.Sprintf("  User: %q", truncate(c.UserMessage, ctx.MaxLength/2)))
	parts = append(parts, fmt.Sprintf("  Assistant: %q", truncate(c.AssistantResponse, ctx.MaxLength/3)))
	return strings.Join(parts, "\n")
}

// FormatForEmbedding returns the text representation used for
// embedding.
func (c *ConversationMemory) FormatForEmbedding() string {
	return fmt.Sprintf("User: %s\nAssistant: %s", c.UserMessage, c.AssistantResponse)
}
