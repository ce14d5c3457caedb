package memory

import (
	"context"
	"time"

	"github.com/movementfi/moveyield/core"
)

// Memory is the interface all memory types implement. The package
// ships TraceMemory and ConversationMemory; callers can add their own
// types (user facts, protocol preferences, position history) as long
// as the store knows how to deserialize them.
//
// Each memory type controls its own:
//   - Content structure
//   - Formatting for prompt injection (Format method)
//   - Metadata schema
type Memory interface {
	ID() string
	OwnerID() string        // User ID. Empty means global, visible to all users.
	ConversationID() string // Empty when not tied to one conversation.
	Type() string           // Type identifier, e.g. "trace" or "conversation".

	Content() interface{}
	Metadata() map[string]interface{}

	CreatedAt() time.Time

	// Format renders this memory for prompt injection.
	Format(ctx FormatContext) string
	Embedding() []float32
	SetEmbedding([]float32)
}

// FormatContext carries rendering context into Memory.Format so
// implementations can truncate to the available budget or emphasize
// query-relevant parts.
type FormatContext struct {
	UserID    string
	Query     string
	MaxLength int // Max characters for this memory's output.
}

// Manager orchestrates memory operations. The engine decides WHEN to
// use memory (retrieve before the loop, record after it); the Manager
// decides HOW: which memories to retrieve, how to format them, which
// traces and exchanges are worth keeping.
type Manager interface {
	// Retrieve finds memories relevant to the user's message and
	// returns a formatted string ready for prompt injection. Empty
	// string means nothing relevant was found.
	Retrieve(ctx context.Context, userID string, userMessage string) (string, error)

	// RecordTraces stores traces from a completed run. The Manager
	// filters and scores them; not every trace is worth keeping.
	RecordTraces(ctx context.Context, userID string, traces []*core.Trace) error

	// RecordConversation stores one exchange. Exchanges capture
	// context that never touches a tool, like "I only lend
	// stablecoins".
	RecordConversation(ctx context.Context, userID string, userMessage string, assistantResponse string) error
}

// Store is the vector storage backend.
type Store interface {
	// Store saves a memory. The embedding must be set before calling.
	Store(ctx context.Context, mem Memory) error

	// Query retrieves memories by vector similarity, most similar
	// first.
	Query(ctx context.Context, userID string, embedding []float32, limit int) ([]Memory, error)

	// Get retrieves a specific memory by ID and owner.
	Get(ctx context.Context, ownerID string, memoryID string) (Memory, error)

	// Delete removes a memory permanently.
	Delete(ctx context.Context, ownerID string, memoryID string) error

	Close() error
}

// Embedder converts text to embedding vectors. It is an implementation
// detail of the Manager; the engine never sees it.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the embedding vector size.
	Dimensions() int
}
