package memory

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/movementfi/moveyield/core"
)

// SimpleManager is the built-in Manager. It does vector similarity
// search with automatic embedding, formats retrieved memories for the
// prompt, and filters traces before storage.
//
// Production deployments can swap in a custom Manager with fact
// extraction, contradiction resolution or tiered retention without
// touching the engine.
type SimpleManager struct {
	store    Store
	embedder Embedder
	config   *Config
}

// NewSimpleManager creates a SimpleManager. Nil config applies
// DefaultConfig.
func NewSimpleManager(store Store, embedder Embedder, config *Config) *SimpleManager {
	if config == nil {
		config = DefaultConfig
	}
	return &SimpleManager{
		store:    store,
		embedder: embedder,
		config:   config,
	}
}

// Retrieve finds relevant memories and returns a formatted string.
func (m *SimpleManager) Retrieve(ctx context.Context, userID string, userMessage string) (string, error) {
	if !m.config.Enabled {
		return "", nil
	}

	embedding, err := m.embedder.Embed(ctx, userMessage)
	if err != nil {
		return "", fmt.Errorf("embed query: %w", err)
	}

	memories, err := m.store.Query(ctx, userID, embedding, 10)
	if err != nil {
		return "", fmt.Errorf("query store: %w", err)
	}

	log.Printf("[MEMORY] Retrieved %d memories for query: %q", len(memories), truncateLog(userMessage, 50))
	if len(memories) == 0 {
		return "", nil
	}

	return m.formatMemories(memories, userID, userMessage), nil
}

// RecordTraces filters, embeds and stores traces from a completed run.
func (m *SimpleManager) RecordTraces(ctx context.Context, userID string, traces []*core.Trace) error {
	if !m.config.Enabled {
		return nil
	}

	storable := m.filterStorableTraces(traces)
	if len(storable) == 0 {
		log.Printf("[MEMORY] No traces worth storing (filtered out)")
		return nil
	}

	log.Printf("[MEMORY] Recording %d traces (filtered from %d)", len(storable), len(traces))

	for i, trace := range storable {
		mem := NewTraceMemory(userID, trace.SessionID, trace)

		embedding, err := m.embedder.Embed(ctx, mem.FormatForEmbedding())
		if err != nil {
			log.Printf("[MEMORY] Failed to embed trace #%d: %v", i+1, err)
			continue
		}
		mem.SetEmbedding(embedding)

		if err := m.store.Store(ctx, mem); err != nil {
			log.Printf("[MEMORY] Failed to store trace #%d: %v", i+1, err)
			continue
		}

		log.Printf("[MEMORY]   Stored trace #%d: action=%s", i+1, trace.Action)
	}

	return nil
}

// RecordConversation stores one exchange when it looks substantive.
// Short confirmations and greetings are skipped.
func (m *SimpleManager) RecordConversation(ctx context.Context, userID string, userMessage string, assistantResponse string) error {
	if !m.config.Enabled {
		return nil
	}
	if len(strings.TrimSpace(userMessage)) < 12 || assistantResponse == "" {
		return nil
	}

	mem := NewConversationMemory(userID, userMessage, assistantResponse)

	embedding, err := m.embedder.Embed(ctx, mem.FormatForEmbedding())
	if err != nil {
		return fmt.Errorf("embed conversation: %w", err)
	}
	mem.SetEmbedding(embedding)

	if err := m.store.Store(ctx, mem); err != nil {
		return fmt.Errorf("store conversation: %w", err)
	}

	log.Printf("[MEMORY] Stored conversation exchange for user=%s", userID)
	return nil
}

// formatMemories renders retrieved memories into a prompt section.
func (m *SimpleManager) formatMemories(memories []Memory, userID string, query string) string {
	if len(memories) == 0 {
		return ""
	}

	var parts []string
	parts = append(parts, "=== RELEVANT PAST ACTIONS ===\n")

	// Split a fixed character budget across the retrieved memories.
	maxLengthPerMemory := 2000 / len(memories)
	if maxLengthPerMemory < 100 {
		maxLengthPerMemory = 100
	}

	for i, mem := range memories {
		formatted := mem.Format(FormatContext{
			UserID:    userID,
			Query:     query,
			MaxLength: maxLengthPerMemory,
		})
		parts = append(parts, fmt.Sprintf("%d. %s\n", i+1, formatted))
	}

	return strings.Join(parts, "\n")
}

// filterStorableTraces selects traces worth storing.
func (m *SimpleManager) filterStorableTraces(traces []*core.Trace) []*core.Trace {
	// Multi-step runs are stored whole, successes and failures alike.
	if len(traces) > 1 {
		return traces
	}

	if len(traces) == 1 {
		trace := traces[0]

		// Failures teach the agent what to avoid.
		if !trace.Success {
			return traces
		}

		// Confirmed write operations are high-value.
		if trace.Metadata != nil {
			if trace.Metadata["confirmed"] == "true" {
				return traces
			}
		}

		// Reads that reveal what the user cares about.
		contextualActions := []string{
			"compare_lending_rates",   // Asset and yield interest
			"compare_borrowing_rates", // Leverage interest
			"recommend_best_protocol", // Protocol preference signal
			"get_best_supply_rate",    // Yield hunting behavior
		}
		for _, action := range contextualActions {
			if trace.Action == action {
				return traces
			}
		}

		// Substantive thoughts indicate reasoning worth recalling.
		if len(trace.Thought) > 30 {
			return traces
		}

		// Plain balance checks and other trivial reads are skipped.
	}

	return nil
}

// truncateLog truncates text for logging.
func truncateLog(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// Config holds SimpleManager configuration.
type Config struct {
	// Enabled toggles the memory system. Default false, opt-in.
	Enabled bool

	// MinSimilarity is the minimum similarity for retrieval [0.0-1.0].
	// Small local models score similar text around 0.35; hosted
	// embedding models score 0.7 and up.
	MinSimilarity float64

	// MaxMemoriesPerUser caps total memories per user.
	MaxMemoriesPerUser int
}

// DefaultConfig returns defaults suitable for local development.
var DefaultConfig = &Config{
	Enabled:            false,
	MinSimilarity:      0.5,
	MaxMemoriesPerUser: 1000,
}
