package memory_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/movementfi/moveyield/core"
	"github.com/movementfi/moveyield/memory"
	"github.com/movementfi/moveyield/memory/embedder/mock"
	"github.com/movementfi/moveyield/memory/store/chromem"
)

func newTestManager(t *testing.T, enabled bool) *memory.SimpleManager {
	t.Helper()

	store, err := chromem.New()
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	config := &memory.Config{
		Enabled:       enabled,
		MinSimilarity: 0.0, // Low threshold for hash-based embeddings
	}
	return memory.NewSimpleManager(store, mock.New(), config)
}

func TestSimpleManager_RecordAndRetrieve(t *testing.T) {
	ctx := context.Background()
	manager := newTestManager(t, true)

	// Multi-step traces are always stored.
	traces := []*core.Trace{
		{
			SessionID:   "session1",
			Thought:     "First comparing USDC rates on both protocols",
			Action:      "compare_lending_rates",
			Observation: "Echelon pays 5.2% APY, MovePosition 4.8%",
			Success:     true,
		},
		{
			SessionID:   "session1",
			Thought:     "User chose Echelon, supplying 100 USDC",
			Action:      "supply_collateral",
			Observation: "Supply position opened",
			Success:     true,
		},
	}

	if err := manager.RecordTraces(ctx, "user123", traces); err != nil {
		t.Fatalf("Failed to record traces: %v", err)
	}

	time.Sleep(100 * time.Millisecond)

	formatted, err := manager.Retrieve(ctx, "user123", "lend USDC at the best rate")
	if err != nil {
		t.Fatalf("Failed to retrieve memories: %v", err)
	}

	if formatted == "" {
		t.Log("No memories retrieved. This is expected with the hash-based embedder.")
		t.Skip("Skipping - hash embedder does not provide real semantic similarity")
	}

	if !strings.Contains(formatted, "RELEVANT PAST ACTIONS") {
		t.Errorf("Expected formatted output to contain header")
	}
}

func TestSimpleManager_UserNamespacing(t *testing.T) {
	ctx := context.Background()
	manager := newTestManager(t, true)

	// Confirmed traces are always stored.
	traces1 := []*core.Trace{{
		SessionID:   "session1",
		Thought:     "Supplying collateral after rate check",
		Action:      "supply_collateral",
		Observation: "Supplied 50 USDC on Echelon",
		Success:     true,
		Metadata:    map[string]string{"confirmed": "true"},
	}}
	if err := manager.RecordTraces(ctx, "user1", traces1); err != nil {
		t.Fatalf("Failed to record user1 traces: %v", err)
	}

	traces2 := []*core.Trace{{
		SessionID:   "session2",
		Thought:     "Borrowing against the MOVE position",
		Action:      "borrow_asset",
		Observation: "Borrowed 25 USDT on MovePosition",
		Success:     true,
		Metadata:    map[string]string{"confirmed": "true"},
	}}
	if err := manager.RecordTraces(ctx, "user2", traces2); err != nil {
		t.Fatalf("Failed to record user2 traces: %v", err)
	}

	time.Sleep(100 * time.Millisecond)

	formatted1, err := manager.Retrieve(ctx, "user1", "supply operations")
	if err != nil {
		t.Fatalf("Failed to retrieve user1 memories: %v", err)
	}
	formatted2, err := manager.Retrieve(ctx, "user2", "borrow operations")
	if err != nil {
		t.Fatalf("Failed to retrieve user2 memories: %v", err)
	}

	if formatted1 != "" && strings.Contains(formatted1, "USDT on MovePosition") {
		t.Error("User1 should not see user2's memories")
	}
	if formatted2 != "" && strings.Contains(formatted2, "USDC on Echelon") {
		t.Error("User2 should not see user1's memories")
	}
}

func TestSimpleManager_FilterStorableTraces(t *testing.T) {
	ctx := context.Background()
	manager := newTestManager(t, true)

	// A single trivial read should be filtered out.
	trivialTraces := []*core.Trace{{
		SessionID:   "session1",
		Thought:     "Check balance",
		Action:      "get_balance",
		Observation: "2 tokens",
		Success:     true,
	}}
	if err := manager.RecordTraces(ctx, "user1", trivialTraces); err != nil {
		t.Fatalf("Failed to record traces: %v", err)
	}

	time.Sleep(100 * time.Millisecond)

	formatted, err := manager.Retrieve(ctx, "user1", "balance check")
	if err != nil {
		t.Fatalf("Failed to retrieve: %v", err)
	}
	t.Logf("Trivial trace retrieve result: %s", formatted)

	// A rate comparison is contextually valuable even as a single
	// trace.
	comparisonTraces := []*core.Trace{{
		SessionID:   "session2",
		Thought:     "Rates",
		Action:      "compare_lending_rates",
		Observation: "Echelon 5.2%, MovePosition 4.8%",
		Success:     true,
	}}
	if err := manager.RecordTraces(ctx, "user2", comparisonTraces); err != nil {
		t.Fatalf("Failed to record traces: %v", err)
	}

	time.Sleep(100 * time.Millisecond)

	formatted, err = manager.Retrieve(ctx, "user2", "USDC rates")
	if err != nil {
		t.Fatalf("Failed to retrieve: %v", err)
	}
	t.Logf("Comparison trace retrieve result: %s", formatted)
}

func TestSimpleManager_RecordConversation(t *testing.T) {
	ctx := context.Background()
	manager := newTestManager(t, true)

	// Short messages are filtered as trivial.
	if err := manager.RecordConversation(ctx, "user1", "hi", "Hello!"); err != nil {
		t.Fatalf("Trivial exchange should not error: %v", err)
	}

	// Substantive exchanges are stored.
	err := manager.RecordConversation(ctx, "user1",
		"I only want to lend stablecoins, never volatile assets",
		"Understood, I'll stick to USDC and USDT when recommending supply positions.")
	if err != nil {
		t.Fatalf("Failed to record conversation: %v", err)
	}

	time.Sleep(100 * time.Millisecond)

	formatted, err := manager.Retrieve(ctx, "user1", "what should I lend")
	if err != nil {
		t.Fatalf("Failed to retrieve: %v", err)
	}
	t.Logf("Conversation retrieve result: %s", formatted)
}

func TestSimpleManager_DisabledConfig(t *testing.T) {
	ctx := context.Background()
	manager := newTestManager(t, false)

	traces := []*core.Trace{{
		SessionID:   "session1",
		Thought:     "Test",
		Action:      "test",
		Observation: "test",
		Success:     true,
	}}

	if err := manager.RecordTraces(ctx, "user1", traces); err != nil {
		t.Fatalf("RecordTraces should not error when disabled: %v", err)
	}

	formatted, err := manager.Retrieve(ctx, "user1", "test query")
	if err != nil {
		t.Fatalf("Retrieve should not error when disabled: %v", err)
	}
	if formatted != "" {
		t.Errorf("Expected empty result when disabled, got: %s", formatted)
	}
}
