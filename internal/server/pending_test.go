package server

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/movementfi/moveyield/core"
	"github.com/movementfi/moveyield/internal/agent"
)

func TestPendingStoreTakeRemoves(t *testing.T) {
	p := newPendingStore()
	action := &core.PendingAction{
		ID:        "a1",
		Tool:      "supply_collateral",
		ExpiresAt: time.Now().Add(time.Minute).Unix(),
	}
	p.put(action, nil, "premium_lending_agent")

	entry, ok := p.take("a1")
	if !ok {
		t.Fatal("take returned no entry")
	}
	if entry.action.Tool != "supply_collateral" {
		t.Errorf("tool = %q", entry.action.Tool)
	}
	if entry.agent != "premium_lending_agent" {
		t.Errorf("agent = %q", entry.agent)
	}

	if _, ok := p.take("a1"); ok {
		t.Error("second take should miss")
	}
}

func TestPendingStoreExpiredEntryMisses(t *testing.T) {
	p := newPendingStore()
	p.put(&core.PendingAction{
		ID:        "old",
		ExpiresAt: time.Now().Add(-time.Minute).Unix(),
	}, nil, "premium_lending_agent")

	if _, ok := p.take("old"); ok {
		t.Error("expired entry should not be returned")
	}
}

func TestPendingStoreSweep(t *testing.T) {
	p := newPendingStore()
	p.put(&core.PendingAction{ID: "old", ExpiresAt: time.Now().Add(-time.Minute).Unix()}, nil, "a")
	p.put(&core.PendingAction{ID: "live", ExpiresAt: time.Now().Add(time.Minute).Unix()}, nil, "a")

	p.sweep(time.Now().Unix())

	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.entries["old"]; ok {
		t.Error("sweep kept expired entry")
	}
	if _, ok := p.entries["live"]; !ok {
		t.Error("sweep dropped live entry")
	}
}

func TestHistoryWithAppendsBothTurns(t *testing.T) {
	blocks := []core.ContentBlock{
		core.NewToolUseBlock("tu_1", "supply_collateral", json.RawMessage(`{"asset":"USDC"}`)),
	}
	hist := historyWith(nil, "supply 10 USDC", blocks)

	if len(hist) != 2 {
		t.Fatalf("len = %d, want 2", len(hist))
	}
	if hist[0].Role != core.RoleUser {
		t.Errorf("first role = %q, want user", hist[0].Role)
	}
	if hist[1].Role != core.RoleAssistant {
		t.Errorf("second role = %q, want assistant", hist[1].Role)
	}
	if len(hist[1].Content) != 1 {
		t.Fatalf("assistant blocks = %d, want 1", len(hist[1].Content))
	}
}

func TestAgentForLabels(t *testing.T) {
	s := &Server{lending: agent.Lending{}, balance: agent.Balance{}}

	if got := s.agentFor("balance").Name(); got != "balance_agent" {
		t.Errorf("balance label resolved to %q", got)
	}
	if got := s.agentFor("balance_agent").Name(); got != "balance_agent" {
		t.Errorf("balance_agent label resolved to %q", got)
	}
	if got := s.agentFor("").Name(); got != "premium_lending_agent" {
		t.Errorf("empty label resolved to %q", got)
	}
	if got := s.agentFor("lending").Name(); got != "premium_lending_agent" {
		t.Errorf("lending label resolved to %q", got)
	}
}
