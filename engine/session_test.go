package engine

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/movementfi/moveyield/core"
)

func TestNewSessionAssignsUniqueIDs(t *testing.T) {
	a := NewSession("u1", "c1")
	b := NewSession("u1", "c1")
	if a.ID == "" || a.ID == b.ID {
		t.Errorf("IDs = %q, %q", a.ID, b.ID)
	}
	if a.UserID != "u1" || a.ConversationID != "c1" {
		t.Errorf("session = %+v", a)
	}
}

func TestSessionMessageAppends(t *testing.T) {
	s := NewSession("u1", "c1")
	s.AddUserMessage("hello")
	s.AddAssistantMessage("hi there")
	s.AddAssistantMessage("")

	msgs := s.Messages()
	if len(msgs) != 2 {
		t.Fatalf("len(messages) = %d, want 2", len(msgs))
	}
	if msgs[0].Role != anthropic.MessageParamRoleUser {
		t.Errorf("messages[0].Role = %v", msgs[0].Role)
	}
	if msgs[1].Role != anthropic.MessageParamRoleAssistant {
		t.Errorf("messages[1].Role = %v", msgs[1].Role)
	}
}

func TestSessionRestoreHistory(t *testing.T) {
	history := []core.Message{
		{Role: core.RoleUser, Content: []core.ContentBlock{
			core.NewTextBlock("compare USDC rates"),
		}},
		{Role: core.RoleAssistant, Content: []core.ContentBlock{
			core.NewTextBlock("Checking both protocols."),
			core.NewToolUseBlock("toolu_1", "compare_lending_rates", json.RawMessage(`{"asset":"USDC"}`)),
		}},
		{Role: core.RoleUser, Content: []core.ContentBlock{
			core.NewToolResultBlock("toolu_1", `{"winner":"echelon"}`, false),
		}},
		// Unknown block types are skipped; the message ends up empty and
		// is dropped.
		{Role: core.RoleAssistant, Content: []core.ContentBlock{
			{Type: "thinking", Text: "hmm"},
		}},
		// Empty text blocks are dropped with their message.
		{Role: core.RoleAssistant, Content: []core.ContentBlock{
			{Type: "text", Text: ""},
		}},
	}

	s := NewSession("u1", "c1")
	s.RestoreHistory(history)

	msgs := s.Messages()
	if len(msgs) != 3 {
		t.Fatalf("len(messages) = %d, want 3", len(msgs))
	}
	wantRoles := []anthropic.MessageParamRole{
		anthropic.MessageParamRoleUser,
		anthropic.MessageParamRoleAssistant,
		anthropic.MessageParamRoleUser,
	}
	for i, want := range wantRoles {
		if msgs[i].Role != want {
			t.Errorf("messages[%d].Role = %v, want %v", i, msgs[i].Role, want)
		}
	}

	assistant, err := json.Marshal(msgs[1])
	if err != nil {
		t.Fatalf("marshal assistant message: %v", err)
	}
	if !strings.Contains(string(assistant), "toolu_1") || !strings.Contains(string(assistant), "compare_lending_rates") {
		t.Errorf("assistant message lost the tool_use block: %s", assistant)
	}

	result, err := json.Marshal(msgs[2])
	if err != nil {
		t.Fatalf("marshal result message: %v", err)
	}
	if !strings.Contains(string(result), "tool_result") || !strings.Contains(string(result), "toolu_1") {
		t.Errorf("result message lost the tool_result block: %s", result)
	}
}

func TestSessionTurnsAndTraces(t *testing.T) {
	s := NewSession("u1", "c1")
	if s.TurnCount != 0 {
		t.Errorf("TurnCount = %d", s.TurnCount)
	}
	s.IncrementTurnCount()
	s.IncrementTurnCount()
	if s.TurnCount != 2 {
		t.Errorf("TurnCount = %d, want 2", s.TurnCount)
	}

	s.AddTrace(&core.Trace{ID: "t1", Action: "compare_lending_rates"})
	if len(s.Traces) != 1 || s.Traces[0].ID != "t1" {
		t.Errorf("Traces = %+v", s.Traces)
	}
}
