package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/movementfi/moveyield/core"
	"github.com/movementfi/moveyield/engine"
	"github.com/movementfi/moveyield/internal/metrics"
)

// messageRequest is one turn of conversation with an agent. A request
// either opens a turn with Message, or resolves a pending confirmation
// with ActionID plus Decision ("confirm" or "cancel").
type messageRequest struct {
	Message        string `json:"message"`
	UserID         string `json:"user_id"`
	ConversationID string `json:"conversation_id"`
	ActionID       string `json:"action_id"`
	Decision       string `json:"decision"`
}

type messageResponse struct {
	Response      string               `json:"response,omitempty"`
	ToolsUsed     []core.ToolExecution `json:"tools_used,omitempty"`
	PendingAction *pendingPayload      `json:"pending_action,omitempty"`
	Tokens        *core.TokenUsage     `json:"tokens,omitempty"`
	Error         string               `json:"error,omitempty"`
}

// pendingPayload is the client-facing view of an action held for
// confirmation.
type pendingPayload struct {
	ID        string          `json:"id"`
	Tool      string          `json:"tool"`
	Summary   string          `json:"summary"`
	Thought   string          `json:"thought,omitempty"`
	Input     json.RawMessage `json:"input,omitempty"`
	ExpiresAt int64           `json:"expires_at"`
}

func toPendingPayload(a *core.PendingAction) *pendingPayload {
	return &pendingPayload{
		ID:        a.ID,
		Tool:      a.Tool,
		Summary:   a.Summary,
		Thought:   a.Thought,
		Input:     a.Input,
		ExpiresAt: a.ExpiresAt,
	}
}

func (s *Server) handleMessages(ag core.Agent) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req messageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
			return
		}

		if req.ActionID != "" {
			s.resolveAction(w, r, ag, &req)
			return
		}

		if strings.TrimSpace(req.Message) == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "message is required"})
			return
		}

		userID := req.UserID
		if userID == "" {
			userID = "anonymous"
		}
		conversationID := req.ConversationID
		if conversationID == "" {
			conversationID = uuid.New().String()
		}

		out, err := s.engine.RunAgent(r.Context(), ag, &core.Input{
			UserMessage: req.Message,
			Context:     &core.Context{UserID: userID, ConversationID: conversationID},
		})
		if err != nil {
			s.logger.Error("agent run failed", "agent", ag.Name(), "error", err)
			metrics.AgentRunsTotal.WithLabelValues(ag.Name(), "error").Inc()
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "agent execution failed"})
			return
		}
		recordRun(ag.Name(), out)

		switch out.Type {
		case core.OutputConfirmationNeeded:
			history := historyWith(nil, req.Message, out.ResponseBlocks)
			s.pending.put(out.PendingAction, history, ag.Name())
			writeJSON(w, http.StatusOK, messageResponse{
				Response:      out.Text,
				ToolsUsed:     out.ToolsUsed,
				PendingAction: toPendingPayload(out.PendingAction),
			})
		case core.OutputError:
			status := http.StatusInternalServerError
			if strings.Contains(out.Error.Error(), "rate limit") {
				status = http.StatusTooManyRequests
			}
			writeJSON(w, status, messageResponse{Error: out.Error.Error()})
		default:
			writeJSON(w, http.StatusOK, messageResponse{
				Response:  out.Text,
				ToolsUsed: out.ToolsUsed,
				Tokens:    &out.TokensUsed,
			})
		}
	}
}

// resolveAction finishes a held confirmation: cancel simply drops it,
// confirm resumes the run with the stored history.
func (s *Server) resolveAction(w http.ResponseWriter, r *http.Request, ag core.Agent, req *messageRequest) {
	entry, ok := s.pending.take(req.ActionID)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown or expired action"})
		return
	}

	if req.Decision != "confirm" {
		writeJSON(w, http.StatusOK, messageResponse{Response: "Action cancelled."})
		return
	}

	caps := ag.Capabilities()
	out, err := s.engine.RunConfirmedAction(r.Context(), &engine.Input{
		Context: &core.Context{
			UserID:         entry.action.UserID,
			ConversationID: req.ConversationID,
		},
		History:      entry.history,
		SystemPrompt: caps.SystemPrompt,
		Model:        caps.Model,
		MaxTokens:    caps.MaxTokens,
		AgentName:    ag.Name(),
	}, entry.action)
	if err != nil {
		s.logger.Error("confirmed action failed", "agent", ag.Name(), "tool", entry.action.Tool, "error", err)
		metrics.AgentRunsTotal.WithLabelValues(ag.Name(), "error").Inc()
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "confirmed action failed"})
		return
	}
	metrics.AgentRunsTotal.WithLabelValues(ag.Name(), "complete").Inc()
	metrics.TokensTotal.WithLabelValues(ag.Name(), "input").Add(float64(out.TokensUsed.InputTokens))
	metrics.TokensTotal.WithLabelValues(ag.Name(), "output").Add(float64(out.TokensUsed.OutputTokens))

	writeJSON(w, http.StatusOK, messageResponse{
		Response:  out.Text,
		ToolsUsed: out.ToolsUsed,
		Tokens:    &out.TokensUsed,
	})
}

func recordRun(agentName string, out *core.Output) {
	outcome := "complete"
	switch out.Type {
	case core.OutputConfirmationNeeded:
		outcome = "confirmation"
	case core.OutputError:
		outcome = "error"
	}
	metrics.AgentRunsTotal.WithLabelValues(agentName, outcome).Inc()
	metrics.TokensTotal.WithLabelValues(agentName, "input").Add(float64(out.TokensUsed.InputTokens))
	metrics.TokensTotal.WithLabelValues(agentName, "output").Add(float64(out.TokensUsed.OutputTokens))
}

// historyWith extends history with the user turn and the assistant turn
// holding the tool_use block, the shape RunConfirmedAction expects.
func historyWith(history []core.Message, userMessage string, blocks []core.ContentBlock) []core.Message {
	out := make([]core.Message, 0, len(history)+2)
	out = append(out, history...)
	if userMessage != "" {
		out = append(out, core.Message{
			Role:    core.RoleUser,
			Content: []core.ContentBlock{core.NewTextBlock(userMessage)},
		})
	}
	out = append(out, core.Message{Role: core.RoleAssistant, Content: blocks})
	return out
}
