package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/movementfi/moveyield/core"
	"github.com/movementfi/moveyield/engine"
	"github.com/movementfi/moveyield/internal/metrics"
)

// wsFrame is the wire format in both directions. Client frames are
// chat, confirm, and cancel; server frames are chunk, response,
// confirmation_required, and error.
type wsFrame struct {
	Type string `json:"type"`

	// Client fields.
	Message  string `json:"message,omitempty"`
	Agent    string `json:"agent,omitempty"`
	UserID   string `json:"user_id,omitempty"`
	ActionID string `json:"action_id,omitempty"`

	// Server fields.
	Text      string               `json:"text,omitempty"`
	ToolsUsed []core.ToolExecution `json:"tools_used,omitempty"`
	Action    *pendingPayload      `json:"action,omitempty"`
	Error     string               `json:"error,omitempty"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(*http.Request) bool { return true },
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	metrics.WSSessionsActive.Inc()
	defer metrics.WSSessionsActive.Dec()

	sess := &wsSession{
		server:         s,
		conn:           conn,
		conversationID: uuid.New().String(),
	}
	s.logger.Info("websocket session opened", "conversation_id", sess.conversationID)
	sess.run(r.Context())
	s.logger.Info("websocket session closed", "conversation_id", sess.conversationID)
}

// wsSession is one chat connection. Frames are handled sequentially on
// the read loop, which also makes it the only writer on the socket.
type wsSession struct {
	server         *Server
	conn           *websocket.Conn
	userID         string
	conversationID string
	history        []core.Message
}

func (ws *wsSession) run(ctx context.Context) {
	for {
		var frame wsFrame
		if err := ws.conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				ws.server.logger.Warn("websocket read failed", "error", err)
			}
			return
		}
		metrics.WSMessagesTotal.WithLabelValues(frame.Type).Inc()

		switch frame.Type {
		case "chat":
			ws.handleChat(ctx, &frame)
		case "confirm":
			ws.handleConfirm(ctx, &frame)
		case "cancel":
			ws.handleCancel(&frame)
		default:
			ws.send(&wsFrame{Type: "error", Error: fmt.Sprintf("unknown frame type: %q", frame.Type)})
		}
	}
}

func (ws *wsSession) handleChat(ctx context.Context, frame *wsFrame) {
	if strings.TrimSpace(frame.Message) == "" {
		ws.send(&wsFrame{Type: "error", Error: "message is required"})
		return
	}
	if frame.UserID != "" {
		ws.userID = frame.UserID
	}
	if ws.userID == "" {
		ws.userID = "anonymous"
	}
	ag := ws.server.agentFor(frame.Agent)

	out, err := ws.server.engine.RunAgent(ctx, ag, &core.Input{
		UserMessage: frame.Message,
		Context: &core.Context{
			UserID:         ws.userID,
			ConversationID: ws.conversationID,
		},
		History:        ws.history,
		StreamCallback: ws.streamChunk,
	})
	if err != nil {
		ws.server.logger.Error("agent run failed", "agent", ag.Name(), "error", err)
		metrics.AgentRunsTotal.WithLabelValues(ag.Name(), "error").Inc()
		ws.send(&wsFrame{Type: "error", Error: "agent execution failed"})
		return
	}
	recordRun(ag.Name(), out)

	switch out.Type {
	case core.OutputConfirmationNeeded:
		resume := historyWith(ws.history, frame.Message, out.ResponseBlocks)
		ws.server.pending.put(out.PendingAction, resume, ag.Name())
		ws.send(&wsFrame{
			Type:   "confirmation_required",
			Text:   out.Text,
			Action: toPendingPayload(out.PendingAction),
		})
	case core.OutputError:
		ws.send(&wsFrame{Type: "error", Error: out.Error.Error()})
	default:
		ws.history = append(ws.history,
			core.Message{Role: core.RoleUser, Content: []core.ContentBlock{core.NewTextBlock(frame.Message)}},
			core.Message{Role: core.RoleAssistant, Content: []core.ContentBlock{core.NewTextBlock(out.Text)}},
		)
		ws.send(&wsFrame{Type: "response", Text: out.Text, ToolsUsed: out.ToolsUsed})
	}
}

func (ws *wsSession) handleConfirm(ctx context.Context, frame *wsFrame) {
	entry, ok := ws.server.pending.take(frame.ActionID)
	if !ok {
		ws.send(&wsFrame{Type: "error", Error: "unknown or expired action"})
		return
	}

	ag := ws.server.agentFor(entry.agent)
	caps := ag.Capabilities()
	out, err := ws.server.engine.RunConfirmedAction(ctx, &engine.Input{
		Context: &core.Context{
			UserID:         entry.action.UserID,
			ConversationID: ws.conversationID,
		},
		History:        entry.history,
		SystemPrompt:   caps.SystemPrompt,
		Model:          caps.Model,
		MaxTokens:      caps.MaxTokens,
		AgentName:      ag.Name(),
		StreamCallback: ws.streamChunk,
	}, entry.action)
	if err != nil {
		ws.server.logger.Error("confirmed action failed", "agent", ag.Name(), "tool", entry.action.Tool, "error", err)
		metrics.AgentRunsTotal.WithLabelValues(ag.Name(), "error").Inc()
		ws.send(&wsFrame{Type: "error", Error: "confirmed action failed"})
		return
	}
	metrics.AgentRunsTotal.WithLabelValues(ag.Name(), "complete").Inc()
	metrics.TokensTotal.WithLabelValues(ag.Name(), "input").Add(float64(out.TokensUsed.InputTokens))
	metrics.TokensTotal.WithLabelValues(ag.Name(), "output").Add(float64(out.TokensUsed.OutputTokens))

	// History is flattened to text turns. The stored history ends with
	// the assistant tool_use turn; carrying it forward without a paired
	// tool_result would make the next API call invalid.
	base := entry.history
	if len(base) > 0 {
		base = base[:len(base)-1]
	}
	ws.history = append(base[:len(base):len(base)],
		core.Message{Role: core.RoleAssistant, Content: []core.ContentBlock{core.NewTextBlock(out.Text)}},
	)

	ws.send(&wsFrame{Type: "response", Text: out.Text, ToolsUsed: out.ToolsUsed})
}

func (ws *wsSession) handleCancel(frame *wsFrame) {
	if _, ok := ws.server.pending.take(frame.ActionID); !ok {
		ws.send(&wsFrame{Type: "error", Error: "unknown or expired action"})
		return
	}
	ws.send(&wsFrame{Type: "response", Text: "Action cancelled."})
}

// streamChunk forwards text deltas as chunk frames. The final callback
// with done=true is skipped; the response frame marks the end.
func (ws *wsSession) streamChunk(delta string, done bool) {
	if done || delta == "" {
		return
	}
	ws.send(&wsFrame{Type: "chunk", Text: delta})
}

func (ws *wsSession) send(frame *wsFrame) {
	_ = ws.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	if err := ws.conn.WriteJSON(frame); err != nil {
		ws.server.logger.Warn("websocket write failed", "error", err)
	}
}
