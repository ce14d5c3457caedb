package engine

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log"
)

// AuditEntry records one tool execution for compliance review.
type AuditEntry struct {
	ID         string          `json:"id"`
	UserID     string          `json:"user_id"`
	SessionID  string          `json:"session_id"`
	RequestID  string          `json:"request_id"`
	ParentID   *string         `json:"parent_id,omitempty"`
	AgentName  string          `json:"agent_name"`
	ToolName   string          `json:"tool_name"`
	ToolInput  json.RawMessage `json:"tool_input,omitempty"`
	ToolOutput json.RawMessage `json:"tool_output,omitempty"`
	Error      *string         `json:"error,omitempty"`
	DurationMs int64           `json:"duration_ms"`
	IsWriteOp  bool            `json:"is_write_op"`
	Timestamp  int64           `json:"timestamp"`
}

// AuditLogger receives audit entries for every tool execution. Log must
// not block the ReAct loop; implementations that persist remotely
// should buffer internally.
type AuditLogger interface {
	Log(ctx context.Context, entry *AuditEntry)
}

// LogAuditor writes audit entries to the standard logger as JSON lines.
type LogAuditor struct{}

// Log writes the entry. Marshal failures are reported on the same
// logger rather than dropped silently.
func (LogAuditor) Log(ctx context.Context, entry *AuditEntry) {
	b, err := json.Marshal(entry)
	if err != nil {
		log.Printf("[AUDIT] marshal failed: %v", err)
		return
	}
	log.Printf("[AUDIT] %s", b)
}

// GenerateIdempotencyKey derives a stable key for a pending action from
// its identity, so retried confirmations of the same request dedupe.
func GenerateIdempotencyKey(userID, tool string, input []byte) string {
	h := sha256.New()
	h.Write([]byte(userID))
	h.Write([]byte{0})
	h.Write([]byte(tool))
	h.Write([]byte{0})
	h.Write(input)
	return hex.EncodeToString(h.Sum(nil))[:32]
}
