package core

import (
	"encoding/json"
	"fmt"
)

// Trace records one thought-action-observation cycle of the ReAct loop.
// Traces feed the audit log and the memory system.
type Trace struct {
	ID          string          `json:"id"`
	SessionID   string          `json:"session_id"`
	TurnNumber  int             `json:"turn_number"`
	Thought     string          `json:"thought,omitempty"`
	Action      string          `json:"action"`
	ActionInput json.RawMessage `json:"action_input,omitempty"`
	Observation string          `json:"observation,omitempty"`
	Success     bool            `json:"success"`
	Timestamp   int64           `json:"timestamp"`

	// Metadata holds supplementary labels such as error_type,
	// prevention hints, or confirmation IDs.
	Metadata map[string]string `json:"metadata,omitempty"`
}

// String renders the trace on one line for logging.
func (t *Trace) String() string {
	status := "ok"
	if !t.Success {
		status = "failed"
	}
	s := fmt.Sprintf("turn=%d action=%s status=%s", t.TurnNumber, t.Action, status)
	if t.Thought != "" {
		s += fmt.Sprintf(" thought=%q", t.Thought)
	}
	if t.Observation != "" {
		s += fmt.Sprintf(" observation=%q", t.Observation)
	}
	return s
}
