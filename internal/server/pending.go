package server

import (
	"context"
	"sync"
	"time"

	"github.com/movementfi/moveyield/core"
)

// pendingEntry holds everything needed to resume a run after the user
// decides: the action itself and the conversation history ending with
// the assistant turn that carries the tool_use block.
type pendingEntry struct {
	action  *core.PendingAction
	history []core.Message
	agent   string
}

// pendingStore keeps actions awaiting confirmation, keyed by action ID.
// Entries expire with the action's own deadline.
type pendingStore struct {
	mu      sync.Mutex
	entries map[string]*pendingEntry
}

func newPendingStore() *pendingStore {
	return &pendingStore{entries: make(map[string]*pendingEntry)}
}

func (p *pendingStore) put(action *core.PendingAction, history []core.Message, agentName string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries[action.ID] = &pendingEntry{action: action, history: history, agent: agentName}
}

// take removes and returns the entry. Expired entries are dropped and
// reported as missing.
func (p *pendingStore) take(id string) (*pendingEntry, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	entry, ok := p.entries[id]
	if !ok {
		return nil, false
	}
	delete(p.entries, id)
	if entry.action.ExpiresAt > 0 && entry.action.ExpiresAt < time.Now().Unix() {
		return nil, false
	}
	return entry, true
}

func (p *pendingStore) sweep(now int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for id, entry := range p.entries {
		if entry.action.ExpiresAt > 0 && entry.action.ExpiresAt < now {
			delete(p.entries, id)
		}
	}
}

// sweepLoop drops expired entries until ctx is cancelled, so abandoned
// confirmations do not pile up.
func (p *pendingStore) sweepLoop(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case t := <-ticker.C:
			p.sweep(t.Unix())
		}
	}
}
