// Package agent defines the service's two agents, their tool catalogs,
// system prompts, and the cards published for discovery. The lending
// agent compares and recommends rates across the MovePosition and
// Echelon protocols; the balance agent reads fungible asset balances
// from the Movement indexer.
package agent

import (
	"github.com/movementfi/moveyield/engine"
	"github.com/movementfi/moveyield/internal/indexer"
	"github.com/movementfi/moveyield/internal/markets"
)

// ToolDeps carries the shared dependencies tool handlers close over.
type ToolDeps struct {
	Markets *markets.Service
	Indexer *indexer.Client
}

// RegisterAll registers both agents' tool catalogs.
func RegisterAll(reg *engine.ToolRegistry, deps *ToolDeps) {
	reg.Register(LendingTools(deps)...)
	reg.Register(BalanceTools(deps)...)
}
