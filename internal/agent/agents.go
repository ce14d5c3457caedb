package agent

import "github.com/movementfi/moveyield/core"

// LendingToolNames lists the lending catalog in registration order.
func LendingToolNames() []string {
	return []string{
		"compare_lending_rates",
		"compare_borrowing_rates",
		"get_protocol_metrics",
		"recommend_best_protocol",
		"get_best_supply_rate",
		"supply_collateral",
		"borrow_asset",
		"repay_loan",
		"check_health_factor",
	}
}

// BalanceToolNames lists the balance catalog.
func BalanceToolNames() []string {
	return []string{"get_balance", "get_token_balance"}
}

// Lending is the rate comparison and lending operations agent. Model
// and MaxTokens override the engine defaults when set.
type Lending struct {
	Model     string
	MaxTokens int64
}

func (Lending) Name() string { return "premium_lending_agent" }

func (l Lending) Capabilities() *core.AgentCapabilities {
	return &core.AgentCapabilities{
		SystemPrompt:           LendingSystemPrompt,
		Model:                  l.Model,
		MaxTokens:              l.MaxTokens,
		AvailableTools:         LendingToolNames(),
		CanRequestConfirmation: true,
	}
}

// Balance is the cross-chain balance lookup agent.
type Balance struct {
	Model     string
	MaxTokens int64
}

func (Balance) Name() string { return "balance_agent" }

func (b Balance) Capabilities() *core.AgentCapabilities {
	return &core.AgentCapabilities{
		SystemPrompt:   BalanceSystemPrompt,
		Model:          b.Model,
		MaxTokens:      b.MaxTokens,
		AvailableTools: BalanceToolNames(),
	}
}
