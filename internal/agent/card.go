package agent

// Card is the discovery document served at the agent's well-known URL,
// following the A2A agent card layout.
type Card struct {
	Name                              string           `json:"name"`
	Description                       string           `json:"description"`
	URL                               string           `json:"url"`
	Version                           string           `json:"version"`
	DefaultInputModes                 []string         `json:"defaultInputModes"`
	DefaultOutputModes                []string         `json:"defaultOutputModes"`
	Capabilities                      CardCapabilities `json:"capabilities"`
	Skills                            []Skill          `json:"skills"`
	SupportsAuthenticatedExtendedCard bool             `json:"supportsAuthenticatedExtendedCard"`
}

// CardCapabilities advertises protocol-level features.
type CardCapabilities struct {
	Streaming bool `json:"streaming"`
}

// Skill describes one capability on a card, with example utterances
// clients can surface as suggestions.
type Skill struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Examples    []string `json:"examples"`
}

// LendingCard returns the lending agent's card, rooted at cardURL.
func LendingCard(cardURL string) *Card {
	return &Card{
		Name:               "premium_lending_agent",
		Description:        "Compare rates, find best supply options, and execute lending operations on MovePosition and Echelon protocols",
		URL:                cardURL,
		Version:            "2.0.0",
		DefaultInputModes:  []string{"text"},
		DefaultOutputModes: []string{"text"},
		Capabilities:       CardCapabilities{Streaming: true},
		Skills: []Skill{{
			ID:          "lending_agent",
			Name:        "Unified Lending Agent",
			Description: "Compare rates, find best supply options, and execute lending operations on MovePosition and Echelon",
			Tags: []string{
				"lending",
				"borrowing",
				"comparison",
				"defi",
				"moveposition",
				"echelon",
				"rates",
				"supply",
				"apy",
				"collateral",
			},
			Examples: []string{
				"where is the best place to supply USDC?",
				"get best supply rate",
				"which protocol gives the highest APY?",
				"supply 1000 USDC as collateral",
				"borrow 500 USDC",
				"compare lending rates for USDC",
				"check my health factor",
				"repay 200 USDC",
				"which protocol is better for borrowing?",
				"show me protocol metrics",
			},
		}},
	}
}

// BalanceCard returns the balance agent's card, rooted at cardURL.
func BalanceCard(cardURL string) *Card {
	return &Card{
		Name:               "Balance Agent",
		Description:        "Agent that helps to get cryptocurrency balances across multiple chains",
		URL:                cardURL,
		Version:            "2.0.0",
		DefaultInputModes:  []string{"text"},
		DefaultOutputModes: []string{"text"},
		Capabilities:       CardCapabilities{Streaming: true},
		Skills: []Skill{{
			ID:          "balance_agent",
			Name:        "Balance Agent",
			Description: "Balance Agent for checking crypto balances on multiple chains including Movement Network",
			Tags:        []string{"balance", "ethereum", "bnb", "movement", "aptos", "web3", "crypto"},
			Examples: []string{
				"get balance",
				"get my balance",
				"give my balance",
				"get balance on movement",
				"get balance on ethereum",
				"get balance of 0x742d35Cc6634C0532925a3b844Bc9e7595f0bEb",
				"get balance of usdc on bnb",
				"get balance of usdc on ethereum",
				"check my USDT balance",
				"get my balance on movement",
			},
		}},
	}
}
