package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/movementfi/moveyield/core"
	"github.com/movementfi/moveyield/internal/indexer"
	"github.com/movementfi/moveyield/tools"
)

// DefaultNetwork is assumed when a balance tool is called without one.
const DefaultNetwork = "ethereum"

// movementAddressLen is the length of a full Movement or Aptos address,
// 0x plus 64 hex characters. Addresses of this length route to the
// Movement indexer regardless of the requested network.
const movementAddressLen = 66

// BalanceTools builds the balance agent's catalog.
func BalanceTools(deps *ToolDeps) []core.Tool {
	client := deps.Indexer
	return []core.Tool{
		tools.New("get_balance").
			Description("Get all token balances for a wallet address. Accepts both 42-character (Ethereum) "+
				"and 66-character (Movement/Aptos) addresses; 66-character addresses automatically use Movement Network.").
			Schema(tools.BuildSchemaWithThought(map[string]interface{}{
				"address": tools.StringProperty("The wallet address starting with 0x. Accepts 42-character (Ethereum/BNB/Polygon) or 66-character (Movement/Aptos) addresses."),
				"network": tools.StringProperty("The blockchain network (ethereum, bnb, polygon, movement, aptos, etc.). 66-character addresses force movement."),
			}, false, "address")).
			HandlerFunc(getBalance(client)).
			Build(),

		tools.New("get_token_balance").
			Description("Get the balance of one specific token for a wallet address. Accepts both 42-character "+
				"and 66-character addresses; 66-character addresses automatically use Movement Network.").
			Schema(tools.BuildSchemaWithThought(map[string]interface{}{
				"address": tools.StringProperty("The wallet address starting with 0x."),
				"token":   tools.StringProperty("The token symbol (e.g. USDC, USDT, DAI, MOVE)."),
				"network": tools.StringProperty("The blockchain network. 66-character addresses force movement."),
			}, false, "address", "token")).
			HandlerFunc(getTokenBalance(client)).
			Build(),
	}
}

type balanceInput struct {
	Address string `json:"address"`
	Network string `json:"network"`
	Token   string `json:"token"`
}

// resolveNetwork applies the 66-character auto-detect rule on top of the
// requested network.
func (in *balanceInput) resolveNetwork() string {
	if len(in.Address) == movementAddressLen && strings.HasPrefix(in.Address, "0x") {
		return "movement"
	}
	if in.Network == "" {
		return DefaultNetwork
	}
	return in.Network
}

func isMovementNetwork(network string) bool {
	lower := strings.ToLower(network)
	return lower == "movement" || lower == "aptos"
}

func getBalance(client *indexer.Client) tools.SimpleHandler {
	return func(ctx context.Context, input json.RawMessage) (interface{}, error) {
		var in balanceInput
		if err := unmarshalInput(input, &in); err != nil {
			return nil, err
		}
		network := in.resolveNetwork()
		if !isMovementNetwork(network) {
			return fmt.Sprintf("Balance for %s on %s: Not implemented yet (only Movement Network is currently supported)", in.Address, network), nil
		}

		balances, err := client.FetchBalances(ctx, in.Address)
		if err != nil {
			return fmt.Sprintf("Error fetching Movement balance: %s", err), nil
		}
		return formatMovementBalances(balances, in.Address), nil
	}
}

// formatMovementBalances renders every token a wallet holds, one
// numbered line per token. Rows that fail to parse are dropped rather
// than shown as garbage.
func formatMovementBalances(balances []indexer.Balance, address string) string {
	if len(balances) == 0 {
		return fmt.Sprintf("Address %s has no token balances on Movement Network.", address)
	}

	type tokenRow struct {
		name   string
		symbol string
		value  float64
	}
	var rows []tokenRow
	for i := range balances {
		b := &balances[i]
		value, ok := b.Value()
		if !ok || value == 0 {
			continue
		}
		name := b.Metadata.Name
		if name == "" {
			name = "Unknown Token"
		}
		symbol := b.Metadata.Symbol
		if symbol == "" {
			symbol = "Unknown"
		}
		rows = append(rows, tokenRow{name: name, symbol: strings.ToUpper(symbol), value: value})
	}
	if len(rows) == 0 {
		return fmt.Sprintf("Address %s has no non-zero token balances on Movement Network.", address)
	}

	lines := make([]string, 0, len(rows)+1)
	lines = append(lines, fmt.Sprintf("Movement Network balances for %s:\n", address))
	for i, row := range rows {
		lines = append(lines, fmt.Sprintf("%d. %s (%s): %s %s", i+1, row.name, row.symbol, formatTokenAmount(row.value), row.symbol))
	}
	return strings.Join(lines, "\n")
}

func getTokenBalance(client *indexer.Client) tools.SimpleHandler {
	return func(ctx context.Context, input json.RawMessage) (interface{}, error) {
		var in balanceInput
		if err := unmarshalInput(input, &in); err != nil {
			return nil, err
		}
		network := in.resolveNetwork()
		tokenUpper := strings.ToUpper(in.Token)
		if !isMovementNetwork(network) {
			return fmt.Sprintf("Token balance for %s: %s on %s - Not implemented yet (only Movement Network is currently supported)", in.Address, tokenUpper, network), nil
		}

		balances, err := client.FetchBalances(ctx, in.Address)
		if err != nil {
			return fmt.Sprintf("Error fetching Movement balance: %s", err), nil
		}
		for i := range balances {
			b := &balances[i]
			symbol := strings.ToUpper(b.Metadata.Symbol)
			if symbol != tokenUpper && !strings.Contains(symbol, tokenUpper) {
				continue
			}
			name := b.Metadata.Name
			if name == "" {
				name = "Unknown Token"
			}
			if value, ok := b.Value(); ok {
				return fmt.Sprintf("%s has %.6f %s (%s) on Movement Network", in.Address, value, symbol, name), nil
			}
			return fmt.Sprintf("%s has %s %s (raw) on Movement Network", in.Address, b.Amount, symbol), nil
		}
		return fmt.Sprintf("No %s balance found for %s on Movement Network", tokenUpper, in.Address), nil
	}
}
