package agent_test

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/movementfi/moveyield/core"
	"github.com/movementfi/moveyield/internal/agent"
	"github.com/movementfi/moveyield/internal/markets"
)

// echelonFixture has two markets. USDC supplies at 5% APR and borrows at
// 8%; MOVE supplies at 20% and borrows at 40%.
const echelonFixture = `{
  "data": {
    "assets": [
      {
        "symbol": "USDC", "name": "USD Coin",
        "supplyApr": 0.05, "borrowApr": 0.08, "price": 1.0,
        "market": "0xmkt-usdc", "address": "0xcoin-usdc", "faAddress": "0xfa-usdc",
        "ltv": 0.75, "lt": 0.85
      },
      {
        "symbol": "MOVE", "name": "Movement",
        "supplyApr": 0.20, "borrowApr": 0.40, "price": 0.5,
        "market": "0xmkt-move", "address": "0xcoin-move", "faAddress": "0xfa-move",
        "ltv": 0.6, "lt": 0.7
      }
    ],
    "marketStats": [
      ["0xmkt-usdc", {"totalShares": 1000000, "totalLiability": 600000, "totalCash": 400000}],
      ["0xmkt-move", {"totalShares": 2000000, "totalLiability": 500000, "totalCash": 1500000}]
    ]
  }
}`

// brokersFixture mirrors the production naming: plain symbols except for
// the MOVE fungible-asset broker. USDC yields 0.9*0.10*0.8 = 7.2% APY,
// MOVE-FA 0.95*0.30*0.8 = 22.8%.
const brokersFixture = `[
  {
    "underlyingAsset": {"name": "USDC", "price": 1.0, "decimals": 6},
    "utilization": 0.9, "interestRate": 0.10, "interestFeeRate": 0.2,
    "scaledAvailableLiquidityUnderlying": "400000",
    "scaledTotalBorrowedUnderlying": "600000"
  },
  {
    "underlyingAsset": {"name": "MOVE-FA", "price": 0.5, "decimals": 8},
    "utilization": 0.95, "interestRate": 0.30, "interestFeeRate": 0.2,
    "scaledAvailableLiquidityUnderlying": "1000000",
    "scaledTotalBorrowedUnderlying": "3000000"
  }
]`

func serveJSON(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}
}

func serveStatus(code int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(code)
	}
}

func newLendingTools(t *testing.T, echelon, moveposition http.HandlerFunc) []core.Tool {
	t.Helper()
	echelonSrv := httptest.NewServer(echelon)
	t.Cleanup(echelonSrv.Close)
	moveSrv := httptest.NewServer(moveposition)
	t.Cleanup(moveSrv.Close)

	svc, err := markets.NewService(markets.ServiceConfig{
		EchelonURL:      echelonSrv.URL,
		MovePositionURL: moveSrv.URL,
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return agent.LendingTools(&agent.ToolDeps{Markets: svc})
}

func findTool(t *testing.T, catalog []core.Tool, name string) core.Tool {
	t.Helper()
	for _, tool := range catalog {
		if tool.Name() == name {
			return tool
		}
	}
	t.Fatalf("tool %q not in catalog", name)
	return nil
}

func execTool(t *testing.T, tool core.Tool, input string) *core.ToolResult {
	t.Helper()
	res, err := tool.Execute(context.Background(), &core.ToolParams{
		UserID: "user-1",
		Input:  json.RawMessage(input),
	})
	if err != nil {
		t.Fatalf("Execute %s: %v", tool.Name(), err)
	}
	return res
}

func successPayload(t *testing.T, res *core.ToolResult) map[string]interface{} {
	t.Helper()
	if !res.Success {
		t.Fatalf("tool failed: %s", res.Error)
	}
	payload, ok := res.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("payload type %T, want map[string]interface{}", res.Data)
	}
	return payload
}

func wantString(t *testing.T, m map[string]interface{}, key, want string) {
	t.Helper()
	got, ok := m[key].(string)
	if !ok {
		t.Fatalf("key %q: got %T (%v), want string", key, m[key], m[key])
	}
	if got != want {
		t.Errorf("key %q = %q, want %q", key, got, want)
	}
}

func infoMap(t *testing.T, m map[string]interface{}, key string) map[string]string {
	t.Helper()
	info, ok := m[key].(map[string]string)
	if !ok {
		t.Fatalf("key %q: got %T, want map[string]string", key, m[key])
	}
	return info
}

func TestLendingCatalog(t *testing.T) {
	catalog := newLendingTools(t, serveJSON(echelonFixture), serveJSON(brokersFixture))

	var names []string
	for _, tool := range catalog {
		names = append(names, tool.Name())
	}
	want := agent.LendingToolNames()
	if len(names) != len(want) {
		t.Fatalf("catalog has %d tools, want %d", len(names), len(want))
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("tool %d = %q, want %q", i, names[i], want[i])
		}
	}

	confirmable := map[string]bool{
		"supply_collateral": true,
		"borrow_asset":      true,
		"repay_loan":        true,
	}
	for _, tool := range catalog {
		if got := tool.RequiresConfirmation(); got != confirmable[tool.Name()] {
			t.Errorf("%s RequiresConfirmation = %v, want %v", tool.Name(), got, confirmable[tool.Name()])
		}
	}

	supply := findTool(t, catalog, "supply_collateral")
	summary := supply.GetSummary(json.RawMessage(`{"asset":"USDC","amount":"1000"}`))
	if summary != "Supply 1000 USDC as collateral" {
		t.Errorf("summary = %q", summary)
	}
}

func TestCompareLendingRates(t *testing.T) {
	catalog := newLendingTools(t, serveJSON(echelonFixture), serveJSON(brokersFixture))
	tool := findTool(t, catalog, "compare_lending_rates")

	payload := successPayload(t, execTool(t, tool, `{"asset":"USDC"}`))

	wantString(t, payload, "asset", "USDC")
	wantString(t, payload, "winner", "moveposition")
	wantString(t, payload, "difference", "-2.07%")
	wantString(t, payload, "message", "Lending rate comparison for USDC")

	move := infoMap(t, payload, "moveposition")
	if move["supply_apy"] != "7.20%" {
		t.Errorf("moveposition supply_apy = %q", move["supply_apy"])
	}
	if move["tvl"] != "$1,000,000.00" {
		t.Errorf("moveposition tvl = %q", move["tvl"])
	}
	if move["utilization"] != "90.00%" {
		t.Errorf("moveposition utilization = %q", move["utilization"])
	}
	if move["liquidity"] != "$400,000.00" {
		t.Errorf("moveposition liquidity = %q", move["liquidity"])
	}

	echelon := infoMap(t, payload, "echelon")
	if echelon["supply_apy"] != "5.13%" {
		t.Errorf("echelon supply_apy = %q", echelon["supply_apy"])
	}
	if echelon["tvl"] != "$1,000,000.00" {
		t.Errorf("echelon tvl = %q", echelon["tvl"])
	}
	if echelon["utilization"] != "60.00%" {
		t.Errorf("echelon utilization = %q", echelon["utilization"])
	}
	if echelon["liquidity"] != "$400,000.00" {
		t.Errorf("echelon liquidity = %q", echelon["liquidity"])
	}
}

func TestCompareLendingRatesEchelonDown(t *testing.T) {
	catalog := newLendingTools(t, serveStatus(http.StatusInternalServerError), serveJSON(brokersFixture))
	tool := findTool(t, catalog, "compare_lending_rates")

	payload := successPayload(t, execTool(t, tool, `{"asset":"USDC"}`))

	wantString(t, payload, "winner", "unknown")
	wantString(t, payload, "difference", "N/A")
	echelon := infoMap(t, payload, "echelon")
	for _, key := range []string{"supply_apy", "tvl", "utilization", "liquidity"} {
		if echelon[key] != "N/A" {
			t.Errorf("echelon %s = %q, want N/A", key, echelon[key])
		}
	}
	move := infoMap(t, payload, "moveposition")
	if move["supply_apy"] != "7.20%" {
		t.Errorf("moveposition supply_apy = %q", move["supply_apy"])
	}
}

func TestCompareBorrowingRates(t *testing.T) {
	catalog := newLendingTools(t, serveJSON(echelonFixture), serveJSON(brokersFixture))
	tool := findTool(t, catalog, "compare_borrowing_rates")

	// Empty input falls back to USDC.
	payload := successPayload(t, execTool(t, tool, `{}`))

	wantString(t, payload, "asset", "USDC")
	wantString(t, payload, "action", "borrow")
	wantString(t, payload, "winner", "echelon")
	wantString(t, payload, "difference", "-2.00%")
	wantString(t, payload, "recommended_protocol", "Echelon")
	wantString(t, payload, "echelon_rate", "8.00%")
	wantString(t, payload, "moveposition_rate", "10.00%")
	wantString(t, payload, "reason", "Based on the comparison, Echelon offers a lower borrowing APR (-2.00%).")
	wantString(t, payload, "message", "Based on the comparison, Echelon offers a lower borrowing APR (-2.00%). Which platform would you like to proceed with to borrow USDC?")
	wantString(t, payload, "user_prompt", "Which platform would you like to proceed with to borrow USDC? Please select 'MovePosition' or 'Echelon'.")

	echelon := infoMap(t, payload, "echelon")
	if echelon["borrow_apy"] != "8.00%" {
		t.Errorf("echelon borrow_apy = %q", echelon["borrow_apy"])
	}
	if echelon["liquidation_threshold"] != "85.00%" {
		t.Errorf("echelon liquidation_threshold = %q", echelon["liquidation_threshold"])
	}
	if echelon["health_factor_requirement"] != "1.15" {
		t.Errorf("echelon health_factor_requirement = %q", echelon["health_factor_requirement"])
	}
	if echelon["max_ltv"] != "75.00%" {
		t.Errorf("echelon max_ltv = %q", echelon["max_ltv"])
	}

	move := infoMap(t, payload, "moveposition")
	if move["borrow_apy"] != "10.00%" {
		t.Errorf("moveposition borrow_apy = %q", move["borrow_apy"])
	}
	if move["utilization"] != "90.00%" {
		t.Errorf("moveposition utilization = %q", move["utilization"])
	}
	if move["max_ltv"] != "N/A" {
		t.Errorf("moveposition max_ltv = %q", move["max_ltv"])
	}
}

func TestCompareBorrowingRatesMoveWins(t *testing.T) {
	catalog := newLendingTools(t, serveJSON(echelonFixture), serveJSON(brokersFixture))
	tool := findTool(t, catalog, "compare_borrowing_rates")

	// MOVE borrows at 40% on Echelon and 30% on MovePosition.
	payload := successPayload(t, execTool(t, tool, `{"asset":"MOVE"}`))

	wantString(t, payload, "winner", "moveposition")
	wantString(t, payload, "difference", "+10.00%")
	wantString(t, payload, "recommended_protocol", "MovePosition")
	wantString(t, payload, "echelon_rate", "40.00%")
	wantString(t, payload, "moveposition_rate", "30.00%")
}

func TestCompareBorrowingRatesBothDown(t *testing.T) {
	catalog := newLendingTools(t, serveStatus(http.StatusBadGateway), serveStatus(http.StatusBadGateway))
	tool := findTool(t, catalog, "compare_borrowing_rates")

	payload := successPayload(t, execTool(t, tool, `{"asset":"USDC"}`))

	wantString(t, payload, "winner", "unknown")
	if payload["recommended_protocol"] != nil {
		t.Errorf("recommended_protocol = %v, want nil", payload["recommended_protocol"])
	}
	// The handoff prompt is present even when no comparison was possible.
	wantString(t, payload, "reason", "Borrowing rate comparison for USDC")
	wantString(t, payload, "user_prompt", "Which platform would you like to proceed with to borrow USDC? Please select 'MovePosition' or 'Echelon'.")
	for _, side := range []string{"echelon", "moveposition"} {
		info := infoMap(t, payload, side)
		if info["borrow_apy"] != "N/A" {
			t.Errorf("%s borrow_apy = %q, want N/A", side, info["borrow_apy"])
		}
	}
}

func TestProtocolMetricsSingle(t *testing.T) {
	catalog := newLendingTools(t, serveJSON(echelonFixture), serveJSON(brokersFixture))
	tool := findTool(t, catalog, "get_protocol_metrics")

	echelon := successPayload(t, execTool(t, tool, `{"protocol":"echelon"}`))
	wantString(t, echelon, "protocol", "Echelon")
	wantString(t, echelon, "tvl", "$2,000,000.00")
	wantString(t, echelon, "total_supplied", "$2,000,000.00")
	wantString(t, echelon, "total_borrowed", "$850,000.00")
	wantString(t, echelon, "utilization_rate", "42.50%")
	wantString(t, echelon, "avg_supply_apy", "12.50%")
	wantString(t, echelon, "avg_borrow_apy", "24.00%")
	wantString(t, echelon, "liquidation_threshold", "85%")
	wantString(t, echelon, "safety_score", "high")
	wantString(t, echelon, "message", "Echelon protocol metrics")

	move := successPayload(t, execTool(t, tool, `{"protocol":"moveposition"}`))
	wantString(t, move, "protocol", "MovePosition")
	wantString(t, move, "tvl", "$3,000,000.00")
	wantString(t, move, "total_borrowed", "$2,100,000.00")
	wantString(t, move, "utilization_rate", "70.00%")
	wantString(t, move, "avg_supply_apy", "15.00%")
	wantString(t, move, "avg_borrow_apy", "20.00%")
	wantString(t, move, "message", "MovePosition protocol metrics")
	if _, ok := move["liquidation_threshold"]; ok {
		t.Error("moveposition metrics should not carry liquidation_threshold")
	}
}

func TestProtocolMetricsBothMode(t *testing.T) {
	catalog := newLendingTools(t, serveJSON(echelonFixture), serveJSON(brokersFixture))
	tool := findTool(t, catalog, "get_protocol_metrics")

	payload := successPayload(t, execTool(t, tool, `{}`))
	wantString(t, payload, "message", "Both protocols metrics")

	echelon, ok := payload["echelon"].(map[string]interface{})
	if !ok {
		t.Fatalf("echelon entry type %T", payload["echelon"])
	}
	wantString(t, echelon, "tvl", "$2,000,000.00")
	wantString(t, echelon, "liquidation_threshold", "85%")
	if _, present := echelon["protocol"]; present {
		t.Error("nested echelon metrics should not repeat the protocol key")
	}
	if _, present := echelon["message"]; present {
		t.Error("nested echelon metrics should not carry a message")
	}

	move, ok := payload["moveposition"].(map[string]interface{})
	if !ok {
		t.Fatalf("moveposition entry type %T", payload["moveposition"])
	}
	wantString(t, move, "tvl", "$3,000,000.00")
	wantString(t, move, "safety_score", "high")
}

func TestProtocolMetricsUnavailable(t *testing.T) {
	catalog := newLendingTools(t, serveStatus(http.StatusServiceUnavailable), serveJSON(brokersFixture))
	tool := findTool(t, catalog, "get_protocol_metrics")

	single := successPayload(t, execTool(t, tool, `{"protocol":"echelon"}`))
	wantString(t, single, "protocol", "Echelon")
	wantString(t, single, "error", "Unable to fetch data from Echelon API")
	wantString(t, single, "message", "Echelon protocol metrics (data unavailable)")

	both := successPayload(t, execTool(t, tool, `{"protocol":"both"}`))
	echelon, ok := both["echelon"].(map[string]interface{})
	if !ok {
		t.Fatalf("echelon entry type %T", both["echelon"])
	}
	wantString(t, echelon, "error", "Unable to fetch data from Echelon API")
	move, ok := both["moveposition"].(map[string]interface{})
	if !ok {
		t.Fatalf("moveposition entry type %T", both["moveposition"])
	}
	if _, present := move["error"]; present {
		t.Error("moveposition metrics should be available")
	}
}

func TestRecommendLend(t *testing.T) {
	catalog := newLendingTools(t, serveJSON(echelonFixture), serveJSON(brokersFixture))
	tool := findTool(t, catalog, "recommend_best_protocol")

	payload := successPayload(t, execTool(t, tool, `{"action":"lend","asset":"USDC"}`))

	wantString(t, payload, "action", "lend")
	wantString(t, payload, "asset", "USDC")
	wantString(t, payload, "recommended_protocol", "MovePosition")
	wantString(t, payload, "reason", "Higher supply APY (7.20% vs 5.13%)")
	wantString(t, payload, "moveposition_rate", "7.20%")
	wantString(t, payload, "echelon_rate", "5.13%")
	wantString(t, payload, "moveposition_tvl", "$1,000,000.00")
	wantString(t, payload, "echelon_tvl", "$1,000,000.00")
	wantString(t, payload, "advantage", "+2.07% APY")
	wantString(t, payload, "message", "MovePosition is recommended for lending USDC")
	wantString(t, payload, "user_prompt", "Which platform would you like to proceed with to lend USDC? Please select 'MovePosition' or 'Echelon'.")
}

func TestRecommendLendEchelonDown(t *testing.T) {
	catalog := newLendingTools(t, serveStatus(http.StatusInternalServerError), serveJSON(brokersFixture))
	tool := findTool(t, catalog, "recommend_best_protocol")

	payload := successPayload(t, execTool(t, tool, `{"action":"lend","asset":"USDC"}`))

	wantString(t, payload, "recommended_protocol", "MovePosition")
	wantString(t, payload, "reason", "MovePosition available with 7.20% APY (Echelon data unavailable)")
	wantString(t, payload, "moveposition_rate", "7.20%")
	wantString(t, payload, "echelon_rate", "N/A")
	wantString(t, payload, "echelon_tvl", "N/A")
	wantString(t, payload, "message", "MovePosition is available for lending USDC at 7.20% APY. Echelon data is currently unavailable.")
	wantString(t, payload, "user_prompt", "Would you like to proceed with MovePosition to lend USDC?")
}

func TestRecommendLendMoveDown(t *testing.T) {
	catalog := newLendingTools(t, serveJSON(echelonFixture), serveStatus(http.StatusInternalServerError))
	tool := findTool(t, catalog, "recommend_best_protocol")

	payload := successPayload(t, execTool(t, tool, `{"action":"lend","asset":"USDC"}`))

	wantString(t, payload, "recommended_protocol", "Echelon")
	wantString(t, payload, "reason", "Echelon available with 5.13% APY (MovePosition data unavailable)")
	wantString(t, payload, "moveposition_rate", "N/A")
	wantString(t, payload, "echelon_rate", "5.13%")
	wantString(t, payload, "user_prompt", "Would you like to proceed with Echelon to lend USDC?")
}

func TestRecommendLendBothDown(t *testing.T) {
	catalog := newLendingTools(t, serveStatus(http.StatusBadGateway), serveStatus(http.StatusBadGateway))
	tool := findTool(t, catalog, "recommend_best_protocol")

	payload := successPayload(t, execTool(t, tool, `{"action":"lend","asset":"USDC"}`))

	wantString(t, payload, "action", "lend")
	wantString(t, payload, "error", "Unable to fetch data from either protocol")
	wantString(t, payload, "message", "Cannot make recommendation - both protocols are currently unavailable. Please try again later.")
}

func TestRecommendBorrow(t *testing.T) {
	catalog := newLendingTools(t, serveJSON(echelonFixture), serveJSON(brokersFixture))
	tool := findTool(t, catalog, "recommend_best_protocol")

	payload := successPayload(t, execTool(t, tool, `{"action":"borrow","asset":"USDC"}`))

	wantString(t, payload, "action", "borrow")
	wantString(t, payload, "recommended_protocol", "Echelon")
	wantString(t, payload, "reason", "Lower borrow APR (8.00% vs 10.00%) and higher LTV (75.00%)")
	wantString(t, payload, "moveposition_rate", "10.00%")
	wantString(t, payload, "echelon_rate", "8.00%")
	wantString(t, payload, "moveposition_utilization", "90.00%")
	wantString(t, payload, "echelon_ltv", "75.00%")
	wantString(t, payload, "advantage", "-2.00% APR")
	wantString(t, payload, "message", "Echelon is recommended for borrowing USDC")
	wantString(t, payload, "user_prompt", "Which platform would you like to proceed with to borrow USDC? Please select 'MovePosition' or 'Echelon'.")
}

func TestRecommendBorrowMoveWins(t *testing.T) {
	catalog := newLendingTools(t, serveJSON(echelonFixture), serveJSON(brokersFixture))
	tool := findTool(t, catalog, "recommend_best_protocol")

	payload := successPayload(t, execTool(t, tool, `{"action":"borrow","asset":"MOVE"}`))

	wantString(t, payload, "recommended_protocol", "MovePosition")
	wantString(t, payload, "reason", "Lower borrow APR (30.00% vs 40.00%)")
	wantString(t, payload, "advantage", "-10.00% APR")
	wantString(t, payload, "message", "MovePosition is recommended for borrowing MOVE")
}

func TestRecommendBorrowEchelonDown(t *testing.T) {
	catalog := newLendingTools(t, serveStatus(http.StatusInternalServerError), serveJSON(brokersFixture))
	tool := findTool(t, catalog, "recommend_best_protocol")

	payload := successPayload(t, execTool(t, tool, `{"action":"borrow","asset":"USDC"}`))

	wantString(t, payload, "recommended_protocol", "MovePosition")
	wantString(t, payload, "reason", "MovePosition available with 10.00% APR (Echelon data unavailable)")
	wantString(t, payload, "echelon_rate", "N/A")
	wantString(t, payload, "echelon_ltv", "N/A")
	wantString(t, payload, "moveposition_utilization", "90.00%")
	wantString(t, payload, "message", "MovePosition is available for borrowing USDC at 10.00% APR. Echelon data is currently unavailable.")
	wantString(t, payload, "user_prompt", "Would you like to proceed with MovePosition to borrow USDC?")
}

func TestRecommendInvalidAction(t *testing.T) {
	catalog := newLendingTools(t, serveJSON(echelonFixture), serveJSON(brokersFixture))
	tool := findTool(t, catalog, "recommend_best_protocol")

	payload := successPayload(t, execTool(t, tool, `{"action":"stake"}`))

	wantString(t, payload, "error", "Invalid action. Use 'lend' or 'borrow'")
	wantString(t, payload, "message", "Please specify 'lend' or 'borrow'")
}

func TestBestSupplyRateSingleAsset(t *testing.T) {
	catalog := newLendingTools(t, serveJSON(echelonFixture), serveJSON(brokersFixture))
	tool := findTool(t, catalog, "get_best_supply_rate")

	payload := successPayload(t, execTool(t, tool, `{"asset":"usdc"}`))

	wantString(t, payload, "asset", "USDC")
	if payload["best_protocol"] != "MovePosition" {
		t.Errorf("best_protocol = %v", payload["best_protocol"])
	}
	wantString(t, payload, "best_rate", "7.2000%")
	wantString(t, payload, "rate_type", "APY")
	wantString(t, payload, "note", "All rates converted to APY for fair comparison")
	wantString(t, payload, "message", "Best supply rate for USDC is 7.2000% APY on MovePosition")

	rates, ok := payload["all_rates"].([]markets.RateEntry)
	if !ok {
		t.Fatalf("all_rates type %T", payload["all_rates"])
	}
	if len(rates) != 2 {
		t.Fatalf("all_rates has %d entries, want 2", len(rates))
	}
	if rates[0].Protocol != markets.ProtocolEchelon || rates[1].Protocol != markets.ProtocolMovePosition {
		t.Errorf("rate order = %s, %s", rates[0].Protocol, rates[1].Protocol)
	}
	if rates[0].SupplyRateAPR == nil || math.Abs(*rates[0].SupplyRateAPR-5.0) > 1e-9 {
		t.Errorf("echelon supply_rate_apr = %v, want 5.0", rates[0].SupplyRateAPR)
	}
	if math.Abs(rates[0].SupplyRate-5.1267) > 0.001 {
		t.Errorf("echelon supply_rate = %v, want about 5.1267", rates[0].SupplyRate)
	}
	if rates[1].SupplyRateAPR != nil {
		t.Error("moveposition entries should not carry supply_rate_apr")
	}
}

func TestBestSupplyRateDiscovery(t *testing.T) {
	catalog := newLendingTools(t, serveJSON(echelonFixture), serveJSON(brokersFixture))
	tool := findTool(t, catalog, "get_best_supply_rate")

	payload := successPayload(t, execTool(t, tool, `{}`))

	if payload["best_protocol"] != "MovePosition" {
		t.Errorf("best_protocol = %v", payload["best_protocol"])
	}
	wantString(t, payload, "best_asset", "MOVE-FA")
	wantString(t, payload, "best_rate", "22.8000%")
	wantString(t, payload, "message", "Best supply rate is 22.8000% APY for MOVE-FA on MovePosition")
	if got := payload["total_assets_compared"]; got != 4 {
		t.Errorf("total_assets_compared = %v, want 4", got)
	}

	top, ok := payload["top_5_rates"].([]markets.RateEntry)
	if !ok {
		t.Fatalf("top_5_rates type %T", payload["top_5_rates"])
	}
	if len(top) != 4 {
		t.Fatalf("top_5_rates has %d entries, want 4", len(top))
	}
	wantOrder := []string{"MOVE-FA", "MOVE", "USDC", "USDC"}
	for i, entry := range top {
		if entry.Asset != wantOrder[i] {
			t.Errorf("top_5_rates[%d].Asset = %q, want %q", i, entry.Asset, wantOrder[i])
		}
	}
	for i := 1; i < len(top); i++ {
		if top[i].SupplyRate > top[i-1].SupplyRate {
			t.Errorf("top_5_rates not sorted at %d: %v > %v", i, top[i].SupplyRate, top[i-1].SupplyRate)
		}
	}
}

func TestBestSupplyRateAssetNotFound(t *testing.T) {
	catalog := newLendingTools(t, serveJSON(echelonFixture), serveJSON(brokersFixture))
	tool := findTool(t, catalog, "get_best_supply_rate")

	payload := successPayload(t, execTool(t, tool, `{"asset":"doge"}`))

	wantString(t, payload, "asset", "DOGE")
	wantString(t, payload, "error", "Asset not found in either protocol")
	wantString(t, payload, "message", "DOGE is not available on MovePosition or Echelon")
}

func TestBestSupplyRateFeedsDown(t *testing.T) {
	catalog := newLendingTools(t, serveStatus(http.StatusBadGateway), serveStatus(http.StatusBadGateway))
	tool := findTool(t, catalog, "get_best_supply_rate")

	payload := successPayload(t, execTool(t, tool, `{}`))

	wantString(t, payload, "error", "Unable to fetch data from protocols")
	wantString(t, payload, "message", "Both protocols are currently unavailable")
}

func TestBestSupplyRateEmptyFeeds(t *testing.T) {
	empty := `{"data": {"assets": [], "marketStats": []}}`
	catalog := newLendingTools(t, serveJSON(empty), serveStatus(http.StatusBadGateway))
	tool := findTool(t, catalog, "get_best_supply_rate")

	payload := successPayload(t, execTool(t, tool, `{}`))

	wantString(t, payload, "error", "No rates available")
	wantString(t, payload, "message", "Unable to fetch rates from either protocol")
}

func writeToolPayload(t *testing.T, res *core.ToolResult) map[string]string {
	t.Helper()
	if !res.Success {
		t.Fatalf("tool failed: %s", res.Error)
	}
	payload, ok := res.Data.(map[string]string)
	if !ok {
		t.Fatalf("payload type %T, want map[string]string", res.Data)
	}
	return payload
}

func TestSupplyCollateral(t *testing.T) {
	catalog := newLendingTools(t, serveJSON(echelonFixture), serveJSON(brokersFixture))
	tool := findTool(t, catalog, "supply_collateral")

	payload := writeToolPayload(t, execTool(t, tool, `{"asset":"USDC","amount":"1000","protocol":"echelon"}`))

	if payload["status"] != "success" {
		t.Errorf("status = %q", payload["status"])
	}
	if payload["collateral_value"] != "1000 USDC" {
		t.Errorf("collateral_value = %q", payload["collateral_value"])
	}
	if payload["borrowing_power"] != "750.00 USDC" {
		t.Errorf("borrowing_power = %q", payload["borrowing_power"])
	}
	if payload["message"] != "Supplied 1000 USDC as collateral on echelon" {
		t.Errorf("message = %q", payload["message"])
	}
}

func TestSupplyCollateralBadAmount(t *testing.T) {
	catalog := newLendingTools(t, serveJSON(echelonFixture), serveJSON(brokersFixture))
	tool := findTool(t, catalog, "supply_collateral")

	res := execTool(t, tool, `{"asset":"USDC","amount":"lots"}`)
	if res.Success {
		t.Fatal("expected failure for non-numeric amount")
	}
	if !strings.Contains(res.Error, "invalid amount") {
		t.Errorf("error = %q", res.Error)
	}
}

func TestBorrowRepayAndHealth(t *testing.T) {
	catalog := newLendingTools(t, serveJSON(echelonFixture), serveJSON(brokersFixture))

	borrow := writeToolPayload(t, execTool(t, findTool(t, catalog, "borrow_asset"), `{"asset":"USDC","amount":"500"}`))
	if borrow["protocol"] != "moveposition" {
		t.Errorf("borrow defaults to %q, want moveposition", borrow["protocol"])
	}
	if borrow["interest_rate"] != "5.5%" || borrow["health_factor"] != "1.8" {
		t.Errorf("borrow payload = %v", borrow)
	}
	if borrow["message"] != "Borrowed 500 USDC from moveposition" {
		t.Errorf("borrow message = %q", borrow["message"])
	}

	repay := writeToolPayload(t, execTool(t, findTool(t, catalog, "repay_loan"), `{"asset":"USDC","amount":"200","protocol":"echelon"}`))
	if repay["remaining_debt"] != "200 USDC" || repay["health_factor"] != "2.5" {
		t.Errorf("repay payload = %v", repay)
	}
	if repay["message"] != "Repaid 200 USDC on echelon" {
		t.Errorf("repay message = %q", repay["message"])
	}

	health := writeToolPayload(t, execTool(t, findTool(t, catalog, "check_health_factor"), `{}`))
	if health["protocol"] != "moveposition" || health["status"] != "healthy" {
		t.Errorf("health payload = %v", health)
	}
	if health["message"] != "Health factor check for moveposition" {
		t.Errorf("health message = %q", health["message"])
	}
}
