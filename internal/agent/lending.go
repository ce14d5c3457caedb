package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/movementfi/moveyield/core"
	"github.com/movementfi/moveyield/internal/markets"
	"github.com/movementfi/moveyield/tools"
)

// DefaultAsset is assumed when a rate tool is called without one.
const DefaultAsset = "USDC"

// DefaultProtocol is assumed by the operation tools.
const DefaultProtocol = "moveposition"

// LendingTools builds the lending agent's catalog: five read-only rate
// tools backed by live feeds, and four operation tools. The operations
// that move funds require user confirmation; their results are simulated
// since execution happens in the user's wallet, not server side.
func LendingTools(deps *ToolDeps) []core.Tool {
	svc := deps.Markets
	return []core.Tool{
		tools.New("compare_lending_rates").
			Description("Compare lending (supply) rates between MovePosition and Echelon for an asset.").
			Schema(tools.BuildSchemaWithThought(map[string]interface{}{
				"asset": tools.StringProperty(`Asset symbol to compare (e.g. "USDC", "MOVE"). Defaults to USDC.`),
			}, false)).
			HandlerFunc(compareLendingRates(svc)).
			Build(),

		tools.New("compare_borrowing_rates").
			Description("Compare borrowing rates between MovePosition and Echelon for an asset.").
			Schema(tools.BuildSchemaWithThought(map[string]interface{}{
				"asset": tools.StringProperty(`Asset symbol to compare (e.g. "USDC", "MOVE"). Defaults to USDC.`),
			}, false)).
			HandlerFunc(compareBorrowingRates(svc)).
			Build(),

		tools.New("get_protocol_metrics").
			Description("Get comprehensive metrics (TVL, utilization, average rates) for one or both protocols.").
			Schema(tools.BuildSchemaWithThought(map[string]interface{}{
				"protocol": tools.StringEnumProperty("Protocol to inspect. Defaults to both.", "moveposition", "echelon", "both"),
			}, false)).
			HandlerFunc(protocolMetrics(svc)).
			Build(),

		tools.New("recommend_best_protocol").
			Description("Recommend the best protocol for lending or borrowing based on current rates and metrics.").
			Schema(tools.BuildSchemaWithThought(map[string]interface{}{
				"action": tools.StringEnumProperty("Either 'lend' or 'borrow'.", "lend", "borrow"),
				"asset":  tools.StringProperty("The asset to compare. Defaults to USDC."),
			}, false, "action")).
			HandlerFunc(recommendBestProtocol(svc)).
			Build(),

		tools.New("get_best_supply_rate").
			Description("Find the best supply/lending rate across MovePosition and Echelon. "+
				"Compares one asset between protocols when given, otherwise scans every asset for the overall best yield. "+
				"All rates are converted to APY for fair comparison.").
			Schema(tools.BuildSchemaWithThought(map[string]interface{}{
				"asset": tools.StringProperty(`Optional asset symbol (e.g. "USDC", "MOVE"). Omit to scan all assets.`),
			}, false)).
			HandlerFunc(bestSupplyRate(svc)).
			Build(),

		tools.New("supply_collateral").
			Description("Supply collateral to a lending protocol.").
			Schema(tools.BuildSchemaWithThought(map[string]interface{}{
				"asset":    tools.StringProperty(`Asset symbol to supply (e.g. "USDC", "MOVE").`),
				"amount":   tools.StringProperty(`Amount to supply, as a string (e.g. "1000").`),
				"protocol": tools.StringEnumProperty("Protocol to use. Defaults to moveposition.", "moveposition", "echelon"),
			}, true, "asset", "amount")).
			HandlerFunc(supplyCollateral).
			RequiresConfirmation().
			SummaryTemplate("Supply {{.amount}} {{.asset}} as collateral").
			Build(),

		tools.New("borrow_asset").
			Description("Borrow an asset from a lending protocol against supplied collateral.").
			Schema(tools.BuildSchemaWithThought(map[string]interface{}{
				"asset":    tools.StringProperty(`Asset symbol to borrow (e.g. "USDC", "MOVE").`),
				"amount":   tools.StringProperty(`Amount to borrow, as a string (e.g. "500").`),
				"protocol": tools.StringEnumProperty("Protocol to use. Defaults to moveposition.", "moveposition", "echelon"),
			}, true, "asset", "amount")).
			HandlerFunc(borrowAsset).
			RequiresConfirmation().
			SummaryTemplate("Borrow {{.amount}} {{.asset}}").
			Build(),

		tools.New("repay_loan").
			Description("Repay a loan on a lending protocol.").
			Schema(tools.BuildSchemaWithThought(map[string]interface{}{
				"asset":    tools.StringProperty(`Asset symbol to repay (e.g. "USDC", "MOVE").`),
				"amount":   tools.StringProperty(`Amount to repay, as a string (e.g. "500").`),
				"protocol": tools.StringEnumProperty("Protocol to use. Defaults to moveposition.", "moveposition", "echelon"),
			}, true, "asset", "amount")).
			HandlerFunc(repayLoan).
			RequiresConfirmation().
			SummaryTemplate("Repay {{.amount}} {{.asset}}").
			Build(),

		tools.New("check_health_factor").
			Description("Check the account health factor for a lending protocol. A health factor below 1.0 means the position can be liquidated.").
			Schema(tools.BuildSchemaWithThought(map[string]interface{}{
				"protocol": tools.StringEnumProperty("Protocol to check. Defaults to moveposition.", "moveposition", "echelon"),
			}, false)).
			HandlerFunc(checkHealthFactor).
			Build(),
	}
}

type assetInput struct {
	Asset string `json:"asset"`
}

func (in *assetInput) assetOrDefault() string {
	if in.Asset == "" {
		return DefaultAsset
	}
	return in.Asset
}

func compareLendingRates(svc *markets.Service) tools.SimpleHandler {
	return func(ctx context.Context, input json.RawMessage) (interface{}, error) {
		var in assetInput
		if err := unmarshalInput(input, &in); err != nil {
			return nil, err
		}
		asset := in.assetOrDefault()

		res, err := svc.Compare(ctx, asset, markets.ActionLend)
		if err != nil {
			return nil, err
		}

		payload := map[string]interface{}{
			"asset":        asset,
			"moveposition": lendInfo(res.MovePosition),
			"echelon":      lendInfo(res.Echelon),
			"winner":       "unknown",
			"difference":   "N/A",
			"message":      fmt.Sprintf("Lending rate comparison for %s", asset),
		}
		if res.HasBoth() {
			payload["winner"] = strings.ToLower(string(res.Winner))
			payload["difference"] = formatSignedPct(res.Difference)
		}
		return payload, nil
	}
}

// lendInfo is one protocol's supply-side summary. A nil quote means the
// asset did not resolve there, reported as N/A rather than zeros.
func lendInfo(q *markets.AssetQuote) map[string]string {
	if q == nil {
		return map[string]string{
			"supply_apy":  "N/A",
			"tvl":         "N/A",
			"utilization": "N/A",
			"liquidity":   "N/A",
		}
	}
	return map[string]string{
		"supply_apy":  formatPct(q.SupplyRateAPY),
		"tvl":         formatUSD(q.TVLUSD),
		"utilization": formatPct(q.UtilizationPct),
		"liquidity":   formatUSD(q.LiquidityUSD),
	}
}

func compareBorrowingRates(svc *markets.Service) tools.SimpleHandler {
	return func(ctx context.Context, input json.RawMessage) (interface{}, error) {
		var in assetInput
		if err := unmarshalInput(input, &in); err != nil {
			return nil, err
		}
		asset := in.assetOrDefault()

		res, err := svc.Compare(ctx, asset, markets.ActionBorrow)
		if err != nil {
			return nil, err
		}

		echelonInfo := borrowEchelonInfo(res.EchelonRaw)
		moveInfo := borrowMoveInfo(res.BrokerRaw)

		payload := map[string]interface{}{
			"asset":                asset,
			"action":               "borrow",
			"moveposition":         moveInfo,
			"echelon":              echelonInfo,
			"winner":               "unknown",
			"difference":           "N/A",
			"recommended_protocol": nil,
			"echelon_rate":         echelonInfo["borrow_apy"],
			"moveposition_rate":    moveInfo["borrow_apy"],
		}
		reason := fmt.Sprintf("Borrowing rate comparison for %s", asset)
		if res.HasBoth() {
			diff := formatSignedPct(res.Difference)
			payload["winner"] = strings.ToLower(string(res.Winner))
			payload["difference"] = diff
			payload["recommended_protocol"] = string(res.Winner)
			reason = fmt.Sprintf("Based on the comparison, %s offers a lower borrowing APR (%s).", res.Winner, diff)
		}
		payload["reason"] = reason
		payload["message"] = fmt.Sprintf("%s Which platform would you like to proceed with to borrow %s?", reason, asset)
		payload["user_prompt"] = fmt.Sprintf("Which platform would you like to proceed with to borrow %s? Please select 'MovePosition' or 'Echelon'.", asset)
		return payload, nil
	}
}

// borrowEchelonInfo reports Echelon's raw feed rates. Unlike the winner
// decision, which clamps negatives, the detail view shows the feed
// values as published.
func borrowEchelonInfo(a *markets.EchelonAsset) map[string]string {
	if a == nil {
		return map[string]string{
			"borrow_apy":                "N/A",
			"liquidation_threshold":     "N/A",
			"health_factor_requirement": "N/A",
			"max_ltv":                   "N/A",
		}
	}
	return map[string]string{
		"borrow_apy":                formatPct(a.BorrowAPR * 100),
		"liquidation_threshold":     formatPct(a.LT * 100),
		"health_factor_requirement": "1.15",
		"max_ltv":                   formatPct(a.LTV * 100),
	}
}

// borrowMoveInfo mirrors borrowEchelonInfo for MovePosition, which has
// no published LTV or liquidation data. Utilization is only reported
// when the broker resolved.
func borrowMoveInfo(b *markets.Broker) map[string]string {
	if b == nil {
		return map[string]string{
			"borrow_apy":                "N/A",
			"liquidation_threshold":     "N/A",
			"health_factor_requirement": "N/A",
			"max_ltv":                   "N/A",
		}
	}
	return map[string]string{
		"borrow_apy":                formatPct(b.InterestRate * 100),
		"liquidation_threshold":     "N/A",
		"health_factor_requirement": "N/A",
		"max_ltv":                   "N/A",
		"utilization":               formatPct(b.Utilization * 100),
	}
}

type protocolInput struct {
	Protocol string `json:"protocol"`
}

func protocolMetrics(svc *markets.Service) tools.SimpleHandler {
	return func(ctx context.Context, input json.RawMessage) (interface{}, error) {
		var in protocolInput
		if err := unmarshalInput(input, &in); err != nil {
			return nil, err
		}

		echelonM, moveM := svc.Metrics(ctx)
		switch strings.ToLower(in.Protocol) {
		case "moveposition":
			return singleProtocolMetrics(markets.ProtocolMovePosition, moveM), nil
		case "echelon":
			return singleProtocolMetrics(markets.ProtocolEchelon, echelonM), nil
		default:
			return map[string]interface{}{
				"moveposition": nestedProtocolMetrics(markets.ProtocolMovePosition, moveM),
				"echelon":      nestedProtocolMetrics(markets.ProtocolEchelon, echelonM),
				"message":      "Both protocols metrics",
			}, nil
		}
	}
}

func singleProtocolMetrics(p markets.Protocol, m *markets.ProtocolMetrics) map[string]interface{} {
	name := string(p)
	if m == nil {
		return map[string]interface{}{
			"protocol": name,
			"error":    fmt.Sprintf("Unable to fetch data from %s API", name),
			"message":  fmt.Sprintf("%s protocol metrics (data unavailable)", name),
		}
	}
	payload := map[string]interface{}{"protocol": name}
	for k, v := range metricsFields(p, m) {
		payload[k] = v
	}
	payload["message"] = fmt.Sprintf("%s protocol metrics", name)
	return payload
}

func nestedProtocolMetrics(p markets.Protocol, m *markets.ProtocolMetrics) map[string]interface{} {
	if m == nil {
		return map[string]interface{}{
			"error": fmt.Sprintf("Unable to fetch data from %s API", p),
		}
	}
	payload := map[string]interface{}{}
	for k, v := range metricsFields(p, m) {
		payload[k] = v
	}
	return payload
}

func metricsFields(p markets.Protocol, m *markets.ProtocolMetrics) map[string]string {
	fields := map[string]string{
		"tvl":              formatUSD(m.TVLUSD),
		"total_supplied":   formatUSD(m.TotalSuppliedUSD),
		"total_borrowed":   formatUSD(m.TotalBorrowedUSD),
		"utilization_rate": formatPct(m.UtilizationPct),
		"avg_supply_apy":   formatPct(m.AvgSupplyAPY),
		"avg_borrow_apy":   formatPct(m.AvgBorrowAPY),
		"safety_score":     "high",
	}
	if p == markets.ProtocolEchelon {
		fields["liquidation_threshold"] = "85%"
	}
	return fields
}

type recommendInput struct {
	Action string `json:"action"`
	Asset  string `json:"asset"`
}

func recommendBestProtocol(svc *markets.Service) tools.SimpleHandler {
	return func(ctx context.Context, input json.RawMessage) (interface{}, error) {
		var in recommendInput
		if err := unmarshalInput(input, &in); err != nil {
			return nil, err
		}
		asset := in.Asset
		if asset == "" {
			asset = DefaultAsset
		}

		switch strings.ToLower(in.Action) {
		case "lend":
			res, err := svc.Compare(ctx, asset, markets.ActionLend)
			if err != nil {
				return nil, err
			}
			return recommendLend(res, asset), nil
		case "borrow":
			res, err := svc.Compare(ctx, asset, markets.ActionBorrow)
			if err != nil {
				return nil, err
			}
			return recommendBorrow(res, asset), nil
		default:
			return map[string]interface{}{
				"error":   "Invalid action. Use 'lend' or 'borrow'",
				"message": "Please specify 'lend' or 'borrow'",
			}, nil
		}
	}
}

func recommendLend(res *markets.ComparisonResult, asset string) map[string]interface{} {
	switch {
	case res.HasBoth():
		echelonRate := res.Echelon.SupplyRateAPY
		moveRate := res.MovePosition.SupplyRateAPY

		var recommended, reason, advantage string
		if echelonRate > moveRate {
			recommended = "Echelon"
			reason = fmt.Sprintf("Higher supply APY (%.2f%% vs %.2f%%)", echelonRate, moveRate)
			advantage = fmt.Sprintf("+%.2f%% APY", echelonRate-moveRate)
		} else {
			recommended = "MovePosition"
			reason = fmt.Sprintf("Higher supply APY (%.2f%% vs %.2f%%)", moveRate, echelonRate)
			advantage = fmt.Sprintf("+%.2f%% APY", moveRate-echelonRate)
		}
		return map[string]interface{}{
			"action":               "lend",
			"asset":                asset,
			"recommended_protocol": recommended,
			"reason":               reason,
			"moveposition_rate":    formatPct(moveRate),
			"echelon_rate":         formatPct(echelonRate),
			"moveposition_tvl":     formatUSD(res.MovePosition.TVLUSD),
			"echelon_tvl":          formatUSD(res.Echelon.TVLUSD),
			"advantage":            advantage,
			"message":              fmt.Sprintf("%s is recommended for lending %s", recommended, asset),
			"user_prompt":          fmt.Sprintf("Which platform would you like to proceed with to lend %s? Please select 'MovePosition' or 'Echelon'.", asset),
		}
	case res.MovePosition != nil:
		rate := res.MovePosition.SupplyRateAPY
		return map[string]interface{}{
			"action":               "lend",
			"asset":                asset,
			"recommended_protocol": "MovePosition",
			"reason":               fmt.Sprintf("MovePosition available with %.2f%% APY (Echelon data unavailable)", rate),
			"moveposition_rate":    formatPct(rate),
			"echelon_rate":         "N/A",
			"moveposition_tvl":     formatUSD(res.MovePosition.TVLUSD),
			"echelon_tvl":          "N/A",
			"message":              fmt.Sprintf("MovePosition is available for lending %s at %.2f%% APY. Echelon data is currently unavailable.", asset, rate),
			"user_prompt":          fmt.Sprintf("Would you like to proceed with MovePosition to lend %s?", asset),
		}
	case res.Echelon != nil:
		rate := res.Echelon.SupplyRateAPY
		return map[string]interface{}{
			"action":               "lend",
			"asset":                asset,
			"recommended_protocol": "Echelon",
			"reason":               fmt.Sprintf("Echelon available with %.2f%% APY (MovePosition data unavailable)", rate),
			"moveposition_rate":    "N/A",
			"echelon_rate":         formatPct(rate),
			"moveposition_tvl":     "N/A",
			"echelon_tvl":          formatUSD(res.Echelon.TVLUSD),
			"message":              fmt.Sprintf("Echelon is available for lending %s at %.2f%% APY. MovePosition data is currently unavailable.", asset, rate),
			"user_prompt":          fmt.Sprintf("Would you like to proceed with Echelon to lend %s?", asset),
		}
	default:
		return map[string]interface{}{
			"action":  "lend",
			"asset":   asset,
			"error":   "Unable to fetch data from either protocol",
			"message": "Cannot make recommendation - both protocols are currently unavailable. Please try again later.",
		}
	}
}

// recommendBorrow builds borrow recommendations from the raw feed rates,
// matching what the detail views show.
func recommendBorrow(res *markets.ComparisonResult, asset string) map[string]interface{} {
	e, b := res.EchelonRaw, res.BrokerRaw
	switch {
	case e != nil && b != nil:
		echelonRate := e.BorrowAPR * 100
		echelonLTV := e.LTV * 100
		moveRate := b.InterestRate * 100
		moveUtil := b.Utilization * 100

		var recommended, reason, advantage string
		if echelonRate < moveRate {
			recommended = "Echelon"
			reason = fmt.Sprintf("Lower borrow APR (%.2f%% vs %.2f%%)", echelonRate, moveRate)
			if echelonLTV > 0 {
				reason += fmt.Sprintf(" and higher LTV (%.2f%%)", echelonLTV)
			}
			advantage = fmt.Sprintf("-%.2f%% APR", moveRate-echelonRate)
		} else {
			recommended = "MovePosition"
			reason = fmt.Sprintf("Lower borrow APR (%.2f%% vs %.2f%%)", moveRate, echelonRate)
			advantage = fmt.Sprintf("-%.2f%% APR", echelonRate-moveRate)
		}
		return map[string]interface{}{
			"action":                   "borrow",
			"asset":                    asset,
			"recommended_protocol":     recommended,
			"reason":                   reason,
			"moveposition_rate":        formatPct(moveRate),
			"echelon_rate":             formatPct(echelonRate),
			"moveposition_utilization": formatPct(moveUtil),
			"echelon_ltv":              formatPct(echelonLTV),
			"advantage":                advantage,
			"message":                  fmt.Sprintf("%s is recommended for borrowing %s", recommended, asset),
			"user_prompt":              fmt.Sprintf("Which platform would you like to proceed with to borrow %s? Please select 'MovePosition' or 'Echelon'.", asset),
		}
	case b != nil:
		moveRate := b.InterestRate * 100
		return map[string]interface{}{
			"action":                   "borrow",
			"asset":                    asset,
			"recommended_protocol":     "MovePosition",
			"reason":                   fmt.Sprintf("MovePosition available with %.2f%% APR (Echelon data unavailable)", moveRate),
			"moveposition_rate":        formatPct(moveRate),
			"echelon_rate":             "N/A",
			"moveposition_utilization": formatPct(b.Utilization * 100),
			"echelon_ltv":              "N/A",
			"message":                  fmt.Sprintf("MovePosition is available for borrowing %s at %.2f%% APR. Echelon data is currently unavailable.", asset, moveRate),
			"user_prompt":              fmt.Sprintf("Would you like to proceed with MovePosition to borrow %s?", asset),
		}
	case e != nil:
		echelonRate := e.BorrowAPR * 100
		return map[string]interface{}{
			"action":                   "borrow",
			"asset":                    asset,
			"recommended_protocol":     "Echelon",
			"reason":                   fmt.Sprintf("Echelon available with %.2f%% APR (MovePosition data unavailable)", echelonRate),
			"moveposition_rate":        "N/A",
			"echelon_rate":             formatPct(echelonRate),
			"moveposition_utilization": "N/A",
			"echelon_ltv":              formatPct(e.LTV * 100),
			"message":                  fmt.Sprintf("Echelon is available for borrowing %s at %.2f%% APR. MovePosition data is currently unavailable.", asset, echelonRate),
			"user_prompt":              fmt.Sprintf("Would you like to proceed with Echelon to borrow %s?", asset),
		}
	default:
		return map[string]interface{}{
			"action":  "borrow",
			"asset":   asset,
			"error":   "Unable to fetch data from either protocol",
			"message": "Cannot make recommendation - both protocols are currently unavailable. Please try again later.",
		}
	}
}

func bestSupplyRate(svc *markets.Service) tools.SimpleHandler {
	return func(ctx context.Context, input json.RawMessage) (interface{}, error) {
		var in assetInput
		if err := unmarshalInput(input, &in); err != nil {
			return nil, err
		}

		res, err := svc.BestSupplyRate(ctx, in.Asset)
		if err != nil {
			return bestRatePayloadForError(err, in.Asset)
		}
		if res.Asset != "" {
			return map[string]interface{}{
				"asset":         res.Asset,
				"best_protocol": protocolOrNil(res.BestProtocol),
				"best_rate":     formatRate4(res.BestRate),
				"rate_type":     "APY",
				"note":          "All rates converted to APY for fair comparison",
				"all_rates":     res.AllRates,
				"message":       fmt.Sprintf("Best supply rate for %s is %.4f%% APY on %s", res.Asset, res.BestRate, res.BestProtocol),
			}, nil
		}
		return map[string]interface{}{
			"best_protocol":         protocolOrNil(res.BestProtocol),
			"best_asset":            res.BestAsset,
			"best_rate":             formatRate4(res.BestRate),
			"rate_type":             "APY",
			"note":                  "All rates converted to APY for fair comparison",
			"top_5_rates":           res.TopRates(5),
			"total_assets_compared": res.TotalCompared,
			"message":               fmt.Sprintf("Best supply rate is %.4f%% APY for %s on %s", res.BestRate, res.BestAsset, res.BestProtocol),
		}, nil
	}
}

// bestRatePayloadForError translates scan failures into the structured
// payloads the agent expects, so the model sees an explanation instead
// of an opaque tool error.
func bestRatePayloadForError(err error, asset string) (interface{}, error) {
	switch {
	case errors.Is(err, markets.ErrFeedsUnavailable):
		return map[string]interface{}{
			"error":   "Unable to fetch data from protocols",
			"message": "Both protocols are currently unavailable",
		}, nil
	case errors.Is(err, markets.ErrNoRates):
		return map[string]interface{}{
			"error":   "No rates available",
			"message": "Unable to fetch rates from either protocol",
		}, nil
	case errors.Is(err, markets.ErrAssetNotFound):
		upper := strings.ToUpper(asset)
		return map[string]interface{}{
			"asset":   upper,
			"error":   "Asset not found in either protocol",
			"message": fmt.Sprintf("%s is not available on MovePosition or Echelon", upper),
		}, nil
	default:
		return nil, err
	}
}

func protocolOrNil(p markets.Protocol) interface{} {
	if p == "" {
		return nil
	}
	return string(p)
}

type positionInput struct {
	Asset    string `json:"asset"`
	Amount   string `json:"amount"`
	Protocol string `json:"protocol"`
}

func (in *positionInput) protocolOrDefault() string {
	if in.Protocol == "" {
		return DefaultProtocol
	}
	return in.Protocol
}

func supplyCollateral(ctx context.Context, input json.RawMessage) (interface{}, error) {
	var in positionInput
	if err := unmarshalInput(input, &in); err != nil {
		return nil, err
	}
	amount, err := strconv.ParseFloat(in.Amount, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: must be numeric", in.Amount)
	}
	protocol := in.protocolOrDefault()
	return map[string]string{
		"status":           "success",
		"protocol":         protocol,
		"asset":            in.Asset,
		"amount":           in.Amount,
		"collateral_value": fmt.Sprintf("%s %s", in.Amount, in.Asset),
		"borrowing_power":  fmt.Sprintf("%.2f %s", amount*0.75, in.Asset),
		"message":          fmt.Sprintf("Supplied %s %s as collateral on %s", in.Amount, in.Asset, protocol),
	}, nil
}

func borrowAsset(ctx context.Context, input json.RawMessage) (interface{}, error) {
	var in positionInput
	if err := unmarshalInput(input, &in); err != nil {
		return nil, err
	}
	protocol := in.protocolOrDefault()
	return map[string]string{
		"status":              "success",
		"protocol":            protocol,
		"asset":               in.Asset,
		"amount":              in.Amount,
		"interest_rate":       "5.5%",
		"health_factor":       "1.8",
		"liquidation_warning": "Keep health factor above 1.2 to avoid liquidation",
		"message":             fmt.Sprintf("Borrowed %s %s from %s", in.Amount, in.Asset, protocol),
	}, nil
}

func repayLoan(ctx context.Context, input json.RawMessage) (interface{}, error) {
	var in positionInput
	if err := unmarshalInput(input, &in); err != nil {
		return nil, err
	}
	protocol := in.protocolOrDefault()
	return map[string]string{
		"status":         "success",
		"protocol":       protocol,
		"asset":          in.Asset,
		"amount":         in.Amount,
		"remaining_debt": "200 USDC",
		"health_factor":  "2.5",
		"message":        fmt.Sprintf("Repaid %s %s on %s", in.Amount, in.Asset, protocol),
	}, nil
}

func checkHealthFactor(ctx context.Context, input json.RawMessage) (interface{}, error) {
	var in positionInput
	if err := unmarshalInput(input, &in); err != nil {
		return nil, err
	}
	protocol := in.protocolOrDefault()
	return map[string]string{
		"protocol":              protocol,
		"health_factor":         "1.8",
		"collateral_value":      "1000 USD",
		"borrowed_value":        "500 USD",
		"liquidation_threshold": "1.2",
		"status":                "healthy",
		"warning":               "Health factor is above liquidation threshold. Monitor regularly.",
		"message":               fmt.Sprintf("Health factor check for %s", protocol),
	}, nil
}

// unmarshalInput tolerates empty input so every tool can be called with
// defaults only.
func unmarshalInput(input json.RawMessage, v interface{}) error {
	if len(input) == 0 {
		return nil
	}
	if err := json.Unmarshal(input, v); err != nil {
		return fmt.Errorf("invalid tool input: %w", err)
	}
	return nil
}
