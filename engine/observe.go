package engine

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/movementfi/moveyield/core"
)

// ObservationFormatter lets a tool customize how its result reads in a
// trace.
type ObservationFormatter interface {
	FormatObservation(result *core.ToolResult, err error) string
}

// formatObservation renders a tool outcome for the trace log.
func formatObservation(tool core.Tool, result *core.ToolResult, err error) string {
	if formatter, ok := tool.(ObservationFormatter); ok {
		return formatter.FormatObservation(result, err)
	}

	if err != nil {
		return fmt.Sprintf("Error: %s", err.Error())
	}
	if result == nil {
		return "No result returned"
	}
	if !result.Success {
		return fmt.Sprintf("Failed: %s", result.Error)
	}

	switch v := result.Data.(type) {
	case map[string]interface{}:
		if msg, ok := v["message"].(string); ok {
			return msg
		}
		if status, ok := v["status"].(string); ok {
			return fmt.Sprintf("Success: %s", status)
		}
		bytes, _ := json.Marshal(v)
		return string(bytes)
	case string:
		return v
	default:
		return fmt.Sprintf("Success: %v", v)
	}
}

// categorizeError buckets an error message so failed traces carry a
// machine-readable type.
func categorizeError(errMsg string) string {
	if errMsg == "" {
		return "unknown"
	}

	errLower := strings.ToLower(errMsg)

	switch {
	case strings.Contains(errLower, "insufficient"), strings.Contains(errLower, "not enough"):
		return "insufficient_balance"
	case strings.Contains(errLower, "not found"), strings.Contains(errLower, "not available"):
		return "not_found"
	case strings.Contains(errLower, "invalid"), strings.Contains(errLower, "malformed"):
		return "invalid_input"
	case strings.Contains(errLower, "unauthorized"), strings.Contains(errLower, "forbidden"):
		return "permission_denied"
	case strings.Contains(errLower, "timeout"), strings.Contains(errLower, "deadline"):
		return "timeout"
	case strings.Contains(errLower, "rate limit"), strings.Contains(errLower, "too many"):
		return "rate_limit"
	case strings.Contains(errLower, "network"), strings.Contains(errLower, "connection"), strings.Contains(errLower, "unavailable"):
		return "network_error"
	default:
		return "unknown"
	}
}

// generatePrevention suggests how to avoid a repeat of this failure.
// The hint is stored in trace metadata and surfaces in retrieved
// memories.
func generatePrevention(action, errorType string) string {
	preventionMap := map[string]string{
		"supply_collateral:insufficient_balance": "Check wallet balance with get_balance before supplying",
		"supply_collateral:not_found":            "Resolve the asset with compare_lending_rates before supplying",
		"borrow_asset:insufficient_balance":      "Check protocol liquidity with get_protocol_metrics before borrowing",
		"borrow_asset:invalid_input":             "Verify the asset is listed and the amount is positive before borrowing",
		"repay_loan:insufficient_balance":        "Check wallet balance covers the repayment before repaying",
		"compare_lending_rates:network_error":    "Retry once the protocol feeds are reachable",
		"compare_borrowing_rates:network_error":  "Retry once the protocol feeds are reachable",
		"get_balance:invalid_input":              "Validate the address starts with 0x and is hex before querying",
	}

	key := action + ":" + errorType
	if prevention, ok := preventionMap[key]; ok {
		return prevention
	}

	switch errorType {
	case "insufficient_balance":
		return "Check balance before attempting operation"
	case "not_found":
		return "Verify the asset exists on the protocol before referencing it"
	case "invalid_input":
		return "Validate input parameters before submission"
	case "rate_limit":
		return "Implement retry with backoff"
	case "timeout":
		return "Retry operation with timeout handling"
	default:
		return "Review error message and adjust approach accordingly"
	}
}
