package markets

import "math"

// AprToApy converts a simple annual percentage rate to the annual
// percentage yield produced by daily compounding. Both sides are
// percentages, so 5.0 in means roughly 5.13 out. Non-positive rates
// return zero.
func AprToApy(aprPct float64) float64 {
	if aprPct <= 0 {
		return 0
	}
	daily := aprPct / 100 / 365
	return (math.Pow(1+daily, 365) - 1) * 100
}

// UtilizationPct computes borrowed-to-deposited utilization as a
// percentage from a market's liability and idle cash, in any common
// unit. An empty market reports zero rather than dividing by it.
func UtilizationPct(liability, cash float64) float64 {
	total := liability + cash
	if total == 0 {
		return 0
	}
	return liability / total * 100
}
