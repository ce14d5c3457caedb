package agent

import (
	"fmt"
	"strconv"
	"strings"
)

// formatUSD renders a dollar value with comma-grouped thousands and two
// decimals, e.g. 1234567.891 becomes "$1,234,567.89".
func formatUSD(v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign = "-"
		s = s[1:]
	}
	intPart, frac, _ := strings.Cut(s, ".")
	return "$" + sign + groupThousands(intPart) + "." + frac
}

func groupThousands(digits string) string {
	n := len(digits)
	if n <= 3 {
		return digits
	}
	var b strings.Builder
	b.Grow(n + n/3)
	lead := n % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < n; i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// formatPct renders a percentage with two decimals, e.g. "5.25%".
func formatPct(v float64) string {
	return fmt.Sprintf("%.2f%%", v)
}

// formatSignedPct is formatPct with an explicit sign, e.g. "+1.30%".
func formatSignedPct(v float64) string {
	return fmt.Sprintf("%+.2f%%", v)
}

// formatRate4 renders a rate with four decimals for best-rate output.
func formatRate4(v float64) string {
	return fmt.Sprintf("%.4f%%", v)
}

// formatTokenAmount renders a token balance for display. Normal values
// get six decimals with trailing zeros trimmed; values too small for six
// decimals get eight so dust balances do not collapse to zero.
func formatTokenAmount(v float64) string {
	prec := 6
	if v < 0.000001 {
		prec = 8
	}
	s := strconv.FormatFloat(v, 'f', prec, 64)
	trimmed := strings.TrimRight(s, "0")
	trimmed = strings.TrimRight(trimmed, ".")
	if trimmed == "" || trimmed == "." {
		return s
	}
	return trimmed
}
