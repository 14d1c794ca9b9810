package analysis

import (
	"fmt"
	"math"
	"strings"
)

// FormatPercent renders a share for display. Shares at or below zero show
// as "0%"; positive shares under 0.1% show as "<0.1%" rather than a
// rounded "0.0%", which would falsely imply true zero.
func FormatPercent(p float64) string {
	switch {
	case p <= 0 || math.IsNaN(p):
		return "0%"
	case p < 0.001:
		return "<0.1%"
	default:
		return fmt.Sprintf("%.1f%%", p*100)
	}
}

// FormatInt renders a count with space-grouped thousands: 1234567 → "1 234 567".
func FormatInt(x float64) string {
	n := int64(math.Round(x))
	neg := n < 0
	if neg {
		n = -n
	}
	s := fmt.Sprintf("%d", n)
	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)
	out := strings.Join(parts, " ")
	if neg {
		return "-" + out
	}
	return out
}

// FormatAmount renders a monetary value: two decimals below 10 (rates and
// small payouts), whole numbers above.
func FormatAmount(x float64) string {
	if math.Abs(x) < 10 {
		return fmt.Sprintf("%.2f", x)
	}
	return FormatInt(x)
}
