package currency

import (
	"strconv"
	"strings"
)

// Format renders the reply "<amount> <CODE> = <converted> RUB".
func Format(m Mention, converted float64) string {
	return formatNumber(m.Amount) + " " + strings.ToUpper(m.Code) + " = " + formatNumber(converted) + " RUB"
}

// formatNumber prints the shortest representation, always with a fractional
// part: 100 -> "100.0", 12.345 -> "12.345".
func formatNumber(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
