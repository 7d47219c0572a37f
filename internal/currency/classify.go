package currency

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// ErrNoMention means the text does not refer to any supported currency.
var ErrNoMention = errors.New("no currency mention")

// ErrInvalidAmount means a currency was mentioned but no amount could be parsed.
var ErrInvalidAmount = errors.New("invalid amount")

// Mention is a currency reference found in a message.
type Mention struct {
	Code    string
	Amount  float64
	Keyword string
}

var separators = strings.NewReplacer(",", "", ".", "", " ", "")

// Classify maps free text to the currency it mentions and the amount to convert.
//
// The text is lower-cased and every keyword of every currency is tested; the
// longest matching keyword wins, ties going to the earlier currency in the
// table. Rubles are the conversion target, so a ruble keyword only wins when
// no other currency is mentioned: "100$ в рублях" is a dollar amount. For
// rubles the amount is the text before the keyword, for the other currencies
// it is the first word of the message with the keyword trimmed from either
// end, so "$15" and "15$" both read as 15. Commas, periods and spaces are
// dropped before parsing, so they act as thousands separators.
func Classify(text string) (Mention, error) {
	lower := strings.ToLower(text)

	best, bestIdx := longestMatch(lower, func(code string) bool { return code != RUB })
	if best < 0 {
		best, bestIdx = longestMatch(lower, func(code string) bool { return code == RUB })
	}
	if best < 0 {
		return Mention{}, ErrNoMention
	}

	m := matchers[best]
	mention := Mention{Code: m.code, Keyword: m.keyword}

	var raw string
	if m.code == RUB {
		raw = lower[:bestIdx]
	} else {
		raw = strings.Fields(lower)[0]
		raw = strings.TrimSuffix(strings.TrimPrefix(raw, m.keyword), m.keyword)
	}

	amount, err := parseAmount(raw)
	if err != nil {
		return mention, fmt.Errorf("%w for %s: %v", ErrInvalidAmount, m.code, err)
	}
	mention.Amount = amount
	return mention, nil
}

// longestMatch returns the matcher index and byte offset of the longest keyword
// found in lower among currencies accepted by keep, or -1.
func longestMatch(lower string, keep func(code string) bool) (int, int) {
	best, bestLen, bestIdx := -1, 0, 0
	for i, m := range matchers {
		if !keep(m.code) {
			continue
		}
		idx := m.index(lower)
		if idx < 0 {
			continue
		}
		n := utf8.RuneCountInString(m.keyword)
		if best < 0 || n > bestLen || (n == bestLen && m.order < matchers[best].order) {
			best, bestLen, bestIdx = i, n, idx
		}
	}
	return best, bestIdx
}

func parseAmount(raw string) (float64, error) {
	cleaned := separators.Replace(strings.TrimSpace(raw))
	if cleaned == "" {
		return 0, fmt.Errorf("empty amount")
	}
	amount, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0, fmt.Errorf("amount %q is not finite", cleaned)
	}
	return amount, nil
}
