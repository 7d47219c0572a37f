// Package currency detects currency mentions in chat text and converts the
// mentioned amount to rubles using a rate scraped from a web search page.
package currency

import (
	"regexp"
	"strings"
)

// RUB is the target currency of every conversion.
const RUB = "rub"

// Currency is a supported code with the natural-language keywords that refer to it.
type Currency struct {
	Code     string
	Keywords []string
}

// Supported lists the recognised currencies in priority order.
// Keywords are matched as literal lower-case substrings; the code itself is
// also recognised as a standalone word.
var Supported = []Currency{
	{Code: "usd", Keywords: []string{"$", "баксы", "долларов", "доллар"}},
	{Code: "eur", Keywords: []string{"€", "евро"}},
	{Code: "gbp", Keywords: []string{"£", "фунты", "фунтов"}},
	{Code: "jpy", Keywords: []string{"¥", "йен"}},
	{Code: "cny", Keywords: []string{"юаней", "юань", "يوان", "元"}},
	{Code: "aud", Keywords: []string{"ауд", "австралийских долларов"}},
	{Code: "cad", Keywords: []string{"канадских долларов", "канадский доллар"}},
	{Code: "chf", Keywords: []string{"швейцарских франков", "швейцарский франк", "fr."}},
	{Code: "sek", Keywords: []string{"шведских крон", "шведская крона"}},
	{Code: "nok", Keywords: []string{"норвежских крон", "норвежская крона"}},
	{Code: "dkk", Keywords: []string{"датских крон", "датская крона"}},
	{Code: "thb", Keywords: []string{"бат"}},
	{Code: RUB, Keywords: []string{"рублей", "руб", "₽"}},
	{Code: "idr", Keywords: []string{"рупий", "идр"}},
}

// matcher finds one keyword in lower-cased text.
type matcher struct {
	code    string
	keyword string
	order   int
	word    *regexp.Regexp
}

// index returns the byte offset of the keyword in text, or -1.
func (m matcher) index(text string) int {
	if m.word == nil {
		return strings.Index(text, m.keyword)
	}
	loc := m.word.FindStringSubmatchIndex(text)
	if loc == nil {
		return -1
	}
	return loc[2]
}

var matchers = buildMatchers(Supported)

func buildMatchers(table []Currency) []matcher {
	var out []matcher
	for i, c := range table {
		for _, kw := range c.Keywords {
			out = append(out, matcher{code: c.Code, keyword: kw, order: i})
		}
		out = append(out, matcher{
			code:    c.Code,
			keyword: c.Code,
			order:   i,
			word:    regexp.MustCompile(`(?:^|[^\p{L}\p{N}])(` + regexp.QuoteMeta(c.Code) + `)(?:[^\p{L}\p{N}]|$)`),
		})
	}
	return out
}

// IsSupported reports whether code is in the currency table.
func IsSupported(code string) bool {
	code = strings.ToLower(code)
	for _, c := range Supported {
		if c.Code == code {
			return true
		}
	}
	return false
}
