// Package normalize parses heterogeneous raw price strings into decimal
// values. Retailer pages disagree on separators ("1.234,56" vs "1,234.56"),
// currency placement, and surrounding noise; everything here is best-effort
// and signals failure through a boolean rather than an error, because an
// unparseable price is an excluded observation, not a pipeline fault.
package normalize

import (
	"strings"

	"github.com/shopspring/decimal"
)

// currencyMarkers maps symbols and codes that may appear in raw price text
// to ISO 4217 codes. Checked longest-match-first so "SEK" wins over "EK".
var currencyMarkers = []struct {
	marker string
	code   string
}{
	{"EUR", "EUR"},
	{"USD", "USD"},
	{"GBP", "GBP"},
	{"PLN", "PLN"},
	{"SEK", "SEK"},
	{"€", "EUR"},
	{"$", "USD"},
	{"£", "GBP"},
	{"zł", "PLN"},
	{"kr", "SEK"},
}

// Parse extracts a decimal price from raw text. It strips everything except
// digits and the two separator characters, then decides which separator is
// decimal:
//   - both present: the right-most one is decimal ("1.234,56" and "1,234.56"
//     both parse to 1234.56)
//   - only ',' present: the last one is decimal when at most two digits
//     follow it, otherwise all commas group thousands ("123,45" → 123.45,
//     "1,234" → 1234, "1,234,56" → 1234.56)
//
// The second return value is false when no price can be extracted. Callers
// must treat that as "this observation contributes no price" and move on.
func Parse(raw string) (decimal.Decimal, bool) {
	cleaned := stripToNumeric(raw)
	if cleaned == "" {
		return decimal.Decimal{}, false
	}

	lastComma := strings.LastIndex(cleaned, ",")
	lastDot := strings.LastIndex(cleaned, ".")

	switch {
	case lastComma >= 0 && lastDot >= 0:
		if lastComma > lastDot {
			// EU style: '.' groups thousands, ',' is decimal.
			cleaned = strings.ReplaceAll(cleaned, ".", "")
			cleaned = strings.Replace(cleaned, ",", ".", 1)
		} else {
			// US style: ',' groups thousands.
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		}
	case lastComma >= 0:
		if len(cleaned)-lastComma-1 <= 2 {
			// The last comma is decimal; any earlier ones group
			// thousands ("1,234,56" → 1234.56).
			cleaned = strings.ReplaceAll(cleaned[:lastComma], ",", "") + "." + cleaned[lastComma+1:]
		} else {
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		}
	}

	// A stray trailing separator ("49.") still parses; multiple leftover
	// separators do not, and that is the right outcome.
	d, err := decimal.NewFromString(strings.TrimSuffix(cleaned, "."))
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

// ParseWithCurrency parses a price and additionally sniffs a currency
// symbol or code from the raw text. The currency is empty when no marker
// is present; adapters fall back to their marketplace default then.
func ParseWithCurrency(raw string) (decimal.Decimal, string, bool) {
	d, ok := Parse(raw)
	if !ok {
		return decimal.Decimal{}, "", false
	}
	return d, SniffCurrency(raw), true
}

// SniffCurrency returns the ISO code of the first currency marker found in
// the text, or empty if none.
func SniffCurrency(raw string) string {
	for _, m := range currencyMarkers {
		if strings.Contains(raw, m.marker) {
			return m.code
		}
	}
	return ""
}

// stripToNumeric removes every rune except digits, ',' and '.'. Multiple
// occurrences of the same separator survive here; Parse decides what they
// mean.
func stripToNumeric(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if (r >= '0' && r <= '9') || r == ',' || r == '.' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
