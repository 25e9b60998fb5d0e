package source

import (
	"regexp"

	"github.com/shopspring/decimal"

	"github.com/sells-group/price-truth/internal/normalize"
)

// selectorStrategy is one way of locating a price inside a fetched page.
// Each adapter owns an ordered list; the first strategy whose match
// normalizes to a price wins. The first capture group holds the raw price
// text; an optional second group holds a fraction part the markup splits
// into its own element.
type selectorStrategy struct {
	name string
	re   *regexp.Regexp
}

// extract runs the strategies in priority order over the page body.
func extract(body string, strategies []selectorStrategy) (decimal.Decimal, string, string, bool) {
	for _, s := range strategies {
		for _, m := range s.re.FindAllStringSubmatch(body, 5) {
			if len(m) < 2 {
				continue
			}
			raw := m[1]
			if len(m) > 2 && m[2] != "" {
				raw = m[1] + "," + m[2]
			}
			if price, ok := normalize.Parse(raw); ok && price.IsPositive() {
				return price, raw, s.name, true
			}
		}
	}
	return decimal.Decimal{}, "", "", false
}
