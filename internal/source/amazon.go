package source

import (
	"regexp"

	"github.com/sells-group/price-truth/internal/fetcher"
)

// amazonMarkets maps country codes to the marketplace domain and its
// listing currency.
var amazonMarkets = map[string]struct {
	domain   string
	currency string
}{
	"DE": {"www.amazon.de", "EUR"},
	"PL": {"www.amazon.pl", "PLN"},
	"SE": {"www.amazon.se", "SEK"},
	"US": {"www.amazon.com", "USD"},
	"GB": {"www.amazon.co.uk", "GBP"},
}

// amazonStrategies is ordered by reliability: the offscreen span carries
// the full formatted price, the whole/fraction pair is assembled by
// markup, and the data attribute is the last resort on sparse pages.
var amazonStrategies = []selectorStrategy{
	{
		name: "a-offscreen",
		re:   regexp.MustCompile(`<span class="a-offscreen">([^<]{1,32})</span>`),
	},
	{
		// The cents live in a sibling span; the optional second group
		// picks them up so "899,99" does not extract as 899.
		name: "a-price-whole-fraction",
		re:   regexp.MustCompile(`(?s)<span class="a-price-whole">([\d.,]{1,16})<(?:.{0,160}?<span class="a-price-fraction">(\d{1,2})<)?`),
	},
	{
		name: "data-asin-price",
		re:   regexp.MustCompile(`data-asin-price="([\d.,]{1,16})"`),
	},
}

// NewAmazon creates an adapter for the Amazon marketplace of the given
// country. Unknown countries fall back to amazon.com/USD.
func NewAmazon(countryCode string, f fetcher.Fetcher) Adapter {
	mkt, ok := amazonMarkets[countryCode]
	if !ok {
		mkt = amazonMarkets["US"]
	}
	return &htmlAdapter{
		name:       "amazon",
		domain:     mkt.domain,
		currency:   mkt.currency,
		searchPath: "/s?k=%s",
		strategies: amazonStrategies,
		fetcher:    f,
	}
}
