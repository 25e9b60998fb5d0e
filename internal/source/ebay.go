package source

import (
	"regexp"

	"github.com/sells-group/price-truth/internal/fetcher"
)

var ebayMarkets = map[string]struct {
	domain   string
	currency string
}{
	"DE": {"www.ebay.de", "EUR"},
	"PL": {"www.ebay.pl", "PLN"},
	"SE": {"www.ebay.se", "SEK"},
	"US": {"www.ebay.com", "USD"},
	"GB": {"www.ebay.co.uk", "GBP"},
}

var ebayStrategies = []selectorStrategy{
	{
		name: "s-item-price",
		re:   regexp.MustCompile(`<span class="s-item__price">([^<]{1,32})</span>`),
	},
	{
		name: "item-price-primary",
		re:   regexp.MustCompile(`class="x-price-primary"[^>]*><span[^>]*>([^<]{1,32})<`),
	},
	{
		name: "notranslate",
		re:   regexp.MustCompile(`<span[^>]*class="notranslate"[^>]*>([^<]{1,32})</span>`),
	},
}

// NewEbay creates an adapter for the eBay marketplace of the given
// country. Unknown countries fall back to ebay.com/USD.
func NewEbay(countryCode string, f fetcher.Fetcher) Adapter {
	mkt, ok := ebayMarkets[countryCode]
	if !ok {
		mkt = ebayMarkets["US"]
	}
	return &htmlAdapter{
		name:       "ebay",
		domain:     mkt.domain,
		currency:   mkt.currency,
		searchPath: "/sch/i.html?_nkw=%s",
		strategies: ebayStrategies,
		fetcher:    f,
	}
}
