package source

import (
	"regexp"

	"github.com/sells-group/price-truth/internal/fetcher"
)

var pricerunnerMarkets = map[string]struct {
	domain   string
	currency string
}{
	"SE": {"www.pricerunner.se", "SEK"},
	"GB": {"www.pricerunner.com", "GBP"},
}

var pricerunnerStrategies = []selectorStrategy{
	{
		name: "lowest-price",
		re:   regexp.MustCompile(`data-testid="priceComponent"[^>]*>([^<]{1,32})<`),
	},
	{
		name: "product-price",
		re:   regexp.MustCompile(`"lowestPrice":\s*\{[^}]*"amount":\s*"?([\d.,]{1,16})"?`),
	},
}

// NewPricerunner creates an adapter for the PriceRunner comparison site.
// Unknown countries fall back to the international .com site.
func NewPricerunner(countryCode string, f fetcher.Fetcher) Adapter {
	mkt, ok := pricerunnerMarkets[countryCode]
	if !ok {
		mkt = pricerunnerMarkets["GB"]
	}
	return &htmlAdapter{
		name:       "pricerunner",
		domain:     mkt.domain,
		currency:   mkt.currency,
		searchPath: "/search?q=%s",
		strategies: pricerunnerStrategies,
		fetcher:    f,
	}
}
