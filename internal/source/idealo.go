package source

import (
	"regexp"

	"github.com/sells-group/price-truth/internal/fetcher"
)

var idealoStrategies = []selectorStrategy{
	{
		name: "offer-price",
		re:   regexp.MustCompile(`data-testid="detailOfferPrice"[^>]*>([^<]{1,32})<`),
	},
	{
		name: "price-range-min",
		re:   regexp.MustCompile(`<span class="oopStage-priceRangeMinPrice[^"]*">([^<]{1,32})<`),
	},
	{
		name: "result-item-price",
		re:   regexp.MustCompile(`class="sr-detailedPriceInfo__price[^"]*">([^<]{1,32})<`),
	},
}

// NewIdealo creates an adapter for the German price comparison site
// idealo.de. Idealo only serves the DE market here.
func NewIdealo(f fetcher.Fetcher) Adapter {
	return &htmlAdapter{
		name:       "idealo",
		domain:     "www.idealo.de",
		currency:   "EUR",
		searchPath: "/preisvergleich/MainSearchProductCategory.html?q=%s",
		strategies: idealoStrategies,
		fetcher:    f,
	}
}
