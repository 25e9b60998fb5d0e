package source

import (
	"regexp"

	"github.com/sells-group/price-truth/internal/fetcher"
)

var allegroStrategies = []selectorStrategy{
	{
		name: "price-meta",
		re:   regexp.MustCompile(`"price":\s*"?([\d.,]{1,16})"?`),
	},
	{
		name: "price-span",
		re:   regexp.MustCompile(`aria-label="[^"]*cena[^"]*"[^>]*>([^<]{1,32})<`),
	},
}

// NewAllegro creates an adapter for the Polish marketplace allegro.pl.
func NewAllegro(f fetcher.Fetcher) Adapter {
	return &htmlAdapter{
		name:       "allegro",
		domain:     "allegro.pl",
		currency:   "PLN",
		searchPath: "/listing?string=%s",
		strategies: allegroStrategies,
		fetcher:    f,
	}
}
