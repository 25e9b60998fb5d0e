package source

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/rotisserie/eris"

	"github.com/sells-group/price-truth/internal/fetcher"
	"github.com/sells-group/price-truth/internal/normalize"
)

// htmlAdapter is the shared implementation behind the retailer adapters:
// build a search URL, fetch the page, run the selector strategies.
type htmlAdapter struct {
	name       string
	domain     string
	currency   string
	searchPath string // fmt pattern receiving the escaped product name
	strategies []selectorStrategy
	fetcher    fetcher.Fetcher
}

func (a *htmlAdapter) Name() string   { return a.name }
func (a *htmlAdapter) Domain() string { return a.domain }

// ExtractPrice fetches the retailer search page and extracts a price.
// A missing fetch capability and a selector miss are final failures for
// the attempt; transport errors propagate so the runtime can retry.
func (a *htmlAdapter) ExtractPrice(ctx context.Context, q Query) (ExtractionResult, error) {
	if a.fetcher == nil {
		return Failed(a.name, ErrCodeCapabilityUnavailable), nil
	}

	pageURL := fmt.Sprintf("https://%s"+a.searchPath, a.domain, url.QueryEscape(q.ProductName))
	page, err := a.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		if errors.Is(err, fetcher.ErrCapabilityUnavailable) {
			return Failed(a.name, ErrCodeCapabilityUnavailable), nil
		}
		return ExtractionResult{}, eris.Wrapf(err, "source %s: fetch", a.name)
	}
	if page.StatusCode != 200 {
		return ExtractionResult{}, eris.Errorf("source %s: http %d", a.name, page.StatusCode)
	}

	price, raw, _, ok := extract(page.Body, a.strategies)
	if !ok {
		return Failed(a.name, "no price matched any selector"), nil
	}

	cur := a.currency
	if sniffed := normalize.SniffCurrency(raw); sniffed != "" {
		cur = sniffed
	}

	return ExtractionResult{
		SourceName: a.name,
		Price:      price,
		HasPrice:   true,
		Currency:   cur,
		Success:    true,
		RawText:    raw,
	}, nil
}
