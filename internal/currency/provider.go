// Package currency converts observation prices into the target currency.
// Rate lookup is an external collaborator behind RateProvider; everything
// here treats a missing rate as "exclude this observation", never as a
// pipeline error.
package currency

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"

	"github.com/sells-group/price-truth/internal/fetcher"
)

// RateProvider looks up the exchange rate from one ISO 4217 code to
// another.
type RateProvider interface {
	Rate(ctx context.Context, from, to string) (decimal.Decimal, error)
}

// ValidCode reports whether code is a well-formed ISO 4217 currency code.
func ValidCode(code string) bool {
	_, err := currency.ParseISO(code)
	return err == nil
}

// HTTPRateProvider fetches rates from a JSON rate API shaped like
// GET {base}?from=EUR&to=USD → {"rates":{"USD":1.08}}.
type HTTPRateProvider struct {
	BaseURL string
	Fetcher fetcher.Fetcher
}

type ratesResponse struct {
	Rates map[string]json.Number `json:"rates"`
}

// Rate fetches and parses a single exchange rate.
func (p *HTTPRateProvider) Rate(ctx context.Context, from, to string) (decimal.Decimal, error) {
	if p.Fetcher == nil {
		return decimal.Decimal{}, eris.New("currency: no fetcher configured")
	}
	url := fmt.Sprintf("%s?from=%s&to=%s", p.BaseURL, from, to)
	page, err := p.Fetcher.Fetch(ctx, url)
	if err != nil {
		return decimal.Decimal{}, eris.Wrapf(err, "currency: fetch rate %s->%s", from, to)
	}
	if page.StatusCode != 200 {
		return decimal.Decimal{}, eris.Errorf("currency: rate api status %d", page.StatusCode)
	}

	var resp ratesResponse
	if err := json.Unmarshal([]byte(page.Body), &resp); err != nil {
		return decimal.Decimal{}, eris.Wrap(err, "currency: decode rate response")
	}
	raw, ok := resp.Rates[strings.ToUpper(to)]
	if !ok {
		return decimal.Decimal{}, eris.Errorf("currency: no rate for %s in response", to)
	}
	rate, err := decimal.NewFromString(raw.String())
	if err != nil || !rate.IsPositive() {
		return decimal.Decimal{}, eris.Errorf("currency: bad rate %q for %s->%s", raw.String(), from, to)
	}
	return rate, nil
}

type cacheEntry struct {
	rate      decimal.Decimal
	expiresAt time.Time
}

// CachedProvider wraps a RateProvider with a short-TTL cache. Rates are
// read-mostly; one cache is shared safely across concurrent validations.
type CachedProvider struct {
	Next RateProvider
	TTL  time.Duration

	mu    sync.RWMutex
	rates map[string]cacheEntry
}

// NewCachedProvider wraps next with a TTL cache. TTL <= 0 defaults to 15m.
func NewCachedProvider(next RateProvider, ttl time.Duration) *CachedProvider {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &CachedProvider{Next: next, TTL: ttl, rates: make(map[string]cacheEntry)}
}

// Rate serves from cache when fresh, otherwise delegates and caches.
// Failures are not cached: a later observation in the same run may still
// get a rate.
func (c *CachedProvider) Rate(ctx context.Context, from, to string) (decimal.Decimal, error) {
	key := from + "->" + to

	c.mu.RLock()
	e, ok := c.rates[key]
	c.mu.RUnlock()
	if ok && time.Now().Before(e.expiresAt) {
		return e.rate, nil
	}

	rate, err := c.Next.Rate(ctx, from, to)
	if err != nil {
		return decimal.Decimal{}, err
	}

	c.mu.Lock()
	c.rates[key] = cacheEntry{rate: rate, expiresAt: time.Now().Add(c.TTL)}
	c.mu.Unlock()
	return rate, nil
}
