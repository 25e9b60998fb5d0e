package source

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/price-truth/internal/fetcher"
)

// pageFetcher serves a canned page and records the requested URL.
type pageFetcher struct {
	page    fetcher.Page
	err     error
	lastURL string
}

func (p *pageFetcher) Fetch(_ context.Context, url string) (*fetcher.Page, error) {
	p.lastURL = url
	if p.err != nil {
		return nil, p.err
	}
	pg := p.page
	if pg.StatusCode == 0 {
		pg.StatusCode = 200
	}
	return &pg, nil
}

func TestAmazonAdapter_ExtractsOffscreenPrice(t *testing.T) {
	f := &pageFetcher{page: fetcher.Page{Body: `
		<div class="a-section">
			<span class="a-price"><span class="a-offscreen">1.234,56&nbsp;€</span></span>
		</div>`}}
	a := NewAmazon("DE", f)

	res, err := a.ExtractPrice(context.Background(), Query{ProductName: "thinkpad x1", CountryCode: "DE"})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.True(t, res.HasPrice)
	assert.Equal(t, "1234.56", res.Price.String())
	assert.Equal(t, "EUR", res.Currency)
	assert.Contains(t, f.lastURL, "www.amazon.de/s?k=thinkpad+x1")
}

func TestAmazonAdapter_JoinsWholeAndFractionSpans(t *testing.T) {
	f := &pageFetcher{page: fetcher.Page{Body: `
		<span class="a-price-whole">899<span class="a-price-decimal">,</span></span><span class="a-price-fraction">99</span>`}}
	a := NewAmazon("DE", f)

	res, err := a.ExtractPrice(context.Background(), Query{ProductName: "widget"})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "899.99", res.Price.String(), "cents in the fraction span must not be dropped")
}

func TestAmazonAdapter_WholeSpanWithoutFraction(t *testing.T) {
	f := &pageFetcher{page: fetcher.Page{Body: `
		<span class="a-price-whole">899</span>`}}
	a := NewAmazon("DE", f)

	res, err := a.ExtractPrice(context.Background(), Query{ProductName: "widget"})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "899", res.Price.String())
}

func TestAdapter_SelectorMissIsFinalFailure(t *testing.T) {
	f := &pageFetcher{page: fetcher.Page{Body: `<html>captcha wall</html>`}}
	a := NewEbay("US", f)

	res, err := a.ExtractPrice(context.Background(), Query{ProductName: "widget"})
	require.NoError(t, err, "selector miss is a result, not an error")
	assert.False(t, res.Success)
	assert.False(t, res.HasPrice)
	assert.NotEmpty(t, res.ErrorMessage)
}

func TestAdapter_CapabilityUnavailable(t *testing.T) {
	for _, a := range []Adapter{
		NewAmazon("DE", nil),
		NewIdealo(fetcher.Unavailable{}),
	} {
		res, err := a.ExtractPrice(context.Background(), Query{ProductName: "widget"})
		require.NoError(t, err)
		assert.False(t, res.Success)
		assert.False(t, res.HasPrice)
		assert.Equal(t, ErrCodeCapabilityUnavailable, res.ErrorMessage)
	}
}

func TestAdapter_TransportErrorPropagates(t *testing.T) {
	f := &pageFetcher{err: eris.New("i/o timeout")}
	a := NewAllegro(f)

	_, err := a.ExtractPrice(context.Background(), Query{ProductName: "widget"})
	require.Error(t, err)
}

func TestAdapter_CurrencySniffOverridesMarketDefault(t *testing.T) {
	// A USD-labeled offer on a EUR marketplace keeps its own currency.
	f := &pageFetcher{page: fetcher.Page{Body: `<span class="s-item__price">$120.00</span>`}}
	a := NewEbay("DE", f)

	res, err := a.ExtractPrice(context.Background(), Query{ProductName: "widget"})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "USD", res.Currency)
}

func TestEbayAdapter_ParsesUSFormat(t *testing.T) {
	f := &pageFetcher{page: fetcher.Page{Body: `<span class="s-item__price">$1,299.00</span>`}}
	a := NewEbay("US", f)

	res, err := a.ExtractPrice(context.Background(), Query{ProductName: "widget"})
	require.NoError(t, err)
	assert.Equal(t, "1299", res.Price.String())
	assert.Equal(t, "USD", res.Currency)
}

func TestRegistry_CountryMappingAndCap(t *testing.T) {
	r := DefaultRegistry(fetcher.Unavailable{})

	de := r.AdaptersFor("DE", 0)
	names := make([]string, 0, len(de))
	for _, a := range de {
		names = append(names, a.Name())
	}
	assert.Equal(t, []string{"amazon", "ebay", "idealo"}, names)

	assert.Len(t, r.AdaptersFor("de", 2), 2, "lookup is case-insensitive and capped")
	assert.Empty(t, r.AdaptersFor("FR", 0), "unregistered market has no sources")
	assert.ElementsMatch(t, []string{"DE", "PL", "SE", "US", "GB"}, r.Countries())
}
