package currency

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/sells-group/price-truth/internal/fetcher"
	"github.com/sells-group/price-truth/internal/monitoring"
)

type stubProvider struct {
	rate  decimal.Decimal
	err   error
	calls atomic.Int64
}

func (s *stubProvider) Rate(context.Context, string, string) (decimal.Decimal, error) {
	s.calls.Add(1)
	return s.rate, s.err
}

func TestConvert_SameCurrencyPassesThrough(t *testing.T) {
	prov := &stubProvider{err: eris.New("should not be called")}
	c := NewConverter(prov, nil)

	amount := decimal.RequireFromString("49.99")
	got, ok := c.Convert(context.Background(), amount, "EUR", "EUR")
	require.True(t, ok)
	assert.True(t, amount.Equal(got))
	assert.Equal(t, int64(0), prov.calls.Load())
}

func TestConvert_AppliesRate(t *testing.T) {
	prov := &stubProvider{rate: decimal.RequireFromString("0.92")}
	c := NewConverter(prov, nil)

	got, ok := c.Convert(context.Background(), decimal.RequireFromString("100"), "USD", "EUR")
	require.True(t, ok)
	assert.Equal(t, "92", got.String())
}

func TestConvert_FailureExcludesAndCounts(t *testing.T) {
	metrics := &monitoring.Metrics{}
	c := NewConverter(&stubProvider{err: eris.New("rate api down")}, metrics)

	_, ok := c.Convert(context.Background(), decimal.NewFromInt(10), "USD", "EUR")
	assert.False(t, ok)
	assert.Equal(t, int64(1), metrics.Collect().ConversionErrors)
}

func TestConvert_NoProviderExcludes(t *testing.T) {
	metrics := &monitoring.Metrics{}
	c := NewConverter(nil, metrics)

	_, ok := c.Convert(context.Background(), decimal.NewFromInt(10), "USD", "EUR")
	assert.False(t, ok)
	assert.Equal(t, int64(1), metrics.Collect().ConversionErrors)
}

func TestCachedProvider_ServesFromCache(t *testing.T) {
	prov := &stubProvider{rate: decimal.RequireFromString("1.08")}
	cached := NewCachedProvider(prov, time.Minute)

	for range 3 {
		got, err := cached.Rate(context.Background(), "EUR", "USD")
		require.NoError(t, err)
		assert.Equal(t, "1.08", got.String())
	}
	assert.Equal(t, int64(1), prov.calls.Load())
}

func TestCachedProvider_DoesNotCacheFailures(t *testing.T) {
	prov := &stubProvider{err: eris.New("down")}
	cached := NewCachedProvider(prov, time.Minute)

	_, err := cached.Rate(context.Background(), "EUR", "USD")
	require.Error(t, err)
	prov.err = nil
	prov.rate = decimal.NewFromInt(2)

	got, err := cached.Rate(context.Background(), "EUR", "USD")
	require.NoError(t, err)
	assert.Equal(t, "2", got.String())
	assert.Equal(t, int64(2), prov.calls.Load())
}

func TestHTTPRateProvider(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "USD", r.URL.Query().Get("from"))
		assert.Equal(t, "EUR", r.URL.Query().Get("to"))
		_, _ = w.Write([]byte(`{"rates":{"EUR":0.9234}}`))
	}))
	defer srv.Close()

	p := &HTTPRateProvider{
		BaseURL: srv.URL,
		Fetcher: fetcher.NewHTTPFetcher(fetcher.HTTPOptions{HostRate: rate.Inf, BackoffBase: time.Millisecond}),
	}
	got, err := p.Rate(context.Background(), "USD", "EUR")
	require.NoError(t, err)
	assert.Equal(t, "0.9234", got.String())
}

func TestHTTPRateProvider_MissingRate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"rates":{}}`))
	}))
	defer srv.Close()

	p := &HTTPRateProvider{
		BaseURL: srv.URL,
		Fetcher: fetcher.NewHTTPFetcher(fetcher.HTTPOptions{HostRate: rate.Inf, BackoffBase: time.Millisecond}),
	}
	_, err := p.Rate(context.Background(), "USD", "EUR")
	require.Error(t, err)
}

func TestValidCode(t *testing.T) {
	assert.True(t, ValidCode("EUR"))
	assert.True(t, ValidCode("PLN"))
	assert.False(t, ValidCode("EURO"))
	assert.False(t, ValidCode(""))
}
