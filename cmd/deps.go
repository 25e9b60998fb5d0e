package main

import (
	"context"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/price-truth/internal/currency"
	"github.com/sells-group/price-truth/internal/db"
	"github.com/sells-group/price-truth/internal/fetcher"
	"github.com/sells-group/price-truth/internal/monitoring"
	"github.com/sells-group/price-truth/internal/settings"
	"github.com/sells-group/price-truth/internal/store"
)

// storeHandle bundles a store with whatever needs closing behind it.
type storeHandle struct {
	store    store.Store
	settings settings.Store
	close    func()
}

func initStore(ctx context.Context) (*storeHandle, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "price-truth.db"
		}
		st, err := store.NewSQLite(dsn)
		if err != nil {
			return nil, err
		}
		if err := st.Migrate(ctx); err != nil {
			st.Close()
			return nil, eris.Wrap(err, "migrate sqlite store")
		}
		return &storeHandle{store: st, close: func() { st.Close() }}, nil
	case "postgres":
		pool, err := db.NewPool(ctx, cfg.Store.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return &storeHandle{
			store:    store.NewPostgres(pool),
			settings: settings.NewPostgres(pool),
			close:    pool.Close,
		}, nil
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

func initFetcher() *fetcher.HTTPFetcher {
	return fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		UserAgent:   cfg.Fetcher.UserAgent,
		Timeout:     cfg.Fetcher.Timeout(),
		MaxRetries:  cfg.Fetcher.MaxRetries,
		MaxBodySize: cfg.Fetcher.MaxBodyBytes,
		HostRate:    rate.Limit(cfg.Fetcher.HostRate),
		HostBurst:   cfg.Fetcher.HostBurst,
	})
}

func initConverter(f fetcher.Fetcher, metrics *monitoring.Metrics) *currency.Converter {
	provider := currency.NewCachedProvider(
		&currency.HTTPRateProvider{BaseURL: cfg.Currency.RateURL, Fetcher: f},
		cfg.Currency.CacheTTL(),
	)
	return currency.NewConverter(provider, metrics)
}
