package settings

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/sells-group/price-truth/internal/db"
	"github.com/sells-group/price-truth/internal/model"
)

// PostgresStore implements Store against the market_settings table.
type PostgresStore struct {
	pool db.Pool
}

// NewPostgres creates a PostgresStore.
func NewPostgres(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// GetMarketSettings fetches settings for a user/country pair; nil when
// absent.
func (s *PostgresStore) GetMarketSettings(ctx context.Context, userID, countryCode string) (*model.MarketSettings, error) {
	ms := &model.MarketSettings{}
	err := s.pool.QueryRow(ctx, `
		SELECT user_id, country_code, price_publish_min, price_publish_max,
		       price_variance_threshold, currency_preference, enabled
		FROM market_settings
		WHERE user_id = $1 AND country_code = $2`,
		userID, countryCode,
	).Scan(
		&ms.UserID, &ms.CountryCode, &ms.PricePublishMin, &ms.PricePublishMax,
		&ms.PriceVarianceThreshold, &ms.CurrencyPreference, &ms.Enabled,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "settings: get %s/%s", userID, countryCode)
	}
	return ms, nil
}
