package model

import "github.com/shopspring/decimal"

// MarketSettings is the per-user, per-country publication configuration.
// It is owned and mutated by an external configuration service; this
// subsystem only reads it.
type MarketSettings struct {
	UserID                 string          `json:"user_id"`
	CountryCode            string          `json:"country_code"`
	PricePublishMin        decimal.Decimal `json:"price_publish_min"`
	PricePublishMax        decimal.Decimal `json:"price_publish_max"`
	PriceVarianceThreshold decimal.Decimal `json:"price_variance_threshold"`
	CurrencyPreference     string          `json:"currency_preference"`
	Enabled                bool            `json:"enabled"`
}

// DefaultSettings returns the process-wide fallback used when no market
// settings exist for a user/country pair.
func DefaultSettings(countryCode string) *MarketSettings {
	return &MarketSettings{
		CountryCode:            countryCode,
		PricePublishMin:        decimal.RequireFromString("0.01"),
		PricePublishMax:        decimal.RequireFromString("10000.00"),
		PriceVarianceThreshold: decimal.RequireFromString("0.20"),
		CurrencyPreference:     "EUR",
		Enabled:                true,
	}
}
