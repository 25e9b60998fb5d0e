// Package model defines the data shapes shared across the price truth
// pipeline: per-source observations, market settings, aggregation records,
// and the validation result returned to callers.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceObservation is one source's price reading for one product query.
// It is a fact about what a source said at a point in time: created once
// by the adapter runtime, mutated exactly once to attach the converted
// price, and append-only thereafter. A failed reading is still recorded.
type PriceObservation struct {
	ID          string `json:"id"`
	ProductName string `json:"product_name"`
	CountryCode string `json:"country_code"`
	SourceName  string `json:"source_name"`

	Currency string          `json:"currency"`
	Price    decimal.Decimal `json:"price"`

	// HasPrice is deliberately separate from Success: a price is trusted
	// only when both are true. Adapters that cannot fetch must not leave
	// a plausible-looking value behind.
	HasPrice bool `json:"has_price"`
	Success  bool `json:"success"`

	// PriceInTargetCurrency is set once, post-conversion. Nil when the
	// observation failed or conversion was not possible.
	PriceInTargetCurrency *decimal.Decimal `json:"price_in_target_currency,omitempty"`

	RawText        string    `json:"raw_text,omitempty"`
	CapturedAt     time.Time `json:"captured_at"`
	ErrorMessage   string    `json:"error_message,omitempty"`
	ScreenshotPath string    `json:"screenshot_path,omitempty"`
}

// Usable reports whether this observation may contribute a price to
// aggregation.
func (o *PriceObservation) Usable() bool {
	return o.Success && o.HasPrice && o.Price.IsPositive()
}

// SetConvertedPrice records the target-currency price. This is the single
// permitted mutation after creation.
func (o *PriceObservation) SetConvertedPrice(p decimal.Decimal) {
	v := p
	o.PriceInTargetCurrency = &v
}
