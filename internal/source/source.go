// Package source contains the retailer adapters that produce price
// observations, the registry mapping countries to adapters, and the
// runtime that wraps every adapter call with throttling, retry, and a
// hard timeout.
package source

import (
	"context"

	"github.com/shopspring/decimal"
)

// ErrCodeCapabilityUnavailable marks an extraction that failed because
// the deployment has no page-fetch capability. It is distinct from
// ordinary source failures so callers can tell "this install cannot
// scrape" from "this source was down".
const ErrCodeCapabilityUnavailable = "capability_unavailable"

// Query identifies one product lookup.
type Query struct {
	ProductName string
	CountryCode string
}

// ExtractionResult is the outcome of one adapter extraction. HasPrice is
// separate from Success on purpose: a price is trusted only when both
// hold, so a failed adapter can never leave a plausible-looking value
// behind.
type ExtractionResult struct {
	SourceName   string
	Price        decimal.Decimal
	HasPrice     bool
	Currency     string
	Success      bool
	RawText      string
	ErrorMessage string
}

// Failed builds a failed result for the given source and error code.
func Failed(sourceName, errorMessage string) ExtractionResult {
	return ExtractionResult{SourceName: sourceName, ErrorMessage: errorMessage}
}

// Adapter extracts a price for a query from one retailer. Transport-level
// problems (fetch error, timeout) are returned as an error so the runtime
// can retry; semantic failures (selector miss, missing capability) are a
// failed ExtractionResult and are final for the attempt.
type Adapter interface {
	// Name identifies the source in observations and logs.
	Name() string
	// Domain is the retailer host this adapter talks to; the runtime
	// throttle is keyed on it.
	Domain() string
	// ExtractPrice fetches and extracts a price for the query.
	ExtractPrice(ctx context.Context, q Query) (ExtractionResult, error)
}
