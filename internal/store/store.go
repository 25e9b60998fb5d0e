// Package store persists the append-only observation log and aggregation
// audit records. Neither table has an update path: a new validation
// always produces new rows.
package store

import (
	"context"

	"github.com/sells-group/price-truth/internal/model"
)

// Store is the persistence contract the pipeline needs.
type Store interface {
	// SaveObservations appends a batch of price observations.
	SaveObservations(ctx context.Context, observations []model.PriceObservation) error

	// SaveAggregation appends one aggregation decision record.
	SaveAggregation(ctx context.Context, agg *model.PriceAggregation) error

	// GetAggregation fetches an aggregation by ID; nil when absent.
	GetAggregation(ctx context.Context, id string) (*model.PriceAggregation, error)

	// ListAggregations returns the most recent aggregations for a
	// product/country, newest first.
	ListAggregations(ctx context.Context, productName, countryCode string, limit int) ([]model.PriceAggregation, error)
}
