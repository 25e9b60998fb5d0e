package model

import "github.com/shopspring/decimal"

// PriceRange is the min/max/avg band of the converted observations.
type PriceRange struct {
	Min decimal.Decimal `json:"min"`
	Max decimal.Decimal `json:"max"`
	Avg decimal.Decimal `json:"avg"`
}

// SourceStats summarizes the fan-out outcome.
type SourceStats struct {
	TotalAttempted int             `json:"total_attempted"`
	Successful     int             `json:"successful"`
	SuccessRate    decimal.Decimal `json:"success_rate"`
}

// GuardsEvaluation reports the guard decision inputs and outcome.
type GuardsEvaluation struct {
	WithinAbsoluteBounds    bool           `json:"within_absolute_bounds"`
	WithinVarianceThreshold bool           `json:"within_variance_threshold"`
	Recommendation          Recommendation `json:"recommendation"`
	Reason                  string         `json:"reason,omitempty"`
}

// ValidationResult is the synchronous result returned to the caller of a
// price validation request. On failure only Success, Error, Recommendation,
// CorrelationID and ProcessingTimeMs are meaningful.
type ValidationResult struct {
	Success       bool   `json:"success"`
	CorrelationID string `json:"correlation_id"`
	ProductName   string `json:"product_name,omitempty"`
	CountryCode   string `json:"country_code,omitempty"`

	ReferencePrice *decimal.Decimal `json:"reference_price,omitempty"`
	Currency       string           `json:"currency,omitempty"`
	PriceRange     *PriceRange      `json:"price_range,omitempty"`
	Variance       *decimal.Decimal `json:"variance,omitempty"`

	Sources          *SourceStats      `json:"sources,omitempty"`
	GuardsEvaluation *GuardsEvaluation `json:"guards_evaluation,omitempty"`
	QualityScore     *decimal.Decimal  `json:"quality_score,omitempty"`

	AggregationID    string         `json:"aggregation_id,omitempty"`
	ProcessingTimeMs int64          `json:"processing_time_ms"`
	Error            string         `json:"error,omitempty"`
	Recommendation   Recommendation `json:"recommendation"`
}
