package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Recommendation is the publish decision attached to an aggregation.
type Recommendation string

const (
	// RecommendationApprove means the price may be published automatically.
	RecommendationApprove Recommendation = "APPROVE"
	// RecommendationPendingReview routes the price to a human.
	RecommendationPendingReview Recommendation = "PENDING_REVIEW"
	// RecommendationReject blocks publication outright.
	RecommendationReject Recommendation = "REJECT"
)

// AggregationMethodMedian is the only aggregation method in use. The field
// is persisted so historical records stay self-describing if that changes.
const AggregationMethodMedian = "median"

// PriceAggregation is the audit record of one validation decision. It is
// written once and never mutated; a new request always produces a new
// record.
type PriceAggregation struct {
	ID            string `json:"id"`
	CorrelationID string `json:"correlation_id"`
	ProductName   string `json:"product_name"`
	CountryCode   string `json:"country_code"`
	Currency      string `json:"currency"`

	ReferencePrice decimal.Decimal `json:"reference_price"`
	MinPrice       decimal.Decimal `json:"min_price"`
	MaxPrice       decimal.Decimal `json:"max_price"`
	AvgPrice       decimal.Decimal `json:"avg_price"`
	PriceVariance  decimal.Decimal `json:"price_variance"`

	SourcesCount          int             `json:"sources_count"`
	SuccessfulSources     int             `json:"successful_sources"`
	CollectionSuccessRate decimal.Decimal `json:"collection_success_rate"`

	WithinAbsoluteBounds    bool            `json:"within_absolute_bounds"`
	WithinVarianceThreshold bool            `json:"within_variance_threshold"`
	PublishRecommendation   Recommendation  `json:"publish_recommendation"`
	QualityScore            decimal.Decimal `json:"quality_score"`

	AggregatedAt      time.Time `json:"aggregated_at"`
	SnapshotsUsed     []string  `json:"snapshots_used"`
	AggregationMethod string    `json:"aggregation_method"`
}
