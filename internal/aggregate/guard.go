package aggregate

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/sells-group/price-truth/internal/model"
)

// Bounds are the absolute publication limits from market settings.
type Bounds struct {
	Min decimal.Decimal
	Max decimal.Decimal
}

// EvaluateGuards applies the publication decision table to the reference
// price. The rules, in order:
//
//  1. within bounds and variance acceptable        → APPROVE
//  2. outside bounds                               → PENDING_REVIEW
//  3. within bounds, variance above threshold      → PENDING_REVIEW
//  4. everything else                              → REJECT
//
// Rule 4 is unreachable given rules 1–3 cover both booleans; it is kept
// deliberately so the fail-closed arm survives any future edit to the
// rules above. Do not remove it without a product decision.
func EvaluateGuards(referencePrice, variance decimal.Decimal, bounds Bounds, varianceThreshold decimal.Decimal) model.GuardsEvaluation {
	withinBounds := referencePrice.GreaterThanOrEqual(bounds.Min) && referencePrice.LessThanOrEqual(bounds.Max)
	withinVariance := variance.LessThanOrEqual(varianceThreshold)

	ev := model.GuardsEvaluation{
		WithinAbsoluteBounds:    withinBounds,
		WithinVarianceThreshold: withinVariance,
	}

	switch {
	case withinBounds && withinVariance:
		ev.Recommendation = model.RecommendationApprove
		ev.Reason = "price within bounds and variance acceptable"
	case !withinBounds:
		ev.Recommendation = model.RecommendationPendingReview
		if referencePrice.LessThan(bounds.Min) {
			ev.Reason = fmt.Sprintf("price %s too low: below publish minimum %s", referencePrice, bounds.Min)
		} else {
			ev.Reason = fmt.Sprintf("price %s too high: above publish maximum %s", referencePrice, bounds.Max)
		}
	case withinBounds && !withinVariance:
		ev.Recommendation = model.RecommendationPendingReview
		ev.Reason = fmt.Sprintf("price variance %s exceeds threshold %s", variance, varianceThreshold)
	default:
		ev.Recommendation = model.RecommendationReject
		ev.Reason = "multiple conditions violated"
	}

	return ev
}
