package aggregate

import "github.com/shopspring/decimal"

var (
	weightCompleteness = decimal.RequireFromString("0.4")
	weightConsistency  = decimal.RequireFromString("0.4")
	weightDiversity    = decimal.RequireFromString("0.2")
)

// QualityScore is the composite confidence in an aggregation, in [0,1],
// rounded to three decimals:
//
//	0.4 * completeness + 0.4 * consistency + 0.2 * diversity
//
// where completeness is the fraction of valid snapshots that converted,
// consistency penalizes variance (1 - 2*variance, floored at 0), and
// diversity saturates at three contributing sources. Zero valid
// snapshots score 0.
func QualityScore(successfulCount, validSnapshotCount int, variance decimal.Decimal) decimal.Decimal {
	if validSnapshotCount == 0 {
		return decimal.Decimal{}
	}

	one := decimal.NewFromInt(1)

	completeness := decimal.NewFromInt(int64(successfulCount)).
		Div(decimal.NewFromInt(int64(validSnapshotCount)))

	consistency := one.Sub(variance.Mul(decimal.NewFromInt(2)))
	if consistency.IsNegative() {
		consistency = decimal.Decimal{}
	}

	diversity := decimal.NewFromInt(int64(successfulCount)).Div(decimal.NewFromInt(3))
	if diversity.GreaterThan(one) {
		diversity = one
	}

	return weightCompleteness.Mul(completeness).
		Add(weightConsistency.Mul(consistency)).
		Add(weightDiversity.Mul(diversity)).
		Round(3)
}
