// Package aggregate reduces converted price observations into a robust
// reference price and decides, via the configured guards, whether that
// price is safe to publish automatically.
package aggregate

import (
	"context"
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/sells-group/price-truth/internal/model"
)

// Converter is the currency conversion capability the aggregator needs.
// ok=false means the observation must be excluded, never zero-filled.
type Converter interface {
	Convert(ctx context.Context, amount decimal.Decimal, from, to string) (decimal.Decimal, bool)
}

// Partial is the statistical core of an aggregation, before guards and
// quality scoring are applied.
type Partial struct {
	ReferencePrice decimal.Decimal
	MinPrice       decimal.Decimal
	MaxPrice       decimal.Decimal
	AvgPrice       decimal.Decimal
	// Variance is the coefficient of variation (stddev/mean) of the
	// converted prices; 0 with fewer than two values.
	Variance decimal.Decimal

	// ValidCount is how many observations were usable before conversion;
	// ConvertedCount how many survived it. SnapshotsUsed lists the IDs of
	// the contributing observations.
	ValidCount     int
	ConvertedCount int
	SnapshotsUsed  []string
}

// Aggregate filters observations to usable ones, converts each into the
// target currency (mutating the observation to record the converted
// price), and computes the reference statistics. ok=false means nothing
// was usable, which is fatal for the request.
//
// The reference price is the median, not the mean, so one badly scraped
// outlier cannot move the published price. Aggregation is order
// insensitive: the same observation set always yields the same numbers.
func Aggregate(ctx context.Context, observations []model.PriceObservation, targetCurrency string, conv Converter) (*Partial, bool) {
	p := &Partial{}

	var prices []decimal.Decimal
	for i := range observations {
		obs := &observations[i]
		if !obs.Usable() {
			continue
		}
		p.ValidCount++

		converted, ok := conv.Convert(ctx, obs.Price, obs.Currency, targetCurrency)
		if !ok {
			continue
		}
		obs.SetConvertedPrice(converted)
		prices = append(prices, converted)
		p.SnapshotsUsed = append(p.SnapshotsUsed, obs.ID)
	}

	if len(prices) == 0 {
		return nil, false
	}
	p.ConvertedCount = len(prices)

	sort.Slice(prices, func(i, j int) bool { return prices[i].LessThan(prices[j]) })

	p.ReferencePrice = median(prices)
	p.MinPrice = prices[0]
	p.MaxPrice = prices[len(prices)-1]
	p.AvgPrice = mean(prices)
	p.Variance = coefficientOfVariation(prices, p.AvgPrice)

	return p, true
}

// median of a sorted, non-empty slice. An even count averages the two
// middle values.
func median(sorted []decimal.Decimal) decimal.Decimal {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return sorted[n/2-1].Add(sorted[n/2]).Div(decimal.NewFromInt(2))
}

func mean(prices []decimal.Decimal) decimal.Decimal {
	sum := decimal.Decimal{}
	for _, p := range prices {
		sum = sum.Add(p)
	}
	return sum.Div(decimal.NewFromInt(int64(len(prices))))
}

// coefficientOfVariation is the sample standard deviation divided by the
// mean, rounded to 6 places. Fewer than two values, or a zero mean, give
// 0 by definition.
func coefficientOfVariation(prices []decimal.Decimal, avg decimal.Decimal) decimal.Decimal {
	if len(prices) < 2 || avg.IsZero() {
		return decimal.Decimal{}
	}

	m := avg.InexactFloat64()
	var sumSq float64
	for _, p := range prices {
		d := p.InexactFloat64() - m
		sumSq += d * d
	}
	sd := math.Sqrt(sumSq / float64(len(prices)-1))

	return decimal.NewFromFloat(sd / m).Round(6)
}
