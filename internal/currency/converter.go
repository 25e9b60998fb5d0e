package currency

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sells-group/price-truth/internal/monitoring"
)

// Converter converts amounts into a target currency via a RateProvider.
type Converter struct {
	provider RateProvider
	metrics  *monitoring.Metrics
}

// NewConverter creates a Converter. metrics may be nil.
func NewConverter(provider RateProvider, metrics *monitoring.Metrics) *Converter {
	return &Converter{provider: provider, metrics: metrics}
}

// Convert returns amount expressed in the target currency. Equal codes
// pass through untouched. A failed rate lookup returns ok=false and bumps
// the conversion error counter; the caller must exclude the observation,
// not zero-fill it.
func (c *Converter) Convert(ctx context.Context, amount decimal.Decimal, from, to string) (decimal.Decimal, bool) {
	from = strings.ToUpper(strings.TrimSpace(from))
	to = strings.ToUpper(strings.TrimSpace(to))
	if from == to {
		return amount, true
	}

	if c.provider == nil {
		c.metrics.IncConversionErrors()
		zap.L().Warn("currency: no rate provider configured",
			zap.String("from", from),
			zap.String("to", to),
		)
		return decimal.Decimal{}, false
	}

	rate, err := c.provider.Rate(ctx, from, to)
	if err != nil {
		c.metrics.IncConversionErrors()
		zap.L().Warn("currency: rate lookup failed, excluding observation",
			zap.String("from", from),
			zap.String("to", to),
			zap.Error(err),
		)
		return decimal.Decimal{}, false
	}

	return amount.Mul(rate), true
}
