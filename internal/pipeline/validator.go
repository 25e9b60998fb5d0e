// Package pipeline orchestrates one price validation: market settings
// lookup, concurrent source fan-out, aggregation, guard evaluation,
// quality scoring, and append-only persistence of the outcome.
package pipeline

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/price-truth/internal/aggregate"
	"github.com/sells-group/price-truth/internal/model"
	"github.com/sells-group/price-truth/internal/monitoring"
	"github.com/sells-group/price-truth/internal/settings"
	"github.com/sells-group/price-truth/internal/source"
	"github.com/sells-group/price-truth/internal/store"
)

// DefaultMaxSources caps the fan-out when the request does not say.
const DefaultMaxSources = 5

// errNoPriceData is the only user-visible fatal failure: every source
// failed, or none are registered for the market.
const errNoPriceData = "no price data — product possibly nonexistent"

// Request identifies one validation call.
type Request struct {
	ProductName   string
	CountryCode   string
	UserID        string
	CorrelationID string
	// MaxSources caps the fan-out; <=0 uses DefaultMaxSources.
	MaxSources int
	// Currency overrides the settings currency preference when set.
	Currency string
}

// Options wires the validator's collaborators. Settings, Store and
// Metrics may be nil; missing settings fall back to defaults, a nil
// store disables persistence, and metrics become no-ops.
type Options struct {
	Registry  *source.Registry
	Runtime   source.RuntimeConfig
	Converter aggregate.Converter
	Settings  settings.Store
	Store     store.Store
	Metrics   *monitoring.Metrics

	// CollectionTimeout bounds the whole fan-out. Zero means no outer
	// deadline beyond the per-attempt timeouts.
	CollectionTimeout time.Duration
}

// Validator runs price validations. It is safe for concurrent use; the
// per-adapter runtimes it creates are shared across calls so throttle
// windows and circuit breakers span requests.
type Validator struct {
	opts Options

	mu       sync.Mutex
	runtimes map[string]*source.Runtime
}

// NewValidator creates a Validator.
func NewValidator(opts Options) *Validator {
	return &Validator{
		opts:     opts,
		runtimes: make(map[string]*source.Runtime),
	}
}

// ValidatePriceForPublication collects price observations for the
// product across the market's sources, reduces them to a reference
// price, applies the publication guards, and persists the audit trail.
//
// Per-source failures never fail the call; they shrink the observation
// set. The only fatal case is an empty set, which returns a REJECT
// result without aggregating. Persistence failures are logged and
// swallowed: the caller still receives the computed decision.
func (v *Validator) ValidatePriceForPublication(ctx context.Context, req Request) *model.ValidationResult {
	started := time.Now()
	v.opts.Metrics.IncValidations()

	if req.CorrelationID == "" {
		req.CorrelationID = uuid.New().String()
	}
	req.CountryCode = strings.ToUpper(req.CountryCode)
	if req.MaxSources <= 0 {
		req.MaxSources = DefaultMaxSources
	}

	log := zap.L().With(
		zap.String("component", "pipeline"),
		zap.String("correlation_id", req.CorrelationID),
		zap.String("product", req.ProductName),
		zap.String("country", req.CountryCode),
	)

	ms := v.loadSettings(ctx, req, log)
	targetCurrency := v.resolveCurrency(req, ms)

	observations := v.collect(ctx, req)
	if len(observations) == 0 {
		log.Warn("no sources produced observations")
		return failureResult(req, started, errNoPriceData)
	}

	partial, ok := aggregate.Aggregate(ctx, observations, targetCurrency, v.opts.Converter)
	if !ok {
		log.Warn("no usable observations after filtering and conversion",
			zap.Int("attempted", len(observations)),
		)
		v.persist(ctx, log, observations, nil)
		return failureResult(req, started, errNoPriceData)
	}

	guards := aggregate.EvaluateGuards(
		partial.ReferencePrice,
		partial.Variance,
		aggregate.Bounds{Min: ms.PricePublishMin, Max: ms.PricePublishMax},
		ms.PriceVarianceThreshold,
	)
	quality := aggregate.QualityScore(partial.ConvertedCount, partial.ValidCount, partial.Variance)

	agg := buildAggregation(req, targetCurrency, len(observations), partial, guards, quality)
	v.persist(ctx, log, observations, agg)

	log.Info("validation complete",
		zap.String("reference_price", partial.ReferencePrice.String()),
		zap.String("recommendation", string(guards.Recommendation)),
		zap.String("quality_score", quality.String()),
		zap.Int("successful_sources", partial.ConvertedCount),
		zap.Int("attempted_sources", len(observations)),
	)

	return successResult(req, started, targetCurrency, len(observations), partial, guards, quality, agg.ID)
}

// loadSettings fetches the market settings for the request, falling back
// to process defaults when absent or when the lookup fails. Disabled
// settings still contribute the currency preference but not the bounds.
func (v *Validator) loadSettings(ctx context.Context, req Request, log *zap.Logger) *model.MarketSettings {
	defaults := model.DefaultSettings(req.CountryCode)
	if v.opts.Settings == nil {
		return defaults
	}

	ms, err := v.opts.Settings.GetMarketSettings(ctx, req.UserID, req.CountryCode)
	if err != nil {
		log.Warn("market settings lookup failed, using defaults", zap.Error(err))
		return defaults
	}
	if ms == nil {
		return defaults
	}
	if !ms.Enabled {
		if ms.CurrencyPreference != "" {
			defaults.CurrencyPreference = ms.CurrencyPreference
		}
		return defaults
	}
	return ms
}

// resolveCurrency picks the target currency: request override, then
// settings preference, then EUR.
func (v *Validator) resolveCurrency(req Request, ms *model.MarketSettings) string {
	if req.Currency != "" {
		return strings.ToUpper(req.Currency)
	}
	if ms.CurrencyPreference != "" {
		return strings.ToUpper(ms.CurrencyPreference)
	}
	return "EUR"
}

// collect fans out to the market's adapters concurrently. Each adapter
// runs through its shared Runtime so throttling and circuit state hold
// across overlapping validations. Sources that miss the collection
// deadline are recorded as failed observations rather than dropped.
func (v *Validator) collect(ctx context.Context, req Request) []model.PriceObservation {
	adapters := v.opts.Registry.AdaptersFor(req.CountryCode, req.MaxSources)
	if len(adapters) == 0 {
		return nil
	}

	if v.opts.CollectionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, v.opts.CollectionTimeout)
		defer cancel()
	}

	q := source.Query{ProductName: req.ProductName, CountryCode: req.CountryCode}

	var mu sync.Mutex
	observations := make([]model.PriceObservation, 0, len(adapters))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(len(adapters))

	for _, a := range adapters {
		rt := v.runtimeFor(a)
		g.Go(func() error {
			obs := rt.Run(gCtx, q)
			mu.Lock()
			observations = append(observations, obs)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return observations
}

// runtimeFor returns the shared Runtime for an adapter, creating it on
// first use.
func (v *Validator) runtimeFor(a source.Adapter) *source.Runtime {
	v.mu.Lock()
	defer v.mu.Unlock()
	rt, ok := v.runtimes[a.Name()]
	if !ok {
		rt = source.NewRuntime(a, v.opts.Runtime, v.opts.Metrics)
		v.runtimes[a.Name()] = rt
	}
	return rt
}

// persist appends the observation log and, when present, the aggregation
// record. Failures are logged and counted, never returned: the computed
// decision reaches the caller regardless.
func (v *Validator) persist(ctx context.Context, log *zap.Logger, observations []model.PriceObservation, agg *model.PriceAggregation) {
	if v.opts.Store == nil {
		return
	}
	if err := v.opts.Store.SaveObservations(ctx, observations); err != nil {
		v.opts.Metrics.IncPersistenceFailures()
		log.Error("failed to persist observations", zap.Error(err))
	}
	if agg == nil {
		return
	}
	if err := v.opts.Store.SaveAggregation(ctx, agg); err != nil {
		v.opts.Metrics.IncPersistenceFailures()
		log.Error("failed to persist aggregation", zap.Error(err))
	}
}

func buildAggregation(req Request, currency string, attempted int, p *aggregate.Partial, guards model.GuardsEvaluation, quality decimal.Decimal) *model.PriceAggregation {
	return &model.PriceAggregation{
		ID:            uuid.New().String(),
		CorrelationID: req.CorrelationID,
		ProductName:   req.ProductName,
		CountryCode:   req.CountryCode,
		Currency:      currency,

		ReferencePrice: p.ReferencePrice,
		MinPrice:       p.MinPrice,
		MaxPrice:       p.MaxPrice,
		AvgPrice:       p.AvgPrice,
		PriceVariance:  p.Variance,

		SourcesCount:          attempted,
		SuccessfulSources:     p.ConvertedCount,
		CollectionSuccessRate: successRate(p.ConvertedCount, attempted),

		WithinAbsoluteBounds:    guards.WithinAbsoluteBounds,
		WithinVarianceThreshold: guards.WithinVarianceThreshold,
		PublishRecommendation:   guards.Recommendation,
		QualityScore:            quality,

		AggregatedAt:      time.Now().UTC(),
		SnapshotsUsed:     p.SnapshotsUsed,
		AggregationMethod: model.AggregationMethodMedian,
	}
}

func successResult(req Request, started time.Time, currency string, attempted int, p *aggregate.Partial, guards model.GuardsEvaluation, quality decimal.Decimal, aggregationID string) *model.ValidationResult {
	ref := p.ReferencePrice
	variance := p.Variance
	score := quality

	return &model.ValidationResult{
		Success:       true,
		CorrelationID: req.CorrelationID,
		ProductName:   req.ProductName,
		CountryCode:   req.CountryCode,

		ReferencePrice: &ref,
		Currency:       currency,
		PriceRange: &model.PriceRange{
			Min: p.MinPrice,
			Max: p.MaxPrice,
			Avg: p.AvgPrice,
		},
		Variance: &variance,

		Sources: &model.SourceStats{
			TotalAttempted: attempted,
			Successful:     p.ConvertedCount,
			SuccessRate:    successRate(p.ConvertedCount, attempted),
		},
		GuardsEvaluation: &guards,
		QualityScore:     &score,

		AggregationID:    aggregationID,
		ProcessingTimeMs: time.Since(started).Milliseconds(),
		Recommendation:   guards.Recommendation,
	}
}

func failureResult(req Request, started time.Time, msg string) *model.ValidationResult {
	return &model.ValidationResult{
		Success:          false,
		CorrelationID:    req.CorrelationID,
		ProductName:      req.ProductName,
		CountryCode:      req.CountryCode,
		Error:            msg,
		Recommendation:   model.RecommendationReject,
		ProcessingTimeMs: time.Since(started).Milliseconds(),
	}
}

func successRate(successful, attempted int) decimal.Decimal {
	if attempted == 0 {
		return decimal.Decimal{}
	}
	return decimal.NewFromInt(int64(successful)).
		Div(decimal.NewFromInt(int64(attempted))).
		Round(4)
}
