package source

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/price-truth/internal/model"
	"github.com/sells-group/price-truth/internal/monitoring"
	"github.com/sells-group/price-truth/internal/resilience"
)

// RuntimeConfig tunes the per-adapter execution wrapper.
type RuntimeConfig struct {
	// MinDelay is the minimum gap between consecutive requests to the
	// same adapter's domain. Default: 1.5s.
	MinDelay time.Duration
	// AttemptTimeout is the hard cutoff for a single attempt,
	// independent of the retry budget. Default: 12s.
	AttemptTimeout time.Duration
	// MaxRetries is the number of retries after the first attempt.
	// Default: 2.
	MaxRetries int
	// BreakerThreshold trips the per-source circuit after this many
	// consecutive failed runs. 0 keeps the default of 3.
	BreakerThreshold int
	// BreakerCooldown is how long a tripped circuit rejects runs.
	BreakerCooldown time.Duration
	// backoffBase overrides the 1s retry backoff base in tests.
	backoffBase time.Duration
}

func (cfg RuntimeConfig) withDefaults() RuntimeConfig {
	if cfg.MinDelay == 0 {
		cfg.MinDelay = 1500 * time.Millisecond
	}
	if cfg.AttemptTimeout == 0 {
		cfg.AttemptTimeout = 12 * time.Second
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 2
	}
	if cfg.backoffBase == 0 {
		cfg.backoffBase = time.Second
	}
	return cfg
}

// Runtime executes one adapter with throttling, bounded retry, a hard
// per-attempt timeout, and a circuit breaker. All of the adapter's mutable
// state (last request time, request count) lives here, behind a mutex, so
// concurrent callers of the same adapter still observe the throttle.
//
// Run never returns an error: exhausted retries and tripped circuits
// become failed observations carrying the last error message.
type Runtime struct {
	adapter Adapter
	cfg     RuntimeConfig
	breaker *resilience.Breaker
	metrics *monitoring.Metrics

	throttle throttle
}

// NewRuntime wraps an adapter. metrics may be nil.
func NewRuntime(adapter Adapter, cfg RuntimeConfig, metrics *monitoring.Metrics) *Runtime {
	cfg = cfg.withDefaults()
	return &Runtime{
		adapter: adapter,
		cfg:     cfg,
		breaker: resilience.NewBreaker(cfg.BreakerThreshold, cfg.BreakerCooldown),
		metrics: metrics,
	}
}

// Adapter returns the wrapped adapter.
func (r *Runtime) Adapter() Adapter { return r.adapter }

// Run executes the adapter for the query and records the outcome as a
// PriceObservation.
func (r *Runtime) Run(ctx context.Context, q Query) model.PriceObservation {
	res := r.runExtraction(ctx, q)

	obs := model.PriceObservation{
		ID:           uuid.New().String(),
		ProductName:  q.ProductName,
		CountryCode:  q.CountryCode,
		SourceName:   r.adapter.Name(),
		Currency:     res.Currency,
		Price:        res.Price,
		HasPrice:     res.HasPrice,
		Success:      res.Success,
		RawText:      res.RawText,
		CapturedAt:   time.Now().UTC(),
		ErrorMessage: res.ErrorMessage,
	}
	if !obs.Success {
		r.metrics.IncSourceFailures()
	}
	return obs
}

func (r *Runtime) runExtraction(ctx context.Context, q Query) ExtractionResult {
	log := zap.L().With(
		zap.String("component", "source.runtime"),
		zap.String("source", r.adapter.Name()),
		zap.String("product", q.ProductName),
	)

	if err := r.breaker.Allow(); err != nil {
		log.Debug("circuit open, skipping source")
		return Failed(r.adapter.Name(), err.Error())
	}

	retryCfg := resilience.RetryConfig{
		MaxAttempts: r.cfg.MaxRetries + 1,
		BaseBackoff: r.cfg.backoffBase,
		// A missing capability or a clean selector miss is surfaced as a
		// failed result, not an error, so errors here are transport
		// level. IsTransient still screens out the permanent ones, like
		// a page that resolves to a 404.
		ShouldRetry: resilience.IsTransient,
		OnRetry: func(attempt int, err error) {
			log.Warn("source attempt failed, retrying",
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
		},
	}

	res, err := resilience.DoVal(ctx, retryCfg, func(ctx context.Context) (ExtractionResult, error) {
		r.throttle.wait(ctx, r.cfg.MinDelay)

		attemptCtx, cancel := context.WithTimeout(ctx, r.cfg.AttemptTimeout)
		defer cancel()
		return r.adapter.ExtractPrice(attemptCtx, q)
	})

	r.breaker.Record(runOutcome(res, err))

	if err != nil {
		log.Warn("source exhausted retries", zap.Error(err))
		return Failed(r.adapter.Name(), err.Error())
	}
	return res
}

// runOutcome folds a result/error pair into the breaker's view: a failed
// result counts as a failure even though it is not an error.
func runOutcome(res ExtractionResult, err error) error {
	if err != nil {
		return err
	}
	if !res.Success {
		return eris.New(res.ErrorMessage)
	}
	return nil
}

// throttle owns the last-request timestamp for one adapter. The mutex is
// held across the wait so two callers cannot slip inside the same window.
type throttle struct {
	mu           sync.Mutex
	lastRequest  time.Time
	requestCount int
}

func (t *throttle) wait(ctx context.Context, minDelay time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.lastRequest.IsZero() {
		if gap := minDelay - time.Since(t.lastRequest); gap > 0 {
			timer := time.NewTimer(gap)
			defer timer.Stop()
			select {
			case <-ctx.Done():
			case <-timer.C:
			}
		}
	}
	t.lastRequest = time.Now()
	t.requestCount++
}
