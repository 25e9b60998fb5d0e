package store

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"

	"github.com/sells-group/price-truth/internal/db"
	"github.com/sells-group/price-truth/internal/model"
)

// PostgresStore implements Store using pgx.
type PostgresStore struct {
	pool db.Pool
}

// NewPostgres creates a PostgresStore on an existing pool.
func NewPostgres(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

var observationColumns = []string{
	"id", "product_name", "country_code", "source_name",
	"currency", "price", "has_price", "success",
	"price_in_target_currency", "raw_text", "captured_at",
	"error_message", "screenshot_path",
}

// SaveObservations appends observations via the COPY protocol.
func (s *PostgresStore) SaveObservations(ctx context.Context, observations []model.PriceObservation) error {
	rows := make([][]any, 0, len(observations))
	for i := range observations {
		o := &observations[i]
		var converted decimal.NullDecimal
		if o.PriceInTargetCurrency != nil {
			converted = decimal.NullDecimal{Decimal: *o.PriceInTargetCurrency, Valid: true}
		}
		rows = append(rows, []any{
			o.ID, o.ProductName, o.CountryCode, o.SourceName,
			o.Currency, o.Price, o.HasPrice, o.Success,
			converted, o.RawText, o.CapturedAt,
			o.ErrorMessage, o.ScreenshotPath,
		})
	}

	if _, err := db.CopyRows(ctx, s.pool, "price_observations", observationColumns, rows); err != nil {
		return eris.Wrap(err, "store: save observations")
	}
	return nil
}

// SaveAggregation appends one aggregation record.
func (s *PostgresStore) SaveAggregation(ctx context.Context, agg *model.PriceAggregation) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO price_aggregations (
			id, correlation_id, product_name, country_code, currency,
			reference_price, min_price, max_price, avg_price, price_variance,
			sources_count, successful_sources, collection_success_rate,
			within_absolute_bounds, within_variance_threshold,
			publish_recommendation, quality_score,
			aggregated_at, snapshots_used, aggregation_method
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9, $10,
			$11, $12, $13,
			$14, $15,
			$16, $17,
			$18, $19, $20
		)`,
		agg.ID, agg.CorrelationID, agg.ProductName, agg.CountryCode, agg.Currency,
		agg.ReferencePrice, agg.MinPrice, agg.MaxPrice, agg.AvgPrice, agg.PriceVariance,
		agg.SourcesCount, agg.SuccessfulSources, agg.CollectionSuccessRate,
		agg.WithinAbsoluteBounds, agg.WithinVarianceThreshold,
		string(agg.PublishRecommendation), agg.QualityScore,
		agg.AggregatedAt, strings.Join(agg.SnapshotsUsed, ","), agg.AggregationMethod,
	)
	if err != nil {
		return eris.Wrapf(err, "store: save aggregation %s", agg.ID)
	}
	return nil
}

const aggregationColumns = `
	id, correlation_id, product_name, country_code, currency,
	reference_price, min_price, max_price, avg_price, price_variance,
	sources_count, successful_sources, collection_success_rate,
	within_absolute_bounds, within_variance_threshold,
	publish_recommendation, quality_score,
	aggregated_at, snapshots_used, aggregation_method`

func scanAggregation(row pgx.Row) (*model.PriceAggregation, error) {
	agg := &model.PriceAggregation{}
	var recommendation, snapshots string
	err := row.Scan(
		&agg.ID, &agg.CorrelationID, &agg.ProductName, &agg.CountryCode, &agg.Currency,
		&agg.ReferencePrice, &agg.MinPrice, &agg.MaxPrice, &agg.AvgPrice, &agg.PriceVariance,
		&agg.SourcesCount, &agg.SuccessfulSources, &agg.CollectionSuccessRate,
		&agg.WithinAbsoluteBounds, &agg.WithinVarianceThreshold,
		&recommendation, &agg.QualityScore,
		&agg.AggregatedAt, &snapshots, &agg.AggregationMethod,
	)
	if err != nil {
		return nil, err
	}
	agg.PublishRecommendation = model.Recommendation(recommendation)
	if snapshots != "" {
		agg.SnapshotsUsed = strings.Split(snapshots, ",")
	}
	return agg, nil
}

// GetAggregation fetches an aggregation by ID.
func (s *PostgresStore) GetAggregation(ctx context.Context, id string) (*model.PriceAggregation, error) {
	agg, err := scanAggregation(s.pool.QueryRow(ctx,
		`SELECT `+aggregationColumns+` FROM price_aggregations WHERE id = $1`, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "store: get aggregation %s", id)
	}
	return agg, nil
}

// ListAggregations returns recent aggregations for a product/country,
// newest first.
func (s *PostgresStore) ListAggregations(ctx context.Context, productName, countryCode string, limit int) ([]model.PriceAggregation, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx, `
		SELECT `+aggregationColumns+`
		FROM price_aggregations
		WHERE product_name = $1 AND country_code = $2
		ORDER BY aggregated_at DESC
		LIMIT $3`, productName, countryCode, limit)
	if err != nil {
		return nil, eris.Wrap(err, "store: list aggregations")
	}
	defer rows.Close()

	var out []model.PriceAggregation
	for rows.Next() {
		agg, err := scanAggregation(rows)
		if err != nil {
			return nil, eris.Wrap(err, "store: scan aggregation")
		}
		out = append(out, *agg)
	}
	return out, rows.Err()
}
