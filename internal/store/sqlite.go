package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/sells-group/price-truth/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite for local and CLI
// use. Money columns are TEXT holding decimal strings, which keeps the
// values exact.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens the database at dsn and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	database, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := database.Exec(pragma); err != nil {
			_ = database.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: database}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS price_observations (
	id                        TEXT PRIMARY KEY,
	product_name              TEXT NOT NULL,
	country_code              TEXT NOT NULL,
	source_name               TEXT NOT NULL,
	currency                  TEXT NOT NULL DEFAULT '',
	price                     TEXT NOT NULL DEFAULT '0',
	has_price                 INTEGER NOT NULL DEFAULT 0,
	success                   INTEGER NOT NULL DEFAULT 0,
	price_in_target_currency  TEXT,
	raw_text                  TEXT NOT NULL DEFAULT '',
	captured_at               DATETIME NOT NULL,
	error_message             TEXT NOT NULL DEFAULT '',
	screenshot_path           TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS price_aggregations (
	id                         TEXT PRIMARY KEY,
	correlation_id             TEXT NOT NULL,
	product_name               TEXT NOT NULL,
	country_code               TEXT NOT NULL,
	currency                   TEXT NOT NULL,
	reference_price            TEXT NOT NULL,
	min_price                  TEXT NOT NULL,
	max_price                  TEXT NOT NULL,
	avg_price                  TEXT NOT NULL,
	price_variance             TEXT NOT NULL,
	sources_count              INTEGER NOT NULL,
	successful_sources         INTEGER NOT NULL,
	collection_success_rate    TEXT NOT NULL,
	within_absolute_bounds     INTEGER NOT NULL,
	within_variance_threshold  INTEGER NOT NULL,
	publish_recommendation     TEXT NOT NULL,
	quality_score              TEXT NOT NULL,
	aggregated_at              DATETIME NOT NULL,
	snapshots_used             TEXT NOT NULL DEFAULT '',
	aggregation_method         TEXT NOT NULL DEFAULT 'median'
);

CREATE INDEX IF NOT EXISTS idx_observations_product
	ON price_observations(product_name, country_code);
CREATE INDEX IF NOT EXISTS idx_aggregations_product
	ON price_aggregations(product_name, country_code, aggregated_at DESC);
`

// Migrate applies the schema.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveObservations appends observations in one transaction.
func (s *SQLiteStore) SaveObservations(ctx context.Context, observations []model.PriceObservation) error {
	if len(observations) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO price_observations (
			id, product_name, country_code, source_name,
			currency, price, has_price, success,
			price_in_target_currency, raw_text, captured_at,
			error_message, screenshot_path
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare insert observation")
	}
	defer stmt.Close() //nolint:errcheck

	for i := range observations {
		o := &observations[i]
		var converted any
		if o.PriceInTargetCurrency != nil {
			converted = o.PriceInTargetCurrency.String()
		}
		if _, err := stmt.ExecContext(ctx,
			o.ID, o.ProductName, o.CountryCode, o.SourceName,
			o.Currency, o.Price.String(), o.HasPrice, o.Success,
			converted, o.RawText, o.CapturedAt.UTC(),
			o.ErrorMessage, o.ScreenshotPath,
		); err != nil {
			return eris.Wrapf(err, "sqlite: insert observation %s", o.ID)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit observations")
}

// SaveAggregation appends one aggregation record.
func (s *SQLiteStore) SaveAggregation(ctx context.Context, agg *model.PriceAggregation) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO price_aggregations (
			id, correlation_id, product_name, country_code, currency,
			reference_price, min_price, max_price, avg_price, price_variance,
			sources_count, successful_sources, collection_success_rate,
			within_absolute_bounds, within_variance_threshold,
			publish_recommendation, quality_score,
			aggregated_at, snapshots_used, aggregation_method
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		agg.ID, agg.CorrelationID, agg.ProductName, agg.CountryCode, agg.Currency,
		agg.ReferencePrice.String(), agg.MinPrice.String(), agg.MaxPrice.String(),
		agg.AvgPrice.String(), agg.PriceVariance.String(),
		agg.SourcesCount, agg.SuccessfulSources, agg.CollectionSuccessRate.String(),
		agg.WithinAbsoluteBounds, agg.WithinVarianceThreshold,
		string(agg.PublishRecommendation), agg.QualityScore.String(),
		agg.AggregatedAt.UTC(), strings.Join(agg.SnapshotsUsed, ","), agg.AggregationMethod,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: save aggregation %s", agg.ID)
	}
	return nil
}

const sqliteAggregationColumns = `
	id, correlation_id, product_name, country_code, currency,
	reference_price, min_price, max_price, avg_price, price_variance,
	sources_count, successful_sources, collection_success_rate,
	within_absolute_bounds, within_variance_threshold,
	publish_recommendation, quality_score,
	aggregated_at, snapshots_used, aggregation_method`

type sqliteRow interface {
	Scan(dest ...any) error
}

func scanSQLiteAggregation(row sqliteRow) (*model.PriceAggregation, error) {
	agg := &model.PriceAggregation{}
	var (
		reference, minP, maxP, avgP, variance string
		successRate, quality                  string
		recommendation, snapshots             string
		aggregatedAt                          time.Time
	)
	err := row.Scan(
		&agg.ID, &agg.CorrelationID, &agg.ProductName, &agg.CountryCode, &agg.Currency,
		&reference, &minP, &maxP, &avgP, &variance,
		&agg.SourcesCount, &agg.SuccessfulSources, &successRate,
		&agg.WithinAbsoluteBounds, &agg.WithinVarianceThreshold,
		&recommendation, &quality,
		&aggregatedAt, &snapshots, &agg.AggregationMethod,
	)
	if err != nil {
		return nil, err
	}

	for dst, src := range map[*decimal.Decimal]string{
		&agg.ReferencePrice:        reference,
		&agg.MinPrice:              minP,
		&agg.MaxPrice:              maxP,
		&agg.AvgPrice:              avgP,
		&agg.PriceVariance:         variance,
		&agg.CollectionSuccessRate: successRate,
		&agg.QualityScore:          quality,
	} {
		d, err := decimal.NewFromString(src)
		if err != nil {
			return nil, eris.Wrapf(err, "sqlite: bad decimal %q", src)
		}
		*dst = d
	}

	agg.PublishRecommendation = model.Recommendation(recommendation)
	agg.AggregatedAt = aggregatedAt
	if snapshots != "" {
		agg.SnapshotsUsed = strings.Split(snapshots, ",")
	}
	return agg, nil
}

// GetAggregation fetches an aggregation by ID; nil when absent.
func (s *SQLiteStore) GetAggregation(ctx context.Context, id string) (*model.PriceAggregation, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sqliteAggregationColumns+` FROM price_aggregations WHERE id = ?`, id)
	agg, err := scanSQLiteAggregation(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "sqlite: get aggregation %s", id)
	}
	return agg, nil
}

// ListAggregations returns recent aggregations, newest first.
func (s *SQLiteStore) ListAggregations(ctx context.Context, productName, countryCode string, limit int) ([]model.PriceAggregation, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+sqliteAggregationColumns+`
		FROM price_aggregations
		WHERE product_name = ? AND country_code = ?
		ORDER BY aggregated_at DESC
		LIMIT ?`, productName, countryCode, limit)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list aggregations")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.PriceAggregation
	for rows.Next() {
		agg, err := scanSQLiteAggregation(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan aggregation")
		}
		out = append(out, *agg)
	}
	return out, rows.Err()
}
