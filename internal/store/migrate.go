package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/price-truth/internal/db"
)

// postgresMigration creates the append-only tables. There is deliberately
// no UPDATE path: observations and aggregations are immutable facts.
const postgresMigration = `
CREATE TABLE IF NOT EXISTS price_observations (
	id                        TEXT PRIMARY KEY,
	product_name              TEXT NOT NULL,
	country_code              TEXT NOT NULL,
	source_name               TEXT NOT NULL,
	currency                  TEXT NOT NULL DEFAULT '',
	price                     NUMERIC(14,4) NOT NULL DEFAULT 0,
	has_price                 BOOLEAN NOT NULL DEFAULT FALSE,
	success                   BOOLEAN NOT NULL DEFAULT FALSE,
	price_in_target_currency  NUMERIC(14,4),
	raw_text                  TEXT NOT NULL DEFAULT '',
	captured_at               TIMESTAMPTZ NOT NULL,
	error_message             TEXT NOT NULL DEFAULT '',
	screenshot_path           TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS price_aggregations (
	id                         TEXT PRIMARY KEY,
	correlation_id             TEXT NOT NULL,
	product_name               TEXT NOT NULL,
	country_code               TEXT NOT NULL,
	currency                   TEXT NOT NULL,
	reference_price            NUMERIC(14,4) NOT NULL,
	min_price                  NUMERIC(14,4) NOT NULL,
	max_price                  NUMERIC(14,4) NOT NULL,
	avg_price                  NUMERIC(14,4) NOT NULL,
	price_variance             NUMERIC(10,6) NOT NULL,
	sources_count              INTEGER NOT NULL,
	successful_sources         INTEGER NOT NULL,
	collection_success_rate    NUMERIC(5,4) NOT NULL,
	within_absolute_bounds     BOOLEAN NOT NULL,
	within_variance_threshold  BOOLEAN NOT NULL,
	publish_recommendation     TEXT NOT NULL,
	quality_score              NUMERIC(4,3) NOT NULL,
	aggregated_at              TIMESTAMPTZ NOT NULL,
	snapshots_used             TEXT NOT NULL DEFAULT '',
	aggregation_method         TEXT NOT NULL DEFAULT 'median'
);

CREATE TABLE IF NOT EXISTS market_settings (
	user_id                   TEXT NOT NULL,
	country_code              TEXT NOT NULL,
	price_publish_min         NUMERIC(14,4) NOT NULL,
	price_publish_max         NUMERIC(14,4) NOT NULL,
	price_variance_threshold  NUMERIC(10,6) NOT NULL,
	currency_preference       TEXT NOT NULL DEFAULT 'EUR',
	enabled                   BOOLEAN NOT NULL DEFAULT TRUE,
	PRIMARY KEY (user_id, country_code)
);

CREATE INDEX IF NOT EXISTS idx_observations_product
	ON price_observations(product_name, country_code);
CREATE INDEX IF NOT EXISTS idx_observations_captured_at
	ON price_observations(captured_at);
CREATE INDEX IF NOT EXISTS idx_aggregations_product
	ON price_aggregations(product_name, country_code, aggregated_at DESC);
CREATE INDEX IF NOT EXISTS idx_aggregations_correlation
	ON price_aggregations(correlation_id);
`

// MigratePostgres applies the schema.
func MigratePostgres(ctx context.Context, pool db.Pool) error {
	if _, err := pool.Exec(ctx, postgresMigration); err != nil {
		return eris.Wrap(err, "store: migrate postgres")
	}
	return nil
}
