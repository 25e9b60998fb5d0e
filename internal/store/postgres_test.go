package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/price-truth/internal/model"
)

func newMockStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPostgres(mock), mock
}

func TestPostgres_SaveObservationsUsesCopy(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectCopyFrom(pgx.Identifier{"price_observations"}, observationColumns).
		WillReturnResult(1)

	obs := []model.PriceObservation{{
		ID:          "obs-1",
		ProductName: "widget",
		CountryCode: "DE",
		SourceName:  "amazon",
		Currency:    "EUR",
		Price:       decimal.RequireFromString("49.99"),
		HasPrice:    true,
		Success:     true,
		CapturedAt:  time.Now().UTC(),
	}}
	require.NoError(t, s.SaveObservations(context.Background(), obs))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_SaveAggregation(t *testing.T) {
	s, mock := newMockStore(t)
	args := make([]any, 20)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	mock.ExpectExec(`INSERT INTO price_aggregations`).
		WithArgs(args...).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, s.SaveAggregation(context.Background(), sampleAggregation("widget")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_GetAggregationAbsent(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(`FROM price_aggregations WHERE id`).
		WithArgs("nope").
		WillReturnError(pgx.ErrNoRows)

	got, err := s.GetAggregation(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_ListAggregations(t *testing.T) {
	s, mock := newMockStore(t)
	agg := sampleAggregation("widget")

	rows := pgxmock.NewRows([]string{
		"id", "correlation_id", "product_name", "country_code", "currency",
		"reference_price", "min_price", "max_price", "avg_price", "price_variance",
		"sources_count", "successful_sources", "collection_success_rate",
		"within_absolute_bounds", "within_variance_threshold",
		"publish_recommendation", "quality_score",
		"aggregated_at", "snapshots_used", "aggregation_method",
	}).AddRow(
		agg.ID, agg.CorrelationID, agg.ProductName, agg.CountryCode, agg.Currency,
		agg.ReferencePrice, agg.MinPrice, agg.MaxPrice, agg.AvgPrice, agg.PriceVariance,
		agg.SourcesCount, agg.SuccessfulSources, agg.CollectionSuccessRate,
		agg.WithinAbsoluteBounds, agg.WithinVarianceThreshold,
		string(agg.PublishRecommendation), agg.QualityScore,
		agg.AggregatedAt, "a,b,c", agg.AggregationMethod,
	)

	mock.ExpectQuery(`FROM price_aggregations`).
		WithArgs("widget", "DE", 20).
		WillReturnRows(rows)

	got, err := s.ListAggregations(context.Background(), "widget", "DE", 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, agg.ID, got[0].ID)
	assert.True(t, got[0].ReferencePrice.Equal(agg.ReferencePrice))
	assert.Equal(t, []string{"a", "b", "c"}, got[0].SnapshotsUsed)
	assert.NoError(t, mock.ExpectationsWereMet())
}
