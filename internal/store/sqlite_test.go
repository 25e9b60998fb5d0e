package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/price-truth/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "price-truth.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func sampleAggregation(product string) *model.PriceAggregation {
	return &model.PriceAggregation{
		ID:                      uuid.New().String(),
		CorrelationID:           uuid.New().String(),
		ProductName:             product,
		CountryCode:             "DE",
		Currency:                "EUR",
		ReferencePrice:          decimal.RequireFromString("50.00"),
		MinPrice:                decimal.RequireFromString("48.00"),
		MaxPrice:                decimal.RequireFromString("52.00"),
		AvgPrice:                decimal.RequireFromString("50.00"),
		PriceVariance:           decimal.RequireFromString("0.04"),
		SourcesCount:            5,
		SuccessfulSources:       3,
		CollectionSuccessRate:   decimal.RequireFromString("0.6"),
		WithinAbsoluteBounds:    true,
		WithinVarianceThreshold: true,
		PublishRecommendation:   model.RecommendationApprove,
		QualityScore:            decimal.RequireFromString("0.968"),
		AggregatedAt:            time.Now().UTC().Truncate(time.Second),
		SnapshotsUsed:           []string{"a", "b", "c"},
		AggregationMethod:       model.AggregationMethodMedian,
	}
}

func TestSQLite_SaveAndGetAggregation(t *testing.T) {
	s := newTestStore(t)
	agg := sampleAggregation("widget")
	require.NoError(t, s.SaveAggregation(context.Background(), agg))

	got, err := s.GetAggregation(context.Background(), agg.ID)
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, agg.CorrelationID, got.CorrelationID)
	assert.True(t, got.ReferencePrice.Equal(agg.ReferencePrice))
	assert.True(t, got.PriceVariance.Equal(agg.PriceVariance))
	assert.True(t, got.QualityScore.Equal(agg.QualityScore))
	assert.Equal(t, model.RecommendationApprove, got.PublishRecommendation)
	assert.Equal(t, []string{"a", "b", "c"}, got.SnapshotsUsed)
	assert.Equal(t, model.AggregationMethodMedian, got.AggregationMethod)
}

func TestSQLite_GetAggregationAbsent(t *testing.T) {
	s := newTestStore(t)
	got, err := s.GetAggregation(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLite_ListAggregationsNewestFirst(t *testing.T) {
	s := newTestStore(t)
	older := sampleAggregation("widget")
	older.AggregatedAt = time.Now().UTC().Add(-time.Hour).Truncate(time.Second)
	newer := sampleAggregation("widget")
	other := sampleAggregation("gadget")

	for _, agg := range []*model.PriceAggregation{older, newer, other} {
		require.NoError(t, s.SaveAggregation(context.Background(), agg))
	}

	got, err := s.ListAggregations(context.Background(), "widget", "DE", 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, newer.ID, got[0].ID)
	assert.Equal(t, older.ID, got[1].ID)
}

func TestSQLite_SaveObservations(t *testing.T) {
	s := newTestStore(t)
	converted := decimal.RequireFromString("46.00")
	obs := []model.PriceObservation{
		{
			ID:          uuid.New().String(),
			ProductName: "widget",
			CountryCode: "DE",
			SourceName:  "amazon",
			Currency:    "USD",
			Price:       decimal.RequireFromString("50.00"),
			HasPrice:    true,
			Success:     true,
			RawText:     "$50.00",
			CapturedAt:  time.Now().UTC(),

			PriceInTargetCurrency: &converted,
		},
		{
			ID:           uuid.New().String(),
			ProductName:  "widget",
			CountryCode:  "DE",
			SourceName:   "ebay",
			CapturedAt:   time.Now().UTC(),
			ErrorMessage: "capability_unavailable",
		},
	}
	require.NoError(t, s.SaveObservations(context.Background(), obs))
	require.NoError(t, s.SaveObservations(context.Background(), nil), "empty batch is a no-op")

	var count int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM price_observations`).Scan(&count))
	assert.Equal(t, 2, count)
}
