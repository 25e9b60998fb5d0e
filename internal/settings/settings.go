// Package settings reads per-user, per-country market settings. The
// records are owned by an external configuration service; this package
// only provides the read contract the pipeline needs.
package settings

import (
	"context"

	"github.com/sells-group/price-truth/internal/model"
)

// Store looks up market settings. A nil result with a nil error means no
// settings exist for the pair and the caller falls back to defaults.
type Store interface {
	GetMarketSettings(ctx context.Context, userID, countryCode string) (*model.MarketSettings, error)
}

// Static is an in-memory Store for tests and single-user CLI runs.
type Static struct {
	byKey map[string]*model.MarketSettings
}

// NewStatic builds a Static store from the given settings.
func NewStatic(all ...*model.MarketSettings) *Static {
	s := &Static{byKey: make(map[string]*model.MarketSettings, len(all))}
	for _, ms := range all {
		s.byKey[ms.UserID+"/"+ms.CountryCode] = ms
	}
	return s
}

// GetMarketSettings returns the settings for the pair, or nil.
func (s *Static) GetMarketSettings(_ context.Context, userID, countryCode string) (*model.MarketSettings, error) {
	return s.byKey[userID+"/"+countryCode], nil
}
