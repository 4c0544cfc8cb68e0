package cache

import (
	"context"
	"fmt"

	"StockPilot/internal/domain/models"
)

const featurePrefix = "features"

// FeatureKey identifies one computed feature table.
type FeatureKey struct {
	Ticker       string
	Timeframe    models.Timeframe
	RSILength    int
	BBandsLength int
}

// KeyFor builds the key of a daily table computed with the given parameters.
func KeyFor(ticker string, p models.ModelParameterSet) FeatureKey {
	return FeatureKey{Ticker: ticker, Timeframe: models.Daily, RSILength: p.RSILength, BBandsLength: p.BBandsLength}
}

func (k FeatureKey) String() string {
	return fmt.Sprintf("%s:%s:%s:rsi%d:bb%d", featurePrefix, k.Ticker, k.Timeframe, k.RSILength, k.BBandsLength)
}

// FeatureCache holds computed feature tables between pipeline runs.
type FeatureCache interface {
	Get(ctx context.Context, key FeatureKey) (*models.FeatureTable, bool)
	Put(ctx context.Context, key FeatureKey, table *models.FeatureTable) error
	// Invalidate drops every table of the ticker regardless of parameters.
	Invalidate(ctx context.Context, ticker string) error
}

// NopFeatureCache never stores anything.
type NopFeatureCache struct{}

func (NopFeatureCache) Get(context.Context, FeatureKey) (*models.FeatureTable, bool) { return nil, false }
func (NopFeatureCache) Put(context.Context, FeatureKey, *models.FeatureTable) error { return nil }
func (NopFeatureCache) Invalidate(context.Context, string) error { return nil }
