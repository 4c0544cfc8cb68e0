package usecase

import (
	"context"
	"fmt"
	"strings"

	"StockPilot/internal/domain/models"
	domrepo "StockPilot/internal/domain/repository"
)

// BarsUseCase provides read access to stored price series.
type BarsUseCase struct {
	store domrepo.PriceStore
}

func NewBarsUseCase(store domrepo.PriceStore) *BarsUseCase {
	return &BarsUseCase{store: store}
}

type GetBarsParams struct {
	Ticker    string
	Timeframe models.Timeframe
	Limit     int
}

type GetBarsResult struct {
	Ticker    string            `json:"ticker"`
	Timeframe string            `json:"timeframe"`
	Count     int               `json:"count"`
	Bars      []models.PriceBar `json:"bars"`
}

// GetBars returns the most recent Limit bars of the series, oldest first.
func (uc *BarsUseCase) GetBars(ctx context.Context, p GetBarsParams) (*GetBarsResult, error) {
	p.Ticker = strings.TrimSpace(p.Ticker)
	if p.Ticker == "" {
		return nil, fmt.Errorf("ticker required")
	}
	if !domrepo.IsValidTimeframe(p.Timeframe) {
		p.Timeframe = models.Daily
	}
	if p.Limit <= 0 {
		p.Limit = 250
	}
	if p.Limit > 5000 {
		p.Limit = 5000
	}

	var (
		bars []models.PriceBar
		err  error
	)
	if p.Timeframe == models.Weekly {
		bars, err = uc.store.WeeklyBars(ctx, p.Ticker)
	} else {
		bars, err = uc.store.DailyBars(ctx, p.Ticker)
	}
	if err != nil {
		return nil, fmt.Errorf("get bars: %w", err)
	}
	if len(bars) > p.Limit {
		bars = bars[len(bars)-p.Limit:]
	}

	return &GetBarsResult{
		Ticker:    p.Ticker,
		Timeframe: string(p.Timeframe),
		Count:     len(bars),
		Bars:      bars,
	}, nil
}

// Tickers lists every ticker with stored daily data.
func (uc *BarsUseCase) Tickers(ctx context.Context) ([]string, error) {
	tickers, err := uc.store.Tickers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tickers: %w", err)
	}
	return tickers, nil
}
