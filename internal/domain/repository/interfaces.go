package repository

import (
	"context"

	"StockPilot/internal/domain/models"
	"StockPilot/internal/domain/service"
)

// ModelStore loads fitted per-ticker models. Absent models fail with
// models.ErrModelNotFound.
type ModelStore interface {
	LoadModel(ctx context.Context, ticker string, kind models.ModelKind) (service.FittedModel, error)
}

// ParamStore returns the ticker to parameter mapping found by the offline search.
// An absent parameter file is an empty mapping.
type ParamStore interface {
	LoadParameters(ctx context.Context) (map[string]models.ModelParameterSet, error)
}

// PositionStore persists user positions.
type PositionStore interface {
	List(ctx context.Context) ([]models.Position, error)
	Save(ctx context.Context, p models.Position) error
	Delete(ctx context.Context, id string) error
}

// ResultPublisher ships finished batch results to downstream consumers.
type ResultPublisher interface {
	PublishScreen(ctx context.Context, res *models.ScreenResult) error
	PublishBacktests(ctx context.Context, res *models.BatchBacktestResult) error
}

// Metrics records pipeline activity.
type Metrics interface {
	RecordStage(stage string, seconds float64)
	RecordOutcome(op string, reason models.FailureReason)
	RecordIngest(kind string, n int)
	RecordError(kind string)
}
