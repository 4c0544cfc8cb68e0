package analytics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"StockPilot/internal/domain/models"
	domrepo "StockPilot/internal/domain/repository"
	domsvc "StockPilot/internal/domain/service"
	xhttp "StockPilot/pkg/http"
)

// HTTPModelStore loads models hosted by the remote model service.
type HTTPModelStore struct {
	base     *HTTPServiceBase
	attempts int
}

func NewHTTPModelStore(base *HTTPServiceBase, attempts int) *HTTPModelStore {
	return &HTTPModelStore{base: base, attempts: attempts}
}

type modelInfoResp struct {
	FeatureNames []string `json:"feature_names"`
}

type predictReq struct {
	Rows [][]float64 `json:"rows"`
}

type predictResp struct {
	Predictions []float64 `json:"predictions"`
}

func modelPath(ticker string, kind models.ModelKind) string {
	return fmt.Sprintf("/models/%s/%s", url.PathEscape(ticker), kind)
}

// LoadModel fetches the model's fitted feature names. 404 maps to ErrModelNotFound.
func (s *HTTPModelStore) LoadModel(ctx context.Context, ticker string, kind models.ModelKind) (domsvc.FittedModel, error) {
	var info modelInfoResp
	if err := s.base.GetJSON(ctx, modelPath(ticker, kind), &info); err != nil {
		return nil, classify(ticker, kind, err)
	}
	if len(info.FeatureNames) == 0 {
		return nil, fmt.Errorf("%s %s: %w", ticker, kind, models.ErrModelNotFound)
	}
	return &HTTPModel{store: s, ticker: ticker, kind: kind, names: info.FeatureNames}, nil
}

// HTTPModel predicts through the model service.
type HTTPModel struct {
	store  *HTTPModelStore
	ticker string
	kind   models.ModelKind
	names  []string
}

func (m *HTTPModel) FeatureNames() []string { return m.names }

func (m *HTTPModel) Predict(rows [][]float64) ([]float64, error) {
	return m.PredictContext(context.Background(), rows)
}

// PredictContext is Predict bounded by ctx.
func (m *HTTPModel) PredictContext(ctx context.Context, rows [][]float64) ([]float64, error) {
	var resp predictResp
	err := m.store.base.PostJSONWithRetry(ctx, modelPath(m.ticker, m.kind)+"/predict", predictReq{Rows: rows}, &resp, m.store.attempts)
	if err != nil {
		return nil, classify(m.ticker, m.kind, err)
	}
	return resp.Predictions, nil
}

func classify(ticker string, kind models.ModelKind, err error) error {
	var se *xhttp.StatusError
	if errors.As(err, &se) && se.Code == http.StatusNotFound {
		return fmt.Errorf("%s %s: %w", ticker, kind, models.ErrModelNotFound)
	}
	return fmt.Errorf("%w: model service: %w", models.ErrDataSourceUnavailable, err)
}

var _ domrepo.ModelStore = (*HTTPModelStore)(nil)
