package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"StockPilot/internal/domain/models"
	domrepo "StockPilot/internal/domain/repository"
	domsvc "StockPilot/internal/domain/service"
	"StockPilot/internal/services/forest"
)

// FileModelStore loads tree-ensemble artifacts named {TICKER}_{kind}.json from a directory.
type FileModelStore struct {
	dir string
}

func NewFileModelStore(dir string) *FileModelStore {
	return &FileModelStore{dir: dir}
}

// Path returns the artifact path of a model.
func (s *FileModelStore) Path(ticker string, kind models.ModelKind) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s_%s.json", ticker, kind))
}

func (s *FileModelStore) LoadModel(_ context.Context, ticker string, kind models.ModelKind) (domsvc.FittedModel, error) {
	f, err := os.Open(s.Path(ticker, kind))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s %s: %w", ticker, kind, models.ErrModelNotFound)
		}
		return nil, fmt.Errorf("%w: open model: %w", models.ErrDataSourceUnavailable, err)
	}
	defer f.Close()

	m, err := forest.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("load %s %s: %w", ticker, kind, err)
	}
	return m, nil
}

var _ domrepo.ModelStore = (*FileModelStore)(nil)
