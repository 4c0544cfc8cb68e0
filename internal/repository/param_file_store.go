package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"StockPilot/internal/domain/models"
	domrepo "StockPilot/internal/domain/repository"
	applogger "StockPilot/pkg/logger"
)

// ParamFileStore reads the ticker to parameter JSON mapping and keeps the
// last good copy in memory.
type ParamFileStore struct {
	path string
	l    *applogger.Logger

	mu     sync.RWMutex
	params map[string]models.ModelParameterSet
	loaded bool
}

func NewParamFileStore(path string) *ParamFileStore {
	return &ParamFileStore{path: path}
}

// SetLogger injects a structured logger.
func (s *ParamFileStore) SetLogger(l *applogger.Logger) { s.l = l }

// LoadParameters returns the mapping, reading the file on first use. A missing
// file is an empty mapping.
func (s *ParamFileStore) LoadParameters(_ context.Context) (map[string]models.ModelParameterSet, error) {
	s.mu.RLock()
	if s.loaded {
		out := s.params
		s.mu.RUnlock()
		return out, nil
	}
	s.mu.RUnlock()
	if err := s.Reload(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.params, nil
}

// Reload re-reads the file, replacing the mapping only on success.
func (s *ParamFileStore) Reload() error {
	params, err := readParams(s.path)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.params = params
	s.loaded = true
	s.mu.Unlock()
	return nil
}

// readParams decodes the file. Entries carrying an "error" key come from a
// failed search and are skipped, as are entries with unusable lengths.
func readParams(path string) (map[string]models.ModelParameterSet, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]models.ModelParameterSet{}, nil
		}
		return nil, fmt.Errorf("read params: %w", err)
	}
	var entries map[string]json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("parse params: %w", err)
	}
	out := make(map[string]models.ModelParameterSet, len(entries))
	for ticker, msg := range entries {
		var probe map[string]json.RawMessage
		if err := json.Unmarshal(msg, &probe); err != nil {
			continue
		}
		if _, failed := probe["error"]; failed {
			continue
		}
		var p models.ModelParameterSet
		if err := json.Unmarshal(msg, &p); err != nil {
			continue
		}
		if p.RSILength < 2 || p.BBandsLength < 2 {
			continue
		}
		out[ticker] = p
	}
	return out, nil
}

// Watch reloads the mapping whenever the file is written until ctx ends.
// Parse failures keep the previous mapping.
func (s *ParamFileStore) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("params watcher: %w", err)
	}
	// watch the directory so atomic renames are seen
	if err := w.Add(filepath.Dir(s.path)); err != nil {
		_ = w.Close()
		return fmt.Errorf("watch params dir: %w", err)
	}
	go func() {
		defer w.Close()
		target := filepath.Clean(s.path)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target || !ev.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
					continue
				}
				if err := s.Reload(); err != nil {
					if s.l != nil {
						s.l.Warn("params reload failed", applogger.String("path", s.path), applogger.Error(err))
					}
					continue
				}
				if s.l != nil {
					s.l.Info("params reloaded", applogger.String("path", s.path))
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				if s.l != nil {
					s.l.Warn("params watcher error", applogger.Error(err))
				}
			}
		}
	}()
	return nil
}

var _ domrepo.ParamStore = (*ParamFileStore)(nil)
