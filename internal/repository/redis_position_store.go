package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/redis/go-redis/v9"

	"StockPilot/internal/domain/models"
	domrepo "StockPilot/internal/domain/repository"
)

const positionsKey = "stockpilot:positions"

// RedisPositionStore keeps positions as JSON values of one Redis hash keyed by id.
type RedisPositionStore struct {
	client *redis.Client
	key    string
}

func NewRedisPositionStore(client *redis.Client) *RedisPositionStore {
	return &RedisPositionStore{client: client, key: positionsKey}
}

func (s *RedisPositionStore) List(ctx context.Context) ([]models.Position, error) {
	raw, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: list positions: %w", models.ErrDataSourceUnavailable, err)
	}
	out := make([]models.Position, 0, len(raw))
	for id, v := range raw {
		var p models.Position
		if err := json.Unmarshal([]byte(v), &p); err != nil {
			return nil, fmt.Errorf("decode position %s: %w", id, err)
		}
		out = append(out, p)
	}
	sortPositions(out)
	return out, nil
}

func (s *RedisPositionStore) Save(ctx context.Context, p models.Position) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode position: %w", err)
	}
	if err := s.client.HSet(ctx, s.key, p.ID, data).Err(); err != nil {
		return fmt.Errorf("%w: save position: %w", models.ErrDataSourceUnavailable, err)
	}
	return nil
}

func (s *RedisPositionStore) Delete(ctx context.Context, id string) error {
	n, err := s.client.HDel(ctx, s.key, id).Result()
	if err != nil {
		return fmt.Errorf("%w: delete position: %w", models.ErrDataSourceUnavailable, err)
	}
	if n == 0 {
		return fmt.Errorf("position %s: %w", id, models.ErrNotFound)
	}
	return nil
}

// MemoryPositionStore keeps positions in process, for the CLI and tests.
type MemoryPositionStore struct {
	mu sync.RWMutex
	m  map[string]models.Position
}

func NewMemoryPositionStore() *MemoryPositionStore {
	return &MemoryPositionStore{m: make(map[string]models.Position)}
}

func (s *MemoryPositionStore) List(context.Context) ([]models.Position, error) {
	s.mu.RLock()
	out := make([]models.Position, 0, len(s.m))
	for _, p := range s.m {
		out = append(out, p)
	}
	s.mu.RUnlock()
	sortPositions(out)
	return out, nil
}

func (s *MemoryPositionStore) Save(_ context.Context, p models.Position) error {
	s.mu.Lock()
	s.m[p.ID] = p
	s.mu.Unlock()
	return nil
}

func (s *MemoryPositionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.m[id]; !ok {
		return fmt.Errorf("position %s: %w", id, models.ErrNotFound)
	}
	delete(s.m, id)
	return nil
}

// sortPositions orders by creation time, then id.
func sortPositions(ps []models.Position) {
	sort.Slice(ps, func(i, j int) bool {
		if !ps[i].CreatedAt.Equal(ps[j].CreatedAt) {
			return ps[i].CreatedAt.Before(ps[j].CreatedAt)
		}
		return ps[i].ID < ps[j].ID
	})
}

var (
	_ domrepo.PositionStore = (*RedisPositionStore)(nil)
	_ domrepo.PositionStore = (*MemoryPositionStore)(nil)
)
