package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/everworldlife-netizen/Live-Lox-Model/internal/domain/model"
	"github.com/everworldlife-netizen/Live-Lox-Model/pkg/logger"
)

// MemoryStore keeps everything in process. It is safe for concurrent use.
type MemoryStore struct {
	mu sync.RWMutex

	log    []model.Assumption
	active map[model.AssumptionKey]int // index into log

	projections map[string][]model.PlayerProjection
	seen        map[[3]string]struct{}

	logger logger.Logger
}

// NewMemoryStore creates an empty store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	cfg := buildConfig(opts)
	return &MemoryStore{
		active:      make(map[model.AssumptionKey]int),
		projections: make(map[string][]model.PlayerProjection),
		seen:        make(map[[3]string]struct{}),
		logger:      cfg.logger,
	}
}

// Append implements AssumptionStore.
func (s *MemoryStore) Append(_ context.Context, a model.Assumption) error {
	if !validAssumption(a) {
		return fmt.Errorf("%w: assumption needs id, player and kind", ErrInvalid)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log = append(s.log, a)
	s.active[a.Key()] = len(s.log) - 1
	return nil
}

// Active implements AssumptionStore.
func (s *MemoryStore) Active(_ context.Context, key model.AssumptionKey) (model.Assumption, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.active[key]
	if !ok {
		return model.Assumption{}, false, nil
	}
	return s.log[i], true, nil
}

// ActiveForPlayer implements AssumptionStore.
func (s *MemoryStore) ActiveForPlayer(_ context.Context, playerID string) ([]model.Assumption, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var idx []int
	for key, i := range s.active {
		if key.PlayerID == playerID {
			idx = append(idx, i)
		}
	}
	sort.Ints(idx)
	out := make([]model.Assumption, len(idx))
	for j, i := range idx {
		out[j] = s.log[i]
	}
	return out, nil
}

// History implements AssumptionStore.
func (s *MemoryStore) History(_ context.Context, playerID string) ([]model.Assumption, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Assumption
	for _, a := range s.log {
		if a.PlayerID == playerID {
			out = append(out, a)
		}
	}
	return out, nil
}

// SaveProjection implements ProjectionStore.
func (s *MemoryStore) SaveProjection(_ context.Context, p model.PlayerProjection) error {
	if !validProjection(p) {
		return fmt.Errorf("%w: projection needs run and player", ErrInvalid)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	k := projectionKey(p)
	if _, dup := s.seen[k]; dup {
		return fmt.Errorf("%w: run %s player %s game %s", ErrDuplicate, p.RunID, p.PlayerID, p.GameID)
	}
	s.seen[k] = struct{}{}
	s.projections[p.RunID] = append(s.projections[p.RunID], p)
	return nil
}

// Projections implements ProjectionStore.
func (s *MemoryStore) Projections(_ context.Context, runID string) ([]model.PlayerProjection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list, ok := s.projections[runID]
	if !ok {
		return nil, fmt.Errorf("%w: run %s", ErrNotFound, runID)
	}
	out := make([]model.PlayerProjection, len(list))
	copy(out, list)
	return out, nil
}

// TopN implements ProjectionStore.
func (s *MemoryStore) TopN(ctx context.Context, runID string, n int) ([]model.PlayerProjection, error) {
	if n <= 0 {
		return nil, ErrInvalidLimit
	}
	list, err := s.Projections(ctx, runID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(list, func(i, j int) bool { return rankBefore(list[i], list[j]) })
	if n < len(list) {
		list = list[:n]
	}
	return list, nil
}

// Close implements Store.
func (s *MemoryStore) Close() error { return nil }
