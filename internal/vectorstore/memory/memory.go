package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"remedyrag/internal/domain"
)

// Store is an in-process vector index service using brute-force cosine
// similarity. It implements both the store and index-handle contracts and
// backs the standalone search client and tests.
type Store struct {
	mu      sync.RWMutex
	indexes map[string]*index
}

type index struct {
	info    domain.IndexInfo
	byID    map[string]int
	records []domain.VectorRecord
}

func NewStore() *Store {
	return &Store{indexes: make(map[string]*index)}
}

func (s *Store) List(ctx context.Context) ([]domain.IndexInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	infos := make([]domain.IndexInfo, 0, len(s.indexes))
	for _, idx := range s.indexes {
		info := idx.info
		info.TotalElements = len(idx.records)
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

func (s *Store) Create(ctx context.Context, name string, dimension int, spaceType, precision string) error {
	if dimension <= 0 {
		return errors.New("invalid dimension")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.indexes[name]; ok {
		return fmt.Errorf("index %q already exists", name)
	}
	s.indexes[name] = &index{
		info: domain.IndexInfo{Name: name, Dimension: dimension, SpaceType: spaceType, Precision: precision},
		byID: make(map[string]int),
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.indexes[name]; !ok {
		return fmt.Errorf("index %q: %w", name, domain.ErrNotFound)
	}
	delete(s.indexes, name)
	return nil
}

func (s *Store) Get(ctx context.Context, name string) (domain.Index, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.indexes[name]; !ok {
		return nil, fmt.Errorf("index %q: %w", name, domain.ErrNotFound)
	}
	return &handle{store: s, name: name}, nil
}

type handle struct {
	store *Store
	name  string
}

func (h *handle) Name() string { return h.name }

// Upsert overwrites records that share an id with an already stored
// record and appends the rest.
func (h *handle) Upsert(ctx context.Context, records []domain.VectorRecord) error {
	h.store.mu.Lock()
	defer h.store.mu.Unlock()
	idx, ok := h.store.indexes[h.name]
	if !ok {
		return fmt.Errorf("index %q: %w", h.name, domain.ErrNotFound)
	}
	for _, r := range records {
		if len(r.Vector) != idx.info.Dimension {
			return fmt.Errorf("vector dimension %d does not match index dimension %d", len(r.Vector), idx.info.Dimension)
		}
		if pos, exists := idx.byID[r.ID]; exists {
			idx.records[pos] = r
			continue
		}
		idx.byID[r.ID] = len(idx.records)
		idx.records = append(idx.records, r)
	}
	return nil
}

func (h *handle) Query(ctx context.Context, vector []float64, topK int) ([]domain.Hit, error) {
	h.store.mu.RLock()
	defer h.store.mu.RUnlock()
	idx, ok := h.store.indexes[h.name]
	if !ok {
		return nil, fmt.Errorf("index %q: %w", h.name, domain.ErrNotFound)
	}
	if topK <= 0 {
		topK = 5
	}
	// vectors are L2-normalized, so dot product is cosine similarity
	hits := make([]domain.Hit, 0, len(idx.records))
	for _, r := range idx.records {
		hits = append(hits, domain.Hit{ID: r.ID, Similarity: dot(r.Vector, vector), Meta: r.Meta})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Similarity > hits[j].Similarity })
	if topK < len(hits) {
		hits = hits[:topK]
	}
	return hits, nil
}

func dot(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}
