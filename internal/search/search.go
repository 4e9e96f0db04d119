package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"remedyrag/internal/domain"
)

// MaxTopK caps how many results one query may request. The bound keeps
// downstream prompt size and latency predictable.
const MaxTopK = 50

// Service encodes a free-text query, runs a similarity query against the
// index handle, and maps raw hits into the stable result shape. It holds
// only shared read-only collaborators and is safe for concurrent use.
type Service struct {
	encoder domain.Encoder
	index   domain.Index
}

func New(encoder domain.Encoder, index domain.Index) *Service {
	return &Service{encoder: encoder, index: index}
}

// Search returns at most topK results ordered by descending similarity,
// along with the wall-clock latency of the encode+query path in
// milliseconds. Validation failures are rejected before any encoder or
// index call; downstream failures surface as a single wrapped error with
// no partial results.
func (s *Service) Search(ctx context.Context, query string, topK int) ([]domain.SearchResult, float64, error) {
	if strings.TrimSpace(query) == "" {
		return nil, 0, fmt.Errorf("%w: query cannot be empty", domain.ErrInvalidArgument)
	}
	if topK < 1 || topK > MaxTopK {
		return nil, 0, fmt.Errorf("%w: top_k must be between 1 and %d", domain.ErrInvalidArgument, MaxTopK)
	}

	start := time.Now()
	vector, err := s.encoder.Encode(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: encode query: %v", domain.ErrSearchFailed, err)
	}
	hits, err := s.index.Query(ctx, vector, topK)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: query index: %v", domain.ErrSearchFailed, err)
	}
	elapsed := float64(time.Since(start).Microseconds()) / 1000.0

	// hit order is the service's ranking; no local re-ranking
	results := make([]domain.SearchResult, 0, len(hits))
	for _, hit := range hits {
		results = append(results, mapHit(hit))
	}
	return results, elapsed, nil
}

func mapHit(hit domain.Hit) domain.SearchResult {
	r := domain.SearchResult{ID: hit.ID, Similarity: hit.Similarity}
	if v, ok := hit.Meta["remedy_name"].(string); ok {
		r.RemedyName = v
	} else {
		r.RemedyName = "Unknown"
	}
	if v, ok := hit.Meta["alternative_names"].(string); ok {
		r.AlternativeNames = v
	}
	if v, ok := hit.Meta["text_preview"].(string); ok {
		r.TextPreview = v
	}
	if v, ok := hit.Meta["full_text"].(string); ok {
		r.FullText = v
	}
	return r
}
