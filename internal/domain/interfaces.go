package domain

import "context"

// Encoder converts free text into a unit-length vector of fixed dimension.
// Implementations must be safe for concurrent use.
type Encoder interface {
	Name() string
	Dimension() int
	Encode(ctx context.Context, text string) ([]float64, error)
}

// Index is a handle to one named index. Upsert overwrites by record id;
// Query returns at most topK hits ordered by descending similarity.
type Index interface {
	Name() string
	Upsert(ctx context.Context, records []VectorRecord) error
	Query(ctx context.Context, vector []float64, topK int) ([]Hit, error)
}

// Store is a client to the vector index service. List must not mutate
// state; Delete is destructive and irreversible.
type Store interface {
	List(ctx context.Context) ([]IndexInfo, error)
	Create(ctx context.Context, name string, dimension int, spaceType, precision string) error
	Delete(ctx context.Context, name string) error
	Get(ctx context.Context, name string) (Index, error)
}

// Generator produces text from a prompt using the named model.
type Generator interface {
	Generate(ctx context.Context, model, prompt string) (string, error)
}

// Searcher is the query-side service consumed by the chat orchestrator
// and the HTTP surface.
type Searcher interface {
	Search(ctx context.Context, query string, topK int) ([]SearchResult, float64, error)
}
