package domain

// Chunk is one unit of remedy text plus its provenance metadata, the
// atomic unit of ingestion. Chunks are read-only once loaded.
type Chunk struct {
	Text        string `json:"text"`
	RemedyName  string `json:"remedy_name"`
	RemedyIndex int    `json:"remedy_index"`
	ChunkType   string `json:"chunk_type"`
}

// VectorRecord is the per-chunk payload sent to the index service.
// The id is positional ("chunk_{i}") so re-ingesting the same corpus in
// the same order overwrites record-for-record.
type VectorRecord struct {
	ID     string         `json:"id"`
	Vector []float64      `json:"vector"`
	Meta   map[string]any `json:"meta"`
	Filter map[string]any `json:"filter"`
}

// Hit is one raw similarity match returned by the index service.
type Hit struct {
	ID         string         `json:"id"`
	Similarity float64        `json:"similarity"`
	Meta       map[string]any `json:"meta"`
}

// IndexInfo describes one index as reported by the index service.
type IndexInfo struct {
	Name          string `json:"name"`
	Dimension     int    `json:"dimension"`
	SpaceType     string `json:"space_type"`
	Precision     string `json:"precision"`
	TotalElements int    `json:"total_elements"`
}

// SearchResult is a matching remedy chunk with its similarity score.
type SearchResult struct {
	ID               string  `json:"id"`
	RemedyName       string  `json:"remedy_name"`
	AlternativeNames string  `json:"alternative_names"`
	Similarity       float64 `json:"similarity"`
	TextPreview      string  `json:"text_preview"`
	FullText         string  `json:"full_text,omitempty"`
}

// ChatAnswer pairs generated text with the exact results the prompt was
// built from. Sources are never re-queried or reordered after generation.
type ChatAnswer struct {
	Answer  string         `json:"answer"`
	Sources []SearchResult `json:"sources"`
}

// ChatTurn is one prior exchange in a chat conversation.
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
