package corpus

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"remedyrag/internal/chunker"
	"remedyrag/internal/domain"
)

// Load reads the chunk corpus from a JSON file: an array of chunk
// objects. Missing remedy_index defaults to 0 and missing chunk_type to
// "flat_window". A missing or malformed file is a fatal ingestion error.
func Load(path string) ([]domain.Chunk, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read corpus %s: %w", path, err)
	}
	var chunks []domain.Chunk
	if err := json.Unmarshal(data, &chunks); err != nil {
		return nil, fmt.Errorf("parse corpus %s: %w", path, err)
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("corpus %s contains no chunks", path)
	}
	for i := range chunks {
		if strings.TrimSpace(chunks[i].Text) == "" {
			return nil, fmt.Errorf("corpus %s: chunk %d has empty text", path, i)
		}
		if chunks[i].RemedyName == "" {
			return nil, fmt.Errorf("corpus %s: chunk %d has no remedy_name", path, i)
		}
		if chunks[i].ChunkType == "" {
			chunks[i].ChunkType = chunker.ChunkType
		}
	}
	return chunks, nil
}

// Build windows raw remedy text files (one .txt per remedy, file name =
// remedy name) into a chunk corpus ready for ingestion.
func Build(dir string, c *chunker.FlatWindow) ([]domain.Chunk, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.txt"))
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no .txt remedy files found in %s", dir)
	}
	sort.Strings(matches)
	var chunks []domain.Chunk
	for i, path := range matches {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read remedy %s: %w", path, err)
		}
		name := strings.TrimSuffix(filepath.Base(path), ".txt")
		chunks = append(chunks, c.Chunk(name, i, string(data))...)
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("remedy files in %s produced no chunks", dir)
	}
	return chunks, nil
}

// Save writes a chunk corpus to a JSON file, creating directories as needed.
func Save(path string, chunks []domain.Chunk) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(chunks, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
