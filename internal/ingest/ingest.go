package ingest

import (
	"context"
	"fmt"

	"remedyrag/internal/domain"
)

const previewLimit = 300

// DecideExisting resolves what to do when the target index already
// exists: recreate (destroy all stored records) or reuse as-is.
type DecideExisting func(info domain.IndexInfo) (recreate bool, err error)

// Options fix the index parameters and batching discipline for one run.
type Options struct {
	IndexName string
	Dimension int
	SpaceType string
	Precision string
	BatchSize int
	ProbeText string
}

// Ingestor drives one ingestion run: resolve the target index, encode
// every chunk in input order, and upsert in fixed-size batches.
type Ingestor struct {
	encoder domain.Encoder
	store   domain.Store
	opts    Options
	decide  DecideExisting
	logf    func(format string, args ...any)
}

// Report summarizes a completed run.
type Report struct {
	IndexName string
	Chunks    int
	Batches   int
	Reused    bool
}

func New(encoder domain.Encoder, store domain.Store, opts Options, decide DecideExisting, logf func(string, ...any)) *Ingestor {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 50
	}
	if opts.SpaceType == "" {
		opts.SpaceType = "cosine"
	}
	if opts.Precision == "" {
		opts.Precision = "int8d"
	}
	if logf == nil {
		logf = func(string, ...any) {}
	}
	return &Ingestor{encoder: encoder, store: store, opts: opts, decide: decide, logf: logf}
}

// Run executes the full pipeline. Any failure before the final smoke
// query aborts the run with a stage-tagged error; the smoke query itself
// is reported but never fatal, the data is already committed.
func (ing *Ingestor) Run(ctx context.Context, chunks []domain.Chunk) (*Report, error) {
	if len(chunks) == 0 {
		return nil, fmt.Errorf("resolve corpus: no chunks to ingest")
	}

	handle, reused, err := ing.resolveIndex(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve index: %w", err)
	}

	ing.logf("encoding %d chunks (dimension %d)", len(chunks), ing.opts.Dimension)
	records, err := ing.BuildRecords(ctx, chunks)
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}

	batches := (len(records) + ing.opts.BatchSize - 1) / ing.opts.BatchSize
	for i := 0; i < len(records); i += ing.opts.BatchSize {
		end := i + ing.opts.BatchSize
		if end > len(records) {
			end = len(records)
		}
		num := i/ing.opts.BatchSize + 1
		ing.logf("upserting batch %d/%d (%d vectors)", num, batches, end-i)
		if err := handle.Upsert(ctx, records[i:end]); err != nil {
			return nil, fmt.Errorf("upsert batch %d/%d: %w", num, batches, err)
		}
	}

	ing.smokeTest(ctx, handle)

	return &Report{IndexName: ing.opts.IndexName, Chunks: len(chunks), Batches: batches, Reused: reused}, nil
}

// BuildRecords encodes chunks in input order into vector records with
// positional ids. Record i always carries id "chunk_i".
func (ing *Ingestor) BuildRecords(ctx context.Context, chunks []domain.Chunk) ([]domain.VectorRecord, error) {
	records := make([]domain.VectorRecord, 0, len(chunks))
	for i, chunk := range chunks {
		vector, err := ing.encoder.Encode(ctx, chunk.Text)
		if err != nil {
			return nil, fmt.Errorf("chunk %d (%s): %w", i, chunk.RemedyName, err)
		}
		records = append(records, domain.VectorRecord{
			ID:     fmt.Sprintf("chunk_%d", i),
			Vector: vector,
			Meta: map[string]any{
				"remedy_name":  chunk.RemedyName,
				"remedy_index": chunk.RemedyIndex,
				"text_preview": Preview(chunk.Text),
				"full_text":    chunk.Text,
			},
			Filter: map[string]any{
				"remedy_name": chunk.RemedyName,
				"chunk_type":  chunk.ChunkType,
			},
		})
	}
	return records, nil
}

// Preview truncates chunk text to the preview limit and marks the cut.
func Preview(text string) string {
	runes := []rune(text)
	if len(runes) <= previewLimit {
		return text
	}
	return string(runes[:previewLimit]) + "..."
}

// resolveIndex applies the idempotency rule: an existing index with the
// target name is reused or destroyed per the caller's decision, anything
// else creates the index fresh.
func (ing *Ingestor) resolveIndex(ctx context.Context) (domain.Index, bool, error) {
	infos, err := ing.store.List(ctx)
	if err != nil {
		return nil, false, err
	}
	for _, info := range infos {
		if info.Name != ing.opts.IndexName {
			continue
		}
		recreate := false
		if ing.decide != nil {
			recreate, err = ing.decide(info)
			if err != nil {
				return nil, false, err
			}
		}
		if !recreate {
			ing.logf("reusing existing index %q (%d records)", info.Name, info.TotalElements)
			handle, err := ing.store.Get(ctx, ing.opts.IndexName)
			return handle, true, err
		}
		ing.logf("deleting existing index %q", info.Name)
		if err := ing.store.Delete(ctx, ing.opts.IndexName); err != nil {
			return nil, false, err
		}
		break
	}
	ing.logf("creating index %q (dimension=%d, space=%s, precision=%s)",
		ing.opts.IndexName, ing.opts.Dimension, ing.opts.SpaceType, ing.opts.Precision)
	if err := ing.store.Create(ctx, ing.opts.IndexName, ing.opts.Dimension, ing.opts.SpaceType, ing.opts.Precision); err != nil {
		return nil, false, err
	}
	handle, err := ing.store.Get(ctx, ing.opts.IndexName)
	return handle, false, err
}

// smokeTest runs one probe query and reports the top hits. The run has
// already committed, so failures here are logged and swallowed.
func (ing *Ingestor) smokeTest(ctx context.Context, handle domain.Index) {
	probe := ing.opts.ProbeText
	if probe == "" {
		probe = "headache with nausea and vomiting"
	}
	vector, err := ing.encoder.Encode(ctx, probe)
	if err != nil {
		ing.logf("smoke query skipped: %v", err)
		return
	}
	hits, err := handle.Query(ctx, vector, 3)
	if err != nil {
		ing.logf("smoke query failed: %v", err)
		return
	}
	ing.logf("smoke query %q returned %d hits", probe, len(hits))
	for i, hit := range hits {
		name, _ := hit.Meta["remedy_name"].(string)
		ing.logf("  %d. %s (similarity %.4f)", i+1, name, hit.Similarity)
	}
}
