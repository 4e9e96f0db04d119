package ingest

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"testing"

	"remedyrag/internal/domain"
	"remedyrag/internal/vectorstore/memory"
)

// hashEncoder is a deterministic bag-of-words encoder: each token bumps
// one dimension, then the vector is scaled to unit length. Texts sharing
// tokens get higher cosine similarity, which is enough for ranking tests.
type hashEncoder struct {
	dim  int
	fail bool
}

func (e *hashEncoder) Name() string   { return "hash" }
func (e *hashEncoder) Dimension() int { return e.dim }

func (e *hashEncoder) Encode(ctx context.Context, text string) ([]float64, error) {
	if e.fail {
		return nil, errors.New("encoder down")
	}
	v := make([]float64, e.dim)
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(tok))
		v[int(h.Sum32())%e.dim]++
	}
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	if sum > 0 {
		inv := 1 / math.Sqrt(sum)
		for i := range v {
			v[i] *= inv
		}
	}
	return v, nil
}

// recordingIndex wraps an index handle and captures every upsert batch.
type recordingIndex struct {
	domain.Index
	batches [][]domain.VectorRecord
	failOn  int // 1-based batch number to fail on, 0 = never
}

func (r *recordingIndex) Upsert(ctx context.Context, records []domain.VectorRecord) error {
	if r.failOn > 0 && len(r.batches)+1 == r.failOn {
		return errors.New("service rejected batch")
	}
	r.batches = append(r.batches, records)
	return r.Index.Upsert(ctx, records)
}

// recordingStore hands out recording index handles.
type recordingStore struct {
	domain.Store
	failOn int
	last   *recordingIndex
}

func (s *recordingStore) Get(ctx context.Context, name string) (domain.Index, error) {
	h, err := s.Store.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	s.last = &recordingIndex{Index: h, failOn: s.failOn}
	return s.last, nil
}

func testChunks(n int) []domain.Chunk {
	chunks := make([]domain.Chunk, n)
	for i := range chunks {
		chunks[i] = domain.Chunk{
			Text:       fmt.Sprintf("symptom pattern number %d with varying detail", i),
			RemedyName: fmt.Sprintf("Remedy %d", i%7),
			ChunkType:  "flat_window",
		}
	}
	return chunks
}

func newTestIngestor(store domain.Store, decide DecideExisting) *Ingestor {
	return New(&hashEncoder{dim: 64}, store, Options{
		IndexName: "homeopathy_remedies",
		Dimension: 64,
		BatchSize: 50,
	}, decide, nil)
}

func TestRunBatchesSequentiallyInOrder(t *testing.T) {
	store := &recordingStore{Store: memory.NewStore()}
	ing := newTestIngestor(store, nil)

	report, err := ing.Run(context.Background(), testChunks(120))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Batches != 3 {
		t.Errorf("report.Batches = %d, want 3", report.Batches)
	}
	batches := store.last.batches
	if len(batches) != 3 {
		t.Fatalf("issued %d upsert calls, want ceil(120/50) = 3", len(batches))
	}
	wantSizes := []int{50, 50, 20}
	pos := 0
	for b, batch := range batches {
		if len(batch) != wantSizes[b] {
			t.Errorf("batch %d has %d records, want %d", b, len(batch), wantSizes[b])
		}
		for _, rec := range batch {
			want := fmt.Sprintf("chunk_%d", pos)
			if rec.ID != want {
				t.Fatalf("batch %d: record id %q, want %q (order not preserved)", b, rec.ID, want)
			}
			pos++
		}
	}
}

func TestBuildRecordsVectorsAreUnitLength(t *testing.T) {
	ing := newTestIngestor(memory.NewStore(), nil)
	records, err := ing.BuildRecords(context.Background(), testChunks(10))
	if err != nil {
		t.Fatalf("BuildRecords: %v", err)
	}
	for _, rec := range records {
		var sum float64
		for _, x := range rec.Vector {
			sum += x * x
		}
		if norm := math.Sqrt(sum); math.Abs(norm-1.0) > 1e-3 {
			t.Errorf("record %s has L2 norm %f, want 1.0", rec.ID, norm)
		}
	}
}

func TestBuildRecordsMetaAndFilter(t *testing.T) {
	long := strings.Repeat("symptom detail ", 40) // > 300 chars
	chunks := []domain.Chunk{{Text: long, RemedyName: "Pulsatilla", RemedyIndex: 9, ChunkType: "flat_window"}}
	ing := newTestIngestor(memory.NewStore(), nil)
	records, err := ing.BuildRecords(context.Background(), chunks)
	if err != nil {
		t.Fatalf("BuildRecords: %v", err)
	}
	rec := records[0]
	if rec.ID != "chunk_0" {
		t.Errorf("id = %q, want chunk_0", rec.ID)
	}
	preview := rec.Meta["text_preview"].(string)
	if !strings.HasSuffix(preview, "...") {
		t.Errorf("preview of long text should end with ellipsis: %q", preview)
	}
	if len([]rune(preview)) > 303 {
		t.Errorf("preview is %d runes, want <= 303", len([]rune(preview)))
	}
	if rec.Meta["full_text"] != long {
		t.Error("full_text must carry the untruncated chunk text")
	}
	if rec.Filter["remedy_name"] != "Pulsatilla" || rec.Filter["chunk_type"] != "flat_window" {
		t.Errorf("filter = %+v", rec.Filter)
	}
	if rec.Meta["remedy_index"] != 9 {
		t.Errorf("remedy_index = %v, want 9", rec.Meta["remedy_index"])
	}
}

func TestRunTwiceWithReuseIsIdempotent(t *testing.T) {
	store := memory.NewStore()
	chunks := testChunks(30)

	decide := func(info domain.IndexInfo) (bool, error) { return false, nil }
	ing := newTestIngestor(store, decide)

	if _, err := ing.Run(context.Background(), chunks); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if _, err := ing.Run(context.Background(), chunks); err != nil {
		t.Fatalf("second run: %v", err)
	}

	infos, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(infos) != 1 {
		t.Fatalf("got %d indexes, want 1", len(infos))
	}
	if infos[0].TotalElements != 30 {
		t.Errorf("record count after re-ingestion = %d, want 30", infos[0].TotalElements)
	}
}

func TestRunRecreateDestroysExistingRecords(t *testing.T) {
	store := memory.NewStore()
	ing := newTestIngestor(store, func(domain.IndexInfo) (bool, error) { return true, nil })

	if _, err := ing.Run(context.Background(), testChunks(40)); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if _, err := ing.Run(context.Background(), testChunks(10)); err != nil {
		t.Fatalf("second run: %v", err)
	}
	infos, _ := store.List(context.Background())
	if infos[0].TotalElements != 10 {
		t.Errorf("record count after recreate = %d, want 10", infos[0].TotalElements)
	}
}

func TestRunAbortsOnFailedBatchWithStage(t *testing.T) {
	store := &recordingStore{Store: memory.NewStore(), failOn: 2}
	ing := newTestIngestor(store, nil)

	_, err := ing.Run(context.Background(), testChunks(120))
	if err == nil {
		t.Fatal("Run succeeded, want failure on batch 2")
	}
	if !strings.Contains(err.Error(), "upsert batch 2/3") {
		t.Errorf("error does not name the failing batch: %v", err)
	}
	if len(store.last.batches) != 1 {
		t.Errorf("ingestion continued past the failed batch: %d batches committed", len(store.last.batches))
	}
}

func TestRunFailsFastOnEncoderError(t *testing.T) {
	ing := New(&hashEncoder{dim: 64, fail: true}, memory.NewStore(), Options{
		IndexName: "homeopathy_remedies",
		Dimension: 64,
	}, nil, nil)
	_, err := ing.Run(context.Background(), testChunks(5))
	if err == nil || !strings.Contains(err.Error(), "encode") {
		t.Errorf("want stage-tagged encode error, got %v", err)
	}
}
