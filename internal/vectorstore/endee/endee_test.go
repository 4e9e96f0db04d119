package endee

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"remedyrag/internal/domain"
)

// testClient points a Client at a stub service.
func testClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	u, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	return NewClient(Config{Host: u.Hostname(), Port: u.Port()}), srv
}

func TestBaseURLComposition(t *testing.T) {
	c := NewClient(Config{Host: "endee", Port: "9000"})
	if c.BaseURL() != "http://endee:9000/api/v1" {
		t.Errorf("base url = %q", c.BaseURL())
	}
}

func TestList(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api/v1/index/list" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"indexes": []map[string]any{
				{"name": "homeopathy_remedies", "dimension": 384, "space_type": "cosine", "precision": "int8d", "total_elements": 688},
			},
		})
	}))

	infos, err := c.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(infos) != 1 {
		t.Fatalf("got %d indexes, want 1", len(infos))
	}
	want := domain.IndexInfo{Name: "homeopathy_remedies", Dimension: 384, SpaceType: "cosine", Precision: "int8d", TotalElements: 688}
	if infos[0] != want {
		t.Errorf("info = %+v, want %+v", infos[0], want)
	}
}

func TestCreateSendsIndexParameters(t *testing.T) {
	var got map[string]any
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v1/index/create" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
	}))

	if err := c.Create(context.Background(), "homeopathy_remedies", 384, "cosine", "int8d"); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if got["name"] != "homeopathy_remedies" || got["dimension"] != float64(384) ||
		got["space_type"] != "cosine" || got["precision"] != "int8d" {
		t.Errorf("create payload = %+v", got)
	}
}

func TestDelete(t *testing.T) {
	called := false
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		if r.Method != http.MethodDelete || r.URL.Path != "/api/v1/index/homeopathy_remedies" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
	}))
	if err := c.Delete(context.Background(), "homeopathy_remedies"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if !called {
		t.Error("no request issued")
	}
}

func TestGetUnknownIndexIsNotFound(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"indexes": []any{}})
	}))
	_, err := c.Get(context.Background(), "missing")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestUpsertAndQueryThroughHandle(t *testing.T) {
	var upserted struct {
		Vectors []domain.VectorRecord `json:"vectors"`
	}
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/api/v1/index/list":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"indexes": []map[string]any{{"name": "homeopathy_remedies", "dimension": 3}},
			})
		case r.URL.Path == "/api/v1/index/homeopathy_remedies/vector/insert":
			_ = json.NewDecoder(r.Body).Decode(&upserted)
		case r.URL.Path == "/api/v1/index/homeopathy_remedies/search":
			var req struct {
				Vector []float64 `json:"vector"`
				TopK   int       `json:"top_k"`
			}
			_ = json.NewDecoder(r.Body).Decode(&req)
			if req.TopK != 3 {
				t.Errorf("top_k = %d, want 3", req.TopK)
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"results": []map[string]any{
					{"id": "chunk_0", "similarity": 0.97, "meta": map[string]any{"remedy_name": "A"}},
				},
			})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))

	handle, err := c.Get(context.Background(), "homeopathy_remedies")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	records := []domain.VectorRecord{{
		ID:     "chunk_0",
		Vector: []float64{1, 0, 0},
		Meta:   map[string]any{"remedy_name": "A"},
		Filter: map[string]any{"remedy_name": "A", "chunk_type": "flat_window"},
	}}
	if err := handle.Upsert(context.Background(), records); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if len(upserted.Vectors) != 1 || upserted.Vectors[0].ID != "chunk_0" {
		t.Errorf("upsert payload = %+v", upserted.Vectors)
	}

	hits, err := handle.Query(context.Background(), []float64{1, 0, 0}, 3)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(hits) != 1 || hits[0].ID != "chunk_0" || hits[0].Similarity != 0.97 {
		t.Errorf("hits = %+v", hits)
	}
}

func TestServerErrorsPropagate(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	_, err := c.List(context.Background())
	if err == nil || !strings.Contains(err.Error(), "500") {
		t.Errorf("got %v, want propagated 500", err)
	}
}
