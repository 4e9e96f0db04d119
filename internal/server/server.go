package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"remedyrag/internal/chat"
	"remedyrag/internal/domain"
)

// App holds the shared read-only collaborators for every handler. It is
// built once at startup and never mutated, so handlers need no locking.
// A nil searcher means the backing index was not ready at startup; the
// API stays up and reports the condition instead of blocking.
type App struct {
	Searcher   domain.Searcher
	Chat       *chat.Orchestrator
	Store      domain.Store
	IndexName  string
	Dimension  int
	Metric     string
	NotReady   string // non-empty: why the index is unavailable
	Version    string
	logHandler func(format string, args ...any)
}

func NewApp(searcher domain.Searcher, orch *chat.Orchestrator, store domain.Store, indexName string, dimension int, metric, notReady string) *App {
	return &App{
		Searcher:   searcher,
		Chat:       orch,
		Store:      store,
		IndexName:  indexName,
		Dimension:  dimension,
		Metric:     metric,
		NotReady:   notReady,
		Version:    "1.0.0",
		logHandler: log.Printf,
	}
}

// Routes wires the exposed API surface.
func (a *App) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /", a.handleHealth)
	mux.HandleFunc("POST /api/search", a.handleSearch)
	mux.HandleFunc("POST /api/chat", a.handleChat)
	mux.HandleFunc("GET /api/stats", a.handleStats)
	return withCORS(mux)
}

// TopK is a pointer so an absent field (defaulted to 5) is
// distinguishable from an explicit, invalid 0.
type searchRequest struct {
	Query string `json:"query"`
	TopK  *int   `json:"top_k"`
}

type searchResponse struct {
	Results      []domain.SearchResult `json:"results"`
	QueryTimeMS  float64               `json:"query_time_ms"`
	TotalResults int                   `json:"total_results"`
}

type chatRequest struct {
	Query   string            `json:"query"`
	History []domain.ChatTurn `json:"history,omitempty"`
}

type statsResponse struct {
	TotalRemedies int    `json:"total_remedies"`
	IndexName     string `json:"index_name"`
	Dimension     int    `json:"dimension"`
	Metric        string `json:"metric"`
	Status        string `json:"status"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	status := "healthy"
	if a.NotReady != "" {
		status = "not ready: " + a.NotReady
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         status,
		"service":        "Remedy RAG API",
		"version":        a.Version,
		"index_ready":    a.NotReady == "",
		"chat_available": a.Chat != nil && a.Chat.Available(),
	})
}

func (a *App) handleSearch(w http.ResponseWriter, r *http.Request) {
	if a.Searcher == nil {
		writeError(w, http.StatusServiceUnavailable, "index not ready: "+a.NotReady)
		return
	}
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	topK := 5
	if req.TopK != nil {
		topK = *req.TopK
	}
	results, elapsed, err := a.Searcher.Search(r.Context(), req.Query, topK)
	if err != nil {
		a.logHandler("search error: %v", err)
		writeError(w, statusFor(err), err.Error())
		return
	}
	a.logHandler("search %q returned %d results in %.2fms", req.Query, len(results), elapsed)
	writeJSON(w, http.StatusOK, searchResponse{
		Results:      results,
		QueryTimeMS:  elapsed,
		TotalResults: len(results),
	})
}

func (a *App) handleChat(w http.ResponseWriter, r *http.Request) {
	if a.Searcher == nil {
		writeError(w, http.StatusServiceUnavailable, "index not ready: "+a.NotReady)
		return
	}
	if a.Chat == nil || !a.Chat.Available() {
		writeError(w, http.StatusServiceUnavailable, "chat unavailable: no generation backend configured")
		return
	}
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	answer, err := a.Chat.Answer(r.Context(), req.Query)
	if err != nil {
		a.logHandler("chat error: %v", err)
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, answer)
}

func (a *App) handleStats(w http.ResponseWriter, r *http.Request) {
	if a.Store == nil {
		writeError(w, http.StatusServiceUnavailable, "index not ready: "+a.NotReady)
		return
	}
	info, err := a.findIndex(r.Context())
	if err != nil {
		a.logHandler("stats error: %v", err)
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, statsResponse{
		TotalRemedies: info.TotalElements,
		IndexName:     info.Name,
		Dimension:     info.Dimension,
		Metric:        info.SpaceType,
		Status:        "active",
	})
}

func (a *App) findIndex(ctx context.Context) (domain.IndexInfo, error) {
	infos, err := a.Store.List(ctx)
	if err != nil {
		return domain.IndexInfo{}, err
	}
	for _, info := range infos {
		if info.Name == a.IndexName {
			if info.Dimension == 0 {
				info.Dimension = a.Dimension
			}
			if info.SpaceType == "" {
				info.SpaceType = a.Metric
			}
			return info, nil
		}
	}
	return domain.IndexInfo{}, fmt.Errorf("index %q: %w", a.IndexName, domain.ErrNotFound)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrChatUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
