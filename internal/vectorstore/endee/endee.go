package endee

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"remedyrag/internal/domain"
)

// Client is a minimal REST client to the Endee vector index service.
// All calls go through the fixed /api/v1 path prefix.
type Client struct {
	baseURL string
	client  *http.Client
}

type Config struct {
	Host    string
	Port    string
	Timeout time.Duration
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}
	port := cfg.Port
	if port == "" {
		port = "8080"
	}
	return &Client{
		baseURL: fmt.Sprintf("http://%s:%s/api/v1", host, port),
		client:  &http.Client{Timeout: timeout},
	}
}

// BaseURL reports the composed service URL, for startup logging.
func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) List(ctx context.Context) ([]domain.IndexInfo, error) {
	var resp struct {
		Indexes []domain.IndexInfo `json:"indexes"`
	}
	if err := c.doJSON(ctx, http.MethodGet, c.baseURL+"/index/list", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Indexes, nil
}

func (c *Client) Create(ctx context.Context, name string, dimension int, spaceType, precision string) error {
	body := map[string]any{
		"name":       name,
		"dimension":  dimension,
		"space_type": spaceType,
		"precision":  precision,
	}
	return c.doJSON(ctx, http.MethodPost, c.baseURL+"/index/create", body, nil)
}

func (c *Client) Delete(ctx context.Context, name string) error {
	return c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("%s/index/%s", c.baseURL, name), nil, nil)
}

// Get resolves a handle for the named index. The service has no
// dedicated lookup call, so existence is checked against List.
func (c *Client) Get(ctx context.Context, name string) (domain.Index, error) {
	infos, err := c.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, info := range infos {
		if info.Name == name {
			return &indexHandle{client: c, name: name}, nil
		}
	}
	return nil, fmt.Errorf("index %q: %w", name, domain.ErrNotFound)
}

// indexHandle issues upsert and query calls against one named index.
// Handles are stateless and safe for concurrent use.
type indexHandle struct {
	client *Client
	name   string
}

func (h *indexHandle) Name() string { return h.name }

// Upsert writes records with overwrite-by-id semantics. A failed call
// means the whole batch is not committed.
func (h *indexHandle) Upsert(ctx context.Context, records []domain.VectorRecord) error {
	body := map[string]any{"vectors": records}
	url := fmt.Sprintf("%s/index/%s/vector/insert", h.client.baseURL, h.name)
	return h.client.doJSON(ctx, http.MethodPost, url, body, nil)
}

func (h *indexHandle) Query(ctx context.Context, vector []float64, topK int) ([]domain.Hit, error) {
	body := map[string]any{
		"vector": vector,
		"top_k":  topK,
	}
	var resp struct {
		Results []domain.Hit `json:"results"`
	}
	url := fmt.Sprintf("%s/index/%s/search", h.client.baseURL, h.name)
	if err := h.client.doJSON(ctx, http.MethodPost, url, body, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

func (c *Client) doJSON(ctx context.Context, method, url string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("endee %s %s: %w", method, url, domain.ErrNotFound)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("endee %s %s failed: %s", method, url, resp.Status)
	}
	if out != nil {
		dec := json.NewDecoder(resp.Body)
		return dec.Decode(out)
	}
	return nil
}
