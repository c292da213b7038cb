// Package websearch exposes a web search API under the "search"
// namespace. It is a narrow request/response wrapper: one operation,
// one HTTP call.
package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/jonwraymond/toolscript/registry"
)

// Config holds the search API settings.
type Config struct {
	// Endpoint is the search API URL. Required.
	Endpoint string

	// APIKey is sent as the subscription token header when set.
	APIKey string

	// MaxResults caps results per query. Zero means 10.
	MaxResults int

	// HTTPClient overrides the default client (10s timeout).
	HTTPClient *http.Client
}

// Module implements registry.Module for web search.
type Module struct {
	cfg    Config
	client *http.Client
}

// New creates the search module.
func New(cfg Config) *Module {
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = 10
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Module{cfg: cfg, client: client}
}

func (m *Module) Namespace() string { return "search" }

func (m *Module) Exports() []registry.OpDef {
	return []registry.OpDef{
		{
			Name:        "query",
			Description: "Search the web and return ranked results",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query":       map[string]any{"type": "string"},
					"max_results": map[string]any{"type": "integer", "minimum": 1},
				},
				"required": []any{"query"},
			},
			Handler: m.query,
		},
	}
}

type searchResponse struct {
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Snippet string `json:"snippet"`
	} `json:"results"`
}

func (m *Module) query(ctx context.Context, args map[string]any) (any, error) {
	q, _ := args["query"].(string)
	if q == "" {
		return nil, fmt.Errorf("query is empty")
	}
	limit := m.cfg.MaxResults
	if n, ok := asInt(args["max_results"]); ok && n > 0 && n < limit {
		limit = n
	}

	u, err := url.Parse(m.cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("search endpoint: %w", err)
	}
	vals := u.Query()
	vals.Set("q", q)
	vals.Set("count", fmt.Sprintf("%d", limit))
	u.RawQuery = vals.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if m.cfg.APIKey != "" {
		req.Header.Set("X-Subscription-Token", m.cfg.APIKey)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search request: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("search response: %w", err)
	}
	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("search response: %w", err)
	}

	results := make([]any, 0, len(parsed.Results))
	for i, r := range parsed.Results {
		if i >= limit {
			break
		}
		results = append(results, map[string]any{
			"title":   r.Title,
			"url":     r.URL,
			"snippet": r.Snippet,
		})
	}
	return map[string]any{"query": q, "results": results}, nil
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}
