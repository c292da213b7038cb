// Package docfetch exposes document retrieval under the "fetch"
// namespace: fetch a URL with a size cap, and render markdown to HTML.
package docfetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/yuin/goldmark"

	"github.com/jonwraymond/toolscript/registry"
)

// DefaultMaxBytes caps a fetched document's size.
const DefaultMaxBytes = 1 << 20

// Config holds the fetch settings.
type Config struct {
	// MaxBytes caps fetched body size. Zero means DefaultMaxBytes.
	MaxBytes int64

	// HTTPClient overrides the default client (15s timeout).
	HTTPClient *http.Client
}

// Module implements registry.Module for document fetching.
type Module struct {
	cfg    Config
	client *http.Client
	md     goldmark.Markdown
}

// New creates the fetch module.
func New(cfg Config) *Module {
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = DefaultMaxBytes
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Module{cfg: cfg, client: client, md: goldmark.New()}
}

func (m *Module) Namespace() string { return "fetch" }

func (m *Module) Exports() []registry.OpDef {
	return []registry.OpDef{
		{
			Name:        "get",
			Description: "Fetch a document over HTTP, truncated to the configured size cap",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"url": map[string]any{"type": "string", "format": "uri"},
				},
				"required": []any{"url"},
			},
			Handler: m.get,
		},
		{
			Name:        "render",
			Description: "Render markdown text to HTML",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"markdown": map[string]any{"type": "string"},
				},
				"required": []any{"markdown"},
			},
			Handler: m.render,
		},
	}
}

func (m *Module) get(ctx context.Context, args map[string]any) (any, error) {
	rawURL, _ := args["url"].(string)
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return nil, fmt.Errorf("unsupported url scheme in %q", rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, m.cfg.MaxBytes))
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}

	return map[string]any{
		"url":          rawURL,
		"status":       int64(resp.StatusCode),
		"content_type": resp.Header.Get("Content-Type"),
		"body":         string(body),
		"truncated":    int64(len(body)) == m.cfg.MaxBytes,
	}, nil
}

func (m *Module) render(_ context.Context, args map[string]any) (any, error) {
	source, _ := args["markdown"].(string)
	var buf bytes.Buffer
	if err := m.md.Convert([]byte(source), &buf); err != nil {
		return nil, fmt.Errorf("render markdown: %w", err)
	}
	return map[string]any{"html": buf.String()}, nil
}
