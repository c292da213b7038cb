// Package libdocs exposes a small documentation index under the
// "libdocs" namespace. Hosts register entries at construction time;
// scripts look them up by name or search across summaries.
package libdocs

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jonwraymond/toolscript/registry"
)

// Entry is one documentation page in the index.
type Entry struct {
	Name    string
	Summary string
	Doc     string
	Aliases []string
}

// Module implements registry.Module over a fixed set of entries.
type Module struct {
	entries []Entry
	byName  map[string]int
	titler  cases.Caser
}

// New builds the module. Later entries win on name or alias collision.
func New(entries []Entry) *Module {
	m := &Module{
		entries: entries,
		byName:  make(map[string]int, len(entries)),
		titler:  cases.Title(language.English),
	}
	for i, e := range entries {
		m.byName[strings.ToLower(e.Name)] = i
		for _, alias := range e.Aliases {
			m.byName[strings.ToLower(alias)] = i
		}
	}
	return m
}

func (m *Module) Namespace() string { return "libdocs" }

func (m *Module) Exports() []registry.OpDef {
	return []registry.OpDef{
		{
			Name:        "lookup",
			Description: "Fetch a documentation entry by name or alias",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"name": map[string]any{"type": "string"},
				},
				"required": []any{"name"},
			},
			Handler: m.lookup,
		},
		{
			Name:        "search",
			Description: "Search entry names and summaries for a query string",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query": map[string]any{"type": "string"},
					"limit": map[string]any{"type": "integer", "minimum": float64(1)},
				},
				"required": []any{"query"},
			},
			Handler: m.search,
		},
	}
}

func (m *Module) lookup(_ context.Context, args map[string]any) (any, error) {
	name, _ := args["name"].(string)
	i, ok := m.byName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("no documentation entry named %q", name)
	}
	e := m.entries[i]
	return map[string]any{
		"name":    e.Name,
		"title":   m.titler.String(e.Name),
		"summary": e.Summary,
		"doc":     e.Doc,
	}, nil
}

func (m *Module) search(_ context.Context, args map[string]any) (any, error) {
	query, _ := args["query"].(string)
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil, fmt.Errorf("search query is empty")
	}
	limit := len(m.entries)
	if v, ok := args["limit"]; ok {
		if n, ok := asInt(v); ok && n > 0 {
			limit = n
		}
	}

	var hits []map[string]any
	for _, e := range m.entries {
		if !strings.Contains(strings.ToLower(e.Name), query) &&
			!strings.Contains(strings.ToLower(e.Summary), query) {
			continue
		}
		hits = append(hits, map[string]any{
			"name":    e.Name,
			"summary": e.Summary,
		})
	}
	sort.Slice(hits, func(i, j int) bool {
		return hits[i]["name"].(string) < hits[j]["name"].(string)
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return map[string]any{
		"query":   query,
		"results": hits,
	}, nil
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
