// Package diagram exposes diagram rendering under the "diagram"
// namespace: mermaid source is checked and wrapped into an embeddable
// HTML fragment.
package diagram

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"

	"github.com/jonwraymond/toolscript/registry"
)

// knownKinds are the mermaid diagram kinds the first line may declare.
var knownKinds = []string{
	"graph", "flowchart", "sequenceDiagram", "classDiagram",
	"stateDiagram", "erDiagram", "gantt", "pie", "mindmap",
}

// Module implements registry.Module for diagram rendering.
type Module struct {
	md goldmark.Markdown
}

// New creates the diagram module.
func New() *Module {
	return &Module{md: goldmark.New()}
}

func (m *Module) Namespace() string { return "diagram" }

func (m *Module) Exports() []registry.OpDef {
	return []registry.OpDef{
		{
			Name:        "render",
			Description: "Render mermaid diagram source into an embeddable HTML fragment",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"source": map[string]any{"type": "string"},
					"title":  map[string]any{"type": "string"},
				},
				"required": []any{"source"},
			},
			Handler: m.render,
		},
	}
}

func (m *Module) render(_ context.Context, args map[string]any) (any, error) {
	source, _ := args["source"].(string)
	kind, err := diagramKind(source)
	if err != nil {
		return nil, err
	}

	var doc strings.Builder
	if title, _ := args["title"].(string); title != "" {
		fmt.Fprintf(&doc, "### %s\n\n", title)
	}
	fmt.Fprintf(&doc, "```mermaid\n%s\n```\n", strings.TrimRight(source, "\n"))

	var buf bytes.Buffer
	if err := m.md.Convert([]byte(doc.String()), &buf); err != nil {
		return nil, fmt.Errorf("render diagram: %w", err)
	}
	return map[string]any{
		"kind": kind,
		"html": buf.String(),
	}, nil
}

// diagramKind validates that the source opens with a known mermaid
// diagram declaration and returns it.
func diagramKind(source string) (string, error) {
	for _, line := range strings.Split(source, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "%%") {
			continue
		}
		first := strings.Fields(line)[0]
		first = strings.TrimSuffix(first, ";")
		for _, kind := range knownKinds {
			if strings.EqualFold(first, kind) {
				return kind, nil
			}
		}
		return "", fmt.Errorf("unrecognized diagram kind %q", first)
	}
	return "", fmt.Errorf("diagram source is empty")
}
