// Package sheets exposes spreadsheet I/O over CSV files under the
// "sheets" namespace. Paths are restricted to the configured roots.
package sheets

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jonwraymond/toolscript/registry"
)

// Module implements registry.Module for spreadsheet I/O.
type Module struct {
	roots []string
}

// writeArgs declares the write operation's parameters; its schema is
// generated by reflection.
type writeArgs struct {
	Path string     `json:"path" jsonschema:"required"`
	Rows [][]string `json:"rows" jsonschema:"required"`
}

// New creates the sheets module. Roots are cleaned to absolute paths;
// any read or write outside them is rejected.
func New(roots []string) (*Module, error) {
	if len(roots) == 0 {
		return nil, fmt.Errorf("sheets: at least one root directory is required")
	}
	clean := make([]string, 0, len(roots))
	for _, r := range roots {
		abs, err := filepath.Abs(r)
		if err != nil {
			return nil, fmt.Errorf("sheets root %q: %w", r, err)
		}
		clean = append(clean, filepath.Clean(abs))
	}
	return &Module{roots: clean}, nil
}

func (m *Module) Namespace() string { return "sheets" }

func (m *Module) Exports() []registry.OpDef {
	return []registry.OpDef{
		{
			Name:        "read",
			Description: "Read a CSV file into rows",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"path": map[string]any{"type": "string"},
				},
				"required": []any{"path"},
			},
			Handler: m.read,
		},
		{
			Name:        "write",
			Description: "Write rows to a CSV file",
			InputSchema: registry.MustReflectSchema(writeArgs{}),
			Handler:     m.write,
		},
	}
}

// resolve validates the path against the allow-listed roots and
// returns a safe absolute path.
func (m *Module) resolve(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("path is empty")
	}
	candidate := path
	if !filepath.IsAbs(candidate) {
		candidate = filepath.Join(m.roots[0], candidate)
	}
	candidate = filepath.Clean(candidate)
	for _, root := range m.roots {
		if candidate == root || strings.HasPrefix(candidate, root+string(filepath.Separator)) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("path outside allowed roots: %s", path)
}

func (m *Module) read(_ context.Context, args map[string]any) (any, error) {
	path, _ := args["path"].(string)
	resolved, err := m.resolve(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(resolved)
	if err != nil {
		return nil, fmt.Errorf("read sheet: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read sheet: %w", err)
	}

	rows := make([]any, len(records))
	for i, rec := range records {
		row := make([]any, len(rec))
		for j, cell := range rec {
			row[j] = cell
		}
		rows[i] = row
	}
	return map[string]any{"path": path, "rows": rows}, nil
}

func (m *Module) write(_ context.Context, args map[string]any) (any, error) {
	path, _ := args["path"].(string)
	resolved, err := m.resolve(path)
	if err != nil {
		return nil, err
	}

	raw, ok := args["rows"].([]any)
	if !ok {
		return nil, fmt.Errorf("rows must be a list of rows")
	}
	records := make([][]string, len(raw))
	for i, rowAny := range raw {
		cells, ok := rowAny.([]any)
		if !ok {
			return nil, fmt.Errorf("row %d must be a list of cells", i)
		}
		rec := make([]string, len(cells))
		for j, cell := range cells {
			rec[j] = fmt.Sprintf("%v", cell)
		}
		records[i] = rec
	}

	f, err := os.Create(resolved)
	if err != nil {
		return nil, fmt.Errorf("write sheet: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(records); err != nil {
		return nil, fmt.Errorf("write sheet: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("write sheet: %w", err)
	}
	return map[string]any{"path": path, "rows_written": int64(len(records))}, nil
}
