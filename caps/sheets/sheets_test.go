package sheets

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jonwraymond/toolscript/registry"
)

func newTestModule(t *testing.T) (*Module, string) {
	t.Helper()
	dir := t.TempDir()
	m, err := New([]string{dir})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return m, dir
}

func TestNew_RequiresRoots(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Error("expected error for empty roots")
	}
}

func TestModule_RegistersUnderSheetsNamespace(t *testing.T) {
	var _ registry.Module = (*Module)(nil)

	m, _ := newTestModule(t)
	snap, _, err := registry.Build([]registry.Module{m})
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	for _, op := range []string{"read", "write"} {
		if _, err := snap.Resolve("sheets", op); err != nil {
			t.Errorf("resolve %s failed: %v", op, err)
		}
	}
}

func TestWriteThenRead(t *testing.T) {
	m, _ := newTestModule(t)

	out, err := m.write(context.Background(), map[string]any{
		"path": "report.csv",
		"rows": []any{
			[]any{"name", "count"},
			[]any{"alpha", int64(3)},
		},
	})
	if err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if out.(map[string]any)["rows_written"] != int64(2) {
		t.Errorf("unexpected write result: %v", out)
	}

	got, err := m.read(context.Background(), map[string]any{"path": "report.csv"})
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	rows := got.(map[string]any)["rows"].([]any)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	first := rows[0].([]any)
	if first[0] != "name" || first[1] != "count" {
		t.Errorf("unexpected header row: %v", first)
	}
	second := rows[1].([]any)
	if second[1] != "3" {
		t.Errorf("expected stringified cell, got %v", second[1])
	}
}

func TestRead_RaggedRowsAllowed(t *testing.T) {
	m, dir := newTestModule(t)
	path := filepath.Join(dir, "ragged.csv")
	if err := os.WriteFile(path, []byte("a,b,c\nd\n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	got, err := m.read(context.Background(), map[string]any{"path": "ragged.csv"})
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	rows := got.(map[string]any)["rows"].([]any)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if len(rows[0].([]any)) != 3 || len(rows[1].([]any)) != 1 {
		t.Errorf("expected ragged rows preserved: %v", rows)
	}
}

func TestResolve_RejectsEscapes(t *testing.T) {
	m, dir := newTestModule(t)

	cases := []string{
		"../outside.csv",
		filepath.Join(dir, "..", "outside.csv"),
		"/etc/passwd",
		"",
	}
	for _, path := range cases {
		if _, err := m.resolve(path); err == nil {
			t.Errorf("expected rejection for %q", path)
		}
	}
	if _, err := m.resolve("sub/dir/file.csv"); err != nil {
		t.Errorf("relative path inside root should resolve: %v", err)
	}
}

func TestWrite_RejectsMalformedRows(t *testing.T) {
	m, _ := newTestModule(t)
	if _, err := m.write(context.Background(), map[string]any{
		"path": "bad.csv",
		"rows": []any{"not a row"},
	}); err == nil {
		t.Error("expected error for malformed rows")
	}
}
