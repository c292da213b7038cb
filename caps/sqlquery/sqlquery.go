// Package sqlquery exposes read-only SQL over a SQLite database under
// the "db" namespace. The *sql.DB pool is the module's own shared
// resource and is safe for concurrent dispatches.
package sqlquery

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/jonwraymond/toolscript/registry"
)

// Module implements registry.Module for SQL queries.
type Module struct {
	db *sql.DB
}

// Open opens the database at dsn and returns the module.
func Open(dsn string) (*Module, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return &Module{db: db}, nil
}

// NewWithDB wraps an existing handle; the caller keeps ownership.
func NewWithDB(db *sql.DB) *Module {
	return &Module{db: db}
}

// Close releases the underlying pool.
func (m *Module) Close() error {
	return m.db.Close()
}

func (m *Module) Namespace() string { return "db" }

func (m *Module) Exports() []registry.OpDef {
	return []registry.OpDef{
		{
			Name:        "query",
			Description: "Run a read-only SQL query and return rows",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"sql":  map[string]any{"type": "string"},
					"args": map[string]any{"type": "array"},
				},
				"required": []any{"sql"},
			},
			Handler: m.query,
		},
		{
			Name:        "tables",
			Description: "List the tables in the database",
			InputSchema: map[string]any{
				"type":       "object",
				"properties": map[string]any{},
			},
			Handler: m.tables,
		},
	}
}

func (m *Module) query(ctx context.Context, args map[string]any) (any, error) {
	stmt, _ := args["sql"].(string)
	if !isReadOnly(stmt) {
		return nil, fmt.Errorf("only SELECT and WITH statements are permitted")
	}
	var params []any
	if list, ok := args["args"].([]any); ok {
		params = list
	}

	rows, err := m.db.QueryContext(ctx, stmt, params...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	out := []any{}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(map[string]any, len(cols))
		for i, col := range cols {
			row[col] = cellValue(values[i])
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	columns := make([]any, len(cols))
	for i, c := range cols {
		columns[i] = c
	}
	return map[string]any{"columns": columns, "rows": out}, nil
}

func (m *Module) tables(ctx context.Context, _ map[string]any) (any, error) {
	rows, err := m.db.QueryContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	names := []any{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return map[string]any{"tables": names}, nil
}

func isReadOnly(stmt string) bool {
	head := strings.ToUpper(strings.TrimSpace(stmt))
	return strings.HasPrefix(head, "SELECT") || strings.HasPrefix(head, "WITH")
}

// cellValue widens driver values into the serializable shape set.
func cellValue(v any) any {
	switch val := v.(type) {
	case []byte:
		return string(val)
	default:
		return val
	}
}
