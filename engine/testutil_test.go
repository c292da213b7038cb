package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/jonwraymond/toolscript/registry"
	"github.com/jonwraymond/toolscript/script"
)

// calcModule is the standard test capability: arithmetic, a failing
// operation, and one that blocks until its context is done.
type calcModule struct{}

func (calcModule) Namespace() string { return "calc" }

func (calcModule) Exports() []registry.OpDef {
	intProp := map[string]any{"type": "integer"}
	return []registry.OpDef{
		{
			Name: "add",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"a": intProp,
					"b": intProp,
				},
				"required": []any{"a", "b"},
			},
			Handler: func(_ context.Context, args map[string]any) (any, error) {
				return args["a"].(int64) + args["b"].(int64), nil
			},
		},
		{
			Name: "fail",
			Handler: func(_ context.Context, _ map[string]any) (any, error) {
				return nil, errors.New("backend unavailable")
			},
		},
		{
			Name: "block",
			Handler: func(ctx context.Context, _ map[string]any) (any, error) {
				<-ctx.Done()
				return nil, ctx.Err()
			},
		},
	}
}

// captureLogger records log lines for assertions.
type captureLogger struct {
	mu   sync.Mutex
	msgs []string
}

func (l *captureLogger) Logf(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.msgs = append(l.msgs, fmt.Sprintf(format, args...))
}

func (l *captureLogger) lines() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.msgs...)
}

func newTestRegistry(t *testing.T, modules ...registry.Module) *registry.Registry {
	t.Helper()
	if modules == nil {
		modules = []registry.Module{calcModule{}}
	}
	reg, issues, err := registry.New(modules)
	if err != nil {
		t.Fatalf("registry build failed: %v", err)
	}
	if len(issues) != 0 {
		t.Fatalf("unexpected registry issues: %v", issues)
	}
	return reg
}

func newTestEngine(t *testing.T, cfg Config) *Engine {
	t.Helper()
	if cfg.Registry == nil {
		cfg.Registry = newTestRegistry(t)
	}
	eng, err := New(cfg)
	if err != nil {
		t.Fatalf("engine build failed: %v", err)
	}
	return eng
}

func runScript(t *testing.T, eng *Engine, source string, opts Options) (Outcome, error) {
	t.Helper()
	checked, violation := script.Validate("test.star", source, nil)
	if violation != nil {
		t.Fatalf("script rejected: %v", violation)
	}
	return eng.Run(context.Background(), checked, opts)
}
