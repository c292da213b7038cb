package engine

import (
	"context"
	"fmt"
	"strings"

	"go.starlark.net/starlark"

	"github.com/jonwraymond/toolscript/batch"
)

// batchBuiltin returns the batch() function exposed to scripts.
//
// Usage from a script:
//
//	results = batch([
//	    {"call": "search.query", "args": {"query": "a"}},
//	    {"call": "search.query", "args": {"query": "b"}},
//	])
//
// Items dispatch concurrently with a bounded in-flight count; each
// result is a dict {"index", "status", "value"|"error"} and the list
// preserves input order. A failing item never aborts its siblings.
func (s *runState) batchBuiltin() *starlark.Builtin {
	return starlark.NewBuiltin("batch", func(_ *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		var itemsV starlark.Value
		if err := starlark.UnpackPositionalArgs("batch", args, kwargs, 1, &itemsV); err != nil {
			return nil, err
		}
		items, err := parseBatchItems(itemsV)
		if err != nil {
			return nil, err
		}

		coord := batch.NewCoordinator(func(ctx context.Context, ns, op string, callArgs map[string]any) (any, error) {
			return s.dispatchCall(ctx, ns, op, callArgs)
		}, s.maxInFlight)

		results, err := coord.Run(s.ctx, items)
		if err != nil {
			return nil, err
		}

		out := make([]any, len(results))
		for i, r := range results {
			entry := map[string]any{
				"index":  int64(r.Index),
				"status": r.Status,
			}
			if r.Status == batch.StatusSuccess {
				entry["value"] = r.Value
			} else {
				entry["error"] = r.Error
			}
			out[i] = entry
		}
		return toStarlark(out)
	})
}

func parseBatchItems(v starlark.Value) ([]batch.Item, error) {
	iterable, ok := v.(starlark.Iterable)
	if !ok {
		return nil, fmt.Errorf("batch: expected a list of items, got %s", v.Type())
	}
	iter := iterable.Iterate()
	defer iter.Done()

	var items []batch.Item
	var x starlark.Value
	for iter.Next(&x) {
		dict, ok := x.(*starlark.Dict)
		if !ok {
			return nil, fmt.Errorf("batch: item %d: expected a dict, got %s", len(items), x.Type())
		}
		callV, found, err := dict.Get(starlark.String("call"))
		if err != nil || !found {
			return nil, fmt.Errorf("batch: item %d: missing \"call\"", len(items))
		}
		call, ok := starlark.AsString(callV)
		if !ok {
			return nil, fmt.Errorf("batch: item %d: \"call\" must be a string", len(items))
		}
		ns, op, ok := strings.Cut(call, ".")
		if !ok || ns == "" || op == "" {
			return nil, fmt.Errorf("batch: item %d: %q is not a namespace.operation reference", len(items), call)
		}

		callArgs := map[string]any{}
		if argsV, found, err := dict.Get(starlark.String("args")); err == nil && found {
			gv, convErr := fromStarlark(argsV)
			if convErr != nil {
				return nil, fmt.Errorf("batch: item %d: %v", len(items), convErr)
			}
			m, ok := gv.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("batch: item %d: \"args\" must be a dict", len(items))
			}
			callArgs = m
		}

		items = append(items, batch.Item{
			Index:     len(items),
			Namespace: ns,
			Operation: op,
			Args:      callArgs,
		})
	}
	return items, nil
}
