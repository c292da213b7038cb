package engine

import (
	"fmt"
	"math"

	"go.starlark.net/starlark"
)

// toStarlark converts a value from the closed serializable shape set
// into its Starlark representation.
func toStarlark(v any) (starlark.Value, error) {
	switch val := v.(type) {
	case nil:
		return starlark.None, nil
	case bool:
		return starlark.Bool(val), nil
	case string:
		return starlark.String(val), nil
	case int:
		return starlark.MakeInt(val), nil
	case int64:
		return starlark.MakeInt64(val), nil
	case float64:
		return starlark.Float(val), nil
	case []any:
		elems := make([]starlark.Value, len(val))
		for i, item := range val {
			sv, err := toStarlark(item)
			if err != nil {
				return nil, err
			}
			elems[i] = sv
		}
		return starlark.NewList(elems), nil
	case map[string]any:
		dict := starlark.NewDict(len(val))
		for k, item := range val {
			sv, err := toStarlark(item)
			if err != nil {
				return nil, err
			}
			if err := dict.SetKey(starlark.String(k), sv); err != nil {
				return nil, err
			}
		}
		return dict, nil
	default:
		return nil, fmt.Errorf("cannot convert %T into script value", v)
	}
}

// fromStarlark converts a Starlark value into the closed serializable
// shape set. Integers that do not fit int64 and non-string dict keys
// are rejected rather than approximated.
func fromStarlark(v starlark.Value) (any, error) {
	switch val := v.(type) {
	case starlark.NoneType:
		return nil, nil
	case starlark.Bool:
		return bool(val), nil
	case starlark.String:
		return string(val), nil
	case starlark.Int:
		i, ok := val.Int64()
		if !ok {
			return nil, fmt.Errorf("integer %s does not fit in 64 bits", val.String())
		}
		return i, nil
	case starlark.Float:
		f := float64(val)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("%v is not serializable", f)
		}
		return f, nil
	case *starlark.List:
		return fromIterable(val)
	case starlark.Tuple:
		out := make([]any, len(val))
		for i, item := range val {
			gv, err := fromStarlark(item)
			if err != nil {
				return nil, err
			}
			out[i] = gv
		}
		return out, nil
	case *starlark.Set:
		return fromIterable(val)
	case *starlark.Dict:
		out := make(map[string]any, val.Len())
		for _, kv := range val.Items() {
			key, ok := starlark.AsString(kv[0])
			if !ok {
				return nil, fmt.Errorf("dict key %s is not a string", kv[0].String())
			}
			gv, err := fromStarlark(kv[1])
			if err != nil {
				return nil, err
			}
			out[key] = gv
		}
		return out, nil
	default:
		return nil, fmt.Errorf("value of type %s is not serializable", v.Type())
	}
}

func fromIterable(it starlark.Iterable) ([]any, error) {
	iter := it.Iterate()
	defer iter.Done()

	var out []any
	var x starlark.Value
	for iter.Next(&x) {
		gv, err := fromStarlark(x)
		if err != nil {
			return nil, err
		}
		out = append(out, gv)
	}
	if out == nil {
		out = []any{}
	}
	return out, nil
}

// kwargsToMap converts a builtin's keyword arguments into an args map.
func kwargsToMap(kwargs []starlark.Tuple) (map[string]any, error) {
	args := make(map[string]any, len(kwargs))
	for _, kv := range kwargs {
		name, _ := starlark.AsString(kv[0])
		if _, dup := args[name]; dup {
			return nil, fmt.Errorf("duplicate keyword argument %q", name)
		}
		gv, err := fromStarlark(kv[1])
		if err != nil {
			return nil, fmt.Errorf("argument %q: %w", name, err)
		}
		args[name] = gv
	}
	return args, nil
}
