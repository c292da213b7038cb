package engine

import (
	"math"
	"reflect"
	"testing"

	"go.starlark.net/starlark"
)

func TestToStarlark_RoundTrip(t *testing.T) {
	in := map[string]any{
		"s":    "text",
		"n":    int64(7),
		"f":    1.5,
		"b":    true,
		"nil":  nil,
		"list": []any{int64(1), "two"},
		"map":  map[string]any{"k": "v"},
	}
	sv, err := toStarlark(in)
	if err != nil {
		t.Fatalf("toStarlark failed: %v", err)
	}
	back, err := fromStarlark(sv)
	if err != nil {
		t.Fatalf("fromStarlark failed: %v", err)
	}
	if !reflect.DeepEqual(back, in) {
		t.Errorf("round trip mismatch:\n in: %#v\nout: %#v", in, back)
	}
}

func TestToStarlark_RejectsUnknownType(t *testing.T) {
	if _, err := toStarlark(struct{}{}); err == nil {
		t.Error("expected error for unsupported type")
	}
}

func TestFromStarlark_RejectsHugeInt(t *testing.T) {
	big := starlark.MakeInt64(math.MaxInt64)
	big = big.Add(starlark.MakeInt(1))
	if _, err := fromStarlark(big); err == nil {
		t.Error("expected error for int overflow")
	}
}

func TestFromStarlark_RejectsNaN(t *testing.T) {
	if _, err := fromStarlark(starlark.Float(math.NaN())); err == nil {
		t.Error("expected error for NaN")
	}
	if _, err := fromStarlark(starlark.Float(math.Inf(1))); err == nil {
		t.Error("expected error for Inf")
	}
}

func TestFromStarlark_EmptyListIsNotNil(t *testing.T) {
	v, err := fromStarlark(starlark.NewList(nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	seq, ok := v.([]any)
	if !ok || seq == nil {
		t.Fatalf("expected non-nil empty slice, got %#v", v)
	}
}

func TestFromStarlark_NonStringDictKey(t *testing.T) {
	d := starlark.NewDict(1)
	if err := d.SetKey(starlark.MakeInt(1), starlark.String("x")); err != nil {
		t.Fatalf("setkey failed: %v", err)
	}
	if _, err := fromStarlark(d); err == nil {
		t.Error("expected error for non-string key")
	}
}

func TestKwargsToMap_DuplicateRejected(t *testing.T) {
	kwargs := []starlark.Tuple{
		{starlark.String("a"), starlark.MakeInt(1)},
		{starlark.String("a"), starlark.MakeInt(2)},
	}
	if _, err := kwargsToMap(kwargs); err == nil {
		t.Error("expected error for duplicate keyword")
	}
}
