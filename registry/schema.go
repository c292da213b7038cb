package registry

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// ReflectSchema generates a parameter schema map from a Go struct,
// for capability modules that prefer declaring their parameters as a
// typed args struct instead of a schema literal. Struct tags follow
// the usual jsonschema conventions.
func ReflectSchema(sample any) (map[string]any, error) {
	r := &jsonschema.Reflector{
		ExpandedStruct:            true,
		DoNotReference:            true,
		AllowAdditionalProperties: false,
	}
	sch := r.Reflect(sample)
	data, err := json.Marshal(sch)
	if err != nil {
		return nil, fmt.Errorf("reflect schema: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("reflect schema: %w", err)
	}
	// The validator tracks its own property set; the $schema marker is
	// noise in tool listings.
	delete(out, "$schema")
	return out, nil
}

// MustReflectSchema is ReflectSchema for static declarations; it panics
// on failure, which can only happen for unmarshalable sample types.
func MustReflectSchema(sample any) map[string]any {
	m, err := ReflectSchema(sample)
	if err != nil {
		panic(err)
	}
	return m
}
