package registry

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// compiledSchema pairs the compiled JSON Schema with the property and
// required-key sets extracted from the raw schema map, so unknown and
// missing keys get precise messages without a schema walk.
type compiledSchema struct {
	schema     *jsonschema.Schema
	properties map[string]bool
	required   []string
}

func compileSchema(raw map[string]any) (*compiledSchema, error) {
	if raw == nil {
		return nil, nil
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	sch, err := jsonschema.CompileString("op.schema.json", string(data))
	if err != nil {
		return nil, err
	}
	cs := &compiledSchema{schema: sch}
	if props, ok := raw["properties"].(map[string]any); ok {
		cs.properties = make(map[string]bool, len(props))
		for name := range props {
			cs.properties[name] = true
		}
	}
	switch req := raw["required"].(type) {
	case []any:
		for _, r := range req {
			if s, ok := r.(string); ok {
				cs.required = append(cs.required, s)
			}
		}
	case []string:
		cs.required = append(cs.required, req...)
	}
	return cs, nil
}

// ValidateArgs checks the supplied keyword arguments against the
// descriptor's parameter schema. It rejects unknown keys, missing
// required keys, and shape mismatches, all before the handler runs.
// All failures wrap ErrArgumentInvalid.
func (d *Descriptor) ValidateArgs(args map[string]any) error {
	cs := d.compiled
	if cs == nil {
		if len(args) > 0 {
			return fmt.Errorf("%w: %s takes no parameters", ErrArgumentInvalid, d.ID())
		}
		return nil
	}

	if cs.properties != nil {
		var unknown []string
		for key := range args {
			if !cs.properties[key] {
				unknown = append(unknown, key)
			}
		}
		if len(unknown) > 0 {
			sort.Strings(unknown)
			return fmt.Errorf("%w: %s: unknown parameter %q", ErrArgumentInvalid, d.ID(), unknown[0])
		}
	}
	for _, req := range cs.required {
		if _, ok := args[req]; !ok {
			return fmt.Errorf("%w: %s: missing required parameter %q", ErrArgumentInvalid, d.ID(), req)
		}
	}

	// Schema validation wants JSON-native values; args maps at this
	// boundary already are.
	doc := any(args)
	if args == nil {
		doc = map[string]any{}
	}
	if err := cs.schema.Validate(doc); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrArgumentInvalid, d.ID(), err)
	}
	return nil
}
