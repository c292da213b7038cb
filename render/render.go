package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/goccy/go-yaml"
)

// Supported format names.
const (
	FormatJSON       = "json"
	FormatJSONPretty = "json-pretty"
	FormatYAML       = "yaml"
	FormatYAMLFlow   = "yaml-flow"
	FormatTable      = "table"
	FormatRaw        = "raw"
)

// DefaultFormat is used when no directive is set or the directive is
// unrecognized.
const DefaultFormat = FormatJSON

// Known reports whether name is a recognized format.
func Known(name string) bool {
	switch name {
	case FormatJSON, FormatJSONPretty, FormatYAML, FormatYAMLFlow, FormatTable, FormatRaw:
		return true
	}
	return false
}

// Serialize renders a value in the named format. String values pass
// through unchanged regardless of format. An unrecognized format falls
// back to DefaultFormat; Serialize never fails because of the format
// name itself.
func Serialize(v any, format string) (string, error) {
	if s, ok := v.(string); ok {
		return s, nil
	}
	v = Normalize(v)

	if !Known(format) {
		format = DefaultFormat
	}
	switch format {
	case FormatJSONPretty:
		return marshalJSON(v, "  ")
	case FormatYAML:
		return marshalYAML(v, false)
	case FormatYAMLFlow:
		return marshalYAML(v, true)
	case FormatTable:
		return renderTable(v), nil
	case FormatRaw:
		return renderRaw(v), nil
	default:
		return marshalJSON(v, "")
	}
}

// marshalJSON renders compact or indented JSON with HTML escaping off,
// so non-ASCII characters and markup-significant runes stay intact.
func marshalJSON(v any, indent string) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent != "" {
		enc.SetIndent("", indent)
	}
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("serialize json: %w", err)
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

func marshalYAML(v any, flow bool) (string, error) {
	var (
		data []byte
		err  error
	)
	if flow {
		data, err = yaml.MarshalWithOptions(v, yaml.Flow(true))
	} else {
		data, err = yaml.Marshal(v)
	}
	if err != nil {
		return "", fmt.Errorf("serialize yaml: %w", err)
	}
	return strings.TrimRight(string(data), "\n"), nil
}

// renderRaw converts a value to its plain textual representation with
// no structural markup.
func renderRaw(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []any:
		parts := make([]string, len(val))
		for i, item := range val {
			parts[i] = renderRaw(item)
		}
		return strings.Join(parts, "\n")
	default:
		return fmt.Sprintf("%v", val)
	}
}
