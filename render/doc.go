// Package render serializes execution results into the supported wire
// formats.
//
// Formats: json (compact, the default), json-pretty, yaml, yaml-flow,
// table (markdown tables and lists), and raw (plain text, no markup).
// String values pass through unchanged under every format; formatting
// only applies to structural values. An unrecognized format name falls
// back to the default without error.
//
// Values entering the serializer are first normalized into the closed
// serializable shape set: map[string]any, []any, string, int64,
// float64, bool, and nil.
package render
