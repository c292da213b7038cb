package registry

import "context"

// HandlerFunc is the function signature for capability handlers.
// Handlers receive only the declared keyword parameters and must return
// a value restricted to the closed serializable shape set (mapping,
// sequence, string, number, boolean, nil), or a structured failure as
// an error.
type HandlerFunc func(ctx context.Context, args map[string]any) (any, error)

// OpDef defines a single exported operation of a capability module.
type OpDef struct {
	// Name is the operation name as scripts call it (namespace.name).
	Name string

	// Description is a short human-readable summary.
	Description string

	// InputSchema is a JSON Schema (as a map) describing the keyword
	// parameters. A nil schema declares an operation with no parameters.
	InputSchema map[string]any

	// Handler is the callable backing this operation.
	Handler HandlerFunc
}

// Module is a capability module that exposes operations under a
// namespace. The export list is authoritative: only operations returned
// by Exports are visible to scripts.
//
// Contract:
// - Concurrency: handlers must be safe for concurrent use.
// - Context: handlers must honor cancellation/deadlines.
// - Ownership: args maps passed to handlers are read-only.
type Module interface {
	// Namespace returns the grouping name scripts use to reach this
	// module's operations. Must be non-empty.
	Namespace() string

	// Exports returns the operations this module exposes.
	Exports() []OpDef
}

// Descriptor is an immutable record of one registered operation.
// Descriptors are created at build time and never mutated; a reload
// produces a fresh set.
type Descriptor struct {
	// Namespace is the owning namespace name.
	Namespace string

	// Operation is the operation name within the namespace.
	Operation string

	// Description is the operation summary from the defining module.
	Description string

	// InputSchema is the declared parameter schema (may be nil).
	InputSchema map[string]any

	// Handler is the callable backing this operation.
	Handler HandlerFunc

	compiled *compiledSchema
}

// ID returns the canonical "namespace.operation" identifier.
func (d *Descriptor) ID() string {
	return d.Namespace + "." + d.Operation
}
