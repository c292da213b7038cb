package registry

import "errors"

// Common errors for registry operations.
var (
	// ErrDuplicateNamespace is returned when two modules claim the same
	// namespace during a build.
	ErrDuplicateNamespace = errors.New("namespace already registered")

	// ErrNamespaceNotFound is returned when resolving an unknown namespace.
	ErrNamespaceNotFound = errors.New("namespace not found")

	// ErrOperationNotFound is returned when resolving an operation the
	// namespace does not export.
	ErrOperationNotFound = errors.New("operation not found in namespace")

	// ErrArgumentInvalid is returned when supplied keyword arguments do
	// not match an operation's parameter schema.
	ErrArgumentInvalid = errors.New("invalid arguments")

	// ErrInvalidSchema is returned when a module declares a parameter
	// schema that does not compile.
	ErrInvalidSchema = errors.New("invalid parameter schema")
)
