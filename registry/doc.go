// Package registry implements the capability registry: the immutable,
// atomically-swappable mapping from namespace names to the operations a
// script may call.
//
// # Building
//
// A capability module implements [Module], declaring a namespace name and
// an explicit export list. [Build] scans a set of modules and produces an
// immutable [Snapshot]; operations absent from the export list are
// invisible to scripts even if the module could technically serve them.
// A module with a missing namespace or an empty export list is skipped
// and reported as an [Issue] — it never fails the build for the other
// modules. Two modules claiming the same namespace is a fatal build
// error.
//
// # Snapshots and reload
//
// [Registry] holds the current [Snapshot] behind an atomic pointer.
// Reload rebuilds from scratch and swaps the whole snapshot; callers
// holding the previous snapshot are unaffected, so concurrent executions
// never observe resolution changing mid-flight.
//
// # Argument validation
//
// Each exported operation carries a JSON Schema for its keyword
// parameters. Schemas are compiled once at build time; [Snapshot.ValidateArgs]
// rejects unknown keys, missing required keys, and shape mismatches
// before the underlying handler ever runs.
package registry
