// Package engine executes validated scripts against a capability
// registry snapshot.
//
// # Execution namespace
//
// Each run binds every registry namespace to a dispatch proxy, so a
// script calls capabilities as namespace.operation(key=value, ...).
// Calls are keyword-only; supplied arguments are validated against the
// operation's parameter schema before the underlying handler runs.
// A batch builtin fans out independent calls concurrently with
// per-item failure isolation.
//
// # Result convention
//
// Scripts assign their final result to the reserved __out variable.
// When a script never assigns __out and ends in a top-level expression
// statement, that expression's value is the result. The reserved
// __format variable selects the output format; unset or unrecognized
// values fall back to the default without error.
//
// # Tracing and limits
//
// Every capability dispatch is recorded as a [CallRecord], win or
// lose. One wall-clock budget covers the whole run: exceeding it
// cancels the interpreter and any in-flight batch items and returns
// [ErrTimeout] with no partial value.
package engine
