// Package script implements the static validator that gates every
// submission before execution.
//
// Validate parses the submitted source into a Starlark syntax tree and
// walks every node against a [Policy]: an allow-list of syntax node
// kinds, deny-lists of identifiers and attribute names, and an
// allow-list of load() targets. Validation is purely syntactic and
// total — it terminates on any input and never executes any part of the
// candidate script. The first violation found is reported with its
// source location and a human-readable reason.
//
// The validator is the single choke point between a remotely-generated
// script and the host process. It is a pragmatic allow/deny filter, not
// a formally verified isolation boundary: it trades completeness for a
// static, reviewable policy.
package script
