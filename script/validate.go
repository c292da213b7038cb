package script

import (
	"fmt"

	"go.starlark.net/syntax"
)

// Violation kinds.
const (
	KindParseError  = "parse-error"
	KindDeniedNode  = "denied-node"
	KindDeniedIdent = "denied-identifier"
	KindDeniedAttr  = "denied-attribute"
	KindDeniedLoad  = "denied-import"
)

// Violation is a rejected submission's reason. It reports the violation
// kind, the source location, and a human-readable message.
type Violation struct {
	// Kind classifies the violation (parse-error, denied-node,
	// denied-identifier, denied-attribute, denied-import).
	Kind string

	// Line and Col are the 1-based source location. Zero means unknown.
	Line int
	Col  int

	// Message describes the violation.
	Message string
}

// Error returns the violation message with its location when known.
func (v *Violation) Error() string {
	if v.Line > 0 {
		return fmt.Sprintf("%s (line %d, col %d): %s", v.Kind, v.Line, v.Col, v.Message)
	}
	return fmt.Sprintf("%s: %s", v.Kind, v.Message)
}

// FileOptions returns the grammar options shared by the validator and
// the execution engine. Set literals and top-level control flow are
// enabled; recursion stays off so loops are bounded by their iterables.
// While parses here so the policy can reject it with a useful message
// instead of a bare syntax error.
func FileOptions() *syntax.FileOptions {
	return &syntax.FileOptions{
		Set:             true,
		While:           true,
		TopLevelControl: true,
		GlobalReassign:  true,
		Recursion:       false,
	}
}

// Validate parses source and walks every node against the policy.
// On success it returns a Checked carrying the parsed tree and the
// result-extraction metadata the engine needs. On failure it returns a
// *Violation; the walk stops at the first violation found.
//
// Validate never executes any part of the candidate script, and its
// cost is bounded by the source length.
func Validate(filename, source string, policy *Policy) (*Checked, *Violation) {
	if policy == nil {
		policy = DefaultPolicy()
	}

	f, err := FileOptions().Parse(filename, source, 0)
	if err != nil {
		return nil, parseViolation(err)
	}

	w := &walker{policy: policy}
	syntax.Walk(f, w.visit)
	if w.violation != nil {
		return nil, w.violation
	}

	return newChecked(filename, source, f), nil
}

type walker struct {
	policy    *Policy
	violation *Violation
}

func (w *walker) visit(n syntax.Node) bool {
	if w.violation != nil || n == nil {
		return false
	}

	kind := NodeKind(n)
	if kind == "" || !w.policy.nodeAllowed(kind) {
		w.reject(n, KindDeniedNode, fmt.Sprintf("syntax construct %q is not permitted", kindLabel(n, kind)))
		return false
	}

	switch node := n.(type) {
	case *syntax.Ident:
		if w.policy.DeniedIdents[node.Name] {
			w.reject(n, KindDeniedIdent, fmt.Sprintf("reference to %q is not permitted", node.Name))
			return false
		}
	case *syntax.DotExpr:
		name := node.Name.Name
		if w.policy.DeniedAttrs[name] || (w.policy.DenyDunderAttrs && isDunder(name)) {
			w.reject(node.Name, KindDeniedAttr, fmt.Sprintf("attribute %q is not permitted", name))
			return false
		}
	case *syntax.LoadStmt:
		module, ok := node.Module.Value.(string)
		if !ok || !w.policy.AllowedLoads[module] {
			w.reject(node.Module, KindDeniedLoad, fmt.Sprintf("load of %q is not permitted", module))
			return false
		}
	}
	return true
}

func (w *walker) reject(n syntax.Node, kind, msg string) {
	start, _ := n.Span()
	w.violation = &Violation{
		Kind:    kind,
		Line:    int(start.Line),
		Col:     int(start.Col),
		Message: msg,
	}
}

func kindLabel(n syntax.Node, kind string) string {
	if kind != "" {
		return kind
	}
	return fmt.Sprintf("%T", n)
}

func isDunder(name string) bool {
	return len(name) > 4 && name[:2] == "__" && name[len(name)-2:] == "__"
}

func parseViolation(err error) *Violation {
	if serr, ok := err.(syntax.Error); ok {
		return &Violation{
			Kind:    KindParseError,
			Line:    int(serr.Pos.Line),
			Col:     int(serr.Pos.Col),
			Message: serr.Msg,
		}
	}
	return &Violation{Kind: KindParseError, Message: err.Error()}
}
