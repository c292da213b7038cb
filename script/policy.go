package script

import "go.starlark.net/syntax"

// Node kind names used in Policy.AllowedNodes, as produced by NodeKind.
const (
	NodeFile          = "file"
	NodeExprStmt      = "expr-stmt"
	NodeAssign        = "assign"
	NodeDef           = "def"
	NodeIf            = "if"
	NodeFor           = "for"
	NodeWhile         = "while"
	NodeReturn        = "return"
	NodeBranch        = "branch"
	NodeLoad          = "load"
	NodeIdent         = "ident"
	NodeLiteral       = "literal"
	NodeCall          = "call"
	NodeDot           = "dot"
	NodeIndex         = "index"
	NodeSlice         = "slice"
	NodeComprehension = "comprehension"
	NodeCond          = "cond"
	NodeTuple         = "tuple"
	NodeList          = "list"
	NodeDict          = "dict"
	NodeDictEntry     = "dict-entry"
	NodeUnary         = "unary"
	NodeBinary        = "binary"
	NodeLambda        = "lambda"
	NodeParen         = "paren"
)

// Policy is the static allow/deny configuration the validator enforces.
// A Policy is loaded once and never mutated during a submission's
// lifetime.
type Policy struct {
	// AllowedNodes is the set of permitted syntax node kinds. A nil map
	// means the default allow set (everything except while loops).
	AllowedNodes map[string]bool

	// DeniedIdents rejects any reference to these identifiers,
	// wherever they appear.
	DeniedIdents map[string]bool

	// DeniedAttrs rejects attribute access on these names.
	DeniedAttrs map[string]bool

	// DenyDunderAttrs additionally rejects attribute access on any
	// dunder-style name (leading and trailing double underscore).
	DenyDunderAttrs bool

	// AllowedLoads is the set of permitted load() targets. Any other
	// target is a denied-import violation.
	AllowedLoads map[string]bool
}

// DefaultPolicy returns the standard policy: all expression and
// statement kinds except unbounded while loops, the bundled utility
// modules loadable, and the usual dynamic-evaluation and introspection
// identifiers denied.
func DefaultPolicy() *Policy {
	return &Policy{
		DeniedIdents: map[string]bool{
			"exec":       true,
			"eval":       true,
			"compile":    true,
			"__import__": true,
			"open":       true,
			"getattr":    true,
			"setattr":    true,
			"hasattr":    true,
			"subprocess": true,
			"system":     true,
		},
		DeniedAttrs:     map[string]bool{},
		DenyDunderAttrs: true,
		AllowedLoads: map[string]bool{
			"json": true,
			"math": true,
			"time": true,
		},
	}
}

// defaultAllowedNodes is the allow set applied when Policy.AllowedNodes
// is nil. While loops are excluded: with recursion already disabled by
// the grammar options, this keeps every loop bounded by its iterable.
var defaultAllowedNodes = map[string]bool{
	NodeFile: true, NodeExprStmt: true, NodeAssign: true, NodeDef: true,
	NodeIf: true, NodeFor: true, NodeReturn: true, NodeBranch: true,
	NodeLoad: true, NodeIdent: true, NodeLiteral: true, NodeCall: true,
	NodeDot: true, NodeIndex: true, NodeSlice: true,
	NodeComprehension: true, NodeCond: true, NodeTuple: true,
	NodeList: true, NodeDict: true, NodeDictEntry: true, NodeUnary: true,
	NodeBinary: true, NodeLambda: true, NodeParen: true,
}

func (p *Policy) nodeAllowed(kind string) bool {
	if p.AllowedNodes == nil {
		return defaultAllowedNodes[kind]
	}
	return p.AllowedNodes[kind]
}

// NodeKind returns the policy kind name for a syntax node.
func NodeKind(n syntax.Node) string {
	switch n.(type) {
	case *syntax.File:
		return NodeFile
	case *syntax.ExprStmt:
		return NodeExprStmt
	case *syntax.AssignStmt:
		return NodeAssign
	case *syntax.DefStmt:
		return NodeDef
	case *syntax.IfStmt:
		return NodeIf
	case *syntax.ForStmt:
		return NodeFor
	case *syntax.WhileStmt:
		return NodeWhile
	case *syntax.ReturnStmt:
		return NodeReturn
	case *syntax.BranchStmt:
		return NodeBranch
	case *syntax.LoadStmt:
		return NodeLoad
	case *syntax.Ident:
		return NodeIdent
	case *syntax.Literal:
		return NodeLiteral
	case *syntax.CallExpr:
		return NodeCall
	case *syntax.DotExpr:
		return NodeDot
	case *syntax.IndexExpr:
		return NodeIndex
	case *syntax.SliceExpr:
		return NodeSlice
	case *syntax.Comprehension:
		return NodeComprehension
	case *syntax.ForClause, *syntax.IfClause:
		// Clause nodes are constituents of a comprehension; the
		// comprehension kind governs whether they are permitted.
		return NodeComprehension
	case *syntax.CondExpr:
		return NodeCond
	case *syntax.TupleExpr:
		return NodeTuple
	case *syntax.ListExpr:
		return NodeList
	case *syntax.DictExpr:
		return NodeDict
	case *syntax.DictEntry:
		return NodeDictEntry
	case *syntax.UnaryExpr:
		return NodeUnary
	case *syntax.BinaryExpr:
		return NodeBinary
	case *syntax.LambdaExpr:
		return NodeLambda
	case *syntax.ParenExpr:
		return NodeParen
	default:
		return ""
	}
}
