package script

import (
	"strings"

	"go.starlark.net/syntax"
)

// ResultVar is the reserved variable a script assigns its result to.
// FormatVar is the reserved variable selecting the output format.
// Both are optional.
const (
	ResultVar = "__out"
	FormatVar = "__format"
)

// Checked is an accepted submission: the parsed tree plus the metadata
// the engine needs to extract the script's result.
type Checked struct {
	// Filename is the name the source was parsed under.
	Filename string

	// Source is the original submitted source.
	Source string

	// File is the parsed syntax tree.
	File *syntax.File

	assignsResult bool
	trailingExpr  bool
	trailingLine  int
	trailingCol   int
}

func newChecked(filename, source string, f *syntax.File) *Checked {
	c := &Checked{Filename: filename, Source: source, File: f}

	for _, stmt := range f.Stmts {
		if assign, ok := stmt.(*syntax.AssignStmt); ok && assign.Op == syntax.EQ {
			if ident, ok := assign.LHS.(*syntax.Ident); ok && ident.Name == ResultVar {
				c.assignsResult = true
			}
		}
	}
	if n := len(f.Stmts); n > 0 {
		if expr, ok := f.Stmts[n-1].(*syntax.ExprStmt); ok {
			start, _ := expr.Span()
			c.trailingExpr = true
			c.trailingLine = int(start.Line)
			c.trailingCol = int(start.Col)
		}
	}
	return c
}

// AssignsResult reports whether the script assigns the reserved result
// variable at top level. When it does, that explicit binding is
// authoritative and any trailing expression is ignored.
func (c *Checked) AssignsResult() bool {
	return c.assignsResult
}

// ExecSource returns the source the engine should execute. When the
// script never assigns the result variable and ends in a top-level
// expression statement, that final expression is captured by binding it
// to the result variable; otherwise the source is returned unchanged.
func (c *Checked) ExecSource() string {
	if c.assignsResult || !c.trailingExpr {
		return c.Source
	}
	off := offsetOf(c.Source, c.trailingLine, c.trailingCol)
	if off < 0 {
		return c.Source
	}
	return c.Source[:off] + ResultVar + " = " + c.Source[off:]
}

// offsetOf converts a 1-based line/column to a byte offset. Columns
// from the parser count runes, so the line prefix is re-measured.
func offsetOf(src string, line, col int) int {
	if line < 1 || col < 1 {
		return -1
	}
	off := 0
	for l := 1; l < line; l++ {
		nl := strings.IndexByte(src[off:], '\n')
		if nl < 0 {
			return -1
		}
		off += nl + 1
	}
	rest := src[off:]
	for i := range rest {
		col--
		if col == 0 {
			return off + i
		}
	}
	if col == 1 {
		return off + len(rest)
	}
	return -1
}
