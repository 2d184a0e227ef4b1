package token

// Position is a 1-based line/column plus a 0-based byte offset into the
// source, as required by spec's SourceLocation ("line, column, start
// offset, end offset"). Unlike the teacher's packed 32-bit Pos (which only
// needs to round-trip line/col for diagnostics), AST nodes here need the
// byte range too (template re-parsing and tagged-template raw slicing both
// index back into the original source), so Position is a plain struct
// rather than a bit-packed scalar.
type Position struct {
	Line, Col int
	Offset    int
}

// Unknown reports whether the position carries no line/column information.
func (p Position) Unknown() bool { return p.Line == 0 }

// SourceLocation is the start/end span carried by every AST node (spec
// §3.1).
type SourceLocation struct {
	Start, End Position
}

// Span implements the (start, end) accessor pattern used throughout the
// teacher's ast package (ast.Node.Span), so printers and error reporters
// can treat any node uniformly.
func (s SourceLocation) Span() (Position, Position) { return s.Start, s.End }
