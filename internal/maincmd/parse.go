package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/esquick/lang/ast"
	"github.com/mna/esquick/lang/parser"
	"github.com/mna/mainer"
)

func (c *Cmd) Parse(ctx context.Context, stdio mainer.Stdio, args []string) error {
	return ParseFiles(ctx, stdio, c.WithComments, args...)
}

// ParseFiles parses each file as a standalone script (spec §4.1's Parse
// entry point) and dumps the resulting AST to stdio.Stdout, or prints the
// first syntax error encountered to stdio.Stderr.
func ParseFiles(ctx context.Context, stdio mainer.Stdio, withComments bool, files ...string) error {
	// withComments is accepted for CLI symmetry with the teacher's own
	// --with-comments flag; this parser does not retain comment trivia in
	// the AST (spec §3.1 has no Comment node), so it has no effect here.
	_ = withComments

	var firstErr error
	for _, name := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		src, err := os.ReadFile(name)
		if err != nil {
			fmt.Fprintln(stdio.Stderr, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		prog, err := parser.Parse(src, false, false)
		if err != nil {
			fmt.Fprintf(stdio.Stderr, "%s: %s\n", name, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		fmt.Fprintf(stdio.Stdout, "# %s\n", name)
		if err := ast.Dump(stdio.Stdout, prog); err != nil {
			return err
		}
	}
	return firstErr
}
