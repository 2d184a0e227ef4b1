package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/esquick/lang/scanner"
	"github.com/mna/esquick/lang/token"
	"github.com/mna/mainer"
)

func (c *Cmd) Tokenize(ctx context.Context, stdio mainer.Stdio, args []string) error {
	return TokenizeFiles(ctx, stdio, args...)
}

// TokenizeFiles scans each file and prints its token stream, one token per
// line, to stdio.Stdout.
func TokenizeFiles(ctx context.Context, stdio mainer.Stdio, files ...string) error {
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

		fmt.Fprintf(stdio.Stdout, "# %s\n", name)
		var sc scanner.Scanner
		var scanErr error
		sc.Init(name, src, func(pos token.Position, msg string) {
			if scanErr == nil {
				scanErr = fmt.Errorf("%s:%d:%d: %s", name, pos.Line, pos.Col, msg)
			}
		})

		var val scanner.Value
		for {
			tok := sc.Scan(&val)
			if tok == token.EOF {
				break
			}
			fmt.Fprintf(stdio.Stdout, "%d:%d: %-12s %q\n", val.Pos.Line, val.Pos.Col, tok, val.Raw)
		}
		if scanErr != nil {
			fmt.Fprintln(stdio.Stderr, scanErr)
			if firstErr == nil {
				firstErr = scanErr
			}
		}
	}
	return firstErr
}
