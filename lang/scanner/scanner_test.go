package scanner_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mna/esquick/lang/scanner"
	"github.com/mna/esquick/lang/token"
)

func scanAll(t *testing.T, src string) ([]token.Token, []scanner.Value) {
	t.Helper()
	var sc scanner.Scanner
	var errs []string
	sc.Init("test.js", []byte(src), func(pos token.Position, msg string) {
		errs = append(errs, msg)
	})

	var toks []token.Token
	var vals []scanner.Value
	for {
		var val scanner.Value
		sc.SetRegexAllowed(regexAllowedAfter(toks))
		tok := sc.Scan(&val)
		toks = append(toks, tok)
		vals = append(vals, val)
		if tok == token.EOF {
			break
		}
	}
	require.Empty(t, errs)
	return toks, vals
}

// regexAllowedAfter mirrors the parser's conservative heuristic closely
// enough for lexer-only tests that don't exercise ambiguous '/' contexts.
func regexAllowedAfter(toks []token.Token) bool {
	if len(toks) == 0 {
		return true
	}
	switch toks[len(toks)-1] {
	case token.IDENT, token.NUMBER, token.STRING, token.RPAREN, token.RBRACK:
		return false
	}
	return true
}

func TestScanPunctAndKeywords(t *testing.T) {
	toks, _ := scanAll(t, "let x = 1 + 2;")
	require.Equal(t, []token.Token{
		token.LET, token.IDENT, token.ASSIGN, token.NUMBER, token.PLUS, token.NUMBER, token.SEMI, token.EOF,
	}, toks)
}

func TestScanMultiCharOperators(t *testing.T) {
	toks, _ := scanAll(t, "a ??= b >>>= c?.d")
	require.Equal(t, []token.Token{
		token.IDENT, token.QUESTIONQUESTIONEQ, token.IDENT, token.GTGTGTEQ, token.IDENT,
		token.QUESTIONDOT, token.IDENT, token.EOF,
	}, toks)
}

func TestScanNumberLiterals(t *testing.T) {
	_, vals := scanAll(t, "0x1F 0b101 0o17 1_000 1.5e2 10n")
	require.Equal(t, float64(0x1F), vals[0].Number)
	require.Equal(t, float64(5), vals[1].Number)
	require.Equal(t, float64(15), vals[2].Number)
	require.Equal(t, float64(1000), vals[3].Number)
	require.Equal(t, float64(150), vals[4].Number)
	require.True(t, vals[5].IsBig)
}

func TestScanStringEscapes(t *testing.T) {
	_, vals := scanAll(t, `"a\nbA\x42"`)
	require.Equal(t, "a\nbAB", vals[0].String)
}

func TestScanTemplateRaw(t *testing.T) {
	toks, vals := scanAll(t, "`hi ${name}!`")
	require.Equal(t, token.TEMPLATE, toks[0])
	require.Equal(t, "`hi ${name}!`", vals[0].Raw)
}

func TestScanRegexLiteral(t *testing.T) {
	toks, vals := scanAll(t, "/a[/]b/gi")
	require.Equal(t, token.REGEXP, toks[0])
	require.Contains(t, vals[0].String, "gi")
}

func TestNewlineBeforeTracksASI(t *testing.T) {
	_, vals := scanAll(t, "a\nb")
	require.False(t, vals[0].NewlineBefore)
	require.True(t, vals[1].NewlineBefore)
}
