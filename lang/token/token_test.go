package token

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTokenString(t *testing.T) {
	for tok := Token(0); tok < maxToken; tok++ {
		require.NotEmpty(t, tok.String(), "token %d missing string representation", tok)
	}
}

func TestLookup(t *testing.T) {
	for tok := AWAIT; tok < ASYNC; tok++ {
		require.Equal(t, tok, Lookup(tok.String()), "keyword %s", tok)
	}
	require.Equal(t, IDENT, Lookup("notAKeyword"))
	require.Equal(t, IDENT, Lookup("async"), "contextual keywords scan as IDENT")
	require.Equal(t, IDENT, Lookup("get"))
}

func TestIsAssignOp(t *testing.T) {
	require.True(t, IsAssignOp(ASSIGN))
	require.True(t, IsAssignOp(PLUSEQ))
	require.True(t, IsAssignOp(QUESTIONQUESTIONEQ))
	require.False(t, IsAssignOp(EQ))
	require.False(t, IsAssignOp(ARROW))
}
