package token

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPositionUnknown(t *testing.T) {
	require.True(t, Position{}.Unknown())
	require.False(t, Position{Line: 1, Col: 1}.Unknown())
}

func TestSourceLocationSpan(t *testing.T) {
	loc := SourceLocation{Start: Position{Line: 1, Col: 1}, End: Position{Line: 1, Col: 5}}
	start, end := loc.Span()
	require.Equal(t, loc.Start, start)
	require.Equal(t, loc.End, end)
}
