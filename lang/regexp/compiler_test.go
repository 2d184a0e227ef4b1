package regexp_test

import (
	"testing"

	"github.com/mna/esquick/lang/regexp"
	"github.com/stretchr/testify/require"
)

func mustMatch(t *testing.T, pattern, flags, input string) *regexp.MatchResult {
	t.Helper()
	bc, err := regexp.Compile(pattern, flags)
	require.NoError(t, err)
	res, err := regexp.NewMatcher(bc, input).Exec(0)
	require.NoError(t, err)
	return res
}

func TestCompileSimpleLiteral(t *testing.T) {
	res := mustMatch(t, "abc", "", "xxabcyy")
	require.NotNil(t, res)
	require.Equal(t, regexp.Span{Start: 2, End: 5}, res.Groups[0])
}

func TestCompileNoMatch(t *testing.T) {
	bc, err := regexp.Compile("abc", "")
	require.NoError(t, err)
	res, err := regexp.NewMatcher(bc, "xyz").Exec(0)
	require.NoError(t, err)
	require.Nil(t, res)
}

func TestCompileCapturingGroup(t *testing.T) {
	res := mustMatch(t, `(\d+)-(\d+)`, "", "order 12-345 done")
	require.NotNil(t, res)
	require.Equal(t, regexp.Span{Start: 6, End: 12}, res.Groups[0])
	require.Equal(t, regexp.Span{Start: 6, End: 8}, res.Groups[1])
	require.Equal(t, regexp.Span{Start: 9, End: 12}, res.Groups[2])
}

func TestCompileNamedGroup(t *testing.T) {
	bc, err := regexp.Compile(`(?<year>\d{4})-(?<month>\d{2})`, "")
	require.NoError(t, err)
	require.Len(t, bc.GroupNames, 2)
	require.Equal(t, "year", bc.GroupNames[0].Name)
	require.Equal(t, "month", bc.GroupNames[1].Name)
}

func TestCompileAlternation(t *testing.T) {
	res := mustMatch(t, `cat|dog|bird`, "", "I have a dog")
	require.NotNil(t, res)
	require.Equal(t, regexp.Span{Start: 9, End: 12}, res.Groups[0])
}

func TestCompileGreedyVsLazyStar(t *testing.T) {
	greedy := mustMatch(t, `a.*b`, "", "axxbxxb")
	require.Equal(t, regexp.Span{Start: 0, End: 7}, greedy.Groups[0])

	lazy := mustMatch(t, `a.*?b`, "", "axxbxxb")
	require.Equal(t, regexp.Span{Start: 0, End: 4}, lazy.Groups[0])
}

func TestCompileBoundedRepeat(t *testing.T) {
	res := mustMatch(t, `a{2,3}`, "", "aaaa")
	require.NotNil(t, res)
	require.Equal(t, 3, res.Groups[0].End-res.Groups[0].Start)
}

func TestCompileIgnoreCase(t *testing.T) {
	res := mustMatch(t, `HELLO`, "i", "say hello world")
	require.NotNil(t, res)
	require.Equal(t, regexp.Span{Start: 4, End: 9}, res.Groups[0])
}

func TestCompileBackreference(t *testing.T) {
	res := mustMatch(t, `(\w+) \1`, "", "echo echo loud")
	require.NotNil(t, res)
	require.Equal(t, regexp.Span{Start: 0, End: 9}, res.Groups[0])
}

func TestCompileLookahead(t *testing.T) {
	bc, err := regexp.Compile(`foo(?=bar)`, "")
	require.NoError(t, err)
	m := regexp.NewMatcher(bc, "foobar")
	res, err := m.Exec(0)
	require.NoError(t, err)
	require.NotNil(t, res)
	require.Equal(t, regexp.Span{Start: 0, End: 3}, res.Groups[0])

	m2 := regexp.NewMatcher(bc, "foobaz")
	res2, err := m2.Exec(0)
	require.NoError(t, err)
	require.Nil(t, res2)
}

func TestCompileNegativeLookahead(t *testing.T) {
	bc, err := regexp.Compile(`foo(?!bar)`, "")
	require.NoError(t, err)
	res, err := regexp.NewMatcher(bc, "foobaz").Exec(0)
	require.NoError(t, err)
	require.NotNil(t, res)

	res2, err := regexp.NewMatcher(bc, "foobar").Exec(0)
	require.NoError(t, err)
	require.Nil(t, res2)
}

func TestCompileLookbehind(t *testing.T) {
	bc, err := regexp.Compile(`(?<=\$)\d+`, "")
	require.NoError(t, err)
	res, err := regexp.NewMatcher(bc, "price: $42").Exec(0)
	require.NoError(t, err)
	require.NotNil(t, res)
	require.Equal(t, regexp.Span{Start: 8, End: 10}, res.Groups[0])
}

func TestCompileCharacterClassEscapes(t *testing.T) {
	res := mustMatch(t, `\d+\s\w+`, "", "id 42 name")
	require.NotNil(t, res)
	require.Equal(t, regexp.Span{Start: 3, End: 10}, res.Groups[0])
}

func TestCompileNegatedClassEscape(t *testing.T) {
	res := mustMatch(t, `\D+`, "", "abc123")
	require.NotNil(t, res)
	require.Equal(t, regexp.Span{Start: 0, End: 3}, res.Groups[0])
}

func TestCompileBracketExpression(t *testing.T) {
	res := mustMatch(t, `[a-fA-F0-9]+`, "", "zzCAFEzz")
	require.NotNil(t, res)
	require.Equal(t, regexp.Span{Start: 2, End: 6}, res.Groups[0])
}

func TestCompileNegatedBracketExpression(t *testing.T) {
	res := mustMatch(t, `[^0-9]+`, "", "123abc456")
	require.NotNil(t, res)
	require.Equal(t, regexp.Span{Start: 3, End: 6}, res.Groups[0])
}

func TestCompileWordBoundary(t *testing.T) {
	res := mustMatch(t, `\bcat\b`, "", "concatenate cat scattered")
	require.NotNil(t, res)
	require.Equal(t, regexp.Span{Start: 12, End: 15}, res.Groups[0])
}

func TestCompileUnicodePropertyEscape(t *testing.T) {
	res := mustMatch(t, `\p{Lu}+`, "u", "hello WORLD")
	require.NotNil(t, res)
	require.Equal(t, regexp.Span{Start: 6, End: 11}, res.Groups[0])
}

func TestCompileDuplicateNamedGroupsInAlternatives(t *testing.T) {
	bc, err := regexp.Compile(`(?:(?<n>a)|(?<n>b))`, "")
	require.NoError(t, err)
	require.Len(t, bc.GroupNames, 1)
}

func TestCompileDuplicateNamedGroupSameAlternativeIsError(t *testing.T) {
	_, err := regexp.Compile(`(?<n>a)(?<n>b)`, "")
	require.Error(t, err)
}

func TestCompileNothingToRepeatIsError(t *testing.T) {
	_, err := regexp.Compile(`*abc`, "")
	require.Error(t, err)
}

func TestCompileUnterminatedGroupIsError(t *testing.T) {
	_, err := regexp.Compile(`(abc`, "")
	require.Error(t, err)
}

func TestCompileUnmatchedCloseParenIsError(t *testing.T) {
	_, err := regexp.Compile(`abc)`, "")
	require.Error(t, err)
}

func TestCompileInvalidFlagIsError(t *testing.T) {
	_, err := regexp.Compile(`abc`, "z")
	require.Error(t, err)
}

func TestCompileConflictingUVFlagsIsError(t *testing.T) {
	_, err := regexp.Compile(`abc`, "uv")
	require.Error(t, err)
}

func TestCompileStickyFlagAnchorsToStart(t *testing.T) {
	bc, err := regexp.Compile(`abc`, "y")
	require.NoError(t, err)
	res, err := regexp.NewMatcher(bc, "xabc").Exec(0)
	require.NoError(t, err)
	require.Nil(t, res)

	res2, err := regexp.NewMatcher(bc, "abcxx").Exec(0)
	require.NoError(t, err)
	require.NotNil(t, res2)
}

func TestCompileEmptyPatternMatchesEmptyString(t *testing.T) {
	res := mustMatch(t, ``, "", "anything")
	require.NotNil(t, res)
	require.Equal(t, regexp.Span{Start: 0, End: 0}, res.Groups[0])
}

func TestCompileMultilineAnchors(t *testing.T) {
	res := mustMatch(t, `^b`, "m", "a\nb\nc")
	require.NotNil(t, res)
	require.Equal(t, regexp.Span{Start: 2, End: 3}, res.Groups[0])
}

func TestCompileDotAllFlag(t *testing.T) {
	noDotAll := mustMatch(t, `a.b`, "", "a\nb")
	require.Nil(t, noDotAll)

	withDotAll := mustMatch(t, `a.b`, "s", "a\nb")
	require.NotNil(t, withDotAll)
}
