package regexp

import (
	"fmt"
	"sort"
	"unicode"
)

// crange is an inclusive code-point range, spec §3.2 CharacterClass.
type crange struct{ lo, hi rune }

// CharacterClass is the spec §3.2 entity, restricted in this package to a
// sorted, merged sequence of inclusive ranges: negation is resolved to an
// explicit complement set at compile time (see complement below) for
// every class built from an escape (\D, \W, \S, \P{...}), so that union()
// never has to reconcile mismatched polarities. The one negation that
// survives to bytecode is the outer `[^...]` of a bracket expression,
// which the compiler encodes as the NOT_RANGE opcode (spec §3.2 "Opcode
// table") instead of folding into this type.
type CharacterClass struct {
	Ranges []crange
}

func newClass() *CharacterClass { return &CharacterClass{} }

func (c *CharacterClass) addRange(lo, hi rune) {
	if lo > hi {
		lo, hi = hi, lo
	}
	c.Ranges = append(c.Ranges, crange{lo, hi})
}

func (c *CharacterClass) addChar(r rune) { c.addRange(r, r) }

// normalize sorts and merges overlapping/adjacent ranges (spec §3.2
// "merge/normalise/union operators").
func (c *CharacterClass) normalize() {
	if len(c.Ranges) == 0 {
		return
	}
	sort.Slice(c.Ranges, func(i, j int) bool { return c.Ranges[i].lo < c.Ranges[j].lo })
	out := c.Ranges[:1]
	for _, r := range c.Ranges[1:] {
		last := &out[len(out)-1]
		if r.lo <= last.hi+1 {
			if r.hi > last.hi {
				last.hi = r.hi
			}
			continue
		}
		out = append(out, r)
	}
	c.Ranges = out
}

// union returns the union of a and b (spec §8 "CharacterClass.union(A,B) is
// commutative and idempotent").
func union(a, b *CharacterClass) *CharacterClass {
	out := &CharacterClass{Ranges: append(append([]crange{}, a.Ranges...), b.Ranges...)}
	out.normalize()
	return out
}

const maxCodePoint = 0x10FFFF

// complement returns the code-point-space complement of cls (everything in
// [0, 0x10FFFF] not covered by cls), used to compile \D, \W, \S, and
// \P{...} to an explicit positive range set rather than threading a
// runtime polarity flag through every class operation.
func complement(cls *CharacterClass) *CharacterClass {
	cp := &CharacterClass{Ranges: append([]crange{}, cls.Ranges...)}
	cp.normalize()
	out := newClass()
	prev := rune(0)
	for _, r := range cp.Ranges {
		if r.lo > prev {
			out.addRange(prev, r.lo-1)
		}
		if r.hi+1 > prev {
			prev = r.hi + 1
		}
	}
	if prev <= maxCodePoint {
		out.addRange(prev, maxCodePoint)
	}
	return out
}

// Predefined classes for \d \w \s (spec §4.2 "Escapes").
var (
	digitClass = &CharacterClass{Ranges: []crange{{'0', '9'}}}
	wordClass  = &CharacterClass{Ranges: []crange{{'0', '9'}, {'A', 'Z'}, {'_', '_'}, {'a', 'z'}}}
	spaceClass = buildSpaceClass()
)

func buildSpaceClass() *CharacterClass {
	c := newClass()
	// WhiteSpace production plus LineTerminator (ECMA-262 §11.2/11.3).
	for _, r := range []rune{0x09, 0x0A, 0x0B, 0x0C, 0x0D, 0x20, 0xA0, 0x1680, 0x2028, 0x2029, 0x202F, 0x205F, 0x3000, 0xFEFF} {
		c.addChar(r)
	}
	c.addRange(0x2000, 0x200A)
	c.normalize()
	return c
}

// isWordChar implements the "word" predicate for \b/\B (spec §4.3
// "WORD_BOUNDARY[_I]"): word = [a-zA-Z0-9_], widened with U+017F/U+212A
// under ignoreCase+unicode per the spec note.
func isWordChar(r rune, ignoreCaseUnicode bool) bool {
	for _, rg := range wordClass.Ranges {
		if r >= rg.lo && r <= rg.hi {
			return true
		}
	}
	return ignoreCaseUnicode && (r == 0x017F || r == 0x212A)
}

// unicodePropertyClass resolves \p{Name}/\P{Name} (spec §4.2 "Escapes"):
// general-category aliases, script names, and the listed binary
// properties. The Unicode range tables themselves come from Go's
// standard unicode package -- the spec places "the Unicode database
// lookup tables" out of scope (§1), and the standard library's RangeTable
// data is exactly that external database, so reimplementing it by hand
// would just be a worse copy of what Go already ships; see DESIGN.md.
func unicodePropertyClass(name string, negate bool) (*CharacterClass, error) {
	var tab *unicode.RangeTable
	switch name {
	case "Any":
		c := newClass()
		c.addRange(0, maxCodePoint)
		if negate {
			return newClass(), nil
		}
		return c, nil
	case "Assigned":
		// Assigned = NOT Cn (unassigned); flip the requested polarity once.
		return unicodePropertyClass("_Cn", !negate)
	case "_Cn":
		tab = unicode.Cn
	case "ASCII":
		tab = &unicode.RangeTable{R16: []unicode.Range16{{Lo: 0, Hi: 0x7F, Stride: 1}}}
	case "Alphabetic":
		tab = unicode.Letter
	case "White_Space":
		if negate {
			return complement(spaceClass), nil
		}
		return spaceClass, nil
	case "Uppercase":
		tab = unicode.Upper
	case "Lowercase":
		tab = unicode.Lower
	case "Math":
		tab = unicode.Sm
	case "ID_Start":
		tab = unicode.Letter
	case "ID_Continue":
		tab = rangeTableUnion(unicode.Letter, unicode.Digit, unicode.Mn, unicode.Mc, unicode.Pc)
	case "Join_Control":
		tab = &unicode.RangeTable{R16: []unicode.Range16{{Lo: 0x200C, Hi: 0x200D, Stride: 1}}}
	default:
		if t, ok := unicode.Categories[name]; ok {
			tab = t
		} else if t, ok := unicode.Scripts[name]; ok {
			tab = t
		} else {
			return nil, fmt.Errorf("regexp: unknown unicode property %q", name)
		}
	}
	c := fromRangeTable(tab)
	if negate {
		return complement(c), nil
	}
	return c, nil
}

func fromRangeTable(tab *unicode.RangeTable) *CharacterClass {
	c := newClass()
	for _, r := range tab.R16 {
		for lo := rune(r.Lo); lo <= rune(r.Hi); lo += rune(r.Stride) {
			c.addChar(lo)
			if r.Stride == 0 {
				break
			}
		}
	}
	for _, r := range tab.R32 {
		c.addRange(rune(r.Lo), rune(r.Hi))
	}
	c.normalize()
	return c
}

func rangeTableUnion(tabs ...*unicode.RangeTable) *unicode.RangeTable {
	out := &unicode.RangeTable{}
	for _, t := range tabs {
		out.R16 = append(out.R16, t.R16...)
		out.R32 = append(out.R32, t.R32...)
	}
	return out
}
