package regexp

import (
	"strconv"
	"strings"
)

// term implements spec §4.2 "Atoms": one atom, returning its compiled
// bytes and whether it is quantifiable (anchors, boundaries, and
// look-around openers themselves are excluded from direct repetition only
// for the bare-anchor case — lookarounds, despite being zero-width, are
// quantifiable in real engines, spec's "disallowed anchors for
// quantification" names only ^, $, and the boundary escapes).
func (c *compiler) term(scope map[string]int, altSeen map[string]bool) ([]byte, bool, error) {
	ch, _ := c.peek()
	switch ch {
	case '^':
		c.pos++
		op := LINE_START
		if c.multiline {
			op = LINE_START_M
		}
		return []byte{byte(op)}, false, nil
	case '$':
		c.pos++
		op := LINE_END
		if c.multiline {
			op = LINE_END_M
		}
		return []byte{byte(op)}, false, nil
	case '.':
		c.pos++
		op := DOT
		if c.dotAll {
			op = ANY
		}
		return []byte{byte(op)}, true, nil
	case '(':
		return c.group(scope, altSeen)
	case '[':
		buf, err := c.classAtom()
		return buf, true, err
	case '\\':
		return c.escapeAtom()
	default:
		c.pos++
		return literalBytes(ch, c.ignoreCase), true, nil
	}
}

func literalBytes(r rune, ignoreCase bool) []byte {
	if r > 0xFFFF {
		op := CHAR32
		if ignoreCase {
			op = CHAR32_I
		}
		return putU32([]byte{byte(op)}, uint32(r))
	}
	op := CHAR
	if ignoreCase {
		op = CHAR_I
	}
	return putU16([]byte{byte(op)}, uint16(r))
}

// group implements spec §4.2 "Groups": plain/non-capturing/named
// captures and the four look-around forms.
func (c *compiler) group(scope map[string]int, altSeen map[string]bool) ([]byte, bool, error) {
	c.pos++ // '('
	if c.peekCh() == '?' {
		c.pos++
		switch {
		case c.peekCh() == ':':
			c.pos++
			body, err := c.disjunction()
			if err != nil {
				return nil, false, err
			}
			if err := c.expect(')'); err != nil {
				return nil, false, err
			}
			return body, true, nil
		case c.peekCh() == '=':
			c.pos++
			return c.lookaround(LOOKAHEAD, LOOKAHEAD_MATCH)
		case c.peekCh() == '!':
			c.pos++
			return c.lookaround(NEGATIVE_LOOKAHEAD, NEGATIVE_LOOKAHEAD_MATCH)
		case c.peekCh() == '<' && c.peekAt(1) == '=':
			c.pos += 2
			return c.lookaround(LOOKBEHIND, LOOKBEHIND_MATCH)
		case c.peekCh() == '<' && c.peekAt(1) == '!':
			c.pos += 2
			return c.lookaround(NEGATIVE_LOOKBEHIND, NEGATIVE_LOOKBEHIND_MATCH)
		case c.peekCh() == '<':
			c.pos++
			name, err := c.readGroupName()
			if err != nil {
				return nil, false, err
			}
			idx, existedInScope := scope[name]
			if altSeen[name] {
				return nil, false, syntaxErrorf("duplicate capture group name %q", name)
			}
			if !existedInScope {
				idx = c.nextCapture
				c.nextCapture++
				scope[name] = idx
				c.groupNames = append(c.groupNames, GroupName{Index: idx, Name: name})
			}
			altSeen[name] = true
			body, err := c.disjunction()
			if err != nil {
				return nil, false, err
			}
			if err := c.expect(')'); err != nil {
				return nil, false, err
			}
			return wrapCapture(idx, body), true, nil
		case c.peekCh() == '>':
			c.pos++ // atomic group: treated as non-capturing (approximation, see DESIGN.md)
			body, err := c.disjunction()
			if err != nil {
				return nil, false, err
			}
			if err := c.expect(')'); err != nil {
				return nil, false, err
			}
			return body, true, nil
		default:
			return nil, false, syntaxErrorf("invalid group syntax at position %d", c.pos)
		}
	}
	idx := c.nextCapture
	c.nextCapture++
	body, err := c.disjunction()
	if err != nil {
		return nil, false, err
	}
	if err := c.expect(')'); err != nil {
		return nil, false, err
	}
	return wrapCapture(idx, body), true, nil
}

func wrapCapture(idx int, body []byte) []byte {
	buf := emitSave(SAVE_START, uint16(idx))
	buf = append(buf, body...)
	buf = append(buf, emitSave(SAVE_END, uint16(idx))...)
	return buf
}

func (c *compiler) lookaround(openOp, matchOp Opcode) ([]byte, bool, error) {
	body, err := c.disjunction()
	if err != nil {
		return nil, false, err
	}
	if err := c.expect(')'); err != nil {
		return nil, false, err
	}
	full := append(append([]byte{}, body...), byte(matchOp))
	buf := []byte{byte(openOp)}
	buf = putU32(buf, uint32(len(full)))
	buf = append(buf, full...)
	return buf, true, nil
}

func (c *compiler) readGroupName() (string, error) {
	var sb strings.Builder
	for {
		ch, ok := c.peek()
		if !ok {
			return "", syntaxErrorf("unterminated group name")
		}
		if ch == '>' {
			c.pos++
			break
		}
		sb.WriteRune(ch)
		c.pos++
	}
	if sb.Len() == 0 {
		return "", syntaxErrorf("empty group name")
	}
	return sb.String(), nil
}

// classAtom implements spec §4.2 "Character classes": a `[...]` bracket
// expression lowered to RANGE/NOT_RANGE.
func (c *compiler) classAtom() ([]byte, error) {
	c.pos++ // '['
	inverted := false
	if c.peekCh() == '^' {
		inverted = true
		c.pos++
	}
	cls := newClass()
	for {
		ch, ok := c.peek()
		if !ok {
			return nil, syntaxErrorf("unterminated character class")
		}
		if ch == ']' {
			c.pos++
			break
		}
		lo, loClass, err := c.classItem()
		if err != nil {
			return nil, err
		}
		if loClass != nil {
			cls = union(cls, loClass)
			continue
		}
		if c.peekCh() == '-' && c.hasMore(1) && c.peekAt(1) != ']' {
			save := c.pos
			c.pos++
			hi, hiClass, err := c.classItem()
			if err != nil {
				return nil, err
			}
			if hiClass != nil {
				// Annex B §B.1.4 fallback: a class escape can't be a range
				// endpoint, so `-` and the left atom become literals instead.
				c.pos = save
				cls.addChar(lo)
				continue
			}
			cls.addRange(lo, hi)
			continue
		}
		cls.addChar(lo)
	}
	cls.normalize()
	return c.emitClass(cls, inverted), nil
}

// classItem parses one bracket-expression member: either a single code
// point (returned as lo) or a class escape (\d \w \s \D \W \S \p{...},
// returned as a *CharacterClass).
func (c *compiler) classItem() (rune, *CharacterClass, error) {
	ch, _ := c.peek()
	if ch != '\\' {
		c.pos++
		return ch, nil, nil
	}
	c.pos++
	e, _ := c.peek()
	switch e {
	case 'd':
		c.pos++
		return 0, digitClass, nil
	case 'D':
		c.pos++
		return 0, complement(digitClass), nil
	case 'w':
		c.pos++
		return 0, wordClass, nil
	case 'W':
		c.pos++
		return 0, complement(wordClass), nil
	case 's':
		c.pos++
		return 0, spaceClass, nil
	case 'S':
		c.pos++
		return 0, complement(spaceClass), nil
	case 'p', 'P':
		cls, err := c.unicodeEscape(e == 'P')
		if err != nil {
			return 0, nil, err
		}
		return 0, cls, nil
	case 'b':
		c.pos++
		return 0x08, nil, nil // backspace inside a class
	default:
		return c.charEscape()
	}
}

func (c *compiler) emitClass(cls *CharacterClass, inverted bool) []byte {
	op := RANGE
	if inverted {
		op = NOT_RANGE
	}
	if c.ignoreCase {
		if op == RANGE {
			op = RANGE_I
		} else {
			op = NOT_RANGE_I
		}
	}
	var payload []byte
	for _, r := range cls.Ranges {
		payload = putU32(payload, uint32(r.lo))
		payload = putU32(payload, uint32(r.hi))
	}
	buf := []byte{byte(op)}
	buf = putU16(buf, uint16(len(payload)))
	buf = putU16(buf, uint16(len(cls.Ranges)))
	buf = append(buf, payload...)
	return buf
}

// escapeAtom implements the term-level (outside a bracket expression)
// half of spec §4.2 "Escapes": class escapes become inline RANGE
// instructions, \b/\B become boundary opcodes, \k<name> and \1..\9
// become back-references, and everything else decodes to a literal code
// point.
func (c *compiler) escapeAtom() ([]byte, bool, error) {
	c.pos++ // '\\'
	ch, ok := c.peek()
	if !ok {
		return nil, false, syntaxErrorf("trailing backslash")
	}
	switch ch {
	case 'd', 'D', 'w', 'W', 's', 'S':
		_, cls, _ := c.classItem2(ch)
		return c.emitClass(cls, false), true, nil
	case 'p', 'P':
		cls, err := c.unicodeEscape(ch == 'P')
		if err != nil {
			return nil, false, err
		}
		return c.emitClass(cls, false), true, nil
	case 'b':
		c.pos++
		op := WORD_BOUNDARY
		if c.ignoreCase {
			op = WORD_BOUNDARY_I
		}
		return []byte{byte(op)}, false, nil
	case 'B':
		c.pos++
		op := NOT_WORD_BOUNDARY
		if c.ignoreCase {
			op = NOT_WORD_BOUNDARY_I
		}
		return []byte{byte(op)}, false, nil
	case 'k':
		if c.peekAt(1) == '<' {
			c.pos += 2
			name, err := c.readGroupName()
			if err != nil {
				return nil, false, err
			}
			idx := c.resolveGroupName(name)
			if idx < 0 {
				return nil, false, syntaxErrorf("unknown named group %q", name)
			}
			return backrefBytes(idx, c.ignoreCase), true, nil
		}
		c.pos++
		return literalBytes('k', c.ignoreCase), true, nil
	case '1', '2', '3', '4', '5', '6', '7', '8', '9':
		n, _ := c.readDigits()
		if n <= c.totalCaptures {
			return backrefBytes(n, c.ignoreCase), true, nil
		}
		if c.unicodeMode {
			return nil, false, syntaxErrorf("invalid backreference \\%d", n)
		}
		// Annex B legacy octal fallback for an out-of-range digit escape.
		return literalBytes(rune(n), c.ignoreCase), true, nil
	case '0':
		c.pos++
		if c.peekCh() >= '0' && c.peekCh() <= '9' {
			n, _ := c.readOctalAfterZero()
			return literalBytes(rune(n), c.ignoreCase), true, nil
		}
		return literalBytes(0, c.ignoreCase), true, nil
	default:
		r, cls, err := c.charEscape()
		if err != nil {
			return nil, false, err
		}
		if cls != nil {
			return c.emitClass(cls, false), true, nil
		}
		return literalBytes(r, c.ignoreCase), true, nil
	}
}

// classItem2 re-dispatches a class-escape letter already known to be one
// of d/D/w/W/s/S, consuming it; used by escapeAtom to share classItem's
// table without re-peeking '\\'.
func (c *compiler) classItem2(letter rune) (rune, *CharacterClass, error) {
	c.pos++ // the letter itself
	switch letter {
	case 'd':
		return 0, digitClass, nil
	case 'D':
		return 0, complement(digitClass), nil
	case 'w':
		return 0, wordClass, nil
	case 'W':
		return 0, complement(wordClass), nil
	case 's':
		return 0, spaceClass, nil
	case 'S':
		return 0, complement(spaceClass), nil
	}
	panic("unreachable")
}

func backrefBytes(idx int, ignoreCase bool) []byte {
	op := BACK_REFERENCE
	if ignoreCase {
		op = BACK_REFERENCE_I
	}
	return []byte{byte(op), byte(idx), byte(idx >> 8)}
}

func (c *compiler) resolveGroupName(name string) int {
	for _, g := range c.groupNames {
		if g.Name == name {
			return g.Index
		}
	}
	// Forward reference to a name not yet seen in this left-to-right scan:
	// resolve by pre-scanning the remainder of the pattern for it.
	if idx, ok := prescanGroupName(c.src, name); ok {
		return idx
	}
	return -1
}

// prescanGroupName looks ahead through the pattern text for a
// `(?<name>` this compiler hasn't reached yet, assigning it the capture
// index it would receive by counting capturing groups up to that point.
// This only matters for forward named back-references (`\k<name>` before
// the group it names), an unusual but legal construct.
func prescanGroupName(src []rune, name string) (int, bool) {
	idx := 0
	inClass := false
	for i := 0; i < len(src); i++ {
		switch src[i] {
		case '\\':
			i++
		case '[':
			inClass = true
		case ']':
			inClass = false
		case '(':
			if inClass {
				continue
			}
			if i+1 < len(src) && src[i+1] == '?' {
				if i+2 < len(src) && src[i+2] == '<' && i+3 < len(src) && src[i+3] != '=' && src[i+3] != '!' {
					idx++
					j := i + 3
					var sb strings.Builder
					for j < len(src) && src[j] != '>' {
						sb.WriteRune(src[j])
						j++
					}
					if sb.String() == name {
						return idx, true
					}
				}
				continue
			}
			idx++
		}
	}
	return 0, false
}

// charEscape implements the remaining single-character/property escapes
// of spec §4.2 "Escapes": \xHH, \uHHHH, \u{H...} (unicode mode only),
// \cA-\cZ, legacy octal, and the Annex B identity-escape fallback for an
// otherwise-unknown escape in non-unicode mode.
func (c *compiler) charEscape() (rune, *CharacterClass, error) {
	ch, ok := c.peek()
	if !ok {
		return 0, nil, syntaxErrorf("trailing backslash")
	}
	switch ch {
	case 'n':
		c.pos++
		return '\n', nil, nil
	case 'r':
		c.pos++
		return '\r', nil, nil
	case 't':
		c.pos++
		return '\t', nil, nil
	case 'v':
		c.pos++
		return '\v', nil, nil
	case 'f':
		c.pos++
		return '\f', nil, nil
	case 'x':
		c.pos++
		if v, ok := c.readHex(2); ok {
			return rune(v), nil, nil
		}
		if c.unicodeMode {
			return 0, nil, syntaxErrorf("invalid \\x escape at position %d", c.pos)
		}
		return 'x', nil, nil
	case 'u':
		c.pos++
		if c.peekCh() == '{' {
			save := c.pos
			c.pos++
			start := c.pos
			for c.peekCh() != '}' && c.pos < len(c.src) {
				c.pos++
			}
			if c.peekCh() != '}' {
				c.pos = save
				if c.unicodeMode {
					return 0, nil, syntaxErrorf("invalid \\u{...} escape")
				}
				return 'u', nil, nil
			}
			v, err := strconv.ParseInt(string(c.src[start:c.pos]), 16, 32)
			c.pos++ // consume '}'
			if err != nil {
				return 0, nil, syntaxErrorf("invalid \\u{...} escape: %v", err)
			}
			return rune(v), nil, nil
		}
		if v, ok := c.readHex(4); ok {
			return rune(v), nil, nil
		}
		if c.unicodeMode {
			return 0, nil, syntaxErrorf("invalid \\u escape at position %d", c.pos)
		}
		return 'u', nil, nil
	case 'c':
		if c.hasMore(1) && isAsciiLetter(c.peekAt(1)) {
			c.pos += 2
			return rune(c.src[c.pos-1]) % 32, nil, nil
		}
		c.pos++
		return 'c', nil, nil
	case '0', '1', '2', '3', '4', '5', '6', '7':
		n, _ := c.readOctalAfterZero()
		return rune(n), nil, nil
	default:
		// Identity escape (Annex B §B.1.2 in non-unicode mode; a narrower
		// fixed punctuation set in unicode mode, approximated here as
		// "anything not alphanumeric" since unicode mode only reaches this
		// branch for syntax characters, which are always their own escape).
		c.pos++
		return ch, nil, nil
	}
}

func isAsciiLetter(r rune) bool { return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') }

func (c *compiler) readHex(n int) (int, bool) {
	if !c.hasMore(n - 1) {
		return 0, false
	}
	v, err := strconv.ParseInt(string(c.src[c.pos:c.pos+n]), 16, 32)
	if err != nil {
		return 0, false
	}
	c.pos += n
	return int(v), true
}

func (c *compiler) readOctalAfterZero() (int, bool) {
	n := 0
	count := 0
	for count < 3 {
		ch, ok := c.peek()
		if !ok || ch < '0' || ch > '7' {
			break
		}
		n = n*8 + int(ch-'0')
		c.pos++
		count++
	}
	return n, count > 0
}

// unicodeEscape parses `{p,P}{Name}` / `{p,P}{Name=Value}` after the
// leading backslash has been consumed and the p/P peeked (not consumed).
func (c *compiler) unicodeEscape(negate bool) (*CharacterClass, error) {
	c.pos++ // 'p' or 'P'
	if !c.unicodeMode {
		// Annex B: \p/\P without u/v is an identity escape for the literal
		// letter, not a property class.
		cls := newClass()
		if negate {
			cls.addChar('P')
		} else {
			cls.addChar('p')
		}
		return cls, nil
	}
	if c.peekCh() != '{' {
		return nil, syntaxErrorf("expected '{' after \\p")
	}
	c.pos++
	start := c.pos
	for c.peekCh() != '}' && c.pos < len(c.src) {
		c.pos++
	}
	if c.peekCh() != '}' {
		return nil, syntaxErrorf("unterminated \\p{...}")
	}
	name := string(c.src[start:c.pos])
	c.pos++
	if eq := strings.IndexByte(name, '='); eq >= 0 {
		name = name[eq+1:]
	}
	return unicodePropertyClass(name, negate)
}
