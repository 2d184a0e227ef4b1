package regexp

import "unicode"

// MatchResult is the spec §4.3 "Result construction" output: capture
// group boundaries expressed as UTF-16 code unit offsets into the
// original input, group 0 being the overall match.
type MatchResult struct {
	Groups []Span // Groups[i] is unset (Start == -1) when group i did not participate
	Names  []GroupName
}

// Span is a [Start, End) UTF-16 code unit range, or an unset capture
// when Start < 0.
type Span struct {
	Start, End int
}

// Matcher runs one compiled Bytecode against UTF-16 input (spec §4.3
// "Execution model"). Input is decoded once to a []rune-like code-unit
// slice up front so the backtracking run loop can index cursors in O(1)
// without re-scanning UTF-16 surrogate pairs on every step.
type Matcher struct {
	bc    *Bytecode
	units []uint16
}

// NewMatcher decodes input to UTF-16 code units and binds it to bc,
// mirroring the teacher's own pattern of a small value-holding
// constructor next to the type it returns (lang/machine/cell.go
// newVarRef, function.go NewClosure).
func NewMatcher(bc *Bytecode, input string) *Matcher {
	return &Matcher{bc: bc, units: utf16Units(input)}
}

func utf16Units(s string) []uint16 {
	units := make([]uint16, 0, len(s))
	for _, r := range s {
		if r > 0xFFFF {
			r -= 0x10000
			units = append(units, uint16(0xD800+(r>>10)), uint16(0xDC00+(r&0x3FF)))
		} else {
			units = append(units, uint16(r))
		}
	}
	return units
}

// Test reports only whether the pattern matches anywhere at or after
// startIndex (spec §4.3 "Test(input) -> bool").
func (m *Matcher) Test(startIndex int) bool {
	res, err := m.Exec(startIndex)
	return err == nil && res != nil
}

// Exec runs the spec §4.3 match loop: try startIndex, and unless the
// sticky flag forces a single anchored attempt, advance one code unit at a
// time until the body matches or the input is exhausted. The global flag
// does not change this loop.
func (m *Matcher) Exec(startIndex int) (*MatchResult, error) {
	sticky := m.bc.flagSet(FlagSticky)
	for start := startIndex; start <= len(m.units); start++ {
		st := &matchState{
			bc:    m.bc,
			units: m.units,
			caps:  make([]int, m.bc.CaptureCount*2),
			regs:  make([]int, 16),
		}
		for i := range st.caps {
			st.caps[i] = -1
		}
		if end, ok := st.run(0, start, 0); ok {
			return buildResult(m.bc, st.caps, start, end), nil
		}
		if sticky {
			break
		}
	}
	return nil, nil
}

func buildResult(bc *Bytecode, caps []int, start, end int) *MatchResult {
	groups := make([]Span, bc.CaptureCount)
	groups[0] = Span{Start: start, End: end}
	for g := 1; g < bc.CaptureCount; g++ {
		s, e := caps[g*2], caps[g*2+1]
		if s < 0 || e < 0 {
			groups[g] = Span{Start: -1, End: -1}
		} else {
			groups[g] = Span{Start: s, End: e}
		}
	}
	return &MatchResult{Groups: groups, Names: bc.GroupNames}
}

// matchState holds the per-attempt mutable state threaded through the
// recursive run; caps is shared by reference across backtracking
// choice-points and restored on failure (spec §4.3 "Captures are
// restored on backtrack").
type matchState struct {
	bc    *Bytecode
	units []uint16
	caps  []int
	regs  []int

	steps int
}

const maxMatchSteps = 2_000_000

// run executes the instruction stream starting at pc with the cursor at
// cur, returning the cursor position at a MATCH/LOOKAHEAD_MATCH/
// LOOKBEHIND_MATCH and true, or false on exhaustion. It is the single
// recursive matcher spec §4.3 describes separately for the top-level
// program and for look-around sub-programs: since every look-around
// body is compiled inline with its own terminating *_MATCH opcode at a
// fixed byte offset (LOOKAHEAD's u32 operand), a nested call to run
// starting at the body's first instruction naturally returns as soon as
// it reaches that opcode, with no separate "extract and re-execute a
// sub-bytecode" step needed.
func (st *matchState) run(pc, cur int, depth int) (int, bool) {
	code := st.bc.Instructions
	for {
		st.steps++
		if st.steps > maxMatchSteps {
			return 0, false
		}
		op := Opcode(code[pc])
		switch op {
		case MATCH, LOOKAHEAD_MATCH, NEGATIVE_LOOKAHEAD_MATCH, LOOKBEHIND_MATCH, NEGATIVE_LOOKBEHIND_MATCH:
			return cur, true

		case CHAR, CHAR_I:
			if cur >= len(st.units) {
				return 0, false
			}
			want := rune(getU16(code, pc+1))
			got := rune(st.units[cur])
			if !runeEq(got, want, op == CHAR_I) {
				return 0, false
			}
			cur++
			pc += instrLen(code, pc)

		case CHAR32, CHAR32_I:
			r, width, ok := decodeAt(st.units, cur)
			if !ok {
				return 0, false
			}
			want := rune(getU32(code, pc+1))
			if !runeEq(r, want, op == CHAR32_I) {
				return 0, false
			}
			cur += width
			pc += instrLen(code, pc)

		case DOT:
			r, width, ok := decodeAt(st.units, cur)
			if !ok || isLineTerminator(r) {
				return 0, false
			}
			cur += width
			pc += instrLen(code, pc)

		case ANY:
			_, width, ok := decodeAt(st.units, cur)
			if !ok {
				return 0, false
			}
			cur += width
			pc += instrLen(code, pc)

		case LINE_START:
			if cur != 0 {
				return 0, false
			}
			pc += instrLen(code, pc)
		case LINE_START_M:
			if cur != 0 && !isLineTerminator(rune(st.units[cur-1])) {
				return 0, false
			}
			pc += instrLen(code, pc)
		case LINE_END:
			if cur != len(st.units) {
				return 0, false
			}
			pc += instrLen(code, pc)
		case LINE_END_M:
			if cur != len(st.units) && !isLineTerminator(rune(st.units[cur])) {
				return 0, false
			}
			pc += instrLen(code, pc)

		case WORD_BOUNDARY, NOT_WORD_BOUNDARY:
			before := cur > 0 && isWordChar(rune(st.units[cur-1]), false)
			after := cur < len(st.units) && isWordChar(rune(st.units[cur]), false)
			boundary := before != after
			if op == NOT_WORD_BOUNDARY {
				boundary = !boundary
			}
			if !boundary {
				return 0, false
			}
			pc += instrLen(code, pc)
		case WORD_BOUNDARY_I, NOT_WORD_BOUNDARY_I:
			before := cur > 0 && isWordChar(rune(st.units[cur-1]), true)
			after := cur < len(st.units) && isWordChar(rune(st.units[cur]), true)
			boundary := before != after
			if op == NOT_WORD_BOUNDARY_I {
				boundary = !boundary
			}
			if !boundary {
				return 0, false
			}
			pc += instrLen(code, pc)

		case SAVE_START, SAVE_END:
			g := int(getU16(code, pc+1))
			next := pc + instrLen(code, pc)
			idx := g * 2
			if op == SAVE_END {
				idx++
			}
			old := st.caps[idx]
			st.caps[idx] = cur
			if end, ok := st.run(next, cur, depth); ok {
				return end, true
			}
			st.caps[idx] = old
			return 0, false

		case SAVE_RESET:
			from, to := int(getU16(code, pc+1)), int(getU16(code, pc+3))
			next := pc + instrLen(code, pc)
			saved := make([]int, 0, (to-from+1)*2)
			for g := from; g <= to; g++ {
				saved = append(saved, st.caps[g*2], st.caps[g*2+1])
				st.caps[g*2], st.caps[g*2+1] = -1, -1
			}
			if end, ok := st.run(next, cur, depth); ok {
				return end, true
			}
			i := 0
			for g := from; g <= to; g++ {
				st.caps[g*2], st.caps[g*2+1] = saved[i], saved[i+1]
				i += 2
			}
			return 0, false

		case GOTO:
			pc = pc + instrLen(code, pc) + int(getI32(code, pc+1))

		case SPLIT_GOTO_FIRST, SPLIT_NEXT_FIRST:
			rel := int(getI32(code, pc+1))
			next := pc + instrLen(code, pc)
			target := next + rel
			first, second := target, next
			if op == SPLIT_NEXT_FIRST {
				first, second = next, target
			}
			if end, ok := st.run(first, cur, depth); ok {
				return end, true
			}
			pc = second

		case LOOP_SPLIT_GOTO_FIRST, LOOP_SPLIT_NEXT_FIRST:
			// Reserved for an unrolled-counter bounded-repeat encoding not
			// produced by this compiler (quantify() always unrolls {n,m}
			// directly into repeated/optional atom copies); kept for
			// bytecode-format parity with the opcode table.
			return 0, false
		case LOOP, SET_I32:
			return 0, false

		case RANGE, RANGE_I, NOT_RANGE, NOT_RANGE_I, RANGE32, RANGE32_I:
			r, width, ok := decodeAt(st.units, cur)
			if !ok {
				return 0, false
			}
			ci := op == RANGE_I || op == NOT_RANGE_I
			neg := op == NOT_RANGE || op == NOT_RANGE_I
			if inRangeSet(code, pc, r, ci) == neg {
				return 0, false
			}
			cur += width
			pc += instrLen(code, pc)

		case BACK_REFERENCE, BACK_REFERENCE_I:
			g := int(getU16(code, pc+1))
			s, e := st.caps[g*2], st.caps[g*2+1]
			next := pc + instrLen(code, pc)
			if s < 0 || e < 0 {
				pc = next // unset group: matches the empty string (ES spec)
				continue
			}
			n, ok := matchLiteralForward(st.units, cur, st.units[s:e], op == BACK_REFERENCE_I)
			if !ok {
				return 0, false
			}
			cur = n
			pc = next

		case BACKWARD_BACK_REFERENCE, BACKWARD_BACK_REFERENCE_I:
			g := int(getU16(code, pc+1))
			s, e := st.caps[g*2], st.caps[g*2+1]
			next := pc + instrLen(code, pc)
			if s < 0 || e < 0 {
				pc = next
				continue
			}
			n, ok := matchLiteralBackward(st.units, cur, st.units[s:e], op == BACKWARD_BACK_REFERENCE_I)
			if !ok {
				return 0, false
			}
			cur = n
			pc = next

		case SET_CHAR_POS:
			reg := int(code[pc+1])
			st.regs[reg] = cur
			pc += instrLen(code, pc)
		case CHECK_ADVANCE:
			reg := int(code[pc+1])
			if cur == st.regs[reg] {
				return 0, false
			}
			pc += instrLen(code, pc)

		case PREV:
			if cur == 0 {
				return 0, false
			}
			_, width, ok := decodeBefore(st.units, cur)
			if !ok {
				return 0, false
			}
			cur -= width
			pc += instrLen(code, pc)

		case LOOKAHEAD, NEGATIVE_LOOKAHEAD:
			length := int(getU32(code, pc+1))
			bodyStart := pc + instrLen(code, pc)
			next := bodyStart + length
			sub := &matchState{bc: st.bc, units: st.units, caps: append([]int{}, st.caps...), regs: append([]int{}, st.regs...)}
			_, matched := sub.run(bodyStart, cur, depth+1)
			if op == NEGATIVE_LOOKAHEAD {
				if matched {
					return 0, false
				}
				pc = next
				continue
			}
			if !matched {
				return 0, false
			}
			copy(st.caps, sub.caps)
			pc = next

		case LOOKBEHIND, NEGATIVE_LOOKBEHIND:
			length := int(getU32(code, pc+1))
			bodyStart := pc + instrLen(code, pc)
			next := bodyStart + length
			matched, newCaps := st.lookbehindMatches(bodyStart, cur)
			if op == NEGATIVE_LOOKBEHIND {
				if matched {
					return 0, false
				}
				pc = next
				continue
			}
			if !matched {
				return 0, false
			}
			copy(st.caps, newCaps)
			pc = next

		default:
			return 0, false
		}
	}
}

// lookbehindMatches implements spec §4.2's lookbehind assertion by
// brute-force: a lookbehind body is compiled exactly like a lookahead
// body (forward-matching instructions), so rather than adding a second,
// reverse-direction code generation pass, this searches backward for a
// start position from which the forward body matches and ends precisely
// at cur. PREV remains in the opcode table for format parity but is not
// produced by this compiler's lookbehind path; see DESIGN.md.
func (st *matchState) lookbehindMatches(bodyStart, cur int) (bool, []int) {
	for j := cur; j >= 0; j-- {
		sub := &matchState{bc: st.bc, units: st.units, caps: append([]int{}, st.caps...), regs: append([]int{}, st.regs...)}
		end, ok := sub.run(bodyStart, j, 0)
		if ok && end == cur {
			return true, sub.caps
		}
	}
	return false, nil
}

func decodeAt(units []uint16, cur int) (rune, int, bool) {
	if cur >= len(units) {
		return 0, 0, false
	}
	u := units[cur]
	if u >= 0xD800 && u <= 0xDBFF && cur+1 < len(units) {
		u2 := units[cur+1]
		if u2 >= 0xDC00 && u2 <= 0xDFFF {
			r := (rune(u-0xD800) << 10) + rune(u2-0xDC00) + 0x10000
			return r, 2, true
		}
	}
	return rune(u), 1, true
}

func decodeBefore(units []uint16, cur int) (rune, int, bool) {
	if cur == 0 {
		return 0, 0, false
	}
	u := units[cur-1]
	if u >= 0xDC00 && u <= 0xDFFF && cur >= 2 {
		u1 := units[cur-2]
		if u1 >= 0xD800 && u1 <= 0xDBFF {
			r := (rune(u1-0xD800) << 10) + rune(u-0xDC00) + 0x10000
			return r, 2, true
		}
	}
	return rune(u), 1, true
}

func isLineTerminator(r rune) bool {
	return r == '\n' || r == '\r' || r == 0x2028 || r == 0x2029
}

func runeEq(got, want rune, ignoreCase bool) bool {
	if got == want {
		return true
	}
	if !ignoreCase {
		return false
	}
	return foldEquivalent(got, want)
}

// foldEquivalent implements the spec's ignoreCase comparison via
// Canonicalize (ECMA-262 §22.2.2.7.3): case-fold both code points
// (upper-casing, ECMAScript's own canonicalization choice) and compare.
func foldEquivalent(a, b rune) bool {
	return simpleFold(a) == simpleFold(b)
}

func simpleFold(r rune) rune { return unicode.ToUpper(r) }

func inRangeSet(code []byte, pc int, r rune, ignoreCase bool) bool {
	count := int(getU16(code, pc+3))
	base := pc + 5
	for i := 0; i < count; i++ {
		lo := rune(getU32(code, base+i*8))
		hi := rune(getU32(code, base+i*8+4))
		if r >= lo && r <= hi {
			return true
		}
		if ignoreCase {
			f := simpleFold(r)
			if f >= simpleFold(lo) && f <= simpleFold(hi) {
				return true
			}
		}
	}
	return false
}

func matchLiteralForward(units []uint16, cur int, lit []uint16, ignoreCase bool) (int, bool) {
	if cur+len(lit) > len(units) {
		return 0, false
	}
	for i, u := range lit {
		got := rune(units[cur+i])
		want := rune(u)
		if !runeEq(got, want, ignoreCase) {
			return 0, false
		}
	}
	return cur + len(lit), true
}

func matchLiteralBackward(units []uint16, cur int, lit []uint16, ignoreCase bool) (int, bool) {
	if cur-len(lit) < 0 {
		return 0, false
	}
	start := cur - len(lit)
	for i, u := range lit {
		got := rune(units[start+i])
		want := rune(u)
		if !runeEq(got, want, ignoreCase) {
			return 0, false
		}
	}
	return start, true
}
