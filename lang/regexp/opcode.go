// Package regexp implements Components B and C of the engine (spec §4.2,
// §4.3): a pattern compiler that lowers ECMAScript regular-expression
// syntax to a compact bytecode, and a backtracking interpreter that runs
// it. Structurally this package mirrors the shape of lang/bytecode +
// lang/machine (an opcode table plus a byte-oriented instruction stream,
// compiled by one package and interpreted by another) since the spec
// itself describes the regex core as "lowers ... to a compact bytecode"
// executed by "a backtracking executor" — the same compiler/VM split the
// teacher uses for the language's own bytecode, just with a different,
// much smaller opcode set (spec §4.2's 45 opcodes instead of the VM's
// ~260). other_examples/coregx-coregex is a DFA/NFA multi-strategy engine
// with a fundamentally different architecture (lazy DFA, prefilters,
// Aho-Corasick) that does not fit a single bytecode interpreter, so it is
// not the grounding source here beyond naming ideas (SubexpNames,
// NumCaptures) borrowed for this package's public accessors — see
// DESIGN.md.
package regexp

import "fmt"

// Opcode is one regexp-bytecode instruction (spec §3.2 "Opcode table").
type Opcode byte

const (
	opInvalid Opcode = iota

	CHAR     // CHAR<u16 c>            match code unit c exactly
	CHAR_I   // CHAR_I<u16 c>          match c case-insensitively
	CHAR32   // CHAR32<u32 c>          match code point c exactly
	CHAR32_I // CHAR32_I<u32 c>        match c case-insensitively
	DOT      // any code point except line terminators
	ANY      // any code point at all

	LINE_START   // ^ without multiline
	LINE_START_M // ^ with multiline: also after a line terminator
	LINE_END     // $ without multiline
	LINE_END_M   // $ with multiline: also before a line terminator

	GOTO             // GOTO<i32 rel>                unconditional relative jump
	SPLIT_GOTO_FIRST // SPLIT_GOTO_FIRST<i32 rel>    lazy quantifiers: try jump target first, fall through second
	SPLIT_NEXT_FIRST // SPLIT_NEXT_FIRST<i32 rel>    greedy quantifiers, alternation: try fall-through first, jump target second

	MATCH // overall pattern / sub-bytecode match success

	LOOKAHEAD                  // LOOKAHEAD<u32 len>
	LOOKAHEAD_MATCH            //
	NEGATIVE_LOOKAHEAD         // NEGATIVE_LOOKAHEAD<u32 len>
	NEGATIVE_LOOKAHEAD_MATCH   //
	LOOKBEHIND                 // LOOKBEHIND<u32 len>
	LOOKBEHIND_MATCH           //
	NEGATIVE_LOOKBEHIND        // NEGATIVE_LOOKBEHIND<u32 len>
	NEGATIVE_LOOKBEHIND_MATCH  //

	SAVE_START // SAVE_START<u16 group>   captures[group].start = cursor
	SAVE_END   // SAVE_END<u16 group>     captures[group].end = cursor
	SAVE_RESET // SAVE_RESET<u16 from><u16 to>  reset a capture range to unset (disjunction re-entry)

	RANGE      // RANGE<u16 size><u16 n>(u32 lo,u32 hi)*
	RANGE_I    // same, case-insensitive
	RANGE32    // same payload, present for parity with spec's 32-bit variant name
	RANGE32_I  //
	NOT_RANGE  // complement of RANGE
	NOT_RANGE_I

	BACK_REFERENCE            // BACK_REFERENCE<u16 group>
	BACK_REFERENCE_I          //
	BACKWARD_BACK_REFERENCE   // matches the group scanning backward (lookbehind bodies)
	BACKWARD_BACK_REFERENCE_I //

	WORD_BOUNDARY     // \b
	WORD_BOUNDARY_I   //
	NOT_WORD_BOUNDARY // \B
	NOT_WORD_BOUNDARY_I

	SET_CHAR_POS  // SET_CHAR_POS<u8 reg>     registers[reg] = cursor
	CHECK_ADVANCE // CHECK_ADVANCE<u8 reg>    fail if cursor == registers[reg]
	PREV          // step cursor back one code point (lookbehind body entry)
	SET_I32       // SET_I32<u8 reg><i32 v>   registers[reg] = v (bounded-repeat counters)

	LOOP                  // LOOP<u8 reg><i32 rel>            reg--; jump if reg != 0
	LOOP_SPLIT_GOTO_FIRST // greedy bounded-repeat continuation test
	LOOP_SPLIT_NEXT_FIRST // lazy bounded-repeat continuation test

	opcodeMax
)

var opcodeNames = [...]string{
	CHAR: "char", CHAR_I: "char_i", CHAR32: "char32", CHAR32_I: "char32_i",
	DOT: "dot", ANY: "any",
	LINE_START: "line_start", LINE_START_M: "line_start_m",
	LINE_END: "line_end", LINE_END_M: "line_end_m",
	GOTO: "goto", SPLIT_GOTO_FIRST: "split_goto_first", SPLIT_NEXT_FIRST: "split_next_first",
	MATCH: "match",
	LOOKAHEAD: "lookahead", LOOKAHEAD_MATCH: "lookahead_match",
	NEGATIVE_LOOKAHEAD: "negative_lookahead", NEGATIVE_LOOKAHEAD_MATCH: "negative_lookahead_match",
	LOOKBEHIND: "lookbehind", LOOKBEHIND_MATCH: "lookbehind_match",
	NEGATIVE_LOOKBEHIND: "negative_lookbehind", NEGATIVE_LOOKBEHIND_MATCH: "negative_lookbehind_match",
	SAVE_START: "save_start", SAVE_END: "save_end", SAVE_RESET: "save_reset",
	RANGE: "range", RANGE_I: "range_i", RANGE32: "range32", RANGE32_I: "range32_i",
	NOT_RANGE: "not_range", NOT_RANGE_I: "not_range_i",
	BACK_REFERENCE: "back_reference", BACK_REFERENCE_I: "back_reference_i",
	BACKWARD_BACK_REFERENCE: "backward_back_reference", BACKWARD_BACK_REFERENCE_I: "backward_back_reference_i",
	WORD_BOUNDARY: "word_boundary", WORD_BOUNDARY_I: "word_boundary_i",
	NOT_WORD_BOUNDARY: "not_word_boundary", NOT_WORD_BOUNDARY_I: "not_word_boundary_i",
	SET_CHAR_POS: "set_char_pos", CHECK_ADVANCE: "check_advance", PREV: "prev", SET_I32: "set_i32",
	LOOP: "loop", LOOP_SPLIT_GOTO_FIRST: "loop_split_goto_first", LOOP_SPLIT_NEXT_FIRST: "loop_split_next_first",
}

func (op Opcode) String() string {
	if int(op) < len(opcodeNames) && opcodeNames[op] != "" {
		return opcodeNames[op]
	}
	return fmt.Sprintf("illegal regexp op (%d)", op)
}

// canRepeatWithoutAdvancing reports whether op, by itself, can match
// without moving the cursor -- the quantifier compiler (spec §4.2
// "Quantifiers") inserts a SET_CHAR_POS/CHECK_ADVANCE guard around a
// repeated atom exactly when the atom's opcodes are all drawn from this
// set, to break infinite loops on zero-width matches.
func canRepeatWithoutAdvancing(ops []Opcode) bool {
	for _, op := range ops {
		switch op {
		case LINE_START, LINE_START_M, LINE_END, LINE_END_M,
			LOOKAHEAD, LOOKAHEAD_MATCH, NEGATIVE_LOOKAHEAD, NEGATIVE_LOOKAHEAD_MATCH,
			LOOKBEHIND, LOOKBEHIND_MATCH, NEGATIVE_LOOKBEHIND, NEGATIVE_LOOKBEHIND_MATCH,
			WORD_BOUNDARY, WORD_BOUNDARY_I, NOT_WORD_BOUNDARY, NOT_WORD_BOUNDARY_I,
			SAVE_START, SAVE_END, SAVE_RESET, GOTO, SPLIT_GOTO_FIRST, SPLIT_NEXT_FIRST:
			continue
		default:
			return false
		}
	}
	return true
}
