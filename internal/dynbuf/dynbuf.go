// Package dynbuf implements a small growable byte buffer with explicit
// little- and big-endian fixed-width writers, the shared primitive behind
// lang/regexp's little-endian bytecode emitter and lang/bytecode's
// big-endian one (spec §6 names both codecs). The teacher's own assembler
// (lang/compiler/asm.go) pairs a bytes.Buffer with ad-hoc encoding/binary
// calls at each call site; bytes.Buffer itself has no endian-aware
// operand writers, so each emitter used to repeat that pairing locally.
// This package centralises it into one growable-slice type both emitters
// can share.
package dynbuf

import "encoding/binary"

// Buffer is a growable byte slice, append-based like bytes.Buffer, plus
// fixed-width endian-aware Put helpers for emitting instruction operands.
// The zero value is ready to use.
type Buffer struct {
	data []byte
}

// New returns an empty Buffer with cap pre-allocated, avoiding repeated
// reallocation during a long emission run (an instruction stream or regex
// program body).
func New(capacity int) *Buffer {
	return &Buffer{data: make([]byte, 0, capacity)}
}

// Len returns the number of bytes written so far.
func (b *Buffer) Len() int { return len(b.data) }

// Bytes returns the buffer's contents. The slice aliases the Buffer's
// internal storage and is invalidated by the next write.
func (b *Buffer) Bytes() []byte { return b.data }

// Reset empties the buffer without releasing its backing array.
func (b *Buffer) Reset() { b.data = b.data[:0] }

// Grow ensures at least n more bytes can be appended without reallocating.
func (b *Buffer) Grow(n int) {
	if cap(b.data)-len(b.data) >= n {
		return
	}
	grown := make([]byte, len(b.data), len(b.data)+n)
	copy(grown, b.data)
	b.data = grown
}

// WriteByte appends a single byte (usually an opcode).
func (b *Buffer) WriteByte(c byte) {
	b.data = append(b.data, c)
}

// Write appends p verbatim, implementing io.Writer.
func (b *Buffer) Write(p []byte) (int, error) {
	b.data = append(b.data, p...)
	return len(p), nil
}

// PutUint16LE appends v as a 2-byte little-endian operand (lang/regexp's
// wire format, e.g. SAVE_START/SAVE_END's group index).
func (b *Buffer) PutUint16LE(v uint16) {
	var tmp [2]byte
	binary.LittleEndian.PutUint16(tmp[:], v)
	b.data = append(b.data, tmp[:]...)
}

// PutUint32LE appends v as a 4-byte little-endian operand (lang/regexp's
// jump-offset and char-class-index operands).
func (b *Buffer) PutUint32LE(v uint32) {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	b.data = append(b.data, tmp[:]...)
}

// PutInt32LE appends v as a signed 4-byte little-endian operand (regexp
// relative jump offsets, which may be negative for backward GOTOs).
func (b *Buffer) PutInt32LE(v int32) {
	b.PutUint32LE(uint32(v))
}

// PutUint32BE appends v as a 4-byte big-endian operand (lang/bytecode's
// wire format, spec §6 "immediates follow in big-endian order").
func (b *Buffer) PutUint32BE(v uint32) {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	b.data = append(b.data, tmp[:]...)
}

// PutUint32BEAt overwrites the 4 bytes at offset off with v in big-endian
// order. Neither emitter (lang/bytecode, lang/regexp) calls it: both write
// every operand in final form as the instruction is appended.
func (b *Buffer) PutUint32BEAt(off int, v uint32) {
	binary.BigEndian.PutUint32(b.data[off:off+4], v)
}

// PutUint32LEAt is PutUint32BEAt's little-endian counterpart; like it, it is
// not called by either emitter.
func (b *Buffer) PutUint32LEAt(off int, v uint32) {
	binary.LittleEndian.PutUint32(b.data[off:off+4], v)
}
