package dynbuf_test

import (
	"testing"

	"github.com/mna/esquick/internal/dynbuf"
	"github.com/stretchr/testify/require"
)

func TestBufferGrowsAndWrites(t *testing.T) {
	var b dynbuf.Buffer
	b.WriteByte(0x01)
	b.Write([]byte{0x02, 0x03})
	require.Equal(t, 3, b.Len())
	require.Equal(t, []byte{0x01, 0x02, 0x03}, b.Bytes())
}

func TestBufferLittleEndian(t *testing.T) {
	var b dynbuf.Buffer
	b.PutUint16LE(0x0102)
	b.PutUint32LE(0x01020304)
	b.PutInt32LE(-1)
	require.Equal(t, []byte{0x02, 0x01, 0x04, 0x03, 0x02, 0x01, 0xff, 0xff, 0xff, 0xff}, b.Bytes())
}

func TestBufferBigEndian(t *testing.T) {
	var b dynbuf.Buffer
	b.PutUint32BE(0x01020304)
	require.Equal(t, []byte{0x01, 0x02, 0x03, 0x04}, b.Bytes())
}

func TestBufferPatchInPlace(t *testing.T) {
	var b dynbuf.Buffer
	b.PutUint32BE(0)
	b.WriteByte(0xaa)
	b.PutUint32BEAt(0, 0xdeadbeef)
	require.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef, 0xaa}, b.Bytes())

	var le dynbuf.Buffer
	le.PutUint32LE(0)
	le.PutUint32LEAt(0, 0x01020304)
	require.Equal(t, []byte{0x04, 0x03, 0x02, 0x01}, le.Bytes())
}

func TestBufferReset(t *testing.T) {
	var b dynbuf.Buffer
	b.Write([]byte{1, 2, 3})
	b.Reset()
	require.Equal(t, 0, b.Len())
	b.WriteByte(9)
	require.Equal(t, []byte{9}, b.Bytes())
}

func TestBufferGrowDoesNotTruncate(t *testing.T) {
	b := dynbuf.New(1)
	for i := 0; i < 100; i++ {
		b.WriteByte(byte(i))
	}
	require.Equal(t, 100, b.Len())
	for i := 0; i < 100; i++ {
		require.Equal(t, byte(i), b.Bytes()[i])
	}
}
