package binser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Writing bit fields and reading them back with the same widths returns the
// same values.
func TestBitFieldDuality(t *testing.T) {
	ctx, fs, _ := newTestContext(t, nil)
	out := addLinearFile(t, ctx, "bits.bin")

	s := ctx.Serializer()
	s.Goto(out.StartPointer())
	s.DoBits32(func(b *BitFields) {
		b.Bits(0b101, 3, "mode")
		b.Bits(0b10110, 5, "flags")
		b.Bits(0xC3, 8, "id")
		b.Bits(0xBEEF, 16, "tag")
	})
	s.DoBits8(func(b *BitFields) {
		b.Bits(1, 1, "on")
		b.Bits(0x3F, 7, "level")
	})
	require.NoError(t, s.Err())
	require.NoError(t, out.Close())

	rctx, _, _ := newTestContext(t, map[string][]byte{"bits.bin": readBack(t, fs, "bits.bin")})
	in := addLinearFile(t, rctx, "bits.bin")
	d := rctx.Deserializer()
	d.Goto(in.StartPointer())
	d.DoBits32(func(b *BitFields) {
		assert.Equal(t, uint64(0b101), b.Bits(0, 3, "mode"))
		assert.Equal(t, uint64(0b10110), b.Bits(0, 5, "flags"))
		assert.Equal(t, uint64(0xC3), b.Bits(0, 8, "id"))
		assert.Equal(t, uint64(0xBEEF), b.Bits(0, 16, "tag"))
	})
	d.DoBits8(func(b *BitFields) {
		assert.Equal(t, uint64(1), b.Bits(0, 1, "on"))
		assert.Equal(t, uint64(0x3F), b.Bits(0, 7, "level"))
	})
	require.NoError(t, d.Err())
}

// Bit packing is LSB-first: the first declared field occupies the lowest
// bits.
func TestBitFieldsPackLSBFirst(t *testing.T) {
	ctx, fs, _ := newTestContext(t, nil)
	out := addLinearFile(t, ctx, "bits.bin")

	s := ctx.Serializer()
	s.Goto(out.StartPointer())
	s.DoBits16(func(b *BitFields) {
		b.Bits(0x3, 4, "low nibble")
		b.Bits(0xA, 4, "high nibble")
		b.Bits(0xFF, 8, "top byte")
	})
	require.NoError(t, s.Err())
	require.NoError(t, out.Close())

	raw := readBack(t, fs, "bits.bin")
	assert.Equal(t, []byte{0xA3, 0xFF}, raw)
}

func TestBitFieldOverflowFails(t *testing.T) {
	ctx, _, _ := newTestContext(t, map[string][]byte{"bits.bin": {0xFF}})
	in := addLinearFile(t, ctx, "bits.bin")

	s := ctx.Deserializer()
	s.Goto(in.StartPointer())
	s.DoBits8(func(b *BitFields) {
		b.Bits(0, 6, "a")
		assert.Equal(t, 2, b.Remaining())
		b.Bits(0, 4, "does not fit")
	})
	assert.Error(t, s.Err())
}

// Values wider than the declared field are truncated to the field width.
func TestBitFieldTruncation(t *testing.T) {
	ctx, fs, _ := newTestContext(t, nil)
	out := addLinearFile(t, ctx, "bits.bin")

	s := ctx.Serializer()
	s.Goto(out.StartPointer())
	s.DoBits8(func(b *BitFields) {
		assert.Equal(t, uint64(0x5), b.Bits(0xF5, 4, "truncated"))
		b.Bits(0, 4, "rest")
	})
	require.NoError(t, s.Err())
	require.NoError(t, out.Close())

	assert.Equal(t, []byte{0x05}, readBack(t, fs, "bits.bin"))
}
