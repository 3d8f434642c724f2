package binser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evilarceus/go-binserializer/pkg/checksum"
	"github.com/evilarceus/go-binserializer/pkg/xorenc"
)

// Scenario: bytes written under an XOR scope land masked on disk and read
// back clean under the same scope.
func TestXORScopeMasksRawBytes(t *testing.T) {
	ctx, fs, _ := newTestContext(t, nil)
	out := addLinearFile(t, ctx, "masked.bin")

	s := ctx.Serializer()
	s.Goto(out.StartPointer())
	s.BeginXOR(xorenc.NewKey8(0x5A))
	s.Bytes([]byte{0, 1, 2}, 3, "payload")
	s.EndXOR()
	require.NoError(t, s.Err())
	require.NoError(t, out.Close())

	assert.Equal(t, []byte{0x5A, 0x5B, 0x58}, readBack(t, fs, "masked.bin"))

	rctx, _, _ := newTestContext(t, map[string][]byte{"masked.bin": {0x5A, 0x5B, 0x58}})
	in := addLinearFile(t, rctx, "masked.bin")
	d := rctx.Deserializer()
	d.Goto(in.StartPointer())
	d.BeginXOR(xorenc.NewKey8(0x5A))
	assert.Equal(t, []byte{0, 1, 2}, d.Bytes(nil, 3, "payload"))
	d.EndXOR()
	require.NoError(t, d.Err())
}

func TestNestedXORScopesRestore(t *testing.T) {
	ctx, fs, _ := newTestContext(t, nil)
	out := addLinearFile(t, ctx, "nested.bin")

	s := ctx.Serializer()
	s.Goto(out.StartPointer())
	s.BeginXOR(xorenc.NewKey8(0x0F))
	s.UInt8(0x00, "outer")
	s.BeginXOR(xorenc.NewKey8(0xF0))
	s.UInt8(0x00, "inner")
	s.EndXOR()
	s.UInt8(0x00, "outer again")
	s.EndXOR()
	require.NoError(t, s.Err())
	require.NoError(t, out.Close())

	assert.Equal(t, []byte{0x0F, 0xF0, 0x0F}, readBack(t, fs, "nested.bin"))
}

// The checksum tap observes the logical byte stream on both directions,
// regardless of the XOR mask outside it.
func TestChecksumTapObservesLogicalBytes(t *testing.T) {
	payload := []byte{1, 2, 3, 4}

	ctx, fs, _ := newTestContext(t, nil)
	out := addLinearFile(t, ctx, "summed.bin")
	s := ctx.Serializer()
	s.Goto(out.StartPointer())
	s.BeginXOR(xorenc.NewKey8(0x77))
	s.BeginChecksum(checksum.NewAdditive16())
	s.Bytes(payload, 4, "payload")
	writeSum := s.EndChecksum()
	s.EndXOR()
	require.NoError(t, s.Err())
	require.NoError(t, out.Close())
	assert.Equal(t, uint64(1+2+3+4), writeSum)

	rctx, _, _ := newTestContext(t, map[string][]byte{"summed.bin": readBack(t, fs, "summed.bin")})
	in := addLinearFile(t, rctx, "summed.bin")
	d := rctx.Deserializer()
	d.Goto(in.StartPointer())
	d.BeginXOR(xorenc.NewKey8(0x77))
	d.BeginChecksum(checksum.NewAdditive16())
	d.Bytes(nil, 4, "payload")
	readSum := d.EndChecksum()
	d.EndXOR()
	require.NoError(t, d.Err())
	assert.Equal(t, writeSum, readSum)
}

// A stored checksum that does not match warns but still returns the stored
// value.
func TestChecksumFieldMismatchWarns(t *testing.T) {
	data := []byte{0x34, 0x12, 0, 0}
	ctx, _, hook := newTestContext(t, map[string][]byte{"sum.bin": data})
	f := addLinearFile(t, ctx, "sum.bin")

	s := ctx.Deserializer()
	s.Goto(f.StartPointer())
	stored := s.ChecksumUInt16(0x9999, "crc")
	require.NoError(t, s.Err())
	assert.Equal(t, uint16(0x1234), stored)
	require.NotNil(t, hook.LastEntry())
	assert.Contains(t, hook.LastEntry().Message, "checksum mismatch")
}

func TestMalformedBoolWarns(t *testing.T) {
	ctx, _, hook := newTestContext(t, map[string][]byte{"b.bin": {0x07}})
	f := addLinearFile(t, ctx, "b.bin")

	s := ctx.Deserializer()
	s.Goto(f.StartPointer())
	v := s.Bool(false, "flag")
	require.NoError(t, s.Err())
	assert.True(t, v, "nonzero bytes read as true")
	require.NotNil(t, hook.LastEntry())
	assert.Contains(t, hook.LastEntry().Message, "malformed bool")
}
