package binser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// DoAt returns the cursor to exactly the pre-scope position and file.
func TestDoAtRestoresPositionAndFile(t *testing.T) {
	ctx, _, _ := newTestContext(t, map[string][]byte{
		"a.bin": make([]byte, 0x40),
		"b.bin": make([]byte, 0x40),
	})
	a := addLinearFile(t, ctx, "a.bin")
	b := addLinearFile(t, ctx, "b.bin")

	s := ctx.Deserializer()
	s.Goto(a.StartPointer().Add(8))
	before := s.CurrentPointer()

	s.DoAt(NewPointer(0x10, b), func() {
		assert.Same(t, any(BinaryFile(b)), any(s.CurrentFile()))
		s.UInt32(0, "inner")
	})
	require.NoError(t, s.Err())
	assert.True(t, before.Equals(s.CurrentPointer()))
	assert.Same(t, any(BinaryFile(a)), any(s.CurrentFile()))
}

func TestDoAtNullPointerSkipsBody(t *testing.T) {
	ctx, _, _ := newTestContext(t, map[string][]byte{"a.bin": make([]byte, 8)})
	addLinearFile(t, ctx, "a.bin")

	s := ctx.Deserializer()
	ran := false
	s.DoAt(Pointer{}, func() { ran = true })
	assert.False(t, ran)
}

// The endianness flag is restored even when the body fails.
func TestDoEndianRestoresOnFailure(t *testing.T) {
	ctx, _, _ := newTestContext(t, map[string][]byte{"a.bin": make([]byte, 4)})
	a := addLinearFile(t, ctx, "a.bin")

	s := ctx.Deserializer()
	s.Goto(a.StartPointer())
	r := a.base().reader

	s.DoEndian(BigEndian, func() {
		assert.Equal(t, BigEndian, r.Endianness())
		s.UInt64(0, "past the end")
	})
	assert.ErrorIs(t, s.Err(), ErrEndOfInput)
	assert.Equal(t, LittleEndian, r.Endianness())
}

func TestAlign(t *testing.T) {
	ctx, _, _ := newTestContext(t, map[string][]byte{"a.bin": make([]byte, 0x20)})
	a := addLinearFile(t, ctx, "a.bin")

	s := ctx.Deserializer()
	s.Goto(a.StartPointer())
	s.UInt8(0, "one byte")
	s.Align(4, a.StartPointer())
	assert.Equal(t, int64(4), s.CurrentPointer().FileOffset())

	s.Align(4, a.StartPointer())
	assert.Equal(t, int64(4), s.CurrentPointer().FileOffset(), "aligned position is stable")
}

func TestStickyErrorShortCircuits(t *testing.T) {
	ctx, _, _ := newTestContext(t, map[string][]byte{"a.bin": {1, 2}})
	a := addLinearFile(t, ctx, "a.bin")

	s := ctx.Deserializer()
	s.Goto(a.StartPointer())
	s.UInt64(0, "fails")
	require.Error(t, s.Err())

	// Later operations keep the passed-in value and do not clear the error.
	assert.Equal(t, uint8(42), s.UInt8(42, "after error"))
	assert.Error(t, s.Err())
}

func TestOperationsAfterContextCloseFail(t *testing.T) {
	ctx, _, _ := newTestContext(t, map[string][]byte{"a.bin": make([]byte, 8)})
	a := addLinearFile(t, ctx, "a.bin")
	require.NoError(t, ctx.Close())

	s := ctx.Deserializer()
	s.Goto(a.StartPointer())
	assert.ErrorIs(t, s.Err(), ErrDisposed)

	err := ctx.AddFile(NewLinearFile(ctx, "b.bin"))
	assert.ErrorIs(t, err, ErrDisposed)
}
