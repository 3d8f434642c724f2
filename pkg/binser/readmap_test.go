package binser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The coverage map flags exactly the bytes positioned under the cursor
// during reads.
func TestReadMapCoverage(t *testing.T) {
	ctx, _, _ := newTestContext(t, map[string][]byte{"rom.bin": make([]byte, 16)})
	f := addLinearFile(t, ctx, "rom.bin", WithReadMap())

	s := ctx.Deserializer()
	s.Goto(f.StartPointer())
	s.UInt32(0, "head")
	s.Goto(f.StartPointer().Add(8))
	s.UInt8(0, "lone byte")

	m := f.ReadMap()
	require.Len(t, m, 16)
	covered := 0
	for _, read := range m {
		if read {
			covered++
		}
	}
	assert.Equal(t, 5, covered)
	for i := 0; i < 4; i++ {
		assert.True(t, m[i], "byte %d", i)
	}
	assert.True(t, m[8])
	assert.False(t, m[4])
}

// Re-reading the same bytes does not inflate the distinct-byte count.
func TestReadMapDistinctBytes(t *testing.T) {
	ctx, _, _ := newTestContext(t, map[string][]byte{"rom.bin": make([]byte, 8)})
	f := addLinearFile(t, ctx, "rom.bin", WithReadMap())

	s := ctx.Deserializer()
	s.Goto(f.StartPointer())
	s.UInt16(0, "once")
	s.Goto(f.StartPointer())
	s.UInt16(0, "twice")

	covered := 0
	for _, read := range f.ReadMap() {
		if read {
			covered++
		}
	}
	assert.Equal(t, 2, covered)
}

// The exported image is 0xFF per read byte and 0x00 otherwise, with length
// equal to the file length.
func TestReadMapExport(t *testing.T) {
	ctx, fs, _ := newTestContext(t, map[string][]byte{"rom.bin": make([]byte, 8)})
	f := addLinearFile(t, ctx, "rom.bin", WithReadMap())

	s := ctx.Deserializer()
	s.Goto(f.StartPointer())
	s.UInt32(0, "head")
	require.NoError(t, f.ExportReadMap("rom.map"))

	img := readBack(t, fs, "rom.map")
	assert.Equal(t, []byte{0xFF, 0xFF, 0xFF, 0xFF, 0, 0, 0, 0}, img)
}

func TestReadMapDisabledByDefault(t *testing.T) {
	ctx, _, _ := newTestContext(t, map[string][]byte{"rom.bin": make([]byte, 8)})
	f := addLinearFile(t, ctx, "rom.bin")

	s := ctx.Deserializer()
	s.Goto(f.StartPointer())
	s.UInt32(0, "head")
	assert.Nil(t, f.ReadMap())
}
