package binser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDuplicateFileRegistration(t *testing.T) {
	ctx, _, _ := newTestContext(t, map[string][]byte{"a.bin": make([]byte, 4)})
	addLinearFile(t, ctx, "a.bin")

	err := ctx.AddFile(NewLinearFile(ctx, "a.bin"))
	assert.ErrorIs(t, err, ErrDuplicateFile)
}

func TestFileLookupByAlias(t *testing.T) {
	ctx, _, _ := newTestContext(t, map[string][]byte{"deep/rom.gba": make([]byte, 4)})
	f := NewLinearFile(ctx, "deep/rom.gba", WithAlias("ROM"))
	require.NoError(t, ctx.AddFile(f))

	got, err := ctx.File("ROM")
	require.NoError(t, err)
	assert.Same(t, any(BinaryFile(f)), any(got))

	_, err = ctx.File("nope.bin")
	assert.ErrorIs(t, err, ErrUnknownFile)
}

func TestRemoveFileDropsFromMemoryMap(t *testing.T) {
	ctx, _, _ := newTestContext(t, map[string][]byte{"mm.bin": make([]byte, 0x10)})
	f := NewMemoryMappedFile(ctx, "mm.bin", 0x8000)
	require.NoError(t, ctx.AddFile(f))
	require.NotNil(t, ctx.MemoryMap().FileForAddress(0x8004))

	require.NoError(t, ctx.RemoveFile(f))
	assert.Nil(t, ctx.MemoryMap().FileForAddress(0x8004))
	_, err := ctx.File("mm.bin")
	assert.ErrorIs(t, err, ErrUnknownFile)
}

func TestNormalizePath(t *testing.T) {
	ctx, _, _ := newTestContext(t, nil)
	assert.Equal(t, "dir/file.bin", ctx.NormalizePath("dir//file.bin"))
	assert.Equal(t, "file.bin", ctx.NormalizePath("./file.bin"))
}

func TestContextCloseIsIdempotent(t *testing.T) {
	ctx, _, _ := newTestContext(t, map[string][]byte{"a.bin": make([]byte, 4)})
	addLinearFile(t, ctx, "a.bin")
	require.NoError(t, ctx.Close())
	require.NoError(t, ctx.Close())
}

func TestSavePointersToMemoryMap(t *testing.T) {
	ctx, _, _ := newTestContext(t, nil)
	out := NewLinearFile(ctx, "out.bin", WithSavePointersToMemoryMap())
	require.NoError(t, ctx.AddFile(out))

	s := ctx.Serializer()
	s.Goto(out.StartPointer())
	s.UInt32(0, "header")
	target := NewPointer(0, out)
	s.Pointer(target, "self")
	require.NoError(t, s.Err())

	ptrs := ctx.MemoryMap().Pointers()
	require.Len(t, ptrs, 1)
	assert.True(t, ptrs[0].Equals(target))
}

func TestSettingsDefaults(t *testing.T) {
	s := DefaultSettings()
	assert.Equal(t, LittleEndian, s.DefaultEndian)
	assert.Equal(t, UTF8.Name, s.DefaultEncoding.Name)
	assert.True(t, s.BackupFiles)
	assert.False(t, s.Log)
}

func TestLoadSettingsWithoutConfigFile(t *testing.T) {
	s, err := LoadSettings()
	require.NoError(t, err)
	assert.Equal(t, LittleEndian, s.DefaultEndian)
	assert.Equal(t, UTF8.Name, s.DefaultEncoding.Name)
}
