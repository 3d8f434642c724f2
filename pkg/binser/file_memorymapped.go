package binser

import "io"

// MemoryMappedFile is an on-disk file placed at a non-zero base address. It
// participates in cross-file pointer resolution: pointer values read from it
// are looked up across every memory-mapped file in the context, highest
// priority first.
type MemoryMappedFile struct {
	baseFile
}

// NewMemoryMappedFile builds a memory-mapped file at the given base address.
func NewMemoryMappedFile(ctx *Context, path string, baseAddress uint64, opts ...FileOption) *MemoryMappedFile {
	f := &MemoryMappedFile{}
	initBaseFile(&f.baseFile, f, ctx, path, opts...)
	f.baseAddress = baseAddress
	f.memoryMapped = true
	return f
}

// WithMemoryMapPriority orders this file in pointer resolution; higher wins.
func WithMemoryMapPriority(priority int) FileOption {
	return func(b *baseFile) { b.mmPriority = priority }
}

func (f *MemoryMappedFile) CreateReadStream() (io.ReadSeekCloser, error) {
	return f.ctx.fm.GetReadStream(f.ctx.AbsoluteFilePath(f.path))
}

func (f *MemoryMappedFile) CreateWriteStream() (WriteSeekCloser, error) {
	return f.ctx.fm.GetWriteStream(f.ctx.AbsoluteFilePath(f.path), f.recreateOnWrite)
}

// GetPointerFile resolves through the context memory map.
func (f *MemoryMappedFile) GetPointerFile(serializedValue uint64, anchor *Pointer) BinaryFile {
	return f.resolveThroughMemoryMap(serializedValue, anchor)
}
