package binser

import "io"

// LinearFile is a plain on-disk file with base address 0. It does not
// participate in cross-file pointer resolution: pointers read from it must
// land inside the file itself.
type LinearFile struct {
	baseFile
}

// NewLinearFile builds a linear file over path, normalized against the
// context base path. The file still has to be registered with AddFile.
func NewLinearFile(ctx *Context, path string, opts ...FileOption) *LinearFile {
	f := &LinearFile{}
	initBaseFile(&f.baseFile, f, ctx, path, opts...)
	return f
}

func (f *LinearFile) CreateReadStream() (io.ReadSeekCloser, error) {
	return f.ctx.fm.GetReadStream(f.ctx.AbsoluteFilePath(f.path))
}

func (f *LinearFile) CreateWriteStream() (WriteSeekCloser, error) {
	return f.ctx.fm.GetWriteStream(f.ctx.AbsoluteFilePath(f.path), f.recreateOnWrite)
}

// initBaseFile wires the shared state for a file variant.
func initBaseFile(b *baseFile, self BinaryFile, ctx *Context, path string, opts ...FileOption) {
	b.self = self
	b.ctx = ctx
	b.path = ctx.NormalizePath(path)
	b.endian = ctx.Settings().DefaultEndian
	b.ignoreCacheOnRead = ctx.Settings().IgnoreCacheOnRead
	b.backupOnWrite = ctx.Settings().BackupFiles
	for _, opt := range opts {
		opt(b)
	}
}
