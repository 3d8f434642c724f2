package binser

// FileOption configures a file at construction time.
type FileOption func(*baseFile)

// WithEndian sets the file's byte order. Files default to the context's
// default endianness.
func WithEndian(e Endian) FileOption {
	return func(b *baseFile) { b.endian = e }
}

// WithAlias registers the file under an alias instead of its path.
func WithAlias(alias string) FileOption {
	return func(b *baseFile) { b.alias = alias }
}

// WithPointerSize overrides the auto-derived pointer width.
func WithPointerSize(size PointerSize) FileOption {
	return func(b *baseFile) { b.pointerSize = size }
}

// WithIgnoreCacheOnRead makes Object always re-read instances from
// this file instead of returning cached ones.
func WithIgnoreCacheOnRead() FileOption {
	return func(b *baseFile) { b.ignoreCacheOnRead = true }
}

// WithSavePointersToMemoryMap records every pointer written to this file in
// the context memory map, for relocation workflows.
func WithSavePointersToMemoryMap() FileOption {
	return func(b *baseFile) { b.savePointersToMM = true }
}

// WithBackupOnWrite copies the original file to a sibling .bak path before
// the first write.
func WithBackupOnWrite() FileOption {
	return func(b *baseFile) { b.backupOnWrite = true }
}

// WithRecreateOnWrite truncates the target file when the writer is created
// instead of patching it in place.
func WithRecreateOnWrite() FileOption {
	return func(b *baseFile) { b.recreateOnWrite = true }
}

// WithReadMap enables byte-level read coverage tracking from the start.
func WithReadMap() FileOption {
	return func(b *baseFile) { b.readMapOn = true }
}
