package binser

import (
	"fmt"
	"io"
	"sort"
)

type fileState int

const (
	fileUnopened fileState = iota
	fileReading
	fileWriting
	fileClosed
)

// Region is a named address interval inside a file, relative to the start of
// the file's backing stream.
type Region struct {
	Offset int64
	Length int64
	Name   string
}

// BinaryFile is the identity of one addressable byte source inside a
// context: its backing stream factory, address range, endianness and pointer
// resolution behavior. Implementations are LinearFile, EncodedFile,
// MemoryMappedFile and StreamFile, all sharing the embedded base.
type BinaryFile interface {
	Context() *Context
	FilePath() string
	Alias() string
	// Key is the registry key: the alias if set, the normalized path
	// otherwise.
	Key() string

	Endianness() Endian
	BaseAddress() uint64
	StartPointer() Pointer
	Length() int64
	PointerSize() PointerSize
	IsMemoryMapped() bool
	MemoryMapPriority() int
	IgnoreCacheOnRead() bool
	SavePointersToMemoryMap() bool

	CreateReadStream() (io.ReadSeekCloser, error)
	CreateWriteStream() (WriteSeekCloser, error)

	// GetPointerFile resolves a serialized pointer value read from this
	// file to the file owning the target address, or nil if the value is
	// not a valid pointer.
	GetPointerFile(serializedValue uint64, anchor *Pointer) BinaryFile

	// AllowsInvalidPointer reports whether the specific unresolvable value
	// has been whitelisted for this file.
	AllowsInvalidPointer(serializedValue uint64, anchor *Pointer) bool

	AddOverridePointer(fileOffset int64, target Pointer)
	OverridePointer(fileOffset int64) (Pointer, bool)

	AddRegion(offset, length int64, name string)
	RegionAt(offset int64) (Region, bool)
	AddLabel(offset int64, label string)
	LabelAt(offset int64) (string, bool)

	// EnableReadMap turns on per-byte read coverage tracking.
	EnableReadMap()
	ReadMap() []bool
	// ExportReadMap writes the coverage map as a byte image, 0xFF for read
	// bytes and 0x00 otherwise.
	ExportReadMap(path string) error

	// Close releases the reader and commits and releases the writer.
	Close() error

	base() *baseFile
}

// baseFile carries the state shared by every file variant. The self field
// points back at the outer implementation so shared methods can hand out the
// interface value.
type baseFile struct {
	self BinaryFile
	ctx  *Context

	path  string
	alias string

	endian       Endian
	baseAddress  uint64
	pointerSize  PointerSize
	memoryMapped bool
	mmPriority   int

	ignoreCacheOnRead bool
	savePointersToMM  bool
	backupOnWrite     bool
	recreateOnWrite   bool

	length    int64
	hasLength bool

	regions   []Region
	labels    map[int64]string
	overrides map[int64]Pointer

	allowedInvalid map[uint64]bool

	readMapOn bool
	readMap   []bool

	state  fileState
	reader *Reader
	writer *Writer
}

func (b *baseFile) base() *baseFile { return b }

func (b *baseFile) Context() *Context { return b.ctx }

func (b *baseFile) FilePath() string { return b.path }

func (b *baseFile) Alias() string {
	if b.alias != "" {
		return b.alias
	}
	return b.path
}

func (b *baseFile) Key() string { return b.Alias() }

func (b *baseFile) Endianness() Endian { return b.endian }

func (b *baseFile) BaseAddress() uint64 { return b.baseAddress }

func (b *baseFile) StartPointer() Pointer { return NewPointer(b.baseAddress, b.self) }

func (b *baseFile) IsMemoryMapped() bool { return b.memoryMapped }

func (b *baseFile) MemoryMapPriority() int { return b.mmPriority }

func (b *baseFile) IgnoreCacheOnRead() bool { return b.ignoreCacheOnRead }

func (b *baseFile) SavePointersToMemoryMap() bool { return b.savePointersToMM }

// Length returns the file length, measuring the backing file lazily when it
// has not been opened yet.
func (b *baseFile) Length() int64 {
	if b.hasLength {
		return b.length
	}
	if b.writer != nil {
		return b.writer.Length()
	}
	if b.path != "" && b.ctx != nil {
		if n, err := b.ctx.fileSize(b.path); err == nil {
			b.setLength(n)
			return n
		}
	}
	return 0
}

func (b *baseFile) setLength(n int64) {
	b.length = n
	b.hasLength = true
}

// PointerSize returns the configured pointer width, deriving it from the
// address range when left on auto: files whose end address (base address
// plus length) fits in 32 bits use 32-bit pointers.
func (b *baseFile) PointerSize() PointerSize {
	if b.pointerSize != PointerSizeAuto {
		return b.pointerSize
	}
	if b.baseAddress+uint64(b.self.Length()) > 0xFFFFFFFF {
		return PointerSize64
	}
	return PointerSize32
}

// contains reports whether abs falls inside the file's address range. The
// end is inclusive so one-past-the-end pointers resolve.
func (b *baseFile) contains(abs uint64) bool {
	return abs >= b.baseAddress && abs <= b.baseAddress+uint64(b.self.Length())
}

// GetPointerFile is the non-memory-mapped default: the value must land in
// this file's own range.
func (b *baseFile) GetPointerFile(serializedValue uint64, anchor *Pointer) BinaryFile {
	abs := serializedValue + anchorOffset(anchor)
	if b.contains(abs) {
		return b.self
	}
	return nil
}

// resolveThroughMemoryMap picks the highest-priority memory-mapped file in
// the context whose range contains the target address.
func (b *baseFile) resolveThroughMemoryMap(serializedValue uint64, anchor *Pointer) BinaryFile {
	if b.ctx == nil {
		return nil
	}
	return b.ctx.MemoryMap().FileForAddress(serializedValue + anchorOffset(anchor))
}

func anchorOffset(anchor *Pointer) uint64 {
	if anchor == nil {
		return 0
	}
	return anchor.AbsoluteOffset()
}

// AllowInvalidPointerValue whitelists a specific unresolvable value so that
// reading it yields a null pointer instead of an error.
func (b *baseFile) AllowInvalidPointerValue(serializedValue uint64) {
	if b.allowedInvalid == nil {
		b.allowedInvalid = make(map[uint64]bool)
	}
	b.allowedInvalid[serializedValue] = true
}

func (b *baseFile) AllowsInvalidPointer(serializedValue uint64, _ *Pointer) bool {
	return b.allowedInvalid[serializedValue]
}

// AddOverridePointer replaces the computed target of the pointer stored at
// fileOffset with an explicit one.
func (b *baseFile) AddOverridePointer(fileOffset int64, target Pointer) {
	if b.overrides == nil {
		b.overrides = make(map[int64]Pointer)
	}
	b.overrides[fileOffset] = target
}

func (b *baseFile) OverridePointer(fileOffset int64) (Pointer, bool) {
	p, ok := b.overrides[fileOffset]
	return p, ok
}

// AddRegion records a named address interval, kept sorted by offset.
func (b *baseFile) AddRegion(offset, length int64, name string) {
	i := sort.Search(len(b.regions), func(i int) bool { return b.regions[i].Offset >= offset })
	b.regions = append(b.regions, Region{})
	copy(b.regions[i+1:], b.regions[i:])
	b.regions[i] = Region{Offset: offset, Length: length, Name: name}
}

// RegionAt binary-searches the region table for the interval containing
// offset.
func (b *baseFile) RegionAt(offset int64) (Region, bool) {
	i := sort.Search(len(b.regions), func(i int) bool { return b.regions[i].Offset > offset })
	if i == 0 {
		return Region{}, false
	}
	r := b.regions[i-1]
	if offset < r.Offset+r.Length {
		return r, true
	}
	return Region{}, false
}

func (b *baseFile) AddLabel(offset int64, label string) {
	if b.labels == nil {
		b.labels = make(map[int64]string)
	}
	b.labels[offset] = label
}

func (b *baseFile) LabelAt(offset int64) (string, bool) {
	l, ok := b.labels[offset]
	return l, ok
}

func (b *baseFile) EnableReadMap() { b.readMapOn = true }

func (b *baseFile) ReadMap() []bool { return b.readMap }

// initReadMap allocates the coverage map once the stream length is known.
func (b *baseFile) initReadMap(length int64) {
	if !b.readMapOn || b.readMap != nil || length <= 0 {
		return
	}
	b.readMap = make([]bool, length)
}

// markRead flags count bytes starting at offset as consumed.
func (b *baseFile) markRead(offset, count int64) {
	if b.readMap == nil {
		return
	}
	for i := offset; i < offset+count && i < int64(len(b.readMap)); i++ {
		if i >= 0 {
			b.readMap[i] = true
		}
	}
}

func (b *baseFile) ExportReadMap(path string) error {
	if b.readMap == nil {
		return newErrf(nil, "no read map recorded for %s", b.Alias())
	}
	img := make([]byte, len(b.readMap))
	for i, read := range b.readMap {
		if read {
			img[i] = 0xFF
		}
	}
	w, err := b.ctx.fm.GetWriteStream(path, true)
	if err != nil {
		return err
	}
	defer w.Close()
	if _, err := w.Write(img); err != nil {
		return fmt.Errorf("failed to export read map to %s: %w", path, err)
	}
	return nil
}

// Close releases the active reader and writer. Closing the writer commits
// pending output.
func (b *baseFile) Close() error {
	var firstErr error
	if b.reader != nil {
		if err := b.reader.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		b.reader = nil
	}
	if b.writer != nil {
		if err := b.writer.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		b.writer = nil
	}
	b.state = fileClosed
	return firstErr
}

// getReader lazily opens the file for reading.
func (b *baseFile) getReader() (*Reader, error) {
	if b.state == fileClosed {
		return nil, newErrf(ErrDisposed, "file %s", b.Alias())
	}
	if b.reader == nil {
		s, err := b.self.CreateReadStream()
		if err != nil {
			return nil, err
		}
		r, err := NewReader(s, b.endian)
		if err != nil {
			return nil, err
		}
		b.reader = r
		b.setLength(r.Length())
		b.initReadMap(r.Length())
		if b.state == fileUnopened {
			b.state = fileReading
		}
	}
	return b.reader, nil
}

// getWriter lazily opens the file for writing, taking a backup of the
// original first when the file is configured for it.
func (b *baseFile) getWriter() (*Writer, error) {
	if b.state == fileClosed {
		return nil, newErrf(ErrDisposed, "file %s", b.Alias())
	}
	if b.writer == nil {
		if b.backupOnWrite && b.path != "" {
			exists, err := b.ctx.fm.FileExists(b.path)
			if err == nil && exists {
				if err := b.ctx.fm.CopyFile(b.path, b.path+".bak"); err != nil {
					return nil, err
				}
			}
		}
		s, err := b.self.CreateWriteStream()
		if err != nil {
			return nil, err
		}
		w, err := NewWriter(s, b.endian)
		if err != nil {
			return nil, err
		}
		b.writer = w
		b.state = fileWriting
	}
	return b.writer, nil
}
