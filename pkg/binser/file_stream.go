package binser

import (
	"io"

	"github.com/google/uuid"
)

// StreamFile is a transient in-memory file, typically introduced by an
// encoded scope so pointers parsed inside the decoded block resolve against
// a real registered file.
type StreamFile struct {
	baseFile
	stream         *memStream
	allowLocalPtrs bool
}

// NewStreamFile builds an in-memory file over data. An empty name is
// replaced with a generated one. The file still has to be registered with
// AddFile.
func NewStreamFile(ctx *Context, name string, data []byte, opts ...FileOption) *StreamFile {
	if name == "" {
		name = "stream-" + uuid.NewString()
	}
	f := &StreamFile{stream: newMemStream(data)}
	initBaseFile(&f.baseFile, f, ctx, name, opts...)
	// Stream names are keys, not paths.
	f.path = name
	f.backupOnWrite = false
	f.setLength(int64(len(data)))
	return f
}

// WithLocalPointers makes pointer values inside the stream resolve against
// the stream itself instead of the context memory map.
func WithLocalPointers() FileOption {
	return func(b *baseFile) {
		if sf, ok := b.self.(*StreamFile); ok {
			sf.allowLocalPtrs = true
		}
	}
}

// Bytes returns the current stream contents.
func (f *StreamFile) Bytes() []byte { return f.stream.Bytes() }

func (f *StreamFile) CreateReadStream() (io.ReadSeekCloser, error) {
	if _, err := f.stream.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	return f.stream, nil
}

func (f *StreamFile) CreateWriteStream() (WriteSeekCloser, error) {
	if _, err := f.stream.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	return f.stream, nil
}

// Length reflects the live stream contents, which grow as the scope writes.
func (f *StreamFile) Length() int64 {
	if n := f.stream.Len(); n > f.length {
		f.setLength(n)
	}
	return f.length
}

// GetPointerFile treats values as local offsets when local pointers are
// allowed, and defers to the memory map otherwise.
func (f *StreamFile) GetPointerFile(serializedValue uint64, anchor *Pointer) BinaryFile {
	if f.allowLocalPtrs {
		if f.contains(serializedValue + anchorOffset(anchor)) {
			return f
		}
		return nil
	}
	return f.resolveThroughMemoryMap(serializedValue, anchor)
}
