package binser

import (
	"io"
)

// memStream is a growable, seekable in-memory byte stream. It backs stream
// files, encoded-file write buffering and decoded scratch blocks.
type memStream struct {
	data []byte
	pos  int64
}

func newMemStream(data []byte) *memStream {
	return &memStream{data: data}
}

func (m *memStream) Read(p []byte) (int, error) {
	if m.pos >= int64(len(m.data)) {
		return 0, io.EOF
	}
	n := copy(p, m.data[m.pos:])
	m.pos += int64(n)
	return n, nil
}

func (m *memStream) Write(p []byte) (int, error) {
	end := m.pos + int64(len(p))
	if end > int64(len(m.data)) {
		grown := make([]byte, end)
		copy(grown, m.data)
		m.data = grown
	}
	copy(m.data[m.pos:end], p)
	m.pos = end
	return len(p), nil
}

func (m *memStream) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = m.pos + offset
	case io.SeekEnd:
		abs = int64(len(m.data)) + offset
	default:
		return 0, newErrf(nil, "invalid seek whence %d", whence)
	}
	if abs < 0 {
		return 0, newErrf(nil, "negative seek position %d", abs)
	}
	m.pos = abs
	return abs, nil
}

func (m *memStream) Close() error { return nil }

// Bytes returns the current contents of the stream.
func (m *memStream) Bytes() []byte { return m.data }

// Len returns the current length of the stream.
func (m *memStream) Len() int64 { return int64(len(m.data)) }
