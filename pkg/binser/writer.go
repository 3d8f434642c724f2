package binser

import (
	"fmt"
	"io"
	"math"
)

// Writer mirrors Reader for the write direction. The filter chain on write
// is the reverse of the read chain: caller byte -> checksum tap -> XOR ->
// raw byte, so checksums always observe the logical stream.
type Writer struct {
	s      WriteSeekCloser
	endian Endian
	pos    int64
	length int64

	xorStack      []XORCalculator
	checksumStack []ChecksumCalculator

	buf [8]byte
}

// NewWriter wraps a write stream positioned at its start.
func NewWriter(s WriteSeekCloser, endian Endian) (*Writer, error) {
	length, err := s.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to measure stream: %w", err)
	}
	if _, err := s.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to rewind stream: %w", err)
	}
	return &Writer{s: s, endian: endian, length: length}, nil
}

// Endianness returns the active byte order.
func (w *Writer) Endianness() Endian { return w.endian }

// SetEndianness changes the active byte order.
func (w *Writer) SetEndianness(e Endian) { w.endian = e }

// Position returns the current stream offset.
func (w *Writer) Position() int64 { return w.pos }

// Length returns the highest offset written so far, or the initial stream
// length if larger.
func (w *Writer) Length() int64 { return w.length }

// Seek moves the cursor to an absolute offset.
func (w *Writer) Seek(offset int64) error {
	if _, err := w.s.Seek(offset, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek to 0x%X: %w", offset, err)
	}
	w.pos = offset
	return nil
}

// Close flushes and releases the underlying stream.
func (w *Writer) Close() error { return w.s.Close() }

// BeginXOR pushes an XOR filter; EndXOR restores the previous one.
func (w *Writer) BeginXOR(c XORCalculator) { w.xorStack = append(w.xorStack, c) }

// EndXOR pops the innermost XOR filter.
func (w *Writer) EndXOR() {
	if n := len(w.xorStack); n > 0 {
		w.xorStack = w.xorStack[:n-1]
	}
}

// BeginChecksum pushes a checksum calculator fed with every logical byte.
func (w *Writer) BeginChecksum(c ChecksumCalculator) {
	w.checksumStack = append(w.checksumStack, c)
}

// EndChecksum pops the innermost checksum calculator and returns its value.
func (w *Writer) EndChecksum() uint64 {
	n := len(w.checksumStack)
	if n == 0 {
		return 0
	}
	c := w.checksumStack[n-1]
	w.checksumStack = w.checksumStack[:n-1]
	return c.Sum64()
}

func (w *Writer) activeXOR() XORCalculator {
	if n := len(w.xorStack); n > 0 {
		return w.xorStack[n-1]
	}
	return nil
}

func (w *Writer) activeChecksum() ChecksumCalculator {
	if n := len(w.checksumStack); n > 0 {
		return w.checksumStack[n-1]
	}
	return nil
}

// WriteFull writes p through the filter chain. p itself is not modified.
func (w *Writer) WriteFull(p []byte) error {
	if cs := w.activeChecksum(); cs != nil {
		cs.ProcessBytes(p)
	}
	if xor := w.activeXOR(); xor != nil {
		masked := make([]byte, len(p))
		for i, b := range p {
			masked[i] = xor.XORByte(b)
		}
		p = masked
	}
	if _, err := w.s.Write(p); err != nil {
		return fmt.Errorf("write failed at 0x%X: %w", w.pos, err)
	}
	w.pos += int64(len(p))
	if w.pos > w.length {
		w.length = w.pos
	}
	return nil
}

// WriteByte writes a single byte through the filter chain.
func (w *Writer) WriteByte(b byte) error {
	w.buf[0] = b
	return w.WriteFull(w.buf[:1])
}

// WriteUint8 writes an unsigned byte.
func (w *Writer) WriteUint8(v uint8) error { return w.WriteByte(v) }

// WriteInt8 writes a signed byte.
func (w *Writer) WriteInt8(v int8) error { return w.WriteByte(byte(v)) }

// WriteUint16 writes a 16-bit unsigned integer in the active byte order.
func (w *Writer) WriteUint16(v uint16) error {
	w.endian.ByteOrder().PutUint16(w.buf[:2], v)
	return w.WriteFull(w.buf[:2])
}

// WriteInt16 writes a 16-bit signed integer.
func (w *Writer) WriteInt16(v int16) error { return w.WriteUint16(uint16(v)) }

// WriteUint24 writes the low 24 bits of v in the active byte order.
func (w *Writer) WriteUint24(v uint32) error {
	if w.endian == BigEndian {
		w.buf[0] = byte(v >> 16)
		w.buf[1] = byte(v >> 8)
		w.buf[2] = byte(v)
	} else {
		w.buf[0] = byte(v)
		w.buf[1] = byte(v >> 8)
		w.buf[2] = byte(v >> 16)
	}
	return w.WriteFull(w.buf[:3])
}

// WriteInt24 writes the low 24 bits of a signed integer.
func (w *Writer) WriteInt24(v int32) error { return w.WriteUint24(uint32(v) & 0xFFFFFF) }

// WriteUint32 writes a 32-bit unsigned integer in the active byte order.
func (w *Writer) WriteUint32(v uint32) error {
	w.endian.ByteOrder().PutUint32(w.buf[:4], v)
	return w.WriteFull(w.buf[:4])
}

// WriteInt32 writes a 32-bit signed integer.
func (w *Writer) WriteInt32(v int32) error { return w.WriteUint32(uint32(v)) }

// WriteUint64 writes a 64-bit unsigned integer in the active byte order.
func (w *Writer) WriteUint64(v uint64) error {
	w.endian.ByteOrder().PutUint64(w.buf[:8], v)
	return w.WriteFull(w.buf[:8])
}

// WriteInt64 writes a 64-bit signed integer.
func (w *Writer) WriteInt64(v int64) error { return w.WriteUint64(uint64(v)) }

// WriteFloat32 writes an IEEE 754 single-precision float.
func (w *Writer) WriteFloat32(v float32) error { return w.WriteUint32(math.Float32bits(v)) }

// WriteFloat64 writes an IEEE 754 double-precision float.
func (w *Writer) WriteFloat64(v float64) error { return w.WriteUint64(math.Float64bits(v)) }

// WriteNullTerminatedString encodes s with enc and appends the terminator.
func (w *Writer) WriteNullTerminatedString(s string, enc TextEncoding) error {
	raw, err := enc.encode(s)
	if err != nil {
		return err
	}
	if err := w.WriteFull(raw); err != nil {
		return err
	}
	width := enc.UnitWidth
	if width <= 0 {
		width = 1
	}
	return w.WriteFull(make([]byte, width))
}

// WriteString encodes s with enc into a fixed-length field, zero-padding or
// truncating to length bytes.
func (w *Writer) WriteString(s string, length int64, enc TextEncoding) error {
	raw, err := enc.encode(s)
	if err != nil {
		return err
	}
	field := make([]byte, length)
	copy(field, raw)
	return w.WriteFull(field)
}
