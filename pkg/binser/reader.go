package binser

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
)

// Reader provides endian-aware binary primitives over a seekable stream,
// with an XOR filter and a checksum tap applied to every byte.
//
// The filter chain on read is: raw byte -> XOR -> checksum tap -> caller.
// Filters are stacked; only the innermost of each kind is active.
type Reader struct {
	s      io.ReadSeekCloser
	endian Endian
	pos    int64
	length int64

	xorStack      []XORCalculator
	checksumStack []ChecksumCalculator

	buf [8]byte
}

// NewReader wraps a stream. The length is captured once at construction.
func NewReader(s io.ReadSeekCloser, endian Endian) (*Reader, error) {
	length, err := s.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to measure stream: %w", err)
	}
	if _, err := s.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to rewind stream: %w", err)
	}
	return &Reader{s: s, endian: endian, length: length}, nil
}

// Endianness returns the active byte order.
func (r *Reader) Endianness() Endian { return r.endian }

// SetEndianness changes the active byte order.
func (r *Reader) SetEndianness(e Endian) { r.endian = e }

// Position returns the current stream offset.
func (r *Reader) Position() int64 { return r.pos }

// Length returns the stream length captured at construction.
func (r *Reader) Length() int64 { return r.length }

// Seek moves the cursor to an absolute offset.
func (r *Reader) Seek(offset int64) error {
	if _, err := r.s.Seek(offset, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek to 0x%X: %w", offset, err)
	}
	r.pos = offset
	return nil
}

// Close releases the underlying stream.
func (r *Reader) Close() error { return r.s.Close() }

// BeginXOR pushes an XOR filter. The previous filter, if any, is restored by
// the matching EndXOR.
func (r *Reader) BeginXOR(c XORCalculator) { r.xorStack = append(r.xorStack, c) }

// EndXOR pops the innermost XOR filter.
func (r *Reader) EndXOR() {
	if n := len(r.xorStack); n > 0 {
		r.xorStack = r.xorStack[:n-1]
	}
}

// BeginChecksum pushes a checksum calculator fed with every logical byte.
func (r *Reader) BeginChecksum(c ChecksumCalculator) {
	r.checksumStack = append(r.checksumStack, c)
}

// EndChecksum pops the innermost checksum calculator and returns its value.
func (r *Reader) EndChecksum() uint64 {
	n := len(r.checksumStack)
	if n == 0 {
		return 0
	}
	c := r.checksumStack[n-1]
	r.checksumStack = r.checksumStack[:n-1]
	return c.Sum64()
}

func (r *Reader) activeXOR() XORCalculator {
	if n := len(r.xorStack); n > 0 {
		return r.xorStack[n-1]
	}
	return nil
}

func (r *Reader) activeChecksum() ChecksumCalculator {
	if n := len(r.checksumStack); n > 0 {
		return r.checksumStack[n-1]
	}
	return nil
}

// ReadFull fills p, applying the filter chain to every byte.
func (r *Reader) ReadFull(p []byte) error {
	if _, err := io.ReadFull(r.s, p); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return newErrf(ErrEndOfInput, "short read of %d bytes at 0x%X", len(p), r.pos)
		}
		return fmt.Errorf("read failed at 0x%X: %w", r.pos, err)
	}
	r.pos += int64(len(p))
	if xor := r.activeXOR(); xor != nil {
		for i := range p {
			p[i] = xor.XORByte(p[i])
		}
	}
	if cs := r.activeChecksum(); cs != nil {
		cs.ProcessBytes(p)
	}
	return nil
}

// ReadBytes reads exactly n bytes through the filter chain.
func (r *Reader) ReadBytes(n int64) ([]byte, error) {
	if n < 0 {
		return nil, newErrf(nil, "negative read length %d", n)
	}
	p := make([]byte, n)
	if err := r.ReadFull(p); err != nil {
		return nil, err
	}
	return p, nil
}

// ReadByte reads a single byte through the filter chain.
func (r *Reader) ReadByte() (byte, error) {
	if err := r.ReadFull(r.buf[:1]); err != nil {
		return 0, err
	}
	return r.buf[0], nil
}

// ReadUint8 reads an unsigned byte.
func (r *Reader) ReadUint8() (uint8, error) { return r.ReadByte() }

// ReadInt8 reads a signed byte.
func (r *Reader) ReadInt8() (int8, error) {
	b, err := r.ReadByte()
	return int8(b), err
}

// ReadUint16 reads a 16-bit unsigned integer in the active byte order.
func (r *Reader) ReadUint16() (uint16, error) {
	if err := r.ReadFull(r.buf[:2]); err != nil {
		return 0, err
	}
	return r.endian.ByteOrder().Uint16(r.buf[:2]), nil
}

// ReadInt16 reads a 16-bit signed integer.
func (r *Reader) ReadInt16() (int16, error) {
	v, err := r.ReadUint16()
	return int16(v), err
}

// ReadUint24 reads a 24-bit unsigned integer in the active byte order.
func (r *Reader) ReadUint24() (uint32, error) {
	if err := r.ReadFull(r.buf[:3]); err != nil {
		return 0, err
	}
	b := r.buf[:3]
	if r.endian == BigEndian {
		return uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2]), nil
	}
	return uint32(b[2])<<16 | uint32(b[1])<<8 | uint32(b[0]), nil
}

// ReadInt24 reads a sign-extended 24-bit integer.
func (r *Reader) ReadInt24() (int32, error) {
	v, err := r.ReadUint24()
	if err != nil {
		return 0, err
	}
	if v&0x800000 != 0 {
		v |= 0xFF000000
	}
	return int32(v), nil
}

// ReadUint32 reads a 32-bit unsigned integer in the active byte order.
func (r *Reader) ReadUint32() (uint32, error) {
	if err := r.ReadFull(r.buf[:4]); err != nil {
		return 0, err
	}
	return r.endian.ByteOrder().Uint32(r.buf[:4]), nil
}

// ReadInt32 reads a 32-bit signed integer.
func (r *Reader) ReadInt32() (int32, error) {
	v, err := r.ReadUint32()
	return int32(v), err
}

// ReadUint64 reads a 64-bit unsigned integer in the active byte order.
func (r *Reader) ReadUint64() (uint64, error) {
	if err := r.ReadFull(r.buf[:8]); err != nil {
		return 0, err
	}
	return r.endian.ByteOrder().Uint64(r.buf[:8]), nil
}

// ReadInt64 reads a 64-bit signed integer.
func (r *Reader) ReadInt64() (int64, error) {
	v, err := r.ReadUint64()
	return int64(v), err
}

// ReadFloat32 reads an IEEE 754 single-precision float.
func (r *Reader) ReadFloat32() (float32, error) {
	v, err := r.ReadUint32()
	return math.Float32frombits(v), err
}

// ReadFloat64 reads an IEEE 754 double-precision float.
func (r *Reader) ReadFloat64() (float64, error) {
	v, err := r.ReadUint64()
	return math.Float64frombits(v), err
}

// ReadNullTerminatedString reads code units until the terminator and decodes
// them with enc. The terminator width follows the encoding's unit width.
func (r *Reader) ReadNullTerminatedString(enc TextEncoding) (string, error) {
	width := enc.UnitWidth
	if width <= 0 {
		width = 1
	}
	var raw bytes.Buffer
	unit := make([]byte, width)
	for {
		if err := r.ReadFull(unit); err != nil {
			return "", err
		}
		if isZero(unit) {
			break
		}
		raw.Write(unit)
	}
	return enc.decode(raw.Bytes())
}

// ReadString reads a fixed number of bytes and decodes them with enc,
// trimming at the first terminator.
func (r *Reader) ReadString(length int64, enc TextEncoding) (string, error) {
	raw, err := r.ReadBytes(length)
	if err != nil {
		return "", err
	}
	raw = trimAtTerminator(raw, enc.UnitWidth)
	return enc.decode(raw)
}

func isZero(p []byte) bool {
	for _, b := range p {
		if b != 0 {
			return false
		}
	}
	return true
}

func trimAtTerminator(p []byte, width int) []byte {
	if width <= 0 {
		width = 1
	}
	for i := 0; i+width <= len(p); i += width {
		if isZero(p[i : i+width]) {
			return p[:i]
		}
	}
	return p
}
