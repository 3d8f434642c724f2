package binser

import (
	stdctx "context"
	"fmt"
	"io"
	"strings"
)

// SerializerObject is the declarative serialization API. It is implemented
// twice — by Deserializer for reading and Serializer for writing — so a
// serializable type writes exactly one Serialize body and both directions
// work.
//
// Primitive operations return the live value: the read implementation
// decodes and returns it, the write implementation consumes the argument and
// returns it unchanged. Errors are sticky: the first failure is recorded on
// the serializer, later operations become no-ops, and the entry points
// (Read, Write, ReadAt, ...) surface it. Scopes always restore their state,
// error or not.
//
// Operations with type parameters (objects, typed pointers, arrays) are
// package-level generic functions, since Go methods cannot be parameterized:
// Object, ObjectAt, RefField, ResolveRef, Array, ObjectArray, PointerArray,
// RefArray, StringArray, ArraySize.
type SerializerObject interface {
	Context() *Context
	IsReading() bool
	IsWriting() bool
	CurrentFile() BinaryFile
	CurrentPointer() Pointer
	CurrentFileLength() int64
	Depth() int
	Err() error

	// Goto switches the cursor to p, changing files if needed. A null
	// pointer is a no-op.
	Goto(p Pointer)
	// Align advances the cursor to the next multiple of alignment relative
	// to base (or the file start if base is null).
	Align(alignment int64, base Pointer)
	// DoAt runs body at p, then restores the position and file. A null
	// pointer skips body.
	DoAt(p Pointer, body func())
	// DoEndian runs body with the active stream's byte order set to e, then
	// restores the previous order.
	DoEndian(e Endian, body func())
	// DoEncoding runs body with a different default text encoding.
	DoEncoding(enc TextEncoding, body func())
	// DoEncoded decodes the remainder of the active stream through enc into
	// a transient stream file, runs body at its start, then returns to the
	// outer file with the cursor past the consumed encoded bytes. On write,
	// body fills a scratch stream that is re-encoded and spliced at the outer
	// position when the scope closes.
	DoEncoded(enc Encoder, body func(), opts ...EncodedOption)

	BeginXOR(c XORCalculator)
	EndXOR()
	BeginChecksum(c ChecksumCalculator)
	EndChecksum() uint64

	Bool(v bool, name string) bool
	Int8(v int8, name string) int8
	UInt8(v uint8, name string) uint8
	Int16(v int16, name string) int16
	UInt16(v uint16, name string) uint16
	Int24(v int32, name string) int32
	UInt24(v uint32, name string) uint32
	Int32(v int32, name string) int32
	UInt32(v uint32, name string) uint32
	Int64(v int64, name string) int64
	UInt64(v uint64, name string) uint64
	Float32(v float32, name string) float32
	Float64(v float64, name string) float64

	// NullableUInt8 serializes a byte where 0xFF means absent.
	NullableUInt8(v *uint8, name string) *uint8

	// String serializes a null-terminated string in the effective encoding.
	String(v string, name string) string
	// StringN serializes a fixed-length string field of length bytes.
	StringN(v string, length int64, name string) string

	// Bytes serializes a raw block of count bytes in one operation.
	Bytes(v []byte, count int64, name string) []byte
	// Padding serializes count zero bytes; nonzero padding read back is
	// reported as a warning.
	Padding(count int64)

	// Pointer serializes a raw pointer field at the file's pointer width
	// and resolves it on read. Zero is the null pointer; an unresolvable
	// non-zero value fails with ErrInvalidPointer unless allowed.
	Pointer(v Pointer, name string, opts ...PointerOption) Pointer

	// DoBits* serialize one integer of the given width as a sequence of
	// LSB-first bit fields declared by body.
	DoBits8(body func(b *BitFields))
	DoBits16(body func(b *BitFields))
	DoBits32(body func(b *BitFields))
	DoBits64(body func(b *BitFields))

	// Checksum fields: the read direction warns when the stored value does
	// not match the expected one, and returns the stored value either way.
	ChecksumUInt16(expected uint16, name string) uint16
	ChecksumUInt32(expected uint32, name string) uint32
	ChecksumUInt64(expected uint64, name string) uint64

	// FillCacheForRead hints the file manager to prefetch up to length
	// bytes. It is a no-op outside the read direction.
	FillCacheForRead(ctx stdctx.Context, length int64) error

	// Log emits a free-form line into the serializer trace.
	Log(format string, args ...any)

	fail(err error)
	clearErr()
	beginObject(obj Serializable, name string)
	endObject(obj Serializable)
	traceField(p Pointer, typ, name string, value any)
}

// PointerOption configures a pointer field operation.
type PointerOption func(*pointerOptions)

type pointerOptions struct {
	anchor       *Pointer
	allowInvalid bool
	size         PointerSize
	resolve      bool
}

// WithAnchor makes the serialized value relative to anchor.
func WithAnchor(anchor Pointer) PointerOption {
	return func(o *pointerOptions) { o.anchor = &anchor }
}

// AllowInvalid makes unresolvable values yield a null pointer instead of an
// error.
func AllowInvalid() PointerOption {
	return func(o *pointerOptions) { o.allowInvalid = true }
}

// WithPointerWidth overrides the file's pointer width for this field.
func WithPointerWidth(size PointerSize) PointerOption {
	return func(o *pointerOptions) { o.size = size }
}

// Resolve eagerly serializes the target object of a typed reference.
func Resolve() PointerOption {
	return func(o *pointerOptions) { o.resolve = true }
}

func applyPointerOptions(opts []PointerOption) pointerOptions {
	var o pointerOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// EncodedOption configures an encoded scope.
type EncodedOption func(*encodedOptions)

type encodedOptions struct {
	key             string
	endian          *Endian
	allowLocalPtrs  bool
}

// EncodedKey overrides the generated stream file key.
func EncodedKey(key string) EncodedOption {
	return func(o *encodedOptions) { o.key = key }
}

// EncodedEndian sets the endianness of the decoded stream.
func EncodedEndian(e Endian) EncodedOption {
	return func(o *encodedOptions) { o.endian = &e }
}

// EncodedLocalPointers lets pointers inside the decoded block resolve
// against the block itself.
func EncodedLocalPointers() EncodedOption {
	return func(o *encodedOptions) { o.allowLocalPtrs = true }
}

func applyEncodedOptions(opts []EncodedOption) encodedOptions {
	var o encodedOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// encodedKeyFor derives a stable per-site stream file key from the outer
// pointer.
func encodedKeyFor(outer Pointer, enc Encoder) string {
	return fmt.Sprintf("%s@0x%X.%s", outer.File().Alias(), outer.FileOffset(), enc.Name())
}

// traceLine writes one serializer trace line: role, pointer, indentation by
// depth, and the message.
func traceLine(w io.Writer, role string, p Pointer, depth int, msg string) {
	fmt.Fprintf(w, "(%s) %s:  %s%s\n", role, p, strings.Repeat("  ", depth), msg)
}

// fieldMsg renders a field trace message.
func fieldMsg(typ, name string, value any) string {
	if name == "" {
		name = "<no name>"
	}
	return fmt.Sprintf("(%s) %s: %v", typ, name, value)
}

// BitFields extracts or packs unsigned bit fields of declared widths at a
// monotonically advancing, LSB-first bit position inside one integer.
type BitFields struct {
	s       SerializerObject
	reading bool
	value   uint64
	pos     int
	width   int
}

// Bits serializes one field of the given width. Reading returns the
// extracted field; writing packs v truncated to width and returns the
// truncated value.
func (b *BitFields) Bits(v uint64, width int, name string) uint64 {
	if width <= 0 || b.pos+width > b.width {
		b.s.fail(newErrf(nil, "bit field %q of width %d does not fit at bit %d of %d", name, width, b.pos, b.width))
		return v
	}
	mask := uint64(1)<<width - 1
	if b.reading {
		out := (b.value >> b.pos) & mask
		b.s.traceField(b.s.CurrentPointer(), fmt.Sprintf("Bits %d-%d", b.pos, b.pos+width-1), name, out)
		b.pos += width
		return out
	}
	b.s.traceField(b.s.CurrentPointer(), fmt.Sprintf("Bits %d-%d", b.pos, b.pos+width-1), name, v&mask)
	b.value |= (v & mask) << b.pos
	b.pos += width
	return v & mask
}

// Position returns the current bit position.
func (b *BitFields) Position() int { return b.pos }

// Remaining returns the number of undeclared bits.
func (b *BitFields) Remaining() int { return b.width - b.pos }
