package binser

import (
	stdctx "context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Deserializer is the read implementation of the serializer contract. One
// instance drives one logical cursor over the files of its context.
type Deserializer struct {
	ctx     *Context
	curFile BinaryFile
	r       *Reader
	depth   int
	err     error

	enc          TextEncoding
	logSuppress  int
}

func newDeserializer(ctx *Context) *Deserializer {
	return &Deserializer{ctx: ctx}
}

func (s *Deserializer) Context() *Context { return s.ctx }

func (s *Deserializer) IsReading() bool { return true }

func (s *Deserializer) IsWriting() bool { return false }

func (s *Deserializer) CurrentFile() BinaryFile { return s.curFile }

func (s *Deserializer) Depth() int { return s.depth }

func (s *Deserializer) Err() error { return s.err }

func (s *Deserializer) fail(err error) {
	if s.err == nil && err != nil {
		s.err = err
	}
}

func (s *Deserializer) clearErr() { s.err = nil }

// CurrentPointer returns the absolute address under the cursor, or the null
// pointer before the first Goto.
func (s *Deserializer) CurrentPointer() Pointer {
	if s.curFile == nil || s.r == nil {
		return Pointer{}
	}
	return NewPointer(s.curFile.BaseAddress()+uint64(s.r.Position()), s.curFile)
}

// CurrentFileLength returns the length of the active stream.
func (s *Deserializer) CurrentFileLength() int64 {
	if s.r == nil {
		return 0
	}
	return s.r.Length()
}

// switchToFile lazily opens f for reading and points the cursor at it.
func (s *Deserializer) switchToFile(f BinaryFile) error {
	if f == s.curFile && s.r != nil {
		return nil
	}
	if err := s.ctx.checkDisposed(); err != nil {
		return err
	}
	r, err := f.base().getReader()
	if err != nil {
		return err
	}
	s.curFile = f
	s.r = r
	return nil
}

// Goto moves the cursor to p. Restoration paths rely on Goto working even
// while an error is sticky, so Goto does not skip on a recorded error; it
// records its own file-switch, range and seek failures.
func (s *Deserializer) Goto(p Pointer) {
	if p.IsNull() {
		return
	}
	if err := s.switchToFile(p.File()); err != nil {
		s.fail(err)
		return
	}
	if off := p.FileOffset(); off < 0 || off > s.r.Length() {
		s.fail(newErrf(ErrPointer, "target %s outside file range", p))
		return
	}
	if err := s.r.Seek(p.FileOffset()); err != nil {
		s.fail(err)
	}
}

func (s *Deserializer) Align(alignment int64, base Pointer) {
	if s.err != nil || s.r == nil || alignment <= 1 {
		return
	}
	var baseOff int64
	if !base.IsNull() {
		baseOff = base.FileOffset()
	}
	rel := s.r.Position() - baseOff
	if rem := rel % alignment; rem != 0 {
		s.Goto(s.CurrentPointer().Add(alignment - rem))
	}
}

func (s *Deserializer) DoAt(p Pointer, body func()) {
	if p.IsNull() {
		return
	}
	prevFile := s.curFile
	var prevPos int64
	if s.r != nil {
		prevPos = s.r.Position()
	}
	defer func() {
		if prevFile != nil {
			s.Goto(NewPointer(prevFile.BaseAddress()+uint64(prevPos), prevFile))
		} else {
			s.curFile = nil
			s.r = nil
		}
	}()
	s.Goto(p)
	body()
}

func (s *Deserializer) DoEndian(e Endian, body func()) {
	if s.r == nil {
		s.fail(newErrf(nil, "endian scope without an active file"))
		return
	}
	r := s.r
	prev := r.Endianness()
	r.SetEndianness(e)
	defer r.SetEndianness(prev)
	body()
}

func (s *Deserializer) DoEncoding(enc TextEncoding, body func()) {
	prev := s.enc
	s.enc = enc
	defer func() { s.enc = prev }()
	body()
}

func (s *Deserializer) effectiveEncoding() TextEncoding {
	if !s.enc.IsZero() {
		return s.enc
	}
	return s.ctx.Settings().DefaultEncoding
}

// DoEncoded decodes the remainder of the active stream into a transient
// stream file registered under a per-site key, runs body at its start, warns
// when body leaves decoded bytes unconsumed, and leaves the outer cursor
// past the encoded block.
func (s *Deserializer) DoEncoded(enc Encoder, body func(), opts ...EncodedOption) {
	if s.err != nil {
		return
	}
	if s.r == nil {
		s.fail(newErrf(nil, "encoded scope without an active file"))
		return
	}
	opt := applyEncodedOptions(opts)
	outer := s.CurrentPointer()

	raw, err := s.r.ReadBytes(s.r.Length() - s.r.Position())
	if err != nil {
		s.fail(err)
		return
	}
	s.curFile.base().markRead(outer.FileOffset(), int64(len(raw)))

	decoded, err := enc.Decode(newMemStream(raw))
	if err != nil {
		s.fail(fmt.Errorf("failed to decode block at %s with %s: %w", outer, enc.Name(), err))
		return
	}
	data, err := io.ReadAll(decoded)
	if err != nil {
		s.fail(fmt.Errorf("failed to buffer decoded block at %s: %w", outer, err))
		return
	}

	key := opt.key
	if key == "" {
		key = encodedKeyFor(outer, enc)
	}
	if _, lookupErr := s.ctx.File(key); lookupErr == nil {
		// Same site entered again while the first scope is still live.
		key += "-" + uuid.NewString()
	}
	var fileOpts []FileOption
	if opt.endian != nil {
		fileOpts = append(fileOpts, WithEndian(*opt.endian))
	} else {
		fileOpts = append(fileOpts, WithEndian(s.curFile.Endianness()))
	}
	sf := NewStreamFile(s.ctx, key, data, fileOpts...)
	if opt.allowLocalPtrs {
		sf.allowLocalPtrs = true
	}
	if err := s.ctx.AddFile(sf); err != nil {
		s.fail(err)
		return
	}
	defer func() {
		if s.curFile == BinaryFile(sf) {
			s.curFile = nil
			s.r = nil
		}
		if err := s.ctx.RemoveFile(sf); err != nil && s.err == nil {
			s.fail(err)
		}
	}()

	prevFile, prevPos := s.curFile, s.r.Position()
	s.Goto(sf.StartPointer())
	body()
	if s.err == nil && s.curFile == BinaryFile(sf) {
		if inner := s.r.Position(); inner != sf.Length() {
			s.warn(outer, "under-consumed encoded block: read %d of %d decoded bytes", inner, sf.Length())
		}
	}
	s.Goto(NewPointer(prevFile.BaseAddress()+uint64(prevPos), prevFile))
}

func (s *Deserializer) BeginXOR(c XORCalculator) {
	if s.r != nil {
		s.r.BeginXOR(c)
	}
}

func (s *Deserializer) EndXOR() {
	if s.r != nil {
		s.r.EndXOR()
	}
}

func (s *Deserializer) BeginChecksum(c ChecksumCalculator) {
	if s.r != nil {
		s.r.BeginChecksum(c)
	}
}

func (s *Deserializer) EndChecksum() uint64 {
	if s.r == nil {
		return 0
	}
	return s.r.EndChecksum()
}

// reader validates that a primitive operation can proceed.
func (s *Deserializer) reader() *Reader {
	if s.err != nil {
		return nil
	}
	if s.r == nil {
		s.fail(newErrf(nil, "serializer has no active file"))
		return nil
	}
	return s.r
}

// finishPrim marks coverage and traces one field line.
func (s *Deserializer) finishPrim(start Pointer, n int64, typ, name string, v any) {
	s.curFile.base().markRead(start.FileOffset(), n)
	s.traceField(start, typ, name, v)
}

func (s *Deserializer) traceField(p Pointer, typ, name string, value any) {
	if !s.ctx.traceEnabled() || s.logSuppress > 0 {
		return
	}
	traceLine(s.ctx.trace, "READ", p, s.depth, fieldMsg(typ, name, value))
}

func (s *Deserializer) warn(p Pointer, format string, args ...any) {
	s.ctx.log.WithFields(logrus.Fields{"pointer": p.String()}).Warnf(format, args...)
}

func (s *Deserializer) Bool(v bool, name string) bool {
	r := s.reader()
	if r == nil {
		return v
	}
	start := s.CurrentPointer()
	b, err := r.ReadByte()
	if err != nil {
		s.fail(err)
		return v
	}
	if b > 1 {
		s.warn(start, "malformed bool value 0x%02X for %q", b, name)
	}
	out := b != 0
	s.finishPrim(start, 1, "Bool", name, out)
	return out
}

func (s *Deserializer) Int8(v int8, name string) int8 {
	r := s.reader()
	if r == nil {
		return v
	}
	start := s.CurrentPointer()
	out, err := r.ReadInt8()
	if err != nil {
		s.fail(err)
		return v
	}
	s.finishPrim(start, 1, "Int8", name, out)
	return out
}

func (s *Deserializer) UInt8(v uint8, name string) uint8 {
	r := s.reader()
	if r == nil {
		return v
	}
	start := s.CurrentPointer()
	out, err := r.ReadUint8()
	if err != nil {
		s.fail(err)
		return v
	}
	s.finishPrim(start, 1, "UInt8", name, out)
	return out
}

func (s *Deserializer) Int16(v int16, name string) int16 {
	r := s.reader()
	if r == nil {
		return v
	}
	start := s.CurrentPointer()
	out, err := r.ReadInt16()
	if err != nil {
		s.fail(err)
		return v
	}
	s.finishPrim(start, 2, "Int16", name, out)
	return out
}

func (s *Deserializer) UInt16(v uint16, name string) uint16 {
	r := s.reader()
	if r == nil {
		return v
	}
	start := s.CurrentPointer()
	out, err := r.ReadUint16()
	if err != nil {
		s.fail(err)
		return v
	}
	s.finishPrim(start, 2, "UInt16", name, out)
	return out
}

func (s *Deserializer) Int24(v int32, name string) int32 {
	r := s.reader()
	if r == nil {
		return v
	}
	start := s.CurrentPointer()
	out, err := r.ReadInt24()
	if err != nil {
		s.fail(err)
		return v
	}
	s.finishPrim(start, 3, "Int24", name, out)
	return out
}

func (s *Deserializer) UInt24(v uint32, name string) uint32 {
	r := s.reader()
	if r == nil {
		return v
	}
	start := s.CurrentPointer()
	out, err := r.ReadUint24()
	if err != nil {
		s.fail(err)
		return v
	}
	s.finishPrim(start, 3, "UInt24", name, out)
	return out
}

func (s *Deserializer) Int32(v int32, name string) int32 {
	r := s.reader()
	if r == nil {
		return v
	}
	start := s.CurrentPointer()
	out, err := r.ReadInt32()
	if err != nil {
		s.fail(err)
		return v
	}
	s.finishPrim(start, 4, "Int32", name, out)
	return out
}

func (s *Deserializer) UInt32(v uint32, name string) uint32 {
	r := s.reader()
	if r == nil {
		return v
	}
	start := s.CurrentPointer()
	out, err := r.ReadUint32()
	if err != nil {
		s.fail(err)
		return v
	}
	s.finishPrim(start, 4, "UInt32", name, out)
	return out
}

func (s *Deserializer) Int64(v int64, name string) int64 {
	r := s.reader()
	if r == nil {
		return v
	}
	start := s.CurrentPointer()
	out, err := r.ReadInt64()
	if err != nil {
		s.fail(err)
		return v
	}
	s.finishPrim(start, 8, "Int64", name, out)
	return out
}

func (s *Deserializer) UInt64(v uint64, name string) uint64 {
	r := s.reader()
	if r == nil {
		return v
	}
	start := s.CurrentPointer()
	out, err := r.ReadUint64()
	if err != nil {
		s.fail(err)
		return v
	}
	s.finishPrim(start, 8, "UInt64", name, out)
	return out
}

func (s *Deserializer) Float32(v float32, name string) float32 {
	r := s.reader()
	if r == nil {
		return v
	}
	start := s.CurrentPointer()
	out, err := r.ReadFloat32()
	if err != nil {
		s.fail(err)
		return v
	}
	s.finishPrim(start, 4, "Float32", name, out)
	return out
}

func (s *Deserializer) Float64(v float64, name string) float64 {
	r := s.reader()
	if r == nil {
		return v
	}
	start := s.CurrentPointer()
	out, err := r.ReadFloat64()
	if err != nil {
		s.fail(err)
		return v
	}
	s.finishPrim(start, 8, "Float64", name, out)
	return out
}

func (s *Deserializer) NullableUInt8(v *uint8, name string) *uint8 {
	r := s.reader()
	if r == nil {
		return v
	}
	start := s.CurrentPointer()
	b, err := r.ReadByte()
	if err != nil {
		s.fail(err)
		return v
	}
	if b == 0xFF {
		s.finishPrim(start, 1, "UInt8?", name, "null")
		return nil
	}
	s.finishPrim(start, 1, "UInt8?", name, b)
	return &b
}

func (s *Deserializer) String(v string, name string) string {
	r := s.reader()
	if r == nil {
		return v
	}
	start := s.CurrentPointer()
	out, err := r.ReadNullTerminatedString(s.effectiveEncoding())
	if err != nil {
		s.fail(err)
		return v
	}
	s.finishPrim(start, r.Position()-start.FileOffset(), "String", name, out)
	return out
}

func (s *Deserializer) StringN(v string, length int64, name string) string {
	r := s.reader()
	if r == nil {
		return v
	}
	start := s.CurrentPointer()
	out, err := r.ReadString(length, s.effectiveEncoding())
	if err != nil {
		s.fail(err)
		return v
	}
	s.finishPrim(start, length, "String", name, out)
	return out
}

func (s *Deserializer) Bytes(v []byte, count int64, name string) []byte {
	r := s.reader()
	if r == nil {
		return v
	}
	start := s.CurrentPointer()
	out, err := r.ReadBytes(count)
	if err != nil {
		s.fail(err)
		return v
	}
	s.finishPrim(start, count, "Bytes", name, fmt.Sprintf("[%d bytes]", count))
	return out
}

func (s *Deserializer) Padding(count int64) {
	r := s.reader()
	if r == nil {
		return
	}
	start := s.CurrentPointer()
	raw, err := r.ReadBytes(count)
	if err != nil {
		s.fail(err)
		return
	}
	if !isZero(raw) {
		s.warn(start, "nonzero padding of %d bytes", count)
	}
	s.finishPrim(start, count, "Padding", "", count)
}

func (s *Deserializer) Pointer(v Pointer, name string, opts ...PointerOption) Pointer {
	opt := applyPointerOptions(opts)
	r := s.reader()
	if r == nil {
		return v
	}
	site := s.CurrentPointer()
	size := opt.size
	if size == PointerSizeAuto {
		size = s.curFile.PointerSize()
	}

	var raw uint64
	if size == PointerSize64 {
		v64, err := r.ReadUint64()
		if err != nil {
			s.fail(err)
			return v
		}
		raw = v64
	} else {
		v32, err := r.ReadUint32()
		if err != nil {
			s.fail(err)
			return v
		}
		raw = uint64(v32)
	}
	s.curFile.base().markRead(site.FileOffset(), int64(size))

	if override, ok := s.curFile.OverridePointer(site.FileOffset()); ok {
		s.traceField(site, "Pointer", name, override)
		return override
	}
	if raw == 0 {
		s.traceField(site, "Pointer", name, "null")
		return Pointer{}
	}

	owner := s.curFile.GetPointerFile(raw, opt.anchor)
	if owner == nil {
		if opt.allowInvalid || s.curFile.AllowsInvalidPointer(raw, opt.anchor) {
			s.warn(site, "unresolvable pointer value 0x%X for %q treated as null", raw, name)
			return Pointer{}
		}
		s.fail(&InvalidPointerError{Value: raw, Site: site})
		return Pointer{}
	}

	out := Pointer{abs: raw + anchorOffset(opt.anchor), file: owner, anchor: opt.anchor}
	s.traceField(site, "Pointer", name, out)
	return out
}

func (s *Deserializer) doBits(width int, readValue func() (uint64, error), typ string, body func(b *BitFields)) {
	r := s.reader()
	if r == nil {
		return
	}
	start := s.CurrentPointer()
	v, err := readValue()
	if err != nil {
		s.fail(err)
		return
	}
	s.finishPrim(start, int64(width/8), typ, "", fmt.Sprintf("0x%X", v))
	body(&BitFields{s: s, reading: true, value: v, width: width})
}

func (s *Deserializer) DoBits8(body func(b *BitFields)) {
	s.doBits(8, func() (uint64, error) { v, err := s.r.ReadUint8(); return uint64(v), err }, "Bits8", body)
}

func (s *Deserializer) DoBits16(body func(b *BitFields)) {
	s.doBits(16, func() (uint64, error) { v, err := s.r.ReadUint16(); return uint64(v), err }, "Bits16", body)
}

func (s *Deserializer) DoBits32(body func(b *BitFields)) {
	s.doBits(32, func() (uint64, error) { v, err := s.r.ReadUint32(); return uint64(v), err }, "Bits32", body)
}

func (s *Deserializer) DoBits64(body func(b *BitFields)) {
	s.doBits(64, func() (uint64, error) { return s.r.ReadUint64() }, "Bits64", body)
}

func (s *Deserializer) ChecksumUInt16(expected uint16, name string) uint16 {
	stored := s.UInt16(expected, name)
	if s.err == nil && stored != expected {
		s.warn(s.CurrentPointer(), "checksum mismatch for %q: stored 0x%04X, calculated 0x%04X", name, stored, expected)
	}
	return stored
}

func (s *Deserializer) ChecksumUInt32(expected uint32, name string) uint32 {
	stored := s.UInt32(expected, name)
	if s.err == nil && stored != expected {
		s.warn(s.CurrentPointer(), "checksum mismatch for %q: stored 0x%08X, calculated 0x%08X", name, stored, expected)
	}
	return stored
}

func (s *Deserializer) ChecksumUInt64(expected uint64, name string) uint64 {
	stored := s.UInt64(expected, name)
	if s.err == nil && stored != expected {
		s.warn(s.CurrentPointer(), "checksum mismatch for %q: stored 0x%016X, calculated 0x%016X", name, stored, expected)
	}
	return stored
}

func (s *Deserializer) FillCacheForRead(ctx stdctx.Context, length int64) error {
	if s.r == nil {
		return nil
	}
	return s.ctx.fm.FillCacheForRead(ctx, length, s.r.s)
}

func (s *Deserializer) Log(format string, args ...any) {
	if !s.ctx.traceEnabled() || s.logSuppress > 0 {
		return
	}
	traceLine(s.ctx.trace, "READ", s.CurrentPointer(), s.depth, fmt.Sprintf(format, args...))
}

func (s *Deserializer) beginObject(obj Serializable, name string) {
	if sl, ok := obj.(ShortLogger); ok {
		s.traceField(obj.SerializedOffset(), "Object", name, sl.ShortLog())
		s.logSuppress++
		s.depth++
		return
	}
	s.traceField(obj.SerializedOffset(), "Object", name, fmt.Sprintf("%T", obj))
	s.depth++
}

func (s *Deserializer) endObject(obj Serializable) {
	s.depth--
	if _, ok := obj.(ShortLogger); ok {
		s.logSuppress--
	}
}
