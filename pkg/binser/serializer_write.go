package binser

import (
	stdctx "context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Serializer is the write implementation of the serializer contract,
// mirroring Deserializer operation for operation.
type Serializer struct {
	ctx     *Context
	curFile BinaryFile
	w       *Writer
	depth   int
	err     error

	enc         TextEncoding
	logSuppress int
}

func newSerializer(ctx *Context) *Serializer {
	return &Serializer{ctx: ctx}
}

func (s *Serializer) Context() *Context { return s.ctx }

func (s *Serializer) IsReading() bool { return false }

func (s *Serializer) IsWriting() bool { return true }

func (s *Serializer) CurrentFile() BinaryFile { return s.curFile }

func (s *Serializer) Depth() int { return s.depth }

func (s *Serializer) Err() error { return s.err }

func (s *Serializer) fail(err error) {
	if s.err == nil && err != nil {
		s.err = err
	}
}

func (s *Serializer) clearErr() { s.err = nil }

func (s *Serializer) CurrentPointer() Pointer {
	if s.curFile == nil || s.w == nil {
		return Pointer{}
	}
	return NewPointer(s.curFile.BaseAddress()+uint64(s.w.Position()), s.curFile)
}

func (s *Serializer) CurrentFileLength() int64 {
	if s.w == nil {
		return 0
	}
	return s.w.Length()
}

func (s *Serializer) switchToFile(f BinaryFile) error {
	if f == s.curFile && s.w != nil {
		return nil
	}
	if err := s.ctx.checkDisposed(); err != nil {
		return err
	}
	w, err := f.base().getWriter()
	if err != nil {
		return err
	}
	s.curFile = f
	s.w = w
	return nil
}

func (s *Serializer) Goto(p Pointer) {
	if p.IsNull() {
		return
	}
	if err := s.switchToFile(p.File()); err != nil {
		s.fail(err)
		return
	}
	if err := s.w.Seek(p.FileOffset()); err != nil {
		s.fail(err)
	}
}

func (s *Serializer) Align(alignment int64, base Pointer) {
	if s.err != nil || s.w == nil || alignment <= 1 {
		return
	}
	var baseOff int64
	if !base.IsNull() {
		baseOff = base.FileOffset()
	}
	rel := s.w.Position() - baseOff
	if rem := rel % alignment; rem != 0 {
		s.Padding(alignment - rem)
	}
}

func (s *Serializer) DoAt(p Pointer, body func()) {
	if p.IsNull() {
		return
	}
	prevFile := s.curFile
	var prevPos int64
	if s.w != nil {
		prevPos = s.w.Position()
	}
	defer func() {
		if prevFile != nil {
			s.Goto(NewPointer(prevFile.BaseAddress()+uint64(prevPos), prevFile))
		} else {
			s.curFile = nil
			s.w = nil
		}
	}()
	s.Goto(p)
	body()
}

func (s *Serializer) DoEndian(e Endian, body func()) {
	if s.w == nil {
		s.fail(newErrf(nil, "endian scope without an active file"))
		return
	}
	w := s.w
	prev := w.Endianness()
	w.SetEndianness(e)
	defer w.SetEndianness(prev)
	body()
}

func (s *Serializer) DoEncoding(enc TextEncoding, body func()) {
	prev := s.enc
	s.enc = enc
	defer func() { s.enc = prev }()
	body()
}

func (s *Serializer) effectiveEncoding() TextEncoding {
	if !s.enc.IsZero() {
		return s.enc
	}
	return s.ctx.Settings().DefaultEncoding
}

// DoEncoded lets body write into a scratch stream file; when the scope
// closes the scratch is encoded and spliced back at the outer position.
func (s *Serializer) DoEncoded(enc Encoder, body func(), opts ...EncodedOption) {
	if s.err != nil {
		return
	}
	if s.w == nil {
		s.fail(newErrf(nil, "encoded scope without an active file"))
		return
	}
	opt := applyEncodedOptions(opts)
	outer := s.CurrentPointer()

	key := opt.key
	if key == "" {
		key = encodedKeyFor(outer, enc)
	}
	if _, lookupErr := s.ctx.File(key); lookupErr == nil {
		key += "-" + uuid.NewString()
	}
	var fileOpts []FileOption
	if opt.endian != nil {
		fileOpts = append(fileOpts, WithEndian(*opt.endian))
	} else {
		fileOpts = append(fileOpts, WithEndian(s.curFile.Endianness()))
	}
	sf := NewStreamFile(s.ctx, key, nil, fileOpts...)
	if opt.allowLocalPtrs {
		sf.allowLocalPtrs = true
	}
	if err := s.ctx.AddFile(sf); err != nil {
		s.fail(err)
		return
	}

	prevFile, prevPos := s.curFile, s.w.Position()
	s.Goto(sf.StartPointer())
	body()
	if s.curFile == sf {
		s.curFile = nil
		s.w = nil
	}
	scratch := sf.Bytes()
	if err := s.ctx.RemoveFile(sf); err != nil && s.err == nil {
		s.fail(err)
	}
	s.Goto(NewPointer(prevFile.BaseAddress()+uint64(prevPos), prevFile))
	if s.err != nil {
		return
	}

	encoded, err := enc.Encode(newMemStream(scratch))
	if err != nil {
		s.fail(fmt.Errorf("failed to encode block at %s with %s: %w", outer, enc.Name(), err))
		return
	}
	data, err := io.ReadAll(encoded)
	if err != nil {
		s.fail(fmt.Errorf("failed to buffer encoded block at %s: %w", outer, err))
		return
	}
	if err := s.w.WriteFull(data); err != nil {
		s.fail(err)
	}
}

func (s *Serializer) BeginXOR(c XORCalculator) {
	if s.w != nil {
		s.w.BeginXOR(c)
	}
}

func (s *Serializer) EndXOR() {
	if s.w != nil {
		s.w.EndXOR()
	}
}

func (s *Serializer) BeginChecksum(c ChecksumCalculator) {
	if s.w != nil {
		s.w.BeginChecksum(c)
	}
}

func (s *Serializer) EndChecksum() uint64 {
	if s.w == nil {
		return 0
	}
	return s.w.EndChecksum()
}

func (s *Serializer) writer() *Writer {
	if s.err != nil {
		return nil
	}
	if s.w == nil {
		s.fail(newErrf(nil, "serializer has no active file"))
		return nil
	}
	return s.w
}

func (s *Serializer) traceField(p Pointer, typ, name string, value any) {
	if !s.ctx.traceEnabled() || s.logSuppress > 0 {
		return
	}
	traceLine(s.ctx.trace, "WRITE", p, s.depth, fieldMsg(typ, name, value))
}

func (s *Serializer) warn(p Pointer, format string, args ...any) {
	s.ctx.log.WithFields(logrus.Fields{"pointer": p.String()}).Warnf(format, args...)
}

func (s *Serializer) Bool(v bool, name string) bool {
	w := s.writer()
	if w == nil {
		return v
	}
	start := s.CurrentPointer()
	var b byte
	if v {
		b = 1
	}
	if err := w.WriteByte(b); err != nil {
		s.fail(err)
		return v
	}
	s.traceField(start, "Bool", name, v)
	return v
}

func (s *Serializer) Int8(v int8, name string) int8 {
	w := s.writer()
	if w == nil {
		return v
	}
	start := s.CurrentPointer()
	if err := w.WriteInt8(v); err != nil {
		s.fail(err)
		return v
	}
	s.traceField(start, "Int8", name, v)
	return v
}

func (s *Serializer) UInt8(v uint8, name string) uint8 {
	w := s.writer()
	if w == nil {
		return v
	}
	start := s.CurrentPointer()
	if err := w.WriteUint8(v); err != nil {
		s.fail(err)
		return v
	}
	s.traceField(start, "UInt8", name, v)
	return v
}

func (s *Serializer) Int16(v int16, name string) int16 {
	w := s.writer()
	if w == nil {
		return v
	}
	start := s.CurrentPointer()
	if err := w.WriteInt16(v); err != nil {
		s.fail(err)
		return v
	}
	s.traceField(start, "Int16", name, v)
	return v
}

func (s *Serializer) UInt16(v uint16, name string) uint16 {
	w := s.writer()
	if w == nil {
		return v
	}
	start := s.CurrentPointer()
	if err := w.WriteUint16(v); err != nil {
		s.fail(err)
		return v
	}
	s.traceField(start, "UInt16", name, v)
	return v
}

func (s *Serializer) Int24(v int32, name string) int32 {
	w := s.writer()
	if w == nil {
		return v
	}
	start := s.CurrentPointer()
	if err := w.WriteInt24(v); err != nil {
		s.fail(err)
		return v
	}
	s.traceField(start, "Int24", name, v)
	return v
}

func (s *Serializer) UInt24(v uint32, name string) uint32 {
	w := s.writer()
	if w == nil {
		return v
	}
	start := s.CurrentPointer()
	if err := w.WriteUint24(v); err != nil {
		s.fail(err)
		return v
	}
	s.traceField(start, "UInt24", name, v)
	return v
}

func (s *Serializer) Int32(v int32, name string) int32 {
	w := s.writer()
	if w == nil {
		return v
	}
	start := s.CurrentPointer()
	if err := w.WriteInt32(v); err != nil {
		s.fail(err)
		return v
	}
	s.traceField(start, "Int32", name, v)
	return v
}

func (s *Serializer) UInt32(v uint32, name string) uint32 {
	w := s.writer()
	if w == nil {
		return v
	}
	start := s.CurrentPointer()
	if err := w.WriteUint32(v); err != nil {
		s.fail(err)
		return v
	}
	s.traceField(start, "UInt32", name, v)
	return v
}

func (s *Serializer) Int64(v int64, name string) int64 {
	w := s.writer()
	if w == nil {
		return v
	}
	start := s.CurrentPointer()
	if err := w.WriteInt64(v); err != nil {
		s.fail(err)
		return v
	}
	s.traceField(start, "Int64", name, v)
	return v
}

func (s *Serializer) UInt64(v uint64, name string) uint64 {
	w := s.writer()
	if w == nil {
		return v
	}
	start := s.CurrentPointer()
	if err := w.WriteUint64(v); err != nil {
		s.fail(err)
		return v
	}
	s.traceField(start, "UInt64", name, v)
	return v
}

func (s *Serializer) Float32(v float32, name string) float32 {
	w := s.writer()
	if w == nil {
		return v
	}
	start := s.CurrentPointer()
	if err := w.WriteFloat32(v); err != nil {
		s.fail(err)
		return v
	}
	s.traceField(start, "Float32", name, v)
	return v
}

func (s *Serializer) Float64(v float64, name string) float64 {
	w := s.writer()
	if w == nil {
		return v
	}
	start := s.CurrentPointer()
	if err := w.WriteFloat64(v); err != nil {
		s.fail(err)
		return v
	}
	s.traceField(start, "Float64", name, v)
	return v
}

func (s *Serializer) NullableUInt8(v *uint8, name string) *uint8 {
	w := s.writer()
	if w == nil {
		return v
	}
	start := s.CurrentPointer()
	b := byte(0xFF)
	if v != nil {
		b = *v
	}
	if err := w.WriteByte(b); err != nil {
		s.fail(err)
		return v
	}
	if v == nil {
		s.traceField(start, "UInt8?", name, "null")
	} else {
		s.traceField(start, "UInt8?", name, *v)
	}
	return v
}

func (s *Serializer) String(v string, name string) string {
	w := s.writer()
	if w == nil {
		return v
	}
	start := s.CurrentPointer()
	if err := w.WriteNullTerminatedString(v, s.effectiveEncoding()); err != nil {
		s.fail(err)
		return v
	}
	s.traceField(start, "String", name, v)
	return v
}

func (s *Serializer) StringN(v string, length int64, name string) string {
	w := s.writer()
	if w == nil {
		return v
	}
	start := s.CurrentPointer()
	if err := w.WriteString(v, length, s.effectiveEncoding()); err != nil {
		s.fail(err)
		return v
	}
	s.traceField(start, "String", name, v)
	return v
}

func (s *Serializer) Bytes(v []byte, count int64, name string) []byte {
	w := s.writer()
	if w == nil {
		return v
	}
	if int64(len(v)) != count {
		resized := make([]byte, count)
		copy(resized, v)
		v = resized
	}
	start := s.CurrentPointer()
	if err := w.WriteFull(v); err != nil {
		s.fail(err)
		return v
	}
	s.traceField(start, "Bytes", name, fmt.Sprintf("[%d bytes]", count))
	return v
}

func (s *Serializer) Padding(count int64) {
	w := s.writer()
	if w == nil {
		return
	}
	start := s.CurrentPointer()
	if err := w.WriteFull(make([]byte, count)); err != nil {
		s.fail(err)
		return
	}
	s.traceField(start, "Padding", "", count)
}

func (s *Serializer) Pointer(v Pointer, name string, opts ...PointerOption) Pointer {
	opt := applyPointerOptions(opts)
	w := s.writer()
	if w == nil {
		return v
	}
	site := s.CurrentPointer()
	size := opt.size
	if size == PointerSizeAuto {
		size = s.curFile.PointerSize()
	}

	if opt.anchor != nil && v.anchor == nil && !v.IsNull() {
		v = v.WithAnchor(*opt.anchor)
	}
	raw := uint64(0)
	if !v.IsNull() {
		raw = v.SerializedValue()
	}

	var err error
	if size == PointerSize64 {
		err = w.WriteUint64(raw)
	} else {
		err = w.WriteUint32(uint32(raw))
	}
	if err != nil {
		s.fail(err)
		return v
	}
	if s.curFile.SavePointersToMemoryMap() && !v.IsNull() {
		s.ctx.MemoryMap().AddPointer(v)
	}
	s.traceField(site, "Pointer", name, v)
	return v
}

func (s *Serializer) doBits(width int, writeValue func(v uint64) error, typ string, body func(b *BitFields)) {
	w := s.writer()
	if w == nil {
		return
	}
	start := s.CurrentPointer()
	b := &BitFields{s: s, width: width}
	s.logSuppress++
	body(b)
	s.logSuppress--
	if s.err != nil {
		return
	}
	if err := writeValue(b.value); err != nil {
		s.fail(err)
		return
	}
	s.traceField(start, typ, "", fmt.Sprintf("0x%X", b.value))
}

func (s *Serializer) DoBits8(body func(b *BitFields)) {
	s.doBits(8, func(v uint64) error { return s.w.WriteUint8(uint8(v)) }, "Bits8", body)
}

func (s *Serializer) DoBits16(body func(b *BitFields)) {
	s.doBits(16, func(v uint64) error { return s.w.WriteUint16(uint16(v)) }, "Bits16", body)
}

func (s *Serializer) DoBits32(body func(b *BitFields)) {
	s.doBits(32, func(v uint64) error { return s.w.WriteUint32(uint32(v)) }, "Bits32", body)
}

func (s *Serializer) DoBits64(body func(b *BitFields)) {
	s.doBits(64, func(v uint64) error { return s.w.WriteUint64(v) }, "Bits64", body)
}

func (s *Serializer) ChecksumUInt16(expected uint16, name string) uint16 {
	return s.UInt16(expected, name)
}

func (s *Serializer) ChecksumUInt32(expected uint32, name string) uint32 {
	return s.UInt32(expected, name)
}

func (s *Serializer) ChecksumUInt64(expected uint64, name string) uint64 {
	return s.UInt64(expected, name)
}

func (s *Serializer) FillCacheForRead(_ stdctx.Context, _ int64) error { return nil }

func (s *Serializer) Log(format string, args ...any) {
	if !s.ctx.traceEnabled() || s.logSuppress > 0 {
		return
	}
	traceLine(s.ctx.trace, "WRITE", s.CurrentPointer(), s.depth, fmt.Sprintf(format, args...))
}

func (s *Serializer) beginObject(obj Serializable, name string) {
	if sl, ok := obj.(ShortLogger); ok {
		s.traceField(obj.SerializedOffset(), "Object", name, sl.ShortLog())
		s.logSuppress++
		s.depth++
		return
	}
	s.traceField(obj.SerializedOffset(), "Object", name, fmt.Sprintf("%T", obj))
	s.depth++
}

func (s *Serializer) endObject(obj Serializable) {
	s.depth--
	if _, ok := obj.(ShortLogger); ok {
		s.logSuppress--
	}
}
