package binser

import "fmt"

// Object serializes one serializable instance at the current pointer.
//
// Reading consults the object cache first: a hit advances the cursor by the
// cached instance's size without re-reading, unless the file opts out with
// IgnoreCacheOnRead. A miss constructs the instance, calls Init with the
// placement pointer, inserts it into the cache before its body runs (so
// cyclic back-references resolve to the partially-built instance), runs the
// optional pre hooks, serializes the body and records the size.
func Object[T any, PT SerializablePtr[T]](s SerializerObject, value PT, name string, pre ...func(PT)) PT {
	if s.Err() != nil {
		return value
	}
	ctx := s.Context()
	p := s.CurrentPointer()

	if s.IsReading() {
		f := s.CurrentFile()
		if cached, ok := ctx.Cache().FromOffset(p); ok && f != nil && !f.IgnoreCacheOnRead() {
			if typed, ok := cached.(PT); ok {
				s.traceField(p, "Object", name, fmt.Sprintf("%T (cached)", typed))
				s.Goto(p.Add(typed.SerializedSize()))
				return typed
			}
		}
		var zero PT
		obj := value
		if obj == zero {
			obj = PT(new(T))
		}
		obj.Init(p)
		ctx.Cache().Add(obj)
		for _, fn := range pre {
			fn(obj)
		}
		s.beginObject(obj, name)
		obj.Serialize(s)
		s.endObject(obj)
		obj.SetSerializedSize(int64(s.CurrentPointer().AbsoluteOffset() - p.AbsoluteOffset()))
		return obj
	}

	var zero PT
	obj := value
	if obj == zero {
		obj = PT(new(T))
	}
	obj.Init(p)
	for _, fn := range pre {
		fn(obj)
	}
	s.beginObject(obj, name)
	obj.Serialize(s)
	s.endObject(obj)
	obj.SetSerializedSize(int64(s.CurrentPointer().AbsoluteOffset() - p.AbsoluteOffset()))
	return obj
}

// ObjectAt serializes an instance at p, restoring the cursor afterwards.
func ObjectAt[T any, PT SerializablePtr[T]](s SerializerObject, p Pointer, name string, pre ...func(PT)) PT {
	var obj PT
	s.DoAt(p, func() {
		obj = Object[T, PT](s, obj, name, pre...)
	})
	return obj
}

// RefField serializes the raw pointer of a typed reference. With the
// Resolve option the target is serialized eagerly at the resolved address.
func RefField[T any, PT SerializablePtr[T]](s SerializerObject, r Ref[T], name string, opts ...PointerOption) Ref[T] {
	opt := applyPointerOptions(opts)
	r.Pointer = s.Pointer(r.Pointer, name, opts...)
	if opt.resolve {
		r = ResolveRef[T, PT](s, r, name)
	}
	return r
}

// ResolveRef serializes the target of a typed reference at its address,
// with cursor save and restore. A null reference is left untouched.
func ResolveRef[T any, PT SerializablePtr[T]](s SerializerObject, r Ref[T], name string, pre ...func(PT)) Ref[T] {
	if r.IsNull() || s.Err() != nil {
		return r
	}
	s.DoAt(r.Pointer, func() {
		obj := Object[T, PT](s, PT(r.Value), name, pre...)
		r.Value = (*T)(obj)
	})
	return r
}

// Primitive is the closed set of field types Array can serialize directly.
type Primitive interface {
	bool | int8 | uint8 | int16 | uint16 | int32 | uint32 | int64 | uint64 | float32 | float64 | string
}

// Array serializes count primitive elements. A byte buffer takes a bulk
// fast path through Bytes. The buffer is resized to count before elements
// are serialized.
func Array[T Primitive](s SerializerObject, buf []T, count int64, name string) []T {
	if s.Err() != nil {
		return buf
	}
	buf = resizeSlice(buf, count)
	if bs, ok := any(buf).([]byte); ok {
		out := s.Bytes(bs, count, name)
		return any(out).([]T)
	}
	for i := range buf {
		buf[i] = serializeElem(s, buf[i], fmt.Sprintf("%s[%d]", name, i))
	}
	return buf
}

func serializeElem[T Primitive](s SerializerObject, v T, name string) T {
	switch x := any(v).(type) {
	case bool:
		return any(s.Bool(x, name)).(T)
	case int8:
		return any(s.Int8(x, name)).(T)
	case uint8:
		return any(s.UInt8(x, name)).(T)
	case int16:
		return any(s.Int16(x, name)).(T)
	case uint16:
		return any(s.UInt16(x, name)).(T)
	case int32:
		return any(s.Int32(x, name)).(T)
	case uint32:
		return any(s.UInt32(x, name)).(T)
	case int64:
		return any(s.Int64(x, name)).(T)
	case uint64:
		return any(s.UInt64(x, name)).(T)
	case float32:
		return any(s.Float32(x, name)).(T)
	case float64:
		return any(s.Float64(x, name)).(T)
	case string:
		return any(s.String(x, name)).(T)
	}
	s.fail(newErrf(ErrNotSupportedType, "%T", v))
	return v
}

// ObjectArray serializes count object elements, delegating to Object. The
// pre hooks receive the element index.
func ObjectArray[T any, PT SerializablePtr[T]](s SerializerObject, buf []PT, count int64, name string, pre ...func(PT, int)) []PT {
	if s.Err() != nil {
		return buf
	}
	buf = resizeSlice(buf, count)
	for i := range buf {
		i := i
		var hooks []func(PT)
		for _, p := range pre {
			p := p
			hooks = append(hooks, func(o PT) { p(o, i) })
		}
		buf[i] = Object[T, PT](s, buf[i], fmt.Sprintf("%s[%d]", name, i), hooks...)
	}
	return buf
}

// PointerArray serializes count raw pointer elements.
func PointerArray(s SerializerObject, buf []Pointer, count int64, name string, opts ...PointerOption) []Pointer {
	if s.Err() != nil {
		return buf
	}
	buf = resizeSlice(buf, count)
	for i := range buf {
		buf[i] = s.Pointer(buf[i], fmt.Sprintf("%s[%d]", name, i), opts...)
	}
	return buf
}

// RefArray serializes count typed reference elements.
func RefArray[T any, PT SerializablePtr[T]](s SerializerObject, buf []Ref[T], count int64, name string, opts ...PointerOption) []Ref[T] {
	if s.Err() != nil {
		return buf
	}
	buf = resizeSlice(buf, count)
	for i := range buf {
		buf[i] = RefField[T, PT](s, buf[i], fmt.Sprintf("%s[%d]", name, i), opts...)
	}
	return buf
}

// StringArray serializes count null-terminated strings.
func StringArray(s SerializerObject, buf []string, count int64, name string) []string {
	if s.Err() != nil {
		return buf
	}
	buf = resizeSlice(buf, count)
	for i := range buf {
		buf[i] = s.String(buf[i], fmt.Sprintf("%s[%d]", name, i))
	}
	return buf
}

// SizePrefix is the set of integer types usable as array length prefixes.
type SizePrefix interface {
	uint8 | uint16 | uint32 | uint64
}

// ArraySize serializes an array length prefix of type U tied to the buffer
// length: writing emits len(buf), reading resizes buf to the stored count.
// The elements themselves are serialized by a following array operation.
func ArraySize[T any, U SizePrefix](s SerializerObject, buf []T, name string) []T {
	if s.Err() != nil {
		return buf
	}
	n := uint64(len(buf))
	var zero U
	switch any(zero).(type) {
	case uint8:
		n = uint64(s.UInt8(uint8(n), name))
	case uint16:
		n = uint64(s.UInt16(uint16(n), name))
	case uint32:
		n = uint64(s.UInt32(uint32(n), name))
	case uint64:
		n = s.UInt64(n, name)
	}
	if s.IsReading() {
		buf = resizeSlice(buf, int64(n))
	}
	return buf
}

// resizeSlice adjusts buf to exactly count elements, preserving the prefix.
func resizeSlice[T any](buf []T, count int64) []T {
	if int64(len(buf)) == count {
		return buf
	}
	out := make([]T, count)
	copy(out, buf)
	return out
}
