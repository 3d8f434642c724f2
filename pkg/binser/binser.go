// Package binser is a bidirectional, declarative engine for reading and
// writing structured binary data from heterogeneous file sources: linear
// on-disk files, encoded blocks, memory-mapped address spaces and in-memory
// streams. A serializable type writes one Serialize body; the same body
// drives both the read and the write direction.
package binser

import "path"

// Read deserializes one object graph from the start of a registered file.
func Read[T any, PT SerializablePtr[T]](ctx *Context, pathOrAlias string, pre ...func(PT)) (PT, error) {
	var zero PT
	if err := ctx.checkDisposed(); err != nil {
		return zero, err
	}
	f, err := ctx.File(pathOrAlias)
	if err != nil {
		return zero, err
	}
	return ReadAt[T, PT](ctx, f.StartPointer(), pre...)
}

// ReadAt deserializes one object graph at an arbitrary pointer.
func ReadAt[T any, PT SerializablePtr[T]](ctx *Context, p Pointer, pre ...func(PT)) (PT, error) {
	var zero PT
	if err := ctx.checkDisposed(); err != nil {
		return zero, err
	}
	s := ctx.Deserializer()
	s.clearErr()
	obj := zero
	s.DoAt(p, func() {
		obj = Object[T, PT](s, zero, objectName(p), pre...)
	})
	if err := s.Err(); err != nil {
		s.clearErr()
		return zero, err
	}
	return obj, nil
}

// Write serializes one object graph to the start of a registered file. The
// output is committed when the file or the context is closed.
func Write[T any, PT SerializablePtr[T]](ctx *Context, pathOrAlias string, value PT) (PT, error) {
	var zero PT
	if err := ctx.checkDisposed(); err != nil {
		return zero, err
	}
	f, err := ctx.File(pathOrAlias)
	if err != nil {
		return zero, err
	}
	return WriteAt(ctx, f.StartPointer(), value)
}

// WriteAt serializes one object graph at an arbitrary pointer.
func WriteAt[T any, PT SerializablePtr[T]](ctx *Context, p Pointer, value PT) (PT, error) {
	var zero PT
	if err := ctx.checkDisposed(); err != nil {
		return zero, err
	}
	s := ctx.Serializer()
	s.clearErr()
	obj := zero
	s.DoAt(p, func() {
		obj = Object[T, PT](s, value, objectName(p))
	})
	if err := s.Err(); err != nil {
		s.clearErr()
		return zero, err
	}
	return obj, nil
}

func objectName(p Pointer) string {
	if p.IsNull() {
		return "<no name>"
	}
	return path.Base(p.File().Alias())
}
