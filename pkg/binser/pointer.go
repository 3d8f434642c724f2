package binser

import "fmt"

// PointerSize is the on-disk width of a serialized pointer in bytes.
type PointerSize int

const (
	// PointerSizeAuto derives the width from the owning file's address range.
	PointerSizeAuto PointerSize = 0
	// PointerSize32 stores pointers as 32-bit integers.
	PointerSize32 PointerSize = 4
	// PointerSize64 stores pointers as 64-bit integers.
	PointerSize64 PointerSize = 8
)

// Pointer is a typed absolute address: an absolute offset inside the address
// space of a registered file, plus an optional anchor the serialized value is
// relative to. The zero value is the null pointer.
//
// Pointers are value types. They reference files by handle and never own
// them. Equality for cache keys ignores the anchor.
type Pointer struct {
	abs    uint64
	file   BinaryFile
	anchor *Pointer
}

// NewPointer builds a pointer to the given absolute offset inside f.
func NewPointer(absoluteOffset uint64, f BinaryFile) Pointer {
	return Pointer{abs: absoluteOffset, file: f}
}

// IsNull reports whether the pointer is the null pointer.
func (p Pointer) IsNull() bool { return p.file == nil }

// AbsoluteOffset returns the address of the target, including the file's
// base address.
func (p Pointer) AbsoluteOffset() uint64 { return p.abs }

// File returns the file the pointer targets, or nil for the null pointer.
func (p Pointer) File() BinaryFile { return p.file }

// Anchor returns the anchor pointer, or nil if the pointer is absolute.
func (p Pointer) Anchor() *Pointer { return p.anchor }

// FileOffset returns the offset of the target relative to the start of its
// file's backing stream.
func (p Pointer) FileOffset() int64 {
	if p.file == nil {
		return 0
	}
	return int64(p.abs - p.file.BaseAddress())
}

// SerializedValue is the integer written to disk for this pointer: the
// absolute offset minus the anchor's absolute offset (0 without an anchor).
func (p Pointer) SerializedValue() uint64 {
	if p.anchor != nil {
		return p.abs - p.anchor.abs
	}
	return p.abs
}

// WithAnchor returns a pointer to the same absolute target whose serialized
// value is computed relative to anchor.
func (p Pointer) WithAnchor(anchor Pointer) Pointer {
	p.anchor = &anchor
	return p
}

// Add shifts the absolute offset forward by n bytes, keeping file and anchor.
func (p Pointer) Add(n int64) Pointer {
	p.abs = uint64(int64(p.abs) + n)
	return p
}

// Sub shifts the absolute offset backward by n bytes.
func (p Pointer) Sub(n int64) Pointer { return p.Add(-n) }

// Equals reports pointer equality, ignoring anchors.
func (p Pointer) Equals(o Pointer) bool {
	return p.file == o.file && p.abs == o.abs
}

func (p Pointer) String() string {
	if p.IsNull() {
		return "null"
	}
	return fmt.Sprintf("%s|0x%08X", p.file.Alias(), p.abs)
}

// key is the object cache key for this pointer.
func (p Pointer) key() pointerKey {
	return pointerKey{file: p.file, abs: p.abs}
}

type pointerKey struct {
	file BinaryFile
	abs  uint64
}

// Ref is a pointer with a deferred, typed target. The target stays nil until
// it is resolved, either eagerly through the Resolve pointer option or by a
// later ResolveRef call.
type Ref[T any] struct {
	Pointer
	Value *T
}

// NewRef builds a resolved reference to value at p.
func NewRef[T any](p Pointer, value *T) Ref[T] {
	return Ref[T]{Pointer: p, Value: value}
}
