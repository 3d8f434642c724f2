package binser

// Serializable is implemented by every type the serializer can place in a
// file. A single Serialize body declares the layout for both directions; the
// engine calls it with either a reading or a writing serializer.
//
// Implementations are expected to be default-constructible structs embedding
// DataStruct, which provides the offset and size bookkeeping.
type Serializable interface {
	// Init is called once, before Serialize, with the pointer the instance
	// is placed at.
	Init(offset Pointer)

	// SerializedOffset returns the pointer the instance was placed at.
	SerializedOffset() Pointer

	// SerializedSize returns the size in bytes the instance occupied the
	// last time it was serialized.
	SerializedSize() int64

	// SetSerializedSize is called by the engine after Serialize returns.
	SetSerializedSize(n int64)

	// Serialize declares the field layout against the given serializer.
	Serialize(s SerializerObject)
}

// ShortLogger is optionally implemented by serializables whose per-field
// trace should be collapsed into a single summary line.
type ShortLogger interface {
	ShortLog() string
}

// SerializablePtr constrains a pointer-to-struct type that implements
// Serializable, allowing the generic object operations to construct
// instances.
type SerializablePtr[T any] interface {
	*T
	Serializable
}

// DataStruct is the embeddable base for serializable types. It records the
// placement pointer and serialized size.
type DataStruct struct {
	Offset Pointer
	Size   int64
}

// Init stores the placement pointer.
func (d *DataStruct) Init(offset Pointer) { d.Offset = offset }

// SerializedOffset returns the placement pointer.
func (d *DataStruct) SerializedOffset() Pointer { return d.Offset }

// SerializedSize returns the serialized size in bytes.
func (d *DataStruct) SerializedSize() int64 { return d.Size }

// SetSerializedSize records the serialized size.
func (d *DataStruct) SetSerializedSize(n int64) { d.Size = n }
