package binser

import "io"

// XORCalculator masks bytes as they pass through a reader or writer. The
// same calculator must be able to decrypt what it encrypted; for plain XOR
// the operation is its own inverse.
type XORCalculator interface {
	XORByte(b byte) byte
}

// ChecksumCalculator accumulates a checksum over the logical (decrypted)
// byte stream. Readers feed it every post-XOR byte, writers every pre-XOR
// byte.
type ChecksumCalculator interface {
	ProcessByte(b byte)
	ProcessBytes(p []byte)
	Sum64() uint64
	Reset()
}

// Encoder reversibly transforms a byte stream, e.g. a compression codec or
// a block cipher. Decoded streams are fully buffered by the core, so the
// returned readers only need to be forward readers.
type Encoder interface {
	Name() string
	Decode(src io.Reader) (io.Reader, error)
	Encode(src io.Reader) (io.Reader, error)
}
