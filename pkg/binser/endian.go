package binser

import "encoding/binary"

// Endian selects the byte order used by readers and writers.
type Endian int

const (
	// LittleEndian stores the least significant byte first.
	LittleEndian Endian = iota
	// BigEndian stores the most significant byte first.
	BigEndian
)

// ByteOrder returns the encoding/binary byte order for the endianness.
func (e Endian) ByteOrder() binary.ByteOrder {
	if e == BigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

func (e Endian) String() string {
	if e == BigEndian {
		return "big"
	}
	return "little"
}

// ParseEndian maps a configuration string to an endianness.
func ParseEndian(s string) (Endian, error) {
	switch s {
	case "little", "le", "":
		return LittleEndian, nil
	case "big", "be":
		return BigEndian, nil
	}
	return LittleEndian, newErrf(nil, "unknown endianness %q", s)
}
