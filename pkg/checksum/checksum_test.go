package checksum

import (
	"encoding/binary"
	"testing"

	"github.com/cespare/xxhash/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// referenceFletcher64 computes the checksum over whole little-endian words,
// the way block-oriented implementations do.
func referenceFletcher64(data []byte) uint64 {
	const maxUint32 = uint64(0xFFFFFFFF)
	var sum1, sum2 uint64
	for i := 0; i+4 <= len(data); i += 4 {
		sum1 += uint64(binary.LittleEndian.Uint32(data[i : i+4]))
		sum2 += sum1
	}
	sum1 %= maxUint32
	sum2 %= maxUint32
	return sum2<<32 | sum1
}

func TestFletcher64MatchesWordReference(t *testing.T) {
	data := make([]byte, 64)
	for i := range data {
		data[i] = byte(i * 7)
	}

	c := NewFletcher64()
	c.ProcessBytes(data)
	assert.Equal(t, referenceFletcher64(data), c.Sum64())
}

func TestFletcher64PartialWordZeroPads(t *testing.T) {
	data := []byte{0x11, 0x22, 0x33, 0x44, 0x55}
	padded := []byte{0x11, 0x22, 0x33, 0x44, 0x55, 0, 0, 0}

	c := NewFletcher64()
	c.ProcessBytes(data)
	assert.Equal(t, referenceFletcher64(padded), c.Sum64())
}

func TestFletcher64SumIsRepeatable(t *testing.T) {
	c := NewFletcher64()
	c.ProcessBytes([]byte{1, 2, 3})
	first := c.Sum64()
	assert.Equal(t, first, c.Sum64(), "taking the value must not disturb state")

	c.ProcessByte(4)
	c.ProcessBytes([]byte{5, 6, 7, 8})
	assert.Equal(t, referenceFletcher64([]byte{1, 2, 3, 4, 5, 6, 7, 8}), c.Sum64())
}

func TestFletcher64Reset(t *testing.T) {
	c := NewFletcher64()
	c.ProcessBytes([]byte{9, 9, 9, 9})
	c.Reset()
	c.ProcessBytes([]byte{1, 0, 0, 0})
	assert.Equal(t, referenceFletcher64([]byte{1, 0, 0, 0}), c.Sum64())
}

func TestXXHash64MatchesDigest(t *testing.T) {
	data := []byte("the quick brown fox jumps over the lazy dog")

	c := NewXXHash64()
	for _, b := range data {
		c.ProcessByte(b)
	}
	assert.Equal(t, xxhash.Sum64(data), c.Sum64())

	c.Reset()
	c.ProcessBytes(data)
	assert.Equal(t, xxhash.Sum64(data), c.Sum64())
}

func TestCRC32KnownAnswer(t *testing.T) {
	c := NewCRC32()
	c.ProcessBytes([]byte("123456789"))
	// The classic CRC-32/IEEE check value.
	assert.Equal(t, uint64(0xCBF43926), c.Sum64())
}

func TestAdditive16Truncates(t *testing.T) {
	c := NewAdditive16()
	for i := 0; i < 1024; i++ {
		c.ProcessByte(0xFF)
	}
	require.Equal(t, uint64((1024*0xFF)&0xFFFF), c.Sum64())
}
