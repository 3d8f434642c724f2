package xorenc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKey8IsItsOwnInverse(t *testing.T) {
	c := NewKey8(0x5A)
	assert.Equal(t, byte(0x5A), c.XORByte(0x00))
	assert.Equal(t, byte(0x00), c.XORByte(0x5A))

	for b := 0; b < 256; b++ {
		assert.Equal(t, byte(b), c.XORByte(c.XORByte(byte(b))))
	}
}

func TestKeyArrayRepeats(t *testing.T) {
	c := NewKeyArray([]byte{0x01, 0x02})
	out := make([]byte, 4)
	for i := range out {
		out[i] = c.XORByte(0x00)
	}
	assert.Equal(t, []byte{0x01, 0x02, 0x01, 0x02}, out)
}

func TestKeyArrayReset(t *testing.T) {
	c := NewKeyArray([]byte{0xAA, 0xBB, 0xCC})
	c.XORByte(0)
	c.Reset()
	assert.Equal(t, byte(0xAA), c.XORByte(0))
}

func TestKeyArrayEmptyKeyPassesThrough(t *testing.T) {
	c := NewKeyArray(nil)
	assert.Equal(t, byte(0x42), c.XORByte(0x42))
}
