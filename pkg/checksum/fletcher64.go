package checksum

import "encoding/binary"

const fletcherChunkWords = 1024

// Fletcher64 implements the Fletcher-64 checksum over little-endian 32-bit
// words, fed one byte at a time. Bytes are assembled into words as they
// arrive; a trailing partial word is zero-padded when the value is taken.
type Fletcher64 struct {
	sum1, sum2 uint64
	word       [4]byte
	wordLen    int
	words      int
}

// NewFletcher64 creates a Fletcher-64 calculator.
func NewFletcher64() *Fletcher64 { return &Fletcher64{} }

func (c *Fletcher64) ProcessByte(b byte) {
	c.word[c.wordLen] = b
	c.wordLen++
	if c.wordLen == 4 {
		c.addWord(binary.LittleEndian.Uint32(c.word[:]))
		c.wordLen = 0
	}
}

func (c *Fletcher64) ProcessBytes(p []byte) {
	for _, b := range p {
		c.ProcessByte(b)
	}
}

func (c *Fletcher64) addWord(w uint32) {
	const maxUint32 = uint64(0xFFFFFFFF)
	c.sum1 += uint64(w)
	c.sum2 += c.sum1
	c.words++
	// Reduce periodically to keep the sums from overflowing.
	if c.words%fletcherChunkWords == 0 {
		c.sum1 %= maxUint32
		c.sum2 %= maxUint32
	}
}

// Sum64 returns the checksum with sum2 in the high 32 bits and sum1 in the
// low 32 bits. A pending partial word is folded in zero-padded, without
// disturbing the running state.
func (c *Fletcher64) Sum64() uint64 {
	const maxUint32 = uint64(0xFFFFFFFF)
	sum1, sum2 := c.sum1, c.sum2
	if c.wordLen > 0 {
		var padded [4]byte
		copy(padded[:], c.word[:c.wordLen])
		w := binary.LittleEndian.Uint32(padded[:])
		sum1 += uint64(w)
		sum2 += sum1
	}
	sum1 %= maxUint32
	sum2 %= maxUint32
	return sum2<<32 | sum1
}

func (c *Fletcher64) Reset() {
	*c = Fletcher64{}
}
