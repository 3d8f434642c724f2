// Package checksum provides ChecksumCalculator implementations for the
// serializer's checksum tap: Fletcher-64 over 32-bit words, xxHash64,
// CRC-32 and a simple additive byte sum.
package checksum

import (
	"hash/crc32"

	"github.com/cespare/xxhash/v2"
)

// XXHash64 accumulates an xxHash64 digest over the logical byte stream.
type XXHash64 struct {
	d *xxhash.Digest
}

// NewXXHash64 creates an xxHash64 calculator.
func NewXXHash64() *XXHash64 {
	return &XXHash64{d: xxhash.New()}
}

func (c *XXHash64) ProcessByte(b byte) {
	_, _ = c.d.Write([]byte{b})
}

func (c *XXHash64) ProcessBytes(p []byte) {
	_, _ = c.d.Write(p)
}

func (c *XXHash64) Sum64() uint64 { return c.d.Sum64() }

func (c *XXHash64) Reset() { c.d.Reset() }

// CRC32 accumulates an IEEE CRC-32 over the logical byte stream. The value
// is returned widened to 64 bits.
type CRC32 struct {
	crc uint32
}

// NewCRC32 creates an IEEE CRC-32 calculator.
func NewCRC32() *CRC32 { return &CRC32{} }

func (c *CRC32) ProcessByte(b byte) {
	c.crc = crc32.Update(c.crc, crc32.IEEETable, []byte{b})
}

func (c *CRC32) ProcessBytes(p []byte) {
	c.crc = crc32.Update(c.crc, crc32.IEEETable, p)
}

func (c *CRC32) Sum64() uint64 { return uint64(c.crc) }

func (c *CRC32) Reset() { c.crc = 0 }

// Additive16 is the plain byte-sum checksum truncated to 16 bits, as used
// by many ROM headers.
type Additive16 struct {
	sum uint64
}

// NewAdditive16 creates an additive 16-bit checksum calculator.
func NewAdditive16() *Additive16 { return &Additive16{} }

func (c *Additive16) ProcessByte(b byte) { c.sum += uint64(b) }

func (c *Additive16) ProcessBytes(p []byte) {
	for _, b := range p {
		c.sum += uint64(b)
	}
}

func (c *Additive16) Sum64() uint64 { return c.sum & 0xFFFF }

func (c *Additive16) Reset() { c.sum = 0 }
