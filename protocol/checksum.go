package protocol

import (
	"encoding/binary"
	"hash"
)

// CRC-32/MPEG-2 parameters.
const (
	// CRC32Polynomial is the normal (non-reflected) CRC-32 polynomial
	CRC32Polynomial = 0x04C11DB7

	// CRC32InitialValue is the register value before the first byte
	CRC32InitialValue = 0xFFFFFFFF

	// CRC32HighBitMask selects the register bit shifted out on each step
	CRC32HighBitMask = 0x80000000

	// BitsPerByte is the number of bits per byte
	BitsPerByte = 8
)

// crc32Table is the byte-at-a-time lookup table for CRC-32/MPEG-2.
var crc32Table [256]uint32

func init() {
	for i := 0; i < 256; i++ {
		crc := uint32(i) << 24
		for j := 0; j < BitsPerByte; j++ {
			if crc&CRC32HighBitMask != 0 {
				crc = (crc << 1) ^ CRC32Polynomial
			} else {
				crc <<= 1
			}
		}
		crc32Table[i] = crc
	}
}

// updateCRC32 feeds data into a running CRC-32/MPEG-2 register.
func updateCRC32(crc uint32, data []byte) uint32 {
	for _, b := range data {
		crc = (crc << BitsPerByte) ^ crc32Table[byte(crc>>24)^b]
	}
	return crc
}

// Checksum computes the CRC-32/MPEG-2 of data.
//
// CRC-32/MPEG-2 parameters:
//   - Polynomial: CRC32Polynomial
//   - Initial value: CRC32InitialValue
//   - No input or output reflection
//   - No final XOR
//
// The standard library's hash/crc32 only implements reflected variants,
// so the table is built here.
func Checksum(data []byte) uint32 {
	return updateCRC32(CRC32InitialValue, data)
}

// AppendChecksum appends the little-endian CRC-32/MPEG-2 of data to dst.
func AppendChecksum(dst, data []byte) []byte {
	return binary.LittleEndian.AppendUint32(dst, Checksum(data))
}

// digest implements hash.Hash32 for CRC-32/MPEG-2.
type digest struct {
	crc uint32
}

// NewHash returns a streaming CRC-32/MPEG-2 hash.
// Sum appends the checksum in little-endian order, matching the wire format.
func NewHash() hash.Hash32 {
	return &digest{crc: CRC32InitialValue}
}

func (d *digest) Write(p []byte) (int, error) {
	d.crc = updateCRC32(d.crc, p)
	return len(p), nil
}

func (d *digest) Sum32() uint32 { return d.crc }

func (d *digest) Sum(b []byte) []byte {
	return binary.LittleEndian.AppendUint32(b, d.crc)
}

func (d *digest) Reset() { d.crc = CRC32InitialValue }

func (d *digest) Size() int { return ChecksumSize }

func (d *digest) BlockSize() int { return 1 }
