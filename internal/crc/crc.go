// Package crc implements the CRC32 variant used by Ogg page checksums:
// polynomial 0x04C11DB7, MSB-first, zero initial value, no final XOR.
//
// This is not the reflected CRC32 computed by hash/crc32, so the table is
// built here. It is computed once and never mutated afterwards.
package crc

// oggPoly is the generator polynomial for Ogg page checksums.
const oggPoly = 0x04C11DB7

// table is the precomputed lookup table, built once at package init.
var table = buildTable()

func buildTable() [256]uint32 {
	var t [256]uint32
	for i := 0; i < 256; i++ {
		crc := uint32(i) << 24
		for bit := 0; bit < 8; bit++ {
			if crc&0x80000000 != 0 {
				crc = crc<<1 ^ oggPoly
			} else {
				crc <<= 1
			}
		}
		t[i] = crc
	}
	return t
}

// Update feeds data into a running checksum and returns the new value.
func Update(crc uint32, data []byte) uint32 {
	for _, b := range data {
		crc = crc<<8 ^ table[byte(crc>>24)^b]
	}
	return crc
}

// Checksum computes the Ogg CRC of data in one pass from a zero seed.
func Checksum(data []byte) uint32 {
	return Update(0, data)
}
