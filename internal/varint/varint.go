// Package varint implements the variable-length integer encodings used by
// the supported containers: ID3v2 synchsafe integers, EBML self-describing
// IDs and sizes, and Ogg lacing tables.
package varint

import "fmt"

// Synchsafe encodes a value as a 4-byte synchsafe integer: big-endian, 7 bits
// per byte with the top bit of every byte clear, so the encoded size survives
// MPEG frame-sync scanning. Values must fit in 28 bits.
func Synchsafe(v uint32) [4]byte {
	var out [4]byte
	for i := 3; i >= 0; i-- {
		out[i] = byte(v & 0x7F)
		v >>= 7
	}
	return out
}

// Unsynchsafe decodes a 4-byte synchsafe integer.
func Unsynchsafe(b [4]byte) uint32 {
	var v uint32
	for _, by := range b {
		v = (v << 7) | uint32(by&0x7F)
	}
	return v
}

// MaxSynchsafe is the largest value a 4-byte synchsafe integer can hold.
const MaxSynchsafe = 1<<28 - 1

// EBMLWidth returns the byte width of the EBML vint starting with first, or 0
// if no marker bit is set within maxWidth bytes. IDs use maxWidth 4, sizes
// maxWidth 8: the position of the first set bit, scanning from the most
// significant bit, fixes the field width.
func EBMLWidth(first byte, maxWidth int) int {
	for w := 1; w <= maxWidth; w++ {
		if first&(0x80>>(w-1)) != 0 {
			return w
		}
	}
	return 0
}

// ReadEBMLID reads an EBML element ID at data[off:]. The ID is returned with
// its marker bits intact (the conventional form used in element tables, e.g.
// Segment = 0x18538067), along with its byte width.
func ReadEBMLID(data []byte, off int) (id uint32, width int, err error) {
	if off >= len(data) {
		return 0, 0, fmt.Errorf("EBML ID at offset %d: buffer exhausted", off)
	}
	width = EBMLWidth(data[off], 4)
	if width == 0 {
		return 0, 0, fmt.Errorf("EBML ID at offset %d: invalid leading byte 0x%02x", off, data[off])
	}
	if off+width > len(data) {
		return 0, 0, fmt.Errorf("EBML ID at offset %d: %d-byte ID exceeds buffer", off, width)
	}
	for i := 0; i < width; i++ {
		id = id<<8 | uint32(data[off+i])
	}
	return id, width, nil
}

// ReadEBMLSize reads an EBML size field at data[off:]. It returns the decoded
// value (marker bits stripped), the byte width, and whether the field is the
// all-ones "unknown length" sentinel.
func ReadEBMLSize(data []byte, off int) (size uint64, width int, unknown bool, err error) {
	if off >= len(data) {
		return 0, 0, false, fmt.Errorf("EBML size at offset %d: buffer exhausted", off)
	}
	width = EBMLWidth(data[off], 8)
	if width == 0 {
		return 0, 0, false, fmt.Errorf("EBML size at offset %d: invalid leading byte 0x%02x", off, data[off])
	}
	if off+width > len(data) {
		return 0, 0, false, fmt.Errorf("EBML size at offset %d: %d-byte size exceeds buffer", off, width)
	}

	// Strip the marker bit from the leading byte
	size = uint64(data[off]) & (0xFF >> width)
	for i := 1; i < width; i++ {
		size = size<<8 | uint64(data[off+i])
	}

	// All value bits set means "unknown length"
	maxVal := uint64(1)<<(7*width) - 1
	unknown = size == maxVal

	return size, width, unknown, nil
}

// EncodeEBMLSize encodes size in the smallest width that can represent it.
// The all-ones pattern is reserved for the unknown-length sentinel, so a
// value landing exactly on it is pushed to the next width.
func EncodeEBMLSize(size uint64) []byte {
	for width := 1; width <= 8; width++ {
		maxVal := uint64(1)<<(7*width) - 1
		if size < maxVal {
			return EncodeEBMLSizeWidth(size, width)
		}
	}
	// 8-byte width covers every uint64 the formats can produce
	return EncodeEBMLSizeWidth(size, 8)
}

// EncodeEBMLSizeWidth encodes size at a fixed byte width, as required when a
// rewritten element must keep its original size-field width. It returns nil
// if the value does not fit at that width.
func EncodeEBMLSizeWidth(size uint64, width int) []byte {
	if width < 1 || width > 8 {
		return nil
	}
	maxVal := uint64(1)<<(7*width) - 1
	if size >= maxVal { // all-ones is the unknown-length sentinel
		return nil
	}
	out := make([]byte, width)
	for i := width - 1; i >= 1; i-- {
		out[i] = byte(size)
		size >>= 8
	}
	out[0] = byte(size) | 0x80>>(width-1)
	return out
}

// Lacing builds the Ogg lacing table for a single packet of the given length:
// repeated 255 entries for each full 255-byte span, terminated by the first
// value below 255. A length that is an exact multiple of 255 requires an
// explicit trailing 0 entry; a zero-length packet is the single entry [0].
func Lacing(packetLen int) []byte {
	if packetLen == 0 {
		return []byte{0}
	}
	table := make([]byte, 0, packetLen/255+1)
	remaining := packetLen
	for remaining > 0 {
		chunk := remaining
		if chunk > 255 {
			chunk = 255
		}
		table = append(table, byte(chunk))
		remaining -= chunk
	}
	if table[len(table)-1] == 255 {
		table = append(table, 0)
	}
	return table
}
