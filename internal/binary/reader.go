// Package binary provides bounds-checked binary reading and block-building
// primitives over in-memory buffers.
package binary

import (
	"encoding/binary"
	"fmt"
)

// SafeReader wraps a byte buffer with bounds checking and helpful error
// messages. The engine operates on whole-file buffers, so every read is a
// slice access guarded by an explicit range check.
type SafeReader struct {
	data []byte
	what string
}

// NewSafeReader creates a new SafeReader. The context string names the
// structure being read (e.g. "Ogg page", "atom header") and is included in
// every error message.
func NewSafeReader(data []byte, context string) *SafeReader {
	return &SafeReader{data: data, what: context}
}

// Len returns the buffer length.
func (sr *SafeReader) Len() int64 {
	return int64(len(sr.data))
}

// Bytes returns n bytes at the given offset without copying.
func (sr *SafeReader) Bytes(off int64, n int, what string) ([]byte, error) {
	if off < 0 || off >= int64(len(sr.data)) {
		return nil, fmt.Errorf("%s: offset %d out of bounds (buffer size: %d) while reading %s",
			sr.what, off, len(sr.data), what)
	}
	if off+int64(n) > int64(len(sr.data)) {
		return nil, fmt.Errorf("%s: read of %d bytes at offset %d would exceed buffer size %d while reading %s",
			sr.what, n, off, len(sr.data), what)
	}
	return sr.data[off : off+int64(n)], nil
}

// Endianness represents byte order for multi-byte values.
type Endianness int

const (
	// BigEndian byte order. Used by: JPEG lengths, MP4 atoms, FLAC block
	// lengths, EBML integers.
	BigEndian Endianness = iota

	// LittleEndian byte order. Used by: RIFF chunk sizes, Ogg page fields,
	// Vorbis comment lengths, ASF object sizes.
	LittleEndian
)

// Read reads a big-endian value of type T at the given offset.
// T must be uint8, uint16, uint32, or uint64.
func Read[T uint8 | uint16 | uint32 | uint64](sr *SafeReader, off int64, what string) (T, error) {
	return ReadEndian[T](sr, off, what, BigEndian)
}

// ReadLE reads a little-endian value of type T at the given offset.
func ReadLE[T uint8 | uint16 | uint32 | uint64](sr *SafeReader, off int64, what string) (T, error) {
	return ReadEndian[T](sr, off, what, LittleEndian)
}

// ReadEndian reads a value of type T at the given offset with the specified
// byte order. Most code should use the Read/ReadLE wrappers instead.
func ReadEndian[T uint8 | uint16 | uint32 | uint64](sr *SafeReader, off int64, what string, endian Endianness) (T, error) {
	var zero T
	var size int

	switch any(zero).(type) {
	case uint8:
		size = 1
	case uint16:
		size = 2
	case uint32:
		size = 4
	case uint64:
		size = 8
	}

	buf, err := sr.Bytes(off, size, what)
	if err != nil {
		return zero, err
	}

	var val T
	switch any(zero).(type) {
	case uint8:
		val = T(buf[0])
	case uint16:
		if endian == LittleEndian {
			val = T(binary.LittleEndian.Uint16(buf))
		} else {
			val = T(binary.BigEndian.Uint16(buf))
		}
	case uint32:
		if endian == LittleEndian {
			val = T(binary.LittleEndian.Uint32(buf))
		} else {
			val = T(binary.BigEndian.Uint32(buf))
		}
	case uint64:
		if endian == LittleEndian {
			val = T(binary.LittleEndian.Uint64(buf))
		} else {
			val = T(binary.BigEndian.Uint64(buf))
		}
	}

	return val, nil
}
