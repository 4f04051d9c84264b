package binary

import (
	"bytes"
	"encoding/binary"
)

// Builder accumulates block bytes during construction. It never fails:
// writes to an in-memory buffer cannot error, so block builders stay pure
// functions from field sets to byte sequences.
type Builder struct {
	buf bytes.Buffer
}

// NewBuilder creates an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Len returns the number of bytes accumulated so far.
func (b *Builder) Len() int {
	return b.buf.Len()
}

// Bytes returns the accumulated bytes.
func (b *Builder) Bytes() []byte {
	return b.buf.Bytes()
}

// Raw appends raw bytes.
func (b *Builder) Raw(p []byte) *Builder {
	b.buf.Write(p)
	return b
}

// String appends a string as raw bytes.
func (b *Builder) String(s string) *Builder {
	b.buf.WriteString(s)
	return b
}

// Byte appends a single byte.
func (b *Builder) Byte(v byte) *Builder {
	b.buf.WriteByte(v)
	return b
}

// U16BE appends a big-endian uint16.
func (b *Builder) U16BE(v uint16) *Builder {
	var tmp [2]byte
	binary.BigEndian.PutUint16(tmp[:], v)
	b.buf.Write(tmp[:])
	return b
}

// U16LE appends a little-endian uint16.
func (b *Builder) U16LE(v uint16) *Builder {
	var tmp [2]byte
	binary.LittleEndian.PutUint16(tmp[:], v)
	b.buf.Write(tmp[:])
	return b
}

// U24BE appends the low 24 bits of v, big-endian.
func (b *Builder) U24BE(v uint32) *Builder {
	b.buf.Write([]byte{byte(v >> 16), byte(v >> 8), byte(v)})
	return b
}

// U32BE appends a big-endian uint32.
func (b *Builder) U32BE(v uint32) *Builder {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	b.buf.Write(tmp[:])
	return b
}

// U32LE appends a little-endian uint32.
func (b *Builder) U32LE(v uint32) *Builder {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	b.buf.Write(tmp[:])
	return b
}

// U64BE appends a big-endian uint64.
func (b *Builder) U64BE(v uint64) *Builder {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], v)
	b.buf.Write(tmp[:])
	return b
}

// U64LE appends a little-endian uint64.
func (b *Builder) U64LE(v uint64) *Builder {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	b.buf.Write(tmp[:])
	return b
}

// Zeros appends n zero bytes.
func (b *Builder) Zeros(n int) *Builder {
	b.buf.Write(make([]byte, n))
	return b
}
