// Package mp4 implements metadata writing for ISO-BMFF/QuickTime containers
// (MP4, MOV, M4A, 3GP).
package mp4

import (
	"fmt"

	"github.com/DNAi-inc/DNExif-sub006/internal/types"
)

// Atom represents an ISO-BMFF atom (box).
type Atom struct {
	Size      uint64 // Total size including header
	Type      string // 4-character type code
	Offset    int64  // Position in the buffer
	HeaderLen int64  // 8, or 16 when the 64-bit extended size form is used
	ToEOF     bool   // Size field was 0: atom extends to end of file
}

// DataOffset returns the offset where the atom's payload starts.
func (a *Atom) DataOffset() int64 {
	return a.Offset + a.HeaderLen
}

// End returns the offset just past the atom.
func (a *Atom) End() int64 {
	return a.Offset + int64(a.Size)
}

// readAtomHeader reads the atom header at the given offset. A size of 1
// signals a 64-bit extended size following the FourCC; a size of 0 means the
// atom extends to the end of the buffer.
func readAtomHeader(data []byte, offset int64) (*Atom, error) {
	if offset+8 > int64(len(data)) {
		return nil, &types.UnsupportedLayoutError{
			Format: types.FormatMP4,
			Offset: offset,
			Reason: "atom header runs past end of buffer",
		}
	}

	size32 := uint32(data[offset])<<24 | uint32(data[offset+1])<<16 |
		uint32(data[offset+2])<<8 | uint32(data[offset+3])

	atom := &Atom{
		Type:      string(data[offset+4 : offset+8]),
		Offset:    offset,
		HeaderLen: 8,
	}

	switch size32 {
	case 0:
		// Extends to end of file
		atom.Size = uint64(int64(len(data)) - offset)
		atom.ToEOF = true
	case 1:
		if offset+16 > int64(len(data)) {
			return nil, &types.UnsupportedLayoutError{
				Format: types.FormatMP4,
				Offset: offset,
				Reason: "extended atom size runs past end of buffer",
			}
		}
		var size64 uint64
		for i := int64(8); i < 16; i++ {
			size64 = size64<<8 | uint64(data[offset+i])
		}
		atom.Size = size64
		atom.HeaderLen = 16
	default:
		atom.Size = uint64(size32)
	}

	if atom.Size < uint64(atom.HeaderLen) {
		return nil, &types.UnsupportedLayoutError{
			Format: types.FormatMP4,
			Offset: offset,
			Reason: fmt.Sprintf("invalid atom size %d (minimum is %d)", atom.Size, atom.HeaderLen),
		}
	}
	if offset+int64(atom.Size) > int64(len(data)) {
		return nil, &types.UnsupportedLayoutError{
			Format: types.FormatMP4,
			Offset: offset,
			Reason: "atom size runs past end of buffer",
		}
	}

	return atom, nil
}

// parseTopLevel walks the top-level atom sequence covering the whole buffer.
func parseTopLevel(data []byte) ([]Atom, error) {
	var atoms []Atom
	offset := int64(0)
	for offset < int64(len(data)) {
		atom, err := readAtomHeader(data, offset)
		if err != nil {
			return nil, err
		}
		atoms = append(atoms, *atom)
		offset = atom.End()
	}
	return atoms, nil
}
