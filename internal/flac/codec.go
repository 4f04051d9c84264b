// Package flac implements Vorbis comment writing for FLAC files.
//
// FLAC metadata blocks follow the "fLaC" marker: a 1-byte header (last-block
// flag + type) and a 24-bit big-endian length. The comment rewrite replaces
// the first VORBIS_COMMENT block, or appends one before the audio frames,
// and re-derives the last-block flag for the final block.
package flac

import (
	"github.com/DNAi-inc/DNExif-sub006/internal/binary"
	"github.com/DNAi-inc/DNExif-sub006/internal/registry"
	"github.com/DNAi-inc/DNExif-sub006/internal/types"
	"github.com/DNAi-inc/DNExif-sub006/internal/vorbis"
)

// Metadata block types
const (
	blockTypeStreamInfo    = 0
	blockTypePadding       = 1
	blockTypeApplication   = 2
	blockTypeSeekTable     = 3
	blockTypeVorbisComment = 4
	blockTypeCueSheet      = 5
	blockTypePicture       = 6
)

// Block is one FLAC metadata block.
type Block struct {
	Type    uint8
	Payload []byte
}

// codec implements the registry.Codec interface for FLAC files.
type codec struct{}

// Write replaces the FLAC VORBIS_COMMENT block.
func (c *codec) Write(data []byte, req types.Request, cfg types.WriteConfig) ([]byte, error) {
	fields := vorbis.StandardFields(req, "Audio:FLAC")
	if len(fields) == 0 {
		return nil, &types.UnsupportedWriteError{
			Format: types.FormatFLAC,
			Reason: "no supported metadata fields in request (expected XMP:Title)",
		}
	}

	if len(data) < 4 || string(data[:4]) != "fLaC" {
		return nil, &types.FormatError{
			Format: types.FormatFLAC,
			Reason: "missing fLaC stream marker",
		}
	}

	blocks, audioStart, err := parseBlocks(data)
	if err != nil {
		return nil, err
	}

	vendor := cfg.Vendor
	if vendor == "" {
		vendor = types.DefaultVendor
	}
	comment := vorbis.BuildCommentBlock(vendor, fields, false)

	// Replace the first VORBIS_COMMENT block; append if none exists
	replaced := false
	rebuilt := make([]Block, 0, len(blocks)+1)
	for _, blk := range blocks {
		if blk.Type == blockTypeVorbisComment && !replaced {
			rebuilt = append(rebuilt, Block{Type: blockTypeVorbisComment, Payload: comment})
			replaced = true
			continue
		}
		rebuilt = append(rebuilt, blk)
	}
	if !replaced {
		rebuilt = append(rebuilt, Block{Type: blockTypeVorbisComment, Payload: comment})
	}

	out := binary.NewBuilder()
	out.String("fLaC")
	for i, blk := range rebuilt {
		header := blk.Type & 0x7F
		if i == len(rebuilt)-1 {
			header |= 0x80 // last-metadata-block flag
		}
		out.Byte(header).U24BE(uint32(len(blk.Payload))).Raw(blk.Payload)
	}
	out.Raw(data[audioStart:])

	return out.Bytes(), nil
}

// parseBlocks walks the metadata block chain. It returns the blocks and the
// offset of the first audio frame (the byte after the last metadata block).
func parseBlocks(data []byte) ([]Block, int64, error) {
	sr := binary.NewSafeReader(data, "FLAC metadata")
	var blocks []Block

	offset := int64(4)
	for offset < sr.Len() {
		header, err := binary.Read[uint8](sr, offset, "block header")
		if err != nil {
			return nil, 0, err
		}
		isLast := header&0x80 != 0
		blockType := header & 0x7F

		length, err := readBlockLength(sr, offset+1)
		if err != nil {
			return nil, 0, err
		}

		if offset+4+length > sr.Len() {
			return nil, 0, &types.UnsupportedLayoutError{
				Format: types.FormatFLAC,
				Offset: offset,
				Reason: "metadata block length runs past end of buffer",
			}
		}

		payload, err := sr.Bytes(offset+4, int(length), "block payload")
		if err != nil {
			return nil, 0, err
		}
		blocks = append(blocks, Block{Type: blockType, Payload: payload})
		offset += 4 + length

		if isLast {
			return blocks, offset, nil
		}
	}

	return nil, 0, &types.UnsupportedLayoutError{
		Format: types.FormatFLAC,
		Offset: offset,
		Reason: "metadata block chain has no terminal block",
	}
}

// readBlockLength reads the 24-bit big-endian block length.
func readBlockLength(sr *binary.SafeReader, off int64) (int64, error) {
	buf, err := sr.Bytes(off, 3, "block length")
	if err != nil {
		return 0, err
	}
	return int64(buf[0])<<16 | int64(buf[1])<<8 | int64(buf[2]), nil
}

// init registers the FLAC codec.
func init() {
	registry.Register(types.FormatFLAC, &codec{})
}
