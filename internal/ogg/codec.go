// Package ogg implements comment writing for Ogg Vorbis and Opus streams.
//
// An Ogg page is a fixed 27-byte header, a lacing table of 1-byte values, and
// a payload whose length is the sum of the lacing values. A lacing value of
// 255 means the packet continues in the next entry; the first value below 255
// terminates it. The comment packet is replaced in place within its page: the
// page keeps its position in the stream and its checksum is recomputed over
// the final assembled bytes in a single pass.
package ogg

import (
	"bytes"

	"github.com/DNAi-inc/DNExif-sub006/internal/crc"
	"github.com/DNAi-inc/DNExif-sub006/internal/registry"
	"github.com/DNAi-inc/DNExif-sub006/internal/types"
	"github.com/DNAi-inc/DNExif-sub006/internal/varint"
	"github.com/DNAi-inc/DNExif-sub006/internal/vorbis"
)

const (
	// pageHeaderLen is the fixed Ogg page header size before the lacing table.
	pageHeaderLen = 27

	// maxLacingEntries is the protocol ceiling for the lacing table.
	maxLacingEntries = 255

	// checksumOffset is the position of the CRC field within the page header.
	checksumOffset = 22
)

// Comment packet signatures.
var (
	vorbisCommentSig = []byte("\x03vorbis")
	opusTagsSig      = []byte("OpusTags")
)

// Page is one parsed Ogg page.
type Page struct {
	Offset  int64  // Position of the "OggS" capture pattern
	Header  []byte // The fixed 27-byte header
	Lacing  []byte // Lacing table (1 byte per entry)
	Payload []byte // Payload bytes, len == sum of lacing values
}

// End returns the offset just past the page.
func (p *Page) End() int64 {
	return p.Offset + pageHeaderLen + int64(len(p.Lacing)) + int64(len(p.Payload))
}

// codec implements the registry.Codec interface for one Ogg codec type.
type codec struct {
	format    types.Format
	signature []byte
	framing   bool // Vorbis comment packets end with a framing bit, Opus ones do not
}

// Write locates the page carrying the comment packet and replaces the packet.
func (c *codec) Write(data []byte, req types.Request, cfg types.WriteConfig) ([]byte, error) {
	fields := vorbis.StandardFields(req, "Audio:OGG", "Audio:OPUS")
	if len(fields) == 0 {
		return nil, &types.UnsupportedWriteError{
			Format: c.format,
			Reason: "no supported metadata fields in request (expected XMP:Title)",
		}
	}

	if len(data) < 4 || string(data[:4]) != "OggS" {
		return nil, &types.FormatError{
			Format: c.format,
			Reason: "missing OggS capture pattern",
		}
	}

	vendor := cfg.Vendor
	if vendor == "" {
		vendor = types.DefaultVendor
	}
	packet := append(append([]byte{}, c.signature...),
		vorbis.BuildCommentBlock(vendor, fields, c.framing)...)

	offset := int64(0)
	for offset+pageHeaderLen <= int64(len(data)) {
		page, err := readPage(c.format, data, offset)
		if err != nil {
			return nil, err
		}

		if bytes.HasPrefix(page.Payload, c.signature) {
			rebuilt, err := c.replacePacket(page, packet)
			if err != nil {
				return nil, err
			}

			out := make([]byte, 0, int64(len(data))-page.End()+page.Offset+int64(len(rebuilt)))
			out = append(out, data[:page.Offset]...)
			out = append(out, rebuilt...)
			out = append(out, data[page.End():]...)
			return out, nil
		}

		offset = page.End()
	}

	return nil, &types.FormatError{
		Format: c.format,
		Reason: "no comment packet found in stream",
	}
}

// readPage parses the page at the given offset. A lacing table or payload
// running past the buffer is a failure, not a truncation.
func readPage(format types.Format, data []byte, offset int64) (*Page, error) {
	if string(data[offset:offset+4]) != "OggS" {
		return nil, &types.FormatError{
			Format: format,
			Offset: offset,
			Reason: "expected OggS capture pattern",
		}
	}

	header := data[offset : offset+pageHeaderLen]
	segCount := int64(header[26])

	lacingEnd := offset + pageHeaderLen + segCount
	if lacingEnd > int64(len(data)) {
		return nil, &types.UnsupportedLayoutError{
			Format: format,
			Offset: offset,
			Reason: "lacing table runs past end of buffer",
		}
	}
	lacing := data[offset+pageHeaderLen : lacingEnd]

	payloadLen := int64(0)
	for _, v := range lacing {
		payloadLen += int64(v)
	}
	if lacingEnd+payloadLen > int64(len(data)) {
		return nil, &types.UnsupportedLayoutError{
			Format: format,
			Offset: offset,
			Reason: "page payload runs past end of buffer",
		}
	}

	return &Page{
		Offset:  offset,
		Header:  header,
		Lacing:  lacing,
		Payload: data[lacingEnd : lacingEnd+payloadLen],
	}, nil
}

// replacePacket swaps the leading comment packet of the page for the new
// packet bytes, preserving any trailing packet data (a continued setup
// packet) verbatim, and recomputes the page checksum.
func (c *codec) replacePacket(page *Page, packet []byte) ([]byte, error) {
	// Consume lacing entries up to and including the first value below 255
	// to find the extent of the comment packet on this page.
	consumed := 0
	packetLen := 0
	terminated := false
	for _, v := range page.Lacing {
		consumed++
		packetLen += int(v)
		if v < 255 {
			terminated = true
			break
		}
	}
	if !terminated {
		return nil, &types.UnsupportedLayoutError{
			Format: c.format,
			Offset: page.Offset,
			Reason: "comment packet spans multiple pages",
		}
	}

	remainderLacing := page.Lacing[consumed:]
	remainderPayload := page.Payload[packetLen:]

	newLacing := varint.Lacing(len(packet))
	if len(newLacing)+len(remainderLacing) > maxLacingEntries {
		return nil, &types.StructuralLimitError{
			Format: c.format,
			Limit:  "page lacing table entries",
			Max:    maxLacingEntries,
			Needed: len(newLacing) + len(remainderLacing),
		}
	}

	remainderLen := 0
	for _, v := range remainderLacing {
		remainderLen += int(v)
	}
	if remainderLen != len(remainderPayload) {
		return nil, &types.IntegrityCheckError{
			Format:   c.format,
			What:     "preserved page remainder",
			Expected: remainderLen,
			Found:    len(remainderPayload),
		}
	}

	// Assemble the final page with a zeroed checksum field, then compute
	// the CRC in a single pass over the assembled bytes and patch it in.
	out := make([]byte, 0, pageHeaderLen+len(newLacing)+len(remainderLacing)+len(packet)+len(remainderPayload))
	out = append(out, page.Header...)
	out[26] = byte(len(newLacing) + len(remainderLacing))
	out[checksumOffset] = 0
	out[checksumOffset+1] = 0
	out[checksumOffset+2] = 0
	out[checksumOffset+3] = 0
	out = append(out, newLacing...)
	out = append(out, remainderLacing...)
	out = append(out, packet...)
	out = append(out, remainderPayload...)

	sum := crc.Checksum(out)
	out[checksumOffset] = byte(sum)
	out[checksumOffset+1] = byte(sum >> 8)
	out[checksumOffset+2] = byte(sum >> 16)
	out[checksumOffset+3] = byte(sum >> 24)

	return out, nil
}

// init registers the Ogg codec for both Vorbis and Opus streams.
func init() {
	registry.Register(types.FormatOgg, &codec{
		format:    types.FormatOgg,
		signature: vorbisCommentSig,
		framing:   true,
	})
	registry.Register(types.FormatOpus, &codec{
		format:    types.FormatOpus,
		signature: opusTagsSig,
		framing:   false,
	})
}
