package ogg

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/DNAi-inc/DNExif-sub006/internal/crc"
	"github.com/DNAi-inc/DNExif-sub006/internal/registry"
	"github.com/DNAi-inc/DNExif-sub006/internal/types"
	"github.com/DNAi-inc/DNExif-sub006/internal/varint"
	"github.com/DNAi-inc/DNExif-sub006/internal/vorbis"
)

// buildPage assembles one Ogg page with a correct checksum from explicit
// lacing values and payload.
func buildPage(seqNo uint32, lacing []byte, payload []byte) []byte {
	buf := &bytes.Buffer{}
	buf.WriteString("OggS")
	buf.WriteByte(0)              // version
	buf.WriteByte(0)              // header type
	buf.Write(make([]byte, 8))    // granule position
	binary.Write(buf, binary.LittleEndian, uint32(0xD15C)) // serial
	binary.Write(buf, binary.LittleEndian, seqNo)
	buf.Write(make([]byte, 4)) // checksum, patched below
	buf.WriteByte(byte(len(lacing)))
	buf.Write(lacing)
	buf.Write(payload)

	page := buf.Bytes()
	sum := crc.Checksum(page)
	binary.LittleEndian.PutUint32(page[checksumOffset:], sum)
	return page
}

// buildPacketPage builds a page holding the given packets back to back.
func buildPacketPage(seqNo uint32, packets ...[]byte) []byte {
	var lacing, payload []byte
	for _, p := range packets {
		lacing = append(lacing, varint.Lacing(len(p))...)
		payload = append(payload, p...)
	}
	return buildPage(seqNo, lacing, payload)
}

// buildVorbisStream builds an identification page followed by a comment page.
func buildVorbisStream(commentPagePackets ...[]byte) []byte {
	ident := append([]byte("\x01vorbis"), make([]byte, 23)...)
	stream := buildPacketPage(0, ident)
	return append(stream, buildPacketPage(1, commentPagePackets...)...)
}

// verifyPages walks every page in the stream checking its stored checksum.
func verifyPages(t *testing.T, data []byte) []*Page {
	t.Helper()
	var pages []*Page
	offset := int64(0)
	for offset < int64(len(data)) {
		page, err := readPage(types.FormatOgg, data, offset)
		if err != nil {
			t.Fatalf("readPage at %d: %v", offset, err)
		}

		raw := append([]byte{}, data[page.Offset:page.End()]...)
		stored := binary.LittleEndian.Uint32(raw[checksumOffset:])
		raw[checksumOffset] = 0
		raw[checksumOffset+1] = 0
		raw[checksumOffset+2] = 0
		raw[checksumOffset+3] = 0
		if sum := crc.Checksum(raw); sum != stored {
			t.Errorf("page at %d: checksum 0x%08X, recomputed 0x%08X", page.Offset, stored, sum)
		}

		pages = append(pages, page)
		offset = page.End()
	}
	return pages
}

func oldComment() []byte {
	block := vorbis.BuildCommentBlock("old vendor", []vorbis.Field{{Key: "TITLE", Value: "Old"}}, true)
	return append([]byte("\x03vorbis"), block...)
}

func TestWrite_ReplacesCommentPacket(t *testing.T) {
	stream := buildVorbisStream(oldComment())

	out, err := registry.Get(types.FormatOgg).Write(stream, types.Request{"XMP:Title": "Shoreline"}, types.DefaultWriteConfig())
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	pages := verifyPages(t, out)
	if len(pages) != 2 {
		t.Fatalf("page count = %d, want 2", len(pages))
	}
	if bytes.Contains(out, []byte("old vendor")) {
		t.Error("old comment packet survived")
	}
	if !bytes.Contains(pages[1].Payload, []byte("TITLE=Shoreline")) {
		t.Error("new comment missing from comment page")
	}
	if out[pages[1].End()-1] != 0x01 {
		t.Error("Vorbis framing bit missing at end of comment packet")
	}

	// The identification page is untouched
	if !bytes.Equal(out[:pages[0].End()], stream[:pages[0].End()]) {
		t.Error("identification page changed")
	}
}

func TestWrite_CollapsesLacingRun(t *testing.T) {
	// The old comment packet occupies lacing [255, 255, 10]; the fresh one
	// is far smaller and must collapse to a single lacing value.
	big := oldComment()
	big = append(big, make([]byte, 520-len(big))...)
	stream := buildVorbisStream(big)

	fixture := verifyPages(t, stream)
	if !bytes.Equal(fixture[1].Lacing, []byte{255, 255, 10}) {
		t.Fatalf("fixture lacing = %v, want [255 255 10]", fixture[1].Lacing)
	}

	out, err := registry.Get(types.FormatOgg).Write(stream, types.Request{"Title": "t"}, types.DefaultWriteConfig())
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	pages := verifyPages(t, out)
	comment := pages[1]
	if len(comment.Lacing) != 1 {
		t.Errorf("rewritten lacing = %v, want a single entry", comment.Lacing)
	}
	if int(comment.Lacing[0]) != len(comment.Payload) {
		t.Errorf("lacing %d does not match payload length %d", comment.Lacing[0], len(comment.Payload))
	}
}

func TestWrite_PreservesTrailingPacket(t *testing.T) {
	// Comment and setup packets sharing one page: the setup packet must
	// come through byte for byte.
	setup := append([]byte("\x05vorbis"), bytes.Repeat([]byte{0x5A}, 40)...)
	stream := buildVorbisStream(oldComment(), setup)

	out, err := registry.Get(types.FormatOgg).Write(stream, types.Request{"Title": "t"}, types.DefaultWriteConfig())
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	pages := verifyPages(t, out)
	if !bytes.HasSuffix(pages[1].Payload, setup) {
		t.Error("setup packet not preserved after the new comment packet")
	}
}

func TestWrite_PacketSpanningPagesRejected(t *testing.T) {
	// All lacing entries are 255: the comment packet continues on the next
	// page, which the rewrite does not support.
	payload := append([]byte("\x03vorbis"), make([]byte, 510-7)...)
	stream := buildPacketPage(0, append([]byte("\x01vorbis"), make([]byte, 23)...))
	stream = append(stream, buildPage(1, []byte{255, 255}, payload)...)

	_, err := registry.Get(types.FormatOgg).Write(stream, types.Request{"Title": "t"}, types.DefaultWriteConfig())
	var ule *types.UnsupportedLayoutError
	if !errors.As(err, &ule) {
		t.Fatalf("Write() error = %v, want UnsupportedLayoutError", err)
	}
}

func TestWrite_LacingTableOverflow(t *testing.T) {
	// 253 one-byte trailing packets leave no room for a multi-entry
	// replacement lacing run.
	packets := [][]byte{oldComment()}
	for i := 0; i < 253; i++ {
		packets = append(packets, []byte{byte(i)})
	}
	stream := buildVorbisStream(packets...)

	// A ~600-byte comment needs three lacing entries; 3 + 253 > 255.
	long := bytes.Repeat([]byte("x"), 600)
	_, err := registry.Get(types.FormatOgg).Write(stream, types.Request{"Title": string(long)}, types.DefaultWriteConfig())
	var sle *types.StructuralLimitError
	if !errors.As(err, &sle) {
		t.Fatalf("Write() error = %v, want StructuralLimitError", err)
	}
}

func TestWrite_NoCommentPacket(t *testing.T) {
	stream := buildPacketPage(0, append([]byte("\x01vorbis"), make([]byte, 23)...))

	_, err := registry.Get(types.FormatOgg).Write(stream, types.Request{"Title": "t"}, types.DefaultWriteConfig())
	var fe *types.FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("Write() error = %v, want FormatError", err)
	}
}

func TestWrite_TruncatedLacingTable(t *testing.T) {
	stream := buildVorbisStream(oldComment())
	// Declare more lacing entries than bytes remain
	truncated := stream[:len(stream)-4]

	_, err := registry.Get(types.FormatOgg).Write(truncated, types.Request{"Title": "t"}, types.DefaultWriteConfig())
	var ule *types.UnsupportedLayoutError
	if !errors.As(err, &ule) {
		t.Fatalf("Write() error = %v, want UnsupportedLayoutError", err)
	}
}

func TestWrite_OpusTags(t *testing.T) {
	head := append([]byte("OpusHead"), make([]byte, 11)...)
	tags := append([]byte("OpusTags"), vorbis.BuildCommentBlock("old", nil, false)...)
	stream := buildPacketPage(0, head)
	stream = append(stream, buildPacketPage(1, tags)...)

	out, err := registry.Get(types.FormatOpus).Write(stream, types.Request{"Title": "Opus Track"}, types.DefaultWriteConfig())
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	pages := verifyPages(t, out)
	payload := pages[1].Payload
	if !bytes.HasPrefix(payload, []byte("OpusTags")) {
		t.Error("OpusTags signature missing")
	}
	if !bytes.Contains(payload, []byte("TITLE=Opus Track")) {
		t.Error("new comment missing")
	}
	// Opus comment packets carry no framing bit: the final field string is
	// the last thing in the packet.
	if !bytes.HasSuffix(payload, []byte("TITLE=Opus Track")) {
		t.Error("unexpected bytes after the last comment field")
	}
}

func TestWrite_Idempotent(t *testing.T) {
	stream := buildVorbisStream(oldComment())
	req := types.Request{"Title": "Same"}
	codec := registry.Get(types.FormatOgg)

	first, err := codec.Write(stream, req, types.DefaultWriteConfig())
	if err != nil {
		t.Fatalf("first Write() error = %v", err)
	}
	second, err := codec.Write(first, req, types.DefaultWriteConfig())
	if err != nil {
		t.Fatalf("second Write() error = %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Error("writing the same request twice changed the output")
	}
}
