// Package mp3 implements ID3v2 tag writing for MP3 files.
//
// The tag sits in front of the MPEG audio stream, so the rewrite strips any
// existing ID3v2 tag (its size is a synchsafe integer) and prepends a fresh
// ID3v2.3 tag holding the requested text frames. The audio payload is copied
// through untouched.
package mp3

import (
	"github.com/DNAi-inc/DNExif-sub006/internal/binary"
	"github.com/DNAi-inc/DNExif-sub006/internal/registry"
	"github.com/DNAi-inc/DNExif-sub006/internal/types"
	"github.com/DNAi-inc/DNExif-sub006/internal/varint"
)

// Frame is one ID3v2 text frame: a 4-character frame ID and its text value.
type Frame struct {
	ID    string // e.g. "TIT2"
	Value string
}

// codec implements the registry.Codec interface for MP3 files.
type codec struct{}

// textFrames maps logical fields to ID3v2.3 frame IDs in output order,
// together with the request keys honored for each, most specific first.
var textFrames = []struct {
	id   string
	keys []string
}{
	{"TIT2", []string{"XMP:Title", "Audio:MP3:Title", "Title"}},
	{"TPE1", []string{"EXIF:Artist", "Audio:MP3:Artist", "Artist"}},
	{"TALB", []string{"Audio:MP3:Album", "Album"}},
	{"TCOP", []string{"XMP:Copyright", "Copyright"}},
}

// Write strips any existing ID3v2 tag and prepends a rebuilt one.
func (c *codec) Write(data []byte, req types.Request, _ types.WriteConfig) ([]byte, error) {
	var frames []Frame
	for _, f := range textFrames {
		if v := req.First(f.keys...); v != "" {
			frames = append(frames, Frame{ID: f.id, Value: v})
		}
	}
	if len(frames) == 0 {
		return nil, &types.UnsupportedWriteError{
			Format: types.FormatMP3,
			Reason: "no supported metadata fields in request (expected XMP:Title)",
		}
	}

	if len(data) < 10 {
		return nil, &types.FormatError{
			Format: types.FormatMP3,
			Reason: "buffer too small for an MPEG stream",
		}
	}

	audio, err := stripTag(data)
	if err != nil {
		return nil, err
	}

	tag := BuildTag(frames)
	out := make([]byte, 0, len(tag)+len(audio))
	out = append(out, tag...)
	out = append(out, audio...)
	return out, nil
}

// stripTag removes a leading ID3v2 tag, returning the audio payload.
func stripTag(data []byte) ([]byte, error) {
	if string(data[:3]) != "ID3" {
		return data, nil
	}

	size := varint.Unsynchsafe([4]byte(data[6:10]))
	cutoff := int64(10) + int64(size)
	if data[5]&0x10 != 0 {
		cutoff += 10 // ID3v2.4 footer
	}
	if cutoff >= int64(len(data)) {
		return nil, &types.UnsupportedLayoutError{
			Format: types.FormatMP3,
			Offset: 6,
			Reason: "ID3v2 tag size covers the whole buffer",
		}
	}
	return data[cutoff:], nil
}

// BuildTextFrame constructs an ID3v2.3 text frame. The payload is a text
// encoding byte (0 = ISO-8859-1) followed by the null-terminated value.
func BuildTextFrame(id string, value string) []byte {
	text := encodeLatin1(value)
	if len(text) == 0 || text[len(text)-1] != 0 {
		text = append(text, 0)
	}

	b := binary.NewBuilder()
	b.String(id)
	b.U32BE(uint32(len(text) + 1)) // frame size excludes the 10-byte frame header
	b.U16BE(0)                     // frame flags
	b.Byte(0)                      // encoding: ISO-8859-1
	b.Raw(text)
	return b.Bytes()
}

// BuildTag constructs a complete ID3v2.3 tag holding the given frames.
func BuildTag(frames []Frame) []byte {
	body := binary.NewBuilder()
	for _, f := range frames {
		body.Raw(BuildTextFrame(f.ID, f.Value))
	}

	size := varint.Synchsafe(uint32(body.Len()))

	tag := binary.NewBuilder()
	tag.String("ID3")
	tag.Byte(3).Byte(0) // version 2.3.0
	tag.Byte(0)         // flags
	tag.Raw(size[:])
	tag.Raw(body.Bytes())
	return tag.Bytes()
}

// encodeLatin1 converts a UTF-8 string to ISO-8859-1 bytes, substituting '?'
// for code points outside the Latin-1 range.
func encodeLatin1(s string) []byte {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		if r < 0x100 {
			out = append(out, byte(r))
		} else {
			out = append(out, '?')
		}
	}
	return out
}

// init registers the MP3 codec.
func init() {
	registry.Register(types.FormatMP3, &codec{})
}
