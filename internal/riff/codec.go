// Package riff implements INFO metadata writing for RIFF containers
// (WAV and AVI).
//
// RIFF chunks are FourCC + 4-byte little-endian size, padded to even length.
// Metadata lives in a LIST chunk with sub-type INFO holding null-terminated
// text entries. The rewrite removes every existing INFO list, appends a
// rebuilt one at the end of the RIFF body, and rewrites the master RIFF size.
package riff

import (
	"github.com/DNAi-inc/DNExif-sub006/internal/binary"
	"github.com/DNAi-inc/DNExif-sub006/internal/registry"
	"github.com/DNAi-inc/DNExif-sub006/internal/types"
)

// Chunk is one framing unit of the RIFF body.
type Chunk struct {
	ID     string // FourCC
	Offset int64  // Position in the buffer
	Size   uint32 // Declared payload size (excludes header and padding)
	Raw    []byte // Header + payload + padding byte if present
}

// Total returns the chunk's full extent including header and padding.
func (c *Chunk) Total() int64 {
	total := int64(8) + int64(c.Size)
	if c.Size%2 == 1 {
		total++
	}
	return total
}

// IsInfoList reports whether the chunk is a LIST chunk with sub-type INFO.
func (c *Chunk) IsInfoList() bool {
	return c.ID == "LIST" && len(c.Raw) >= 12 && string(c.Raw[8:12]) == "INFO"
}

// codec implements the registry.Codec interface for one RIFF form type.
type codec struct {
	format   types.Format
	formType string
}

// Entry is a single INFO entry: a FourCC field identifier and its text value.
type Entry struct {
	Tag   string // e.g. "INAM"
	Value string
}

// infoFields maps logical fields to INFO FourCCs in output order, together
// with the request keys honored for each, most specific first.
var infoFields = []struct {
	tag  string
	keys func(format types.Format) []string
}{
	{"INAM", func(f types.Format) []string {
		if f == types.FormatAVI {
			return []string{"XMP:Title", "Video:AVI:Title", "Title"}
		}
		return []string{"XMP:Title", "Audio:WAV:Title", "Title"}
	}},
	{"IART", func(f types.Format) []string {
		if f == types.FormatAVI {
			return []string{"EXIF:Artist", "Video:AVI:Artist", "Artist"}
		}
		return []string{"EXIF:Artist", "Audio:WAV:Artist", "Artist"}
	}},
	{"IPRD", func(f types.Format) []string {
		if f == types.FormatAVI {
			return []string{"Video:AVI:Album", "Album"}
		}
		return []string{"Audio:WAV:Album", "Album"}
	}},
	{"ICMT", func(f types.Format) []string {
		if f == types.FormatAVI {
			return []string{"Video:AVI:Comment", "Comment"}
		}
		return []string{"Audio:WAV:Comment", "Comment"}
	}},
	{"ICOP", func(f types.Format) []string {
		return []string{"XMP:Copyright", "Copyright"}
	}},
}

// Write rewrites the RIFF body with a rebuilt INFO list.
func (c *codec) Write(data []byte, req types.Request, _ types.WriteConfig) ([]byte, error) {
	entries := selectEntries(c.format, req)
	if len(entries) == 0 {
		return nil, &types.UnsupportedWriteError{
			Format: c.format,
			Reason: "no supported metadata fields in request (expected XMP:Title)",
		}
	}

	if len(data) < 12 || string(data[:4]) != "RIFF" || string(data[8:12]) != c.formType {
		return nil, &types.FormatError{
			Format: c.format,
			Reason: "missing RIFF/" + c.formType + " signature",
		}
	}

	chunks, err := parseChunks(c.format, data)
	if err != nil {
		return nil, err
	}

	infoChunk := BuildInfoList(entries)

	// Rebuild the body: every chunk except existing INFO lists, byte for
	// byte, then the new INFO list at the end.
	bodyLen := len(infoChunk)
	for i := range chunks {
		if !chunks[i].IsInfoList() {
			bodyLen += len(chunks[i].Raw)
		}
	}

	out := make([]byte, 0, 12+bodyLen+1)
	out = append(out, data[:12]...)
	for i := range chunks {
		if chunks[i].IsInfoList() {
			continue
		}
		out = append(out, chunks[i].Raw...)
		// Restore the pad byte a producer omitted on its final chunk so
		// the appended INFO list starts on an even offset.
		if len(chunks[i].Raw)%2 == 1 {
			out = append(out, 0)
		}
	}
	out = append(out, infoChunk...)

	// Master RIFF size covers everything after the 8-byte RIFF header
	riffSize := uint32(len(out) - 8)
	out[4] = byte(riffSize)
	out[5] = byte(riffSize >> 8)
	out[6] = byte(riffSize >> 16)
	out[7] = byte(riffSize >> 24)

	return out, nil
}

// selectEntries applies the per-field key precedence to the request.
func selectEntries(format types.Format, req types.Request) []Entry {
	var entries []Entry
	for _, f := range infoFields {
		if v := req.First(f.keys(format)...); v != "" {
			entries = append(entries, Entry{Tag: f.tag, Value: v})
		}
	}
	return entries
}

// parseChunks walks the RIFF body into its ordered chunk list. A chunk whose
// declared size runs past the buffer is a failure, not a truncation.
func parseChunks(format types.Format, data []byte) ([]Chunk, error) {
	sr := binary.NewSafeReader(data, "RIFF body")
	var chunks []Chunk

	offset := int64(12)
	for offset < sr.Len() {
		if offset+8 > sr.Len() {
			return nil, &types.UnsupportedLayoutError{
				Format: format,
				Offset: offset,
				Reason: "trailing bytes too short for a chunk header",
			}
		}

		id, err := sr.Bytes(offset, 4, "chunk id")
		if err != nil {
			return nil, err
		}
		size, err := binary.ReadLE[uint32](sr, offset+4, "chunk size")
		if err != nil {
			return nil, err
		}

		chunk := Chunk{ID: string(id), Offset: offset, Size: size}
		total := chunk.Total()

		// The final chunk of some producers omits the padding byte; only
		// the payload itself must fit.
		if offset+8+int64(size) > sr.Len() {
			return nil, &types.UnsupportedLayoutError{
				Format: format,
				Offset: offset,
				Reason: "chunk size runs past end of buffer",
			}
		}
		if offset+total > sr.Len() {
			total = sr.Len() - offset
		}

		chunk.Raw = data[offset : offset+total]
		chunks = append(chunks, chunk)
		offset += total
	}

	return chunks, nil
}

// BuildInfoEntry constructs one INFO entry: FourCC + little-endian length +
// null-terminated text, padded to even length.
func BuildInfoEntry(tag string, value string) []byte {
	text := []byte(value)
	if len(text) == 0 || text[len(text)-1] != 0 {
		text = append(text, 0)
	}

	b := binary.NewBuilder()
	b.String(tag).U32LE(uint32(len(text))).Raw(text)
	if len(text)%2 == 1 {
		b.Byte(0)
	}
	return b.Bytes()
}

// BuildInfoList constructs a complete LIST/INFO chunk from the entries, in
// order, padded to even length.
func BuildInfoList(entries []Entry) []byte {
	payload := binary.NewBuilder()
	payload.String("INFO")
	for _, e := range entries {
		payload.Raw(BuildInfoEntry(e.Tag, e.Value))
	}

	b := binary.NewBuilder()
	b.String("LIST").U32LE(uint32(payload.Len())).Raw(payload.Bytes())
	if payload.Len()%2 == 1 {
		b.Byte(0)
	}
	return b.Bytes()
}

// init registers the RIFF codec for both WAV and AVI form types.
func init() {
	registry.Register(types.FormatWAV, &codec{format: types.FormatWAV, formType: "WAVE"})
	registry.Register(types.FormatAVI, &codec{format: types.FormatAVI, formType: "AVI "})
}
