// Package ebml implements Tags writing for Matroska/WebM containers.
//
// EBML element IDs and sizes are self-describing variable-length fields: the
// position of the first set bit of the leading byte fixes the width (1-4
// bytes for IDs, 1-8 for sizes), and an all-ones size is the unknown-length
// sentinel. The rewrite inserts a Tags element among the Segment's direct
// children, immediately before the first Cluster so the media stays
// contiguous, and re-encodes the Segment's size field at its original byte
// width. A Segment using the unknown-size sentinel keeps its size field
// untouched.
package ebml

import (
	"github.com/DNAi-inc/DNExif-sub006/internal/binary"
	"github.com/DNAi-inc/DNExif-sub006/internal/registry"
	"github.com/DNAi-inc/DNExif-sub006/internal/types"
	"github.com/DNAi-inc/DNExif-sub006/internal/varint"
)

// Element IDs (conventional form, marker bits intact).
const (
	idEBMLHeader = 0x1A45DFA3
	idSegment    = 0x18538067
	idCluster    = 0x1F43B675
	idTags       = 0x1254C367
	idTag        = 0x7373
	idTargets    = 0x63C0
	idSimpleTag  = 0x67C8
	idTagName    = 0x45A3
	idTagString  = 0x4487
)

// SimpleTag is one name/value pair written into the Tags element.
type SimpleTag struct {
	Name  string
	Value string
}

// element is one parsed EBML element.
type element struct {
	id        uint32
	offset    int64
	headerLen int64 // ID width + size width
	size      uint64
	sizeWidth int
	unknown   bool // size field was the unknown-length sentinel
}

// end returns the offset just past the element, meaningless for unknown-size
// elements.
func (e *element) end() int64 {
	return e.offset + e.headerLen + int64(e.size)
}

// tagFields maps SimpleTag names to their request keys, most specific first.
var tagFields = []struct {
	name string
	keys []string
}{
	{"TITLE", []string{"XMP:Title", "Video:Matroska:Title", "Title"}},
	{"ARTIST", []string{"EXIF:Artist", "Video:Matroska:Artist", "Artist"}},
	{"COMMENT", []string{"Video:Matroska:Comment", "Comment"}},
	{"COPYRIGHT", []string{"XMP:Copyright", "Copyright"}},
}

// codec implements the registry.Codec interface for Matroska files.
type codec struct{}

// Write inserts a rebuilt Tags element into the top-level Segment.
func (c *codec) Write(data []byte, req types.Request, cfg types.WriteConfig) ([]byte, error) {
	var tags []SimpleTag
	for _, f := range tagFields {
		if v := req.First(f.keys...); v != "" {
			tags = append(tags, SimpleTag{Name: f.name, Value: v})
		}
	}
	if len(tags) == 0 {
		return nil, &types.UnsupportedWriteError{
			Format: types.FormatMatroska,
			Reason: "no supported metadata fields in request (expected XMP:Title)",
		}
	}

	// Every written Tags element records the writing software, same as the
	// vendor string in Vorbis comment blocks.
	vendor := cfg.Vendor
	if vendor == "" {
		vendor = types.DefaultVendor
	}
	tags = append(tags, SimpleTag{Name: "PROCESSING_SOFTWARE", Value: vendor})

	if len(data) < 4 || data[0] != 0x1A || data[1] != 0x45 || data[2] != 0xDF || data[3] != 0xA3 {
		return nil, &types.FormatError{
			Format: types.FormatMatroska,
			Reason: "missing EBML header",
		}
	}

	segment, err := findSegment(data)
	if err != nil {
		return nil, err
	}

	return spliceTags(data, segment, BuildTagsElement(tags))
}

// readElement reads the element header at the given offset. An element whose
// declared size runs past the buffer is a parse failure, not a truncation.
func readElement(data []byte, offset int64) (*element, error) {
	id, idWidth, err := varint.ReadEBMLID(data, int(offset))
	if err != nil {
		return nil, &types.UnsupportedLayoutError{
			Format: types.FormatMatroska,
			Offset: offset,
			Reason: err.Error(),
		}
	}
	size, sizeWidth, unknown, err := varint.ReadEBMLSize(data, int(offset)+idWidth)
	if err != nil {
		return nil, &types.UnsupportedLayoutError{
			Format: types.FormatMatroska,
			Offset: offset,
			Reason: err.Error(),
		}
	}

	el := &element{
		id:        id,
		offset:    offset,
		headerLen: int64(idWidth + sizeWidth),
		size:      size,
		sizeWidth: sizeWidth,
		unknown:   unknown,
	}
	if !unknown && el.end() > int64(len(data)) {
		return nil, &types.UnsupportedLayoutError{
			Format: types.FormatMatroska,
			Offset: offset,
			Reason: "element size runs past end of buffer",
		}
	}
	return el, nil
}

// findSegment walks the top-level elements to the Segment.
func findSegment(data []byte) (*element, error) {
	offset := int64(0)
	for offset < int64(len(data)) {
		el, err := readElement(data, offset)
		if err != nil {
			return nil, err
		}
		if el.id == idSegment {
			return el, nil
		}
		if el.unknown {
			return nil, &types.UnsupportedLayoutError{
				Format: types.FormatMatroska,
				Offset: offset,
				Reason: "unknown-size element before Segment",
			}
		}
		offset = el.end()
	}
	return nil, &types.FormatError{
		Format: types.FormatMatroska,
		Reason: "no Segment element found",
	}
}

// spliceTags rebuilds the Segment payload with existing direct-child Tags
// elements removed and the new Tags element inserted before the first
// Cluster, or at the end of the payload when no Cluster exists.
func spliceTags(data []byte, segment *element, tagsElement []byte) ([]byte, error) {
	payloadStart := segment.offset + segment.headerLen
	payloadEnd := int64(len(data))
	if !segment.unknown {
		payloadEnd = segment.end()
	}

	// Scan only the Segment's direct children.
	insertAt := payloadEnd
	var removals [][2]int64
	offset := payloadStart
	for offset < payloadEnd {
		child, err := readElement(data, offset)
		if err != nil {
			return nil, err
		}
		if child.id == idCluster {
			insertAt = child.offset
			// Media must remain contiguous from the first Cluster on;
			// everything after it is copied verbatim.
			break
		}
		if child.unknown {
			return nil, &types.UnsupportedLayoutError{
				Format: types.FormatMatroska,
				Offset: offset,
				Reason: "unknown-size element among Segment children",
			}
		}
		if child.id == idTags {
			removals = append(removals, [2]int64{child.offset, child.end()})
		}
		offset = child.end()
	}

	// Assemble the new payload. Every removed Tags element precedes the
	// insertion point, since scanning stops at the first Cluster.
	payload := binary.NewBuilder()
	pos := payloadStart
	for _, r := range removals {
		payload.Raw(data[pos:r[0]])
		pos = r[1]
	}
	payload.Raw(data[pos:insertAt])
	payload.Raw(tagsElement)
	payload.Raw(data[insertAt:payloadEnd])

	out := binary.NewBuilder()
	out.Raw(data[:segment.offset+int64(segmentIDWidth(segment))])
	if segment.unknown {
		// The unknown-size sentinel stays untouched
		out.Raw(data[segment.offset+int64(segmentIDWidth(segment)) : payloadStart])
	} else {
		sizeField := varint.EncodeEBMLSizeWidth(uint64(payload.Len()), segment.sizeWidth)
		if sizeField == nil {
			return nil, &types.StructuralLimitError{
				Format: types.FormatMatroska,
				Limit:  "Segment size at original field width",
				Max:    1<<(7*segment.sizeWidth) - 2,
				Needed: payload.Len(),
			}
		}
		out.Raw(sizeField)
	}
	out.Raw(payload.Bytes())
	out.Raw(data[payloadEnd:])

	return out.Bytes(), nil
}

// segmentIDWidth returns the byte width of the element's ID field.
func segmentIDWidth(e *element) int {
	return int(e.headerLen) - e.sizeWidth
}

// encodeElement wraps a payload in an EBML ID and minimal-width size field.
func encodeElement(id uint32, payload []byte) []byte {
	b := binary.NewBuilder()
	b.Raw(encodeID(id))
	b.Raw(varint.EncodeEBMLSize(uint64(len(payload))))
	b.Raw(payload)
	return b.Bytes()
}

// encodeID emits an element ID with its marker bits intact.
func encodeID(id uint32) []byte {
	switch {
	case id <= 0xFF:
		return []byte{byte(id)}
	case id <= 0xFFFF:
		return []byte{byte(id >> 8), byte(id)}
	case id <= 0xFFFFFF:
		return []byte{byte(id >> 16), byte(id >> 8), byte(id)}
	default:
		return []byte{byte(id >> 24), byte(id >> 16), byte(id >> 8), byte(id)}
	}
}

// BuildSimpleTag constructs one SimpleTag element (TagName + TagString).
func BuildSimpleTag(tag SimpleTag) []byte {
	b := binary.NewBuilder()
	b.Raw(encodeElement(idTagName, []byte(tag.Name)))
	b.Raw(encodeElement(idTagString, []byte(tag.Value)))
	return encodeElement(idSimpleTag, b.Bytes())
}

// BuildTagsElement constructs a complete Tags element: one Tag holding an
// empty Targets element (global scope) and the SimpleTags in order.
func BuildTagsElement(tags []SimpleTag) []byte {
	tagBody := binary.NewBuilder()
	tagBody.Raw(encodeElement(idTargets, nil))
	for _, t := range tags {
		tagBody.Raw(BuildSimpleTag(t))
	}
	return encodeElement(idTags, encodeElement(idTag, tagBody.Bytes()))
}

// init registers the Matroska codec.
func init() {
	registry.Register(types.FormatMatroska, &codec{})
}
