// Package asf implements metadata writing for ASF containers (WMA/WMV).
//
// An ASF file opens with a Header Object (GUID + 8-byte little-endian size +
// child object count + reserved bytes) whose children include the Content
// Description Object and the Extended Content Description Object. The
// rewrite replaces or appends those two children, recomputes the header size
// and count, and copies everything after the header verbatim.
//
// The width of the reserved field before the first child is ambiguous across
// encoders (2 or 4 bytes); it is resolved by trial-parsing a candidate first
// child at each width and accepting whichever yields a structurally valid
// object. Neither width is assumed to be more correct than the other.
package asf

import (
	"golang.org/x/text/encoding/unicode"

	"github.com/DNAi-inc/DNExif-sub006/internal/binary"
	"github.com/DNAi-inc/DNExif-sub006/internal/registry"
	"github.com/DNAi-inc/DNExif-sub006/internal/types"
)

// objectHeaderLen is GUID + 8-byte size.
const objectHeaderLen = 24

// fixedHeaderLen is the Header Object GUID + size + 4-byte child count.
const fixedHeaderLen = 28

// utf16le encodes content-description strings; ASF stores them as UTF-16LE
// with a trailing null.
var utf16le = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// Object is one child object of the ASF header.
type Object struct {
	GUID GUID
	Raw  []byte // GUID + size + payload
}

// Fields is the typed field set for the content-description objects.
type Fields struct {
	Title       string
	Artist      string
	Copyright   string
	Description string
	Rating      string
}

// header is the parsed ASF Header Object.
type header struct {
	size          uint64
	count         uint32
	reservedWidth int
	reserved      []byte
	children      []Object
}

// codec implements the registry.Codec interface for ASF files.
type codec struct{}

// Write replaces or appends the content-description objects in the header.
func (c *codec) Write(data []byte, req types.Request, _ types.WriteConfig) ([]byte, error) {
	fields := Fields{
		Title:       req.First("XMP:Title", "Audio:WMA:Title", "Title"),
		Artist:      req.First("EXIF:Artist", "Audio:WMA:Artist", "Artist"),
		Copyright:   req.First("XMP:Copyright", "Copyright"),
		Description: req.First("Audio:WMA:Description", "Description", "Comment"),
		Rating:      req.First("Audio:WMA:Rating", "Rating"),
	}
	if fields == (Fields{}) {
		return nil, &types.UnsupportedWriteError{
			Format: types.FormatASF,
			Reason: "no supported metadata fields in request (expected XMP:Title)",
		}
	}

	hdr, err := parseHeader(data)
	if err != nil {
		return nil, err
	}

	contentDesc, err := BuildContentDescription(fields)
	if err != nil {
		return nil, err
	}
	extContentDesc, err := BuildExtendedContentDescription(fields)
	if err != nil {
		return nil, err
	}

	children := replaceOrAppend(hdr.children, guidContentDesc, contentDesc)
	children = replaceOrAppend(children, guidExtContentDesc, extContentDesc)

	// Recompute header size and child count; reserved bytes are preserved
	// byte for byte at their original width.
	newSize := uint64(fixedHeaderLen + hdr.reservedWidth)
	for i := range children {
		newSize += uint64(len(children[i].Raw))
	}

	out := binary.NewBuilder()
	out.Raw(data[:16])
	out.U64LE(newSize)
	out.U32LE(uint32(len(children)))
	out.Raw(hdr.reserved)
	for i := range children {
		out.Raw(children[i].Raw)
	}
	out.Raw(data[hdr.size:])

	return out.Bytes(), nil
}

// parseHeader parses the Header Object, resolving the reserved-field width
// by trial parsing.
func parseHeader(data []byte) (*header, error) {
	if len(data) < fixedHeaderLen+2 || !guidHeader.Matches(data[:16]) {
		return nil, &types.FormatError{
			Format: types.FormatASF,
			Reason: "missing ASF Header Object GUID",
		}
	}

	sr := binary.NewSafeReader(data, "ASF header")
	size, err := binary.ReadLE[uint64](sr, 16, "header object size")
	if err != nil {
		return nil, err
	}
	if size < fixedHeaderLen+2 || size > uint64(len(data)) {
		return nil, &types.UnsupportedLayoutError{
			Format: types.FormatASF,
			Offset: 16,
			Reason: "header object size inconsistent with buffer",
		}
	}
	count, err := binary.ReadLE[uint32](sr, 24, "header object count")
	if err != nil {
		return nil, err
	}

	for _, width := range []int{2, 4} {
		childStart := int64(fixedHeaderLen + width)
		if childStart > int64(size) {
			continue
		}
		children, ok := parseChildren(data, childStart, int64(size), count)
		if !ok {
			continue
		}
		return &header{
			size:          size,
			count:         count,
			reservedWidth: width,
			reserved:      data[fixedHeaderLen:childStart],
			children:      children,
		}, nil
	}

	return nil, &types.UnsupportedLayoutError{
		Format: types.FormatASF,
		Offset: fixedHeaderLen,
		Reason: "header layout unparsable at either reserved-field width",
	}
}

// parseChildren walks child objects from start to end. It reports failure
// instead of guessing when a declared size is structurally invalid.
func parseChildren(data []byte, start, end int64, count uint32) ([]Object, bool) {
	var children []Object
	offset := start
	for offset < end {
		if offset+objectHeaderLen > end {
			return nil, false
		}
		var guid GUID
		copy(guid[:], data[offset:offset+16])

		size := uint64(0)
		for i := 7; i >= 0; i-- {
			size = size<<8 | uint64(data[offset+16+int64(i)])
		}
		// Compare in uint64 space: a garbage size with the high bit set
		// must fail here, not overflow the int64 slice bound below.
		if size < objectHeaderLen || size > uint64(end-offset) {
			return nil, false
		}

		children = append(children, Object{
			GUID: guid,
			Raw:  data[offset : offset+int64(size)],
		})
		offset += int64(size)
	}

	// The declared count is advisory across encoders, but a parse that
	// found fewer objects than declared at this width picked the wrong
	// width.
	if count > 0 && uint32(len(children)) < count {
		return nil, false
	}
	return children, true
}

// replaceOrAppend replaces every child matching the GUID (in either byte
// order) with the new object, or appends it when absent.
func replaceOrAppend(children []Object, guid GUID, obj Object) []Object {
	out := make([]Object, 0, len(children)+1)
	replaced := false
	for _, child := range children {
		if guid.Matches(child.GUID[:]) {
			if !replaced {
				out = append(out, obj)
				replaced = true
			}
			continue
		}
		out = append(out, child)
	}
	if !replaced {
		out = append(out, obj)
	}
	return out
}

// encodeUTF16 converts s to UTF-16LE with a trailing null. Empty strings
// encode to nothing, matching the zero-length convention of the Content
// Description Object.
func encodeUTF16(s string) ([]byte, error) {
	if s == "" {
		return nil, nil
	}
	return utf16le.NewEncoder().Bytes([]byte(s + "\x00"))
}

// BuildContentDescription constructs the Content Description Object: five
// 2-byte lengths (title, author, copyright, description, rating) followed by
// the five UTF-16LE strings.
func BuildContentDescription(f Fields) (Object, error) {
	ordered := []string{f.Title, f.Artist, f.Copyright, f.Description, f.Rating}

	payload := binary.NewBuilder()
	encoded := make([][]byte, len(ordered))
	for i, s := range ordered {
		e, err := encodeUTF16(s)
		if err != nil {
			return Object{}, err
		}
		encoded[i] = e
		payload.U16LE(uint16(len(e)))
	}
	for _, e := range encoded {
		payload.Raw(e)
	}

	return buildObject(guidContentDesc, payload.Bytes())
}

// BuildExtendedContentDescription constructs the Extended Content
// Description Object: a descriptor count followed by name/type/value
// descriptors (type 0 = UTF-16LE string). An artist value also synthesizes
// a parallel WM/Author descriptor.
func BuildExtendedContentDescription(f Fields) (Object, error) {
	type descriptor struct {
		name  string
		value string
	}
	var descriptors []descriptor
	if f.Title != "" {
		descriptors = append(descriptors, descriptor{"WM/Title", f.Title})
	}
	if f.Artist != "" {
		descriptors = append(descriptors, descriptor{"WM/Author", f.Artist})
	}
	if f.Copyright != "" {
		descriptors = append(descriptors, descriptor{"WM/Copyright", f.Copyright})
	}

	payload := binary.NewBuilder()
	payload.U16LE(uint16(len(descriptors)))
	for _, d := range descriptors {
		name, err := encodeUTF16(d.name)
		if err != nil {
			return Object{}, err
		}
		value, err := encodeUTF16(d.value)
		if err != nil {
			return Object{}, err
		}
		payload.U16LE(uint16(len(name))).Raw(name)
		payload.U16LE(0) // value type: UTF-16LE string
		payload.U16LE(uint16(len(value))).Raw(value)
	}

	return buildObject(guidExtContentDesc, payload.Bytes())
}

// buildObject wraps a payload in an ASF object header.
func buildObject(guid GUID, payload []byte) (Object, error) {
	b := binary.NewBuilder()
	b.Raw(guid[:])
	b.U64LE(uint64(objectHeaderLen + len(payload)))
	b.Raw(payload)
	return Object{GUID: guid, Raw: b.Bytes()}, nil
}

// init registers the ASF codec.
func init() {
	registry.Register(types.FormatASF, &codec{})
}
