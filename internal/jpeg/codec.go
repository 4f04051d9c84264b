// Package jpeg implements metadata segment splicing for JPEG files.
//
// A JPEG is a stream of marker segments (2-byte marker + 2-byte big-endian
// length) between SOI and the scan data. Several metadata kinds share marker
// values (EXIF and XMP both use APP1, ICC and AFCP both use APP2), so
// segments are identified by marker plus payload signature. The scan data
// from SOS onward is outside the framing and copied through verbatim.
//
// Field-level serialization (EXIF TIFF blobs, XMP packets) is a collaborator
// concern: the request carries the payload bytes under JPEG:* keys. The
// JFIF, Photoshop IRB, and AFCP segments are built here from scalar fields.
package jpeg

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"

	"github.com/DNAi-inc/DNExif-sub006/internal/registry"
	"github.com/DNAi-inc/DNExif-sub006/internal/types"
)

// JPEG markers.
const (
	markerSOI   = 0xD8
	markerEOI   = 0xD9
	markerSOS   = 0xDA
	markerAPP0  = 0xE0
	markerAPP1  = 0xE1
	markerAPP2  = 0xE2
	markerAPP13 = 0xED
)

// Payload signatures distinguishing metadata kinds that share a marker.
var (
	sigJFIF      = []byte("JFIF\x00")
	sigEXIF      = []byte("Exif\x00\x00")
	sigXMP       = []byte("http://ns.adobe.com/xap/1.0/\x00")
	sigICC       = []byte("ICC_PROFILE\x00")
	sigAFCP      = []byte("AFCP\x00\x00\x00\x00")
	sigPhotoshop = []byte("Photoshop 3.0\x00")
)

// Segment is one marker segment.
type Segment struct {
	Marker byte   // Second marker byte (0xE1 for APP1, etc.)
	Offset int64  // Position of the 0xFF marker byte
	Raw    []byte // Marker + length + payload
}

// Payload returns the segment bytes after the marker and length fields.
func (s *Segment) Payload() []byte {
	return s.Raw[4:]
}

// Is reports whether the segment carries the given marker and payload
// signature.
func (s *Segment) Is(marker byte, sig []byte) bool {
	return s.Marker == marker && bytes.HasPrefix(s.Payload(), sig)
}

// codec implements the registry.Codec interface for JPEG files.
type codec struct{}

// Write splices the requested metadata segments into the JPEG.
func (c *codec) Write(data []byte, req types.Request, _ types.WriteConfig) ([]byte, error) {
	segments, trailer, err := parseSegments(data)
	if err != nil {
		return nil, err
	}

	applied := false

	if v := req["JPEG:EXIF"]; v != "" {
		seg, err := buildSegment(markerAPP1, sigEXIF, []byte(v))
		if err != nil {
			return nil, err
		}
		segments = replaceOrInsert(segments, markerAPP1, sigEXIF, seg, 0)
		applied = true
	}

	if v := req["JPEG:XMP"]; v != "" {
		seg, err := buildSegment(markerAPP1, sigXMP, []byte(v))
		if err != nil {
			return nil, err
		}
		// XMP goes after its EXIF sibling when one exists
		pos := 0
		if i := locate(segments, markerAPP1, sigEXIF); i >= 0 {
			pos = i + 1
		}
		segments = replaceOrInsert(segments, markerAPP1, sigXMP, seg, pos)
		applied = true
	}

	if v := req["JPEG:ICCProfile"]; v != "" {
		segments, err = spliceICCProfile(segments, []byte(v))
		if err != nil {
			return nil, err
		}
		applied = true
	}

	if req.HasPrefix("JFIF:") {
		seg, err := BuildJFIFSegment(req.WithPrefix("JFIF:"))
		if err != nil {
			return nil, err
		}
		segments = replaceOrInsert(segments, markerAPP0, sigJFIF, seg, 0)
		applied = true
	}

	if req.HasPrefix("PS:") || req["JPEG:Photoshop"] != "" {
		seg, err := BuildPhotoshopSegment([]byte(req["JPEG:Photoshop"]), req.WithPrefix("PS:"))
		if err != nil {
			return nil, err
		}
		pos := 0
		if i := lastAPP1(segments); i >= 0 {
			pos = i + 1
		}
		segments = replaceOrInsert(segments, markerAPP13, sigPhotoshop, seg, pos)
		applied = true
	}

	if req.HasPrefix("AFCP:") {
		seg, err := BuildAFCPSegment(req.WithPrefix("AFCP:"))
		if err != nil {
			return nil, err
		}
		pos := 0
		if i := lastAPP1(segments); i >= 0 {
			pos = i + 1
		}
		segments = replaceOrInsert(segments, markerAPP2, sigAFCP, seg, pos)
		applied = true
	}

	if !applied {
		return nil, &types.UnsupportedWriteError{
			Format: types.FormatJPEG,
			Reason: "no supported metadata fields in request (expected JPEG:*, JFIF:*, PS:*, or AFCP:* keys)",
		}
	}

	out := make([]byte, 0, len(data))
	out = append(out, 0xFF, markerSOI)
	for _, seg := range segments {
		out = append(out, seg.Raw...)
	}
	out = append(out, trailer...)
	return out, nil
}

// parseSegments walks the marker segments after SOI, skipping fill bytes,
// and returns them along with the trailing region (SOS or EOI onward),
// which is outside the segment framing.
func parseSegments(data []byte) ([]Segment, []byte, error) {
	if len(data) < 2 || data[0] != 0xFF || data[1] != markerSOI {
		return nil, nil, &types.FormatError{
			Format: types.FormatJPEG,
			Reason: "missing SOI marker",
		}
	}

	var segments []Segment
	offset := int64(2)

	for offset < int64(len(data)) {
		if data[offset] != 0xFF {
			return nil, nil, &types.UnsupportedLayoutError{
				Format: types.FormatJPEG,
				Offset: offset,
				Reason: fmt.Sprintf("expected marker, found 0x%02x", data[offset]),
			}
		}

		// Skip fill bytes: repeated 0xFF, or 0xFF 0x00 stuffing
		if offset+1 < int64(len(data)) && data[offset+1] == 0xFF {
			offset++
			continue
		}
		if offset+1 < int64(len(data)) && data[offset+1] == 0x00 {
			offset += 2
			continue
		}
		if offset+2 > int64(len(data)) {
			break
		}

		marker := data[offset+1]
		if marker == markerEOI || marker == markerSOS {
			// Scan data and everything after it stays outside the framing
			return segments, data[offset:], nil
		}

		if offset+4 > int64(len(data)) {
			return nil, nil, &types.UnsupportedLayoutError{
				Format: types.FormatJPEG,
				Offset: offset,
				Reason: "segment header runs past end of buffer",
			}
		}
		length := int64(data[offset+2])<<8 | int64(data[offset+3])
		if length < 2 {
			return nil, nil, &types.UnsupportedLayoutError{
				Format: types.FormatJPEG,
				Offset: offset,
				Reason: fmt.Sprintf("segment length %d below minimum", length),
			}
		}
		if offset+2+length > int64(len(data)) {
			return nil, nil, &types.UnsupportedLayoutError{
				Format: types.FormatJPEG,
				Offset: offset,
				Reason: "segment length runs past end of buffer",
			}
		}

		segments = append(segments, Segment{
			Marker: marker,
			Offset: offset,
			Raw:    data[offset : offset+2+length],
		})
		offset += 2 + length
	}

	return segments, nil, nil
}

// locate returns the index of the first segment matching marker and
// signature, or -1.
func locate(segments []Segment, marker byte, sig []byte) int {
	for i := range segments {
		if segments[i].Is(marker, sig) {
			return i
		}
	}
	return -1
}

// lastAPP1 returns the index of the last APP1 segment, or -1.
func lastAPP1(segments []Segment) int {
	last := -1
	for i := range segments {
		if segments[i].Marker == markerAPP1 {
			last = i
		}
	}
	return last
}

// replaceOrInsert replaces the first segment matching marker and signature
// with newSeg (removing any further matches), or inserts newSeg at
// insertAt if no match exists.
func replaceOrInsert(segments []Segment, marker byte, sig []byte, newSeg Segment, insertAt int) []Segment {
	out := make([]Segment, 0, len(segments)+1)
	replaced := false
	for _, seg := range segments {
		if seg.Is(marker, sig) {
			if !replaced {
				out = append(out, newSeg)
				replaced = true
			}
			continue
		}
		out = append(out, seg)
	}
	if replaced {
		return out
	}

	if insertAt > len(out) {
		insertAt = len(out)
	}
	out = append(out, Segment{})
	copy(out[insertAt+1:], out[insertAt:])
	out[insertAt] = newSeg
	return out
}

// buildSegment wraps a signature and payload in a marker segment. The
// 2-byte length field covers itself, the signature, and the payload;
// a payload it cannot declare is a structural limit, not a truncation.
func buildSegment(marker byte, sig, payload []byte) (Segment, error) {
	length := 2 + len(sig) + len(payload)
	if length > 0xFFFF {
		return Segment{}, &types.StructuralLimitError{
			Format: types.FormatJPEG,
			Limit:  "segment length field",
			Max:    0xFFFF,
			Needed: length,
		}
	}
	raw := make([]byte, 0, 2+length)
	raw = append(raw, 0xFF, marker)
	raw = append(raw, byte(length>>8), byte(length))
	raw = append(raw, sig...)
	raw = append(raw, payload...)
	return Segment{Marker: marker, Raw: raw}, nil
}

// sortedKeys returns the map's keys in sorted order so built segments are
// deterministic for identical requests.
func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// atoiDefault parses s as an integer, falling back to def.
func atoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

// init registers the JPEG codec.
func init() {
	registry.Register(types.FormatJPEG, &codec{})
}
