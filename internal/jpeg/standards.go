package jpeg

import (
	"strings"

	"github.com/DNAi-inc/DNExif-sub006/internal/binary"
	"github.com/DNAi-inc/DNExif-sub006/internal/types"
)

// ICC profile chunking limits. Profiles larger than one segment are split
// into a numbered run of APP2 segments sharing a 1-based (chunk, total) pair.
const (
	// maxICCChunk is the largest profile slice carried by one segment.
	maxICCChunk = 65504

	// maxICCChunkCount is the ceiling of the 1-byte chunk-count field.
	maxICCChunkCount = 255
)

// BuildJFIFSegment constructs a JFIF APP0 segment from scalar fields:
// Version ("1.1"), Units ("None"/"DPI"/"DPC"), XResolution, YResolution,
// ThumbnailWidth, ThumbnailHeight.
func BuildJFIFSegment(fields map[string]string) (Segment, error) {
	versionMajor, versionMinor := 1, 1
	if v := fields["Version"]; v != "" {
		major, minor, ok := strings.Cut(v, ".")
		versionMajor = atoiDefault(major, 1)
		if ok {
			versionMinor = atoiDefault(minor, 1)
		} else {
			versionMinor = 0
		}
	}

	units := 1 // DPI
	switch fields["Units"] {
	case "None":
		units = 0
	case "DPI", "":
		units = 1
	case "DPC":
		units = 2
	}

	b := binary.NewBuilder()
	b.Byte(byte(versionMajor)).Byte(byte(versionMinor))
	b.Byte(byte(units))
	b.U16BE(uint16(atoiDefault(fields["XResolution"], 72)))
	b.U16BE(uint16(atoiDefault(fields["YResolution"], 72)))
	b.Byte(byte(atoiDefault(fields["ThumbnailWidth"], 0)))
	b.Byte(byte(atoiDefault(fields["ThumbnailHeight"], 0)))

	return buildSegment(markerAPP0, sigJFIF, b.Bytes())
}

// BuildICCSegment constructs one APP2 segment of an ICC profile run.
// Chunk numbers are 1-based.
func BuildICCSegment(chunk []byte, chunkNum, totalChunks int) (Segment, error) {
	b := binary.NewBuilder()
	b.Byte(byte(chunkNum)).Byte(byte(totalChunks)).Raw(chunk)
	return buildSegment(markerAPP2, sigICC, b.Bytes())
}

// spliceICCProfile removes every existing ICC chunk segment and inserts the
// full new run contiguously: at the position of the first removed chunk if
// the profile was already present, otherwise after the leading APP segments.
func spliceICCProfile(segments []Segment, profile []byte) ([]Segment, error) {
	chunkCount := (len(profile) + maxICCChunk - 1) / maxICCChunk
	if chunkCount == 0 {
		chunkCount = 1
	}
	if chunkCount > maxICCChunkCount {
		return nil, &types.StructuralLimitError{
			Format: types.FormatJPEG,
			Limit:  "ICC profile chunk count",
			Max:    maxICCChunkCount,
			Needed: chunkCount,
		}
	}

	run := make([]Segment, 0, chunkCount)
	for i := 0; i < chunkCount; i++ {
		start := i * maxICCChunk
		end := start + maxICCChunk
		if end > len(profile) {
			end = len(profile)
		}
		seg, err := BuildICCSegment(profile[start:end], i+1, chunkCount)
		if err != nil {
			return nil, err
		}
		run = append(run, seg)
	}

	// Remove every existing chunk of the signature, remembering where the
	// run used to start.
	insertAt := -1
	kept := make([]Segment, 0, len(segments)+chunkCount)
	for _, seg := range segments {
		if seg.Is(markerAPP2, sigICC) {
			if insertAt < 0 {
				insertAt = len(kept)
			}
			continue
		}
		kept = append(kept, seg)
	}
	if insertAt < 0 {
		if i := lastAPP1(kept); i >= 0 {
			insertAt = i + 1
		} else {
			insertAt = 0
		}
	}

	out := make([]Segment, 0, len(kept)+chunkCount)
	out = append(out, kept[:insertAt]...)
	out = append(out, run...)
	out = append(out, kept[insertAt:]...)
	return out, nil
}

// BuildResourceBlock constructs one Photoshop "8BIM" resource block with an
// empty name and even-padded data.
func BuildResourceBlock(resourceID uint16, data []byte) []byte {
	padded := data
	if len(padded)%2 == 1 {
		padded = append(append([]byte{}, padded...), 0)
	}

	b := binary.NewBuilder()
	b.String("8BIM")
	b.U16BE(resourceID)
	b.Byte(0) // empty Pascal-string name
	b.Byte(0) // name padding to even length
	b.U32BE(uint32(len(padded)))
	b.Raw(padded)
	return b.Bytes()
}

// BuildPhotoshopSegment constructs an APP13 Photoshop IRB segment. Raw holds
// pre-serialized resource blocks from a collaborator; resources maps
// resource IDs (decimal strings) to values serialized here.
func BuildPhotoshopSegment(raw []byte, resources map[string]string) (Segment, error) {
	b := binary.NewBuilder()
	b.Raw(raw)
	for _, key := range sortedKeys(resources) {
		id := atoiDefault(key, 0)
		b.Raw(BuildResourceBlock(uint16(id), []byte(resources[key])))
	}
	return buildSegment(markerAPP13, sigPhotoshop, b.Bytes())
}

// BuildAFCPSegment constructs an APP2 AFCP segment holding length-prefixed
// key/value entries.
func BuildAFCPSegment(entries map[string]string) (Segment, error) {
	b := binary.NewBuilder()
	for _, key := range sortedKeys(entries) {
		b.U16BE(uint16(len(key))).String(key)
		b.U32BE(uint32(len(entries[key]))).String(entries[key])
	}
	return buildSegment(markerAPP2, sigAFCP, b.Bytes())
}
