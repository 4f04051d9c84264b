package types

import "bytes"

// Format represents the detected container format
type Format int

const (
	// FormatUnknown represents an unknown or unsupported container.
	FormatUnknown Format = iota
	// FormatJPEG represents JPEG images (marker segment stream).
	FormatJPEG
	// FormatWAV represents RIFF/WAVE audio files.
	FormatWAV
	// FormatAVI represents RIFF/AVI video files.
	FormatAVI
	// FormatOgg represents Ogg Vorbis streams.
	FormatOgg
	// FormatOpus represents Ogg Opus streams.
	FormatOpus
	// FormatFLAC represents FLAC audio files.
	FormatFLAC
	// FormatASF represents ASF/WMA/WMV files.
	FormatASF
	// FormatMP4 represents ISO-BMFF/QuickTime files (MP4, MOV, M4A, 3GP).
	FormatMP4
	// FormatMatroska represents Matroska/WebM files.
	FormatMatroska
	// FormatMP3 represents MP3 audio files.
	FormatMP3
)

// String returns the human-readable format name.
func (f Format) String() string {
	switch f {
	case FormatJPEG:
		return "JPEG"
	case FormatWAV:
		return "WAV"
	case FormatAVI:
		return "AVI"
	case FormatOgg:
		return "Ogg Vorbis"
	case FormatOpus:
		return "Opus"
	case FormatFLAC:
		return "FLAC"
	case FormatASF:
		return "ASF"
	case FormatMP4:
		return "MP4"
	case FormatMatroska:
		return "Matroska"
	case FormatMP3:
		return "MP3"
	default:
		return "Unknown"
	}
}

// asfHeaderGUID is the ASF Header Object GUID in its on-disk byte order.
var asfHeaderGUID = [16]byte{
	0x30, 0x26, 0xb2, 0x75, 0x8e, 0x66, 0xcf, 0x11,
	0xa6, 0xd9, 0x00, 0xaa, 0x00, 0x62, 0xce, 0x6c,
}

// DetectFormat determines the container format by examining magic bytes.
//
// Detection is signature-based only; file extensions are never consulted.
// It does not validate the full container structure, only enough leading
// bytes to pick a codec.
func DetectFormat(data []byte) Format { //nolint:gocyclo // Format detection requires checking multiple magic byte patterns
	if len(data) < 4 {
		return FormatUnknown
	}

	// JPEG: SOI marker
	if data[0] == 0xFF && data[1] == 0xD8 {
		return FormatJPEG
	}

	// RIFF container: form type distinguishes WAV from AVI
	if string(data[:4]) == "RIFF" && len(data) >= 12 {
		switch string(data[8:12]) {
		case "WAVE":
			return FormatWAV
		case "AVI ":
			return FormatAVI
		}
		return FormatUnknown
	}

	// Ogg: codec identified from the first packet on the first page.
	// "OpusHead" appears within the first page for Opus streams.
	if string(data[:4]) == "OggS" {
		window := data
		if len(window) > 4096 {
			window = window[:4096]
		}
		if bytes.Contains(window, []byte("OpusHead")) {
			return FormatOpus
		}
		return FormatOgg
	}

	// FLAC stream marker
	if string(data[:4]) == "fLaC" {
		return FormatFLAC
	}

	// ASF Header Object GUID
	if len(data) >= 16 && [16]byte(data[:16]) == asfHeaderGUID {
		return FormatASF
	}

	// EBML header (Matroska/WebM)
	if data[0] == 0x1A && data[1] == 0x45 && data[2] == 0xDF && data[3] == 0xA3 {
		return FormatMatroska
	}

	// ISO-BMFF: "ftyp" brand box at offset 4, or bare moov/mdat/wide/free
	if len(data) >= 12 {
		switch string(data[4:8]) {
		case "ftyp", "moov", "mdat", "wide", "free", "skip":
			return FormatMP4
		}
	}

	// ID3v2 tag or bare MPEG frame sync
	if string(data[:3]) == "ID3" {
		return FormatMP3
	}
	if data[0] == 0xFF && (data[1]&0xE0) == 0xE0 {
		return FormatMP3
	}

	return FormatUnknown
}
