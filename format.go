package dnexif

import (
	"github.com/DNAi-inc/DNExif-sub006/internal/types"
)

// Format identifies a media container format.
// Re-exporting from internal/types to maintain public API.
type Format = types.Format

// Format constants re-exported for public use.
const (
	FormatUnknown  = types.FormatUnknown
	FormatJPEG     = types.FormatJPEG
	FormatWAV      = types.FormatWAV
	FormatAVI      = types.FormatAVI
	FormatOgg      = types.FormatOgg
	FormatOpus     = types.FormatOpus
	FormatFLAC     = types.FormatFLAC
	FormatASF      = types.FormatASF
	FormatMP4      = types.FormatMP4
	FormatMatroska = types.FormatMatroska
	FormatMP3      = types.FormatMP3
)

// DetectFormat identifies a container by its byte signature.
//
// Detection never consults file extensions: only the leading bytes decide.
// Returns FormatUnknown if no signature matches.
func DetectFormat(data []byte) Format {
	return types.DetectFormat(data)
}
