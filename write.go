package dnexif

import (
	"github.com/DNAi-inc/DNExif-sub006/internal/registry"
	"github.com/DNAi-inc/DNExif-sub006/internal/types"

	// Register all container codecs.
	_ "github.com/DNAi-inc/DNExif-sub006/internal/asf"
	_ "github.com/DNAi-inc/DNExif-sub006/internal/ebml"
	_ "github.com/DNAi-inc/DNExif-sub006/internal/flac"
	_ "github.com/DNAi-inc/DNExif-sub006/internal/jpeg"
	_ "github.com/DNAi-inc/DNExif-sub006/internal/mp3"
	_ "github.com/DNAi-inc/DNExif-sub006/internal/mp4"
	_ "github.com/DNAi-inc/DNExif-sub006/internal/ogg"
	_ "github.com/DNAi-inc/DNExif-sub006/internal/riff"
)

// Request is a flat map of metadata keys to string values.
// Re-exporting from internal/types to maintain public API.
type Request = types.Request

// Write rewrites the metadata regions of a media file held in memory.
//
// The container is identified by byte signature the same way DetectFormat
// does, then dispatched to its codec. The input slice is never modified;
// on success the returned slice is a fresh buffer with the metadata
// rebuilt and all untouched regions copied verbatim.
//
// Returns UnsupportedWriteError if the format is unknown or no codec is
// registered for it. Any parse or rebuild failure leaves no partial
// output: the error is returned and the result slice is nil.
func Write(data []byte, req Request, opts ...Option) ([]byte, error) {
	return WriteFormat(DetectFormat(data), data, req, opts...)
}

// WriteFormat is Write with detection bypassed for callers that already
// know the container format.
func WriteFormat(format Format, data []byte, req Request, opts ...Option) ([]byte, error) {
	options := defaultWriteOptions()
	for _, opt := range opts {
		opt(options)
	}

	codec := registry.Get(format)
	if codec == nil {
		return nil, &types.UnsupportedWriteError{
			Format: format,
			Reason: "no codec registered",
		}
	}

	return codec.Write(data, req, options.config)
}
