// Package registry manages format-specific codecs for container types.
package registry

import (
	"github.com/DNAi-inc/DNExif-sub006/internal/types"
)

// Codec is the interface all container codecs implement.
//
// Write is a pure transformation: it parses the original buffer, builds the
// new metadata blocks selected by the request, and returns a complete new
// buffer (never a partially rewritten one). Implementations must be
// stateless or hold only immutable configuration so a single registered
// codec can serve concurrent calls.
type Codec interface {
	// Write produces a new file buffer with the requested metadata applied.
	Write(data []byte, req types.Request, cfg types.WriteConfig) ([]byte, error)
}

// codecs maps formats to their codecs.
var codecs = make(map[types.Format]Codec)

// Register registers a codec for a format.
// This is called by format packages during initialization (init functions).
func Register(format types.Format, codec Codec) {
	codecs[format] = codec
}

// Get returns the codec for a given format.
// Returns nil if no codec is registered for the format.
func Get(format types.Format) Codec {
	return codecs[format]
}
