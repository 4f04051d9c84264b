// Package types holds the shared data model: container formats, the resolved
// metadata request, write configuration, and the typed error kinds surfaced
// to callers.
package types

import "strings"

// Request is the resolved, flat key-to-value mapping handed to the engine by
// the field-level metadata collaborators (e.g. "XMP:Title", "EXIF:Artist").
//
// A Request is read-only input: codecs select the keys they honor and never
// mutate the map.
type Request map[string]string

// First returns the value of the first key present and non-empty, in the
// order given. Codecs use this to apply their per-format precedence when
// several keys alias the same logical field.
func (r Request) First(keys ...string) string {
	for _, key := range keys {
		if v := r[key]; v != "" {
			return v
		}
	}
	return ""
}

// HasPrefix reports whether any key in the request starts with prefix.
func (r Request) HasPrefix(prefix string) bool {
	for key := range r {
		if strings.HasPrefix(key, prefix) {
			return true
		}
	}
	return false
}

// WithPrefix returns the subset of entries whose keys start with prefix,
// with the prefix stripped. Iteration order of the result is unspecified.
func (r Request) WithPrefix(prefix string) map[string]string {
	out := make(map[string]string)
	for key, value := range r {
		if strings.HasPrefix(key, prefix) {
			out[key[len(prefix):]] = value
		}
	}
	return out
}

// WriteConfig carries the immutable per-call configuration codecs may
// consult. A zero WriteConfig is valid; DefaultWriteConfig fills in the
// vendor string.
type WriteConfig struct {
	// QuickTimePad is the alignment boundary (in bytes) for zero filler
	// appended after MP4 atom rewrites. Zero disables padding.
	QuickTimePad int

	// QuickTimeHandler overrides the handler type used when synthesizing
	// media-handler-dependent atoms (e.g. "mdta", "vide"). Empty keeps the
	// default.
	QuickTimeHandler string

	// Vendor is the vendor string embedded in built Vorbis comment blocks
	// and ID3 tags that carry one.
	Vendor string
}

// DefaultVendor is the vendor string written when none is configured.
const DefaultVendor = "DNExif"

// DefaultWriteConfig returns the default configuration.
func DefaultWriteConfig() WriteConfig {
	return WriteConfig{Vendor: DefaultVendor}
}
