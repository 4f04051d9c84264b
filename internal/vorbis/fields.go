package vorbis

import "github.com/DNAi-inc/DNExif-sub006/internal/types"

// StandardFields selects the standard comment fields from a request.
//
// Each comment key honors the cross-format aliases first (XMP:Title,
// EXIF:Artist), then the per-format namespaced keys (e.g. "Audio:FLAC" gives
// Audio:FLAC:Title), then the bare field name. Fields absent from the
// request are omitted; output order is fixed.
func StandardFields(req types.Request, namespaces ...string) []Field {
	type mapping struct {
		key     string
		aliases []string // checked before the namespaced keys
		field   string   // suffix appended to each namespace, and bare fallback
	}
	mappings := []mapping{
		{"TITLE", []string{"XMP:Title"}, "Title"},
		{"ARTIST", []string{"EXIF:Artist"}, "Artist"},
		{"ALBUM", nil, "Album"},
		{"COMMENT", nil, "Comment"},
		{"COPYRIGHT", []string{"XMP:Copyright"}, "Copyright"},
	}

	var fields []Field
	for _, m := range mappings {
		keys := make([]string, 0, len(m.aliases)+len(namespaces)+1)
		keys = append(keys, m.aliases...)
		for _, ns := range namespaces {
			keys = append(keys, ns+":"+m.field)
		}
		keys = append(keys, m.field)
		if v := req.First(keys...); v != "" {
			fields = append(fields, Field{Key: m.key, Value: v})
		}
	}
	return fields
}
