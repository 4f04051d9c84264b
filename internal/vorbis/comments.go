// Package vorbis builds Vorbis comment blocks.
//
// Vorbis comments are shared by FLAC, Ogg Vorbis, and Opus: a little-endian
// length-prefixed vendor string followed by length-prefixed UTF-8 "KEY=value"
// strings. Ogg Vorbis additionally requires a trailing framing bit; FLAC and
// Opus omit it.
package vorbis

// Field is a single comment in KEY=value form. Keys are conventionally
// uppercase ("TITLE", "ARTIST").
type Field struct {
	Key   string
	Value string
}

// BuildCommentBlock constructs a Vorbis comment block from the given fields,
// in order. When framing is true the Vorbis framing bit (0x01) is appended,
// as required for the comment packet inside an Ogg Vorbis stream.
func BuildCommentBlock(vendor string, fields []Field, framing bool) []byte {
	size := 4 + len(vendor) + 4
	for _, f := range fields {
		size += 4 + len(f.Key) + 1 + len(f.Value)
	}
	if framing {
		size++
	}

	out := make([]byte, 0, size)
	out = appendU32LE(out, uint32(len(vendor)))
	out = append(out, vendor...)
	out = appendU32LE(out, uint32(len(fields)))
	for _, f := range fields {
		comment := f.Key + "=" + f.Value
		out = appendU32LE(out, uint32(len(comment)))
		out = append(out, comment...)
	}
	if framing {
		out = append(out, 0x01)
	}
	return out
}

func appendU32LE(b []byte, v uint32) []byte {
	return append(b, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}
