// Package dnexif writes metadata into media containers by mutating their
// byte structure in place.
//
// dnexif is a write path, not a tag editor: callers hand it a complete file
// as a byte slice plus a flat map of metadata keys, and it returns a new
// slice with the container's metadata regions rebuilt. Audio and video
// payloads are never decoded or re-encoded, only relocated.
//
// # Quick Start
//
// Writing a title into a file in memory:
//
//	out, err := dnexif.Write(data, dnexif.Request{
//	    "XMP:Title":   "Sunset Over Harbor",
//	    "EXIF:Artist": "K. Tanaka",
//	})
//	if err != nil {
//	    return err
//	}
//
// Or against a file on disk, atomically:
//
//	err := dnexif.WriteFile("clip.mp4", "clip.mp4", dnexif.Request{
//	    "XMP:Title": "Sunset Over Harbor",
//	}, dnexif.WithBackup(".bak"))
//
// # Supported Containers
//
//   - JPEG: APP segment splicing (JFIF, EXIF, XMP, ICC, Photoshop, AFCP)
//   - WAV/AVI: RIFF INFO list rebuild with size accounting
//   - Ogg Vorbis / Opus: comment packet replacement with CRC re-seal
//   - FLAC: VORBIS_COMMENT block replacement
//   - MP3: ID3v2.3 tag prepend
//   - WMA/ASF: Content Description and Extended Content Description objects
//   - MP4/MOV: iTunes-style ilst items and XMP uuid atoms
//   - Matroska/WebM: Tags element inserted before the first Cluster
//
// # Key Namespaces
//
// Request keys follow a namespace:field convention. Codec-specific keys
// (Audio:WAV:Title, Video:Matroska:Title, QuickTime:Title) take precedence
// over cross-format aliases (XMP:Title, EXIF:Artist), which in turn take
// precedence over bare field names (Title). Keys a codec does not
// understand are ignored unless they name a recognized-but-unwritable
// class, which is rejected explicitly.
//
// # Error Handling
//
// All failures are typed and carry the byte offset where parsing stopped:
//
//   - FormatError: the signature check failed outright
//   - UnsupportedLayoutError: the structure is valid but not writable
//   - StructuralLimitError: the new metadata exceeds a container limit
//   - IntegrityCheckError: a consistency check on untouched bytes failed
//   - UnsupportedFeatureError: a recognized tag class this engine will not write
//   - UnsupportedWriteError: no codec for the format, or nothing to write
//
// A failed Write never returns a partially mutated buffer; the input slice
// is never modified.
package dnexif
