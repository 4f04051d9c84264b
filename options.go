package dnexif

import (
	"github.com/DNAi-inc/DNExif-sub006/internal/types"
)

// Option configures behavior when writing metadata.
//
// Options use the functional options pattern:
//
//	out, err := dnexif.Write(data, req,
//	    dnexif.WithQuickTimePad(2048),
//	    dnexif.WithVendor("myapp 1.0"),
//	)
type Option func(*writeOptions)

// writeOptions holds configuration for a single write call.
type writeOptions struct {
	config       types.WriteConfig
	backupSuffix string // Suffix for backup file (e.g., ".bak"), file layer only
}

// defaultWriteOptions returns the default configuration for writing.
func defaultWriteOptions() *writeOptions {
	return &writeOptions{
		config: types.DefaultWriteConfig(),
	}
}

// WithQuickTimePad pads a rewritten MP4/MOV buffer with trailing zeros to
// a multiple of n bytes.
//
// Padding gives later in-place edits room to grow without relocating
// atoms. Zero (the default) disables padding. Other formats ignore it.
func WithQuickTimePad(n int) Option {
	return func(o *writeOptions) {
		o.config.QuickTimePad = n
	}
}

// WithQuickTimeHandler overrides the handler type written into the hdlr
// atom of a synthesized MP4/MOV metadata chain. The default is "mdir",
// the iTunes metadata handler.
func WithQuickTimeHandler(handler string) Option {
	return func(o *writeOptions) {
		o.config.QuickTimeHandler = handler
	}
}

// WithVendor overrides the vendor string written into Vorbis comment
// headers (Ogg, Opus, FLAC).
func WithVendor(vendor string) Option {
	return func(o *writeOptions) {
		o.config.Vendor = vendor
	}
}

// WithBackup creates a backup of the destination before WriteFile
// replaces it.
//
// The backup file gets the suffix appended to the destination filename:
// WithBackup(".bak") preserves "clip.mp4" as "clip.mp4.bak". An existing
// backup is overwritten. Write and WriteFormat ignore this option.
func WithBackup(suffix string) Option {
	return func(o *writeOptions) {
		o.backupSuffix = suffix
	}
}
