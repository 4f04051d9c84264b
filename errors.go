package dnexif

import (
	"github.com/DNAi-inc/DNExif-sub006/internal/types"
)

// FormatError is an alias to types.FormatError.
// Re-exporting from internal/types to maintain public API.
type FormatError = types.FormatError

// StructuralLimitError is an alias to types.StructuralLimitError.
// Re-exporting from internal/types to maintain public API.
type StructuralLimitError = types.StructuralLimitError

// UnsupportedLayoutError is an alias to types.UnsupportedLayoutError.
// Re-exporting from internal/types to maintain public API.
type UnsupportedLayoutError = types.UnsupportedLayoutError

// IntegrityCheckError is an alias to types.IntegrityCheckError.
// Re-exporting from internal/types to maintain public API.
type IntegrityCheckError = types.IntegrityCheckError

// UnsupportedFeatureError is an alias to types.UnsupportedFeatureError.
// Re-exporting from internal/types to maintain public API.
type UnsupportedFeatureError = types.UnsupportedFeatureError

// UnsupportedWriteError is an alias to types.UnsupportedWriteError.
// Re-exporting from internal/types to maintain public API.
type UnsupportedWriteError = types.UnsupportedWriteError
