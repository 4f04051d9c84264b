package types

import "fmt"

// FormatError is returned when a container signature is missing or invalid,
// or when a structure the rewrite depends on is absent entirely.
type FormatError struct {
	Format Format
	Offset int64
	Reason string
}

func (e *FormatError) Error() string {
	if e.Offset > 0 {
		return fmt.Sprintf("%s: invalid container at offset %d: %s", e.Format, e.Offset, e.Reason)
	}
	return fmt.Sprintf("%s: invalid container: %s", e.Format, e.Reason)
}

// StructuralLimitError is returned when a rewrite would exceed a protocol
// ceiling, such as the 255-entry Ogg lacing table or the ICC chunk-count
// byte. The engine never truncates data to make it fit.
type StructuralLimitError struct {
	Format Format
	Limit  string
	Max    int
	Needed int
}

func (e *StructuralLimitError) Error() string {
	return fmt.Sprintf("%s: %s exceeded: need %d, maximum is %d", e.Format, e.Limit, e.Needed, e.Max)
}

// UnsupportedLayoutError is returned when the container parses but its layout
// cannot be rewritten safely: an ASF header unparsable at either reserved
// width, an Ogg comment packet spanning pages, an EBML size running past the
// buffer.
type UnsupportedLayoutError struct {
	Format Format
	Offset int64
	Reason string
}

func (e *UnsupportedLayoutError) Error() string {
	return fmt.Sprintf("%s: unsupported layout at offset %d: %s", e.Format, e.Offset, e.Reason)
}

// IntegrityCheckError is returned when a recomputed length disagrees with the
// bytes actually present during a rebuild. It always indicates the rewrite was
// abandoned before emitting anything.
type IntegrityCheckError struct {
	Format   Format
	What     string
	Expected int
	Found    int
}

func (e *IntegrityCheckError) Error() string {
	return fmt.Sprintf("%s: integrity check failed for %s: expected %d bytes, found %d",
		e.Format, e.What, e.Expected, e.Found)
}

// UnsupportedFeatureError is returned when the request names a tag class the
// engine recognizes but does not write (QuickTime Keys atoms, Microsoft Xtra
// atoms, track-level AudioKeys/VideoKeys). The input is rejected rather than
// copied through unchanged.
type UnsupportedFeatureError struct {
	Format  Format
	Feature string
}

func (e *UnsupportedFeatureError) Error() string {
	return fmt.Sprintf("%s: writing %s is not supported", e.Format, e.Feature)
}

// UnsupportedWriteError indicates the write call could not be dispatched:
// no codec is registered for the format, or the request carries no keys the
// codec honors.
type UnsupportedWriteError struct {
	Format Format
	Reason string
}

func (e *UnsupportedWriteError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("write not supported for %s: %s", e.Format, e.Reason)
	}
	return fmt.Sprintf("write not supported for %s", e.Format)
}
