package asf

// GUID is a 128-bit ASF object identifier in its on-disk byte order: the
// first three components little-endian, the last two big-endian.
type GUID [16]byte

// Well-known object GUIDs, canonical on-disk byte order.
var (
	// guidHeader is the ASF Header Object (75B22630-668E-11CF-A6D9-00AA0062CE6C).
	guidHeader = GUID{0x30, 0x26, 0xB2, 0x75, 0x8E, 0x66, 0xCF, 0x11, 0xA6, 0xD9, 0x00, 0xAA, 0x00, 0x62, 0xCE, 0x6C}

	// guidContentDesc is the Content Description Object (75B22633-668E-11CF-A6D9-00AA0062CE6C).
	guidContentDesc = GUID{0x33, 0x26, 0xB2, 0x75, 0x8E, 0x66, 0xCF, 0x11, 0xA6, 0xD9, 0x00, 0xAA, 0x00, 0x62, 0xCE, 0x6C}

	// guidExtContentDesc is the Extended Content Description Object
	// (D2D0A440-E307-11D2-97F0-00A0C95EA850).
	guidExtContentDesc = GUID{0x40, 0xA4, 0xD0, 0xD2, 0x07, 0xE3, 0xD2, 0x11, 0x97, 0xF0, 0x00, 0xA0, 0xC9, 0x5E, 0xA8, 0x50}
)

// bigEndian returns the GUID with its first three components byte-swapped,
// i.e. the form produced when a writer emits the textual GUID literal
// big-endian instead of applying the mixed-endian field order. Some
// producers do; the matcher accepts both.
func (g GUID) bigEndian() GUID {
	return GUID{
		g[3], g[2], g[1], g[0],
		g[5], g[4],
		g[7], g[6],
		g[8], g[9], g[10], g[11], g[12], g[13], g[14], g[15],
	}
}

// Matches reports whether raw equals the GUID in either accepted byte order.
func (g GUID) Matches(raw []byte) bool {
	if len(raw) != 16 {
		return false
	}
	if GUID(raw) == g {
		return true
	}
	return GUID(raw) == g.bigEndian()
}
