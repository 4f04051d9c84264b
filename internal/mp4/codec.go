package mp4

import (
	"github.com/DNAi-inc/DNExif-sub006/internal/binary"
	"github.com/DNAi-inc/DNExif-sub006/internal/registry"
	"github.com/DNAi-inc/DNExif-sub006/internal/types"
)

// xmpUUID is the fixed 16-byte tag of the uuid atom carrying an XMP packet
// (BE7ACFCB-97A9-42E8-9C71-999491E3AFAC).
var xmpUUID = [16]byte{
	0xBE, 0x7A, 0xCF, 0xCB, 0x97, 0xA9, 0x42, 0xE8,
	0x9C, 0x71, 0x99, 0x94, 0x91, 0xE3, 0xAF, 0xAC,
}

// defaultHandler is the handler type written into the synthesized meta
// handler atom when no override is configured.
const defaultHandler = "mdir"

// rejectedClasses names tag classes the codec recognizes but does not write.
// Requests carrying them are rejected rather than copied through unchanged.
var rejectedClasses = []struct {
	prefix  string
	feature string
}{
	{"QuickTimeKeys:", "QuickTime Keys atoms"},
	{"MicrosoftXtra:", "Microsoft Xtra atoms"},
	{"Xtra:", "Microsoft Xtra atoms"},
	{"AudioKeys:", "track-level AudioKeys atoms"},
	{"VideoKeys:", "track-level VideoKeys atoms"},
}

// ilstItems maps ilst item FourCCs to their request keys: the explicit
// QuickTime key first, then the derived fallbacks.
var ilstItems = []struct {
	fourCC string
	keys   []string
}{
	{"\xa9nam", []string{"QuickTime:Title", "XMP:Title", "Title"}},
	{"\xa9ART", []string{"QuickTime:Artist", "EXIF:Artist", "Artist"}},
	{"\xa9alb", []string{"QuickTime:Album", "Album"}},
	{"\xa9cmt", []string{"QuickTime:Comment", "Comment"}},
	{"cprt", []string{"QuickTime:Copyright", "XMP:Copyright", "Copyright"}},
}

// Item is one ilst entry: a FourCC item code and its UTF-8 text value.
type Item struct {
	FourCC string
	Value  string
}

// codec implements the registry.Codec interface for ISO-BMFF files.
type codec struct{}

// Write applies the requested metadata to the container. Simple text tags
// are appended as a new udta/meta/ilst chain under moov; an XMP packet is
// carried in a top-level uuid atom appended at the very end of the file so
// no atom's internally-recorded absolute offsets are invalidated.
func (c *codec) Write(data []byte, req types.Request, cfg types.WriteConfig) ([]byte, error) {
	for _, rc := range rejectedClasses {
		if req.HasPrefix(rc.prefix) {
			return nil, &types.UnsupportedFeatureError{
				Format:  types.FormatMP4,
				Feature: rc.feature,
			}
		}
	}

	var items []Item
	for _, it := range ilstItems {
		if v := req.First(it.keys...); v != "" {
			items = append(items, Item{FourCC: it.fourCC, Value: v})
		}
	}
	xmpPacket := req["XMP:Packet"]

	if len(items) == 0 && xmpPacket == "" {
		return nil, &types.UnsupportedWriteError{
			Format: types.FormatMP4,
			Reason: "no supported metadata fields in request (expected QuickTime:* or XMP:Packet keys)",
		}
	}

	out := data
	var err error

	if len(items) > 0 {
		out, err = appendUserData(out, BuildUserDataChain(items, handlerType(cfg)))
		if err != nil {
			return nil, err
		}
	}

	if xmpPacket != "" {
		out, err = spliceXMPUUID(out, []byte(xmpPacket))
		if err != nil {
			return nil, err
		}
	}

	if cfg.QuickTimePad > 0 {
		out = padBuffer(out, cfg.QuickTimePad)
	}

	return out, nil
}

func handlerType(cfg types.WriteConfig) string {
	if len(cfg.QuickTimeHandler) == 4 {
		return cfg.QuickTimeHandler
	}
	return defaultHandler
}

// spliceXMPUUID removes every top-level uuid atom bearing the XMP tag and
// appends one new uuid atom holding the packet at the end of the buffer.
// When moov uses the size-0 to-EOF form, the appended atom falls inside
// moov's open extent; readers that honor size 0 absorb it as moov child
// data rather than a top-level atom.
func spliceXMPUUID(data []byte, packet []byte) ([]byte, error) {
	atoms, err := parseTopLevel(data)
	if err != nil {
		return nil, err
	}

	uuidAtom := BuildXMPUUIDAtom(packet)

	out := make([]byte, 0, len(data)+len(uuidAtom))
	for i := range atoms {
		a := &atoms[i]
		if a.Type == "uuid" && isXMPAtom(data, a) {
			continue
		}
		out = append(out, data[a.Offset:a.End()]...)
	}
	out = append(out, uuidAtom...)
	return out, nil
}

// isXMPAtom reports whether the uuid atom carries the fixed XMP tag.
func isXMPAtom(data []byte, a *Atom) bool {
	start := a.DataOffset()
	if start+16 > a.End() {
		return false
	}
	return [16]byte(data[start:start+16]) == xmpUUID
}

// appendUserData appends the udta bytes as a new child of the top-level
// moov atom, recomputing moov's size field. A moov using the 64-bit
// extended form keeps it; a 32-bit moov whose new size no longer fits is
// switched to the extended form.
func appendUserData(data []byte, udta []byte) ([]byte, error) {
	atoms, err := parseTopLevel(data)
	if err != nil {
		return nil, err
	}

	var moov *Atom
	for i := range atoms {
		if atoms[i].Type == "moov" {
			moov = &atoms[i]
			break
		}
	}
	if moov == nil {
		return nil, &types.FormatError{
			Format: types.FormatMP4,
			Reason: "no moov atom found",
		}
	}

	// A moov extending to end of file keeps its open size: the new child
	// lands inside it by landing at the end of the buffer.
	if moov.ToEOF {
		out := make([]byte, 0, len(data)+len(udta))
		out = append(out, data...)
		out = append(out, udta...)
		return out, nil
	}

	payload := data[moov.DataOffset():moov.End()]

	newSize := moov.Size + uint64(len(udta))
	extended := moov.HeaderLen == 16
	if !extended && newSize > 0xFFFFFFFF {
		extended = true
		newSize += 8 // header grows when switching to the extended form
	}

	out := binary.NewBuilder()
	out.Raw(data[:moov.Offset])
	if extended {
		out.U32BE(1).String("moov").U64BE(newSize)
	} else {
		out.U32BE(uint32(newSize)).String("moov")
	}
	out.Raw(payload)
	out.Raw(udta)
	out.Raw(data[moov.End():])
	return out.Bytes(), nil
}

// padBuffer appends zero filler so the buffer length lands on the given
// alignment boundary.
func padBuffer(data []byte, pad int) []byte {
	rem := len(data) % pad
	if rem == 0 {
		return data
	}
	out := make([]byte, len(data)+pad-rem)
	copy(out, data)
	return out
}

// wrapAtom wraps a payload in an atom header.
func wrapAtom(fourCC string, payload []byte) []byte {
	b := binary.NewBuilder()
	b.U32BE(uint32(8 + len(payload))).String(fourCC).Raw(payload)
	return b.Bytes()
}

// BuildXMPUUIDAtom constructs the top-level uuid atom carrying an XMP packet.
func BuildXMPUUIDAtom(packet []byte) []byte {
	b := binary.NewBuilder()
	b.U32BE(uint32(8 + 16 + len(packet))).String("uuid").Raw(xmpUUID[:]).Raw(packet)
	return b.Bytes()
}

// BuildIlstItem constructs one ilst item: the item atom wrapping a data atom
// with type 1 (UTF-8) and a zero locale.
func BuildIlstItem(item Item) []byte {
	data := binary.NewBuilder()
	data.U32BE(1) // data type: UTF-8
	data.U32BE(0) // locale
	data.String(item.Value)
	return wrapAtom(item.FourCC, wrapAtom("data", data.Bytes()))
}

// BuildUserDataChain constructs the full udta/meta/hdlr/ilst chain holding
// the items, ready to append under moov.
func BuildUserDataChain(items []Item, handler string) []byte {
	ilst := binary.NewBuilder()
	for _, item := range items {
		ilst.Raw(BuildIlstItem(item))
	}

	hdlr := binary.NewBuilder()
	hdlr.U32BE(0) // version and flags
	hdlr.U32BE(0) // predefined
	hdlr.String(handler)
	hdlr.U32BE(0).U32BE(0).U32BE(0) // reserved
	hdlr.Byte(0)                    // empty name

	meta := binary.NewBuilder()
	meta.U32BE(0) // version and flags
	meta.Raw(wrapAtom("hdlr", hdlr.Bytes()))
	meta.Raw(wrapAtom("ilst", ilst.Bytes()))

	return wrapAtom("udta", wrapAtom("meta", meta.Bytes()))
}

// init registers the ISO-BMFF codec.
func init() {
	registry.Register(types.FormatMP4, &codec{})
}
