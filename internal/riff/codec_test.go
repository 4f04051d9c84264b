package riff

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/DNAi-inc/DNExif-sub006/internal/registry"
	"github.com/DNAi-inc/DNExif-sub006/internal/types"
)

// buildChunk assembles a FourCC + size + payload chunk with even padding.
func buildChunk(id string, payload []byte) []byte {
	buf := &bytes.Buffer{}
	buf.WriteString(id)
	binary.Write(buf, binary.LittleEndian, uint32(len(payload)))
	buf.Write(payload)
	if len(payload)%2 == 1 {
		buf.WriteByte(0)
	}
	return buf.Bytes()
}

// buildRIFF assembles a complete RIFF file from form type and body chunks.
func buildRIFF(formType string, chunks ...[]byte) []byte {
	body := &bytes.Buffer{}
	body.WriteString(formType)
	for _, c := range chunks {
		body.Write(c)
	}

	buf := &bytes.Buffer{}
	buf.WriteString("RIFF")
	binary.Write(buf, binary.LittleEndian, uint32(body.Len()))
	buf.Write(body.Bytes())
	return buf.Bytes()
}

func fmtChunk() []byte {
	return buildChunk("fmt ", make([]byte, 16))
}

func dataChunk(audio []byte) []byte {
	return buildChunk("data", audio)
}

func TestWrite_AppendsInfoList(t *testing.T) {
	audio := []byte{0x10, 0x20, 0x30, 0x40}
	wav := buildRIFF("WAVE", fmtChunk(), dataChunk(audio))

	codec := registry.Get(types.FormatWAV)
	out, err := codec.Write(wav, types.Request{"XMP:Title": "Harbor"}, types.DefaultWriteConfig())
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	// Master size must equal everything after the 8-byte RIFF header
	gotSize := binary.LittleEndian.Uint32(out[4:8])
	if int(gotSize) != len(out)-8 {
		t.Errorf("RIFF size = %d, want %d", gotSize, len(out)-8)
	}

	// fmt and data chunks survive byte for byte, in order
	if !bytes.Contains(out, fmtChunk()) {
		t.Error("fmt chunk missing from output")
	}
	if !bytes.Contains(out, dataChunk(audio)) {
		t.Error("data chunk missing from output")
	}

	// The INFO list lands at the end of the body
	wantEntry := buildChunk("INAM", []byte("Harbor\x00"))
	if !bytes.Contains(out, wantEntry) {
		t.Errorf("INAM entry % x missing from output", wantEntry)
	}
	// "LIST" + size + "INFO" sub-type: scan for the pair 8 bytes apart
	listIdx := -1
	for i := 0; i+12 <= len(out); i++ {
		if string(out[i:i+4]) == "LIST" && string(out[i+8:i+12]) == "INFO" {
			listIdx = i
			break
		}
	}
	if listIdx < 0 {
		t.Fatal("LIST chunk with INFO sub-type missing")
	}
}

func TestWrite_ReplacesExistingInfoList(t *testing.T) {
	oldInfo := BuildInfoList([]Entry{{Tag: "INAM", Value: "Old Name"}})
	wav := buildRIFF("WAVE", fmtChunk(), oldInfo, dataChunk([]byte{1, 2}))

	codec := registry.Get(types.FormatWAV)
	out, err := codec.Write(wav, types.Request{"Title": "New Name"}, types.DefaultWriteConfig())
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	if bytes.Contains(out, []byte("Old Name")) {
		t.Error("old INFO list survived the rewrite")
	}
	if !bytes.Contains(out, []byte("New Name")) {
		t.Error("new INFO list missing")
	}

	// The data chunk ends up before the new INFO list
	dataIdx := bytes.Index(out, []byte("data"))
	infoIdx := bytes.Index(out, []byte("INFO"))
	if dataIdx < 0 || infoIdx < 0 || dataIdx > infoIdx {
		t.Errorf("chunk order wrong: data at %d, INFO at %d", dataIdx, infoIdx)
	}
}

func TestWrite_KeyPrecedence(t *testing.T) {
	wav := buildRIFF("WAVE", fmtChunk(), dataChunk(nil))
	avi := buildRIFF("AVI ", buildChunk("hdrl", make([]byte, 8)))

	tests := []struct {
		name   string
		format types.Format
		data   []byte
		req    types.Request
		want   string
	}{
		{
			"xmp alias wins", types.FormatWAV, wav,
			types.Request{"XMP:Title": "a", "Audio:WAV:Title": "b", "Title": "c"}, "a",
		},
		{
			"wav namespace beats bare", types.FormatWAV, wav,
			types.Request{"Audio:WAV:Title": "b", "Title": "c"}, "b",
		},
		{
			"avi namespace", types.FormatAVI, avi,
			types.Request{"Video:AVI:Title": "v", "Title": "c"}, "v",
		},
		{
			"avi ignores wav namespace", types.FormatAVI, avi,
			types.Request{"Audio:WAV:Title": "b", "Title": "c"}, "c",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := registry.Get(tt.format).Write(tt.data, tt.req, types.DefaultWriteConfig())
			if err != nil {
				t.Fatalf("Write() error = %v", err)
			}
			if !bytes.Contains(out, []byte("INAM")) || !bytes.Contains(out, []byte(tt.want+"\x00")) {
				t.Errorf("output INAM value is not %q", tt.want)
			}
		})
	}
}

func TestWrite_NoSupportedFields(t *testing.T) {
	wav := buildRIFF("WAVE", fmtChunk())

	_, err := registry.Get(types.FormatWAV).Write(wav, types.Request{"Bogus": "x"}, types.DefaultWriteConfig())
	var uwe *types.UnsupportedWriteError
	if !errors.As(err, &uwe) {
		t.Fatalf("Write() error = %v, want UnsupportedWriteError", err)
	}
}

func TestWrite_WrongFormType(t *testing.T) {
	avi := buildRIFF("AVI ", buildChunk("hdrl", nil))

	_, err := registry.Get(types.FormatWAV).Write(avi, types.Request{"Title": "x"}, types.DefaultWriteConfig())
	var fe *types.FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("Write() error = %v, want FormatError", err)
	}
}

func TestWrite_ChunkOverrun(t *testing.T) {
	wav := buildRIFF("WAVE", fmtChunk())
	// A chunk declaring more payload than remains in the buffer
	wav = append(wav, 'd', 'a', 't', 'a', 0xFF, 0xFF, 0x00, 0x00, 0x01)
	binary.LittleEndian.PutUint32(wav[4:8], uint32(len(wav)-8))

	_, err := registry.Get(types.FormatWAV).Write(wav, types.Request{"Title": "x"}, types.DefaultWriteConfig())
	var ule *types.UnsupportedLayoutError
	if !errors.As(err, &ule) {
		t.Fatalf("Write() error = %v, want UnsupportedLayoutError", err)
	}
}

func TestWrite_MissingFinalPadByte(t *testing.T) {
	// Some producers omit the pad byte after an odd-sized final chunk.
	odd := buildChunk("data", []byte{1, 2, 3})
	odd = odd[:len(odd)-1]
	wav := buildRIFF("WAVE", fmtChunk(), odd)

	out, err := registry.Get(types.FormatWAV).Write(wav, types.Request{"Title": "x"}, types.DefaultWriteConfig())
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if int(binary.LittleEndian.Uint32(out[4:8])) != len(out)-8 {
		t.Error("RIFF size not recomputed")
	}

	// The omitted pad byte is restored so the INFO list stays aligned
	idx := bytes.Index(out, []byte("LIST"))
	if idx < 0 {
		t.Fatal("INFO list missing")
	}
	if idx%2 != 0 {
		t.Errorf("INFO list starts at odd offset %d", idx)
	}
	if out[idx-1] != 0 {
		t.Error("pad byte not restored before the INFO list")
	}
}

func TestBuildInfoEntry_EvenPadding(t *testing.T) {
	// "Hi" + null = 3 bytes, needs a pad byte after the payload
	entry := BuildInfoEntry("INAM", "Hi")
	if len(entry)%2 != 0 {
		t.Errorf("entry length %d is odd", len(entry))
	}
	if size := binary.LittleEndian.Uint32(entry[4:8]); size != 3 {
		t.Errorf("declared size = %d, want 3 (null included, pad excluded)", size)
	}
	if entry[len(entry)-1] != 0 || entry[len(entry)-2] != 0 {
		t.Error("null terminator or pad byte missing")
	}
}

func TestWrite_Idempotent(t *testing.T) {
	wav := buildRIFF("WAVE", fmtChunk(), dataChunk([]byte{9, 9}))
	req := types.Request{"Title": "Same", "Artist": "Same Artist"}
	codec := registry.Get(types.FormatWAV)

	first, err := codec.Write(wav, req, types.DefaultWriteConfig())
	if err != nil {
		t.Fatalf("first Write() error = %v", err)
	}
	second, err := codec.Write(first, req, types.DefaultWriteConfig())
	if err != nil {
		t.Fatalf("second Write() error = %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Error("writing the same request twice changed the output")
	}
}
