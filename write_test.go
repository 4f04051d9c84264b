package dnexif

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/dhowden/tag"
)

// minimalFLAC builds a FLAC stream with a zeroed STREAMINFO block and a
// short audio payload.
func minimalFLAC() []byte {
	buf := &bytes.Buffer{}
	buf.WriteString("fLaC")
	buf.WriteByte(0x80) // STREAMINFO, last block
	buf.Write([]byte{0x00, 0x00, 0x22})
	buf.Write(make([]byte, 34))
	buf.Write([]byte{0xFF, 0xF8, 0x69, 0x4C})
	return buf.Bytes()
}

// minimalWAV builds a RIFF/WAVE file with fmt and data chunks.
func minimalWAV() []byte {
	body := &bytes.Buffer{}
	body.WriteString("WAVE")
	body.WriteString("fmt ")
	binary.Write(body, binary.LittleEndian, uint32(16))
	body.Write(make([]byte, 16))
	body.WriteString("data")
	binary.Write(body, binary.LittleEndian, uint32(4))
	body.Write([]byte{1, 2, 3, 4})

	buf := &bytes.Buffer{}
	buf.WriteString("RIFF")
	binary.Write(buf, binary.LittleEndian, uint32(body.Len()))
	buf.Write(body.Bytes())
	return buf.Bytes()
}

// minimalMP4 builds ftyp + moov(mvhd) + mdat.
func minimalMP4() []byte {
	atom := func(fourCC string, payload []byte) []byte {
		buf := &bytes.Buffer{}
		binary.Write(buf, binary.BigEndian, uint32(8+len(payload)))
		buf.WriteString(fourCC)
		buf.Write(payload)
		return buf.Bytes()
	}
	out := atom("ftyp", []byte("isom\x00\x00\x02\x00isomiso2"))
	out = append(out, atom("moov", atom("mvhd", make([]byte, 100)))...)
	return append(out, atom("mdat", []byte{1, 2, 3, 4})...)
}

func TestWrite_DispatchesByDetection(t *testing.T) {
	req := Request{"XMP:Title": "Dispatched"}

	tests := []struct {
		name string
		data []byte
	}{
		{"flac", minimalFLAC()},
		{"wav", minimalWAV()},
		{"mp4", minimalMP4()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Write(tt.data, req)
			if err != nil {
				t.Fatalf("Write() error = %v", err)
			}
			if bytes.Equal(out, tt.data) {
				t.Error("output identical to input; no metadata written")
			}
			if !bytes.Contains(out, []byte("Dispatched")) {
				t.Error("title value missing from output")
			}
		})
	}
}

func TestWrite_UnknownFormat(t *testing.T) {
	_, err := Write([]byte("plain text, not a media file"), Request{"Title": "x"})
	var uwe *UnsupportedWriteError
	if !errors.As(err, &uwe) {
		t.Fatalf("Write() error = %v, want UnsupportedWriteError", err)
	}
}

func TestWriteFormat_BypassesDetection(t *testing.T) {
	out, err := WriteFormat(FormatFLAC, minimalFLAC(), Request{"Title": "Forced"})
	if err != nil {
		t.Fatalf("WriteFormat() error = %v", err)
	}
	if !bytes.Contains(out, []byte("TITLE=Forced")) {
		t.Error("comment missing")
	}

	// Wrong format against the same buffer fails at the signature check
	if _, err := WriteFormat(FormatWAV, minimalFLAC(), Request{"Title": "x"}); err == nil {
		t.Error("WriteFormat(FormatWAV, flac) should fail")
	}
}

func TestWrite_InputBufferUntouched(t *testing.T) {
	data := minimalFLAC()
	snapshot := append([]byte{}, data...)

	if _, err := Write(data, Request{"Title": "x"}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if !bytes.Equal(data, snapshot) {
		t.Error("input buffer was modified")
	}
}

func TestWrite_VendorOption(t *testing.T) {
	out, err := Write(minimalFLAC(), Request{"Title": "x"}, WithVendor("testsuite 0.1"))
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if !bytes.Contains(out, []byte("testsuite 0.1")) {
		t.Error("configured vendor missing")
	}
}

func TestWrite_FLACRoundTrip(t *testing.T) {
	out, err := Write(minimalFLAC(), Request{
		"XMP:Title":   "Round Trip",
		"EXIF:Artist": "J. Mercer",
		"Album":       "Perimeter",
	})
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	m, err := tag.ReadFrom(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("tag.ReadFrom() error = %v", err)
	}
	if m.Title() != "Round Trip" {
		t.Errorf("Title() = %q, want %q", m.Title(), "Round Trip")
	}
	if m.Artist() != "J. Mercer" {
		t.Errorf("Artist() = %q, want %q", m.Artist(), "J. Mercer")
	}
	if m.Album() != "Perimeter" {
		t.Errorf("Album() = %q, want %q", m.Album(), "Perimeter")
	}
}

func TestWrite_MP4RoundTrip(t *testing.T) {
	out, err := Write(minimalMP4(), Request{
		"QuickTime:Title": "Atom Title",
		"EXIF:Artist":     "P. Whitfield",
	})
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	m, err := tag.ReadFrom(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("tag.ReadFrom() error = %v", err)
	}
	if m.Title() != "Atom Title" {
		t.Errorf("Title() = %q, want %q", m.Title(), "Atom Title")
	}
	if m.Artist() != "P. Whitfield" {
		t.Errorf("Artist() = %q, want %q", m.Artist(), "P. Whitfield")
	}
}

func TestWrite_Idempotent(t *testing.T) {
	req := Request{"Title": "Stable", "Artist": "Stable Artist"}

	for _, data := range [][]byte{minimalFLAC(), minimalWAV(), minimalMP4()} {
		first, err := Write(data, req)
		if err != nil {
			t.Fatalf("first Write() error = %v", err)
		}
		second, err := Write(data, req)
		if err != nil {
			t.Fatalf("second Write() error = %v", err)
		}
		if !bytes.Equal(first, second) {
			t.Errorf("two writes of the same request against %s differ", DetectFormat(data))
		}
	}
}
