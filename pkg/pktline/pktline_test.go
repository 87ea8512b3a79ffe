package pktline

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseBasicFrames(t *testing.T) {
	body := []byte("000ahello\n" + "0000" + "0009done\n")
	frames, err := Parse(body)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	want := []Frame{
		{Data: []byte("hello\n")},
		{Flush: true},
		{Data: []byte("done\n")},
	}
	if diff := cmp.Diff(want, frames); diff != "" {
		t.Errorf("frames mismatch (-want +got):\n%s", diff)
	}
}

func TestFrameTextTrimsSingleLF(t *testing.T) {
	f := Frame{Data: []byte("line\n")}
	if got := string(f.Text()); got != "line" {
		t.Errorf("Text = %q, want %q", got, "line")
	}
	f = Frame{Data: []byte("no newline")}
	if got := string(f.Text()); got != "no newline" {
		t.Errorf("Text = %q, want %q", got, "no newline")
	}
	f = Frame{Data: []byte("two\n\n")}
	if got := string(f.Text()); got != "two\n" {
		t.Errorf("Text = %q, want %q", got, "two\n")
	}
}

func TestParsePackPassthroughFramed(t *testing.T) {
	// A frame whose payload starts with PACK swallows the remainder of
	// the input verbatim, ignoring its declared length.
	pack := append([]byte("PACK\x00\x00\x00\x02"), bytes.Repeat([]byte{0xaa}, 64)...)
	body := []byte("0008NAK\n")
	body = append(body, "0010"...) // framed length is a lie once PACK begins
	body = append(body, pack...)

	frames, err := Parse(body)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(frames) != 2 {
		t.Fatalf("frame count = %d, want 2", len(frames))
	}
	if string(frames[0].Text()) != "NAK" {
		t.Errorf("first frame = %q", frames[0].Data)
	}
	if !bytes.Equal(frames[1].Data, pack) {
		t.Errorf("pack frame = %d bytes, want %d verbatim", len(frames[1].Data), len(pack))
	}
}

func TestParsePackPassthroughBare(t *testing.T) {
	// Pack data with no leading frame at all.
	pack := append([]byte("PACK"), 1, 2, 3)
	frames, err := Parse(pack)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(frames) != 1 || !bytes.Equal(frames[0].Data, pack) {
		t.Errorf("frames = %+v", frames)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		body []byte
	}{
		{"truncated prefix", []byte("00")},
		{"non-hex prefix", []byte("zzzz")},
		{"length too small", []byte("0002")},
		{"length beyond input", []byte("00ffshort")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(tt.body); !errors.Is(err, ErrFraming) {
				t.Errorf("Parse(%q) error = %v, want ErrFraming", tt.body, err)
			}
		})
	}
}

func TestParseEmptyInput(t *testing.T) {
	frames, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse(nil): %v", err)
	}
	if len(frames) != 0 {
		t.Errorf("frames = %+v, want none", frames)
	}
}

func TestAppendRoundTrip(t *testing.T) {
	var body []byte
	body = AppendString(body, "want 0000000000000000000000000000000000000000\n")
	body = AppendFlush(body)
	body = AppendString(body, "done\n")

	frames, err := Parse(body)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(frames) != 3 {
		t.Fatalf("frame count = %d, want 3", len(frames))
	}
	if string(frames[0].Text()) != "want 0000000000000000000000000000000000000000" {
		t.Errorf("frame 0 = %q", frames[0].Data)
	}
	if !frames[1].Flush {
		t.Error("frame 1 should be a flush")
	}
	if string(frames[2].Text()) != "done" {
		t.Errorf("frame 2 = %q", frames[2].Data)
	}
}

func TestAppendKnownEncoding(t *testing.T) {
	got := AppendString(nil, "done\n")
	if string(got) != "0009done\n" {
		t.Errorf("AppendString = %q, want %q", got, "0009done\n")
	}
	if string(AppendFlush(nil)) != "0000" {
		t.Error("AppendFlush must emit 0000")
	}
}
