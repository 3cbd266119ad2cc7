package protocol

import (
	"bytes"
	"testing"
)

func TestFrameHeaderRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	body := []byte("some ciphertext body")
	if err := WriteFrameHeader(&buf, body); err != nil {
		t.Fatalf("WriteFrameHeader: %v", err)
	}
	got, err := ReadFrameHeader(&buf)
	if err != nil {
		t.Fatalf("ReadFrameHeader: %v", err)
	}
	if string(got) != string(body) {
		t.Fatalf("ReadFrameHeader() = %q, want %q", got, body)
	}
}

func TestWriteFrameHeaderRejectsOversizeBody(t *testing.T) {
	var buf bytes.Buffer
	body := make([]byte, MaxFrameLen)
	if err := WriteFrameHeader(&buf, body); err == nil {
		t.Fatalf("expected error writing a frame at the length cap")
	}
}

func TestReadFrameHeaderRejectsOversizeLength(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{0xff, 0xff}) // 65535 >= MaxFrameLen
	if _, err := ReadFrameHeader(&buf); err == nil {
		t.Fatalf("expected error reading an oversize frame length")
	}
}

func TestRecordSplitterSplitsOnNewline(t *testing.T) {
	var s RecordSplitter
	plaintext := []byte("first\nsecond\nthird")

	rec1, off1, ok := s.Next(plaintext, 0)
	if !ok || string(rec1) != "first" {
		t.Fatalf("record 1 = %q, ok=%v", rec1, ok)
	}
	rec2, off2, ok := s.Next(plaintext, off1)
	if !ok || string(rec2) != "second" {
		t.Fatalf("record 2 = %q, ok=%v", rec2, ok)
	}
	rec3, off3, ok := s.Next(plaintext, off2)
	if !ok || string(rec3) != "third" {
		t.Fatalf("record 3 = %q, ok=%v", rec3, ok)
	}
	if _, _, ok := s.Next(plaintext, off3); ok {
		t.Fatalf("expected no further record past end of plaintext")
	}
}

func TestRecordSplitterRawFollows(t *testing.T) {
	var s RecordSplitter
	s.ArmRawFollows(5)

	plaintext := []byte("AAAAA\nnext")
	raw, off, ok := s.Next(plaintext, 0)
	if !ok || string(raw) != "AAAAA" {
		t.Fatalf("raw record = %q, ok=%v", raw, ok)
	}
	// the raw record consumes exactly the announced length, leaving the
	// newline byte as the start of ordinary newline-delimited scanning.
	rec, _, ok := s.Next(plaintext, off)
	if !ok || string(rec) != "" {
		t.Fatalf("record after raw = %q, ok=%v, want empty (leading newline)", rec, ok)
	}
}

func TestRecordSplitterRawFollowsTruncatedByFrameEnd(t *testing.T) {
	var s RecordSplitter
	s.ArmRawFollows(100)

	plaintext := []byte("short")
	raw, off, ok := s.Next(plaintext, 0)
	if !ok || string(raw) != "short" {
		t.Fatalf("raw record = %q, ok=%v, want truncated to frame end", raw, ok)
	}
	if off != len(plaintext) {
		t.Fatalf("offset after truncated raw record = %d, want %d", off, len(plaintext))
	}
}

func TestIsRawAnnouncer(t *testing.T) {
	if !IsRawAnnouncer(PLI_RAWDATA) {
		t.Fatalf("PLI_RAWDATA should be a raw announcer")
	}
	if !IsRawAnnouncer(PLI_NC_NPCADD) {
		t.Fatalf("PLI_NC_NPCADD should be a raw announcer")
	}
	if IsRawAnnouncer(PLI_LOGIN) {
		t.Fatalf("PLI_LOGIN should not be a raw announcer")
	}
}
