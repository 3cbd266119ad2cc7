package protocol

import (
	"bytes"
	"testing"
)

func TestGCharRoundTrip(t *testing.T) {
	w := NewWriter(5, CodepageASCII)
	w.WriteGChar(0)
	w.WriteGChar(200)
	w.WriteGChar(255)
	rec := w.Bytes()

	r := NewReader(rec, CodepageASCII)
	if got := r.Opcode(); got != 5 {
		t.Fatalf("opcode = %d, want 5", got)
	}
	for _, want := range []byte{0, 200, 255} {
		if got := r.ReadGChar(); got != want {
			t.Fatalf("ReadGChar() = %d, want %d", got, want)
		}
	}
}

func TestGShortGIntGInt4GInt5RoundTrip(t *testing.T) {
	w := NewWriter(1, CodepageASCII)
	w.WriteGShort(0x3fff)
	w.WriteGInt(0xabcdef)
	w.WriteGInt4(0xdeadbeef)
	w.WriteGInt5(0x1122334455)
	rec := w.Bytes()

	r := NewReader(rec, CodepageASCII)
	if got := r.ReadGShort(); got != 0x3fff {
		t.Fatalf("ReadGShort() = %x, want 3fff", got)
	}
	if got := r.ReadGInt(); got != 0xabcdef {
		t.Fatalf("ReadGInt() = %x, want abcdef", got)
	}
	if got := r.ReadGInt4(); got != 0xdeadbeef {
		t.Fatalf("ReadGInt4() = %x, want deadbeef", got)
	}
	if got := r.ReadGInt5(); got != 0x1122334455 {
		t.Fatalf("ReadGInt5() = %x, want 1122334455", got)
	}
}

func TestGStringRoundTripASCII(t *testing.T) {
	w := NewWriter(2, CodepageASCII)
	w.WriteGString("hello world")
	rec := w.Bytes()

	r := NewReader(rec, CodepageASCII)
	if got := r.ReadGString(); got != "hello world" {
		t.Fatalf("ReadGString() = %q, want %q", got, "hello world")
	}
}

func TestGStringTruncatesAtLengthCap(t *testing.T) {
	long := bytes.Repeat([]byte("a"), 300)
	w := NewWriter(2, CodepageASCII)
	w.WriteGString(string(long))
	rec := w.Bytes()

	r := NewReader(rec, CodepageASCII)
	got := r.ReadGString()
	if len(got) != 223 {
		t.Fatalf("len(ReadGString()) = %d, want 223", len(got))
	}
}

func TestReadToNewlineStopsAtNewlineAndConsumesIt(t *testing.T) {
	rec := append([]byte{1 + gOffset}, []byte("abc\nrest")...)
	r := NewReader(rec, CodepageASCII)
	if got := string(r.ReadToNewline()); got != "abc" {
		t.Fatalf("ReadToNewline() = %q, want %q", got, "abc")
	}
	if got := string(r.ReadRaw(r.Remaining())); got != "rest" {
		t.Fatalf("remaining after ReadToNewline() = %q, want %q", got, "rest")
	}
}

func TestReaderPastEndReturnsZeroValues(t *testing.T) {
	rec := []byte{1 + gOffset}
	r := NewReader(rec, CodepageASCII)
	if got := r.ReadGInt4(); got != 0 {
		t.Fatalf("ReadGInt4() past end = %d, want 0", got)
	}
	if got := r.ReadGString(); got != "" {
		t.Fatalf("ReadGString() past end = %q, want empty", got)
	}
}

func TestFinishAppendsNewlineConditionally(t *testing.T) {
	w := NewWriter(9, CodepageASCII)
	w.WriteGChar(1)
	withNL := w.Finish(true)
	withoutNL := w.Finish(false)
	if withNL[len(withNL)-1] != '\n' {
		t.Fatalf("Finish(true) missing trailing newline")
	}
	if bytes.Contains(withoutNL, []byte{'\n'}) {
		t.Fatalf("Finish(false) should not contain a newline")
	}
	if len(withNL) != len(withoutNL)+1 {
		t.Fatalf("Finish(true) should be exactly one byte longer")
	}
}

func TestGStringWindows1252RoundTrip(t *testing.T) {
	w := NewWriter(2, CodepageWindows1252)
	w.WriteGString("café")
	rec := w.Bytes()

	r := NewReader(rec, CodepageWindows1252)
	if got := r.ReadGString(); got != "café" {
		t.Fatalf("ReadGString() = %q, want %q", got, "café")
	}
}
