package protocol

import (
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/traditionalchinese"
)

// Every multi-byte primitive in this protocol is built from bytes that have
// been offset by +32 (§6, §9 "Endianness and offset-encoding"). This keeps
// every byte in the printable ASCII range, which is what let the original
// implementation treat packets as newline-delimited C strings. We never rely
// on host integer formats — each width has its own dedicated encode/decode
// pair, with round-trip tests in wire_test.go.
const gOffset = 32

// Codepage selects the text encoding GSTRING uses to translate between wire
// bytes and UTF-8, keyed by the numeric codepage the client sent at login
// (§6 Login packet). Unknown codepages fall back to raw bytes (ASCII).
type Codepage int

const (
	CodepageASCII      Codepage = 0
	CodepageWindows1252 Codepage = 1252
	CodepageBig5        Codepage = 950
)

func encodingFor(cp Codepage) encoding.Encoding {
	switch cp {
	case CodepageWindows1252:
		return charmap.Windows1252
	case CodepageBig5:
		return traditionalchinese.Big5
	default:
		return nil
	}
}

// Reader decodes primitives from a decrypted, de-framed record. byte 0 is
// always the opcode (code+32); NewReader skips it.
type Reader struct {
	data []byte
	off  int
	cp   Codepage
}

func NewReader(data []byte, cp Codepage) *Reader {
	return &Reader{data: data, off: 1, cp: cp}
}

func (r *Reader) Opcode() byte {
	if len(r.data) == 0 {
		return 0
	}
	return r.data[0] - gOffset
}

func (r *Reader) Remaining() int { return len(r.data) - r.off }

// ReadGChar reads one offset-encoded byte.
func (r *Reader) ReadGChar() byte {
	if r.off >= len(r.data) {
		return 0
	}
	v := r.data[r.off] - gOffset
	r.off++
	return v
}

// ReadGShort reads a 2-byte offset-encoded big-endian value. Each byte
// keeps all 8 bits after the offset subtraction, so the full 0..65535
// range round-trips with WriteGShort.
func (r *Reader) ReadGShort() uint16 {
	if r.off+2 > len(r.data) {
		return 0
	}
	b0 := uint16(r.data[r.off] - gOffset)
	b1 := uint16(r.data[r.off+1] - gOffset)
	r.off += 2
	return b0<<8 | b1
}

// ReadGInt reads a 3-byte offset-encoded big-endian value.
func (r *Reader) ReadGInt() uint32 {
	if r.off+3 > len(r.data) {
		return 0
	}
	v := uint32(0)
	for i := 0; i < 3; i++ {
		v = v<<8 | uint32(r.data[r.off+i]-gOffset)
	}
	r.off += 3
	return v
}

// ReadGInt4 reads a 4-byte offset-encoded big-endian value.
func (r *Reader) ReadGInt4() uint32 {
	if r.off+4 > len(r.data) {
		return 0
	}
	v := uint32(0)
	for i := 0; i < 4; i++ {
		v = v<<8 | uint32(r.data[r.off+i]-gOffset)
	}
	r.off += 4
	return v
}

// ReadGInt5 reads a 5-byte offset-encoded big-endian value.
func (r *Reader) ReadGInt5() uint64 {
	if r.off+5 > len(r.data) {
		return 0
	}
	v := uint64(0)
	for i := 0; i < 5; i++ {
		v = v<<8 | uint64(r.data[r.off+i]-gOffset)
	}
	r.off += 5
	return v
}

// ReadGString reads a length-prefixed (by GChar) string and decodes it per
// the session's codepage. A length running past the end of the record is
// cut to the bytes that remain.
func (r *Reader) ReadGString() string {
	n := int(r.ReadGChar())
	if n == 0 {
		return ""
	}
	if r.off+n > len(r.data) {
		n = len(r.data) - r.off
	}
	raw := r.data[r.off : r.off+n]
	r.off += n
	return decodeCodepage(raw, r.cp)
}

// ReadRaw reads n raw bytes verbatim (used for the "raw follows" frame
// variant, where the body is consumed without further interpretation).
func (r *Reader) ReadRaw(n int) []byte {
	if r.off+n > len(r.data) {
		n = len(r.data) - r.off
	}
	b := make([]byte, n)
	copy(b, r.data[r.off:r.off+n])
	r.off += n
	return b
}

// ReadToNewline reads bytes until (not including) the next 0x0a, or to the
// end of the record if none remains. Used for raw-to-newline string fields.
func (r *Reader) ReadToNewline() []byte {
	start := r.off
	for r.off < len(r.data) && r.data[r.off] != '\n' {
		r.off++
	}
	b := r.data[start:r.off]
	if r.off < len(r.data) {
		r.off++ // consume the newline
	}
	return b
}

func decodeCodepage(raw []byte, cp Codepage) string {
	enc := encodingFor(cp)
	if enc == nil {
		return string(raw)
	}
	out, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return string(raw)
	}
	return string(out)
}

func encodeCodepage(s string, cp Codepage) []byte {
	enc := encodingFor(cp)
	if enc == nil {
		return []byte(s)
	}
	out, err := enc.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return []byte(s)
	}
	return out
}

// Writer builds one outbound record. Bytes() returns the record without the
// trailing newline or length header — the session's writeRecord owns
// encryption and framing (WriteFrameHeader).
type Writer struct {
	buf []byte
	cp  Codepage
}

func NewWriter(code byte, cp Codepage) *Writer {
	w := &Writer{buf: make([]byte, 0, 64), cp: cp}
	w.buf = append(w.buf, code+gOffset)
	return w
}

func (w *Writer) WriteGChar(v byte) {
	w.buf = append(w.buf, v+gOffset)
}

func (w *Writer) WriteGShort(v uint16) {
	w.buf = append(w.buf, byte(v>>8)+gOffset, byte(v)+gOffset)
}

func (w *Writer) WriteGInt(v uint32) {
	w.buf = append(w.buf, byte(v>>16)+gOffset, byte(v>>8)+gOffset, byte(v)+gOffset)
}

func (w *Writer) WriteGInt4(v uint32) {
	w.buf = append(w.buf, byte(v>>24)+gOffset, byte(v>>16)+gOffset, byte(v>>8)+gOffset, byte(v)+gOffset)
}

func (w *Writer) WriteGInt5(v uint64) {
	w.buf = append(w.buf,
		byte(v>>32)+gOffset, byte(v>>24)+gOffset, byte(v>>16)+gOffset,
		byte(v>>8)+gOffset, byte(v)+gOffset)
}

func (w *Writer) WriteGString(s string) {
	enc := encodeCodepage(s, w.cp)
	if len(enc) > 223 {
		enc = enc[:223] // GChar length prefix caps at 255-32
	}
	w.WriteGChar(byte(len(enc)))
	w.buf = append(w.buf, enc...)
}

func (w *Writer) WriteRaw(b []byte) {
	w.buf = append(w.buf, b...)
}

// Bytes returns the built record.
func (w *Writer) Bytes() []byte { return w.buf }

func (w *Writer) Len() int { return len(w.buf) }

// Finish returns the record ready for the outbound queue, appending the
// record-separator newline unless the caller passes appendNewline=false
// (sendPacket's "appendNewline=true" default, §4.1 Outbound).
func (w *Writer) Finish(appendNewline bool) []byte {
	if !appendNewline {
		return w.buf
	}
	out := make([]byte, len(w.buf)+1)
	copy(out, w.buf)
	out[len(w.buf)] = '\n'
	return out
}
