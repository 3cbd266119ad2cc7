package protocol

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// MaxFrameLen bounds a single inbound frame; a length at or above this is a
// fatal protocol error (§4.1 Errors).
const MaxFrameLen = 0xffff

// compressionThreshold names a payload size for outbound compression (§4.1).
// No outbound path in this implementation compresses bodies, and nothing
// references this constant.
const compressionThreshold = 2048

// ReadFrameHeader reads the 2-byte big-endian length prefix and the
// following ciphertext body from r. It does not decrypt or split records —
// that's the caller's job, since decryption needs the session's cipher.
func ReadFrameHeader(r io.Reader) ([]byte, error) {
	var header [2]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, err
	}
	length := int(binary.BigEndian.Uint16(header[:]))
	if length == 0 {
		return nil, nil // need more bytes is not applicable at this layer; zero-length frame is just empty
	}
	if length >= MaxFrameLen {
		return nil, fmt.Errorf("protocol: frame length %d exceeds cap", length)
	}
	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, fmt.Errorf("protocol: read frame body (%d bytes): %w", length, err)
	}
	return body, nil
}

// WriteFrameHeader writes the 2-byte big-endian length prefix followed by
// the (already encrypted) body.
func WriteFrameHeader(w io.Writer, body []byte) error {
	if len(body) >= MaxFrameLen {
		return fmt.Errorf("protocol: outbound frame length %d exceeds cap", len(body))
	}
	var header [2]byte
	binary.BigEndian.PutUint16(header[:], uint16(len(body)))
	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("protocol: write frame header: %w", err)
	}
	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("protocol: write frame body: %w", err)
	}
	return nil
}

// RecordSplitter turns one decrypted frame's plaintext into the one-or-more
// newline-terminated logical records it contains (§4.1). It carries the
// "raw follows" state across calls within a single frame: a record whose
// code is one of the raw-announcing codes switches the splitter into
// consuming the next N bytes verbatim, skipping newline-scanning for that
// one record.
type RecordSplitter struct {
	rawPending int // >0: next Next() call consumes this many bytes verbatim
}

// IsRawAnnouncer reports whether code is one of the codes that announce a
// raw-data frame is coming next (PLI_RAWDATA, PLI_NC_NPCADD-style).
func IsRawAnnouncer(code byte) bool {
	return code == PLI_RAWDATA || code == PLI_NC_NPCADD
}

// Next extracts the next logical record from plaintext starting at offset
// off. It returns the record bytes (code byte included, newline excluded),
// the new offset, and whether a record was produced. When a raw length has
// been armed, the record is that many bytes (cut at the end of plaintext).
func (s *RecordSplitter) Next(plaintext []byte, off int) ([]byte, int, bool) {
	if off >= len(plaintext) {
		return nil, off, false
	}
	if s.rawPending > 0 {
		n := s.rawPending
		if off+n > len(plaintext) {
			n = len(plaintext) - off
		}
		rec := plaintext[off : off+n]
		s.rawPending = 0
		return rec, off + n, true
	}

	idx := bytes.IndexByte(plaintext[off:], '\n')
	var rec []byte
	var next int
	if idx < 0 {
		rec = plaintext[off:]
		next = len(plaintext)
	} else {
		rec = plaintext[off : off+idx]
		next = off + idx + 1
	}
	return rec, next, true
}

// ArmRawFollows tells the splitter that the next record is N raw bytes, not
// a newline-delimited one. Called by the dispatcher after it processes a
// record whose code is a raw announcer and it has read the announced size
// out of that record's payload.
func (s *RecordSplitter) ArmRawFollows(n int) {
	s.rawPending = n
}
