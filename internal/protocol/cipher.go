package protocol

// CipherGeneration selects which of the three coexisting stream ciphers a
// session uses, chosen by client version at login (§4.1).
type CipherGeneration int

const (
	CipherNone CipherGeneration = iota
	CipherRollingXOR
	CipherBlock
)

// Cipher is the per-direction stream cipher state. Encrypt/Decrypt mutate
// data in place and return it; the codec clones a buffer before encrypting
// if it still needs the plaintext afterward.
type Cipher interface {
	Encrypt(data []byte) []byte
	Decrypt(data []byte) []byte
}

// NewCipher constructs the cipher for a negotiated generation, keyed at
// login. Encryption resets (a fresh Cipher is built) whenever version
// negotiation completes, per §4.1.
func NewCipher(gen CipherGeneration, seed int32) Cipher {
	switch gen {
	case CipherRollingXOR:
		return newRollingXORCipher(seed)
	case CipherBlock:
		return newBlockCipher(seed)
	default:
		return nullCipher{}
	}
}

type nullCipher struct{}

func (nullCipher) Encrypt(data []byte) []byte { return data }
func (nullCipher) Decrypt(data []byte) []byte { return data }

// rollingXORCipher is generation 2 of the three that coexist (§4.1): "XOR
// + rotate with a byte key". Each direction carries its own single-byte
// rolling key (ekey for outbound, dkey for inbound) seeded identically at
// construction; every byte processed XORs against the current key byte and
// then folds the resulting ciphertext byte back into a left-rotated key,
// so the two directions' key streams stay in lockstep without either side
// needing to see the other's traffic.
type rollingXORCipher struct {
	ekey byte
	dkey byte
}

func newRollingXORCipher(seed int32) *rollingXORCipher {
	u := uint32(seed)
	// Fold the 32-bit seed down to a single key byte: XOR its four bytes
	// together, then mix in a fixed constant so an all-zero seed doesn't
	// start the stream at key 0x00.
	k := byte(u) ^ byte(u>>8) ^ byte(u>>16) ^ byte(u>>24) ^ 0x5a
	return &rollingXORCipher{ekey: k, dkey: k}
}

// rotl8 rotates an 8-bit value left by n bits (0..7).
func rotl8(b byte, n uint) byte {
	n &= 7
	return b<<n | b>>(8-n)
}

func (c *rollingXORCipher) Encrypt(data []byte) []byte {
	for i, p := range data {
		out := p ^ c.ekey
		data[i] = out
		c.ekey = rotl8(c.ekey, 1) ^ out
	}
	return data
}

func (c *rollingXORCipher) Decrypt(data []byte) []byte {
	for i, b := range data {
		p := b ^ c.dkey
		c.dkey = rotl8(c.dkey, 1) ^ b
		data[i] = p
	}
	return data
}

// blockCipher is generation 3: a block-wise XOR cipher with independent
// in/out byte counters, each selecting a byte from a seed-derived key block.
// Encode and decode counters advance independently so that the two
// directions never interfere with each other's state even under
// interleaved partial reads/writes.
type blockCipher struct {
	key      [16]byte
	inCount  uint32
	outCount uint32
}

func newBlockCipher(seed int32) *blockCipher {
	c := &blockCipher{}
	s := uint32(seed)
	for i := range c.key {
		s = s*1103515245 + 12345
		c.key[i] = byte(s >> 16)
	}
	return c
}

func (c *blockCipher) Encrypt(data []byte) []byte {
	for i := range data {
		data[i] ^= c.key[c.outCount%uint32(len(c.key))]
		c.outCount++
	}
	return data
}

func (c *blockCipher) Decrypt(data []byte) []byte {
	for i := range data {
		data[i] ^= c.key[c.inCount%uint32(len(c.key))]
		c.inCount++
	}
	return data
}
