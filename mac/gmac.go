package mac

import (
	"github.com/qrcs-corp/cexcore/block"
	"github.com/qrcs-corp/cexcore/cerr"
	"github.com/qrcs-corp/cexcore/primitives/gf"
	"github.com/qrcs-corp/cexcore/util"
)

// GMAC is GCM's authentication path (GHASH keyed by H = E_K(0), tag masked
// by E_K(J0)) used as a standalone Mac with no associated ciphertext, per
// NIST SP 800-38D §5. SPEC_FULL.md draws this out as its own construction
// rather than leaving GHASH only reachable through aead.GCM.
type GMAC struct {
	cipher block.BlockCipher
	h      [16]byte
	j0Tag  [16]byte

	acc      [16]byte
	partial  []byte
	dataBits uint64
	keyed    bool
}

// NewGMAC wraps an already-Initialize'd cipher and a nonce (any non-zero
// length; 12 bytes is the fast path, same as GCM) for GMAC tag generation.
func NewGMAC(cipher block.BlockCipher, nonce []byte) (*GMAC, error) {
	if cipher.BlockSize() != block.BlockSize {
		return nil, cerr.New(cerr.KindUnsupported, "mac.GMAC", "only 16-byte block ciphers are supported")
	}
	if len(nonce) == 0 {
		return nil, cerr.New(cerr.KindInvalidNonce, "mac.GMAC", "nonce must not be empty")
	}
	m := &GMAC{cipher: cipher, keyed: true}
	var zero, h [16]byte
	if err := cipher.EncryptBlock(zero[:], h[:]); err != nil {
		return nil, err
	}
	m.h = h

	j0 := deriveJ0(nonce, m.h)
	var ek [16]byte
	if err := cipher.EncryptBlock(j0[:], ek[:]); err != nil {
		return nil, err
	}
	m.j0Tag = ek
	return m, nil
}

// deriveJ0 is NIST SP 800-38D §7.1's J0 derivation; aead.GCM performs the
// same derivation with its own copy.
func deriveJ0(nonce []byte, h [16]byte) [16]byte {
	var j0 [16]byte
	if len(nonce) == 12 {
		copy(j0[:12], nonce)
		j0[15] = 1
		return j0
	}
	var acc [16]byte
	full := len(nonce) / 16 * 16
	for off := 0; off < full; off += 16 {
		x := gf.Xor128(nonce[off:off+16], acc[:])
		acc = gf.GHASHMul(x, h)
	}
	if rem := len(nonce) - full; rem > 0 {
		var last [16]byte
		copy(last[:], nonce[full:])
		x := gf.Xor128(last[:], acc[:])
		acc = gf.GHASHMul(x, h)
	}
	var lenBlock [16]byte
	util.PutUint64BE(lenBlock[8:], uint64(len(nonce))*8)
	x := gf.Xor128(lenBlock[:], acc[:])
	return gf.GHASHMul(x, h)
}

func (m *GMAC) Enumeral() Enumeral { return EnumGMAC }
func (m *GMAC) TagSize() int       { return block.BlockSize }

func (m *GMAC) Reset() {
	m.acc = [16]byte{}
	m.partial = m.partial[:0]
	m.dataBits = 0
}

func (m *GMAC) Update(data []byte) error {
	if !m.keyed {
		return cerr.New(cerr.KindNotInitialized, "mac.GMAC", "mac has not been initialized")
	}
	m.dataBits += uint64(len(data)) * 8
	m.partial = append(m.partial, data...)
	for len(m.partial) >= 16 {
		x := gf.Xor128(m.partial[:16], m.acc[:])
		m.acc = gf.GHASHMul(x, m.h)
		m.partial = m.partial[16:]
	}
	return nil
}

func (m *GMAC) Finalize(tag []byte) error {
	if !m.keyed {
		return cerr.New(cerr.KindNotInitialized, "mac.GMAC", "mac has not been initialized")
	}
	if err := requireTagBuffer("mac.GMAC", tag, block.BlockSize); err != nil {
		return err
	}
	if len(m.partial) > 0 {
		var last [16]byte
		copy(last[:], m.partial)
		x := gf.Xor128(last[:], m.acc[:])
		m.acc = gf.GHASHMul(x, m.h)
	}
	var lenBlock [16]byte
	util.PutUint64BE(lenBlock[:8], m.dataBits)
	x := gf.Xor128(lenBlock[:], m.acc[:])
	ghash := gf.GHASHMul(x, m.h)

	result := gf.Xor128(ghash[:], m.j0Tag[:])
	copy(tag[:block.BlockSize], result[:])
	m.Reset()
	return nil
}
