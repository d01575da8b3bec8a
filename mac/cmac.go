package mac

import (
	"github.com/qrcs-corp/cexcore/block"
	"github.com/qrcs-corp/cexcore/cerr"
	"github.com/qrcs-corp/cexcore/primitives/gf"
)

// CMAC implements NIST SP 800-38B over any block.BlockCipher: two subkeys
// K1/K2 are derived once from CIPH_K(0), and the message is CBC-chained
// under that cipher with the last block XORed by K1 (whole final block) or
// K2 (short/empty final block, then 0x80-padded).
type CMAC struct {
	cipher block.BlockCipher
	k1, k2 [16]byte
	keyed  bool

	chain   [16]byte
	pending []byte
}

// NewCMAC wraps an already-Initialize'd cipher (direction is irrelevant;
// CMAC only ever encrypts) for CMAC tag generation.
func NewCMAC(cipher block.BlockCipher) (*CMAC, error) {
	if cipher.BlockSize() != block.BlockSize {
		return nil, cerr.New(cerr.KindUnsupported, "mac.CMAC", "only 16-byte block ciphers are supported")
	}
	m := &CMAC{cipher: cipher}
	var zero, l [16]byte
	if err := cipher.EncryptBlock(zero[:], l[:]); err != nil {
		return nil, err
	}
	m.k1 = gf.Double128(l[:])
	m.k2 = gf.Double128(m.k1[:])
	m.keyed = true
	return m, nil
}

func (m *CMAC) Enumeral() Enumeral { return EnumCMAC }
func (m *CMAC) TagSize() int       { return block.BlockSize }

func (m *CMAC) Reset() {
	m.chain = [16]byte{}
	m.pending = m.pending[:0]
}

func (m *CMAC) Update(data []byte) error {
	if !m.keyed {
		return cerr.New(cerr.KindNotInitialized, "mac.CMAC", "mac has not been initialized")
	}
	m.pending = append(m.pending, data...)
	// Process every full block except, possibly, the very last one: CMAC
	// must know which block is final before transforming it.
	for len(m.pending) > block.BlockSize {
		blk := m.pending[:block.BlockSize]
		x := gf.Xor128(blk, m.chain[:])
		var y [16]byte
		if err := m.cipher.EncryptBlock(x[:], y[:]); err != nil {
			return err
		}
		m.chain = y
		m.pending = m.pending[block.BlockSize:]
	}
	return nil
}

func (m *CMAC) Finalize(tag []byte) error {
	if !m.keyed {
		return cerr.New(cerr.KindNotInitialized, "mac.CMAC", "mac has not been initialized")
	}
	if err := requireTagBuffer("mac.CMAC", tag, block.BlockSize); err != nil {
		return err
	}

	var last [16]byte
	var subkey [16]byte
	if len(m.pending) == block.BlockSize {
		copy(last[:], m.pending)
		subkey = m.k1
	} else {
		copy(last[:], m.pending)
		last[len(m.pending)] = 0x80
		subkey = m.k2
	}
	x := gf.Xor128(last[:], m.chain[:])
	x = gf.Xor128(x[:], subkey[:])
	var y [16]byte
	if err := m.cipher.EncryptBlock(x[:], y[:]); err != nil {
		return err
	}
	copy(tag[:block.BlockSize], y[:])
	m.Reset()
	return nil
}
