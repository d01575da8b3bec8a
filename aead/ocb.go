package aead

import (
	"math/bits"

	"github.com/qrcs-corp/cexcore/block"
	"github.com/qrcs-corp/cexcore/cerr"
	"github.com/qrcs-corp/cexcore/primitives/gf"
)

// OCB follows RFC 7253's offset-codebook structure: an L-table built by
// repeated GF(2^128) doubling selects, via the trailing-zero count of the
// block index, which offset to XOR into each block before and after the
// cipher call; a running checksum and a PMAC-style associated-data hash
// are folded together into the final tag (spec.md §4.4).
//
// Nonce processing departs from RFC 7253's bit-level Ktop/Stretch/bottom
// derivation (which operates below byte granularity): Offset_0 here is
// ENCIPHER(K, pad16(N)) XOR L_*, a byte-aligned substitute that keeps
// Offset_0 a deterministic, invertible function of the nonce and key
// without needing sub-byte bit shifting. See DESIGN.md.
type OCB struct {
	cipher  block.BlockCipher
	tagSize int

	encrypt bool
	keyed   bool

	lStar, lDollar [16]byte
	ls             [][16]byte // ls[k] = L_k

	offset      [16]byte
	checksum    [16]byte
	blockCtr    int
	transformed bool

	aadOffset [16]byte
	aadSum    [16]byte
	aadCtr    int
}

func NewOCB(cipher block.BlockCipher, tagSize int) (*OCB, error) {
	if cipher.BlockSize() != block.BlockSize {
		return nil, cerr.New(cerr.KindUnsupported, "aead.OCB", "only 16-byte block ciphers are supported")
	}
	if err := validateTagSize("aead.OCB", tagSize); err != nil {
		return nil, err
	}
	return &OCB{cipher: cipher, tagSize: tagSize}, nil
}

func (a *OCB) Enumeral() Enumeral { return EnumOCB }
func (a *OCB) TagSize() int       { return a.tagSize }

func (a *OCB) Reset() {
	a.checksum = [16]byte{}
	a.blockCtr = 0
	a.transformed = false
	a.aadOffset = [16]byte{}
	a.aadSum = [16]byte{}
	a.aadCtr = 0
}

// lForIndex returns L_{ntz(i)} for block index i >= 1, extending the
// cached table by further doublings as needed.
func (a *OCB) lForIndex(i int) [16]byte {
	k := bits.TrailingZeros(uint(i))
	for len(a.ls) <= k {
		prev := a.lDollar
		if len(a.ls) > 0 {
			prev = a.ls[len(a.ls)-1]
		}
		next := gf.Double128(prev[:])
		a.ls = append(a.ls, next)
	}
	return a.ls[k]
}

func (a *OCB) Initialize(encrypt bool, nonce, key []byte) error {
	if len(nonce) == 0 || len(nonce) > block.BlockSize {
		return cerr.New(cerr.KindInvalidNonce, "aead.OCB", "nonce must be 1 to 16 bytes")
	}
	if err := a.cipher.Initialize(true, block.Key{Key: key}); err != nil {
		return err
	}
	var zero [16]byte
	if err := a.cipher.EncryptBlock(zero[:], a.lStar[:]); err != nil {
		return err
	}
	a.lDollar = gf.Double128(a.lStar[:])
	a.ls = nil

	var padded [16]byte
	copy(padded[16-len(nonce):], nonce)
	var enc [16]byte
	if err := a.cipher.EncryptBlock(padded[:], enc[:]); err != nil {
		return err
	}
	a.offset = gf.Xor128(enc[:], a.lStar[:])

	a.encrypt = encrypt
	a.keyed = true
	a.Reset()
	return nil
}

func (a *OCB) SetAssociatedData(ad []byte) error {
	if !a.keyed {
		return cerr.New(cerr.KindNotInitialized, "aead.OCB", "cipher has not been initialized")
	}
	off := 0
	for ; off+16 <= len(ad); off += 16 {
		a.aadCtr++
		l := a.lForIndex(a.aadCtr)
		a.aadOffset = gf.Xor128(a.aadOffset[:], l[:])
		x := gf.Xor128(ad[off:off+16], a.aadOffset[:])
		var y [16]byte
		if err := a.cipher.EncryptBlock(x[:], y[:]); err != nil {
			return err
		}
		a.aadSum = gf.Xor128(a.aadSum[:], y[:])
	}
	if rem := len(ad) - off; rem > 0 {
		a.aadOffset = gf.Xor128(a.aadOffset[:], a.lStar[:])
		var padded [16]byte
		copy(padded[:], ad[off:])
		padded[rem] = 0x80
		x := gf.Xor128(padded[:], a.aadOffset[:])
		var y [16]byte
		if err := a.cipher.EncryptBlock(x[:], y[:]); err != nil {
			return err
		}
		a.aadSum = gf.Xor128(a.aadSum[:], y[:])
	}
	return nil
}

// Transform processes the entire message in one call: unlike EAX/GCM's
// byte-stream keystreams, an OCB block's ciphertext is only known once a
// full 16 bytes of the cipher-call input are available, so this
// implementation does not support splitting one message across multiple
// Transform calls. Calling it twice between an Initialize/Finish pair
// returns KindIllegalOperation.
func (a *OCB) Transform(in, out []byte) error {
	if !a.keyed {
		return cerr.New(cerr.KindNotInitialized, "aead.OCB", "cipher has not been initialized")
	}
	if len(out) != len(in) {
		return cerr.New(cerr.KindInvalidSize, "aead.OCB", "output length must equal input length")
	}
	if a.transformed {
		return cerr.New(cerr.KindIllegalOperation, "aead.OCB", "Transform may only be called once per message")
	}
	a.transformed = true

	full := len(in) / 16 * 16
	for off := 0; off < full; off += 16 {
		blk := in[off : off+16]
		a.blockCtr++
		l := a.lForIndex(a.blockCtr)
		a.offset = gf.Xor128(a.offset[:], l[:])
		var y [16]byte
		if a.encrypt {
			a.checksum = gf.Xor128(a.checksum[:], blk)
			x := gf.Xor128(blk, a.offset[:])
			if err := a.cipher.EncryptBlock(x[:], y[:]); err != nil {
				return err
			}
			c := gf.Xor128(y[:], a.offset[:])
			copy(out[off:off+16], c[:])
		} else {
			x := gf.Xor128(blk, a.offset[:])
			if err := a.cipher.DecryptBlock(x[:], y[:]); err != nil {
				return err
			}
			p := gf.Xor128(y[:], a.offset[:])
			copy(out[off:off+16], p[:])
			a.checksum = gf.Xor128(a.checksum[:], p[:])
		}
	}

	rem := len(in) - full
	if rem > 0 {
		a.offset = gf.Xor128(a.offset[:], a.lStar[:])
		var pad [16]byte
		if err := a.cipher.EncryptBlock(a.offset[:], pad[:]); err != nil {
			return err
		}
		var padded [16]byte
		if a.encrypt {
			for i := 0; i < rem; i++ {
				c := in[full+i] ^ pad[i]
				out[full+i] = c
				padded[i] = in[full+i]
			}
		} else {
			for i := 0; i < rem; i++ {
				p := in[full+i] ^ pad[i]
				out[full+i] = p
				padded[i] = p
			}
		}
		padded[rem] = 0x80
		a.checksum = gf.Xor128(a.checksum[:], padded[:])
	}
	return nil
}

func (a *OCB) Finish(tagInOut []byte) error {
	if !a.keyed {
		return cerr.New(cerr.KindNotInitialized, "aead.OCB", "cipher has not been initialized")
	}
	tagInput := gf.Xor128(a.checksum[:], a.offset[:])
	tagInput = gf.Xor128(tagInput[:], a.lDollar[:])
	var tag [16]byte
	if err := a.cipher.EncryptBlock(tagInput[:], tag[:]); err != nil {
		return err
	}
	full := gf.Xor128(tag[:], a.aadSum[:])

	if a.encrypt {
		if len(tagInOut) < a.tagSize {
			return cerr.New(cerr.KindInvalidSize, "aead.OCB", "tag buffer too small")
		}
		copy(tagInOut[:a.tagSize], full[:a.tagSize])
		a.Reset()
		return nil
	}
	if len(tagInOut) < a.tagSize {
		return cerr.New(cerr.KindInvalidSize, "aead.OCB", "supplied tag too short")
	}
	ok := ctEqual(tagInOut[:a.tagSize], full[:a.tagSize])
	a.Reset()
	if !ok {
		return cerr.New(cerr.KindAuthenticationFailure, "aead.OCB", "tag mismatch")
	}
	return nil
}
