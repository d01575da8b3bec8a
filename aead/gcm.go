package aead

import (
	"github.com/qrcs-corp/cexcore/block"
	"github.com/qrcs-corp/cexcore/cerr"
	"github.com/qrcs-corp/cexcore/primitives/gf"
	"github.com/qrcs-corp/cexcore/util"
)

// GCM is Galois/Counter Mode (NIST SP 800-38D): CTR-mode keystream plus a
// GHASH-based authentication tag over associated data, ciphertext and
// their bit lengths (spec.md §4.4).
type GCM struct {
	cipher  block.BlockCipher
	tagSize int

	encrypt bool
	h       [16]byte
	j0      [16]byte
	counter [16]byte

	ghashAcc [16]byte
	adBits   uint64
	ctBits   uint64
	ctPend   []byte
	adDone   bool
	keyed    bool
}

// NewGCM wraps an uninitialized cipher for GCM with the given tag size.
func NewGCM(cipher block.BlockCipher, tagSize int) (*GCM, error) {
	if cipher.BlockSize() != block.BlockSize {
		return nil, cerr.New(cerr.KindUnsupported, "aead.GCM", "only 16-byte block ciphers are supported")
	}
	if err := validateTagSize("aead.GCM", tagSize); err != nil {
		return nil, err
	}
	return &GCM{cipher: cipher, tagSize: tagSize}, nil
}

func (a *GCM) Enumeral() Enumeral { return EnumGCM }
func (a *GCM) TagSize() int       { return a.tagSize }

func (a *GCM) Reset() {
	a.ghashAcc = [16]byte{}
	a.adBits, a.ctBits = 0, 0
	a.ctPend = a.ctPend[:0]
	a.adDone = false
}

func (a *GCM) Initialize(encrypt bool, nonce, key []byte) error {
	if len(nonce) == 0 {
		return cerr.New(cerr.KindInvalidNonce, "aead.GCM", "nonce must not be empty")
	}
	if err := a.cipher.Initialize(true, block.Key{Key: key}); err != nil {
		return err
	}
	var zero [16]byte
	if err := a.cipher.EncryptBlock(zero[:], a.h[:]); err != nil {
		return err
	}
	a.j0 = deriveJ0(nonce, a.h)
	a.counter = a.j0
	incGCMCounter(&a.counter)
	a.encrypt = encrypt
	a.keyed = true
	a.Reset()
	return nil
}

func incGCMCounter(ctr *[16]byte) {
	for i := 15; i >= 12; i-- {
		ctr[i]++
		if ctr[i] != 0 {
			break
		}
	}
}

func ghashBlock(acc *[16]byte, h [16]byte, blk [16]byte) {
	x := gf.Xor128(blk[:], acc[:])
	*acc = gf.GHASHMul(x, h)
}

func (a *GCM) SetAssociatedData(ad []byte) error {
	if !a.keyed {
		return cerr.New(cerr.KindNotInitialized, "aead.GCM", "cipher has not been initialized")
	}
	if a.adDone {
		return cerr.New(cerr.KindIllegalOperation, "aead.GCM", "associated data already set")
	}
	a.adBits = uint64(len(ad)) * 8
	off := 0
	for ; off+16 <= len(ad); off += 16 {
		var blk [16]byte
		copy(blk[:], ad[off:off+16])
		ghashBlock(&a.ghashAcc, a.h, blk)
	}
	if rem := len(ad) - off; rem > 0 {
		var blk [16]byte
		copy(blk[:], ad[off:])
		ghashBlock(&a.ghashAcc, a.h, blk)
	}
	a.adDone = true
	return nil
}

func (a *GCM) Transform(in, out []byte) error {
	if !a.keyed {
		return cerr.New(cerr.KindNotInitialized, "aead.GCM", "cipher has not been initialized")
	}
	if len(out) != len(in) {
		return cerr.New(cerr.KindInvalidSize, "aead.GCM", "output length must equal input length")
	}
	stream := make([]byte, 16)
	for off := 0; off < len(in); {
		if err := a.cipher.EncryptBlock(a.counter[:], stream); err != nil {
			return err
		}
		incGCMCounter(&a.counter)
		n := 16
		if off+n > len(in) {
			n = len(in) - off
		}
		util.Xor(out[off:off+n], in[off:off+n], stream[:n])
		if a.encrypt {
			a.absorbCiphertext(out[off : off+n])
		} else {
			a.absorbCiphertext(in[off : off+n])
		}
		off += n
	}
	return nil
}

func (a *GCM) absorbCiphertext(ct []byte) {
	a.ctBits += uint64(len(ct)) * 8
	a.ctPend = append(a.ctPend, ct...)
	for len(a.ctPend) >= 16 {
		var blk [16]byte
		copy(blk[:], a.ctPend[:16])
		ghashBlock(&a.ghashAcc, a.h, blk)
		a.ctPend = a.ctPend[16:]
	}
}

func (a *GCM) Finish(tagInOut []byte) error {
	if !a.keyed {
		return cerr.New(cerr.KindNotInitialized, "aead.GCM", "cipher has not been initialized")
	}
	if len(a.ctPend) > 0 {
		var blk [16]byte
		copy(blk[:], a.ctPend)
		ghashBlock(&a.ghashAcc, a.h, blk)
	}
	var lenBlock [16]byte
	util.PutUint64BE(lenBlock[0:8], a.adBits)
	util.PutUint64BE(lenBlock[8:16], a.ctBits)
	ghashBlock(&a.ghashAcc, a.h, lenBlock)

	var ek [16]byte
	if err := a.cipher.EncryptBlock(a.j0[:], ek[:]); err != nil {
		return err
	}
	full := gf.Xor128(a.ghashAcc[:], ek[:])

	if a.encrypt {
		if len(tagInOut) < a.tagSize {
			return cerr.New(cerr.KindInvalidSize, "aead.GCM", "tag buffer too small")
		}
		copy(tagInOut[:a.tagSize], full[:a.tagSize])
		a.Reset()
		return nil
	}
	if len(tagInOut) < a.tagSize {
		return cerr.New(cerr.KindInvalidSize, "aead.GCM", "supplied tag too short")
	}
	ok := ctEqual(tagInOut[:a.tagSize], full[:a.tagSize])
	a.Reset()
	if !ok {
		return cerr.New(cerr.KindAuthenticationFailure, "aead.GCM", "tag mismatch")
	}
	return nil
}

// deriveJ0 is NIST SP 800-38D §7.1's J0 derivation, shared in spirit with
// mac.GMAC's identical construction.
func deriveJ0(nonce []byte, h [16]byte) [16]byte {
	var j0 [16]byte
	if len(nonce) == 12 {
		copy(j0[:12], nonce)
		j0[15] = 1
		return j0
	}
	var acc [16]byte
	off := 0
	for ; off+16 <= len(nonce); off += 16 {
		var blk [16]byte
		copy(blk[:], nonce[off:off+16])
		ghashBlock(&acc, h, blk)
	}
	if rem := len(nonce) - off; rem > 0 {
		var blk [16]byte
		copy(blk[:], nonce[off:])
		ghashBlock(&acc, h, blk)
	}
	var lenBlock [16]byte
	util.PutUint64BE(lenBlock[8:], uint64(len(nonce))*8)
	ghashBlock(&acc, h, lenBlock)
	return acc
}
