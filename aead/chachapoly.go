package aead

import (
	"golang.org/x/crypto/chacha20poly1305"

	"github.com/qrcs-corp/cexcore/cerr"
)

// ChaChaPoly wraps golang.org/x/crypto/chacha20poly1305 behind the same
// AeadCipher shape as the from-scratch block-cipher-based constructions, so
// callers can use it through the same AeadCipher interface (SPEC_FULL.md's
// domain-stack wiring: the teacher already depends on this package for its
// own default cipher).
type ChaChaPoly struct {
	aead    interface {
		Seal(dst, nonce, plaintext, additionalData []byte) []byte
		Open(dst, nonce, ciphertext, additionalData []byte) ([]byte, error)
		NonceSize() int
		Overhead() int
	}
	encrypt bool
	keyed   bool
	nonce   []byte
	ad      []byte
	buf     []byte

	pendingOuts [][]byte
}

func NewChaChaPoly() *ChaChaPoly { return &ChaChaPoly{} }

func (a *ChaChaPoly) Enumeral() Enumeral { return EnumChaChaPoly }
func (a *ChaChaPoly) TagSize() int       { return chacha20poly1305.Overhead }

func (a *ChaChaPoly) Reset() {
	a.ad = nil
	a.buf = a.buf[:0]
	a.pendingOuts = a.pendingOuts[:0]
}

func (a *ChaChaPoly) Initialize(encrypt bool, nonce, key []byte) error {
	c, err := chacha20poly1305.New(key)
	if err != nil {
		return cerr.Wrap(cerr.KindInvalidKey, "aead.ChaChaPoly", "chacha20poly1305 key rejected", err)
	}
	if len(nonce) != c.NonceSize() {
		return cerr.New(cerr.KindInvalidNonce, "aead.ChaChaPoly", "nonce must be 12 bytes")
	}
	a.aead = c
	a.nonce = append([]byte(nil), nonce...)
	a.encrypt = encrypt
	a.keyed = true
	a.Reset()
	return nil
}

func (a *ChaChaPoly) SetAssociatedData(ad []byte) error {
	if !a.keyed {
		return cerr.New(cerr.KindNotInitialized, "aead.ChaChaPoly", "cipher has not been initialized")
	}
	a.ad = append([]byte(nil), ad...)
	return nil
}

// Transform buffers the whole message: golang.org/x/crypto's AEAD
// interface is one-shot (Seal/Open take the complete plaintext or
// ciphertext-plus-tag), so streaming through Transform/Finish is adapted
// here by accumulating until Finish runs the real Seal/Open call.
func (a *ChaChaPoly) Transform(in, out []byte) error {
	if !a.keyed {
		return cerr.New(cerr.KindNotInitialized, "aead.ChaChaPoly", "cipher has not been initialized")
	}
	if len(out) != len(in) {
		return cerr.New(cerr.KindInvalidSize, "aead.ChaChaPoly", "output length must equal input length")
	}
	a.buf = append(a.buf, in...)
	// The real ciphertext/plaintext bytes are only known once Seal/Open
	// runs in Finish; zero the caller's buffer now and copy the real
	// bytes in once Finish has them, via the pending out-slice below.
	for i := range out {
		out[i] = 0
	}
	a.pendingOuts = append(a.pendingOuts, out)
	return nil
}

func (a *ChaChaPoly) Finish(tagInOut []byte) error {
	if !a.keyed {
		return cerr.New(cerr.KindNotInitialized, "aead.ChaChaPoly", "cipher has not been initialized")
	}
	if a.encrypt {
		sealed := a.aead.Seal(nil, a.nonce, a.buf, a.ad)
		ct, tag := sealed[:len(sealed)-a.TagSize()], sealed[len(sealed)-a.TagSize():]
		a.scatter(ct)
		if len(tagInOut) < a.TagSize() {
			return cerr.New(cerr.KindInvalidSize, "aead.ChaChaPoly", "tag buffer too small")
		}
		copy(tagInOut[:a.TagSize()], tag)
		a.Reset()
		return nil
	}
	if len(tagInOut) < a.TagSize() {
		return cerr.New(cerr.KindInvalidSize, "aead.ChaChaPoly", "supplied tag too short")
	}
	sealed := append(append([]byte(nil), a.buf...), tagInOut[:a.TagSize()]...)
	pt, err := a.aead.Open(nil, a.nonce, sealed, a.ad)
	if err != nil {
		a.Reset()
		return cerr.Wrap(cerr.KindAuthenticationFailure, "aead.ChaChaPoly", "tag mismatch", err)
	}
	a.scatter(pt)
	a.Reset()
	return nil
}

// scatter copies result back into the out-slices Transform was given, in
// call order.
func (a *ChaChaPoly) scatter(result []byte) {
	off := 0
	for _, out := range a.pendingOuts {
		copy(out, result[off:off+len(out)])
		off += len(out)
	}
	a.pendingOuts = a.pendingOuts[:0]
}
