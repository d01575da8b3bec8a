package aead

import (
	"github.com/qrcs-corp/cexcore/block"
	"github.com/qrcs-corp/cexcore/cerr"
	"github.com/qrcs-corp/cexcore/mac"
)

// EAX combines CTR-mode encryption with three domain-separated CMACs (over
// the nonce, the associated data, and the ciphertext) so the construction
// needs only a single block-cipher key (spec.md §4.4, Bellare/Rogaway/Wagner).
type EAX struct {
	cipher  block.BlockCipher
	tagSize int

	encrypt  bool
	keyed    bool
	nTag     [16]byte // N' = CMAC_K(0 || nonce)
	hTag     [16]byte // H' = CMAC_K(1 || associated data)
	ctMac    *mac.CMAC
	counter  [16]byte
}

// NewEAX wraps an uninitialized cipher for EAX with the given tag size.
func NewEAX(cipher block.BlockCipher, tagSize int) (*EAX, error) {
	if cipher.BlockSize() != block.BlockSize {
		return nil, cerr.New(cerr.KindUnsupported, "aead.EAX", "only 16-byte block ciphers are supported")
	}
	if err := validateTagSize("aead.EAX", tagSize); err != nil {
		return nil, err
	}
	return &EAX{cipher: cipher, tagSize: tagSize}, nil
}

func (a *EAX) Enumeral() Enumeral { return EnumEAX }
func (a *EAX) TagSize() int       { return a.tagSize }

func (a *EAX) Reset() {
	a.hTag = [16]byte{}
	a.ctMac = nil
}

// omacTweaked runs CMAC over a 16-byte tweak block (encoding t in its last
// byte) concatenated with data, the OMAC1-with-tag-index construction EAX
// builds its three MACs from.
func omacTweaked(cipher block.BlockCipher, t byte, data []byte) ([16]byte, error) {
	m, err := mac.NewCMAC(cipher)
	if err != nil {
		return [16]byte{}, err
	}
	var tweak [16]byte
	tweak[15] = t
	if err := m.Update(tweak[:]); err != nil {
		return [16]byte{}, err
	}
	if err := m.Update(data); err != nil {
		return [16]byte{}, err
	}
	var out [16]byte
	if err := m.Finalize(out[:]); err != nil {
		return [16]byte{}, err
	}
	return out, nil
}

func (a *EAX) Initialize(encrypt bool, nonce, key []byte) error {
	if err := a.cipher.Initialize(true, block.Key{Key: key}); err != nil {
		return err
	}
	nTag, err := omacTweaked(a.cipher, 0, nonce)
	if err != nil {
		return err
	}
	a.nTag = nTag
	a.counter = nTag
	a.encrypt = encrypt
	a.keyed = true
	a.Reset()
	// Default to the empty-associated-data tag; SetAssociatedData
	// overrides it if the caller supplies any before the first Transform.
	hTag, err := omacTweaked(a.cipher, 1, nil)
	if err != nil {
		return err
	}
	a.hTag = hTag
	ctMac, err := mac.NewCMAC(a.cipher)
	if err != nil {
		return err
	}
	var tweak [16]byte
	tweak[15] = 2
	if err := ctMac.Update(tweak[:]); err != nil {
		return err
	}
	a.ctMac = ctMac
	return nil
}

func (a *EAX) SetAssociatedData(ad []byte) error {
	if !a.keyed {
		return cerr.New(cerr.KindNotInitialized, "aead.EAX", "cipher has not been initialized")
	}
	hTag, err := omacTweaked(a.cipher, 1, ad)
	if err != nil {
		return err
	}
	a.hTag = hTag
	return nil
}

func incCTR128(ctr *[16]byte) {
	for i := 15; i >= 0; i-- {
		ctr[i]++
		if ctr[i] != 0 {
			break
		}
	}
}

func (a *EAX) Transform(in, out []byte) error {
	if !a.keyed {
		return cerr.New(cerr.KindNotInitialized, "aead.EAX", "cipher has not been initialized")
	}
	if len(out) != len(in) {
		return cerr.New(cerr.KindInvalidSize, "aead.EAX", "output length must equal input length")
	}
	stream := make([]byte, 16)
	for off := 0; off < len(in); {
		if err := a.cipher.EncryptBlock(a.counter[:], stream); err != nil {
			return err
		}
		incCTR128(&a.counter)
		n := 16
		if off+n > len(in) {
			n = len(in) - off
		}
		for i := 0; i < n; i++ {
			out[off+i] = in[off+i] ^ stream[i]
		}
		if a.encrypt {
			if err := a.ctMac.Update(out[off : off+n]); err != nil {
				return err
			}
		} else {
			if err := a.ctMac.Update(in[off : off+n]); err != nil {
				return err
			}
		}
		off += n
	}
	return nil
}

func (a *EAX) Finish(tagInOut []byte) error {
	if !a.keyed {
		return cerr.New(cerr.KindNotInitialized, "aead.EAX", "cipher has not been initialized")
	}
	var cTag [16]byte
	if err := a.ctMac.Finalize(cTag[:]); err != nil {
		return err
	}
	var full [16]byte
	for i := range full {
		full[i] = a.nTag[i] ^ a.hTag[i] ^ cTag[i]
	}

	if a.encrypt {
		if len(tagInOut) < a.tagSize {
			return cerr.New(cerr.KindInvalidSize, "aead.EAX", "tag buffer too small")
		}
		copy(tagInOut[:a.tagSize], full[:a.tagSize])
		return nil
	}
	if len(tagInOut) < a.tagSize {
		return cerr.New(cerr.KindInvalidSize, "aead.EAX", "supplied tag too short")
	}
	if !ctEqual(tagInOut[:a.tagSize], full[:a.tagSize]) {
		return cerr.New(cerr.KindAuthenticationFailure, "aead.EAX", "tag mismatch")
	}
	return nil
}
