// Package drbg implements the Block-Cipher Counter Generator (spec.md
// §4.5): a keyed block.BlockCipher run in CTR, reseeding itself from a
// rand.Provider once it has produced at least a threshold of output since
// the last reseed, mixing fresh entropy in via HKDF.
package drbg

import (
	"github.com/qrcs-corp/cexcore/block"
	"github.com/qrcs-corp/cexcore/cerr"
	"github.com/qrcs-corp/cexcore/primitives/hkdf"
	"github.com/qrcs-corp/cexcore/rand"
)

// DefaultReseedThreshold is 2^20 bytes (1 MiB) of output between reseeds,
// spec.md §4.5's default.
const DefaultReseedThreshold = 1 << 20

// BCG is the counter-mode DRBG this module exposes as a rand.Provider in
// its own right, so it composes with anything downstream that only needs
// IRandom.
type BCG struct {
	cipher    block.BlockCipher
	provider  rand.Provider
	hashID    hkdf.HashID
	threshold int

	counter    [16]byte
	sinceReseed int
	keyed      bool
}

// New builds a BCG over cipher (already selected, not yet Initialize'd),
// drawing reseed entropy from provider and mixing it via HKDF under
// hashID. threshold <= 0 selects DefaultReseedThreshold.
func New(cipher block.BlockCipher, provider rand.Provider, hashID hkdf.HashID, threshold int) (*BCG, error) {
	if cipher.BlockSize() != block.BlockSize {
		return nil, cerr.New(cerr.KindUnsupported, "drbg.BCG", "only 16-byte block ciphers are supported")
	}
	if provider == nil {
		return nil, cerr.New(cerr.KindInvalidParam, "drbg.BCG", "provider must not be nil")
	}
	if threshold <= 0 {
		threshold = DefaultReseedThreshold
	}
	return &BCG{cipher: cipher, provider: provider, hashID: hashID, threshold: threshold}, nil
}

// Initialize keys the generator from seed (the cipher's native key size)
// and a 16-byte initial counter (nonce); either may be generated by the
// caller from provider ahead of time.
func (g *BCG) Initialize(seed, nonce []byte) error {
	if len(nonce) != block.BlockSize {
		return cerr.New(cerr.KindInvalidNonce, "drbg.BCG", "nonce must equal the block size")
	}
	if err := g.cipher.Initialize(true, block.Key{Key: seed}); err != nil {
		return err
	}
	copy(g.counter[:], nonce)
	g.sinceReseed = 0
	g.keyed = true
	return nil
}

func (g *BCG) incrementCounter() {
	for i := 15; i >= 0; i-- {
		g.counter[i]++
		if g.counter[i] != 0 {
			break
		}
	}
}

// reseed derives a new key from fresh provider entropy via HKDF-Extract,
// salted with the counter value at the moment of reseed. The previous key
// is not an input to the derivation: the new key depends only on the
// entropy and the counter.
func (g *BCG) reseed(keySize int) error {
	entropy := make([]byte, keySize)
	if err := g.provider.Generate(entropy); err != nil {
		return cerr.Wrap(cerr.KindInternal, "drbg.BCG", "entropy provider failed", err)
	}
	salt := append([]byte(nil), g.counter[:]...)
	newKey, err := hkdf.Extract(g.hashID, salt, entropy, []byte("cexcore-bcg-reseed"), keySize)
	if err != nil {
		return cerr.Wrap(cerr.KindInternal, "drbg.BCG", "HKDF reseed mix failed", err)
	}
	if err := g.cipher.Initialize(true, block.Key{Key: newKey}); err != nil {
		return err
	}
	g.sinceReseed = 0
	return nil
}

// Generate fills buf with DRBG output, reseeding first whenever the
// threshold has been crossed.
func (g *BCG) Generate(buf []byte) error {
	if !g.keyed {
		return cerr.New(cerr.KindNotInitialized, "drbg.BCG", "generator has not been initialized")
	}
	keySizes := g.cipher.LegalKeySizes()
	keySize := 32
	if len(keySizes) > 0 {
		keySize = keySizes[len(keySizes)-1]
	}
	off := 0
	var out [16]byte
	for off < len(buf) {
		if g.sinceReseed >= g.threshold {
			if err := g.reseed(keySize); err != nil {
				return err
			}
		}
		g.incrementCounter()
		if err := g.cipher.EncryptBlock(g.counter[:], out[:]); err != nil {
			return err
		}
		n := copy(buf[off:], out[:])
		off += n
		g.sinceReseed += n
	}
	return nil
}

// Reset clears generator state; Initialize must be called again before
// further use.
func (g *BCG) Reset() {
	g.cipher.Reset()
	g.counter = [16]byte{}
	g.sinceReseed = 0
	g.keyed = false
}
