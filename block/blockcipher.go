// Package block implements the BlockCipher capability (spec.md §4.1):
// Rijndael, Serpent and Twofish, each in a standard form and an
// HKDF-extended (HX) form with enlarged keys and extra rounds.
package block

import (
	"github.com/qrcs-corp/cexcore/cerr"
	"github.com/qrcs-corp/cexcore/primitives/hkdf"
)

// BlockSize is the fixed 16-byte block width shared by every cipher family
// this package implements.
const BlockSize = 16

// Enumeral identifies a block cipher family, mirroring spec.md §6.2's
// stable BlockCiphers enumeration.
type Enumeral uint8

const (
	EnumNone     Enumeral = 0
	EnumAHX      Enumeral = 1
	EnumRijndael Enumeral = 2
	EnumRHX      Enumeral = 4
	EnumSerpent  Enumeral = 8
	EnumSHX      Enumeral = 16
	EnumTwofish  Enumeral = 32
	EnumTHX      Enumeral = 64
)

// Key bundles the key material a BlockCipher is initialized with. Info is
// only consumed by HX variants as the HKDF distribution code; standard
// variants ignore it. Nonce is unused by a bare BlockCipher (modes own
// nonces/IVs) but is part of the shared SymmetricKey shape from spec.md §3.
type Key struct {
	Key   []byte
	Nonce []byte
	Info  []byte
}

// BlockCipher is the capability every cipher family in this package
// implements: keyed encryption/decryption of single blocks, plus bulk
// variants for SIMD-friendly batching (spec.md §4.1).
type BlockCipher interface {
	// Initialize keys the cipher for the given direction. Round keys are
	// immutable after this call until Reset.
	Initialize(encrypt bool, key Key) error

	// EncryptBlock encrypts exactly one BlockSize-byte block from in into out.
	EncryptBlock(in, out []byte) error
	// DecryptBlock decrypts exactly one BlockSize-byte block from in into out.
	DecryptBlock(in, out []byte) error

	// TransformBlocks processes n whole blocks (n may be 1, 4, 8, 16, or
	// any other count); implementations loop over single-block transforms
	// unless they have a genuine batched fast path.
	TransformBlocks(in, out []byte) error

	// BlockSize returns 16 for every cipher in this package.
	BlockSize() int
	// LegalKeySizes returns the key sizes, in bytes, this instance accepts.
	LegalKeySizes() []int
	// Enumeral identifies the concrete cipher family and mode (standard or HX).
	Enumeral() Enumeral
	// Reset clears round-key material and returns the cipher to the
	// uninitialized state.
	Reset()
}

// direction tracks whether a cipher instance was initialized for
// encryption or decryption; it is embedded by every concrete cipher.
type direction struct {
	encrypt     bool
	initialized bool
}

func (d *direction) requireInitialized(location string) error {
	if !d.initialized {
		return cerr.New(cerr.KindNotInitialized, location, "cipher has not been initialized")
	}
	return nil
}

// hxKeySchedule runs HKDF-Expand over the supplied key to produce
// roundKeyBytes bytes of round-key material, per spec.md §4.1: "run
// HKDF-Expand over an IKM that is the provided key, with a fixed info
// string containing the cipher name and a user-settable distribution
// code... salt = empty".
func hxKeySchedule(cipherName string, key, distributionCode []byte, hashID hkdf.HashID, roundKeyBytes int) ([]byte, error) {
	info := make([]byte, 0, len(cipherName)+len(distributionCode)+1)
	info = append(info, []byte(cipherName)...)
	info = append(info, 0x00)
	info = append(info, distributionCode...)
	return hkdf.Expand(hashID, key, info, roundKeyBytes)
}

// isLegalSize reports whether n is present in sizes.
func isLegalSize(n int, sizes []int) bool {
	for _, s := range sizes {
		if s == n {
			return true
		}
	}
	return false
}

// isLegalHXSize reports whether n is one of the fixed HX sizes, or
// 64 + k*digestSize for some k >= 0, per spec.md §4.1's HX LegalKeySizes.
func isLegalHXSize(n, digestSize int) bool {
	for _, s := range []int{16, 24, 32, 64} {
		if n == s {
			return true
		}
	}
	if n < 64 || digestSize <= 0 {
		return false
	}
	return (n-64)%digestSize == 0
}
