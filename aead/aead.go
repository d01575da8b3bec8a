// Package aead implements the AeadCipher capability (spec.md §4.4): EAX,
// GCM and OCB over a block.BlockCipher, plus a ChaCha20-Poly1305 scheme
// wired directly to golang.org/x/crypto/chacha20poly1305 (SPEC_FULL.md's
// domain-stack addition alongside the from-scratch block-cipher-based
// constructions).
package aead

import "github.com/qrcs-corp/cexcore/cerr"

// MinTagSize and MaxTagSize bound every construction's authentication tag,
// per spec.md §4.4.
const (
	MinTagSize = 12
	MaxTagSize = 16
)

// Enumeral identifies an AEAD construction, mirroring spec.md §6.2.
type Enumeral uint8

const (
	EnumEAX Enumeral = iota + 1
	EnumGCM
	EnumOCB
	EnumChaChaPoly
)

// AeadCipher is the capability every construction in this package
// implements: associated-data authenticated encryption with a
// constant-time tag comparison on decryption.
type AeadCipher interface {
	// Initialize keys the cipher and nonce for the given direction.
	Initialize(encrypt bool, nonce, key []byte) error
	// SetAssociatedData sets the associated data for the current message;
	// it must be called, if at all, before the first Transform call after
	// Initialize.
	SetAssociatedData(ad []byte) error
	// Transform processes in (any length) into out, continuing the running
	// tag computation. EAX and GCM start a fresh keystream block on every
	// call, so a split message matches a one-shot call only when it is split
	// at 16-byte boundaries; OCB accepts a single Transform call per message.
	Transform(in, out []byte) error
	// Finish writes the final tag (encrypt direction) or verifies the tag
	// supplied in tagInOut in constant time (decrypt direction). GCM, OCB
	// and ChaChaPoly then reset per-message state; EAX does not, so a new
	// EAX message starts with Initialize.
	Finish(tagInOut []byte) error
	// TagSize returns the configured tag length in bytes, in [MinTagSize,
	// MaxTagSize].
	TagSize() int
	// Enumeral identifies the concrete construction.
	Enumeral() Enumeral
	// Reset clears per-message and per-key state.
	Reset()
}

func validateTagSize(location string, tagSize int) error {
	if tagSize < MinTagSize || tagSize > MaxTagSize {
		return cerr.New(cerr.KindInvalidParam, location, "tag size must be in [12, 16]")
	}
	return nil
}

// ctEqual compares two equal-length byte slices in constant time.
func ctEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	var v byte
	for i := range a {
		v |= a[i] ^ b[i]
	}
	return v == 0
}
