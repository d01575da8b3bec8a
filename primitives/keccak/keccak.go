// Package keccak re-exposes the SHA-3 family (SHA3-256/512, SHAKE-128/256)
// used by Dilithium's matrix/challenge sampling, XMSS's SHAKE hash calls and
// Rainbow's central-map sampling, behind a narrow surface so those packages
// depend on this package rather than on golang.org/x/crypto/sha3 directly.
// primitives/hkdf (for its SHA3 hash options) and key import
// golang.org/x/crypto/sha3 themselves.
package keccak

import (
	"golang.org/x/crypto/sha3"
)

// Sum256 returns the SHA3-256 digest of data.
func Sum256(data []byte) [32]byte {
	return sha3.Sum256(data)
}

// Sum512 returns the SHA3-512 digest of data.
func Sum512(data []byte) [64]byte {
	return sha3.Sum512(data)
}

// Shake128 returns a fresh SHAKE-128 sponge for extendable-output hashing.
func Shake128() sha3.ShakeHash {
	return sha3.NewShake128()
}

// Shake256 returns a fresh SHAKE-256 sponge for extendable-output hashing.
func Shake256() sha3.ShakeHash {
	return sha3.NewShake256()
}

// ShakeSum256 squeezes n bytes of SHAKE-256(data...), absorbing each element
// of data in order. Used for Dilithium's seed expansion and challenge
// hashing, and XMSS's address-keyed hash calls.
func ShakeSum256(n int, data ...[]byte) []byte {
	h := sha3.NewShake256()
	for _, d := range data {
		h.Write(d)
	}
	out := make([]byte, n)
	h.Read(out)
	return out
}

// ShakeSum128 squeezes n bytes of SHAKE-128(data...).
func ShakeSum128(n int, data ...[]byte) []byte {
	h := sha3.NewShake128()
	for _, d := range data {
		h.Write(d)
	}
	out := make([]byte, n)
	h.Read(out)
	return out
}
