// Package blake2 wraps golang.org/x/crypto/blake2b for the HX key-schedule
// hash option (spec.md §2: "Blake2 (as used by HX key schedules)").
package blake2

import (
	"hash"

	"golang.org/x/crypto/blake2b"
)

// Sum512 returns the unkeyed BLAKE2b-512 digest of data.
func Sum512(data []byte) [64]byte {
	return blake2b.Sum512(data)
}

// New512 returns a fresh hash.Hash implementing BLAKE2b-512, for use as the
// HKDF hash function in an HX key schedule (HashId == HashBlake2b).
func New512() hash.Hash {
	h, err := blake2b.New512(nil)
	if err != nil {
		// blake2b.New512 only errors on an oversized key; nil never
		// triggers that path.
		panic(err)
	}
	return h
}
