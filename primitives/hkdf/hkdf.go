// Package hkdf wraps golang.org/x/crypto/hkdf for the HX block-cipher key
// schedule (spec.md §4.1) and the BCG reseed mixing step (spec.md §4.5).
package hkdf

import (
	"hash"

	xhkdf "golang.org/x/crypto/hkdf"
)

// HashID selects the underlying hash function an HX key schedule or BCG
// reseed step runs HKDF over.
type HashID uint8

const (
	HashSHA256 HashID = iota
	HashSHA512
	HashSHA3_256
	HashSHA3_512
	HashBlake2b512
)

func (h HashID) String() string {
	switch h {
	case HashSHA256:
		return "SHA256"
	case HashSHA512:
		return "SHA512"
	case HashSHA3_256:
		return "SHA3-256"
	case HashSHA3_512:
		return "SHA3-512"
	case HashBlake2b512:
		return "BLAKE2b-512"
	default:
		return "unknown"
	}
}

// NewHash returns the hash.Hash constructor for the given HashID.
func NewHash(id HashID) func() hash.Hash {
	switch id {
	case HashSHA256:
		return newSHA256
	case HashSHA512:
		return newSHA512
	case HashSHA3_256:
		return newSHA3_256
	case HashSHA3_512:
		return newSHA3_512
	case HashBlake2b512:
		return newBlake2b512
	default:
		return newSHA256
	}
}

// DigestSize returns the output size in bytes of the given HashID.
func DigestSize(id HashID) int {
	switch id {
	case HashSHA256, HashSHA3_256:
		return 32
	case HashSHA512, HashSHA3_512, HashBlake2b512:
		return 64
	default:
		return 32
	}
}

// Expand runs HKDF-Expand (no Extract step: per spec.md §4.1, HX uses the
// raw key as IKM with an empty salt, which is HKDF-Expand applied directly
// to PRK = IKM) over ikm with the given info string, producing n bytes of
// output. This is exactly the construction spec.md §4.1 names: "run
// HKDF-Expand over an IKM that is the provided key ... and salt = empty".
func Expand(id HashID, ikm, info []byte, n int) ([]byte, error) {
	r := xhkdf.Expand(NewHash(id), ikm, info)
	out := make([]byte, n)
	if _, err := readFull(r, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Extract runs full HKDF-Extract-then-Expand, used by the BCG reseed path,
// which derives the new key from fresh entropy with salt = the counter at
// reseed (spec.md §4.5).
func Extract(id HashID, salt, ikm, info []byte, n int) ([]byte, error) {
	r := xhkdf.New(NewHash(id), ikm, salt, info)
	out := make([]byte, n)
	if _, err := readFull(r, out); err != nil {
		return nil, err
	}
	return out, nil
}
