// Package edwards implements Ed25519-style deterministic signatures
// (spec.md §5, "ECDSA over Edwards curves") using filippo.io/edwards25519
// for scalar/point arithmetic rather than re-deriving curve arithmetic
// from scratch, the way the dilithium/rainbow packages must for their
// lattice/multivariate math.
package edwards

import (
	"crypto/sha512"

	"filippo.io/edwards25519"

	"github.com/qrcs-corp/cexcore/cerr"
)

const (
	SeedSize      = 32
	PublicKeySize = 32
	// PrivateKeySize stores the original 32-byte seed followed by the
	// 32-byte public key, matching the teacher-corpus convention of
	// keeping the seed recoverable for re-export rather than only the
	// expanded scalar.
	PrivateKeySize  = 64
	SignatureSize   = 64
	scalarSeedSplit = 32
)

// PrivateKey is a seed-derived Ed25519-style signing key.
type PrivateKey struct {
	seed   [SeedSize]byte
	scalar *edwards25519.Scalar
	prefix [32]byte
	pub    [PublicKeySize]byte
}

// PublicKey is the public half, usable standalone for Verify.
type PublicKey struct {
	point *edwards25519.Point
	bytes [PublicKeySize]byte
}

// GenerateFromSeed deterministically derives a key pair from a 32-byte
// seed, the standard Ed25519 expansion: SHA-512(seed) splits into a
// clamped scalar and a nonce prefix.
func GenerateFromSeed(seed []byte) (*PrivateKey, error) {
	if len(seed) != SeedSize {
		return nil, cerr.New(cerr.KindInvalidKey, "sig/edwards.GenerateFromSeed", "seed must be 32 bytes")
	}
	h := sha512.Sum512(seed)
	scalar, err := edwards25519.NewScalar().SetBytesWithClamping(h[:32])
	if err != nil {
		return nil, cerr.Wrap(cerr.KindInternal, "sig/edwards.GenerateFromSeed", "scalar clamping failed", err)
	}
	point := new(edwards25519.Point).ScalarBaseMult(scalar)

	pk := &PrivateKey{scalar: scalar}
	copy(pk.seed[:], seed)
	copy(pk.prefix[:], h[32:])
	copy(pk.pub[:], point.Bytes())
	return pk, nil
}

// Public returns the public half of the key.
func (k *PrivateKey) Public() *PublicKey {
	p, _ := new(edwards25519.Point).SetBytes(k.pub[:])
	return &PublicKey{point: p, bytes: k.pub}
}

func (k *PrivateKey) PublicKeySize() int  { return PublicKeySize }
func (k *PrivateKey) PrivateKeySize() int { return PrivateKeySize }
func (k *PrivateKey) SignatureSize() int  { return SignatureSize }

// Bytes returns the seed||publicKey export form.
func (k *PrivateKey) Bytes() []byte {
	out := make([]byte, 0, PrivateKeySize)
	out = append(out, k.seed[:]...)
	out = append(out, k.pub[:]...)
	return out
}

// FromBytes reconstructs a PrivateKey from its seed||publicKey export
// form, re-deriving the scalar and prefix from the stored seed.
func FromBytes(data []byte) (*PrivateKey, error) {
	if len(data) != PrivateKeySize {
		return nil, cerr.New(cerr.KindInvalidKey, "sig/edwards.FromBytes", "private key must be 64 bytes")
	}
	return GenerateFromSeed(data[:scalarSeedSplit])
}

// Sign produces a detached 64-byte Ed25519-style signature over message.
func (k *PrivateKey) Sign(message []byte) ([]byte, error) {
	rh := sha512.New()
	rh.Write(k.prefix[:])
	rh.Write(message)
	rDigest := rh.Sum(nil)
	r, err := edwards25519.NewScalar().SetUniformBytes(rDigest)
	if err != nil {
		return nil, cerr.Wrap(cerr.KindInternal, "sig/edwards.Sign", "nonce reduction failed", err)
	}
	R := new(edwards25519.Point).ScalarBaseMult(r)

	kh := sha512.New()
	kh.Write(R.Bytes())
	kh.Write(k.pub[:])
	kh.Write(message)
	kDigest := kh.Sum(nil)
	kScalar, err := edwards25519.NewScalar().SetUniformBytes(kDigest)
	if err != nil {
		return nil, cerr.Wrap(cerr.KindInternal, "sig/edwards.Sign", "challenge reduction failed", err)
	}

	s := edwards25519.NewScalar().MultiplyAdd(kScalar, k.scalar, r)

	sig := make([]byte, 0, SignatureSize)
	sig = append(sig, R.Bytes()...)
	sig = append(sig, s.Bytes()...)
	return sig, nil
}

// Verify reports whether signature is a valid signature of message under
// this public key.
func (pk *PublicKey) Verify(message, signature []byte) bool {
	if len(signature) != SignatureSize {
		return false
	}
	R, err := new(edwards25519.Point).SetBytes(signature[:32])
	if err != nil {
		return false
	}
	s, err := edwards25519.NewScalar().SetCanonicalBytes(signature[32:])
	if err != nil {
		return false
	}

	kh := sha512.New()
	kh.Write(signature[:32])
	kh.Write(pk.bytes[:])
	kh.Write(message)
	kDigest := kh.Sum(nil)
	kScalar, err := edwards25519.NewScalar().SetUniformBytes(kDigest)
	if err != nil {
		return false
	}

	// Check S*B == R + k*A.
	sB := new(edwards25519.Point).ScalarBaseMult(s)
	kA := new(edwards25519.Point).ScalarMult(kScalar, pk.point)
	rhs := new(edwards25519.Point).Add(R, kA)
	return ctEqualBytes(sB.Bytes(), rhs.Bytes())
}

func ctEqualBytes(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	var v byte
	for i := range a {
		v |= a[i] ^ b[i]
	}
	return v == 0
}

func (pk *PublicKey) Bytes() []byte { return append([]byte(nil), pk.bytes[:]...) }

// FromPublicBytes reconstructs a PublicKey from its 32-byte encoding.
func FromPublicBytes(data []byte) (*PublicKey, error) {
	if len(data) != PublicKeySize {
		return nil, cerr.New(cerr.KindInvalidKey, "sig/edwards.FromPublicBytes", "public key must be 32 bytes")
	}
	p, err := new(edwards25519.Point).SetBytes(data)
	if err != nil {
		return nil, cerr.Wrap(cerr.KindInvalidKey, "sig/edwards.FromPublicBytes", "not a valid curve point", err)
	}
	pk := &PublicKey{point: p}
	copy(pk.bytes[:], data)
	return pk, nil
}
