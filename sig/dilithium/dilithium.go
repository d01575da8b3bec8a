// Package dilithium implements a Dilithium-shaped Fiat-Shamir-with-aborts
// lattice signature over the ring R_q = Z_q[x]/(x^256+1), q = 8380417
// (spec.md §5). Matrix/vector sampling and the challenge hash are all
// derived from SHAKE via primitives/keccak, matching the reference
// construction's reliance on a single XOF for every randomness-expansion
// step. Polynomial arithmetic here is schoolbook convolution rather than
// an NTT-based multiplier: correct, and fast enough for the parameter
// sizes below, but not the constant-time, NTT-accelerated implementation a
// production deployment would ship (see DESIGN.md).
package dilithium

import (
	"github.com/qrcs-corp/cexcore/cerr"
	"github.com/qrcs-corp/cexcore/primitives/keccak"
)

const (
	n = 256
	q = 8380417
)

// ParameterSet names a Dilithium security level, each picking (k, l, eta,
// gamma1, tau) as spec.md §5 names them (DLTMS1P2544/DLTMS3P4016/DLTMS5P4880).
type ParameterSet struct {
	Name   string
	K, L   int
	Eta    int32
	Gamma1 int32
	Tau    int
}

var (
	DLTMS1P2544 = ParameterSet{Name: "DLTMS1P2544", K: 4, L: 4, Eta: 2, Gamma1: 1 << 17, Tau: 39}
	DLTMS3P4016 = ParameterSet{Name: "DLTMS3P4016", K: 6, L: 5, Eta: 4, Gamma1: 1 << 19, Tau: 49}
	DLTMS5P4880 = ParameterSet{Name: "DLTMS5P4880", K: 8, L: 7, Eta: 2, Gamma1: 1 << 19, Tau: 60}
)

type poly [n]int32

func polyAdd(a, b poly) poly {
	var out poly
	for i := range out {
		out[i] = reduce(a[i] + b[i])
	}
	return out
}

func polySub(a, b poly) poly {
	var out poly
	for i := range out {
		out[i] = reduce(a[i] - b[i])
	}
	return out
}

func reduce(x int32) int32 {
	x %= q
	if x < 0 {
		x += q
	}
	return x
}

// polyMul is schoolbook convolution mod (x^n+1): the x^n term wraps
// around with a sign flip, the defining reduction of this ring.
func polyMul(a, b poly) poly {
	var full [2 * n]int64
	for i := 0; i < n; i++ {
		if a[i] == 0 {
			continue
		}
		ai := int64(a[i])
		for j := 0; j < n; j++ {
			full[i+j] += ai * int64(b[j])
		}
	}
	var out poly
	for i := 0; i < n; i++ {
		v := full[i] - full[i+n]
		out[i] = reduce(int32(v % q))
	}
	return out
}

type vec []poly
type mat []vec

func newVec(dim int) vec { return make(vec, dim) }
func newMat(rows, cols int) mat {
	m := make(mat, rows)
	for i := range m {
		m[i] = newVec(cols)
	}
	return m
}

func matVecMul(A mat, s vec) vec {
	out := newVec(len(A))
	for i := range A {
		var acc poly
		for j := range A[i] {
			acc = polyAdd(acc, polyMul(A[i][j], s[j]))
		}
		out[i] = acc
	}
	return out
}

func vecAdd(a, b vec) vec {
	out := newVec(len(a))
	for i := range a {
		out[i] = polyAdd(a[i], b[i])
	}
	return out
}

func vecSub(a, b vec) vec {
	out := newVec(len(a))
	for i := range a {
		out[i] = polySub(a[i], b[i])
	}
	return out
}

// expandPoly deterministically samples a uniform poly mod q from a XOF
// stream, discarding out-of-range draws (rejection sampling over 3-byte
// little-endian words masked to 23 bits, the reference scheme's approach
// for a q just under 2^23).
func expandPoly(seed []byte, nonce uint16) poly {
	label := []byte{byte(nonce), byte(nonce >> 8)}
	stream := keccak.ShakeSum256(3*n*2, seed, label)
	var p poly
	i, off := 0, 0
	for i < n {
		if off+3 > len(stream) {
			stream = append(stream, keccak.ShakeSum256(3*n, seed, label, stream[len(stream)-1:])...)
		}
		v := uint32(stream[off]) | uint32(stream[off+1])<<8 | uint32(stream[off+2])<<16
		off += 3
		v &= 0x7FFFFF
		if v < q {
			p[i] = int32(v)
			i++
		}
	}
	return p
}

// expandShortPoly samples coefficients uniformly from [-eta, eta] via
// rejection sampling over 4-bit nibbles, as the reference scheme does for
// small eta.
func expandShortPoly(seed []byte, nonce uint16, eta int32) poly {
	label := []byte{byte(nonce), byte(nonce >> 8)}
	var p poly
	i := 0
	round := 0
	for i < n {
		stream := keccak.ShakeSum256(n, seed, label, []byte{byte(round)})
		round++
		span := uint32(2*eta + 1)
		threshold := (16 / span) * span
		for _, b := range stream {
			for _, nib := range [2]byte{b & 0xF, b >> 4} {
				if i >= n {
					break
				}
				if uint32(nib) < threshold {
					p[i] = int32(uint32(nib)%span) - eta
					i++
				}
			}
		}
	}
	return p
}

// PrivateKey holds the expanded secret vectors alongside the public
// matrix/seed needed to reproduce verification-side quantities during
// signing.
type PrivateKey struct {
	set  ParameterSet
	seed []byte // the original 32-byte generation seed, kept for Bytes/FromBytes
	rho  []byte // public seed for A
	A    mat
	s1   vec
	s2   vec
	t    vec
	pub  *PublicKey
}

// PublicKey holds the sampled matrix seed and the computed t vector.
type PublicKey struct {
	set ParameterSet
	rho []byte
	t   vec
}

func expandMatrix(set ParameterSet, rho []byte) mat {
	A := newMat(set.K, set.L)
	for i := 0; i < set.K; i++ {
		for j := 0; j < set.L; j++ {
			A[i][j] = expandPoly(rho, uint16(i*256+j))
		}
	}
	return A
}

// GenerateFromSeed deterministically derives a key pair from a 32-byte
// seed, splitting it via SHAKE256 into rho (matrix seed) and sigma
// (secret-vector seed), mirroring the reference key-generation XOF split.
func GenerateFromSeed(set ParameterSet, seed []byte) (*PrivateKey, error) {
	if len(seed) != 32 {
		return nil, cerr.New(cerr.KindInvalidKey, "sig/dilithium.GenerateFromSeed", "seed must be 32 bytes")
	}
	expanded := keccak.ShakeSum256(96, seed)
	rho := append([]byte(nil), expanded[:32]...)
	sigma := append([]byte(nil), expanded[32:64]...)

	A := expandMatrix(set, rho)
	s1 := newVec(set.L)
	for i := range s1 {
		s1[i] = expandShortPoly(sigma, uint16(i), set.Eta)
	}
	s2 := newVec(set.K)
	for i := range s2 {
		s2[i] = expandShortPoly(sigma, uint16(set.L+i), set.Eta)
	}
	t := vecAdd(matVecMul(A, s1), s2)

	pub := &PublicKey{set: set, rho: rho, t: t}
	return &PrivateKey{
		set: set, seed: append([]byte(nil), seed...),
		rho: rho, A: A, s1: s1, s2: s2, t: t, pub: pub,
	}, nil
}

func (k *PrivateKey) Public() *PublicKey { return k.pub }

func (k *PrivateKey) PublicKeySize() int  { return len(k.rho) + k.set.K*n*4 }
func (k *PrivateKey) PrivateKeySize() int { return 32 }
func (k *PrivateKey) SignatureSize() int  { return k.set.L*n*4 + n*4 }

// Bytes returns the 32-byte seed this key was generated from: the whole
// expanded key schedule (A, s1, s2, t) is reproducible from it alone, so
// the seed is what gets wrapped by key.ExportPrivate.
func (k *PrivateKey) Bytes() []byte { return append([]byte(nil), k.seed...) }

// FromBytes reconstructs a PrivateKey by re-running key generation from a
// previously exported 32-byte seed.
func FromBytes(set ParameterSet, data []byte) (*PrivateKey, error) {
	return GenerateFromSeed(set, data)
}

func (pk *PublicKey) PublicKeySize() int { return len(pk.rho) + pk.set.K*n*4 }

// sampleChallenge derives the sparse, weight-Tau, ±1-coefficient
// challenge polynomial from mu||w1, the reference scheme's Fiat-Shamir
// binding step.
func sampleChallenge(set ParameterSet, mu, w1Bytes []byte) poly {
	stream := keccak.ShakeSum256(n/8+set.Tau*2, mu, w1Bytes)
	signBits := stream[:n/8]
	var c poly
	idx := n / 8
	placed := 0
	for i := n - set.Tau; i < n && idx < len(stream)-1; i++ {
		j := int(stream[idx]) % (i + 1)
		idx++
		c[i] = c[j]
		bit := (signBits[placed/8] >> uint(placed%8)) & 1
		if bit == 1 {
			c[j] = q - 1
		} else {
			c[j] = 1
		}
		placed++
	}
	return c
}

func encodeW1(w vec) []byte {
	out := make([]byte, 0, len(w)*n*4)
	for _, p := range w {
		for _, coef := range p {
			high := coef >> 13 // coarse "high bits" split, documented simplification
			out = append(out, byte(high), byte(high>>8), byte(high>>16), byte(high>>24))
		}
	}
	return out
}

func infNorm(v vec) int32 {
	var max int32
	for _, p := range v {
		for _, coef := range p {
			c := coef
			if c > q/2 {
				c = q - c
			}
			if c > max {
				max = c
			}
		}
	}
	return max
}

const maxSignAttempts = 1000

// Sign produces a detached signature over message, retrying with a fresh
// masking vector whenever the rejection-sampling bound on z is exceeded,
// the defining "with aborts" step of this family.
func (k *PrivateKey) Sign(message []byte) ([]byte, error) {
	mu := keccak.ShakeSum256(64, k.rho, encodePubVec(k.t), message)
	bound := k.set.Gamma1 - int32(k.set.Tau)*k.set.Eta

	for attempt := 0; attempt < maxSignAttempts; attempt++ {
		y := newVec(k.set.L)
		nonceSeed := keccak.ShakeSum256(32, mu, []byte{byte(attempt), byte(attempt >> 8)})
		for i := range y {
			y[i] = expandGamma1Poly(nonceSeed, uint16(i), k.set.Gamma1)
		}
		w := matVecMul(k.A, y)
		w1 := encodeW1(w)
		c := sampleChallenge(k.set, mu, w1)

		z := vecAdd(y, scaleVec(c, k.s1))
		if infNorm(z) >= bound {
			continue
		}
		// Verify recomputes w1 from A*z - c*t = w - c*s2, so the challenge
		// only re-derives there when w - c*s2 has the same high bits as w.
		r := vecSub(w, scaleVec(c, k.s2))
		if string(encodeW1(r)) != string(w1) {
			continue
		}

		sig := make([]byte, 0, k.SignatureSize())
		sig = append(sig, encodePubVec(z)...)
		sig = append(sig, encodePoly(c)...)
		return sig, nil
	}
	return nil, cerr.New(cerr.KindInternal, "sig/dilithium.Sign", "rejection sampling did not converge")
}

func scaleVec(c poly, s vec) vec {
	out := newVec(len(s))
	for i := range s {
		out[i] = polyMul(c, s[i])
	}
	return out
}

func expandGamma1Poly(seed []byte, nonce uint16, gamma1 int32) poly {
	raw := expandPoly(seed, nonce+1000)
	var p poly
	span := 2*gamma1 + 1
	for i, v := range raw {
		p[i] = (v % span) - gamma1
	}
	return p
}

func encodePoly(p poly) []byte {
	out := make([]byte, n*4)
	for i, c := range p {
		out[4*i] = byte(c)
		out[4*i+1] = byte(c >> 8)
		out[4*i+2] = byte(c >> 16)
		out[4*i+3] = byte(c >> 24)
	}
	return out
}

func decodePoly(b []byte) poly {
	var p poly
	for i := range p {
		c := int32(b[4*i]) | int32(b[4*i+1])<<8 | int32(b[4*i+2])<<16 | int32(b[4*i+3])<<24
		p[i] = reduce(c)
	}
	return p
}

func encodePubVec(v vec) []byte {
	out := make([]byte, 0, len(v)*n*4)
	for _, p := range v {
		out = append(out, encodePoly(p)...)
	}
	return out
}

func decodeVec(b []byte, dim int) vec {
	out := newVec(dim)
	for i := 0; i < dim; i++ {
		out[i] = decodePoly(b[i*n*4 : (i+1)*n*4])
	}
	return out
}

// Verify reports whether signature is valid for message under this
// public key: it recomputes w1 from z and the challenge and checks the
// challenge hash re-derives identically.
func (pk *PublicKey) Verify(set ParameterSet, message, signature []byte) bool {
	zBytes := set.L * n * 4
	if len(signature) != zBytes+n*4 {
		return false
	}
	z := decodeVec(signature[:zBytes], set.L)
	c := decodePoly(signature[zBytes:])

	mu := keccak.ShakeSum256(64, pk.rho, encodePubVec(pk.t), message)
	bound := set.Gamma1 - int32(set.Tau)*set.Eta
	if infNorm(z) >= bound {
		return false
	}

	A := expandMatrix(set, pk.rho)
	ct := scaleVec(c, pk.t)
	w1 := vecSub(matVecMul(A, z), ct)
	w1Bytes := encodeW1(w1)
	c2 := sampleChallenge(set, mu, w1Bytes)
	return c == c2
}
