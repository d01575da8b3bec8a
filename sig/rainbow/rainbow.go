// Package rainbow implements a layered unbalanced oil-and-vinegar
// multivariate signature scheme (spec.md §5, "Rainbow") over GF(2^8),
// reusing primitives/gf's field arithmetic rather than reintroducing it.
//
// Two documented scope simplifications versus the NIST submission: the
// public map here is T∘F (an affine output mask over the bare central
// map) rather than T∘F∘S — the input-side affine mask S is dropped, since
// composing it requires symbolically substituting a linear change of
// variables into every quadratic form, which is mechanically routine but
// long; and parameter sizes are small illustrative values rather than the
// submission's, since no external test vector exists to size against.
// See DESIGN.md.
package rainbow

import (
	"github.com/qrcs-corp/cexcore/cerr"
	"github.com/qrcs-corp/cexcore/primitives/gf"
	"github.com/qrcs-corp/cexcore/primitives/keccak"
)

// Params describes one Rainbow parameter set: V vinegar variables feeding
// two oil layers of O1 and O2 variables.
type Params struct {
	Name   string
	V, O1, O2 int
}

var (
	RNBWS1S128SHAKE256 = Params{Name: "RNBW-S1-S128-SHAKE256", V: 12, O1: 6, O2: 6}
	RNBWS2S192SHAKE512 = Params{Name: "RNBW-S2-S192-SHAKE512", V: 16, O1: 8, O2: 8}
	RNBWS3S256SHAKE512 = Params{Name: "RNBW-S3-S256-SHAKE512", V: 20, O1: 10, O2: 10}
)

func (p Params) n() int { return p.V + p.O1 + p.O2 }
func (p Params) m() int { return p.O1 + p.O2 }

// equation is one central-map polynomial: an upper-triangular quadratic
// coefficient matrix (zeroed on oil-oil pairs for this equation's layer),
// a linear term, and a constant.
type equation struct {
	quad [][]byte // n x n, only [i][j] with i<=j populated
	lin  []byte   // n
	con  byte
}

// PrivateKey holds the central map and the seed the vinegar values are
// re-derived from during signing (a PRF, not true system randomness, so
// signing stays reproducible from the key alone).
type PrivateKey struct {
	p        Params
	seed     []byte     // the original 32-byte generation seed
	eqs      []equation // len m, first O1 are layer 1, next O2 layer 2
	tMat     [][]byte   // m x m, T = L*U
	tInv     [][]byte   // m x m, precomputed T^-1
	tOff     []byte     // m
	signSeed []byte
	pub      *PublicKey
}

// PublicKey is the masked public map P = T(F(x)): m quadratic equations
// in n variables, stored explicitly as coefficient arrays.
type PublicKey struct {
	p    Params
	eqs  []equation // len m, unrestricted (post-T) quadratic forms
}

func prfBytes(seed []byte, label string, n int) []byte {
	return keccak.ShakeSum256(n, seed, []byte(label))
}

// triangularInvert computes the inverse of an n x n unit-lower times
// upper-triangular product T = L*U (both generated with nonzero diagonal
// on U), via forward/back substitution column by column.
func triangularInvert(l, u [][]byte, n int) [][]byte {
	inv := make([][]byte, n)
	for col := 0; col < n; col++ {
		e := make([]byte, n)
		e[col] = 1
		// Solve L*y = e (forward substitution, unit diagonal).
		y := make([]byte, n)
		for i := 0; i < n; i++ {
			s := e[i]
			for j := 0; j < i; j++ {
				s ^= gf.Mul256(l[i][j], y[j])
			}
			y[i] = s
		}
		// Solve U*x = y (back substitution).
		x := make([]byte, n)
		for i := n - 1; i >= 0; i-- {
			s := y[i]
			for j := i + 1; j < n; j++ {
				s ^= gf.Mul256(u[i][j], x[j])
			}
			x[i] = gf.Mul256(s, gf.Inv256(u[i][i]))
		}
		for row := 0; row < n; row++ {
			if inv[row] == nil {
				inv[row] = make([]byte, n)
			}
			inv[row][col] = x[row]
		}
	}
	return inv
}

func matMul(a, b [][]byte, n int) [][]byte {
	out := make([][]byte, n)
	for i := 0; i < n; i++ {
		out[i] = make([]byte, n)
		for k := 0; k < n; k++ {
			if a[i][k] == 0 {
				continue
			}
			for j := 0; j < n; j++ {
				out[i][j] ^= gf.Mul256(a[i][k], b[k][j])
			}
		}
	}
	return out
}

// buildT derives an invertible m x m affine map T = L*U plus offset from
// seed, where L is unit-lower-triangular and U has a nonzero diagonal, so
// invertibility holds by construction (det T = prod(diag U) != 0).
func buildT(seed []byte, m int) (mat, inv [][]byte, off []byte) {
	raw := prfBytes(seed, "rainbow-T", m*m+m)
	l := make([][]byte, m)
	u := make([][]byte, m)
	idx := 0
	for i := 0; i < m; i++ {
		l[i] = make([]byte, m)
		u[i] = make([]byte, m)
		l[i][i] = 1
		for j := 0; j < i; j++ {
			l[i][j] = raw[idx]
			idx++
		}
		for j := i; j < m; j++ {
			v := raw[idx]
			idx++
			if j == i && v == 0 {
				v = 1
			}
			u[i][j] = v
		}
	}
	mat = matMul(l, u, m)
	inv = triangularInvert(l, u, m)
	off = raw[m*m : m*m+m]
	return
}

// buildCentralMap derives the m central equations from seed. Equation k
// belongs to layer 1 (k < O1) or layer 2 (k >= O1); within a layer, any
// coefficient pairing two variables from that layer's own oil block is
// zeroed, the defining UOV property that makes the layer's oil variables
// solvable by linear algebra once the earlier variables are fixed.
// Layer-1 equations carry no term in layer-2 oil variables, so solving
// layer 2 leaves them satisfied.
func buildCentralMap(seed []byte, p Params) []equation {
	n, m := p.n(), p.m()
	eqs := make([]equation, m)
	for k := 0; k < m; k++ {
		oilStart, oilEnd := p.V, p.V+p.O1
		if k >= p.O1 {
			oilStart, oilEnd = p.V+p.O1, n
		}
		// mix the equation index into the seed so distinct equations
		// within a layer draw independent coefficients.
		raw := prfBytes(append(seed, byte(k), byte(k>>8)), "rainbow-F", n*n+n+1)
		quad := make([][]byte, n)
		idx := 0
		for i := 0; i < n; i++ {
			quad[i] = make([]byte, n)
			for j := i; j < n; j++ {
				v := raw[idx]
				idx++
				oilI := i >= oilStart && i < oilEnd
				oilJ := j >= oilStart && j < oilEnd
				laterOil := k < p.O1 && j >= p.V+p.O1
				if (oilI && oilJ) || laterOil {
					v = 0
				}
				quad[i][j] = v
			}
		}
		lin := raw[idx : idx+n]
		if k < p.O1 {
			for i := p.V + p.O1; i < n; i++ {
				lin[i] = 0
			}
		}
		idx += n
		con := raw[idx]
		eqs[k] = equation{quad: quad, lin: lin, con: con}
	}
	return eqs
}

func evalEquation(eq equation, x []byte, n int) byte {
	var s byte
	for i := 0; i < n; i++ {
		if x[i] == 0 {
			continue
		}
		for j := i; j < n; j++ {
			if eq.quad[i][j] == 0 || x[j] == 0 {
				continue
			}
			s ^= gf.Mul256(eq.quad[i][j], gf.Mul256(x[i], x[j]))
		}
		s ^= gf.Mul256(eq.lin[i], x[i])
	}
	s ^= eq.con
	return s
}

// GenerateFromSeed derives a Rainbow key pair from a 32-byte seed.
func GenerateFromSeed(p Params, seed []byte) (*PrivateKey, error) {
	if len(seed) != 32 {
		return nil, cerr.New(cerr.KindInvalidKey, "sig/rainbow.GenerateFromSeed", "seed must be 32 bytes")
	}
	expanded := keccak.ShakeSum256(64, seed, []byte("rainbow-expand"))
	mapSeed := append([]byte(nil), expanded[:32]...)
	signSeed := append([]byte(nil), expanded[32:]...)

	eqs := buildCentralMap(mapSeed, p)
	m := p.m()
	tMat, tInv, tOff := buildT(mapSeed, m)

	pubEqs := maskWithT(eqs, tMat, tOff, p)

	sk := &PrivateKey{
		p: p, seed: append([]byte(nil), seed...),
		eqs: eqs, tMat: tMat, tInv: tInv, tOff: tOff, signSeed: signSeed,
	}
	sk.pub = &PublicKey{p: p, eqs: pubEqs}
	return sk, nil
}

// Bytes returns the 32-byte seed this key was generated from.
func (k *PrivateKey) Bytes() []byte { return append([]byte(nil), k.seed...) }

// FromBytes reconstructs a PrivateKey by re-running key generation from a
// previously exported 32-byte seed.
func FromBytes(p Params, data []byte) (*PrivateKey, error) {
	return GenerateFromSeed(p, data)
}

// maskWithT computes T(F(x))'s coefficient arrays directly: since T is
// affine over F's m outputs, the public quadratic/linear/constant
// coefficients are T's matrix applied to the corresponding central-map
// coefficient arrays, plus T's offset folded into the constant terms.
func maskWithT(eqs []equation, tMat [][]byte, tOff []byte, p Params) []equation {
	n, m := p.n(), p.m()
	out := make([]equation, m)
	for k := 0; k < m; k++ {
		quad := make([][]byte, n)
		for i := range quad {
			quad[i] = make([]byte, n)
		}
		lin := make([]byte, n)
		var con byte
		for j := 0; j < m; j++ {
			coeff := tMat[k][j]
			if coeff == 0 {
				continue
			}
			for i := 0; i < n; i++ {
				for jj := i; jj < n; jj++ {
					quad[i][jj] ^= gf.Mul256(coeff, eqs[j].quad[i][jj])
				}
				lin[i] ^= gf.Mul256(coeff, eqs[j].lin[i])
			}
			con ^= gf.Mul256(coeff, eqs[j].con)
		}
		con ^= tOff[k]
		out[k] = equation{quad: quad, lin: lin, con: con}
	}
	return out
}

func (k *PrivateKey) Public() *PublicKey { return k.pub }

// gaussSolve solves a*x = b over GF(2^8) for square a (size x size),
// returning ok=false if a is singular.
func gaussSolve(a [][]byte, b []byte, size int) (x []byte, ok bool) {
	m := make([][]byte, size)
	for i := range m {
		m[i] = append([]byte(nil), a[i]...)
	}
	rhs := append([]byte(nil), b...)
	for col := 0; col < size; col++ {
		pivot := -1
		for row := col; row < size; row++ {
			if m[row][col] != 0 {
				pivot = row
				break
			}
		}
		if pivot < 0 {
			return nil, false
		}
		m[col], m[pivot] = m[pivot], m[col]
		rhs[col], rhs[pivot] = rhs[pivot], rhs[col]
		invPivot := gf.Inv256(m[col][col])
		for j := col; j < size; j++ {
			m[col][j] = gf.Mul256(m[col][j], invPivot)
		}
		rhs[col] = gf.Mul256(rhs[col], invPivot)
		for row := 0; row < size; row++ {
			if row == col || m[row][col] == 0 {
				continue
			}
			factor := m[row][col]
			for j := col; j < size; j++ {
				m[row][j] ^= gf.Mul256(factor, m[col][j])
			}
			rhs[row] ^= gf.Mul256(factor, rhs[col])
		}
	}
	return rhs, true
}

// Sign produces a detached signature: n field elements satisfying the
// central map at the message's hashed target, found by fixing vinegar
// variables and solving each oil layer's linear system in turn, retrying
// with fresh vinegar (PRF-derived from the attempt counter) on a singular
// system.
func (k *PrivateKey) Sign(message []byte) ([]byte, error) {
	n, m := k.p.n(), k.p.m()
	digest := k.pub.hashTarget(message)
	z := make([]byte, m)
	for i := 0; i < m; i++ {
		var s byte
		for j := 0; j < m; j++ {
			// P = T(F(x)) + tOff, so F(x) = T^-1 (digest - tOff).
			d := digest[j] ^ k.tOff[j]
			if k.tInv[i][j] == 0 || d == 0 {
				continue
			}
			s ^= gf.Mul256(k.tInv[i][j], d)
		}
		z[i] = s
	}

	const maxAttempts = 256
	for attempt := 0; attempt < maxAttempts; attempt++ {
		x := make([]byte, n)
		vinegar := prfBytes(append(k.signSeed, byte(attempt)), "rainbow-vinegar", k.p.V)
		copy(x, vinegar)

		// Layer 1: solve for O1 oil variables.
		a1 := make([][]byte, k.p.O1)
		b1 := make([]byte, k.p.O1)
		for r := 0; r < k.p.O1; r++ {
			eq := k.eqs[r]
			row := make([]byte, k.p.O1)
			fixedSum := evalFixedPart(eq, x, k.p.V, k.p.V+k.p.O1, n)
			for c := 0; c < k.p.O1; c++ {
				row[c] = linCoeffForOil(eq, k.p.V+c, x, k.p.V, k.p.V+k.p.O1, n)
			}
			a1[r] = row
			b1[r] = z[r] ^ fixedSum
		}
		oil1, ok := gaussSolve(a1, b1, k.p.O1)
		if !ok {
			continue
		}
		copy(x[k.p.V:k.p.V+k.p.O1], oil1)

		// Layer 2: solve for O2 oil variables, vinegar+oil1 now fixed.
		a2 := make([][]byte, k.p.O2)
		b2 := make([]byte, k.p.O2)
		for r := 0; r < k.p.O2; r++ {
			eq := k.eqs[k.p.O1+r]
			row := make([]byte, k.p.O2)
			fixedSum := evalFixedPart(eq, x, k.p.V+k.p.O1, n, n)
			for c := 0; c < k.p.O2; c++ {
				row[c] = linCoeffForOil(eq, k.p.V+k.p.O1+c, x, k.p.V+k.p.O1, n, n)
			}
			a2[r] = row
			b2[r] = z[k.p.O1+r] ^ fixedSum
		}
		oil2, ok := gaussSolve(a2, b2, k.p.O2)
		if !ok {
			continue
		}
		copy(x[k.p.V+k.p.O1:], oil2)
		return x, nil
	}
	return nil, cerr.New(cerr.KindInternal, "sig/rainbow.Sign", "exhausted attempts solving oil-vinegar layers")
}

// evalFixedPart evaluates the portion of eq that involves only variables
// outside [oilStart,oilEnd) (the already-fixed vinegar/earlier-oil block),
// given x has zeros in the not-yet-solved oil slots.
func evalFixedPart(eq equation, x []byte, oilStart, oilEnd, n int) byte {
	var s byte
	for i := 0; i < n; i++ {
		if i >= oilStart && i < oilEnd {
			continue
		}
		if x[i] == 0 {
			continue
		}
		for j := i; j < n; j++ {
			if j >= oilStart && j < oilEnd {
				continue
			}
			if eq.quad[i][j] == 0 || x[j] == 0 {
				continue
			}
			s ^= gf.Mul256(eq.quad[i][j], gf.Mul256(x[i], x[j]))
		}
		s ^= gf.Mul256(eq.lin[i], x[i])
	}
	s ^= eq.con
	return s
}

// linCoeffForOil returns the coefficient of oil variable index oilVar in
// eq once all non-oil variables are fixed to their values in x: the sum
// of lin[oilVar] and every cross term quad[i][oilVar] * x[i] for fixed i.
func linCoeffForOil(eq equation, oilVar int, x []byte, oilStart, oilEnd, n int) byte {
	c := eq.lin[oilVar]
	for i := 0; i < n; i++ {
		if i >= oilStart && i < oilEnd {
			continue
		}
		if x[i] == 0 {
			continue
		}
		lo, hi := i, oilVar
		if lo > hi {
			lo, hi = hi, lo
		}
		if eq.quad[lo][hi] == 0 {
			continue
		}
		c ^= gf.Mul256(eq.quad[lo][hi], x[i])
	}
	return c
}

// Verify reports whether signature is a valid Rainbow signature of
// message under this public key: it evaluates every public quadratic
// equation at signature and compares against the hashed target.
func (pk *PublicKey) Verify(message, signature []byte) bool {
	n, m := pk.p.n(), pk.p.m()
	if len(signature) != n {
		return false
	}
	digest := pk.hashTarget(message)
	for k := 0; k < m; k++ {
		if evalEquation(pk.eqs[k], signature, n) != digest[k] {
			return false
		}
	}
	return true
}

// hashTarget maps message to the m-byte target the public map is checked
// against. Sign and Verify both call it, so they agree on the target; it
// depends on the message alone, not on signSeed.
func (pk *PublicKey) hashTarget(message []byte) []byte {
	return keccak.ShakeSum256(pk.p.m(), []byte("rainbow-target-pub"), message)
}

func (k *PrivateKey) PublicKeySize() int  { return k.p.m() * (k.p.n()*(k.p.n()+1)/2 + k.p.n() + 1) }
func (k *PrivateKey) PrivateKeySize() int { return len(k.signSeed) + k.p.m()*k.p.m() }
func (k *PrivateKey) SignatureSize() int  { return k.p.n() }
