// Package xmss implements WOTS+ one-time signatures composed into a
// Merkle-tree stateful signature scheme (spec.md §5): XMSS over a single
// tree. The multi-tree XMSS-MT variant is not implemented. Every hash call goes through
// SHAKE256 (primitives/keccak), matching the reference scheme's
// single-XOF-family construction, rather than mixing in a block cipher.
//
// The authentication path is rebuilt here by materializing the entire
// leaf set up front rather than the reference scheme's BDS traversal
// algorithm (which amortizes authentication-path updates across
// signatures): correct, but O(2^h) key-generation time and memory instead
// of BDS's O(h) incremental cost. See DESIGN.md.
package xmss

import (
	"github.com/qrcs-corp/cexcore/cerr"
	"github.com/qrcs-corp/cexcore/primitives/keccak"
)

const (
	hashSize = 32
	w        = 16 // Winternitz parameter
	len1     = 64 // ceil(8*n / log2(w)) for n=32, w=16
	len2     = 3  // checksum digits
	wotsLen  = len1 + len2
)

// Height is a supported XMSS tree height (spec.md §5 names {10,16,20}).
type Height int

const (
	H10 Height = 10
	H16 Height = 16
	H20 Height = 20
)

func prf(seed []byte, index int) []byte {
	label := []byte{byte(index), byte(index >> 8), byte(index >> 16), byte(index >> 24)}
	return keccak.ShakeSum256(hashSize, seed, label)
}

func chainHash(in []byte, steps int, seed []byte, chainIdx int) []byte {
	cur := append([]byte(nil), in...)
	for s := 0; s < steps; s++ {
		label := []byte{byte(chainIdx), byte(chainIdx >> 8), byte(s)}
		cur = keccak.ShakeSum256(hashSize, seed, label, cur)
	}
	return cur
}

// wotsPrivate derives the WOTS+ private chain-start values for a given
// leaf index from a single seed, so no per-leaf state needs storing.
func wotsPrivate(seed []byte, leafIndex int) [][]byte {
	sk := make([][]byte, wotsLen)
	for i := range sk {
		sk[i] = prf(seed, leafIndex*wotsLen+i)
	}
	return sk
}

func wotsDigits(messageDigest []byte) [wotsLen]int {
	var digits [wotsLen]int
	for i := 0; i < len1; i++ {
		b := messageDigest[i/2]
		if i%2 == 0 {
			digits[i] = int(b >> 4)
		} else {
			digits[i] = int(b & 0xF)
		}
	}
	checksum := 0
	for i := 0; i < len1; i++ {
		checksum += (w - 1) - digits[i]
	}
	for i := 0; i < len2; i++ {
		shift := uint(4 * (len2 - 1 - i))
		digits[len1+i] = (checksum >> shift) & 0xF
	}
	return digits
}

func wotsPublicFromPrivate(sk [][]byte, seed []byte) [][]byte {
	pk := make([][]byte, wotsLen)
	for i, v := range sk {
		pk[i] = chainHash(v, w-1, seed, i)
	}
	return pk
}

func wotsCommit(pk [][]byte) []byte {
	h := make([]byte, 0, wotsLen*hashSize)
	for _, v := range pk {
		h = append(h, v...)
	}
	return keccak.ShakeSum256(hashSize, h)
}

// PrivateKey is a stateful XMSS signing key: each Sign call consumes the
// next leaf and must never be reused, the scheme's defining constraint.
type PrivateKey struct {
	height    Height
	seed      []byte
	pubSeed   []byte
	leaves    [][]byte
	tree      [][][]byte // tree[level][node]
	nextIndex int
	root      []byte
}

// PublicKey is the Merkle root plus the public seed used to derive
// per-node domain-separation labels.
type PublicKey struct {
	height  Height
	pubSeed []byte
	root    []byte
}

// GenerateFromSeed derives a full XMSS key pair (building the entire
// 2^height-leaf tree) from a 32-byte seed.
func GenerateFromSeed(height Height, seed []byte) (*PrivateKey, error) {
	if len(seed) != 32 {
		return nil, cerr.New(cerr.KindInvalidKey, "sig/xmss.GenerateFromSeed", "seed must be 32 bytes")
	}
	expanded := keccak.ShakeSum256(64, seed)
	skSeed := append([]byte(nil), expanded[:32]...)
	pubSeed := append([]byte(nil), expanded[32:]...)

	numLeaves := 1 << uint(height)
	leaves := make([][]byte, numLeaves)
	for i := 0; i < numLeaves; i++ {
		sk := wotsPrivate(skSeed, i)
		pk := wotsPublicFromPrivate(sk, pubSeed)
		leaves[i] = wotsCommit(pk)
	}

	tree := [][][]byte{leaves}
	level := leaves
	for l := 0; l < int(height); l++ {
		next := make([][]byte, len(level)/2)
		for i := range next {
			label := []byte{byte(l)}
			next[i] = keccak.ShakeSum256(hashSize, pubSeed, label, level[2*i], level[2*i+1])
		}
		tree = append(tree, next)
		level = next
	}
	root := level[0]

	return &PrivateKey{
		height: height, seed: skSeed, pubSeed: pubSeed,
		leaves: leaves, tree: tree, root: root,
	}, nil
}

func (k *PrivateKey) Public() *PublicKey {
	return &PublicKey{height: k.height, pubSeed: k.pubSeed, root: k.root}
}

// RemainingSignatures reports how many Sign calls this key has left
// before it is exhausted.
func (k *PrivateKey) RemainingSignatures() int {
	return (1 << uint(k.height)) - k.nextIndex
}

// authPath returns the sibling hash at each level from leaf to root for
// the given leaf index.
func (k *PrivateKey) authPath(leafIndex int) [][]byte {
	path := make([][]byte, k.height)
	idx := leafIndex
	for l := 0; l < int(k.height); l++ {
		sibling := idx ^ 1
		path[l] = k.tree[l][sibling]
		idx >>= 1
	}
	return path
}

// Signature is one XMSS signature: the consumed leaf index, the WOTS+
// signature over the message digest, and the authentication path.
type Signature struct {
	LeafIndex int
	WotsSig   [][]byte
	AuthPath  [][]byte
}

// Sign signs message with the next unused leaf, returning an error once
// the key is exhausted (spec.md §5's stateful-signing obligation: callers
// must persist the updated index, via ExportState, after every call).
func (k *PrivateKey) Sign(message []byte) (*Signature, error) {
	if k.nextIndex >= len(k.leaves) {
		return nil, cerr.New(cerr.KindIllegalOperation, "sig/xmss.Sign", "key exhausted: no unused leaves remain")
	}
	leafIndex := k.nextIndex
	digest := keccak.ShakeSum256(hashSize, message)
	digits := wotsDigits(digest[:])
	sk := wotsPrivate(k.seed, leafIndex)
	sig := make([][]byte, wotsLen)
	for i, d := range digits {
		sig[i] = chainHash(sk[i], d, k.pubSeed, i)
	}
	path := k.authPath(leafIndex)
	k.nextIndex++
	return &Signature{LeafIndex: leafIndex, WotsSig: sig, AuthPath: path}, nil
}

// ExportState returns the index of the next leaf to be consumed, the
// value a caller must durably persist between Sign calls.
func (k *PrivateKey) ExportState() int { return k.nextIndex }

// RestoreState sets the next leaf index, e.g. after reloading a
// previously persisted PrivateKey.
func (k *PrivateKey) RestoreState(index int) error {
	if index < 0 || index > len(k.leaves) {
		return cerr.New(cerr.KindInvalidParam, "sig/xmss.RestoreState", "index out of range")
	}
	k.nextIndex = index
	return nil
}

// Verify reports whether sig is a valid XMSS signature of message under
// this public key: it walks the WOTS+ chains forward to recompute a
// commitment, then the authentication path up to the root.
func (pk *PublicKey) Verify(message []byte, sig *Signature) bool {
	if sig == nil || len(sig.WotsSig) != wotsLen || len(sig.AuthPath) != int(pk.height) {
		return false
	}
	digest := keccak.ShakeSum256(hashSize, message)
	digits := wotsDigits(digest[:])
	pkChain := make([][]byte, wotsLen)
	for i, d := range digits {
		// Continue chain i from step d; each step is labelled with its
		// absolute position, as chainHash labels the steps from the start.
		cur := sig.WotsSig[i]
		for s := d; s < w-1; s++ {
			label := []byte{byte(i), byte(i >> 8), byte(s)}
			cur = keccak.ShakeSum256(hashSize, pk.pubSeed, label, cur)
		}
		pkChain[i] = cur
	}
	node := wotsCommit(pkChain)

	idx := sig.LeafIndex
	for l := 0; l < int(pk.height); l++ {
		sibling := sig.AuthPath[l]
		label := []byte{byte(l)}
		if idx&1 == 0 {
			node = keccak.ShakeSum256(hashSize, pk.pubSeed, label, node, sibling)
		} else {
			node = keccak.ShakeSum256(hashSize, pk.pubSeed, label, sibling, node)
		}
		idx >>= 1
	}
	return ctEqual(node, pk.root)
}

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
