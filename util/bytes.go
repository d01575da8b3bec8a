// Package util holds the cross-cutting helpers every higher layer of
// cexcore depends on: endian-aware word packing, secure zeroization, and the
// ParallelOptions descriptor that the cipher modes use to configure their
// worker pools.
package util

import "encoding/binary"

// PutUint32LE writes v into b in little-endian order, as used by the key
// container's length field.
func PutUint32LE(b []byte, v uint32) { binary.LittleEndian.PutUint32(b, v) }

// Uint32LE reads a little-endian uint32 from b.
func Uint32LE(b []byte) uint32 { return binary.LittleEndian.Uint32(b) }

// PutUint32BE writes v into b in big-endian order.
func PutUint32BE(b []byte, v uint32) { binary.BigEndian.PutUint32(b, v) }

// Uint32BE reads a big-endian uint32 from b.
func Uint32BE(b []byte) uint32 { return binary.BigEndian.Uint32(b) }

// PutUint64BE writes v into b in big-endian order, as used by the GHASH
// length blocks of GCM and GMAC.
func PutUint64BE(b []byte, v uint64) { binary.BigEndian.PutUint64(b, v) }

// Xor computes dst[i] = a[i] ^ b[i] for the overlapping length of a and b,
// writing into dst (which may alias a). It returns the number of bytes
// written.
func Xor(dst, a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	if len(dst) < n {
		n = len(dst)
	}
	for i := 0; i < n; i++ {
		dst[i] = a[i] ^ b[i]
	}
	return n
}

// Zeroize overwrites every byte of b with zero. Within this module only
// the key package calls it (private polynomials and password-derived
// wrapping keys).
func Zeroize(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// ZeroizeAll zeroizes every buffer passed to it, in order.
func ZeroizeAll(bufs ...[]byte) {
	for _, b := range bufs {
		Zeroize(b)
	}
}
