// Package mode implements the CipherMode capability (spec.md §4.2): ECB,
// CBC, CFB, OFB and CTR/ICM, each built over a block.BlockCipher and
// optionally parallelized across segments via util.ParallelOptions.
package mode

import (
	"github.com/qrcs-corp/cexcore/block"
	"github.com/qrcs-corp/cexcore/cerr"
	"github.com/qrcs-corp/cexcore/util"
)

// CipherMode is the capability every mode in this package implements.
// Initialize, Transform and Reset mirror block.BlockCipher's shape so
// callers can treat a mode as a drop-in over a raw cipher.
type CipherMode interface {
	// Initialize keys the underlying cipher and, for modes that use one,
	// sets the IV/nonce from key.Nonce.
	Initialize(encrypt bool, key block.Key) error
	// Transform processes len(in) bytes from in into out. ECB and CBC take
	// a non-zero whole multiple of BlockSize, CFB a non-zero multiple of
	// the register size configured at construction, and CTR and OFB any
	// non-zero length.
	Transform(in, out []byte) error
	// BlockSize returns the underlying cipher's block size.
	BlockSize() int
	// Enumeral identifies the concrete mode.
	Enumeral() Enumeral
	// Reset clears IV/counter state and returns the mode to uninitialized.
	Reset()
	// ParallelOptions returns the options used for multi-segment parallel
	// transforms; it is never nil (OFB's have IsParallel set to false).
	ParallelOptions() *util.ParallelOptions
}

// Enumeral identifies a cipher mode, mirroring spec.md §6.2's CipherModes
// enumeration.
type Enumeral uint8

const (
	EnumECB Enumeral = iota + 1
	EnumCBC
	EnumCFB
	EnumOFB
	EnumCTR
)

func requireBlockMultiple(location string, n, blockSize int) error {
	if n == 0 || n%blockSize != 0 {
		return cerr.New(cerr.KindInvalidSize, location, "input length must be a non-zero multiple of the block size")
	}
	return nil
}
