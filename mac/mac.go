// Package mac implements the Mac capability (spec.md §4.3): CMAC built over
// a block.BlockCipher, and GMAC built over GHASH and CTR, both producing an
// up-to-BlockSize authentication tag over arbitrary-length input.
package mac

import "github.com/qrcs-corp/cexcore/cerr"

// Enumeral identifies a MAC construction, mirroring spec.md §6.2.
type Enumeral uint8

const (
	EnumCMAC Enumeral = iota + 1
	EnumGMAC
)

// Mac is the capability both constructions in this package implement: a
// streaming update/finalize authenticator over a keyed primitive.
type Mac interface {
	// Update absorbs more input; it may be called any number of times
	// before Finalize.
	Update(data []byte) error
	// Finalize writes the authentication tag into tag, which must be at
	// least TagSize() bytes, and resets accumulated state so the instance
	// is ready for a new message under the same key.
	Finalize(tag []byte) error
	// Reset clears accumulated state without requiring re-keying.
	Reset()
	// TagSize returns the full tag size this construction produces.
	TagSize() int
	// Enumeral identifies the concrete construction.
	Enumeral() Enumeral
}

func requireTagBuffer(location string, tag []byte, size int) error {
	if len(tag) < size {
		return cerr.New(cerr.KindInvalidSize, location, "tag buffer too small")
	}
	return nil
}
