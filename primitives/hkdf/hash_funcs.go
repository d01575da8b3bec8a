package hkdf

import (
	"crypto/sha256"
	"crypto/sha512"
	"hash"
	"io"

	"golang.org/x/crypto/sha3"

	"github.com/qrcs-corp/cexcore/primitives/blake2"
)

func newSHA256() hash.Hash    { return sha256.New() }
func newSHA512() hash.Hash    { return sha512.New() }
func newSHA3_256() hash.Hash  { return sha3.New256() }
func newSHA3_512() hash.Hash  { return sha3.New512() }
func newBlake2b512() hash.Hash { return blake2.New512() }

func readFull(r io.Reader, buf []byte) (int, error) {
	return io.ReadFull(r, buf)
}
