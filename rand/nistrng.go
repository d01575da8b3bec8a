package rand

import (
	"github.com/qrcs-corp/cexcore/block"
	"github.com/qrcs-corp/cexcore/cerr"
)

// NistRng is a CTR_DRBG (no derivation function) over AES-256, matching
// NIST SP 800-90A's test-vector construction: a 48-byte seed splits into a
// 32-byte key and 16-byte V register, updated via the same Update function
// the generate path reuses after every request. It is fully deterministic
// given its seed, which is the point: known-answer tests need the BCG (and
// anything layered on Provider) to reproduce an exact byte stream.
type NistRng struct {
	cipher block.BlockCipher
	key    [32]byte
	v      [16]byte
}

// NewNistRng seeds a CTR_DRBG from a 48-byte seed (key material || V).
func NewNistRng(seed []byte) (*NistRng, error) {
	if len(seed) != 48 {
		return nil, cerr.New(cerr.KindInvalidParam, "rand.NistRng", "seed must be 48 bytes")
	}
	r := &NistRng{cipher: block.NewRijndael()}
	var zeroKey [32]byte
	var zeroV [16]byte
	r.key, r.v = zeroKey, zeroV
	if err := r.update(seed); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *NistRng) incrementV() {
	for i := 15; i >= 0; i-- {
		r.v[i]++
		if r.v[i] != 0 {
			break
		}
	}
}

// update runs CTR_DRBG_Update: generate enough keystream to cover
// key||V (48 bytes), XOR in providedData (zero-extended/truncated to 48
// bytes), and split the result back into key and V.
func (r *NistRng) update(providedData []byte) error {
	if err := r.cipher.Initialize(true, block.Key{Key: r.key[:]}); err != nil {
		return err
	}
	var temp [48]byte
	for off := 0; off < 48; off += 16 {
		r.incrementV()
		var out [16]byte
		if err := r.cipher.EncryptBlock(r.v[:], out[:]); err != nil {
			return err
		}
		copy(temp[off:off+16], out[:])
	}
	for i := range temp {
		if i < len(providedData) {
			temp[i] ^= providedData[i]
		}
	}
	copy(r.key[:], temp[:32])
	copy(r.v[:], temp[32:48])
	return nil
}

// Generate fills buf with DRBG output, advancing the internal state and
// running an Update with no additional input afterward, per SP 800-90A.
func (r *NistRng) Generate(buf []byte) error {
	if err := r.cipher.Initialize(true, block.Key{Key: r.key[:]}); err != nil {
		return err
	}
	off := 0
	var out [16]byte
	for off < len(buf) {
		r.incrementV()
		if err := r.cipher.EncryptBlock(r.v[:], out[:]); err != nil {
			return err
		}
		n := copy(buf[off:], out[:])
		off += n
	}
	return r.update(nil)
}
