package block

import (
	"github.com/qrcs-corp/cexcore/cerr"
	"github.com/qrcs-corp/cexcore/primitives/gf"
	"github.com/qrcs-corp/cexcore/primitives/hkdf"
)

// sbox/invSBox are generated once from GF(2^8) inverses plus the Rijndael
// affine transform, rather than hard-coded as literal tables; Rijndael and
// RijndaelHX both use them through the one software round function below.
var sbox, invSBox [256]byte

func init() {
	for i := 0; i < 256; i++ {
		inv := gf.Inv256(byte(i))
		// Rijndael affine transform: b_i = inv_i ^ inv_{i+4} ^ inv_{i+5} ^
		// inv_{i+6} ^ inv_{i+7} ^ c_i (indices mod 8), c = 0x63.
		b := inv
		b ^= rotl8(inv, 1)
		b ^= rotl8(inv, 2)
		b ^= rotl8(inv, 3)
		b ^= rotl8(inv, 4)
		b ^= 0x63
		sbox[i] = b
		invSBox[b] = byte(i)
	}
}

func rotl8(b byte, n uint) byte { return (b << n) | (b >> (8 - n)) }

// rcon holds the round constants for Rijndael's native key schedule, up to
// 14 rounds (AES-256's maximum).
var rcon = [15]byte{0x00, 0x01, 0x02, 0x04, 0x08, 0x10, 0x20, 0x40, 0x80, 0x1B, 0x36, 0x6C, 0xD8, 0xAB, 0x4D}

// Rijndael implements AES in its standard form: 10/12/14 rounds for
// 128/192/256-bit keys, selected automatically from the key length.
type Rijndael struct {
	direction
	roundKeys [][4]byte // flattened below; see encryptBlock/decryptBlock
	words     []uint32  // Nb*(Nr+1) words of round-key material
	rounds    int
}

// NewRijndael returns an uninitialized standard Rijndael cipher.
func NewRijndael() *Rijndael { return &Rijndael{} }

func (c *Rijndael) LegalKeySizes() []int { return []int{16, 24, 32} }
func (c *Rijndael) BlockSize() int       { return BlockSize }
func (c *Rijndael) Enumeral() Enumeral   { return EnumRijndael }

func (c *Rijndael) Reset() {
	c.words = nil
	c.rounds = 0
	c.initialized = false
}

func (c *Rijndael) Initialize(encrypt bool, key Key) error {
	if !isLegalSize(len(key.Key), c.LegalKeySizes()) {
		return cerr.New(cerr.KindInvalidKey, "block.Rijndael", "key must be 16, 24 or 32 bytes")
	}
	nk := len(key.Key) / 4
	switch nk {
	case 4:
		c.rounds = 10
	case 6:
		c.rounds = 12
	case 8:
		c.rounds = 14
	}
	c.words = expandKeyNative(key.Key, nk, c.rounds)
	c.encrypt = encrypt
	c.initialized = true
	return nil
}

func expandKeyNative(key []byte, nk, rounds int) []uint32 {
	nb := 4
	total := nb * (rounds + 1)
	w := make([]uint32, total)
	for i := 0; i < nk; i++ {
		w[i] = uint32(key[4*i])<<24 | uint32(key[4*i+1])<<16 | uint32(key[4*i+2])<<8 | uint32(key[4*i+3])
	}
	for i := nk; i < total; i++ {
		temp := w[i-1]
		if i%nk == 0 {
			temp = subWord(rotWord(temp)) ^ uint32(rcon[i/nk])<<24
		} else if nk > 6 && i%nk == 4 {
			temp = subWord(temp)
		}
		w[i] = w[i-nk] ^ temp
	}
	return w
}

func subWord(w uint32) uint32 {
	return uint32(sbox[w>>24])<<24 | uint32(sbox[(w>>16)&0xff])<<16 |
		uint32(sbox[(w>>8)&0xff])<<8 | uint32(sbox[w&0xff])
}

func rotWord(w uint32) uint32 { return (w << 8) | (w >> 24) }

func (c *Rijndael) EncryptBlock(in, out []byte) error {
	if err := c.requireInitialized("block.Rijndael"); err != nil {
		return err
	}
	if len(in) < BlockSize || len(out) < BlockSize {
		return cerr.New(cerr.KindInvalidSize, "block.Rijndael", "block buffers must be 16 bytes")
	}
	encryptAESBlock(in, out, c.words, c.rounds)
	return nil
}

func (c *Rijndael) DecryptBlock(in, out []byte) error {
	if err := c.requireInitialized("block.Rijndael"); err != nil {
		return err
	}
	if len(in) < BlockSize || len(out) < BlockSize {
		return cerr.New(cerr.KindInvalidSize, "block.Rijndael", "block buffers must be 16 bytes")
	}
	decryptAESBlock(in, out, c.words, c.rounds)
	return nil
}

func (c *Rijndael) TransformBlocks(in, out []byte) error {
	if len(in)%BlockSize != 0 || len(in) != len(out) {
		return cerr.New(cerr.KindInvalidSize, "block.Rijndael", "input/output length must be a multiple of 16 bytes")
	}
	for off := 0; off < len(in); off += BlockSize {
		var err error
		if c.encrypt {
			err = c.EncryptBlock(in[off:off+BlockSize], out[off:off+BlockSize])
		} else {
			err = c.DecryptBlock(in[off:off+BlockSize], out[off:off+BlockSize])
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// --- core AES round function, shared by standard and HX variants ---

func addRoundKey(state *[4][4]byte, words []uint32, round int) {
	for c := 0; c < 4; c++ {
		w := words[round*4+c]
		state[0][c] ^= byte(w >> 24)
		state[1][c] ^= byte(w >> 16)
		state[2][c] ^= byte(w >> 8)
		state[3][c] ^= byte(w)
	}
}

func subBytes(state *[4][4]byte) {
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			state[r][c] = sbox[state[r][c]]
		}
	}
}

func invSubBytes(state *[4][4]byte) {
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			state[r][c] = invSBox[state[r][c]]
		}
	}
}

func shiftRows(state *[4][4]byte) {
	state[1][0], state[1][1], state[1][2], state[1][3] = state[1][1], state[1][2], state[1][3], state[1][0]
	state[2][0], state[2][1], state[2][2], state[2][3] = state[2][2], state[2][3], state[2][0], state[2][1]
	state[3][0], state[3][1], state[3][2], state[3][3] = state[3][3], state[3][0], state[3][1], state[3][2]
}

func invShiftRows(state *[4][4]byte) {
	state[1][1], state[1][2], state[1][3], state[1][0] = state[1][0], state[1][1], state[1][2], state[1][3]
	state[2][2], state[2][3], state[2][0], state[2][1] = state[2][0], state[2][1], state[2][2], state[2][3]
	state[3][3], state[3][0], state[3][1], state[3][2] = state[3][0], state[3][1], state[3][2], state[3][3]
}

func mixColumns(state *[4][4]byte) {
	for c := 0; c < 4; c++ {
		a0, a1, a2, a3 := state[0][c], state[1][c], state[2][c], state[3][c]
		state[0][c] = gf.Mul256(a0, 2) ^ gf.Mul256(a1, 3) ^ a2 ^ a3
		state[1][c] = a0 ^ gf.Mul256(a1, 2) ^ gf.Mul256(a2, 3) ^ a3
		state[2][c] = a0 ^ a1 ^ gf.Mul256(a2, 2) ^ gf.Mul256(a3, 3)
		state[3][c] = gf.Mul256(a0, 3) ^ a1 ^ a2 ^ gf.Mul256(a3, 2)
	}
}

func invMixColumns(state *[4][4]byte) {
	for c := 0; c < 4; c++ {
		a0, a1, a2, a3 := state[0][c], state[1][c], state[2][c], state[3][c]
		state[0][c] = gf.Mul256(a0, 0x0e) ^ gf.Mul256(a1, 0x0b) ^ gf.Mul256(a2, 0x0d) ^ gf.Mul256(a3, 0x09)
		state[1][c] = gf.Mul256(a0, 0x09) ^ gf.Mul256(a1, 0x0e) ^ gf.Mul256(a2, 0x0b) ^ gf.Mul256(a3, 0x0d)
		state[2][c] = gf.Mul256(a0, 0x0d) ^ gf.Mul256(a1, 0x09) ^ gf.Mul256(a2, 0x0e) ^ gf.Mul256(a3, 0x0b)
		state[3][c] = gf.Mul256(a0, 0x0b) ^ gf.Mul256(a1, 0x0d) ^ gf.Mul256(a2, 0x09) ^ gf.Mul256(a3, 0x0e)
	}
}

func loadState(in []byte) (state [4][4]byte) {
	for c := 0; c < 4; c++ {
		for r := 0; r < 4; r++ {
			state[r][c] = in[4*c+r]
		}
	}
	return state
}

func storeState(state [4][4]byte, out []byte) {
	for c := 0; c < 4; c++ {
		for r := 0; r < 4; r++ {
			out[4*c+r] = state[r][c]
		}
	}
}

func encryptAESBlock(in, out []byte, words []uint32, rounds int) {
	state := loadState(in)
	addRoundKey(&state, words, 0)
	for round := 1; round < rounds; round++ {
		subBytes(&state)
		shiftRows(&state)
		mixColumns(&state)
		addRoundKey(&state, words, round)
	}
	subBytes(&state)
	shiftRows(&state)
	addRoundKey(&state, words, rounds)
	storeState(state, out)
}

func decryptAESBlock(in, out []byte, words []uint32, rounds int) {
	state := loadState(in)
	addRoundKey(&state, words, rounds)
	for round := rounds - 1; round > 0; round-- {
		invShiftRows(&state)
		invSubBytes(&state)
		addRoundKey(&state, words, round)
		invMixColumns(&state)
	}
	invShiftRows(&state)
	invSubBytes(&state)
	addRoundKey(&state, words, 0)
	storeState(state, out)
}

// --- Rijndael-HX ---

// rijndaelHXRounds are the legal round counts for the HX variant
// (spec.md §4.1: "Rijndael-HX selectable in {22…38 even}").
var rijndaelHXRounds = []int{22, 24, 26, 28, 30, 32, 34, 36, 38}

// RijndaelHX is Rijndael with its native key schedule replaced by an
// HKDF-Expand over the supplied key (spec.md §4.1), permitting oversized
// keys and an extended round count.
type RijndaelHX struct {
	direction
	words  []uint32
	rounds int
	hashID hkdf.HashID
}

// NewRijndaelHX returns an uninitialized Rijndael-HX cipher configured for
// the given round count (must be one of rijndaelHXRounds) and HKDF hash.
func NewRijndaelHX(rounds int, hashID hkdf.HashID) (*RijndaelHX, error) {
	if !isLegalSize(rounds, rijndaelHXRounds) {
		return nil, cerr.New(cerr.KindInvalidParam, "block.RijndaelHX", "rounds must be even in [22,38]")
	}
	return &RijndaelHX{rounds: rounds, hashID: hashID}, nil
}

func (c *RijndaelHX) LegalKeySizes() []int {
	// Any of the fixed sizes, or 64 + k*digestSize, is accepted; callers
	// should use IsLegalKeySize for the general check since this cannot be
	// expressed as a finite slice.
	return []int{16, 24, 32, 64}
}

// IsLegalKeySize reports whether n is an acceptable HX key size.
func (c *RijndaelHX) IsLegalKeySize(n int) bool {
	return isLegalHXSize(n, hkdf.DigestSize(c.hashID))
}

func (c *RijndaelHX) BlockSize() int     { return BlockSize }
func (c *RijndaelHX) Enumeral() Enumeral { return EnumRHX }

func (c *RijndaelHX) Reset() {
	c.words = nil
	c.initialized = false
}

func (c *RijndaelHX) Initialize(encrypt bool, key Key) error {
	if !c.IsLegalKeySize(len(key.Key)) {
		return cerr.New(cerr.KindInvalidKey, "block.RijndaelHX", "key size is not a legal HX size for this hash")
	}
	roundKeyBytes := (c.rounds + 1) * 4 * 4
	material, err := hxKeySchedule("RHX", key.Key, key.Info, c.hashID, roundKeyBytes)
	if err != nil {
		return cerr.Wrap(cerr.KindInternal, "block.RijndaelHX", "HKDF expansion failed", err)
	}
	words := make([]uint32, roundKeyBytes/4)
	for i := range words {
		words[i] = uint32(material[4*i])<<24 | uint32(material[4*i+1])<<16 |
			uint32(material[4*i+2])<<8 | uint32(material[4*i+3])
	}
	c.words = words
	c.encrypt = encrypt
	c.initialized = true
	return nil
}

func (c *RijndaelHX) EncryptBlock(in, out []byte) error {
	if err := c.requireInitialized("block.RijndaelHX"); err != nil {
		return err
	}
	if len(in) < BlockSize || len(out) < BlockSize {
		return cerr.New(cerr.KindInvalidSize, "block.RijndaelHX", "block buffers must be 16 bytes")
	}
	encryptAESBlock(in, out, c.words, c.rounds)
	return nil
}

func (c *RijndaelHX) DecryptBlock(in, out []byte) error {
	if err := c.requireInitialized("block.RijndaelHX"); err != nil {
		return err
	}
	if len(in) < BlockSize || len(out) < BlockSize {
		return cerr.New(cerr.KindInvalidSize, "block.RijndaelHX", "block buffers must be 16 bytes")
	}
	decryptAESBlock(in, out, c.words, c.rounds)
	return nil
}

func (c *RijndaelHX) TransformBlocks(in, out []byte) error {
	if len(in)%BlockSize != 0 || len(in) != len(out) {
		return cerr.New(cerr.KindInvalidSize, "block.RijndaelHX", "input/output length must be a multiple of 16 bytes")
	}
	for off := 0; off < len(in); off += BlockSize {
		var err error
		if c.encrypt {
			err = c.EncryptBlock(in[off:off+BlockSize], out[off:off+BlockSize])
		} else {
			err = c.DecryptBlock(in[off:off+BlockSize], out[off:off+BlockSize])
		}
		if err != nil {
			return err
		}
	}
	return nil
}
