package block

import (
	"github.com/qrcs-corp/cexcore/cerr"
	"github.com/qrcs-corp/cexcore/primitives/hkdf"
)

// Serpent's eight 4-bit-to-4-bit S-boxes, as published in the AES
// submission (Anderson, Biham, Knudsen). Applied bit-slice style: bit j of
// each of the four 32-bit state words forms one 4-bit S-box input, for all
// 32 bit positions in parallel.
var serpentSBox = [8][16]byte{
	{3, 8, 15, 1, 10, 6, 5, 11, 14, 13, 4, 2, 7, 0, 9, 12},
	{15, 12, 2, 7, 9, 0, 5, 10, 1, 11, 14, 8, 6, 13, 3, 4},
	{8, 6, 7, 9, 3, 12, 10, 15, 13, 1, 14, 4, 0, 11, 5, 2},
	{0, 15, 11, 8, 12, 9, 6, 3, 13, 1, 2, 4, 10, 7, 5, 14},
	{1, 15, 8, 3, 12, 0, 11, 6, 2, 5, 4, 10, 9, 14, 7, 13},
	{15, 5, 2, 11, 4, 10, 9, 12, 0, 3, 14, 8, 13, 6, 7, 1},
	{7, 2, 12, 5, 8, 4, 6, 11, 14, 9, 1, 15, 13, 3, 10, 0},
	{1, 13, 15, 0, 14, 8, 2, 11, 7, 4, 12, 10, 9, 3, 5, 6},
}

var serpentInvSBox = [8][16]byte{
	{13, 3, 11, 0, 10, 6, 5, 12, 1, 14, 4, 7, 15, 9, 8, 2},
	{5, 8, 2, 14, 15, 6, 12, 3, 11, 4, 7, 9, 1, 13, 10, 0},
	{12, 9, 15, 4, 11, 14, 1, 2, 0, 3, 6, 13, 5, 8, 10, 7},
	{0, 9, 10, 7, 11, 14, 6, 13, 3, 5, 12, 2, 4, 8, 15, 1},
	{5, 0, 8, 3, 10, 9, 7, 14, 2, 12, 11, 6, 4, 15, 13, 1},
	{8, 15, 2, 9, 4, 1, 13, 14, 11, 6, 5, 3, 7, 12, 10, 0},
	{15, 10, 1, 13, 5, 3, 6, 0, 4, 9, 14, 7, 2, 12, 8, 11},
	{3, 0, 6, 13, 9, 14, 15, 8, 5, 12, 11, 7, 2, 4, 10, 1},
}

// sboxGroupOrder is the cyclic order in which S-boxes are consumed when
// deriving Serpent's 33 round-key groups from the prekey words.
var sboxGroupOrder = [8]int{3, 2, 1, 0, 7, 6, 5, 4}

const phi = 0x9e3779b9 // (sqrt(5)-1) * 2^31, Serpent's key-schedule constant

func rotl32(x uint32, n uint) uint32 { return (x << n) | (x >> (32 - n)) }
func rotr32(x uint32, n uint) uint32 { return (x >> n) | (x << (32 - n)) }

// applySBox runs S-box sb across four 32-bit words bit-slice style: for
// each bit position, the four input bits (one per word) index into sb, and
// the 4-bit result is scattered back to the same bit position of the four
// output words.
func applySBox(sb *[16]byte, x0, x1, x2, x3 uint32) (y0, y1, y2, y3 uint32) {
	for j := uint(0); j < 32; j++ {
		in := (x0>>j)&1 | ((x1>>j)&1)<<1 | ((x2>>j)&1)<<2 | ((x3>>j)&1)<<3
		out := sb[in]
		y0 |= uint32(out&1) << j
		y1 |= uint32((out>>1)&1) << j
		y2 |= uint32((out>>2)&1) << j
		y3 |= uint32((out>>3)&1) << j
	}
	return
}

func serpentLT(x0, x1, x2, x3 uint32) (uint32, uint32, uint32, uint32) {
	x0 = rotl32(x0, 13)
	x2 = rotl32(x2, 3)
	x1 = x1 ^ x0 ^ x2
	x3 = x3 ^ x2 ^ (x0 << 3)
	x1 = rotl32(x1, 1)
	x3 = rotl32(x3, 7)
	x0 = x0 ^ x1 ^ x3
	x2 = x2 ^ x3 ^ (x1 << 7)
	x0 = rotl32(x0, 5)
	x2 = rotl32(x2, 22)
	return x0, x1, x2, x3
}

func serpentInvLT(x0, x1, x2, x3 uint32) (uint32, uint32, uint32, uint32) {
	x2 = rotr32(x2, 22)
	x0 = rotr32(x0, 5)
	x2 = x2 ^ x3 ^ (x1 << 7)
	x0 = x0 ^ x1 ^ x3
	x3 = rotr32(x3, 7)
	x1 = rotr32(x1, 1)
	x3 = x3 ^ x2 ^ (x0 << 3)
	x1 = x1 ^ x0 ^ x2
	x2 = rotr32(x2, 3)
	x0 = rotr32(x0, 13)
	return x0, x1, x2, x3
}

func loadWordsLE(b []byte, n int) []uint32 {
	w := make([]uint32, n)
	for i := 0; i < n; i++ {
		w[i] = uint32(b[4*i]) | uint32(b[4*i+1])<<8 | uint32(b[4*i+2])<<16 | uint32(b[4*i+3])<<24
	}
	return w
}

func storeWordLE(b []byte, w uint32) {
	b[0] = byte(w)
	b[1] = byte(w >> 8)
	b[2] = byte(w >> 16)
	b[3] = byte(w >> 24)
}

// serpentKeySchedule expands a 128/192/256-bit key into 33 128-bit (4-word)
// round keys following the native Serpent schedule: pad to 256 bits with a
// single one-bit, run the affine recurrence with PHI, then pass each group
// of four prekey words through the cyclic S-box sequence.
func serpentKeySchedule(key []byte) [][4]uint32 {
	padded := make([]byte, 32)
	copy(padded, key)
	if len(key) < 32 {
		padded[len(key)] = 0x01
	}
	userWords := loadWordsLE(padded, 8)

	const total = 132
	w := make([]uint32, total+8)
	copy(w[:8], userWords)
	for i := 8; i < total+8; i++ {
		v := w[i-8] ^ w[i-5] ^ w[i-3] ^ w[i-1] ^ uint32(phi) ^ uint32(i-8)
		w[i] = rotl32(v, 11)
	}
	prekeys := w[8:]

	roundKeys := make([][4]uint32, 33)
	for g := 0; g < 33; g++ {
		sbIdx := sboxGroupOrder[g%8]
		x0, x1, x2, x3 := prekeys[4*g], prekeys[4*g+1], prekeys[4*g+2], prekeys[4*g+3]
		y0, y1, y2, y3 := applySBox(&serpentSBox[sbIdx], x0, x1, x2, x3)
		roundKeys[g] = [4]uint32{y0, y1, y2, y3}
	}
	return roundKeys
}

func serpentEncryptBlock(in, out []byte, roundKeys [][4]uint32, rounds int) {
	w := loadWordsLE(in, 4)
	x0, x1, x2, x3 := w[0], w[1], w[2], w[3]

	for i := 0; i < rounds; i++ {
		k := roundKeys[i]
		x0, x1, x2, x3 = x0^k[0], x1^k[1], x2^k[2], x3^k[3]
		sb := &serpentSBox[i%8]
		x0, x1, x2, x3 = applySBox(sb, x0, x1, x2, x3)
		if i < rounds-1 {
			x0, x1, x2, x3 = serpentLT(x0, x1, x2, x3)
		} else {
			k32 := roundKeys[rounds]
			x0, x1, x2, x3 = x0^k32[0], x1^k32[1], x2^k32[2], x3^k32[3]
		}
	}
	storeWordLE(out[0:4], x0)
	storeWordLE(out[4:8], x1)
	storeWordLE(out[8:12], x2)
	storeWordLE(out[12:16], x3)
}

func serpentDecryptBlock(in, out []byte, roundKeys [][4]uint32, rounds int) {
	w := loadWordsLE(in, 4)
	x0, x1, x2, x3 := w[0], w[1], w[2], w[3]

	for i := rounds - 1; i >= 0; i-- {
		if i == rounds-1 {
			k32 := roundKeys[rounds]
			x0, x1, x2, x3 = x0^k32[0], x1^k32[1], x2^k32[2], x3^k32[3]
		} else {
			x0, x1, x2, x3 = serpentInvLT(x0, x1, x2, x3)
		}
		sb := &serpentInvSBox[i%8]
		x0, x1, x2, x3 = applySBox(sb, x0, x1, x2, x3)
		k := roundKeys[i]
		x0, x1, x2, x3 = x0^k[0], x1^k[1], x2^k[2], x3^k[3]
	}
	storeWordLE(out[0:4], x0)
	storeWordLE(out[4:8], x1)
	storeWordLE(out[8:12], x2)
	storeWordLE(out[12:16], x3)
}

// Serpent implements the standard 32-round Serpent cipher with 128/192/256
// bit keys (spec.md §4.1).
type Serpent struct {
	direction
	roundKeys [][4]uint32
}

func NewSerpent() *Serpent { return &Serpent{} }

func (c *Serpent) LegalKeySizes() []int { return []int{16, 24, 32} }
func (c *Serpent) BlockSize() int       { return BlockSize }
func (c *Serpent) Enumeral() Enumeral   { return EnumSerpent }

func (c *Serpent) Reset() {
	c.roundKeys = nil
	c.initialized = false
}

func (c *Serpent) Initialize(encrypt bool, key Key) error {
	if !isLegalSize(len(key.Key), c.LegalKeySizes()) {
		return cerr.New(cerr.KindInvalidKey, "block.Serpent", "key must be 16, 24 or 32 bytes")
	}
	c.roundKeys = serpentKeySchedule(key.Key)
	c.encrypt = encrypt
	c.initialized = true
	return nil
}

func (c *Serpent) EncryptBlock(in, out []byte) error {
	if err := c.requireInitialized("block.Serpent"); err != nil {
		return err
	}
	if len(in) < BlockSize || len(out) < BlockSize {
		return cerr.New(cerr.KindInvalidSize, "block.Serpent", "block buffers must be 16 bytes")
	}
	serpentEncryptBlock(in, out, c.roundKeys, 32)
	return nil
}

func (c *Serpent) DecryptBlock(in, out []byte) error {
	if err := c.requireInitialized("block.Serpent"); err != nil {
		return err
	}
	if len(in) < BlockSize || len(out) < BlockSize {
		return cerr.New(cerr.KindInvalidSize, "block.Serpent", "block buffers must be 16 bytes")
	}
	serpentDecryptBlock(in, out, c.roundKeys, 32)
	return nil
}

func (c *Serpent) TransformBlocks(in, out []byte) error {
	if len(in)%BlockSize != 0 || len(in) != len(out) {
		return cerr.New(cerr.KindInvalidSize, "block.Serpent", "input/output length must be a multiple of 16 bytes")
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

// serpentHXRounds are the legal round counts for Serpent-HX (spec.md §4.1).
var serpentHXRounds = []int{32, 40, 48, 56, 64}

// SerpentHX is Serpent with an HKDF-Expand key schedule in place of the
// native PHI recurrence, and an extended round count.
type SerpentHX struct {
	direction
	roundKeys [][4]uint32
	rounds    int
	hashID    hkdf.HashID
}

func NewSerpentHX(rounds int, hashID hkdf.HashID) (*SerpentHX, error) {
	if !isLegalSize(rounds, serpentHXRounds) {
		return nil, cerr.New(cerr.KindInvalidParam, "block.SerpentHX", "rounds must be one of 32,40,48,56,64")
	}
	return &SerpentHX{rounds: rounds, hashID: hashID}, nil
}

func (c *SerpentHX) LegalKeySizes() []int { return []int{16, 24, 32, 64} }
func (c *SerpentHX) IsLegalKeySize(n int) bool {
	return isLegalHXSize(n, hkdf.DigestSize(c.hashID))
}
func (c *SerpentHX) BlockSize() int     { return BlockSize }
func (c *SerpentHX) Enumeral() Enumeral { return EnumSHX }

func (c *SerpentHX) Reset() {
	c.roundKeys = nil
	c.initialized = false
}

func (c *SerpentHX) Initialize(encrypt bool, key Key) error {
	if !c.IsLegalKeySize(len(key.Key)) {
		return cerr.New(cerr.KindInvalidKey, "block.SerpentHX", "key size is not a legal HX size for this hash")
	}
	material, err := hxKeySchedule("SHX", key.Key, key.Info, c.hashID, (c.rounds+1)*16)
	if err != nil {
		return cerr.Wrap(cerr.KindInternal, "block.SerpentHX", "HKDF expansion failed", err)
	}
	roundKeys := make([][4]uint32, c.rounds+1)
	for g := 0; g <= c.rounds; g++ {
		w := loadWordsLE(material[g*16:g*16+16], 4)
		roundKeys[g] = [4]uint32{w[0], w[1], w[2], w[3]}
	}
	c.roundKeys = roundKeys
	c.encrypt = encrypt
	c.initialized = true
	return nil
}

func (c *SerpentHX) EncryptBlock(in, out []byte) error {
	if err := c.requireInitialized("block.SerpentHX"); err != nil {
		return err
	}
	if len(in) < BlockSize || len(out) < BlockSize {
		return cerr.New(cerr.KindInvalidSize, "block.SerpentHX", "block buffers must be 16 bytes")
	}
	serpentEncryptBlock(in, out, c.roundKeys, c.rounds)
	return nil
}

func (c *SerpentHX) DecryptBlock(in, out []byte) error {
	if err := c.requireInitialized("block.SerpentHX"); err != nil {
		return err
	}
	if len(in) < BlockSize || len(out) < BlockSize {
		return cerr.New(cerr.KindInvalidSize, "block.SerpentHX", "block buffers must be 16 bytes")
	}
	serpentDecryptBlock(in, out, c.roundKeys, c.rounds)
	return nil
}

func (c *SerpentHX) TransformBlocks(in, out []byte) error {
	if len(in)%BlockSize != 0 || len(in) != len(out) {
		return cerr.New(cerr.KindInvalidSize, "block.SerpentHX", "input/output length must be a multiple of 16 bytes")
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
