package mode

import (
	"sync"

	"github.com/qrcs-corp/cexcore/block"
	"github.com/qrcs-corp/cexcore/cerr"
	"github.com/qrcs-corp/cexcore/util"
)

// CFB is cipher feedback with a configurable register size r in
// [1, BlockSize] (spec.md §4.2); this module always encrypts the shift
// register regardless of direction. Encryption is sequential; decryption
// depends only on the r-byte ciphertext segment preceding each unit and so
// parallelizes the same way CBC decryption does.
type CFB struct {
	cipher    block.BlockCipher
	iv        []byte
	register  int
	encrypt   bool
	init      bool
	parallel  util.ParallelOptions
}

// NewCFB wraps cipher in CFB mode with feedback register size r bytes
// (1 <= r <= cipher.BlockSize()).
func NewCFB(cipher block.BlockCipher, r int) (*CFB, error) {
	if r < 1 || r > cipher.BlockSize() {
		return nil, cerr.New(cerr.KindInvalidParam, "mode.CFB", "register size must be in [1, block size]")
	}
	return &CFB{cipher: cipher, register: r, parallel: util.DefaultParallelOptions(cipher.BlockSize())}, nil
}

func (m *CFB) Enumeral() Enumeral                     { return EnumCFB }
func (m *CFB) BlockSize() int                         { return m.cipher.BlockSize() }
func (m *CFB) ParallelOptions() *util.ParallelOptions { return &m.parallel }

func (m *CFB) Reset() {
	m.cipher.Reset()
	m.iv = nil
	m.init = false
}

func (m *CFB) Initialize(encrypt bool, key block.Key) error {
	bs := m.cipher.BlockSize()
	if len(key.Nonce) != bs {
		return cerr.New(cerr.KindInvalidNonce, "mode.CFB", "IV must equal the block size")
	}
	// CFB always runs the underlying cipher in the encrypt direction.
	if err := m.cipher.Initialize(true, key); err != nil {
		return err
	}
	m.iv = append([]byte(nil), key.Nonce...)
	m.encrypt = encrypt
	m.init = true
	return nil
}

func (m *CFB) Transform(in, out []byte) error {
	if !m.init {
		return cerr.New(cerr.KindNotInitialized, "mode.CFB", "mode has not been initialized")
	}
	r := m.register
	if len(in) == 0 || len(in)%r != 0 {
		return cerr.New(cerr.KindInvalidSize, "mode.CFB", "input length must be a non-zero multiple of the register size")
	}
	if len(out) != len(in) {
		return cerr.New(cerr.KindInvalidSize, "mode.CFB", "output length must equal input length")
	}
	if m.encrypt {
		return m.encryptSequential(in, out)
	}
	return m.decryptParallel(in, out)
}

func (m *CFB) encryptSequential(in, out []byte) error {
	bs := m.cipher.BlockSize()
	r := m.register
	shift := append([]byte(nil), m.iv...)
	stream := make([]byte, bs)
	for off := 0; off < len(in); off += r {
		if err := m.cipher.EncryptBlock(shift, stream); err != nil {
			return err
		}
		util.Xor(out[off:off+r], in[off:off+r], stream[:r])
		shift = append(shift[r:], out[off:off+r]...)
	}
	return nil
}

func (m *CFB) decryptParallel(in, out []byte) error {
	r := m.register
	totalUnits := len(in) / r
	if !m.parallel.ShouldParallelize(len(in)) {
		return m.decryptRange(in, out, 0, totalUnits)
	}
	segs := util.Partition(totalUnits, m.parallel.Degree())
	var wg sync.WaitGroup
	errs := make([]error, len(segs))
	for i, seg := range segs {
		wg.Add(1)
		go func(i int, seg util.Segment) {
			defer wg.Done()
			errs[i] = m.decryptRange(in, out, seg.BlockOffset, seg.NumBlocks)
		}(i, seg)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func (m *CFB) decryptRange(in, out []byte, unitOffset, numUnits int) error {
	bs := m.cipher.BlockSize()
	r := m.register
	var shift []byte
	if unitOffset == 0 {
		shift = append([]byte(nil), m.iv...)
	} else {
		shift = make([]byte, 0, bs)
		lo := unitOffset*r - bs
		if lo < 0 {
			shift = append(shift, m.iv[bs+lo:]...)
			lo = 0
		}
		shift = append(shift, in[lo:unitOffset*r]...)
	}
	stream := make([]byte, bs)
	for i := 0; i < numUnits; i++ {
		off := (unitOffset + i) * r
		if err := m.cipher.EncryptBlock(shift, stream); err != nil {
			return err
		}
		util.Xor(out[off:off+r], in[off:off+r], stream[:r])
		next := append([]byte(nil), shift[r:]...)
		shift = append(next, in[off:off+r]...)
	}
	return nil
}
