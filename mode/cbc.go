package mode

import (
	"sync"

	"github.com/qrcs-corp/cexcore/block"
	"github.com/qrcs-corp/cexcore/cerr"
	"github.com/qrcs-corp/cexcore/util"
)

// CBC chains each plaintext block with the previous ciphertext block before
// encryption (spec.md §4.2). Encryption is sequential by construction;
// decryption has no such dependency (block i only needs ciphertext blocks i
// and i-1) and parallelizes across segments, each reconstructing its own
// chaining value from the ciphertext immediately preceding its segment.
type CBC struct {
	cipher   block.BlockCipher
	iv       []byte
	encrypt  bool
	init     bool
	parallel util.ParallelOptions
}

func NewCBC(cipher block.BlockCipher) *CBC {
	return &CBC{cipher: cipher, parallel: util.DefaultParallelOptions(cipher.BlockSize())}
}

func (m *CBC) Enumeral() Enumeral                     { return EnumCBC }
func (m *CBC) BlockSize() int                         { return m.cipher.BlockSize() }
func (m *CBC) ParallelOptions() *util.ParallelOptions { return &m.parallel }

func (m *CBC) Reset() {
	m.cipher.Reset()
	m.iv = nil
	m.init = false
}

func (m *CBC) Initialize(encrypt bool, key block.Key) error {
	bs := m.cipher.BlockSize()
	if len(key.Nonce) != bs {
		return cerr.New(cerr.KindInvalidNonce, "mode.CBC", "IV must equal the block size")
	}
	if err := m.cipher.Initialize(encrypt, key); err != nil {
		return err
	}
	m.iv = append([]byte(nil), key.Nonce...)
	m.encrypt = encrypt
	m.init = true
	return nil
}

func (m *CBC) Transform(in, out []byte) error {
	if !m.init {
		return cerr.New(cerr.KindNotInitialized, "mode.CBC", "mode has not been initialized")
	}
	bs := m.cipher.BlockSize()
	if err := requireBlockMultiple("mode.CBC", len(in), bs); err != nil {
		return err
	}
	if len(out) != len(in) {
		return cerr.New(cerr.KindInvalidSize, "mode.CBC", "output length must equal input length")
	}
	if m.encrypt {
		return m.encryptSequential(in, out, bs)
	}
	return m.decryptParallel(in, out, bs)
}

func (m *CBC) encryptSequential(in, out []byte, bs int) error {
	chain := m.iv
	tmp := make([]byte, bs)
	for off := 0; off < len(in); off += bs {
		util.Xor(tmp, in[off:off+bs], chain)
		if err := m.cipher.EncryptBlock(tmp, out[off:off+bs]); err != nil {
			return err
		}
		chain = out[off : off+bs]
	}
	return nil
}

func (m *CBC) decryptParallel(in, out []byte, bs int) error {
	totalBlocks := len(in) / bs
	if !m.parallel.ShouldParallelize(len(in)) {
		return m.decryptRange(in, out, bs, 0, totalBlocks)
	}
	segs := util.Partition(totalBlocks, m.parallel.Degree())
	var wg sync.WaitGroup
	errs := make([]error, len(segs))
	for i, seg := range segs {
		wg.Add(1)
		go func(i int, seg util.Segment) {
			defer wg.Done()
			errs[i] = m.decryptRange(in, out, bs, seg.BlockOffset, seg.NumBlocks)
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

// decryptRange decrypts numBlocks blocks starting at blockOffset, using a
// private cipher clone-by-reinitialize is unnecessary since DecryptBlock is
// stateless; the chaining value for the first block of the range is the
// ciphertext block immediately preceding it (or the IV for range 0).
func (m *CBC) decryptRange(in, out []byte, bs, blockOffset, numBlocks int) error {
	var chain []byte
	if blockOffset == 0 {
		chain = m.iv
	} else {
		start := (blockOffset - 1) * bs
		chain = in[start : start+bs]
	}
	for i := 0; i < numBlocks; i++ {
		off := (blockOffset + i) * bs
		if err := m.cipher.DecryptBlock(in[off:off+bs], out[off:off+bs]); err != nil {
			return err
		}
		util.Xor(out[off:off+bs], out[off:off+bs], chain)
		chain = in[off : off+bs]
	}
	return nil
}
