package mode

import (
	"sync"

	"github.com/qrcs-corp/cexcore/block"
	"github.com/qrcs-corp/cexcore/cerr"
	"github.com/qrcs-corp/cexcore/util"
)

// ECB encrypts/decrypts each block independently (spec.md §4.2). It carries
// no IV and has no inter-block dependency, so both directions parallelize.
type ECB struct {
	cipher   block.BlockCipher
	encrypt  bool
	init     bool
	parallel util.ParallelOptions
}

// NewECB wraps an uninitialized block.BlockCipher in ECB mode.
func NewECB(cipher block.BlockCipher) *ECB {
	return &ECB{cipher: cipher, parallel: util.DefaultParallelOptions(cipher.BlockSize())}
}

func (m *ECB) Enumeral() Enumeral                     { return EnumECB }
func (m *ECB) BlockSize() int                         { return m.cipher.BlockSize() }
func (m *ECB) ParallelOptions() *util.ParallelOptions { return &m.parallel }

func (m *ECB) Reset() {
	m.cipher.Reset()
	m.init = false
}

func (m *ECB) Initialize(encrypt bool, key block.Key) error {
	if err := m.cipher.Initialize(encrypt, key); err != nil {
		return err
	}
	m.encrypt = encrypt
	m.init = true
	return nil
}

func (m *ECB) Transform(in, out []byte) error {
	if !m.init {
		return cerr.New(cerr.KindNotInitialized, "mode.ECB", "mode has not been initialized")
	}
	bs := m.cipher.BlockSize()
	if err := requireBlockMultiple("mode.ECB", len(in), bs); err != nil {
		return err
	}
	if len(out) != len(in) {
		return cerr.New(cerr.KindInvalidSize, "mode.ECB", "output length must equal input length")
	}
	totalBlocks := len(in) / bs
	if !m.parallel.ShouldParallelize(len(in)) {
		return m.cipher.TransformBlocks(in, out)
	}

	segs := util.Partition(totalBlocks, m.parallel.Degree())
	var wg sync.WaitGroup
	errs := make([]error, len(segs))
	for i, seg := range segs {
		wg.Add(1)
		go func(i int, seg util.Segment) {
			defer wg.Done()
			worker := m.cipher
			lo, hi := seg.BlockOffset*bs, (seg.BlockOffset+seg.NumBlocks)*bs
			errs[i] = worker.TransformBlocks(in[lo:hi], out[lo:hi])
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
