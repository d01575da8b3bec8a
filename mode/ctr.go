package mode

import (
	"sync"

	"github.com/qrcs-corp/cexcore/block"
	"github.com/qrcs-corp/cexcore/cerr"
	"github.com/qrcs-corp/cexcore/util"
)

// CTR is counter mode: block i's keystream is E(nonce + i) for an
// incrementing counter, independent of every other block, which makes it
// the most parallel-friendly mode in this package (spec.md §4.2). Two
// counter conventions are supported: CTR increments the big-endian integer
// formed by the whole nonce ("ICM" numbering per spec.md names the
// little-endian convention); both share this implementation, varying only
// in the increment helper.
type CTR struct {
	cipher      block.BlockCipher
	iv          []byte
	littleEndian bool
	init        bool
	parallel    util.ParallelOptions
}

// NewCTR wraps cipher in counter mode. littleEndian selects the ICM
// little-endian counter convention instead of the default big-endian one.
func NewCTR(cipher block.BlockCipher, littleEndian bool) *CTR {
	return &CTR{cipher: cipher, littleEndian: littleEndian, parallel: util.DefaultParallelOptions(cipher.BlockSize())}
}

func (m *CTR) Enumeral() Enumeral                     { return EnumCTR }
func (m *CTR) BlockSize() int                         { return m.cipher.BlockSize() }
func (m *CTR) ParallelOptions() *util.ParallelOptions { return &m.parallel }

func (m *CTR) Reset() {
	m.cipher.Reset()
	m.iv = nil
	m.init = false
}

func (m *CTR) Initialize(encrypt bool, key block.Key) error {
	bs := m.cipher.BlockSize()
	if len(key.Nonce) != bs {
		return cerr.New(cerr.KindInvalidNonce, "mode.CTR", "nonce must equal the block size")
	}
	if err := m.cipher.Initialize(true, key); err != nil {
		return err
	}
	m.iv = append([]byte(nil), key.Nonce...)
	m.init = true
	return nil
}

func (m *CTR) incrementCounter(counter []byte, by uint64) {
	if m.littleEndian {
		incrementLE(counter, by)
	} else {
		incrementBE(counter, by)
	}
}

func incrementBE(counter []byte, by uint64) {
	carry := by
	for i := len(counter) - 1; i >= 0 && carry > 0; i-- {
		sum := uint64(counter[i]) + carry
		counter[i] = byte(sum)
		carry = sum >> 8
	}
}

func incrementLE(counter []byte, by uint64) {
	carry := by
	for i := 0; i < len(counter) && carry > 0; i++ {
		sum := uint64(counter[i]) + carry
		counter[i] = byte(sum)
		carry = sum >> 8
	}
}

func (m *CTR) Transform(in, out []byte) error {
	if !m.init {
		return cerr.New(cerr.KindNotInitialized, "mode.CTR", "mode has not been initialized")
	}
	if len(in) == 0 {
		return cerr.New(cerr.KindInvalidSize, "mode.CTR", "input must not be empty")
	}
	if len(out) != len(in) {
		return cerr.New(cerr.KindInvalidSize, "mode.CTR", "output length must equal input length")
	}
	bs := m.cipher.BlockSize()
	totalBlocks := (len(in) + bs - 1) / bs
	if !m.parallel.ShouldParallelize(len(in)) {
		return m.transformRange(in, out, 0, totalBlocks, bs)
	}
	segs := util.Partition(totalBlocks, m.parallel.Degree())
	var wg sync.WaitGroup
	errs := make([]error, len(segs))
	for i, seg := range segs {
		wg.Add(1)
		go func(i int, seg util.Segment) {
			defer wg.Done()
			errs[i] = m.transformRange(in, out, seg.BlockOffset, seg.NumBlocks, bs)
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

func (m *CTR) transformRange(in, out []byte, blockOffset, numBlocks, bs int) error {
	counter := append([]byte(nil), m.iv...)
	m.incrementCounter(counter, uint64(blockOffset))
	stream := make([]byte, bs)
	for i := 0; i < numBlocks; i++ {
		off := (blockOffset + i) * bs
		if err := m.cipher.EncryptBlock(counter, stream); err != nil {
			return err
		}
		n := bs
		if off+n > len(in) {
			n = len(in) - off
		}
		util.Xor(out[off:off+n], in[off:off+n], stream[:n])
		m.incrementCounter(counter, 1)
	}
	return nil
}
