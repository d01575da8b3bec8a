package mode

import (
	"github.com/qrcs-corp/cexcore/block"
	"github.com/qrcs-corp/cexcore/cerr"
	"github.com/qrcs-corp/cexcore/util"
)

// OFB is output feedback: the keystream is the cipher iterated on its own
// output starting from the IV, independent of the data (spec.md §4.2).
// Direction is irrelevant (OFB is its own inverse); every block depends on
// the previous keystream block, so this mode does not parallelize.
type OFB struct {
	cipher block.BlockCipher
	iv     []byte
	init   bool
	opts   util.ParallelOptions
}

func NewOFB(cipher block.BlockCipher) *OFB {
	opts := util.DefaultParallelOptions(cipher.BlockSize())
	opts.IsParallel = false
	return &OFB{cipher: cipher, opts: opts}
}

func (m *OFB) Enumeral() Enumeral                     { return EnumOFB }
func (m *OFB) BlockSize() int                         { return m.cipher.BlockSize() }
func (m *OFB) ParallelOptions() *util.ParallelOptions { return &m.opts }

func (m *OFB) Reset() {
	m.cipher.Reset()
	m.iv = nil
	m.init = false
}

func (m *OFB) Initialize(encrypt bool, key block.Key) error {
	bs := m.cipher.BlockSize()
	if len(key.Nonce) != bs {
		return cerr.New(cerr.KindInvalidNonce, "mode.OFB", "IV must equal the block size")
	}
	if err := m.cipher.Initialize(true, key); err != nil {
		return err
	}
	m.iv = append([]byte(nil), key.Nonce...)
	m.init = true
	return nil
}

func (m *OFB) Transform(in, out []byte) error {
	if !m.init {
		return cerr.New(cerr.KindNotInitialized, "mode.OFB", "mode has not been initialized")
	}
	bs := m.cipher.BlockSize()
	if len(in) == 0 {
		return cerr.New(cerr.KindInvalidSize, "mode.OFB", "input must not be empty")
	}
	if len(out) != len(in) {
		return cerr.New(cerr.KindInvalidSize, "mode.OFB", "output length must equal input length")
	}
	register := append([]byte(nil), m.iv...)
	stream := make([]byte, bs)
	for off := 0; off < len(in); off += bs {
		if err := m.cipher.EncryptBlock(register, stream); err != nil {
			return err
		}
		n := bs
		if off+n > len(in) {
			n = len(in) - off
		}
		util.Xor(out[off:off+n], in[off:off+n], stream[:n])
		register, stream = stream, register
	}
	return nil
}
