package key

import (
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/pbkdf2"
	"golang.org/x/crypto/sha3"

	"github.com/qrcs-corp/cexcore/block"
	"github.com/qrcs-corp/cexcore/cerr"
	"github.com/qrcs-corp/cexcore/mode"
	"github.com/qrcs-corp/cexcore/rand"
	"github.com/qrcs-corp/cexcore/util"
)

// KDF selects the password-based key derivation used to wrap an exported
// private AsymmetricKey (SPEC_FULL.md's domain-stack wiring of the
// teacher's two KDF choices onto this module's key-container export path).
type KDF uint8

const (
	KDFArgon2id KDF = iota
	KDFPBKDF2SHA3
)

const wrapKeySize = 32
const saltSize = 16

func deriveWrapKey(kdf KDF, password, salt []byte) []byte {
	switch kdf {
	case KDFPBKDF2SHA3:
		return pbkdf2.Key(password, salt, 100_000, wrapKeySize, sha3.New256)
	default:
		return argon2.IDKey(password, salt, 3, 64*1024, 4, wrapKeySize)
	}
}

// ExportPrivate wraps a private AsymmetricKey's serialized form under a
// password: salt || KDF id || AES-256-CTR(wrapKey, serialized key).
func ExportPrivate(k *AsymmetricKey, password []byte, kdf KDF) ([]byte, error) {
	if k.Class != ClassPrivate {
		return nil, cerr.New(cerr.KindInvalidParam, "key.ExportPrivate", "only a private key may be exported")
	}
	var salt [saltSize]byte
	if err := randomSalt(salt[:]); err != nil {
		return nil, err
	}
	wrapKey := deriveWrapKey(kdf, password, salt[:])
	defer util.Zeroize(wrapKey)

	cipher := block.NewRijndael()
	ctrMode := mode.NewCTR(cipher, false)
	var nonce [16]byte
	if err := ctrMode.Initialize(true, block.Key{Key: wrapKey, Nonce: nonce[:]}); err != nil {
		return nil, err
	}
	plain := k.Serialize()
	wrapped := make([]byte, len(plain))
	if err := ctrMode.Transform(plain, wrapped); err != nil {
		return nil, err
	}

	out := make([]byte, 0, saltSize+1+len(wrapped))
	out = append(out, salt[:]...)
	out = append(out, byte(kdf))
	out = append(out, wrapped...)
	return out, nil
}

// ImportPrivate reverses ExportPrivate given the same password.
func ImportPrivate(data, password []byte) (*AsymmetricKey, error) {
	if len(data) < saltSize+1 {
		return nil, cerr.New(cerr.KindInvalidSize, "key.ImportPrivate", "buffer shorter than the fixed header")
	}
	salt := data[:saltSize]
	kdf := KDF(data[saltSize])
	wrapped := data[saltSize+1:]

	wrapKey := deriveWrapKey(kdf, password, salt)
	defer util.Zeroize(wrapKey)

	cipher := block.NewRijndael()
	ctrMode := mode.NewCTR(cipher, false)
	var nonce [16]byte
	if err := ctrMode.Initialize(true, block.Key{Key: wrapKey, Nonce: nonce[:]}); err != nil {
		return nil, err
	}
	plain := make([]byte, len(wrapped))
	if err := ctrMode.Transform(wrapped, plain); err != nil {
		return nil, err
	}
	return DeserializeKey(plain)
}

func randomSalt(buf []byte) error {
	return rand.SystemProvider{}.Generate(buf)
}
