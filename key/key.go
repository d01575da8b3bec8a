// Package key implements the asymmetric key container (spec.md §6.1): a
// bit-exact serializable AsymmetricKey/AsymmetricKeyPair pair tagged with
// the primitive and parameter set it belongs to, with optional password-
// based protection for exported private keys.
package key

import (
	"github.com/google/uuid"

	"github.com/qrcs-corp/cexcore/cerr"
	"github.com/qrcs-corp/cexcore/util"
)

// Primitive identifies which asymmetric algorithm family a key belongs to.
type Primitive uint8

const (
	PrimitiveNone Primitive = iota
	PrimitiveDilithium
	PrimitiveXMSS
	PrimitiveXMSSMT
	PrimitiveRainbow
	PrimitiveEdwards
)

// Class distinguishes a public key from a private one within a pair.
type Class uint8

const (
	ClassNone Class = iota
	ClassPublic
	ClassPrivate
)

// AsymmetricKey is one half (public or private) of a keyed asymmetric
// primitive: an opaque polynomial/byte payload tagged with enough metadata
// to reconstruct the right signer without external context.
type AsymmetricKey struct {
	Primitive  Primitive
	Class      Class
	Parameter  uint8 // primitive-specific parameter-set selector
	Tag        uuid.UUID
	Polynomial []byte
}

// Serialize writes the key in spec.md §6.1's bit-exact wire shape:
// primitive (1) || class (1) || parameter (1) || tag (16) ||
// length (4, little-endian) || polynomial bytes.
func (k *AsymmetricKey) Serialize() []byte {
	out := make([]byte, 0, 3+16+4+len(k.Polynomial))
	out = append(out, byte(k.Primitive), byte(k.Class), k.Parameter)
	tagBytes, _ := k.Tag.MarshalBinary()
	out = append(out, tagBytes...)
	var lenBuf [4]byte
	util.PutUint32LE(lenBuf[:], uint32(len(k.Polynomial)))
	out = append(out, lenBuf[:]...)
	out = append(out, k.Polynomial...)
	return out
}

// DeserializeKey parses the wire shape Serialize produces, rejecting a
// zero Primitive/Class (spec.md §6.1's "reject zero enum values") and any
// length field that would overrun the supplied buffer.
func DeserializeKey(data []byte) (*AsymmetricKey, error) {
	const headerSize = 3 + 16 + 4
	if len(data) < headerSize {
		return nil, cerr.New(cerr.KindInvalidSize, "key.DeserializeKey", "buffer shorter than the fixed header")
	}
	k := &AsymmetricKey{
		Primitive: Primitive(data[0]),
		Class:     Class(data[1]),
		Parameter: data[2],
	}
	if k.Primitive == PrimitiveNone || k.Class == ClassNone {
		return nil, cerr.New(cerr.KindInvalidParam, "key.DeserializeKey", "primitive and class must be non-zero")
	}
	if err := k.Tag.UnmarshalBinary(data[3:19]); err != nil {
		return nil, cerr.Wrap(cerr.KindInvalidParam, "key.DeserializeKey", "malformed tag", err)
	}
	polyLen := util.Uint32LE(data[19:23])
	if uint64(headerSize)+uint64(polyLen) > uint64(len(data)) {
		return nil, cerr.New(cerr.KindInvalidSize, "key.DeserializeKey", "polynomial length overruns buffer")
	}
	k.Polynomial = append([]byte(nil), data[headerSize:uint32(headerSize)+polyLen]...)
	return k, nil
}

// AsymmetricKeyPair bundles a public and private AsymmetricKey generated
// together, sharing one Tag.
type AsymmetricKeyPair struct {
	Public  *AsymmetricKey
	Private *AsymmetricKey
}

// NewKeyPair tags both halves of a freshly generated key with the same
// random-looking UUID (google/uuid, spec.md §6.1's opaque identifier).
func NewKeyPair(primitive Primitive, parameter uint8, publicPoly, privatePoly []byte) *AsymmetricKeyPair {
	tag := uuid.New()
	return &AsymmetricKeyPair{
		Public: &AsymmetricKey{
			Primitive: primitive, Class: ClassPublic, Parameter: parameter,
			Tag: tag, Polynomial: publicPoly,
		},
		Private: &AsymmetricKey{
			Primitive: primitive, Class: ClassPrivate, Parameter: parameter,
			Tag: tag, Polynomial: privatePoly,
		},
	}
}

// Zeroize overwrites the private key's polynomial bytes in place.
func (k *AsymmetricKeyPair) Zeroize() {
	if k.Private != nil {
		util.Zeroize(k.Private.Polynomial)
	}
}
