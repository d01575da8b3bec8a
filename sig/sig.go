// Package sig defines the Signer capability (spec.md §5) describing the
// four asymmetric families in its subpackages: dilithium, xmss, rainbow
// and edwards.
package sig

// Signer describes the sign/verify/size surface of the signature
// families: sign a digest-sized or arbitrary-length message, and verify a
// signature against a public key. No subpackage type satisfies it as is:
// each family's Verify is a method of its PublicKey type, dilithium's
// Verify also takes the ParameterSet, and xmss's Sign returns a
// *Signature rather than bytes.
type Signer interface {
	// Sign produces a detached signature over message.
	Sign(message []byte) ([]byte, error)
	// Verify reports whether signature is a valid signature of message
	// under this key.
	Verify(message, signature []byte) bool
	// PublicKeySize and PrivateKeySize report the parameter set's fixed
	// key sizes in bytes.
	PublicKeySize() int
	PrivateKeySize() int
	// SignatureSize reports the parameter set's fixed (or maximum, for
	// variable-length schemes) signature size in bytes.
	SignatureSize() int
}

// Enumeral identifies a signature family and parameter set, mirroring
// spec.md §6.2.
type Enumeral uint16

const (
	EnumNone Enumeral = iota
	EnumDilithiumS2
	EnumDilithiumS3
	EnumDilithiumS5
	EnumXMSSSHA256H10
	EnumXMSSSHA256H16
	EnumXMSSSHA256H20
	EnumXMSSMTSHA256H20D2
	EnumRainbowS1S128
	EnumRainbowS2S192
	EnumRainbowS3S256
	EnumEdwards25519
	EnumEdwards448
)
