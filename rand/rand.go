// Package rand defines the IRandom entropy-source contract (spec.md §4.6)
// and a deterministic AES-CTR DRBG, NistRng, used for reproducible known-
// answer tests of everything layered on top of it (the BCG, key generation,
// signature nonces).
package rand

// Provider is the IRandom capability: a source of entropy the BCG reseeds
// from and, directly, anything that just needs raw random bytes.
type Provider interface {
	// Generate fills buf with random bytes, returning an error only on a
	// genuine source failure.
	Generate(buf []byte) error
}

// ProviderFunc adapts a plain function to Provider.
type ProviderFunc func(buf []byte) error

func (f ProviderFunc) Generate(buf []byte) error { return f(buf) }
