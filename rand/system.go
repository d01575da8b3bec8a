package rand

import "crypto/rand"

// SystemProvider reads from the OS CSPRNG (crypto/rand.Reader). No library
// in the example corpus substitutes for this; crypto/rand is itself the
// idiomatic Go way to reach the platform entropy source, so this is the
// one deliberate, justified use of a stdlib-only path (see DESIGN.md).
type SystemProvider struct{}

func (SystemProvider) Generate(buf []byte) error {
	_, err := rand.Read(buf)
	return err
}
