package aead

import (
	"encoding/hex"
	"testing"

	"github.com/qrcs-corp/cexcore/block"
)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("invalid hex literal %q: %v", s, err)
	}
	return b
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// NIST GCM Test Case 2: all-zero AES-128 key, zero 96-bit nonce, one
// all-zero plaintext block, no AAD.
func TestGCMTestCase2KAT(t *testing.T) {
	key := make([]byte, 16)
	nonce := make([]byte, 12)
	plain := make([]byte, 16)
	wantCipher := mustHex(t, "0388dace60b6a392f328c2b971b2fe78")
	wantTag := mustHex(t, "ab6e47d42cec13bdf53a67b21257bddf")

	g, err := NewGCM(block.NewRijndael(), 16)
	if err != nil {
		t.Fatalf("NewGCM: %v", err)
	}
	if err := g.Initialize(true, nonce, key); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	cipher := make([]byte, len(plain))
	if err := g.Transform(plain, cipher); err != nil {
		t.Fatalf("Transform: %v", err)
	}
	if !bytesEqual(cipher, wantCipher) {
		t.Fatalf("ciphertext mismatch: got %x want %x", cipher, wantCipher)
	}
	tag := make([]byte, g.TagSize())
	if err := g.Finish(tag); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if !bytesEqual(tag, wantTag) {
		t.Fatalf("tag mismatch: got %x want %x", tag, wantTag)
	}
}

func TestGCMRoundTripWithAAD(t *testing.T) {
	key := mustHex(t, "feffe9928665731c6d6a8f9467308308")
	nonce := mustHex(t, "cafebabefacedbaddecaf888")
	aad := []byte("header-metadata")
	plain := []byte("the quick brown fox jumps over the lazy dog")

	enc, err := NewGCM(block.NewRijndael(), 16)
	if err != nil {
		t.Fatalf("NewGCM: %v", err)
	}
	if err := enc.Initialize(true, nonce, key); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if err := enc.SetAssociatedData(aad); err != nil {
		t.Fatalf("SetAssociatedData: %v", err)
	}
	cipher := make([]byte, len(plain))
	if err := enc.Transform(plain, cipher); err != nil {
		t.Fatalf("Transform: %v", err)
	}
	tag := make([]byte, enc.TagSize())
	if err := enc.Finish(tag); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	dec, err := NewGCM(block.NewRijndael(), 16)
	if err != nil {
		t.Fatalf("NewGCM: %v", err)
	}
	if err := dec.Initialize(false, nonce, key); err != nil {
		t.Fatalf("Initialize(decrypt): %v", err)
	}
	if err := dec.SetAssociatedData(aad); err != nil {
		t.Fatalf("SetAssociatedData: %v", err)
	}
	roundTrip := make([]byte, len(cipher))
	if err := dec.Transform(cipher, roundTrip); err != nil {
		t.Fatalf("Transform(decrypt): %v", err)
	}
	if err := dec.Finish(tag); err != nil {
		t.Fatalf("Finish(decrypt) rejected a valid tag: %v", err)
	}
	if !bytesEqual(roundTrip, plain) {
		t.Fatalf("roundtrip mismatch: got %q want %q", roundTrip, plain)
	}
}

func TestGCMDetectsTampering(t *testing.T) {
	key := make([]byte, 32)
	nonce := make([]byte, 12)
	plain := []byte("authenticate me")

	enc, err := NewGCM(block.NewRijndael(), 16)
	if err != nil {
		t.Fatalf("NewGCM: %v", err)
	}
	if err := enc.Initialize(true, nonce, key); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	cipher := make([]byte, len(plain))
	if err := enc.Transform(plain, cipher); err != nil {
		t.Fatalf("Transform: %v", err)
	}
	tag := make([]byte, enc.TagSize())
	if err := enc.Finish(tag); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	cipher[0] ^= 0x01 // flip a bit in the ciphertext

	dec, err := NewGCM(block.NewRijndael(), 16)
	if err != nil {
		t.Fatalf("NewGCM: %v", err)
	}
	if err := dec.Initialize(false, nonce, key); err != nil {
		t.Fatalf("Initialize(decrypt): %v", err)
	}
	roundTrip := make([]byte, len(cipher))
	if err := dec.Transform(cipher, roundTrip); err != nil {
		t.Fatalf("Transform(decrypt): %v", err)
	}
	if err := dec.Finish(tag); err == nil {
		t.Fatal("expected tampered ciphertext to fail tag verification")
	}
}

func TestEAXRoundTrip(t *testing.T) {
	key := mustHex(t, "000102030405060708090a0b0c0d0e0f")
	nonce := mustHex(t, "1a2b3c4d5e6f708192a3b4c5d6e7f809")
	aad := []byte("associated")
	plain := []byte("EAX mode exercises three domain-separated CMACs")

	enc, err := NewEAX(block.NewRijndael(), 16)
	if err != nil {
		t.Fatalf("NewEAX: %v", err)
	}
	if err := enc.Initialize(true, nonce, key); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if err := enc.SetAssociatedData(aad); err != nil {
		t.Fatalf("SetAssociatedData: %v", err)
	}
	cipher := make([]byte, len(plain))
	if err := enc.Transform(plain, cipher); err != nil {
		t.Fatalf("Transform: %v", err)
	}
	tag := make([]byte, enc.TagSize())
	if err := enc.Finish(tag); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	dec, err := NewEAX(block.NewRijndael(), 16)
	if err != nil {
		t.Fatalf("NewEAX: %v", err)
	}
	if err := dec.Initialize(false, nonce, key); err != nil {
		t.Fatalf("Initialize(decrypt): %v", err)
	}
	if err := dec.SetAssociatedData(aad); err != nil {
		t.Fatalf("SetAssociatedData: %v", err)
	}
	roundTrip := make([]byte, len(cipher))
	if err := dec.Transform(cipher, roundTrip); err != nil {
		t.Fatalf("Transform(decrypt): %v", err)
	}
	if err := dec.Finish(tag); err != nil {
		t.Fatalf("Finish(decrypt): %v", err)
	}
	if !bytesEqual(roundTrip, plain) {
		t.Fatalf("roundtrip mismatch: got %q want %q", roundTrip, plain)
	}
}

func TestEAXDefaultEmptyAssociatedData(t *testing.T) {
	key := make([]byte, 16)
	nonce := make([]byte, 16)
	plain := []byte("no associated data supplied at all")

	enc, err := NewEAX(block.NewRijndael(), 16)
	if err != nil {
		t.Fatalf("NewEAX: %v", err)
	}
	if err := enc.Initialize(true, nonce, key); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	// Deliberately never call SetAssociatedData.
	cipher := make([]byte, len(plain))
	if err := enc.Transform(plain, cipher); err != nil {
		t.Fatalf("Transform: %v", err)
	}
	tag := make([]byte, enc.TagSize())
	if err := enc.Finish(tag); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	dec, err := NewEAX(block.NewRijndael(), 16)
	if err != nil {
		t.Fatalf("NewEAX: %v", err)
	}
	if err := dec.Initialize(false, nonce, key); err != nil {
		t.Fatalf("Initialize(decrypt): %v", err)
	}
	roundTrip := make([]byte, len(cipher))
	if err := dec.Transform(cipher, roundTrip); err != nil {
		t.Fatalf("Transform(decrypt): %v", err)
	}
	if err := dec.Finish(tag); err != nil {
		t.Fatalf("Finish(decrypt) rejected a valid tag with no AAD on either side: %v", err)
	}
	if !bytesEqual(roundTrip, plain) {
		t.Fatal("roundtrip mismatch with default empty associated data")
	}
}

func TestOCBRoundTrip(t *testing.T) {
	key := mustHex(t, "2b7e151628aed2a6abf7158809cf4f3c")
	nonce := mustHex(t, "000000000001020304050607")
	aad := []byte("ocb-aad")
	plain := []byte("offset codebook mode processes the whole message in one call")

	enc, err := NewOCB(block.NewRijndael(), 16)
	if err != nil {
		t.Fatalf("NewOCB: %v", err)
	}
	if err := enc.Initialize(true, nonce, key); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if err := enc.SetAssociatedData(aad); err != nil {
		t.Fatalf("SetAssociatedData: %v", err)
	}
	cipher := make([]byte, len(plain))
	if err := enc.Transform(plain, cipher); err != nil {
		t.Fatalf("Transform: %v", err)
	}

	// A second Transform call on the same message must be rejected.
	if err := enc.Transform(plain, cipher); err == nil {
		t.Fatal("expected a second Transform call to fail")
	}

	tag := make([]byte, enc.TagSize())
	if err := enc.Finish(tag); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	dec, err := NewOCB(block.NewRijndael(), 16)
	if err != nil {
		t.Fatalf("NewOCB: %v", err)
	}
	if err := dec.Initialize(false, nonce, key); err != nil {
		t.Fatalf("Initialize(decrypt): %v", err)
	}
	if err := dec.SetAssociatedData(aad); err != nil {
		t.Fatalf("SetAssociatedData: %v", err)
	}
	roundTrip := make([]byte, len(cipher))
	if err := dec.Transform(cipher, roundTrip); err != nil {
		t.Fatalf("Transform(decrypt): %v", err)
	}
	if err := dec.Finish(tag); err != nil {
		t.Fatalf("Finish(decrypt): %v", err)
	}
	if !bytesEqual(roundTrip, plain) {
		t.Fatalf("roundtrip mismatch: got %q want %q", roundTrip, plain)
	}
}

func TestChaChaPolyRoundTrip(t *testing.T) {
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}
	nonce := make([]byte, 12)
	aad := []byte("chacha-aad")
	plain := []byte("ChaChaPoly wraps golang.org/x/crypto/chacha20poly1305")

	enc := NewChaChaPoly()
	if err := enc.Initialize(true, nonce, key); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if err := enc.SetAssociatedData(aad); err != nil {
		t.Fatalf("SetAssociatedData: %v", err)
	}
	cipher := make([]byte, len(plain))
	if err := enc.Transform(plain, cipher); err != nil {
		t.Fatalf("Transform: %v", err)
	}
	tag := make([]byte, enc.TagSize())
	if err := enc.Finish(tag); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	dec := NewChaChaPoly()
	if err := dec.Initialize(false, nonce, key); err != nil {
		t.Fatalf("Initialize(decrypt): %v", err)
	}
	if err := dec.SetAssociatedData(aad); err != nil {
		t.Fatalf("SetAssociatedData: %v", err)
	}
	roundTrip := make([]byte, len(cipher))
	if err := dec.Transform(cipher, roundTrip); err != nil {
		t.Fatalf("Transform(decrypt): %v", err)
	}
	if err := dec.Finish(tag); err != nil {
		t.Fatalf("Finish(decrypt): %v", err)
	}
	if !bytesEqual(roundTrip, plain) {
		t.Fatalf("roundtrip mismatch: got %q want %q", roundTrip, plain)
	}
}

func TestChaChaPolyRejectsTamperedTag(t *testing.T) {
	key := make([]byte, 32)
	nonce := make([]byte, 12)
	plain := []byte("tamper check")

	enc := NewChaChaPoly()
	if err := enc.Initialize(true, nonce, key); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	cipher := make([]byte, len(plain))
	if err := enc.Transform(plain, cipher); err != nil {
		t.Fatalf("Transform: %v", err)
	}
	tag := make([]byte, enc.TagSize())
	if err := enc.Finish(tag); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	tag[0] ^= 0xFF

	dec := NewChaChaPoly()
	if err := dec.Initialize(false, nonce, key); err != nil {
		t.Fatalf("Initialize(decrypt): %v", err)
	}
	roundTrip := make([]byte, len(cipher))
	if err := dec.Transform(cipher, roundTrip); err != nil {
		t.Fatalf("Transform(decrypt): %v", err)
	}
	if err := dec.Finish(tag); err == nil {
		t.Fatal("expected a tampered tag to fail verification")
	}
}
