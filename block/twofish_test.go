package block

import "testing"

func TestTwofishRoundTrip(t *testing.T) {
	for _, keySize := range []int{16, 24, 32} {
		key := make([]byte, keySize)
		for i := range key {
			key[i] = byte(i*5 + 2)
		}
		plain := make([]byte, BlockSize)
		for i := range plain {
			plain[i] = byte(200 - i)
		}

		enc := NewTwofish()
		if err := enc.Initialize(true, Key{Key: key}); err != nil {
			t.Fatalf("keySize=%d Initialize: %v", keySize, err)
		}
		cipher := make([]byte, BlockSize)
		if err := enc.EncryptBlock(plain, cipher); err != nil {
			t.Fatalf("keySize=%d EncryptBlock: %v", keySize, err)
		}

		dec := NewTwofish()
		if err := dec.Initialize(false, Key{Key: key}); err != nil {
			t.Fatalf("keySize=%d Initialize(decrypt): %v", keySize, err)
		}
		roundTrip := make([]byte, BlockSize)
		if err := dec.DecryptBlock(cipher, roundTrip); err != nil {
			t.Fatalf("keySize=%d DecryptBlock: %v", keySize, err)
		}
		if !bytesEqual(roundTrip, plain) {
			t.Fatalf("keySize=%d: roundtrip mismatch: got %x want %x", keySize, roundTrip, plain)
		}
	}
}

func TestTwofishHXRoundTrip(t *testing.T) {
	for _, rounds := range []int{16, 32} {
		hx, err := NewTwofishHX(rounds, hashIDForTest())
		if err != nil {
			t.Fatalf("rounds=%d NewTwofishHX: %v", rounds, err)
		}
		key := make([]byte, 64)
		for i := range key {
			key[i] = byte(i)
		}
		if err := hx.Initialize(true, Key{Key: key}); err != nil {
			t.Fatalf("rounds=%d Initialize: %v", rounds, err)
		}
		plain := make([]byte, BlockSize)
		for i := range plain {
			plain[i] = byte(i * 13)
		}
		cipher := make([]byte, BlockSize)
		if err := hx.EncryptBlock(plain, cipher); err != nil {
			t.Fatalf("rounds=%d EncryptBlock: %v", rounds, err)
		}

		hx2, _ := NewTwofishHX(rounds, hashIDForTest())
		if err := hx2.Initialize(false, Key{Key: key}); err != nil {
			t.Fatalf("rounds=%d Initialize(decrypt): %v", rounds, err)
		}
		roundTrip := make([]byte, BlockSize)
		if err := hx2.DecryptBlock(cipher, roundTrip); err != nil {
			t.Fatalf("rounds=%d DecryptBlock: %v", rounds, err)
		}
		if !bytesEqual(roundTrip, plain) {
			t.Fatalf("rounds=%d: roundtrip mismatch: got %x want %x", rounds, roundTrip, plain)
		}
	}
}

func TestTwofishRejectsIllegalHXKeySize(t *testing.T) {
	hx, err := NewTwofishHX(16, hashIDForTest())
	if err != nil {
		t.Fatalf("NewTwofishHX: %v", err)
	}
	if err := hx.Initialize(true, Key{Key: make([]byte, 40)}); err == nil {
		t.Fatal("expected an error for an illegal HX key size")
	}
}
