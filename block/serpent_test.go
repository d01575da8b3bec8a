package block

import "testing"

func TestSerpentRoundTrip(t *testing.T) {
	for _, keySize := range []int{16, 24, 32} {
		key := make([]byte, keySize)
		for i := range key {
			key[i] = byte(i*3 + 1)
		}
		plain := make([]byte, BlockSize)
		for i := range plain {
			plain[i] = byte(i * 11)
		}

		enc := NewSerpent()
		if err := enc.Initialize(true, Key{Key: key}); err != nil {
			t.Fatalf("keySize=%d Initialize: %v", keySize, err)
		}
		cipher := make([]byte, BlockSize)
		if err := enc.EncryptBlock(plain, cipher); err != nil {
			t.Fatalf("keySize=%d EncryptBlock: %v", keySize, err)
		}
		if bytesEqual(cipher, plain) {
			t.Fatalf("keySize=%d: ciphertext equals plaintext", keySize)
		}

		dec := NewSerpent()
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

func TestSerpentHXRoundTrip(t *testing.T) {
	hx, err := NewSerpentHX(40, hashIDForTest())
	if err != nil {
		t.Fatalf("NewSerpentHX: %v", err)
	}
	key := make([]byte, 64)
	for i := range key {
		key[i] = byte(255 - i)
	}
	if err := hx.Initialize(true, Key{Key: key}); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	plain := make([]byte, BlockSize)
	cipher := make([]byte, BlockSize)
	if err := hx.EncryptBlock(plain, cipher); err != nil {
		t.Fatalf("EncryptBlock: %v", err)
	}

	hx2, _ := NewSerpentHX(40, hashIDForTest())
	if err := hx2.Initialize(false, Key{Key: key}); err != nil {
		t.Fatalf("Initialize(decrypt): %v", err)
	}
	roundTrip := make([]byte, BlockSize)
	if err := hx2.DecryptBlock(cipher, roundTrip); err != nil {
		t.Fatalf("DecryptBlock: %v", err)
	}
	if !bytesEqual(roundTrip, plain) {
		t.Fatalf("roundtrip mismatch: got %x want %x", roundTrip, plain)
	}
}

func TestSerpentTransformBlocks(t *testing.T) {
	key := make([]byte, 32)
	c := NewSerpent()
	if err := c.Initialize(true, Key{Key: key}); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	plain := make([]byte, BlockSize*4)
	for i := range plain {
		plain[i] = byte(i)
	}
	cipher := make([]byte, BlockSize*4)
	if err := c.TransformBlocks(plain, cipher); err != nil {
		t.Fatalf("TransformBlocks: %v", err)
	}
	single := make([]byte, BlockSize)
	if err := c.EncryptBlock(plain[:BlockSize], single); err != nil {
		t.Fatalf("EncryptBlock: %v", err)
	}
	if !bytesEqual(single, cipher[:BlockSize]) {
		t.Fatal("TransformBlocks first block disagrees with EncryptBlock")
	}
}
