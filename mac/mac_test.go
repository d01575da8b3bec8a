package mac

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

func initRijndael(t *testing.T, key []byte) block.BlockCipher {
	t.Helper()
	c := block.NewRijndael()
	if err := c.Initialize(true, block.Key{Key: key}); err != nil {
		t.Fatalf("cipher Initialize: %v", err)
	}
	return c
}

// NIST SP 800-38B Appendix D.1, AES-128 CMAC, empty message.
func TestCMACEmptyMessageKAT(t *testing.T) {
	key := mustHex(t, "2b7e151628aed2a6abf7158809cf4f3c")
	wantTag := mustHex(t, "bb1d6929e95937287fa37d129b756746")

	m, err := NewCMAC(initRijndael(t, key))
	if err != nil {
		t.Fatalf("NewCMAC: %v", err)
	}
	tag := make([]byte, m.TagSize())
	if err := m.Finalize(tag); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if !bytesEqual(tag, wantTag) {
		t.Fatalf("tag mismatch: got %x want %x", tag, wantTag)
	}
}

// NIST SP 800-38B Appendix D.1, AES-128 CMAC, 16-byte message.
func TestCMACOneBlockKAT(t *testing.T) {
	key := mustHex(t, "2b7e151628aed2a6abf7158809cf4f3c")
	msg := mustHex(t, "6bc1bee22e409f96e93d7e117393172a")
	wantTag := mustHex(t, "070a16b46b4d4144f79bdd9dd04a287c")

	m, err := NewCMAC(initRijndael(t, key))
	if err != nil {
		t.Fatalf("NewCMAC: %v", err)
	}
	if err := m.Update(msg); err != nil {
		t.Fatalf("Update: %v", err)
	}
	tag := make([]byte, m.TagSize())
	if err := m.Finalize(tag); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if !bytesEqual(tag, wantTag) {
		t.Fatalf("tag mismatch: got %x want %x", tag, wantTag)
	}
}

func TestCMACUpdateChunkingIsEquivalentToOneShot(t *testing.T) {
	key := mustHex(t, "000102030405060708090a0b0c0d0e0f")
	msg := make([]byte, 50)
	for i := range msg {
		msg[i] = byte(i)
	}

	oneShot, err := NewCMAC(initRijndael(t, key))
	if err != nil {
		t.Fatalf("NewCMAC: %v", err)
	}
	if err := oneShot.Update(msg); err != nil {
		t.Fatalf("Update: %v", err)
	}
	tag1 := make([]byte, oneShot.TagSize())
	if err := oneShot.Finalize(tag1); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	chunked, err := NewCMAC(initRijndael(t, key))
	if err != nil {
		t.Fatalf("NewCMAC: %v", err)
	}
	for _, chunk := range [][]byte{msg[:7], msg[7:20], msg[20:]} {
		if err := chunked.Update(chunk); err != nil {
			t.Fatalf("Update(chunk): %v", err)
		}
	}
	tag2 := make([]byte, chunked.TagSize())
	if err := chunked.Finalize(tag2); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if !bytesEqual(tag1, tag2) {
		t.Fatalf("chunked tag %x differs from one-shot tag %x", tag2, tag1)
	}
}

// NIST GCM Test Case 1: all-zero AES-128 key, 96-bit zero nonce, empty
// plaintext and AAD. GMAC with no Update calls computes exactly this tag.
func TestGMACEmptyMessageKAT(t *testing.T) {
	key := make([]byte, 16)
	nonce := make([]byte, 12)
	wantTag := mustHex(t, "58e2fccefa7e3061367f1d57a4e7455a")

	m, err := NewGMAC(initRijndael(t, key), nonce)
	if err != nil {
		t.Fatalf("NewGMAC: %v", err)
	}
	tag := make([]byte, m.TagSize())
	if err := m.Finalize(tag); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if !bytesEqual(tag, wantTag) {
		t.Fatalf("tag mismatch: got %x want %x", tag, wantTag)
	}
}

func TestGMACRejectsEmptyNonce(t *testing.T) {
	key := make([]byte, 16)
	if _, err := NewGMAC(initRijndael(t, key), nil); err == nil {
		t.Fatal("expected an error for an empty nonce")
	}
}

func TestGMACDeterministicAcrossChunking(t *testing.T) {
	key := mustHex(t, "000102030405060708090a0b0c0d0e0f")
	nonce := mustHex(t, "000000000000000000000000")
	data := make([]byte, 40)
	for i := range data {
		data[i] = byte(i * 2)
	}

	oneShot, err := NewGMAC(initRijndael(t, key), nonce)
	if err != nil {
		t.Fatalf("NewGMAC: %v", err)
	}
	if err := oneShot.Update(data); err != nil {
		t.Fatalf("Update: %v", err)
	}
	tag1 := make([]byte, oneShot.TagSize())
	if err := oneShot.Finalize(tag1); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	chunked, err := NewGMAC(initRijndael(t, key), nonce)
	if err != nil {
		t.Fatalf("NewGMAC: %v", err)
	}
	for _, chunk := range [][]byte{data[:5], data[5:16], data[16:]} {
		if err := chunked.Update(chunk); err != nil {
			t.Fatalf("Update(chunk): %v", err)
		}
	}
	tag2 := make([]byte, chunked.TagSize())
	if err := chunked.Finalize(tag2); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if !bytesEqual(tag1, tag2) {
		t.Fatalf("chunked tag %x differs from one-shot tag %x", tag2, tag1)
	}
}
