package xmss

import "testing"

func TestGenerateFromSeedRejectsWrongSize(t *testing.T) {
	if _, err := GenerateFromSeed(H10, make([]byte, 31)); err == nil {
		t.Fatal("expected an error for a short seed")
	}
}

// A tiny custom height keeps the eagerly materialized tree small enough
// to exhaust within a test.
const testHeight Height = 3

func TestSignVerifyRoundTrip(t *testing.T) {
	seed := make([]byte, 32)
	for i := range seed {
		seed[i] = byte(i * 9)
	}
	sk, err := GenerateFromSeed(testHeight, seed)
	if err != nil {
		t.Fatalf("GenerateFromSeed: %v", err)
	}
	pk := sk.Public()
	message := []byte("WOTS+ chains commit to a Merkle-tree leaf")
	sig, err := sk.Sign(message)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if !pk.Verify(message, sig) {
		t.Fatal("Verify rejected a valid signature")
	}
}

func TestEachLeafUsedOnceAndIndexAdvances(t *testing.T) {
	sk, err := GenerateFromSeed(testHeight, make([]byte, 32))
	if err != nil {
		t.Fatalf("GenerateFromSeed: %v", err)
	}
	total := 1 << uint(testHeight)
	seen := make(map[int]bool, total)
	for i := 0; i < total; i++ {
		if sk.RemainingSignatures() != total-i {
			t.Fatalf("iteration %d: RemainingSignatures = %d, want %d", i, sk.RemainingSignatures(), total-i)
		}
		sig, err := sk.Sign([]byte("message"))
		if err != nil {
			t.Fatalf("iteration %d: Sign: %v", i, err)
		}
		if seen[sig.LeafIndex] {
			t.Fatalf("leaf index %d reused", sig.LeafIndex)
		}
		seen[sig.LeafIndex] = true
	}
	if sk.RemainingSignatures() != 0 {
		t.Fatalf("expected 0 remaining signatures, got %d", sk.RemainingSignatures())
	}
	if _, err := sk.Sign([]byte("one too many")); err == nil {
		t.Fatal("expected Sign to fail once every leaf is consumed")
	}
}

func TestVerifyRejectsTamperedMessage(t *testing.T) {
	sk, err := GenerateFromSeed(testHeight, make([]byte, 32))
	if err != nil {
		t.Fatalf("GenerateFromSeed: %v", err)
	}
	sig, err := sk.Sign([]byte("original"))
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if sk.Public().Verify([]byte("tampered"), sig) {
		t.Fatal("Verify accepted a signature over a different message")
	}
}

func TestVerifyRejectsNilSignature(t *testing.T) {
	sk, err := GenerateFromSeed(testHeight, make([]byte, 32))
	if err != nil {
		t.Fatalf("GenerateFromSeed: %v", err)
	}
	if sk.Public().Verify([]byte("msg"), nil) {
		t.Fatal("Verify accepted a nil signature")
	}
}

func TestExportRestoreState(t *testing.T) {
	sk, err := GenerateFromSeed(testHeight, make([]byte, 32))
	if err != nil {
		t.Fatalf("GenerateFromSeed: %v", err)
	}
	if _, err := sk.Sign([]byte("a")); err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if _, err := sk.Sign([]byte("b")); err != nil {
		t.Fatalf("Sign: %v", err)
	}
	state := sk.ExportState()
	if state != 2 {
		t.Fatalf("ExportState = %d, want 2", state)
	}

	fresh, err := GenerateFromSeed(testHeight, make([]byte, 32))
	if err != nil {
		t.Fatalf("GenerateFromSeed: %v", err)
	}
	if err := fresh.RestoreState(state); err != nil {
		t.Fatalf("RestoreState: %v", err)
	}
	sig, err := fresh.Sign([]byte("c"))
	if err != nil {
		t.Fatalf("Sign after restore: %v", err)
	}
	if sig.LeafIndex != 2 {
		t.Fatalf("expected restored key to consume leaf 2 next, got %d", sig.LeafIndex)
	}
}

func TestRestoreStateRejectsOutOfRangeIndex(t *testing.T) {
	sk, err := GenerateFromSeed(testHeight, make([]byte, 32))
	if err != nil {
		t.Fatalf("GenerateFromSeed: %v", err)
	}
	if err := sk.RestoreState(-1); err == nil {
		t.Fatal("expected an error for a negative index")
	}
	if err := sk.RestoreState(1 << uint(testHeight+1)); err == nil {
		t.Fatal("expected an error for an index beyond the tree")
	}
}
