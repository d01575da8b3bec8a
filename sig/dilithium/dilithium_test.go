package dilithium

import "testing"

func TestGenerateFromSeedRejectsWrongSize(t *testing.T) {
	if _, err := GenerateFromSeed(DLTMS1P2544, make([]byte, 31)); err == nil {
		t.Fatal("expected an error for a short seed")
	}
}

func signVerifyRoundTrip(t *testing.T, set ParameterSet, seedByte byte) {
	t.Helper()
	seed := make([]byte, 32)
	for i := range seed {
		seed[i] = seedByte + byte(i)
	}
	sk, err := GenerateFromSeed(set, seed)
	if err != nil {
		t.Fatalf("%s: GenerateFromSeed: %v", set.Name, err)
	}
	message := []byte("dilithium-shaped lattice signatures over SHAKE-derived matrices")
	sig, err := sk.Sign(message)
	if err != nil {
		t.Fatalf("%s: Sign: %v", set.Name, err)
	}
	if len(sig) != sk.SignatureSize() {
		t.Fatalf("%s: unexpected signature size: got %d want %d", set.Name, len(sig), sk.SignatureSize())
	}
	pk := sk.Public()
	if !pk.Verify(set, message, sig) {
		t.Fatalf("%s: Verify rejected a valid signature", set.Name)
	}
}

func TestSignVerifyRoundTripAllParameterSets(t *testing.T) {
	for i, set := range []ParameterSet{DLTMS1P2544, DLTMS3P4016, DLTMS5P4880} {
		signVerifyRoundTrip(t, set, byte(i*17))
	}
}

func TestVerifyRejectsTamperedMessage(t *testing.T) {
	sk, err := GenerateFromSeed(DLTMS1P2544, make([]byte, 32))
	if err != nil {
		t.Fatalf("GenerateFromSeed: %v", err)
	}
	sig, err := sk.Sign([]byte("original"))
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if sk.Public().Verify(DLTMS1P2544, []byte("tampered"), sig) {
		t.Fatal("Verify accepted a signature over a different message")
	}
}

func TestVerifyRejectsWrongLengthSignature(t *testing.T) {
	sk, err := GenerateFromSeed(DLTMS1P2544, make([]byte, 32))
	if err != nil {
		t.Fatalf("GenerateFromSeed: %v", err)
	}
	if sk.Public().Verify(DLTMS1P2544, []byte("msg"), []byte{1, 2, 3}) {
		t.Fatal("Verify accepted a malformed signature")
	}
}

func TestBytesFromBytesRoundTrip(t *testing.T) {
	seed := make([]byte, 32)
	for i := range seed {
		seed[i] = byte(i * 5)
	}
	sk, err := GenerateFromSeed(DLTMS3P4016, seed)
	if err != nil {
		t.Fatalf("GenerateFromSeed: %v", err)
	}
	restored, err := FromBytes(DLTMS3P4016, sk.Bytes())
	if err != nil {
		t.Fatalf("FromBytes: %v", err)
	}
	message := []byte("restored key signs under the same public key")
	sig, err := restored.Sign(message)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if !sk.Public().Verify(DLTMS3P4016, message, sig) {
		t.Fatal("signature from restored key did not verify under original public key")
	}
}
