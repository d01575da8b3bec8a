package key

import (
	"bytes"
	"testing"

	"github.com/google/uuid"
)

func TestSerializeDeserializeRoundTrip(t *testing.T) {
	pair := NewKeyPair(PrimitiveDilithium, 2, []byte("public-polynomial-bytes"), []byte("private-polynomial-bytes-longer"))

	data := pair.Private.Serialize()
	got, err := DeserializeKey(data)
	if err != nil {
		t.Fatalf("DeserializeKey: %v", err)
	}
	if got.Primitive != PrimitiveDilithium {
		t.Fatalf("Primitive mismatch: got %v", got.Primitive)
	}
	if got.Class != ClassPrivate {
		t.Fatalf("Class mismatch: got %v", got.Class)
	}
	if got.Parameter != 2 {
		t.Fatalf("Parameter mismatch: got %v", got.Parameter)
	}
	if got.Tag != pair.Private.Tag {
		t.Fatalf("Tag mismatch: got %v want %v", got.Tag, pair.Private.Tag)
	}
	if !bytes.Equal(got.Polynomial, pair.Private.Polynomial) {
		t.Fatalf("Polynomial mismatch: got %q want %q", got.Polynomial, pair.Private.Polynomial)
	}
}

func TestDeserializeRejectsZeroPrimitive(t *testing.T) {
	k := &AsymmetricKey{Primitive: PrimitiveNone, Class: ClassPublic, Tag: uuid.New(), Polynomial: []byte("x")}
	if _, err := DeserializeKey(k.Serialize()); err == nil {
		t.Fatal("expected an error for a zero Primitive")
	}
}

func TestDeserializeRejectsZeroClass(t *testing.T) {
	k := &AsymmetricKey{Primitive: PrimitiveEdwards, Class: ClassNone, Tag: uuid.New(), Polynomial: []byte("x")}
	if _, err := DeserializeKey(k.Serialize()); err == nil {
		t.Fatal("expected an error for a zero Class")
	}
}

func TestDeserializeRejectsTruncatedHeader(t *testing.T) {
	if _, err := DeserializeKey(make([]byte, 10)); err == nil {
		t.Fatal("expected an error for a buffer shorter than the fixed header")
	}
}

func TestDeserializeRejectsOverrunningLength(t *testing.T) {
	k := &AsymmetricKey{Primitive: PrimitiveXMSS, Class: ClassPublic, Tag: uuid.New(), Polynomial: []byte("0123456789")}
	data := k.Serialize()
	// Truncate the payload so the embedded length field overruns the buffer.
	truncated := data[:len(data)-3]
	if _, err := DeserializeKey(truncated); err == nil {
		t.Fatal("expected an error when the length field overruns the supplied buffer")
	}
}

func TestNewKeyPairSharesOneTag(t *testing.T) {
	pair := NewKeyPair(PrimitiveRainbow, 1, []byte("pub"), []byte("priv"))
	if pair.Public.Tag != pair.Private.Tag {
		t.Fatal("expected public and private halves to share one tag")
	}
	if pair.Public.Class != ClassPublic || pair.Private.Class != ClassPrivate {
		t.Fatal("unexpected class assignment")
	}
}

func TestZeroizeClearsPrivatePolynomial(t *testing.T) {
	pair := NewKeyPair(PrimitiveXMSSMT, 0, []byte("pub"), []byte{1, 2, 3, 4, 5})
	pair.Zeroize()
	for _, b := range pair.Private.Polynomial {
		if b != 0 {
			t.Fatal("expected Zeroize to clear the private polynomial")
		}
	}
}

func TestExportImportPrivateRoundTripArgon2id(t *testing.T) {
	pair := NewKeyPair(PrimitiveDilithium, 3, []byte("pub"), []byte("a reasonably long private polynomial payload"))
	password := []byte("correct horse battery staple")

	exported, err := ExportPrivate(pair.Private, password, KDFArgon2id)
	if err != nil {
		t.Fatalf("ExportPrivate: %v", err)
	}
	imported, err := ImportPrivate(exported, password)
	if err != nil {
		t.Fatalf("ImportPrivate: %v", err)
	}
	if imported.Primitive != pair.Private.Primitive || imported.Class != pair.Private.Class {
		t.Fatal("imported key metadata mismatch")
	}
	if !bytes.Equal(imported.Polynomial, pair.Private.Polynomial) {
		t.Fatalf("imported polynomial mismatch: got %q want %q", imported.Polynomial, pair.Private.Polynomial)
	}
}

func TestExportImportPrivateRoundTripPBKDF2(t *testing.T) {
	pair := NewKeyPair(PrimitiveEdwards, 0, []byte("pub"), []byte("another private polynomial payload"))
	password := []byte("hunter2")

	exported, err := ExportPrivate(pair.Private, password, KDFPBKDF2SHA3)
	if err != nil {
		t.Fatalf("ExportPrivate: %v", err)
	}
	imported, err := ImportPrivate(exported, password)
	if err != nil {
		t.Fatalf("ImportPrivate: %v", err)
	}
	if !bytes.Equal(imported.Polynomial, pair.Private.Polynomial) {
		t.Fatalf("imported polynomial mismatch: got %q want %q", imported.Polynomial, pair.Private.Polynomial)
	}
}

func TestExportPrivateRejectsPublicKey(t *testing.T) {
	pair := NewKeyPair(PrimitiveDilithium, 2, []byte("pub"), []byte("priv"))
	if _, err := ExportPrivate(pair.Public, []byte("pw"), KDFArgon2id); err == nil {
		t.Fatal("expected an error when exporting a public key")
	}
}

// A wrong password derives a different wrap key, so the decrypted bytes are
// effectively random; DeserializeKey rejects them with overwhelming
// probability (zero Primitive/Class, or a garbage length field that
// overruns the buffer).
func TestImportPrivateRejectsWrongPassword(t *testing.T) {
	pair := NewKeyPair(PrimitiveDilithium, 2, []byte("pub"), []byte("a longer private polynomial to make garbage decodes fail reliably"))
	exported, err := ExportPrivate(pair.Private, []byte("correct password"), KDFArgon2id)
	if err != nil {
		t.Fatalf("ExportPrivate: %v", err)
	}
	if _, err := ImportPrivate(exported, []byte("wrong password")); err == nil {
		t.Fatal("expected ImportPrivate to fail under a wrong password")
	}
}
