package block

import (
	"encoding/hex"
	"testing"

	"github.com/qrcs-corp/cexcore/primitives/hkdf"
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

func hashIDForTest() hkdf.HashID { return hkdf.HashSHA256 }
