package store

import "testing"

func TestContentDigest(t *testing.T) {
	a := contentDigest([]byte("%PDF-1.7 one"))
	b := contentDigest([]byte("%PDF-1.7 one"))
	c := contentDigest([]byte("%PDF-1.7 two"))

	if a != b {
		t.Error("digest must be deterministic")
	}
	if a == c {
		t.Error("different content must produce different digests")
	}
	if len(a) != 64 {
		t.Errorf("expected a 256-bit hex digest, got %d characters", len(a))
	}
}

func TestContentDigestEmpty(t *testing.T) {
	if contentDigest(nil) != contentDigest([]byte{}) {
		t.Error("nil and empty content must digest identically")
	}
}
