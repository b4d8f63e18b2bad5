package chash

import "testing"

func TestSumPathZero(t *testing.T) {
	root := SumPath("")
	if !root.IsZero() {
		t.Errorf("SumPath(\"\") should be the zero key, got %s", root)
	}
}

func TestSumPathStable(t *testing.T) {
	a := SumPath("/a/b")
	b := SumPath("/a/b")
	if a != b {
		t.Errorf("SumPath should be deterministic: %v != %v", a, b)
	}
	c := SumPath("/a/c")
	if a == c {
		t.Errorf("different paths should hash differently")
	}
}

func TestSumSHA1RoundTrip(t *testing.T) {
	h := SumSHA1([]byte("hello"))
	if h.IsZero() {
		t.Error("non-empty content should not hash to zero")
	}
	parsed, err := FromHex(SHA1, h.Hex())
	if err != nil {
		t.Fatalf("FromHex: %v", err)
	}
	if parsed.Hex() != h.Hex() {
		t.Errorf("round trip mismatch: %s != %s", parsed.Hex(), h.Hex())
	}
}

func TestZeroDigestIsZero(t *testing.T) {
	var z Any
	if !z.IsZero() {
		t.Error("zero-value Any should report IsZero")
	}
}

func TestSumBLAKE3(t *testing.T) {
	h := SumBLAKE3([]byte("hello"))
	if h.Algorithm() != BLAKE3 {
		t.Errorf("wrong algorithm: %v", h.Algorithm())
	}
	if len(h.Bytes()) != 32 {
		t.Errorf("blake3 digest should be 32 bytes, got %d", len(h.Bytes()))
	}
}
