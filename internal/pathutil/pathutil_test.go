package pathutil

import "testing"

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"":          "",
		"/":         "",
		"a":         "/a",
		"/a/":       "/a",
		"/a/./b":    "/a/b",
		"/a/../b":   "/b",
		"/a//b":     "/a/b",
		"a/b/c":     "/a/b/c",
	}
	for in, want := range cases {
		if got := Normalize(in); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSplitJoin(t *testing.T) {
	parts := Split("/a/b/c")
	want := []string{"a", "b", "c"}
	if len(parts) != len(want) {
		t.Fatalf("Split = %v, want %v", parts, want)
	}
	for i := range want {
		if parts[i] != want[i] {
			t.Fatalf("Split = %v, want %v", parts, want)
		}
	}
	if Join("a", "b", "c") != "/a/b/c" {
		t.Errorf("Join mismatch: %q", Join("a", "b", "c"))
	}
	if Split("") != nil {
		t.Errorf("Split(\"\") should be nil")
	}
}

func TestParentName(t *testing.T) {
	if Parent("/a/b") != "/a" {
		t.Errorf("Parent(/a/b) = %q", Parent("/a/b"))
	}
	if Parent("/a") != "" {
		t.Errorf("Parent(/a) = %q, want root", Parent("/a"))
	}
	if Parent("") != "" {
		t.Errorf("Parent(\"\") should stay root")
	}
	if Name("/a/b/c") != "c" {
		t.Errorf("Name mismatch: %q", Name("/a/b/c"))
	}
}

func TestValidateName(t *testing.T) {
	if err := ValidateName(""); err == nil {
		t.Error("empty name should be rejected")
	}
	if err := ValidateName("a/b"); err == nil {
		t.Error("name with slash should be rejected")
	}
	long := make([]byte, MaxNameLen+1)
	for i := range long {
		long[i] = 'x'
	}
	if err := ValidateName(string(long)); err == nil {
		t.Error("overlong name should be rejected")
	}
	if err := ValidateName("ok"); err != nil {
		t.Errorf("valid name rejected: %v", err)
	}
}

func TestIsPrefix(t *testing.T) {
	if !IsPrefix("", "/a") {
		t.Error("root is a prefix of everything")
	}
	if !IsPrefix("/a", "/a") {
		t.Error("a path is a prefix of itself")
	}
	if !IsPrefix("/a", "/a/b") {
		t.Error("/a should prefix /a/b")
	}
	if IsPrefix("/ab", "/abc") {
		t.Error("/ab should not prefix /abc (not a component prefix)")
	}
}
