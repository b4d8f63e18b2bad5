package lrucache

import "testing"

func TestGroupIDAllocatorAdvancesPastStoredMax(t *testing.T) {
	a := NewGroupIDAllocator(4)
	if got := a.Next(1, 5); got != 6 {
		t.Fatalf("Next = %d, want 6", got)
	}
	if got := a.Next(1, 5); got != 7 {
		t.Fatalf("second Next = %d, want 7 (cache should advance past its own last hand-out)", got)
	}
}

func TestGroupIDAllocatorRespectsHigherStoredMax(t *testing.T) {
	a := NewGroupIDAllocator(4)
	a.Next(1, 5)
	if got := a.Next(1, 10); got != 11 {
		t.Fatalf("Next = %d, want 11 when storage reports a higher max than cached", got)
	}
}

func TestGroupIDAllocatorInvalidate(t *testing.T) {
	a := NewGroupIDAllocator(4)
	a.Next(1, 5)
	a.Invalidate(1)
	if got := a.Next(1, 2); got != 3 {
		t.Fatalf("Next after Invalidate = %d, want 3 (fresh stored max)", got)
	}
}
