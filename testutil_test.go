package regionvm

import (
	"testing"
	"unsafe"
)

// newAlignedRegion returns a page-aligned slice of n bytes, usable
// directly with New. make([]byte, n) does not guarantee alignment on
// its own, so this over-allocates and slices to the next page boundary,
// the same trick regionvm/bootstrap's non-unix fallback uses.
func newAlignedRegion(t *testing.T, n int, pageSize uintptr) []byte {
	t.Helper()
	raw := make([]byte, n+int(pageSize))
	base := uintptr(unsafe.Pointer(&raw[0]))
	aligned := roundUpPage(base, pageSize)
	offset := aligned - base
	return raw[offset : offset+uintptr(n)]
}

func newTestManager(t *testing.T, opts ...Option) *Manager {
	t.Helper()
	region := newAlignedRegion(t, 64*4096, DefaultPageSize)
	m, err := New(region, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return m
}

func countVADs(m *Manager) int {
	n := 0
	for v := m.vadList; v != nil; v = v.next {
		n++
	}
	return n
}

func isSorted(m *Manager) bool {
	prev := (*vad)(nil)
	for v := m.vadList; v != nil; v = v.next {
		if prev != nil && v.addr <= prev.addr {
			return false
		}
		prev = v
	}
	return true
}

func isFlush(m *Manager) bool {
	prev := (*vad)(nil)
	for v := m.vadList; v != nil; v = v.next {
		if prev != nil && v.addr == prev.end() {
			return false
		}
		prev = v
	}
	return true
}
