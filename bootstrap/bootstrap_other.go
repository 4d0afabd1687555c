//go:build !unix

package bootstrap

import (
	"fmt"
	"unsafe"
)

// Slab is a page-aligned block of memory suitable for passing to
// regionvm.New. Release must be called exactly once when the slab is
// no longer needed.
type Slab struct {
	Bytes []byte
	raw   []byte
}

const assumedPageSize = 4096

// New allocates size bytes of page-aligned memory, rounded up to a
// whole number of pages. Platforms without mmap get an over-allocated
// heap buffer trimmed to the next page boundary instead of a real
// anonymous mapping; regionvm.New only needs the alignment and size
// guarantees, not the mapping itself.
func New(size int) (*Slab, error) {
	if size <= 0 {
		return nil, fmt.Errorf("bootstrap: size must be positive")
	}

	size = roundUp(size, assumedPageSize)
	raw := make([]byte, size+assumedPageSize)

	base := uintptr(unsafe.Pointer(&raw[0]))
	aligned := roundUpPtr(base, assumedPageSize)
	offset := aligned - base

	return &Slab{Bytes: raw[offset : offset+uintptr(size)], raw: raw}, nil
}

// Release drops the slab's reference to its backing array.
func (s *Slab) Release() error {
	s.Bytes = nil
	s.raw = nil
	return nil
}

func roundUp(n, pageSize int) int {
	if n%pageSize == 0 {
		return n
	}
	return (n/pageSize + 1) * pageSize
}

func roundUpPtr(n uintptr, pageSize uintptr) uintptr {
	if n%pageSize == 0 {
		return n
	}
	return (n/pageSize + 1) * pageSize
}
