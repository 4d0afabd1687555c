//go:build unix

// Package bootstrap hands regionvm.New a page-aligned, anonymously backed
// slab to carve its managed region out of. regionvm itself never calls
// into the operating system; something has to own the one real mmap
// call that gives it memory to work with, and this package is that
// something.
package bootstrap

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Slab is a page-aligned block of anonymous memory suitable for passing
// to regionvm.New. Release must be called exactly once when the slab is
// no longer needed.
type Slab struct {
	Bytes []byte
}

// New reserves size bytes of anonymous, private memory via mmap, rounded
// up to a whole number of pages. The returned slab's first byte is
// guaranteed page-aligned, as regionvm.New requires.
func New(size int) (*Slab, error) {
	if size <= 0 {
		return nil, fmt.Errorf("bootstrap: size must be positive")
	}

	pageSize := unix.Getpagesize()
	size = roundUp(size, pageSize)

	data, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: mmap: %w", err)
	}

	return &Slab{Bytes: data}, nil
}

// Release unmaps the slab. The Slab must not be used afterward.
func (s *Slab) Release() error {
	if s.Bytes == nil {
		return nil
	}
	err := unix.Munmap(s.Bytes)
	s.Bytes = nil
	if err != nil {
		return fmt.Errorf("bootstrap: munmap: %w", err)
	}
	return nil
}

func roundUp(n, pageSize int) int {
	if n%pageSize == 0 {
		return n
	}
	return (n/pageSize + 1) * pageSize
}
