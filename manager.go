// Package regionvm implements a flat-region virtual-memory manager: it
// partitions a single contiguous, page-aligned byte slab into four
// sub-regions (a descriptor table, a monotonic BREAK region, an
// UNASSIGNED middle, and a descriptor-tracked MAPPED region) and
// services sbrk/brk/map/unmap/remap against them without ever calling
// into the operating system itself.
//
// It is designed for callers that own a fixed slab of memory up front —
// see the regionvm/bootstrap package — and need to sub-allocate inside
// it the way a general-purpose malloc/free implementation would.
package regionvm

import (
	"sync"
	"unsafe"

	"github.com/sirupsen/logrus"
)

// Manager owns one contiguous memory region for its lifetime and
// services allocation primitives against it. The zero value is not
// usable; construct with New.
type Manager struct {
	mu sync.Mutex

	base, start, brk, mapTop, end uintptr
	size                          uintptr
	pageSize                      uintptr

	slab []byte // keeps the backing array alive; base == &slab[0]

	vadPool    []vad
	nextVadIdx int
	vadList    *vad
	freeVads   *vad

	sanity      bool
	scrub       bool
	initialized bool
	magicVal    uint64
	lastErr     string

	coverage [coverageCount]bool

	logger *logrus.Logger
}

// Option configures a Manager at construction time.
type Option func(*Manager)

// WithPageSize overrides DefaultPageSize. Must be a power of two; New
// returns ErrInvalidParameter if it is not consistent with region's
// length and starting address.
func WithPageSize(pageSize uintptr) Option {
	return func(m *Manager) { m.pageSize = pageSize }
}

// WithSanity enables full invariant verification at the entry and exit
// of every mutating operation. Costly; intended for tests and debugging.
func WithSanity(enabled bool) Option {
	return func(m *Manager) { m.sanity = enabled }
}

// WithScrub enables overwriting released bytes with 0xDD on Unmap and
// on the shrinking path of Remap, to aid debugging use-after-free bugs.
func WithScrub(enabled bool) Option {
	return func(m *Manager) { m.scrub = enabled }
}

// WithLogger attaches a logrus.Logger that receives Debug-level entries
// describing every mutating operation. Nil (the default) means silent.
func WithLogger(logger *logrus.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// New partitions region into the four sub-regions described in
// spec.md §2 and returns a ready-to-use Manager. region's first byte
// becomes the manager's base address and must be page-aligned; len(region)
// becomes size and must be a whole number of pages. The regionvm/bootstrap
// package produces slabs that satisfy both constraints.
//
// This is the Go-idiomatic equivalent of the reference's
// oe_mman_init(mgr, base, size): region supplies both the address and
// the size in one value instead of two.
func New(region []byte, opts ...Option) (*Manager, error) {
	m := &Manager{pageSize: DefaultPageSize}
	for _, opt := range opts {
		opt(m)
	}

	if len(region) == 0 {
		return nil, m.fail(ErrInvalidParameter, "region must be non-empty")
	}

	base := uintptr(unsafe.Pointer(&region[0]))
	size := uintptr(len(region))

	if base%m.pageSize != 0 {
		return nil, m.fail(ErrInvalidParameter, "base is not page-aligned")
	}
	if size%m.pageSize != 0 {
		return nil, m.fail(ErrInvalidParameter, "size is not a whole number of pages")
	}

	numPages := size / m.pageSize
	descriptorBytes := numPages * unsafe.Sizeof(vad{})

	m.slab = region
	m.base = base
	m.size = size
	m.end = base + size
	m.start = roundUpPage(base+descriptorBytes, m.pageSize)
	if m.start >= m.end {
		return nil, m.fail(ErrInvalidParameter, "region too small to hold its descriptor table")
	}
	m.brk = m.start
	m.mapTop = m.end
	m.vadPool = make([]vad, numPages)
	m.nextVadIdx = 0
	m.vadList = nil
	m.freeVads = nil
	m.magicVal = magic
	m.initialized = true

	if !m.isSaneLocked() {
		return nil, m.fail(ErrUnexpected, "initial state failed sanity check")
	}

	m.mark(CoverageInitSuccess)
	m.logOp("init", logrus.Fields{"base": m.base, "size": m.size, "start": m.start})
	return m, nil
}

func (m *Manager) logOp(op string, fields logrus.Fields) {
	if m.logger == nil {
		return
	}
	m.logger.WithFields(fields).Debugf("regionvm: %s", op)
}

// checkSane runs the sanity check only when WithSanity(true) was given,
// matching the reference's _mman_is_sane helper which is a no-op unless
// mman->sanity is set.
func (m *Manager) checkSane() bool {
	if !m.sanity {
		return true
	}
	return m.isSaneLocked()
}

// zeroFill writes length zero bytes starting at addr. addr/length must
// already be validated to lie within the managed region.
func (m *Manager) zeroFill(addr, length uintptr) {
	b := unsafe.Slice((*byte)(unsafe.Pointer(addr)), int(length))
	clear(b)
}

// scrubFill overwrites length bytes starting at addr with 0xDD, when
// scrubbing is enabled.
func (m *Manager) scrubFill(addr, length uintptr) {
	if !m.scrub || length == 0 {
		return
	}
	b := unsafe.Slice((*byte)(unsafe.Pointer(addr)), int(length))
	for i := range b {
		b[i] = 0xDD
	}
}

// unsafeSliceAt views length bytes starting at addr as a []byte, for
// copying data between two regions of the same backing slab (Remap's
// grow-by-moving path).
func unsafeSliceAt(addr, length uintptr) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(addr)), int(length))
}

// SetSanity toggles full invariant verification at the entry and exit of
// every mutating operation.
func (m *Manager) SetSanity(enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sanity = enabled
}

// SetScrub toggles 0xDD scrubbing of released bytes.
func (m *Manager) SetScrub(enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scrub = enabled
}

// PageSize returns the page size this Manager was constructed with.
func (m *Manager) PageSize() uintptr { return m.pageSize }

// Base returns the first address of the managed region.
func (m *Manager) Base() uintptr { return m.base }

// End returns the address one past the end of the managed region.
func (m *Manager) End() uintptr { return m.end }

// Brk returns the current BREAK top.
func (m *Manager) Brk() uintptr {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.brk
}

// MapTop returns the current MAPPED bottom.
func (m *Manager) MapTop() uintptr {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mapTop
}
