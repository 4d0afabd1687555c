package regionvm

// vad is a Virtual Address Descriptor: one assigned sub-interval of the
// MAPPED region. addr and size are always page multiples; size > 0 for
// every assigned descriptor.
//
// Descriptors are never heap-allocated one at a time. A Manager
// pre-allocates a fixed-capacity slice of them at New (one per page of
// total capacity, per spec.md §2) and hands out *vad pointers into that
// slice — the design-note-sanctioned "external pool" variant of the
// reference's in-region descriptor array (spec.md §9).
type vad struct {
	next, prev *vad // position in the address-sorted assigned list
	nextFree   *vad // position in the singly linked free list
	addr, size uintptr
	prot       Prot
	flags      MapFlags
}

func (v *vad) end() uintptr { return v.addr + v.size }

// obtainVad returns a descriptor, preferring the free list and falling
// back to bumping the pool cursor. Returns nil iff the pool is exhausted.
func (m *Manager) obtainVad() *vad {
	if v := m.freeVads; v != nil {
		m.freeVads = v.nextFree
		v.nextFree = nil
		return v
	}
	if m.nextVadIdx >= len(m.vadPool) {
		return nil
	}
	v := &m.vadPool[m.nextVadIdx]
	m.nextVadIdx++
	return v
}

// releaseVad clears a descriptor's fields and pushes it onto the free
// list, making it available to a future obtainVad call.
func (m *Manager) releaseVad(v *vad) {
	v.addr = 0
	v.size = 0
	v.prot = 0
	v.flags = 0
	v.next = nil
	v.prev = nil
	v.nextFree = m.freeVads
	m.freeVads = v
}

// newVad obtains a descriptor from the pool and initializes it. Returns
// nil iff the pool is exhausted.
func (m *Manager) newVad(addr, size uintptr, prot Prot, flags MapFlags) *vad {
	v := m.obtainVad()
	if v == nil {
		return nil
	}
	v.addr = addr
	v.size = size
	v.prot = prot
	v.flags = flags
	return v
}
