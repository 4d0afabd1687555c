package regionvm

import (
	"github.com/sirupsen/logrus"
)

// Sbrk allocates space from the BREAK region. Three cases, matching
// spec.md §4.4:
//
//   - delta == 0: returns the current Brk value, unchanged.
//   - 0 < delta <= MapTop()-Brk(): advances Brk by delta and returns the
//     old Brk value.
//   - otherwise: fails with ErrOutOfMemory; Brk is unchanged.
//
// Negative delta is rejected with ErrInvalidParameter: the reference
// sbrk does not support shrinking this way (use SetBrk instead), and
// spec.md directs implementations to preserve that restriction rather
// than infer support for it.
func (m *Manager) Sbrk(delta int) (uintptr, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clearErr()

	if m.magicVal != magic {
		return 0, m.fail(ErrUnexpected, "sbrk: manager is not initialized")
	}
	if delta < 0 {
		return 0, m.fail(ErrInvalidParameter, "sbrk: negative delta is not supported")
	}
	if !m.checkSane() {
		return 0, m.fail(ErrUnexpected, "sbrk: pre-check sanity failed")
	}

	var ptr uintptr
	switch {
	case delta == 0:
		ptr = m.brk
	case uintptr(delta) <= m.mapTop-m.brk:
		ptr = m.brk
		m.brk += uintptr(delta)
	default:
		return 0, m.fail(ErrOutOfMemory, "sbrk: out of memory")
	}

	if !m.checkSane() {
		return 0, m.fail(ErrUnexpected, "sbrk: post-check sanity failed")
	}
	m.logOp("sbrk", logrus.Fields{"delta": delta, "brk": m.brk})
	return ptr, nil
}

// SetBrk sets the BREAK top directly, the equivalent of the reference
// brk(addr) call. addr must satisfy start <= addr < MapTop().
func (m *Manager) SetBrk(addr uintptr) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clearErr()

	if m.magicVal != magic {
		return m.fail(ErrUnexpected, "brk: manager is not initialized")
	}
	if !m.checkSane() {
		return m.fail(ErrUnexpected, "brk: pre-check sanity failed")
	}
	if addr < m.start || addr >= m.mapTop {
		return m.fail(ErrInvalidParameter, "brk: address is out of range")
	}

	m.brk = addr

	if !m.checkSane() {
		return m.fail(ErrUnexpected, "brk: post-check sanity failed")
	}
	m.logOp("brk", logrus.Fields{"brk": m.brk})
	return nil
}

// Map allocates length bytes from the MAPPED region. length is rounded
// up to a page multiple. addrHint must be zero: fixed-address mapping is
// unsupported, per spec.md §4.4 and its Open Questions. prot must include
// read and write and exclude exec; flags must include anonymous|private and
// exclude shared|fixed.
func (m *Manager) Map(addrHint uintptr, length uintptr, prot Prot, flags MapFlags) (uintptr, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mapLocked(addrHint, length, prot, flags)
}

func (m *Manager) mapLocked(addrHint uintptr, length uintptr, prot Prot, flags MapFlags) (uintptr, error) {
	m.clearErr()

	if m.magicVal != magic {
		return 0, m.fail(ErrUnexpected, "map: manager is not initialized")
	}
	if !m.checkSane() {
		return 0, m.fail(ErrUnexpected, "map: pre-check sanity failed")
	}
	if addrHint != 0 {
		return 0, m.fail(ErrInvalidParameter, "map: addr hint must be zero, fixed-address mapping is unsupported")
	}
	if length == 0 {
		return 0, m.fail(ErrInvalidParameter, "map: length must be non-zero")
	}
	if !prot.has(ProtRead) {
		return 0, m.fail(ErrInvalidParameter, "map: prot must include read")
	}
	if !prot.has(ProtWrite) {
		return 0, m.fail(ErrInvalidParameter, "map: prot must include write")
	}
	if prot.has(ProtExec) {
		return 0, m.fail(ErrInvalidParameter, "map: prot must not include exec")
	}
	if !flags.has(MapAnonymous) {
		return 0, m.fail(ErrInvalidParameter, "map: flags must include anonymous")
	}
	if !flags.has(MapPrivate) {
		return 0, m.fail(ErrInvalidParameter, "map: flags must include private")
	}
	if flags.has(MapShared) {
		return 0, m.fail(ErrInvalidParameter, "map: flags must not include shared")
	}
	if flags.has(MapFixed) {
		return 0, m.fail(ErrInvalidParameter, "map: flags must not include fixed")
	}

	length = roundUpPage(length, m.pageSize)

	start, left, right, err := m.findGap(length)
	if err != nil {
		return 0, err
	}

	touchesLeft := left != nil && left.end() == start
	touchesRight := right != nil && start+length == right.addr

	switch {
	case touchesLeft && touchesRight:
		left.size += length + right.size
		m.listRemove(right)
		m.releaseVad(right)
		m.syncTop()
		m.mark(CoverageMapCoalesceLeft)
	case touchesLeft:
		left.size += length
		m.syncTop()
		m.mark(CoverageMapCoalesceLeft)
	case touchesRight:
		right.addr = start
		right.size += length
		m.syncTop()
		m.mark(CoverageMapCoalesceRight)
	default:
		v := m.newVad(start, length, prot, flags)
		if v == nil {
			return 0, m.fail(ErrOutOfMemory, "map: out of VADs")
		}
		m.listInsertAfter(left, v)
		m.syncTop()
		m.mark(CoverageMapNewVad)
	}

	m.zeroFill(start, length)

	if !m.checkSane() {
		return 0, m.fail(ErrUnexpected, "map: post-check sanity failed")
	}
	m.logOp("map", logrus.Fields{"addr": start, "length": length})
	return start, nil
}

// Unmap releases a mapping obtained with Map or Remap. addr and length
// must be page-aligned; the released range must lie entirely within one
// assigned descriptor (it may not straddle descriptor boundaries).
func (m *Manager) Unmap(addr, length uintptr) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.unmapLocked(addr, length)
}

func (m *Manager) unmapLocked(addr, length uintptr) error {
	m.clearErr()

	if m.magicVal != magic {
		return m.fail(ErrUnexpected, "unmap: manager is not initialized")
	}
	if addr == 0 || length == 0 {
		return m.fail(ErrInvalidParameter, "unmap: bad parameter")
	}
	if !m.checkSane() {
		return m.fail(ErrUnexpected, "unmap: pre-check sanity failed")
	}
	if addr%m.pageSize != 0 {
		return m.fail(ErrInvalidParameter, "unmap: addr is not page-aligned")
	}
	if length%m.pageSize != 0 {
		return m.fail(ErrInvalidParameter, "unmap: length is not page-aligned")
	}

	start := addr
	end := addr + length

	v := m.listFind(start)
	if v == nil {
		return m.fail(ErrNotFound, "unmap: address not found")
	}
	if end > v.end() {
		return m.fail(ErrRangeViolation, "unmap: range straddles descriptor boundary")
	}

	switch {
	case v.addr == start && v.end() == end:
		m.listRemove(v)
		m.syncTop()
		m.releaseVad(v)
		m.mark(CoverageUnmapFull)
	case v.addr == start:
		v.addr += length
		v.size -= length
		m.syncTop()
		m.mark(CoverageUnmapLeading)
	case v.end() == end:
		v.size -= length
		m.mark(CoverageUnmapTrailing)
	default:
		oldEnd := v.end()
		v.size = start - v.addr
		right := m.newVad(end, oldEnd-end, v.prot, v.flags)
		if right == nil {
			return m.fail(ErrOutOfMemory, "unmap: out of VADs")
		}
		m.listInsertAfter(v, right)
		m.syncTop()
		m.mark(CoverageUnmapSplit)
	}

	m.scrubFill(addr, length)

	if !m.checkSane() {
		return m.fail(ErrUnexpected, "unmap: post-check sanity failed")
	}
	m.logOp("unmap", logrus.Fields{"addr": addr, "length": length})
	return nil
}

// Remap grows or shrinks an existing mapping. flags must be exactly
// RemapMayMove. Three cases, matching spec.md §4.4:
//
//   - shrink (new_size < old_size): the suffix [addr+new_size,
//     addr+old_size) is released; any part of the descriptor beyond
//     addr+old_size is split off into its own descriptor.
//   - grow in place: when the descriptor's right gap is large enough,
//     it is extended and zero-filled, coalescing with its next neighbor
//     if doing so makes them contiguous.
//   - grow by moving: Map is used to obtain a fresh region, the old
//     contents are copied over, and the old region is released. If the
//     follow-up Unmap fails, the freshly mapped region is unwound (via
//     Unmap) before returning, so a failed Remap never leaks address
//     space — spec.md's explicit improvement over the reference's
//     leak-on-partial-failure behavior.
func (m *Manager) Remap(addr, oldSize, newSize uintptr, flags RemapFlags) (uintptr, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clearErr()

	if m.magicVal != magic || addr == 0 {
		return 0, m.fail(ErrInvalidParameter, "remap: invalid parameter")
	}
	if !m.checkSane() {
		return 0, m.fail(ErrUnexpected, "remap: pre-check sanity failed")
	}
	if addr%m.pageSize != 0 {
		return 0, m.fail(ErrInvalidParameter, "remap: addr must be page-aligned")
	}
	if oldSize == 0 {
		return 0, m.fail(ErrInvalidParameter, "remap: old_size must be non-zero")
	}
	if newSize == 0 {
		return 0, m.fail(ErrInvalidParameter, "remap: new_size must be non-zero")
	}
	if flags != RemapMayMove {
		return 0, m.fail(ErrInvalidParameter, "remap: flags must be exactly may-move")
	}

	oldSize = roundUpPage(oldSize, m.pageSize)
	newSize = roundUpPage(newSize, m.pageSize)

	start := addr
	oldEnd := addr + oldSize
	newEnd := addr + newSize

	v := m.listFind(start)
	if v == nil {
		return 0, m.fail(ErrNotFound, "remap: mapping not found")
	}
	if oldEnd > v.end() {
		return 0, m.fail(ErrRangeViolation, "remap: range exceeds descriptor")
	}

	var newAddr uintptr
	var err error

	switch {
	case newSize < oldSize:
		newAddr, err = m.remapShrink(v, start, oldEnd, newEnd, oldSize, newSize)
	case newSize > oldSize:
		newAddr, err = m.remapGrow(v, start, oldEnd, oldSize, newSize)
	default:
		m.mark(CoverageRemapSameSize)
		newAddr = addr
	}
	if err != nil {
		return 0, err
	}

	if !m.checkSane() {
		return 0, m.fail(ErrUnexpected, "remap: post-check sanity failed")
	}
	m.logOp("remap", logrus.Fields{"addr": addr, "old_size": oldSize, "new_size": newSize, "new_addr": newAddr})
	return newAddr, nil
}

func (m *Manager) remapShrink(v *vad, start, oldEnd, newEnd, oldSize, newSize uintptr) (uintptr, error) {
	if v.end() != oldEnd {
		right := m.newVad(oldEnd, v.end()-oldEnd, v.prot, v.flags)
		if right == nil {
			return 0, m.fail(ErrOutOfMemory, "remap: out of VADs")
		}
		m.listInsertAfter(v, right)
		m.syncTop()
		m.mark(CoverageRemapShrinkSplit)
	}

	v.size = newEnd - v.addr
	m.mark(CoverageRemapShrink)
	m.scrubFill(start+newSize, oldSize-newSize)
	return start, nil
}

func (m *Manager) remapGrow(v *vad, start, oldEnd uintptr, oldSize, newSize uintptr) (uintptr, error) {
	delta := newSize - oldSize

	if v.end() == oldEnd && m.rightGap(v) >= delta {
		v.size += delta
		m.zeroFill(start+oldSize, delta)
		m.mark(CoverageRemapGrowInPlace)

		if v.next != nil && v.end() == v.next.addr {
			next := v.next
			v.size += next.size
			m.listRemove(next)
			m.syncTop()
			m.releaseVad(next)
			m.mark(CoverageRemapGrowCoalesce)
		}
		return start, nil
	}

	return m.remapGrowMove(v, start, oldSize, newSize)
}

func (m *Manager) remapGrowMove(v *vad, start, oldSize, newSize uintptr) (uintptr, error) {
	prot, flags := v.prot, v.flags

	newAddr, err := m.mapLocked(0, newSize, prot, flags)
	if err != nil {
		return 0, m.fail(ErrOutOfMemory, "remap: mapping failed")
	}

	src := unsafeSliceAt(start, oldSize)
	dst := unsafeSliceAt(newAddr, oldSize)
	copy(dst, src)

	if err := m.unmapLocked(start, oldSize); err != nil {
		// spec.md's explicit improvement over the reference: unwind the
		// new mapping so a failed Remap never leaks address space.
		_ = m.unmapLocked(newAddr, newSize)
		return 0, m.fail(ErrUnexpected, "remap: unmapping old region failed")
	}

	m.mark(CoverageRemapGrowMove)
	return newAddr, nil
}
