package regionvm

// listInsertAfter splices v into the address-sorted assigned list after
// prev, or at the head when prev is nil. The caller guarantees v's
// address keeps the list sorted.
func (m *Manager) listInsertAfter(prev, v *vad) {
	if prev != nil {
		v.prev = prev
		v.next = prev.next
		if prev.next != nil {
			prev.next.prev = v
		}
		prev.next = v
		m.mark(CoverageListInsertAfter)
		return
	}

	v.prev = nil
	v.next = m.vadList
	if m.vadList != nil {
		m.vadList.prev = v
	}
	m.vadList = v
	m.mark(CoverageListInsertHead)
}

// listRemove unlinks v from the assigned list, updating the head if v
// was the head.
func (m *Manager) listRemove(v *vad) {
	if v == m.vadList {
		m.vadList = v.next
		if v.next != nil {
			v.next.prev = nil
		}
		return
	}
	if v.prev != nil {
		v.prev.next = v.next
	}
	if v.next != nil {
		v.next.prev = v.prev
	}
}

// listFind returns the descriptor whose interval contains addr, or nil.
func (m *Manager) listFind(addr uintptr) *vad {
	for v := m.vadList; v != nil; v = v.next {
		if addr >= v.addr && addr < v.end() {
			return v
		}
	}
	return nil
}

// rightGap returns the size of the free gap immediately to the right of
// v: the distance to v.next.addr, or to end if v is the last descriptor.
func (m *Manager) rightGap(v *vad) uintptr {
	if v.next != nil {
		return v.next.addr - v.end()
	}
	return m.end - v.end()
}

// syncTop re-synchronizes map to the address of the assigned list's
// head, or to end when the list is empty. Called after every structural
// change to the list.
func (m *Manager) syncTop() {
	if m.vadList != nil {
		m.mapTop = m.vadList.addr
	} else {
		m.mapTop = m.end
	}
}
