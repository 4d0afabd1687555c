//go:build !regionvm_nocoverage

package regionvm

// mark records that branch idx was taken. Compiled in by default; build
// with -tags regionvm_nocoverage to compile it out of a production binary.
func (m *Manager) mark(idx CoverageIndex) {
	m.coverage[idx] = true
}

// Coverage returns a snapshot of which structural branches this Manager
// has taken since construction, indexed by CoverageIndex. It is intended
// for test harnesses asserting full branch coverage across a test suite.
func (m *Manager) Coverage() []bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]bool, coverageCount)
	copy(out, m.coverage[:])
	return out
}
