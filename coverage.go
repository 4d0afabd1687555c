package regionvm

// CoverageIndex names one structural branch in the manager's mapping,
// unmapping, remapping, gap-finding, and list-insertion logic. The index
// values and their meanings are pinned to the reference source's
// OE_HEAP_COVERAGE_* enum so that a branch-coverage harness run against
// either implementation asserts the same 19 cases.
type CoverageIndex int

const (
	CoverageMapCoalesceLeft      CoverageIndex = iota // Map: extend left neighbor (absorbing right too if it touches)
	CoverageMapCoalesceRight                          // Map: extend right neighbor only
	CoverageMapNewVad                                 // Map: no neighbor touched, new descriptor
	CoverageUnmapFull                                  // Unmap: case 1, removes descriptor entirely
	CoverageUnmapLeading                               // Unmap: case 2, shrinks from the left
	CoverageUnmapTrailing                              // Unmap: case 3, shrinks from the right
	CoverageUnmapSplit                                 // Unmap: case 4, interior split
	CoverageRemapShrinkSplit                           // Remap: shrink leaves a trailing split
	CoverageRemapShrink                                // Remap: shrink (with or without split)
	CoverageRemapGrowInPlace                           // Remap: grow extends the same descriptor
	CoverageRemapGrowCoalesce                          // Remap: grow-in-place then absorbs next
	CoverageRemapGrowMove                              // Remap: grow by mapping elsewhere and copying
	CoverageRemapSameSize                              // Remap: new_size == old_size, no-op
	CoverageGapFinderInternal                          // gap finder: found a gap between descriptors
	CoverageGapFinderExhausted                         // gap finder: grow-down would cross brk
	CoverageGapFinderGrowDown                          // gap finder: grew MAPPED downward from map
	CoverageListInsertAfter                            // list insert: spliced after a predecessor
	CoverageListInsertHead                             // list insert: spliced at the head
	CoverageInitSuccess                                // Init: completed and passed its sanity check

	coverageCount
)
