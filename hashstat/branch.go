package hashstat

// DetectBranches marks records whose key has a sibling differing only in its
// first or last base, where both are confirmed in both orientations and have
// at least minCount occurrences. Previous branch marks are cleared first. It
// returns the number of records marked.
//
// It runs sequentially over the sorted records and must finish before any
// concurrent reader uses the index.
func DetectBranches(ix *Index, minCount uint32) int {
	qualifies := func(r *HashRecord) bool {
		return r.Count >= minCount && r.ConfirmedBoth()
	}
	for i := range ix.records {
		ix.records[i].Flags &^= FlagBranch
	}

	highShift := uint(2 * (ix.k - 1))
	marked := 0
	mark := func(r *HashRecord) {
		if !r.Has(FlagBranch) {
			r.Flags |= FlagBranch
			marked++
		}
	}
	for i := range ix.records {
		r := &ix.records[i]
		if !qualifies(r) {
			continue
		}
		for _, shift := range []uint{0, highShift} {
			own := (r.Key >> shift) & 3
			for b := uint64(0); b < 4; b++ {
				if b == own {
					continue
				}
				sibling := r.Key&^(3<<shift) | b<<shift
				if sibling < r.Key {
					// Pairs are visited from their smaller key.
					continue
				}
				s, ok := ix.Lookup(sibling)
				if !ok || !qualifies(s) {
					continue
				}
				mark(r)
				mark(s)
			}
		}
	}
	return marked
}
