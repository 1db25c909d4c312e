package hashstat

import (
	"github.com/twotwotwo/sorts"
)

// CompactOptions control a single compaction.
type CompactOptions struct {
	// MinOrientationCount is the number of single orientation sightings that
	// confirm an orientation.
	MinOrientationCount uint32
	// RetainSingletons keeps records whose final count is 1.
	RetainSingletons bool
	// KeepOrientations merges only records of the same key and orientation
	// class. Spill pre-compaction uses it so that the final merge still sees
	// exact per orientation partial counts.
	KeepOrientations bool
}

type byKeyOrientation []HashRecord

func (s byKeyOrientation) Len() int      { return len(s) }
func (s byKeyOrientation) Swap(i, j int) { s[i], s[j] = s[j], s[i] }
func (s byKeyOrientation) Less(i, j int) bool {
	if s[i].Key != s[j].Key {
		return s[i].Key < s[j].Key
	}
	return s[i].orientation() < s[j].orientation()
}

// CompactRecords sorts recs by key then orientation and merges equal keys in
// place. The returned slice aliases recs. Compacting an already compacted
// slice returns it unchanged.
func CompactRecords(recs []HashRecord, opts CompactOptions) []HashRecord {
	if len(recs) == 0 {
		return recs
	}
	sorts.Quicksort(byKeyOrientation(recs))

	acc := accumulator{minOrient: opts.MinOrientationCount}
	out := 0
	emit := func() {
		r := acc.finish()
		if r.Count > 1 || opts.RetainSingletons {
			recs[out] = r
			out++
		}
	}

	acc.reset(recs[0])
	for i := 1; i < len(recs); i++ {
		r := recs[i]
		same := r.Key == acc.rec.Key
		if same && opts.KeepOrientations {
			same = r.orientation() == acc.rec.orientation()
		}
		if same {
			acc.add(r)
			continue
		}
		emit()
		acc.reset(r)
	}
	emit()
	return recs[:out]
}
