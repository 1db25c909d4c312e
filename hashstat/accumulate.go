package hashstat

// accumulator merges records that share a key. Merging is commutative and
// associative, so the result does not depend on the order records arrive in.
//
// Orientation partial counts are only taken from single orientation records.
// Records that already mix orientations carry their confirmed flags through
// unchanged; they never lose a flag and never gain one from the merge.
type accumulator struct {
	minOrient uint32

	rec   HashRecord
	fwd   uint32
	rev   uint32
	techs uint16
}

func (a *accumulator) reset(r HashRecord) {
	a.rec = r
	a.fwd, a.rev, a.techs = 0, 0, 0
	a.tally(r)
}

func (a *accumulator) add(r HashRecord) {
	a.rec.Count = addCount(a.rec.Count, r.Count)
	if r.LowPos < a.rec.LowPos {
		a.rec.LowPos = r.LowPos
	}
	if r.Tech < a.rec.Tech {
		a.rec.Tech = r.Tech
	}
	a.rec.Flags |= r.Flags
	a.tally(r)
}

func (a *accumulator) tally(r HashRecord) {
	switch r.orientation() {
	case orientForward:
		a.fwd = addCount(a.fwd, r.Count)
	case orientReverse:
		a.rev = addCount(a.rev, r.Count)
	}
	if r.Tech.Valid() {
		a.techs |= 1 << r.Tech
	}
}

func (a *accumulator) finish() HashRecord {
	r := a.rec
	if a.minOrient > 0 {
		if a.fwd >= a.minOrient {
			r.Flags |= FlagForwardConfirmed
		}
		if a.rev >= a.minOrient {
			r.Flags |= FlagReverseConfirmed
		}
	}
	if multi := a.techs & multiTechMask; multi&(multi-1) != 0 {
		r.Flags |= FlagMultiTechnology
	}
	return r
}
