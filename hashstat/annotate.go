package hashstat

import (
	"fmt"
	"sync/atomic"

	"github.com/datatrails/go-datatrails-common/logger"
)

// Category is the frequency class of the k-mer anchored at a base.
type Category uint8

const (
	CategoryUnseen Category = iota
	CategoryRare
	CategoryBelowNormal
	CategoryNormal
	CategoryRepeat
	CategoryHeavyRepeat
	CategoryCrazyRepeat
)

var categoryNames = []string{"unseen", "rare", "below-normal", "normal", "repeat", "heavy-repeat", "crazy-repeat"}

func (c Category) String() string {
	if int(c) < len(categoryNames) {
		return categoryNames[c]
	}
	return fmt.Sprintf("category(%d)", uint8(c))
}

// BaseFlags carry the anchored k-mer's record flags onto a base.
type BaseFlags uint8

const (
	BaseConfirmedBoth BaseFlags = 1 << iota
	BaseMultiTechnology
	BaseLowPosition
	BaseBranch
	BaseMasked
)

// BaseAnnotation is the frequency category and flags of one base.
type BaseAnnotation struct {
	Category Category
	Flags    BaseFlags
}

// Annotation holds one entry per base for each orientation. Forward entries
// are anchored at the first base of a window, Reverse entries at its last.
type Annotation struct {
	Forward []BaseAnnotation
	Reverse []BaseAnnotation
}

// Reset sizes the annotation for n bases and sets every entry to unseen.
func (a *Annotation) Reset(n int) {
	if cap(a.Forward) < n {
		a.Forward = make([]BaseAnnotation, n)
		a.Reverse = make([]BaseAnnotation, n)
		return
	}
	a.Forward = a.Forward[:n]
	a.Reverse = a.Reverse[:n]
	clear(a.Forward)
	clear(a.Reverse)
}

// AnnotateStats summarise an annotation pass.
type AnnotateStats struct {
	Reads        int
	SkippedReads int
	Windows      uint64
	Hits         uint64
}

// Annotator writes per base frequency annotation for a read pool against a
// finished index. Reads are handed out in chunks to a fixed pool of workers;
// each read is annotated by exactly one worker and only its own storage is
// written.
type Annotator struct {
	log    logger.Logger
	ix     *Index
	th     Thresholds
	hasher *hasher

	lowPosCutoff uint16
	threads      int
	chunk        int
}

// NewAnnotator annotates against ix with the thresholds th. The index must
// have been built with bc's k.
func NewAnnotator(bc *BuildContext, ix *Index, th Thresholds) (*Annotator, error) {
	if ix.K() != bc.Config.K {
		return nil, fmt.Errorf("%w: index k=%d, config k=%d", ErrKMismatch, ix.K(), bc.Config.K)
	}
	if ix.Stale() {
		return nil, fmt.Errorf("%w: index has pending inserts", ErrSizeMismatch)
	}
	h, err := newHasher(bc)
	if err != nil {
		return nil, err
	}
	return &Annotator{
		log:          bc.Log,
		ix:           ix,
		th:           th,
		hasher:       h,
		lowPosCutoff: bc.Config.LowPositionCutoff,
		threads:      bc.Config.Threads,
		chunk:        bc.Config.ChunkSize,
	}, nil
}

// baseAnnotation is what a window whose key has record r writes.
func (a *Annotator) baseAnnotation(r *HashRecord) BaseAnnotation {
	ba := BaseAnnotation{Category: a.th.Category(r.Count)}
	if r.ConfirmedBoth() {
		ba.Flags |= BaseConfirmedBoth
	}
	if r.Has(FlagMultiTechnology) {
		ba.Flags |= BaseMultiTechnology
	}
	if r.LowPos < a.lowPosCutoff {
		ba.Flags |= BaseLowPosition
	}
	if r.Has(FlagBranch) {
		ba.Flags |= BaseBranch
	}
	if a.th.Masked(r.Count) {
		ba.Flags |= BaseMasked
	}
	return ba
}

// Annotate clears and recomputes the annotation of every read.
func (a *Annotator) Annotate(reads []*Read) (AnnotateStats, error) {
	var windows, hits atomic.Uint64
	var skipped atomic.Int64

	err := runChunked(a.threads, len(reads), a.chunk, func(_, lo, hi int) error {
		for _, r := range reads[lo:hi] {
			w, h, skip, err := a.annotateRead(r)
			if err != nil {
				return err
			}
			if skip {
				skipped.Add(1)
			}
			windows.Add(w)
			hits.Add(h)
		}
		return nil
	})
	if err != nil {
		return AnnotateStats{}, err
	}
	st := AnnotateStats{
		Reads:        len(reads),
		SkippedReads: int(skipped.Load()),
		Windows:      windows.Load(),
		Hits:         hits.Load(),
	}
	a.log.Infof("annotated %d reads: windows=%d hits=%d skipped=%d (%s)",
		st.Reads, st.Windows, st.Hits, st.SkippedReads, a.th)
	return st, nil
}

func (a *Annotator) annotateRead(r *Read) (windows, hits uint64, skipped bool, err error) {
	r.Annotation.Reset(len(r.Seq))
	it, skip, err := a.hasher.windows(r)
	if err != nil || skip {
		return 0, 0, skip, err
	}

	miss := BaseAnnotation{Category: CategoryRare}
	for it.Next() {
		windows++
		ba := miss
		if rec, ok := a.ix.Lookup(it.Key()); ok {
			ba = a.baseAnnotation(rec)
			hits++
		}
		r.Annotation.Forward[it.Start()] = ba
		r.Annotation.Reverse[it.End()] = ba
	}
	if err := it.Err(); err != nil {
		return 0, 0, false, fmt.Errorf("read %q: %w", r.Name, err)
	}
	return windows, hits, false, nil
}
