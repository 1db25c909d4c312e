package hashstat

import (
	"fmt"
	"sync/atomic"

	"github.com/datatrails/go-datatrails-common/logger"

	"github.com/sidney/mira4-assembler-patches-sub001/vhash"
)

// BaitScreener matches reads against a small reference, such as a known
// contaminant or adaptor set, by counting k-mer hits.
type BaitScreener struct {
	log       logger.Logger
	ix        *Index
	enc       *vhash.Encoder
	hasher    *hasher
	threshold int
	threads   int
	chunk     int
}

// NewBaitScreener builds an exhaustive index of reference: singletons are
// kept and both orientations are hashed so that reverse complemented reads
// match too.
func NewBaitScreener(bc *BuildContext, reference []*Read) (*BaitScreener, error) {
	b, err := NewBuilder(bc,
		WithRetainSingletons(true), WithReverseComplement(true), WithBloomMode(BloomOff))
	if err != nil {
		return nil, err
	}
	ix, _, err := b.Build(reference)
	if err != nil {
		return nil, fmt.Errorf("bait index: %w", err)
	}
	return NewBaitScreenerFromIndex(bc, ix)
}

// NewBaitScreenerFromIndex screens against a previously built bait index.
// Windows are taken at the index's k whatever bc.Config.K says; invalid read
// handling follows bc.Config.SkipInvalidReads.
func NewBaitScreenerFromIndex(bc *BuildContext, ix *Index) (*BaitScreener, error) {
	enc, err := vhash.NewEncoder(ix.K())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadConfig, err)
	}
	return &BaitScreener{
		log: bc.Log,
		ix:  ix,
		enc: enc,
		hasher: &hasher{
			log:         bc.Log,
			enc:         enc,
			skipInvalid: bc.Config.SkipInvalidReads,
		},
		threshold: bc.Config.BaitHitThreshold,
		threads:   bc.Config.Threads,
		chunk:     bc.Config.ChunkSize,
	}, nil
}

// Index returns the bait index reads are screened against.
func (s *BaitScreener) Index() *Index { return s.ix }

// Hits counts the windows of the whole of seq whose key is in the bait index.
// An unrecognized byte is an error.
func (s *BaitScreener) Hits(seq []byte) (int, error) {
	return s.hits(s.enc.Windows(seq))
}

func (s *BaitScreener) hits(it *vhash.Iterator) (int, error) {
	n := 0
	for it.Next() {
		if _, ok := s.ix.Find(it.Key()); ok {
			n++
		}
	}
	return n, it.Err()
}

// Matches reports whether seq has at least the threshold number of hits.
func (s *BaitScreener) Matches(seq []byte) (bool, error) {
	n, err := s.Hits(seq)
	if err != nil {
		return false, err
	}
	return n >= s.threshold, nil
}

// ScreenStats summarizes one Screen call.
type ScreenStats struct {
	Reads        int
	Matched      int
	SkippedReads int
}

// Screen sets BaitHits and BaitMatch on every read. Reads are hashed like the
// index builders hash them: technology clipping and validity flags apply and,
// with SkipInvalidReads, a read holding an unrecognized byte is skipped and
// left unmatched. Reads are screened in parallel.
func (s *BaitScreener) Screen(reads []*Read) (ScreenStats, error) {
	var matched, skipped atomic.Int64
	err := runChunked(s.threads, len(reads), s.chunk, func(_, lo, hi int) error {
		for _, r := range reads[lo:hi] {
			r.BaitHits, r.BaitMatch = 0, false
			it, skip, err := s.hasher.windows(r)
			if err != nil {
				return err
			}
			if skip {
				skipped.Add(1)
				continue
			}
			n, err := s.hits(it)
			if err != nil {
				return fmt.Errorf("read %q: %w", r.Name, err)
			}
			r.BaitHits = n
			r.BaitMatch = n >= s.threshold
			if r.BaitMatch {
				matched.Add(1)
			}
		}
		return nil
	})
	if err != nil {
		return ScreenStats{}, err
	}
	st := ScreenStats{Reads: len(reads), Matched: int(matched.Load()), SkippedReads: int(skipped.Load())}
	s.log.Infof("bait screen: %d of %d reads match (threshold %d, skipped %d)",
		st.Matched, st.Reads, s.threshold, st.SkippedReads)
	return st, nil
}
