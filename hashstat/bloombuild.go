package hashstat

import (
	"fmt"

	"github.com/datatrails/go-datatrails-common/logger"

	"github.com/sidney/mira4-assembler-patches-sub001/bloom"
)

const (
	filterSeen uint8 = iota
	filterRepeated
	filterCount
)

// BloomBuilder is the memory bounded alternative to Builder. It never spills;
// instead a Bloom filter decides which keys are worth a record. See BloomMode
// for what each mode gives up.
type BloomBuilder struct {
	bc     *BuildContext
	log    logger.Logger
	cfg    Config
	hasher *hasher

	filter *bloom.Filter
	accs   map[uint64]*accumulator
	stats  BuildStats
}

// NewBloomBuilder returns a builder for bc's bloom mode; opts override bc's
// configuration for this builder only.
func NewBloomBuilder(bc *BuildContext, opts ...Option) (*BloomBuilder, error) {
	if len(opts) > 0 {
		var err error
		if bc, err = bc.Derive(opts...); err != nil {
			return nil, err
		}
	}
	if bc.Config.BloomMode == BloomOff {
		return nil, fmt.Errorf("%w: bloom builder needs a bloom mode", ErrBadConfig)
	}
	h, err := newHasher(bc)
	if err != nil {
		return nil, err
	}
	return &BloomBuilder{bc: bc, log: bc.Log, cfg: bc.Config, hasher: h}, nil
}

// Build runs the configured number of passes over reads and returns the
// index. The filter is process scoped to this call and discarded on return.
func (b *BloomBuilder) Build(reads []*Read) (*Index, BuildStats, error) {
	estimate := max(b.hasher.estimateOccurrences(reads), 1)
	f, err := bloom.New(estimate, b.cfg.BloomBitsPerKey, b.cfg.BloomHashes, filterCount)
	if err != nil {
		return nil, BuildStats{}, fmt.Errorf("%w: %v", ErrBadConfig, err)
	}
	b.filter = f
	b.accs = map[uint64]*accumulator{}
	b.stats = BuildStats{Mode: b.cfg.BloomMode, Reads: len(reads)}
	defer func() {
		b.filter = nil
		b.accs = nil
	}()

	b.log.Infof("bloom build %s: mode=%s k=%d reads=%d est. occurrences=%d filter bytes=%d",
		b.bc.RunID, b.cfg.BloomMode, b.cfg.K, len(reads), estimate, len(f.Bytes()))

	switch b.cfg.BloomMode {
	case BloomOnePass:
		err = b.onePass(reads)
	case BloomTwoPass:
		err = b.twoPass(reads)
	case BloomThreePass:
		err = b.threePass(reads)
	default:
		err = fmt.Errorf("%w: %v", ErrBadConfig, b.cfg.BloomMode)
	}
	if err != nil {
		return nil, BuildStats{}, err
	}

	recs := make([]HashRecord, 0, len(b.accs))
	for _, a := range b.accs {
		r := a.finish()
		if r.Count > 1 {
			recs = append(recs, r)
		}
	}
	ix, err := NewIndex(b.cfg.K, recs)
	if err != nil {
		return nil, BuildStats{}, err
	}
	b.stats.Records = ix.Len()
	b.log.Infof("bloom build %s: windows=%d tracked=%d records=%d skipped=%d",
		b.bc.RunID, b.stats.Windows, len(b.accs), ix.Len(), b.stats.SkippedReads)
	return ix, b.stats, nil
}

// pass feeds every occurrence of every read to fn. Only the first pass counts
// windows and skipped reads.
func (b *BloomBuilder) pass(reads []*Read, first bool, fn func(HashRecord)) error {
	for _, r := range reads {
		skipped, err := b.hasher.each(r, func(rec HashRecord) error {
			if first {
				b.stats.Windows++
			}
			fn(rec)
			return nil
		})
		if err != nil {
			return err
		}
		if skipped && first {
			b.stats.SkippedReads++
		}
	}
	return nil
}

func (b *BloomBuilder) track(rec HashRecord) {
	if a, ok := b.accs[rec.Key]; ok {
		a.add(rec)
		return
	}
	a := &accumulator{minOrient: b.cfg.OrientationMinCount}
	a.reset(rec)
	b.accs[rec.Key] = a
}

// onePass starts a record at a key's second sighting. The first sighting is
// not recovered, so counts are one short.
func (b *BloomBuilder) onePass(reads []*Read) error {
	return b.pass(reads, true, func(rec HashRecord) {
		if b.filter.Insert(filterSeen, rec.Key) {
			return
		}
		b.track(rec)
	})
}

// markRepeats fills filterRepeated with every key sighted at least twice,
// plus false positives of filterSeen.
func (b *BloomBuilder) markRepeats(reads []*Read) error {
	err := b.pass(reads, true, func(rec HashRecord) {
		if !b.filter.Insert(filterSeen, rec.Key) {
			b.filter.Insert(filterRepeated, rec.Key)
		}
	})
	if err != nil {
		return err
	}
	return b.filter.Reset(filterSeen)
}

func (b *BloomBuilder) twoPass(reads []*Read) error {
	if err := b.markRepeats(reads); err != nil {
		return err
	}
	err := b.pass(reads, false, func(rec HashRecord) {
		if b.filter.MaybeContains(filterRepeated, rec.Key) {
			b.track(rec)
		}
	})
	if err != nil {
		return err
	}
	return b.filter.Reset(filterRepeated)
}

// threePass counts candidate repeats without metadata first and only builds
// full records for keys that really occur more than once.
func (b *BloomBuilder) threePass(reads []*Read) error {
	if err := b.markRepeats(reads); err != nil {
		return err
	}
	counts := map[uint64]uint32{}
	err := b.pass(reads, false, func(rec HashRecord) {
		if b.filter.MaybeContains(filterRepeated, rec.Key) {
			counts[rec.Key] = addCount(counts[rec.Key], 1)
		}
	})
	if err != nil {
		return err
	}
	if err := b.filter.Reset(filterRepeated); err != nil {
		return err
	}
	for key, n := range counts {
		if n <= 1 {
			delete(counts, key)
		}
	}
	b.log.Debugf("bloom build %s: %d keys survive the count pass", b.bc.RunID, len(counts))

	return b.pass(reads, false, func(rec HashRecord) {
		if _, ok := counts[rec.Key]; ok {
			b.track(rec)
		}
	})
}
