package hashstat

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/datatrails/go-datatrails-common/logger"
)

const (
	minBufferCapacity   = 64
	defaultMemoryBudget = uint64(1) << 30
)

// BuildStats summarises one index construction.
type BuildStats struct {
	Mode           BloomMode
	Reads          int
	SkippedReads   int
	Windows        uint64
	Buckets        int
	BufferCapacity int
	Flushes        int
	RecordsSpilled uint64
	Records        int
}

// Builder is the exact, disk partitioned index constructor. Occurrences are
// routed to buckets by the high order bases of their key, buffered, and
// spilled pre-compacted when a buffer fills. Buckets are then compacted
// independently and concatenated into an Index.
type Builder struct {
	bc     *BuildContext
	log    logger.Logger
	cfg    Config
	hasher *hasher

	shift    uint
	capacity int
	buffers  [][]HashRecord
	spilled  []uint64
	dir      string
	stats    BuildStats
}

// NewBuilder returns a builder for bc. opts override bc's configuration for
// this builder only.
func NewBuilder(bc *BuildContext, opts ...Option) (*Builder, error) {
	if len(opts) > 0 {
		var err error
		if bc, err = bc.Derive(opts...); err != nil {
			return nil, err
		}
	}
	h, err := newHasher(bc)
	if err != nil {
		return nil, err
	}
	cfg := bc.Config
	prefixBases := min(cfg.BucketPrefixBases, cfg.K)
	nb := 1 << uint(2*prefixBases)
	return &Builder{
		bc:      bc,
		log:     bc.Log,
		cfg:     cfg,
		hasher:  h,
		shift:   uint(2 * (cfg.K - prefixBases)),
		buffers: make([][]HashRecord, nb),
		spilled: make([]uint64, nb),
	}, nil
}

// bufferCapacity picks the per bucket flush threshold. The target is the
// smallest number of flushes that keeps every buffer inside the memory budget.
func bufferCapacity(cfg Config, estimate uint64, buckets int) int {
	if cfg.BufferBudgetHint > 0 {
		return cfg.BufferBudgetHint
	}
	budget := cfg.MemoryBudget
	if budget == 0 {
		budget = availableMemory() / 4 * 3
	}
	if budget == 0 {
		budget = defaultMemoryBudget
	}
	perBucket := budget / RecordBytes / uint64(buckets)

	// Keys do not spread evenly over buckets; leave room for twice the mean
	// before forcing a spill.
	need := 2 * (estimate/uint64(buckets) + 1)
	return int(max(min(perBucket, need), minBufferCapacity))
}

// Build hashes every read and returns the finished index. A failed build
// returns no index at all.
func (b *Builder) Build(reads []*Read) (*Index, BuildStats, error) {
	dir, err := b.bc.WorkDir()
	if err != nil {
		return nil, BuildStats{}, err
	}
	if b.dir, err = os.MkdirTemp(dir, "build-"); err != nil {
		return nil, BuildStats{}, fmt.Errorf("%w: %v", ErrSpillWrite, err)
	}

	estimate := b.hasher.estimateOccurrences(reads)
	b.capacity = bufferCapacity(b.cfg, estimate, len(b.buffers))
	b.stats = BuildStats{
		Mode:           BloomOff,
		Reads:          len(reads),
		Buckets:        len(b.buffers),
		BufferCapacity: b.capacity,
	}
	b.log.Infof("build %s: k=%d reads=%d est. occurrences=%d buckets=%d buffer=%d",
		b.bc.RunID, b.cfg.K, len(reads), estimate, len(b.buffers), b.capacity)

	for _, r := range reads {
		skipped, err := b.hasher.each(r, b.add)
		if err != nil {
			b.discard()
			return nil, BuildStats{}, err
		}
		if skipped {
			b.stats.SkippedReads++
		}
	}

	recs, err := b.compactBuckets()
	b.discard()
	if err != nil {
		return nil, BuildStats{}, err
	}

	ix, err := NewIndex(b.cfg.K, recs)
	if err != nil {
		return nil, BuildStats{}, err
	}
	b.stats.Records = ix.Len()
	b.log.Infof("build %s: windows=%d flushes=%d spilled=%d records=%d skipped=%d",
		b.bc.RunID, b.stats.Windows, b.stats.Flushes, b.stats.RecordsSpilled, ix.Len(), b.stats.SkippedReads)
	return ix, b.stats, nil
}

func (b *Builder) add(rec HashRecord) error {
	b.stats.Windows++
	i := rec.Key >> b.shift
	b.buffers[i] = append(b.buffers[i], rec)
	if len(b.buffers[i]) >= b.capacity {
		return b.flush(int(i))
	}
	return nil
}

func (b *Builder) spillPath(bucket int) string {
	return filepath.Join(b.dir, fmt.Sprintf("bucket-%05d.spill", bucket))
}

// flush pre-compacts a full buffer and appends it to the bucket's spill file.
// Singletons are always kept here; only the final merge knows the real count.
func (b *Builder) flush(bucket int) error {
	recs := CompactRecords(b.buffers[bucket], CompactOptions{
		MinOrientationCount: b.cfg.OrientationMinCount,
		RetainSingletons:    true,
		KeepOrientations:    true,
	})
	if err := appendSpill(b.spillPath(bucket), recs, b.cfg.CompressSpill); err != nil {
		return err
	}
	b.spilled[bucket] += uint64(len(recs))
	b.stats.Flushes++
	b.stats.RecordsSpilled += uint64(len(recs))
	b.log.Debugf("flush bucket %d: %d records", bucket, len(recs))
	b.buffers[bucket] = b.buffers[bucket][:0]
	return nil
}

// compactBuckets merges each bucket's spilled and buffered records. Buckets
// are independent, so they are spread over the worker pool.
func (b *Builder) compactBuckets() ([]HashRecord, error) {
	opts := CompactOptions{
		MinOrientationCount: b.cfg.OrientationMinCount,
		RetainSingletons:    b.cfg.RetainSingletons,
	}
	results := make([][]HashRecord, len(b.buffers))
	err := runChunked(b.cfg.Threads, len(b.buffers), 1, func(_, lo, hi int) error {
		for i := lo; i < hi; i++ {
			recs := b.buffers[i]
			if b.spilled[i] > 0 {
				spilled, err := readSpill(b.spillPath(i), b.cfg.CompressSpill, b.spilled[i])
				if err != nil {
					return err
				}
				recs = append(spilled, recs...)
			}
			results[i] = CompactRecords(recs, opts)
			b.buffers[i] = nil
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	total := 0
	for _, r := range results {
		total += len(r)
	}
	all := make([]HashRecord, 0, total)
	for _, r := range results {
		all = append(all, r...)
	}
	return all, nil
}

// discard drops buffers and spill files.
func (b *Builder) discard() {
	for i := range b.buffers {
		b.buffers[i] = nil
		b.spilled[i] = 0
	}
	if b.dir != "" {
		if err := os.RemoveAll(b.dir); err != nil {
			b.log.Infof("removing spill directory %s: %v", b.dir, err)
		}
		b.dir = ""
	}
}
