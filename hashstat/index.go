package hashstat

import (
	"fmt"
	"math"
	"math/bits"
	"sort"

	"github.com/twotwotwo/sorts"

	"github.com/sidney/mira4-assembler-patches-sub001/vhash"
)

const (
	// MaxShortcutBits is the widest key prefix the shortcut table indexes.
	MaxShortcutBits = 24

	minShortcutBits = 8

	// linearScanMax is the largest shortcut range searched linearly.
	linearScanMax = 4
)

// Range is a [Begin,End) span of record positions.
type Range struct {
	Begin int
	End   int
}

func (r Range) Len() int { return r.End - r.Begin }

// Index is the queryable k-mer count table: records sorted by
// (key & prefix mask, key) plus a shortcut table of per prefix ranges.
//
// The finished index is read only and safe for any number of concurrent
// readers. Record flags may be updated in place by a single writer (branch
// detection) without invalidating the table; Insert invalidates it until
// Rebuild.
type Index struct {
	k       int
	bits    uint
	mask    uint64
	records []HashRecord
	starts  []uint32
	stale   bool
}

// NewIndex takes ownership of records, which must hold at most one record per
// key, sorts them and builds the shortcut table.
func NewIndex(k int, records []HashRecord) (*Index, error) {
	if k < 1 || k > vhash.MaxK {
		return nil, fmt.Errorf("%w: k=%d", ErrBadConfig, k)
	}
	if uint64(len(records)) >= math.MaxUint32 {
		return nil, fmt.Errorf("%w: %d records exceed the shortcut table range", ErrBadConfig, len(records))
	}
	ix := &Index{k: k, records: records}
	ix.build()
	return ix, nil
}

// shortcutBits sizes the table from k and the record count so that small
// indexes do not pay for a 2^24 entry table.
func shortcutBits(k, n int) uint {
	b := max(minShortcutBits, bits.Len(uint(n)))
	return uint(min(b, MaxShortcutBits, 2*k))
}

type byPrefixKey struct {
	recs []HashRecord
	mask uint64
}

func (s byPrefixKey) Len() int      { return len(s.recs) }
func (s byPrefixKey) Swap(i, j int) { s.recs[i], s.recs[j] = s.recs[j], s.recs[i] }
func (s byPrefixKey) Less(i, j int) bool {
	pi, pj := s.recs[i].Key&s.mask, s.recs[j].Key&s.mask
	if pi != pj {
		return pi < pj
	}
	return s.recs[i].Key < s.recs[j].Key
}

// build sorts the records unless they are already in prefix order for the
// current table width, then fills the shortcut table.
func (ix *Index) build() {
	ix.bits = shortcutBits(ix.k, len(ix.records))
	ix.mask = (uint64(1) << ix.bits) - 1
	s := byPrefixKey{recs: ix.records, mask: ix.mask}
	if !sort.IsSorted(s) {
		sorts.Quicksort(s)
	}

	// One pass over the prefix groups: starts[p] is the first position of
	// prefix p and starts[p+1] is one past its last.
	ix.starts = make([]uint32, (1<<ix.bits)+1)
	p := uint64(0)
	for i := range ix.records {
		rp := ix.records[i].Key & ix.mask
		for p < rp {
			p++
			ix.starts[p] = uint32(i)
		}
	}
	for p < uint64(len(ix.starts))-1 {
		p++
		ix.starts[p] = uint32(len(ix.records))
	}
	ix.stale = false
}

// K is the window length the keys were built with.
func (ix *Index) K() int { return ix.k }

func (ix *Index) Len() int           { return len(ix.records) }
func (ix *Index) ShortcutBits() uint { return ix.bits }

// Stale reports whether Insert was called since the last Rebuild.
func (ix *Index) Stale() bool { return ix.stale }

// Records and Record expose the records in table order. Callers may update
// counts and flags in place but must not change keys.
func (ix *Index) Records() []HashRecord    { return ix.records }
func (ix *Index) Record(i int) *HashRecord { return &ix.records[i] }

// Shortcut returns the record range for a key prefix. Bits of prefix above
// ShortcutBits are ignored.
func (ix *Index) Shortcut(prefix uint64) Range {
	prefix &= ix.mask
	return Range{Begin: int(ix.starts[prefix]), End: int(ix.starts[prefix+1])}
}

// Find returns the position of key's record.
func (ix *Index) Find(key uint64) (int, bool) {
	if ix.stale {
		panic("hashstat: lookup against a stale shortcut table")
	}
	r := ix.Shortcut(key & ix.mask)
	if r.Len() <= linearScanMax {
		for i := r.Begin; i < r.End; i++ {
			if ix.records[i].Key == key {
				return i, true
			}
		}
		return -1, false
	}
	i := r.Begin + sort.Search(r.Len(), func(j int) bool {
		return ix.records[r.Begin+j].Key >= key
	})
	if i < r.End && ix.records[i].Key == key {
		return i, true
	}
	return -1, false
}

// Lookup returns key's record, or false if the key was never counted. A
// missing key stands for a single unconfirmed occurrence.
func (ix *Index) Lookup(key uint64) (*HashRecord, bool) {
	i, ok := ix.Find(key)
	if !ok {
		return nil, false
	}
	return &ix.records[i], true
}

// Insert appends records. The shortcut table is stale until Rebuild.
func (ix *Index) Insert(recs ...HashRecord) {
	ix.records = append(ix.records, recs...)
	ix.stale = true
}

// Rebuild merges duplicate keys left by Insert, re-sorts and rebuilds the
// shortcut table.
func (ix *Index) Rebuild() {
	if ix.stale {
		ix.records = CompactRecords(ix.records, CompactOptions{RetainSingletons: true})
	}
	ix.build()
}

// TotalCount is the sum of all record counts.
func (ix *Index) TotalCount() uint64 {
	var n uint64
	for i := range ix.records {
		n += uint64(ix.records[i].Count)
	}
	return n
}
