package hashstat

import (
	"fmt"
	"math"
	"slices"

	"github.com/datatrails/go-datatrails-common/logger"
)

// NormStats summarise a digital normalization run.
type NormStats struct {
	Considered int
	Kept       int
	Removed    int
	Skipped    int
}

// Normalizer greedily drops reads whose k-mers are all already retained cap
// times. Its outcome depends on visiting order, which is fixed: groups in
// ascending id, then high confidence reads before the rest, then pool order.
// It is sequential by nature.
type Normalizer struct {
	log      logger.Logger
	ix       *Index
	hasher   *hasher
	limit    uint32
	counters []uint32
	keys     []int
}

// NewNormalizer caps reads against ix, which must have been built with
// bc's k.
func NewNormalizer(bc *BuildContext, ix *Index) (*Normalizer, error) {
	if ix.K() != bc.Config.K {
		return nil, fmt.Errorf("%w: index k=%d, config k=%d", ErrKMismatch, ix.K(), bc.Config.K)
	}
	h, err := newHasher(bc)
	if err != nil {
		return nil, err
	}
	return &Normalizer{
		log:    bc.Log,
		ix:     ix,
		hasher: h,
		limit:  bc.Config.DigitalNormCap,
	}, nil
}

// Counter returns the retained occurrence counter of the record at position i.
func (n *Normalizer) Counter(i int) uint32 { return n.counters[i] }

// Run resets the counters and visits every read not already removed, setting
// Removed on the ones it rejects.
func (n *Normalizer) Run(reads []*Read) (NormStats, error) {
	if len(n.counters) != n.ix.Len() {
		n.counters = make([]uint32, n.ix.Len())
	} else {
		clear(n.counters)
	}

	groups := map[int][]*Read{}
	for _, r := range reads {
		if !r.Removed {
			groups[r.Group] = append(groups[r.Group], r)
		}
	}
	ids := make([]int, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	var st NormStats
	for _, id := range ids {
		var later []*Read
		for _, r := range groups[id] {
			confident, skip, err := n.collect(r)
			if err != nil {
				return NormStats{}, err
			}
			if skip {
				st.Skipped++
				continue
			}
			if !confident {
				later = append(later, r)
				continue
			}
			n.consider(r, &st)
		}
		for _, r := range later {
			if _, _, err := n.collect(r); err != nil {
				return NormStats{}, err
			}
			n.consider(r, &st)
		}
	}
	n.log.Infof("digital normalization: considered=%d kept=%d removed=%d cap=%d",
		st.Considered, st.Kept, st.Removed, n.limit)
	return st, nil
}

// collect loads the record positions of r's k-mers into n.keys, -1 for keys
// not in the index, and reports whether every k-mer is confirmed in both
// orientations with a count of at least two.
func (n *Normalizer) collect(r *Read) (confident, skipped bool, err error) {
	n.keys = n.keys[:0]
	it, skip, err := n.hasher.windows(r)
	if err != nil || skip {
		return false, skip, err
	}
	confident = true
	for it.Next() {
		i, ok := n.ix.Find(it.Key())
		if !ok {
			n.keys = append(n.keys, -1)
			confident = false
			continue
		}
		rec := &n.ix.records[i]
		if rec.Count < 2 || !rec.ConfirmedBoth() {
			confident = false
		}
		n.keys = append(n.keys, i)
	}
	if err := it.Err(); err != nil {
		return false, false, fmt.Errorf("read %q: %w", r.Name, err)
	}
	return confident && len(n.keys) > 0, false, nil
}

// consider decides r using the positions left in n.keys by collect.
func (n *Normalizer) consider(r *Read, st *NormStats) {
	st.Considered++
	accept := len(n.keys) == 0
	for _, i := range n.keys {
		if i < 0 || n.counters[i] < n.limit {
			accept = true
			break
		}
	}
	if !accept {
		r.Removed = true
		st.Removed++
		return
	}
	st.Kept++
	for _, i := range n.keys {
		if i >= 0 && n.counters[i] < math.MaxUint32 {
			n.counters[i]++
		}
	}
}
