package hashstat

import "fmt"

// Read is the view of a pool read this engine needs. Annotation, Removed and
// the bait fields are written back by the passes over the index.
type Read struct {
	Name string
	Seq  []byte
	// Valid marks usable bases. nil means every base is usable.
	Valid []bool
	// ClipLeft and ClipRight bound the good region [ClipLeft,ClipRight).
	// ClipRight 0 means the end of the sequence.
	ClipLeft  int
	ClipRight int
	// Reversed is set when Seq holds the reverse complement of the read as
	// sequenced.
	Reversed bool
	Tech     Technology
	Group    int

	Annotation Annotation

	// Removed is set by digital normalization.
	Removed   bool
	BaitHits  int
	BaitMatch bool
}

// ClipBounds returns the clip window clamped to the sequence.
func (r *Read) ClipBounds() (lo, hi int) {
	lo, hi = r.ClipLeft, r.ClipRight
	if hi <= 0 || hi > len(r.Seq) {
		hi = len(r.Seq)
	}
	lo = max(0, min(lo, hi))
	return lo, hi
}

func (r *Read) check() error {
	if r.Valid != nil && len(r.Valid) != len(r.Seq) {
		return fmt.Errorf("%w: read %q has %d validity flags for %d bases",
			ErrSizeMismatch, r.Name, len(r.Valid), len(r.Seq))
	}
	if !r.Tech.Valid() {
		return fmt.Errorf("%w: read %q technology %d", ErrBadConfig, r.Name, uint8(r.Tech))
	}
	return nil
}

// windowCount is the number of windows in the hashed region of r.
func windowCount(r *Read, k int) int {
	lo, hi := traitsOf(r.Tech).hashBounds(r)
	return max(0, hi-lo-k+1)
}
