package vhash

import "fmt"

// Iterator yields the keys of successive valid windows. It is not safe for
// concurrent use; make one per read.
type Iterator struct {
	e     *Encoder
	seq   []byte
	valid []bool
	lo    int
	hi    int

	pos  int
	fill int
	fwd  uint64
	rev  uint64
	err  error
}

// Reset restarts the iterator at the beginning of its range.
func (it *Iterator) Reset() {
	it.pos = it.lo
	it.fill = 0
	it.fwd = 0
	it.rev = 0
	it.err = nil
}

// Next advances to the next valid window. It returns false at the end of the
// range or on error; check Err to tell them apart.
func (it *Iterator) Next() bool {
	if it.err != nil {
		return false
	}
	e := it.e
	for it.pos < it.hi {
		i := it.pos
		it.pos++

		b := it.seq[i]
		c := baseCodes[b]
		if c == codeInvalid {
			it.err = fmt.Errorf("%w: byte 0x%02x at position %d", ErrInvalidBase, b, i)
			return false
		}
		if c == codeAmbiguous || (it.valid != nil && !it.valid[i]) {
			it.fill = 0
			it.fwd = 0
			it.rev = 0
			continue
		}
		it.fwd = (it.fwd<<2 | uint64(c)) & e.mask
		it.rev = it.rev>>2 | uint64(3-c)<<e.shift
		if it.fill < e.k {
			it.fill++
		}
		if it.fill == e.k {
			return true
		}
	}
	return false
}

// Key is the forward key of the current window.
func (it *Iterator) Key() uint64 { return it.fwd }

// RevKey is the key of the reverse complement of the current window.
func (it *Iterator) RevKey() uint64 { return it.rev }

// End is the offset of the last base of the current window.
func (it *Iterator) End() int { return it.pos - 1 }

// Start is the offset of the first base of the current window.
func (it *Iterator) Start() int { return it.pos - it.e.k }

// Err returns the error that stopped iteration, if any.
func (it *Iterator) Err() error { return it.err }

// Count drains the iterator and returns the number of windows seen.
func (it *Iterator) Count() (int, error) {
	n := 0
	for it.Next() {
		n++
	}
	return n, it.err
}
