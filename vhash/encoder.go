package vhash

import (
	"fmt"

	"github.com/shenwei356/kmers"
)

// Encoder holds the window geometry for one k.
type Encoder struct {
	k     int
	mask  uint64
	shift uint
}

// NewEncoder returns an encoder for windows of k bases, 1 <= k <= MaxK.
func NewEncoder(k int) (*Encoder, error) {
	if k < 1 || k > MaxK {
		return nil, fmt.Errorf("%w: k=%d, want 1..%d", ErrBadK, k, MaxK)
	}
	return &Encoder{
		k:     k,
		mask:  KeyMask(k),
		shift: uint(2 * (k - 1)),
	}, nil
}

// KeyMask returns the mask covering the low 2k bits.
func KeyMask(k int) uint64 {
	if k >= MaxK {
		return ^uint64(0)
	}
	return (uint64(1) << uint(2*k)) - 1
}

func (e *Encoder) K() int       { return e.k }
func (e *Encoder) Mask() uint64 { return e.mask }

// Encode returns the key for the first k bases of window.
// ok is false if the window holds an ambiguity code.
func (e *Encoder) Encode(window []byte) (key uint64, ok bool, err error) {
	if len(window) < e.k {
		return 0, false, ErrShortWindow
	}
	for i := 0; i < e.k; i++ {
		c := baseCodes[window[i]]
		switch {
		case c == codeInvalid:
			return 0, false, fmt.Errorf("%w: byte 0x%02x at position %d", ErrInvalidBase, window[i], i)
		case c == codeAmbiguous:
			return 0, false, nil
		}
		key = key<<2 | uint64(c)
	}
	return key, true, nil
}

// RevComp returns the key of the reverse complement of key.
func (e *Encoder) RevComp(key uint64) uint64 {
	return RevComp(key, e.k)
}

// Decode returns the bases of key as upper case ACGT.
func (e *Encoder) Decode(key uint64) []byte {
	return Decode(key, e.k)
}

// Windows iterates every valid window of seq.
func (e *Encoder) Windows(seq []byte) *Iterator {
	return e.Iter(seq, nil, 0, len(seq))
}

// Iter iterates the windows that lie entirely inside seq[lo:hi]. If valid is
// non nil, bases with valid[i] == false are treated as ambiguous. Positions
// reported by the iterator are absolute offsets into seq.
func (e *Encoder) Iter(seq []byte, valid []bool, lo, hi int) *Iterator {
	if lo < 0 {
		lo = 0
	}
	if hi > len(seq) {
		hi = len(seq)
	}
	if valid != nil && len(valid) != len(seq) {
		panic("vhash: validity length does not match sequence")
	}
	it := &Iterator{e: e, seq: seq, valid: valid, lo: lo, hi: hi}
	it.Reset()
	return it
}

// Decode returns the k bases of key as upper case ACGT.
func Decode(key uint64, k int) []byte {
	return kmers.MustDecode(key, k)
}

// RevComp returns the reverse complement of a k base key.
func RevComp(key uint64, k int) uint64 {
	return kmers.MustReverse(key, k) ^ KeyMask(k)
}

// Canonical returns the smaller of key and its reverse complement.
func Canonical(key uint64, k int) uint64 {
	rc := RevComp(key, k)
	if rc < key {
		return rc
	}
	return key
}
