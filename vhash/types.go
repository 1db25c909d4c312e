package vhash

import (
	"errors"
	"fmt"
)

const (
	// MaxK is the largest window that fits a uint64 key.
	MaxK = 32

	// DefaultK is a reasonable window for short and long read data alike.
	DefaultK = 17
)

var (
	ErrBadK        = errors.New("vhash: k out of range")
	ErrInvalidBase = errors.New("vhash: unrecognized base")
	ErrShortWindow = errors.New("vhash: window shorter than k")
)

const (
	codeInvalid   int8 = -1
	codeAmbiguous int8 = -2
)

var baseCodes = func() (t [256]int8) {
	for i := range t {
		t[i] = codeInvalid
	}
	for i, b := range []byte("ACGT") {
		t[b] = int8(i)
		t[b+('a'-'A')] = int8(i)
	}
	for _, b := range []byte("NRYMKSWBDHVX") {
		t[b] = codeAmbiguous
		t[b+('a'-'A')] = codeAmbiguous
	}
	t['-'] = codeAmbiguous
	t['*'] = codeAmbiguous
	return t
}()

// IsBase reports whether b is one of ACGT (either case).
func IsBase(b byte) bool { return baseCodes[b] >= 0 }

// IsAmbiguous reports whether b is a recognized ambiguity code.
func IsAmbiguous(b byte) bool { return baseCodes[b] == codeAmbiguous }

// Validate checks that every byte of seq is a base or an ambiguity code.
func Validate(seq []byte) error {
	for i, b := range seq {
		if baseCodes[b] == codeInvalid {
			return fmt.Errorf("%w: byte 0x%02x at position %d", ErrInvalidBase, b, i)
		}
	}
	return nil
}
