package vhash

/*

# vhash: 2-bit k-mer keys

A vhash is the fixed-width integer encoding of a k-mer. Each base takes two
bits, most significant base first:

	A=0b00  C=0b01  G=0b10  T=0b11

so a k-mer of k bases occupies the low 2k bits of a uint64 and k is bounded by
MaxK = 32 (four bases per byte of key width).

The complement of a base is its code xor 0b11, which makes the reverse
complement of a key a bit-pair reversal followed by xor with the key mask.

## Windows

An Iterator slides a window of k bases over a sequence and yields one key per
window that is free of ambiguity codes. Ambiguous bases (IUPAC N, R, Y, ...,
gaps and X) reset the window: no key is produced for any window that covers
one. A byte that is neither a base nor a recognized ambiguity code stops the
iterator with ErrInvalidBase. Corrupt input is never hashed.

Iterators keep the forward and reverse complement keys rolling together, so
callers that hash both orientations pay for a single pass.

*/
