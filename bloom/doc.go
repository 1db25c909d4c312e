package bloom

/*

# Bloom primitives for k-mer novelty tests (multi-way, in-place)

This package provides the Bloom filters used by the approximate k-mer count
builders. A filter answers "has this vhash been seen before" in bounded memory.

It keeps the explicit-layout style of the rest of the module:

- small, composable functions
- explicit byte layouts
- index arithmetic on byte slices
- a burden of knowledge on the caller for hot paths

## What Bloom filters are (and are not)

Bloom filters provide a *probabilistic prefilter*:

- If the filter says "definitely not present", then the key is not present.
- If the filter says "maybe present", then the key may or may not be present
  (false positives are possible).

Multi pass builders rely on the first property only. A false positive makes a
key look like a repeat, which costs memory, never correctness of exact counts.

## Parallel filters

A region holds between 1 and MaxFilters bitsets of identical size, stored side
by side after a fixed header:

	+----------------------+  32B header (magic, version, params)
	| HeaderV1             |
	+----------------------+  bitset bytes (filter 0)
	| filter0 bitset       |
	+----------------------+  bitset bytes (filter 1)
	| filter1 bitset       |
	+----------------------+
	| ...                  |
	+----------------------+

The header is:

	0:4   magic "KBF1"
	4     version
	5     bit order (LSB0)
	6     k, the number of probes per key
	7     number of filters
	8:16  mBits, bits per filter (big endian)
	16:24 keys inserted (big endian)
	24:32 reserved

## Indexing and bit numbering

Probes use double hashing over one XXH3-128 digest of the domain byte, the
filter index and the big endian key: probe i sets bit (h1 + i*h2) mod mBits,
numbered LSB0 within each byte.

Filters are process scoped: regions are never persisted by the builders and
are reset between refinement passes.

## API versioning: why the `V1` suffix exists

Functions that operate on a raw region are suffixed with the format version
(`InitV1`, `InsertV1`, `MaybeContainsV1`). A different header layout or hash
scheme would be introduced as `V2` side by side.

*/
