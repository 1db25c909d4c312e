package bloom

import (
	"github.com/zeebo/xxh3"
)

const bloomDomainV1 = 0xB1

// InitV1 initializes a region with a HeaderV1 and clears all bitsets.
//
// The caller must allocate region with at least RegionBytesV1(mBits, filters), where:
//
//	mBits = MBitsV1(keyCount, bitsPerKey)
func InitV1(region []byte, keyCount uint64, bitsPerKey uint64, k uint8, filters uint8) error {
	if keyCount == 0 {
		return ErrBadMBits
	}
	if err := CheckBPE(bitsPerKey); err != nil {
		return err
	}
	mBits := MBitsV1(keyCount, bitsPerKey)
	if mBits == 0 {
		return ErrMBitsOverflow
	}
	if filters == 0 || filters > MaxFilters {
		return ErrBadFilters
	}
	need := RegionBytesV1(mBits, filters)
	if uint64(len(region)) < need {
		return ErrBadRegionSize
	}

	// Regions are reused between passes.
	clear(region[:need])

	return EncodeHeaderV1(region, HeaderV1{
		BitOrder: BitOrderLSB0,
		K:        k,
		Filters:  filters,
		MBits:    mBits,
	})
}

// InsertV1 inserts key into filterIdx and increments NInserted in the header.
//
// novel is true if at least one of the key's bits was previously clear, which
// means the key was definitely not in the filter before this call.
func InsertV1(region []byte, filterIdx uint8, key uint64) (novel bool, err error) {
	h, bitset, err := bitsetV1(region, filterIdx)
	if err != nil {
		return false, err
	}

	h1, h2 := hashPairV1(filterIdx, key)
	novel = setBitsLSB0(bitset, h.MBits, h.K, h1, h2)

	h.NInserted++
	writeU64BE(region[16:24], h.NInserted)
	return novel, nil
}

// MaybeContainsV1 checks membership for key in filterIdx.
//
// Returns (false,nil) if the filter says "definitely not present".
// Returns (true,nil) if the filter says "maybe present".
func MaybeContainsV1(region []byte, filterIdx uint8, key uint64) (bool, error) {
	h, bitset, err := bitsetV1(region, filterIdx)
	if err != nil {
		return false, err
	}
	h1, h2 := hashPairV1(filterIdx, key)
	return testBitsLSB0(bitset, h.MBits, h.K, h1, h2), nil
}

// ResetV1 clears the bitset of filterIdx. The insert counter is left alone; it
// counts calls over the lifetime of the region.
func ResetV1(region []byte, filterIdx uint8) error {
	_, bitset, err := bitsetV1(region, filterIdx)
	if err != nil {
		return err
	}
	clear(bitset)
	return nil
}

func bitsetV1(region []byte, filterIdx uint8) (HeaderV1, []byte, error) {
	h, ok, err := DecodeHeaderV1(region)
	if err != nil {
		return HeaderV1{}, nil, err
	}
	if !ok {
		return HeaderV1{}, nil, ErrNotInitialized
	}

	bitsetBytes := BitsetBytesV1(h.MBits)
	off, err := filterBitsetOffV1(filterIdx, h.Filters, bitsetBytes)
	if err != nil {
		return HeaderV1{}, nil, err
	}
	if uint64(len(region)) < off+bitsetBytes {
		return HeaderV1{}, nil, ErrBadRegionSize
	}
	return h, region[off : off+bitsetBytes], nil
}

func hashPairV1(filterIdx uint8, key uint64) (h1 uint64, h2 uint64) {
	// XXH3-128( 0xB1 || filterIdx || key BE )
	var buf [1 + 1 + KeyBytes]byte
	buf[0] = bloomDomainV1
	buf[1] = filterIdx
	writeU64BE(buf[2:], key)
	sum := xxh3.Hash128(buf[:])
	h1 = sum.Hi
	h2 = sum.Lo
	if h2 == 0 {
		h2 = 1
	}
	return h1, h2
}

func setBitsLSB0(bitset []byte, mBits uint64, k uint8, h1, h2 uint64) (changed bool) {
	for i := uint64(0); i < uint64(k); i++ {
		j := (h1 + i*h2) % mBits
		byteIdx := j >> 3
		bit := uint8(1) << uint8(j&7)
		if bitset[byteIdx]&bit == 0 {
			changed = true
			bitset[byteIdx] |= bit
		}
	}
	return changed
}

func testBitsLSB0(bitset []byte, mBits uint64, k uint8, h1, h2 uint64) bool {
	for i := uint64(0); i < uint64(k); i++ {
		j := (h1 + i*h2) % mBits
		byteIdx := j >> 3
		bit := uint8(j & 7)
		if (bitset[byteIdx] & (1 << bit)) == 0 {
			return false
		}
	}
	return true
}
