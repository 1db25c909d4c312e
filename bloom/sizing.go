package bloom

// MaxMBits caps a single bitset at 64GiB of bits, far above any budget we
// would be asked to honour, and keeps every size computation inside uint64.
const MaxMBits = uint64(1) << 39

// CheckBPE validates bitsPerKey for safe sizing computations.
func CheckBPE(bitsPerKey uint64) error {
	if bitsPerKey == 0 {
		return ErrBadMBits
	}
	if bitsPerKey > uint64(^uint32(0)) {
		return ErrMBitsOverflow
	}
	return nil
}

// MBitsV1 returns bitsPerKey * keyCount, or 0 if that overflows MaxMBits.
//
// CheckBPE should be applied to bitsPerKey first.
func MBitsV1(keyCount uint64, bitsPerKey uint64) uint64 {
	if keyCount == 0 || bitsPerKey == 0 {
		return 0
	}
	if keyCount > MaxMBits/bitsPerKey {
		return 0
	}
	return bitsPerKey * keyCount
}

// BitsetBytesV1 returns ceil(mBits/8).
func BitsetBytesV1(mBits uint64) uint64 {
	return (mBits + 7) / 8
}

// RegionBytesV1 returns the required byte length for a region holding filters
// bitsets of mBits each:
//
//	HeaderBytesV1 + filters*ceil(mBits/8)
func RegionBytesV1(mBits uint64, filters uint8) uint64 {
	return uint64(HeaderBytesV1) + uint64(filters)*BitsetBytesV1(mBits)
}

func filterBitsetOffV1(filterIdx uint8, filters uint8, bitsetBytes uint64) (uint64, error) {
	if filterIdx >= filters {
		return 0, ErrBadFilterIndex
	}
	return uint64(HeaderBytesV1) + uint64(filterIdx)*bitsetBytes, nil
}
