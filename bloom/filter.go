package bloom

// Filter owns a region and caches its decoded header so that the per key hot
// path does no header parsing. It is not safe for concurrent writers.
type Filter struct {
	region  []byte
	h       HeaderV1
	bitsets [][]byte
}

// New allocates and initializes a region sized for keyCount keys per filter.
func New(keyCount uint64, bitsPerKey uint64, k uint8, filters uint8) (*Filter, error) {
	if err := CheckBPE(bitsPerKey); err != nil {
		return nil, err
	}
	mBits := MBitsV1(keyCount, bitsPerKey)
	if mBits == 0 {
		return nil, ErrMBitsOverflow
	}
	region := make([]byte, RegionBytesV1(mBits, filters))
	if err := InitV1(region, keyCount, bitsPerKey, k, filters); err != nil {
		return nil, err
	}
	return Open(region)
}

// Open wraps an already initialized region.
func Open(region []byte) (*Filter, error) {
	h, ok, err := DecodeHeaderV1(region)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotInitialized
	}
	f := &Filter{region: region, h: h}
	n := BitsetBytesV1(h.MBits)
	for i := uint8(0); i < h.Filters; i++ {
		off, err := filterBitsetOffV1(i, h.Filters, n)
		if err != nil {
			return nil, err
		}
		if uint64(len(region)) < off+n {
			return nil, ErrBadRegionSize
		}
		f.bitsets = append(f.bitsets, region[off:off+n])
	}
	return f, nil
}

// Header returns the cached header; NInserted is current even before Sync.
func (f *Filter) Header() HeaderV1 { return f.h }

// Bytes returns the region the filter was built over.
func (f *Filter) Bytes() []byte { return f.region }

// Insert adds key to filter idx and reports whether it was novel.
// idx must be below Header().Filters.
func (f *Filter) Insert(idx uint8, key uint64) bool {
	h1, h2 := hashPairV1(idx, key)
	f.h.NInserted++
	return setBitsLSB0(f.bitsets[idx], f.h.MBits, f.h.K, h1, h2)
}

// MaybeContains reports false only if key was never inserted into filter idx.
func (f *Filter) MaybeContains(idx uint8, key uint64) bool {
	h1, h2 := hashPairV1(idx, key)
	return testBitsLSB0(f.bitsets[idx], f.h.MBits, f.h.K, h1, h2)
}

// Reset clears filter idx. Resets are rare, so this goes through the region
// API and its header checks rather than the cached bitsets.
func (f *Filter) Reset(idx uint8) error {
	return ResetV1(f.region, idx)
}

// Sync writes the cached insert counter back to the region header.
func (f *Filter) Sync() error {
	return EncodeHeaderV1(f.region, f.h)
}
