package bloom

import "errors"

const (
	// KeyBytes is the fixed element width: one big endian uint64 vhash.
	KeyBytes = 8

	// MaxFilters bounds the number of parallel filters sharing one region.
	MaxFilters uint8 = 4

	// HeaderBytesV1 is the fixed header size for HeaderV1.
	HeaderBytesV1 = 32

	MagicV1         = "KBF1"
	VersionV1 uint8 = 1

	// BitOrderLSB0 means bit 0 is the least-significant bit of byte 0.
	BitOrderLSB0 uint8 = 0
)

var (
	ErrBadFilterIndex = errors.New("bloom: invalid filter index")
	ErrBadRegionSize  = errors.New("bloom: region buffer too small")
	ErrNotInitialized = errors.New("bloom: header not initialized")

	ErrBadMagic    = errors.New("bloom: header magic invalid")
	ErrBadVersion  = errors.New("bloom: header version invalid")
	ErrBadBitOrder = errors.New("bloom: header bitOrder unsupported")
	ErrBadK        = errors.New("bloom: header k invalid")
	ErrBadFilters  = errors.New("bloom: header filters invalid")
	ErrBadMBits    = errors.New("bloom: header mBits invalid")

	ErrMBitsOverflow = errors.New("bloom: mBits overflows supported range")
)

// HeaderV1 is the decoded region header. NInserted counts inserts over the
// lifetime of the region, across all filters.
type HeaderV1 struct {
	BitOrder  uint8
	K         uint8
	Filters   uint8
	MBits     uint64
	NInserted uint64
}
