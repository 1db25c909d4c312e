package hashstat

import "errors"

var (
	ErrBadConfig    = errors.New("hashstat: invalid configuration")
	ErrSizeMismatch = errors.New("hashstat: parallel structure size mismatch")
	ErrKMismatch    = errors.New("hashstat: k does not match the index")
	ErrNoStatistics = errors.New("hashstat: no qualifying records for frequency statistics")
)

var (
	ErrSpillWrite      = errors.New("hashstat: spill file write failed")
	ErrSpillRead       = errors.New("hashstat: spill file read failed")
	ErrIndexFileWrite  = errors.New("hashstat: index file write failed")
	ErrIndexFileRead   = errors.New("hashstat: index file read failed")
	ErrIndexTruncated  = errors.New("hashstat: index file shorter than its record count")
	ErrBadMagic        = errors.New("hashstat: index file magic invalid")
	ErrBadVersion      = errors.New("hashstat: index file version unsupported")
	ErrBadSortStatus   = errors.New("hashstat: index file sort status invalid")
	ErrStatisticsWrite = errors.New("hashstat: statistics file write failed")
	ErrStatisticsRead  = errors.New("hashstat: statistics file read failed")
)
