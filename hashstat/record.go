package hashstat

import (
	"encoding/binary"
	"math"
)

// RecordFlags are the per key boolean properties of a HashRecord.
type RecordFlags uint8

const (
	FlagSeenForward RecordFlags = 1 << iota
	FlagForwardConfirmed
	FlagSeenReverse
	FlagReverseConfirmed
	FlagMultiTechnology
	FlagBranch
)

const (
	// RecordBytes is the fixed on disk width of a HashRecord.
	//
	//	0:8   key (big endian)
	//	8:12  count (big endian)
	//	12:14 lowest seen position (big endian)
	//	14    technology
	//	15    flags
	RecordBytes = 16

	MaxLowPos = math.MaxUint16
)

// HashRecord aggregates every occurrence of one k-mer key.
type HashRecord struct {
	Key    uint64
	Count  uint32
	LowPos uint16
	Tech   Technology
	Flags  RecordFlags
}

func (r *HashRecord) Has(f RecordFlags) bool { return r.Flags&f == f }

// ConfirmedBoth reports whether the orientation threshold was met in both
// orientations.
func (r *HashRecord) ConfirmedBoth() bool {
	return r.Has(FlagForwardConfirmed | FlagReverseConfirmed)
}

// orientation classes, in sort order
const (
	orientForward = iota
	orientReverse
	orientMixed
)

func (r *HashRecord) orientation() int {
	seen := r.Flags & (FlagSeenForward | FlagSeenReverse)
	switch seen {
	case FlagSeenForward:
		return orientForward
	case FlagSeenReverse:
		return orientReverse
	}
	return orientMixed
}

// PutRecord encodes r into b, which must be at least RecordBytes long.
func PutRecord(b []byte, r HashRecord) {
	if len(b) < RecordBytes {
		panic("hashstat: record buffer too small")
	}
	binary.BigEndian.PutUint64(b[0:8], r.Key)
	binary.BigEndian.PutUint32(b[8:12], r.Count)
	binary.BigEndian.PutUint16(b[12:14], r.LowPos)
	b[14] = uint8(r.Tech)
	b[15] = uint8(r.Flags)
}

// GetRecord decodes the record PutRecord wrote to b.
func GetRecord(b []byte) HashRecord {
	if len(b) < RecordBytes {
		panic("hashstat: record buffer too small")
	}
	return HashRecord{
		Key:    binary.BigEndian.Uint64(b[0:8]),
		Count:  binary.BigEndian.Uint32(b[8:12]),
		LowPos: binary.BigEndian.Uint16(b[12:14]),
		Tech:   Technology(b[14]),
		Flags:  RecordFlags(b[15]),
	}
}

func lowPos(pos int) uint16 {
	if pos > MaxLowPos {
		return MaxLowPos
	}
	return uint16(pos)
}

func addCount(a, b uint32) uint32 {
	if a > math.MaxUint32-b {
		return math.MaxUint32
	}
	return a + b
}
