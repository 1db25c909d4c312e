package hashstat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordLayout(t *testing.T) {
	r := HashRecord{
		Key:    0x0102030405060708,
		Count:  0x0a0b0c0d,
		LowPos: 0x1112,
		Tech:   TechNanopore,
		Flags:  FlagSeenForward | FlagBranch,
	}
	var b [RecordBytes]byte
	PutRecord(b[:], r)
	require.Equal(t, []byte{
		0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08,
		0x0a, 0x0b, 0x0c, 0x0d,
		0x11, 0x12,
		uint8(TechNanopore),
		uint8(FlagSeenForward | FlagBranch),
	}, b[:])
	require.Equal(t, r, GetRecord(b[:]))

	require.Panics(t, func() { PutRecord(b[:RecordBytes-1], r) })
}

func TestLowPosSaturates(t *testing.T) {
	assert.Equal(t, uint16(7), lowPos(7))
	assert.Equal(t, uint16(MaxLowPos), lowPos(1<<20))
	assert.Equal(t, ^uint32(0), addCount(^uint32(0)-1, 5))
}

func TestAccumulatorOrderIndependent(t *testing.T) {
	in := []HashRecord{
		{Key: 9, Count: 1, LowPos: 40, Tech: TechSolexa, Flags: FlagSeenForward},
		{Key: 9, Count: 2, LowPos: 3, Tech: TechSanger, Flags: FlagSeenReverse},
		{Key: 9, Count: 1, LowPos: 12, Tech: TechSolexa, Flags: FlagSeenForward},
	}
	merge := func(order []int) HashRecord {
		a := accumulator{minOrient: 2}
		a.reset(in[order[0]])
		for _, i := range order[1:] {
			a.add(in[i])
		}
		return a.finish()
	}
	want := merge([]int{0, 1, 2})
	for _, order := range [][]int{{2, 1, 0}, {1, 0, 2}, {1, 2, 0}} {
		require.Equal(t, want, merge(order))
	}

	assert.Equal(t, uint32(4), want.Count)
	assert.Equal(t, uint16(3), want.LowPos)
	assert.Equal(t, TechSanger, want.Tech)
	assert.True(t, want.ConfirmedBoth(), "2 forward and 2 reverse sightings")
	assert.True(t, want.Has(FlagMultiTechnology))
}

func TestAccumulatorMultiTechnologyIgnoresNoisyTechnologies(t *testing.T) {
	a := accumulator{minOrient: 1}
	a.reset(HashRecord{Key: 1, Count: 1, Tech: TechSolexa, Flags: FlagSeenForward})
	a.add(HashRecord{Key: 1, Count: 1, Tech: TechNanopore, Flags: FlagSeenForward})
	a.add(HashRecord{Key: 1, Count: 1, Tech: TechPacBioLQ, Flags: FlagSeenForward})
	r := a.finish()
	require.False(t, r.Has(FlagMultiTechnology))
	require.True(t, r.Has(FlagForwardConfirmed))
	require.False(t, r.Has(FlagReverseConfirmed))
}

func TestAccumulatorKeepsConfirmedFlags(t *testing.T) {
	// A merged record that already met the threshold never loses it, even when
	// merged with records that would not meet it on their own.
	a := accumulator{minOrient: 5}
	a.reset(HashRecord{Key: 1, Count: 6, Flags: FlagSeenForward | FlagSeenReverse | FlagForwardConfirmed})
	a.add(HashRecord{Key: 1, Count: 1, Flags: FlagSeenReverse})
	r := a.finish()
	require.True(t, r.Has(FlagForwardConfirmed))
	require.False(t, r.Has(FlagReverseConfirmed))
	require.Equal(t, uint32(7), r.Count)
}
