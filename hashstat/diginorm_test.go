package hashstat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func normFixture(t *testing.T, limit uint32, seqs ...string) (*BuildContext, *Index) {
	t.Helper()
	bc := newTestContext(t, WithK(4), WithReverseComplement(false), WithRetainSingletons(true))
	bc.Config.DigitalNormCap = limit
	b, err := NewBuilder(bc)
	require.NoError(t, err)
	ix, _, err := b.Build(testReads(seqs...))
	require.NoError(t, err)
	return bc, ix
}

func TestNormalizerCap(t *testing.T) {
	seq := "ACGTACGTAC"
	bc, ix := normFixture(t, 2, seq, seq, seq, seq, seq)
	n, err := NewNormalizer(bc, ix)
	require.NoError(t, err)

	reads := testReads(seq, seq, seq, seq, seq)
	st, err := n.Run(reads)
	require.NoError(t, err)
	assert.Equal(t, NormStats{Considered: 5, Kept: 2, Removed: 3}, st)
	for i, r := range reads {
		assert.Equal(t, i >= 2, r.Removed, "read %d", i)
	}

	// Removed reads are not reconsidered.
	st, err = n.Run(reads)
	require.NoError(t, err)
	assert.Equal(t, NormStats{Considered: 2, Kept: 2}, st)
}

func TestNormalizerGroupOrder(t *testing.T) {
	seq := "ACGTACGTAC"
	bc, ix := normFixture(t, 1, seq, seq)
	n, err := NewNormalizer(bc, ix)
	require.NoError(t, err)

	reads := testReads(seq, seq)
	reads[0].Group = 1
	_, err = n.Run(reads)
	require.NoError(t, err)
	assert.True(t, reads[0].Removed, "group 1 runs after group 0")
	assert.False(t, reads[1].Removed)
}

func TestNormalizerConfidentReadsFirst(t *testing.T) {
	const c, y = "ACGTTGCA", "ACGTTGCAA"
	bc := newTestContext(t, WithK(4), WithReverseComplement(false), WithRetainSingletons(true))
	bc.Config.DigitalNormCap = 1
	build := testReads(c, c, c, y)
	build[2].Reversed = true
	b, err := NewBuilder(bc)
	require.NoError(t, err)
	ix, _, err := b.Build(build)
	require.NoError(t, err)

	n, err := NewNormalizer(bc, ix)
	require.NoError(t, err)
	reads := testReads(y, c)
	st, err := n.Run(reads)
	require.NoError(t, err)

	// y holds the unconfirmed GCAA so it waits for c; both then add coverage.
	assert.Equal(t, NormStats{Considered: 2, Kept: 2}, st)
	i, ok := ix.Find(mustKey(t, "ACGT"))
	require.True(t, ok)
	assert.Equal(t, uint32(2), n.Counter(i))
}

func TestNormalizerKeepsNovelReads(t *testing.T) {
	bc, ix := normFixture(t, 1, "ACGTACGTAC")
	n, err := NewNormalizer(bc, ix)
	require.NoError(t, err)

	reads := testReads("ACGTACGTAC", "ACGTACGTAC", "ACGTTTTTTT", "ACG")
	st, err := n.Run(reads)
	require.NoError(t, err)
	assert.Equal(t, NormStats{Considered: 4, Kept: 3, Removed: 1}, st)
	assert.True(t, reads[1].Removed)
	assert.False(t, reads[2].Removed, "holds keys missing from the index")
	assert.False(t, reads[3].Removed, "shorter than k")
}

func TestNormalizerSkipsInvalidReads(t *testing.T) {
	bc, ix := normFixture(t, 1, "ACGTACGTAC")
	bc.Config.SkipInvalidReads = true
	n, err := NewNormalizer(bc, ix)
	require.NoError(t, err)

	reads := testReads("ACGT!CGTAC", "ACGTACGTAC")
	st, err := n.Run(reads)
	require.NoError(t, err)
	assert.Equal(t, NormStats{Considered: 1, Kept: 1, Skipped: 1}, st)
	assert.False(t, reads[0].Removed)
}

func TestNewNormalizerKMismatch(t *testing.T) {
	_, ix := normFixture(t, 1, "ACGTACGTAC")
	_, err := NewNormalizer(newTestContext(t, WithK(5)), ix)
	require.ErrorIs(t, err, ErrKMismatch)
}
