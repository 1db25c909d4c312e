package hashstat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exactRecords(t *testing.T, bc *BuildContext, reads []*Read) []HashRecord {
	t.Helper()
	b, err := NewBuilder(bc, WithBloomMode(BloomOff))
	require.NoError(t, err)
	ix, _, err := b.Build(reads)
	require.NoError(t, err)
	return ix.Records()
}

func TestBloomBuildMatchesExact(t *testing.T) {
	reads := sampleReads(21, 500, 150, 60)
	bc := newTestContext(t, WithK(13))
	want := exactRecords(t, bc, reads)
	require.NotEmpty(t, want)

	for _, mode := range []BloomMode{BloomTwoPass, BloomThreePass} {
		t.Run(mode.String(), func(t *testing.T) {
			b, err := NewBloomBuilder(bc, WithBloomMode(mode))
			require.NoError(t, err)
			ix, st, err := b.Build(reads)
			require.NoError(t, err)
			assert.Equal(t, mode, st.Mode)
			assert.Equal(t, len(want), st.Records)
			require.Equal(t, want, ix.Records())
		})
	}
}

func TestBloomBuildOnePassUndercounts(t *testing.T) {
	reads := sampleReads(22, 500, 150, 60)
	bc := newTestContext(t, WithK(13))
	exact, err := NewIndex(13, exactRecords(t, bc, reads))
	require.NoError(t, err)

	b, err := NewBloomBuilder(bc, WithBloomMode(BloomOnePass))
	require.NoError(t, err)
	ix, _, err := b.Build(reads)
	require.NoError(t, err)

	for _, r := range ix.Records() {
		e, ok := exact.Lookup(r.Key)
		require.True(t, ok)
		require.LessOrEqual(t, r.Count, e.Count)
		require.GreaterOrEqual(t, r.Count+1, e.Count)
	}
	// Every key seen three or more times survives the lost first sighting.
	for _, e := range exact.Records() {
		if e.Count < 3 {
			continue
		}
		_, ok := ix.Lookup(e.Key)
		require.True(t, ok)
	}
}

func TestBloomBuildInvalidBase(t *testing.T) {
	bc := newTestContext(t, WithK(4))
	b, err := NewBloomBuilder(bc, WithBloomMode(BloomTwoPass))
	require.NoError(t, err)
	_, _, err = b.Build(testReads("ACGTACGT", "ACGT#CGT"))
	require.Error(t, err)
}

func TestNewBloomBuilderRejects(t *testing.T) {
	bc := newTestContext(t)
	_, err := NewBloomBuilder(bc)
	require.ErrorIs(t, err, ErrBadConfig, "bloom mode off")

	_, err = NewBloomBuilder(bc, WithBloomMode(BloomTwoPass), WithRetainSingletons(true))
	require.ErrorIs(t, err, ErrBadConfig)
}

func TestBuildIndexDispatch(t *testing.T) {
	reads := sampleReads(23, 300, 60, 50)
	bc := newTestContext(t, WithK(11))
	want := exactRecords(t, bc, reads)

	bloomCtx, err := bc.Derive(WithBloomMode(BloomThreePass))
	require.NoError(t, err)
	ix, st, err := BuildIndex(bloomCtx, reads)
	require.NoError(t, err)
	assert.Equal(t, BloomThreePass, st.Mode)
	assert.Equal(t, want, ix.Records())

	ix, st, err = BuildIndex(bc, reads)
	require.NoError(t, err)
	assert.Equal(t, BloomOff, st.Mode)
	assert.Equal(t, want, ix.Records())
}
