package hashstat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func annotateFixture(t *testing.T) (*BuildContext, *Index) {
	t.Helper()
	bc := newTestContext(t, WithK(4), WithReverseComplement(false), WithRetainSingletons(true))
	b, err := NewBuilder(bc)
	require.NoError(t, err)
	ix, _, err := b.Build(testReads("ACGTACGTAC"))
	require.NoError(t, err)
	return bc, ix
}

var annotateThresholds = Thresholds{MinNormal: 2, Repeat: 3, HeavyRepeat: 4, CrazyRepeat: 5}

func TestAnnotate(t *testing.T) {
	bc, ix := annotateFixture(t)
	a, err := NewAnnotator(bc, ix, annotateThresholds)
	require.NoError(t, err)

	reads := testReads("ACGTACGTAC", "AAAAACGT")
	st, err := a.Annotate(reads)
	require.NoError(t, err)
	assert.Equal(t, 2, st.Reads)
	assert.Equal(t, uint64(12), st.Windows)
	assert.Equal(t, uint64(8), st.Hits)

	ann := reads[0].Annotation
	require.Len(t, ann.Forward, 10)
	require.Len(t, ann.Reverse, 10)

	normalLow := BaseAnnotation{Category: CategoryNormal, Flags: BaseLowPosition}
	assert.Equal(t, normalLow, ann.Forward[0])
	assert.Equal(t, normalLow, ann.Reverse[3])
	assert.Equal(t, BaseAnnotation{Category: CategoryRare, Flags: BaseLowPosition}, ann.Forward[3])
	assert.Equal(t, normalLow, ann.Forward[4], "low position is a property of the key")
	for _, i := range []int{7, 8, 9} {
		assert.Equal(t, BaseAnnotation{}, ann.Forward[i], "no window starts at %d", i)
	}
	for _, i := range []int{0, 1, 2} {
		assert.Equal(t, BaseAnnotation{}, ann.Reverse[i], "no window ends at %d", i)
	}

	ann = reads[1].Annotation
	rare := BaseAnnotation{Category: CategoryRare}
	assert.Equal(t, rare, ann.Forward[0], "a missing key is a single sighting")
	assert.Equal(t, rare, ann.Forward[3])
	assert.Equal(t, normalLow, ann.Forward[4])
	assert.Equal(t, normalLow, ann.Reverse[7])
}

func TestAnnotateFlags(t *testing.T) {
	bc := newTestContext(t, WithK(4))
	key := mustKey(t, "ACGT")
	ix, err := NewIndex(4, []HashRecord{{
		Key:    key,
		Count:  50,
		LowPos: 100,
		Flags:  FlagSeenForward | FlagForwardConfirmed | FlagSeenReverse | FlagReverseConfirmed | FlagMultiTechnology | FlagBranch,
	}})
	require.NoError(t, err)

	th := Thresholds{MinNormal: 2, Repeat: 3, HeavyRepeat: 4, CrazyRepeat: 5, Mask: 40}
	a, err := NewAnnotator(bc, ix, th)
	require.NoError(t, err)
	reads := testReads("ACGT")
	_, err = a.Annotate(reads)
	require.NoError(t, err)
	assert.Equal(t, BaseAnnotation{
		Category: CategoryCrazyRepeat,
		Flags:    BaseConfirmedBoth | BaseMultiTechnology | BaseBranch | BaseMasked,
	}, reads[0].Annotation.Forward[0])
}

func TestAnnotateClearsStaleAnnotation(t *testing.T) {
	bc, ix := annotateFixture(t)
	a, err := NewAnnotator(bc, ix, annotateThresholds)
	require.NoError(t, err)

	reads := testReads("ACG", "ACGTAC")
	for _, r := range reads {
		r.Annotation.Reset(20)
		for i := range r.Annotation.Forward {
			r.Annotation.Forward[i] = BaseAnnotation{Category: CategoryCrazyRepeat, Flags: BaseMasked}
			r.Annotation.Reverse[i] = BaseAnnotation{Category: CategoryCrazyRepeat, Flags: BaseMasked}
		}
	}
	_, err = a.Annotate(reads)
	require.NoError(t, err)

	assert.Equal(t, make([]BaseAnnotation, 3), reads[0].Annotation.Forward)
	assert.Equal(t, make([]BaseAnnotation, 3), reads[0].Annotation.Reverse)
	require.Len(t, reads[1].Annotation.Forward, 6)
	assert.Equal(t, BaseAnnotation{}, reads[1].Annotation.Forward[5])
	assert.Equal(t, CategoryNormal, reads[1].Annotation.Forward[2].Category)
}

func TestAnnotateInvalidRead(t *testing.T) {
	bc, ix := annotateFixture(t)
	a, err := NewAnnotator(bc, ix, annotateThresholds)
	require.NoError(t, err)
	_, err = a.Annotate(testReads("ACGTACGTAC", "AC?T"))
	require.Error(t, err)

	skipping, err := bc.Derive(func(opts any) { opts.(*Config).SkipInvalidReads = true })
	require.NoError(t, err)
	a, err = NewAnnotator(skipping, ix, annotateThresholds)
	require.NoError(t, err)
	reads := testReads("ACGTACGTAC", "AC?T")
	st, err := a.Annotate(reads)
	require.NoError(t, err)
	assert.Equal(t, 1, st.SkippedReads)
	assert.Equal(t, make([]BaseAnnotation, 4), reads[1].Annotation.Forward)
}

func TestNewAnnotatorRejects(t *testing.T) {
	bc, ix := annotateFixture(t)

	other := newTestContext(t, WithK(5))
	_, err := NewAnnotator(other, ix, annotateThresholds)
	require.ErrorIs(t, err, ErrKMismatch)

	ix.Insert(HashRecord{Key: 1, Count: 2})
	_, err = NewAnnotator(bc, ix, annotateThresholds)
	require.ErrorIs(t, err, ErrSizeMismatch)
}
