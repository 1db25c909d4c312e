package hashstat

import (
	"math/rand"
	"testing"

	"github.com/datatrails/go-datatrails-common/logger"
	"github.com/stretchr/testify/require"

	"github.com/sidney/mira4-assembler-patches-sub001/vhash"
)

func newTestContext(t *testing.T, opts ...Option) *BuildContext {
	t.Helper()
	logger.New("NOOP")
	t.Cleanup(logger.OnExit)

	base := []Option{WithTempDir(t.TempDir()), WithThreads(3)}
	bc, err := NewBuildContext(logger.Sugar.WithServiceName(t.Name()), append(base, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, bc.Close()) })
	return bc
}

func testReads(seqs ...string) []*Read {
	reads := make([]*Read, len(seqs))
	for i, s := range seqs {
		reads[i] = &Read{Name: s, Seq: []byte(s), Tech: TechSolexa}
	}
	return reads
}

func randomSeq(rng *rand.Rand, n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = "ACGT"[rng.Intn(4)]
	}
	return string(b)
}

// sampleReads draws n reads of length l from a random genome of size g. Every
// third read is stored reverse complemented.
func sampleReads(seed int64, g, n, l int) []*Read {
	rng := rand.New(rand.NewSource(seed))
	genome := randomSeq(rng, g)
	reads := make([]*Read, n)
	for i := range reads {
		at := rng.Intn(g - l + 1)
		s := []byte(genome[at : at+l])
		r := &Read{Name: genome[at : at+8], Tech: TechSanger}
		if i%3 == 2 {
			s = revComp(s)
			r.Reversed = true
		}
		r.Seq = s
		reads[i] = r
	}
	return reads
}

func revComp(s []byte) []byte {
	out := make([]byte, len(s))
	for i, b := range s {
		var c byte
		switch b {
		case 'A':
			c = 'T'
		case 'C':
			c = 'G'
		case 'G':
			c = 'C'
		case 'T':
			c = 'A'
		default:
			c = b
		}
		out[len(s)-1-i] = c
	}
	return out
}

// bruteCounts counts every key the builders would see for reads.
func bruteCounts(t *testing.T, k int, rc bool, reads []*Read) map[uint64]uint32 {
	t.Helper()
	enc, err := vhash.NewEncoder(k)
	require.NoError(t, err)
	counts := map[uint64]uint32{}
	for _, r := range reads {
		it := enc.Windows(r.Seq)
		for it.Next() {
			counts[it.Key()]++
			if rc {
				counts[it.RevKey()]++
			}
		}
		require.NoError(t, it.Err())
	}
	return counts
}

func mustKey(t *testing.T, window string) uint64 {
	t.Helper()
	enc, err := vhash.NewEncoder(len(window))
	require.NoError(t, err)
	key, ok, err := enc.Encode([]byte(window))
	require.NoError(t, err)
	require.True(t, ok)
	return key
}
