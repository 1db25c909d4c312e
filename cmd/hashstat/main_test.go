package main

import (
	"bytes"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/datatrails/go-datatrails-common/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sidney/mira4-assembler-patches-sub001/hashstat"
)

func randomBases(rng *rand.Rand, n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = "ACGT"[rng.Intn(4)]
	}
	return string(b)
}

// writeFasta writes n reads of length l sampled from genome.
func writeFasta(t *testing.T, path string, rng *rand.Rand, genome string, n, l int) {
	t.Helper()
	var buf bytes.Buffer
	for i := 0; i < n; i++ {
		at := rng.Intn(len(genome) - l + 1)
		fmt.Fprintf(&buf, ">r%d\n%s\n", i, genome[at:at+l])
	}
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func run(t *testing.T, args ...string) string {
	t.Helper()
	t.Cleanup(logger.OnExit)
	var out bytes.Buffer
	root := rootCommand()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append(args, "--log-level", "NOOP"))
	require.NoError(t, root.Execute(), out.String())
	return out.String()
}

func countRecords(t *testing.T, path string) int {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Count(string(data), ">")
}

func TestLoadPool(t *testing.T) {
	dir := t.TempDir()
	rng := rand.New(rand.NewSource(1))
	genome := randomBases(rng, 300)
	a, b := filepath.Join(dir, "a.fa"), filepath.Join(dir, "b.fa")
	writeFasta(t, a, rng, genome, 5, 40)
	writeFasta(t, b, rng, genome, 3, 40)

	p, err := loadPool([]string{a, b}, hashstat.TechSanger, false)
	require.NoError(t, err)
	require.Len(t, p.reads, 8)
	require.Len(t, p.records, 8)
	assert.Equal(t, "r0", p.reads[0].Name)
	assert.Equal(t, 0, p.reads[4].Group)
	assert.Equal(t, 1, p.reads[5].Group)
	assert.Equal(t, hashstat.TechSanger, p.reads[7].Tech)
	assert.Len(t, p.reads[3].Seq, 40)

	out := filepath.Join(dir, "odd.fa")
	n, err := p.write(out, func(r *hashstat.Read) bool { return r.Group == 1 })
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 3, countRecords(t, out))

	_, err = loadPool([]string{filepath.Join(dir, "absent.fa")}, hashstat.TechSanger, false)
	require.Error(t, err)
}

func TestBuildAndStats(t *testing.T) {
	dir := t.TempDir()
	rng := rand.New(rand.NewSource(2))
	genome := randomBases(rng, 2000)
	reads := filepath.Join(dir, "reads.fa")
	writeFasta(t, reads, rng, genome, 600, 80)
	index := filepath.Join(dir, "reads.hsix")

	out := run(t, "build", "-k", "15", "-o", index, "--tmp", dir, "--threads", "2", "--detect-branches", reads)
	assert.Contains(t, out, "reads\t600\n")
	assert.Contains(t, out, "estimate\t")
	assert.Contains(t, out, "branches\t")

	ix, err := hashstat.ReadIndexFile(index)
	require.NoError(t, err)
	assert.Equal(t, 15, ix.K())
	_, err = os.Stat(hashstat.StatisticsPath(index))
	require.NoError(t, err)

	plotFile := filepath.Join(dir, "hist.png")
	out = run(t, "stats", "--bins", "3", "--plot", plotFile, index)
	assert.Contains(t, out, "k\t15\n")
	assert.Contains(t, out, "count\tkeys\n")
	fi, err := os.Stat(plotFile)
	require.NoError(t, err)
	assert.NotZero(t, fi.Size())

	out = run(t, "stats", "--trim", "10", index)
	assert.Contains(t, out, "thresholds\t")
}

func TestStatsChecksSidecar(t *testing.T) {
	dir := t.TempDir()
	rng := rand.New(rand.NewSource(5))
	genome := randomBases(rng, 1000)
	reads := filepath.Join(dir, "reads.fa")
	writeFasta(t, reads, rng, genome, 300, 60)
	index := filepath.Join(dir, "reads.hsix")
	run(t, "build", "-k", "13", "-o", index, "--tmp", dir, reads)

	sidecar := hashstat.StatisticsPath(index)
	s, err := hashstat.ReadStatisticsFile(sidecar)
	require.NoError(t, err)

	s.Estimate = 987654
	require.NoError(t, hashstat.WriteStatisticsFile(sidecar, s))
	assert.Contains(t, run(t, "stats", index), "estimate\t987654\n")

	s.Records++
	require.NoError(t, hashstat.WriteStatisticsFile(sidecar, s))
	assert.NotContains(t, run(t, "stats", index), "estimate\t987654\n")
}

func TestBuildConfigFile(t *testing.T) {
	dir := t.TempDir()
	rng := rand.New(rand.NewSource(3))
	genome := randomBases(rng, 1000)
	reads := filepath.Join(dir, "reads.fa")
	writeFasta(t, reads, rng, genome, 200, 60)
	conf := filepath.Join(dir, "hashstat.toml")
	require.NoError(t, os.WriteFile(conf, []byte("k = 13\nbloom_mode = \"2-pass\"\n"), 0o644))
	index := filepath.Join(dir, "bloom.hsix")

	run(t, "build", "-c", conf, "-o", index, "--tmp", dir, reads)
	ix, err := hashstat.ReadIndexFile(index)
	require.NoError(t, err)
	assert.Equal(t, 13, ix.K())

	// Flags override the file.
	run(t, "build", "-c", conf, "-k", "9", "-o", index, "--tmp", dir, reads)
	ix, err = hashstat.ReadIndexFile(index)
	require.NoError(t, err)
	assert.Equal(t, 9, ix.K())
}

func TestNormalize(t *testing.T) {
	dir := t.TempDir()
	rng := rand.New(rand.NewSource(4))
	genome := randomBases(rng, 500)
	reads := filepath.Join(dir, "reads.fa")
	writeFasta(t, reads, rng, genome, 400, 60)
	kept := filepath.Join(dir, "kept.fa")

	out := run(t, "normalize", "-k", "13", "--cap", "5", "-o", kept, "--tmp", dir, reads)
	assert.Contains(t, out, "considered 400")
	n := countRecords(t, kept)
	assert.Greater(t, n, 0)
	assert.Less(t, n, 400)
}

func TestScreen(t *testing.T) {
	dir := t.TempDir()
	rng := rand.New(rand.NewSource(5))
	genome := randomBases(rng, 400)
	other := randomBases(rng, 400)

	bait := filepath.Join(dir, "bait.fa")
	require.NoError(t, os.WriteFile(bait, []byte(">bait\n"+genome+"\n"), 0o644))
	reads := filepath.Join(dir, "reads.fa")
	var buf bytes.Buffer
	for i := 0; i < 10; i++ {
		at := rng.Intn(300)
		fmt.Fprintf(&buf, ">in%d\n%s\n>out%d\n%s\n", i, genome[at:at+100], i, other[at:at+100])
	}
	require.NoError(t, os.WriteFile(reads, buf.Bytes(), 0o644))

	matched := filepath.Join(dir, "matched.fa")
	out := run(t, "screen", "-k", "17", "--bait", bait, "-o", matched, "--tmp", dir, reads)
	assert.Contains(t, out, "10 matched")
	assert.Equal(t, 10, countRecords(t, matched))

	clean := filepath.Join(dir, "clean.fa")
	run(t, "screen", "-k", "17", "--bait", bait, "--invert", "-o", clean, "--tmp", dir, reads)
	data, err := os.ReadFile(clean)
	require.NoError(t, err)
	assert.Equal(t, 10, strings.Count(string(data), ">out"))
	assert.NotContains(t, string(data), ">in")
}
