package hashstat

import (
	"fmt"
	"os"
	"slices"

	"github.com/fxamacker/cbor/v2"
	"gonum.org/v1/gonum/stat"
)

// HistogramBin is the number of distinct keys seen Count times.
type HistogramBin struct {
	Count uint32 `cbor:"count"`
	Keys  uint64 `cbor:"keys"`
}

// Statistics is the summary persisted next to an index file.
type Statistics struct {
	K           int            `cbor:"k"`
	Records     int            `cbor:"records"`
	TotalCount  uint64         `cbor:"total_count"`
	Estimate    uint32         `cbor:"estimate"`
	TrimPercent float64        `cbor:"trim_percent"`
	Widened     int            `cbor:"widened"`
	Fallback    bool           `cbor:"unrestricted_fallback"`
	Thresholds  Thresholds     `cbor:"thresholds"`
	MeanCount   float64        `cbor:"mean_count"`
	StdDevCount float64        `cbor:"stddev_count"`
	Histogram   []HistogramBin `cbor:"histogram"`
}

// Histogram returns the count distribution of ix in ascending count order.
func Histogram(ix *Index) []HistogramBin {
	bins := map[uint32]uint64{}
	for i := range ix.records {
		bins[ix.records[i].Count]++
	}
	out := make([]HistogramBin, 0, len(bins))
	for c, n := range bins {
		out = append(out, HistogramBin{Count: c, Keys: n})
	}
	slices.SortFunc(out, func(a, b HistogramBin) int {
		if a.Count < b.Count {
			return -1
		}
		if a.Count > b.Count {
			return 1
		}
		return 0
	})
	return out
}

// ComputeStatistics estimates the typical frequency of ix and derives the
// category thresholds from cfg.
func ComputeStatistics(ix *Index, cfg Config) (*Statistics, error) {
	est, err := EstimateFrequency(ix, cfg.TrimPercent)
	if err != nil {
		return nil, err
	}
	s := &Statistics{
		K:           ix.K(),
		Records:     ix.Len(),
		TotalCount:  ix.TotalCount(),
		Estimate:    est.Value,
		TrimPercent: est.TrimPercent,
		Widened:     est.Widened,
		Fallback:    est.UnrestrictedFallback,
		Thresholds:  DeriveThresholds(est.Value, cfg),
		Histogram:   Histogram(ix),
	}
	counts := make([]float64, ix.Len())
	for i := range ix.records {
		counts[i] = float64(ix.records[i].Count)
	}
	if len(counts) > 1 {
		s.MeanCount, s.StdDevCount = stat.MeanStdDev(counts, nil)
	} else if len(counts) == 1 {
		s.MeanCount = counts[0]
	}
	return s, nil
}

// Describes reports whether s was computed from an index with the shape of ix.
// A sidecar left behind by an earlier pass over different reads does not.
func (s *Statistics) Describes(ix *Index) bool {
	return s.K == ix.K() && s.Records == ix.Len() && s.TotalCount == ix.TotalCount()
}

// WriteStatisticsFile persists s as CBOR at path.
func WriteStatisticsFile(path string, s *Statistics) error {
	data, err := cbor.Marshal(s)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStatisticsWrite, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("%w: %v", ErrStatisticsWrite, err)
	}
	return nil
}

// RemoveStatisticsFile deletes the statistics at path. A missing file is not
// an error.
func RemoveStatisticsFile(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: %v", ErrStatisticsWrite, err)
	}
	return nil
}

// ReadStatisticsFile loads statistics written by WriteStatisticsFile.
func ReadStatisticsFile(path string) (*Statistics, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStatisticsRead, err)
	}
	var s Statistics
	if err := cbor.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrStatisticsRead, path, err)
	}
	return &s, nil
}
