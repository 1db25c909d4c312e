package hashstat

import (
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"
)

const trimWidenStep = 5

// Estimate is the typical per k-mer coverage of an index.
type Estimate struct {
	Value uint32
	// TrimPercent is the trim finally applied at each end.
	TrimPercent float64
	// Widened counts how often the trim was widened for a skewed distribution.
	Widened int
	// UnrestrictedFallback is set when no orientation confirmed mass existed
	// and every qualifying record was used instead.
	UnrestrictedFallback bool
	Qualifying           int
}

type countSample struct {
	count     uint32
	confirmed bool
}

// EstimateFrequency computes a trimmed, mass weighted median of the counts of
// records seen at least twice. Mass is restricted to records confirmed in
// both orientations unless there is none. If the result lies above the 90th
// percentile of the untrimmed distribution the trim is widened and the
// estimate recomputed.
func EstimateFrequency(ix *Index, trimPercent float64) (Estimate, error) {
	samples := make([]countSample, 0, ix.Len())
	for i := range ix.records {
		r := &ix.records[i]
		if r.Count < 2 {
			continue
		}
		samples = append(samples, countSample{count: r.Count, confirmed: r.ConfirmedBoth()})
	}
	if len(samples) == 0 {
		return Estimate{}, ErrNoStatistics
	}
	slices.SortFunc(samples, func(a, b countSample) int {
		switch {
		case a.count < b.count:
			return -1
		case a.count > b.count:
			return 1
		}
		return 0
	})

	counts := make([]float64, len(samples))
	for i, s := range samples {
		counts[i] = float64(s.count)
	}
	topDecile := stat.Quantile(0.9, stat.Empirical, counts, nil)

	est := Estimate{TrimPercent: trimPercent, Qualifying: len(samples)}
	for {
		est.Value, est.UnrestrictedFallback = trimmedMedian(samples, est.TrimPercent)
		if float64(est.Value) <= topDecile || est.TrimPercent+trimWidenStep > maxTrimPercent {
			return est, nil
		}
		est.TrimPercent += trimWidenStep
		est.Widened++
	}
}

func trimmedMedian(samples []countSample, trimPercent float64) (value uint32, fallback bool) {
	cut := int(float64(len(samples)) * trimPercent / 100)
	lo, hi := cut, len(samples)-cut
	if lo >= hi {
		lo, hi = 0, len(samples)
	}
	window := samples[lo:hi]

	restricted := true
	mass := massOf(window, restricted)
	if mass == 0 {
		restricted = false
		mass = massOf(window, restricted)
	}

	var acc uint64
	for _, s := range window {
		if restricted && !s.confirmed {
			continue
		}
		acc += uint64(s.count)
		if 2*acc >= mass {
			return s.count, !restricted
		}
	}
	return window[len(window)-1].count, !restricted
}

func massOf(samples []countSample, restricted bool) uint64 {
	var m uint64
	for _, s := range samples {
		if restricted && !s.confirmed {
			continue
		}
		m += uint64(s.count)
	}
	return m
}

// Thresholds are the count boundaries between frequency categories.
type Thresholds struct {
	MinNormal   uint32 `cbor:"min_normal"`
	Repeat      uint32 `cbor:"repeat"`
	HeavyRepeat uint32 `cbor:"heavy_repeat"`
	CrazyRepeat uint32 `cbor:"crazy_repeat"`
	Mask        uint32 `cbor:"mask"`
}

// Threshold scales an estimate by ratio, rounding down. For a fixed estimate
// it is non decreasing in ratio.
func Threshold(estimate uint32, ratio float64) uint32 {
	v := math.Floor(ratio * float64(estimate))
	switch {
	case v <= 0:
		return 0
	case v >= math.MaxUint32:
		return math.MaxUint32
	}
	return uint32(v)
}

// DeriveThresholds scales estimate by the configured category ratios.
func DeriveThresholds(estimate uint32, cfg Config) Thresholds {
	th := Thresholds{
		MinNormal:   Threshold(estimate, cfg.MinNormalRatio),
		Repeat:      Threshold(estimate, cfg.RepeatRatio),
		HeavyRepeat: Threshold(estimate, cfg.HeavyRepeatRatio),
		CrazyRepeat: Threshold(estimate, cfg.CrazyRepeatRatio),
		Mask:        Threshold(estimate, cfg.MaskRatio),
	}
	th.Mask = max(th.Mask, cfg.MaskAbsoluteFloor)
	return th
}

// Category classifies a count.
func (t Thresholds) Category(count uint32) Category {
	switch {
	case count == 0:
		return CategoryUnseen
	case count == 1:
		return CategoryRare
	case count < t.MinNormal:
		return CategoryBelowNormal
	case count < t.Repeat:
		return CategoryNormal
	case count < t.HeavyRepeat:
		return CategoryRepeat
	case count < t.CrazyRepeat:
		return CategoryHeavyRepeat
	}
	return CategoryCrazyRepeat
}

// Masked reports whether count reaches the mask threshold.
func (t Thresholds) Masked(count uint32) bool {
	return t.Mask > 0 && count >= t.Mask
}

func (t Thresholds) String() string {
	return fmt.Sprintf("normal>=%d repeat>=%d heavy>=%d crazy>=%d mask>=%d",
		t.MinNormal, t.Repeat, t.HeavyRepeat, t.CrazyRepeat, t.Mask)
}
