package hashstat

import (
	"errors"
	"path/filepath"
	"strings"
)

// PassResult is everything one statistics pass produced.
type PassResult struct {
	Index      *Index
	Build      BuildStats
	Statistics *Statistics
	Branches   int
	Annotate   AnnotateStats
}

// BuildIndex runs the constructor selected by the configured bloom mode.
func BuildIndex(bc *BuildContext, reads []*Read) (*Index, BuildStats, error) {
	if bc.Config.BloomMode != BloomOff {
		b, err := NewBloomBuilder(bc)
		if err != nil {
			return nil, BuildStats{}, err
		}
		return b.Build(reads)
	}
	b, err := NewBuilder(bc)
	if err != nil {
		return nil, BuildStats{}, err
	}
	return b.Build(reads)
}

// StatisticsPath is the sidecar path for an index file.
func StatisticsPath(indexPath string) string {
	return strings.TrimSuffix(indexPath, filepath.Ext(indexPath)) + ".stats"
}

// RunPass builds the index for reads, marks branches, optionally persists the
// index with its statistics and annotates every read. Any failure aborts the
// pass with no result. An index with nothing seen twice has no statistics;
// reads are then left cleared rather than annotated against made up
// thresholds.
func RunPass(bc *BuildContext, reads []*Read, indexPath string) (*PassResult, error) {
	ix, bs, err := BuildIndex(bc, reads)
	if err != nil {
		return nil, err
	}
	res := &PassResult{Index: ix, Build: bs}

	stats, err := ComputeStatistics(ix, bc.Config)
	switch {
	case errors.Is(err, ErrNoStatistics):
		bc.Log.Infof("pass %s: no k-mer seen twice, skipping annotation", bc.RunID)
		for _, r := range reads {
			r.Annotation.Reset(len(r.Seq))
		}
	case err != nil:
		return nil, err
	default:
		res.Statistics = stats
		bc.Log.Infof("pass %s: estimate=%d trim=%g widened=%d fallback=%v %s",
			bc.RunID, stats.Estimate, stats.TrimPercent, stats.Widened, stats.Fallback, stats.Thresholds)
	}

	if stats != nil && bc.Config.DetectBranches {
		res.Branches = DetectBranches(ix, bc.Config.BranchMinCount)
		bc.Log.Infof("pass %s: %d branch k-mers", bc.RunID, res.Branches)
	}

	if indexPath != "" {
		// Whatever sidecar an earlier pass left describes another index.
		if err := RemoveStatisticsFile(StatisticsPath(indexPath)); err != nil {
			return nil, err
		}
		if err := WriteIndexFile(indexPath, ix); err != nil {
			return nil, err
		}
		if stats != nil {
			if err := WriteStatisticsFile(StatisticsPath(indexPath), stats); err != nil {
				return nil, err
			}
		}
	}

	if stats == nil {
		return res, nil
	}
	a, err := NewAnnotator(bc, ix, stats.Thresholds)
	if err != nil {
		return nil, err
	}
	if res.Annotate, err = a.Annotate(reads); err != nil {
		return nil, err
	}
	return res, nil
}
