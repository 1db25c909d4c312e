package main

import (
	"fmt"
	"image/color"
	"io"
	"math"

	"github.com/spf13/cobra"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/sidney/mira4-assembler-patches-sub001/hashstat"
)

func statsCommand() *cobra.Command {
	var configFile, plotFile string
	var trim float64
	var bins int
	cmd := &cobra.Command{
		Use:   "stats [flags] <index.hsix>",
		Short: "Print frequency statistics of an index",
		Long: `Print the frequency estimate, category thresholds and count histogram of an
index file. The statistics sidecar is used when present unless the trim or
configuration is overridden.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := hashstat.DefaultConfig()
			if configFile != "" {
				if err := hashstat.LoadConfigFile(configFile, &cfg); err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("trim") {
				cfg.TrimPercent = trim
				if err := cfg.Validate(); err != nil {
					return err
				}
			}

			s, err := loadStatistics(args[0], cfg, configFile == "" && !cmd.Flags().Changed("trim"))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			printStatistics(out, s)
			printHistogram(out, s.Histogram, bins)
			if plotFile != "" {
				return plotHistogram(plotFile, s)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&configFile, "config", "c", "", "TOML configuration file")
	cmd.Flags().Float64Var(&trim, "trim", hashstat.DefaultConfig().TrimPercent, "Estimator trim percent at each end")
	cmd.Flags().IntVar(&bins, "bins", 20, "Histogram rows to print, 0 for all")
	cmd.Flags().StringVar(&plotFile, "plot", "", "Write the count histogram plot to this file (.png, .svg or .pdf)")
	return cmd
}

// loadStatistics prefers the sidecar when asked to, but only if it was
// computed from the index now at indexPath.
func loadStatistics(indexPath string, cfg hashstat.Config, useSidecar bool) (*hashstat.Statistics, error) {
	ix, err := hashstat.ReadIndexFile(indexPath)
	if err != nil {
		return nil, err
	}
	if useSidecar {
		if s, err := hashstat.ReadStatisticsFile(hashstat.StatisticsPath(indexPath)); err == nil && s.Describes(ix) {
			return s, nil
		}
	}
	return hashstat.ComputeStatistics(ix, cfg)
}

func printStatistics(w io.Writer, s *hashstat.Statistics) {
	fmt.Fprintf(w, "k\t%d\n", s.K)
	fmt.Fprintf(w, "distinct\t%d\n", s.Records)
	fmt.Fprintf(w, "total\t%d\n", s.TotalCount)
	fmt.Fprintf(w, "mean\t%.2f\n", s.MeanCount)
	fmt.Fprintf(w, "stddev\t%.2f\n", s.StdDevCount)
	fmt.Fprintf(w, "estimate\t%d\n", s.Estimate)
	fmt.Fprintf(w, "trim\t%g%% (widened %d)\n", s.TrimPercent, s.Widened)
	if s.Fallback {
		fmt.Fprintln(w, "mass\tunrestricted")
	}
	fmt.Fprintf(w, "thresholds\t%s\n", s.Thresholds)
}

func printHistogram(w io.Writer, bins []hashstat.HistogramBin, limit int) {
	fmt.Fprintln(w, "count\tkeys")
	for i, b := range bins {
		if limit > 0 && i == limit {
			fmt.Fprintf(w, "...\t%d more\n", len(bins)-limit)
			return
		}
		fmt.Fprintf(w, "%d\t%d\n", b.Count, b.Keys)
	}
}

// plotHistogram draws the number of distinct keys per count on log scales,
// with the estimate and category thresholds as vertical markers.
func plotHistogram(path string, s *hashstat.Statistics) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("k-mer count histogram (k=%d)", s.K)
	p.X.Label.Text = "count"
	p.Y.Label.Text = "distinct k-mers"
	p.X.Scale = plot.LogScale{}
	p.Y.Scale = plot.LogScale{}
	p.X.Tick.Marker = plot.LogTicks{}
	p.Y.Tick.Marker = plot.LogTicks{}
	p.Add(plotter.NewGrid())

	pts := make(plotter.XYs, 0, len(s.Histogram))
	top := 1.0
	for _, b := range s.Histogram {
		pts = append(pts, plotter.XY{X: float64(b.Count), Y: float64(b.Keys)})
		top = math.Max(top, float64(b.Keys))
	}
	if len(pts) == 0 {
		return fmt.Errorf("%s: nothing to plot", path)
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	line.LineStyle.Color = color.RGBA{R: 50, G: 100, B: 200, A: 255}
	line.LineStyle.Width = vg.Points(2)
	p.Add(line)
	p.Legend.Add("keys", line)

	for _, m := range []struct {
		name  string
		count uint32
		c     color.RGBA
	}{
		{"estimate", s.Estimate, color.RGBA{R: 20, G: 160, B: 60, A: 255}},
		{"repeat", s.Thresholds.Repeat, color.RGBA{R: 230, G: 150, B: 20, A: 255}},
		{"mask", s.Thresholds.Mask, color.RGBA{R: 200, G: 30, B: 30, A: 255}},
	} {
		if m.count == 0 {
			continue
		}
		marker, err := plotter.NewLine(plotter.XYs{
			{X: float64(m.count), Y: 1},
			{X: float64(m.count), Y: top},
		})
		if err != nil {
			return err
		}
		marker.LineStyle.Color = m.c
		marker.LineStyle.Dashes = []vg.Length{vg.Points(3), vg.Points(3)}
		p.Add(marker)
		p.Legend.Add(m.name, marker)
	}
	p.Legend.Top = true

	return p.Save(10*vg.Inch, 4*vg.Inch, path)
}
