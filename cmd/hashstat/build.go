package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sidney/mira4-assembler-patches-sub001/hashstat"
)

func buildCommand() *cobra.Command {
	var output string
	var branches bool
	cmd := &cobra.Command{
		Use:   "build [flags] <reads.fa|fq> ...",
		Short: "Count k-mers and write the index with its statistics",
		Long: `Count every k-mer of the input reads and write the index file together with
a statistics sidecar (the index name with a .stats extension).

Each input file is one read group.`,
		Args: cobra.MinimumNArgs(1),
	}
	flags := addBuildFlags(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "reads.hsix", "Output index file")
	cmd.Flags().BoolVar(&branches, "detect-branches", false, "Mark k-mers with a confirmed single base sibling")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		bc, err := flags.context("build")
		if err != nil {
			return err
		}
		defer bc.Close()
		if cmd.Flags().Changed("detect-branches") {
			bc.Config.DetectBranches = branches
		}

		p, err := flags.reads(args)
		if err != nil {
			return err
		}
		res, err := hashstat.RunPass(bc, p.reads, output)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "reads\t%d\n", res.Build.Reads)
		fmt.Fprintf(out, "skipped\t%d\n", res.Build.SkippedReads)
		fmt.Fprintf(out, "windows\t%d\n", res.Build.Windows)
		fmt.Fprintf(out, "records\t%d\n", res.Index.Len())
		if res.Statistics == nil {
			fmt.Fprintln(out, "estimate\tnone (no k-mer seen twice)")
			return nil
		}
		printStatistics(out, res.Statistics)
		if bc.Config.DetectBranches {
			fmt.Fprintf(out, "branches\t%d\n", res.Branches)
		}
		return nil
	}
	return cmd
}
