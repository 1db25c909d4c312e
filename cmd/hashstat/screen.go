package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sidney/mira4-assembler-patches-sub001/hashstat"
)

func screenCommand() *cobra.Command {
	var bait, output string
	var hits int
	var invert bool
	cmd := &cobra.Command{
		Use:   "screen [flags] --bait <ref.fa> <reads.fa|fq> ...",
		Short: "Select reads sharing k-mers with a bait reference",
		Long: `Index the bait reference in both orientations and write the reads with at
least the hit threshold of k-mers in it. With --invert the non-matching reads
are written instead, which removes contaminants or adaptors.`,
		Args: cobra.MinimumNArgs(1),
	}
	flags := addBuildFlags(cmd)
	cmd.Flags().StringVarP(&bait, "bait", "b", "", "Bait reference sequences")
	cmd.Flags().StringVarP(&output, "output", "o", "-", `Output file ("-" for stdout)`)
	cmd.Flags().IntVarP(&hits, "min-hits", "n", hashstat.DefaultConfig().BaitHitThreshold, "Minimum k-mer hits for a match")
	cmd.Flags().BoolVarP(&invert, "invert", "v", false, "Write reads that do not match")
	_ = cmd.MarkFlagRequired("bait")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		bc, err := flags.context("screen")
		if err != nil {
			return err
		}
		defer bc.Close()
		if cmd.Flags().Changed("min-hits") {
			bc.Config.BaitHitThreshold = hits
			if err := bc.Config.Validate(); err != nil {
				return err
			}
		}

		// Reference sequence is not clipped.
		ref, err := loadPool([]string{bait}, hashstat.TechText, false)
		if err != nil {
			return err
		}
		s, err := hashstat.NewBaitScreener(bc, ref.reads)
		if err != nil {
			return err
		}

		p, err := flags.reads(args)
		if err != nil {
			return err
		}
		st, err := s.Screen(p.reads)
		if err != nil {
			return err
		}
		written, err := p.write(output, func(r *hashstat.Read) bool { return r.BaitMatch != invert })
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "screened %d reads against %d bait k-mers: %d matched, %d skipped, %d written\n",
			st.Reads, s.Index().Len(), st.Matched, st.SkippedReads, written)
		return nil
	}
	return cmd
}
