package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sidney/mira4-assembler-patches-sub001/hashstat"
)

func normalizeCommand() *cobra.Command {
	var output string
	var limit uint32
	cmd := &cobra.Command{
		Use:   "normalize [flags] <reads.fa|fq> ...",
		Short: "Digitally normalize reads against their own k-mer counts",
		Long: `Build an index of the input reads, then greedily drop reads whose every k-mer
is already covered by the cap number of kept reads. Reads are visited one input
file at a time, high confidence reads first. Kept reads are written out.`,
		Args: cobra.MinimumNArgs(1),
	}
	flags := addBuildFlags(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "-", `Output file ("-" for stdout)`)
	cmd.Flags().Uint32Var(&limit, "cap", hashstat.DefaultConfig().DigitalNormCap, "Coverage cap per k-mer")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		bc, err := flags.context("normalize")
		if err != nil {
			return err
		}
		defer bc.Close()
		if cmd.Flags().Changed("cap") {
			bc.Config.DigitalNormCap = limit
		}

		p, err := flags.reads(args)
		if err != nil {
			return err
		}
		ix, _, err := hashstat.BuildIndex(bc, p.reads)
		if err != nil {
			return err
		}
		n, err := hashstat.NewNormalizer(bc, ix)
		if err != nil {
			return err
		}
		st, err := n.Run(p.reads)
		if err != nil {
			return err
		}
		if _, err := p.write(output, func(r *hashstat.Read) bool { return !r.Removed }); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "considered %d, kept %d, removed %d, skipped %d\n",
			st.Considered, st.Kept, st.Removed, st.Skipped)
		return nil
	}
	return cmd
}
