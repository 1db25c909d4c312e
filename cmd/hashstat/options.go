package main

import (
	"github.com/datatrails/go-datatrails-common/logger"
	"github.com/spf13/cobra"

	"github.com/sidney/mira4-assembler-patches-sub001/hashstat"
)

// buildFlags are the configuration flags shared by every command that builds
// an index. Flags override the config file, which overrides the defaults.
type buildFlags struct {
	configFile string
	k          int
	bloom      string
	noRC       bool
	retain     bool
	threads    int
	tempDir    string
	compress   bool
	tech       string
	skip       bool
	progress   bool

	cmd *cobra.Command
}

func addBuildFlags(cmd *cobra.Command) *buildFlags {
	f := &buildFlags{cmd: cmd}
	def := hashstat.DefaultConfig()
	fs := cmd.Flags()
	fs.StringVarP(&f.configFile, "config", "c", "", "TOML configuration file")
	fs.IntVarP(&f.k, "kmer-size", "k", def.K, "K-mer size (1-32)")
	fs.StringVar(&f.bloom, "bloom", def.BloomMode.String(), "Bloom filter mode: off, 1-pass, 2-pass or 3-pass")
	fs.BoolVar(&f.noRC, "no-revcomp", false, "Do not count reverse complement k-mers")
	fs.BoolVar(&f.retain, "retain-singletons", def.RetainSingletons, "Keep k-mers seen once in the index")
	fs.IntVarP(&f.threads, "threads", "t", def.Threads, "Number of threads")
	fs.StringVar(&f.tempDir, "tmp", "", "Directory for spill files (default system temp)")
	fs.BoolVar(&f.compress, "compress-spill", false, "Compress spill files with zstd")
	fs.StringVar(&f.tech, "tech", hashstat.TechSolexa.String(), "Sequencing technology of the inputs")
	fs.BoolVar(&f.skip, "skip-invalid", false, "Skip reads with unrecognized bases instead of failing")
	fs.BoolVar(&f.progress, "progress", false, "Show a progress bar while reading inputs")
	return f
}

func (f *buildFlags) config() (hashstat.Config, error) {
	cfg := hashstat.DefaultConfig()
	if f.configFile != "" {
		if err := hashstat.LoadConfigFile(f.configFile, &cfg); err != nil {
			return cfg, err
		}
	}
	changed := f.cmd.Flags().Changed
	if changed("kmer-size") {
		cfg.K = f.k
	}
	if changed("bloom") {
		m, err := hashstat.ParseBloomMode(f.bloom)
		if err != nil {
			return cfg, err
		}
		cfg.BloomMode = m
	}
	if changed("no-revcomp") {
		cfg.AlsoReverseComplement = !f.noRC
	}
	if changed("retain-singletons") {
		cfg.RetainSingletons = f.retain
	}
	if changed("threads") {
		cfg.Threads = f.threads
	}
	if changed("tmp") {
		cfg.TempDir = f.tempDir
	}
	if changed("compress-spill") {
		cfg.CompressSpill = f.compress
	}
	if changed("skip-invalid") {
		cfg.SkipInvalidReads = f.skip
	}
	return cfg, cfg.Validate()
}

func (f *buildFlags) technology() (hashstat.Technology, error) {
	return hashstat.ParseTechnology(f.tech)
}

// context returns a build context for the command's configuration. The caller
// closes it.
func (f *buildFlags) context(name string) (*hashstat.BuildContext, error) {
	cfg, err := f.config()
	if err != nil {
		return nil, err
	}
	return hashstat.NewBuildContext(logger.Sugar.WithServiceName(name), hashstat.WithConfig(cfg))
}

// reads loads every input file, one read group per file.
func (f *buildFlags) reads(files []string) (*pool, error) {
	tech, err := f.technology()
	if err != nil {
		return nil, err
	}
	return loadPool(files, tech, f.progress)
}
