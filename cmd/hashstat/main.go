// Command hashstat builds k-mer frequency indexes for read pools and runs the
// passes that consume them: statistics, digital normalization and bait
// screening.
package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/datatrails/go-datatrails-common/logger"
	"github.com/spf13/cobra"
)

const version = "0.3.0"

func versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("hashstat version %s\n", version)
			fmt.Printf("Go version: %s\n", runtime.Version())
			fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}

func rootCommand() *cobra.Command {
	var level string
	root := &cobra.Command{
		Use:   "hashstat",
		Short: "K-mer frequency statistics for sequencing read pools",
		Long: `hashstat counts every k-mer of a read pool, estimates the typical
coverage of a k-mer and classifies k-mers as rare, normal or repeat relative to
it. The index it builds is persisted for later passes.

Commands:
  build      count k-mers, write the index and its statistics
  stats      print statistics of an existing index, optionally plotted
  normalize  drop reads whose k-mers are already well covered
  screen     keep or drop reads matching a bait reference`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.New(level)
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.PersistentFlags().StringVar(&level, "log-level", "INFO", "Log level (DEBUG, INFO, NOOP)")

	root.AddCommand(buildCommand())
	root.AddCommand(statsCommand())
	root.AddCommand(normalizeCommand())
	root.AddCommand(screenCommand())
	root.AddCommand(versionCommand())
	return root
}

func main() {
	err := rootCommand().Execute()
	logger.OnExit()
	if err != nil {
		os.Exit(1)
	}
}
