package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global output flags only
	verbose bool
	quiet   bool
)

var rootCmd = &cobra.Command{
	Use:   "binspect",
	Short: "Binary file inspection companion for the serializer",
	Long: `binspect is a command-line companion to the go-binserializer library for
reverse-engineering workflows on binary files.

Commands:
  hexdump     Dump a file region as hex, optionally XOR-unmasked
  checksum    Compute a checksum over a file region
  decode      Run a stream codec over a file into a new file
  xor         Mask or unmask a whole file with an XOR key
  coverage    Summarize a read-coverage map image`,
	Version: "0.1.0-dev",
}

// Execute runs the root command and exits with status 1 on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress output except errors")
}
