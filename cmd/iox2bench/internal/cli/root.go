// Package cli assembles iox2bench's cobra command tree.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"iox2"
)

var (
	sharedDir  string
	timeoutSec int
)

var rootCmd = &cobra.Command{
	Use:   "iox2bench",
	Short: "Benchmark and exercise the iox2 publish-subscribe and event patterns",
	Long: "iox2bench drives short-lived publisher/subscriber and notifier/listener\n" +
		"roles against a shared directory, the way two independent processes\n" +
		"would in a real deployment. Samples reach a subscriber only from\n" +
		"publishers in the same process.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&sharedDir, "dir", "/tmp/iox2bench", "shared directory both roles attach to")
	rootCmd.PersistentFlags().IntVar(&timeoutSec, "creation-timeout", 5, "seconds to wait before reporting a stalled service creation")
}

// Execute runs the command tree, returning the first error encountered.
func Execute() error {
	return rootCmd.Execute()
}

func newNode() (*iox2.Node, error) {
	node, err := iox2.NewNodeBuilder(sharedDir).
		WithCreationTimeout(secondsToDuration(timeoutSec)).
		Create()
	if err != nil {
		return nil, fmt.Errorf("creating node: %w", err)
	}
	return node, nil
}
