package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "streamline",
	Short: "streamline - Kafka ingestion source",
	Long: `streamline consumes Kafka topics as a consumer group member, turns every
message into an event and forwards it to the configured sinks. Offsets are
committed only for messages that were fully processed.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(healthCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
