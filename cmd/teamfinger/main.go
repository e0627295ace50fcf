// Command teamfinger runs hand-pointer sketches over a webcam feed.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "teamfinger",
	Short: "Point at text with your index finger",
	Long: `teamfinger tracks the index fingertip in a webcam feed, smooths it into a
cursor and drives pointer effects (variable-font gradients, class
highlights) in an overlay window and over HTTP.`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "Config file (default ~/.teamfinger/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("db", "", "SQLite database path (default ~/.teamfinger/teamfinger.db)")
}
