// Command statsctl fetches and reconciles a player's stats from the terminal,
// using the same pipeline and cache as the server.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	verbose bool
	direct  bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "statsctl",
		Short: "Battlefield 6 stats from tracker.gg",
		Long: `statsctl fetches match history through a headless browser, reconciles
lifetime totals and caches the result in the local SQLite database.

Configuration is read from the environment and .env, as for the server.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug output to stderr")
	rootCmd.PersistentFlags().BoolVar(&direct, "direct", false, "fetch over plain HTTP instead of the headless browser")

	rootCmd.AddCommand(overviewCmd())
	rootCmd.AddCommand(historyCmd())
	rootCmd.AddCommand(playersCmd())

	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
