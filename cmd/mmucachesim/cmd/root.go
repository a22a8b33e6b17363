// Package cmd provides the command-line interface of mmucachesim.
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "mmucachesim",
	Short: "mmucachesim emulates the page-walk cache of an MMU.",
	Long: `mmucachesim emulates the page-walk cache of an MMU. ` +
		`It replays virtual address traces through a small fully associative ` +
		`cache of page-table steps and reports the hits and misses.`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		atexit.Exit(1)
	}
}
