package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of meeting-sentinel",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(stdout, "meeting-sentinel %s (commit: %s, built: %s)\n", version, commit, date)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
