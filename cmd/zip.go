package main

import "github.com/spf13/cobra"

var zipCmd = &cobra.Command{
	Use:   "zip",
	Short: "ZIP code validation and geometry queries",
	Long:  "Validate ZIP codes against county boundary data and answer centroid, area, containment, and proximity queries.",
}

func init() { rootCmd.AddCommand(zipCmd) }
