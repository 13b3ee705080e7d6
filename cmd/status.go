package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show store counts and total enrichment spend",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(false); err != nil {
			return err
		}

		st, err := initStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		stats, err := st.Stats(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Printf("resorts:      %d (%d active)\n", stats.Resorts, stats.ActiveResorts)
		fmt.Printf("venues:       %d\n", stats.Venues)
		fmt.Printf("links:        %d\n", stats.Links)
		fmt.Printf("log entries:  %d\n", stats.LogEntries)
		fmt.Printf("total spend:  $%.4f\n", stats.TotalCostUSD)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
