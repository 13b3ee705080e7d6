package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/summit-group/dining-cli/internal/export"
	"github.com/summit-group/dining-cli/internal/store"
)

var (
	exportOut    string
	exportRegion string
	exportResort string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the venue directory to an XLSX workbook",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(false); err != nil {
			return err
		}

		st, err := initStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		n, err := export.WriteDirectory(cmd.Context(), st, store.VenueFilter{
			Region:   exportRegion,
			ResortID: exportResort,
		}, exportOut)
		if err != nil {
			return err
		}

		fmt.Printf("exported %d venue(s) to %s\n", n, exportOut)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportOut, "out", "venues.xlsx", "output file path")
	exportCmd.Flags().StringVar(&exportRegion, "region", "", "only export venues in this region")
	exportCmd.Flags().StringVar(&exportResort, "resort", "", "only export venues linked to this resort ID")
	rootCmd.AddCommand(exportCmd)
}
