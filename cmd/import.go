package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/summit-group/dining-cli/internal/resorts"
)

var importFile string

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import resort definitions from a YAML seed file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(false); err != nil {
			return err
		}

		seed, err := resorts.Load(importFile)
		if err != nil {
			return err
		}

		st, err := initStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		for _, r := range seed {
			if err := st.UpsertResort(cmd.Context(), r); err != nil {
				return err
			}
			zap.L().Info("resort imported",
				zap.String("resort", r.Name),
				zap.String("region", r.Region),
			)
		}

		fmt.Printf("imported %d resort(s) from %s\n", len(seed), importFile)
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importFile, "file", "resorts.yaml", "path to the resort seed file")
	rootCmd.AddCommand(importCmd)
}
