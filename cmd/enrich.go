package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/summit-group/dining-cli/internal/model"
	"github.com/summit-group/dining-cli/internal/pipeline"
)

var (
	enrichResortID string
	enrichRegion   string
	enrichLimit    int
	enrichDryRun   bool
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Run venue enrichment for eligible resorts",
	Long:  "Queries Claude for dining venues near each eligible resort, validates and deduplicates the results, and writes venues, links, and audit records.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(!enrichDryRun); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if enrichDryRun {
			st, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			enricher := pipeline.NewEnricher(st, nil, nil, nil)
			resorts, err := enricher.DryRun(ctx, pipeline.Options{
				ResortID: enrichResortID,
				Region:   enrichRegion,
				Limit:    enrichLimit,
			})
			if err != nil {
				return err
			}
			fmt.Printf("dry run: %d resort(s) would be enriched\n", len(resorts))
			return nil
		}

		deps, err := initDeps(ctx)
		if err != nil {
			return err
		}
		defer deps.store.Close()

		enricher := deps.newEnricher()

		var summary *model.RunSummary
		if enrichResortID != "" {
			summary, err = enricher.EnrichOne(ctx, enrichResortID)
		} else {
			summary, err = enricher.EnrichAll(ctx, pipeline.Options{Region: enrichRegion, Limit: enrichLimit})
		}
		if err != nil {
			return err
		}

		fmt.Printf("processed %d resort(s): %d success, %d partial, %d failed, %d no results\n",
			summary.ResortsProcessed, summary.Succeeded, summary.Partial, summary.Failed, summary.NoResults)
		fmt.Printf("venues: %d found, %d created, %d updated, %d linked ($%.4f)\n",
			summary.VenuesFound, summary.VenuesCreated, summary.VenuesUpdated, summary.VenuesLinked, summary.TotalCostUSD)

		if summary.Failed > 0 {
			zap.L().Warn("some resorts failed", zap.Int("failed", summary.Failed))
		}
		return nil
	},
}

func init() {
	enrichCmd.Flags().StringVar(&enrichResortID, "resort", "", "enrich a single resort by ID")
	enrichCmd.Flags().StringVar(&enrichRegion, "region", "", "only enrich resorts in this region")
	enrichCmd.Flags().IntVar(&enrichLimit, "limit", 0, "max resorts to process (0 = all)")
	enrichCmd.Flags().BoolVar(&enrichDryRun, "dry-run", false, "list resorts without calling the provider or writing")
	rootCmd.AddCommand(enrichCmd)
}
