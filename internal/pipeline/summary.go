package pipeline

import (
	"go.uber.org/zap"

	"github.com/summit-group/dining-cli/internal/model"
)

// logSummary emits the end-of-run report. Every run ends with one, even
// when every resort failed.
func logSummary(s *model.RunSummary) {
	zap.L().Info("run complete",
		zap.Int("resorts_processed", s.ResortsProcessed),
		zap.Int("succeeded", s.Succeeded),
		zap.Int("partial", s.Partial),
		zap.Int("failed", s.Failed),
		zap.Int("no_results", s.NoResults),
		zap.Int("venues_found", s.VenuesFound),
		zap.Int("venues_created", s.VenuesCreated),
		zap.Int("venues_updated", s.VenuesUpdated),
		zap.Int("venues_linked", s.VenuesLinked),
		zap.Float64("total_cost_usd", s.TotalCostUSD),
		zap.Duration("duration", s.Duration),
	)
}
