// Package pipeline orchestrates enrichment runs: one rate-limited
// provider call per resort, validation, dedup, persistence, and audit.
package pipeline

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/summit-group/dining-cli/internal/blob"
	"github.com/summit-group/dining-cli/internal/dedupe"
	"github.com/summit-group/dining-cli/internal/geo"
	"github.com/summit-group/dining-cli/internal/llm"
	"github.com/summit-group/dining-cli/internal/model"
	"github.com/summit-group/dining-cli/internal/normalize"
	"github.com/summit-group/dining-cli/internal/ratelimit"
	"github.com/summit-group/dining-cli/internal/resilience"
	"github.com/summit-group/dining-cli/internal/store"
)

// linkRadiusFactor guards against the provider returning venues far
// outside the requested search radius: no link is written beyond
// 1.5x the radius, whatever the provider claimed.
const linkRadiusFactor = 1.5

// Options narrows which resorts a run covers.
type Options struct {
	ResortID string
	Region   string
	Limit    int
}

func (o Options) filter() store.ResortFilter {
	return store.ResortFilter{
		ID:     o.ResortID,
		Region: o.Region,
		Limit:  o.Limit,
	}
}

// Enricher runs the per-resort enrichment state machine. Construct a
// fresh instance per run; the seen-set and summary are run-scoped.
type Enricher struct {
	store    store.Store
	blob     blob.Store
	llm      llm.Client
	limiter  *ratelimit.Limiter
	resolver *dedupe.Resolver
	retry    resilience.RetryConfig

	summary model.RunSummary
}

// NewEnricher wires the pipeline's collaborators. blobStore may be nil
// when no audit bucket is configured; audit writes are skipped then.
func NewEnricher(st store.Store, blobStore blob.Store, client llm.Client, limiter *ratelimit.Limiter) *Enricher {
	cfg := resilience.DefaultRetryConfig()
	cfg.OnRetry = resilience.RetryLogger("anthropic", "venue_query")
	return &Enricher{
		store:    st,
		blob:     blobStore,
		llm:      client,
		limiter:  limiter,
		resolver: dedupe.NewResolver(st),
		retry:    cfg,
	}
}

// EnrichAll processes every eligible resort matching opts, sequentially
// and in name order. A resort failure never aborts the run.
func (e *Enricher) EnrichAll(ctx context.Context, opts Options) (*model.RunSummary, error) {
	resorts, err := e.store.ListEligibleResorts(ctx, opts.filter())
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: list resorts")
	}
	if len(resorts) == 0 {
		zap.L().Info("no eligible resorts matched", zap.String("region", opts.Region))
		return &e.summary, nil
	}
	return e.run(ctx, resorts), nil
}

// EnrichOne processes a single resort by identifier.
func (e *Enricher) EnrichOne(ctx context.Context, id string) (*model.RunSummary, error) {
	resort, err := e.store.GetResort(ctx, id)
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: get resort %s", id)
	}
	if resort == nil {
		return nil, eris.Errorf("pipeline: resort %s not found", id)
	}
	return e.run(ctx, []model.ResortQuery{*resort}), nil
}

// DryRun reports what a run would cover without calling the provider or
// writing anywhere.
func (e *Enricher) DryRun(ctx context.Context, opts Options) ([]model.ResortQuery, error) {
	resorts, err := e.store.ListEligibleResorts(ctx, opts.filter())
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: list resorts")
	}
	for _, r := range resorts {
		zap.L().Info("would enrich",
			zap.String("resort", r.Name),
			zap.String("resort_id", r.ID),
			zap.Float64("radius_miles", r.SearchRadiusMiles),
			zap.Int("max_venues", r.MaxVenues),
		)
	}
	return resorts, nil
}

func (e *Enricher) run(ctx context.Context, resorts []model.ResortQuery) *model.RunSummary {
	start := time.Now()
	for _, resort := range resorts {
		// Cancellation is coarse: between resorts only.
		if ctx.Err() != nil {
			zap.L().Warn("run interrupted", zap.Int("remaining", len(resorts)-e.summary.ResortsProcessed))
			break
		}
		e.summary.Record(e.enrichResort(ctx, resort))
	}
	e.summary.Duration = time.Since(start)
	logSummary(&e.summary)
	return &e.summary
}

// enrichResort runs the full state machine for one resort and always
// produces an outcome; no error escapes.
func (e *Enricher) enrichResort(ctx context.Context, resort model.ResortQuery) model.EnrichmentOutcome {
	start := time.Now()
	outcome := model.EnrichmentOutcome{
		ResortID:   resort.ID,
		ResortName: resort.Name,
	}

	zap.L().Info("enriching resort",
		zap.String("resort", resort.Name),
		zap.Float64("radius_miles", resort.SearchRadiusMiles),
	)

	if err := e.limiter.Wait(ctx); err != nil {
		outcome.Status = model.OutcomeFailed
		outcome.Error = err.Error()
		outcome.Duration = time.Since(start)
		e.writeLog(ctx, resort, outcome, nil)
		return outcome
	}

	resp, err := resilience.DoVal(ctx, e.retry, func(ctx context.Context) (*llm.VenueResponse, error) {
		return e.llm.RequestVenues(ctx, resort)
	})
	if err != nil {
		zap.L().Error("provider call failed",
			zap.String("resort", resort.Name),
			zap.Error(err),
		)
		outcome.Status = model.OutcomeFailed
		outcome.Error = err.Error()
		outcome.Duration = time.Since(start)
		e.writeLog(ctx, resort, outcome, nil)
		return outcome
	}
	outcome.Usage = resp.Usage
	outcome.CostUSD = resp.Cost

	valid, rejected := normalize.Normalize(resp.Venues, resort.NearestCity, resort.Region)
	outcome.VenuesFound = len(valid)

	// Distance from the resort is recorded for every valid venue, even
	// ones the radius filter later excludes from linking.
	distances := make([]float64, len(valid))
	for i, v := range valid {
		distances[i] = geo.Round2(geo.DistanceMiles(resort.Latitude, resort.Longitude, v.Latitude, v.Longitude))
	}

	e.writeAudit(ctx, resort, valid, distances, rejected, resp)

	if len(valid) == 0 {
		zap.L().Warn("no valid venues",
			zap.String("resort", resort.Name),
			zap.Int("rejected", len(rejected)),
		)
		outcome.Status = model.OutcomeNoResults
		outcome.Duration = time.Since(start)
		e.writeLog(ctx, resort, outcome, resp.Raw)
		return outcome
	}

	// The same venue may serve several resorts in one run; the seen-set
	// is per resort.
	e.resolver.Reset()

	maxLinkMiles := resort.SearchRadiusMiles * linkRadiusFactor
	for i, venue := range valid {
		e.processVenue(ctx, resort, venue, distances[i], maxLinkMiles, &outcome)
	}

	if outcome.VenuesLinked > 0 {
		outcome.Status = model.OutcomeSuccess
	} else {
		outcome.Status = model.OutcomePartial
	}
	outcome.Duration = time.Since(start)
	e.writeLog(ctx, resort, outcome, resp.Raw)

	zap.L().Info("resort enriched",
		zap.String("resort", resort.Name),
		zap.String("status", string(outcome.Status)),
		zap.Int("found", outcome.VenuesFound),
		zap.Int("created", outcome.VenuesCreated),
		zap.Int("updated", outcome.VenuesUpdated),
		zap.Int("linked", outcome.VenuesLinked),
		zap.Float64("cost_usd", outcome.CostUSD),
	)
	return outcome
}

// processVenue resolves, persists, and links a single venue. Failures
// are logged and skip the venue; they never abort the resort.
func (e *Enricher) processVenue(ctx context.Context, resort model.ResortQuery, venue model.Venue, distMiles, maxLinkMiles float64, outcome *model.EnrichmentOutcome) {
	res, err := e.resolver.Resolve(ctx, venue)
	if err != nil {
		zap.L().Warn("venue resolution failed",
			zap.String("venue", venue.Name),
			zap.Error(err),
		)
		return
	}
	if res.DuplicateInBatch {
		zap.L().Debug("duplicate venue in batch", zap.String("slug", venue.Slug))
		return
	}

	id, created, err := e.store.UpsertVenue(ctx, res.Venue)
	if err != nil {
		zap.L().Warn("venue upsert failed",
			zap.String("venue", venue.Name),
			zap.Error(err),
		)
		return
	}
	if created {
		outcome.VenuesCreated++
	} else {
		outcome.VenuesUpdated++
	}

	if distMiles > maxLinkMiles {
		zap.L().Warn("venue outside link radius",
			zap.String("venue", venue.Name),
			zap.Float64("distance_miles", distMiles),
			zap.Float64("max_miles", maxLinkMiles),
		)
		return
	}

	link := model.ResortVenueLink{
		ResortID:         resort.ID,
		VenueID:          id,
		DistanceMiles:    distMiles,
		DriveTimeMinutes: geo.EstimateDriveMinutes(distMiles),
		OnMountain:       venue.OnMountain || geo.OnMountain(distMiles),
	}
	if err := e.store.UpsertLink(ctx, link); err != nil {
		zap.L().Warn("link upsert failed",
			zap.String("venue", venue.Name),
			zap.Error(err),
		)
		return
	}
	outcome.VenuesLinked++
}

// writeAudit puts the point-in-time snapshot to object storage. Best
// effort: the relational store is the authoritative sink, so a blob
// failure downgrades to a warning.
func (e *Enricher) writeAudit(ctx context.Context, resort model.ResortQuery, venues []model.Venue, distances []float64, rejected []normalize.Rejection, resp *llm.VenueResponse) {
	if e.blob == nil {
		zap.L().Debug("no audit bucket configured, skipping blob write")
		return
	}

	doc := model.AuditDocument{
		ResortID:          resort.ID,
		ResortName:        resort.Name,
		GeneratedAt:       time.Now().UTC(),
		SearchRadiusMiles: resort.SearchRadiusMiles,
		MaxVenues:         resort.MaxVenues,
		Latitude:          resort.Latitude,
		Longitude:         resort.Longitude,
		Usage:             resp.Usage,
		CostUSD:           resp.Cost,
		RawResponse:       resp.Raw,
	}
	for i, v := range venues {
		doc.Venues = append(doc.Venues, model.AuditVenue{Venue: v, DistanceMiles: distances[i]})
	}
	for _, r := range rejected {
		doc.Rejected = append(doc.Rejected, model.AuditRejection{Name: r.Name, Reason: r.Reason})
	}

	data, err := json.Marshal(doc)
	if err != nil {
		zap.L().Warn("audit document marshal failed", zap.Error(err))
		return
	}

	key := blob.PathFor(assetPath(resort))
	if err := e.blob.Put(ctx, key, data); err != nil {
		zap.L().Warn("audit blob write failed",
			zap.String("key", key),
			zap.Error(err),
		)
		return
	}
	zap.L().Debug("audit blob written", zap.String("key", key))
}

// writeLog appends the per-resort audit row. Losing a log row is
// acceptable; losing the enrichment is not, so failures only warn.
func (e *Enricher) writeLog(ctx context.Context, resort model.ResortQuery, outcome model.EnrichmentOutcome, raw json.RawMessage) {
	entry := model.EnrichmentLogEntry{
		ResortID:         resort.ID,
		Status:           outcome.Status,
		VenuesFound:      outcome.VenuesFound,
		VenuesCreated:    outcome.VenuesCreated,
		VenuesUpdated:    outcome.VenuesUpdated,
		VenuesLinked:     outcome.VenuesLinked,
		Error:            outcome.Error,
		RadiusMiles:      resort.SearchRadiusMiles,
		Latitude:         resort.Latitude,
		Longitude:        resort.Longitude,
		PromptTokens:     outcome.Usage.PromptTokens,
		CompletionTokens: outcome.Usage.CompletionTokens,
		CostUSD:          outcome.CostUSD,
		DurationMS:       outcome.Duration.Milliseconds(),
		RawResponse:      raw,
	}
	if err := e.store.AppendLogEntry(ctx, entry); err != nil {
		zap.L().Warn("log entry write failed",
			zap.String("resort", resort.Name),
			zap.Error(err),
		)
	}
}

// assetPath picks the blob path segment for a resort, deriving one from
// the name when the operator never assigned an asset path.
func assetPath(resort model.ResortQuery) string {
	if resort.AssetPath != "" {
		return resort.AssetPath
	}
	return normalize.Slug(resort.Name, resort.Region)
}
