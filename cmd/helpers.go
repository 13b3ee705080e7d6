package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/summit-group/dining-cli/internal/blob"
	"github.com/summit-group/dining-cli/internal/cost"
	"github.com/summit-group/dining-cli/internal/llm"
	"github.com/summit-group/dining-cli/internal/pipeline"
	"github.com/summit-group/dining-cli/internal/ratelimit"
	"github.com/summit-group/dining-cli/internal/store"
	"github.com/summit-group/dining-cli/pkg/anthropic"
)

// pipelineDeps holds the long-lived collaborators an enrichment run
// needs. Enrichers themselves are run-scoped and built per run via
// newEnricher.
type pipelineDeps struct {
	store   store.Store
	blob    blob.Store
	client  llm.Client
	limiter *ratelimit.Limiter
}

// initStore opens the configured database backend and applies migrations.
func initStore(ctx context.Context) (store.Store, error) {
	var (
		st  store.Store
		err error
	)
	switch cfg.Store.Driver {
	case "sqlite":
		st, err = store.NewSQLite(cfg.Store.DatabaseURL)
	default:
		st, err = store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	}
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, eris.Wrap(err, "cmd: migrate store")
	}
	return st, nil
}

// initBlob returns the audit blob store, or nil when no bucket is
// configured. Audit blobs are optional.
func initBlob() blob.Store {
	if cfg.Blob.Bucket == "" {
		zap.L().Debug("no audit bucket configured")
		return nil
	}
	return blob.NewS3(cfg.Blob)
}

// rateTable merges configured pricing overrides onto the built-in table.
func rateTable() map[string]cost.ModelRate {
	rates := cost.DefaultRates()
	for model, p := range cfg.Pricing.Anthropic {
		rates[model] = cost.ModelRate{InputPer1K: p.Input, OutputPer1K: p.Output}
	}
	return rates
}

// newCalculator builds the cost calculator. Models without a rate entry
// are billed at cost.DefaultModel's rates, whatever model is configured.
func newCalculator() *cost.Calculator {
	return cost.NewCalculator(rateTable(), "")
}

// initDeps wires the shared pipeline collaborators. The caller owns the
// returned store and must close it.
func initDeps(ctx context.Context) (*pipelineDeps, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	api := anthropic.NewClient(cfg.Anthropic.Key)
	client := llm.NewClient(api, newCalculator(), cfg.Anthropic.Model, cfg.Anthropic.MaxTokens)

	return &pipelineDeps{
		store:   st,
		blob:    initBlob(),
		client:  client,
		limiter: ratelimit.New(cfg.Enrich.MinDelay()),
	}, nil
}

// newEnricher builds a fresh run-scoped Enricher. The seen-set and run
// summary live on the Enricher, so concurrent or successive runs must not
// share one instance.
func (d *pipelineDeps) newEnricher() *pipeline.Enricher {
	return pipeline.NewEnricher(d.store, d.blob, d.client, d.limiter)
}
