package model

import (
	"encoding/json"
	"time"
)

// OutcomeStatus is the per-resort result of an enrichment attempt.
type OutcomeStatus string

const (
	OutcomeSuccess   OutcomeStatus = "success"
	OutcomePartial   OutcomeStatus = "partial"
	OutcomeFailed    OutcomeStatus = "failed"
	OutcomeNoResults OutcomeStatus = "no_results"
)

// TokenUsage tracks provider token consumption for one call or one run.
type TokenUsage struct {
	PromptTokens     int64 `json:"prompt_tokens"`
	CompletionTokens int64 `json:"completion_tokens"`
}

// Add accumulates usage from another call.
func (u *TokenUsage) Add(other TokenUsage) {
	u.PromptTokens += other.PromptTokens
	u.CompletionTokens += other.CompletionTokens
}

// Total returns the combined token count.
func (u TokenUsage) Total() int64 {
	return u.PromptTokens + u.CompletionTokens
}

// EnrichmentOutcome is the immutable per-resort result of one run.
type EnrichmentOutcome struct {
	ResortID   string        `json:"resort_id"`
	ResortName string        `json:"resort_name"`
	Status     OutcomeStatus `json:"status"`

	VenuesFound   int `json:"venues_found"`
	VenuesCreated int `json:"venues_created"`
	VenuesUpdated int `json:"venues_updated"`
	VenuesLinked  int `json:"venues_linked"`

	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
	Usage    TokenUsage    `json:"usage"`
	CostUSD  float64       `json:"cost_usd"`
}

// EnrichmentLogEntry is the append-only audit row written to the store for
// every resort processed, including failures.
type EnrichmentLogEntry struct {
	ID       string        `json:"id"`
	ResortID string        `json:"resort_id"`
	Status   OutcomeStatus `json:"status"`

	VenuesFound   int `json:"venues_found"`
	VenuesCreated int `json:"venues_created"`
	VenuesUpdated int `json:"venues_updated"`
	VenuesLinked  int `json:"venues_linked"`

	Error       string  `json:"error,omitempty"`
	RadiusMiles float64 `json:"radius_miles"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`

	PromptTokens     int64   `json:"prompt_tokens"`
	CompletionTokens int64   `json:"completion_tokens"`
	CostUSD          float64 `json:"cost_usd"`
	DurationMS       int64   `json:"duration_ms"`

	RawResponse json.RawMessage `json:"raw_response,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// RunSummary aggregates outcomes across one run.
type RunSummary struct {
	ResortsProcessed int `json:"resorts_processed"`
	Succeeded        int `json:"succeeded"`
	Partial          int `json:"partial"`
	Failed           int `json:"failed"`
	NoResults        int `json:"no_results"`

	VenuesFound   int `json:"venues_found"`
	VenuesCreated int `json:"venues_created"`
	VenuesUpdated int `json:"venues_updated"`
	VenuesLinked  int `json:"venues_linked"`

	TotalCostUSD float64       `json:"total_cost_usd"`
	Duration     time.Duration `json:"duration"`

	Outcomes []EnrichmentOutcome `json:"outcomes"`
}

// Record folds a per-resort outcome into the run aggregates.
func (s *RunSummary) Record(o EnrichmentOutcome) {
	s.ResortsProcessed++
	switch o.Status {
	case OutcomeSuccess:
		s.Succeeded++
	case OutcomePartial:
		s.Partial++
	case OutcomeFailed:
		s.Failed++
	case OutcomeNoResults:
		s.NoResults++
	}
	s.VenuesFound += o.VenuesFound
	s.VenuesCreated += o.VenuesCreated
	s.VenuesUpdated += o.VenuesUpdated
	s.VenuesLinked += o.VenuesLinked
	s.TotalCostUSD += o.CostUSD
	s.Outcomes = append(s.Outcomes, o)
}
