package model

import (
	"encoding/json"
	"time"
)

// AuditVenue pairs a normalized venue with its computed distance from the
// resort at enrichment time. Distance is recorded for every valid venue,
// including those later excluded from linking by the radius filter.
type AuditVenue struct {
	Venue
	DistanceMiles float64 `json:"distance_miles"`
}

// AuditRejection records a provider entry the validator refused.
type AuditRejection struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// AuditDocument is the point-in-time JSON snapshot of one resort's
// enrichment, written to object storage independently of the relational
// store so the run can be replayed or inspected later.
type AuditDocument struct {
	ResortID    string    `json:"resort_id"`
	ResortName  string    `json:"resort_name"`
	GeneratedAt time.Time `json:"generated_at"`

	SearchRadiusMiles float64 `json:"search_radius_miles"`
	MaxVenues         int     `json:"max_venues"`
	Latitude          float64 `json:"latitude"`
	Longitude         float64 `json:"longitude"`

	Venues   []AuditVenue     `json:"venues"`
	Rejected []AuditRejection `json:"rejected,omitempty"`

	Usage   TokenUsage `json:"usage"`
	CostUSD float64    `json:"cost_usd"`

	RawResponse json.RawMessage `json:"raw_response,omitempty"`
}
