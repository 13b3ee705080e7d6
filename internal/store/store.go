// Package store persists resorts, venues, resort-venue links, and the
// enrichment audit log. Two engines implement the same interface: a
// pgxpool-backed Postgres store for shared deployments and an embedded
// SQLite store for local work.
package store

import (
	"context"

	"github.com/summit-group/dining-cli/internal/model"
)

// ResortFilter narrows which resorts an operation touches. Zero value
// means all active resorts.
type ResortFilter struct {
	ID     string `json:"id,omitempty"`
	Region string `json:"region,omitempty"`
	Limit  int    `json:"limit,omitempty"`
}

// VenueFilter narrows venue listings.
type VenueFilter struct {
	ResortID string `json:"resort_id,omitempty"`
	Region   string `json:"region,omitempty"`
	Limit    int    `json:"limit,omitempty"`
}

// Stats summarizes stored state for the status command.
type Stats struct {
	Resorts       int     `json:"resorts"`
	ActiveResorts int     `json:"active_resorts"`
	Venues        int     `json:"venues"`
	Links         int     `json:"links"`
	LogEntries    int     `json:"log_entries"`
	TotalCostUSD  float64 `json:"total_cost_usd"`
}

// Store defines the persistence interface for the enrichment pipeline.
type Store interface {
	// Resorts
	ListEligibleResorts(ctx context.Context, filter ResortFilter) ([]model.ResortQuery, error)
	GetResort(ctx context.Context, id string) (*model.ResortQuery, error)
	UpsertResort(ctx context.Context, resort model.ResortQuery) error

	// Venues
	FindVenueBySlug(ctx context.Context, slug string) (*model.Venue, error)
	FindVenueByNameCityRegion(ctx context.Context, name, city, region string) (*model.Venue, error)
	UpsertVenue(ctx context.Context, venue model.Venue) (id string, created bool, err error)
	ListVenues(ctx context.Context, filter VenueFilter) ([]model.Venue, error)

	// Links
	UpsertLink(ctx context.Context, link model.ResortVenueLink) error

	// Audit log
	AppendLogEntry(ctx context.Context, entry model.EnrichmentLogEntry) error

	// Reporting
	Stats(ctx context.Context) (*Stats, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
