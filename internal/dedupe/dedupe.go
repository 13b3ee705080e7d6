// Package dedupe resolves newly normalized venues against previously
// stored identities.
package dedupe

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/summit-group/dining-cli/internal/model"
)

// Lookup is the narrow store capability the resolver needs.
type Lookup interface {
	FindVenueBySlug(ctx context.Context, slug string) (*model.Venue, error)
	FindVenueByNameCityRegion(ctx context.Context, name, city, region string) (*model.Venue, error)
}

// Resolution is the outcome of identity resolution for one venue.
type Resolution struct {
	// Venue carries the input venue, with identity and slug adopted from
	// the stored record when a match was found.
	Venue model.Venue
	// IsNew reports a venue with no stored counterpart.
	IsNew bool
	// ExistingID is the adopted identity when IsNew is false and the
	// venue matched a stored record.
	ExistingID string
	// DuplicateInBatch reports a slug already resolved earlier in the
	// current batch; no store lookup was performed.
	DuplicateInBatch bool
}

// Resolver applies the three-tier match strategy: exact slug seen this
// batch, stored slug, then case-insensitive name+city+region. The fuzzy
// tier exists because slugs are recomputed each run and can drift from a
// previously stored spelling for the same real-world venue; without it,
// duplicate rows accumulate across runs.
type Resolver struct {
	lookup Lookup
	seen   map[string]struct{}
}

// NewResolver creates a Resolver with an empty seen-set.
func NewResolver(lookup Lookup) *Resolver {
	return &Resolver{
		lookup: lookup,
		seen:   make(map[string]struct{}),
	}
}

// Reset clears the per-batch seen-set. The orchestrator calls this at
// each resort boundary: the same venue may legitimately serve several
// resorts in one run.
func (r *Resolver) Reset() {
	r.seen = make(map[string]struct{})
}

// Resolve classifies a venue as batch-duplicate, existing, or new.
func (r *Resolver) Resolve(ctx context.Context, venue model.Venue) (Resolution, error) {
	if _, ok := r.seen[venue.Slug]; ok {
		return Resolution{Venue: venue, DuplicateInBatch: true}, nil
	}
	r.seen[venue.Slug] = struct{}{}

	existing, err := r.lookup.FindVenueBySlug(ctx, venue.Slug)
	if err != nil {
		return Resolution{}, eris.Wrapf(err, "dedupe: lookup slug %s", venue.Slug)
	}
	if existing == nil {
		existing, err = r.lookup.FindVenueByNameCityRegion(ctx, venue.Name, venue.City, venue.Region)
		if err != nil {
			return Resolution{}, eris.Wrapf(err, "dedupe: lookup name %s", venue.Name)
		}
	}

	if existing == nil {
		return Resolution{Venue: venue, IsNew: true}, nil
	}

	// Adopt the stored identity and slug in case normalization drifted,
	// and mark the adopted slug seen so a later entry spelled the stored
	// way is still a batch duplicate.
	venue.ID = existing.ID
	venue.Slug = existing.Slug
	r.seen[existing.Slug] = struct{}{}

	return Resolution{Venue: venue, ExistingID: existing.ID}, nil
}
