package dedupe

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/summit-group/dining-cli/internal/model"
)

type fakeLookup struct {
	bySlug map[string]*model.Venue
	byName map[string]*model.Venue

	slugCalls int
	nameCalls int
	err       error
}

func (f *fakeLookup) FindVenueBySlug(_ context.Context, slug string) (*model.Venue, error) {
	f.slugCalls++
	if f.err != nil {
		return nil, f.err
	}
	return f.bySlug[slug], nil
}

func (f *fakeLookup) FindVenueByNameCityRegion(_ context.Context, name, city, region string) (*model.Venue, error) {
	f.nameCalls++
	if f.err != nil {
		return nil, f.err
	}
	return f.byName[name+"|"+city+"|"+region], nil
}

func venue(name, slug string) model.Venue {
	return model.Venue{Name: name, Slug: slug, City: "Vail", Region: "CO"}
}

func TestResolveNew(t *testing.T) {
	t.Parallel()

	lookup := &fakeLookup{}
	r := NewResolver(lookup)

	res, err := r.Resolve(context.Background(), venue("The Powder Keg", "the-powder-keg-vail-co"))
	require.NoError(t, err)
	assert.True(t, res.IsNew)
	assert.False(t, res.DuplicateInBatch)
	assert.Empty(t, res.ExistingID)
	assert.Equal(t, 1, lookup.slugCalls)
	assert.Equal(t, 1, lookup.nameCalls)
}

func TestResolveExistingBySlug(t *testing.T) {
	t.Parallel()

	stored := venue("The Powder Keg", "the-powder-keg-vail-co")
	stored.ID = "v-123"
	lookup := &fakeLookup{bySlug: map[string]*model.Venue{stored.Slug: &stored}}
	r := NewResolver(lookup)

	res, err := r.Resolve(context.Background(), venue("The Powder Keg", "the-powder-keg-vail-co"))
	require.NoError(t, err)
	assert.False(t, res.IsNew)
	assert.Equal(t, "v-123", res.ExistingID)
	assert.Equal(t, "v-123", res.Venue.ID)
	// Slug matched first, so the fuzzy tier never ran.
	assert.Equal(t, 0, lookup.nameCalls)
}

func TestResolveExistingByNameAdoptsSlug(t *testing.T) {
	t.Parallel()

	stored := venue("The Powder Keg", "powder-keg-vail-co")
	stored.ID = "v-456"
	lookup := &fakeLookup{byName: map[string]*model.Venue{"The Powder Keg|Vail|CO": &stored}}
	r := NewResolver(lookup)

	res, err := r.Resolve(context.Background(), venue("The Powder Keg", "the-powder-keg-vail-co"))
	require.NoError(t, err)
	assert.False(t, res.IsNew)
	assert.Equal(t, "v-456", res.Venue.ID)
	assert.Equal(t, "powder-keg-vail-co", res.Venue.Slug)

	// The adopted slug counts as seen for the rest of the batch.
	res, err = r.Resolve(context.Background(), venue("Powder Keg", "powder-keg-vail-co"))
	require.NoError(t, err)
	assert.True(t, res.DuplicateInBatch)
}

func TestResolveDuplicateInBatch(t *testing.T) {
	t.Parallel()

	lookup := &fakeLookup{}
	r := NewResolver(lookup)
	ctx := context.Background()

	first, err := r.Resolve(ctx, venue("The Powder Keg", "the-powder-keg-vail-co"))
	require.NoError(t, err)
	assert.True(t, first.IsNew)

	second, err := r.Resolve(ctx, venue("The Powder Keg", "the-powder-keg-vail-co"))
	require.NoError(t, err)
	assert.True(t, second.DuplicateInBatch)
	assert.False(t, second.IsNew)
	// Batch duplicates never reach the store.
	assert.Equal(t, 1, lookup.slugCalls)
}

func TestResetClearsSeenSet(t *testing.T) {
	t.Parallel()

	lookup := &fakeLookup{}
	r := NewResolver(lookup)
	ctx := context.Background()

	_, err := r.Resolve(ctx, venue("The Powder Keg", "the-powder-keg-vail-co"))
	require.NoError(t, err)

	r.Reset()

	res, err := r.Resolve(ctx, venue("The Powder Keg", "the-powder-keg-vail-co"))
	require.NoError(t, err)
	assert.False(t, res.DuplicateInBatch)
	assert.Equal(t, 2, lookup.slugCalls)
}

func TestResolveLookupError(t *testing.T) {
	t.Parallel()

	lookup := &fakeLookup{err: errors.New("connection refused")}
	r := NewResolver(lookup)

	_, err := r.Resolve(context.Background(), venue("The Powder Keg", "the-powder-keg-vail-co"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dedupe: lookup slug")
}
