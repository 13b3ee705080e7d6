package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/summit-group/dining-cli/internal/model"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "dining.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func sampleResort() model.ResortQuery {
	return model.ResortQuery{
		ID:                "r-vail",
		Name:              "Vail",
		Latitude:          39.6403,
		Longitude:         -106.3742,
		NearestCity:       "Vail",
		Region:            "CO",
		SearchRadiusMiles: 10,
		MaxVenues:         25,
		AssetPath:         "vail",
		Active:            true,
	}
}

func sampleVenue() model.Venue {
	return model.Venue{
		Slug:       "the-powder-keg-vail-co",
		Name:       "The Powder Keg",
		City:       "Vail",
		Region:     "CO",
		Latitude:   39.64,
		Longitude:  -106.37,
		VenueTypes: []model.VenueType{model.VenueTypeRestaurant, model.VenueTypeBar},
		Cuisines:   []model.CuisineType{model.CuisineAmerican},
		PriceBand:  model.PriceBandUpscale,
		Ambiance:   []model.AmbianceTag{model.AmbianceCasual},
		Features:   []model.FeatureTag{model.FeatureFireplace},
		Source:     model.SourceLLM,
		Active:     true,
	}
}

func TestSQLiteResortRoundTrip(t *testing.T) {
	t.Parallel()
	s := newTestSQLite(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertResort(ctx, sampleResort()))

	got, err := s.GetResort(ctx, "r-vail")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Vail", got.Name)
	assert.Equal(t, 10.0, got.SearchRadiusMiles)

	// Upsert with the same ID updates in place.
	updated := sampleResort()
	updated.SearchRadiusMiles = 15
	require.NoError(t, s.UpsertResort(ctx, updated))

	got, err = s.GetResort(ctx, "r-vail")
	require.NoError(t, err)
	assert.Equal(t, 15.0, got.SearchRadiusMiles)
}

func TestSQLiteGetResortMissing(t *testing.T) {
	t.Parallel()
	s := newTestSQLite(t)

	got, err := s.GetResort(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLiteListEligibleResorts(t *testing.T) {
	t.Parallel()
	s := newTestSQLite(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertResort(ctx, sampleResort()))

	inactive := sampleResort()
	inactive.ID = "r-closed"
	inactive.Name = "Closed Mountain"
	inactive.Active = false
	require.NoError(t, s.UpsertResort(ctx, inactive))

	other := sampleResort()
	other.ID = "r-stowe"
	other.Name = "Stowe"
	other.Region = "VT"
	require.NoError(t, s.UpsertResort(ctx, other))

	all, err := s.ListEligibleResorts(ctx, ResortFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2) // inactive excluded

	co, err := s.ListEligibleResorts(ctx, ResortFilter{Region: "CO"})
	require.NoError(t, err)
	require.Len(t, co, 1)
	assert.Equal(t, "Vail", co[0].Name)

	one, err := s.ListEligibleResorts(ctx, ResortFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, one, 1)
}

func TestSQLiteVenueUpsertCreateThenUpdate(t *testing.T) {
	t.Parallel()
	s := newTestSQLite(t)
	ctx := context.Background()

	id, created, err := s.UpsertVenue(ctx, sampleVenue())
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEmpty(t, id)

	v2 := sampleVenue()
	v2.Description = "Updated description."
	id2, created2, err := s.UpsertVenue(ctx, v2)
	require.NoError(t, err)
	assert.False(t, created2)
	assert.Equal(t, id, id2)

	got, err := s.FindVenueBySlug(ctx, v2.Slug)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Updated description.", got.Description)
	assert.Equal(t, []model.VenueType{model.VenueTypeRestaurant, model.VenueTypeBar}, got.VenueTypes)
	assert.Equal(t, model.PriceBandUpscale, got.PriceBand)
}

func TestSQLiteFindVenueByNameCaseInsensitive(t *testing.T) {
	t.Parallel()
	s := newTestSQLite(t)
	ctx := context.Background()

	_, _, err := s.UpsertVenue(ctx, sampleVenue())
	require.NoError(t, err)

	got, err := s.FindVenueByNameCityRegion(ctx, "the powder keg", "VAIL", "co")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "The Powder Keg", got.Name)

	miss, err := s.FindVenueByNameCityRegion(ctx, "The Powder Keg", "Aspen", "CO")
	require.NoError(t, err)
	assert.Nil(t, miss)
}

func TestSQLiteUpsertLinkPreservesPreferred(t *testing.T) {
	t.Parallel()
	s := newTestSQLite(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertResort(ctx, sampleResort()))
	venueID, _, err := s.UpsertVenue(ctx, sampleVenue())
	require.NoError(t, err)

	link := model.ResortVenueLink{
		ResortID:         "r-vail",
		VenueID:          venueID,
		DistanceMiles:    2.5,
		DriveTimeMinutes: 10,
	}
	require.NoError(t, s.UpsertLink(ctx, link))

	// Operator marks the venue preferred out of band.
	_, err = s.db.ExecContext(ctx,
		`UPDATE resort_venues SET preferred = 1 WHERE resort_id = ? AND venue_id = ?`,
		"r-vail", venueID)
	require.NoError(t, err)

	// A later run updates distance but must not clear preferred.
	link.DistanceMiles = 2.7
	require.NoError(t, s.UpsertLink(ctx, link))

	var preferred bool
	var distance float64
	err = s.db.QueryRowContext(ctx,
		`SELECT preferred, distance_miles FROM resort_venues WHERE resort_id = ? AND venue_id = ?`,
		"r-vail", venueID).Scan(&preferred, &distance)
	require.NoError(t, err)
	assert.True(t, preferred)
	assert.Equal(t, 2.7, distance)
}

func TestSQLiteListVenuesByResort(t *testing.T) {
	t.Parallel()
	s := newTestSQLite(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertResort(ctx, sampleResort()))

	linkedID, _, err := s.UpsertVenue(ctx, sampleVenue())
	require.NoError(t, err)

	unlinked := sampleVenue()
	unlinked.Slug = "far-away-diner-denver-co"
	unlinked.Name = "Far Away Diner"
	_, _, err = s.UpsertVenue(ctx, unlinked)
	require.NoError(t, err)

	require.NoError(t, s.UpsertLink(ctx, model.ResortVenueLink{
		ResortID: "r-vail", VenueID: linkedID, DistanceMiles: 1.0,
	}))

	venues, err := s.ListVenues(ctx, VenueFilter{ResortID: "r-vail"})
	require.NoError(t, err)
	require.Len(t, venues, 1)
	assert.Equal(t, "The Powder Keg", venues[0].Name)

	all, err := s.ListVenues(ctx, VenueFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestSQLiteLogAndStats(t *testing.T) {
	t.Parallel()
	s := newTestSQLite(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertResort(ctx, sampleResort()))
	_, _, err := s.UpsertVenue(ctx, sampleVenue())
	require.NoError(t, err)

	require.NoError(t, s.AppendLogEntry(ctx, model.EnrichmentLogEntry{
		ResortID:    "r-vail",
		Status:      model.OutcomeSuccess,
		VenuesFound: 12,
		CostUSD:     0.42,
		RawResponse: []byte(`{"venues": []}`),
	}))
	require.NoError(t, s.AppendLogEntry(ctx, model.EnrichmentLogEntry{
		ResortID: "r-vail",
		Status:   model.OutcomeFailed,
		Error:    "provider timeout",
		CostUSD:  0.0,
	}))

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Resorts)
	assert.Equal(t, 1, stats.ActiveResorts)
	assert.Equal(t, 1, stats.Venues)
	assert.Equal(t, 2, stats.LogEntries)
	assert.InDelta(t, 0.42, stats.TotalCostUSD, 0.0001)
}
