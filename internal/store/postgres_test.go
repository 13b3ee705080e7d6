package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/summit-group/dining-cli/internal/model"
)

func newMockStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPostgresWithPool(mock), mock
}

func TestPostgresMigrate(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS resorts").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetResortNotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery("SELECT (.+) FROM resorts WHERE id").
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	r, err := s.GetResort(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, r)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresListEligibleResorts(t *testing.T) {
	s, mock := newMockStore(t)

	rows := pgxmock.NewRows([]string{
		"id", "name", "latitude", "longitude", "nearest_city", "region",
		"search_radius_miles", "max_venues", "asset_path", "active",
		"created_at", "updated_at",
	}).
		AddRow("r-1", "Vail", 39.6403, -106.3742, "Vail", "CO", 10.0, 25, "vail", true, testTime(), testTime()).
		AddRow("r-2", "Beaver Creek", 39.6042, -106.5165, "Avon", "CO", 8.0, 20, "beaver-creek", true, testTime(), testTime())

	mock.ExpectQuery("SELECT (.+) FROM resorts WHERE active AND region").
		WithArgs("CO").
		WillReturnRows(rows)

	resorts, err := s.ListEligibleResorts(context.Background(), ResortFilter{Region: "CO"})
	require.NoError(t, err)
	require.Len(t, resorts, 2)
	assert.Equal(t, "Vail", resorts[0].Name)
	assert.Equal(t, 8.0, resorts[1].SearchRadiusMiles)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpsertVenueCreated(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery("INSERT INTO venues (.+) ON CONFLICT \\(slug\\) DO UPDATE").
		WithArgs(anyArgs(29)...).
		WillReturnRows(pgxmock.NewRows([]string{"id", "inserted"}).AddRow("v-1", true))

	id, created, err := s.UpsertVenue(context.Background(), model.Venue{
		Slug: "the-powder-keg-vail-co", Name: "The Powder Keg",
		VenueTypes: []model.VenueType{model.VenueTypeRestaurant},
		Cuisines:   []model.CuisineType{model.CuisineAmerican},
	})
	require.NoError(t, err)
	assert.Equal(t, "v-1", id)
	assert.True(t, created)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpsertVenueUpdated(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery("INSERT INTO venues (.+) ON CONFLICT \\(slug\\) DO UPDATE").
		WithArgs(anyArgs(29)...).
		WillReturnRows(pgxmock.NewRows([]string{"id", "inserted"}).AddRow("v-existing", false))

	id, created, err := s.UpsertVenue(context.Background(), model.Venue{
		Slug: "the-powder-keg-vail-co", Name: "The Powder Keg",
	})
	require.NoError(t, err)
	assert.Equal(t, "v-existing", id)
	assert.False(t, created)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresFindVenueBySlugNotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery("SELECT (.+) FROM venues WHERE slug").
		WithArgs("nope").
		WillReturnError(pgx.ErrNoRows)

	v, err := s.FindVenueBySlug(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, v)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresFindVenueBySlug(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery("SELECT (.+) FROM venues WHERE slug").
		WithArgs("the-powder-keg-vail-co").
		WillReturnRows(venueRows().AddRow(venueRowValues()...))

	v, err := s.FindVenueBySlug(context.Background(), "the-powder-keg-vail-co")
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, "The Powder Keg", v.Name)
	assert.Equal(t, []model.VenueType{model.VenueTypeRestaurant, model.VenueTypeBar}, v.VenueTypes)
	assert.Equal(t, model.PriceBandUpscale, v.PriceBand)
	assert.Equal(t, model.ZoneMidMountain, v.MountainZone)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpsertLinkLeavesPreferredAlone(t *testing.T) {
	s, mock := newMockStore(t)

	// The update arm of the upsert only touches distance, drive time,
	// on_mountain, and updated_at.
	mock.ExpectExec(`ON CONFLICT \(resort_id, venue_id\) DO UPDATE SET\s+distance_miles`).
		WithArgs(anyArgs(6)...).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.UpsertLink(context.Background(), model.ResortVenueLink{
		ResortID: "r-1", VenueID: "v-1", DistanceMiles: 2.5, DriveTimeMinutes: 10,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresAppendLogEntry(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO enrichment_log").
		WithArgs(anyArgs(17)...).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.AppendLogEntry(context.Background(), model.EnrichmentLogEntry{
		ResortID: "r-1",
		Status:   model.OutcomeSuccess,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStats(t *testing.T) {
	s, mock := newMockStore(t)
	// Stats queries run concurrently.
	mock.MatchExpectationsInOrder(false)

	countRow := func(n int) *pgxmock.Rows {
		return pgxmock.NewRows([]string{"count"}).AddRow(n)
	}
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM resorts$`).WillReturnRows(countRow(5))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM resorts WHERE active`).WillReturnRows(countRow(4))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM venues`).WillReturnRows(countRow(80))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM resort_venues`).WillReturnRows(countRow(95))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM enrichment_log`).WillReturnRows(countRow(12))
	mock.ExpectQuery(`SELECT COALESCE\(SUM\(cost_usd\), 0\) FROM enrichment_log`).
		WillReturnRows(pgxmock.NewRows([]string{"sum"}).AddRow(1.37))

	stats, err := s.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, stats.Resorts)
	assert.Equal(t, 4, stats.ActiveResorts)
	assert.Equal(t, 80, stats.Venues)
	assert.Equal(t, 95, stats.Links)
	assert.Equal(t, 12, stats.LogEntries)
	assert.InDelta(t, 1.37, stats.TotalCostUSD, 0.0001)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// anyArgs returns n AnyArg matchers; pgxmock requires the argument count to
// match even when the values (generated UUIDs, timestamps) can't be pinned.
func anyArgs(n int) []any {
	args := make([]any, n)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	return args
}

func testTime() time.Time {
	return time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
}

func venueRows() *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"id", "slug", "name", "description", "address", "city", "region", "postal_code",
		"latitude", "longitude", "phone", "website", "venue_types", "cuisines", "price_band",
		"serves_breakfast", "serves_lunch", "serves_dinner", "serves_alcohol",
		"ambiance", "features", "on_mountain", "mountain_zone", "ski_in_ski_out",
		"hours_notes", "source", "verified", "active",
	})
}

func venueRowValues() []any {
	return []any{
		"v-1", "the-powder-keg-vail-co", "The Powder Keg", "Slope-side grill.",
		"123 Gondola Way", "Vail", "CO", "81657",
		39.64, -106.37, "970-555-0142", "https://powderkeg.example.com",
		[]byte(`["restaurant","bar"]`), []byte(`["american"]`), "$$$",
		false, true, true, true,
		[]byte(`["casual"]`), []byte(`["fireplace"]`), true, "mid_mountain", true,
		"11am-10pm daily", "llm", false, true,
	}
}
