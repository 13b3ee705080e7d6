package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/summit-group/dining-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. It backs local
// single-operator runs; writes happen one resort at a time so the
// select-then-write upserts below do not need transactions.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS resorts (
	id                  TEXT PRIMARY KEY,
	name                TEXT NOT NULL,
	latitude            REAL NOT NULL,
	longitude           REAL NOT NULL,
	nearest_city        TEXT NOT NULL DEFAULT '',
	region              TEXT NOT NULL DEFAULT '',
	search_radius_miles REAL NOT NULL DEFAULT 10,
	max_venues          INTEGER NOT NULL DEFAULT 25,
	asset_path          TEXT NOT NULL DEFAULT '',
	active              INTEGER NOT NULL DEFAULT 1,
	created_at          DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at          DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_resorts_region ON resorts(region);

CREATE TABLE IF NOT EXISTS venues (
	id               TEXT PRIMARY KEY,
	slug             TEXT NOT NULL UNIQUE,
	name             TEXT NOT NULL,
	description      TEXT NOT NULL DEFAULT '',
	address          TEXT NOT NULL DEFAULT '',
	city             TEXT NOT NULL DEFAULT '',
	region           TEXT NOT NULL DEFAULT '',
	postal_code      TEXT NOT NULL DEFAULT '',
	latitude         REAL NOT NULL,
	longitude        REAL NOT NULL,
	phone            TEXT NOT NULL DEFAULT '',
	website          TEXT NOT NULL DEFAULT '',
	venue_types      TEXT NOT NULL DEFAULT '[]',
	cuisines         TEXT NOT NULL DEFAULT '[]',
	price_band       TEXT NOT NULL DEFAULT '$$',
	serves_breakfast INTEGER NOT NULL DEFAULT 0,
	serves_lunch     INTEGER NOT NULL DEFAULT 0,
	serves_dinner    INTEGER NOT NULL DEFAULT 0,
	serves_alcohol   INTEGER NOT NULL DEFAULT 0,
	ambiance         TEXT NOT NULL DEFAULT '[]',
	features         TEXT NOT NULL DEFAULT '[]',
	on_mountain      INTEGER NOT NULL DEFAULT 0,
	mountain_zone    TEXT NOT NULL DEFAULT '',
	ski_in_ski_out   INTEGER NOT NULL DEFAULT 0,
	hours_notes      TEXT NOT NULL DEFAULT '',
	source           TEXT NOT NULL DEFAULT 'llm',
	verified         INTEGER NOT NULL DEFAULT 0,
	active           INTEGER NOT NULL DEFAULT 1,
	last_enriched_at DATETIME,
	created_at       DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at       DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_venues_name_city_region ON venues(name, city, region);

CREATE TABLE IF NOT EXISTS resort_venues (
	resort_id          TEXT NOT NULL REFERENCES resorts(id),
	venue_id           TEXT NOT NULL REFERENCES venues(id),
	distance_miles     REAL NOT NULL,
	drive_time_minutes INTEGER NOT NULL DEFAULT 0,
	on_mountain        INTEGER NOT NULL DEFAULT 0,
	preferred          INTEGER NOT NULL DEFAULT 0,
	created_at         DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at         DATETIME NOT NULL DEFAULT (datetime('now')),
	PRIMARY KEY (resort_id, venue_id)
);

CREATE TABLE IF NOT EXISTS enrichment_log (
	id                TEXT PRIMARY KEY,
	resort_id         TEXT NOT NULL,
	status            TEXT NOT NULL,
	venues_found      INTEGER NOT NULL DEFAULT 0,
	venues_created    INTEGER NOT NULL DEFAULT 0,
	venues_updated    INTEGER NOT NULL DEFAULT 0,
	venues_linked     INTEGER NOT NULL DEFAULT 0,
	error             TEXT NOT NULL DEFAULT '',
	radius_miles      REAL NOT NULL DEFAULT 0,
	latitude          REAL NOT NULL DEFAULT 0,
	longitude         REAL NOT NULL DEFAULT 0,
	prompt_tokens     INTEGER NOT NULL DEFAULT 0,
	completion_tokens INTEGER NOT NULL DEFAULT 0,
	cost_usd          REAL NOT NULL DEFAULT 0,
	duration_ms       INTEGER NOT NULL DEFAULT 0,
	raw_response      TEXT,
	created_at        DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_enrichment_log_resort ON enrichment_log(resort_id, created_at DESC);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) ListEligibleResorts(ctx context.Context, filter ResortFilter) ([]model.ResortQuery, error) {
	query := `SELECT id, name, latitude, longitude, nearest_city, region,
	 search_radius_miles, max_venues, asset_path, active, created_at, updated_at
	 FROM resorts WHERE active = 1`
	args := []any{}

	if filter.ID != "" {
		query += ` AND id = ?`
		args = append(args, filter.ID)
	}
	if filter.Region != "" {
		query += ` AND region = ?`
		args = append(args, filter.Region)
	}
	query += ` ORDER BY name`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list resorts")
	}
	defer rows.Close()

	var resorts []model.ResortQuery
	for rows.Next() {
		var r model.ResortQuery
		if err := rows.Scan(&r.ID, &r.Name, &r.Latitude, &r.Longitude,
			&r.NearestCity, &r.Region, &r.SearchRadiusMiles, &r.MaxVenues,
			&r.AssetPath, &r.Active, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan resort")
		}
		resorts = append(resorts, r)
	}
	return resorts, eris.Wrap(rows.Err(), "sqlite: list resorts iterate")
}

func (s *SQLiteStore) GetResort(ctx context.Context, id string) (*model.ResortQuery, error) {
	var r model.ResortQuery
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, latitude, longitude, nearest_city, region,
		 search_radius_miles, max_venues, asset_path, active, created_at, updated_at
		 FROM resorts WHERE id = ?`,
		id,
	).Scan(&r.ID, &r.Name, &r.Latitude, &r.Longitude, &r.NearestCity, &r.Region,
		&r.SearchRadiusMiles, &r.MaxVenues, &r.AssetPath, &r.Active, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "sqlite: get resort %s", id)
	}
	return &r, nil
}

func (s *SQLiteStore) UpsertResort(ctx context.Context, resort model.ResortQuery) error {
	if resort.ID == "" {
		resort.ID = uuid.New().String()
	}
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO resorts (id, name, latitude, longitude, nearest_city, region,
		 search_radius_miles, max_venues, asset_path, active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		   name = excluded.name, latitude = excluded.latitude, longitude = excluded.longitude,
		   nearest_city = excluded.nearest_city, region = excluded.region,
		   search_radius_miles = excluded.search_radius_miles, max_venues = excluded.max_venues,
		   asset_path = excluded.asset_path, active = excluded.active,
		   updated_at = excluded.updated_at`,
		resort.ID, resort.Name, resort.Latitude, resort.Longitude,
		resort.NearestCity, resort.Region, resort.SearchRadiusMiles,
		resort.MaxVenues, resort.AssetPath, resort.Active, now, now,
	)
	return eris.Wrapf(err, "sqlite: upsert resort %s", resort.Name)
}

const sqliteVenueColumns = `id, slug, name, description, address, city, region, postal_code,
	latitude, longitude, phone, website, venue_types, cuisines, price_band,
	serves_breakfast, serves_lunch, serves_dinner, serves_alcohol,
	ambiance, features, on_mountain, mountain_zone, ski_in_ski_out,
	hours_notes, source, verified, active`

func (s *SQLiteStore) FindVenueBySlug(ctx context.Context, slug string) (*model.Venue, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sqliteVenueColumns+` FROM venues WHERE slug = ?`, slug)
	v, err := scanSQLiteVenue(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "sqlite: find venue by slug %s", slug)
	}
	return v, nil
}

func (s *SQLiteStore) FindVenueByNameCityRegion(ctx context.Context, name, city, region string) (*model.Venue, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sqliteVenueColumns+` FROM venues
		 WHERE LOWER(name) = LOWER(?) AND LOWER(city) = LOWER(?) AND LOWER(region) = LOWER(?)
		 LIMIT 1`,
		name, city, region)
	v, err := scanSQLiteVenue(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "sqlite: find venue by name %s", name)
	}
	return v, nil
}

func (s *SQLiteStore) UpsertVenue(ctx context.Context, venue model.Venue) (string, bool, error) {
	var existingID string
	err := s.db.QueryRowContext(ctx, `SELECT id FROM venues WHERE slug = ?`, venue.Slug).Scan(&existingID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return "", false, eris.Wrapf(err, "sqlite: check venue %s", venue.Slug)
	}
	created := existingID == ""

	venueTypes, cuisines, ambiance, features, err := marshalVenueLists(venue)
	if err != nil {
		return "", false, err
	}
	now := time.Now().UTC()

	if created {
		if venue.ID == "" {
			venue.ID = uuid.New().String()
		}
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO venues (id, slug, name, description, address, city, region, postal_code,
			 latitude, longitude, phone, website, venue_types, cuisines, price_band,
			 serves_breakfast, serves_lunch, serves_dinner, serves_alcohol,
			 ambiance, features, on_mountain, mountain_zone, ski_in_ski_out,
			 hours_notes, source, verified, active, last_enriched_at, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			venue.ID, venue.Slug, venue.Name, venue.Description, venue.Address,
			venue.City, venue.Region, venue.PostalCode, venue.Latitude, venue.Longitude,
			venue.Phone, venue.Website, string(venueTypes), string(cuisines), string(venue.PriceBand),
			venue.ServesBreakfast, venue.ServesLunch, venue.ServesDinner, venue.ServesAlcohol,
			string(ambiance), string(features), venue.OnMountain, string(venue.MountainZone),
			venue.SkiInSkiOut, venue.HoursNotes, string(venue.Source), venue.Verified,
			venue.Active, now, now, now,
		)
		if err != nil {
			return "", false, eris.Wrapf(err, "sqlite: insert venue %s", venue.Slug)
		}
		return venue.ID, true, nil
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE venues SET name = ?, description = ?, address = ?, city = ?, region = ?,
		 postal_code = ?, latitude = ?, longitude = ?, phone = ?, website = ?,
		 venue_types = ?, cuisines = ?, price_band = ?,
		 serves_breakfast = ?, serves_lunch = ?, serves_dinner = ?, serves_alcohol = ?,
		 ambiance = ?, features = ?, on_mountain = ?, mountain_zone = ?, ski_in_ski_out = ?,
		 hours_notes = ?, active = ?, last_enriched_at = ?, updated_at = ?
		 WHERE id = ?`,
		venue.Name, venue.Description, venue.Address, venue.City, venue.Region,
		venue.PostalCode, venue.Latitude, venue.Longitude, venue.Phone, venue.Website,
		string(venueTypes), string(cuisines), string(venue.PriceBand),
		venue.ServesBreakfast, venue.ServesLunch, venue.ServesDinner, venue.ServesAlcohol,
		string(ambiance), string(features), venue.OnMountain, string(venue.MountainZone),
		venue.SkiInSkiOut, venue.HoursNotes, venue.Active, now, now, existingID,
	)
	if err != nil {
		return "", false, eris.Wrapf(err, "sqlite: update venue %s", venue.Slug)
	}
	return existingID, false, nil
}

func (s *SQLiteStore) ListVenues(ctx context.Context, filter VenueFilter) ([]model.Venue, error) {
	query := `SELECT ` + sqliteVenueColumns + ` FROM venues WHERE active = 1`
	args := []any{}

	if filter.ResortID != "" {
		query += ` AND id IN (SELECT venue_id FROM resort_venues WHERE resort_id = ?)`
		args = append(args, filter.ResortID)
	}
	if filter.Region != "" {
		query += ` AND LOWER(region) = LOWER(?)`
		args = append(args, filter.Region)
	}
	query += ` ORDER BY region, city, name`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list venues")
	}
	defer rows.Close()

	var venues []model.Venue
	for rows.Next() {
		v, err := scanSQLiteVenue(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan venue")
		}
		venues = append(venues, *v)
	}
	return venues, eris.Wrap(rows.Err(), "sqlite: list venues iterate")
}

func (s *SQLiteStore) UpsertLink(ctx context.Context, link model.ResortVenueLink) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO resort_venues (resort_id, venue_id, distance_miles, drive_time_minutes, on_mountain, preferred, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, 0, ?, ?)
		 ON CONFLICT (resort_id, venue_id) DO UPDATE SET
		   distance_miles = excluded.distance_miles,
		   drive_time_minutes = excluded.drive_time_minutes,
		   on_mountain = excluded.on_mountain,
		   updated_at = excluded.updated_at`,
		link.ResortID, link.VenueID, link.DistanceMiles, link.DriveTimeMinutes,
		link.OnMountain, now, now,
	)
	return eris.Wrapf(err, "sqlite: upsert link %s/%s", link.ResortID, link.VenueID)
}

func (s *SQLiteStore) AppendLogEntry(ctx context.Context, entry model.EnrichmentLogEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	var raw any
	if len(entry.RawResponse) > 0 {
		raw = string(entry.RawResponse)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO enrichment_log (id, resort_id, status, venues_found, venues_created,
		 venues_updated, venues_linked, error, radius_miles, latitude, longitude,
		 prompt_tokens, completion_tokens, cost_usd, duration_ms, raw_response, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.ResortID, string(entry.Status), entry.VenuesFound,
		entry.VenuesCreated, entry.VenuesUpdated, entry.VenuesLinked, entry.Error,
		entry.RadiusMiles, entry.Latitude, entry.Longitude, entry.PromptTokens,
		entry.CompletionTokens, entry.CostUSD, entry.DurationMS, raw, entry.CreatedAt,
	)
	return eris.Wrapf(err, "sqlite: append log entry for %s", entry.ResortID)
}

func (s *SQLiteStore) Stats(ctx context.Context) (*Stats, error) {
	var stats Stats
	counts := []struct {
		query string
		dst   *int
	}{
		{`SELECT COUNT(*) FROM resorts`, &stats.Resorts},
		{`SELECT COUNT(*) FROM resorts WHERE active = 1`, &stats.ActiveResorts},
		{`SELECT COUNT(*) FROM venues`, &stats.Venues},
		{`SELECT COUNT(*) FROM resort_venues`, &stats.Links},
		{`SELECT COUNT(*) FROM enrichment_log`, &stats.LogEntries},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, c.query).Scan(c.dst); err != nil {
			return nil, eris.Wrapf(err, "sqlite: stats %s", c.query)
		}
	}
	if err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(cost_usd), 0) FROM enrichment_log`).Scan(&stats.TotalCostUSD); err != nil {
		return nil, eris.Wrap(err, "sqlite: stats cost")
	}
	return &stats, nil
}

// sqlScanner covers both *sql.Row and *sql.Rows.
type sqlScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteVenue(row sqlScanner) (*model.Venue, error) {
	var v model.Venue
	var venueTypes, cuisines, ambiance, features string
	var priceBand, zone, source string

	err := row.Scan(&v.ID, &v.Slug, &v.Name, &v.Description, &v.Address, &v.City,
		&v.Region, &v.PostalCode, &v.Latitude, &v.Longitude, &v.Phone, &v.Website,
		&venueTypes, &cuisines, &priceBand, &v.ServesBreakfast, &v.ServesLunch,
		&v.ServesDinner, &v.ServesAlcohol, &ambiance, &features, &v.OnMountain,
		&zone, &v.SkiInSkiOut, &v.HoursNotes, &source, &v.Verified, &v.Active)
	if err != nil {
		return nil, err
	}

	v.PriceBand = model.PriceBand(priceBand)
	v.MountainZone = model.MountainZone(zone)
	v.Source = model.Provenance(source)

	for _, pair := range []struct {
		data string
		dst  any
	}{
		{venueTypes, &v.VenueTypes},
		{cuisines, &v.Cuisines},
		{ambiance, &v.Ambiance},
		{features, &v.Features},
	} {
		if pair.data == "" {
			continue
		}
		if err := json.Unmarshal([]byte(pair.data), pair.dst); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal venue list")
		}
	}
	return &v, nil
}
