package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"

	"github.com/summit-group/dining-cli/internal/db"
	"github.com/summit-group/dining-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// the hot path of a run: identity lookups and link writes happen once per
// venue per resort.
var preparedStatements = map[string]string{
	"find_venue_by_slug": `SELECT ` + venueColumns + ` FROM venues WHERE slug = $1`,
	"upsert_link": `INSERT INTO resort_venues (resort_id, venue_id, distance_miles, drive_time_minutes, on_mountain, preferred, created_at, updated_at)
	 VALUES ($1, $2, $3, $4, $5, false, $6, $6)
	 ON CONFLICT (resort_id, venue_id) DO UPDATE SET
	   distance_miles = $3, drive_time_minutes = $4, on_mountain = $5, updated_at = $6`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresWithPool wraps an existing pool; tests inject pgxmock here.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool, closeFn: pool.Close}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS resorts (
	id                  TEXT PRIMARY KEY,
	name                TEXT NOT NULL,
	latitude            DOUBLE PRECISION NOT NULL,
	longitude           DOUBLE PRECISION NOT NULL,
	nearest_city        TEXT NOT NULL DEFAULT '',
	region              TEXT NOT NULL DEFAULT '',
	search_radius_miles DOUBLE PRECISION NOT NULL DEFAULT 10,
	max_venues          INTEGER NOT NULL DEFAULT 25,
	asset_path          TEXT NOT NULL DEFAULT '',
	active              BOOLEAN NOT NULL DEFAULT true,
	created_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at          TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_resorts_region ON resorts(region);
CREATE INDEX IF NOT EXISTS idx_resorts_active ON resorts(active);

CREATE TABLE IF NOT EXISTS venues (
	id               TEXT PRIMARY KEY,
	slug             TEXT NOT NULL UNIQUE,
	name             TEXT NOT NULL,
	description      TEXT NOT NULL DEFAULT '',
	address          TEXT NOT NULL DEFAULT '',
	city             TEXT NOT NULL DEFAULT '',
	region           TEXT NOT NULL DEFAULT '',
	postal_code      TEXT NOT NULL DEFAULT '',
	latitude         DOUBLE PRECISION NOT NULL,
	longitude        DOUBLE PRECISION NOT NULL,
	phone            TEXT NOT NULL DEFAULT '',
	website          TEXT NOT NULL DEFAULT '',
	venue_types      JSONB NOT NULL DEFAULT '[]',
	cuisines         JSONB NOT NULL DEFAULT '[]',
	price_band       TEXT NOT NULL DEFAULT '$$',
	serves_breakfast BOOLEAN NOT NULL DEFAULT false,
	serves_lunch     BOOLEAN NOT NULL DEFAULT false,
	serves_dinner    BOOLEAN NOT NULL DEFAULT false,
	serves_alcohol   BOOLEAN NOT NULL DEFAULT false,
	ambiance         JSONB NOT NULL DEFAULT '[]',
	features         JSONB NOT NULL DEFAULT '[]',
	on_mountain      BOOLEAN NOT NULL DEFAULT false,
	mountain_zone    TEXT NOT NULL DEFAULT '',
	ski_in_ski_out   BOOLEAN NOT NULL DEFAULT false,
	hours_notes      TEXT NOT NULL DEFAULT '',
	source           TEXT NOT NULL DEFAULT 'llm',
	verified         BOOLEAN NOT NULL DEFAULT false,
	active           BOOLEAN NOT NULL DEFAULT true,
	last_enriched_at TIMESTAMPTZ,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_venues_slug ON venues(slug);
CREATE INDEX IF NOT EXISTS idx_venues_name_city_region ON venues(LOWER(name), LOWER(city), LOWER(region));

CREATE TABLE IF NOT EXISTS resort_venues (
	resort_id          TEXT NOT NULL REFERENCES resorts(id),
	venue_id           TEXT NOT NULL REFERENCES venues(id),
	distance_miles     DOUBLE PRECISION NOT NULL,
	drive_time_minutes INTEGER NOT NULL DEFAULT 0,
	on_mountain        BOOLEAN NOT NULL DEFAULT false,
	preferred          BOOLEAN NOT NULL DEFAULT false,
	created_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (resort_id, venue_id)
);

CREATE INDEX IF NOT EXISTS idx_resort_venues_venue ON resort_venues(venue_id);

CREATE TABLE IF NOT EXISTS enrichment_log (
	id                TEXT PRIMARY KEY,
	resort_id         TEXT NOT NULL,
	status            TEXT NOT NULL,
	venues_found      INTEGER NOT NULL DEFAULT 0,
	venues_created    INTEGER NOT NULL DEFAULT 0,
	venues_updated    INTEGER NOT NULL DEFAULT 0,
	venues_linked     INTEGER NOT NULL DEFAULT 0,
	error             TEXT NOT NULL DEFAULT '',
	radius_miles      DOUBLE PRECISION NOT NULL DEFAULT 0,
	latitude          DOUBLE PRECISION NOT NULL DEFAULT 0,
	longitude         DOUBLE PRECISION NOT NULL DEFAULT 0,
	prompt_tokens     BIGINT NOT NULL DEFAULT 0,
	completion_tokens BIGINT NOT NULL DEFAULT 0,
	cost_usd          DOUBLE PRECISION NOT NULL DEFAULT 0,
	duration_ms       BIGINT NOT NULL DEFAULT 0,
	raw_response      JSONB,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_enrichment_log_resort ON enrichment_log(resort_id, created_at DESC);
`

const venueColumns = `id, slug, name, description, address, city, region, postal_code,
	latitude, longitude, phone, website, venue_types, cuisines, price_band,
	serves_breakfast, serves_lunch, serves_dinner, serves_alcohol,
	ambiance, features, on_mountain, mountain_zone, ski_in_ski_out,
	hours_notes, source, verified, active`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) ListEligibleResorts(ctx context.Context, filter ResortFilter) ([]model.ResortQuery, error) {
	query := `SELECT id, name, latitude, longitude, nearest_city, region,
	 search_radius_miles, max_venues, asset_path, active, created_at, updated_at
	 FROM resorts WHERE active`
	args := []any{}
	argIdx := 1

	if filter.ID != "" {
		query += fmt.Sprintf(` AND id = $%d`, argIdx)
		args = append(args, filter.ID)
		argIdx++
	}
	if filter.Region != "" {
		query += fmt.Sprintf(` AND region = $%d`, argIdx)
		args = append(args, filter.Region)
		argIdx++
	}
	query += ` ORDER BY name`
	if filter.Limit > 0 {
		query += fmt.Sprintf(` LIMIT $%d`, argIdx)
		args = append(args, filter.Limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list resorts")
	}
	defer rows.Close()

	var resorts []model.ResortQuery
	for rows.Next() {
		var r model.ResortQuery
		if err := rows.Scan(&r.ID, &r.Name, &r.Latitude, &r.Longitude,
			&r.NearestCity, &r.Region, &r.SearchRadiusMiles, &r.MaxVenues,
			&r.AssetPath, &r.Active, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan resort")
		}
		resorts = append(resorts, r)
	}
	return resorts, eris.Wrap(rows.Err(), "postgres: list resorts iterate")
}

func (s *PostgresStore) GetResort(ctx context.Context, id string) (*model.ResortQuery, error) {
	var r model.ResortQuery
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, latitude, longitude, nearest_city, region,
		 search_radius_miles, max_venues, asset_path, active, created_at, updated_at
		 FROM resorts WHERE id = $1`,
		id,
	).Scan(&r.ID, &r.Name, &r.Latitude, &r.Longitude, &r.NearestCity, &r.Region,
		&r.SearchRadiusMiles, &r.MaxVenues, &r.AssetPath, &r.Active, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get resort %s", id)
	}
	return &r, nil
}

func (s *PostgresStore) UpsertResort(ctx context.Context, resort model.ResortQuery) error {
	if resort.ID == "" {
		resort.ID = uuid.New().String()
	}
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO resorts (id, name, latitude, longitude, nearest_city, region,
		 search_radius_miles, max_venues, asset_path, active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
		 ON CONFLICT (id) DO UPDATE SET
		   name = $2, latitude = $3, longitude = $4, nearest_city = $5, region = $6,
		   search_radius_miles = $7, max_venues = $8, asset_path = $9, active = $10,
		   updated_at = $11`,
		resort.ID, resort.Name, resort.Latitude, resort.Longitude,
		resort.NearestCity, resort.Region, resort.SearchRadiusMiles,
		resort.MaxVenues, resort.AssetPath, resort.Active, now,
	)
	return eris.Wrapf(err, "postgres: upsert resort %s", resort.Name)
}

func (s *PostgresStore) FindVenueBySlug(ctx context.Context, slug string) (*model.Venue, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+venueColumns+` FROM venues WHERE slug = $1`, slug)
	v, err := scanVenue(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: find venue by slug %s", slug)
	}
	return v, nil
}

func (s *PostgresStore) FindVenueByNameCityRegion(ctx context.Context, name, city, region string) (*model.Venue, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+venueColumns+` FROM venues
		 WHERE LOWER(name) = LOWER($1) AND LOWER(city) = LOWER($2) AND LOWER(region) = LOWER($3)
		 LIMIT 1`,
		name, city, region)
	v, err := scanVenue(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: find venue by name %s", name)
	}
	return v, nil
}

// UpsertVenue inserts or updates a venue keyed on slug. The created flag
// comes from xmax: zero means the row version was inserted, not updated.
func (s *PostgresStore) UpsertVenue(ctx context.Context, venue model.Venue) (string, bool, error) {
	if venue.ID == "" {
		venue.ID = uuid.New().String()
	}
	now := time.Now().UTC()

	venueTypes, cuisines, ambiance, features, err := marshalVenueLists(venue)
	if err != nil {
		return "", false, err
	}

	var id string
	var created bool
	err = s.pool.QueryRow(ctx,
		`INSERT INTO venues (id, slug, name, description, address, city, region, postal_code,
		 latitude, longitude, phone, website, venue_types, cuisines, price_band,
		 serves_breakfast, serves_lunch, serves_dinner, serves_alcohol,
		 ambiance, features, on_mountain, mountain_zone, ski_in_ski_out,
		 hours_notes, source, verified, active, last_enriched_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
		 $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $29, $29)
		 ON CONFLICT (slug) DO UPDATE SET
		   name = $3, description = $4, address = $5, city = $6, region = $7, postal_code = $8,
		   latitude = $9, longitude = $10, phone = $11, website = $12,
		   venue_types = $13, cuisines = $14, price_band = $15,
		   serves_breakfast = $16, serves_lunch = $17, serves_dinner = $18, serves_alcohol = $19,
		   ambiance = $20, features = $21, on_mountain = $22, mountain_zone = $23,
		   ski_in_ski_out = $24, hours_notes = $25, active = $28,
		   last_enriched_at = $29, updated_at = $29
		 RETURNING id, (xmax = 0) AS inserted`,
		venue.ID, venue.Slug, venue.Name, venue.Description, venue.Address,
		venue.City, venue.Region, venue.PostalCode, venue.Latitude, venue.Longitude,
		venue.Phone, venue.Website, venueTypes, cuisines, string(venue.PriceBand),
		venue.ServesBreakfast, venue.ServesLunch, venue.ServesDinner, venue.ServesAlcohol,
		ambiance, features, venue.OnMountain, string(venue.MountainZone), venue.SkiInSkiOut,
		venue.HoursNotes, string(venue.Source), venue.Verified, venue.Active, now,
	).Scan(&id, &created)
	if err != nil {
		return "", false, eris.Wrapf(err, "postgres: upsert venue %s", venue.Slug)
	}
	return id, created, nil
}

func (s *PostgresStore) ListVenues(ctx context.Context, filter VenueFilter) ([]model.Venue, error) {
	query := `SELECT ` + venueColumns + ` FROM venues WHERE active`
	args := []any{}
	argIdx := 1

	if filter.ResortID != "" {
		query += fmt.Sprintf(` AND id IN (SELECT venue_id FROM resort_venues WHERE resort_id = $%d)`, argIdx)
		args = append(args, filter.ResortID)
		argIdx++
	}
	if filter.Region != "" {
		query += fmt.Sprintf(` AND LOWER(region) = LOWER($%d)`, argIdx)
		args = append(args, filter.Region)
		argIdx++
	}
	query += ` ORDER BY region, city, name`
	if filter.Limit > 0 {
		query += fmt.Sprintf(` LIMIT $%d`, argIdx)
		args = append(args, filter.Limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list venues")
	}
	defer rows.Close()

	var venues []model.Venue
	for rows.Next() {
		v, err := scanVenue(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan venue")
		}
		venues = append(venues, *v)
	}
	return venues, eris.Wrap(rows.Err(), "postgres: list venues iterate")
}

// UpsertLink writes resort-relative facts for a venue. preferred is
// operator-owned and is never touched on update.
func (s *PostgresStore) UpsertLink(ctx context.Context, link model.ResortVenueLink) error {
	now := time.Now().UTC()
	_, err := s.pool.Exec(ctx,
		`INSERT INTO resort_venues (resort_id, venue_id, distance_miles, drive_time_minutes, on_mountain, preferred, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, false, $6, $6)
		 ON CONFLICT (resort_id, venue_id) DO UPDATE SET
		   distance_miles = $3, drive_time_minutes = $4, on_mountain = $5, updated_at = $6`,
		link.ResortID, link.VenueID, link.DistanceMiles, link.DriveTimeMinutes,
		link.OnMountain, now,
	)
	return eris.Wrapf(err, "postgres: upsert link %s/%s", link.ResortID, link.VenueID)
}

func (s *PostgresStore) AppendLogEntry(ctx context.Context, entry model.EnrichmentLogEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	var raw []byte
	if len(entry.RawResponse) > 0 {
		raw = entry.RawResponse
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO enrichment_log (id, resort_id, status, venues_found, venues_created,
		 venues_updated, venues_linked, error, radius_miles, latitude, longitude,
		 prompt_tokens, completion_tokens, cost_usd, duration_ms, raw_response, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		entry.ID, entry.ResortID, string(entry.Status), entry.VenuesFound,
		entry.VenuesCreated, entry.VenuesUpdated, entry.VenuesLinked, entry.Error,
		entry.RadiusMiles, entry.Latitude, entry.Longitude, entry.PromptTokens,
		entry.CompletionTokens, entry.CostUSD, entry.DurationMS, raw, entry.CreatedAt,
	)
	return eris.Wrapf(err, "postgres: append log entry for %s", entry.ResortID)
}

func (s *PostgresStore) Stats(ctx context.Context) (*Stats, error) {
	var stats Stats
	g, ctx := errgroup.WithContext(ctx)

	count := func(query string, dst *int) func() error {
		return func() error {
			return s.pool.QueryRow(ctx, query).Scan(dst)
		}
	}

	g.Go(count(`SELECT COUNT(*) FROM resorts`, &stats.Resorts))
	g.Go(count(`SELECT COUNT(*) FROM resorts WHERE active`, &stats.ActiveResorts))
	g.Go(count(`SELECT COUNT(*) FROM venues`, &stats.Venues))
	g.Go(count(`SELECT COUNT(*) FROM resort_venues`, &stats.Links))
	g.Go(count(`SELECT COUNT(*) FROM enrichment_log`, &stats.LogEntries))
	g.Go(func() error {
		return s.pool.QueryRow(ctx, `SELECT COALESCE(SUM(cost_usd), 0) FROM enrichment_log`).Scan(&stats.TotalCostUSD)
	})

	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "postgres: stats")
	}
	return &stats, nil
}

// scanVenue reads one venueColumns row into a Venue.
func scanVenue(row pgx.Row) (*model.Venue, error) {
	var v model.Venue
	var venueTypes, cuisines, ambiance, features []byte
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
		data []byte
		dst  any
	}{
		{venueTypes, &v.VenueTypes},
		{cuisines, &v.Cuisines},
		{ambiance, &v.Ambiance},
		{features, &v.Features},
	} {
		if len(pair.data) == 0 {
			continue
		}
		if err := json.Unmarshal(pair.data, pair.dst); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal venue list")
		}
	}
	return &v, nil
}

func marshalVenueLists(v model.Venue) (venueTypes, cuisines, ambiance, features []byte, err error) {
	if venueTypes, err = json.Marshal(v.VenueTypes); err != nil {
		return nil, nil, nil, nil, eris.Wrap(err, "postgres: marshal venue types")
	}
	if cuisines, err = json.Marshal(v.Cuisines); err != nil {
		return nil, nil, nil, nil, eris.Wrap(err, "postgres: marshal cuisines")
	}
	if ambiance, err = json.Marshal(v.Ambiance); err != nil {
		return nil, nil, nil, nil, eris.Wrap(err, "postgres: marshal ambiance")
	}
	if features, err = json.Marshal(v.Features); err != nil {
		return nil, nil, nil, nil, eris.Wrap(err, "postgres: marshal features")
	}
	return venueTypes, cuisines, ambiance, features, nil
}
