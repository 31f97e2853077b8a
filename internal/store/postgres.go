package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"

	"github.com/fieldstone-group/tradeintel/internal/db"
	"github.com/fieldstone-group/tradeintel/internal/model"
)

// maxNearbyLimit caps how many rows a cached-business lookup may return.
const maxNearbyLimit = 100

// PostgresStore implements Store using pgxpool with PostGIS.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
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

// NewPostgresWithPool wraps an existing pool; used by tests.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool, closeFn: func() {}}
}

const postgresMigration = `
CREATE EXTENSION IF NOT EXISTS postgis;

CREATE TABLE IF NOT EXISTS businesses (
	place_id            TEXT PRIMARY KEY,
	company_name        TEXT NOT NULL,
	tradesperson_name   TEXT,
	primary_industry    TEXT NOT NULL,
	full_address        TEXT NOT NULL DEFAULT '',
	postcode            TEXT,
	website_url         TEXT,
	phone_number        TEXT,
	email_address       TEXT,
	source_url          TEXT NOT NULL DEFAULT '',
	date_of_scraping    TEXT NOT NULL DEFAULT '',
	rating              DOUBLE PRECISION,
	total_ratings       INTEGER,
	location            geometry(Point, 4326) NOT NULL,
	registry_match      JSONB,
	verification_status TEXT NOT NULL DEFAULT 'unverified',
	last_updated        TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_businesses_location ON businesses USING GIST (location);
CREATE INDEX IF NOT EXISTS idx_businesses_industry ON businesses (primary_industry);
CREATE INDEX IF NOT EXISTS idx_businesses_verification ON businesses (verification_status);

CREATE TABLE IF NOT EXISTS search_runs (
	id           TEXT PRIMARY KEY,
	location     TEXT NOT NULL,
	params       JSONB NOT NULL,
	status       TEXT NOT NULL DEFAULT 'running',
	total_found  INTEGER NOT NULL DEFAULT 0,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	completed_at TIMESTAMPTZ
);
`

// Migrate applies the schema. All statements are idempotent.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, postgresMigration); err != nil {
		return eris.Wrap(err, "postgres: migrate")
	}
	return nil
}

const upsertBusinessSQL = `
INSERT INTO businesses (
	place_id, company_name, tradesperson_name, primary_industry, full_address,
	postcode, website_url, phone_number, email_address, source_url,
	date_of_scraping, rating, total_ratings, location, registry_match,
	verification_status, last_updated
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, ST_GeomFromEWKB($14), $15, $16, now())
ON CONFLICT (place_id) DO UPDATE SET
	company_name        = EXCLUDED.company_name,
	tradesperson_name   = EXCLUDED.tradesperson_name,
	primary_industry    = EXCLUDED.primary_industry,
	full_address        = EXCLUDED.full_address,
	postcode            = EXCLUDED.postcode,
	website_url         = EXCLUDED.website_url,
	phone_number        = EXCLUDED.phone_number,
	email_address       = EXCLUDED.email_address,
	source_url          = EXCLUDED.source_url,
	date_of_scraping    = EXCLUDED.date_of_scraping,
	rating              = EXCLUDED.rating,
	total_ratings       = EXCLUDED.total_ratings,
	location            = EXCLUDED.location,
	registry_match      = EXCLUDED.registry_match,
	verification_status = EXCLUDED.verification_status,
	last_updated        = now()`

// UpsertBusiness inserts or fully replaces the row keyed by place_id.
func (s *PostgresStore) UpsertBusiness(ctx context.Context, rec *model.BusinessRecord) error {
	point, err := encodePoint(rec.Location)
	if err != nil {
		return err
	}

	var match []byte
	if rec.RegistryMatch != nil {
		match, err = json.Marshal(rec.RegistryMatch)
		if err != nil {
			return eris.Wrap(err, "postgres: marshal registry match")
		}
	}

	_, err = s.pool.Exec(ctx, upsertBusinessSQL,
		rec.PlaceID, rec.CompanyName, rec.TradespersonName, rec.PrimaryIndustry,
		rec.FullAddress, rec.Postcode, rec.WebsiteURL, rec.PhoneNumber,
		rec.EmailAddress, rec.SourceURL, rec.DateOfScraping, rec.Rating,
		rec.TotalRatings, point, match, string(rec.Verification))
	if err != nil {
		return eris.Wrapf(err, "postgres: upsert business %s", rec.PlaceID)
	}
	return nil
}

// encodePoint renders a GeoJSON point as EWKB for ST_GeomFromEWKB.
func encodePoint(p model.GeoPoint) ([]byte, error) {
	pt, err := geom.NewPoint(geom.XY).SetCoords(geom.Coord{p.Coordinates[0], p.Coordinates[1]})
	if err != nil {
		return nil, eris.Wrap(err, "postgres: build point")
	}
	raw, err := ewkb.Marshal(pt.SetSRID(4326), ewkb.NDR)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: encode point")
	}
	return raw, nil
}

const nearbyBusinessesSQL = `
SELECT place_id, company_name, tradesperson_name, primary_industry, full_address,
	postcode, website_url, phone_number, email_address, source_url,
	date_of_scraping, rating, total_ratings, ST_X(location), ST_Y(location),
	registry_match, verification_status, last_updated
FROM businesses
WHERE ST_DWithin(location::geography, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography, $3)
	AND ($4::text = '' OR primary_industry = $4)
	AND (NOT $5::boolean OR verification_status = 'verified')
ORDER BY location <-> ST_SetSRID(ST_MakePoint($1, $2), 4326)
LIMIT $6`

// NearbyBusinesses returns cached businesses within the radius, nearest first.
func (s *PostgresStore) NearbyBusinesses(ctx context.Context, q NearbyQuery) ([]model.BusinessRecord, error) {
	limit := q.Limit
	if limit <= 0 || limit > maxNearbyLimit {
		limit = maxNearbyLimit
	}

	rows, err := s.pool.Query(ctx, nearbyBusinessesSQL,
		q.Lng, q.Lat, q.RadiusMeters, q.Industry, q.VerifiedOnly, limit)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: nearby businesses")
	}
	defer rows.Close()

	out := make([]model.BusinessRecord, 0, limit)
	for rows.Next() {
		var (
			rec      model.BusinessRecord
			lng, lat float64
			match    []byte
			status   string
		)
		if err := rows.Scan(&rec.PlaceID, &rec.CompanyName, &rec.TradespersonName,
			&rec.PrimaryIndustry, &rec.FullAddress, &rec.Postcode, &rec.WebsiteURL,
			&rec.PhoneNumber, &rec.EmailAddress, &rec.SourceURL, &rec.DateOfScraping,
			&rec.Rating, &rec.TotalRatings, &lng, &lat, &match, &status,
			&rec.LastUpdated); err != nil {
			return nil, eris.Wrap(err, "postgres: scan business")
		}
		rec.Location = model.NewGeoPoint(model.Coordinates{Lat: lat, Lng: lng})
		rec.Verification = model.VerificationStatus(status)
		if len(match) > 0 {
			var rm model.RegistryMatch
			if err := json.Unmarshal(match, &rm); err != nil {
				return nil, eris.Wrapf(err, "postgres: decode registry match for %s", rec.PlaceID)
			}
			rec.RegistryMatch = &rm
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate businesses")
	}
	return out, nil
}

// CreateSearchRun records the start of a pipeline search and returns the run id.
func (s *PostgresStore) CreateSearchRun(ctx context.Context, location string, params model.SearchRequest) (string, error) {
	raw, err := json.Marshal(params)
	if err != nil {
		return "", eris.Wrap(err, "postgres: marshal search params")
	}
	id := uuid.New().String()
	_, err = s.pool.Exec(ctx,
		`INSERT INTO search_runs (id, location, params, status) VALUES ($1, $2, $3, $4)`,
		id, location, raw, string(model.RunStatusRunning))
	if err != nil {
		return "", eris.Wrap(err, "postgres: create search run")
	}
	return id, nil
}

// CompleteSearchRun finalizes the run with its status and result count.
func (s *PostgresStore) CompleteSearchRun(ctx context.Context, id string, status model.RunStatus, totalFound int) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE search_runs SET status = $1, total_found = $2, completed_at = now() WHERE id = $3`,
		string(status), totalFound, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: complete search run %s", id)
	}
	return nil
}

// defaultRunsLimit bounds a runs listing when the caller gives no limit.
const defaultRunsLimit = 20

const recentSearchRunsSQL = `
SELECT id, location, params, status, total_found, created_at, completed_at
FROM search_runs
ORDER BY created_at DESC
LIMIT $1`

// RecentSearchRuns returns the latest search runs, newest first.
func (s *PostgresStore) RecentSearchRuns(ctx context.Context, limit int) ([]model.SearchRun, error) {
	if limit <= 0 {
		limit = defaultRunsLimit
	}

	rows, err := s.pool.Query(ctx, recentSearchRunsSQL, limit)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: recent search runs")
	}
	defer rows.Close()

	out := make([]model.SearchRun, 0, limit)
	for rows.Next() {
		var (
			run    model.SearchRun
			params []byte
			status string
		)
		if err := rows.Scan(&run.ID, &run.Location, &params, &status,
			&run.TotalFound, &run.CreatedAt, &run.CompletedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan search run")
		}
		run.Status = model.RunStatus(status)
		if len(params) > 0 {
			if err := json.Unmarshal(params, &run.Params); err != nil {
				return nil, eris.Wrapf(err, "postgres: decode params for run %s", run.ID)
			}
		}
		out = append(out, run)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate search runs")
	}
	return out, nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() {
	s.closeFn()
}
