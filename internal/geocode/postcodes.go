package geocode

import (
	"context"
	"database/sql"
	"encoding/csv"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/fieldstone-group/tradeintel/internal/model"
)

// postcodePattern matches a UK postcode inside a formatted address.
var postcodePattern = regexp.MustCompile(`([A-Z]{1,2}[0-9R][0-9A-Z]? ?[0-9][A-Z]{2})`)

// ExtractPostcode pulls a UK postcode out of a formatted address string.
// Returns the empty string when none is present.
func ExtractPostcode(address string) string {
	return postcodePattern.FindString(strings.ToUpper(address))
}

// NormalizePostcode uppercases a postcode and strips all whitespace, yielding
// the lookup key used by the table ("sw1a 1aa" → "SW1A1AA").
func NormalizePostcode(pc string) string {
	return strings.ToUpper(strings.Join(strings.Fields(pc), ""))
}

// PostcodeTable is the offline UK postcode → centroid lookup, backed by an
// embedded SQLite database populated from the ONS postcode directory.
type PostcodeTable struct {
	db *sql.DB
}

const postcodeMigration = `
CREATE TABLE IF NOT EXISTS postcodes (
	postcode  TEXT PRIMARY KEY,
	latitude  REAL NOT NULL,
	longitude REAL NOT NULL
);
`

// OpenPostcodeTable opens (creating if needed) the postcode database at path.
func OpenPostcodeTable(path string) (*PostcodeTable, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrap(err, "postcodes: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "postcodes: exec %s", pragma)
		}
	}
	if _, err := db.Exec(postcodeMigration); err != nil {
		db.Close()
		return nil, eris.Wrap(err, "postcodes: migrate")
	}
	return &PostcodeTable{db: db}, nil
}

// Close releases the database handle.
func (t *PostcodeTable) Close() error {
	return t.db.Close()
}

// Lookup resolves a postcode to its centroid. The second return is false when
// the postcode is not in the table.
func (t *PostcodeTable) Lookup(ctx context.Context, postcode string) (model.Coordinates, bool, error) {
	var c model.Coordinates
	err := t.db.QueryRowContext(ctx,
		`SELECT latitude, longitude FROM postcodes WHERE postcode = ?`,
		NormalizePostcode(postcode),
	).Scan(&c.Lat, &c.Lng)
	switch {
	case err == sql.ErrNoRows:
		return model.Coordinates{}, false, nil
	case err != nil:
		return model.Coordinates{}, false, eris.Wrap(err, "postcodes: lookup")
	}
	return c, true, nil
}

// Count returns the number of postcodes loaded.
func (t *PostcodeTable) Count(ctx context.Context) (int, error) {
	var n int
	if err := t.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM postcodes`).Scan(&n); err != nil {
		return 0, eris.Wrap(err, "postcodes: count")
	}
	return n, nil
}

// ImportCSV loads postcode centroids from an ONS-style CSV. The header row
// names the columns; postcode ("pcd", "pcds" or "postcode"), latitude
// ("lat"/"latitude") and longitude ("long"/"lng"/"longitude") are required.
// Rows with unparsable or out-of-range coordinates are skipped. Returns the
// number of rows upserted.
func (t *PostcodeTable) ImportCSV(ctx context.Context, r io.Reader) (int, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return 0, eris.Wrap(err, "postcodes: read csv header")
	}

	pcCol, latCol, lngCol := -1, -1, -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "pcd", "pcds", "postcode":
			pcCol = i
		case "lat", "latitude":
			latCol = i
		case "long", "lng", "longitude":
			lngCol = i
		}
	}
	if pcCol < 0 || latCol < 0 || lngCol < 0 {
		return 0, eris.Errorf("postcodes: csv header missing required columns: %v", header)
	}

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "postcodes: begin import")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO postcodes (postcode, latitude, longitude) VALUES (?, ?, ?)
		 ON CONFLICT(postcode) DO UPDATE SET latitude = excluded.latitude, longitude = excluded.longitude`)
	if err != nil {
		return 0, eris.Wrap(err, "postcodes: prepare import")
	}
	defer stmt.Close() //nolint:errcheck

	imported := 0
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, eris.Wrap(err, "postcodes: read csv row")
		}

		lat, latErr := strconv.ParseFloat(strings.TrimSpace(record[latCol]), 64)
		lng, lngErr := strconv.ParseFloat(strings.TrimSpace(record[lngCol]), 64)
		if latErr != nil || lngErr != nil {
			continue
		}
		coords := model.Coordinates{Lat: lat, Lng: lng}
		if !coords.Valid() {
			continue
		}

		pc := NormalizePostcode(record[pcCol])
		if pc == "" {
			continue
		}
		if _, err := stmt.ExecContext(ctx, pc, lat, lng); err != nil {
			return 0, eris.Wrapf(err, "postcodes: upsert %s", pc)
		}
		imported++
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "postcodes: commit import")
	}
	return imported, nil
}
