// Package store persists drivers and the records they index in a local
// SQLite database.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BuuhV-Projects/anidock-hub-sub000/internal/driver"
	"github.com/BuuhV-Projects/anidock-hub-sub000/internal/models"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

const (
	busyTimeoutMs = 5000
	cacheSize     = -8000 // 8MB
)

const schema = `
CREATE TABLE IF NOT EXISTS drivers (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	domain TEXT NOT NULL,
	base_url TEXT NOT NULL,
	selectors TEXT NOT NULL,
	requires_external_link INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS animes (
	id TEXT PRIMARY KEY,
	driver_id TEXT NOT NULL REFERENCES drivers(id) ON DELETE CASCADE,
	title TEXT NOT NULL,
	synopsis TEXT NOT NULL DEFAULT '',
	cover_url TEXT NOT NULL DEFAULT '',
	source_url TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS episodes (
	id TEXT PRIMARY KEY,
	anime_id TEXT NOT NULL REFERENCES animes(id) ON DELETE CASCADE,
	number INTEGER NOT NULL,
	title TEXT NOT NULL DEFAULT '',
	thumbnail_url TEXT NOT NULL DEFAULT '',
	source_url TEXT NOT NULL,
	watched INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_animes_driver ON animes(driver_id);
CREATE INDEX IF NOT EXISTS idx_episodes_anime ON episodes(anime_id);
`

// SQLite implements the persistence verbs over a local database file.
type SQLite struct {
	db *sql.DB
}

// Open creates (or opens) the database at dbPath and prepares the schema.
func Open(dbPath string) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o700); err != nil {
		return nil, errors.Wrap(err, "failed to create data directory")
	}

	dsn := fmt.Sprintf(
		"file:%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=%d&_cache_size=%d&_foreign_keys=on",
		dbPath, busyTimeoutMs, cacheSize,
	)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "failed to prepare schema")
	}
	return &SQLite{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// SaveDriver upserts a driver record.
func (s *SQLite) SaveDriver(ctx context.Context, d *driver.Driver) error {
	selectors, err := json.Marshal(d.Selectors)
	if err != nil {
		return errors.Wrap(err, "failed to encode selectors")
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO drivers (id, name, domain, base_url, selectors, requires_external_link, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			domain = excluded.domain,
			base_url = excluded.base_url,
			selectors = excluded.selectors,
			requires_external_link = excluded.requires_external_link,
			updated_at = excluded.updated_at`,
		d.ID, d.Name, d.Domain, d.BaseURL, string(selectors),
		boolToInt(d.RequiresExternalLink), d.CreatedAt, time.Now(),
	)
	return errors.Wrap(err, "failed to save driver")
}

// GetDriver loads one driver by id.
func (s *SQLite) GetDriver(ctx context.Context, id string) (*driver.Driver, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, domain, base_url, selectors, requires_external_link, created_at, updated_at
		FROM drivers WHERE id = ?`, id)
	return scanDriver(row)
}

// ListDrivers returns every stored driver, newest first.
func (s *SQLite) ListDrivers(ctx context.Context) ([]*driver.Driver, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, domain, base_url, selectors, requires_external_link, created_at, updated_at
		FROM drivers ORDER BY created_at DESC`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list drivers")
	}
	defer rows.Close()

	var drivers []*driver.Driver
	for rows.Next() {
		d, err := scanDriver(rows)
		if err != nil {
			return nil, err
		}
		drivers = append(drivers, d)
	}
	return drivers, errors.Wrap(rows.Err(), "failed to list drivers")
}

// DeleteDriver removes a driver and, through the cascade, everything it
// indexed.
func (s *SQLite) DeleteDriver(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM drivers WHERE id = ?`, id)
	return errors.Wrap(err, "failed to delete driver")
}

// SaveAnime upserts a catalog record and its attached episodes.
func (s *SQLite) SaveAnime(ctx context.Context, a *models.Anime) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO animes (id, driver_id, title, synopsis, cover_url, source_url, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			synopsis = excluded.synopsis,
			cover_url = excluded.cover_url,
			source_url = excluded.source_url,
			updated_at = excluded.updated_at`,
		a.ID, a.DriverID, a.Title, a.Synopsis, a.CoverURL, a.SourceURL, a.CreatedAt, time.Now(),
	)
	if err != nil {
		return errors.Wrap(err, "failed to save anime")
	}

	for _, ep := range a.Episodes {
		if err := saveEpisodeTx(ctx, tx, a.ID, &ep); err != nil {
			return err
		}
	}
	return errors.Wrap(tx.Commit(), "failed to commit anime")
}

// ListAnimes returns the indexed records of one driver.
func (s *SQLite) ListAnimes(ctx context.Context, driverID string) ([]*models.Anime, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, driver_id, title, synopsis, cover_url, source_url, created_at, updated_at
		FROM animes WHERE driver_id = ? ORDER BY title`, driverID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list animes")
	}
	defer rows.Close()

	var animes []*models.Anime
	for rows.Next() {
		a := &models.Anime{}
		if err := rows.Scan(&a.ID, &a.DriverID, &a.Title, &a.Synopsis, &a.CoverURL,
			&a.SourceURL, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, errors.Wrap(err, "failed to scan anime")
		}
		animes = append(animes, a)
	}
	return animes, errors.Wrap(rows.Err(), "failed to list animes")
}

// SaveEpisodes replaces the episode list of one anime.
func (s *SQLite) SaveEpisodes(ctx context.Context, animeID string, episodes []models.Episode) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM episodes WHERE anime_id = ?`, animeID); err != nil {
		return errors.Wrap(err, "failed to clear episodes")
	}
	for i := range episodes {
		if err := saveEpisodeTx(ctx, tx, animeID, &episodes[i]); err != nil {
			return err
		}
	}
	return errors.Wrap(tx.Commit(), "failed to commit episodes")
}

// ListEpisodes returns the stored episodes of one anime in number order.
func (s *SQLite) ListEpisodes(ctx context.Context, animeID string) ([]models.Episode, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, number, title, thumbnail_url, source_url, watched
		FROM episodes WHERE anime_id = ? ORDER BY number`, animeID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list episodes")
	}
	defer rows.Close()

	var episodes []models.Episode
	for rows.Next() {
		var ep models.Episode
		var watched int
		if err := rows.Scan(&ep.ID, &ep.Number, &ep.Title, &ep.ThumbnailURL,
			&ep.SourceURL, &watched); err != nil {
			return nil, errors.Wrap(err, "failed to scan episode")
		}
		ep.Watched = watched != 0
		episodes = append(episodes, ep)
	}
	return episodes, errors.Wrap(rows.Err(), "failed to list episodes")
}

func saveEpisodeTx(ctx context.Context, tx *sql.Tx, animeID string, ep *models.Episode) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO episodes (id, anime_id, number, title, thumbnail_url, source_url, watched)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			number = excluded.number,
			title = excluded.title,
			thumbnail_url = excluded.thumbnail_url,
			source_url = excluded.source_url`,
		ep.ID, animeID, ep.Number, ep.Title, ep.ThumbnailURL, ep.SourceURL, boolToInt(ep.Watched),
	)
	return errors.Wrap(err, "failed to save episode")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDriver(row rowScanner) (*driver.Driver, error) {
	d := &driver.Driver{}
	var selectors string
	var external int
	if err := row.Scan(&d.ID, &d.Name, &d.Domain, &d.BaseURL, &selectors,
		&external, &d.CreatedAt, &d.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.New("driver not found")
		}
		return nil, errors.Wrap(err, "failed to scan driver")
	}
	if err := json.Unmarshal([]byte(selectors), &d.Selectors); err != nil {
		return nil, errors.Wrap(err, "failed to decode selectors")
	}
	d.RequiresExternalLink = external != 0
	return d, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
