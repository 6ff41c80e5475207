package data

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/marcboeker/go-duckdb/v2"
)

const schema = `
CREATE TABLE IF NOT EXISTS series (
	id VARCHAR PRIMARY KEY,
	title VARCHAR NOT NULL,
	source_url VARCHAR NOT NULL UNIQUE,
	status VARCHAR NOT NULL DEFAULT 'downloading'
);
CREATE TABLE IF NOT EXISTS chapters (
	series_id VARCHAR NOT NULL,
	title VARCHAR NOT NULL,
	url VARCHAR NOT NULL,
	downloaded BOOLEAN NOT NULL DEFAULT FALSE,
	packaged BOOLEAN NOT NULL DEFAULT FALSE,
	archive_path VARCHAR NOT NULL DEFAULT '',
	PRIMARY KEY (series_id, title)
);
`

// ChapterStatus is one chapter row as tracked across runs.
type ChapterStatus struct {
	SeriesID    string
	Title       string
	URL         string
	Downloaded  bool
	Packaged    bool
	ArchivePath string
}

// Repository persists series and chapter history in DuckDB. It is
// best-effort bookkeeping: callers log repository errors and keep going.
type Repository struct {
	db *sql.DB
}

func InitDuckDB(path string) (*sql.DB, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return db, nil
}

func NewRepository(path string) (*Repository, error) {
	db, err := InitDuckDB(path)
	if err != nil {
		return nil, err
	}
	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

// SaveSeries inserts or updates a series keyed by its source URL. The ID is
// assigned on first insert and preserved afterwards.
func (r *Repository) SaveSeries(series *Series) error {
	if series.ID == "" {
		existing, err := r.GetSeriesByURL(series.SourceURL)
		if err != nil {
			return err
		}
		if existing != nil {
			series.ID = existing.ID
		} else {
			series.ID = uuid.New().String()
		}
	}
	_, err := r.db.Exec(`
		INSERT INTO series (id, title, source_url, status) VALUES (?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET title = excluded.title, status = excluded.status`,
		series.ID, series.Title, series.SourceURL, series.Status)
	return err
}

func (r *Repository) GetSeriesByURL(sourceURL string) (*Series, error) {
	row := r.db.QueryRow(`SELECT id, title, source_url, status FROM series WHERE source_url = ?`, sourceURL)
	var s Series
	if err := row.Scan(&s.ID, &s.Title, &s.SourceURL, &s.Status); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *Repository) ListSeries() ([]*Series, error) {
	rows, err := r.db.Query(`SELECT id, title, source_url, status FROM series ORDER BY title`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Series
	for rows.Next() {
		var s Series
		if err := rows.Scan(&s.ID, &s.Title, &s.SourceURL, &s.Status); err != nil {
			return nil, err
		}
		out = append(out, &s)
	}
	return out, rows.Err()
}

// SaveChapter records a chapter row, keeping any download/package state a
// previous run already set.
func (r *Repository) SaveChapter(ch *ChapterStatus) error {
	_, err := r.db.Exec(`
		INSERT INTO chapters (series_id, title, url, downloaded, packaged, archive_path)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (series_id, title) DO UPDATE SET url = excluded.url`,
		ch.SeriesID, ch.Title, ch.URL, ch.Downloaded, ch.Packaged, ch.ArchivePath)
	return err
}

func (r *Repository) MarkDownloaded(seriesID, title string) error {
	_, err := r.db.Exec(`UPDATE chapters SET downloaded = TRUE WHERE series_id = ? AND title = ?`,
		seriesID, title)
	return err
}

func (r *Repository) MarkPackaged(seriesID, title, archivePath string) error {
	_, err := r.db.Exec(`UPDATE chapters SET packaged = TRUE, archive_path = ? WHERE series_id = ? AND title = ?`,
		archivePath, seriesID, title)
	return err
}

// MarkPackagedByTitle is the packaging-worker variant of MarkPackaged: the
// worker only knows titles, not series IDs.
func (r *Repository) MarkPackagedByTitle(seriesTitle, chapterTitle, archivePath string) error {
	_, err := r.db.Exec(`
		UPDATE chapters SET packaged = TRUE, archive_path = ?
		WHERE title = ? AND series_id IN (SELECT id FROM series WHERE title = ?)`,
		archivePath, chapterTitle, seriesTitle)
	return err
}

func (r *Repository) GetChapters(seriesID string) ([]*ChapterStatus, error) {
	rows, err := r.db.Query(`
		SELECT series_id, title, url, downloaded, packaged, archive_path
		FROM chapters WHERE series_id = ? ORDER BY title`, seriesID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*ChapterStatus
	for rows.Next() {
		var c ChapterStatus
		if err := rows.Scan(&c.SeriesID, &c.Title, &c.URL, &c.Downloaded, &c.Packaged, &c.ArchivePath); err != nil {
			return nil, err
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}
