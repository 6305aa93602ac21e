package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	app "memocal/src/app"
	cfg "memocal/src/configuration"
)

type (
	EntryDB interface {
		Connect() bool
		ListEntries() ([]app.Entry, error)
		UpsertEntry(entry app.Entry) error
		DeleteEntry(date string) error
	}

	SqliteEntryDB struct {
		path string
		db   *sql.DB
	}
)

func NewEntryDataBase(config *cfg.Properties) (EntryDB, error) {
	if config == nil {
		return nil, fmt.Errorf("config is not valid")
	}
	return &SqliteEntryDB{path: config.Store.Path}, nil
}

func (s *SqliteEntryDB) Connect() bool {
	db, err := sql.Open("sqlite3", s.path)
	if err != nil {
		return false
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return false
	}
	// Per-date rows give the same item semantics as a keyed item store:
	// writes to different dates never conflict.
	schema := `
	CREATE TABLE IF NOT EXISTS entries (
		date TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		caption TEXT NOT NULL DEFAULT '',
		media TEXT
	);`
	if _, err := db.Exec(schema); err != nil {
		return false
	}
	s.db = db
	return true
}

// ListEntries returns every entry sorted ascending by date. Lexical order
// is chronological for ISO dates.
func (s *SqliteEntryDB) ListEntries() ([]app.Entry, error) {
	if s.db == nil {
		return nil, fmt.Errorf("entry store is not connected")
	}
	rows, err := s.db.Query("SELECT date, kind, caption, media FROM entries ORDER BY date ASC")
	if err != nil {
		return nil, fmt.Errorf("can not list entries: %v", err)
	}
	defer rows.Close()

	entries := make([]app.Entry, 0)
	for rows.Next() {
		var entry app.Entry
		var media sql.NullString
		if err := rows.Scan(&entry.Date, &entry.Kind, &entry.Caption, &media); err != nil {
			return nil, fmt.Errorf("can not scan entry: %v", err)
		}
		if media.Valid && media.String != "" {
			if err := json.Unmarshal([]byte(media.String), &entry.Media); err != nil {
				return nil, fmt.Errorf("bad media list for %s: %v", entry.Date, err)
			}
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// UpsertEntry writes the entry keyed by its date, replacing any previous
// row. The media attribute is omitted entirely when the list is empty.
func (s *SqliteEntryDB) UpsertEntry(entry app.Entry) error {
	if s.db == nil {
		return fmt.Errorf("entry store is not connected")
	}
	var media any
	if len(entry.Media) > 0 {
		encoded, err := json.Marshal(entry.Media)
		if err != nil {
			return fmt.Errorf("can not marshal media list: %v", err)
		}
		media = string(encoded)
	}
	_, err := s.db.Exec(
		"INSERT OR REPLACE INTO entries (date, kind, caption, media) VALUES (?, ?, ?, ?)",
		entry.Date, string(entry.Kind), entry.Caption, media)
	if err != nil {
		return fmt.Errorf("can not upsert entry %s: %v", entry.Date, err)
	}
	return nil
}

func (s *SqliteEntryDB) DeleteEntry(date string) error {
	if s.db == nil {
		return fmt.Errorf("entry store is not connected")
	}
	if _, err := s.db.Exec("DELETE FROM entries WHERE date = ?", date); err != nil {
		return fmt.Errorf("can not delete entry %s: %v", date, err)
	}
	return nil
}
