// Package prefs persists per-user catalog preferences in SQLite: per-stream
// flags keyed by URL plus pinned and hidden top-level groups. The catalog tree
// itself is rebuilt from the source on every refresh; this store is the only
// durable user data.
package prefs

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// ItemPrefs are the per-stream flags a user can toggle from the browse UI.
type ItemPrefs struct {
	Favorite bool    `json:"favorite"`
	Hidden   bool    `json:"hidden"`
	Watched  bool    `json:"watched"`
	Progress float64 `json:"progress,omitempty"` // playback position in seconds
}

func (p ItemPrefs) isZero() bool {
	return !p.Favorite && !p.Hidden && !p.Watched && p.Progress == 0
}

// Store is a SQLite-backed preferences database. Safe for concurrent use.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the preferences database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("prefs: open %s: %w", path, err)
	}
	// The driver returns SQLITE_BUSY under concurrent writers; a prefs store
	// sees so little traffic that a single connection costs nothing.
	db.SetMaxOpenConns(1)
	if err := initSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS item_prefs (
			url TEXT PRIMARY KEY,
			favorite INTEGER NOT NULL DEFAULT 0,
			hidden INTEGER NOT NULL DEFAULT 0,
			watched INTEGER NOT NULL DEFAULT 0,
			progress REAL NOT NULL DEFAULT 0,
			updated_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS pinned_groups (name TEXT PRIMARY KEY)`,
		`CREATE TABLE IF NOT EXISTS hidden_groups (name TEXT PRIMARY KEY)`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return fmt.Errorf("prefs: init schema: %w", err)
		}
	}
	return nil
}

func (s *Store) Close() error { return s.db.Close() }

// Item returns the stored prefs for a stream URL; the zero value when none.
func (s *Store) Item(url string) (ItemPrefs, error) {
	var p ItemPrefs
	err := s.db.QueryRow(
		`SELECT favorite, hidden, watched, progress FROM item_prefs WHERE url = ?`, url,
	).Scan(&p.Favorite, &p.Hidden, &p.Watched, &p.Progress)
	if err == sql.ErrNoRows {
		return ItemPrefs{}, nil
	}
	if err != nil {
		return ItemPrefs{}, fmt.Errorf("prefs: item %s: %w", url, err)
	}
	return p, nil
}

// SetItem stores prefs for a stream URL. Setting the zero value removes the
// row so the database only holds URLs the user actually touched.
func (s *Store) SetItem(url string, p ItemPrefs) error {
	if p.isZero() {
		_, err := s.db.Exec(`DELETE FROM item_prefs WHERE url = ?`, url)
		if err != nil {
			return fmt.Errorf("prefs: clear item %s: %w", url, err)
		}
		return nil
	}
	_, err := s.db.Exec(
		`INSERT INTO item_prefs (url, favorite, hidden, watched, progress, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(url) DO UPDATE SET
		   favorite = excluded.favorite,
		   hidden = excluded.hidden,
		   watched = excluded.watched,
		   progress = excluded.progress,
		   updated_at = excluded.updated_at`,
		url, p.Favorite, p.Hidden, p.Watched, p.Progress, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("prefs: set item %s: %w", url, err)
	}
	return nil
}

// Items returns all stored per-stream prefs keyed by URL.
func (s *Store) Items() (map[string]ItemPrefs, error) {
	rows, err := s.db.Query(`SELECT url, favorite, hidden, watched, progress FROM item_prefs`)
	if err != nil {
		return nil, fmt.Errorf("prefs: items: %w", err)
	}
	defer rows.Close()
	out := make(map[string]ItemPrefs)
	for rows.Next() {
		var url string
		var p ItemPrefs
		if err := rows.Scan(&url, &p.Favorite, &p.Hidden, &p.Watched, &p.Progress); err != nil {
			return nil, fmt.Errorf("prefs: items scan: %w", err)
		}
		out[url] = p
	}
	return out, rows.Err()
}

// PinGroup marks a top-level group as pinned so it sorts before everything else.
func (s *Store) PinGroup(name string) error {
	_, err := s.db.Exec(`INSERT INTO pinned_groups (name) VALUES (?) ON CONFLICT DO NOTHING`, name)
	if err != nil {
		return fmt.Errorf("prefs: pin %s: %w", name, err)
	}
	return nil
}

func (s *Store) UnpinGroup(name string) error {
	_, err := s.db.Exec(`DELETE FROM pinned_groups WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("prefs: unpin %s: %w", name, err)
	}
	return nil
}

// PinnedGroups returns the set of pinned top-level group names.
func (s *Store) PinnedGroups() (map[string]bool, error) {
	return s.nameSet("pinned_groups")
}

// HideGroup removes a top-level group from browse listings.
func (s *Store) HideGroup(name string) error {
	_, err := s.db.Exec(`INSERT INTO hidden_groups (name) VALUES (?) ON CONFLICT DO NOTHING`, name)
	if err != nil {
		return fmt.Errorf("prefs: hide %s: %w", name, err)
	}
	return nil
}

func (s *Store) UnhideGroup(name string) error {
	_, err := s.db.Exec(`DELETE FROM hidden_groups WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("prefs: unhide %s: %w", name, err)
	}
	return nil
}

// HiddenGroups returns the set of hidden top-level group names.
func (s *Store) HiddenGroups() (map[string]bool, error) {
	return s.nameSet("hidden_groups")
}

func (s *Store) nameSet(table string) (map[string]bool, error) {
	rows, err := s.db.Query(`SELECT name FROM ` + table)
	if err != nil {
		return nil, fmt.Errorf("prefs: %s: %w", table, err)
	}
	defer rows.Close()
	out := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("prefs: %s scan: %w", table, err)
		}
		out[name] = true
	}
	return out, rows.Err()
}
