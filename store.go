package pubgallery

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/eringen/pubgallery/discovery"
)

// Store wraps a SQLite database holding discovered manifests and upload
// metadata.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the SQLite database at path, ensures the data
// directory exists, and runs schema migrations.
func NewStore(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// WAL lets page renders read manifests while a rediscovery writes one.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
		PRAGMA cache_size=-8000;
	`); err != nil {
		db.Close()
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS manifests (
    folder TEXT NOT NULL,
    mode TEXT NOT NULL,
    scan_limit INTEGER NOT NULL,
    entries TEXT NOT NULL,
    probes INTEGER NOT NULL DEFAULT 0,
    discovered_at TEXT NOT NULL,
    PRIMARY KEY (folder, mode, scan_limit)
);
CREATE TABLE IF NOT EXISTS uploads (
    folder TEXT NOT NULL,
    filename TEXT NOT NULL,
    thumbnail TEXT NOT NULL DEFAULT '',
    original_name TEXT NOT NULL,
    width INTEGER NOT NULL,
    height INTEGER NOT NULL,
    size INTEGER NOT NULL,
    uploaded_at TEXT NOT NULL,
    PRIMARY KEY (folder, filename)
);
`)
	return err
}

// SaveManifest upserts a manifest.
func (s *Store) SaveManifest(m Manifest) error {
	entries, err := json.Marshal(m.Entries)
	if err != nil {
		return fmt.Errorf("encode manifest %s: %w", m.Folder, err)
	}
	_, err = s.db.Exec(`INSERT OR REPLACE INTO manifests (folder, mode, scan_limit, entries, probes, discovered_at) VALUES (?, ?, ?, ?, ?, ?)`,
		m.Folder, m.Mode, m.Limit, string(entries), m.Probes, m.DiscoveredAt.UTC().Format(time.RFC3339Nano))
	return err
}

// GetManifest returns the stored manifest for a folder, mode and scan
// limit, or ErrNotFound.
func (s *Store) GetManifest(folder, mode string, limit int) (Manifest, error) {
	var entries, discoveredAt string
	var probes int
	err := s.db.QueryRow(`SELECT entries, probes, discovered_at FROM manifests WHERE folder = ? AND mode = ? AND scan_limit = ?`, folder, mode, limit).
		Scan(&entries, &probes, &discoveredAt)
	if err != nil {
		return Manifest{}, err
	}
	m := Manifest{Folder: folder, Mode: mode, Limit: limit, Probes: probes}
	if err := json.Unmarshal([]byte(entries), &m.Entries); err != nil {
		return Manifest{}, fmt.Errorf("decode manifest %s: %w", folder, err)
	}
	if m.Entries == nil {
		m.Entries = []discovery.Pair{}
	}
	m.DiscoveredAt, _ = time.Parse(time.RFC3339Nano, discoveredAt)
	return m, nil
}

// ListManifests returns the newest manifest per folder and mode.
func (s *Store) ListManifests() ([]Manifest, error) {
	rows, err := s.db.Query(`SELECT folder, mode, scan_limit, entries, probes, discovered_at FROM manifests ORDER BY folder, mode, discovered_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Manifest
	seen := make(map[string]bool)
	for rows.Next() {
		var m Manifest
		var entries, discoveredAt string
		if err := rows.Scan(&m.Folder, &m.Mode, &m.Limit, &entries, &m.Probes, &discoveredAt); err != nil {
			return nil, err
		}
		key := m.Folder + "/" + m.Mode
		if seen[key] {
			continue
		}
		seen[key] = true
		if err := json.Unmarshal([]byte(entries), &m.Entries); err != nil {
			return nil, fmt.Errorf("decode manifest %s: %w", m.Folder, err)
		}
		m.DiscoveredAt, _ = time.Parse(time.RFC3339Nano, discoveredAt)
		out = append(out, m)
	}
	return out, rows.Err()
}

// DeleteManifests removes every stored manifest of a folder.
func (s *Store) DeleteManifests(folder string) error {
	_, err := s.db.Exec(`DELETE FROM manifests WHERE folder = ?`, folder)
	return err
}

// SaveUpload stores metadata for an uploaded image.
func (s *Store) SaveUpload(u Upload) error {
	_, err := s.db.Exec(`INSERT OR REPLACE INTO uploads (folder, filename, thumbnail, original_name, width, height, size, uploaded_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		u.Folder, u.Filename, u.Thumbnail, u.OriginalName, u.Width, u.Height, u.Size, u.UploadedAt)
	return err
}

// ListUploads returns uploads newest first. An empty folder lists all.
func (s *Store) ListUploads(folder string) ([]Upload, error) {
	var rows *sql.Rows
	var err error
	if folder == "" {
		rows, err = s.db.Query(`SELECT folder, filename, thumbnail, original_name, width, height, size, uploaded_at FROM uploads ORDER BY uploaded_at DESC, filename DESC`)
	} else {
		rows, err = s.db.Query(`SELECT folder, filename, thumbnail, original_name, width, height, size, uploaded_at FROM uploads WHERE folder = ? ORDER BY uploaded_at DESC, filename DESC`, folder)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var uploads []Upload
	for rows.Next() {
		var u Upload
		if err := rows.Scan(&u.Folder, &u.Filename, &u.Thumbnail, &u.OriginalName, &u.Width, &u.Height, &u.Size, &u.UploadedAt); err != nil {
			return nil, err
		}
		uploads = append(uploads, u)
	}
	return uploads, rows.Err()
}

// RecentUploads returns at most n uploads across all folders.
func (s *Store) RecentUploads(n int) ([]Upload, error) {
	all, err := s.ListUploads("")
	if err != nil {
		return nil, err
	}
	if len(all) > n {
		all = all[:n]
	}
	return all, nil
}

// GetUpload returns one upload or ErrNotFound.
func (s *Store) GetUpload(folder, filename string) (Upload, error) {
	u := Upload{Folder: folder, Filename: filename}
	err := s.db.QueryRow(`SELECT thumbnail, original_name, width, height, size, uploaded_at FROM uploads WHERE folder = ? AND filename = ?`, folder, filename).
		Scan(&u.Thumbnail, &u.OriginalName, &u.Width, &u.Height, &u.Size, &u.UploadedAt)
	if err != nil {
		return Upload{}, err
	}
	return u, nil
}

// DeleteUpload removes upload metadata.
func (s *Store) DeleteUpload(folder, filename string) error {
	_, err := s.db.Exec(`DELETE FROM uploads WHERE folder = ? AND filename = ?`, folder, filename)
	return err
}
