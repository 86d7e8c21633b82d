package localstate

// store.go is the per-installation state file: device identifier, saved
// access token and reading history, kept in a small sqlite database under
// the user's home directory.

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS kv (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS read_history (
	manga_id       TEXT NOT NULL,
	chapter_id     TEXT NOT NULL,
	chapter_number REAL NOT NULL,
	read_at        TIMESTAMP NOT NULL,
	PRIMARY KEY (manga_id, chapter_id)
);
`

const (
	deviceIDKey    = "device_id"
	accessTokenKey = "access_token"
)

type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the state database at path. ":memory:" is
// accepted for tests.
func Open(path string) (*Store, error) {
	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create state directory: %w", err)
		}
	}
	// Pragmas via DSN so they apply to every pooled connection.
	if strings.Contains(dsn, "?") {
		dsn += "&"
	} else {
		dsn += "?"
	}
	dsn += "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open state database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply state schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// DeviceID returns the stable per-installation identifier, generating and
// persisting one on first read. The insert-or-ignore makes concurrent first
// reads converge on a single identifier.
func (s *Store) DeviceID() (string, error) {
	candidate := uuid.NewString()
	_, err := s.db.Exec(
		`INSERT INTO kv (key, value) VALUES (?, ?) ON CONFLICT (key) DO NOTHING`,
		deviceIDKey, candidate,
	)
	if err != nil {
		return "", fmt.Errorf("persist device id: %w", err)
	}
	var id string
	if err := s.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, deviceIDKey).Scan(&id); err != nil {
		return "", fmt.Errorf("read device id: %w", err)
	}
	return id, nil
}

// AccessToken returns the saved bearer token, or "" when logged out.
func (s *Store) AccessToken() (string, error) {
	var token string
	err := s.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, accessTokenKey).Scan(&token)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read access token: %w", err)
	}
	return token, nil
}

// SetAccessToken saves the bearer token; an empty token logs out.
func (s *Store) SetAccessToken(token string) error {
	if token == "" {
		_, err := s.db.Exec(`DELETE FROM kv WHERE key = ?`, accessTokenKey)
		return err
	}
	_, err := s.db.Exec(
		`INSERT INTO kv (key, value) VALUES (?, ?)
		 ON CONFLICT (key) DO UPDATE SET value = excluded.value`,
		accessTokenKey, token,
	)
	return err
}

// ReadEntry is one recently read chapter.
type ReadEntry struct {
	MangaID       string
	ChapterID     string
	ChapterNumber float64
	ReadAt        time.Time
}

// RecordRead upserts a chapter into the reading history.
func (s *Store) RecordRead(mangaID, chapterID string, chapterNumber float64) error {
	_, err := s.db.Exec(
		`INSERT INTO read_history (manga_id, chapter_id, chapter_number, read_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (manga_id, chapter_id) DO UPDATE
		 SET chapter_number = excluded.chapter_number, read_at = excluded.read_at`,
		mangaID, chapterID, chapterNumber, time.Now().UTC(),
	)
	return err
}

// RecentReads returns the most recently read chapters, newest first.
func (s *Store) RecentReads(limit int) ([]ReadEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(
		`SELECT manga_id, chapter_id, chapter_number, read_at
		 FROM read_history ORDER BY read_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ReadEntry
	for rows.Next() {
		var e ReadEntry
		if err := rows.Scan(&e.MangaID, &e.ChapterID, &e.ChapterNumber, &e.ReadAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
