// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists teaching resources, generated exercises, and user
// favorites in SQLite.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/microcosm-cc/bluemonday"

	"github.com/pdiddy/resource-curator/pkg/types"
)

// timeFormat is how timestamps are stored. Fixed-width so text order is
// chronological order.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// now is the clock used for timestamps. Tests override it.
var now = func() time.Time { return time.Now().UTC() }

// markup detects content that should pass through the HTML sanitizer.
var markup = regexp.MustCompile(`<[a-zA-Z!/][^>]*>`)

// Store manages the resource database.
type Store struct {
	db        *sql.DB
	cfg       types.StoreConfig
	fts       bool
	sanitizer *bluemonday.Policy
}

// Open opens or creates the database at cfg.Path and creates the schema if
// it does not exist. Full-text search is enabled when the SQLite build
// includes FTS5; otherwise Match queries fall back to LIKE.
func Open(cfg types.StoreConfig) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("store path is empty")
	}
	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if cfg.DefaultPageSize <= 0 {
		cfg.DefaultPageSize = types.DefaultPageSize
	}
	if cfg.MaxPageSize <= 0 {
		cfg.MaxPageSize = 100
	}

	s := &Store{
		db:        db,
		cfg:       cfg,
		sanitizer: bluemonday.UGCPolicy(),
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// FullText reports whether FTS5 indexing is available.
func (s *Store) FullText() bool { return s.fts }

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS resources (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL,
			type TEXT NOT NULL,
			content TEXT NOT NULL DEFAULT '',
			source_url TEXT NOT NULL DEFAULT '',
			tags TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_resources_type ON resources(type)`,
		`CREATE INDEX IF NOT EXISTS idx_resources_created_at ON resources(created_at)`,
		`CREATE TABLE IF NOT EXISTS exercises (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			knowledge_point TEXT NOT NULL,
			type TEXT NOT NULL,
			question TEXT NOT NULL,
			options TEXT NOT NULL DEFAULT '[]',
			answer TEXT NOT NULL,
			explanation TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_exercises_knowledge_point ON exercises(knowledge_point)`,
		`CREATE TABLE IF NOT EXISTS favorites (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			resource_id INTEGER NOT NULL REFERENCES resources(id) ON DELETE CASCADE,
			notes TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL,
			UNIQUE(user_id, resource_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_favorites_user ON favorites(user_id)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='resources_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}
	if ftsExists > 0 {
		s.fts = true
		return nil
	}

	ftsStatements := []string{
		`CREATE VIRTUAL TABLE resources_fts USING fts5(title, content, tags, content=resources, content_rowid=id)`,
		`CREATE TRIGGER resources_ai AFTER INSERT ON resources BEGIN
			INSERT INTO resources_fts(rowid, title, content, tags) VALUES (new.id, new.title, new.content, new.tags);
		END`,
		`CREATE TRIGGER resources_ad AFTER DELETE ON resources BEGIN
			INSERT INTO resources_fts(resources_fts, rowid, title, content, tags) VALUES('delete', old.id, old.title, old.content, old.tags);
		END`,
		`CREATE TRIGGER resources_au AFTER UPDATE ON resources BEGIN
			INSERT INTO resources_fts(resources_fts, rowid, title, content, tags) VALUES('delete', old.id, old.title, old.content, old.tags);
			INSERT INTO resources_fts(rowid, title, content, tags) VALUES (new.id, new.title, new.content, new.tags);
		END`,
	}
	if _, err := s.db.Exec(ftsStatements[0]); err != nil {
		if strings.Contains(err.Error(), "no such module") {
			return nil
		}
		return fmt.Errorf("creating FTS table: %w", err)
	}
	for _, stmt := range ftsStatements[1:] {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("creating FTS triggers: %w", err)
		}
	}
	s.fts = true
	return nil
}

// ErrNotFound is returned when a resource or favorite does not exist.
var ErrNotFound = errors.New("not found")

func notFound(what string, id int64) error {
	return types.NewError(types.ReasonNotFound, fmt.Sprintf("%s %d", what, id), ErrNotFound)
}

// sanitize strips unsafe HTML from content that carries markup. Plain text
// and Markdown pass through untouched.
func (s *Store) sanitize(content string) string {
	if !markup.MatchString(content) {
		return content
	}
	return s.sanitizer.Sanitize(content)
}

// pageBounds applies the store's paging defaults and cap.
func (s *Store) pageBounds(page, pageSize int) (int, int) {
	if pageSize <= 0 {
		pageSize = s.cfg.DefaultPageSize
	}
	if pageSize > s.cfg.MaxPageSize {
		pageSize = s.cfg.MaxPageSize
	}
	return types.NormalizePaging(page, pageSize)
}

func formatTime(t time.Time) string { return t.UTC().Format(timeFormat) }

func parseTime(s string) time.Time {
	t, err := time.Parse(timeFormat, s)
	if err != nil {
		t, _ = time.Parse(time.RFC3339Nano, s)
	}
	return t
}
