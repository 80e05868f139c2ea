// Package store is the SQLite-backed reference implementation of the
// engine's collaborator interfaces: entity directory, access checker,
// attribute fetcher, and recency log. Every query is permission-filtered
// in the SQL itself, so an entity the actor cannot see never reaches a
// candidate list.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// Schema versions:
// v1: projects, memberships, builtins, tracks, tasks, contacts
// v2: track_shares and share_grants for cross-project sharing
// v3: reference_log for suggestion recency
const currentSchemaVersion = 3

// Store wraps the SQLite database. Safe for concurrent readers; SQLite
// serializes the writes (recency logging) itself.
type Store struct {
	db     *sql.DB
	path   string
	logger *zap.Logger
}

// Open initializes the database at path, creating the file and applying
// migrations as needed. A nil logger is replaced with a nop logger.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening store at %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logger.Debug("failed to set busy_timeout", zap.Error(err))
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		logger.Debug("failed to set journal_mode", zap.Error(err))
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		logger.Debug("failed to enable foreign_keys", zap.Error(err))
	}

	s := &Store{db: db, path: path, logger: logger}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	logger.Debug("store opened", zap.String("path", path))
	return s, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate brings the schema up to currentSchemaVersion. Statements are
// idempotent; the recorded version short-circuits repeat work.
func (s *Store) migrate() error {
	if _, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER NOT NULL
		)`); err != nil {
		return fmt.Errorf("creating schema_version: %w", err)
	}

	var version int
	err := s.db.QueryRow(`SELECT version FROM schema_version LIMIT 1`).Scan(&version)
	switch {
	case err == sql.ErrNoRows:
		version = 0
	case err != nil:
		return fmt.Errorf("reading schema version: %w", err)
	}
	if version >= currentSchemaVersion {
		return nil
	}

	for _, stmt := range schemaStatements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("applying schema: %w", err)
		}
	}

	if version == 0 {
		_, err = s.db.Exec(`INSERT INTO schema_version (version) VALUES (?)`, currentSchemaVersion)
	} else {
		_, err = s.db.Exec(`UPDATE schema_version SET version = ?`, currentSchemaVersion)
	}
	if err != nil {
		return fmt.Errorf("recording schema version: %w", err)
	}

	s.logger.Info("store schema migrated",
		zap.Int("from", version),
		zap.Int("to", currentSchemaVersion))
	return nil
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS projects (
		id   TEXT PRIMARY KEY,
		name TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS memberships (
		actor_id   TEXT NOT NULL,
		project_id TEXT NOT NULL REFERENCES projects(id),
		PRIMARY KEY (actor_id, project_id)
	)`,
	`CREATE TABLE IF NOT EXISTS builtins (
		id        TEXT PRIMARY KEY,
		name      TEXT NOT NULL,
		norm_name TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS tracks (
		id          TEXT PRIMARY KEY,
		project_id  TEXT NOT NULL REFERENCES projects(id),
		name        TEXT NOT NULL,
		norm_name   TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		color       TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_tracks_lookup ON tracks(project_id, norm_name)`,
	`CREATE TABLE IF NOT EXISTS tasks (
		id         TEXT PRIMARY KEY,
		project_id TEXT NOT NULL REFERENCES projects(id),
		track_id   TEXT REFERENCES tracks(id),
		name       TEXT NOT NULL,
		norm_name  TEXT NOT NULL,
		status     TEXT NOT NULL DEFAULT 'open',
		assignee   TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_lookup ON tasks(project_id, norm_name)`,
	`CREATE TABLE IF NOT EXISTS contacts (
		id             TEXT PRIMARY KEY,
		project_id     TEXT REFERENCES projects(id),
		owner_actor_id TEXT,
		name           TEXT NOT NULL,
		norm_name      TEXT NOT NULL,
		role           TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_contacts_lookup ON contacts(project_id, norm_name)`,
	`CREATE TABLE IF NOT EXISTS track_shares (
		track_id        TEXT NOT NULL REFERENCES tracks(id),
		from_project_id TEXT NOT NULL REFERENCES projects(id),
		to_project_id   TEXT NOT NULL REFERENCES projects(id),
		PRIMARY KEY (track_id, to_project_id)
	)`,
	`CREATE TABLE IF NOT EXISTS share_grants (
		actor_id TEXT NOT NULL,
		track_id TEXT NOT NULL REFERENCES tracks(id),
		PRIMARY KEY (actor_id, track_id)
	)`,
	`CREATE TABLE IF NOT EXISTS reference_log (
		actor_id     TEXT NOT NULL,
		category     TEXT NOT NULL,
		entity_id    TEXT NOT NULL,
		display_name TEXT NOT NULL,
		touched_at   INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_reference_log ON reference_log(actor_id, touched_at)`,
}
