// Package store keeps a registry of downloaded server artifacts and applied
// updates in SQLite. The registry is operational history only: every caller
// tolerates a nil *Store, and the artifact cache on disk remains the source
// of truth for what is installed.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Store wraps the database connection.
type Store struct {
	db *sql.DB
}

// Open opens (and creates, if needed) the database at dbPath and applies
// pending migrations.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	dsn, err := buildSQLiteDSN(dbPath)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	return s.db.Close()
}

func buildSQLiteDSN(dbPath string) (string, error) {
	absPath, err := filepath.Abs(dbPath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve database path: %w", err)
	}
	absPath = strings.ReplaceAll(absPath, "\\", "/")
	return fmt.Sprintf("file:%s?_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)", absPath), nil
}

// Artifact is one downloaded server binary in the cache.
type Artifact struct {
	Version      string
	Path         string
	Size         int64
	SHA256       string
	DownloadedAt time.Time
}

// RecordArtifact upserts the cache entry for a version. Re-downloads of the
// same version replace the previous row; content is reproducible from the
// same remote artifact, so last writer wins.
func (s *Store) RecordArtifact(a *Artifact) error {
	if s == nil {
		return nil
	}
	if a.DownloadedAt.IsZero() {
		a.DownloadedAt = time.Now().UTC()
	}
	_, err := s.db.Exec(`
		INSERT INTO artifacts (version, path, size, sha256, downloaded_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(version) DO UPDATE SET
			path = excluded.path,
			size = excluded.size,
			sha256 = excluded.sha256,
			downloaded_at = excluded.downloaded_at
	`, a.Version, a.Path, a.Size, a.SHA256, a.DownloadedAt)
	if err != nil {
		return fmt.Errorf("failed to record artifact %s: %w", a.Version, err)
	}
	return nil
}

// Artifact returns the registry entry for a version, or nil if none exists.
func (s *Store) Artifact(version string) (*Artifact, error) {
	if s == nil {
		return nil, nil
	}
	row := s.db.QueryRow(`
		SELECT version, path, size, sha256, downloaded_at
		FROM artifacts
		WHERE version = ?
	`, version)
	a := &Artifact{}
	if err := row.Scan(&a.Version, &a.Path, &a.Size, &a.SHA256, &a.DownloadedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load artifact %s: %w", version, err)
	}
	return a, nil
}

// UpdateRecord is one applied update.
type UpdateRecord struct {
	ID          string
	World       string
	FromVersion string
	ToVersion   string
	AppliedAt   time.Time
}

// RecordUpdate appends an update event for a world.
func (s *Store) RecordUpdate(world, fromVersion, toVersion string) error {
	if s == nil {
		return nil
	}
	_, err := s.db.Exec(`
		INSERT INTO update_log (id, world, from_version, to_version, applied_at)
		VALUES (?, ?, ?, ?, ?)
	`, uuid.New().String(), world, fromVersion, toVersion, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to record update for %s: %w", world, err)
	}
	return nil
}

// Updates returns the most recent updates for a world, newest first.
func (s *Store) Updates(world string, limit int) ([]*UpdateRecord, error) {
	if s == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(`
		SELECT id, world, from_version, to_version, applied_at
		FROM update_log
		WHERE world = ?
		ORDER BY applied_at DESC
		LIMIT ?
	`, world, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list updates for %s: %w", world, err)
	}
	defer rows.Close()

	var records []*UpdateRecord
	for rows.Next() {
		r := &UpdateRecord{}
		if err := rows.Scan(&r.ID, &r.World, &r.FromVersion, &r.ToVersion, &r.AppliedAt); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
