package store

import "fmt"

type migration struct {
	Version string
	Up      string
}

var migrations = []migration{
	{
		Version: "001_artifacts",
		Up: `
			CREATE TABLE IF NOT EXISTS artifacts (
				version TEXT PRIMARY KEY,
				path TEXT NOT NULL,
				size INTEGER NOT NULL,
				sha256 TEXT NOT NULL,
				downloaded_at DATETIME NOT NULL
			)
		`,
	},
	{
		Version: "002_update_log",
		Up: `
			CREATE TABLE IF NOT EXISTS update_log (
				id TEXT PRIMARY KEY,
				world TEXT NOT NULL,
				from_version TEXT NOT NULL,
				to_version TEXT NOT NULL,
				applied_at DATETIME NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_update_log_world ON update_log(world, applied_at)
		`,
	},
}

func (s *Store) migrate() error {
	if _, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS migrations (
			version TEXT PRIMARY KEY,
			applied_at DATETIME NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied, err := s.appliedMigrations()
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if applied[m.Version] {
			continue
		}
		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		if _, err := tx.Exec(m.Up); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to execute migration %s: %w", m.Version, err)
		}
		if _, err := tx.Exec("INSERT INTO migrations (version, applied_at) VALUES (?, datetime('now'))", m.Version); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %s: %w", m.Version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %s: %w", m.Version, err)
		}
	}
	return nil
}

func (s *Store) appliedMigrations() (map[string]bool, error) {
	rows, err := s.db.Query("SELECT version FROM migrations")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			return nil, err
		}
		applied[version] = true
	}
	return applied, rows.Err()
}
