// Package backup archives world directories. Automatic saves are suspended
// around the tarball so the world data on disk is consistent; both the
// suspend and the archive schedule tolerate a world that is not running.
package backup

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/wurstmineberg/systemd-minecraft/internal/console"
	"github.com/wurstmineberg/systemd-minecraft/internal/world"
)

// saveQuiesce is how long a forced save gets to reach disk before the
// tarball starts.
const saveQuiesce = 10 * time.Second

// Manager creates world backups.
type Manager struct {
	BackupDir string
	Console   console.Executor
	Log       *slog.Logger

	// Quiesce overrides saveQuiesce, for tests.
	Quiesce time.Duration
}

// NewManager returns a backup manager writing under backupDir/<world>.
func NewManager(backupDir string, exec console.Executor, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	return &Manager{
		BackupDir: backupDir,
		Console:   exec,
		Log:       log,
		Quiesce:   saveQuiesce,
	}
}

// Backup archives w's directory and returns the tarball path. If announce is
// set, players are told in-game that saves are being suspended and resumed.
// Console failures are logged and skipped: a stopped world has nothing to
// suspend, and its directory can be archived as-is.
func (m *Manager) Backup(ctx context.Context, w *world.World, announce bool) (string, error) {
	m.saveOff(announce)
	defer m.saveOn(announce)

	destPath := filepath.Join(m.BackupDir, w.Name(), archiveName(w.Name(), time.Now()))
	m.Log.Info("backing up world", "world", w.Name(), "dest", destPath)
	if err := createArchive(w.Dir(), destPath); err != nil {
		return "", err
	}
	return destPath, nil
}

// List returns the backup tarballs for a world, oldest first.
func (m *Manager) List(w *world.World) ([]string, error) {
	dir := filepath.Join(m.BackupDir, w.Name())
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	var backups []string
	for _, entry := range entries {
		if entry.IsDir() || !isArchiveName(entry.Name(), w.Name()) {
			continue
		}
		backups = append(backups, filepath.Join(dir, entry.Name()))
	}
	return backups, nil
}

// saveOff suspends automatic saves and forces one final save to disk.
func (m *Manager) saveOff(announce bool) {
	if announce {
		if err := console.Say(m.Console, "Server backup starting. Server going readonly..."); err != nil {
			m.Log.Warn("failed to announce backup start", "error", err)
		}
	}
	if _, err := m.Console.Command("save-off"); err != nil {
		m.Log.Warn("world not running, not suspending saves", "error", err)
		return
	}
	if _, err := m.Console.Command("save-all"); err != nil {
		m.Log.Warn("failed to force save", "error", err)
	}
	time.Sleep(m.Quiesce)
}

// saveOn re-enables automatic saves.
func (m *Manager) saveOn(announce bool) {
	if _, err := m.Console.Command("save-on"); err != nil {
		m.Log.Warn("world not running, not resuming saves", "error", err)
		return
	}
	if announce {
		if err := console.Say(m.Console, "Server backup ended. Server going readwrite..."); err != nil {
			m.Log.Warn("failed to announce backup end", "error", err)
		}
	}
}
