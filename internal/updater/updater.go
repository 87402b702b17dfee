// Package updater installs server versions: it resolves a version specifier,
// downloads the artifact into the shared jar cache unless already present,
// and repoints the world's active jar link while coordinating with the
// world's running state.
package updater

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/wurstmineberg/systemd-minecraft/internal/launchermeta"
	"github.com/wurstmineberg/systemd-minecraft/internal/store"
	"github.com/wurstmineberg/systemd-minecraft/internal/systemd"
	"github.com/wurstmineberg/systemd-minecraft/internal/world"
)

// Updater coordinates version resolution, the artifact cache, and the
// service manager.
type Updater struct {
	Launcher *launchermeta.Client
	Systemd  systemd.Manager
	Store    *store.Store
	JarDir   string
	Log      *slog.Logger
}

// New returns an updater writing artifacts into jarDir.
func New(launcher *launchermeta.Client, manager systemd.Manager, registry *store.Store, jarDir string, log *slog.Logger) *Updater {
	if log == nil {
		log = slog.Default()
	}
	return &Updater{
		Launcher: launcher,
		Systemd:  manager,
		Store:    registry,
		JarDir:   jarDir,
		Log:      log,
	}
}

// CachePath returns the cache entry for a version identifier. Entry paths are
// deterministic: existence of the file means the artifact is already
// downloaded.
func (u *Updater) CachePath(versionID string) string {
	return filepath.Join(u.JarDir, "minecraft_server."+versionID+".jar")
}

// Update resolves spec, installs the artifact for w, and returns the resolved
// version identifier. A world that was running before the update is running
// after; a stopped world stays stopped.
func (u *Updater) Update(ctx context.Context, w *world.World, spec launchermeta.VersionSpec) (string, error) {
	manifest, err := u.Launcher.Manifest(ctx)
	if err != nil {
		return "", err
	}
	entry, err := manifest.Resolve(spec)
	if err != nil {
		return "", err
	}

	cachePath := u.CachePath(entry.ID)
	if _, err := os.Stat(cachePath); os.IsNotExist(err) {
		if err := u.fetchArtifact(ctx, entry, cachePath); err != nil {
			return "", err
		}
	} else if err != nil {
		return "", fmt.Errorf("stat cache entry %s: %w", cachePath, err)
	}

	unit := systemd.UnitName(w.Name())
	wasRunning, err := u.Systemd.IsActive(ctx, unit)
	if err != nil {
		return "", fmt.Errorf("failed to query %s: %w", unit, err)
	}

	previous := u.installedVersion(w)

	if wasRunning {
		u.Log.Info("stopping world for update", "world", w.Name(), "version", entry.ID)
		if err := u.Systemd.Stop(ctx, unit); err != nil {
			return "", fmt.Errorf("failed to stop %s: %w", unit, err)
		}
	}

	// The window between unlink and symlink is the one acknowledged moment of
	// vulnerability; nothing else happens between the two calls.
	active := w.ActiveJar()
	if err := os.Remove(active); err != nil && !os.IsNotExist(err) {
		return "", fmt.Errorf("failed to remove active jar link: %w", err)
	}
	if err := os.Symlink(cachePath, active); err != nil {
		return "", fmt.Errorf("failed to link active jar: %w", err)
	}

	if wasRunning {
		if err := u.Systemd.Start(ctx, unit); err != nil {
			return "", fmt.Errorf("failed to start %s: %w", unit, err)
		}
	}

	if err := u.Store.RecordUpdate(w.Name(), previous, entry.ID); err != nil {
		u.Log.Warn("failed to record update", "world", w.Name(), "error", err)
	}
	u.Log.Info("world updated", "world", w.Name(), "version", entry.ID, "restarted", wasRunning)
	return entry.ID, nil
}

// fetchArtifact downloads the server artifact for entry into cachePath and
// registers it.
func (u *Updater) fetchArtifact(ctx context.Context, entry *launchermeta.ManifestEntry, cachePath string) error {
	info, err := u.Launcher.VersionInfo(ctx, entry)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(u.JarDir, 0755); err != nil {
		return fmt.Errorf("failed to create jar directory: %w", err)
	}

	u.Log.Info("downloading server artifact", "version", entry.ID, "url", info.Downloads.Server.URL)
	size, err := u.Launcher.Download(ctx, info.Downloads.Server.URL, cachePath)
	if err != nil {
		// Never leave a truncated file where a later run would mistake it for
		// a complete cache entry.
		os.Remove(cachePath)
		return err
	}

	sum, err := fileSHA256(cachePath)
	if err != nil {
		u.Log.Warn("failed to hash artifact", "version", entry.ID, "error", err)
	}
	if err := u.Store.RecordArtifact(&store.Artifact{
		Version: entry.ID,
		Path:    cachePath,
		Size:    size,
		SHA256:  sum,
	}); err != nil {
		u.Log.Warn("failed to record artifact", "version", entry.ID, "error", err)
	}
	return nil
}

// installedVersion derives the currently linked version from the active jar
// link target, or empty if there is none.
func (u *Updater) installedVersion(w *world.World) string {
	target, err := os.Readlink(w.ActiveJar())
	if err != nil {
		return ""
	}
	name := filepath.Base(target)
	name = strings.TrimPrefix(name, "minecraft_server.")
	return strings.TrimSuffix(name, ".jar")
}

func fileSHA256(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", err
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}
