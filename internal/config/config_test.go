package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultPaths(t *testing.T) {
	cfg := Default()
	cfg.normalizePaths()

	if cfg.Paths.BaseDir != "/opt/wurstmineberg" {
		t.Fatalf("unexpected base dir: %s", cfg.Paths.BaseDir)
	}
	if cfg.Paths.WorldsDir != "/opt/wurstmineberg/world" {
		t.Fatalf("unexpected worlds dir: %s", cfg.Paths.WorldsDir)
	}
	if cfg.JarDir() != "/opt/wurstmineberg/jar" {
		t.Fatalf("unexpected jar dir: %s", cfg.JarDir())
	}
	if cfg.Database.Path != "/opt/wurstmineberg/systemd-minecraft.db" {
		t.Fatalf("unexpected database path: %s", cfg.Database.Path)
	}
}

func TestNormalizePathsFollowBaseDir(t *testing.T) {
	cfg := Default()
	cfg.Paths.BaseDir = "/srv/minecraft"
	cfg.normalizePaths()

	if cfg.Paths.WorldsDir != "/srv/minecraft/world" {
		t.Fatalf("unexpected worlds dir: %s", cfg.Paths.WorldsDir)
	}
	if cfg.Paths.BackupDir != "/srv/minecraft/backup" {
		t.Fatalf("unexpected backup dir: %s", cfg.Paths.BackupDir)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := "paths:\n  base_dir: " + dir + "\njava:\n  binary: /usr/lib/jvm/java-21/bin/java\n"
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	t.Setenv("CONFIG_PATH", configPath)
	t.Setenv("BASE_DIR", "")
	t.Setenv("WORLDS_DIR", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Paths.BaseDir != dir {
		t.Fatalf("expected base dir %s, got %s", dir, cfg.Paths.BaseDir)
	}
	if cfg.Java.Binary != "/usr/lib/jvm/java-21/bin/java" {
		t.Fatalf("unexpected java binary: %s", cfg.Java.Binary)
	}
	if cfg.Paths.WorldsDir != filepath.Join(dir, "world") {
		t.Fatalf("unexpected worlds dir: %s", cfg.Paths.WorldsDir)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "nonexistent.yaml"))
	t.Setenv("BASE_DIR", "")
	t.Setenv("WORLDS_DIR", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Launcher.ManifestURL != "https://launchermeta.mojang.com/mc/game/version_manifest.json" {
		t.Fatalf("unexpected manifest URL: %s", cfg.Launcher.ManifestURL)
	}
}
