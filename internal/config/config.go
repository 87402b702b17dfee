package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Paths    PathsConfig    `yaml:"paths" json:"paths"`
	Java     JavaConfig     `yaml:"java" json:"java"`
	Launcher LauncherConfig `yaml:"launcher" json:"launcher"`
	Database DatabaseConfig `yaml:"database" json:"database"`
	Logging  LoggingConfig  `yaml:"logging" json:"logging"`
}

// PathsConfig contains the filesystem layout. Every component receives its
// paths from here instead of hardcoded constants so tests can redirect them
// to a temporary directory.
type PathsConfig struct {
	BaseDir   string `yaml:"base_dir" json:"base_dir"`
	WorldsDir string `yaml:"worlds_dir" json:"worlds_dir"`
	BackupDir string `yaml:"backup_dir" json:"backup_dir"`
}

// JavaConfig contains settings for the Java runtime used to launch servers.
type JavaConfig struct {
	Binary string `yaml:"binary" json:"binary"`
}

// LauncherConfig contains the Mojang launcher metadata endpoint.
type LauncherConfig struct {
	ManifestURL string `yaml:"manifest_url" json:"manifest_url"`
}

// DatabaseConfig contains settings for the artifact and update registry.
type DatabaseConfig struct {
	Path string `yaml:"path" json:"path"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level      string `yaml:"level" json:"level"`
	Format     string `yaml:"format" json:"format"`
	File       string `yaml:"file" json:"file"`
	MaxSize    int    `yaml:"max_size" json:"max_size"`
	MaxBackups int    `yaml:"max_backups" json:"max_backups"`
	MaxAge     int    `yaml:"max_age" json:"max_age"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Paths: PathsConfig{
			BaseDir: "/opt/wurstmineberg",
		},
		Java: JavaConfig{
			Binary: "/usr/bin/java",
		},
		Launcher: LauncherConfig{
			ManifestURL: "https://launchermeta.mojang.com/mc/game/version_manifest.json",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			MaxSize:    50,
			MaxBackups: 3,
			MaxAge:     30,
		},
	}
}

// Load loads configuration from file and environment variables.
func Load() (*Config, error) {
	cfg := Default()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "/etc/systemd-minecraft/config.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if baseDir := os.Getenv("BASE_DIR"); baseDir != "" {
		cfg.Paths.BaseDir = baseDir
	}
	if worldsDir := os.Getenv("WORLDS_DIR"); worldsDir != "" {
		cfg.Paths.WorldsDir = worldsDir
	}
	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	cfg.normalizePaths()

	return cfg, nil
}

// normalizePaths fills derived paths from the base directory.
func (c *Config) normalizePaths() {
	if strings.TrimSpace(c.Paths.BaseDir) == "" {
		c.Paths.BaseDir = "/opt/wurstmineberg"
	}
	c.Paths.BaseDir = filepath.Clean(c.Paths.BaseDir)

	if strings.TrimSpace(c.Paths.WorldsDir) == "" {
		c.Paths.WorldsDir = filepath.Join(c.Paths.BaseDir, "world")
	}
	c.Paths.WorldsDir = filepath.Clean(c.Paths.WorldsDir)

	if strings.TrimSpace(c.Paths.BackupDir) == "" {
		c.Paths.BackupDir = filepath.Join(c.Paths.BaseDir, "backup")
	}
	c.Paths.BackupDir = filepath.Clean(c.Paths.BackupDir)

	if strings.TrimSpace(c.Database.Path) == "" {
		c.Database.Path = filepath.Join(c.Paths.BaseDir, "systemd-minecraft.db")
	}
	c.Database.Path = filepath.Clean(c.Database.Path)
}

// JarDir returns the directory holding downloaded server artifacts.
func (c *Config) JarDir() string {
	return filepath.Join(c.Paths.BaseDir, "jar")
}
