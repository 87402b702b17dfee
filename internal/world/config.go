package world

import (
	"encoding/json"
	"fmt"
	"os"
)

// ConfigFileName is the per-world launch configuration file.
const ConfigFileName = "systemd-minecraft.json"

// Config contains per-world launch parameters.
type Config struct {
	// Heap sizes in MB. The defaults are the recommended values for a 2GB host.
	MemMinMB int `json:"memMinMB"`
	MemMaxMB int `json:"memMaxMB"`
	// Modded disables the log4j configuration flag, which crashes Fabric.
	Modded bool `json:"modded"`
	// JavaArgs are passed verbatim, in order, before the -jar argument.
	JavaArgs []string `json:"javaArgs"`
	// Backups configures scheduled backups while the world runs.
	Backups BackupSettings `json:"backups"`
}

// BackupSettings configures the backup schedule for a world.
type BackupSettings struct {
	Enabled bool `json:"enabled"`
	// Schedule is a cron expression evaluated by the schedule runner.
	Schedule string `json:"schedule"`
}

// DefaultConfig returns the launch configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		MemMinMB: 1024,
		MemMaxMB: 1536,
	}
}

// LoadConfig reads the launch configuration at path. A missing file yields the
// defaults; unknown fields and invalid heap sizes are errors.
func LoadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to open world config: %w", err)
	}
	defer file.Close()

	cfg := DefaultConfig()
	decoder := json.NewDecoder(file)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse world config %s: %w", path, err)
	}

	if cfg.MemMinMB < 0 || cfg.MemMaxMB < 0 {
		return nil, fmt.Errorf("world config %s: heap sizes must not be negative", path)
	}
	return cfg, nil
}
