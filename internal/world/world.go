// Package world models one named Minecraft server instance and its on-disk
// layout: a directory under the worlds dir holding the launch configuration,
// server.properties, and the active server jar link.
package world

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// ActiveJarName is the name of the symlink pointing at the server artifact a
// world currently launches. Updates repoint this link, they never overwrite
// the artifact itself.
const ActiveJarName = "minecraft_server.jar"

// World identifies one named server instance. The directory on disk is the
// source of truth; a World is immutable once constructed.
type World struct {
	name string
	dir  string
}

// New returns the world with the given name inside worldsDir.
func New(name, worldsDir string) *World {
	return &World{
		name: name,
		dir:  filepath.Join(worldsDir, name),
	}
}

// Name returns the world name.
func (w *World) Name() string { return w.name }

// Dir returns the world directory.
func (w *World) Dir() string { return w.dir }

// String implements fmt.Stringer.
func (w *World) String() string { return w.name }

// ActiveJar returns the path of the active server jar link.
func (w *World) ActiveJar() string {
	return filepath.Join(w.dir, ActiveJarName)
}

// Config loads the world's launch configuration. It is read fresh on every
// call so external edits take effect on the next operation.
func (w *World) Config() (*Config, error) {
	return LoadConfig(filepath.Join(w.dir, ConfigFileName))
}

// Properties loads the world's server.properties, fresh on every call.
func (w *World) Properties() (*ServerProperties, error) {
	return LoadProperties(filepath.Join(w.dir, "server.properties"))
}

// All lists every world configured under worldsDir, sorted by name.
func All(worldsDir string) ([]*World, error) {
	entries, err := os.ReadDir(worldsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read worlds directory: %w", err)
	}

	var worlds []*World
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		worlds = append(worlds, New(entry.Name(), worldsDir))
	}
	sort.Slice(worlds, func(i, j int) bool { return worlds[i].name < worlds[j].name })
	return worlds, nil
}
