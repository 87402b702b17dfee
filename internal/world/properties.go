package world

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// DefaultRconPort is the RCON port used when server.properties does not set one.
const DefaultRconPort = 22575

// ErrPropertiesParse is returned when server.properties is malformed.
var ErrPropertiesParse = errors.New("failed to parse server.properties")

// ServerProperties holds the subset of server.properties this tool interprets.
// Unrecognized keys are ignored, never an error.
type ServerProperties struct {
	RconPassword string
	RconPort     int
}

// LoadProperties parses the key=value properties file at path. Comment lines
// starting with # and blank lines are skipped; a non-blank line without a
// separator is a parse error.
func LoadProperties(path string) (*ServerProperties, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open server.properties: %w", err)
	}
	defer file.Close()

	props := &ServerProperties{RconPort: DefaultRconPort}
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "#") || strings.TrimSpace(line) == "" {
			continue
		}
		key, value, found := strings.Cut(line, "=")
		if !found {
			return nil, fmt.Errorf("%w: line %q has no separator", ErrPropertiesParse, line)
		}
		switch key {
		case "rcon.password":
			props.RconPassword = value
		case "rcon.port":
			port, err := strconv.Atoi(value)
			if err != nil {
				return nil, fmt.Errorf("%w: invalid rcon.port %q: %v", ErrPropertiesParse, value, err)
			}
			props.RconPort = port
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read server.properties: %w", err)
	}
	return props, nil
}
