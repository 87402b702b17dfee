// Package console executes administrative commands against a running server
// over RCON. Commands are infrequent and one-shot, so every call opens a
// fresh authenticated session instead of pooling connections.
package console

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gorcon/rcon"

	"github.com/wurstmineberg/systemd-minecraft/internal/world"
)

// ErrDisabled is returned when no RCON password is configured for a world.
// This is a first-class condition, distinct from a connect or auth failure,
// and is reported before any network I/O is attempted.
var ErrDisabled = errors.New("no RCON password is configured for this world")

// Executor runs one console command and returns the response text.
type Executor interface {
	Command(cmd string) (string, error)
}

// Client executes commands against a fixed address and password.
type Client struct {
	Addr        string
	Password    string
	DialTimeout time.Duration
}

// NewClient returns a client for the RCON listener on the given local port.
func NewClient(port int, password string) *Client {
	return &Client{
		Addr:        fmt.Sprintf("localhost:%d", port),
		Password:    password,
		DialTimeout: 5 * time.Second,
	}
}

// Command opens an authenticated session, executes cmd, and returns the
// response text.
func (c *Client) Command(cmd string) (string, error) {
	if c.Password == "" {
		return "", ErrDisabled
	}

	conn, err := rcon.Dial(c.Addr, c.Password, rcon.SetDialTimeout(c.DialTimeout))
	if err != nil {
		return "", fmt.Errorf("rcon connect to %s: %w", c.Addr, err)
	}
	defer conn.Close()

	response, err := conn.Execute(cmd)
	if err != nil {
		return "", fmt.Errorf("rcon command %q: %w", cmd, err)
	}
	return response, nil
}

// WorldClient executes commands against a world, loading its server.properties
// fresh on every call so port and password edits take effect immediately.
type WorldClient struct {
	World *world.World
}

// ForWorld returns an Executor bound to w.
func ForWorld(w *world.World) *WorldClient {
	return &WorldClient{World: w}
}

func (c *WorldClient) Command(cmd string) (string, error) {
	props, err := c.World.Properties()
	if err != nil {
		return "", err
	}
	return NewClient(props.RconPort, props.RconPassword).Command(cmd)
}

// Say broadcasts text in the in-game chat via /say. The server echoes nothing
// on success, so a non-empty response is an unexpected condition.
func Say(e Executor, text string) error {
	response, err := e.Command("say " + text)
	if err != nil {
		return err
	}
	if response != "" {
		return fmt.Errorf("unexpected response to say: %q", response)
	}
	return nil
}

// Tellraw broadcasts a raw JSON chat message to the given target selector,
// without the [Server] prefix /say adds.
func Tellraw(e Executor, target string, message any) error {
	if text, ok := message.(string); ok {
		message = map[string]string{"text": text}
	}
	payload, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to encode tellraw message: %w", err)
	}
	_, err = e.Command(fmt.Sprintf("tellraw %s %s", target, payload))
	return err
}
