// Package supervisor runs one world's server process to completion. It races
// three event sources: the child exiting on its own, the termination signal
// from the service manager, and the shutdown timeout. On a termination
// request the child is asked to stop in-game first and killed only when the
// escalation window elapses.
package supervisor

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/wurstmineberg/systemd-minecraft/internal/console"
	"github.com/wurstmineberg/systemd-minecraft/internal/world"
)

const shutdownNotice = "SERVER SHUTTING DOWN IN 10 SECONDS. Saving map..."

// Timeouts bounds the graceful shutdown window. SaveGrace is the fixed
// quiescence interval after save-all; StopWait bounds how long the child gets
// to exit after the stop command before it is killed, so the supervisor never
// hangs on a misbehaving child.
type Timeouts struct {
	SaveGrace time.Duration
	StopWait  time.Duration
}

// DefaultTimeouts returns the production shutdown windows.
func DefaultTimeouts() Timeouts {
	return Timeouts{
		SaveGrace: 10 * time.Second,
		StopWait:  67 * time.Second,
	}
}

// Supervisor owns one child server process.
type Supervisor struct {
	World    *world.World
	Console  console.Executor
	Java     string
	Timeouts Timeouts
	Log      *slog.Logger

	// Signals delivers the termination request. If nil, Run subscribes to
	// SIGTERM.
	Signals <-chan os.Signal

	// Launch overrides the child command, for tests. If nil, the command is
	// built from the world's launch configuration.
	Launch func(cfg *world.Config) *exec.Cmd
}

// New returns a supervisor for w with default timeouts.
func New(w *world.World, javaBinary string, log *slog.Logger) *Supervisor {
	if log == nil {
		log = slog.Default()
	}
	return &Supervisor{
		World:    w,
		Console:  console.ForWorld(w),
		Java:     javaBinary,
		Timeouts: DefaultTimeouts(),
		Log:      log,
	}
}

// Run launches the child and blocks until it terminates. A spawn failure or
// an abnormal exit outside a forced kill is returned as an error; this
// invocation is meant to be restarted by the service manager, not to
// self-heal.
func (s *Supervisor) Run() error {
	cfg, err := s.World.Config()
	if err != nil {
		return fmt.Errorf("failed to load world config: %w", err)
	}

	sigCh := s.Signals
	if sigCh == nil {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGTERM)
		defer signal.Stop(ch)
		sigCh = ch
	}

	cmd := s.buildCommand(cfg)
	if s.Launch != nil {
		cmd = s.Launch(cfg)
	}

	child, err := startChild(cmd)
	if err != nil {
		return fmt.Errorf("failed to spawn server for world %s: %w", s.World, err)
	}
	s.Log.Info("server started", "world", s.World.Name(), "pid", cmd.Process.Pid)

	// The exit poller publishes exactly one event; the main flow blocks on
	// the selection point only.
	exitCh := make(chan error, 1)
	go func() {
		exitCh <- child.wait()
	}()

	select {
	case err := <-exitCh:
		return exitError(err)
	case <-sigCh:
		return s.shutdown(child, exitCh)
	}
}

// shutdown runs the escalating stop sequence: announce, save, quiesce, stop,
// wait, kill. Every console step is best-effort; the point is to reach the
// forced-kill fallback rather than hang.
func (s *Supervisor) shutdown(child *child, exitCh <-chan error) error {
	s.Log.Info("termination requested, shutting down", "world", s.World.Name())

	if err := console.Say(s.Console, shutdownNotice); err != nil {
		s.Log.Warn("failed to announce shutdown", "error", err)
	}
	if _, err := s.Console.Command("save-all"); err != nil {
		s.Log.Warn("failed to save world", "error", err)
	}
	time.Sleep(s.Timeouts.SaveGrace)
	if _, err := s.Console.Command("stop"); err != nil {
		s.Log.Warn("failed to send stop command", "error", err)
	}

	select {
	case err := <-exitCh:
		return exitError(err)
	case <-time.After(s.Timeouts.StopWait):
		fmt.Fprintln(os.Stderr, "The server could not be stopped! Killing...")
		s.Log.Error("server did not stop in time, killing", "world", s.World.Name())
		if err := child.kill(); err != nil {
			return fmt.Errorf("failed to kill server: %w", err)
		}
		<-exitCh
		return nil
	}
}

// buildCommand assembles the java invocation for the world.
func (s *Supervisor) buildCommand(cfg *world.Config) *exec.Cmd {
	args := []string{
		fmt.Sprintf("-Xms%dM", cfg.MemMinMB),
		fmt.Sprintf("-Xmx%dM", cfg.MemMaxMB),
	}
	if !cfg.Modded { // Fabric crashes with this option
		args = append(args, "-Dlog4j.configurationFile=log4j2.xml")
	}
	args = append(args, cfg.JavaArgs...)
	args = append(args, "-jar", filepath.Join(s.World.Dir(), world.ActiveJarName))

	cmd := exec.Command(s.Java, args...)
	cmd.Dir = s.World.Dir()
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd
}

func exitError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("server exited abnormally: %w", err)
}

// child guards the process handle shared between the exit poller and the
// forced-kill path.
type child struct {
	cmd *exec.Cmd

	mu     sync.Mutex
	exited bool
}

func startChild(cmd *exec.Cmd) (*child, error) {
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return &child{cmd: cmd}, nil
}

// wait reaps the child. Called exactly once, from the exit poller.
func (c *child) wait() error {
	err := c.cmd.Wait()
	c.mu.Lock()
	c.exited = true
	c.mu.Unlock()
	return err
}

// kill forcibly terminates the child. It is a no-op, not an error, when the
// child has already exited: the exit poller and the timeout can fire at the
// same instant.
func (c *child) kill() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.exited {
		return nil
	}
	if err := c.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return err
	}
	return nil
}
