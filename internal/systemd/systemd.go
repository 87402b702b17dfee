// Package systemd talks to the service manager over the system D-Bus. Worlds
// run as instances of the minecraft@.service template; liveness is a read-only
// probe of the unit's ActiveState rather than in-process bookkeeping, because
// the supervisor process and the caller may be different invocations.
package systemd

import (
	"context"
	"fmt"

	"github.com/godbus/dbus/v5"
)

const (
	busName     = "org.freedesktop.systemd1"
	managerPath = "/org/freedesktop/systemd1"
	managerIface = "org.freedesktop.systemd1.Manager"
)

// UnitName returns the systemd unit for a world name.
func UnitName(world string) string {
	return "minecraft@" + world + ".service"
}

// Manager probes and drives service units.
type Manager interface {
	IsActive(ctx context.Context, unit string) (bool, error)
	Start(ctx context.Context, unit string) error
	Stop(ctx context.Context, unit string) error
}

// Conn is a Manager backed by the system bus.
type Conn struct {
	bus *dbus.Conn
}

// New connects to the system bus and subscribes to unit signals.
func New() (*Conn, error) {
	bus, err := dbus.SystemBus()
	if err != nil {
		return nil, fmt.Errorf("system bus: %w", err)
	}

	obj := bus.Object(busName, managerPath)
	if call := obj.Call(managerIface+".Subscribe", 0); call.Err != nil {
		return nil, fmt.Errorf("systemd subscribe: %w", call.Err)
	}
	match := "type='signal',sender='org.freedesktop.systemd1',interface='" + managerIface + "',member='JobRemoved'"
	_ = bus.BusObject().Call("org.freedesktop.DBus.AddMatch", 0, match)

	return &Conn{bus: bus}, nil
}

// Close releases the bus connection.
func (c *Conn) Close() error {
	return c.bus.Close()
}

// IsActive reports whether the unit's ActiveState is "active". A unit systemd
// has not loaded counts as inactive.
func (c *Conn) IsActive(ctx context.Context, unit string) (bool, error) {
	obj := c.bus.Object(busName, managerPath)
	var path dbus.ObjectPath
	if err := obj.CallWithContext(ctx, managerIface+".GetUnit", 0, unit).Store(&path); err != nil {
		return false, nil
	}

	variant, err := c.bus.Object(busName, path).GetProperty("org.freedesktop.systemd1.Unit.ActiveState")
	if err != nil {
		return false, fmt.Errorf("unit %s state: %w", unit, err)
	}
	state, _ := variant.Value().(string)
	return state == "active", nil
}

// Start enqueues a start job for the unit and waits for it to finish.
func (c *Conn) Start(ctx context.Context, unit string) error {
	return c.runJob(ctx, unit, "StartUnit")
}

// Stop enqueues a stop job for the unit and waits for it to finish.
func (c *Conn) Stop(ctx context.Context, unit string) error {
	return c.runJob(ctx, unit, "StopUnit")
}

func (c *Conn) runJob(ctx context.Context, unit, method string) error {
	// Register for signals before enqueueing the job so its JobRemoved cannot
	// be missed.
	sigCh := make(chan *dbus.Signal, 16)
	c.bus.Signal(sigCh)
	defer c.bus.RemoveSignal(sigCh)

	obj := c.bus.Object(busName, managerPath)
	var jobPath dbus.ObjectPath
	if err := obj.CallWithContext(ctx, managerIface+"."+method, 0, unit, "replace").Store(&jobPath); err != nil {
		return fmt.Errorf("%s %s: %w", method, unit, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case sig := <-sigCh:
			if sig == nil || sig.Name != managerIface+".JobRemoved" || len(sig.Body) < 4 {
				continue
			}
			path, _ := sig.Body[1].(dbus.ObjectPath)
			if path != jobPath {
				continue
			}
			result, _ := sig.Body[3].(string)
			if result != "done" {
				return fmt.Errorf("systemd job for %s finished with result %q", unit, result)
			}
			return nil
		}
	}
}
