// Package systemd provides systemd unit management for report services
// and timers over the D-Bus API.
package systemd

import (
	"context"

	"github.com/coreos/go-systemd/v22/dbus"
)

// Connection wraps systemd D-Bus operations for testability.
type Connection interface {
	// GetUnitProperty gets a property of a systemd unit.
	GetUnitProperty(ctx context.Context, unitName, propertyName string) (*dbus.Property, error)

	// GetUnitProperties gets all properties of a systemd unit.
	GetUnitProperties(ctx context.Context, unitName string) (map[string]interface{}, error)

	// StartUnit starts a systemd unit and returns a channel carrying the
	// job result.
	StartUnit(ctx context.Context, unitName, mode string) (chan string, error)

	// StartUnitNoWait starts a systemd unit without tracking the job.
	StartUnitNoWait(ctx context.Context, unitName, mode string) error

	// RestartUnit restarts a systemd unit and returns a channel carrying
	// the job result.
	RestartUnit(ctx context.Context, unitName, mode string) (chan string, error)

	// EnableUnitFiles enables the given unit files.
	EnableUnitFiles(ctx context.Context, files []string) error

	// DisableUnitFiles disables the given unit files.
	DisableUnitFiles(ctx context.Context, files []string) error

	// ListUnitFilesByPatterns lists installed unit files matching the
	// given glob patterns.
	ListUnitFilesByPatterns(ctx context.Context, patterns []string) ([]dbus.UnitFile, error)

	// Reload reloads the systemd unit cache (daemon-reload).
	Reload(ctx context.Context) error

	// Close closes the connection.
	Close() error
}

// ConnectionFactory creates Connection instances.
type ConnectionFactory interface {
	// NewConnection creates a new systemd system bus connection.
	NewConnection(ctx context.Context) (Connection, error)
}

// ContextProvider provides context for systemd operations.
type ContextProvider interface {
	// GetContext returns a context for systemd operations.
	GetContext() context.Context
}

// Manager manages report service and timer units.
type Manager interface {
	// Start starts a unit and waits for the job to finish.
	Start(unitName string) error

	// StartNoBlock starts a unit without waiting for the job.
	StartNoBlock(unitName string) error

	// Restart restarts a unit and waits for the job to finish.
	Restart(unitName string) error

	// EnableNow enables a unit file and starts it, the equivalent of
	// systemctl enable --now.
	EnableNow(unitName string) error

	// Disable disables a unit file.
	Disable(unitName string) error

	// DaemonReload reloads the systemd unit cache.
	DaemonReload() error

	// ListUnitFiles returns the base names of installed unit files
	// matching the given patterns.
	ListUnitFiles(patterns []string) ([]string, error)

	// ActiveState returns the ActiveState property of a unit.
	ActiveState(unitName string) (string, error)

	// Show prints unit configuration and status to stdout.
	Show(unitName string) error
}
