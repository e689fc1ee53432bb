package systemd

import (
	"context"
	"fmt"

	"github.com/coreos/go-systemd/v22/dbus"

	"github.com/canonical/static-reports-operator/internal/log"
)

// DBusConnection implements Connection wrapping systemd D-Bus operations.
type DBusConnection struct {
	conn *dbus.Conn
}

// NewDBusConnection creates a new D-Bus connection wrapper.
func NewDBusConnection(conn *dbus.Conn) *DBusConnection {
	return &DBusConnection{conn: conn}
}

// GetUnitProperty gets a property of a systemd unit.
func (d *DBusConnection) GetUnitProperty(ctx context.Context, unitName, propertyName string) (*dbus.Property, error) {
	prop, err := d.conn.GetUnitPropertyContext(ctx, unitName, propertyName)
	if err != nil {
		return nil, fmt.Errorf("error getting unit property %s for %s: %w", propertyName, unitName, err)
	}
	return prop, nil
}

// GetUnitProperties gets all properties of a systemd unit.
func (d *DBusConnection) GetUnitProperties(ctx context.Context, unitName string) (map[string]interface{}, error) {
	props, err := d.conn.GetUnitPropertiesContext(ctx, unitName)
	if err != nil {
		return nil, fmt.Errorf("error getting unit properties for %s: %w", unitName, err)
	}
	return props, nil
}

// StartUnit starts a systemd unit.
func (d *DBusConnection) StartUnit(ctx context.Context, unitName, mode string) (chan string, error) {
	ch := make(chan string, 1)
	_, err := d.conn.StartUnitContext(ctx, unitName, mode, ch)
	if err != nil {
		return nil, fmt.Errorf("error starting unit %s: %w", unitName, err)
	}
	return ch, nil
}

// StartUnitNoWait starts a systemd unit without tracking the job result.
func (d *DBusConnection) StartUnitNoWait(ctx context.Context, unitName, mode string) error {
	_, err := d.conn.StartUnitContext(ctx, unitName, mode, nil)
	if err != nil {
		return fmt.Errorf("error starting unit %s: %w", unitName, err)
	}
	return nil
}

// RestartUnit restarts a systemd unit.
func (d *DBusConnection) RestartUnit(ctx context.Context, unitName, mode string) (chan string, error) {
	ch := make(chan string, 1)
	_, err := d.conn.RestartUnitContext(ctx, unitName, mode, ch)
	if err != nil {
		return nil, fmt.Errorf("error restarting unit %s: %w", unitName, err)
	}
	return ch, nil
}

// EnableUnitFiles enables the given unit files persistently.
func (d *DBusConnection) EnableUnitFiles(ctx context.Context, files []string) error {
	_, _, err := d.conn.EnableUnitFilesContext(ctx, files, false, true)
	if err != nil {
		return fmt.Errorf("error enabling unit files %v: %w", files, err)
	}
	return nil
}

// DisableUnitFiles disables the given unit files.
func (d *DBusConnection) DisableUnitFiles(ctx context.Context, files []string) error {
	_, err := d.conn.DisableUnitFilesContext(ctx, files, false)
	if err != nil {
		return fmt.Errorf("error disabling unit files %v: %w", files, err)
	}
	return nil
}

// ListUnitFilesByPatterns lists installed unit files matching patterns.
func (d *DBusConnection) ListUnitFilesByPatterns(ctx context.Context, patterns []string) ([]dbus.UnitFile, error) {
	files, err := d.conn.ListUnitFilesByPatternsContext(ctx, nil, patterns)
	if err != nil {
		return nil, fmt.Errorf("error listing unit files: %w", err)
	}
	return files, nil
}

// Reload reloads systemd configuration.
func (d *DBusConnection) Reload(ctx context.Context) error {
	if err := d.conn.ReloadContext(ctx); err != nil {
		return fmt.Errorf("error reloading systemd: %w", err)
	}
	return nil
}

// Close closes the D-Bus connection.
func (d *DBusConnection) Close() error {
	d.conn.Close()
	return nil
}

// DefaultConnectionFactory implements ConnectionFactory.
type DefaultConnectionFactory struct {
	logger log.Logger
}

// NewConnectionFactory creates a new connection factory with injected logger.
func NewConnectionFactory(logger log.Logger) *DefaultConnectionFactory {
	return &DefaultConnectionFactory{logger: logger}
}

// NewConnection creates a new systemd system bus connection. The operator
// always manages system units; there is no user mode.
func (f *DefaultConnectionFactory) NewConnection(ctx context.Context) (Connection, error) {
	f.logger.Debug("Establishing system connection to systemd")

	conn, err := dbus.NewSystemConnectionContext(ctx)
	if err != nil {
		return nil, NewConnectionError(err)
	}
	return NewDBusConnection(conn), nil
}

// DefaultContextProvider implements ContextProvider.
type DefaultContextProvider struct {
	ctx context.Context
}

// NewDefaultContextProvider creates a new default context provider.
func NewDefaultContextProvider() *DefaultContextProvider {
	return &DefaultContextProvider{ctx: context.Background()}
}

// GetContext returns a context for systemd operations.
func (p *DefaultContextProvider) GetContext() context.Context {
	return p.ctx
}
