package systemd

import (
	"context"
	"fmt"

	"github.com/coreos/go-systemd/v22/dbus"
)

// MockConnection implements Connection for testing.
type MockConnection struct {
	GetUnitPropertyFunc         func(ctx context.Context, unitName, propertyName string) (*dbus.Property, error)
	GetUnitPropertiesFunc       func(ctx context.Context, unitName string) (map[string]interface{}, error)
	StartUnitFunc               func(ctx context.Context, unitName, mode string) (chan string, error)
	StartUnitNoWaitFunc         func(ctx context.Context, unitName, mode string) error
	RestartUnitFunc             func(ctx context.Context, unitName, mode string) (chan string, error)
	EnableUnitFilesFunc         func(ctx context.Context, files []string) error
	DisableUnitFilesFunc        func(ctx context.Context, files []string) error
	ListUnitFilesByPatternsFunc func(ctx context.Context, patterns []string) ([]dbus.UnitFile, error)
	ReloadFunc                  func(ctx context.Context) error
	CloseFunc                   func() error
}

// GetUnitProperty gets a property of a systemd unit.
func (m *MockConnection) GetUnitProperty(ctx context.Context, unitName, propertyName string) (*dbus.Property, error) {
	if m.GetUnitPropertyFunc != nil {
		return m.GetUnitPropertyFunc(ctx, unitName, propertyName)
	}
	return nil, fmt.Errorf("mock not implemented")
}

// GetUnitProperties gets all properties of a systemd unit.
func (m *MockConnection) GetUnitProperties(ctx context.Context, unitName string) (map[string]interface{}, error) {
	if m.GetUnitPropertiesFunc != nil {
		return m.GetUnitPropertiesFunc(ctx, unitName)
	}
	return nil, fmt.Errorf("mock not implemented")
}

// StartUnit starts a systemd unit.
func (m *MockConnection) StartUnit(ctx context.Context, unitName, mode string) (chan string, error) {
	if m.StartUnitFunc != nil {
		return m.StartUnitFunc(ctx, unitName, mode)
	}
	return nil, fmt.Errorf("mock not implemented")
}

// StartUnitNoWait starts a systemd unit without tracking the job.
func (m *MockConnection) StartUnitNoWait(ctx context.Context, unitName, mode string) error {
	if m.StartUnitNoWaitFunc != nil {
		return m.StartUnitNoWaitFunc(ctx, unitName, mode)
	}
	return fmt.Errorf("mock not implemented")
}

// RestartUnit restarts a systemd unit.
func (m *MockConnection) RestartUnit(ctx context.Context, unitName, mode string) (chan string, error) {
	if m.RestartUnitFunc != nil {
		return m.RestartUnitFunc(ctx, unitName, mode)
	}
	return nil, fmt.Errorf("mock not implemented")
}

// EnableUnitFiles enables the given unit files.
func (m *MockConnection) EnableUnitFiles(ctx context.Context, files []string) error {
	if m.EnableUnitFilesFunc != nil {
		return m.EnableUnitFilesFunc(ctx, files)
	}
	return fmt.Errorf("mock not implemented")
}

// DisableUnitFiles disables the given unit files.
func (m *MockConnection) DisableUnitFiles(ctx context.Context, files []string) error {
	if m.DisableUnitFilesFunc != nil {
		return m.DisableUnitFilesFunc(ctx, files)
	}
	return fmt.Errorf("mock not implemented")
}

// ListUnitFilesByPatterns lists installed unit files matching patterns.
func (m *MockConnection) ListUnitFilesByPatterns(ctx context.Context, patterns []string) ([]dbus.UnitFile, error) {
	if m.ListUnitFilesByPatternsFunc != nil {
		return m.ListUnitFilesByPatternsFunc(ctx, patterns)
	}
	return nil, fmt.Errorf("mock not implemented")
}

// Reload reloads systemd configuration.
func (m *MockConnection) Reload(ctx context.Context) error {
	if m.ReloadFunc != nil {
		return m.ReloadFunc(ctx)
	}
	return fmt.Errorf("mock not implemented")
}

// Close closes the connection.
func (m *MockConnection) Close() error {
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

// MockConnectionFactory implements ConnectionFactory for testing.
type MockConnectionFactory struct {
	NewConnectionFunc func(ctx context.Context) (Connection, error)
	Connection        Connection
}

// NewConnection creates a new systemd connection.
func (m *MockConnectionFactory) NewConnection(ctx context.Context) (Connection, error) {
	if m.NewConnectionFunc != nil {
		return m.NewConnectionFunc(ctx)
	}
	if m.Connection != nil {
		return m.Connection, nil
	}
	return nil, fmt.Errorf("mock not configured")
}

// MockManager implements Manager for testing. It records every call and
// returns the configured errors.
type MockManager struct {
	StartCalls         []string
	StartNoBlockCalls  []string
	RestartCalls       []string
	EnableNowCalls     []string
	DisableCalls       []string
	DaemonReloadCount  int
	ListUnitFilesFunc  func(patterns []string) ([]string, error)
	ActiveStateFunc    func(unitName string) (string, error)
	StartErr           error
	StartNoBlockErr    error
	RestartErr         error
	EnableNowErr       error
	DisableErr         error
	DaemonReloadErr    error
	StartErrFor        map[string]error
	RestartErrFor      map[string]error
}

// Start records the call and returns the configured error.
func (m *MockManager) Start(unitName string) error {
	m.StartCalls = append(m.StartCalls, unitName)
	if err, ok := m.StartErrFor[unitName]; ok {
		return err
	}
	return m.StartErr
}

// StartNoBlock records the call and returns the configured error.
func (m *MockManager) StartNoBlock(unitName string) error {
	m.StartNoBlockCalls = append(m.StartNoBlockCalls, unitName)
	return m.StartNoBlockErr
}

// Restart records the call and returns the configured error.
func (m *MockManager) Restart(unitName string) error {
	m.RestartCalls = append(m.RestartCalls, unitName)
	if err, ok := m.RestartErrFor[unitName]; ok {
		return err
	}
	return m.RestartErr
}

// EnableNow records the call and returns the configured error.
func (m *MockManager) EnableNow(unitName string) error {
	m.EnableNowCalls = append(m.EnableNowCalls, unitName)
	return m.EnableNowErr
}

// Disable records the call and returns the configured error.
func (m *MockManager) Disable(unitName string) error {
	m.DisableCalls = append(m.DisableCalls, unitName)
	return m.DisableErr
}

// DaemonReload records the call and returns the configured error.
func (m *MockManager) DaemonReload() error {
	m.DaemonReloadCount++
	return m.DaemonReloadErr
}

// ListUnitFiles returns the configured unit file names.
func (m *MockManager) ListUnitFiles(patterns []string) ([]string, error) {
	if m.ListUnitFilesFunc != nil {
		return m.ListUnitFilesFunc(patterns)
	}
	return nil, nil
}

// ActiveState returns the configured state.
func (m *MockManager) ActiveState(unitName string) (string, error) {
	if m.ActiveStateFunc != nil {
		return m.ActiveStateFunc(unitName)
	}
	return "inactive", nil
}

// Show is a no-op for the mock.
func (m *MockManager) Show(_ string) error {
	return nil
}

var _ Manager = (*MockManager)(nil)
var _ Connection = (*MockConnection)(nil)
var _ ConnectionFactory = (*MockConnectionFactory)(nil)
