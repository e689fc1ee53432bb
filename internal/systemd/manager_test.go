package systemd

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/coreos/go-systemd/v22/dbus"
	godbus "github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canonical/static-reports-operator/internal/execx"
	"github.com/canonical/static-reports-operator/internal/log"
)

func testManager(conn *MockConnection, runner execx.Runner) *DefaultManager {
	if runner == nil {
		runner = &execx.MockRunner{Output: []byte("journal output")}
	}
	logger := log.NewSlogAdapter(slog.New(slog.NewTextHandler(io.Discard, nil)))
	return NewManager(&MockConnectionFactory{Connection: conn}, NewDefaultContextProvider(), logger, runner)
}

func jobResult(result string) func(ctx context.Context, unitName, mode string) (chan string, error) {
	return func(_ context.Context, _, _ string) (chan string, error) {
		ch := make(chan string, 1)
		ch <- result
		return ch, nil
	}
}

func stringProperty(name, value string) *dbus.Property {
	return &dbus.Property{Name: name, Value: godbus.MakeVariant(value)}
}

func unitProperties(m map[string]interface{}) func(ctx context.Context, unitName string) (map[string]interface{}, error) {
	return func(_ context.Context, _ string) (map[string]interface{}, error) {
		return m, nil
	}
}

func TestStart(t *testing.T) {
	t.Run("done", func(t *testing.T) {
		conn := &MockConnection{StartUnitFunc: jobResult("done")}
		m := testManager(conn, nil)

		assert.NoError(t, m.Start("update-seeds.service"))
	})

	t.Run("failed job includes details", func(t *testing.T) {
		conn := &MockConnection{
			StartUnitFunc: jobResult("failed"),
			GetUnitPropertiesFunc: unitProperties(map[string]interface{}{
				"LoadState":   "loaded",
				"ActiveState": "failed",
				"SubState":    "failed",
				"Result":      "exit-code",
			}),
		}
		runner := &execx.MockRunner{Output: []byte("Aug 25 10:00:00 host update-seeds[123]: boom")}
		m := testManager(conn, runner)

		err := m.Start("update-seeds.service")
		require.Error(t, err)

		var ce *ControlError
		require.True(t, errors.As(err, &ce))
		assert.Equal(t, "Start", ce.Operation)
		assert.Equal(t, "update-seeds.service", ce.UnitName)
		assert.Contains(t, err.Error(), `job result "failed"`)
		assert.Contains(t, err.Error(), "exit-code")
		assert.Contains(t, err.Error(), "boom")

		journalCalls := runner.CallsTo("journalctl")
		require.Len(t, journalCalls, 1)
		assert.Contains(t, journalCalls[0].Args, "update-seeds.service")
	})

	t.Run("call rejected", func(t *testing.T) {
		conn := &MockConnection{
			StartUnitFunc: func(_ context.Context, _, _ string) (chan string, error) {
				return nil, errors.New("access denied")
			},
		}
		m := testManager(conn, nil)

		err := m.Start("update-seeds.service")
		assert.True(t, IsControlError(err))
	})

	t.Run("connection failure", func(t *testing.T) {
		factory := &MockConnectionFactory{
			NewConnectionFunc: func(_ context.Context) (Connection, error) {
				return nil, NewConnectionError(errors.New("no bus"))
			},
		}
		logger := log.NewSlogAdapter(slog.New(slog.NewTextHandler(io.Discard, nil)))
		m := NewManager(factory, NewDefaultContextProvider(), logger, &execx.MockRunner{})

		err := m.Start("update-seeds.service")
		assert.True(t, IsConnectionError(err))
	})
}

func TestStartNoBlock(t *testing.T) {
	var started []string
	conn := &MockConnection{
		StartUnitNoWaitFunc: func(_ context.Context, unitName, mode string) error {
			started = append(started, unitName)
			assert.Equal(t, "replace", mode)
			return nil
		},
	}
	m := testManager(conn, nil)

	require.NoError(t, m.StartNoBlock("package-subscribers.service"))
	assert.Equal(t, []string{"package-subscribers.service"}, started)
}

func TestRestart(t *testing.T) {
	t.Run("loaded unit", func(t *testing.T) {
		conn := &MockConnection{
			GetUnitPropertyFunc: func(_ context.Context, _, propertyName string) (*dbus.Property, error) {
				assert.Equal(t, "LoadState", propertyName)
				return stringProperty("LoadState", "loaded"), nil
			},
			RestartUnitFunc: jobResult("done"),
		}
		m := testManager(conn, nil)

		assert.NoError(t, m.Restart("nginx.service"))
	})

	t.Run("not loaded", func(t *testing.T) {
		conn := &MockConnection{
			GetUnitPropertyFunc: func(_ context.Context, _, _ string) (*dbus.Property, error) {
				return stringProperty("LoadState", "not-found"), nil
			},
		}
		m := testManager(conn, nil)

		err := m.Restart("nginx.service")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not loaded")
	})

	t.Run("failed job", func(t *testing.T) {
		conn := &MockConnection{
			GetUnitPropertyFunc: func(_ context.Context, _, _ string) (*dbus.Property, error) {
				return stringProperty("LoadState", "loaded"), nil
			},
			RestartUnitFunc:       jobResult("failed"),
			GetUnitPropertiesFunc: unitProperties(map[string]interface{}{"LoadState": "loaded"}),
		}
		m := testManager(conn, nil)

		err := m.Restart("nginx.service")
		require.Error(t, err)

		var ce *ControlError
		require.True(t, errors.As(err, &ce))
		assert.Equal(t, "Restart", ce.Operation)
	})
}

func TestEnableNow(t *testing.T) {
	var enabled [][]string
	var started []string
	conn := &MockConnection{
		EnableUnitFilesFunc: func(_ context.Context, files []string) error {
			enabled = append(enabled, files)
			return nil
		},
		StartUnitNoWaitFunc: func(_ context.Context, unitName, _ string) error {
			started = append(started, unitName)
			return nil
		},
	}
	m := testManager(conn, nil)

	require.NoError(t, m.EnableNow("update-seeds.timer"))
	assert.Equal(t, [][]string{{"update-seeds.timer"}}, enabled)
	assert.Equal(t, []string{"update-seeds.timer"}, started)
}

func TestDisable(t *testing.T) {
	var disabled [][]string
	conn := &MockConnection{
		DisableUnitFilesFunc: func(_ context.Context, files []string) error {
			disabled = append(disabled, files)
			return nil
		},
	}
	m := testManager(conn, nil)

	require.NoError(t, m.Disable("stale-report.timer"))
	assert.Equal(t, [][]string{{"stale-report.timer"}}, disabled)
}

func TestDaemonReload(t *testing.T) {
	reloads := 0
	conn := &MockConnection{
		ReloadFunc: func(_ context.Context) error {
			reloads++
			return nil
		},
	}
	m := testManager(conn, nil)

	require.NoError(t, m.DaemonReload())
	assert.Equal(t, 1, reloads)
}

func TestListUnitFiles(t *testing.T) {
	conn := &MockConnection{
		ListUnitFilesByPatternsFunc: func(_ context.Context, patterns []string) ([]dbus.UnitFile, error) {
			assert.Equal(t, []string{"*.timer"}, patterns)
			return []dbus.UnitFile{
				{Path: "/etc/systemd/system/update-seeds.timer", Type: "enabled"},
				{Path: "/etc/systemd/system/packageset-report.timer", Type: "enabled"},
			}, nil
		},
	}
	m := testManager(conn, nil)

	names, err := m.ListUnitFiles([]string{"*.timer"})
	require.NoError(t, err)
	assert.Equal(t, []string{"update-seeds.timer", "packageset-report.timer"}, names)
}

func TestActiveState(t *testing.T) {
	t.Run("string property", func(t *testing.T) {
		conn := &MockConnection{
			GetUnitPropertyFunc: func(_ context.Context, _, propertyName string) (*dbus.Property, error) {
				assert.Equal(t, "ActiveState", propertyName)
				return stringProperty("ActiveState", "active"), nil
			},
		}
		m := testManager(conn, nil)

		state, err := m.ActiveState("nginx.service")
		require.NoError(t, err)
		assert.Equal(t, "active", state)
	})

	t.Run("unexpected type", func(t *testing.T) {
		conn := &MockConnection{
			GetUnitPropertyFunc: func(_ context.Context, _, _ string) (*dbus.Property, error) {
				return &dbus.Property{Name: "ActiveState", Value: godbus.MakeVariant(42)}, nil
			},
		}
		m := testManager(conn, nil)

		_, err := m.ActiveState("nginx.service")
		assert.Error(t, err)
	})
}
