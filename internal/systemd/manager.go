package systemd

import (
	"context"
	"fmt"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/ini.v1"

	"github.com/canonical/static-reports-operator/internal/execx"
	"github.com/canonical/static-reports-operator/internal/log"
	"github.com/canonical/static-reports-operator/internal/validate"
)

// DefaultManager implements Manager over a systemd D-Bus connection.
type DefaultManager struct {
	connectionFactory ConnectionFactory
	contextProvider   ContextProvider
	logger            log.Logger
	runner            execx.Runner
	caser             cases.Caser
}

// NewManager creates a new unit manager.
func NewManager(connectionFactory ConnectionFactory, contextProvider ContextProvider, logger log.Logger, runner execx.Runner) *DefaultManager {
	return &DefaultManager{
		connectionFactory: connectionFactory,
		contextProvider:   contextProvider,
		logger:            logger,
		runner:            runner,
		caser:             cases.Title(language.English),
	}
}

func (m *DefaultManager) connect() (Connection, context.Context, error) {
	ctx := m.contextProvider.GetContext()
	conn, err := m.connectionFactory.NewConnection(ctx)
	if err != nil {
		return nil, nil, err
	}
	return conn, ctx, nil
}

// Start starts a unit and waits for the job to finish.
func (m *DefaultManager) Start(unitName string) error {
	conn, ctx, err := m.connect()
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	m.logger.Debug("Attempting to start unit", "name", unitName)

	ch, err := conn.StartUnit(ctx, unitName, "replace")
	if err != nil {
		return NewControlError("Start", unitName, err)
	}

	result := <-ch
	if result != "done" {
		details := m.failureDetails(conn, ctx, unitName)
		return NewControlError("Start", unitName, fmt.Errorf("job result %q%s", result, details))
	}

	m.logger.Debug("Successfully started unit", "name", unitName)
	return nil
}

// StartNoBlock starts a unit without waiting for the job, the equivalent
// of systemctl start --no-block.
func (m *DefaultManager) StartNoBlock(unitName string) error {
	conn, ctx, err := m.connect()
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	m.logger.Debug("Starting unit without waiting", "name", unitName)

	if err := conn.StartUnitNoWait(ctx, unitName, "replace"); err != nil {
		return NewControlError("Start", unitName, err)
	}
	return nil
}

// Restart restarts a unit and waits for the job to finish.
func (m *DefaultManager) Restart(unitName string) error {
	conn, ctx, err := m.connect()
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	m.logger.Debug("Attempting to restart unit", "name", unitName)

	// A unit that is not loaded cannot be restarted; surface that clearly
	// instead of letting the job fail.
	loadState, err := conn.GetUnitProperty(ctx, unitName, "LoadState")
	if err != nil {
		return NewControlError("Restart", unitName, err)
	}
	if state, ok := loadState.Value.Value().(string); ok && state != "loaded" {
		return NewControlError("Restart", unitName, fmt.Errorf("unit is not loaded (LoadState: %s)", state))
	}

	ch, err := conn.RestartUnit(ctx, unitName, "replace")
	if err != nil {
		return NewControlError("Restart", unitName, err)
	}

	result := <-ch
	if result != "done" {
		details := m.failureDetails(conn, ctx, unitName)
		return NewControlError("Restart", unitName, fmt.Errorf("job result %q%s", result, details))
	}

	m.logger.Debug("Successfully restarted unit", "name", unitName)
	return nil
}

// EnableNow enables a unit file and starts it.
func (m *DefaultManager) EnableNow(unitName string) error {
	conn, ctx, err := m.connect()
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	m.logger.Debug("Enabling unit", "name", unitName)

	if err := conn.EnableUnitFiles(ctx, []string{unitName}); err != nil {
		return NewControlError("Enable", unitName, err)
	}
	if err := conn.StartUnitNoWait(ctx, unitName, "replace"); err != nil {
		return NewControlError("Start", unitName, err)
	}
	return nil
}

// Disable disables a unit file.
func (m *DefaultManager) Disable(unitName string) error {
	conn, ctx, err := m.connect()
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	m.logger.Debug("Disabling unit", "name", unitName)

	if err := conn.DisableUnitFiles(ctx, []string{unitName}); err != nil {
		return NewControlError("Disable", unitName, err)
	}
	return nil
}

// DaemonReload reloads the systemd unit cache.
func (m *DefaultManager) DaemonReload() error {
	conn, ctx, err := m.connect()
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	m.logger.Debug("Reloading systemd")
	if err := conn.Reload(ctx); err != nil {
		return NewControlError("Reload", "systemd", err)
	}
	return nil
}

// ListUnitFiles returns the base names of installed unit files matching
// the given patterns.
func (m *DefaultManager) ListUnitFiles(patterns []string) ([]string, error) {
	conn, ctx, err := m.connect()
	if err != nil {
		return nil, err
	}
	defer func() { _ = conn.Close() }()

	files, err := conn.ListUnitFilesByPatterns(ctx, patterns)
	if err != nil {
		return nil, NewControlError("ListUnitFiles", "systemd", err)
	}

	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, baseName(f.Path))
	}
	return names, nil
}

// ActiveState returns the ActiveState property of a unit.
func (m *DefaultManager) ActiveState(unitName string) (string, error) {
	conn, ctx, err := m.connect()
	if err != nil {
		return "", err
	}
	defer func() { _ = conn.Close() }()

	prop, err := conn.GetUnitProperty(ctx, unitName, "ActiveState")
	if err != nil {
		return "", NewControlError("ActiveState", unitName, err)
	}
	state, ok := prop.Value.Value().(string)
	if !ok {
		return "", NewControlError("ActiveState", unitName, fmt.Errorf("unexpected property type %T", prop.Value.Value()))
	}
	return state, nil
}

// Show prints unit configuration and status to stdout.
func (m *DefaultManager) Show(unitName string) error {
	conn, ctx, err := m.connect()
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	prop, err := conn.GetUnitProperties(ctx, unitName)
	if err != nil {
		return NewControlError("Show", unitName, err)
	}

	fmt.Printf("\n=== %s ===\n\n", unitName)

	fmt.Println("Status:")
	fmt.Printf("  %-20s: %v\n", "State", prop["ActiveState"])
	fmt.Printf("  %-20s: %v\n", "Sub-State", prop["SubState"])
	fmt.Printf("  %-20s: %v\n", "Load State", prop["LoadState"])

	fmt.Println("\nUnit Information:")
	fmt.Printf("  %-20s: %v\n", "Description", prop["Description"])
	fmt.Printf("  %-20s: %v\n", "Path", prop["FragmentPath"])

	// Read back the installed unit file and show the interesting sections.
	if fragmentPath, ok := prop["FragmentPath"].(string); ok && fragmentPath != "" {
		content, err := ini.Load(fragmentPath)
		if err == nil {
			for _, sectionName := range []string{"Service", "Timer"} {
				section, err := content.GetSection(sectionName)
				if err != nil {
					continue
				}
				fmt.Printf("\n%s Configuration:\n", m.caser.String(sectionName))
				for _, key := range section.Keys() {
					fmt.Printf("  %-20s: %s\n", key.Name(), key.Value())
				}
			}
		}
	}

	fmt.Println()
	return nil
}

// failureDetails retrieves additional details about a unit failure: state
// properties over D-Bus plus the last journal lines. Journal retrieval is
// the one remaining external command since the D-Bus API does not expose
// logs.
func (m *DefaultManager) failureDetails(conn Connection, ctx context.Context, unitName string) string {
	prop, err := conn.GetUnitProperties(ctx, unitName)
	if err != nil {
		return fmt.Sprintf("\nCould not retrieve unit properties: %v", err)
	}

	statusInfo := fmt.Sprintf("Unit: %s\n", unitName)
	statusInfo += fmt.Sprintf("  Load State: %v\n", prop["LoadState"])
	statusInfo += fmt.Sprintf("  Active State: %v\n", prop["ActiveState"])
	statusInfo += fmt.Sprintf("  Sub State: %v\n", prop["SubState"])

	if result, ok := prop["Result"]; ok {
		statusInfo += fmt.Sprintf("  Result: %v\n", result)
	}
	if execMainStatus, ok := prop["ExecMainStatus"]; ok {
		statusInfo += fmt.Sprintf("  Exit Status: %v\n", execMainStatus)
	}

	if err := validate.UnitName(unitName); err != nil {
		return fmt.Sprintf("\nUnit Status (via dbus):\n%s\nRecent logs: (unavailable - invalid unit name)", statusInfo)
	}

	output, err := m.runner.CombinedOutput(context.Background(), "journalctl", "--unit", unitName, "-n", "3", "--no-pager", "--output=short-precise")
	logInfo := "Recent logs: (unavailable)"
	if err == nil && len(output) > 0 {
		logInfo = fmt.Sprintf("Recent logs:\n%s", string(output))
	}

	return fmt.Sprintf("\nUnit Status (via dbus):\n%s\n%s", statusInfo, logInfo)
}

func baseName(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[i+1:]
		}
	}
	return path
}
