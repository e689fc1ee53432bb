// Package pkgmgr installs the Debian packages the report services need.
package pkgmgr

import (
	"context"
	"fmt"
	"strings"

	"github.com/canonical/static-reports-operator/internal/execx"
	"github.com/canonical/static-reports-operator/internal/log"
)

// InstallError represents a package manager failure.
type InstallError struct {
	Package string // Empty when the failure was not package-specific (e.g. cache update)
	Output  string
	Cause   error
}

// Error implements the error interface.
func (e *InstallError) Error() string {
	if e.Package == "" {
		return fmt.Sprintf("package cache update failed: %v", e.Cause)
	}
	return fmt.Sprintf("failed to install package %s: %v", e.Package, e.Cause)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *InstallError) Unwrap() error {
	return e.Cause
}

// IsInstallError checks if an error is an InstallError.
func IsInstallError(err error) bool {
	_, ok := err.(*InstallError)
	return ok
}

// Manager installs packages through apt. All invocations run
// non-interactively; apt failures propagate as InstallError without
// retries.
type Manager struct {
	logger log.Logger
	runner execx.Runner
}

// NewManager creates a new package manager.
func NewManager(logger log.Logger, runner execx.Runner) *Manager {
	return &Manager{
		logger: logger,
		runner: runner,
	}
}

var aptEnv = []string{"DEBIAN_FRONTEND=noninteractive", "PATH=/usr/sbin:/usr/bin:/sbin:/bin"}

// Install refreshes the apt index and installs the given packages.
func (m *Manager) Install(ctx context.Context, packages []string) error {
	m.logger.Debug("Refreshing apt index")

	output, err := m.runner.CombinedOutputEnv(ctx, aptEnv, "apt-get", "update")
	if err != nil {
		m.logger.Error("Failed to update package cache", "error", err, "output", string(output))
		return &InstallError{Output: string(output), Cause: err}
	}

	for _, pkg := range packages {
		m.logger.Debug("Installing package", "package", pkg)

		output, err := m.runner.CombinedOutputEnv(ctx, aptEnv,
			"apt-get", "install", "--assume-yes", "--no-install-recommends", pkg)
		if err != nil {
			m.logger.Error("Failed to install package", "package", pkg, "error", err)
			return &InstallError{Package: pkg, Output: strings.TrimSpace(string(output)), Cause: err}
		}
	}

	return nil
}
