// Package validate provides input and environment validation.
package validate

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/canonical/static-reports-operator/internal/execx"
	"github.com/canonical/static-reports-operator/internal/log"
)

// Systemd unit names are restricted to alphanumerics, dots, dashes,
// underscores, @ and colons. This also keeps names safe to pass to
// journalctl.
var validUnitName = regexp.MustCompile(`^[a-zA-Z0-9._@:-]+$`)

// UnitName validates a systemd unit name.
func UnitName(unitName string) error {
	if unitName == "" {
		return fmt.Errorf("unit name cannot be empty")
	}
	if !validUnitName.MatchString(unitName) {
		return fmt.Errorf("invalid unit name: contains unsafe characters")
	}
	if len(unitName) > 256 {
		return fmt.Errorf("unit name too long")
	}
	return nil
}

// Validator checks host requirements with dependency injection.
type Validator struct {
	logger log.Logger
	runner execx.Runner
}

// NewValidator creates a new Validator with the provided logger and
// command runner.
func NewValidator(logger log.Logger, runner execx.Runner) *Validator {
	return &Validator{
		logger: logger,
		runner: runner,
	}
}

// SystemRequirements checks that the host carries the tools the operator
// drives: systemd and apt.
func (v *Validator) SystemRequirements(ctx context.Context) error {
	v.logger.Debug("Validating systemd availability")

	systemdVersion, err := v.runner.CombinedOutput(ctx, "systemctl", "--version")
	if err != nil {
		return fmt.Errorf("systemd not found: %w", err)
	}
	if !strings.Contains(string(systemdVersion), "systemd") {
		return fmt.Errorf("systemd not properly installed")
	}

	v.logger.Debug("Validating apt availability")

	if _, err := v.runner.CombinedOutput(ctx, "apt-get", "--version"); err != nil {
		return fmt.Errorf("apt-get not found: %w", err)
	}

	return nil
}
