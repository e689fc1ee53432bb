// Package installer ensures packages, scripts, and rendered units are
// present on the host and known to systemd. Every operation is
// idempotent: re-running converges on the same end state.
package installer

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/canonical/static-reports-operator/internal/config"
	"github.com/canonical/static-reports-operator/internal/fs"
	"github.com/canonical/static-reports-operator/internal/gitrepo"
	"github.com/canonical/static-reports-operator/internal/log"
	"github.com/canonical/static-reports-operator/internal/pkgmgr"
	"github.com/canonical/static-reports-operator/internal/report"
	"github.com/canonical/static-reports-operator/internal/state"
	"github.com/canonical/static-reports-operator/internal/systemd"
	"github.com/canonical/static-reports-operator/internal/unitfile"
	"gopkg.in/ini.v1"
)

// archiveToolsURL is the upstream repository carrying the report scripts
// that are not bundled with the operator.
const (
	archiveToolsURL    = "https://git.launchpad.net/ubuntu-archive-tools"
	archiveToolsBranch = "main"
)

// SourceSyncer fetches or refreshes an external script checkout.
type SourceSyncer interface {
	Sync() error
}

// Installer converges the host on the registry: packages, directories,
// scripts, nginx site, and one service/timer unit pair per report.
type Installer struct {
	configProvider config.Provider
	files          *fs.Service
	units          systemd.Manager
	packages       *pkgmgr.Manager
	logger         log.Logger

	// newArchiveTools builds the syncer for the archive tools checkout;
	// replaced in tests to avoid network access.
	newArchiveTools func(proxyURL string) SourceSyncer
}

// New creates a new Installer.
func New(configProvider config.Provider, files *fs.Service, units systemd.Manager, packages *pkgmgr.Manager, logger log.Logger) *Installer {
	inst := &Installer{
		configProvider: configProvider,
		files:          files,
		units:          units,
		packages:       packages,
		logger:         logger,
	}
	inst.newArchiveTools = func(proxyURL string) SourceSyncer {
		return gitrepo.NewRepository(archiveToolsURL, archiveToolsBranch, report.ArchiveToolsDir(), proxyURL, logger)
	}
	return inst
}

// WithArchiveToolsFactory overrides the archive tools syncer, for tests.
func (i *Installer) WithArchiveToolsFactory(fn func(proxyURL string) SourceSyncer) *Installer {
	i.newArchiveTools = fn
	return i
}

// InstallPackages ensures every package the registry references is
// installed.
func (i *Installer) InstallPackages(ctx context.Context) error {
	i.logger.Info("Installing required packages", "packages", report.Packages())
	return i.packages.Install(ctx, report.Packages())
}

// Install converges scripts, directories, the nginx site, and unit files,
// then enables every report timer. It returns the service unit names
// whose rendered content changed, so the caller can restart exactly
// those.
func (i *Installer) Install(ctx context.Context, rt config.Runtime) ([]string, error) {
	cfg := i.configProvider.GetConfig()

	if err := i.ensureDirectories(cfg); err != nil {
		return nil, err
	}

	i.logger.Info("Syncing report script sources")
	if err := i.newArchiveTools(rt.HTTPSProxy).Sync(); err != nil {
		return nil, fmt.Errorf("syncing archive tools: %w", err)
	}

	if err := i.installFiles(cfg); err != nil {
		return nil, err
	}

	changedServices, managedUnits, anyChanged, err := i.writeUnits(cfg, rt)
	if err != nil {
		return nil, err
	}

	if anyChanged {
		if err := i.units.DaemonReload(); err != nil {
			return nil, err
		}
	}

	for _, def := range report.All() {
		if err := i.units.EnableNow(def.TimerUnit()); err != nil {
			return nil, err
		}
	}

	st, err := state.Load(cfg.StateFile)
	if err != nil {
		return nil, err
	}
	st.SetManagedUnits(managedUnits)
	if err := st.Save(cfg.StateFile); err != nil {
		return nil, err
	}

	i.logger.Info("Install complete", "units", len(managedUnits), "changed", len(changedServices))
	return changedServices, nil
}

// RestartChanged restarts the given service units. Services whose unit
// text did not change are left alone.
func (i *Installer) RestartChanged(_ context.Context, changedServices []string) error {
	for _, unit := range changedServices {
		if err := i.units.Restart(unit); err != nil {
			return err
		}
	}
	return nil
}

// StartAll restarts nginx and kicks off every report service without
// waiting for completion; report generation can take a long time and is
// owned by systemd from here on.
func (i *Installer) StartAll(_ context.Context) error {
	if err := i.units.Restart("nginx.service"); err != nil {
		return err
	}
	for _, def := range report.All() {
		if err := i.units.StartNoBlock(def.ServiceUnit()); err != nil {
			return err
		}
	}
	return nil
}

// RefreshResult reports the outcome of one on-demand report run.
type RefreshResult struct {
	Name string
	Err  error
}

// Refresh triggers an on-demand run of one report, or all of them when
// name is empty, waiting for each to finish. Timer schedules are not
// touched.
func (i *Installer) Refresh(_ context.Context, name string) ([]RefreshResult, error) {
	var defs []report.Definition
	if name == "" {
		defs = report.All()
	} else {
		def, ok := report.Get(name)
		if !ok {
			return nil, fmt.Errorf("unknown report %q", name)
		}
		defs = []report.Definition{def}
	}

	results := make([]RefreshResult, 0, len(defs))
	for _, def := range defs {
		i.logger.Info("Refreshing report", "report", def.Name)
		err := i.units.Start(def.ServiceUnit())
		results = append(results, RefreshResult{Name: def.Name, Err: err})
	}
	return results, nil
}

// RemoveStaleUnits disables and removes unit files this operator manages
// that no longer correspond to a registry entry. Units matching the
// current registry are left untouched.
func (i *Installer) RemoveStaleUnits(_ context.Context) error {
	cfg := i.configProvider.GetConfig()

	st, err := state.Load(cfg.StateFile)
	if err != nil {
		return err
	}

	current := make(map[string]bool)
	for _, def := range report.All() {
		current[def.ServiceUnit()] = true
		current[def.TimerUnit()] = true
	}

	candidates := make(map[string]bool)
	for _, unit := range st.ManagedUnits {
		candidates[unit] = true
	}
	for _, unit := range i.scanManagedUnits(cfg) {
		candidates[unit] = true
	}

	removed := false
	for unit := range candidates {
		if current[unit] {
			continue
		}

		i.logger.Info("Removing stale unit", "unit", unit)
		if filepath.Ext(unit) == ".timer" {
			if err := i.units.Disable(unit); err != nil {
				// The unit may already be gone from systemd's view; removal
				// of the file below still applies.
				i.logger.Warn("Failed to disable stale unit", "unit", unit, "error", err)
			}
		}
		if err := i.files.RemoveUnitFile(i.files.UnitFilePath(unit)); err != nil {
			return err
		}
		removed = true
	}

	if removed {
		if err := i.units.DaemonReload(); err != nil {
			return err
		}
	}

	managed := make([]string, 0, len(current))
	for unit := range current {
		managed = append(managed, unit)
	}
	st.SetManagedUnits(managed)
	return st.Save(cfg.StateFile)
}

// ensureDirectories creates the served directories with the report user's
// ownership and the source checkout directory.
func (i *Installer) ensureDirectories(cfg *config.Settings) error {
	if err := i.files.EnsureOwnedDir(cfg.WWWDir, cfg.RunAsUser, cfg.RunAsGroup); err != nil {
		return err
	}
	for _, def := range report.All() {
		if def.ServedDir == "" {
			continue
		}
		if err := i.files.EnsureOwnedDir(filepath.Join(cfg.WWWDir, def.ServedDir), cfg.RunAsUser, cfg.RunAsGroup); err != nil {
			return err
		}
	}
	return i.files.EnsureOwnedDir(cfg.SourceDir, "", "")
}

// installFiles copies bundled scripts and the nginx site config, and
// drops the distribution default site.
func (i *Installer) installFiles(cfg *config.Settings) error {
	for _, def := range report.All() {
		if def.BundledScript == "" {
			continue
		}
		src := filepath.Join(cfg.ScriptSourceDir, def.BundledScript)
		dst := filepath.Join(cfg.BinDir, filepath.Base(def.Exec))
		if err := i.files.InstallScript(src, dst); err != nil {
			return err
		}
	}

	if err := i.files.InstallFile(cfg.NginxConfSource, cfg.NginxConfPath); err != nil {
		return err
	}
	return i.files.RemoveIfExists(cfg.NginxDefaultSite)
}

// writeUnits renders and writes the unit pair for every report. It
// returns the changed service unit names, the full managed unit list, and
// whether any file changed at all.
func (i *Installer) writeUnits(cfg *config.Settings, rt config.Runtime) (changedServices, managedUnits []string, anyChanged bool, err error) {
	for _, def := range report.All() {
		pair := unitfile.Render(def, cfg, rt)

		servicePath := i.files.UnitFilePath(pair.ServiceName)
		if i.files.HasUnitChanged(servicePath, pair.ServiceText) {
			if err := i.files.WriteUnitFile(servicePath, pair.ServiceText); err != nil {
				return nil, nil, false, err
			}
			changedServices = append(changedServices, pair.ServiceName)
			anyChanged = true
		}

		timerPath := i.files.UnitFilePath(pair.TimerName)
		if i.files.HasUnitChanged(timerPath, pair.TimerText) {
			if err := i.files.WriteUnitFile(timerPath, pair.TimerText); err != nil {
				return nil, nil, false, err
			}
			anyChanged = true
		}

		managedUnits = append(managedUnits, pair.ServiceName, pair.TimerName)
	}
	return changedServices, managedUnits, anyChanged, nil
}

// scanManagedUnits walks the unit directory for service units whose
// working directory is the served www root. That marks them as written by
// this operator even when the state file predates them, so upgrades from
// older revisions still clean up renamed reports.
func (i *Installer) scanManagedUnits(cfg *config.Settings) []string {
	matches, err := filepath.Glob(filepath.Join(cfg.UnitDir, "*.service"))
	if err != nil {
		return nil
	}

	var managed []string
	for _, path := range matches {
		unitConfig, err := ini.Load(path)
		if err != nil {
			continue
		}
		section, err := unitConfig.GetSection("Service")
		if err != nil {
			continue
		}
		if section.Key("WorkingDirectory").String() != cfg.WWWDir {
			continue
		}

		name := filepath.Base(path)
		managed = append(managed, name)

		base := name[:len(name)-len(".service")]
		timerPath := filepath.Join(cfg.UnitDir, base+".timer")
		if _, err := ini.Load(timerPath); err == nil {
			managed = append(managed, base+".timer")
		}
	}
	return managed
}
