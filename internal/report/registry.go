// Package report defines the static registry of report services managed
// by the operator. Each report is an externally maintained script that
// regenerates one artifact under the served www directory; the operator
// only schedules it.
package report

import "sort"

// Definition describes one report service: where its script comes from,
// where it is executed from, how often it runs, and what it needs.
type Definition struct {
	// Name is unique and becomes the systemd unit base name.
	Name string
	// Description is used verbatim in the rendered units.
	Description string
	// Cadence is a systemd OnCalendar expression.
	Cadence string
	// Exec is the absolute path the service unit executes.
	Exec string
	// BundledScript is the path of the script inside the operator bundle,
	// relative to the script source directory. Empty when the script is
	// executed from the cloned archive tools checkout instead.
	BundledScript string
	// ServedDir is the subdirectory of the www root the report writes to.
	// Empty means the report writes to the www root itself.
	ServedDir string
	// Packages lists the Debian packages this report needs at runtime.
	Packages []string
	// NeedsLaunchpadAuth marks reports that read the Launchpad API and
	// require the bot oauth credential on disk.
	NeedsLaunchpadAuth bool
}

// ServiceUnit returns the name of the service unit for this report.
func (d Definition) ServiceUnit() string {
	return d.Name + ".service"
}

// TimerUnit returns the name of the timer unit for this report.
func (d Definition) TimerUnit() string {
	return d.Name + ".timer"
}

// archiveToolsDir is where the ubuntu-archive-tools checkout lives on the
// host; reports without a bundled script execute from it.
const archiveToolsDir = "/usr/local/src/ubuntu-archive-tools"

// basePackages are needed regardless of which reports are enabled: git for
// the archive tools checkout and nginx to serve the output directory.
var basePackages = []string{"git", "nginx-light"}

var registry = []Definition{
	{
		Name:          "update-sync-blocklist",
		Description:   "Mirror of the archive sync blocklist",
		Cadence:       "*:0/5",
		Exec:          "/usr/bin/update-sync-blocklist",
		BundledScript: "update-sync-blocklist",
		Packages:      []string{"procmail"},
	},
	{
		Name:          "update-seeds",
		Description:   "Seed conversion for the Ubuntu archive",
		Cadence:       "hourly",
		Exec:          "/usr/bin/update-seeds",
		BundledScript: "update-seeds",
		ServedDir:     "seeds",
	},
	{
		Name:               "package-subscribers",
		Description:        "Package subscribers JSON report",
		Cadence:            "hourly",
		Exec:               archiveToolsDir + "/package-subscribers",
		Packages:           []string{"python3-keyring"},
		NeedsLaunchpadAuth: true,
	},
	{
		Name:               "packageset-report",
		Description:        "Packageset contents report",
		Cadence:            "daily",
		Exec:               archiveToolsDir + "/packageset-report",
		ServedDir:          "packagesets",
		Packages:           []string{"python3-keyring"},
		NeedsLaunchpadAuth: true,
	},
	{
		Name:               "permissions-report",
		Description:        "Archive permissions report",
		Cadence:            "daily",
		Exec:               archiveToolsDir + "/permissions-report",
		ServedDir:          "archive-permissions",
		Packages:           []string{"python3-keyring"},
		NeedsLaunchpadAuth: true,
	},
}

// All returns every report definition in stable order.
func All() []Definition {
	out := make([]Definition, len(registry))
	copy(out, registry)
	return out
}

// Get looks up a report definition by name.
func Get(name string) (Definition, bool) {
	for _, d := range registry {
		if d.Name == name {
			return d, true
		}
	}
	return Definition{}, false
}

// Names returns the names of all registered reports in stable order.
func Names() []string {
	names := make([]string, len(registry))
	for i, d := range registry {
		names[i] = d.Name
	}
	return names
}

// Packages returns the sorted, deduplicated union of the base packages and
// every report's package list.
func Packages() []string {
	seen := make(map[string]bool)
	var pkgs []string
	for _, p := range basePackages {
		if !seen[p] {
			seen[p] = true
			pkgs = append(pkgs, p)
		}
	}
	for _, d := range registry {
		for _, p := range d.Packages {
			if !seen[p] {
				seen[p] = true
				pkgs = append(pkgs, p)
			}
		}
	}
	sort.Strings(pkgs)
	return pkgs
}

// ArchiveToolsDir returns the path of the ubuntu-archive-tools checkout.
func ArchiveToolsDir() string {
	return archiveToolsDir
}
