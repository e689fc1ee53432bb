// Package unitfile renders systemd service and timer unit text for report
// services. Rendering is deterministic: identical inputs produce
// byte-identical output, which is what install-time change detection
// relies on.
package unitfile

import (
	"fmt"

	"github.com/canonical/static-reports-operator/internal/config"
	"github.com/canonical/static-reports-operator/internal/report"
)

// Pair holds the rendered unit text for one report.
type Pair struct {
	ServiceName string
	ServiceText string
	TimerName   string
	TimerText   string
}

// formatKeyValue formats a key-value pair as "key=value".
func formatKeyValue(key, value string) string {
	return fmt.Sprintf("%s=%s\n", key, value)
}

// Render produces the service and timer unit pair for a report. Proxy
// Environment lines are emitted only for configured proxies; an unset
// proxy yields no line at all rather than an empty assignment.
func Render(def report.Definition, cfg *config.Settings, rt config.Runtime) Pair {
	return Pair{
		ServiceName: def.ServiceUnit(),
		ServiceText: renderService(def, cfg, rt),
		TimerName:   def.TimerUnit(),
		TimerText:   renderTimer(def),
	}
}

func renderService(def report.Definition, cfg *config.Settings, rt config.Runtime) string {
	content := "[Unit]\n"
	content += formatKeyValue("Description", def.Description)
	content += formatKeyValue("After", "network-online.target")
	content += formatKeyValue("Wants", "network-online.target")

	content += "\n[Service]\n"
	content += formatKeyValue("Type", "oneshot")
	content += formatKeyValue("User", cfg.RunAsUser)
	content += formatKeyValue("Group", cfg.RunAsGroup)
	content += formatKeyValue("WorkingDirectory", cfg.WWWDir)
	content += formatKeyValue("ExecStart", def.Exec)

	if rt.HTTPProxy != "" {
		content += formatKeyValue("Environment", "HTTP_PROXY="+rt.HTTPProxy)
	}
	if rt.HTTPSProxy != "" {
		content += formatKeyValue("Environment", "HTTPS_PROXY="+rt.HTTPSProxy)
	}
	if rt.RsyncProxy != "" {
		content += formatKeyValue("Environment", "RSYNC_PROXY="+rt.RsyncProxy)
	}

	return content
}

func renderTimer(def report.Definition) string {
	content := "[Unit]\n"
	content += formatKeyValue("Description", fmt.Sprintf("Schedule for %s", def.Name))

	content += "\n[Timer]\n"
	content += formatKeyValue("OnCalendar", def.Cadence)
	content += formatKeyValue("Persistent", "true")

	content += "\n[Install]\n"
	content += formatKeyValue("WantedBy", "timers.target")

	return content
}
