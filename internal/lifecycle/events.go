// Package lifecycle dispatches framework events to the installer and
// reports workload status back. One process invocation handles exactly
// one event to completion; nothing is shared between invocations except
// the filesystem.
package lifecycle

// Event enumerates the framework events the operator reacts to.
type Event string

// Recognized events.
const (
	EventInstall       Event = "install"
	EventStart         Event = "start"
	EventConfigChanged Event = "config-changed"
	EventSecretChanged Event = "secret-changed"
	EventUpgrade       Event = "upgrade-charm"
	EventIngressJoined Event = "ingress-relation-joined"
)

// ParseEvent maps a dispatched hook name onto an Event. Ingress relation
// data changes and departures re-run the configuration path, mirroring
// how URL changes are treated as configuration changes.
func ParseEvent(hookName string) (Event, bool) {
	switch hookName {
	case "install":
		return EventInstall, true
	case "start":
		return EventStart, true
	case "config-changed":
		return EventConfigChanged, true
	case "secret-changed":
		return EventSecretChanged, true
	case "upgrade-charm":
		return EventUpgrade, true
	case "ingress-relation-created", "ingress-relation-joined":
		return EventIngressJoined, true
	case "ingress-relation-changed", "ingress-relation-departed", "ingress-relation-broken":
		return EventConfigChanged, true
	}
	return "", false
}
