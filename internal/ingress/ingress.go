// Package ingress publishes routing data for the served report directory
// over the ingress relation and computes the externally reachable URL.
package ingress

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/canonical/static-reports-operator/internal/config"
	"github.com/canonical/static-reports-operator/internal/hook"
	"github.com/canonical/static-reports-operator/internal/log"
)

// RelationName is the endpoint the reverse proxy relates on.
const RelationName = "ingress"

// Adapter marshals routing data to the ingress relation.
type Adapter struct {
	tools          hook.Tools
	configProvider config.Provider
	logger         log.Logger
	hostnameFn     func() (string, error)
}

// NewAdapter creates a new ingress adapter.
func NewAdapter(tools hook.Tools, configProvider config.Provider, logger log.Logger) *Adapter {
	return &Adapter{
		tools:          tools,
		configProvider: configProvider,
		logger:         logger,
		hostnameFn:     os.Hostname,
	}
}

// WithHostnameFn overrides hostname resolution, for tests.
func (a *Adapter) WithHostnameFn(fn func() (string, error)) *Adapter {
	a.hostnameFn = fn
	return a
}

// Publish writes {hostname, port, strip-prefix} into every established
// ingress relation.
func (a *Adapter) Publish(ctx context.Context, rt config.Runtime) error {
	ids, err := a.tools.RelationIDs(ctx, RelationName)
	if err != nil {
		return err
	}

	cfg := a.configProvider.GetConfig()
	data := map[string]string{
		"hostname":     a.hostname(rt),
		"port":         strconv.Itoa(cfg.Port),
		"strip-prefix": "true",
	}

	for _, id := range ids {
		a.logger.Debug("Publishing ingress data", "relation", id, "hostname", data["hostname"], "port", data["port"])
		if err := a.tools.RelationSet(ctx, id, data); err != nil {
			return err
		}
	}
	return nil
}

// ProvidedURL returns the URL the ingress provider advertises, or empty
// when no provider has published one yet.
func (a *Adapter) ProvidedURL(ctx context.Context) string {
	ids, err := a.tools.RelationIDs(ctx, RelationName)
	if err != nil || len(ids) == 0 {
		return ""
	}

	for _, id := range ids {
		raw, err := a.tools.RemoteAppGet(ctx, id, "ingress")
		if err != nil || raw == "" {
			continue
		}

		var payload struct {
			URL string `json:"url"`
		}
		if err := json.Unmarshal([]byte(raw), &payload); err != nil {
			a.logger.Warn("Ingress relation carries invalid data", "relation", id, "error", err)
			continue
		}
		if payload.URL != "" {
			return payload.URL
		}
	}
	return ""
}

// ExternalURL reports the URL the report directory is reachable on:
// the ingress-provided URL when available, else the configured external
// hostname, else the unit's own fully qualified hostname.
func (a *Adapter) ExternalURL(ctx context.Context, rt config.Runtime) string {
	if url := a.ProvidedURL(ctx); url != "" {
		return url
	}
	cfg := a.configProvider.GetConfig()
	return fmt.Sprintf("http://%s:%d", a.hostname(rt), cfg.Port)
}

// hostname returns the configured external hostname, falling back to the
// unit's FQDN.
func (a *Adapter) hostname(rt config.Runtime) string {
	if rt.ExternalHostname != "" {
		return rt.ExternalHostname
	}
	return a.fqdn()
}

// fqdn resolves the unit's fully qualified hostname, falling back to the
// bare hostname when reverse resolution is unavailable.
func (a *Adapter) fqdn() string {
	name, err := a.hostnameFn()
	if err != nil {
		return "localhost"
	}
	if strings.Contains(name, ".") {
		return name
	}

	addrs, err := net.LookupHost(name)
	if err != nil || len(addrs) == 0 {
		return name
	}
	names, err := net.LookupAddr(addrs[0])
	if err != nil || len(names) == 0 {
		return name
	}
	return strings.TrimSuffix(names[0], ".")
}
