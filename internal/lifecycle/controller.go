package lifecycle

import (
	"context"
	"fmt"
	"strings"

	"github.com/canonical/static-reports-operator/internal/config"
	"github.com/canonical/static-reports-operator/internal/fs"
	"github.com/canonical/static-reports-operator/internal/hook"
	"github.com/canonical/static-reports-operator/internal/ingress"
	"github.com/canonical/static-reports-operator/internal/installer"
	"github.com/canonical/static-reports-operator/internal/log"
)

// Config option and secret key names recognized by the operator.
const (
	configLPSecretID       = "lpuser-secret-id"
	configExternalHostname = "external-hostname"
	secretKeyLPOAuth       = "lpoauthkey"
)

// ReportInstaller is the installer surface the controller drives.
type ReportInstaller interface {
	InstallPackages(ctx context.Context) error
	Install(ctx context.Context, rt config.Runtime) ([]string, error)
	RestartChanged(ctx context.Context, changedServices []string) error
	StartAll(ctx context.Context) error
	Refresh(ctx context.Context, name string) ([]installer.RefreshResult, error)
	RemoveStaleUnits(ctx context.Context) error
}

// Controller receives dispatched events and drives the installer and
// ingress adapter, reporting status through the hook tools.
type Controller struct {
	configProvider config.Provider
	installer      ReportInstaller
	ingress        *ingress.Adapter
	tools          hook.Tools
	files          *fs.Service
	logger         log.Logger
	getenv         func(string) string

	// requirements is checked before the first install; nil skips the
	// check.
	requirements func(ctx context.Context) error
}

// NewController creates a new lifecycle controller.
func NewController(configProvider config.Provider, inst ReportInstaller, ing *ingress.Adapter, tools hook.Tools, files *fs.Service, logger log.Logger) *Controller {
	return &Controller{
		configProvider: configProvider,
		installer:      inst,
		ingress:        ing,
		tools:          tools,
		files:          files,
		logger:         logger,
		getenv:         nil, // config.RuntimeFromEnv falls back to os.Getenv
	}
}

// WithGetenv overrides environment lookup, for tests.
func (c *Controller) WithGetenv(getenv func(string) string) *Controller {
	c.getenv = getenv
	return c
}

// WithRequirementsCheck installs a host requirements check that runs
// before the install event touches the system.
func (c *Controller) WithRequirementsCheck(check func(ctx context.Context) error) *Controller {
	c.requirements = check
	return c
}

// Handle processes one dispatched event to completion. OS-level failures
// are not retried; they downgrade the unit status to blocked with the
// causing error's message, and Handle itself returns nil so the dispatch
// exits cleanly.
func (c *Controller) Handle(ctx context.Context, event Event) error {
	c.logger.Info("Handling event", "event", string(event))

	switch event {
	case EventInstall:
		return c.handleInstall(ctx)
	case EventStart:
		return c.handleStart(ctx)
	case EventConfigChanged, EventSecretChanged:
		return c.handleConfigChanged(ctx)
	case EventUpgrade:
		return c.handleUpgrade(ctx)
	case EventIngressJoined:
		return c.handleIngressJoined(ctx)
	}
	return fmt.Errorf("unknown event %q", event)
}

func (c *Controller) handleInstall(ctx context.Context) error {
	if err := c.tools.StatusSet(ctx, hook.StatusMaintenance, "Setting up environment"); err != nil {
		return err
	}

	if c.requirements != nil {
		if err := c.requirements(ctx); err != nil {
			return c.block(ctx, err)
		}
	}

	rt := config.RuntimeFromEnv(c.getenv)

	if err := c.installer.InstallPackages(ctx); err != nil {
		return c.block(ctx, err)
	}
	if _, err := c.installer.Install(ctx, rt); err != nil {
		return c.block(ctx, err)
	}

	return c.tools.StatusSet(ctx, hook.StatusActive, "")
}

func (c *Controller) handleStart(ctx context.Context) error {
	if err := c.tools.StatusSet(ctx, hook.StatusMaintenance, "Starting static reports"); err != nil {
		return err
	}

	if err := c.installer.StartAll(ctx); err != nil {
		return c.block(ctx, err)
	}
	if err := c.tools.OpenPort(ctx, c.configProvider.GetConfig().Port); err != nil {
		return c.block(ctx, err)
	}

	return c.tools.StatusSet(ctx, hook.StatusActive, "")
}

func (c *Controller) handleConfigChanged(ctx context.Context) error {
	if err := c.tools.StatusSet(ctx, hook.StatusMaintenance, "Updating configuration"); err != nil {
		return err
	}

	rt, err := c.buildRuntime(ctx)
	if err != nil {
		return c.block(ctx, err)
	}

	cfg := c.configProvider.GetConfig()
	if err := c.files.WriteCredential(cfg.LPOAuthKeyPath, rt.LPOAuthKey, cfg.RunAsUser, cfg.RunAsGroup); err != nil {
		return c.block(ctx, err)
	}

	changed, err := c.installer.Install(ctx, rt)
	if err != nil {
		return c.block(ctx, err)
	}
	if err := c.installer.RestartChanged(ctx, changed); err != nil {
		return c.block(ctx, err)
	}

	if err := c.ingress.Publish(ctx, rt); err != nil {
		return c.block(ctx, err)
	}
	c.logger.Debug("External URL", "url", c.ingress.ExternalURL(ctx, rt))

	return c.tools.StatusSet(ctx, hook.StatusActive, "")
}

func (c *Controller) handleUpgrade(ctx context.Context) error {
	if err := c.tools.StatusSet(ctx, hook.StatusMaintenance, "Upgrading static reports"); err != nil {
		return err
	}

	rt := config.RuntimeFromEnv(c.getenv)

	if _, err := c.installer.Install(ctx, rt); err != nil {
		return c.block(ctx, err)
	}
	if err := c.installer.RemoveStaleUnits(ctx); err != nil {
		return c.block(ctx, err)
	}

	return c.tools.StatusSet(ctx, hook.StatusActive, "")
}

func (c *Controller) handleIngressJoined(ctx context.Context) error {
	rt, err := c.runtimeWithHostname(ctx)
	if err != nil {
		return c.block(ctx, err)
	}

	if err := c.ingress.Publish(ctx, rt); err != nil {
		return c.block(ctx, err)
	}
	c.logger.Info("Published ingress data", "url", c.ingress.ExternalURL(ctx, rt))

	return c.tools.StatusSet(ctx, hook.StatusActive, "")
}

// HandleRefreshAction triggers an on-demand run of one or all reports and
// records per-report results. The returned error is non-nil when any
// report failed, so the action exit status reflects the outcome.
func (c *Controller) HandleRefreshAction(ctx context.Context, name string) error {
	if err := c.tools.ActionLog(ctx, "Refreshing reports"); err != nil {
		return err
	}

	results, err := c.installer.Refresh(ctx, name)
	if err != nil {
		_ = c.tools.ActionFail(ctx, err.Error())
		return err
	}

	values := make(map[string]string, len(results))
	var failed []string
	for _, res := range results {
		if res.Err != nil {
			values[res.Name] = fmt.Sprintf("failed: %v", res.Err)
			failed = append(failed, res.Name)
			continue
		}
		values[res.Name] = "ok"
	}
	if err := c.tools.ActionSet(ctx, values); err != nil {
		return err
	}

	if len(failed) > 0 {
		msg := fmt.Sprintf("report refresh failed for: %s", strings.Join(failed, ", "))
		_ = c.tools.ActionFail(ctx, msg)
		return fmt.Errorf("%s", msg)
	}
	return nil
}

// buildRuntime assembles the full per-event runtime: proxies from the
// hook environment, the external hostname from charm config, and the
// Launchpad credential from the configured secret. The credential is
// required because the subscriber and permissions reports cannot run
// without it.
func (c *Controller) buildRuntime(ctx context.Context) (config.Runtime, error) {
	rt, err := c.runtimeWithHostname(ctx)
	if err != nil {
		return rt, err
	}

	secretID, err := c.tools.ConfigGet(ctx, configLPSecretID)
	if err != nil {
		return rt, err
	}
	if secretID == "" {
		c.logger.Warn("Launchpad credentials unavailable, unable to gather uploaders")
		return rt, &CredentialMissingError{}
	}

	key, err := c.tools.SecretGetContent(ctx, secretID, secretKeyLPOAuth)
	if err != nil {
		return rt, &CredentialMissingError{SecretID: secretID, Cause: err}
	}
	c.logger.Debug("Got launchpad oauth key", "length", len(key))
	rt.LPOAuthKey = key

	return rt, nil
}

// runtimeWithHostname assembles the runtime values that do not require
// the credential secret.
func (c *Controller) runtimeWithHostname(ctx context.Context) (config.Runtime, error) {
	rt := config.RuntimeFromEnv(c.getenv)

	hostname, err := c.tools.ConfigGet(ctx, configExternalHostname)
	if err != nil {
		return rt, err
	}
	rt.ExternalHostname = hostname
	rt.IngressURL = c.ingress.ProvidedURL(ctx)
	return rt, nil
}

// block downgrades the unit status with the causing error's message. The
// dispatch itself still exits cleanly; re-running the next event retries
// the idempotent install path.
func (c *Controller) block(ctx context.Context, cause error) error {
	c.logger.Error("Event handling failed", "error", cause)
	return c.tools.StatusSet(ctx, hook.StatusBlocked, cause.Error())
}
