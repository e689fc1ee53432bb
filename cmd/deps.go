package cmd

import (
	"github.com/canonical/static-reports-operator/internal/config"
	"github.com/canonical/static-reports-operator/internal/execx"
	"github.com/canonical/static-reports-operator/internal/fs"
	"github.com/canonical/static-reports-operator/internal/hook"
	"github.com/canonical/static-reports-operator/internal/ingress"
	"github.com/canonical/static-reports-operator/internal/installer"
	"github.com/canonical/static-reports-operator/internal/lifecycle"
	"github.com/canonical/static-reports-operator/internal/log"
	"github.com/canonical/static-reports-operator/internal/pkgmgr"
	"github.com/canonical/static-reports-operator/internal/systemd"
	"github.com/canonical/static-reports-operator/internal/validate"
)

// deps bundles the wired-up collaborators the commands share.
type deps struct {
	logger     log.Logger
	runner     execx.Runner
	tools      hook.Tools
	files      *fs.Service
	units      systemd.Manager
	controller *lifecycle.Controller
}

// buildDeps assembles the real dependency graph: one runner, one logger,
// and the installer/controller stack on top of them.
func buildDeps() *deps {
	logger := log.GetLogger()
	runner := execx.NewRealRunner()
	provider := config.DefaultProvider()

	tools := hook.NewClient(runner, logger)
	files := fs.NewService(provider, logger)
	units := systemd.NewManager(systemd.NewConnectionFactory(logger), systemd.NewDefaultContextProvider(), logger, runner)
	packages := pkgmgr.NewManager(logger, runner)
	inst := installer.New(provider, files, units, packages, logger)
	ing := ingress.NewAdapter(tools, provider, logger)
	controller := lifecycle.NewController(provider, inst, ing, tools, files, logger).
		WithRequirementsCheck(validate.NewValidator(logger, runner).SystemRequirements)

	return &deps{
		logger:     logger,
		runner:     runner,
		tools:      tools,
		files:      files,
		units:      units,
		controller: controller,
	}
}
