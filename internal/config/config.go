// Package config provides configuration management for the static reports operator.
package config

import (
	"net/url"
	"os"

	"github.com/spf13/viper"
)

// Provider defines the interface for configuration providers.
type Provider interface {
	// GetConfig returns the current operator configuration.
	GetConfig() *Settings
	// SetConfig sets the operator configuration.
	SetConfig(c *Settings)
	// InitConfig initializes the operator configuration.
	InitConfig() *Settings
	// SetConfigFilePath sets the configuration file path.
	SetConfigFilePath(p string)
}

// defaultConfigProvider implements the Provider interface.
type defaultConfigProvider struct {
	cfg *Settings
}

// NewDefaultConfigProvider creates a new default config provider.
func NewDefaultConfigProvider() Provider {
	return &defaultConfigProvider{}
}

var defaultProvider = NewDefaultConfigProvider()

// Default configuration values for the operator. Paths follow the layout
// the report scripts and nginx site expect on the host.
const (
	DefaultUnitDir         = "/etc/systemd/system"
	DefaultBinDir          = "/usr/bin"
	DefaultWWWDir          = "/srv/staticreports/www"
	DefaultSourceDir       = "/usr/local/src"
	DefaultScriptSourceDir = "files/scripts"
	DefaultNginxConfSource = "files/nginx/staticreports.conf"
	DefaultNginxConfPath   = "/etc/nginx/conf.d/staticreports.conf"
	DefaultNginxDefault    = "/etc/nginx/sites-enabled/default"
	DefaultStateFile       = "/var/lib/static-reports/state.json"
	DefaultLPOAuthKeyPath  = "/home/ubuntu/.config/lp-ubuntu-archive-unprivileged-bot.oauth"
	DefaultRunAsUser       = "ubuntu"
	DefaultRunAsGroup      = "ubuntu"
	DefaultPort            = 80
	DefaultVerbose         = false
)

// Settings represents the operator configuration: filesystem layout, the
// identity report services run under, and the HTTP port the output
// directory is served on.
type Settings struct {
	UnitDir          string `yaml:"unitDir"`
	BinDir           string `yaml:"binDir"`
	WWWDir           string `yaml:"wwwDir"`
	SourceDir        string `yaml:"sourceDir"`
	ScriptSourceDir  string `yaml:"scriptSourceDir"`
	NginxConfSource  string `yaml:"nginxConfSource"`
	NginxConfPath    string `yaml:"nginxConfPath"`
	NginxDefaultSite string `yaml:"nginxDefaultSite"`
	StateFile        string `yaml:"stateFile"`
	LPOAuthKeyPath   string `yaml:"lpOauthKeyPath"`
	RunAsUser        string `yaml:"runAsUser"`
	RunAsGroup       string `yaml:"runAsGroup"`
	Port             int    `yaml:"port"`
	Verbose          bool   `yaml:"verbose"`
}

func (p *defaultConfigProvider) SetConfig(c *Settings) {
	p.cfg = c
}

func (p *defaultConfigProvider) GetConfig() *Settings {
	if p.cfg == nil {
		p.cfg = initConfigInternal()
	}
	return p.cfg
}

func (p *defaultConfigProvider) SetConfigFilePath(path string) {
	viper.SetConfigFile(path)
}

func (p *defaultConfigProvider) InitConfig() *Settings {
	p.cfg = initConfigInternal()
	return p.cfg
}

// DefaultProvider returns the package-level config provider.
func DefaultProvider() Provider {
	return defaultProvider
}

func initConfigInternal() *Settings {
	cfg := &Settings{}

	viper.SetDefault("unitDir", DefaultUnitDir)
	viper.SetDefault("binDir", DefaultBinDir)
	viper.SetDefault("wwwDir", DefaultWWWDir)
	viper.SetDefault("sourceDir", DefaultSourceDir)
	viper.SetDefault("scriptSourceDir", DefaultScriptSourceDir)
	viper.SetDefault("nginxConfSource", DefaultNginxConfSource)
	viper.SetDefault("nginxConfPath", DefaultNginxConfPath)
	viper.SetDefault("nginxDefaultSite", DefaultNginxDefault)
	viper.SetDefault("stateFile", DefaultStateFile)
	viper.SetDefault("lpOauthKeyPath", DefaultLPOAuthKeyPath)
	viper.SetDefault("runAsUser", DefaultRunAsUser)
	viper.SetDefault("runAsGroup", DefaultRunAsGroup)
	viper.SetDefault("port", DefaultPort)
	viper.SetDefault("verbose", DefaultVerbose)

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("/etc/static-reports-operator")
	viper.AddConfigPath(".")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			panic(err)
		}
	}

	if err := viper.Unmarshal(cfg); err != nil {
		panic(err)
	}

	return cfg
}

// Runtime carries the per-event values that influence rendered units and
// published ingress data. It is assembled fresh on every dispatched event
// and never persisted.
type Runtime struct {
	// HTTPProxy and HTTPSProxy are the literal proxy URLs, empty when the
	// model carries no proxy configuration.
	HTTPProxy  string
	HTTPSProxy string
	// RsyncProxy is the host:port of the HTTP proxy; rsync does not accept
	// a URL form.
	RsyncProxy string
	// LPOAuthKey is the Launchpad credential content from the charm secret,
	// empty when the secret is not configured or not readable.
	LPOAuthKey string
	// ExternalHostname overrides the published hostname when set.
	ExternalHostname string
	// IngressURL is the URL provided by the ingress relation, if any.
	IngressURL string
}

// RuntimeFromEnv assembles the proxy portion of a Runtime from the
// environment the framework hands to hooks. getenv defaults to os.Getenv.
func RuntimeFromEnv(getenv func(string) string) Runtime {
	if getenv == nil {
		getenv = os.Getenv
	}

	rt := Runtime{
		HTTPProxy:  getenv("JUJU_CHARM_HTTP_PROXY"),
		HTTPSProxy: getenv("JUJU_CHARM_HTTPS_PROXY"),
	}
	if rt.HTTPProxy != "" {
		if u, err := url.Parse(rt.HTTPProxy); err == nil {
			rt.RsyncProxy = u.Host
		}
	}
	return rt
}

// ProxyEnv returns environment variable assignments for the configured
// proxies, suitable for appending to a subprocess environment. The slice
// is empty when no proxy is configured.
func (r Runtime) ProxyEnv() []string {
	var env []string
	if r.HTTPProxy != "" {
		env = append(env, "HTTP_PROXY="+r.HTTPProxy)
	}
	if r.HTTPSProxy != "" {
		env = append(env, "HTTPS_PROXY="+r.HTTPSProxy)
	}
	if r.RsyncProxy != "" {
		env = append(env, "RSYNC_PROXY="+r.RsyncProxy)
	}
	return env
}
