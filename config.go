package alertsearch

import (
	"io"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/bdpiprava/alertsearch/dashboard"
	"github.com/bdpiprava/alertsearch/internal"
	"github.com/bdpiprava/alertsearch/xlog"
)

const (
	DefaultHost         = "http://localhost:7280"
	DefaultTimeout      = 10 * time.Second
	DefaultMaxHitsLimit = 10000
	DefaultIndex        = dashboard.DefaultIndex
)

// Config is the configuration for the search client, read from .alertsearch.config.yml
type Config struct {
	Hosts        []string          `yaml:"hosts"`          // Hosts candidate backend base URLs in order of preference
	Timeout      time.Duration     `yaml:"timeout"`        // Timeout applied to every request e.g. 10s
	MaxHitsLimit int               `yaml:"max_hits_limit"` // MaxHitsLimit hard upper bound on max_hits of a search
	Username     string            `yaml:"username"`       // Username for basic authentication
	Password     string            `yaml:"password"`       // Password for basic authentication
	Token        string            `yaml:"token"`          // Token sent as bearer authorization, wins over basic auth
	Headers      map[string]string `yaml:"headers"`        // Headers added to every request
	DefaultIndex string            `yaml:"default_index"`  // DefaultIndex used by the dashboard operations without an index argument
	LogLevel     string            `yaml:"log_level"`      // LogLevel is the log level
	LogFile      *xlog.FileConfig  `yaml:"log_file"`       // LogFile rotates logs into a file instead of stderr
}

// DefaultConfig returns the configuration for a local single node backend
func DefaultConfig() Config {
	return Config{
		Hosts:        []string{DefaultHost},
		Timeout:      DefaultTimeout,
		MaxHitsLimit: DefaultMaxHitsLimit,
		DefaultIndex: DefaultIndex,
		LogLevel:     "info",
	}
}

// LoadConfig reads the config file, validates it and fills unset values with defaults.
// A missing config file yields DefaultConfig.
func LoadConfig() (Config, error) {
	config, err := internal.ReadConfigAs[Config]()
	if errors.Is(err, internal.ErrConfigNotFound) {
		xlog.Base().Debug("no config file found, using defaults")
		return DefaultConfig(), nil
	}
	if err != nil {
		return Config{}, errors.Wrap(err, "failed to read config")
	}

	path, viaEnv := internal.ConfigSource()
	xlog.Base().WithFields(logrus.Fields{
		"path":    path,
		"via_env": viaEnv,
		"hosts":   len(config.Hosts),
	}).Debug("loaded config")
	return config.WithDefaults(), nil
}

// Validate checks the values set in the config, unset values are left to WithDefaults
func (c Config) Validate() error {
	if len(c.Hosts) > 0 {
		if _, err := parseEndpoints(c.Hosts); err != nil {
			return errors.Wrap(err, "hosts")
		}
	}
	if c.Timeout < 0 {
		return errors.Errorf("timeout must not be negative, got %s", c.Timeout)
	}
	if c.MaxHitsLimit < 0 {
		return errors.Errorf("max_hits_limit must not be negative, got %d", c.MaxHitsLimit)
	}
	if c.DefaultIndex != "" && strings.TrimSpace(c.DefaultIndex) == "" {
		return errors.New("default_index must not be blank")
	}
	if _, err := xlog.ParseLevel(c.LogLevel); err != nil {
		return errors.Wrap(err, "log_level")
	}
	return nil
}

// WithDefaults returns a copy of the config with zero values replaced by defaults
func (c Config) WithDefaults() Config {
	defaults := DefaultConfig()
	if len(c.Hosts) == 0 {
		c.Hosts = defaults.Hosts
	}
	if c.Timeout == 0 {
		c.Timeout = defaults.Timeout
	}
	if c.MaxHitsLimit == 0 {
		c.MaxHitsLimit = defaults.MaxHitsLimit
	}
	if c.DefaultIndex == "" {
		c.DefaultIndex = defaults.DefaultIndex
	}
	if c.LogLevel == "" {
		c.LogLevel = defaults.LogLevel
	}
	return c
}

// DashboardOptions returns the dashboard options the config describes
func (c Config) DashboardOptions() []dashboard.Option {
	return []dashboard.Option{
		dashboard.WithIndex(c.WithDefaults().DefaultIndex),
	}
}

// ConfigureLogging applies the log level and log file to the process wide logger
func (c Config) ConfigureLogging() (io.Closer, error) {
	return xlog.Configure(c.LogLevel, c.LogFile)
}

// options returns the client options the config describes
func (c Config) options() []Option {
	opts := []Option{
		WithTimeout(c.Timeout),
		WithMaxHitsLimit(c.MaxHitsLimit),
	}

	switch {
	case c.Token != "":
		opts = append(opts, WithBearerToken(c.Token))
	case c.Username != "" || c.Password != "":
		opts = append(opts, WithBasicAuth(c.Username, c.Password))
	}

	for key, value := range c.Headers {
		opts = append(opts, WithHeader(key, value))
	}
	return opts
}
