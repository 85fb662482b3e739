// Package config resolves the settings of one invocation from defaults, the
// JENKINSATOR_* environment and command-line flags, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/jenkinsator/jenkinsator/internal/ir"
	"github.com/jenkinsator/jenkinsator/internal/jenkins"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment variable that maps onto a setting.
const EnvPrefix = "JENKINSATOR_"

// ConfigError reports invalid or conflicting settings. Nothing remote has been
// attempted when one is returned.
type ConfigError struct {
	Msg string
}

func (e *ConfigError) Error() string {
	return "configuration error: " + e.Msg
}

func configErrorf(format string, args ...any) error {
	return &ConfigError{Msg: fmt.Sprintf(format, args...)}
}

// IsConfigError reports whether err wraps a *ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// Config holds the global settings shared by every subcommand.
type Config struct {
	Server             string        `koanf:"server"`
	Login              string        `koanf:"login"`
	Password           string        `koanf:"password"`
	DryRun             bool          `koanf:"dry-run"`
	LogLevel           string        `koanf:"log-level"`
	LogFormat          string        `koanf:"log-format"`
	Output             string        `koanf:"output"`
	AuditLog           string        `koanf:"audit-log"`
	MetricsFile        string        `koanf:"metrics-file"`
	Timeout            time.Duration `koanf:"timeout"`
	InsecureSkipVerify bool          `koanf:"insecure-skip-verify"`
	ContinueOnError    bool          `koanf:"continue-on-error"`
}

// Defaults returns the lowest-priority layer.
func Defaults() map[string]any {
	return map[string]any{
		"server":               "",
		"login":                "",
		"password":             "",
		"dry-run":              false,
		"log-level":            "info",
		"log-format":           "text",
		"output":               "text",
		"audit-log":            "",
		"metrics-file":         "",
		"timeout":              jenkins.DefaultTimeout,
		"insecure-skip-verify": false,
		"continue-on-error":    false,
	}
}

// EnvName is the environment variable for key, e.g. log-level is
// JENKINSATOR_LOG_LEVEL.
func EnvName(key string) string {
	return EnvPrefix + strings.ToUpper(strings.ReplaceAll(key, "-", "_"))
}

// Load layers defaults, environ (in os.Environ form) and flags. Only flags the
// user set explicitly should be passed so they do not mask the environment.
func Load(flags map[string]any, environ []string) (*Config, error) {
	if flags == nil {
		flags = map[string]any{}
	}
	k := koanf.New(".")

	defaults := Defaults()
	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}
	if err := k.Load(confmap.Provider(envLayer(defaults, environ), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}
	if err := k.Load(confmap.Provider(flags, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load flags: %w", err)
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, configErrorf("%v", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func envLayer(known map[string]any, environ []string) map[string]any {
	byEnv := make(map[string]string, len(known))
	for key := range known {
		byEnv[EnvName(key)] = key
	}

	layer := map[string]any{}
	for _, kv := range environ {
		name, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		if key, found := byEnv[name]; found {
			layer[key] = value
		}
	}
	return layer
}

// Validate checks the global settings.
func (c *Config) Validate() error {
	if c.Server == "" {
		return configErrorf("no server URL given: pass --server, a positional server URL or %s", EnvName("server"))
	}
	u, err := url.Parse(c.Server)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return configErrorf("invalid server URL %q: want http(s)://host[:port]", c.Server)
	}
	if err := oneOf("output", c.Output, "text", "json", "yaml"); err != nil {
		return err
	}
	if err := oneOf("log-format", c.LogFormat, "text", "json"); err != nil {
		return err
	}
	if err := oneOf("log-level", strings.ToLower(c.LogLevel), "debug", "info", "warn", "warning", "error"); err != nil {
		return err
	}
	if c.Timeout <= 0 {
		return configErrorf("timeout must be positive, got %s", c.Timeout)
	}
	if (c.Login == "") != (c.Password == "") {
		return configErrorf("--login and --password must be given together")
	}
	return nil
}

// Mode is dry-run when DryRun is set.
func (c *Config) Mode() ir.Mode {
	if c.DryRun {
		return ir.ModeDryRun
	}
	return ir.ModeLive
}

// HasCredentials reports whether login and password were supplied directly.
func (c *Config) HasCredentials() bool {
	return c.Login != "" && c.Password != ""
}

func oneOf(name, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	sorted := append([]string(nil), allowed...)
	sort.Strings(sorted)
	return configErrorf("invalid %s %q: want one of %s", name, value, strings.Join(sorted, ", "))
}
