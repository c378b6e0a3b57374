// Package config provides configuration management for the medquery CLI.
//
// Precedence (highest to lowest): flags > environment variables > config
// file > defaults.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Default configuration values.
const (
	DefaultDatabasePath = "medquery.db"
	DefaultDraftsDir    = "drafts"
	DefaultPageSize     = 100
	DefaultOutput       = "table"
)

// RemoteConfig holds the sync endpoint settings. The keys are sensitive and
// support ${VAR} expansion so they can live outside the config file.
type RemoteConfig struct {
	URL        string `koanf:"url"`
	AnonKey    string `koanf:"anon_key"`
	ServiceKey string `koanf:"service_key"`
}

// Config holds all CLI configuration options.
type Config struct {
	DatabasePath string       `koanf:"database"`
	DraftsDir    string       `koanf:"drafts_dir"`
	PageSize     int          `koanf:"page_size"`
	OutputFormat string       `koanf:"output"`
	Verbose      bool         `koanf:"verbose"`
	Remote       RemoteConfig `koanf:"remote"`
}

// findConfigFile finds the config file to use.
// Priority: explicit path > medquery.yaml > medquery.yml
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range []string{"medquery.yaml", "medquery.yml"} {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// Load loads configuration from file, environment variables, and flags.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(map[string]interface{}{
		"database":   DefaultDatabasePath,
		"drafts_dir": DefaultDraftsDir,
		"page_size":  DefaultPageSize,
		"output":     DefaultOutput,
		"verbose":    false,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(cfgFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}

	// MEDQUERY_PAGE_SIZE -> page_size; a double underscore nests, so
	// MEDQUERY_REMOTE__ANON_KEY -> remote.anon_key.
	if err := k.Load(env.Provider("MEDQUERY_", ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, "MEDQUERY_")), "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	cfg.Remote.URL = expandEnvVars(cfg.Remote.URL)
	cfg.Remote.AnonKey = expandEnvVars(cfg.Remote.AnonKey)
	cfg.Remote.ServiceKey = expandEnvVars(cfg.Remote.ServiceKey)

	if cfg.PageSize < 0 {
		return nil, fmt.Errorf("page_size must not be negative, got %d", cfg.PageSize)
	}
	return &cfg, nil
}

// expandEnvVars expands ${VAR} patterns with environment variable values.
// Unset variables leave the pattern untouched.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)
	return re.ReplaceAllStringFunc(s, func(match string) string {
		if val := os.Getenv(match[2 : len(match)-1]); val != "" {
			return val
		}
		return match
	})
}
