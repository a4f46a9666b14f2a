package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Loader provides configuration loading capabilities.
type Loader interface {
	// Load loads configuration from file and environment variables.
	// Priority: defaults → config file → environment variables (env wins)
	Load() (*Config, error)
}

type loader struct {
	rootDir    string
	configFile string
}

// NewLoader creates a configuration loader for the given project root.
func NewLoader(rootDir string) Loader {
	return &loader{rootDir: rootDir}
}

// NewLoaderWithFile creates a loader that reads the given config file
// instead of searching the project root for phpscan.yml.
func NewLoaderWithFile(rootDir, configFile string) Loader {
	return &loader{rootDir: rootDir, configFile: configFile}
}

// Load loads configuration with the following priority (highest to lowest):
// 1. Environment variables (PHPSCAN_*)
// 2. Config file (phpscan.yml or phpscan.yaml in the project root)
// 3. Default values
func (l *loader) Load() (*Config, error) {
	v := viper.New()

	if l.configFile != "" {
		v.SetConfigFile(l.configFile)
	} else {
		v.SetConfigName("phpscan")
		v.SetConfigType("yaml")
		v.AddConfigPath(l.rootDir)
	}

	v.SetEnvPrefix("PHPSCAN")
	v.AutomaticEnv()
	// PHPSCAN_AUTOLOAD_COMPOSER overrides autoload.composer and so on.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.BindEnv("level")
	v.BindEnv("autoload.composer")
	v.BindEnv("autoload.dev")
	v.BindEnv("cache.enabled")
	v.BindEnv("cache.dir")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine, defaults plus env carry it.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("level", defaults.Level)
	v.SetDefault("paths", defaults.Paths)
	v.SetDefault("excludes", defaults.Excludes)
	v.SetDefault("autoload.composer", defaults.Autoload.Composer)
	v.SetDefault("autoload.dev", defaults.Autoload.Dev)
	v.SetDefault("cache.enabled", defaults.Cache.Enabled)
	v.SetDefault("cache.dir", defaults.Cache.Dir)
}
