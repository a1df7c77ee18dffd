// Package config loads litereader settings from an optional YAML file and
// LITEREADER_* environment variables.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/FocuswithJustin/litereader/core/cache"
	"github.com/FocuswithJustin/litereader/core/errors"
	"github.com/FocuswithJustin/litereader/internal/logging"
)

// EnvPrefix prefixes environment overrides, e.g. LITEREADER_LOG_LEVEL.
const EnvPrefix = "LITEREADER"

// Output formats.
const (
	OutputTable = "table"
	OutputCSV   = "csv"
	OutputJSON  = "json"
)

type Config struct {
	Log struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"log"`

	Cache struct {
		// Pages is the page cache capacity; 0 disables it.
		Pages int `mapstructure:"pages"`
	} `mapstructure:"cache"`

	Output struct {
		Format string `mapstructure:"format"`
	} `mapstructure:"output"`
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "text")
	v.SetDefault("cache.pages", cache.DefaultPageCacheSize)
	v.SetDefault("output.format", OutputTable)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Default returns the settings used when no file is given, after
// environment overrides.
func Default() (*Config, error) {
	return LoadConfig("")
}

// LoadConfig reads the YAML file at path. An empty path skips the file.
func LoadConfig(path string) (*Config, error) {
	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks enumerated settings.
func (c *Config) Validate() error {
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return errors.NewValidation("log.level", err.Error())
	}
	if _, err := logging.ParseFormat(c.Log.Format); err != nil {
		return errors.NewValidation("log.format", err.Error())
	}
	if c.Cache.Pages < 0 {
		return errors.NewValidation("cache.pages", "must not be negative")
	}
	switch c.Output.Format {
	case OutputTable, OutputCSV, OutputJSON:
	default:
		return errors.NewValidation("output.format", fmt.Sprintf("unknown format %q", c.Output.Format))
	}
	return nil
}
