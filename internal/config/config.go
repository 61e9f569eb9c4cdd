// Package config loads module configuration from file and environment.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Config is the resolved configuration consumed by the CLI.
type Config struct {
	Fetch     FetchConfig
	Inference InferenceConfig
	StorePath string
}

// FetchConfig selects and tunes the retrieval strategy.
type FetchConfig struct {
	// Strategy is "proxy" or "browser".
	Strategy string
	Relays   []string
}

// InferenceConfig selects and authenticates the model backend.
type InferenceConfig struct {
	Provider string
	APIKey   string
	Model    string
	BaseURL  string
}

// Load reads config.yaml from the user config directory (or cfgFile when
// non-empty) plus ANIDOCK_* environment variables, over the defaults.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	v.SetDefault("fetch.strategy", "proxy")
	v.SetDefault("fetch.relays", []string{})
	v.SetDefault("inference.provider", "openai")
	v.SetDefault("inference.model", "")
	v.SetDefault("inference.base_url", "")
	v.SetDefault("store.path", defaultStorePath())

	v.SetEnvPrefix("ANIDOCK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "anidock"))
		}
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		// A missing file is fine; defaults and env carry the config.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "failed to read config file")
		}
	}

	return &Config{
		Fetch: FetchConfig{
			Strategy: v.GetString("fetch.strategy"),
			Relays:   v.GetStringSlice("fetch.relays"),
		},
		Inference: InferenceConfig{
			Provider: v.GetString("inference.provider"),
			APIKey:   v.GetString("inference.api_key"),
			Model:    v.GetString("inference.model"),
			BaseURL:  v.GetString("inference.base_url"),
		},
		StorePath: v.GetString("store.path"),
	}, nil
}

func defaultStorePath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "anidock", "anidock.db")
}
