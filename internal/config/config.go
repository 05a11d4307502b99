package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const (
	FileName  = "twocarrier.cfg.json"
	EnvPrefix = "TWOCARRIER"
)

type StoreConfig struct {
	Kind       string `mapstructure:"kind"`
	SQLitePath string `mapstructure:"sqlitePath"`
}

type EnvConfig struct {
	// Seed 0 means seed from the clock.
	Seed            int64 `mapstructure:"seed"`
	MaxEpisodeSteps int   `mapstructure:"maxEpisodeSteps"`
}

type DemoConfig struct {
	Steps int `mapstructure:"steps"`
}

type RenderConfig struct {
	Dir string `mapstructure:"dir"`
	DPI int    `mapstructure:"dpi"`
}

type Config struct {
	LogLevel string       `mapstructure:"logLevel"`
	Store    StoreConfig  `mapstructure:"store"`
	Env      EnvConfig    `mapstructure:"env"`
	Demo     DemoConfig   `mapstructure:"demo"`
	Render   RenderConfig `mapstructure:"render"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logLevel", "info")
	v.SetDefault("store.kind", "memory")
	v.SetDefault("store.sqlitePath", "twocarrier.db")
	v.SetDefault("env.seed", 0)
	v.SetDefault("env.maxEpisodeSteps", 200)
	v.SetDefault("demo.steps", 1000)
	v.SetDefault("render.dir", "")
	v.SetDefault("render.dpi", 96)
}

// Load reads FileName from configDir when present, then applies TWOCARRIER_*
// environment overrides. A missing file is not an error; an empty configDir
// skips the file lookup entirely.
func Load(configDir string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configDir != "" {
		v.SetConfigName(FileName)
		v.SetConfigType("json")
		v.AddConfigPath(configDir)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Store.Kind {
	case "memory", "sqlite":
	default:
		return fmt.Errorf("unsupported store.kind: %s", c.Store.Kind)
	}
	if c.Store.Kind == "sqlite" && c.Store.SQLitePath == "" {
		return errors.New("store.sqlitePath is required for sqlite store")
	}
	if c.Env.MaxEpisodeSteps < 0 {
		return fmt.Errorf("env.maxEpisodeSteps must be >= 0, got %d", c.Env.MaxEpisodeSteps)
	}
	if c.Demo.Steps < 0 {
		return fmt.Errorf("demo.steps must be >= 0, got %d", c.Demo.Steps)
	}
	return nil
}
