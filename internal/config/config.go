// Package config loads simulator settings from YAML files and BATTLESIM_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/cardclash/battle-sim/internal/game"
)

// Config is the root configuration.
type Config struct {
	Logging LoggingConfig `mapstructure:"logging"`
	Rules   game.Rules    `mapstructure:"rules"`
	Catalog CatalogConfig `mapstructure:"catalog"`
	Match   MatchConfig   `mapstructure:"match"`
	Archive ArchiveConfig `mapstructure:"archive"`
	Stream  StreamConfig  `mapstructure:"stream"`
}

// LoggingConfig selects the zap level and encoder.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// CatalogConfig points at a card catalog. An empty path uses the built-in
// starter catalog.
type CatalogConfig struct {
	Path string `mapstructure:"path"`
}

// MatchConfig describes the default match run by the CLI.
type MatchConfig struct {
	Deck1    string `mapstructure:"deck1"`
	Deck2    string `mapstructure:"deck2"`
	Seed     string `mapstructure:"seed"`
	MaxSteps int    `mapstructure:"max_steps"`
}

// ArchiveConfig selects where finished replays are stored. Every non-empty
// sink is written.
type ArchiveConfig struct {
	Dir         string        `mapstructure:"dir"`
	Gzip        bool          `mapstructure:"gzip"`
	PostgresDSN string        `mapstructure:"postgres_dsn"`
	GCSBucket   string        `mapstructure:"gcs_bucket"`
	GCSPrefix   string        `mapstructure:"gcs_prefix"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// StreamConfig configures the replay streaming server.
type StreamConfig struct {
	Address      string        `mapstructure:"address"`
	StepInterval time.Duration `mapstructure:"step_interval"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// Load reads the configuration at path. A missing file is not an error when
// path is empty; defaults and environment variables still apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("BATTLESIM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	rules := game.DefaultRules()

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("rules.starting_life", rules.StartingLife)
	v.SetDefault("rules.starting_hand", rules.StartingHand)
	v.SetDefault("rules.max_hand", rules.MaxHand)
	v.SetDefault("rules.max_field", rules.MaxField)
	v.SetDefault("rules.energy_cap", rules.EnergyCap)
	v.SetDefault("rules.fatigue_damage", rules.FatigueDamage)
	v.SetDefault("rules.max_chain_depth", rules.MaxChainDepth)
	v.SetDefault("rules.max_turns", rules.MaxTurns)

	v.SetDefault("catalog.path", "")

	v.SetDefault("match.deck1", "necromancer")
	v.SetDefault("match.deck2", "knight")
	v.SetDefault("match.seed", "battle-sim")
	v.SetDefault("match.max_steps", 10000)

	v.SetDefault("archive.dir", "")
	v.SetDefault("archive.gzip", true)
	v.SetDefault("archive.postgres_dsn", "")
	v.SetDefault("archive.gcs_bucket", "")
	v.SetDefault("archive.gcs_prefix", "replays")
	v.SetDefault("archive.timeout", 30*time.Second)

	v.SetDefault("stream.address", ":8090")
	v.SetDefault("stream.step_interval", 400*time.Millisecond)
	v.SetDefault("stream.write_timeout", 5*time.Second)
}

// Validate checks values viper cannot type-check.
func (c *Config) Validate() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Logging.Level)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("unknown log format %q", c.Logging.Format)
	}
	if err := c.Rules.Validate(); err != nil {
		return err
	}
	if c.Match.MaxSteps <= 0 {
		return errors.New("match.max_steps must be positive")
	}
	if c.Stream.StepInterval < 0 {
		return errors.New("stream.step_interval must not be negative")
	}
	return nil
}
