// Package config provides Viper-based configuration loading for the game
// server, including the engine tuning constants consumed by the round
// orchestrator.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/covenfall/covenfall/internal/game/round"
)

// ServerConfig holds top-level game server settings.
type ServerConfig struct {
	// ContentDir is the root directory holding abilities/, monsters/,
	// races/, and scripts/ content subdirectories.
	ContentDir string `mapstructure:"content_dir"`
	// DefaultMonster is the monster template ID used for new rooms.
	DefaultMonster string `mapstructure:"default_monster"`
	// RoundDuration is the submission deadline after which a round is
	// force-resolved; 0 disables the deadline.
	RoundDuration time.Duration `mapstructure:"round_duration"`
	// ScriptingEnabled toggles the Lua ability hooks.
	ScriptingEnabled bool `mapstructure:"scripting_enabled"`
}

// DatabaseConfig holds PostgreSQL connection settings for match history.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// DSN returns the PostgreSQL connection string.
//
// Precondition: Host, Port, User, and Name must be non-empty.
// Postcondition: Returns a valid PostgreSQL DSN string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// Config is the top-level application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Engine   round.Tuning   `mapstructure:"engine"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error
// describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateServer(c.Server); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateDatabase(c.Database); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := c.Engine.Validate(); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateServer(s ServerConfig) error {
	var errs []string
	if s.ContentDir == "" {
		errs = append(errs, "server.content_dir must not be empty")
	}
	if s.DefaultMonster == "" {
		errs = append(errs, "server.default_monster must not be empty")
	}
	if s.RoundDuration < 0 {
		errs = append(errs, "server.round_duration must not be negative")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateDatabase(d DatabaseConfig) error {
	var errs []string
	if d.Host == "" {
		errs = append(errs, "database.host must not be empty")
	}
	if d.Port < 1 || d.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", d.Port))
	}
	if d.User == "" {
		errs = append(errs, "database.user must not be empty")
	}
	if d.Name == "" {
		errs = append(errs, "database.name must not be empty")
	}
	validSSL := map[string]bool{"disable": true, "require": true, "verify-ca": true, "verify-full": true}
	if !validSSL[d.SSLMode] {
		errs = append(errs, fmt.Sprintf("database.sslmode must be one of [disable, require, verify-ca, verify-full], got %q", d.SSLMode))
	}
	if d.MaxConns < 1 {
		errs = append(errs, fmt.Sprintf("database.max_conns must be >= 1, got %d", d.MaxConns))
	}
	if d.MinConns < 0 {
		errs = append(errs, fmt.Sprintf("database.min_conns must be >= 0, got %d", d.MinConns))
	}
	if d.MinConns > d.MaxConns {
		errs = append(errs, "database.min_conns must not exceed database.max_conns")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

// Load reads configuration from the given file path, applies environment
// variable overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with COVENFALL_ prefix
	v.SetEnvPrefix("COVENFALL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	return LoadFromViper(v)
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.content_dir", "content")
	v.SetDefault("server.default_monster", "grave-troll")
	v.SetDefault("server.round_duration", "45s")
	v.SetDefault("server.scripting_enabled", true)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "covenfall")
	v.SetDefault("database.password", "covenfall")
	v.SetDefault("database.name", "covenfall")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("engine.outcome.ultra_fail", 0.03)
	v.SetDefault("engine.outcome.fail", 0.07)
	v.SetDefault("engine.outcome.crit", 0.10)
	v.SetDefault("engine.crit_multiplier", 1.5)
	v.SetDefault("engine.bonus.coordination_percent", 20)
	v.SetDefault("engine.bonus.stacking", "flat")
	v.SetDefault("engine.bonus.comeback_percent", 25)
	v.SetDefault("engine.bonus.comeback_hp_ratio", 0.35)
	v.SetDefault("engine.corruption.base_chance", 0.12)
	v.SetDefault("engine.corruption.area_modifier", 0.5)
	v.SetDefault("engine.corruption.random_modifier", 0.25)
	v.SetDefault("engine.corruption.detection_chance", 0.15)
	v.SetDefault("engine.threat.monster_damage", 1.0)
	v.SetDefault("engine.threat.total_damage", 0.5)
	v.SetDefault("engine.threat.healing", 0.8)
	v.SetDefault("engine.threat.armor", 0.3)
	v.SetDefault("engine.threat_decay", 0.9)
	v.SetDefault("engine.level.breakpoints", []int{4, 8, 13})
	v.SetDefault("engine.level.hp_growth", 15)
}
