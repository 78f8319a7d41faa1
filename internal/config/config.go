package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

type ServerConfig struct {
	Address string `mapstructure:"address" yaml:"address"`
	Port    int    `mapstructure:"port" yaml:"port"`
	Mode    string `mapstructure:"mode" yaml:"mode"`
}

// DatabaseConfig selects the gorm dialector. Path is used by sqlite, DSN by postgres.
type DatabaseConfig struct {
	Driver       string `mapstructure:"driver" yaml:"driver"`
	Path         string `mapstructure:"path" yaml:"path"`
	DSN          string `mapstructure:"dsn" yaml:"dsn"`
	LogMode      bool   `mapstructure:"log_mode" yaml:"log_mode"`
	MaxOpenConns int    `mapstructure:"max_open_conns" yaml:"max_open_conns"`
}

type AuthConfig struct {
	JWTSecret     string `mapstructure:"jwt_secret" yaml:"jwt_secret"`
	Issuer        string `mapstructure:"issuer" yaml:"issuer"`
	TokenTTLHours int    `mapstructure:"token_ttl_hours" yaml:"token_ttl_hours"`
}

func (a AuthConfig) TokenTTL() time.Duration {
	return time.Duration(a.TokenTTLHours) * time.Hour
}

type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
}

// LockConfig switches the keyed lock to redis when RedisAddr is set.
type LockConfig struct {
	RedisAddr     string `mapstructure:"redis_addr" yaml:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password" yaml:"redis_password"`
	TTLSeconds    int    `mapstructure:"ttl_seconds" yaml:"ttl_seconds"`
}

type LedgerConfig struct {
	DefaultCurrency  string `mapstructure:"default_currency" yaml:"default_currency"`
	BudgetCategory   string `mapstructure:"budget_category" yaml:"budget_category"`
	InterestCategory string `mapstructure:"interest_category" yaml:"interest_category"`
}

type Config struct {
	Server   ServerConfig   `mapstructure:"server" yaml:"server"`
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`
	Auth     AuthConfig     `mapstructure:"auth" yaml:"auth"`
	Log      LogConfig      `mapstructure:"log" yaml:"log"`
	Lock     LockConfig     `mapstructure:"lock" yaml:"lock"`
	Ledger   LedgerConfig   `mapstructure:"ledger" yaml:"ledger"`
}

var appConfig *Config

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Address: "0.0.0.0",
			Port:    8080,
			Mode:    "release",
		},
		Database: DatabaseConfig{
			Driver:       "sqlite",
			Path:         "data/fintrack.db",
			MaxOpenConns: 10,
		},
		Auth: AuthConfig{
			Issuer:        "fintrack",
			TokenTTLHours: 24,
		},
		Log: LogConfig{Level: "info"},
		Lock: LockConfig{
			TTLSeconds: 10,
		},
		Ledger: LedgerConfig{
			DefaultCurrency:  "USD",
			BudgetCategory:   "Budget",
			InterestCategory: "Interest",
		},
	}
}

// Load loads configuration from given file path (e.g. "config.yaml").
// If path is empty, it looks for config.yaml in the working directory.
// A missing file is not an error: defaults plus FINTRACK_* env apply.
func Load(path string) (*Config, error) {
	v := viper.New()

	if path == "" {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	} else {
		v.SetConfigFile(path)
	}

	setDefaults(v, Default())

	// environment overrides, e.g. FINTRACK_SERVER_PORT=9000
	v.SetEnvPrefix("FINTRACK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}

	appConfig = &c
	return appConfig, nil
}

// Get returns the last configuration returned by Load.
func Get() *Config {
	return appConfig
}

// Validate checks the settings that have no usable fallback.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Path == "" {
			return errors.New("config: database.path is required for sqlite")
		}
	case "postgres":
		if c.Database.DSN == "" {
			return errors.New("config: database.dsn is required for postgres")
		}
	default:
		return fmt.Errorf("config: unsupported database.driver %q", c.Database.Driver)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: invalid server.port %d", c.Server.Port)
	}
	return nil
}

// Save writes c to path as YAML.
func Save(path string, c *Config) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// setDefaults registers every key so env overrides work without a file.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("server.address", d.Server.Address)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.mode", d.Server.Mode)

	v.SetDefault("database.driver", d.Database.Driver)
	v.SetDefault("database.path", d.Database.Path)
	v.SetDefault("database.dsn", d.Database.DSN)
	v.SetDefault("database.log_mode", d.Database.LogMode)
	v.SetDefault("database.max_open_conns", d.Database.MaxOpenConns)

	v.SetDefault("auth.jwt_secret", d.Auth.JWTSecret)
	v.SetDefault("auth.issuer", d.Auth.Issuer)
	v.SetDefault("auth.token_ttl_hours", d.Auth.TokenTTLHours)

	v.SetDefault("log.level", d.Log.Level)

	v.SetDefault("lock.redis_addr", d.Lock.RedisAddr)
	v.SetDefault("lock.redis_password", d.Lock.RedisPassword)
	v.SetDefault("lock.ttl_seconds", d.Lock.TTLSeconds)

	v.SetDefault("ledger.default_currency", d.Ledger.DefaultCurrency)
	v.SetDefault("ledger.budget_category", d.Ledger.BudgetCategory)
	v.SetDefault("ledger.interest_category", d.Ledger.InterestCategory)
}
