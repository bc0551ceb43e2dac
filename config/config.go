package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Discord  DiscordConfig  `mapstructure:"discord"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Gamble   GambleConfig   `mapstructure:"gamble"`
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
}

type DiscordConfig struct {
	Token    string        `mapstructure:"token"`
	OwnerID  string        `mapstructure:"owner_id"` // the single principal allowed to create/delete currencies
	Prefix   string        `mapstructure:"prefix"`
	DedupTTL time.Duration `mapstructure:"dedup_ttl"` // 0 disables duplicate-delivery guarding
}

// Storage drivers.
const (
	DriverFile     = "file"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
	DriverMemory   = "memory" // nothing survives a restart; for dry runs
)

type StorageConfig struct {
	Driver       string `mapstructure:"driver"` // file, postgres, redis, memory
	Dir          string `mapstructure:"dir"`
	WalletFile   string `mapstructure:"wallet_file"`
	CurrencyFile string `mapstructure:"currency_file"`
}

// WalletPath returns the wallet document location.
func (s StorageConfig) WalletPath() string {
	return filepath.Join(s.Dir, s.WalletFile)
}

// CurrencyPath returns the currency document location.
func (s StorageConfig) CurrencyPath() string {
	return filepath.Join(s.Dir, s.CurrencyFile)
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"` // needed for cooldowns/dedup unless it is the storage driver
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// Addr returns the Redis address string.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type GambleConfig struct {
	CooldownLimit  int64         `mapstructure:"cooldown_limit"` // 0 = unlimited
	CooldownWindow time.Duration `mapstructure:"cooldown_window"`
}

type ServerConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
	Mode    string `mapstructure:"mode"` // debug, release, test
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Pretty bool   `mapstructure:"pretty"` // human-readable output (dev only)
}

// Load reads configuration from a .env file, a config file and environment variables.
// Environment variables override file values. Prefix: GBOT_.
// Nested keys use underscore: GBOT_DISCORD_TOKEN, GBOT_STORAGE_DRIVER, etc.
// DISCORD_TOKEN is accepted when GBOT_DISCORD_TOKEN is not set.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("reading .env: %w", err)
	}

	v := viper.New()

	// Defaults
	v.SetDefault("discord.token", "")
	v.SetDefault("discord.owner_id", "")
	v.SetDefault("discord.prefix", "/")
	v.SetDefault("discord.dedup_ttl", "0s")
	v.SetDefault("storage.driver", DriverFile)
	v.SetDefault("storage.dir", ".")
	v.SetDefault("storage.wallet_file", "user_data.json")
	v.SetDefault("storage.currency_file", "money_types.json")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "gambling_bot")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 5)
	v.SetDefault("database.min_conns", 1)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "gbot:")
	v.SetDefault("gamble.cooldown_limit", 0)
	v.SetDefault("gamble.cooldown_window", "1m")
	v.SetDefault("server.enabled", false)
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	// File config
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables: GBOT_STORAGE_DRIVER -> storage.driver
	v.SetEnvPrefix("GBOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (not required, env vars can suffice)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if cfg.Discord.Token == "" {
		cfg.Discord.Token = os.Getenv("DISCORD_TOKEN")
	}
	cfg.Storage.Driver = strings.ToLower(cfg.Storage.Driver)

	return &cfg, nil
}

// Validate reports configuration that would prevent the bot from starting.
func (c *Config) Validate() error {
	if c.Discord.Token == "" {
		return errors.New("discord token is required (GBOT_DISCORD_TOKEN or DISCORD_TOKEN)")
	}
	if c.Discord.Prefix == "" {
		return errors.New("discord prefix must not be empty")
	}
	switch c.Storage.Driver {
	case DriverFile, DriverPostgres, DriverRedis, DriverMemory:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.Gamble.CooldownLimit > 0 && c.Gamble.CooldownWindow < time.Second {
		return errors.New("gamble cooldown window must be at least 1s")
	}
	return nil
}

// NeedsRedis reports whether a Redis connection must be opened.
func (c *Config) NeedsRedis() bool {
	return c.Redis.Enabled || c.Storage.Driver == DriverRedis
}
