package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Log       LogConfig       `mapstructure:"log"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Models    ModelsConfig    `mapstructure:"models"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	URL      string `mapstructure:"url"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"ssl_mode"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type LogConfig struct {
	File string `mapstructure:"file"`
}

// AuthConfig declares API clients allowed to request tokens. Clients maps a
// client ID to an argon2id hash of its API key.
type AuthConfig struct {
	Enabled     bool              `mapstructure:"enabled"`
	Secret      string            `mapstructure:"secret"`
	ExpiryHours int               `mapstructure:"expiry_hours"`
	Clients     map[string]string `mapstructure:"clients"`
}

type SchedulerConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	SchemaRefresh string `mapstructure:"schema_refresh"`
}

// ModelsConfig controls which tables the generic record API exposes.
// Tables listed in Exclude are hidden even when present in the database.
type ModelsConfig struct {
	Exclude []string `mapstructure:"exclude"`
}

// Load reads the settings file and environment into a Config. If path is
// empty the default search locations are used; a missing config file is not
// an error, defaults and environment variables apply.
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("$HOME/.blueprint")
		v.AddConfigPath("/etc/blueprint")
	}

	v.SetEnvPrefix("BLUEPRINT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set default values
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("auth.enabled", false)
	v.SetDefault("auth.expiry_hours", 24)
	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.schema_refresh", "@every 5m")

	if err := v.ReadInConfig(); err != nil {
		// A missing file is fine, defaults and environment apply; a file
		// that exists but fails to parse is not.
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("error reading config file %s: %w", v.ConfigFileUsed(), err)
		}
	}

	// Override with environment variables
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		v.Set("database.url", dbURL)
	}
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		if err := applyRedisURL(v, redisURL); err != nil {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &config, nil
}

// applyRedisURL spreads a REDIS_URL connection string over the discrete
// redis settings.
func applyRedisURL(v *viper.Viper, redisURL string) error {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return fmt.Errorf("invalid REDIS_URL: %w", err)
	}

	host, port, err := net.SplitHostPort(opts.Addr)
	if err != nil {
		return fmt.Errorf("invalid REDIS_URL address %s: %w", opts.Addr, err)
	}
	portNum, err := strconv.Atoi(port)
	if err != nil {
		return fmt.Errorf("invalid REDIS_URL port %s: %w", port, err)
	}

	v.Set("redis.host", host)
	v.Set("redis.port", portNum)
	v.Set("redis.password", opts.Password)
	v.Set("redis.db", opts.DB)
	return nil
}

// DatabaseURL returns the Postgres connection string, preferring the url
// setting over the discrete fields.
func (c *Config) DatabaseURL() string {
	if c.Database.URL != "" {
		return c.Database.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// Addr returns the host:port the HTTP server binds to.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}
