package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Upstream  UpstreamConfig  `mapstructure:"upstream"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Bookmarks BookmarksConfig `mapstructure:"bookmarks"`
	Settings  SettingsConfig  `mapstructure:"settings"`
	Feed      FeedConfig      `mapstructure:"feed"`
	Log       LogConfig       `mapstructure:"log"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port            int    `mapstructure:"port"`
	Host            string `mapstructure:"host"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"`
}

func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// UpstreamConfig holds the cake shop REST API configuration
type UpstreamConfig struct {
	BaseURL              string `mapstructure:"base_url"`
	Timeout              int    `mapstructure:"timeout"`
	MaxRequestsPerSecond int    `mapstructure:"max_requests_per_second"`
	UserAgent            string `mapstructure:"user_agent"`

	// Circuit breaker
	BreakerMaxFailures uint32 `mapstructure:"breaker_max_failures"`
	BreakerCooldown    int    `mapstructure:"breaker_cooldown"`

	PreviewTimeout int `mapstructure:"preview_timeout"`

	// Optional egress proxies for link previews, checked against PreviewProxyCheckURL at startup.
	PreviewProxies       []string `mapstructure:"preview_proxies"`
	PreviewProxyCheckURL string   `mapstructure:"preview_proxy_check_url"`
}

func (c UpstreamConfig) TimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"sslmode"`
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

// RedisConfig holds Redis connection details
type RedisConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Password     string `mapstructure:"password"`
	Database     int    `mapstructure:"database"`
	StreamPrefix string `mapstructure:"stream_prefix"`
	KeyPrefix    string `mapstructure:"key_prefix"`
	PublishEvent bool   `mapstructure:"publish_events"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// BookmarksConfig selects the structured store used for bookmarks
type BookmarksConfig struct {
	Driver    string `mapstructure:"driver"` // badger or postgres
	BadgerDir string `mapstructure:"badger_dir"`
}

// SettingsConfig selects the key-value store used for small settings
type SettingsConfig struct {
	Driver string `mapstructure:"driver"` // redis or memory
}

type FeedConfig struct {
	PrefetchThreshold int `mapstructure:"prefetch_threshold"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load loads configuration from YAML file with environment variable overrides
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug(".env file not found, using system environment variables")
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	setDefaults()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil, fmt.Errorf("config.yaml file not found in current directory")
		}
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate rejects combinations the container cannot wire
func (c *Config) Validate() error {
	switch c.Bookmarks.Driver {
	case "badger", "postgres":
	default:
		return fmt.Errorf("unsupported bookmarks driver %q", c.Bookmarks.Driver)
	}
	switch c.Settings.Driver {
	case "redis", "memory":
	default:
		return fmt.Errorf("unsupported settings driver %q", c.Settings.Driver)
	}
	if c.Upstream.BaseURL == "" {
		return fmt.Errorf("upstream.base_url must be set")
	}
	if c.Upstream.Timeout <= 0 {
		return fmt.Errorf("upstream.timeout must be positive")
	}
	return nil
}

func setDefaults() {
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.host", "localhost")
	viper.SetDefault("server.shutdown_timeout", 10)

	viper.SetDefault("upstream.base_url", "http://localhost:9000/api")
	viper.SetDefault("upstream.timeout", 10)
	viper.SetDefault("upstream.max_requests_per_second", 20)
	viper.SetDefault("upstream.user_agent", "cakemap-catalog/1.0")
	viper.SetDefault("upstream.breaker_max_failures", 5)
	viper.SetDefault("upstream.breaker_cooldown", 30)
	viper.SetDefault("upstream.preview_timeout", 5)
	viper.SetDefault("upstream.preview_proxies", []string{})
	viper.SetDefault("upstream.preview_proxy_check_url", "https://www.google.com/generate_204")

	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.name", "cakemap")
	viper.SetDefault("database.user", "cakemap_user")
	viper.SetDefault("database.password", "cakemap_pass")
	viper.SetDefault("database.sslmode", "disable")

	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.database", 0)
	viper.SetDefault("redis.stream_prefix", "cakemap:stream:")
	viper.SetDefault("redis.key_prefix", "cakemap:settings:")
	viper.SetDefault("redis.publish_events", true)

	viper.SetDefault("bookmarks.driver", "badger")
	viper.SetDefault("bookmarks.badger_dir", "./data/bookmarks")

	viper.SetDefault("settings.driver", "redis")

	viper.SetDefault("feed.prefetch_threshold", 4)

	viper.SetDefault("log.level", "info")
}
