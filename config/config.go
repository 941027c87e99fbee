package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// ServerConfig holds all configuration for the Plutus session service.
type ServerConfig struct {
	HTTPPort    string `mapstructure:"HTTP_PORT"`
	MongoURI    string `mapstructure:"MONGO_URI"`
	MongoDBName string `mapstructure:"MONGO_DB_NAME"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogPretty bool   `mapstructure:"LOG_PRETTY"`

	OtelServiceName string `mapstructure:"OTEL_SERVICE_NAME"`

	// HeartbeatIntervalMin controls how often active sessions are touched.
	HeartbeatIntervalMin int `mapstructure:"HEARTBEAT_INTERVAL_MIN"`
	// SessionCacheTTLSec bounds staleness of the redis session cache.
	SessionCacheTTLSec int `mapstructure:"SESSION_CACHE_TTL_SEC"`
	// ProfileCacheTTLSec bounds staleness of the in-process profile cache.
	ProfileCacheTTLSec int `mapstructure:"PROFILE_CACHE_TTL_SEC"`

	// PointerPath is where the local session pointer file lives. Empty
	// means the default under the user config directory.
	PointerPath string `mapstructure:"POINTER_PATH"`

	// BootstrapEmail/BootstrapPassword seed one account in the local
	// identity provider at startup so a fresh deployment can sign in.
	BootstrapEmail    string `mapstructure:"BOOTSTRAP_EMAIL"`
	BootstrapPassword string `mapstructure:"BOOTSTRAP_PASSWORD"`
	BootstrapName     string `mapstructure:"BOOTSTRAP_NAME"`
}

// LoadConfig reads configuration from file, environment variables, and
// defaults, in that order of increasing precedence for env vars.
func LoadConfig() (*ServerConfig, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/plutus/")
	v.AddConfigPath("$HOME/.plutus")
	v.AddConfigPath(".")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("HTTP_PORT", "8080")
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017/plutus_dev")
	v.SetDefault("MONGO_DB_NAME", "plutus_dev")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_PRETTY", true)
	v.SetDefault("OTEL_SERVICE_NAME", "plutus-session-service")
	v.SetDefault("HEARTBEAT_INTERVAL_MIN", 5)
	v.SetDefault("SESSION_CACHE_TTL_SEC", 60)
	v.SetDefault("PROFILE_CACHE_TTL_SEC", 300)
	v.SetDefault("POINTER_PATH", "")
	v.SetDefault("BOOTSTRAP_EMAIL", "")
	v.SetDefault("BOOTSTRAP_PASSWORD", "")
	v.SetDefault("BOOTSTRAP_NAME", "")

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine, defaults and env vars apply.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg ServerConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	return &cfg, nil
}
