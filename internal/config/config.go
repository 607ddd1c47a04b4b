package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	Scheduling SchedulingConfig
	Outbox     OutboxConfig
	Seed       SeedConfig
}

type ServerConfig struct {
	Port           int `mapstructure:"port" default:"8080"`
	TimeoutSeconds int `mapstructure:"timeoutSeconds" split_words:"true" default:"30"`
	RateLimitRPS   int `mapstructure:"rate_limit_rps" split_words:"true" default:"50"`
	RateLimitBurst int `mapstructure:"rate_limit_burst" split_words:"true" default:"100"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host" default:"localhost"`
	Port     int    `mapstructure:"port" default:"5432"`
	User     string `mapstructure:"user" default:"postgres"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name" default:"polyclinic"`
	SSLMode  string `mapstructure:"sslmode" default:"disable"`
}

type RedisConfig struct {
	URL string `mapstructure:"url" default:"redis://localhost:6379/0"`
}

type JWTConfig struct {
	Secret      string `mapstructure:"secret"`
	ExpiryHours int    `mapstructure:"expiry_hours" split_words:"true" default:"24"`
}

type SchedulingConfig struct {
	// SlotMinutes is the registry-wide slot duration.
	SlotMinutes int `mapstructure:"slot_minutes" split_words:"true" default:"30"`
}

type OutboxConfig struct {
	BatchSize           int `mapstructure:"batch_size" split_words:"true" default:"50"`
	PollIntervalSeconds int `mapstructure:"poll_interval_seconds" split_words:"true" default:"5"`
}

type SeedConfig struct {
	DirectorUsername string `mapstructure:"director_username" split_words:"true" default:"director"`
	DirectorPassword string `mapstructure:"director_password" split_words:"true"`
}

// LoadConfig reads config.yaml, falling back to environment variables
// (POLYCLINIC_*) when no file is present.
func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return loadFromEnv()
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func loadFromEnv() (*Config, error) {
	var config Config
	if err := envconfig.Process("polyclinic", &config); err != nil {
		return nil, fmt.Errorf("failed to load config from environment: %w", err)
	}
	return &config, nil
}

func (c *Config) ServerTimeout() time.Duration {
	return time.Duration(c.Server.TimeoutSeconds) * time.Second
}

func (c *Config) JWTExpiry() time.Duration {
	return time.Duration(c.JWT.ExpiryHours) * time.Hour
}

func (c *Config) OutboxPollInterval() time.Duration {
	return time.Duration(c.Outbox.PollIntervalSeconds) * time.Second
}
