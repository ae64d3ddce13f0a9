package pubsub

import (
	"fmt"
	"time"
)

// Config holds the configuration for the event mirror.
type Config struct {
	Driver string      `mapstructure:"driver"` // "none", "redis"
	Prefix string      `mapstructure:"prefix"`
	Redis  RedisConfig `mapstructure:"redis"`
}

// RedisConfig holds Redis-specific configuration.
type RedisConfig struct {
	Address      string        `mapstructure:"address"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DefaultConfig returns the default configuration: mirroring off.
func DefaultConfig() Config {
	return Config{
		Driver: "none",
		Prefix: "lobby",
		Redis: RedisConfig{
			Address:      "localhost:6379",
			PoolSize:     10,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
	}
}

// NewPublisher creates a Publisher based on the configured driver.
func NewPublisher(cfg Config) (Publisher, error) {
	switch cfg.Driver {
	case "", "none":
		return NopPublisher{}, nil
	case "redis":
		return NewRedisPublisher(cfg.Redis)
	default:
		return nil, fmt.Errorf("unknown pubsub driver %q", cfg.Driver)
	}
}
