package config

import (
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"github.com/weiawesome/wes-io-live/lobby-service/internal/generator"
	pkgconfig "github.com/weiawesome/wes-io-live/lobby-service/pkg/config"
	"github.com/weiawesome/wes-io-live/lobby-service/pkg/pubsub"
)

type Config struct {
	Server    ServerConfig
	WebSocket WebSocketConfig `mapstructure:"websocket"`
	SSE       SSEConfig       `mapstructure:"sse"`
	Hub       HubConfig
	Identity  IdentityConfig
	Lobby     LobbyConfig
	Message   MessageConfig
	Mirror    pubsub.Config
	Log       LogConfig

	v *viper.Viper
}

type ServerConfig struct {
	Host            string
	Port            int
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type WebSocketConfig struct {
	PingInterval   time.Duration `mapstructure:"ping_interval"`
	PongWait       time.Duration `mapstructure:"pong_wait"`
	WriteWait      time.Duration `mapstructure:"write_wait"`
	MaxMessageSize int64         `mapstructure:"max_message_size"`
}

type SSEConfig struct {
	KeepaliveInterval time.Duration `mapstructure:"keepalive_interval"`
}

type HubConfig struct {
	// BufferSize is the per-subscriber queue length. A subscriber whose
	// queue is full is dropped.
	BufferSize        int  `mapstructure:"buffer_size"`
	AllowUnknownRooms bool `mapstructure:"allow_unknown_rooms"`
}

type IdentityConfig struct {
	IDFormat string `mapstructure:"id_format"`
}

type LobbyConfig struct {
	CodeFormat   string `mapstructure:"code_format"`
	CodeLength   int    `mapstructure:"code_length"`
	CodeAlphabet string `mapstructure:"code_alphabet"`
	CodeAttempts int    `mapstructure:"code_attempts"`
}

type MessageConfig struct {
	MachineID        int64 `mapstructure:"machine_id"`
	Epoch            int64
	MaxContentLength int `mapstructure:"max_content_length"`
}

type LogConfig struct {
	Level  string
	Pretty bool
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func Load() (*Config, error) {
	return LoadFrom("./config")
}

// LoadFrom reads config.yaml from dir, falling back to defaults and env.
func LoadFrom(dir string) (*Config, error) {
	v, err := pkgconfig.Load(dir, "config")
	if err != nil {
		return nil, err
	}

	mirror := pubsub.DefaultConfig()

	// Set defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("websocket.ping_interval", "30s")
	v.SetDefault("websocket.pong_wait", "60s")
	v.SetDefault("websocket.write_wait", "10s")
	v.SetDefault("websocket.max_message_size", 4096)
	v.SetDefault("sse.keepalive_interval", "15s")
	v.SetDefault("hub.buffer_size", 256)
	v.SetDefault("hub.allow_unknown_rooms", true)
	v.SetDefault("identity.id_format", generator.FormatUUID)
	v.SetDefault("lobby.code_format", generator.FormatNanoID)
	v.SetDefault("lobby.code_length", generator.DefaultCodeLength)
	v.SetDefault("lobby.code_alphabet", generator.DefaultCodeAlphabet)
	v.SetDefault("lobby.code_attempts", 16)
	v.SetDefault("message.machine_id", 1)
	v.SetDefault("message.epoch", generator.DefaultEpoch)
	v.SetDefault("message.max_content_length", 2000)
	v.SetDefault("mirror.driver", mirror.Driver)
	v.SetDefault("mirror.prefix", mirror.Prefix)
	v.SetDefault("mirror.redis.address", mirror.Redis.Address)
	v.SetDefault("mirror.redis.password", "")
	v.SetDefault("mirror.redis.db", 0)
	v.SetDefault("mirror.redis.pool_size", mirror.Redis.PoolSize)
	v.SetDefault("mirror.redis.read_timeout", mirror.Redis.ReadTimeout.String())
	v.SetDefault("mirror.redis.write_timeout", mirror.Redis.WriteTimeout.String())
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	// Override from environment
	if err := pkgconfig.BindEnvs(v, map[string]string{
		"server.port":           "PORT",
		"hub.buffer_size":       "HUB_BUFFER_SIZE",
		"identity.id_format":    "USER_ID_FORMAT",
		"lobby.code_format":     "LOBBY_CODE_FORMAT",
		"message.machine_id":    "MACHINE_ID",
		"mirror.driver":         "MIRROR_DRIVER",
		"mirror.redis.address":  "REDIS_ADDRESS",
		"mirror.redis.password": "REDIS_PASSWORD",
		"log.level":             "LOG_LEVEL",
	}); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Parse durations
	cfg.Server.ShutdownTimeout = pkgconfig.Duration(v, "server.shutdown_timeout", 10*time.Second)
	cfg.WebSocket.PingInterval = pkgconfig.Duration(v, "websocket.ping_interval", 30*time.Second)
	cfg.WebSocket.PongWait = pkgconfig.Duration(v, "websocket.pong_wait", 60*time.Second)
	cfg.WebSocket.WriteWait = pkgconfig.Duration(v, "websocket.write_wait", 10*time.Second)
	cfg.SSE.KeepaliveInterval = pkgconfig.Duration(v, "sse.keepalive_interval", 15*time.Second)
	cfg.Mirror.Redis.ReadTimeout = pkgconfig.Duration(v, "mirror.redis.read_timeout", mirror.Redis.ReadTimeout)
	cfg.Mirror.Redis.WriteTimeout = pkgconfig.Duration(v, "mirror.redis.write_timeout", mirror.Redis.WriteTimeout)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.v = v
	return &cfg, nil
}

// WatchLogLevel calls fn with log.level each time the config file is
// rewritten. It reports false when no config file was loaded.
func (c *Config) WatchLogLevel(fn func(level string)) bool {
	if c.v == nil || c.v.ConfigFileUsed() == "" {
		return false
	}
	c.v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		fn(c.v.GetString("log.level"))
	})
	c.v.WatchConfig()
	return true
}

func (c *Config) validate() error {
	if c.Hub.BufferSize < 1 {
		return fmt.Errorf("hub.buffer_size must be positive, got %d", c.Hub.BufferSize)
	}
	if c.Lobby.CodeAttempts < 1 {
		return fmt.Errorf("lobby.code_attempts must be positive, got %d", c.Lobby.CodeAttempts)
	}
	if c.Message.MaxContentLength < 1 {
		return fmt.Errorf("message.max_content_length must be positive, got %d", c.Message.MaxContentLength)
	}
	if c.WebSocket.PingInterval >= c.WebSocket.PongWait {
		return fmt.Errorf("websocket.ping_interval (%s) must be shorter than pong_wait (%s)",
			c.WebSocket.PingInterval, c.WebSocket.PongWait)
	}
	return nil
}
