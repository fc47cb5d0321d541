package config

import "time"

// Config holds runtime configuration for the session bot.
type Config struct {
	AppEnv string `mapstructure:"-"`

	Log       LogConfig       `mapstructure:"log"`
	Bot       BotConfig       `mapstructure:"bot" validate:"required"`
	Server    ServerConfig    `mapstructure:"server"`
	Service   ServiceConfig   `mapstructure:"service" validate:"required"`
	Flow      FlowConfig      `mapstructure:"flow"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Sentry    SentryConfig    `mapstructure:"sentry"`
}

// LogConfig controls slog output.
type LogConfig struct {
	Level         string `mapstructure:"level" validate:"omitempty,oneof=debug info warn error"`
	File          string `mapstructure:"file"`
	FileMaxSizeMB int    `mapstructure:"file_max_size_mb"`
	FileMaxAge    int    `mapstructure:"file_max_age"`
}

// BotConfig controls the Telegram connection.
type BotConfig struct {
	Token      string        `mapstructure:"token" validate:"required"`
	Mode       string        `mapstructure:"mode" validate:"omitempty,oneof=polling webhook"`
	Timeout    time.Duration `mapstructure:"timeout"`
	WebhookURL string        `mapstructure:"webhook_url" validate:"required_if=Mode webhook,omitempty,url"`
	Listen     string        `mapstructure:"listen"`
}

// ServerConfig controls the ops HTTP server (metrics, health).
type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// ServiceConfig points at the external session-creation service.
type ServiceConfig struct {
	BaseURL string        `mapstructure:"base_url" validate:"required,url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// FlowConfig controls the conversation flow lifecycle.
type FlowConfig struct {
	StepTimeout time.Duration `mapstructure:"step_timeout"`
	Shards      int           `mapstructure:"shards"`
	QueueSize   int           `mapstructure:"queue_size"`
}

// RateLimitRule describes a single sliding-window rule.
type RateLimitRule struct {
	Limit  int    `mapstructure:"limit"`
	Window string `mapstructure:"window"`
}

// RateLimitConfig controls per-user update throttling.
type RateLimitConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	PerUser   RateLimitRule `mapstructure:"per_user"`
	Whitelist []int64       `mapstructure:"whitelist"`
}

// RedisConfig controls the optional Redis connection used by rate limiting
// and idempotency. Conversation state itself never touches Redis.
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr" validate:"required_if=Enabled true"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// SentryConfig controls error reporting.
type SentryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	DSN     string `mapstructure:"dsn" validate:"required_if=Enabled true"`
}

func (c *Config) applyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.FileMaxSizeMB == 0 {
		c.Log.FileMaxSizeMB = 50
	}
	if c.Bot.Mode == "" {
		c.Bot.Mode = "polling"
	}
	if c.Bot.Timeout == 0 {
		c.Bot.Timeout = 10 * time.Second
	}
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Service.Timeout == 0 {
		c.Service.Timeout = 30 * time.Second
	}
	if c.Flow.StepTimeout == 0 {
		c.Flow.StepTimeout = 15 * time.Minute
	}
	if c.Flow.Shards == 0 {
		c.Flow.Shards = 16
	}
	if c.Flow.QueueSize == 0 {
		c.Flow.QueueSize = 64
	}
	if c.RateLimit.PerUser.Limit == 0 {
		c.RateLimit.PerUser.Limit = 100
	}
	if c.RateLimit.PerUser.Window == "" {
		c.RateLimit.PerUser.Window = "15m"
	}
}
