package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

type Config struct {
	Env         string `env:"ENV" envDefault:"local" validate:"required,oneof=local staging production"`
	Port        string `env:"PORT" envDefault:"8080" validate:"required"`
	MetricsPort string `env:"METRICS_PORT" envDefault:"9090"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`

	DatabaseURL string `env:"DATABASE_URL,required" validate:"required"`
	// RedisURL is optional: without it the rate limiter falls back to an
	// in-process counter, which is only acceptable for ENV=local.
	RedisURL string `env:"REDIS_URL" validate:"required_if=Env production,required_if=Env staging"`

	JWTSecret string `env:"JWT_SECRET,required" validate:"required,min=32"`

	OtpTTLSec        int `env:"OTP_TTL_SEC"         envDefault:"300" validate:"min=60,max=3600"`
	OtpLength        int `env:"OTP_LENGTH"          envDefault:"6"   validate:"min=4,max=8"`
	OtpRateLimit     int `env:"OTP_RATE_LIMIT"      envDefault:"5"   validate:"min=1,max=100"`
	OtpRateWindowSec int `env:"OTP_RATE_WINDOW_SEC" envDefault:"600" validate:"min=60"`

	SweepCron       string `env:"SWEEP_CRON"        envDefault:"*/5 * * * *"`
	OtpRetentionSec int    `env:"OTP_RETENTION_SEC" envDefault:"86400" validate:"min=300"`

	TwilioAccountSID string `env:"TWILIO_ACCOUNT_SID" validate:"required_if=Env production,required_if=Env staging"`
	TwilioAuthToken  string `env:"TWILIO_AUTH_TOKEN"  validate:"required_if=Env production,required_if=Env staging"`
	TwilioFrom       string `env:"TWILIO_FROM"        validate:"required_if=Env production,required_if=Env staging"`
	ResendAPIKey     string `env:"RESEND_API_KEY"     validate:"required_if=Env production,required_if=Env staging"`
	ResendFrom       string `env:"RESEND_FROM"        validate:"required_if=Env production,required_if=Env staging"`
}

func Load() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (c *Config) OtpTTL() time.Duration {
	return time.Duration(c.OtpTTLSec) * time.Second
}

func (c *Config) OtpRateWindow() time.Duration {
	return time.Duration(c.OtpRateWindowSec) * time.Second
}

func (c *Config) OtpRetention() time.Duration {
	return time.Duration(c.OtpRetentionSec) * time.Second
}
