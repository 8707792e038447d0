package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"pathfinder/internal/drift"
)

// Config is the explicit configuration value constructed once at process
// start and passed by reference into the core. Business logic never reads the
// process environment directly.
type Config struct {
	Addr string `env:"PF_ADDR" envDefault:":8080"`

	// Push notification routing. PrimaryTopic is required; ParentTopic is
	// optional and falls back to PrimaryTopic when empty.
	PushBaseURL  string `env:"PF_PUSH_BASE_URL" envDefault:"https://ntfy.sh"`
	PrimaryTopic string `env:"PF_PRIMARY_TOPIC"`
	ParentTopic  string `env:"PF_PARENT_TOPIC"`

	// Drift thresholds, in whole days.
	InactivityReminderDays    uint `env:"PF_INACTIVITY_REMINDER_DAYS" envDefault:"3"`
	InactivityParentAlertDays uint `env:"PF_INACTIVITY_PARENT_ALERT_DAYS" envDefault:"7"`
	PlanReviewStalenessDays   uint `env:"PF_PLAN_REVIEW_STALENESS_DAYS" envDefault:"14"`

	// PipelineInterval drives the scheduler tick in cmd/server. The core
	// itself manages no timers.
	PipelineInterval time.Duration `env:"PF_PIPELINE_INTERVAL" envDefault:"24h"`

	JWTSigningKey string `env:"PF_JWT_SIGNING_KEY"`

	// Optional backing services. Empty means the in-memory fallback.
	PostgresURL string `env:"PF_POSTGRES_URL"`
	RedisURL    string `env:"PF_REDIS_URL"`

	LogJSON bool `env:"PF_LOG_JSON" envDefault:"false"`
}

// FromEnv parses and validates configuration. Validation failures here are
// fatal at startup, before the first pipeline invocation.
func FromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.PrimaryTopic == "" {
		return fmt.Errorf("PF_PRIMARY_TOPIC is required")
	}
	if c.JWTSigningKey == "" {
		return fmt.Errorf("PF_JWT_SIGNING_KEY is required")
	}
	if err := c.Thresholds().Validate(); err != nil {
		return err
	}
	if c.PipelineInterval <= 0 {
		return fmt.Errorf("PF_PIPELINE_INTERVAL must be positive")
	}
	return nil
}

func (c Config) Thresholds() drift.Thresholds {
	return drift.Thresholds{
		InactivityReminderDays:    c.InactivityReminderDays,
		InactivityParentAlertDays: c.InactivityParentAlertDays,
		PlanReviewStalenessDays:   c.PlanReviewStalenessDays,
	}
}
