package app

import (
	"fmt"
	"time"

	"github.com/aussiebroadwan/campus/internal/campus/domain"
	"github.com/aussiebroadwan/campus/internal/campus/notify"
	"github.com/aussiebroadwan/campus/internal/campus/service"
	"github.com/caarlos0/env/v11"
)

type Config struct {
	Port                 int           `env:"PORT"                  envDefault:"8080"`      // HTTP server port
	Env                  string        `env:"ENV"                   envDefault:"dev"`       // dev, staging, prod
	LogLevel             string        `env:"LOG_LEVEL"             envDefault:"info"`      // debug, info, warn, error
	LogFormat            string        `env:"LOG_FORMAT"            envDefault:"json"`      // json, text
	ShutdownGracePeriod  time.Duration `env:"SHUTDOWN_GRACE_PERIOD" envDefault:"10s"`       // Graceful shutdown timeout
	HousekeepingInterval time.Duration `env:"HOUSEKEEPING_INTERVAL" envDefault:"1h"`        // Expired session and orphan image sweep
	SeedDemo             bool          `env:"SEED_DEMO"             envDefault:"false"`     // Seed the demo admin and events into an empty store
	TicketIssuer         string        `env:"TICKET_ISSUER"         envDefault:"campus"`    // iss claim of ticket tokens
	CapacityMode         string        `env:"CAPACITY_MODE"         envDefault:"soft"`      // soft, strict
	DatabaseDriver       string        `env:"DATABASE_DRIVER"       envDefault:"sqlite"`    // sqlite, postgres
	DatabaseFile         string        `env:"DATABASE_FILE"         envDefault:"campus.db"` // sqlite only
	DatabaseURL          string        `env:"DATABASE_URL"`                                 // postgres only
	RedisURL             string        `env:"REDIS_URL"`                                    // Optional: sessions live in redis when set
	PepperFile           string        `env:"PEPPER_FILE"           envDefault:"pepper"`    // Password hashing pepper
	MasterKeyPath        string        `env:"MASTER_KEY_PATH"`                              // Optional: master key for signing keys at rest
	CookieSecure         bool          `env:"COOKIE_SECURE"         envDefault:"false"`     // Secure flag on the session cookie
	SessionTTL           time.Duration `env:"SESSION_TTL"           envDefault:"168h"`      // Session lifetime

	SMTP SMTPConfig

	MailWorkers   int `env:"MAIL_WORKERS"    envDefault:"2"`
	MailQueueSize int `env:"MAIL_QUEUE_SIZE" envDefault:"100"`
}

type SMTPConfig struct {
	Host     string `env:"SMTP_HOST"`
	Port     int    `env:"SMTP_PORT"      envDefault:"587"`
	User     string `env:"SMTP_USER"`
	Pass     string `env:"SMTP_PASS"`
	From     string `env:"MAIL_FROM"`
	FromName string `env:"MAIL_FROM_NAME" envDefault:"College Events"`
}

func (c SMTPConfig) notify() notify.SMTPConfig {
	return notify.SMTPConfig{
		Host:     c.Host,
		Port:     c.Port,
		User:     c.User,
		Pass:     c.Pass,
		From:     c.From,
		FromName: c.FromName,
	}
}

// LoadConfig reads the environment and validates the enumerated settings.
func LoadConfig() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}

	switch cfg.DatabaseDriver {
	case "sqlite":
	case "postgres":
		if cfg.DatabaseURL == "" {
			return Config{}, fmt.Errorf("DATABASE_URL is required for the postgres driver")
		}
	default:
		return Config{}, fmt.Errorf("unknown DATABASE_DRIVER %q", cfg.DatabaseDriver)
	}

	if cfg.TicketIssuer == "" || domain.EncodedLen(cfg.TicketIssuer) > domain.MaxTicketIssuerLen {
		return Config{}, fmt.Errorf("TICKET_ISSUER must be 1 to %d characters", domain.MaxTicketIssuerLen)
	}

	if _, err := service.ParseCapacityMode(cfg.CapacityMode); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
