package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config captures runtime configuration values used by the backend service.
type Config struct {
	// ServerAddress is the host:port pair the HTTP server listens on. Defaults to ":18210".
	ServerAddress string

	// DatabaseURL is the Postgres DSN used by database/sql. Required.
	DatabaseURL string

	// WhatsAppAPIURL is the base URL of the WhatsApp gateway. When empty,
	// the dispatcher is not started and no receipt jobs are enqueued.
	WhatsAppAPIURL string

	// WhatsAppAPIToken authenticates against the WhatsApp gateway.
	WhatsAppAPIToken string

	// SessionTTL is how long an issued login session stays valid. Defaults to 12h.
	SessionTTL time.Duration
}

const (
	defaultServerAddress   = ":18210"
	defaultSessionTTLHours = 12
	envServerAddress       = "BACKEND_ADDR"
	envDatabaseURL         = "DATABASE_URL"
	envWhatsAppAPIURL      = "WHATSAPP_API_URL"
	envWhatsAppAPIToken    = "WHATSAPP_API_TOKEN"
	envSessionTTLHours     = "SESSION_TTL_HOURS"
)

// Load reads configuration from environment variables, applies defaults, and returns
// a Config structure. Required values return an error when missing.
func Load() (Config, error) {
	cfg := Config{
		ServerAddress:    firstNonEmpty(os.Getenv(envServerAddress), defaultServerAddress),
		DatabaseURL:      os.Getenv(envDatabaseURL),
		WhatsAppAPIURL:   os.Getenv(envWhatsAppAPIURL),
		WhatsAppAPIToken: os.Getenv(envWhatsAppAPIToken),
		SessionTTL:       defaultSessionTTLHours * time.Hour,
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("%s is required", envDatabaseURL)
	}

	if cfg.WhatsAppAPIURL != "" && cfg.WhatsAppAPIToken == "" {
		return Config{}, fmt.Errorf("%s is required when %s is set", envWhatsAppAPIToken, envWhatsAppAPIURL)
	}

	if raw := os.Getenv(envSessionTTLHours); raw != "" {
		hours, err := strconv.Atoi(raw)
		if err != nil || hours <= 0 {
			return Config{}, fmt.Errorf("invalid %s: %q", envSessionTTLHours, raw)
		}
		cfg.SessionTTL = time.Duration(hours) * time.Hour
	}

	return cfg, nil
}

// NotificationsEnabled reports whether a WhatsApp gateway is configured.
func (c Config) NotificationsEnabled() bool {
	return c.WhatsAppAPIURL != ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
