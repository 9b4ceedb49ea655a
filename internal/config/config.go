package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config carries everything the server reads from the environment.
type Config struct {
	Port        string
	DatabaseURL string
	RedisURL    string
	JWTSecret   string

	// Lobby disconnect grace period before a player is excluded.
	DisconnectGrace time.Duration
	// Polling interval of the lifecycle sweeper.
	SweepInterval time.Duration
}

const (
	defaultPort            = "8080"
	defaultDisconnectGrace = 30 * time.Second
	defaultSweepInterval   = time.Second
)

// Load reads the configuration from the environment. Missing required
// variables are a server-side fault and abort startup.
func Load() (*Config, error) {
	cfg := &Config{
		Port:            defaultPort,
		DisconnectGrace: defaultDisconnectGrace,
		SweepInterval:   defaultSweepInterval,
	}

	if v := strings.TrimSpace(os.Getenv("PORT")); v != "" {
		cfg.Port = v
	}

	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))
	cfg.JWTSecret = strings.TrimSpace(os.Getenv("JWT_SECRET"))

	if v := strings.TrimSpace(os.Getenv("DISCONNECT_GRACE_SECONDS")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid DISCONNECT_GRACE_SECONDS %q", v)
		}
		cfg.DisconnectGrace = time.Duration(n) * time.Second
	}
	if v := strings.TrimSpace(os.Getenv("SWEEP_INTERVAL_MS")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid SWEEP_INTERVAL_MS %q", v)
		}
		cfg.SweepInterval = time.Duration(n) * time.Millisecond
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return cfg, nil
}
