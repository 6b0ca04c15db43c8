package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var ErrSlackSecretMissing = errors.New("VETO_SLACK_SIGNING_SECRET is required with VETO_SLACK_TOKEN")

type Config struct {
	Addr     string `env:"VETO_ADDR" envDefault:":8080"`
	LogLevel string `env:"VETO_LOG_LEVEL" envDefault:"info"`
	LogDev   bool   `env:"VETO_LOG_DEV"`

	// TurnTimeout <= 0 disables auto-resolution of idle turns.
	TurnTimeout       time.Duration `env:"VETO_TURN_TIMEOUT" envDefault:"60s"`
	Sides             []string      `env:"VETO_SIDES" envDefault:"Attack,Defense" envSeparator:","`
	ContinueHoldsTurn bool          `env:"VETO_CONTINUE_HOLDS_TURN"`

	// Empty keeps templates in memory.
	DatabaseDSN string `env:"VETO_DATABASE_DSN"`

	SlackToken         string `env:"VETO_SLACK_TOKEN"`
	SlackSigningSecret string `env:"VETO_SLACK_SIGNING_SECRET"`

	ShutdownTimeout time.Duration `env:"VETO_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

func (c Config) SlackEnabled() bool { return c.SlackToken != "" }

// Load reads the optional env files (default ".env") and then the process
// environment. Variables already set in the environment win.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.SlackEnabled() && cfg.SlackSigningSecret == "" {
		return Config{}, ErrSlackSecretMissing
	}
	return cfg, nil
}
