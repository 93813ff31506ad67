package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Client contains consolectl configuration parameters.
type Client struct {
	URL        string        `env:"CONSOLE_URL" envDefault:"http://localhost:8080"`
	RefreshURL string        `env:"CONSOLE_REFRESH_URL"`
	TokenFile  string        `env:"CONSOLE_TOKEN_FILE"`
	Timeout    time.Duration `env:"CONSOLE_TIMEOUT" envDefault:"60s"`
	LogLevel   int           `env:"CONSOLE_LOG_LEVEL" envDefault:"4"`
}

// NewClientConfig loads consolectl configuration. The refresh URL defaults to
// the console's /auth/refresh and the token file to the user config dir.
func NewClientConfig(dotenv ...string) (*Client, error) {
	if err := loadDotenv(dotenv...); err != nil {
		return nil, err
	}

	cfg := Client{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.URL = strings.TrimRight(cfg.URL, "/")
	if cfg.RefreshURL == "" {
		cfg.RefreshURL = cfg.URL + "/auth/refresh"
	}
	if cfg.TokenFile == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve token file location: %w", err)
		}
		cfg.TokenFile = filepath.Join(dir, "agentconsole", "tokens.json")
	}

	return &cfg, nil
}
