package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// Config holds runtime configuration values for the blogforge server.
type Config struct {
	ServerPort      int
	LogLevel        string
	Environment     string
	SentryDSN       string
	AnthropicAPIKey string
	ClaudeModel     string
	UseCSVTrends    bool
	ShutdownGrace   time.Duration
}

const (
	defaultServerPort    = 8080
	defaultLogLevel      = "info"
	defaultEnvironment   = "development"
	defaultClaudeModel   = "claude-sonnet-4-20250514"
	defaultShutdownGrace = 10 * time.Second
)

// Load reads configuration values from environment variables, applying defaults where necessary.
func Load() (*Config, error) {
	cfg := &Config{
		LogLevel:        getEnv("LOG_LEVEL", defaultLogLevel),
		Environment:     getEnv("ENV", defaultEnvironment),
		SentryDSN:       os.Getenv("SENTRY_DSN"),
		AnthropicAPIKey: strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY")),
		ClaudeModel:     getEnv("CLAUDE_MODEL", defaultClaudeModel),
		ShutdownGrace:   defaultShutdownGrace,
	}

	portValue := getEnv("SERVER_PORT", strconv.Itoa(defaultServerPort))
	port, err := strconv.Atoi(portValue)
	if err != nil {
		return nil, eris.Wrapf(err, "invalid SERVER_PORT value: %s", portValue)
	}
	cfg.ServerPort = port

	cfg.UseCSVTrends = strings.EqualFold(os.Getenv("USE_CSV_TRENDS"), "true")

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}
