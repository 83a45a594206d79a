// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes application settings
// such as Discord credentials, channel wiring, the required role, cooldowns,
// the refresh interval, database path, logging, and observability.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// Config holds all configuration values for the application.
type Config struct {
	// Discord
	Token                string // bot token
	GuildID              string // guild the bot serves
	CommandsChannelID    string // channel where guild commands are allowed
	LeaderboardChannelID string // channel the leaderboard is published to
	LogChannelID         string // optional channel mirroring warnings

	// Referral policy
	RequiredRoleName string        // role both parties must hold
	ExcludedInviters []string      // inviter ids hidden from the leaderboard
	CommandCooldown  time.Duration // per-user window for self-service commands
	RefreshInterval  time.Duration // scheduled leaderboard refresh period

	// App
	DBPath    string // SQLite path
	LogLevel  string // debug|info|warn|error|fatal|panic
	LogPretty bool   // pretty console logs in dev

	// Ops HTTP server
	Port           string   // just the number
	AllowedOrigins []string // CORS_ALLOWED_ORIGINS

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from the environment (after best-effort .env
// loading), applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Token:                getenv("DISCORD_TOKEN", ""),
		GuildID:              getenv("GUILD_ID", ""),
		CommandsChannelID:    getenv("COMMANDS_CHANNEL_ID", ""),
		LeaderboardChannelID: getenv("LEADERBOARD_CHANNEL_ID", ""),
		LogChannelID:         getenv("LOG_CHANNEL_ID", ""),

		RequiredRoleName: getenv("REQUIRED_ROLE_NAME", "resident"),
		ExcludedInviters: splitCSV(getenv("LEADERBOARD_EXCLUDE_IDS", "")),
		CommandCooldown:  getdur("COMMAND_COOLDOWN", 900*time.Second),
		RefreshInterval:  getdur("REFRESH_INTERVAL", 24*time.Hour),

		DBPath:    getenv("DB_PATH", "referrals.db"),
		LogLevel:  strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty: getbool("LOG_PRETTY", false),

		Port:           getenv("PORT", "8080"),
		AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),

		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "referral-tracker"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}

	// --- validation ---
	if strings.TrimSpace(cfg.Token) == "" {
		return cfg, errors.New("DISCORD_TOKEN must be set")
	}
	if strings.TrimSpace(cfg.GuildID) == "" {
		return cfg, errors.New("GUILD_ID must be set")
	}
	if strings.TrimSpace(cfg.LeaderboardChannelID) == "" {
		return cfg, errors.New("LEADERBOARD_CHANNEL_ID must be set")
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.RequiredRoleName) == "" {
		return cfg, errors.New("REQUIRED_ROLE_NAME must not be empty")
	}
	if cfg.CommandCooldown < 0 {
		return cfg, errors.New("COMMAND_COOLDOWN must be >= 0")
	}
	if cfg.RefreshInterval <= 0 {
		return cfg, errors.New("REFRESH_INTERVAL must be a positive duration")
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		return cfg, errors.New("DB_PATH must not be empty")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// ---- helpers (no external deps) ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}
