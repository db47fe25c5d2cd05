package config

import (
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Soniox holds the configuration for the Soniox STT API client and the
// transcription workflow. It is split out from Config so the transcribe CLI
// can load it without requiring the Telegram settings.
type Soniox struct {
	Token          string        `env:"SONIOX_TOKEN,required"`
	BaseURL        string        `env:"SONIOX_URL" envDefault:"https://api.soniox.com"`
	Model          string        `env:"SONIOX_MODEL" envDefault:"stt-async-preview"`
	LanguageHints  []string      `env:"SONIOX_LANGUAGE_HINTS" envDefault:"ru,uk,es,en"`
	RequestTimeout time.Duration `env:"SONIOX_REQUEST_TIMEOUT" envDefault:"30s"`

	// Completion poll bounds. Effective maximum wait is PollMaxAttempts × PollDelay.
	PollMaxAttempts int           `env:"POLL_MAX_ATTEMPTS" envDefault:"24"`
	PollDelay       time.Duration `env:"POLL_DELAY" envDefault:"500ms"`

	// Cleanup deletions run under their own deadline so they can't hang shutdown.
	CleanupTimeout time.Duration `env:"CLEANUP_TIMEOUT" envDefault:"5s"`
}

type Config struct {
	Soniox Soniox

	TelegramToken string `env:"TELEGRAM_TOKEN,required"`
	TelegramURL   string `env:"TELEGRAM_URL" envDefault:"https://api.telegram.org"`

	// Usernames allowed to use the bot. Empty list allows everyone.
	AllowList []string `env:"ALLOW_LIST"`

	// Telegram's X-Telegram-Bot-Api-Secret-Token value. Empty disables the check.
	WebhookSecret string `env:"WEBHOOK_SECRET"`

	HTTPAddr     string        `env:"HTTP_ADDR" envDefault:":8080"`
	ReadTimeout  time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"60s"`
	IdleTimeout  time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"120s"`

	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS" envDefault:"5"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST" envDefault:"10"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// Overrides holds CLI flag values that take priority over env vars.
type Overrides struct {
	EnvFile  string
	HTTPAddr string
	LogLevel string
}

// Load reads configuration from .env file, environment variables, and CLI overrides.
// Priority: CLI flags > environment variables > .env file > struct defaults.
func Load(overrides Overrides) (*Config, error) {
	loadEnvFile(overrides.EnvFile)

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	if overrides.HTTPAddr != "" {
		cfg.HTTPAddr = overrides.HTTPAddr
	}
	if overrides.LogLevel != "" {
		cfg.LogLevel = overrides.LogLevel
	}

	return cfg, nil
}

// LoadSoniox reads only the Soniox workflow configuration. Used by the
// transcribe CLI, which has no Telegram side.
func LoadSoniox(envFile string) (*Soniox, error) {
	loadEnvFile(envFile)

	cfg := &Soniox{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadEnvFile(envFile string) {
	if envFile == "" {
		envFile = ".env"
	}
	if _, err := os.Stat(envFile); err == nil {
		_ = godotenv.Load(envFile)
	}
}
