package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	// Set required env vars for all subtests
	cleanup := setEnvs(t, map[string]string{
		"TELEGRAM_TOKEN": "tg-token",
		"SONIOX_TOKEN":   "sx-token",
	})
	defer cleanup()

	t.Run("defaults", func(t *testing.T) {
		cfg, err := Load(Overrides{EnvFile: "nonexistent.env"})
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if cfg.HTTPAddr != ":8080" {
			t.Errorf("HTTPAddr = %q, want :8080", cfg.HTTPAddr)
		}
		if cfg.LogLevel != "info" {
			t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
		}
		if cfg.Soniox.BaseURL != "https://api.soniox.com" {
			t.Errorf("Soniox.BaseURL = %q", cfg.Soniox.BaseURL)
		}
		if cfg.Soniox.Model != "stt-async-preview" {
			t.Errorf("Soniox.Model = %q", cfg.Soniox.Model)
		}
		if len(cfg.Soniox.LanguageHints) != 4 || cfg.Soniox.LanguageHints[0] != "ru" {
			t.Errorf("Soniox.LanguageHints = %v", cfg.Soniox.LanguageHints)
		}
		if cfg.Soniox.PollMaxAttempts != 24 {
			t.Errorf("PollMaxAttempts = %d, want 24", cfg.Soniox.PollMaxAttempts)
		}
		if cfg.Soniox.PollDelay != 500*time.Millisecond {
			t.Errorf("PollDelay = %v, want 500ms", cfg.Soniox.PollDelay)
		}
		if len(cfg.AllowList) != 0 {
			t.Errorf("AllowList = %v, want empty", cfg.AllowList)
		}
	})

	t.Run("env_vars_read", func(t *testing.T) {
		cfg, err := Load(Overrides{EnvFile: "nonexistent.env"})
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if cfg.TelegramToken != "tg-token" {
			t.Errorf("TelegramToken = %q", cfg.TelegramToken)
		}
		if cfg.Soniox.Token != "sx-token" {
			t.Errorf("Soniox.Token = %q", cfg.Soniox.Token)
		}
	})

	t.Run("allow_list_parsed", func(t *testing.T) {
		c := setEnvs(t, map[string]string{"ALLOW_LIST": "alice,bob"})
		defer c()

		cfg, err := Load(Overrides{EnvFile: "nonexistent.env"})
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if len(cfg.AllowList) != 2 || cfg.AllowList[0] != "alice" || cfg.AllowList[1] != "bob" {
			t.Errorf("AllowList = %v", cfg.AllowList)
		}
	})

	t.Run("cli_overrides_take_priority", func(t *testing.T) {
		cfg, err := Load(Overrides{
			EnvFile:  "nonexistent.env",
			HTTPAddr: ":9090",
			LogLevel: "debug",
		})
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if cfg.HTTPAddr != ":9090" {
			t.Errorf("HTTPAddr = %q, want :9090", cfg.HTTPAddr)
		}
		if cfg.LogLevel != "debug" {
			t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
		}
	})
}

func TestLoadMissingRequired(t *testing.T) {
	cleanup := setEnvs(t, map[string]string{
		"TELEGRAM_TOKEN": "",
		"SONIOX_TOKEN":   "",
	})
	defer cleanup()
	os.Unsetenv("TELEGRAM_TOKEN")
	os.Unsetenv("SONIOX_TOKEN")

	_, err := Load(Overrides{EnvFile: "nonexistent.env"})
	if err == nil {
		t.Error("expected error when required env vars are missing")
	}
}

func TestLoadSoniox(t *testing.T) {
	cleanup := setEnvs(t, map[string]string{"SONIOX_TOKEN": "sx-token"})
	defer cleanup()
	// The CLI config must not require the Telegram token.
	os.Unsetenv("TELEGRAM_TOKEN")

	cfg, err := LoadSoniox("nonexistent.env")
	if err != nil {
		t.Fatalf("LoadSoniox: %v", err)
	}
	if cfg.Token != "sx-token" {
		t.Errorf("Token = %q", cfg.Token)
	}
	if cfg.Model != "stt-async-preview" {
		t.Errorf("Model = %q", cfg.Model)
	}
}

// setEnvs sets environment variables and returns a cleanup function.
func setEnvs(t *testing.T, envs map[string]string) func() {
	t.Helper()
	originals := make(map[string]string)
	unset := make([]string, 0)

	for k, v := range envs {
		if orig, ok := os.LookupEnv(k); ok {
			originals[k] = orig
		} else {
			unset = append(unset, k)
		}
		os.Setenv(k, v)
	}

	return func() {
		for k, v := range originals {
			os.Setenv(k, v)
		}
		for _, k := range unset {
			os.Unsetenv(k)
		}
	}
}
