package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.API.BaseURL != "http://localhost:8080/api" {
			t.Errorf("expected base URL http://localhost:8080/api, got %s", config.API.BaseURL)
		}
		if config.API.AuthPath != "/auth" {
			t.Errorf("expected auth path /auth, got %s", config.API.AuthPath)
		}
		if got := config.API.RequestTimeout(); got != 10*time.Second {
			t.Errorf("expected 10s request timeout, got %v", got)
		}
		if got := config.Analysis.StreamTimeout(); got != 5*time.Minute {
			t.Errorf("expected 5m stream timeout, got %v", got)
		}
		if config.Database.Path != "./markx.db" {
			t.Errorf("expected database path ./markx.db, got %s", config.Database.Path)
		}
		if config.Server.CallbackAddr() != "127.0.0.1:3000" {
			t.Errorf("expected callback addr 127.0.0.1:3000, got %s", config.Server.CallbackAddr())
		}
	})

	t.Run("Zero Timeouts Fall Back", func(t *testing.T) {
		if got := (APIConfig{}).RequestTimeout(); got != 10*time.Second {
			t.Errorf("got %v", got)
		}
		if got := (AnalysisConfig{}).StreamTimeout(); got != 5*time.Minute {
			t.Errorf("got %v", got)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		if config.Database.Path != DefaultConfig().Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig Keeps Defaults For Missing Keys", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		testConfig := `[api]
base_url = "https://bookmarks.example.com/api"
timeout = 30

[analysis]
workers = 8
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatal(err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.API.BaseURL != "https://bookmarks.example.com/api" {
			t.Errorf("got base URL %s", config.API.BaseURL)
		}
		if config.API.RequestTimeout() != 30*time.Second {
			t.Errorf("got timeout %v", config.API.RequestTimeout())
		}
		if config.Analysis.Workers != 8 {
			t.Errorf("got workers %d", config.Analysis.Workers)
		}
		if config.Auth.Profile != "default" {
			t.Errorf("expected default profile to survive, got %q", config.Auth.Profile)
		}
	})

	t.Run("LoadConfig Invalid TOML", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(configPath, []byte("[api\nbase_url ="), 0644); err != nil {
			t.Fatal(err)
		}

		if _, err := LoadConfig(configPath); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("LoadConfig Missing File", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("SaveConfig Round Trip", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		config := DefaultConfig()
		config.Auth.Profile = "work"
		config.API.OpenBrowser = true

		if err := SaveConfig(configPath, config); err != nil {
			t.Fatalf("SaveConfig() error = %v", err)
		}

		loaded, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("LoadConfig() error = %v", err)
		}
		if loaded.Auth.Profile != "work" || !loaded.API.OpenBrowser {
			t.Errorf("saved values not preserved: %+v", loaded.API)
		}
	})
}

func TestApplyEnv(t *testing.T) {
	t.Run("Process Variables", func(t *testing.T) {
		t.Setenv("MARKX_API_BASE_URL", "https://env.example.com/api")
		t.Setenv("MARKX_API_TIMEOUT", "3")
		t.Setenv("MARKX_AUTH_PROFILE", "ci")

		config := DefaultConfig()
		if err := ApplyEnv(config, filepath.Join(t.TempDir(), "missing.env")); err != nil {
			t.Fatalf("ApplyEnv() error = %v", err)
		}

		if config.API.BaseURL != "https://env.example.com/api" {
			t.Errorf("got base URL %s", config.API.BaseURL)
		}
		if config.API.Timeout != 3 {
			t.Errorf("got timeout %d", config.API.Timeout)
		}
		if config.Auth.Profile != "ci" {
			t.Errorf("got profile %s", config.Auth.Profile)
		}
	})

	t.Run("Dotenv File", func(t *testing.T) {
		envPath := filepath.Join(t.TempDir(), ".env")
		if err := os.WriteFile(envPath, []byte("MARKX_DATABASE_PATH=/tmp/from-dotenv.db\n"), 0644); err != nil {
			t.Fatal(err)
		}
		t.Setenv("MARKX_DATABASE_PATH", "")
		os.Unsetenv("MARKX_DATABASE_PATH")

		config := DefaultConfig()
		if err := ApplyEnv(config, envPath); err != nil {
			t.Fatalf("ApplyEnv() error = %v", err)
		}
		if config.Database.Path != "/tmp/from-dotenv.db" {
			t.Errorf("got database path %s", config.Database.Path)
		}
	})

	t.Run("Invalid Integer", func(t *testing.T) {
		t.Setenv("MARKX_ANALYSIS_TIMEOUT", "soon")

		if err := ApplyEnv(DefaultConfig(), filepath.Join(t.TempDir(), "missing.env")); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})
}
