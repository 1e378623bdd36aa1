package shared

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// envPrefix namespaces environment overrides, e.g. MARKX_API_BASE_URL.
const envPrefix = "MARKX_"

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	API      APIConfig      `toml:"api"`
	Analysis AnalysisConfig `toml:"analysis"`
	Auth     AuthConfig     `toml:"auth"`
	Database DatabaseConfig `toml:"database"`
	Server   ServerConfig   `toml:"server"`
	Log      LogConfig      `toml:"log"`
}

// APIConfig contains backend connection settings.
type APIConfig struct {
	BaseURL     string  `toml:"base_url"`
	WebURL      string  `toml:"web_url"`
	AuthPath    string  `toml:"auth_path"`
	OpenBrowser bool    `toml:"open_browser"`
	Timeout     int     `toml:"timeout"`
	RateLimit   float64 `toml:"rate_limit"`
}

// AnalysisConfig contains streaming analysis settings.
type AnalysisConfig struct {
	Timeout   int     `toml:"timeout"`
	Workers   int     `toml:"workers"`
	RateLimit float64 `toml:"rate_limit"`
}

// AuthConfig selects which stored credential is used.
type AuthConfig struct {
	Profile string `toml:"profile"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains the local OAuth callback server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level string `toml:"level"`
}

// RequestTimeout returns the API timeout as a [time.Duration].
func (c APIConfig) RequestTimeout() time.Duration {
	if c.Timeout <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.Timeout) * time.Second
}

// StreamTimeout returns the analysis timeout as a [time.Duration].
func (c AnalysisConfig) StreamTimeout() time.Duration {
	if c.Timeout <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.Timeout) * time.Second
}

// CallbackAddr returns the host:port the OAuth callback server listens on.
func (c ServerConfig) CallbackAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// SaveConfig encodes config as TOML and writes it to path.
func SaveConfig(path string, config *Config) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// ApplyEnv loads dotenv files (missing files are ignored) and overlays MARKX_* variables onto config.
//
// Existing process variables win over dotenv values.
func ApplyEnv(config *Config, files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}

	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: failed to load %s: %v", ErrInvalidConfig, f, err)
		}
	}

	setString := func(key string, dst *string) {
		if v, ok := os.LookupEnv(envPrefix + key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	setInt := func(key string, dst *int) error {
		v, ok := os.LookupEnv(envPrefix + key)
		if !ok || strings.TrimSpace(v) == "" {
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%w: %s%s must be an integer", ErrInvalidConfig, envPrefix, key)
		}
		*dst = n
		return nil
	}

	setString("API_BASE_URL", &config.API.BaseURL)
	setString("API_WEB_URL", &config.API.WebURL)
	setString("AUTH_PROFILE", &config.Auth.Profile)
	setString("DATABASE_PATH", &config.Database.Path)
	setString("LOG_LEVEL", &config.Log.Level)

	if err := setInt("API_TIMEOUT", &config.API.Timeout); err != nil {
		return err
	}
	if err := setInt("ANALYSIS_TIMEOUT", &config.Analysis.Timeout); err != nil {
		return err
	}
	return nil
}
