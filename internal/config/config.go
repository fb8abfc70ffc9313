// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// =============================================================================
// TYPES
// =============================================================================

// Config is the complete gemchat configuration.
type Config struct {
	Server Server `toml:"server"`
	Chat   Chat   `toml:"chat"`
	UI     UI     `toml:"ui"`
	Cache  Cache  `toml:"cache"`
}

// Server holds backend connection settings.
type Server struct {
	// URL is the chat backend base URL.
	URL string `toml:"url"`

	// TimeoutSecs bounds non-streaming requests. Streaming transfers are
	// never timed out; they end on done, error, or cancellation.
	TimeoutSecs int `toml:"timeout_secs"`

	// KeystorePath overrides where the encrypted auth token lives.
	// Empty means <config dir>/token.enc.
	KeystorePath string `toml:"keystore_path"`
}

// Chat holds conversation defaults.
type Chat struct {
	// DefaultModel is the model used for new conversations.
	DefaultModel string `toml:"default_model"`

	// ShowReasoning expands the reasoning section of replies by default.
	ShowReasoning bool `toml:"show_reasoning"`
}

// UI holds presentation settings.
type UI struct {
	// Theme selects the color theme: "dark", "light", or "auto".
	Theme string `toml:"theme"`

	// SyntaxTheme is the chroma style used for code blocks.
	SyntaxTheme string `toml:"syntax_theme"`

	// CompactMode hides message metadata lines (model, token counts).
	CompactMode bool `toml:"compact_mode"`
}

// Cache holds local persistence settings.
type Cache struct {
	// Dir overrides the conversation cache directory.
	// Empty means <config dir>/cache.
	Dir string `toml:"dir"`

	// MaxConversations bounds how many conversations are cached locally.
	MaxConversations int `toml:"max_conversations"`
}

// ValidationError describes a single invalid configuration value.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// =============================================================================
// DEFAULTS
// =============================================================================

const (
	defaultServerURL   = "http://localhost:5000"
	defaultTimeoutSecs = 30
	defaultModel       = "gemini-2.5-flash"
)

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Server: Server{
			URL:         defaultServerURL,
			TimeoutSecs: defaultTimeoutSecs,
		},
		Chat: Chat{
			DefaultModel:  defaultModel,
			ShowReasoning: false,
		},
		UI: UI{
			Theme:       "auto",
			SyntaxTheme: "monokai",
		},
		Cache: Cache{
			MaxConversations: 200,
		},
	}
}

// fillDefaults replaces zero values with defaults after a load, so a
// partial file behaves like a full one.
func (c *Config) fillDefaults() {
	if c.Server.URL == "" {
		c.Server.URL = defaultServerURL
	}
	if c.Server.TimeoutSecs <= 0 {
		c.Server.TimeoutSecs = defaultTimeoutSecs
	}
	if c.Chat.DefaultModel == "" {
		c.Chat.DefaultModel = defaultModel
	}
	if c.UI.Theme == "" {
		c.UI.Theme = "auto"
	}
	if c.UI.SyntaxTheme == "" {
		c.UI.SyntaxTheme = "monokai"
	}
	if c.Cache.MaxConversations <= 0 {
		c.Cache.MaxConversations = 200
	}
}

// =============================================================================
// PATHS
// =============================================================================

// Dir returns the gemchat configuration directory, creating it if needed.
func Dir() (string, error) {
	if override := os.Getenv("GEMCHAT_CONFIG_DIR"); override != "" {
		if err := os.MkdirAll(override, 0700); err != nil {
			return "", fmt.Errorf("create config dir: %w", err)
		}
		return override, nil
	}

	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	dir := filepath.Join(base, "gemchat")
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("create config dir: %w", err)
	}
	return dir, nil
}

// Path returns the full path to config.toml.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// KeystorePath resolves the token keystore location.
func (c *Config) ResolveKeystorePath() (string, error) {
	if c.Server.KeystorePath != "" {
		return c.Server.KeystorePath, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "token.enc"), nil
}

// ResolveCacheDir resolves the conversation cache directory, creating it.
func (c *Config) ResolveCacheDir() (string, error) {
	dir := c.Cache.Dir
	if dir == "" {
		base, err := Dir()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(base, "cache")
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("create cache dir: %w", err)
	}
	return dir, nil
}

// =============================================================================
// LOAD / SAVE
// =============================================================================

// Load reads the configuration file, fills defaults, and applies
// environment overrides. A missing file yields the defaults.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom reads a configuration file at an explicit path.
func LoadFrom(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		cfg = Default()
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
		cfg.fillDefaults()
	}

	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to its default path with 0600 permissions.
func (c *Config) Save() error {
	path, err := Path()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes the configuration as TOML to an explicit path.
func (c *Config) SaveTo(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}

	var sb strings.Builder
	sb.WriteString("# gemchat configuration\n")
	sb.WriteString("# Edit by hand or via the /model and /theme commands.\n\n")
	if err := toml.NewEncoder(&sb).Encode(c); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	// Write to a temp file in the same directory and rename into place so a
	// crash mid-write never leaves a truncated config.
	tmp, err := os.CreateTemp(filepath.Dir(path), ".config-*.toml")
	if err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.WriteString(sb.String()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write config: %w", err)
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write config: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Server.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return &ValidationError{Field: "server.url", Message: "must be an absolute http(s) URL"}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return &ValidationError{Field: "server.url", Message: "scheme must be http or https"}
	}
	if c.Server.TimeoutSecs <= 0 {
		return &ValidationError{Field: "server.timeout_secs", Message: "must be positive"}
	}
	switch c.UI.Theme {
	case "dark", "light", "auto":
	default:
		return &ValidationError{Field: "ui.theme", Message: "must be dark, light, or auto"}
	}
	if c.Cache.MaxConversations <= 0 {
		return &ValidationError{Field: "cache.max_conversations", Message: "must be positive"}
	}
	return nil
}

// =============================================================================
// ENV OVERRIDES
// =============================================================================

// applyEnvOverrides layers GEMCHAT_* environment variables over the loaded
// values. Overrides are process-local and never written back to the file.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("GEMCHAT_SERVER_URL"); v != "" {
		c.Server.URL = v
	}
	if v := os.Getenv("GEMCHAT_TIMEOUT_SECS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Server.TimeoutSecs = n
		}
	}
	if v := os.Getenv("GEMCHAT_MODEL"); v != "" {
		c.Chat.DefaultModel = v
	}
	if v := os.Getenv("GEMCHAT_THEME"); v != "" {
		c.UI.Theme = v
	}
	if v := os.Getenv("GEMCHAT_CACHE_DIR"); v != "" {
		c.Cache.Dir = v
	}
}
