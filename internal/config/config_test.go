// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Server.URL != "http://localhost:5000" {
		t.Errorf("Server.URL = %q", cfg.Server.URL)
	}
	if cfg.Chat.DefaultModel != "gemini-2.5-flash" {
		t.Errorf("Chat.DefaultModel = %q", cfg.Chat.DefaultModel)
	}
}

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "config.toml"))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Server.TimeoutSecs != 30 {
		t.Errorf("TimeoutSecs = %d, want 30", cfg.Server.TimeoutSecs)
	}
}

func TestLoadPartialFileFillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := "[server]\nurl = \"https://chat.example.com\"\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Server.URL != "https://chat.example.com" {
		t.Errorf("Server.URL = %q", cfg.Server.URL)
	}
	if cfg.Chat.DefaultModel != "gemini-2.5-flash" {
		t.Errorf("default model not filled: %q", cfg.Chat.DefaultModel)
	}
	if cfg.UI.Theme != "auto" {
		t.Errorf("theme not filled: %q", cfg.UI.Theme)
	}
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("server = ["), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFrom(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg := Default()
	cfg.Server.URL = "http://10.0.0.2:5000"
	cfg.Chat.DefaultModel = "gemini-2.5-pro"
	cfg.UI.CompactMode = true
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if loaded.Server.URL != cfg.Server.URL {
		t.Errorf("URL = %q, want %q", loaded.Server.URL, cfg.Server.URL)
	}
	if loaded.Chat.DefaultModel != "gemini-2.5-pro" {
		t.Errorf("model = %q", loaded.Chat.DefaultModel)
	}
	if !loaded.UI.CompactMode {
		t.Error("CompactMode lost in round trip")
	}

	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		if err != nil {
			t.Fatal(err)
		}
		if perm := info.Mode().Perm(); perm != 0600 {
			t.Errorf("perm = %o, want 0600", perm)
		}
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"bad url", func(c *Config) { c.Server.URL = "not a url" }, "server.url"},
		{"bad scheme", func(c *Config) { c.Server.URL = "ftp://host" }, "server.url"},
		{"zero timeout", func(c *Config) { c.Server.TimeoutSecs = 0 }, "server.timeout_secs"},
		{"bad theme", func(c *Config) { c.UI.Theme = "neon" }, "ui.theme"},
		{"zero cache", func(c *Config) { c.Cache.MaxConversations = 0 }, "cache.max_conversations"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Errorf("error %q does not name field %q", err, tt.field)
			}
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("GEMCHAT_SERVER_URL", "http://override:5000")
	t.Setenv("GEMCHAT_MODEL", "gemini-2.5-pro")
	t.Setenv("GEMCHAT_TIMEOUT_SECS", "90")

	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "config.toml"))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Server.URL != "http://override:5000" {
		t.Errorf("URL = %q", cfg.Server.URL)
	}
	if cfg.Chat.DefaultModel != "gemini-2.5-pro" {
		t.Errorf("model = %q", cfg.Chat.DefaultModel)
	}
	if cfg.Server.TimeoutSecs != 90 {
		t.Errorf("timeout = %d", cfg.Server.TimeoutSecs)
	}
}

func TestEnvOverrideIgnoresGarbageTimeout(t *testing.T) {
	t.Setenv("GEMCHAT_TIMEOUT_SECS", "soon")

	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "config.toml"))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Server.TimeoutSecs != 30 {
		t.Errorf("timeout = %d, want default 30", cfg.Server.TimeoutSecs)
	}
}

func TestConfigDirOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("GEMCHAT_CONFIG_DIR", dir)

	got, err := Dir()
	if err != nil {
		t.Fatalf("Dir: %v", err)
	}
	if got != dir {
		t.Errorf("Dir = %q, want %q", got, dir)
	}

	path, err := Path()
	if err != nil {
		t.Fatalf("Path: %v", err)
	}
	if path != filepath.Join(dir, "config.toml") {
		t.Errorf("Path = %q", path)
	}
}

func TestResolveKeystorePath(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("GEMCHAT_CONFIG_DIR", dir)

	cfg := Default()
	path, err := cfg.ResolveKeystorePath()
	if err != nil {
		t.Fatalf("ResolveKeystorePath: %v", err)
	}
	if path != filepath.Join(dir, "token.enc") {
		t.Errorf("path = %q", path)
	}

	cfg.Server.KeystorePath = "/tmp/custom.enc"
	path, err = cfg.ResolveKeystorePath()
	if err != nil {
		t.Fatal(err)
	}
	if path != "/tmp/custom.enc" {
		t.Errorf("override path = %q", path)
	}
}

func TestWatcherReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := Default().SaveTo(path); err != nil {
		t.Fatal(err)
	}

	reloaded := make(chan *Config, 1)
	w, err := NewWatcher(path, func(c *Config) {
		select {
		case reloaded <- c:
		default:
		}
	})
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Close()
	if err := w.Watch(); err != nil {
		t.Fatalf("Watch: %v", err)
	}

	cfg := Default()
	cfg.Chat.DefaultModel = "gemini-2.5-pro"
	if err := cfg.SaveTo(path); err != nil {
		t.Fatal(err)
	}

	select {
	case got := <-reloaded:
		if got.Chat.DefaultModel != "gemini-2.5-pro" {
			t.Errorf("reloaded model = %q", got.Chat.DefaultModel)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watcher never fired")
	}
}
