package config

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

// Helpers

func setupTempDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("COPILOTSTATUS_CONFIG_DIR", filepath.Join(dir, "config"))
	t.Setenv("COPILOTSTATUS_DATA_DIR", filepath.Join(dir, "data"))
	// Clear env override variables so tests aren't affected by the host environment.
	for _, k := range []string{
		"COPILOTSTATUS_CLIENT_ID", "COPILOTSTATUS_CLIENT_SECRET", "COPILOTSTATUS_REDIRECT_URI",
		"COPILOTSTATUS_NO_NOTIFY", "COPILOTSTATUS_WIDGET_FILE",
	} {
		t.Setenv(k, "")
		_ = os.Unsetenv(k)
	}
	t.Chdir(dir)
	// Reset global config so tests don't leak state.
	configMu.Lock()
	globalConfig = nil
	configMu.Unlock()
	return dir
}

func writeTestFile(t *testing.T, path string, content []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll(%s): %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("WriteFile(%s): %v", path, err)
	}
}

// DefaultConfig

func TestDefaultConfig_Values(t *testing.T) {
	setupTempDir(t)
	cfg := DefaultConfig()

	if !cfg.Display.ShowRemaining {
		t.Error("ShowRemaining should default to true")
	}
	if cfg.Fetch.Timeout != 30.0 {
		t.Errorf("Timeout = %v, want 30", cfg.Fetch.Timeout)
	}
	if cfg.Cache.StaleTimeSeconds != 120 {
		t.Errorf("StaleTimeSeconds = %d, want 120", cfg.Cache.StaleTimeSeconds)
	}
	if cfg.Cache.Retries != 2 {
		t.Errorf("Retries = %d, want 2", cfg.Cache.Retries)
	}
	if cfg.OAuth.RedirectURI != DefaultRedirectURI {
		t.Errorf("RedirectURI = %q", cfg.OAuth.RedirectURI)
	}
	if !cfg.Widget.Notify {
		t.Error("Widget.Notify should default to true")
	}
}

func TestStaleTime(t *testing.T) {
	cfg := DefaultConfig()
	if got := cfg.StaleTime(); got != 2*time.Minute {
		t.Errorf("StaleTime() = %v, want 2m", got)
	}
	cfg.Cache.StaleTimeSeconds = 0
	if got := cfg.StaleTime(); got != 2*time.Minute {
		t.Errorf("StaleTime() with zero = %v, want 2m fallback", got)
	}
	cfg.Cache.StaleTimeSeconds = 300
	if got := cfg.StaleTime(); got != 5*time.Minute {
		t.Errorf("StaleTime() = %v, want 5m", got)
	}
}

func TestFetchTimeout(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Fetch.Timeout = 1.5
	if got := cfg.FetchTimeout(); got != 1500*time.Millisecond {
		t.Errorf("FetchTimeout() = %v", got)
	}
}

// Load / Save

func TestLoad_MissingFile_ReturnsDefaults(t *testing.T) {
	dir := setupTempDir(t)
	cfg, err := Load(filepath.Join(dir, "nope.toml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Fetch.Timeout != 30.0 {
		t.Errorf("expected default timeout, got %v", cfg.Fetch.Timeout)
	}
}

func TestLoad_MalformedTOML_ReturnsDefaultsAndError(t *testing.T) {
	dir := setupTempDir(t)
	path := filepath.Join(dir, "bad.toml")
	writeTestFile(t, path, []byte("this is [[[not valid toml"))

	cfg, err := Load(path)
	if err == nil {
		t.Fatal("expected parse error")
	}
	if !strings.Contains(err.Error(), "parsing config") {
		t.Errorf("error should contain 'parsing config', got: %v", err)
	}
	if cfg.Fetch.Timeout != 30.0 {
		t.Error("malformed config should fall back to defaults")
	}
}

func TestLoad_PartialTOML_MergesWithDefaults(t *testing.T) {
	dir := setupTempDir(t)
	path := filepath.Join(dir, "partial.toml")
	writeTestFile(t, path, []byte("[cache]\nstale_time_seconds = 60\n"))

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Cache.StaleTimeSeconds != 60 {
		t.Errorf("StaleTimeSeconds = %d, want 60", cfg.Cache.StaleTimeSeconds)
	}
	if cfg.Cache.Retries != 2 {
		t.Errorf("Retries should keep its default, got %d", cfg.Cache.Retries)
	}
}

func TestSave_Load_Roundtrip(t *testing.T) {
	dir := setupTempDir(t)
	path := filepath.Join(dir, "config", "config.toml")

	cfg := DefaultConfig()
	cfg.Display.ShowRemaining = false
	cfg.Widget.Listen = "127.0.0.1:9999"
	cfg.OAuth.ClientID = "Iv1.test"
	cfg.OAuth.ClientSecret = "shh"
	if err := Save(cfg, path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Display.ShowRemaining {
		t.Error("ShowRemaining did not roundtrip")
	}
	if loaded.Widget.Listen != "127.0.0.1:9999" {
		t.Errorf("Listen = %q", loaded.Widget.Listen)
	}
	if loaded.OAuth.ClientID != "Iv1.test" {
		t.Errorf("ClientID = %q", loaded.OAuth.ClientID)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(raw), "shh") {
		t.Error("client secret must not be written to the config file")
	}
}

// Environment

func TestLoad_EnvOverridesOAuth(t *testing.T) {
	dir := setupTempDir(t)
	t.Setenv("COPILOTSTATUS_CLIENT_ID", "env-id")
	t.Setenv("COPILOTSTATUS_CLIENT_SECRET", "env-secret")

	cfg, err := Load(filepath.Join(dir, "missing.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.OAuth.ClientID != "env-id" {
		t.Errorf("ClientID = %q, want env-id", cfg.OAuth.ClientID)
	}
	if cfg.OAuth.ClientSecret != "env-secret" {
		t.Errorf("ClientSecret = %q, want env-secret", cfg.OAuth.ClientSecret)
	}
	if cfg.OAuth.RedirectURI != DefaultRedirectURI {
		t.Errorf("unset env var should keep default redirect, got %q", cfg.OAuth.RedirectURI)
	}
}

func TestLoad_DotEnvFile(t *testing.T) {
	dir := setupTempDir(t)
	writeTestFile(t, filepath.Join(dir, "config", ".env"), []byte("COPILOTSTATUS_CLIENT_ID=dotenv-id\n"))
	t.Cleanup(func() { _ = os.Unsetenv("COPILOTSTATUS_CLIENT_ID") })

	cfg, err := Load(filepath.Join(dir, "missing.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.OAuth.ClientID != "dotenv-id" {
		t.Errorf("ClientID = %q, want dotenv-id", cfg.OAuth.ClientID)
	}
}

func TestLoad_MalformedDotEnv_ReturnsError(t *testing.T) {
	dir := setupTempDir(t)
	writeTestFile(t, filepath.Join(dir, ".env"), []byte("BAD-KEY=1\nCOPILOTSTATUS_CLIENT_ID=skipped\n"))
	writeTestFile(t, filepath.Join(dir, "config", "config.toml"), []byte("[cache]\nstale_time_seconds = 60\n"))
	t.Cleanup(func() { _ = os.Unsetenv("COPILOTSTATUS_CLIENT_ID") })

	cfg, err := Load(filepath.Join(dir, "config", "config.toml"))
	if err == nil {
		t.Fatal("Load() should report a malformed .env file")
	}
	if !strings.Contains(err.Error(), ".env") {
		t.Errorf("error %q should name the .env file", err)
	}
	if cfg.OAuth.ClientID == "skipped" {
		t.Error("values from a malformed .env file should not be applied")
	}
	if cfg.Cache.StaleTimeSeconds != 60 {
		t.Errorf("config file should still load, StaleTimeSeconds = %d", cfg.Cache.StaleTimeSeconds)
	}
}

func TestLoad_NoNotifyEnv(t *testing.T) {
	dir := setupTempDir(t)
	t.Setenv("COPILOTSTATUS_NO_NOTIFY", "1")

	cfg, _ := Load(filepath.Join(dir, "missing.toml"))
	if cfg.Widget.Notify {
		t.Error("COPILOTSTATUS_NO_NOTIFY should disable notifications")
	}
}

// Global

func TestGetAndInit_NoConcurrentRace(t *testing.T) {
	setupTempDir(t)
	var wg sync.WaitGroup
	_ = Get()
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = Get()
		}()
		go func() {
			defer wg.Done()
			_, _ = Init()
		}()
	}
	wg.Wait()
}

func TestInit_MalformedTOML_ReturnsError(t *testing.T) {
	dir := setupTempDir(t)
	writeTestFile(t, filepath.Join(dir, "config", "config.toml"), []byte("[[[nope"))

	_, err := Init()
	if err == nil {
		t.Fatal("Init() should return an error for malformed config file")
	}
}

func TestOverride_RestoresPrevious(t *testing.T) {
	setupTempDir(t)
	before := Get()

	t.Run("override", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Fetch.Timeout = 5
		Override(t, cfg)
		if Get().Fetch.Timeout != 5 {
			t.Error("Override did not take effect")
		}
	})

	if Get().Fetch.Timeout != before.Fetch.Timeout {
		t.Error("Override did not restore the previous config")
	}
}

// Paths

func TestPaths_EnvOverride(t *testing.T) {
	t.Setenv("COPILOTSTATUS_CONFIG_DIR", "/base/config")
	t.Setenv("COPILOTSTATUS_DATA_DIR", "/base/data")

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"ConfigDir", ConfigDir(), "/base/config"},
		{"DataDir", DataDir(), "/base/data"},
		{"CredentialsDir", CredentialsDir(), "/base/config/credentials"},
		{"ConfigFile", ConfigFile(), "/base/config/config.toml"},
		{"StoreFile", StoreFile(), "/base/data/copilotstatus.db"},
		{"WidgetFile", WidgetFile(), "/base/data/widget.json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("%s = %q, want %q", tt.name, tt.got, tt.want)
			}
		})
	}
}

func TestConfigDir_DefaultEndsWithAppName(t *testing.T) {
	t.Setenv("COPILOTSTATUS_CONFIG_DIR", "")
	if got := filepath.Base(ConfigDir()); got != "copilotstatus" {
		t.Errorf("ConfigDir() base = %q", got)
	}
}
