package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
)

type DisplayConfig struct {
	ShowRemaining bool `toml:"show_remaining" json:"show_remaining" yaml:"show_remaining"`
}

type FetchConfig struct {
	Timeout float64 `toml:"timeout" json:"timeout" yaml:"timeout"`
}

type CacheConfig struct {
	StaleTimeSeconds int `toml:"stale_time_seconds" json:"stale_time_seconds" yaml:"stale_time_seconds"`
	Retries          int `toml:"retries" json:"retries" yaml:"retries"`
}

type CredentialsConfig struct {
	UseKeyring bool `toml:"use_keyring" json:"use_keyring" yaml:"use_keyring"`
}

type WidgetConfig struct {
	// File is where the status-bar JSON document is written. Empty disables it.
	File   string `toml:"file" json:"file" yaml:"file"`
	Notify bool   `toml:"notify" json:"notify" yaml:"notify"`
	Listen string `toml:"listen" json:"listen" yaml:"listen"`
}

// OAuthConfig holds the GitHub OAuth app credentials. Values baked in at
// build time are overridden by the config file and then by the environment.
type OAuthConfig struct {
	ClientID     string `toml:"client_id,omitempty" json:"client_id" yaml:"client_id" env:"COPILOTSTATUS_CLIENT_ID"`
	ClientSecret string `toml:"client_secret,omitempty" json:"-" yaml:"-" env:"COPILOTSTATUS_CLIENT_SECRET"`
	RedirectURI  string `toml:"redirect_uri,omitempty" json:"redirect_uri" yaml:"redirect_uri" env:"COPILOTSTATUS_REDIRECT_URI"`
}

type Config struct {
	Display     DisplayConfig     `toml:"display" json:"display" yaml:"display"`
	Fetch       FetchConfig       `toml:"fetch" json:"fetch" yaml:"fetch"`
	Cache       CacheConfig       `toml:"cache" json:"cache" yaml:"cache"`
	Credentials CredentialsConfig `toml:"credentials" json:"credentials" yaml:"credentials"`
	Widget      WidgetConfig      `toml:"widget" json:"widget" yaml:"widget"`
	OAuth       OAuthConfig       `toml:"oauth" json:"oauth" yaml:"oauth"`
}

// Build-time OAuth app configuration, set with
// -ldflags "-X github.com/joshuadavidthomas/copilotstatus/internal/config.defaultClientID=...".
var (
	defaultClientID     = ""
	defaultClientSecret = ""
)

const DefaultRedirectURI = "http://127.0.0.1:8976/callback"

func DefaultConfig() Config {
	return Config{
		Display: DisplayConfig{
			ShowRemaining: true,
		},
		Fetch: FetchConfig{
			Timeout: 30.0,
		},
		Cache: CacheConfig{
			StaleTimeSeconds: 120,
			Retries:          2,
		},
		Credentials: CredentialsConfig{
			UseKeyring: false,
		},
		Widget: WidgetConfig{
			File:   WidgetFile(),
			Notify: true,
			Listen: "127.0.0.1:8977",
		},
		OAuth: OAuthConfig{
			ClientID:     defaultClientID,
			ClientSecret: defaultClientSecret,
			RedirectURI:  DefaultRedirectURI,
		},
	}
}

// FetchTimeout returns the HTTP timeout as a duration.
func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.Fetch.Timeout * float64(time.Second))
}

// StaleTime returns how long fetched quota data is considered fresh.
func (c Config) StaleTime() time.Duration {
	if c.Cache.StaleTimeSeconds <= 0 {
		return 2 * time.Minute
	}
	return time.Duration(c.Cache.StaleTimeSeconds) * time.Second
}

var (
	globalConfig *Config
	configMu     sync.RWMutex
)

func Get() Config {
	configMu.RLock()
	if c := globalConfig; c != nil {
		configMu.RUnlock()
		return *c
	}
	configMu.RUnlock()

	configMu.Lock()
	defer configMu.Unlock()
	if globalConfig != nil {
		return *globalConfig
	}
	c, _ := Load("")
	globalConfig = &c
	return c
}

// Init loads the config file from disk into the global config and returns it.
// A malformed config or .env file yields a usable config plus the parse error.
func Init() (Config, error) {
	configMu.Lock()
	defer configMu.Unlock()
	c, err := Load("")
	globalConfig = &c
	return c, err
}

// SetGlobal replaces the global config, e.g. after a settings command saved it.
func SetGlobal(cfg Config) {
	set(cfg)
}

func set(cfg Config) {
	configMu.Lock()
	defer configMu.Unlock()
	globalConfig = &cfg
}

// Load reads the config at path (ConfigFile when empty) on top of the
// defaults. A malformed TOML file yields defaults; a malformed .env file is
// skipped. Either problem is returned alongside the usable config.
func Load(path string) (Config, error) {
	if path == "" {
		path = ConfigFile()
	}
	cfg := DefaultConfig()

	dotEnvErr := LoadDotEnv()

	data, err := os.ReadFile(path)
	if err != nil {
		return applyEnvOverrides(cfg), dotEnvErr
	}

	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return applyEnvOverrides(DefaultConfig()), errors.Join(fmt.Errorf("parsing config %s: %w", path, err), dotEnvErr)
	}

	return applyEnvOverrides(cfg), dotEnvErr
}

func Save(cfg Config, path string) error {
	if path == "" {
		path = ConfigFile()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	defer func() { _ = f.Close() }()

	// The client secret never goes back to disk from here.
	cfg.OAuth.ClientSecret = ""
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	return nil
}
