package config

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

const appName = "copilotstatus"

func ConfigDir() string {
	if v := os.Getenv("COPILOTSTATUS_CONFIG_DIR"); v != "" {
		return v
	}
	return filepath.Join(xdg.ConfigHome, appName)
}

// DataDir holds the SQLite store shared by the foreground app and the
// background agent.
func DataDir() string {
	if v := os.Getenv("COPILOTSTATUS_DATA_DIR"); v != "" {
		return v
	}
	return filepath.Join(xdg.DataHome, appName)
}

func CredentialsDir() string { return filepath.Join(ConfigDir(), "credentials") }
func ConfigFile() string     { return filepath.Join(ConfigDir(), "config.toml") }
func DotEnvFile() string     { return filepath.Join(ConfigDir(), ".env") }
func StoreFile() string      { return filepath.Join(DataDir(), "copilotstatus.db") }

// WidgetFile is the default location of the status-bar widget document.
func WidgetFile() string {
	if v := os.Getenv("COPILOTSTATUS_DATA_DIR"); v != "" {
		return filepath.Join(v, "widget.json")
	}
	return filepath.Join(xdg.StateHome, appName, "widget.json")
}
