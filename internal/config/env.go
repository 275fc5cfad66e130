package config

import (
	"fmt"
	"os"
	"path/filepath"

	env "github.com/Netflix/go-env"
	"github.com/joho/godotenv"
)

// LoadDotEnv loads the first .env file found in the working directory or the
// config directory. Variables already present in the environment win. A file
// that cannot be parsed leaves the environment untouched.
func LoadDotEnv() error {
	for _, path := range dotEnvPaths() {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err != nil {
				return fmt.Errorf("loading %s: %w", path, err)
			}
			return nil
		}
	}
	return nil
}

func dotEnvPaths() []string {
	var paths []string
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".env"))
	}
	return append(paths, DotEnvFile())
}

func applyEnvOverrides(cfg Config) Config {
	oauth := cfg.OAuth
	if _, err := env.UnmarshalFromEnviron(&oauth); err == nil {
		cfg.OAuth = oauth
	}
	if os.Getenv("COPILOTSTATUS_NO_NOTIFY") != "" {
		cfg.Widget.Notify = false
	}
	if v := os.Getenv("COPILOTSTATUS_WIDGET_FILE"); v != "" {
		cfg.Widget.File = v
	}
	return cfg
}
