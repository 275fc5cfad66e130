// Package testenv isolates copilotstatus directories in tests.
package testenv

import "path/filepath"

// Dirs holds the isolated config and data directories.
type Dirs struct {
	Base   string
	Config string
	Data   string
}

// Layout returns the conventional test directories rooted at base.
func Layout(base string) Dirs {
	return Dirs{
		Base:   base,
		Config: filepath.Join(base, "config"),
		Data:   filepath.Join(base, "data"),
	}
}

// Apply points COPILOTSTATUS_* at separate directories under base. Pass
// t.Setenv as setenv.
func Apply(setenv func(string, string), base string) Dirs {
	dirs := Layout(base)
	setenv("COPILOTSTATUS_CONFIG_DIR", dirs.Config)
	setenv("COPILOTSTATUS_DATA_DIR", dirs.Data)
	setenv("COPILOTSTATUS_WIDGET_FILE", filepath.Join(dirs.Data, "widget.json"))
	return dirs
}

// ApplySameDir points config and data at dir itself, for tests that
// compare paths against a temp dir.
func ApplySameDir(setenv func(string, string), dir string) {
	setenv("COPILOTSTATUS_CONFIG_DIR", dir)
	setenv("COPILOTSTATUS_DATA_DIR", dir)
	setenv("COPILOTSTATUS_WIDGET_FILE", filepath.Join(dir, "widget.json"))
}
