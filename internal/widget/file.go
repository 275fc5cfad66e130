package widget

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
)

// Document is the Waybar custom-module JSON format, also readable by
// polybar and i3status scripts.
type Document struct {
	Text       string `json:"text"`
	Tooltip    string `json:"tooltip"`
	Class      string `json:"class"`
	Percentage int    `json:"percentage"`
	Alt        string `json:"alt"`
}

// NewDocument renders v as a status-bar document.
func NewDocument(v View) Document {
	alt := "signed-out"
	if v.SignedIn {
		alt = "dark"
		if !v.Dark {
			alt = "light"
		}
	}
	return Document{
		Text:       v.Text(),
		Tooltip:    v.Tooltip(),
		Class:      v.Class(),
		Percentage: int(math.Round(v.PercentUsed)),
		Alt:        alt,
	}
}

// FileRenderer writes the document to Path, replacing it atomically so a
// status bar polling the file never reads a partial write.
type FileRenderer struct {
	Path string
}

func (r *FileRenderer) Name() string { return "file" }

func (r *FileRenderer) Render(_ context.Context, v View) error {
	return r.write(NewDocument(v))
}

func (r *FileRenderer) Clear(_ context.Context) error {
	return r.write(NewDocument(View{}))
}

func (r *FileRenderer) write(doc Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding widget document: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(r.Path), 0o755); err != nil {
		return fmt.Errorf("creating widget directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(r.Path), ".widget-*.json")
	if err != nil {
		return fmt.Errorf("writing widget file: %w", err)
	}
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("writing widget file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("writing widget file: %w", err)
	}
	if err := os.Rename(tmp.Name(), r.Path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("writing widget file: %w", err)
	}
	return nil
}
