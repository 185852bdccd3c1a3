package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mgpai22/scenesage/internal/scene"
)

// Encode writes scenes as a two-space indented JSON array.
func Encode(w io.Writer, scenes []scene.AnalyzedScene) error {
	if scenes == nil {
		scenes = []scene.AnalyzedScene{}
	}
	return encode(w, scenes)
}

// EncodeScenes writes unanalyzed scenes in the same layout.
func EncodeScenes(w io.Writer, scenes []scene.Scene) error {
	if scenes == nil {
		scenes = []scene.Scene{}
	}
	return encode(w, scenes)
}

func encode(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode scenes: %w", err)
	}
	return nil
}

// WriteFile writes the JSON document through a temporary file in the same
// directory, so path is either untouched or complete.
func WriteFile(path string, scenes []scene.AnalyzedScene) error {
	return writeAtomic(path, func(w io.Writer) error {
		return Encode(w, scenes)
	})
}

func writeAtomic(path string, write func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = os.Remove(tmpPath)
	}()

	if err := write(tmp); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
