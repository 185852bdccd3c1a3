package subtitle

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// interface for writing caption tracks
type Writer interface {
	Write(w io.Writer, track *Track) error
}

// SubRip format
type SRTWriter struct{}

// WebVTT format
type VTTWriter struct{}

func NewWriter(format Format) (Writer, error) {
	switch format {
	case FormatSRT:
		return &SRTWriter{}, nil
	case FormatVTT:
		return &VTTWriter{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

func (w *SRTWriter) Write(out io.Writer, track *Track) error {
	bw := bufio.NewWriter(out)
	for i, c := range track.Captions {
		// index (1-based), timing, text
		fmt.Fprintf(bw, "%d\n", i+1)
		fmt.Fprintf(bw, "%s --> %s\n", c.Start, c.End)
		bw.WriteString(c.Text)
		bw.WriteString("\n\n")
	}
	return bw.Flush()
}

func (w *VTTWriter) Write(out io.Writer, track *Track) error {
	bw := bufio.NewWriter(out)
	bw.WriteString("WEBVTT\n\n")
	for i, c := range track.Captions {
		fmt.Fprintf(bw, "%d\n", i+1)
		fmt.Fprintf(bw, "%s --> %s\n", c.Start.VTT(), c.End.VTT())
		bw.WriteString(c.Text)
		bw.WriteString("\n\n")
	}
	return bw.Flush()
}

// WriteFile writes track to path, creating parent directories.
func WriteFile(path string, track *Track, format Format) error {
	writer, err := NewWriter(format)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := writer.Write(f, track); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
