package subtitle

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported subtitle format")
	// wraps every parser error
	ErrMalformed = errors.New("malformed subtitle file")
)

// Open parses a subtitle file, picking the parser from the extension.
func Open(path string) (*Track, error) {
	format, ok := FormatFromExtension(path)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open subtitle file: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()

	return Parse(file, format)
}

func Parse(r io.Reader, format Format) (*Track, error) {
	var (
		captions []Caption
		err      error
	)

	switch format {
	case FormatSRT:
		captions, err = parseSRT(r)
	case FormatVTT:
		captions, err = parseVTT(r)
	case FormatASS:
		captions, err = parseASS(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	return &Track{Captions: captions, Format: format}, nil
}

// subtitle format based on file extension
func FormatFromExtension(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".srt":
		return FormatSRT, true
	case ".vtt":
		return FormatVTT, true
	case ".ass", ".ssa":
		return FormatASS, true
	default:
		return "", false
	}
}

func IsSubtitleFile(path string) bool {
	_, ok := FormatFromExtension(path)
	return ok
}
