package pipeline

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mgpai22/scenesage/internal/subtitle"
	"github.com/mgpai22/scenesage/internal/video"
)

// ErrInput marks files that cannot be turned into captions.
var ErrInput = errors.New("unusable input")

const sniffLen = 512

// IsSupported reports whether path looks like something LoadCaptions reads.
func IsSupported(path string) bool {
	return subtitle.IsSubtitleFile(path) || video.IsVideoFile(path)
}

// LoadCaptions reads a subtitle file, or the first text subtitle stream of a
// video file.
func LoadCaptions(ctx context.Context, path string, proc *video.Processor) ([]subtitle.Caption, error) {
	if subtitle.IsSubtitleFile(path) {
		track, err := subtitle.Open(path)
		if err != nil {
			return nil, inputError(err)
		}
		return track.Captions, nil
	}

	if video.IsVideoFile(path) {
		return captionsFromVideo(ctx, path, proc)
	}

	header, err := readHeader(path)
	if err != nil {
		return nil, err
	}
	if _, ok := video.SniffVideo(header); ok {
		return captionsFromVideo(ctx, path, proc)
	}

	return nil, fmt.Errorf("%w: unsupported file type: %s", ErrInput, filepath.Base(path))
}

// LoadReader reads an uploaded file. name supplies the extension; binary
// content is only accepted when it is a video container.
func LoadReader(
	ctx context.Context,
	name string,
	r io.Reader,
	proc *video.Processor,
) ([]subtitle.Caption, error) {
	br := bufio.NewReaderSize(r, sniffLen)
	header, _ := br.Peek(sniffLen)

	if mime, ok := video.SniffBinary(header); ok {
		if _, isVideo := video.SniffVideo(header); !isVideo {
			return nil, fmt.Errorf("%w: %s is not a subtitle file", ErrInput, mime)
		}
		return captionsFromUpload(ctx, name, br, proc)
	}

	format, ok := subtitle.FormatFromExtension(name)
	if !ok {
		if video.IsVideoFile(name) {
			return captionsFromUpload(ctx, name, br, proc)
		}
		format = guessFormat(header)
	}

	track, err := subtitle.Parse(br, format)
	if err != nil {
		return nil, inputError(err)
	}
	return track.Captions, nil
}

// guessFormat looks at the first bytes of a text upload without a known
// extension.
func guessFormat(header []byte) subtitle.Format {
	text := strings.TrimPrefix(string(header), "\ufeff")
	text = strings.TrimSpace(text)
	switch {
	case strings.HasPrefix(text, "WEBVTT"):
		return subtitle.FormatVTT
	case strings.HasPrefix(text, "[Script Info]"), strings.Contains(text, "[Events]"):
		return subtitle.FormatASS
	default:
		return subtitle.FormatSRT
	}
}

func captionsFromUpload(
	ctx context.Context,
	name string,
	r io.Reader,
	proc *video.Processor,
) ([]subtitle.Caption, error) {
	ext := filepath.Ext(name)
	if ext == "" {
		ext = ".bin"
	}

	tmp, err := os.CreateTemp(proc.TempDir(), "scenesage-upload-*"+ext)
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = os.Remove(tmpPath)
	}()

	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}

	return captionsFromVideo(ctx, tmpPath, proc)
}

func captionsFromVideo(ctx context.Context, path string, proc *video.Processor) ([]subtitle.Caption, error) {
	streams, err := proc.SubtitleStreams(ctx, path)
	if err != nil {
		return nil, err
	}

	stream, ok := video.FirstTextStream(streams)
	if !ok {
		return nil, fmt.Errorf("%w: no text subtitle stream in %s", ErrInput, filepath.Base(path))
	}

	tmp, err := os.CreateTemp(proc.TempDir(), "scenesage-track-*.srt")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	srtPath := tmp.Name()
	_ = tmp.Close()
	defer func() {
		_ = os.Remove(srtPath)
	}()

	if err := proc.ExtractSubtitles(ctx, path, srtPath, stream.SubtitleIndex); err != nil {
		return nil, err
	}

	track, err := subtitle.Open(srtPath)
	if err != nil {
		return nil, inputError(err)
	}
	return track.Captions, nil
}

func readHeader(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() {
		_ = f.Close()
	}()

	header := make([]byte, sniffLen)
	n, err := io.ReadFull(f, header)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return header[:n], nil
}

func inputError(err error) error {
	if errors.Is(err, ErrInput) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrInput, err)
}
