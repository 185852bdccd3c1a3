package video

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"
	ffmpeg "github.com/u2takey/ffmpeg-go"

	ffmpegbin "github.com/mgpai22/scenesage/internal/ffmpeg"
)

var videoExtensions = map[string]bool{
	".mp4":  true,
	".m4v":  true,
	".mkv":  true,
	".mov":  true,
	".avi":  true,
	".webm": true,
	".ts":   true,
	".flv":  true,
	".wmv":  true,
	".mpg":  true,
	".mpeg": true,
}

// subtitle codecs ffmpeg can convert to SubRip
var textSubtitleCodecs = map[string]bool{
	"subrip":   true,
	"srt":      true,
	"ass":      true,
	"ssa":      true,
	"webvtt":   true,
	"mov_text": true,
	"text":     true,
}

func IsVideoFile(path string) bool {
	return videoExtensions[strings.ToLower(filepath.Ext(path))]
}

// SniffVideo reports whether header starts a known video container and
// returns its MIME type.
func SniffVideo(header []byte) (string, bool) {
	if !filetype.IsVideo(header) {
		return "", false
	}
	kind, err := filetype.Match(header)
	if err != nil || kind == filetype.Unknown {
		return "", false
	}
	return kind.MIME.Value, true
}

// SniffBinary reports whether header belongs to any known binary format.
// Subtitle files are plain text and never match.
func SniffBinary(header []byte) (string, bool) {
	kind, err := filetype.Match(header)
	if err != nil || kind == filetype.Unknown {
		return "", false
	}
	return kind.MIME.Value, true
}

// subtitle stream inside a container
type Stream struct {
	// absolute stream index in the container
	Index int
	// position among the subtitle streams, as used by -map 0:s:N
	SubtitleIndex int
	Codec         string
	Language      string
	Title         string
	Default       bool
}

// TextBased reports whether the stream can be converted to SubRip.
// Bitmap subtitles (PGS, VobSub) cannot.
func (s Stream) TextBased() bool {
	return textSubtitleCodecs[strings.ToLower(s.Codec)]
}

// runs ffprobe and ffmpeg against video containers
type Processor struct {
	tempDir string
}

func NewProcessor(tempDir string) *Processor {
	return &Processor{
		tempDir: tempDir,
	}
}

// TempDir is where extracted subtitle tracks are written.
func (p *Processor) TempDir() string {
	if p.tempDir == "" {
		return os.TempDir()
	}
	return p.tempDir
}

func (p *Processor) binaries() (string, string, error) {
	paths, err := ffmpegbin.Ensure()
	if err != nil {
		return "", "", err
	}
	return paths.FFmpeg, paths.FFprobe, nil
}

// JSON output from ffprobe -show_streams
type ffprobeOutput struct {
	Streams []struct {
		Index       int               `json:"index"`
		CodecName   string            `json:"codec_name"`
		Tags        map[string]string `json:"tags"`
		Disposition struct {
			Default int `json:"default"`
		} `json:"disposition"`
	} `json:"streams"`
}

// lists the subtitle streams of a container
func (p *Processor) SubtitleStreams(ctx context.Context, videoPath string) ([]Stream, error) {
	if _, err := os.Stat(videoPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("video file not found: %s", videoPath)
	}

	_, ffprobePath, err := p.binaries()
	if err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, ffprobePath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_streams",
		"-select_streams", "s",
		videoPath,
	)

	var out bytes.Buffer
	cmd.Stdout = &out

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffprobe failed: %w", err)
	}

	return parseStreams(out.Bytes())
}

func parseStreams(data []byte) ([]Stream, error) {
	var probe ffprobeOutput
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	streams := make([]Stream, 0, len(probe.Streams))
	for i, s := range probe.Streams {
		streams = append(streams, Stream{
			Index:         s.Index,
			SubtitleIndex: i,
			Codec:         s.CodecName,
			Language:      s.Tags["language"],
			Title:         s.Tags["title"],
			Default:       s.Disposition.Default == 1,
		})
	}
	return streams, nil
}

// FirstTextStream picks the default text stream, or the first text stream
// when none is marked default.
func FirstTextStream(streams []Stream) (Stream, bool) {
	var first *Stream
	for i := range streams {
		if !streams[i].TextBased() {
			continue
		}
		if streams[i].Default {
			return streams[i], true
		}
		if first == nil {
			first = &streams[i]
		}
	}
	if first == nil {
		return Stream{}, false
	}
	return *first, true
}

// extracts subtitle stream N (counted among subtitle streams) as SubRip
func (p *Processor) ExtractSubtitles(
	ctx context.Context,
	videoPath, outputPath string,
	streamIndex int,
) error {
	if _, err := os.Stat(videoPath); os.IsNotExist(err) {
		return fmt.Errorf("video file not found: %s", videoPath)
	}

	outputDir := filepath.Dir(outputPath)
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	ffmpegPath, _, err := p.binaries()
	if err != nil {
		return err
	}

	args := extractArgs(videoPath, outputPath, streamIndex)

	cmd := exec.CommandContext(ctx, ffmpegPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf(
			"ffmpeg subtitle extraction failed: %w: %s",
			err,
			lastLine(stderr.String()),
		)
	}

	return nil
}

func extractArgs(videoPath, outputPath string, streamIndex int) []string {
	return ffmpeg.Input(videoPath).
		Output(outputPath, ffmpeg.KwArgs{
			"map": fmt.Sprintf("0:s:%d", streamIndex),
			"c:s": "srt",
		}).
		OverWriteOutput().
		GetArgs()
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return lines[len(lines)-1]
}
