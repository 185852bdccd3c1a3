package video

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

func TestIsVideoFile(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"movie.mp4", true},
		{"MOVIE.MKV", true},
		{"clip.webm", true},
		{"subs.srt", false},
		{"notes.txt", false},
		{"noext", false},
	}

	for _, tt := range tests {
		if got := IsVideoFile(tt.path); got != tt.want {
			t.Errorf("IsVideoFile(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestSniffVideo(t *testing.T) {
	mp4 := []byte{0x00, 0x00, 0x00, 0x18, 'f', 't', 'y', 'p', 'm', 'p', '4', '2', 0x00, 0x00, 0x00, 0x00}
	png := []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0x00, 0x00}
	srt := []byte("1\n00:00:01,000 --> 00:00:02,000\nHello\n")

	if mime, ok := SniffVideo(mp4); !ok || mime != "video/mp4" {
		t.Errorf("SniffVideo(mp4) = %q, %v", mime, ok)
	}
	if _, ok := SniffVideo(png); ok {
		t.Error("png should not sniff as video")
	}
	if _, ok := SniffVideo(srt); ok {
		t.Error("srt text should not sniff as video")
	}

	if mime, ok := SniffBinary(png); !ok || mime != "image/png" {
		t.Errorf("SniffBinary(png) = %q, %v", mime, ok)
	}
	if _, ok := SniffBinary(srt); ok {
		t.Error("srt text should not sniff as binary")
	}
}

func TestParseStreams(t *testing.T) {
	data := []byte(`{
		"streams": [
			{"index": 2, "codec_name": "hdmv_pgs_subtitle", "tags": {"language": "eng"}, "disposition": {"default": 1}},
			{"index": 3, "codec_name": "subrip", "tags": {"language": "eng", "title": "English"}, "disposition": {"default": 0}},
			{"index": 4, "codec_name": "ass", "tags": {"language": "jpn"}, "disposition": {"default": 0}}
		]
	}`)

	streams, err := parseStreams(data)
	if err != nil {
		t.Fatalf("parseStreams error: %v", err)
	}
	if len(streams) != 3 {
		t.Fatalf("expected 3 streams, got %d", len(streams))
	}
	if streams[1].SubtitleIndex != 1 || streams[1].Index != 3 {
		t.Errorf("unexpected indices: %+v", streams[1])
	}
	if streams[1].Title != "English" || streams[2].Language != "jpn" {
		t.Errorf("unexpected tags: %+v %+v", streams[1], streams[2])
	}
	if streams[0].TextBased() {
		t.Error("PGS stream should not be text based")
	}

	first, ok := FirstTextStream(streams)
	if !ok {
		t.Fatal("expected a text stream")
	}
	if first.Codec != "subrip" {
		t.Errorf("FirstTextStream() = %+v, want the subrip stream", first)
	}
}

func TestFirstTextStreamPrefersDefault(t *testing.T) {
	streams := []Stream{
		{SubtitleIndex: 0, Codec: "subrip"},
		{SubtitleIndex: 1, Codec: "ass", Default: true},
	}
	got, ok := FirstTextStream(streams)
	if !ok || got.SubtitleIndex != 1 {
		t.Errorf("FirstTextStream() = %+v, %v", got, ok)
	}

	if _, ok := FirstTextStream([]Stream{{Codec: "dvd_subtitle"}}); ok {
		t.Error("expected no text stream")
	}
}

func TestParseStreamsInvalid(t *testing.T) {
	if _, err := parseStreams([]byte("not json")); err == nil {
		t.Error("expected error for invalid ffprobe output")
	}
}

func TestExtractArgs(t *testing.T) {
	args := strings.Join(extractArgs("in.mkv", "out.srt", 2), " ")
	for _, want := range []string{"-i in.mkv", "-map 0:s:2", "-c:s srt", "out.srt", "-y"} {
		if !strings.Contains(args, want) {
			t.Errorf("args %q missing %q", args, want)
		}
	}
}

func TestSubtitleStreamsMissingFile(t *testing.T) {
	p := NewProcessor(t.TempDir())
	if _, err := p.SubtitleStreams(context.Background(), filepath.Join(t.TempDir(), "nope.mkv")); err == nil {
		t.Error("expected error for missing file")
	}
	if err := p.ExtractSubtitles(context.Background(), "nope.mkv", "out.srt", 0); err == nil {
		t.Error("expected error for missing file")
	}
}

// Integration test: only runs if ffmpeg is on PATH
func TestExtractSubtitlesIntegration(t *testing.T) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not found; skipping integration test")
	}
	if _, err := exec.LookPath("ffprobe"); err != nil {
		t.Skip("ffprobe not found; skipping integration test")
	}

	dir := t.TempDir()
	srt := filepath.Join(dir, "in.srt")
	mkv := filepath.Join(dir, "in.mkv")
	if err := writeFile(srt, "1\n00:00:00,500 --> 00:00:01,500\nHello\n\n"); err != nil {
		t.Fatal(err)
	}

	cmd := exec.Command("ffmpeg", "-y",
		"-f", "lavfi", "-i", "color=c=black:s=64x64:d=2",
		"-i", srt,
		"-c:v", "libx264", "-c:s", "srt",
		mkv,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Skipf("could not build test video: %v: %s", err, out)
	}

	p := NewProcessor(dir)
	streams, err := p.SubtitleStreams(context.Background(), mkv)
	if err != nil {
		t.Fatalf("SubtitleStreams error: %v", err)
	}
	stream, ok := FirstTextStream(streams)
	if !ok {
		t.Fatalf("no text stream in %+v", streams)
	}

	out := filepath.Join(dir, "out.srt")
	if err := p.ExtractSubtitles(context.Background(), mkv, out, stream.SubtitleIndex); err != nil {
		t.Fatalf("ExtractSubtitles error: %v", err)
	}
	if !fileHasText(t, out, "Hello") {
		t.Error("extracted track missing caption text")
	}
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0644)
}

func fileHasText(t *testing.T, path, text string) bool {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return strings.Contains(string(data), text)
}
