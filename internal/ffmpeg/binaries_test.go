package ffmpeg

import (
	"archive/zip"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLookupPrefersOverrides(t *testing.T) {
	lookPath := func(name string) (string, error) {
		return "/usr/bin/" + name, nil
	}

	got := lookup("/opt/ffmpeg", "", lookPath)
	if got.FFmpeg != "/opt/ffmpeg" {
		t.Errorf("FFmpeg = %q, want override", got.FFmpeg)
	}
	if got.FFprobe != "/usr/bin/ffprobe" {
		t.Errorf("FFprobe = %q, want PATH result", got.FFprobe)
	}
	if !got.complete() {
		t.Error("expected complete paths")
	}
}

func TestLookupMissingBinaries(t *testing.T) {
	lookPath := func(name string) (string, error) {
		if name == "ffmpeg" {
			return "/usr/bin/ffmpeg", nil
		}
		return "", errors.New("not found")
	}

	got := lookup("", "", lookPath)
	if got.complete() {
		t.Errorf("expected incomplete paths, got %+v", got)
	}
}

func TestEnsureUsesEnvironment(t *testing.T) {
	t.Setenv(envFFmpegPath, "/custom/ffmpeg")
	t.Setenv(envFFprobePath, "/custom/ffprobe")

	got, err := ensure()
	if err != nil {
		t.Fatalf("ensure() error: %v", err)
	}
	if got.FFmpeg != "/custom/ffmpeg" || got.FFprobe != "/custom/ffprobe" {
		t.Errorf("ensure() = %+v, want environment paths", got)
	}
}

func TestAssetForPlatform(t *testing.T) {
	tests := []struct {
		goos, goarch string
		want         string
		wantErr      bool
	}{
		{goos: "linux", goarch: "amd64", want: "ffmpeg-6.1-linux-64.zip"},
		{goos: "linux", goarch: "arm64", want: "ffmpeg-6.1-linux-arm-64.zip"},
		{goos: "darwin", goarch: "amd64", want: "ffmpeg-6.1-macos-64.zip"},
		{goos: "windows", goarch: "amd64", want: "ffmpeg-6.1-win-64.zip"},
		{goos: "plan9", goarch: "386", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.goos+"/"+tt.goarch, func(t *testing.T) {
			got, err := assetForPlatform(tt.goos, tt.goarch)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("assetForPlatform() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCacheInstallDir(t *testing.T) {
	dir := cacheInstallDir("linux", "amd64")
	want := filepath.Join(cacheDirName, "ffmpeg", ffmpegReleaseVersion, "linux", "amd64")
	if !strings.HasSuffix(dir, want) {
		t.Errorf("cacheInstallDir() = %q, want suffix %q", dir, want)
	}
}

func TestBinaryName(t *testing.T) {
	tests := []struct {
		entry string
		want  string
	}{
		{"ffmpeg", "ffmpeg"},
		{"FFMPEG.exe", "ffmpeg"},
		{"ffprobe", "ffprobe"},
		{"ffmpeg-6.1", ""},
		{"ffplay", ""},
		{"readme.txt", ""},
	}
	for _, tt := range tests {
		if got := binaryName(tt.entry); got != tt.want {
			t.Errorf("binaryName(%q) = %q, want %q", tt.entry, got, tt.want)
		}
	}
}

func zipBundle(t *testing.T, files map[string]string) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range files {
		f, err := w.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := f.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf
}

func TestInstallFromArchive(t *testing.T) {
	dir := t.TempDir()
	bundle := zipBundle(t, map[string]string{
		"bin/ffmpeg":  "ffmpeg-binary",
		"bin/ffprobe": "ffprobe-binary",
		"README":      "docs",
	})

	if err := installFromArchive("bundle.zip", bundle, dir); err != nil {
		t.Fatalf("installFromArchive error: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "ffprobe"+executableSuffix()))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "ffprobe-binary" {
		t.Errorf("ffprobe content = %q", data)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Errorf("expected only the two binaries, got %d entries", len(entries))
	}
}

func TestInstallFromArchiveMissingBinary(t *testing.T) {
	bundle := zipBundle(t, map[string]string{"ffmpeg": "x"})

	err := installFromArchive("bundle.zip", bundle, t.TempDir())
	if err == nil || !strings.Contains(err.Error(), "missing ffprobe") {
		t.Errorf("expected missing ffprobe error, got %v", err)
	}
}

func TestInstallFromArchiveNotZip(t *testing.T) {
	if err := installFromArchive("bundle.zip", strings.NewReader("not a zip"), t.TempDir()); err == nil {
		t.Error("expected error for invalid archive")
	}
}

func TestDownloadDisabled(t *testing.T) {
	t.Setenv(envNoDownload, "1")
	if err := downloadAndExtract("bundle.zip", t.TempDir()); err == nil {
		t.Error("expected error when downloads are disabled")
	}
}

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty")
	full := filepath.Join(dir, "full")
	if err := os.WriteFile(empty, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(full, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	if fileExists(empty) {
		t.Error("empty file should not count as a binary")
	}
	if !fileExists(full) {
		t.Error("expected file to exist")
	}
	if fileExists(dir) {
		t.Error("directory should not count as a binary")
	}
	if !binariesExist(full, full) || binariesExist(full, empty) {
		t.Error("binariesExist mismatch")
	}
}
