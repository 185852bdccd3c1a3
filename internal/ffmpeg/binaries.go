// Package ffmpeg locates the ffmpeg and ffprobe executables, installing a
// prebuilt bundle into the user cache when they are not on the system.
package ffmpeg

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync"
	"time"
)

const (
	ffmpegReleaseVersion = "6.1"
	ffmpegReleaseBaseURL = "https://github.com/ffbinaries/ffbinaries-prebuilt/releases/download"

	envFFmpegPath  = "SCENESAGE_FFMPEG_PATH"
	envFFprobePath = "SCENESAGE_FFPROBE_PATH"
	envNoDownload  = "SCENESAGE_FFMPEG_NO_DOWNLOAD"
	cacheDirName   = "scenesage"

	downloadTimeout = 5 * time.Minute
)

type BinaryPaths struct {
	FFmpeg  string
	FFprobe string
}

var (
	ensureOnce sync.Once
	ensureErr  error
	ensurePath BinaryPaths
)

// Ensure resolves the binaries once per process.
func Ensure() (BinaryPaths, error) {
	ensureOnce.Do(func() {
		ensurePath, ensureErr = ensure()
	})
	return ensurePath, ensureErr
}

func FFmpegPath() (string, error) {
	paths, err := Ensure()
	if err != nil {
		return "", err
	}
	return paths.FFmpeg, nil
}

func FFprobePath() (string, error) {
	paths, err := Ensure()
	if err != nil {
		return "", err
	}
	return paths.FFprobe, nil
}

// ensure resolves binaries in order: environment overrides, PATH, the user
// cache, the embedded bundle, and finally a download into the cache.
func ensure() (BinaryPaths, error) {
	paths := lookup(os.Getenv(envFFmpegPath), os.Getenv(envFFprobePath), exec.LookPath)
	if paths.complete() {
		return paths, nil
	}

	assetName, err := assetForPlatform(runtime.GOOS, runtime.GOARCH)
	if err != nil {
		return BinaryPaths{}, err
	}

	installDir := cacheInstallDir(runtime.GOOS, runtime.GOARCH)
	cached := BinaryPaths{
		FFmpeg:  filepath.Join(installDir, "ffmpeg"+executableSuffix()),
		FFprobe: filepath.Join(installDir, "ffprobe"+executableSuffix()),
	}
	if binariesExist(cached.FFmpeg, cached.FFprobe) {
		return cached, nil
	}

	if err := os.MkdirAll(installDir, 0o755); err != nil {
		return BinaryPaths{}, fmt.Errorf("create ffmpeg cache dir: %w", err)
	}

	embeddedUsed, err := extractEmbedded(assetName, installDir)
	if err != nil {
		return BinaryPaths{}, err
	}
	if !embeddedUsed {
		if err := downloadAndExtract(assetName, installDir); err != nil {
			return BinaryPaths{}, err
		}
	}

	if !binariesExist(cached.FFmpeg, cached.FFprobe) {
		return BinaryPaths{}, errors.New("ffmpeg binaries not found after extraction")
	}
	if err := makeExecutable(cached); err != nil {
		return BinaryPaths{}, err
	}

	return cached, nil
}

// lookup fills missing overrides from PATH. The result may be incomplete.
func lookup(ffmpegPath, ffprobePath string, lookPath func(string) (string, error)) BinaryPaths {
	if ffmpegPath == "" {
		if found, err := lookPath("ffmpeg"); err == nil {
			ffmpegPath = found
		}
	}
	if ffprobePath == "" {
		if found, err := lookPath("ffprobe"); err == nil {
			ffprobePath = found
		}
	}
	return BinaryPaths{FFmpeg: ffmpegPath, FFprobe: ffprobePath}
}

func (p BinaryPaths) complete() bool {
	return p.FFmpeg != "" && p.FFprobe != ""
}

func cacheInstallDir(goos, goarch string) string {
	cacheDir, err := os.UserCacheDir()
	if err != nil || cacheDir == "" {
		cacheDir = os.TempDir()
	}
	return filepath.Join(
		cacheDir,
		cacheDirName,
		"ffmpeg",
		ffmpegReleaseVersion,
		goos,
		goarch,
	)
}

func makeExecutable(paths BinaryPaths) error {
	if runtime.GOOS == "windows" {
		return nil
	}
	if err := os.Chmod(paths.FFmpeg, 0o755); err != nil {
		return fmt.Errorf("chmod ffmpeg: %w", err)
	}
	if err := os.Chmod(paths.FFprobe, 0o755); err != nil {
		return fmt.Errorf("chmod ffprobe: %w", err)
	}
	return nil
}

func assetForPlatform(goos, goarch string) (string, error) {
	switch {
	case goos == "linux" && goarch == "amd64":
		return "ffmpeg-" + ffmpegReleaseVersion + "-linux-64.zip", nil
	case goos == "linux" && goarch == "arm64":
		return "ffmpeg-" + ffmpegReleaseVersion + "-linux-arm-64.zip", nil
	case goos == "darwin" && goarch == "amd64":
		return "ffmpeg-" + ffmpegReleaseVersion + "-macos-64.zip", nil
	case goos == "windows" && goarch == "amd64":
		return "ffmpeg-" + ffmpegReleaseVersion + "-win-64.zip", nil
	default:
		return "", fmt.Errorf("unsupported platform for bundled ffmpeg: %s/%s", goos, goarch)
	}
}

func downloadAndExtract(assetName, installDir string) error {
	if os.Getenv(envNoDownload) != "" {
		return fmt.Errorf("ffmpeg not found and %s is set; install ffmpeg or set %s", envNoDownload, envFFmpegPath)
	}

	url := fmt.Sprintf("%s/v%s/%s", ffmpegReleaseBaseURL, ffmpegReleaseVersion, assetName)
	client := &http.Client{Timeout: downloadTimeout}
	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("download ffmpeg bundle: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download ffmpeg bundle: unexpected status %s", resp.Status)
	}

	return installFromArchive(assetName, resp.Body, installDir)
}

func extractEmbedded(assetName, installDir string) (bool, error) {
	reader, ok, err := openEmbeddedAsset(assetName)
	if err != nil || !ok {
		return ok, err
	}
	defer func() { _ = reader.Close() }()

	return true, installFromArchive(assetName, reader, installDir)
}

// installFromArchive spools a zip bundle to disk (zip needs random access)
// and installs the two binaries it contains.
func installFromArchive(assetName string, r io.Reader, installDir string) error {
	spool, err := os.CreateTemp("", cacheDirName+"-ffmpeg-*.zip")
	if err != nil {
		return fmt.Errorf("create temp archive: %w", err)
	}
	defer func() {
		_ = spool.Close()
		_ = os.Remove(spool.Name())
	}()

	size, err := io.Copy(spool, r)
	if err != nil {
		return fmt.Errorf("write archive: %w", err)
	}

	archive, err := zip.NewReader(spool, size)
	if err != nil {
		return fmt.Errorf("open %s: %w", assetName, err)
	}
	if err := installBinaries(archive, installDir); err != nil {
		return fmt.Errorf("extract %s: %w", assetName, err)
	}
	return nil
}

// installBinaries copies ffmpeg and ffprobe out of archive. Each binary is
// written next to its destination and renamed into place, so an interrupted
// install never leaves a truncated executable in the cache.
func installBinaries(archive *zip.Reader, installDir string) error {
	wanted := map[string]string{
		"ffmpeg":  filepath.Join(installDir, "ffmpeg"+executableSuffix()),
		"ffprobe": filepath.Join(installDir, "ffprobe"+executableSuffix()),
	}

	for _, file := range archive.File {
		name := binaryName(filepath.Base(file.Name))
		dest, ok := wanted[name]
		if !ok {
			continue
		}
		if err := installZipEntry(file, dest); err != nil {
			return err
		}
		delete(wanted, name)
	}

	if len(wanted) > 0 {
		missing := make([]string, 0, len(wanted))
		for name := range wanted {
			missing = append(missing, name)
		}
		slices.Sort(missing)
		return fmt.Errorf("archive missing %s", strings.Join(missing, ", "))
	}
	return nil
}

func installZipEntry(file *zip.File, dest string) error {
	src, err := file.Open()
	if err != nil {
		return fmt.Errorf("open archive entry %s: %w", file.Name, err)
	}
	defer func() { _ = src.Close() }()

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("create ffmpeg output dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".*")
	if err != nil {
		return fmt.Errorf("create %s: %w", dest, err)
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	if _, err := io.Copy(tmp, src); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", dest, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write %s: %w", dest, err)
	}
	return os.Rename(tmpPath, dest)
}

func binariesExist(ffmpegPath, ffprobePath string) bool {
	return fileExists(ffmpegPath) && fileExists(ffprobePath)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir() && info.Size() > 0
}

// binaryName maps an archive entry to "ffmpeg" or "ffprobe", or "".
func binaryName(entry string) string {
	name := strings.TrimSuffix(strings.ToLower(entry), ".exe")
	switch name {
	case "ffmpeg", "ffprobe":
		return name
	default:
		return ""
	}
}

func executableSuffix() string {
	if runtime.GOOS == "windows" {
		return ".exe"
	}
	return ""
}
