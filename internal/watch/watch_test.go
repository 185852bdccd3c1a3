package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const srt = "1\n00:00:01,000 --> 00:00:02,000\nHello\n"

func recordTo(ch chan<- string) Handler {
	return func(_ context.Context, path string) error {
		ch <- filepath.Base(path)
		return nil
	}
}

func startWatcher(t *testing.T, dir string, handler Handler) (cancel func(), done <-chan error) {
	t.Helper()

	w, err := New(dir, handler, Options{Debounce: 50 * time.Millisecond})
	require.NoError(t, err)

	ctx, stop := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- w.Run(ctx)
	}()
	return stop, errCh
}

func receive(t *testing.T, ch <-chan string) string {
	t.Helper()
	select {
	case name := <-ch:
		return name
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for handler")
		return ""
	}
}

func TestRunHandlesExistingFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.srt"), []byte(srt), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.vtt"), []byte("WEBVTT\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.scenes.json"), []byte("[]"), 0644))

	calls := make(chan string, 10)
	cancel, done := startWatcher(t, dir, recordTo(calls))

	assert.Equal(t, "a.vtt", receive(t, calls))
	assert.Equal(t, "b.srt", receive(t, calls))

	cancel()
	assert.NoError(t, <-done)
	assert.Empty(t, calls)
}

func TestRunHandlesNewFilesOnce(t *testing.T) {
	dir := t.TempDir()
	calls := make(chan string, 10)
	cancel, done := startWatcher(t, dir, recordTo(calls))
	defer func() {
		cancel()
		<-done
	}()

	// let the watcher reach its event loop
	time.Sleep(100 * time.Millisecond)

	path := filepath.Join(dir, "movie.srt")
	f, err := os.Create(path)
	require.NoError(t, err)
	_, err = f.WriteString(srt[:10])
	require.NoError(t, err)
	_, err = f.WriteString(srt[10:])
	require.NoError(t, err)
	require.NoError(t, f.Close())

	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignored.txt"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".movie.scenes.json.123.tmp"), []byte("x"), 0644))

	assert.Equal(t, "movie.srt", receive(t, calls))

	select {
	case name := <-calls:
		t.Fatalf("unexpected second call for %s", name)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestRunContinuesAfterHandlerError(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.srt"), []byte(srt), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.srt"), []byte(srt), 0644))

	calls := make(chan string, 10)
	handler := func(_ context.Context, path string) error {
		calls <- filepath.Base(path)
		if filepath.Base(path) == "a.srt" {
			return errors.New("boom")
		}
		return nil
	}

	cancel, done := startWatcher(t, dir, handler)
	assert.Equal(t, "a.srt", receive(t, calls))
	assert.Equal(t, "b.srt", receive(t, calls))
	cancel()
	assert.NoError(t, <-done)
}

func TestNewRejectsMissingDirectory(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing"), recordTo(nil), Options{})
	assert.Error(t, err)

	file := filepath.Join(t.TempDir(), "file.srt")
	require.NoError(t, os.WriteFile(file, []byte(srt), 0644))
	_, err = New(file, recordTo(nil), Options{})
	assert.Error(t, err)
}

func TestOutputPath(t *testing.T) {
	assert.Equal(t, filepath.Join("out", "movie.scenes.json"), OutputPath("out", "/in/movie.srt"))
	assert.Equal(t, filepath.Join("out", "clip.v2.scenes.json"), OutputPath("out", "clip.v2.mkv"))
}

func TestEarliest(t *testing.T) {
	_, ok := earliest(nil)
	assert.False(t, ok)

	now := time.Now()
	got, ok := earliest(map[string]time.Time{"a": now.Add(time.Second), "b": now})
	assert.True(t, ok)
	assert.Equal(t, now, got)
}
