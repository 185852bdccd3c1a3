// Package watch analyzes caption and video files as they land in a directory.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/mgpai22/scenesage/internal/logging"
	"github.com/mgpai22/scenesage/internal/pipeline"
)

const (
	DefaultDebounce = 500 * time.Millisecond
	outputSuffix    = ".scenes.json"
)

// Handler processes one file. Errors are logged and the watcher moves on.
type Handler func(ctx context.Context, path string) error

type Options struct {
	// quiet period after the last write before a file is handled
	Debounce time.Duration
	// defaults to pipeline.IsSupported
	Filter func(path string) bool
	Logger *logging.Logger
}

type Watcher struct {
	dir      string
	handler  Handler
	debounce time.Duration
	filter   func(string) bool
	logger   *logging.Logger
	watcher  *fsnotify.Watcher
}

func New(dir string, handler Handler, opts Options) (*Watcher, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("watch directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("watch directory: %s is not a directory", dir)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fw.Add(dir); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("add watch path: %w", err)
	}

	w := &Watcher{
		dir:      dir,
		handler:  handler,
		debounce: opts.Debounce,
		filter:   opts.Filter,
		logger:   logging.OrNop(opts.Logger),
		watcher:  fw,
	}
	if w.debounce <= 0 {
		w.debounce = DefaultDebounce
	}
	if w.filter == nil {
		w.filter = pipeline.IsSupported
	}
	return w, nil
}

// Run handles the files already in the directory, then every supported file
// that is created or written, one at a time, until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() {
		_ = w.watcher.Close()
	}()

	w.logger.Infow("Watching directory", "dir", w.dir, "debounce", w.debounce)

	existing, err := w.existing()
	if err != nil {
		return err
	}
	for _, path := range existing {
		if ctx.Err() != nil {
			return nil
		}
		w.handle(ctx, path)
	}

	pending := make(map[string]time.Time)
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Infow("Watcher stopped", "dir", w.dir)
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !w.accept(event.Name) {
				w.logger.Debugw("Ignoring file", "path", event.Name)
				continue
			}
			pending[event.Name] = time.Now().Add(w.debounce)
			timer.Reset(w.debounce)

		case <-timer.C:
			now := time.Now()
			var due []string
			for path, at := range pending {
				if !at.After(now) {
					due = append(due, path)
				}
			}
			slices.Sort(due)
			for _, path := range due {
				delete(pending, path)
				if ctx.Err() != nil {
					return nil
				}
				w.handle(ctx, path)
			}
			if next, ok := earliest(pending); ok {
				timer.Reset(time.Until(next))
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Errorw("Watcher error", "error", err)
		}
	}
}

func (w *Watcher) handle(ctx context.Context, path string) {
	if _, err := os.Stat(path); err != nil {
		w.logger.Debugw("File vanished before processing", "path", path)
		return
	}

	w.logger.Infow("Processing file", "path", path)
	started := time.Now()
	if err := w.handler(ctx, path); err != nil {
		w.logger.Errorw("Failed to process file", "path", path, "error", err)
		return
	}
	w.logger.Infow("Processed file", "path", path, "elapsed", time.Since(started).Round(time.Millisecond))
}

func (w *Watcher) accept(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, outputSuffix) {
		return false
	}
	return w.filter(path)
}

func (w *Watcher) existing() ([]string, error) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return nil, fmt.Errorf("read watch directory: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(w.dir, e.Name())
		if w.accept(path) {
			paths = append(paths, path)
		}
	}
	return paths, nil
}

func earliest(pending map[string]time.Time) (time.Time, bool) {
	var (
		first time.Time
		found bool
	)
	for _, at := range pending {
		if !found || at.Before(first) {
			first, found = at, true
		}
	}
	return first, found
}

// OutputPath is where the scenes for input are written: <outDir>/<name>.scenes.json.
func OutputPath(outDir, input string) string {
	base := filepath.Base(input)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(outDir, name+outputSuffix)
}
