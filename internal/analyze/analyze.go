// Package analyze runs a per-scene analysis over overlapping chunks of
// scenes. Chunks are processed one after another; the scenes inside a chunk
// are analyzed concurrently and gathered back in scene order.
package analyze

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/mgpai22/scenesage/internal/config"
	"github.com/mgpai22/scenesage/internal/logging"
	"github.com/mgpai22/scenesage/internal/scene"
)

// AnalyzeFunc analyzes a single scene. It is called from several goroutines
// at once.
type AnalyzeFunc func(ctx context.Context, s scene.Scene) (scene.AnalyzedScene, error)

type Options struct {
	ChunkSize int
	Overlap   int
	// upper bound on concurrent AnalyzeFunc calls; 0 means the chunk size
	Concurrency int
	Logger      *logging.Logger
}

type Analyzer struct {
	chunkSize   int
	overlap     int
	concurrency int
	logger      *logging.Logger
}

// SceneError reports the scene whose analysis failed the run.
type SceneError struct {
	// zero-based chunk number
	Chunk int
	// position of the scene in the input
	Index int
	Err   error
}

func (e *SceneError) Error() string {
	return fmt.Sprintf("chunk %d: scene %d: %v", e.Chunk+1, e.Index+1, e.Err)
}

func (e *SceneError) Unwrap() error {
	return e.Err
}

func New(opts Options) (*Analyzer, error) {
	if err := config.ValidateChunking(opts.ChunkSize, opts.Overlap); err != nil {
		return nil, err
	}
	if opts.Concurrency < 0 {
		return nil, config.Invalid("concurrency", opts.Concurrency, "must not be negative")
	}

	return &Analyzer{
		chunkSize:   opts.ChunkSize,
		overlap:     opts.Overlap,
		concurrency: opts.Concurrency,
		logger:      logging.OrNop(opts.Logger),
	}, nil
}

// Analyze applies fn to every scene of every chunk and concatenates the
// chunk results. Scenes shared by two chunks are analyzed once per chunk and
// appear once per chunk in the output. The first failure aborts the run and
// nothing is returned.
func (a *Analyzer) Analyze(
	ctx context.Context,
	scenes []scene.Scene,
	fn AnalyzeFunc,
) ([]scene.AnalyzedScene, error) {
	windows := Windows(len(scenes), a.chunkSize, a.overlap)

	total := 0
	for _, w := range windows {
		total += w.Len()
	}
	out := make([]scene.AnalyzedScene, 0, total)

	for i, w := range windows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		a.logger.Infow("Analyzing chunk",
			"chunk", i+1,
			"of", len(windows),
			"scenes", fmt.Sprintf("%d-%d", w.Start+1, w.End),
		)

		results, err := a.analyzeChunk(ctx, i, w, scenes, fn)
		if err != nil {
			return nil, err
		}
		out = append(out, results...)
	}

	a.logger.Debugw("Analysis finished", "scenes", len(scenes), "results", len(out))

	return out, nil
}

func (a *Analyzer) workers(w Window) int {
	n := a.concurrency
	if n <= 0 || n > w.Len() {
		n = w.Len()
	}
	return n
}

// analyzeChunk fans the chunk's scenes out to a bounded set of workers and
// waits for all of them.
func (a *Analyzer) analyzeChunk(
	ctx context.Context,
	chunk int,
	w Window,
	scenes []scene.Scene,
	fn AnalyzeFunc,
) ([]scene.AnalyzedScene, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type sceneResult struct {
		Index  int
		Result scene.AnalyzedScene
		Error  error
	}

	workChan := make(chan int)
	resultChan := make(chan sceneResult, w.Len())

	var wg sync.WaitGroup
	for i := 0; i < a.workers(w); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case idx, ok := <-workChan:
					if !ok {
						return
					}
					if ctx.Err() != nil {
						return
					}

					result, err := fn(ctx, scenes[idx])
					if err != nil {
						cancel()
					}
					resultChan <- sceneResult{
						Index:  idx,
						Result: result,
						Error:  err,
					}
				}
			}
		}()
	}

	go func() {
		defer close(workChan)
		for idx := w.Start; idx < w.End; idx++ {
			select {
			case <-ctx.Done():
				return
			case workChan <- idx:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	results := make([]scene.AnalyzedScene, w.Len())
	received := 0
	var firstErr *SceneError
	for result := range resultChan {
		if result.Error != nil {
			// calls cut short by the cancel below must not hide the real cause
			if firstErr == nil || (isCancellation(firstErr.Err) && !isCancellation(result.Error)) {
				firstErr = &SceneError{
					Chunk: chunk,
					Index: result.Index,
					Err:   result.Error,
				}
			}
			cancel()
			continue
		}
		results[result.Index-w.Start] = result.Result
		received++
	}

	if firstErr != nil {
		return nil, firstErr
	}
	if received != w.Len() {
		// only a cancelled parent context stops work without an error
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("chunk %d: %w", chunk+1, err)
		}
		return nil, fmt.Errorf("chunk %d: %d of %d scenes analyzed", chunk+1, received, w.Len())
	}

	return results, nil
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled)
}
