// Package pipeline wires segmentation, chunked analysis and JSON output
// together so every entry point produces the same document.
package pipeline

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/mgpai22/scenesage/internal/analyze"
	"github.com/mgpai22/scenesage/internal/config"
	"github.com/mgpai22/scenesage/internal/describe"
	"github.com/mgpai22/scenesage/internal/llm"
	"github.com/mgpai22/scenesage/internal/logging"
	"github.com/mgpai22/scenesage/internal/scene"
	"github.com/mgpai22/scenesage/internal/subtitle"
)

type Runner struct {
	cfg       *config.Config
	analyzer  *analyze.Analyzer
	describer *describe.Describer
	logger    *logging.Logger
}

// New validates cfg and prepares a runner around client. No model call is
// made until Run.
func New(cfg *config.Config, client llm.Client, logger *logging.Logger) (*Runner, error) {
	logger = logging.OrNop(logger)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	analyzer, err := analyze.New(analyze.Options{
		ChunkSize:   cfg.Scenes.ChunkSize,
		Overlap:     cfg.Scenes.Overlap,
		Concurrency: cfg.Scenes.Concurrency,
		Logger:      logger,
	})
	if err != nil {
		return nil, err
	}

	describer, err := describe.New(client, describe.Options{Logger: logger})
	if err != nil {
		return nil, err
	}

	return &Runner{
		cfg:       cfg,
		analyzer:  analyzer,
		describer: describer,
		logger:    logger,
	}, nil
}

// NewClient builds the model client for cfg's model, failing before any
// network use when its API key is missing.
func NewClient(ctx context.Context, cfg *config.Config) (llm.Client, error) {
	if err := cfg.ValidateCredentials(); err != nil {
		return nil, err
	}

	provider := cfg.Provider()
	client, err := llm.Factory(ctx, provider, cfg.APIKey(provider), cfg.LLMOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to create %s client: %w", provider, err)
	}

	return llm.NewRateLimited(client, cfg.Model.RequestsPerSecond, cfg.Model.Burst), nil
}

// Segment sorts a copy of captions by start time and splits it into scenes.
func Segment(captions []subtitle.Caption, minPause time.Duration) ([]scene.Scene, error) {
	sorted := slices.Clone(captions)
	track := subtitle.Track{Captions: sorted}
	track.Sort()
	return scene.Segment(track.Captions, minPause)
}

func (r *Runner) Segment(captions []subtitle.Caption) ([]scene.Scene, error) {
	return Segment(captions, r.cfg.MinPauseDuration())
}

// Run segments captions and analyzes every chunk of scenes. On error no
// results are returned.
func (r *Runner) Run(ctx context.Context, captions []subtitle.Caption) ([]scene.AnalyzedScene, error) {
	scenes, err := r.Segment(captions)
	if err != nil {
		return nil, err
	}

	r.logger.Infow("Detected scenes",
		"captions", len(captions),
		"scenes", len(scenes),
		"min_pause", r.cfg.MinPauseDuration(),
	)

	started := time.Now()
	results, err := r.analyzer.Analyze(ctx, scenes, r.describer.Describe)
	if err != nil {
		return nil, fmt.Errorf("analysis failed: %w", err)
	}

	r.logger.Infow("Analysis complete",
		"results", len(results),
		"elapsed", time.Since(started).Round(time.Millisecond),
	)

	return results, nil
}
