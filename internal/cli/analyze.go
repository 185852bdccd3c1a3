package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mgpai22/scenesage/internal/config"
	"github.com/mgpai22/scenesage/internal/pipeline"
	"github.com/mgpai22/scenesage/internal/scene"
	"github.com/mgpai22/scenesage/internal/video"
)

const defaultOutput = "scenes.json"

var analyzeCmd = &cobra.Command{
	Use:   "analyze [subtitle_or_video_file]",
	Short: "Detect and describe the scenes of a subtitle track",
	Long: `Split a subtitle track into scenes wherever the gap between two captions
reaches the minimum pause, then ask a language model to describe every scene.

Scenes are analyzed in overlapping chunks; the scenes of a chunk are analyzed
concurrently. Scenes shared by two chunks appear twice in the output.

The model's provider is picked from its name: gemini-* uses Google Gemini,
claude-* uses Anthropic and anything else uses OpenAI.

The JSON file is only written when every scene was analyzed.

Examples:
  scenesage analyze movie.srt
  scenesage analyze movie.srt -o plan9.json --min-pause 6
  scenesage analyze movie.mkv --model gemini-2.0-flash --chunk-size 8 --overlap 3
  scenesage analyze movie.vtt -o - --temperature 0.2`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	addModelFlags(analyzeCmd)
	addSceneFlags(analyzeCmd)
	addChunkFlags(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	inputPath := args[0]

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := os.Stat(inputPath); os.IsNotExist(err) {
		return fmt.Errorf("file not found: %s", inputPath)
	}

	outputPath, _ := cmd.Flags().GetString("output")
	if outputPath == "" {
		outputPath = defaultOutput
	}

	runCfg := cfg.Clone()
	applyFlags(cmd, runCfg)

	runner, err := newRunner(ctx, runCfg)
	if err != nil {
		return err
	}

	logger.Infow("Starting scene analysis",
		"input", inputPath,
		"output", outputPath,
		"model", runCfg.Model.Name,
		"min_pause", runCfg.Scenes.MinPause,
		"chunk_size", runCfg.Scenes.ChunkSize,
		"overlap", runCfg.Scenes.Overlap,
	)

	tempDir, err := os.MkdirTemp("", "scenesage-*")
	if err != nil {
		return fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer func() {
		_ = os.RemoveAll(tempDir)
	}()

	results, err := analyzeFile(ctx, runner, video.NewProcessor(tempDir), inputPath)
	if err != nil {
		return err
	}

	if outputPath == "-" {
		return pipeline.Encode(cmd.OutOrStdout(), results)
	}
	if err := pipeline.WriteFile(outputPath, results); err != nil {
		return err
	}

	absOutput, _ := filepath.Abs(outputPath)
	fmt.Fprintf(cmd.OutOrStdout(), "Analysis complete! %d scenes saved to %s\n", len(results), absOutput)
	return nil
}

// newRunner checks the configuration and credentials before building the
// model client.
func newRunner(ctx context.Context, c *config.Config) (*pipeline.Runner, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	client, err := pipeline.NewClient(ctx, c)
	if err != nil {
		return nil, err
	}
	return pipeline.New(c, client, logger)
}

func analyzeFile(
	ctx context.Context,
	runner *pipeline.Runner,
	proc *video.Processor,
	inputPath string,
) ([]scene.AnalyzedScene, error) {
	captions, err := pipeline.LoadCaptions(ctx, inputPath, proc)
	if err != nil {
		return nil, err
	}
	logger.Infow("Loaded captions", "input", inputPath, "captions", len(captions))

	return runner.Run(ctx, captions)
}
