package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mgpai22/scenesage/internal/pipeline"
	"github.com/mgpai22/scenesage/internal/video"
	"github.com/mgpai22/scenesage/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch [directory]",
	Short: "Analyze subtitle and video files as they appear in a directory",
	Long: `Watch a directory and analyze every subtitle or video file already in it,
then every file created or written afterwards. Files are processed one at a
time; each result is written to <out>/<name>.scenes.json.

Examples:
  scenesage watch ./incoming
  scenesage watch ./incoming --out ./analyzed --model gemini-2.0-flash`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	addModelFlags(watchCmd)
	addSceneFlags(watchCmd)
	addChunkFlags(watchCmd)
	watchCmd.Flags().
		String("out", "", "Directory for results (defaults to the watched directory)")
	watchCmd.Flags().
		Duration("debounce", watch.DefaultDebounce, "Quiet period after the last write before a file is analyzed")
}

func runWatch(cmd *cobra.Command, args []string) error {
	dir := args[0]

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	outDir, _ := cmd.Flags().GetString("out")
	debounce, _ := cmd.Flags().GetDuration("debounce")
	if outDir == "" {
		outDir = dir
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	runCfg := cfg.Clone()
	applyFlags(cmd, runCfg)

	runner, err := newRunner(ctx, runCfg)
	if err != nil {
		return err
	}

	tempDir, err := os.MkdirTemp("", "scenesage-*")
	if err != nil {
		return fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer func() {
		_ = os.RemoveAll(tempDir)
	}()
	proc := video.NewProcessor(tempDir)

	handler := func(ctx context.Context, path string) error {
		results, err := analyzeFile(ctx, runner, proc, path)
		if err != nil {
			return err
		}
		outputPath := watch.OutputPath(outDir, path)
		if err := pipeline.WriteFile(outputPath, results); err != nil {
			return err
		}
		logger.Infow("Saved scenes", "input", path, "output", outputPath, "scenes", len(results))
		return nil
	}

	w, err := watch.New(dir, handler, watch.Options{
		Debounce: debounce,
		Logger:   logger,
	})
	if err != nil {
		return err
	}
	return w.Run(ctx)
}
