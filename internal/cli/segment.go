package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mgpai22/scenesage/internal/config"
	"github.com/mgpai22/scenesage/internal/pipeline"
	"github.com/mgpai22/scenesage/internal/scene"
	"github.com/mgpai22/scenesage/internal/subtitle"
	"github.com/mgpai22/scenesage/internal/video"
)

var segmentCmd = &cobra.Command{
	Use:   "segment [subtitle_or_video_file]",
	Short: "Split a subtitle track into scenes without calling a model",
	Long: `Split a subtitle track into scenes at long pauses and print them.

Useful for tuning --min-pause before paying for analysis. JSON output uses
the same start, end and transcript keys as analyze; srt and vtt output write
one cue per scene.

Examples:
  scenesage segment movie.srt
  scenesage segment movie.srt --min-pause 6 -f srt -o scenes.srt`,
	Args: cobra.ExactArgs(1),
	RunE: runSegment,
}

func init() {
	rootCmd.AddCommand(segmentCmd)

	addSceneFlags(segmentCmd)
	segmentCmd.Flags().
		StringP("format", "f", "json", "Output format (json, srt, vtt)")
}

func runSegment(cmd *cobra.Command, args []string) error {
	inputPath := args[0]
	ctx := context.Background()

	if _, err := os.Stat(inputPath); os.IsNotExist(err) {
		return fmt.Errorf("file not found: %s", inputPath)
	}

	formatStr, _ := cmd.Flags().GetString("format")
	outputPath, _ := cmd.Flags().GetString("output")

	format := strings.ToLower(strings.TrimSpace(formatStr))
	switch format {
	case "json", "srt", "vtt":
	default:
		return fmt.Errorf("unsupported format %q: use json, srt, or vtt", formatStr)
	}

	runCfg := cfg.Clone()
	applyFlags(cmd, runCfg)
	if runCfg.Scenes.MinPause < 0 {
		return config.Invalid("min_pause", runCfg.Scenes.MinPause, "must not be negative")
	}

	tempDir, err := os.MkdirTemp("", "scenesage-*")
	if err != nil {
		return fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer func() {
		_ = os.RemoveAll(tempDir)
	}()

	captions, err := pipeline.LoadCaptions(ctx, inputPath, video.NewProcessor(tempDir))
	if err != nil {
		return err
	}

	scenes, err := pipeline.Segment(captions, runCfg.MinPauseDuration())
	if err != nil {
		return err
	}

	logger.Infow("Detected scenes",
		"captions", len(captions),
		"scenes", len(scenes),
		"min_pause", runCfg.Scenes.MinPause,
	)

	return writeScenes(cmd, scenes, format, outputPath)
}

func writeScenes(cmd *cobra.Command, scenes []scene.Scene, format, outputPath string) error {
	if format == "json" {
		if outputPath == "" || outputPath == "-" {
			return pipeline.EncodeScenes(cmd.OutOrStdout(), scenes)
		}
		f, err := os.Create(outputPath)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		if err := pipeline.EncodeScenes(f, scenes); err != nil {
			_ = f.Close()
			return err
		}
		return f.Close()
	}

	track := scene.ToTrack(scenes)
	subFormat := subtitle.Format(format)
	if outputPath == "" || outputPath == "-" {
		w, err := subtitle.NewWriter(subFormat)
		if err != nil {
			return err
		}
		return w.Write(cmd.OutOrStdout(), track)
	}
	return subtitle.WriteFile(outputPath, track, subFormat)
}
