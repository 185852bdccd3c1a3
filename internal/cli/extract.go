package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mgpai22/scenesage/internal/video"
)

var extractCmd = &cobra.Command{
	Use:   "extract [video_file]",
	Short: "Extract a text subtitle track from a video file",
	Long: `Extract a subtitle stream from a video file and save it as SRT.

Only text-based streams (subrip, ass, webvtt, mov_text) can be extracted;
image-based tracks such as PGS or VobSub are listed but skipped.

Examples:
  scenesage extract movie.mkv
  scenesage extract movie.mkv --list
  scenesage extract movie.mkv --stream 2 -o english.srt`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().
		Bool("list", false, "List subtitle streams instead of extracting")
	extractCmd.Flags().
		IntP("stream", "s", -1, "Subtitle stream to extract (default: first text stream)")
}

func runExtract(cmd *cobra.Command, args []string) error {
	videoPath := args[0]
	ctx := context.Background()

	if _, err := os.Stat(videoPath); os.IsNotExist(err) {
		return fmt.Errorf("file not found: %s", videoPath)
	}

	list, _ := cmd.Flags().GetBool("list")
	streamIndex, _ := cmd.Flags().GetInt("stream")
	outputPath, _ := cmd.Flags().GetString("output")

	if outputPath == "" {
		outputPath = strings.TrimSuffix(videoPath, filepath.Ext(videoPath)) + ".srt"
	}

	processor := video.NewProcessor("")

	streams, err := processor.SubtitleStreams(ctx, videoPath)
	if err != nil {
		return fmt.Errorf("failed to probe subtitle streams: %w", err)
	}

	if list {
		printStreams(cmd, streams)
		return nil
	}

	stream, err := pickStream(streams, streamIndex)
	if err != nil {
		return err
	}

	logger.Infow("Extracting subtitles",
		"video", videoPath,
		"output", outputPath,
		"stream", stream.SubtitleIndex,
		"codec", stream.Codec,
		"language", stream.Language,
	)

	if err := processor.ExtractSubtitles(ctx, videoPath, outputPath, stream.SubtitleIndex); err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}

	absOutput, _ := filepath.Abs(outputPath)
	fmt.Fprintf(cmd.OutOrStdout(), "Subtitles extracted successfully: %s\n", absOutput)

	return nil
}

func pickStream(streams []video.Stream, index int) (video.Stream, error) {
	if len(streams) == 0 {
		return video.Stream{}, fmt.Errorf("no subtitle streams found")
	}

	if index < 0 {
		stream, ok := video.FirstTextStream(streams)
		if !ok {
			return video.Stream{}, fmt.Errorf("no text subtitle stream found (image-based tracks cannot be analyzed)")
		}
		return stream, nil
	}

	for _, s := range streams {
		if s.SubtitleIndex != index {
			continue
		}
		if !s.TextBased() {
			return video.Stream{}, fmt.Errorf("stream %d (%s) is image-based", index, s.Codec)
		}
		return s, nil
	}
	return video.Stream{}, fmt.Errorf("stream %d not found: the file has %d subtitle streams", index, len(streams))
}

func printStreams(cmd *cobra.Command, streams []video.Stream) {
	out := cmd.OutOrStdout()
	if len(streams) == 0 {
		fmt.Fprintln(out, "No subtitle streams")
		return
	}
	for _, s := range streams {
		kind := "text"
		if !s.TextBased() {
			kind = "image"
		}
		line := fmt.Sprintf("%d: %s (%s)", s.SubtitleIndex, s.Codec, kind)
		if s.Language != "" {
			line += " " + s.Language
		}
		if s.Title != "" {
			line += fmt.Sprintf(" %q", s.Title)
		}
		if s.Default {
			line += " [default]"
		}
		fmt.Fprintln(out, line)
	}
}
