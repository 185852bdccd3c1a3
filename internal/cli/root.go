package cli

import (
	"github.com/spf13/cobra"

	"github.com/mgpai22/scenesage/internal/config"
	"github.com/mgpai22/scenesage/internal/logging"
)

var (
	verbose    bool
	configPath string
	logger     *logging.Logger
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "scenesage",
	Short: "AI-powered scene analysis for subtitles",
	Long: `SceneSage splits a subtitle track into scenes at long pauses and asks a
language model to describe each scene: a summary, the characters involved,
the mood and any cultural references.

It reads SRT, VTT and ASS files, or the text subtitle track of a video, and
writes the analysis as JSON.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
		logger = logging.NewLogger(verbose || cfg.Logging.Verbose)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			logger.Sync()
		}
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().
		BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		StringVarP(&configPath, "config", "c", "", "Config file (.yaml, .yml or .toml)")
	rootCmd.PersistentFlags().StringP("output", "o", "", "Output file path")
}
