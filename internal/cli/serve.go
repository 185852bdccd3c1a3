package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mgpai22/scenesage/internal/server"
	"github.com/mgpai22/scenesage/internal/video"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the upload form and JSON API",
	Long: `Start a web server with an upload form at / and a JSON API at
POST /api/analyze. Form fields override the loaded configuration for that
request only; API keys may come from the environment or the form.

Examples:
  scenesage serve
  scenesage serve --addr 127.0.0.1:9000 -c scenesage.yaml`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().
		String("addr", "", "Listen address (default from config, :8080)")
	serveCmd.Flags().
		Int("max-upload-mb", 0, "Maximum upload size in megabytes (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runCfg := cfg.Clone()
	applyFlags(cmd, runCfg)
	if cmd.Flags().Changed("max-upload-mb") {
		runCfg.Server.MaxUploadMB, _ = cmd.Flags().GetInt("max-upload-mb")
	}
	if err := runCfg.Validate(); err != nil {
		return err
	}

	tempDir, err := os.MkdirTemp("", "scenesage-server-*")
	if err != nil {
		return fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer func() {
		_ = os.RemoveAll(tempDir)
	}()

	srv := server.New(runCfg, server.Options{
		Processor: video.NewProcessor(tempDir),
		Logger:    logger,
	})
	return srv.Run(ctx)
}
