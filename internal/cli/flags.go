package cli

import (
	"github.com/spf13/cobra"

	"github.com/mgpai22/scenesage/internal/config"
)

// model and scene flags share names with the config file keys; only flags the
// user actually set override the loaded configuration.

func addModelFlags(cmd *cobra.Command) {
	defaults := config.Default()

	cmd.Flags().
		StringP("api-key", "k", "", "API key for the model's provider (or set OPENAI_API_KEY, GEMINI_API_KEY, ANTHROPIC_API_KEY)")
	cmd.Flags().
		StringP("model", "m", defaults.Model.Name, "Model to use (gpt-*, gemini-*, claude-*)")
	cmd.Flags().
		Float64("temperature", defaults.Model.Temperature, "Sampling temperature (0-2)")
	cmd.Flags().
		Int("max-tokens", defaults.Model.MaxTokens, "Maximum tokens per scene analysis")
	cmd.Flags().
		Float64("top-p", defaults.Model.TopP, "Nucleus sampling probability (0-1)")
	cmd.Flags().
		Float64("frequency-penalty", defaults.Model.FrequencyPenalty, "Frequency penalty (-2 to 2)")
	cmd.Flags().
		Float64("presence-penalty", defaults.Model.PresencePenalty, "Presence penalty (-2 to 2)")
	cmd.Flags().
		Float64("rps", defaults.Model.RequestsPerSecond, "Maximum model requests per second (0 for unlimited)")
	cmd.Flags().
		Int("timeout", defaults.Model.TimeoutSeconds, "Per-request model timeout in seconds")
}

func addSceneFlags(cmd *cobra.Command) {
	defaults := config.Default()

	cmd.Flags().
		Int("min-pause", defaults.Scenes.MinPause, "Minimum pause in seconds that starts a new scene")
}

func addChunkFlags(cmd *cobra.Command) {
	defaults := config.Default()

	cmd.Flags().
		Int("chunk-size", defaults.Scenes.ChunkSize, "Number of scenes analyzed together")
	cmd.Flags().
		Int("overlap", defaults.Scenes.Overlap, "Number of scenes shared by consecutive chunks")
	cmd.Flags().
		Int("concurrency", defaults.Scenes.Concurrency, "Concurrent model calls per chunk (0 for one per scene)")
}

// applyFlags copies the flags set on cmd over c.
func applyFlags(cmd *cobra.Command, c *config.Config) {
	flags := cmd.Flags()
	changed := func(name string) bool {
		return flags.Lookup(name) != nil && flags.Changed(name)
	}

	if changed("model") {
		c.Model.Name, _ = flags.GetString("model")
	}
	if changed("temperature") {
		c.Model.Temperature, _ = flags.GetFloat64("temperature")
	}
	if changed("max-tokens") {
		c.Model.MaxTokens, _ = flags.GetInt("max-tokens")
	}
	if changed("top-p") {
		c.Model.TopP, _ = flags.GetFloat64("top-p")
	}
	if changed("frequency-penalty") {
		c.Model.FrequencyPenalty, _ = flags.GetFloat64("frequency-penalty")
	}
	if changed("presence-penalty") {
		c.Model.PresencePenalty, _ = flags.GetFloat64("presence-penalty")
	}
	if changed("rps") {
		c.Model.RequestsPerSecond, _ = flags.GetFloat64("rps")
	}
	if changed("timeout") {
		c.Model.TimeoutSeconds, _ = flags.GetInt("timeout")
	}
	if changed("min-pause") {
		c.Scenes.MinPause, _ = flags.GetInt("min-pause")
	}
	if changed("chunk-size") {
		c.Scenes.ChunkSize, _ = flags.GetInt("chunk-size")
	}
	if changed("overlap") {
		c.Scenes.Overlap, _ = flags.GetInt("overlap")
	}
	if changed("concurrency") {
		c.Scenes.Concurrency, _ = flags.GetInt("concurrency")
	}
	if changed("addr") {
		c.Server.Addr, _ = flags.GetString("addr")
	}

	// the key follows the model, so it is applied last
	if changed("api-key") {
		key, _ := flags.GetString("api-key")
		c.SetAPIKey(key)
	}
}
