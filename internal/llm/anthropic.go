package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const anthropicDefaultMaxTokens = 1024

// Implements Client using Anthropic Claude. Claude has no frequency or
// presence penalty, and current models reject temperature and top_p
// together, so only temperature and max_tokens are forwarded.
type AnthropicClient struct {
	client  anthropic.Client
	model   anthropic.Model
	options Options
}

func NewAnthropicClient(
	ctx context.Context,
	apiKey string,
	opts Options,
) (*AnthropicClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))

	model := anthropic.Model(opts.Model)
	if opts.Model == "" {
		model = anthropic.ModelClaudeHaiku4_5
	}

	return &AnthropicClient{
		client:  client,
		model:   model,
		options: opts,
	}, nil
}

func (c *AnthropicClient) Invoke(
	ctx context.Context,
	prompt Prompt,
	schema Schema,
) (json.RawMessage, error) {
	ctx, cancel := withTimeout(ctx, c.options.Timeout)
	defer cancel()

	maxTokens := int64(c.options.Sampling.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = anthropicDefaultMaxTokens
	}

	message, err := c.client.Messages.New(
		ctx,
		anthropic.MessageNewParams{
			Model:     c.model,
			MaxTokens: maxTokens,
			System: []anthropic.TextBlockParam{
				{Text: systemPrompt(prompt, schema)},
			},
			Messages: []anthropic.MessageParam{
				anthropic.NewUserMessage(
					anthropic.NewTextBlock(prompt.User),
				),
			},
			Temperature: anthropic.Float(c.options.Sampling.Temperature),
		},
	)
	if err != nil {
		return nil, fmt.Errorf("anthropic request failed: %w", err)
	}

	if message == nil || len(message.Content) == 0 {
		return nil, fmt.Errorf("empty response from Anthropic")
	}

	var responseText string
	for _, block := range message.Content {
		if block.Type == "text" {
			responseText += block.Text
		}
	}
	if responseText == "" {
		return nil, fmt.Errorf("no text in Anthropic response")
	}

	return extractObject(responseText, schema)
}

func (c *AnthropicClient) Close() error {
	return nil
}
