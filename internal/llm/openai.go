package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

// implements Client using OpenAI Chat Completions
type OpenAIClient struct {
	client  openai.Client
	model   string
	options Options
}

func NewOpenAIClient(
	ctx context.Context,
	apiKey string,
	opts Options,
) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	client := openai.NewClient(option.WithAPIKey(apiKey))

	model := opts.Model
	if model == "" {
		model = "gpt-3.5-turbo"
	}

	return &OpenAIClient{
		client:  client,
		model:   model,
		options: opts,
	}, nil
}

func (c *OpenAIClient) Invoke(
	ctx context.Context,
	prompt Prompt,
	schema Schema,
) (json.RawMessage, error) {
	ctx, cancel := withTimeout(ctx, c.options.Timeout)
	defer cancel()

	completion, err := c.client.Chat.Completions.New(ctx, c.params(prompt, schema))
	if err != nil {
		return nil, fmt.Errorf("openai request failed: %w", err)
	}

	if completion == nil || len(completion.Choices) == 0 {
		return nil, fmt.Errorf("empty response from OpenAI")
	}

	responseText := completion.Choices[0].Message.Content
	if responseText == "" {
		return nil, fmt.Errorf("no text in OpenAI response")
	}

	return extractObject(responseText, schema)
}

func (c *OpenAIClient) params(prompt Prompt, schema Schema) openai.ChatCompletionNewParams {
	s := c.options.Sampling

	params := openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt(prompt, schema)),
			openai.UserMessage(prompt.User),
		},
		Model:            c.model,
		Temperature:      openai.Float(s.Temperature),
		TopP:             openai.Float(s.TopP),
		FrequencyPenalty: openai.Float(s.FrequencyPenalty),
		PresencePenalty:  openai.Float(s.PresencePenalty),
	}
	if s.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(s.MaxTokens))
	}
	if len(schema.Fields) > 0 {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{Type: "json_object"},
		}
	}

	return params
}

func (c *OpenAIClient) Close() error {
	return nil
}
