package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/genai"
)

// implements Client using Google Gemini
type GeminiClient struct {
	client  *genai.Client
	model   string
	options Options
}

func NewGeminiClient(
	ctx context.Context,
	apiKey string,
	opts Options,
) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := opts.Model
	if model == "" {
		model = "gemini-2.0-flash"
	}

	return &GeminiClient{
		client:  client,
		model:   model,
		options: opts,
	}, nil
}

func (c *GeminiClient) Invoke(
	ctx context.Context,
	prompt Prompt,
	schema Schema,
) (json.RawMessage, error) {
	ctx, cancel := withTimeout(ctx, c.options.Timeout)
	defer cancel()

	contents := []*genai.Content{
		genai.NewContentFromText(prompt.User, genai.RoleUser),
	}

	result, err := c.client.Models.GenerateContent(
		ctx,
		c.model,
		contents,
		c.config(prompt, schema),
	)
	if err != nil {
		return nil, fmt.Errorf("gemini request failed: %w", err)
	}

	responseText, err := geminiText(result)
	if err != nil {
		return nil, err
	}

	return extractObject(responseText, schema)
}

func (c *GeminiClient) config(prompt Prompt, schema Schema) *genai.GenerateContentConfig {
	s := c.options.Sampling

	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(
			systemPrompt(prompt, schema),
			genai.RoleUser,
		),
		Temperature: genai.Ptr(float32(s.Temperature)),
		TopP:        genai.Ptr(float32(s.TopP)),
	}
	if s.MaxTokens > 0 {
		config.MaxOutputTokens = int32(s.MaxTokens)
	}
	// several Gemini models reject penalties outright, so only send them
	// when they were actually set
	if s.FrequencyPenalty != 0 {
		config.FrequencyPenalty = genai.Ptr(float32(s.FrequencyPenalty))
	}
	if s.PresencePenalty != 0 {
		config.PresencePenalty = genai.Ptr(float32(s.PresencePenalty))
	}
	if len(schema.Fields) > 0 {
		config.ResponseMIMEType = "application/json"
	}

	return config
}

func geminiText(result *genai.GenerateContentResponse) (string, error) {
	if result == nil || len(result.Candidates) == 0 {
		return "", fmt.Errorf("empty response from Gemini")
	}

	var responseText string
	for _, candidate := range result.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.Text != "" {
				responseText += part.Text
			}
		}
		if responseText != "" {
			break
		}
	}

	if responseText == "" {
		return "", fmt.Errorf("no text in Gemini response")
	}
	return responseText, nil
}

func (c *GeminiClient) Close() error {
	return nil
}
