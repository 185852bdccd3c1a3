// Package llm wraps the chat model backends behind one structured-output
// capability. Callers describe the JSON object they want with a Schema and
// receive the raw object back; backend selection happens once, at startup.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// system and user messages for a single request
type Prompt struct {
	System string
	User   string
}

// one key of the expected JSON object
type Field struct {
	Name        string
	Description string
}

// shape of the JSON object a caller expects back
type Schema struct {
	Fields []Field
}

// Sampling knobs are forwarded to the backend as given. Backends that lack a
// knob ignore it.
type Sampling struct {
	Temperature      float64
	MaxTokens        int
	TopP             float64
	FrequencyPenalty float64
	PresencePenalty  float64
}

type Options struct {
	Model    string
	Sampling Sampling
	// per-request deadline; zero disables it
	Timeout time.Duration
}

// Client returns the JSON object produced by the model for prompt, checked
// against schema. Implementations must be safe for concurrent use.
type Client interface {
	Invoke(ctx context.Context, prompt Prompt, schema Schema) (json.RawMessage, error)
}

// adapts a function to Client
type ClientFunc func(ctx context.Context, prompt Prompt, schema Schema) (json.RawMessage, error)

func (f ClientFunc) Invoke(
	ctx context.Context,
	prompt Prompt,
	schema Schema,
) (json.RawMessage, error) {
	return f(ctx, prompt, schema)
}

// model service provider
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderGemini    Provider = "gemini"
	ProviderAnthropic Provider = "anthropic"
)

const DefaultTimeout = 2 * time.Minute

// picks the backend from the model name
func ProviderForModel(model string) Provider {
	m := strings.ToLower(strings.TrimSpace(model))
	switch {
	case strings.HasPrefix(m, "gemini"):
		return ProviderGemini
	case strings.HasPrefix(m, "claude"):
		return ProviderAnthropic
	default:
		return ProviderOpenAI
	}
}

// creates Client based on provider
func Factory(
	ctx context.Context,
	provider Provider,
	apiKey string,
	opts Options,
) (Client, error) {
	switch provider {
	case ProviderOpenAI:
		return NewOpenAIClient(ctx, apiKey, opts)
	case ProviderGemini:
		return NewGeminiClient(ctx, apiKey, opts)
	case ProviderAnthropic:
		return NewAnthropicClient(ctx, apiKey, opts)
	default:
		return nil, fmt.Errorf("unsupported model provider: %s", provider)
	}
}

// FormatInstructions tells the model how to lay out its answer.
func (s Schema) FormatInstructions() string {
	var sb strings.Builder

	sb.WriteString("The output should be a markdown code snippet formatted in the following schema, ")
	sb.WriteString("including the leading and trailing \"```json\" and \"```\":\n\n")
	sb.WriteString("```json\n{\n")
	for i, f := range s.Fields {
		sb.WriteString(fmt.Sprintf("\t%q: string  // %s", f.Name, f.Description))
		if i < len(s.Fields)-1 {
			sb.WriteString(",")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("}\n```")

	return sb.String()
}

// Validate reports an error unless raw is a JSON object carrying every
// schema field.
func (s Schema) Validate(raw json.RawMessage) error {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return fmt.Errorf("not a JSON object: %w", err)
	}
	if obj == nil {
		return fmt.Errorf("not a JSON object")
	}

	var missing []string
	for _, f := range s.Fields {
		if _, ok := obj[f.Name]; !ok {
			missing = append(missing, f.Name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing fields: %s", strings.Join(missing, ", "))
	}
	return nil
}

func systemPrompt(prompt Prompt, schema Schema) string {
	if len(schema.Fields) == 0 {
		return prompt.System
	}
	if prompt.System == "" {
		return schema.FormatInstructions()
	}
	return prompt.System + "\n\n" + schema.FormatInstructions()
}

func withTimeout(
	ctx context.Context,
	timeout time.Duration,
) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
