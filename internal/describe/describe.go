// Package describe asks a language model to summarize one scene and turns
// the structured answer into an AnalyzedScene.
package describe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mgpai22/scenesage/internal/llm"
	"github.com/mgpai22/scenesage/internal/logging"
	"github.com/mgpai22/scenesage/internal/scene"
)

// ErrAnalysis is wrapped by every error Describe returns.
var ErrAnalysis = errors.New("scene analysis failed")

const MaxCulturalRefs = 3

var SceneSchema = llm.Schema{Fields: []llm.Field{
	{Name: "summary", Description: "A one-sentence summary of the scene"},
	{Name: "characters", Description: "List of characters mentioned in the scene (comma-separated)"},
	{Name: "mood", Description: "The mood or emotion of the scene"},
	{Name: "cultural_refs", Description: "List of up to 3 cultural references (comma-separated)"},
}}

const systemPrompt = `You are a film analysis expert. Analyze the following movie scene and provide:
1. A one-sentence summary
2. Characters mentioned (as a comma-separated list)
3. The mood/emotion
4. Up to 3 cultural references (as a comma-separated list)`

type Options struct {
	Logger *logging.Logger
}

// Describer holds no per-call state and may be shared between goroutines.
type Describer struct {
	client llm.Client
	logger *logging.Logger
}

func New(client llm.Client, opts Options) (*Describer, error) {
	if client == nil {
		return nil, fmt.Errorf("describe: model client is required")
	}
	return &Describer{
		client: client,
		logger: logging.OrNop(opts.Logger),
	}, nil
}

// BuildPrompt renders the request for s.
func BuildPrompt(s scene.Scene) llm.Prompt {
	user := fmt.Sprintf(
		"Scene transcript:\n%s\n\nStart time: %s\nEnd time: %s",
		s.Text,
		s.Start,
		s.End,
	)
	return llm.Prompt{System: systemPrompt, User: user}
}

func (d *Describer) Describe(ctx context.Context, s scene.Scene) (scene.AnalyzedScene, error) {
	d.logger.Debugw("Analyzing scene", "start", s.Start, "end", s.End)

	raw, err := d.client.Invoke(ctx, BuildPrompt(s), SceneSchema)
	if err != nil {
		return scene.AnalyzedScene{}, fmt.Errorf("%w: %w", ErrAnalysis, err)
	}

	out, err := Parse(raw)
	if err != nil {
		d.logger.Debugw("Unusable model output", "start", s.Start, "error", err)
		return scene.AnalyzedScene{}, err
	}

	return scene.AnalyzedScene{
		Scene:        s,
		Summary:      out.Summary,
		Characters:   out.Characters,
		Mood:         out.Mood,
		CulturalRefs: out.CulturalRefs,
	}, nil
}

// Output is the normalized model answer for one scene.
type Output struct {
	Summary      string     `json:"summary"`
	Characters   StringList `json:"characters"`
	Mood         string     `json:"mood"`
	CulturalRefs StringList `json:"cultural_refs"`
}

// Parse decodes and normalizes a model answer. List fields come back
// non-nil, cultural references are capped at MaxCulturalRefs and the summary
// must not be empty.
func Parse(raw json.RawMessage) (Output, error) {
	var out Output
	if err := json.Unmarshal(raw, &out); err != nil {
		return Output{}, fmt.Errorf("%w: malformed model output: %w", ErrAnalysis, err)
	}

	out.Summary = strings.TrimSpace(out.Summary)
	out.Mood = strings.TrimSpace(out.Mood)
	if out.Summary == "" {
		return Output{}, fmt.Errorf("%w: model returned an empty summary", ErrAnalysis)
	}

	if out.Characters == nil {
		out.Characters = StringList{}
	}
	if out.CulturalRefs == nil {
		out.CulturalRefs = StringList{}
	}
	if len(out.CulturalRefs) > MaxCulturalRefs {
		out.CulturalRefs = out.CulturalRefs[:MaxCulturalRefs]
	}

	return out, nil
}

// StringList decodes a JSON array of strings or a comma-separated string.
// Entries are trimmed and empty ones dropped; null decodes to an empty list.
type StringList []string

func (l *StringList) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*l = StringList{}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*l = splitList(s)
		return nil
	}

	var items []string
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("expected a string or a list of strings, got %s", truncate(trimmed, 40))
	}

	list := make(StringList, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			list = append(list, item)
		}
	}
	*l = list
	return nil
}

func splitList(s string) StringList {
	list := StringList{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			list = append(list, part)
		}
	}
	return list
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
