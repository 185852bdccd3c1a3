package describe

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mgpai22/scenesage/internal/llm"
	"github.com/mgpai22/scenesage/internal/scene"
	"github.com/mgpai22/scenesage/internal/subtitle"
)

func testScene() scene.Scene {
	return scene.Scene{
		Start: subtitle.Timestamp(22719),
		End:   subtitle.Timestamp(31507),
		Text:  "Greetings, my friend. We are all interested in the future.",
	}
}

func staticClient(raw string) llm.Client {
	return llm.ClientFunc(func(context.Context, llm.Prompt, llm.Schema) (json.RawMessage, error) {
		return json.RawMessage(raw), nil
	})
}

func TestBuildPrompt(t *testing.T) {
	p := BuildPrompt(testScene())

	assert.Contains(t, p.System, "film analysis expert")
	assert.Contains(t, p.System, "Up to 3 cultural references")
	assert.Equal(t,
		"Scene transcript:\nGreetings, my friend. We are all interested in the future.\n\n"+
			"Start time: 00:00:22,719\nEnd time: 00:00:31,507",
		p.User,
	)
}

func TestDescribeSendsSchema(t *testing.T) {
	var gotPrompt llm.Prompt
	var gotSchema llm.Schema
	client := llm.ClientFunc(func(_ context.Context, p llm.Prompt, s llm.Schema) (json.RawMessage, error) {
		gotPrompt, gotSchema = p, s
		return json.RawMessage(`{"summary":"A greeting.","characters":"Criswell","mood":"eerie","cultural_refs":""}`), nil
	})

	d, err := New(client, Options{})
	require.NoError(t, err)

	got, err := d.Describe(context.Background(), testScene())
	require.NoError(t, err)

	assert.Equal(t, BuildPrompt(testScene()), gotPrompt)
	assert.Equal(t, SceneSchema, gotSchema)
	assert.Equal(t, testScene(), got.Scene)
	assert.Equal(t, "A greeting.", got.Summary)
	assert.Equal(t, []string{"Criswell"}, got.Characters)
	assert.Equal(t, "eerie", got.Mood)
	assert.Equal(t, []string{}, got.CulturalRefs)
}

func TestParseNormalization(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		characters []string
		refs       []string
		mood       string
	}{
		{
			name:       "comma separated strings",
			raw:        `{"summary":"s","characters":"Alice, Bob ,, Carol","mood":"tense","cultural_refs":"Star Wars, Hamlet"}`,
			characters: []string{"Alice", "Bob", "Carol"},
			refs:       []string{"Star Wars", "Hamlet"},
			mood:       "tense",
		},
		{
			name:       "lists",
			raw:        `{"summary":"s","characters":["Alice"," Bob ",""],"mood":" calm ","cultural_refs":["Casablanca"]}`,
			characters: []string{"Alice", "Bob"},
			refs:       []string{"Casablanca"},
			mood:       "calm",
		},
		{
			name:       "nulls become empty lists",
			raw:        `{"summary":"s","characters":null,"mood":null,"cultural_refs":null}`,
			characters: []string{},
			refs:       []string{},
			mood:       "",
		},
		{
			name:       "missing lists become empty",
			raw:        `{"summary":"s"}`,
			characters: []string{},
			refs:       []string{},
		},
		{
			name:       "cultural refs capped at three",
			raw:        `{"summary":"s","characters":[],"mood":"m","cultural_refs":"a, b, c, d, e"}`,
			characters: []string{},
			refs:       []string{"a", "b", "c"},
			mood:       "m",
		},
		{
			name:       "cultural refs list capped at three",
			raw:        `{"summary":"s","characters":"","mood":"m","cultural_refs":["a","b","c","d"]}`,
			characters: []string{},
			refs:       []string{"a", "b", "c"},
			mood:       "m",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Parse(json.RawMessage(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, "s", out.Summary)
			assert.Equal(t, tt.characters, []string(out.Characters))
			assert.Equal(t, tt.refs, []string(out.CulturalRefs))
			assert.Equal(t, tt.mood, out.Mood)
		})
	}
}

func TestParseFailures(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty summary", `{"summary":"  ","characters":[],"mood":"m","cultural_refs":[]}`},
		{"null summary", `{"summary":null,"characters":[],"mood":"m","cultural_refs":[]}`},
		{"numeric characters", `{"summary":"s","characters":3,"mood":"m","cultural_refs":[]}`},
		{"object refs", `{"summary":"s","characters":[],"mood":"m","cultural_refs":{"a":1}}`},
		{"list of numbers", `{"summary":"s","characters":[1,2],"mood":"m","cultural_refs":[]}`},
		{"summary not a string", `{"summary":["a"],"characters":[],"mood":"m","cultural_refs":[]}`},
		{"not an object", `["summary"]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(json.RawMessage(tt.raw))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrAnalysis)
		})
	}
}

func TestDescribeClientError(t *testing.T) {
	cause := errors.New("connection reset")
	client := llm.ClientFunc(func(context.Context, llm.Prompt, llm.Schema) (json.RawMessage, error) {
		return nil, cause
	})

	d, err := New(client, Options{})
	require.NoError(t, err)

	_, err = d.Describe(context.Background(), testScene())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAnalysis)
	assert.ErrorIs(t, err, cause)
}

func TestDescribeMalformedOutput(t *testing.T) {
	d, err := New(staticClient(`{"summary":"","characters":[],"mood":"","cultural_refs":[]}`), Options{})
	require.NoError(t, err)

	_, err = d.Describe(context.Background(), testScene())
	assert.ErrorIs(t, err, ErrAnalysis)
}

func TestNewRequiresClient(t *testing.T) {
	_, err := New(nil, Options{})
	assert.Error(t, err)
}

func TestDescribeConcurrentUse(t *testing.T) {
	client := llm.ClientFunc(func(_ context.Context, p llm.Prompt, _ llm.Schema) (json.RawMessage, error) {
		line := strings.SplitN(p.User, "\n", 3)[1]
		out, _ := json.Marshal(map[string]any{
			"summary":       line,
			"characters":    "x",
			"mood":          "m",
			"cultural_refs": []string{},
		})
		return out, nil
	})

	d, err := New(client, Options{})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		s := testScene()
		s.Text = strings.Repeat("a", i+1)
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := d.Describe(context.Background(), s)
			assert.NoError(t, err)
			assert.Equal(t, s.Text, got.Summary)
		}()
	}
	wg.Wait()
}
