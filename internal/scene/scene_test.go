package scene

import (
	"encoding/json"
	"errors"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mgpai22/scenesage/internal/subtitle"
	"github.com/mgpai22/scenesage/internal/validate"
)

func ts(t *testing.T, s string) subtitle.Timestamp {
	t.Helper()
	v, err := subtitle.ParseTimestamp(s)
	require.NoError(t, err)
	return v
}

func greetingCaptions(t *testing.T) []subtitle.Caption {
	return []subtitle.Caption{
		{Index: 1, Start: ts(t, "00:00:22,719"), End: ts(t, "00:00:26,759"), Text: "Greetings, my friend."},
		{Index: 2, Start: ts(t, "00:00:26,860"), End: ts(t, "00:00:31,507"), Text: "We are all interested in the future."},
		{Index: 3, Start: ts(t, "00:00:36,507"), End: ts(t, "00:00:40,507"), Text: "The future is where we're going."},
	}
}

func TestSegmentGreetings(t *testing.T) {
	captions := greetingCaptions(t)

	tests := []struct {
		name     string
		minPause time.Duration
		want     []Scene
	}{
		{
			name:     "min pause 4 splits on the five second gap",
			minPause: 4 * time.Second,
			want: []Scene{
				{Start: ts(t, "00:00:22,719"), End: ts(t, "00:00:31,507"), Text: "Greetings, my friend. We are all interested in the future."},
				{Start: ts(t, "00:00:36,507"), End: ts(t, "00:00:40,507"), Text: "The future is where we're going."},
			},
		},
		{
			name:     "min pause 6 merges everything",
			minPause: 6 * time.Second,
			want: []Scene{
				{
					Start: ts(t, "00:00:22,719"),
					End:   ts(t, "00:00:40,507"),
					Text:  "Greetings, my friend. We are all interested in the future. The future is where we're going.",
				},
			},
		},
		{
			name:     "min pause 3",
			minPause: 3 * time.Second,
			want: []Scene{
				{Start: ts(t, "00:00:22,719"), End: ts(t, "00:00:31,507"), Text: "Greetings, my friend. We are all interested in the future."},
				{Start: ts(t, "00:00:36,507"), End: ts(t, "00:00:40,507"), Text: "The future is where we're going."},
			},
		},
		{
			name:     "pause equal to threshold splits",
			minPause: 5 * time.Second,
			want: []Scene{
				{Start: ts(t, "00:00:22,719"), End: ts(t, "00:00:31,507"), Text: "Greetings, my friend. We are all interested in the future."},
				{Start: ts(t, "00:00:36,507"), End: ts(t, "00:00:40,507"), Text: "The future is where we're going."},
			},
		},
		{
			name:     "zero min pause splits every caption",
			minPause: 0,
			want: []Scene{
				{Start: ts(t, "00:00:22,719"), End: ts(t, "00:00:26,759"), Text: "Greetings, my friend."},
				{Start: ts(t, "00:00:26,860"), End: ts(t, "00:00:31,507"), Text: "We are all interested in the future."},
				{Start: ts(t, "00:00:36,507"), End: ts(t, "00:00:40,507"), Text: "The future is where we're going."},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Segment(captions, tt.minPause)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSegmentSingleCaption(t *testing.T) {
	c := subtitle.Caption{Index: 1, Start: ts(t, "00:01:00,000"), End: ts(t, "00:01:02,500"), Text: "Alone."}

	got, err := Segment([]subtitle.Caption{c}, 4*time.Second)
	require.NoError(t, err)
	assert.Equal(t, []Scene{{Start: c.Start, End: c.End, Text: "Alone."}}, got)
}

func TestSegmentEmpty(t *testing.T) {
	got, err := Segment(nil, 4*time.Second)
	assert.Nil(t, got)
	assert.True(t, errors.Is(err, ErrNoCaptions))

	_, err = Segment([]subtitle.Caption{}, 0)
	assert.ErrorIs(t, err, ErrNoCaptions)
}

func TestSegmentNegativeMinPause(t *testing.T) {
	_, err := Segment(greetingCaptions(t), -time.Second)
	require.Error(t, err)
	assert.ErrorIs(t, err, validate.ErrInvalid)
}

func TestSegmentOverlappingCaptionsNeverSplit(t *testing.T) {
	captions := []subtitle.Caption{
		{Start: ts(t, "00:00:01,000"), End: ts(t, "00:00:05,000"), Text: "first"},
		{Start: ts(t, "00:00:03,000"), End: ts(t, "00:00:08,000"), Text: "second"},
	}

	got, err := Segment(captions, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, ts(t, "00:00:01,000"), got[0].Start)
	assert.Equal(t, ts(t, "00:00:08,000"), got[0].End)
	assert.Equal(t, "first second", got[0].Text)
}

func TestSegmentKeepsMultilineText(t *testing.T) {
	captions := []subtitle.Caption{
		{Start: 0, End: 1000, Text: "line one\nline two"},
		{Start: 1500, End: 2000, Text: "next"},
	}

	got, err := Segment(captions, 4*time.Second)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "line one\nline two next", got[0].Text)
}

// random sorted captions with gaps between -1s and 8s
func randomCaptions(r *rand.Rand, n int) []subtitle.Caption {
	captions := make([]subtitle.Caption, n)
	var cursor int64 = 1000
	for i := range captions {
		length := int64(500 + r.Intn(4000))
		captions[i] = subtitle.Caption{
			Index: i + 1,
			Start: subtitle.Timestamp(cursor),
			End:   subtitle.Timestamp(cursor + length),
			Text:  "w" + strings.Repeat("x", i%5),
		}
		gap := int64(r.Intn(9000) - 1000)
		next := cursor + length + gap
		if next < cursor {
			next = cursor
		}
		cursor = next
	}
	return captions
}

func TestSegmentProperties(t *testing.T) {
	r := rand.New(rand.NewSource(42))

	for round := 0; round < 200; round++ {
		captions := randomCaptions(r, 1+r.Intn(40))
		minPause := time.Duration(r.Intn(7)) * time.Second

		scenes, err := Segment(captions, minPause)
		require.NoError(t, err)
		require.NotEmpty(t, scenes)

		// scene count equals one plus the number of splitting pauses
		splits := 0
		for _, p := range Pauses(captions) {
			if p >= minPause {
				splits++
			}
		}
		assert.Len(t, scenes, 1+splits)

		// every caption lands in exactly one scene, in order
		var texts []string
		for _, c := range captions {
			texts = append(texts, c.Text)
		}
		var joined []string
		for _, s := range scenes {
			joined = append(joined, s.Text)
		}
		assert.Equal(t, strings.Join(texts, " "), strings.Join(joined, " "))

		for i, s := range scenes {
			assert.LessOrEqual(t, s.Start, s.End)
			if i > 0 {
				assert.LessOrEqual(t, scenes[i-1].Start, s.Start)
			}
		}
	}
}

func TestSegmentMonotonicInMinPause(t *testing.T) {
	r := rand.New(rand.NewSource(7))

	for round := 0; round < 50; round++ {
		captions := randomCaptions(r, 30)
		prev := -1
		for seconds := 0; seconds <= 10; seconds++ {
			scenes, err := Segment(captions, time.Duration(seconds)*time.Second)
			require.NoError(t, err)
			if prev >= 0 {
				assert.LessOrEqual(t, len(scenes), prev)
			}
			prev = len(scenes)
		}
	}
}

func TestPauses(t *testing.T) {
	got := Pauses(greetingCaptions(t))
	assert.Equal(t, []time.Duration{101 * time.Millisecond, 5 * time.Second}, got)
	assert.Nil(t, Pauses(greetingCaptions(t)[:1]))
}

func TestAnalyzedSceneJSON(t *testing.T) {
	a := AnalyzedScene{
		Scene:        Scene{Start: ts(t, "00:00:22,719"), End: ts(t, "00:00:31,507"), Text: "Greetings, my friend."},
		Summary:      "Two people meet.",
		Characters:   []string{"Narrator"},
		Mood:         "hopeful",
		CulturalRefs: nil,
	}

	data, err := json.Marshal(a)
	require.NoError(t, err)
	assert.Equal(t,
		`{"start":"00:00:22,719","end":"00:00:31,507","transcript":"Greetings, my friend.",`+
			`"summary":"Two people meet.","characters":["Narrator"],"mood":"hopeful","cultural_refs":[]}`,
		string(data),
	)

	var back AnalyzedScene
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, a.Scene, back.Scene)
	assert.Equal(t, []string{}, back.CulturalRefs)
}

func TestSceneJSON(t *testing.T) {
	s := Scene{Start: 0, End: 1500, Text: "hi"}

	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Equal(t, `{"start":"00:00:00,000","end":"00:00:01,500","transcript":"hi"}`, string(data))
}

func TestToTrack(t *testing.T) {
	scenes, err := Segment(greetingCaptions(t), 4*time.Second)
	require.NoError(t, err)

	track := ToTrack(scenes)
	require.Equal(t, 2, track.Len())
	assert.Equal(t, 1, track.Captions[0].Index)
	assert.Equal(t, 2, track.Captions[1].Index)
	assert.Equal(t, scenes[1].Text, track.Captions[1].Text)
}
