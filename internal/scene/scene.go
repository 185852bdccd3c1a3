// Package scene groups captions into scenes separated by pauses in dialogue.
package scene

import (
	"errors"
	"fmt"
	"time"

	"github.com/mgpai22/scenesage/internal/subtitle"
	"github.com/mgpai22/scenesage/internal/validate"
)

// ErrNoCaptions is returned when segmentation is asked to work on nothing.
var ErrNoCaptions = errors.New("no captions to segment")

// A Scene is a run of consecutive captions whose internal gaps are all
// shorter than the pause threshold.
type Scene struct {
	Start subtitle.Timestamp
	End   subtitle.Timestamp
	// caption texts joined with a single space
	Text string
}

func (s Scene) Duration() time.Duration {
	return s.End.Sub(s.Start)
}

// AnalyzedScene is a Scene plus what the model said about it.
type AnalyzedScene struct {
	Scene
	Summary      string
	Characters   []string
	Mood         string
	CulturalRefs []string
}

// Segment splits captions into scenes wherever the gap between one caption's
// end and the next caption's start is at least minPause. Captions must
// already be sorted by start time. Overlapping captions never split.
func Segment(captions []subtitle.Caption, minPause time.Duration) ([]Scene, error) {
	if len(captions) == 0 {
		return nil, ErrNoCaptions
	}
	if minPause < 0 {
		return nil, fmt.Errorf("segment: %w", validate.Invalid("min_pause", minPause, "must not be negative"))
	}

	scenes := make([]Scene, 0, 1)
	current := fromCaption(captions[0])

	for i := 1; i < len(captions); i++ {
		c := captions[i]
		pause := c.Start.Sub(captions[i-1].End)

		if pause >= minPause {
			scenes = append(scenes, current)
			current = fromCaption(c)
			continue
		}

		current.End = c.End
		current.Text += " " + c.Text
	}

	scenes = append(scenes, current)
	return scenes, nil
}

func fromCaption(c subtitle.Caption) Scene {
	return Scene{Start: c.Start, End: c.End, Text: c.Text}
}

// Pauses returns the gaps between consecutive captions.
func Pauses(captions []subtitle.Caption) []time.Duration {
	if len(captions) < 2 {
		return nil
	}
	pauses := make([]time.Duration, len(captions)-1)
	for i := 1; i < len(captions); i++ {
		pauses[i-1] = captions[i].Start.Sub(captions[i-1].End)
	}
	return pauses
}

// ToTrack turns scenes into subtitle cues, one per scene, numbered from 1.
func ToTrack(scenes []Scene) *subtitle.Track {
	track := &subtitle.Track{Captions: make([]subtitle.Caption, len(scenes))}
	for i, s := range scenes {
		track.Captions[i] = subtitle.Caption{
			Index: i + 1,
			Start: s.Start,
			End:   s.End,
			Text:  s.Text,
		}
	}
	return track
}
