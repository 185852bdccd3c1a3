package subtitle

import (
	"sort"
)

// single timed caption cue
type Caption struct {
	Index int
	Start Timestamp
	End   Timestamp
	Text  string
}

// parsed caption track
type Track struct {
	Captions []Caption
	Format   Format
}

// represents supported subtitle formats
type Format string

const (
	FormatSRT Format = "srt"
	FormatVTT Format = "vtt"
	FormatASS Format = "ass"
)

// Sort orders captions by start time. Cues that start together keep their
// file order.
func (t *Track) Sort() {
	sort.SliceStable(t.Captions, func(i, j int) bool {
		return t.Captions[i].Start < t.Captions[j].Start
	})
}

func (t *Track) Len() int {
	return len(t.Captions)
}
