package scene

import (
	"encoding/json"

	"github.com/mgpai22/scenesage/internal/subtitle"
)

// wire form; field order fixes the key order of the output document
type analyzedSceneJSON struct {
	Start        subtitle.Timestamp `json:"start"`
	End          subtitle.Timestamp `json:"end"`
	Transcript   string             `json:"transcript"`
	Summary      string             `json:"summary"`
	Characters   []string           `json:"characters"`
	Mood         string             `json:"mood"`
	CulturalRefs []string           `json:"cultural_refs"`
}

func (a AnalyzedScene) MarshalJSON() ([]byte, error) {
	return json.Marshal(analyzedSceneJSON{
		Start:        a.Start,
		End:          a.End,
		Transcript:   a.Text,
		Summary:      a.Summary,
		Characters:   nonNil(a.Characters),
		Mood:         a.Mood,
		CulturalRefs: nonNil(a.CulturalRefs),
	})
}

func (a *AnalyzedScene) UnmarshalJSON(data []byte) error {
	var w analyzedSceneJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*a = AnalyzedScene{
		Scene:        Scene{Start: w.Start, End: w.End, Text: w.Transcript},
		Summary:      w.Summary,
		Characters:   nonNil(w.Characters),
		Mood:         w.Mood,
		CulturalRefs: nonNil(w.CulturalRefs),
	}
	return nil
}

// scenes without analysis, as written by the segment command
type sceneJSON struct {
	Start      subtitle.Timestamp `json:"start"`
	End        subtitle.Timestamp `json:"end"`
	Transcript string             `json:"transcript"`
}

func (s Scene) MarshalJSON() ([]byte, error) {
	return json.Marshal(sceneJSON{Start: s.Start, End: s.End, Transcript: s.Text})
}

func (s *Scene) UnmarshalJSON(data []byte) error {
	var w sceneJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*s = Scene{Start: w.Start, End: w.End, Text: w.Transcript}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
