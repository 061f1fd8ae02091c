// Package screener holds the static clinical questionnaire catalog. The
// catalog is immutable, versioned data loaded once at startup; adding a
// screener means adding a table here and a case to ByType.
package screener

import (
	"fmt"

	"github.com/evergreenbh/intake/internal/domain"
)

// ResponseCategory is one valid answer to a screener question, with the
// canonical phrases used for rule-based matching of free text.
type ResponseCategory struct {
	Label   string
	Value   int
	Phrases []string
}

// Question is one fixed screener item.
type Question struct {
	ID      string
	Ordinal int
	Text    string
}

// SeverityBand labels a score range; Min is the inclusive lower bound.
type SeverityBand struct {
	Min   int
	Label string
}

// Screener is a fixed, ordered questionnaire with a bounded-range numeric
// response per question. Every question of a screener shares the same
// response categories.
type Screener struct {
	Type       domain.ScreenerType
	Name       string
	Version    string
	Questions  []Question
	Categories []ResponseCategory
	Bands      []SeverityBand
}

// ByType returns the screener definition for t. Unknown types are a
// configuration error and must be rejected before a conversation exists.
func ByType(t domain.ScreenerType) (*Screener, error) {
	switch t {
	case domain.ScreenerBroadband:
		return &broadband, nil
	case domain.ScreenerMood:
		return &mood, nil
	case domain.ScreenerAnxiety:
		return &anxiety, nil
	default:
		return nil, fmt.Errorf("unknown screener type %q", t)
	}
}

// Total returns the fixed question count.
func (s *Screener) Total() int {
	return len(s.Questions)
}

// QuestionIDs returns the ordered question id list.
func (s *Screener) QuestionIDs() []string {
	ids := make([]string, len(s.Questions))
	for i, q := range s.Questions {
		ids[i] = q.ID
	}
	return ids
}

// QuestionByID looks up a question by id.
func (s *Screener) QuestionByID(id string) (*Question, bool) {
	for i := range s.Questions {
		if s.Questions[i].ID == id {
			return &s.Questions[i], true
		}
	}
	return nil, false
}

// MaxValue returns the highest valid response value.
func (s *Screener) MaxValue() int {
	max := 0
	for _, c := range s.Categories {
		if c.Value > max {
			max = c.Value
		}
	}
	return max
}

// InRange reports whether v is a valid response value for this screener.
func (s *Screener) InRange(v int) bool {
	return v >= 0 && v <= s.MaxValue()
}

// MaxScore returns the highest possible total score.
func (s *Screener) MaxScore() int {
	return s.MaxValue() * len(s.Questions)
}

// Score sums response values. Out-of-range values are clamped to the valid
// range so a stored anomaly can never push a total outside the scale.
func (s *Screener) Score(responses []domain.ScreenerResponse) int {
	max := s.MaxValue()
	total := 0
	for _, r := range responses {
		v := r.Value
		if v < 0 {
			v = 0
		}
		if v > max {
			v = max
		}
		total += v
	}
	return total
}

// Severity returns the band label for a total score.
func (s *Screener) Severity(score int) string {
	label := ""
	for _, b := range s.Bands {
		if score >= b.Min {
			label = b.Label
		}
	}
	return label
}

var frequencyThree = []ResponseCategory{
	{Label: "Never", Value: 0, Phrases: []string{"never", "no", "not at all", "none of the time"}},
	{Label: "Sometimes", Value: 1, Phrases: []string{"sometimes", "occasionally", "once in a while", "a little", "now and then"}},
	{Label: "Often", Value: 2, Phrases: []string{"often", "a lot", "frequently", "all the time", "always", "most of the time"}},
}

var frequencyFour = []ResponseCategory{
	{Label: "Not at all", Value: 0, Phrases: []string{"not at all", "never", "no", "none"}},
	{Label: "Several days", Value: 1, Phrases: []string{"several days", "some days", "a few days", "sometimes", "occasionally"}},
	{Label: "More than half the days", Value: 2, Phrases: []string{"more than half", "most days", "often", "a lot"}},
	{Label: "Nearly every day", Value: 3, Phrases: []string{"nearly every day", "every day", "almost every day", "daily", "all the time", "always", "constantly"}},
}

var broadband = Screener{
	Type:    domain.ScreenerBroadband,
	Name:    "Pediatric Behavioral Checklist",
	Version: "2024.1",
	Questions: []Question{
		{ID: "q1", Ordinal: 1, Text: "Feels sad or unhappy"},
		{ID: "q2", Ordinal: 2, Text: "Feels hopeless"},
		{ID: "q3", Ordinal: 3, Text: "Is down on self"},
		{ID: "q4", Ordinal: 4, Text: "Worries a lot"},
		{ID: "q5", Ordinal: 5, Text: "Seems to be having less fun"},
		{ID: "q6", Ordinal: 6, Text: "Fidgety, unable to sit still"},
		{ID: "q7", Ordinal: 7, Text: "Daydreams too much"},
		{ID: "q8", Ordinal: 8, Text: "Distracted easily"},
		{ID: "q9", Ordinal: 9, Text: "Has trouble concentrating"},
		{ID: "q10", Ordinal: 10, Text: "Acts as if driven by a motor"},
		{ID: "q11", Ordinal: 11, Text: "Fights with other children"},
		{ID: "q12", Ordinal: 12, Text: "Does not listen to rules"},
		{ID: "q13", Ordinal: 13, Text: "Does not understand other people's feelings"},
		{ID: "q14", Ordinal: 14, Text: "Teases others"},
		{ID: "q15", Ordinal: 15, Text: "Blames others for own troubles"},
		{ID: "q16", Ordinal: 16, Text: "Refuses to share"},
		{ID: "q17", Ordinal: 17, Text: "Takes things that do not belong to them"},
	},
	Categories: frequencyThree,
	Bands: []SeverityBand{
		{Min: 0, Label: "not elevated"},
		{Min: 15, Label: "elevated"},
	},
}

var mood = Screener{
	Type:    domain.ScreenerMood,
	Name:    "Mood Symptom Questionnaire",
	Version: "2024.1",
	Questions: []Question{
		{ID: "q1", Ordinal: 1, Text: "Little interest or pleasure in doing things"},
		{ID: "q2", Ordinal: 2, Text: "Feeling down, depressed, or hopeless"},
		{ID: "q3", Ordinal: 3, Text: "Trouble falling or staying asleep, or sleeping too much"},
		{ID: "q4", Ordinal: 4, Text: "Feeling tired or having little energy"},
		{ID: "q5", Ordinal: 5, Text: "Poor appetite or overeating"},
		{ID: "q6", Ordinal: 6, Text: "Feeling bad about yourself, or that you are a failure"},
		{ID: "q7", Ordinal: 7, Text: "Trouble concentrating on things"},
		{ID: "q8", Ordinal: 8, Text: "Moving or speaking noticeably slowly, or being unusually restless"},
		{ID: "q9", Ordinal: 9, Text: "Thoughts that you would be better off not being here"},
	},
	Categories: frequencyFour,
	Bands: []SeverityBand{
		{Min: 0, Label: "minimal"},
		{Min: 5, Label: "mild"},
		{Min: 10, Label: "moderate"},
		{Min: 15, Label: "moderately severe"},
		{Min: 20, Label: "severe"},
	},
}

var anxiety = Screener{
	Type:    domain.ScreenerAnxiety,
	Name:    "Anxiety Symptom Questionnaire",
	Version: "2024.1",
	Questions: []Question{
		{ID: "q1", Ordinal: 1, Text: "Feeling nervous, anxious, or on edge"},
		{ID: "q2", Ordinal: 2, Text: "Not being able to stop or control worrying"},
		{ID: "q3", Ordinal: 3, Text: "Worrying too much about different things"},
		{ID: "q4", Ordinal: 4, Text: "Trouble relaxing"},
		{ID: "q5", Ordinal: 5, Text: "Being so restless that it is hard to sit still"},
		{ID: "q6", Ordinal: 6, Text: "Becoming easily annoyed or irritable"},
		{ID: "q7", Ordinal: 7, Text: "Feeling afraid as if something awful might happen"},
	},
	Categories: frequencyFour,
	Bands: []SeverityBand{
		{Min: 0, Label: "minimal"},
		{Min: 5, Label: "mild"},
		{Min: 10, Label: "moderate"},
		{Min: 15, Label: "severe"},
	},
}
