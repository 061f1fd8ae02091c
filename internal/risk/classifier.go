// Package risk classifies utterances for self-harm and crisis signal.
// Classification is a pure function over the input text and a static phrase
// table: identical input always yields identical output.
package risk

import (
	"strings"
	"unicode"

	"github.com/evergreenbh/intake/internal/domain"
)

// Result is the outcome of classifying one utterance.
type Result struct {
	Level      domain.RiskLevel `json:"level"`
	Categories []string         `json:"categories,omitempty"`
	Evidence   []string         `json:"evidence,omitempty"`
	Modifiers  []string         `json:"modifiers,omitempty"`
}

// Classifier tests text against a tiered phrase table.
type Classifier struct {
	table Table
}

// NewClassifier builds a classifier over the given table.
func NewClassifier(table Table) *Classifier {
	return &Classifier{table: table}
}

// Classify returns the risk level for text.
//
// A match in any critical-tier category yields critical immediately; weaker
// concurrent signals can never downgrade it. Otherwise the highest matched
// tier wins, with one escalation rule: a medium-tier match plus any
// amplifying modifier becomes high. Hedged distress stays lower than
// asserted, temporally anchored distress.
func (c *Classifier) Classify(text string) Result {
	norm := Normalize(text)
	if norm == "" {
		return Result{Level: domain.RiskNone}
	}

	res := Result{Level: domain.RiskNone}
	for _, cat := range c.table.Categories {
		matched := false
		for _, phrase := range cat.Phrases {
			if containsPhrase(norm, phrase) {
				res.Evidence = append(res.Evidence, phrase)
				matched = true
			}
		}
		if !matched {
			continue
		}
		res.Categories = append(res.Categories, cat.Name)
		if cat.Tier == domain.RiskCritical {
			// Critical short-circuits: nothing below can change the outcome.
			res.Level = domain.RiskCritical
			return res
		}
		if cat.Tier.Rank() > res.Level.Rank() {
			res.Level = cat.Tier
		}
	}

	if res.Level == domain.RiskMedium {
		for _, mod := range c.table.Modifiers {
			if containsPhrase(norm, mod) {
				res.Modifiers = append(res.Modifiers, mod)
			}
		}
		if len(res.Modifiers) > 0 {
			res.Level = domain.RiskHigh
		}
	}

	return res
}

// Normalize lowercases text, strips punctuation, and collapses whitespace.
func Normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	lastSpace := true
	for _, r := range strings.ToLower(text) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\'' || r == '-':
			b.WriteRune(r)
			lastSpace = false
		case unicode.IsSpace(r) || unicode.IsPunct(r):
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}

// containsPhrase reports whether the normalized phrase occurs in norm on
// word boundaries.
func containsPhrase(norm, phrase string) bool {
	p := Normalize(phrase)
	if p == "" {
		return false
	}
	idx := 0
	for {
		i := strings.Index(norm[idx:], p)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(p)
		startOK := start == 0 || norm[start-1] == ' '
		endOK := end == len(norm) || norm[end] == ' '
		if startOK && endOK {
			return true
		}
		idx = start + 1
		if idx >= len(norm) {
			return false
		}
	}
}
