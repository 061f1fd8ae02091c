// Package extract maps free-text user input to structured screener answers.
// The primary path asks the language model for a constrained classification;
// any failure or malformed result silently degrades to the rule-based
// fallback ladder, which has no external dependency. Extraction never
// errors on malformed input and never returns a value outside the
// screener's valid range.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"
	"unicode"

	"github.com/evergreenbh/intake/internal/adapter/llm"
	"github.com/evergreenbh/intake/internal/domain"
	"github.com/evergreenbh/intake/internal/screener"
)

// Fallback strategy confidences. Each successive strategy is weaker than
// the previous.
const (
	confCanonical = 0.9
	confPrefix    = 0.7
	confDigit     = 0.6
)

// Result is the outcome of extracting one answer. A nil Value means no
// strategy produced an answer and the caller must re-ask the question.
type Result struct {
	Value      *int                    `json:"value,omitempty"`
	Confidence float64                 `json:"confidence"`
	Method     domain.ExtractionMethod `json:"method,omitempty"`
	Rationale  string                  `json:"rationale,omitempty"`
}

// Extractor resolves free text against a question's response categories.
type Extractor struct {
	llmClient llm.Client
	model     string
}

// New creates an extractor. llmClient may be nil, in which case only the
// rule-based path runs.
func New(llmClient llm.Client, model string) *Extractor {
	return &Extractor{llmClient: llmClient, model: model}
}

// Extract resolves text to one of the screener's response values for the
// given question.
func (e *Extractor) Extract(ctx context.Context, text string, sc *screener.Screener, q *screener.Question) Result {
	if e.llmClient != nil {
		if res, ok := e.extractWithModel(ctx, text, sc, q); ok {
			return res
		}
	}
	return e.extractRuleBased(text, sc)
}

type modelExtraction struct {
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
	Rationale  string  `json:"rationale"`
}

func (e *Extractor) extractWithModel(ctx context.Context, text string, sc *screener.Screener, q *screener.Question) (Result, bool) {
	labels := make([]string, len(sc.Categories))
	for i, c := range sc.Categories {
		labels[i] = c.Label
	}

	sys := fmt.Sprintf(
		"You classify a patient's answer to a screening question into exactly one response category.\n"+
			"Question: %s\nCategories: %s\n"+
			"Return JSON with fields category (one of the categories, or empty if the text does not answer the question), confidence (0..1), and rationale (short).",
		q.Text, strings.Join(labels, " | "))

	req := &llm.ChatCompletionRequest{
		Model: e.model,
		Messages: []llm.ChatMessage{
			{Role: "system", Content: sys},
			{Role: "user", Content: text},
		},
		ResponseFormat: map[string]interface{}{
			"type": "json_schema",
			"json_schema": map[string]interface{}{
				"name": "screener_extraction",
				"schema": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"category":   map[string]interface{}{"type": "string"},
						"confidence": map[string]interface{}{"type": "number"},
						"rationale":  map[string]interface{}{"type": "string"},
					},
					"required": []string{"category", "confidence"},
				},
			},
		},
	}

	resp, err := e.llmClient.CreateChatCompletion(ctx, req)
	if err != nil {
		log.Printf("WARN: extraction model call failed, using rule-based fallback: %v", err)
		return Result{}, false
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message == nil {
		return Result{}, false
	}

	var ext modelExtraction
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &ext); err != nil {
		log.Printf("WARN: malformed extraction result, using rule-based fallback: %v", err)
		return Result{}, false
	}
	if ext.Category == "" || ext.Confidence <= 0 {
		return Result{}, false
	}

	for _, c := range sc.Categories {
		if strings.EqualFold(c.Label, ext.Category) {
			conf := ext.Confidence
			if conf > 1 {
				conf = 1
			}
			v := c.Value
			return Result{
				Value:      &v,
				Confidence: conf,
				Method:     domain.ExtractionModel,
				Rationale:  ext.Rationale,
			}, true
		}
	}

	// Category outside the screener's fixed set counts as no extraction.
	return Result{}, false
}

// extractRuleBased attempts, in order: canonical phrase match, fuzzy prefix
// match, and bare digit extraction.
func (e *Extractor) extractRuleBased(text string, sc *screener.Screener) Result {
	norm := normalize(text)
	if norm == "" {
		return Result{Confidence: 0, Method: domain.ExtractionRuleBased}
	}

	if v, ok := matchCanonical(norm, sc); ok {
		return Result{Value: &v, Confidence: confCanonical, Method: domain.ExtractionRuleBased}
	}
	if v, ok := matchPrefix(norm, sc); ok {
		return Result{Value: &v, Confidence: confPrefix, Method: domain.ExtractionRuleBased}
	}
	if v, ok := matchDigit(norm, sc); ok {
		return Result{Value: &v, Confidence: confDigit, Method: domain.ExtractionRuleBased}
	}

	return Result{Confidence: 0, Method: domain.ExtractionRuleBased}
}

// matchCanonical tests each category's canonical phrases against the text
// on word boundaries. The longest matched phrase wins.
func matchCanonical(norm string, sc *screener.Screener) (int, bool) {
	best := -1
	bestLen := 0
	for _, c := range sc.Categories {
		for _, phrase := range c.Phrases {
			p := normalize(phrase)
			if p == "" || !containsWordPhrase(norm, p) {
				continue
			}
			if len(p) > bestLen {
				bestLen = len(p)
				best = c.Value
			}
		}
	}
	if best < 0 {
		return 0, false
	}
	return best, true
}

// matchPrefix compares the first three characters of each user word against
// each category label's leading word. Anchoring on the label keeps the
// connective words inside canonical phrases ("all the time", "more than
// half") from turning ordinary non-answer sentences into answers; a miss
// here means a re-ask, never a guess.
func matchPrefix(norm string, sc *screener.Screener) (int, bool) {
	for _, w := range strings.Fields(norm) {
		if len(w) < 3 {
			continue
		}
		for _, c := range sc.Categories {
			anchor := labelAnchor(c.Label)
			if anchor != "" && w[:3] == anchor {
				return c.Value, true
			}
		}
	}
	return 0, false
}

// prefixStopWords are function words that cannot anchor a fuzzy match.
// Labels led by one of these stay reachable through their canonical phrases.
var prefixStopWords = map[string]bool{
	"not":  true,
	"more": true,
	"the":  true,
	"and":  true,
	"all":  true,
}

// labelAnchor returns the 3-char fuzzy anchor for a category label, or ""
// when the label's leading word is too short or a function word.
func labelAnchor(label string) string {
	fields := strings.Fields(normalize(label))
	if len(fields) == 0 {
		return ""
	}
	w := fields[0]
	if len(w) < 3 || prefixStopWords[w] {
		return ""
	}
	return w[:3]
}

// matchDigit extracts a bare number within the screener's valid range.
func matchDigit(norm string, sc *screener.Screener) (int, bool) {
	for _, w := range strings.Fields(norm) {
		v, err := strconv.Atoi(w)
		if err != nil {
			continue
		}
		if sc.InRange(v) {
			return v, true
		}
	}
	return 0, false
}

func normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	lastSpace := true
	for _, r := range strings.ToLower(text) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastSpace = false
		default:
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}

func containsWordPhrase(norm, phrase string) bool {
	idx := 0
	for {
		i := strings.Index(norm[idx:], phrase)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(phrase)
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
