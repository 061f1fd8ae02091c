package extract

import (
	"context"
	"errors"
	"testing"

	"github.com/evergreenbh/intake/internal/adapter/llm"
	"github.com/evergreenbh/intake/internal/domain"
	"github.com/evergreenbh/intake/internal/screener"
)

// fakeClient returns a fixed response or error for every completion call.
type fakeClient struct {
	content string
	err     error
}

func (f *fakeClient) CreateChatCompletion(ctx context.Context, req *llm.ChatCompletionRequest) (*llm.ChatCompletionResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &llm.ChatCompletionResponse{
		Choices: []llm.Choice{{Message: &llm.ChatMessage{Role: "assistant", Content: f.content}}},
	}, nil
}

func (f *fakeClient) CreateChatCompletionStream(ctx context.Context, req *llm.ChatCompletionRequest, cb llm.StreamCallback) (*llm.Usage, error) {
	return nil, errors.New("not implemented")
}

func mustScreener(t *testing.T, typ domain.ScreenerType) *screener.Screener {
	t.Helper()
	sc, err := screener.ByType(typ)
	if err != nil {
		t.Fatalf("ByType(%s): %v", typ, err)
	}
	return sc
}

func TestExtractCanonicalPhrase(t *testing.T) {
	sc := mustScreener(t, domain.ScreenerBroadband)
	e := New(nil, "")

	res := e.Extract(context.Background(), "I feel sad sometimes", sc, &sc.Questions[0])
	if res.Value == nil {
		t.Fatal("expected a value, got nil")
	}
	if *res.Value != 1 {
		t.Errorf("value = %d, want 1", *res.Value)
	}
	if res.Confidence != confCanonical {
		t.Errorf("confidence = %v, want %v", res.Confidence, confCanonical)
	}
	if res.Method != domain.ExtractionRuleBased {
		t.Errorf("method = %s, want rule_based", res.Method)
	}
}

func TestExtractLongestPhraseWins(t *testing.T) {
	sc := mustScreener(t, domain.ScreenerMood)
	e := New(nil, "")

	// "nearly every day" (value 3) must beat the shorter "no" style matches.
	res := e.Extract(context.Background(), "nearly every day honestly", sc, &sc.Questions[0])
	if res.Value == nil || *res.Value != 3 {
		t.Fatalf("value = %v, want 3", res.Value)
	}
}

func TestExtractPrefixMatch(t *testing.T) {
	sc := mustScreener(t, domain.ScreenerBroadband)
	e := New(nil, "")

	// "somtimes" shares its first three characters with "sometimes".
	res := e.Extract(context.Background(), "somtimes", sc, &sc.Questions[0])
	if res.Value == nil || *res.Value != 1 {
		t.Fatalf("value = %v, want 1", res.Value)
	}
	if res.Confidence != confPrefix {
		t.Errorf("confidence = %v, want %v", res.Confidence, confPrefix)
	}
}

func TestExtractPrefixIgnoresNonAnswerSentences(t *testing.T) {
	e := New(nil, "")

	// Meta-conversation about the question must never look like an answer;
	// connective words ("the", "that", "they") and near-misses ("confused"
	// vs "constantly") fall through to a re-ask.
	cases := []struct {
		typ  domain.ScreenerType
		text string
	}{
		{domain.ScreenerMood, "I don't understand the question"},
		{domain.ScreenerMood, "what do you mean by that, they confused me"},
		{domain.ScreenerBroadband, "can you say the question again"},
		{domain.ScreenerAnxiety, "the thing is, I'm not sure what you're asking"},
	}
	for _, tc := range cases {
		sc := mustScreener(t, tc.typ)
		res := e.Extract(context.Background(), tc.text, sc, &sc.Questions[0])
		if res.Value != nil {
			t.Errorf("Extract(%q) on %s: value = %d, want nil", tc.text, tc.typ, *res.Value)
		}
	}
}

func TestExtractDigit(t *testing.T) {
	sc := mustScreener(t, domain.ScreenerMood)
	e := New(nil, "")

	res := e.Extract(context.Background(), "2", sc, &sc.Questions[0])
	if res.Value == nil || *res.Value != 2 {
		t.Fatalf("value = %v, want 2", res.Value)
	}
	if res.Confidence != confDigit {
		t.Errorf("confidence = %v, want %v", res.Confidence, confDigit)
	}

	// Out-of-range digits are not answers.
	res = e.Extract(context.Background(), "9", sc, &sc.Questions[0])
	if res.Value != nil {
		t.Errorf("out-of-range digit: value = %d, want nil", *res.Value)
	}
}

func TestExtractNoMatch(t *testing.T) {
	sc := mustScreener(t, domain.ScreenerBroadband)
	e := New(nil, "")

	for _, text := range []string{"asdkfj random text", "", "???"} {
		res := e.Extract(context.Background(), text, sc, &sc.Questions[0])
		if res.Value != nil {
			t.Errorf("Extract(%q): value = %d, want nil", text, *res.Value)
		}
		if res.Confidence != 0 {
			t.Errorf("Extract(%q): confidence = %v, want 0", text, res.Confidence)
		}
	}
}

func TestExtractModelPath(t *testing.T) {
	sc := mustScreener(t, domain.ScreenerMood)
	client := &fakeClient{content: `{"category":"Several days","confidence":0.85,"rationale":"reports some days"}`}
	e := New(client, "test-model")

	res := e.Extract(context.Background(), "eh, it comes and goes I guess", sc, &sc.Questions[0])
	if res.Value == nil || *res.Value != 1 {
		t.Fatalf("value = %v, want 1", res.Value)
	}
	if res.Method != domain.ExtractionModel {
		t.Errorf("method = %s, want model", res.Method)
	}
	if res.Confidence != 0.85 {
		t.Errorf("confidence = %v, want 0.85", res.Confidence)
	}
}

func TestExtractModelErrorFallsBack(t *testing.T) {
	sc := mustScreener(t, domain.ScreenerBroadband)
	client := &fakeClient{err: errors.New("upstream timeout")}
	e := New(client, "test-model")

	res := e.Extract(context.Background(), "never", sc, &sc.Questions[0])
	if res.Value == nil || *res.Value != 0 {
		t.Fatalf("value = %v, want 0", res.Value)
	}
	if res.Method != domain.ExtractionRuleBased {
		t.Errorf("method = %s, want rule_based", res.Method)
	}
}

func TestExtractModelMalformedFallsBack(t *testing.T) {
	sc := mustScreener(t, domain.ScreenerBroadband)

	for _, content := range []string{
		"not json at all",
		`{"category":"Banana","confidence":0.9}`,
		`{"category":"","confidence":0}`,
	} {
		e := New(&fakeClient{content: content}, "test-model")
		res := e.Extract(context.Background(), "often", sc, &sc.Questions[0])
		if res.Value == nil || *res.Value != 2 {
			t.Errorf("content %q: value = %v, want 2 via fallback", content, res.Value)
		}
		if res.Method != domain.ExtractionRuleBased {
			t.Errorf("content %q: method = %s, want rule_based", content, res.Method)
		}
	}
}

func TestExtractModelConfidenceClamped(t *testing.T) {
	sc := mustScreener(t, domain.ScreenerMood)
	client := &fakeClient{content: `{"category":"Not at all","confidence":3.5}`}
	e := New(client, "test-model")

	res := e.Extract(context.Background(), "nope", sc, &sc.Questions[0])
	if res.Value == nil || *res.Value != 0 {
		t.Fatalf("value = %v, want 0", res.Value)
	}
	if res.Confidence != 1 {
		t.Errorf("confidence = %v, want clamped to 1", res.Confidence)
	}
}
