package screener

import (
	"testing"

	"github.com/evergreenbh/intake/internal/domain"
)

func TestByType(t *testing.T) {
	cases := []struct {
		typ       domain.ScreenerType
		questions int
		maxValue  int
	}{
		{domain.ScreenerBroadband, 17, 2},
		{domain.ScreenerMood, 9, 3},
		{domain.ScreenerAnxiety, 7, 3},
	}
	for _, tc := range cases {
		sc, err := ByType(tc.typ)
		if err != nil {
			t.Fatalf("ByType(%s): %v", tc.typ, err)
		}
		if sc.Total() != tc.questions {
			t.Errorf("%s: total = %d, want %d", tc.typ, sc.Total(), tc.questions)
		}
		if sc.MaxValue() != tc.maxValue {
			t.Errorf("%s: max value = %d, want %d", tc.typ, sc.MaxValue(), tc.maxValue)
		}
	}
}

func TestByTypeUnknown(t *testing.T) {
	if _, err := ByType("substance"); err == nil {
		t.Fatal("expected error for unknown screener type")
	}
}

func TestQuestionOrdering(t *testing.T) {
	sc, _ := ByType(domain.ScreenerMood)
	ids := sc.QuestionIDs()
	if len(ids) != sc.Total() {
		t.Fatalf("ids length = %d, want %d", len(ids), sc.Total())
	}
	for i, q := range sc.Questions {
		if q.Ordinal != i+1 {
			t.Errorf("question %s ordinal = %d, want %d", q.ID, q.Ordinal, i+1)
		}
		if ids[i] != q.ID {
			t.Errorf("ids[%d] = %s, want %s", i, ids[i], q.ID)
		}
	}
}

func TestQuestionByID(t *testing.T) {
	sc, _ := ByType(domain.ScreenerAnxiety)
	q, ok := sc.QuestionByID("q3")
	if !ok || q.Ordinal != 3 {
		t.Fatalf("QuestionByID(q3) = %v, %v", q, ok)
	}
	if _, ok := sc.QuestionByID("q99"); ok {
		t.Fatal("expected q99 to be missing")
	}
}

func TestScoreAndSeverity(t *testing.T) {
	sc, _ := ByType(domain.ScreenerMood)

	responses := []domain.ScreenerResponse{
		{QuestionID: "q1", Value: 3},
		{QuestionID: "q2", Value: 3},
		{QuestionID: "q3", Value: 2},
		{QuestionID: "q4", Value: 2},
	}
	if got := sc.Score(responses); got != 10 {
		t.Errorf("score = %d, want 10", got)
	}
	if got := sc.Severity(10); got != "moderate" {
		t.Errorf("severity(10) = %q, want moderate", got)
	}
	if got := sc.Severity(0); got != "minimal" {
		t.Errorf("severity(0) = %q, want minimal", got)
	}
	if got := sc.Severity(sc.MaxScore()); got != "severe" {
		t.Errorf("severity(max) = %q, want severe", got)
	}
}

func TestScoreClampsAnomalies(t *testing.T) {
	sc, _ := ByType(domain.ScreenerBroadband)

	responses := []domain.ScreenerResponse{
		{QuestionID: "q1", Value: 99},
		{QuestionID: "q2", Value: -4},
	}
	if got := sc.Score(responses); got != sc.MaxValue() {
		t.Errorf("clamped score = %d, want %d", got, sc.MaxValue())
	}
}

func TestInRange(t *testing.T) {
	sc, _ := ByType(domain.ScreenerBroadband)
	for v, want := range map[int]bool{-1: false, 0: true, 2: true, 3: false} {
		if got := sc.InRange(v); got != want {
			t.Errorf("InRange(%d) = %v, want %v", v, got, want)
		}
	}
}
