package policy

import (
	"context"
	"testing"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(context.Background(), DefaultPolicy)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e
}

func TestEvaluateEscalation(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	cases := []struct {
		risk string
		want string
	}{
		{"none", DecisionNone},
		{"low", DecisionNone},
		{"medium", DecisionReview},
		{"high", DecisionNotify},
	}
	for _, tc := range cases {
		got, err := e.Evaluate(ctx, EscalationInput{RiskLevel: tc.risk, Status: "active"})
		if err != nil {
			t.Fatalf("Evaluate(%s): %v", tc.risk, err)
		}
		if got != tc.want {
			t.Errorf("Evaluate(%s) = %q, want %q", tc.risk, got, tc.want)
		}
	}
}

func TestResumeAllowed(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	cases := []struct {
		status       string
		acknowledged bool
		want         bool
	}{
		{"paused_for_crisis", true, true},
		{"paused_for_crisis", false, false},
		{"active", true, false},
		{"complete", true, false},
	}
	for _, tc := range cases {
		got, err := e.ResumeAllowed(ctx, ResumeInput{Status: tc.status, Acknowledged: tc.acknowledged})
		if err != nil {
			t.Fatalf("ResumeAllowed(%s, %v): %v", tc.status, tc.acknowledged, err)
		}
		if got != tc.want {
			t.Errorf("ResumeAllowed(%s, %v) = %v, want %v", tc.status, tc.acknowledged, got, tc.want)
		}
	}
}

func TestNewEngineRejectsBadPolicy(t *testing.T) {
	if _, err := NewEngine(context.Background(), "package safety\n\nthis is not rego"); err == nil {
		t.Fatal("expected error for invalid policy content")
	}
}
