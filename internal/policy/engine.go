// Package policy evaluates safety escalation rules. The crisis backstop
// itself (critical risk pauses the conversation) is hard-coded in the
// orchestrator and never policy-controlled; the engine decides the
// escalation side effects for non-critical risk and gates crisis resume.
package policy

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/v1/rego"
)

// Decision values returned by Evaluate.
const (
	DecisionNone   = "none"
	DecisionNotify = "notify"
	DecisionReview = "review"
)

// EscalationInput is the input document for escalation decisions.
type EscalationInput struct {
	RiskLevel          string `json:"risk_level"`
	Status             string `json:"status"`
	QuestionsCompleted int    `json:"questions_completed"`
}

// ResumeInput is the input document for resume decisions.
type ResumeInput struct {
	Status       string `json:"status"`
	Acknowledged bool   `json:"acknowledged"`
}

// Engine is the OPA policy engine.
type Engine struct {
	decision rego.PreparedEvalQuery
	resume   rego.PreparedEvalQuery
}

// NewEngine creates a new policy engine with the given policy content.
func NewEngine(ctx context.Context, policyContent string) (*Engine, error) {
	decision, err := rego.New(
		rego.Query("data.safety.decision"),
		rego.Module("safety.rego", policyContent),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare escalation query: %w", err)
	}

	resume, err := rego.New(
		rego.Query("data.safety.resume_allowed"),
		rego.Module("safety.rego", policyContent),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare resume query: %w", err)
	}

	return &Engine{decision: decision, resume: resume}, nil
}

// Evaluate returns the escalation decision for a classified turn:
// none, notify (alert the clinical team), or review (queue for review).
func (e *Engine) Evaluate(ctx context.Context, input EscalationInput) (string, error) {
	results, err := e.decision.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return "", fmt.Errorf("failed to evaluate escalation policy: %w", err)
	}
	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return DecisionNone, nil
	}
	if s, ok := results[0].Expressions[0].Value.(string); ok {
		return s, nil
	}
	return DecisionNone, nil
}

// ResumeAllowed reports whether a paused conversation may resume. Only an
// explicit acknowledgment on a paused conversation passes; text content is
// deliberately not part of the input.
func (e *Engine) ResumeAllowed(ctx context.Context, input ResumeInput) (bool, error) {
	results, err := e.resume.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return false, fmt.Errorf("failed to evaluate resume policy: %w", err)
	}
	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return false, nil
	}
	if b, ok := results[0].Expressions[0].Value.(bool); ok {
		return b, nil
	}
	return false, nil
}

// DefaultPolicy is the default safety policy content.
const DefaultPolicy = `
package safety

default decision := "none"

decision := "notify" if input.risk_level == "high"

decision := "review" if input.risk_level == "medium"

default resume_allowed := false

resume_allowed if {
	input.status == "paused_for_crisis"
	input.acknowledged == true
}
`
