// Package prompt assembles instruction text for the language model from
// static, versioned templates. Composition is deterministic concatenation
// of pre-approved clinical language; the composer never generates free-form
// text, which keeps assistant behavior auditable across sessions.
package prompt

import (
	"fmt"
	"strings"

	"github.com/evergreenbh/intake/internal/domain"
	"github.com/evergreenbh/intake/internal/screener"
)

// TemplateVersion identifies the clinical language in use.
const TemplateVersion = "2024.1"

const baseInstructions = `You are a warm, supportive intake assistant administering a clinical screening questionnaire.
Ask exactly one question per turn. Never repeat the questionnaire item text verbatim; rephrase it conversationally.
Acknowledge the person's answer briefly before moving on. Do not diagnose, and do not offer treatment advice.`

const safetyInstructions = `Safety monitoring: if the person expresses distress, respond with empathy and without judgment.
Never dismiss or minimize what they share. Do not probe for details about self-harm; a separate safety system handles crisis disclosures.`

var screenerFraming = map[domain.ScreenerType]string{
	domain.ScreenerBroadband: `This is a broadband behavioral screening covering mood, attention, and conduct.
Questions ask how often a behavior occurs: Never, Sometimes, or Often.`,
	domain.ScreenerMood: `This is a mood symptom screening.
Questions ask how often a symptom occurred over the last two weeks: Not at all, Several days, More than half the days, or Nearly every day.`,
	domain.ScreenerAnxiety: `This is an anxiety symptom screening.
Questions ask how often a symptom occurred over the last two weeks: Not at all, Several days, More than half the days, or Nearly every day.`,
}

var roleFraming = map[domain.RespondentRole]string{
	domain.RoleSelf: `The person answering is the patient. Address them directly ("you", "your").`,
	domain.RoleParent: `The person answering is a parent or guardian describing their child.
Phrase questions about the child ("your child", "they") and never address the child directly.`,
	domain.RoleObserver: `The person answering is a third-party observer describing someone in their care.
Phrase questions about that person ("the person you care for", "they").`,
}

// BuildSystemPrompt composes the behavioral instructions for a conversation.
// The safety-monitoring clause is always present regardless of current risk.
func BuildSystemPrompt(screenerType domain.ScreenerType, role domain.RespondentRole) string {
	parts := []string{
		baseInstructions,
		screenerFraming[screenerType],
		roleFraming[role],
		safetyInstructions,
	}
	return strings.Join(parts, "\n\n")
}

// BuildQuestionPrompt composes the per-turn instruction carrying the open
// question and its position.
func BuildQuestionPrompt(q *screener.Question, total, remaining int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Current question (%d of %d): %s\n", q.Ordinal, total, q.Text)
	fmt.Fprintf(&b, "Questions remaining after this one: %d\n", remaining-1)
	b.WriteString("Ask about this item now, rephrased conversationally.")
	return b.String()
}

// BuildReaskPrompt composes the instruction for re-asking a question whose
// answer could not be extracted. The reply must explicitly re-ask the same
// item.
func BuildReaskPrompt(q *screener.Question, total int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "The previous answer could not be matched to a response option.\n")
	fmt.Fprintf(&b, "Current question (%d of %d): %s\n", q.Ordinal, total, q.Text)
	b.WriteString("Gently explain the answer options and ask this same item again.")
	return b.String()
}

// BuildCompletionPrompt composes the instruction for the closing turn after
// the final question is answered.
func BuildCompletionPrompt(sc *screener.Screener) string {
	return fmt.Sprintf(
		"All %d questions are now answered. Thank the person for completing the %s, let them know the care team will review their answers, and do not ask anything further.",
		sc.Total(), sc.Name)
}

// BuildGreeting composes the fixed opening message for a conversation. The
// greeting is served without a model call so it is identical across
// sessions.
func BuildGreeting(sc *screener.Screener, role domain.RespondentRole) string {
	subject := "you"
	if role == domain.RoleParent {
		subject = "your child"
	} else if role == domain.RoleObserver {
		subject = "the person you care for"
	}
	return fmt.Sprintf(
		"Hi, I'm here to help with a brief check-in. I'll ask %d short questions about how things have been going for %s. There are no right or wrong answers, and you can answer in your own words. Ready when you are.",
		sc.Total(), subject)
}
