// Package domain defines the core domain models for the intake service.
package domain

// ScreenerType identifies which clinical questionnaire a conversation administers.
type ScreenerType string

const (
	ScreenerBroadband ScreenerType = "broadband"
	ScreenerMood      ScreenerType = "mood"
	ScreenerAnxiety   ScreenerType = "anxiety"
)

// Valid reports whether t names a known screener.
func (t ScreenerType) Valid() bool {
	switch t {
	case ScreenerBroadband, ScreenerMood, ScreenerAnxiety:
		return true
	}
	return false
}

// RespondentRole identifies who is answering the screener.
type RespondentRole string

const (
	RoleSelf     RespondentRole = "self"
	RoleParent   RespondentRole = "parent"
	RoleObserver RespondentRole = "observer"
)

// Valid reports whether r names a known respondent role.
func (r RespondentRole) Valid() bool {
	switch r {
	case RoleSelf, RoleParent, RoleObserver:
		return true
	}
	return false
}

// ConversationStatus is the lifecycle state of a conversation.
type ConversationStatus string

const (
	StatusActive          ConversationStatus = "active"
	StatusPausedForCrisis ConversationStatus = "paused_for_crisis"
	StatusComplete        ConversationStatus = "complete"
)

// RiskLevel is the ordered classification of detected crisis signal strength.
type RiskLevel string

const (
	RiskNone     RiskLevel = "none"
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

var riskRank = map[RiskLevel]int{
	RiskNone:     0,
	RiskLow:      1,
	RiskMedium:   2,
	RiskHigh:     3,
	RiskCritical: 4,
}

// Rank returns the position of the level in the total order (none=0 .. critical=4).
func (l RiskLevel) Rank() int {
	return riskRank[l]
}

// AtLeast reports whether l is at or above other in the risk order.
func (l RiskLevel) AtLeast(other RiskLevel) bool {
	return l.Rank() >= other.Rank()
}

// ExtractionMethod records which path produced a structured screener answer.
type ExtractionMethod string

const (
	ExtractionModel     ExtractionMethod = "model"
	ExtractionRuleBased ExtractionMethod = "rule_based"
)

// MessageRole is the sender of a message.
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleSystem    MessageRole = "system"
)
