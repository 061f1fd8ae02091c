package domain

import (
	"encoding/json"
	"time"
)

// Conversation is one screener administration session.
type Conversation struct {
	ConversationID     string             `json:"conversation_id"`
	UserID             string             `json:"user_id"`
	ScreenerType       ScreenerType       `json:"screener_type"`
	RespondentRole     RespondentRole     `json:"respondent_role"`
	Status             ConversationStatus `json:"status"`
	QuestionsCompleted int                `json:"questions_completed"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
}

// Message is one turn in the dialogue. Immutable once created; the audit
// requirement means messages are never deleted.
type Message struct {
	MessageID      string          `json:"message_id"`
	ConversationID string          `json:"conversation_id"`
	Seq            int             `json:"seq"`
	Role           MessageRole     `json:"role"`
	Content        string          `json:"content"`
	RiskLevel      RiskLevel       `json:"risk_level"`
	RiskFlags      json.RawMessage `json:"risk_flags,omitempty"`
	Extraction     json.RawMessage `json:"extraction,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// ScreenerResponse is one structured answer to one screener question.
// At most one exists per (conversation, question id); re-answering overwrites.
type ScreenerResponse struct {
	ConversationID string           `json:"conversation_id"`
	QuestionID     string           `json:"question_id"`
	MessageID      string           `json:"message_id"`
	RawText        string           `json:"raw_text"`
	Value          int              `json:"value"`
	Confidence     float64          `json:"confidence"`
	Method         ExtractionMethod `json:"method"`
	CreatedAt      time.Time        `json:"created_at"`
}

// CrisisEvent is an immutable record of a non-zero risk detection.
// Append-only; retained past normal conversation archival.
type CrisisEvent struct {
	EventID        string          `json:"event_id"`
	ConversationID string          `json:"conversation_id"`
	MessageID      string          `json:"message_id"`
	RiskLevel      RiskLevel       `json:"risk_level"`
	Categories     []string        `json:"categories"`
	Context        json.RawMessage `json:"context,omitempty"`
	DetectionMode  string          `json:"detection_mode"`
	CreatedAt      time.Time       `json:"created_at"`
}

// CrisisContext is the progress snapshot stored on a CrisisEvent.
type CrisisContext struct {
	ScreenerType       ScreenerType `json:"screener_type"`
	OpenQuestionID     string       `json:"open_question_id,omitempty"`
	QuestionsCompleted int          `json:"questions_completed"`
}
