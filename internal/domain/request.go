package domain

// CreateConversationRequest starts a new screener administration.
type CreateConversationRequest struct {
	UserID         string         `json:"user_id"`
	ScreenerType   ScreenerType   `json:"screener_type"`
	RespondentRole RespondentRole `json:"respondent_role"`
}

// TurnRequest is one inbound user turn.
type TurnRequest struct {
	Text string `json:"text"`
}

// TurnResult is the outcome of processing one user turn. It is the payload
// of the synchronous reply and of the terminal stream frame.
type TurnResult struct {
	ConversationID string             `json:"conversation_id"`
	MessageID      string             `json:"message_id"`
	Reply          string             `json:"reply"`
	RiskLevel      RiskLevel          `json:"risk_level"`
	ExtractedValue *int               `json:"extracted_value,omitempty"`
	Confidence     float64            `json:"confidence,omitempty"`
	Method         ExtractionMethod   `json:"method,omitempty"`
	QuestionID     string             `json:"question_id,omitempty"`
	Remaining      int                `json:"remaining"`
	Status         ConversationStatus `json:"status"`
	Complete       bool               `json:"complete"`
	CrisisPaused   bool               `json:"crisis_paused"`
}

// ResumeRequest is the out-of-band safety confirmation that reopens a
// conversation paused for crisis. Acknowledged must be an explicit caller
// gesture; conversational text never resumes a paused conversation.
type ResumeRequest struct {
	Acknowledged bool   `json:"acknowledged"`
	Source       string `json:"source,omitempty"`
}

// ProgressResponse reports screener progress.
type ProgressResponse struct {
	ConversationID     string             `json:"conversation_id"`
	Status             ConversationStatus `json:"status"`
	QuestionsCompleted int                `json:"questions_completed"`
	QuestionsTotal     int                `json:"questions_total"`
	OpenQuestionID     string             `json:"open_question_id,omitempty"`
}

// SummaryResponse reports the scored result of a completed screener.
type SummaryResponse struct {
	ConversationID string             `json:"conversation_id"`
	ScreenerType   ScreenerType       `json:"screener_type"`
	Status         ConversationStatus `json:"status"`
	TotalScore     int                `json:"total_score"`
	MaxScore       int                `json:"max_score"`
	Severity       string             `json:"severity"`
	Answered       int                `json:"answered"`
}
