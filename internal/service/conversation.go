package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/evergreenbh/intake/internal/domain"
	"github.com/evergreenbh/intake/internal/prompt"
	"github.com/evergreenbh/intake/internal/screener"
)

// ErrConversationNotFound is returned when a conversation id is unknown.
var ErrConversationNotFound = fmt.Errorf("conversation not found")

// CreateConversation starts a new screener administration. Unknown screener
// types and respondent roles are rejected here, before any conversation
// state exists.
func (s *Service) CreateConversation(ctx context.Context, req domain.CreateConversationRequest) (*domain.Conversation, error) {
	if req.UserID == "" {
		return nil, fmt.Errorf("user_id is required")
	}
	if !req.ScreenerType.Valid() {
		return nil, fmt.Errorf("unsupported screener type %q", req.ScreenerType)
	}
	role := req.RespondentRole
	if role == "" {
		role = domain.RoleSelf
	}
	if !role.Valid() {
		return nil, fmt.Errorf("unsupported respondent role %q", role)
	}
	// Fails only on catalog drift; Valid() already gates the type.
	sc, err := screener.ByType(req.ScreenerType)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	conv := &domain.Conversation{
		ConversationID: "conv_" + uuid.New().String()[:8],
		UserID:         req.UserID,
		ScreenerType:   req.ScreenerType,
		RespondentRole: role,
		Status:         domain.StatusActive,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.store.CreateConversation(ctx, conv); err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}

	// The greeting is written at creation so it is always the first message,
	// whatever order the caller hits the endpoints in.
	greeting := &domain.Message{
		ConversationID: conv.ConversationID,
		Role:           domain.RoleAssistant,
		Content:        prompt.BuildGreeting(sc, role),
	}
	if err := s.history.Append(ctx, greeting); err != nil {
		return nil, fmt.Errorf("failed to persist greeting: %w", err)
	}

	return conv, nil
}

// Greeting returns the opening assistant message. The greeting is persisted
// at creation, so this is the first assistant message; user turns posted
// before the greeting is fetched never shadow it. Fixed text, never a model
// call.
func (s *Service) Greeting(ctx context.Context, conversationID string) (*domain.Message, error) {
	unlock := s.lockConversation(conversationID)
	defer unlock()

	conv, err := s.store.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	if conv == nil {
		return nil, ErrConversationNotFound
	}

	messages, err := s.store.GetMessages(ctx, conversationID, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to check messages: %w", err)
	}
	for i := range messages {
		if messages[i].Role == domain.RoleAssistant {
			return &messages[i], nil
		}
	}

	// Conversations persisted before the greeting-at-creation write.
	sc, err := screener.ByType(conv.ScreenerType)
	if err != nil {
		return nil, err
	}

	msg := &domain.Message{
		ConversationID: conversationID,
		Role:           domain.RoleAssistant,
		Content:        prompt.BuildGreeting(sc, conv.RespondentRole),
	}
	if err := s.history.Append(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// Progress reports answered counts and the currently open question.
func (s *Service) Progress(ctx context.Context, conversationID string) (*domain.ProgressResponse, error) {
	conv, err := s.store.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	if conv == nil {
		return nil, ErrConversationNotFound
	}

	sc, err := screener.ByType(conv.ScreenerType)
	if err != nil {
		return nil, err
	}

	remaining, err := s.history.UnansweredQuestions(ctx, conversationID, sc.QuestionIDs())
	if err != nil {
		return nil, err
	}

	resp := &domain.ProgressResponse{
		ConversationID:     conversationID,
		Status:             conv.Status,
		QuestionsCompleted: sc.Total() - len(remaining),
		QuestionsTotal:     sc.Total(),
	}
	if len(remaining) > 0 && conv.Status != domain.StatusComplete {
		resp.OpenQuestionID = remaining[0]
	}
	return resp, nil
}

// Summary scores the stored responses. Available at any time; Severity is
// only clinically meaningful once the conversation is complete.
func (s *Service) Summary(ctx context.Context, conversationID string) (*domain.SummaryResponse, error) {
	conv, err := s.store.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	if conv == nil {
		return nil, ErrConversationNotFound
	}

	sc, err := screener.ByType(conv.ScreenerType)
	if err != nil {
		return nil, err
	}

	responses, err := s.store.GetScreenerResponses(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to get responses: %w", err)
	}

	score := sc.Score(responses)
	return &domain.SummaryResponse{
		ConversationID: conversationID,
		ScreenerType:   conv.ScreenerType,
		Status:         conv.Status,
		TotalScore:     score,
		MaxScore:       sc.MaxScore(),
		Severity:       sc.Severity(score),
		Answered:       len(responses),
	}, nil
}

// GetMessages returns the full message history for audit tooling.
func (s *Service) GetMessages(ctx context.Context, conversationID string, limit int) ([]domain.Message, error) {
	messages, err := s.store.GetMessages(ctx, conversationID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get messages: %w", err)
	}
	return messages, nil
}

// GetResponses returns the structured screener responses.
func (s *Service) GetResponses(ctx context.Context, conversationID string) ([]domain.ScreenerResponse, error) {
	responses, err := s.store.GetScreenerResponses(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to get responses: %w", err)
	}
	return responses, nil
}

// GetCrisisEvents returns the crisis audit trail.
func (s *Service) GetCrisisEvents(ctx context.Context, conversationID string) ([]domain.CrisisEvent, error) {
	events, err := s.store.GetCrisisEvents(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to get crisis events: %w", err)
	}
	return events, nil
}
