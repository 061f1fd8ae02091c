package service

import (
	"context"
	"fmt"
	"log"

	"github.com/evergreenbh/intake/internal/domain"
	"github.com/evergreenbh/intake/internal/policy"
)

// ErrResumeNotAllowed is returned when the resume gate rejects a request.
var ErrResumeNotAllowed = fmt.Errorf("resume not allowed")

// Resume reopens a conversation paused for crisis. The caller must provide
// the explicit out-of-band safety acknowledgment; the policy gate never
// accepts conversational text as confirmation. The conversation resumes at
// the question that was open when it paused.
func (s *Service) Resume(ctx context.Context, conversationID string, req domain.ResumeRequest) (*domain.ProgressResponse, error) {
	unlock := s.lockConversation(conversationID)
	defer unlock()

	conv, err := s.store.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	if conv == nil {
		return nil, ErrConversationNotFound
	}

	allowed, err := s.policyEngine.ResumeAllowed(ctx, policy.ResumeInput{
		Status:       string(conv.Status),
		Acknowledged: req.Acknowledged,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate resume policy: %w", err)
	}
	if !allowed {
		return nil, ErrResumeNotAllowed
	}

	if err := s.store.UpdateConversationStatus(ctx, conversationID, domain.StatusActive); err != nil {
		return nil, fmt.Errorf("failed to resume conversation: %w", err)
	}

	source := req.Source
	if source == "" {
		source = "caller"
	}
	sysMsg := &domain.Message{
		ConversationID: conversationID,
		Role:           domain.RoleSystem,
		Content:        fmt.Sprintf("conversation resumed after safety acknowledgment (source: %s)", source),
	}
	if err := s.history.Append(ctx, sysMsg); err != nil {
		log.Printf("ERROR: failed to record resume marker: %v", err)
	}

	return s.Progress(ctx, conversationID)
}
