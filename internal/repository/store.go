// Package store provides durable persistence for conversations, messages,
// screener responses, and crisis events.
package store

import (
	"context"

	"github.com/evergreenbh/intake/internal/domain"
)

// Store is the persistence interface consumed by the orchestrator. Messages
// and crisis events are append-only; screener responses upsert on
// (conversation, question id).
type Store interface {
	CreateConversation(ctx context.Context, conv *domain.Conversation) error
	GetConversation(ctx context.Context, conversationID string) (*domain.Conversation, error)
	UpdateConversationStatus(ctx context.Context, conversationID string, status domain.ConversationStatus) error
	UpdateConversationProgress(ctx context.Context, conversationID string, questionsCompleted int) error

	// AppendMessage assigns the next per-conversation sequence number and
	// writes msg.Seq before returning.
	AppendMessage(ctx context.Context, msg *domain.Message) error
	GetMessages(ctx context.Context, conversationID string, limit int) ([]domain.Message, error)
	GetRecentMessages(ctx context.Context, conversationID string, n int) ([]domain.Message, error)

	UpsertScreenerResponse(ctx context.Context, resp *domain.ScreenerResponse) error
	GetScreenerResponses(ctx context.Context, conversationID string) ([]domain.ScreenerResponse, error)

	CreateCrisisEvent(ctx context.Context, event *domain.CrisisEvent) error
	GetCrisisEvents(ctx context.Context, conversationID string) ([]domain.CrisisEvent, error)

	Close() error
}
