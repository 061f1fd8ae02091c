// Package history maintains the bounded message window and derived
// progress state for a conversation.
package history

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/evergreenbh/intake/internal/domain"
	store "github.com/evergreenbh/intake/internal/repository"
)

// DefaultWindowSize bounds how many recent messages are supplied to the
// language model per turn. Older turns stay in storage for audit but drop
// out of the live prompt.
const DefaultWindowSize = 20

// Manager provides bounded history reads and append-only writes for one
// persistence store. Read operations are side-effect-free.
type Manager struct {
	store      store.Store
	windowSize int
}

// NewManager creates a manager. windowSize <= 0 selects DefaultWindowSize.
func NewManager(st store.Store, windowSize int) *Manager {
	if windowSize <= 0 {
		windowSize = DefaultWindowSize
	}
	return &Manager{store: st, windowSize: windowSize}
}

// Append persists a message and assigns the next sequence number.
func (m *Manager) Append(ctx context.Context, msg *domain.Message) error {
	if msg.MessageID == "" {
		msg.MessageID = "msg_" + uuid.New().String()[:8]
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	if msg.RiskLevel == "" {
		msg.RiskLevel = domain.RiskNone
	}
	if err := m.store.AppendMessage(ctx, msg); err != nil {
		return fmt.Errorf("failed to append message: %w", err)
	}
	return nil
}

// Window returns the most recent messages, oldest first, bounded to the
// configured sliding window. This is a window, not a summary.
func (m *Manager) Window(ctx context.Context, conversationID string) ([]domain.Message, error) {
	messages, err := m.store.GetRecentMessages(ctx, conversationID, m.windowSize)
	if err != nil {
		return nil, fmt.Errorf("failed to load message window: %w", err)
	}
	return messages, nil
}

// AnsweredQuestions returns the set of question ids that already have a
// stored response.
func (m *Manager) AnsweredQuestions(ctx context.Context, conversationID string) (map[string]bool, error) {
	responses, err := m.store.GetScreenerResponses(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load responses: %w", err)
	}
	answered := make(map[string]bool, len(responses))
	for _, r := range responses {
		answered[r.QuestionID] = true
	}
	return answered, nil
}

// UnansweredQuestions returns the ordered set difference between allIDs and
// the answered set. The first element is always the next question to ask;
// ordering follows allIDs, never reshuffled.
func (m *Manager) UnansweredQuestions(ctx context.Context, conversationID string, allIDs []string) ([]string, error) {
	answered, err := m.AnsweredQuestions(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	var remaining []string
	for _, id := range allIDs {
		if !answered[id] {
			remaining = append(remaining, id)
		}
	}
	return remaining, nil
}

// Progress reports answered count against the screener's total.
func (m *Manager) Progress(ctx context.Context, conversationID string, allIDs []string) (answered, total int, err error) {
	set, err := m.AnsweredQuestions(ctx, conversationID)
	if err != nil {
		return 0, 0, err
	}
	for _, id := range allIDs {
		if set[id] {
			answered++
		}
	}
	return answered, len(allIDs), nil
}
