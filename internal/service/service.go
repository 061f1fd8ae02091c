// Package service implements the conversation orchestrator: the state
// machine that administers a screener through natural-language dialogue.
package service

import (
	"sync"

	"github.com/evergreenbh/intake/config"
	"github.com/evergreenbh/intake/internal/adapter/llm"
	"github.com/evergreenbh/intake/internal/adapter/notify"
	"github.com/evergreenbh/intake/internal/extract"
	"github.com/evergreenbh/intake/internal/history"
	"github.com/evergreenbh/intake/internal/policy"
	store "github.com/evergreenbh/intake/internal/repository"
	"github.com/evergreenbh/intake/internal/risk"
)

// Service orchestrates screener conversations. Turns for one conversation
// are serialized; turns for different conversations run independently.
type Service struct {
	store        store.Store
	llmClient    llm.Client
	notifier     *notify.Client
	classifier   *risk.Classifier
	extractor    *extract.Extractor
	history      *history.Manager
	policyEngine *policy.Engine
	config       *config.Config

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates the orchestrator service.
func New(st store.Store, llmClient llm.Client, notifier *notify.Client, classifier *risk.Classifier, extractor *extract.Extractor, hist *history.Manager, policyEngine *policy.Engine, cfg *config.Config) *Service {
	return &Service{
		store:        st,
		llmClient:    llmClient,
		notifier:     notifier,
		classifier:   classifier,
		extractor:    extractor,
		history:      hist,
		policyEngine: policyEngine,
		config:       cfg,
		locks:        make(map[string]*sync.Mutex),
	}
}

// lockConversation acquires the per-conversation turn lock. Sequence
// assignment and state transitions are not safe for concurrent writers on
// the same conversation.
func (s *Service) lockConversation(conversationID string) func() {
	s.mu.Lock()
	l, ok := s.locks[conversationID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[conversationID] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}
