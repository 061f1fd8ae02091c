package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/evergreenbh/intake/internal/adapter/llm"
	"github.com/evergreenbh/intake/internal/adapter/notify"
	"github.com/evergreenbh/intake/internal/domain"
	"github.com/evergreenbh/intake/internal/policy"
	"github.com/evergreenbh/intake/internal/prompt"
	"github.com/evergreenbh/intake/internal/screener"
)

// ChunkEmitter receives ordered stream frames for one turn. A nil emitter
// selects the synchronous reply path. Returning an error aborts the stream.
type ChunkEmitter func(chunk domain.StreamChunk) error

// Pre-approved fixed responses. These are emitted verbatim, never generated.
const (
	// safetyMessage is shown when critical risk pauses the conversation.
	safetyMessage = "Thank you for telling me — that took courage, and I'm concerned about your safety. " +
		"Please reach out right now: call or text 988 (Suicide & Crisis Lifeline, 24/7), " +
		"text HOME to 741741 (Crisis Text Line), or call 911 if you are in immediate danger. " +
		"We've paused the check-in for now. When you're ready and safe, you can continue using the \"I'm safe\" button."

	// pausedReminder is shown for any further text while paused. Resuming
	// requires the out-of-band safety confirmation, never more conversation.
	pausedReminder = "The check-in is still paused. If you're in crisis, please call or text 988, " +
		"text HOME to 741741, or call 911. When you're safe and ready to continue, use the \"I'm safe\" button."

	// completedReply is shown for text sent after the screener is complete.
	completedReply = "Your check-in is already complete — thank you again. Your care team will review your answers. " +
		"If anything urgent comes up, please contact them directly."

	// fallbackReply is shown when the language model is unavailable. The
	// turn's data is already saved; the user only needs to retry.
	fallbackReply = "I'm sorry, I'm having a little trouble responding right now. Your answer has been saved — " +
		"please send your message again in a moment."
)

// PostTurn processes one inbound user turn through the screener state
// machine: classify risk, extract an answer, decide the branch, and emit
// the assistant reply (streamed through emit when non-nil).
func (s *Service) PostTurn(ctx context.Context, conversationID, text string, emit ChunkEmitter) (*domain.TurnResult, error) {
	unlock := s.lockConversation(conversationID)
	defer unlock()

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

	// Risk classification runs synchronously on every inbound turn before
	// any other processing. This cannot be skipped or rate-limited.
	riskRes := s.classifier.Classify(text)
	riskJSON, _ := json.Marshal(riskRes)

	userMsg := &domain.Message{
		ConversationID: conversationID,
		Role:           domain.RoleUser,
		Content:        text,
		RiskLevel:      riskRes.Level,
		RiskFlags:      riskJSON,
	}
	if err := s.history.Append(ctx, userMsg); err != nil {
		return nil, fmt.Errorf("failed to persist user message: %w", err)
	}

	remaining, err := s.history.UnansweredQuestions(ctx, conversationID, sc.QuestionIDs())
	if err != nil {
		return nil, err
	}

	if riskRes.Level == domain.RiskCritical {
		return s.handleCrisis(ctx, conv, sc, userMsg, riskRes.Categories, remaining, emit)
	}

	switch conv.Status {
	case domain.StatusPausedForCrisis:
		// Text alone never reopens a paused conversation.
		return s.emitFixed(ctx, conv, userMsg, pausedReminder, len(remaining), emit, &domain.TurnResult{
			RiskLevel:    riskRes.Level,
			Status:       domain.StatusPausedForCrisis,
			CrisisPaused: true,
		})
	case domain.StatusComplete:
		// Terminal for screening: content is logged, never scored.
		return s.emitFixed(ctx, conv, userMsg, completedReply, 0, emit, &domain.TurnResult{
			RiskLevel: riskRes.Level,
			Status:    domain.StatusComplete,
			Complete:  true,
		})
	}

	s.escalate(ctx, conv, userMsg, riskRes.Level)

	return s.handleAnswer(ctx, conv, sc, userMsg, riskRes.Level, remaining, emit)
}

// handleAnswer runs the extractor against the open question and advances
// the screener when an answer was found.
func (s *Service) handleAnswer(ctx context.Context, conv *domain.Conversation, sc *screener.Screener, userMsg *domain.Message, level domain.RiskLevel, remaining []string, emit ChunkEmitter) (*domain.TurnResult, error) {
	result := &domain.TurnResult{
		ConversationID: conv.ConversationID,
		RiskLevel:      level,
		Status:         domain.StatusActive,
	}

	var promptText string
	var extractionJSON json.RawMessage

	if len(remaining) == 0 {
		// All questions already answered (e.g. restored conversation):
		// transition to complete on this pass.
		if err := s.store.UpdateConversationStatus(ctx, conv.ConversationID, domain.StatusComplete); err != nil {
			return nil, fmt.Errorf("failed to complete conversation: %w", err)
		}
		if err := s.store.UpdateConversationProgress(ctx, conv.ConversationID, sc.Total()); err != nil {
			log.Printf("ERROR: failed to update progress: %v", err)
		}
		result.Status = domain.StatusComplete
		result.Complete = true
		promptText = prompt.BuildCompletionPrompt(sc)
	} else {
		openID := remaining[0]
		openQ, _ := sc.QuestionByID(openID)
		ext := s.extractor.Extract(ctx, userMsg.Content, sc, openQ)
		extractionJSON, _ = json.Marshal(ext)

		if ext.Value != nil {
			resp := &domain.ScreenerResponse{
				ConversationID: conv.ConversationID,
				QuestionID:     openID,
				MessageID:      userMsg.MessageID,
				RawText:        userMsg.Content,
				Value:          *ext.Value,
				Confidence:     ext.Confidence,
				Method:         ext.Method,
				CreatedAt:      time.Now(),
			}
			if err := s.store.UpsertScreenerResponse(ctx, resp); err != nil {
				return nil, fmt.Errorf("failed to persist response: %w", err)
			}

			answered := sc.Total() - len(remaining) + 1
			if err := s.store.UpdateConversationProgress(ctx, conv.ConversationID, answered); err != nil {
				log.Printf("ERROR: failed to update progress: %v", err)
			}

			result.ExtractedValue = ext.Value
			result.Confidence = ext.Confidence
			result.Method = ext.Method
			result.QuestionID = openID
			remaining = remaining[1:]

			if len(remaining) == 0 {
				if err := s.store.UpdateConversationStatus(ctx, conv.ConversationID, domain.StatusComplete); err != nil {
					return nil, fmt.Errorf("failed to complete conversation: %w", err)
				}
				result.Status = domain.StatusComplete
				result.Complete = true
				promptText = prompt.BuildCompletionPrompt(sc)
			} else {
				nextQ, _ := sc.QuestionByID(remaining[0])
				promptText = prompt.BuildQuestionPrompt(nextQ, sc.Total(), len(remaining))
			}
		} else {
			// No extraction: stay on the same question and explicitly
			// re-ask it; never guess.
			result.QuestionID = openID
			promptText = prompt.BuildReaskPrompt(openQ, sc.Total())
		}
	}

	result.Remaining = len(remaining)

	reply, err := s.generateReply(ctx, conv, promptText, emit)
	if err != nil {
		return nil, err
	}
	result.Reply = reply

	assistantMsg := &domain.Message{
		ConversationID: conv.ConversationID,
		Role:           domain.RoleAssistant,
		Content:        reply,
		Extraction:     extractionJSON,
	}
	if err := s.history.Append(ctx, assistantMsg); err != nil {
		return nil, err
	}
	result.MessageID = assistantMsg.MessageID

	return result, s.emitDone(emit, result)
}

// handleCrisis is the safety pivot. It runs to completion synchronously:
// the crisis event, status transition, and fixed safety response all happen
// before anything else for this turn, and the language model is never
// called. A critical-risk utterance is never treated as a screener answer.
func (s *Service) handleCrisis(ctx context.Context, conv *domain.Conversation, sc *screener.Screener, userMsg *domain.Message, categories []string, remaining []string, emit ChunkEmitter) (*domain.TurnResult, error) {
	openID := ""
	if len(remaining) > 0 {
		openID = remaining[0]
	}
	snapshot, _ := json.Marshal(domain.CrisisContext{
		ScreenerType:       conv.ScreenerType,
		OpenQuestionID:     openID,
		QuestionsCompleted: sc.Total() - len(remaining),
	})

	event := &domain.CrisisEvent{
		EventID:        "crs_" + uuid.New().String()[:8],
		ConversationID: conv.ConversationID,
		MessageID:      userMsg.MessageID,
		RiskLevel:      domain.RiskCritical,
		Categories:     categories,
		Context:        snapshot,
		DetectionMode:  "keyword",
		CreatedAt:      time.Now(),
	}
	if err := s.store.CreateCrisisEvent(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to persist crisis event: %w", err)
	}

	if err := s.store.UpdateConversationStatus(ctx, conv.ConversationID, domain.StatusPausedForCrisis); err != nil {
		return nil, fmt.Errorf("failed to pause conversation: %w", err)
	}

	if err := s.notifier.Send(ctx, notify.Alert{
		ConversationID: conv.ConversationID,
		MessageID:      userMsg.MessageID,
		RiskLevel:      string(domain.RiskCritical),
		Decision:       policy.DecisionNotify,
	}); err != nil {
		log.Printf("ERROR: failed to send crisis alert: %v", err)
	}

	return s.emitFixed(ctx, conv, userMsg, safetyMessage, len(remaining), emit, &domain.TurnResult{
		RiskLevel:    domain.RiskCritical,
		Status:       domain.StatusPausedForCrisis,
		CrisisPaused: true,
	})
}

// escalate applies the safety policy for non-critical levels. Policy
// failures degrade to no escalation; they never block the turn.
func (s *Service) escalate(ctx context.Context, conv *domain.Conversation, userMsg *domain.Message, level domain.RiskLevel) {
	if s.policyEngine == nil || level == domain.RiskNone {
		return
	}
	decision, err := s.policyEngine.Evaluate(ctx, policy.EscalationInput{
		RiskLevel:          string(level),
		Status:             string(conv.Status),
		QuestionsCompleted: conv.QuestionsCompleted,
	})
	if err != nil {
		log.Printf("WARN: escalation policy evaluation failed: %v", err)
		return
	}
	if decision == policy.DecisionNotify {
		if err := s.notifier.Send(ctx, notify.Alert{
			ConversationID: conv.ConversationID,
			MessageID:      userMsg.MessageID,
			RiskLevel:      string(level),
			Decision:       decision,
		}); err != nil {
			log.Printf("WARN: failed to send escalation alert: %v", err)
		}
	}
}

// emitFixed persists and emits a fixed, pre-approved reply.
func (s *Service) emitFixed(ctx context.Context, conv *domain.Conversation, userMsg *domain.Message, reply string, remaining int, emit ChunkEmitter, result *domain.TurnResult) (*domain.TurnResult, error) {
	assistantMsg := &domain.Message{
		ConversationID: conv.ConversationID,
		Role:           domain.RoleAssistant,
		Content:        reply,
	}
	if err := s.history.Append(ctx, assistantMsg); err != nil {
		return nil, err
	}

	result.ConversationID = conv.ConversationID
	result.MessageID = assistantMsg.MessageID
	result.Reply = reply
	result.Remaining = remaining

	if emit != nil {
		if err := emit(domain.StreamChunk{Type: domain.ChunkDelta, Seq: 0, Text: reply}); err != nil {
			return nil, err
		}
	}
	return result, s.emitDone(emit, result)
}

// generateReply obtains the assistant reply from the language model,
// streaming chunks through emit. Model failure degrades to the fixed
// fallback reply; caller cancellation propagates so partial content is
// discarded while the already-persisted user turn is retained.
func (s *Service) generateReply(ctx context.Context, conv *domain.Conversation, promptText string, emit ChunkEmitter) (string, error) {
	window, err := s.history.Window(ctx, conv.ConversationID)
	if err != nil {
		return "", err
	}

	messages := make([]llm.ChatMessage, 0, len(window)+2)
	messages = append(messages, llm.ChatMessage{
		Role:    "system",
		Content: prompt.BuildSystemPrompt(conv.ScreenerType, conv.RespondentRole),
	})
	for _, m := range window {
		messages = append(messages, llm.ChatMessage{Role: string(m.Role), Content: m.Content})
	}
	messages = append(messages, llm.ChatMessage{Role: "system", Content: promptText})

	req := &llm.ChatCompletionRequest{
		Model:    s.config.LLMModel,
		Messages: messages,
	}

	var reply string
	seq := 0
	_, err = s.llmClient.CreateChatCompletionStream(ctx, req, func(chunk *llm.StreamChunk) error {
		for _, choice := range chunk.Choices {
			if choice.Delta == nil || choice.Delta.Content == "" {
				continue
			}
			reply += choice.Delta.Content
			if emit != nil {
				if err := emit(domain.StreamChunk{Type: domain.ChunkDelta, Seq: seq, Text: choice.Delta.Content}); err != nil {
					return err
				}
				seq++
			}
		}
		return nil
	})
	if err != nil {
		// Caller cancellation: discard partial content for presentation;
		// the user message and its risk classification stay persisted.
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		log.Printf("WARN: LLM call failed, using fallback reply: %v", err)
		reply = fallbackReply
		if emit != nil {
			if seq > 0 {
				// Partial deltas are already on the wire; the error frame
				// tells the client to discard them before the replacement
				// text arrives, so the rendered reply matches the persisted
				// one.
				if err := emit(domain.StreamChunk{Type: domain.ChunkError, Error: "reply interrupted"}); err != nil {
					return "", err
				}
				seq = 0
			}
			if err := emit(domain.StreamChunk{Type: domain.ChunkDelta, Seq: seq, Text: reply}); err != nil {
				return "", err
			}
		}
	}
	if reply == "" {
		reply = fallbackReply
		if emit != nil {
			if err := emit(domain.StreamChunk{Type: domain.ChunkDelta, Seq: seq, Text: reply}); err != nil {
				return "", err
			}
		}
	}

	return reply, nil
}

// emitDone sends the terminal frame carrying the turn metadata.
func (s *Service) emitDone(emit ChunkEmitter, result *domain.TurnResult) error {
	if emit == nil {
		return nil
	}
	return emit(domain.StreamChunk{Type: domain.ChunkDone, Result: result})
}
