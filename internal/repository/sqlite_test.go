package store

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/evergreenbh/intake/internal/domain"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func seedConversation(t *testing.T, s *SQLiteStore, id string) *domain.Conversation {
	t.Helper()
	conv := &domain.Conversation{
		ConversationID: id,
		UserID:         "user_1",
		ScreenerType:   domain.ScreenerMood,
		RespondentRole: domain.RoleSelf,
		Status:         domain.StatusActive,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}
	if err := s.CreateConversation(context.Background(), conv); err != nil {
		t.Fatalf("failed to seed conversation: %v", err)
	}
	return conv
}

func TestConversationLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedConversation(t, s, "conv_test1")

	got, err := s.GetConversation(ctx, "conv_test1")
	if err != nil {
		t.Fatalf("GetConversation: %v", err)
	}
	if got == nil {
		t.Fatal("expected conversation, got nil")
	}
	if got.Status != domain.StatusActive {
		t.Errorf("status = %s, want active", got.Status)
	}
	if got.ScreenerType != domain.ScreenerMood {
		t.Errorf("screener type = %s, want mood", got.ScreenerType)
	}

	if err := s.UpdateConversationStatus(ctx, "conv_test1", domain.StatusPausedForCrisis); err != nil {
		t.Fatalf("UpdateConversationStatus: %v", err)
	}
	if err := s.UpdateConversationProgress(ctx, "conv_test1", 4); err != nil {
		t.Fatalf("UpdateConversationProgress: %v", err)
	}

	got, _ = s.GetConversation(ctx, "conv_test1")
	if got.Status != domain.StatusPausedForCrisis {
		t.Errorf("status = %s, want paused_for_crisis", got.Status)
	}
	if got.QuestionsCompleted != 4 {
		t.Errorf("questions completed = %d, want 4", got.QuestionsCompleted)
	}
}

func TestGetConversationNotFound(t *testing.T) {
	s := newTestStore(t)

	got, err := s.GetConversation(context.Background(), "conv_missing")
	if err != nil {
		t.Fatalf("GetConversation: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for missing conversation, got %+v", got)
	}
}

func TestAppendMessageAssignsSequence(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedConversation(t, s, "conv_seq")

	for i := 0; i < 5; i++ {
		msg := &domain.Message{
			MessageID:      fmt.Sprintf("msg_%d", i),
			ConversationID: "conv_seq",
			Role:           domain.RoleUser,
			Content:        fmt.Sprintf("message %d", i),
			RiskLevel:      domain.RiskNone,
			CreatedAt:      time.Now(),
		}
		if err := s.AppendMessage(ctx, msg); err != nil {
			t.Fatalf("AppendMessage %d: %v", i, err)
		}
		if msg.Seq != i+1 {
			t.Errorf("message %d seq = %d, want %d", i, msg.Seq, i+1)
		}
	}

	messages, err := s.GetMessages(ctx, "conv_seq", 0)
	if err != nil {
		t.Fatalf("GetMessages: %v", err)
	}
	if len(messages) != 5 {
		t.Fatalf("got %d messages, want 5", len(messages))
	}
	// Strictly increasing, no gaps.
	for i, m := range messages {
		if m.Seq != i+1 {
			t.Errorf("messages[%d].Seq = %d, want %d", i, m.Seq, i+1)
		}
	}
}

func TestSequencesIndependentPerConversation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedConversation(t, s, "conv_a")
	seedConversation(t, s, "conv_b")

	a := &domain.Message{MessageID: "msg_a1", ConversationID: "conv_a", Role: domain.RoleUser, Content: "a", RiskLevel: domain.RiskNone, CreatedAt: time.Now()}
	b := &domain.Message{MessageID: "msg_b1", ConversationID: "conv_b", Role: domain.RoleUser, Content: "b", RiskLevel: domain.RiskNone, CreatedAt: time.Now()}
	if err := s.AppendMessage(ctx, a); err != nil {
		t.Fatal(err)
	}
	if err := s.AppendMessage(ctx, b); err != nil {
		t.Fatal(err)
	}
	if a.Seq != 1 || b.Seq != 1 {
		t.Errorf("seqs = %d, %d; want 1, 1", a.Seq, b.Seq)
	}
}

func TestGetRecentMessagesWindow(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedConversation(t, s, "conv_win")

	for i := 0; i < 10; i++ {
		msg := &domain.Message{
			MessageID:      fmt.Sprintf("msg_w%d", i),
			ConversationID: "conv_win",
			Role:           domain.RoleUser,
			Content:        fmt.Sprintf("m%d", i),
			RiskLevel:      domain.RiskNone,
			CreatedAt:      time.Now(),
		}
		if err := s.AppendMessage(ctx, msg); err != nil {
			t.Fatal(err)
		}
	}

	recent, err := s.GetRecentMessages(ctx, "conv_win", 3)
	if err != nil {
		t.Fatalf("GetRecentMessages: %v", err)
	}
	if len(recent) != 3 {
		t.Fatalf("got %d messages, want 3", len(recent))
	}
	// Oldest first within the window: seqs 8, 9, 10.
	for i, m := range recent {
		if m.Seq != 8+i {
			t.Errorf("recent[%d].Seq = %d, want %d", i, m.Seq, 8+i)
		}
	}
}

func TestMessageRiskAnnotationsRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedConversation(t, s, "conv_risk")

	flags := json.RawMessage(`{"level":"critical","categories":["suicidal_intent"]}`)
	msg := &domain.Message{
		MessageID:      "msg_risk",
		ConversationID: "conv_risk",
		Role:           domain.RoleUser,
		Content:        "text",
		RiskLevel:      domain.RiskCritical,
		RiskFlags:      flags,
		CreatedAt:      time.Now(),
	}
	if err := s.AppendMessage(ctx, msg); err != nil {
		t.Fatal(err)
	}

	messages, _ := s.GetMessages(ctx, "conv_risk", 0)
	if len(messages) != 1 {
		t.Fatalf("got %d messages, want 1", len(messages))
	}
	if messages[0].RiskLevel != domain.RiskCritical {
		t.Errorf("risk level = %s, want critical", messages[0].RiskLevel)
	}
	if string(messages[0].RiskFlags) != string(flags) {
		t.Errorf("risk flags = %s, want %s", messages[0].RiskFlags, flags)
	}
	if messages[0].Extraction != nil {
		t.Errorf("extraction = %s, want nil", messages[0].Extraction)
	}
}

func TestUpsertScreenerResponseIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedConversation(t, s, "conv_resp")

	first := &domain.ScreenerResponse{
		ConversationID: "conv_resp",
		QuestionID:     "q1",
		MessageID:      "msg_1",
		RawText:        "sometimes",
		Value:          1,
		Confidence:     0.9,
		Method:         domain.ExtractionRuleBased,
		CreatedAt:      time.Now(),
	}
	if err := s.UpsertScreenerResponse(ctx, first); err != nil {
		t.Fatalf("UpsertScreenerResponse: %v", err)
	}

	// Re-answering the same question replaces, never duplicates.
	second := *first
	second.MessageID = "msg_2"
	second.RawText = "nearly every day"
	second.Value = 3
	if err := s.UpsertScreenerResponse(ctx, &second); err != nil {
		t.Fatalf("UpsertScreenerResponse (replace): %v", err)
	}

	responses, err := s.GetScreenerResponses(ctx, "conv_resp")
	if err != nil {
		t.Fatalf("GetScreenerResponses: %v", err)
	}
	if len(responses) != 1 {
		t.Fatalf("got %d responses, want 1", len(responses))
	}
	if responses[0].Value != 3 || responses[0].MessageID != "msg_2" {
		t.Errorf("response = %+v, want replaced values", responses[0])
	}
}

func TestCrisisEventsAppendOnly(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedConversation(t, s, "conv_crisis")

	for i := 0; i < 2; i++ {
		ev := &domain.CrisisEvent{
			EventID:        fmt.Sprintf("crs_%d", i),
			ConversationID: "conv_crisis",
			MessageID:      fmt.Sprintf("msg_%d", i),
			RiskLevel:      domain.RiskCritical,
			Categories:     []string{"suicidal_intent"},
			Context:        json.RawMessage(`{"screener_type":"mood","open_question_id":"q3","questions_completed":2}`),
			DetectionMode:  "keyword",
			CreatedAt:      time.Now().Add(time.Duration(i) * time.Second),
		}
		if err := s.CreateCrisisEvent(ctx, ev); err != nil {
			t.Fatalf("CreateCrisisEvent %d: %v", i, err)
		}
	}

	events, err := s.GetCrisisEvents(ctx, "conv_crisis")
	if err != nil {
		t.Fatalf("GetCrisisEvents: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].EventID != "crs_0" {
		t.Errorf("events[0] = %s, want crs_0 (oldest first)", events[0].EventID)
	}
	if len(events[0].Categories) != 1 || events[0].Categories[0] != "suicidal_intent" {
		t.Errorf("categories = %v, want [suicidal_intent]", events[0].Categories)
	}
	var ctxDoc domain.CrisisContext
	if err := json.Unmarshal(events[0].Context, &ctxDoc); err != nil {
		t.Fatalf("unmarshal context: %v", err)
	}
	if ctxDoc.OpenQuestionID != "q3" || ctxDoc.QuestionsCompleted != 2 {
		t.Errorf("context = %+v, want q3/2", ctxDoc)
	}
}
