package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/evergreenbh/intake/internal/domain"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// Ensure SQLiteStore implements Store.
var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new SQLite store.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// For in-memory SQLite, multiple connections create separate databases.
	// Keep a single connection to avoid schema/data disappearing across goroutines.
	if dsn == ":memory:" || strings.Contains(dsn, "mode=memory") {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return s, nil
}

// migrate runs database migrations.
func (s *SQLiteStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS conversations (
			conversation_id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			screener_type TEXT NOT NULL,
			respondent_role TEXT NOT NULL,
			status TEXT NOT NULL,
			questions_completed INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS messages (
			message_id TEXT PRIMARY KEY,
			conversation_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			risk_level TEXT NOT NULL DEFAULT 'none',
			risk_flags TEXT,
			extraction TEXT,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (conversation_id, seq),
			FOREIGN KEY (conversation_id) REFERENCES conversations(conversation_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id, seq)`,
		`CREATE TABLE IF NOT EXISTS screener_responses (
			conversation_id TEXT NOT NULL,
			question_id TEXT NOT NULL,
			message_id TEXT NOT NULL,
			raw_text TEXT NOT NULL,
			value INTEGER NOT NULL,
			confidence REAL NOT NULL,
			method TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (conversation_id, question_id),
			FOREIGN KEY (conversation_id) REFERENCES conversations(conversation_id)
		)`,
		`CREATE TABLE IF NOT EXISTS crisis_events (
			event_id TEXT PRIMARY KEY,
			conversation_id TEXT NOT NULL,
			message_id TEXT NOT NULL,
			risk_level TEXT NOT NULL,
			categories TEXT,
			context TEXT,
			detection_mode TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (conversation_id) REFERENCES conversations(conversation_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_crisis_events_conversation ON crisis_events(conversation_id, created_at)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\n%s", err, m)
		}
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateConversation creates a new conversation.
func (s *SQLiteStore) CreateConversation(ctx context.Context, conv *domain.Conversation) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO conversations (conversation_id, user_id, screener_type, respondent_role, status, questions_completed, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		conv.ConversationID, conv.UserID, conv.ScreenerType, conv.RespondentRole, conv.Status, conv.QuestionsCompleted, conv.CreatedAt, conv.UpdatedAt)
	return err
}

// GetConversation retrieves a conversation by ID.
func (s *SQLiteStore) GetConversation(ctx context.Context, conversationID string) (*domain.Conversation, error) {
	var conv domain.Conversation
	err := s.db.QueryRowContext(ctx,
		`SELECT conversation_id, user_id, screener_type, respondent_role, status, questions_completed, created_at, updated_at
		 FROM conversations WHERE conversation_id = ?`,
		conversationID).Scan(&conv.ConversationID, &conv.UserID, &conv.ScreenerType, &conv.RespondentRole, &conv.Status, &conv.QuestionsCompleted, &conv.CreatedAt, &conv.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

// UpdateConversationStatus updates the lifecycle status of a conversation.
func (s *SQLiteStore) UpdateConversationStatus(ctx context.Context, conversationID string, status domain.ConversationStatus) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE conversations SET status = ?, updated_at = ? WHERE conversation_id = ?`,
		status, time.Now(), conversationID)
	return err
}

// UpdateConversationProgress updates the completed-question count.
func (s *SQLiteStore) UpdateConversationProgress(ctx context.Context, conversationID string, questionsCompleted int) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE conversations SET questions_completed = ?, updated_at = ? WHERE conversation_id = ?`,
		questionsCompleted, time.Now(), conversationID)
	return err
}

// AppendMessage writes a message with the next per-conversation sequence
// number. The sequence is assigned inside the INSERT so it is atomic; turns
// for one conversation are additionally serialized by the service.
func (s *SQLiteStore) AppendMessage(ctx context.Context, msg *domain.Message) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (message_id, conversation_id, seq, role, content, risk_level, risk_flags, extraction, created_at)
		 VALUES (?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM messages WHERE conversation_id = ?), ?, ?, ?, ?, ?, ?)`,
		msg.MessageID, msg.ConversationID, msg.ConversationID, msg.Role, msg.Content, msg.RiskLevel,
		nullStringBytes(msg.RiskFlags), nullStringBytes(msg.Extraction), msg.CreatedAt)
	if err != nil {
		return err
	}
	return s.db.QueryRowContext(ctx,
		`SELECT seq FROM messages WHERE message_id = ?`, msg.MessageID).Scan(&msg.Seq)
}

// GetMessages retrieves messages for a conversation, oldest first.
func (s *SQLiteStore) GetMessages(ctx context.Context, conversationID string, limit int) ([]domain.Message, error) {
	query := `SELECT message_id, conversation_id, seq, role, content, risk_level, risk_flags, extraction, created_at
		 FROM messages WHERE conversation_id = ? ORDER BY seq ASC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.QueryContext(ctx, query, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanMessages(rows)
}

// GetRecentMessages retrieves the most recent n messages, oldest first.
func (s *SQLiteStore) GetRecentMessages(ctx context.Context, conversationID string, n int) ([]domain.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT message_id, conversation_id, seq, role, content, risk_level, risk_flags, extraction, created_at
		 FROM messages WHERE conversation_id = ? ORDER BY seq DESC LIMIT ?`,
		conversationID, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages, err := scanMessages(rows)
	if err != nil {
		return nil, err
	}
	// Reverse into ascending sequence order.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

func scanMessages(rows *sql.Rows) ([]domain.Message, error) {
	var messages []domain.Message
	for rows.Next() {
		var msg domain.Message
		var riskFlags, extraction sql.NullString
		if err := rows.Scan(&msg.MessageID, &msg.ConversationID, &msg.Seq, &msg.Role, &msg.Content, &msg.RiskLevel, &riskFlags, &extraction, &msg.CreatedAt); err != nil {
			return nil, err
		}
		if riskFlags.Valid {
			msg.RiskFlags = json.RawMessage(riskFlags.String)
		}
		if extraction.Valid {
			msg.Extraction = json.RawMessage(extraction.String)
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// UpsertScreenerResponse creates or overwrites the response for a question.
// Re-answering the same question replaces the previous answer; it never
// duplicates.
func (s *SQLiteStore) UpsertScreenerResponse(ctx context.Context, resp *domain.ScreenerResponse) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO screener_responses (conversation_id, question_id, message_id, raw_text, value, confidence, method, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		resp.ConversationID, resp.QuestionID, resp.MessageID, resp.RawText, resp.Value, resp.Confidence, resp.Method, resp.CreatedAt)
	return err
}

// GetScreenerResponses retrieves all responses for a conversation.
func (s *SQLiteStore) GetScreenerResponses(ctx context.Context, conversationID string) ([]domain.ScreenerResponse, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT conversation_id, question_id, message_id, raw_text, value, confidence, method, created_at
		 FROM screener_responses WHERE conversation_id = ? ORDER BY question_id ASC`,
		conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var responses []domain.ScreenerResponse
	for rows.Next() {
		var r domain.ScreenerResponse
		if err := rows.Scan(&r.ConversationID, &r.QuestionID, &r.MessageID, &r.RawText, &r.Value, &r.Confidence, &r.Method, &r.CreatedAt); err != nil {
			return nil, err
		}
		responses = append(responses, r)
	}
	return responses, rows.Err()
}

// CreateCrisisEvent appends a crisis event. Events are never updated or
// deleted.
func (s *SQLiteStore) CreateCrisisEvent(ctx context.Context, event *domain.CrisisEvent) error {
	categories, _ := json.Marshal(event.Categories)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO crisis_events (event_id, conversation_id, message_id, risk_level, categories, context, detection_mode, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		event.EventID, event.ConversationID, event.MessageID, event.RiskLevel, string(categories),
		nullStringBytes(event.Context), event.DetectionMode, event.CreatedAt)
	return err
}

// GetCrisisEvents retrieves crisis events for a conversation, oldest first.
func (s *SQLiteStore) GetCrisisEvents(ctx context.Context, conversationID string) ([]domain.CrisisEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT event_id, conversation_id, message_id, risk_level, categories, context, detection_mode, created_at
		 FROM crisis_events WHERE conversation_id = ? ORDER BY created_at ASC`,
		conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.CrisisEvent
	for rows.Next() {
		var ev domain.CrisisEvent
		var categories, evCtx sql.NullString
		if err := rows.Scan(&ev.EventID, &ev.ConversationID, &ev.MessageID, &ev.RiskLevel, &categories, &evCtx, &ev.DetectionMode, &ev.CreatedAt); err != nil {
			return nil, err
		}
		if categories.Valid {
			_ = json.Unmarshal([]byte(categories.String), &ev.Categories)
		}
		if evCtx.Valid {
			ev.Context = json.RawMessage(evCtx.String)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

func nullStringBytes(b []byte) sql.NullString {
	if len(b) == 0 {
		return sql.NullString{}
	}
	return sql.NullString{String: string(b), Valid: true}
}
