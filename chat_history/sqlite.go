package chat_history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shaharia-lab/recipechat"
	"github.com/shaharia-lab/recipechat/observability"
)

// SQLiteConversationStore is an SQLite implementation of ConversationStorage
type SQLiteConversationStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	logger observability.Logger
}

// NewSQLiteConversationStore opens (or creates) the SQLite database at databasePath and
// makes sure the schema exists.
func NewSQLiteConversationStore(databasePath string, logger observability.Logger) (*SQLiteConversationStore, error) {
	db, err := sql.Open("sqlite3", databasePath+"?_busy_timeout=5000&_journal_mode=WAL&_synchronous=NORMAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if logger == nil {
		logger = observability.NewNullLogger()
	}

	store := &SQLiteConversationStore{
		db:     db,
		logger: logger,
	}

	if err := store.initSchema(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database schema: %w", err)
	}

	return store, nil
}

// initSchema creates the necessary tables if they don't exist
func (s *SQLiteConversationStore) initSchema(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	createConversationsTableSQL := `
    CREATE TABLE IF NOT EXISTS conversations (
        user_id TEXT PRIMARY KEY,
        messages TEXT NOT NULL,
        updated_at DATETIME NOT NULL
    );`

	createUpdatedAtIndexSQL := `
	CREATE INDEX IF NOT EXISTS idx_conversations_updated_at ON conversations (updated_at);
	`

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction for schema init: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, createConversationsTableSQL); err != nil {
		return fmt.Errorf("failed to create conversations table: %w", err)
	}

	if _, err := tx.ExecContext(ctx, createUpdatedAtIndexSQL); err != nil {
		s.logger.WithErr(err).Warn("failed to create conversations updated_at index")
	}

	return tx.Commit()
}

// Put replaces the conversation of userID
func (s *SQLiteConversationStore) Put(ctx context.Context, userID string, messages []recipechat.LLMMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	encoded, err := encodeMessages(messages)
	if err != nil {
		return err
	}

	upsertSQL := `
	INSERT INTO conversations (user_id, messages, updated_at) VALUES (?, ?, ?)
	ON CONFLICT(user_id) DO UPDATE SET messages = excluded.messages, updated_at = excluded.updated_at`

	_, err = s.db.ExecContext(ctx, upsertSQL, userID, encoded, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to upsert conversation (user_id: %s): %w", userID, err)
	}

	return nil
}

// Get retrieves the conversation of userID
func (s *SQLiteConversationStore) Get(ctx context.Context, userID string) ([]recipechat.LLMMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var encoded string
	err := s.db.QueryRowContext(ctx, `SELECT messages FROM conversations WHERE user_id = ?`, userID).Scan(&encoded)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return []recipechat.LLMMessage{}, nil
		}
		return nil, fmt.Errorf("failed to query conversation (user_id: %s): %w", userID, err)
	}

	return decodeMessages(encoded)
}

// ListConversations returns all stored conversations
func (s *SQLiteConversationStore) ListConversations(ctx context.Context) ([]recipechat.ConversationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT user_id, messages, updated_at FROM conversations ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversations: %w", err)
	}
	defer rows.Close()

	records := []recipechat.ConversationRecord{}
	for rows.Next() {
		var record recipechat.ConversationRecord
		var encoded string
		if err := rows.Scan(&record.UserID, &encoded, &record.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan conversation row: %w", err)
		}

		record.Messages, err = decodeMessages(encoded)
		if err != nil {
			return nil, fmt.Errorf("conversation %s: %w", record.UserID, err)
		}
		records = append(records, record)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating conversation rows: %w", err)
	}

	return records, nil
}

// Close releases the database connection.
func (s *SQLiteConversationStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
