package chat_history

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/shaharia-lab/recipechat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func expectPostgresSchema(mock sqlmock.Sqlmock) {
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS conversations")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("CREATE INDEX IF NOT EXISTS idx_conversations_updated_at")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()
}

func setupPostgresStore(t *testing.T) (*PostgresConversationStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	expectPostgresSchema(mock)
	store, err := NewPostgresConversationStore(context.Background(), db, nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		mock.ExpectClose()
		assert.NoError(t, store.Close())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	return store, mock
}

func TestNewPostgresConversationStore_SchemaFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS conversations")).
		WillReturnError(errors.New("permission denied"))
	mock.ExpectRollback()

	store, err := NewPostgresConversationStore(context.Background(), db, nil)
	assert.Nil(t, store)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "permission denied")
}

func TestPostgresConversationStore_Put(t *testing.T) {
	tests := []struct {
		name      string
		messages  []recipechat.LLMMessage
		execErr   error
		wantErr   string
		wantValue string
	}{
		{
			name: "upserts encoded history",
			messages: []recipechat.LLMMessage{
				{Role: recipechat.UserRole, Text: "Any soup ideas?"},
			},
			wantValue: `[{"role":"user","content":"Any soup ideas?"}]`,
		},
		{
			name:      "nil history stored as empty array",
			wantValue: `[]`,
		},
		{
			name:      "server error carries sqlstate",
			messages:  []recipechat.LLMMessage{{Role: recipechat.UserRole, Text: "hi"}},
			execErr:   &pq.Error{Code: "42P01", Message: `relation "conversations" does not exist`},
			wantErr:   "sqlstate 42P01",
			wantValue: `[{"role":"user","content":"hi"}]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, mock := setupPostgresStore(t)

			exec := mock.ExpectExec(regexp.QuoteMeta("INSERT INTO conversations (user_id, messages, updated_at) VALUES ($1, $2, $3)")).
				WithArgs("u1", tt.wantValue, sqlmock.AnyArg())
			if tt.execErr != nil {
				exec.WillReturnError(tt.execErr)
			} else {
				exec.WillReturnResult(sqlmock.NewResult(0, 1))
			}

			err := store.Put(context.Background(), "u1", tt.messages)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				var pqErr *pq.Error
				assert.True(t, errors.As(err, &pqErr))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestPostgresConversationStore_Get(t *testing.T) {
	query := regexp.QuoteMeta("SELECT messages FROM conversations WHERE user_id = $1")

	t.Run("existing conversation", func(t *testing.T) {
		store, mock := setupPostgresStore(t)
		mock.ExpectQuery(query).WithArgs("u1").
			WillReturnRows(sqlmock.NewRows([]string{"messages"}).
				AddRow(`[{"role":"system","content":"sys"},{"role":"user","content":"hi"}]`))

		messages, err := store.Get(context.Background(), "u1")
		require.NoError(t, err)
		assert.Equal(t, []recipechat.LLMMessage{
			{Role: recipechat.SystemRole, Text: "sys"},
			{Role: recipechat.UserRole, Text: "hi"},
		}, messages)
	})

	t.Run("unknown user", func(t *testing.T) {
		store, mock := setupPostgresStore(t)
		mock.ExpectQuery(query).WithArgs("ghost").
			WillReturnRows(sqlmock.NewRows([]string{"messages"}))

		messages, err := store.Get(context.Background(), "ghost")
		require.NoError(t, err)
		assert.NotNil(t, messages)
		assert.Empty(t, messages)
	})

	t.Run("query failure", func(t *testing.T) {
		store, mock := setupPostgresStore(t)
		mock.ExpectQuery(query).WithArgs("u1").WillReturnError(errors.New("connection reset"))

		messages, err := store.Get(context.Background(), "u1")
		assert.Nil(t, messages)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "connection reset")
	})
}

func TestPostgresConversationStore_ListConversations(t *testing.T) {
	store, mock := setupPostgresStore(t)
	newer := time.Date(2024, 6, 2, 10, 0, 0, 0, time.UTC)
	older := newer.Add(-time.Hour)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT user_id, messages, updated_at FROM conversations ORDER BY updated_at DESC")).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "messages", "updated_at"}).
			AddRow("bob", `[{"role":"user","content":"pasta?"}]`, newer).
			AddRow("alice", `[]`, older))

	records, err := store.ListConversations(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "bob", records[0].UserID)
	assert.Equal(t, newer, records[0].UpdatedAt)
	assert.Len(t, records[0].Messages, 1)
	assert.Equal(t, "alice", records[1].UserID)
	assert.Empty(t, records[1].Messages)
}
