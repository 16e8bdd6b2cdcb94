package chat_history

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shaharia-lab/recipechat"
)

// InMemoryConversationStore is an in-memory implementation of ConversationStorage
type InMemoryConversationStore struct {
	conversations map[string]*recipechat.ConversationRecord
	mu            sync.RWMutex
	now           func() time.Time
}

// NewInMemoryConversationStore creates a new instance of InMemoryConversationStore
func NewInMemoryConversationStore() *InMemoryConversationStore {
	return &InMemoryConversationStore{
		conversations: make(map[string]*recipechat.ConversationRecord),
		now:           time.Now,
	}
}

// Put replaces the conversation of userID
func (s *InMemoryConversationStore) Put(ctx context.Context, userID string, messages []recipechat.LLMMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.conversations[userID] = &recipechat.ConversationRecord{
		UserID:    userID,
		Messages:  cloneMessages(messages),
		UpdatedAt: s.now(),
	}
	return nil
}

// Get retrieves the conversation of userID
func (s *InMemoryConversationStore) Get(ctx context.Context, userID string) ([]recipechat.LLMMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, exists := s.conversations[userID]
	if !exists {
		return []recipechat.LLMMessage{}, nil
	}

	return cloneMessages(record.Messages), nil
}

// ListConversations returns all stored conversations
func (s *InMemoryConversationStore) ListConversations(ctx context.Context) ([]recipechat.ConversationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]recipechat.ConversationRecord, 0, len(s.conversations))
	for _, record := range s.conversations {
		records = append(records, recipechat.ConversationRecord{
			UserID:    record.UserID,
			Messages:  cloneMessages(record.Messages),
			UpdatedAt: record.UpdatedAt,
		})
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].UpdatedAt.After(records[j].UpdatedAt)
	})

	return records, nil
}

// Close is a no-op for the in-memory store
func (s *InMemoryConversationStore) Close() error {
	return nil
}
