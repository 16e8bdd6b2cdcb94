// Package chat_history provides persistent and in-memory conversation stores.
//
// Every store keeps exactly one record per user id and replaces it on each Put. Reading an
// unknown user id yields an empty history, never an error.
package chat_history

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/shaharia-lab/recipechat"
)

// ConversationStorage is the full contract implemented by every backend in this package.
type ConversationStorage interface {
	recipechat.ConversationStore

	// ListConversations returns all stored conversations, most recently updated first.
	ListConversations(ctx context.Context) ([]recipechat.ConversationRecord, error)

	// Close releases the resources held by the store.
	Close() error
}

func cloneMessages(messages []recipechat.LLMMessage) []recipechat.LLMMessage {
	cloned := make([]recipechat.LLMMessage, len(messages))
	copy(cloned, messages)
	return cloned
}

func encodeMessages(messages []recipechat.LLMMessage) (string, error) {
	if messages == nil {
		messages = []recipechat.LLMMessage{}
	}
	data, err := json.Marshal(messages)
	if err != nil {
		return "", fmt.Errorf("failed to marshal messages: %w", err)
	}
	return string(data), nil
}

func decodeMessages(data string) ([]recipechat.LLMMessage, error) {
	messages := []recipechat.LLMMessage{}
	if data == "" {
		return messages, nil
	}
	if err := json.Unmarshal([]byte(data), &messages); err != nil {
		return nil, fmt.Errorf("failed to unmarshal messages: %w", err)
	}
	return messages, nil
}
