package recipechat

import (
	"context"
	"time"
)

// ConversationRecord is the stored state of one user's conversation.
type ConversationRecord struct {
	UserID    string       `json:"user_id"`
	Messages  []LLMMessage `json:"messages"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// ConversationStore persists the latest full history per user id.
type ConversationStore interface {
	// Put replaces the stored history of userID.
	Put(ctx context.Context, userID string, messages []LLMMessage) error

	// Get returns the stored history of userID, or an empty slice if there is none.
	Get(ctx context.Context, userID string) ([]LLMMessage, error)
}

// ChatRequest is one incoming chat turn.
type ChatRequest struct {
	Messages []LLMMessage
	// UserID is the identity asserted by the client, if any.
	UserID string
	// IssuedUserID is the identity previously issued to the client, if any.
	IssuedUserID string
}

// ChatResult is the outcome of a chat turn.
type ChatResult struct {
	UserID      string
	NewlyIssued bool
	Messages    []LLMMessage
	Persisted   bool
}

// ChatService runs the conversation session protocol: resolve identity, process the
// turn, then persist the resulting history.
type ChatService struct {
	resolver  *IdentityResolver
	processor *TurnProcessor
	complete  CompletionFunc
	store     ConversationStore
}

// NewChatService wires the protocol components together.
func NewChatService(resolver *IdentityResolver, processor *TurnProcessor, complete CompletionFunc, store ConversationStore) *ChatService {
	return &ChatService{
		resolver:  resolver,
		processor: processor,
		complete:  complete,
		store:     store,
	}
}

// Chat processes one turn.
//
// If the completion fails the error is a *CompletionFailure, the store is not written and
// only the identity fields of the result are set. If persisting fails after a successful
// completion, the full result is returned together with a *StoreFailure so the reply is
// not lost.
func (s *ChatService) Chat(ctx context.Context, req ChatRequest) (ChatResult, error) {
	userID, newlyIssued := s.resolver.Resolve(req.UserID, req.IssuedUserID)
	result := ChatResult{UserID: userID, NewlyIssued: newlyIssued}

	messages, err := s.processor.ProcessTurn(ctx, req.Messages, s.complete)
	if err != nil {
		return result, err
	}

	if err := ctx.Err(); err != nil {
		return result, &CompletionFailure{Err: err}
	}

	result.Messages = messages
	if err := s.store.Put(ctx, userID, messages); err != nil {
		return result, &StoreFailure{Op: "put", UserID: userID, Err: err}
	}
	result.Persisted = true

	return result, nil
}

// History returns the stored conversation of userID verbatim.
func (s *ChatService) History(ctx context.Context, userID string) ([]LLMMessage, error) {
	messages, err := s.store.Get(ctx, userID)
	if err != nil {
		return nil, &StoreFailure{Op: "get", UserID: userID, Err: err}
	}
	if messages == nil {
		messages = []LLMMessage{}
	}
	return messages, nil
}
