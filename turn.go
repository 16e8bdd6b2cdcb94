package recipechat

import (
	"context"
	"errors"
)

// CompletionFunc produces the next assistant message for a full conversation history.
type CompletionFunc func(ctx context.Context, messages []LLMMessage) (LLMMessage, error)

// TurnProcessor keeps the system prompt at the head of a conversation and extends it by
// one completion per turn.
type TurnProcessor struct {
	systemPrompt string
}

// NewTurnProcessor creates a TurnProcessor that injects systemPrompt when a history does
// not already start with a system message.
func NewTurnProcessor(systemPrompt string) *TurnProcessor {
	return &TurnProcessor{systemPrompt: systemPrompt}
}

// SystemPrompt returns the configured prompt text.
func (p *TurnProcessor) SystemPrompt() string {
	return p.systemPrompt
}

// Normalize returns a new slice whose first element is a system message. A history that
// already starts with a system message is copied unchanged, whatever its content.
func (p *TurnProcessor) Normalize(history []LLMMessage) []LLMMessage {
	if len(history) > 0 && history[0].Role == SystemRole {
		normalized := make([]LLMMessage, len(history), len(history)+1)
		copy(normalized, history)
		return normalized
	}

	normalized := make([]LLMMessage, 0, len(history)+2)
	normalized = append(normalized, LLMMessage{Role: SystemRole, Text: p.systemPrompt})
	return append(normalized, history...)
}

// ProcessTurn normalizes history, asks complete for the next message using the entire
// normalized history and returns the normalized history with that message appended.
// The input slice is never modified. Failures of complete are returned as
// *CompletionFailure and are not retried.
func (p *TurnProcessor) ProcessTurn(ctx context.Context, history []LLMMessage, complete CompletionFunc) ([]LLMMessage, error) {
	normalized := p.Normalize(history)

	reply, err := complete(ctx, normalized)
	if err != nil {
		var failure *CompletionFailure
		if errors.As(err, &failure) {
			return nil, failure
		}
		return nil, &CompletionFailure{Err: err}
	}

	return append(normalized, reply), nil
}
