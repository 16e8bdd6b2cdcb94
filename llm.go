package recipechat

import (
	"context"
	"strings"
)

// LLMRequest binds a provider to a request configuration.
type LLMRequest struct {
	requestConfig LLMRequestConfig
	provider      LLMProvider
}

// NewLLMRequest creates a new LLMRequest with the specified configuration and provider.
//
// Example usage:
//
//	provider := recipechat.NewOpenAILLMProvider(recipechat.OpenAIProviderConfig{
//	    Client: recipechat.NewOpenAIClient("your-api-key"),
//	    Model:  "gpt-4o-mini",
//	})
//
//	llm := recipechat.NewLLMRequest(recipechat.NewRequestConfig(
//	    recipechat.WithMaxToken(2000),
//	), provider)
func NewLLMRequest(config LLMRequestConfig, provider LLMProvider) *LLMRequest {
	return &LLMRequest{
		requestConfig: config,
		provider:      provider,
	}
}

// Generate sends messages to the configured provider and returns the raw response.
func (r *LLMRequest) Generate(ctx context.Context, messages []LLMMessage) (LLMResponse, error) {
	if r.requestConfig.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.requestConfig.Timeout)
		defer cancel()
	}

	return r.provider.GetResponse(ctx, messages, r.requestConfig)
}

// Complete sends the full history and returns the reply as an assistant message with
// surrounding whitespace removed. It satisfies CompletionFunc.
func (r *LLMRequest) Complete(ctx context.Context, messages []LLMMessage) (LLMMessage, error) {
	response, err := r.Generate(ctx, messages)
	if err != nil {
		return LLMMessage{}, err
	}

	return LLMMessage{
		Role: AssistantRole,
		Text: strings.TrimSpace(response.Text),
	}, nil
}
