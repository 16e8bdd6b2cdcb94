// Package recipechat implements a conversational recipe-recommendation backend on top of
// pluggable LLM providers and conversation stores.
package recipechat

import (
	"context"
	"fmt"
	"time"
)

// LLMMessageRole is the role of a message author in a conversation.
type LLMMessageRole string

const (
	UserRole      LLMMessageRole = "user"
	AssistantRole LLMMessageRole = "assistant"
	SystemRole    LLMMessageRole = "system"
)

// LLMMessage is a single message of a conversation. Roles outside the known set are
// carried through unchanged.
type LLMMessage struct {
	Role LLMMessageRole `json:"role"`
	Text string         `json:"content"`
}

// LLMResponse is the result of a single completion call.
type LLMResponse struct {
	Text             string
	TotalInputToken  int
	TotalOutputToken int
	CompletionTime   float64
}

// LLMError is returned by providers when the upstream answer cannot be used.
type LLMError struct {
	Code    int
	Message string
}

func (e *LLMError) Error() string {
	return fmt.Sprintf("LLM error %d: %s", e.Code, e.Message)
}

// LLMProvider is implemented by every completion backend.
type LLMProvider interface {
	GetResponse(ctx context.Context, messages []LLMMessage, config LLMRequestConfig) (LLMResponse, error)
}

// LLMRequestConfig holds the sampling parameters sent with each completion call.
type LLMRequestConfig struct {
	MaxToken    int64
	TopP        float64
	Temperature float64
	TopK        int64
	Timeout     time.Duration
}

// RequestOption mutates an LLMRequestConfig.
type RequestOption func(*LLMRequestConfig)

// DefaultRequestConfig returns the configuration used when no options are given.
func DefaultRequestConfig() LLMRequestConfig {
	return LLMRequestConfig{
		MaxToken:    1000,
		TopP:        0.5,
		Temperature: 0.5,
		TopK:        40,
	}
}

// NewRequestConfig builds a request config from the defaults and the given options.
//
// Example usage:
//
//	config := recipechat.NewRequestConfig(
//	    recipechat.WithMaxToken(2000),
//	    recipechat.WithTemperature(0.7),
//	)
func NewRequestConfig(opts ...RequestOption) LLMRequestConfig {
	config := DefaultRequestConfig()
	for _, opt := range opts {
		opt(&config)
	}
	return config
}

// WithMaxToken sets the maximum number of generated tokens.
func WithMaxToken(maxToken int64) RequestOption {
	return func(c *LLMRequestConfig) {
		c.MaxToken = maxToken
	}
}

// WithTopP sets nucleus sampling.
func WithTopP(topP float64) RequestOption {
	return func(c *LLMRequestConfig) {
		c.TopP = topP
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(temperature float64) RequestOption {
	return func(c *LLMRequestConfig) {
		c.Temperature = temperature
	}
}

// WithTopK sets top-k sampling. Providers that do not support it ignore it.
func WithTopK(topK int64) RequestOption {
	return func(c *LLMRequestConfig) {
		c.TopK = topK
	}
}

// WithTimeout bounds every completion call. Zero means no deadline beyond the caller's context.
func WithTimeout(timeout time.Duration) RequestOption {
	return func(c *LLMRequestConfig) {
		c.Timeout = timeout
	}
}
