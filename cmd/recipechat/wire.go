package main

import (
	"context"
	"fmt"
	"os"

	"github.com/anthropics/anthropic-sdk-go"
	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"
	"github.com/openai/openai-go"
	openaioption "github.com/openai/openai-go/option"
	"github.com/shaharia-lab/recipechat"
	"github.com/shaharia-lab/recipechat/chat_history"
	"github.com/shaharia-lab/recipechat/config"
	"github.com/shaharia-lab/recipechat/observability"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func newLogger(cfg config.LogConfig) (observability.Logger, error) {
	return observability.NewLogger(observability.LogOptions{
		Backend: cfg.Backend,
		Level:   cfg.Level,
		Format:  cfg.Format,
		Output:  os.Stderr,
	})
}

func requestConfig(cfg config.LLMConfig) recipechat.LLMRequestConfig {
	return recipechat.NewRequestConfig(
		recipechat.WithMaxToken(cfg.MaxToken),
		recipechat.WithTemperature(cfg.Temperature),
		recipechat.WithTopP(cfg.TopP),
		recipechat.WithTopK(cfg.TopK),
		recipechat.WithTimeout(cfg.Timeout),
	)
}

// newProvider builds the configured completion provider. The returned close function
// releases provider resources and is never nil.
func newProvider(ctx context.Context, cfg config.LLMConfig, logger observability.Logger) (recipechat.LLMProvider, func() error, error) {
	noop := func() error { return nil }
	var provider recipechat.LLMProvider
	closeFn := noop

	switch cfg.Provider {
	case config.ProviderOpenAI:
		var opts []openaioption.RequestOption
		if cfg.BaseURL != "" {
			opts = append(opts, openaioption.WithBaseURL(cfg.BaseURL))
		}
		provider = recipechat.NewOpenAILLMProvider(recipechat.OpenAIProviderConfig{
			Client: recipechat.NewOpenAIClient(cfg.APIKey, opts...),
			Model:  openai.ChatModel(cfg.Model),
		})

	case config.ProviderAnthropic:
		var opts []anthropicoption.RequestOption
		if cfg.BaseURL != "" {
			opts = append(opts, anthropicoption.WithBaseURL(cfg.BaseURL))
		}
		provider = recipechat.NewAnthropicLLMProvider(recipechat.AnthropicProviderConfig{
			Client: recipechat.NewAnthropicClient(cfg.APIKey, opts...),
			Model:  anthropic.Model(cfg.Model),
		})

	case config.ProviderBedrock:
		client, err := recipechat.NewBedrockClient(ctx, cfg.Region)
		if err != nil {
			return nil, noop, err
		}
		provider = recipechat.NewBedrockLLMProvider(recipechat.BedrockProviderConfig{
			Client: client,
			Model:  cfg.Model,
		})

	case config.ProviderGemini:
		service, err := recipechat.NewGoogleGeminiService(ctx, cfg.APIKey, cfg.Model)
		if err != nil {
			return nil, noop, err
		}
		gemini, err := recipechat.NewGeminiProvider(service, logger)
		if err != nil {
			service.Close()
			return nil, noop, err
		}
		provider = gemini
		closeFn = service.Close

	case config.ProviderNoOps:
		provider = recipechat.NewNoOpsLLMProvider()

	default:
		return nil, noop, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}

	if cfg.Tracing {
		provider = recipechat.NewTracingLLMProvider(provider)
	}
	return provider, closeFn, nil
}

func newStore(ctx context.Context, cfg config.StoreConfig, logger observability.Logger) (chat_history.ConversationStorage, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return chat_history.NewInMemoryConversationStore(), nil

	case config.DriverSQLite:
		store, err := chat_history.NewSQLiteConversationStore(cfg.DSN, logger)
		if err != nil {
			return nil, err
		}
		return store, nil

	case config.DriverPostgres:
		store, err := chat_history.OpenPostgresConversationStore(ctx, cfg.DSN, logger)
		if err != nil {
			return nil, err
		}
		return store, nil

	case config.DriverRedis:
		store, err := chat_history.NewRedisConversationStore(ctx, chat_history.RedisStoreOptions{
			URL:       cfg.RedisURL,
			KeyPrefix: cfg.KeyPrefix,
			TTL:       cfg.TTL,
		}, logger)
		if err != nil {
			return nil, err
		}
		return store, nil
	}

	return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
}

// installTracerProvider registers an SDK tracer provider so spans carry real trace ids
// that can be correlated in logs. The returned function flushes and stops it.
func installTracerProvider() func(context.Context) error {
	tp := sdktrace.NewTracerProvider()
	otel.SetTracerProvider(tp)
	return tp.Shutdown
}

// newChatService wires identity, turn processing, completion and storage.
func newChatService(cfg config.LLMConfig, provider recipechat.LLMProvider, store recipechat.ConversationStore) (*recipechat.ChatService, error) {
	prompt, err := cfg.ResolveSystemPrompt(recipechat.DefaultSystemPrompt)
	if err != nil {
		return nil, err
	}

	llm := recipechat.NewLLMRequest(requestConfig(cfg), provider)
	return recipechat.NewChatService(
		recipechat.NewIdentityResolver(),
		recipechat.NewTurnProcessor(prompt),
		llm.Complete,
		store,
	), nil
}
