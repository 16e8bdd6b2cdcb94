package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shaharia-lab/recipechat"
	"github.com/shaharia-lab/recipechat/chat_history"
	"github.com/shaharia-lab/recipechat/config"
	"github.com/shaharia-lab/recipechat/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProvider(t *testing.T) {
	ctx := context.Background()
	logger := observability.NewNullLogger()

	tests := []struct {
		name     string
		cfg      config.LLMConfig
		wantType interface{}
		wantErr  bool
	}{
		{name: "openai", cfg: config.LLMConfig{Provider: config.ProviderOpenAI, APIKey: "sk", Model: "gpt-4o-mini"}, wantType: &recipechat.OpenAILLMProvider{}},
		{name: "openai with base url", cfg: config.LLMConfig{Provider: config.ProviderOpenAI, APIKey: "sk", BaseURL: "http://localhost:11434/v1/"}, wantType: &recipechat.OpenAILLMProvider{}},
		{name: "anthropic", cfg: config.LLMConfig{Provider: config.ProviderAnthropic, APIKey: "sk"}, wantType: &recipechat.AnthropicLLMProvider{}},
		{name: "noops", cfg: config.LLMConfig{Provider: config.ProviderNoOps}, wantType: &recipechat.NoOpsLLMProvider{}},
		{name: "tracing wrapper", cfg: config.LLMConfig{Provider: config.ProviderNoOps, Tracing: true}, wantType: &recipechat.TracingLLMProvider{}},
		{name: "unknown", cfg: config.LLMConfig{Provider: "llama"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider, closeFn, err := newProvider(ctx, tt.cfg, logger)
			require.NotNil(t, closeFn)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.wantType, provider)
			assert.NoError(t, closeFn())
		})
	}
}

func TestNewStore(t *testing.T) {
	ctx := context.Background()
	logger := observability.NewNullLogger()

	memory, err := newStore(ctx, config.StoreConfig{Driver: config.DriverMemory}, logger)
	require.NoError(t, err)
	assert.IsType(t, &chat_history.InMemoryConversationStore{}, memory)

	sqlite, err := newStore(ctx, config.StoreConfig{Driver: config.DriverSQLite, DSN: filepath.Join(t.TempDir(), "chat.db")}, logger)
	require.NoError(t, err)
	assert.IsType(t, &chat_history.SQLiteConversationStore{}, sqlite)
	assert.NoError(t, sqlite.Close())

	broken, err := newStore(ctx, config.StoreConfig{Driver: config.DriverSQLite, DSN: "/non/existent/dir/chat.db"}, logger)
	assert.Error(t, err)
	assert.Nil(t, broken)

	_, err = newStore(ctx, config.StoreConfig{Driver: "mongo"}, logger)
	assert.Error(t, err)
}

func TestNewChatService(t *testing.T) {
	store := chat_history.NewInMemoryConversationStore()
	provider := recipechat.NewNoOpsLLMProvider(recipechat.WithResponse(recipechat.LLMResponse{Text: "Soup"}))

	promptFile := filepath.Join(t.TempDir(), "prompt.txt")
	require.NoError(t, os.WriteFile(promptFile, []byte("Only desserts."), 0o600))

	service, err := newChatService(config.LLMConfig{SystemPromptFile: promptFile}, provider, store)
	require.NoError(t, err)

	result, err := service.Chat(context.Background(), recipechat.ChatRequest{UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, "Only desserts.", result.Messages[0].Text)
	assert.Equal(t, "Soup", result.Messages[1].Text)

	_, err = newChatService(config.LLMConfig{SystemPromptFile: filepath.Join(t.TempDir(), "missing")}, provider, store)
	assert.Error(t, err)

	service, err = newChatService(config.LLMConfig{}, provider, store)
	require.NoError(t, err)
	result, err = service.Chat(context.Background(), recipechat.ChatRequest{UserID: "u2"})
	require.NoError(t, err)
	assert.Equal(t, recipechat.DefaultSystemPrompt, result.Messages[0].Text)
}

func TestPrintHistory(t *testing.T) {
	ctx := context.Background()
	store := chat_history.NewInMemoryConversationStore()
	require.NoError(t, store.Put(ctx, "u1", []recipechat.LLMMessage{
		{Role: recipechat.UserRole, Text: "hi"},
		{Role: recipechat.AssistantRole, Text: "hello"},
	}))

	t.Run("single user", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, printHistory(ctx, &out, store, "u1"))
		assert.JSONEq(t, `{"user_id":"u1","messages":[{"role":"user","content":"hi"},{"role":"assistant","content":"hello"}]}`, out.String())
	})

	t.Run("unknown user", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, printHistory(ctx, &out, store, "nobody"))
		assert.JSONEq(t, `{"user_id":"nobody","messages":[]}`, out.String())
	})

	t.Run("list", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, printHistory(ctx, &out, store, ""))

		var summaries []conversationSummary
		require.NoError(t, json.Unmarshal(out.Bytes(), &summaries))
		require.Len(t, summaries, 1)
		assert.Equal(t, "u1", summaries[0].UserID)
		assert.Equal(t, 2, summaries[0].MessageCount)
	})
}

func TestHistoryCommand(t *testing.T) {
	dir := t.TempDir()
	dsn := filepath.Join(dir, "chat.db")

	store, err := chat_history.NewSQLiteConversationStore(dsn, nil)
	require.NoError(t, err)
	require.NoError(t, store.Put(context.Background(), "u1", []recipechat.LLMMessage{{Role: recipechat.UserRole, Text: "pie?"}}))
	require.NoError(t, store.Close())

	configFile := filepath.Join(dir, "recipechat.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte("store:\n  driver: sqlite\n  dsn: "+dsn+"\n"), 0o600))

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"history", "u1", "--config", configFile})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, out.String(), `"pie?"`)
}

func TestServeCommand_InvalidConfig(t *testing.T) {
	t.Setenv("RECIPECHAT_LLM_PROVIDER", "llama")

	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"serve"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestRunServe_StopsOnCancel(t *testing.T) {
	cfg := config.Config{
		Server: config.ServerConfig{Addr: "127.0.0.1:0", ShutdownTimeout: time.Second},
		LLM:    config.LLMConfig{Provider: config.ProviderNoOps},
		Store:  config.StoreConfig{Driver: config.DriverMemory},
		Log:    config.LogConfig{Backend: observability.BackendNone},
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.NoError(t, runServe(ctx, cfg))
}
