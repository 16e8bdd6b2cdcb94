package recipechat

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiModelService defines the interface for interacting with the Gemini model
type GeminiModelService interface {
	StartChat(systemInstruction *genai.Content, config *genai.GenerationConfig, history []*genai.Content) ChatSessionService
}

// ChatSessionService defines the interface for chat session management
type ChatSessionService interface {
	SendMessage(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// GoogleGeminiService implements GeminiModelService using the genai client
type GoogleGeminiService struct {
	client    *genai.Client
	modelName string
}

// GoogleGeminiChatSessionService implements ChatSessionService using genai.ChatSession
type GoogleGeminiChatSessionService struct {
	cs *genai.ChatSession
}

// NewGoogleGeminiService creates a new instance of GoogleGeminiService
func NewGoogleGeminiService(ctx context.Context, apiKey, modelName string) (*GoogleGeminiService, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &GoogleGeminiService{client: client, modelName: modelName}, nil
}

// StartChat creates a chat session on a fresh model handle, so concurrent requests never
// share generation settings.
func (g *GoogleGeminiService) StartChat(systemInstruction *genai.Content, config *genai.GenerationConfig, history []*genai.Content) ChatSessionService {
	model := g.client.GenerativeModel(g.modelName)
	if config != nil {
		model.GenerationConfig = *config
	}
	model.SystemInstruction = systemInstruction

	cs := model.StartChat()
	cs.History = history
	return &GoogleGeminiChatSessionService{cs: cs}
}

// Close releases the underlying client.
func (g *GoogleGeminiService) Close() error {
	return g.client.Close()
}

// SendMessage sends a message to the chat session and returns the response
func (ggcss *GoogleGeminiChatSessionService) SendMessage(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
	return ggcss.cs.SendMessage(ctx, parts...)
}
