package recipechat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/shaharia-lab/recipechat/observability"
)

const (
	GeminiRoleUser  GeminiRole = "user"
	GeminiRoleModel GeminiRole = "model"
)

type GeminiRole = string

// GeminiProvider implements LLMProvider on top of a GeminiModelService.
type GeminiProvider struct {
	service GeminiModelService
	log     observability.Logger
}

// NewGeminiProvider creates a provider for the given service.
func NewGeminiProvider(service GeminiModelService, log observability.Logger) (*GeminiProvider, error) {
	if service == nil {
		return nil, errors.New("GeminiModelService cannot be nil")
	}
	if log == nil {
		log = observability.NewNullLogger()
	}
	return &GeminiProvider{
		service: service,
		log:     log,
	}, nil
}

// GetResponse sends all but the last message as chat history and the last message as the
// new turn. System messages become the system instruction.
func (p *GeminiProvider) GetResponse(ctx context.Context, messages []LLMMessage, config LLMRequestConfig) (LLMResponse, error) {
	startTime := time.Now()

	systemInstruction, contents := mapLLMMessagesToGenaiContent(messages)
	if len(contents) == 0 || contents[len(contents)-1].Role != GeminiRoleUser {
		return LLMResponse{}, &LLMError{Code: 400, Message: "conversation must end with a user message"}
	}

	history := contents[:len(contents)-1]
	last := contents[len(contents)-1]

	session := p.service.StartChat(systemInstruction, mapLLMConfigToGenaiConfig(config), history)
	resp, err := session.SendMessage(ctx, last.Parts...)
	if err != nil {
		return LLMResponse{}, fmt.Errorf("gemini SendMessage failed: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockReasonUnspecified {
			return LLMResponse{}, &LLMError{Code: 400, Message: fmt.Sprintf("request blocked by API: %s", resp.PromptFeedback.BlockReason.String())}
		}
		return LLMResponse{}, &LLMError{Code: 400, Message: "gemini API returned no candidates"}
	}

	llmResponse := LLMResponse{
		Text:           extractTextFromParts(resp.Candidates[0].Content.Parts),
		CompletionTime: time.Since(startTime).Seconds(),
	}
	if resp.UsageMetadata != nil {
		llmResponse.TotalInputToken = int(resp.UsageMetadata.PromptTokenCount)
		llmResponse.TotalOutputToken = int(resp.UsageMetadata.CandidatesTokenCount)
	}

	p.log.WithFields(map[string]interface{}{
		"input_token":  llmResponse.TotalInputToken,
		"output_token": llmResponse.TotalOutputToken,
	}).Debug("gemini response received")

	return llmResponse, nil
}

func mapLLMMessagesToGenaiContent(messages []LLMMessage) (*genai.Content, []*genai.Content) {
	var system []genai.Part
	contents := make([]*genai.Content, 0, len(messages))

	for _, msg := range messages {
		switch msg.Role {
		case SystemRole:
			system = append(system, genai.Text(msg.Text))
		case AssistantRole:
			contents = append(contents, &genai.Content{Role: GeminiRoleModel, Parts: []genai.Part{genai.Text(msg.Text)}})
		default:
			contents = append(contents, &genai.Content{Role: GeminiRoleUser, Parts: []genai.Part{genai.Text(msg.Text)}})
		}
	}

	if len(system) == 0 {
		return nil, contents
	}
	return &genai.Content{Parts: system}, contents
}

func mapLLMConfigToGenaiConfig(config LLMRequestConfig) *genai.GenerationConfig {
	genaiConfig := &genai.GenerationConfig{}
	genaiConfig.SetTemperature(float32(config.Temperature))
	genaiConfig.SetTopP(float32(config.TopP))
	if config.TopK > 0 {
		genaiConfig.SetTopK(int32(config.TopK))
	}
	if config.MaxToken > 0 {
		genaiConfig.SetMaxOutputTokens(int32(config.MaxToken))
	}
	return genaiConfig
}

func extractTextFromParts(parts []genai.Part) string {
	var sb strings.Builder
	for _, part := range parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return sb.String()
}
