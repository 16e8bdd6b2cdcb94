package recipechat

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
)

// BedrockLLMProvider implements the LLMProvider interface using AWS Bedrock's Converse API.
type BedrockLLMProvider struct {
	client BedrockClient
	model  string
}

// BedrockProviderConfig holds the configuration options for creating a Bedrock provider.
type BedrockProviderConfig struct {
	Client BedrockClient
	Model  string
}

// NewBedrockLLMProvider creates a new Bedrock provider with the specified configuration.
// If no model is specified, it defaults to Claude 3.5 Sonnet.
func NewBedrockLLMProvider(config BedrockProviderConfig) *BedrockLLMProvider {
	if config.Model == "" {
		config.Model = "anthropic.claude-3-5-sonnet-20240620-v1:0"
	}

	return &BedrockLLMProvider{
		client: config.Client,
		model:  config.Model,
	}
}

// buildConverseInput maps messages to the Converse request. System messages become
// system content blocks.
func (p *BedrockLLMProvider) buildConverseInput(messages []LLMMessage, config LLMRequestConfig) *bedrockruntime.ConverseInput {
	var system []types.SystemContentBlock
	var bedrockMessages []types.Message

	for _, msg := range messages {
		if msg.Role == SystemRole {
			system = append(system, &types.SystemContentBlockMemberText{Value: msg.Text})
			continue
		}

		role := types.ConversationRoleUser
		if msg.Role == AssistantRole {
			role = types.ConversationRoleAssistant
		}

		bedrockMessages = append(bedrockMessages, types.Message{
			Role: role,
			Content: []types.ContentBlock{
				&types.ContentBlockMemberText{
					Value: msg.Text,
				},
			},
		})
	}

	return &bedrockruntime.ConverseInput{
		ModelId:  aws.String(p.model),
		Messages: bedrockMessages,
		System:   system,
		InferenceConfig: &types.InferenceConfiguration{
			Temperature: aws.Float32(float32(config.Temperature)),
			TopP:        aws.Float32(float32(config.TopP)),
			MaxTokens:   aws.Int32(int32(config.MaxToken)),
		},
	}
}

// GetResponse generates a response using Bedrock's API for the given messages and configuration.
func (p *BedrockLLMProvider) GetResponse(ctx context.Context, messages []LLMMessage, config LLMRequestConfig) (LLMResponse, error) {
	startTime := time.Now()

	output, err := p.client.Converse(ctx, p.buildConverseInput(messages, config))
	if err != nil {
		return LLMResponse{}, err
	}

	msgOutput, ok := output.Output.(*types.ConverseOutputMemberMessage)
	if !ok {
		return LLMResponse{}, &LLMError{Code: 400, Message: "no message in converse output"}
	}

	var responseText string
	for _, block := range msgOutput.Value.Content {
		if textBlock, ok := block.(*types.ContentBlockMemberText); ok {
			responseText += textBlock.Value
		}
	}

	response := LLMResponse{
		Text:           responseText,
		CompletionTime: time.Since(startTime).Seconds(),
	}
	if output.Usage != nil {
		response.TotalInputToken = int(aws.ToInt32(output.Usage.InputTokens))
		response.TotalOutputToken = int(aws.ToInt32(output.Usage.OutputTokens))
	}

	return response, nil
}
