package recipechat

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockBedrockClient is a mock type for the BedrockClient interface
type MockBedrockClient struct {
	mock.Mock
}

func (_m *MockBedrockClient) Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error) {
	args := _m.Called(ctx, params, optFns)

	var r0 *bedrockruntime.ConverseOutput
	if args.Get(0) != nil {
		r0 = args.Get(0).(*bedrockruntime.ConverseOutput)
	}
	return r0, args.Error(1)
}

var _ BedrockClient = (*MockBedrockClient)(nil)

func converseText(text string) *bedrockruntime.ConverseOutput {
	return &bedrockruntime.ConverseOutput{
		Output: &types.ConverseOutputMemberMessage{
			Value: types.Message{
				Role: types.ConversationRoleAssistant,
				Content: []types.ContentBlock{
					&types.ContentBlockMemberText{Value: text},
				},
			},
		},
		StopReason: types.StopReasonEndTurn,
		Usage: &types.TokenUsage{
			InputTokens:  aws.Int32(10),
			OutputTokens: aws.Int32(5),
		},
	}
}

func TestBedrockLLMProvider_GetResponse_BasicConversation(t *testing.T) {
	mockClient := new(MockBedrockClient)

	mockClient.On("Converse", mock.Anything, mock.MatchedBy(func(params *bedrockruntime.ConverseInput) bool {
		if aws.ToString(params.ModelId) != "test-model" || len(params.System) != 1 || len(params.Messages) != 2 {
			return false
		}
		system, ok := params.System[0].(*types.SystemContentBlockMemberText)
		return ok && system.Value == "You are a recipe assistant." &&
			params.Messages[0].Role == types.ConversationRoleUser &&
			params.Messages[1].Role == types.ConversationRoleAssistant &&
			aws.ToInt32(params.InferenceConfig.MaxTokens) == 1000
	}), mock.Anything).Return(converseText("This is a test response"), nil)

	provider := NewBedrockLLMProvider(BedrockProviderConfig{Client: mockClient, Model: "test-model"})

	llm := NewLLMRequest(NewRequestConfig(
		WithMaxToken(1000),
		WithTemperature(0.7),
		WithTopP(0.9),
	), provider)

	response, err := llm.Generate(context.Background(), []LLMMessage{
		{Role: SystemRole, Text: "You are a recipe assistant."},
		{Role: UserRole, Text: "Hello, can you help me?"},
		{Role: AssistantRole, Text: "Of course."},
	})

	require.NoError(t, err)
	assert.Equal(t, "This is a test response", response.Text)
	assert.Equal(t, 10, response.TotalInputToken)
	assert.Equal(t, 5, response.TotalOutputToken)
	mockClient.AssertExpectations(t)
}

func TestBedrockLLMProvider_GetResponse_Error(t *testing.T) {
	mockClient := new(MockBedrockClient)
	expectedError := errors.New("throttled")
	mockClient.On("Converse", mock.Anything, mock.Anything, mock.Anything).Return(nil, expectedError)

	provider := NewBedrockLLMProvider(BedrockProviderConfig{Client: mockClient})
	_, err := provider.GetResponse(context.Background(), []LLMMessage{{Role: UserRole, Text: "hi"}}, DefaultRequestConfig())

	assert.ErrorIs(t, err, expectedError)
	mockClient.AssertExpectations(t)
}

func TestBedrockLLMProvider_GetResponse_UnexpectedOutput(t *testing.T) {
	mockClient := new(MockBedrockClient)
	mockClient.On("Converse", mock.Anything, mock.Anything, mock.Anything).
		Return(&bedrockruntime.ConverseOutput{}, nil)

	provider := NewBedrockLLMProvider(BedrockProviderConfig{Client: mockClient})
	_, err := provider.GetResponse(context.Background(), []LLMMessage{{Role: UserRole, Text: "hi"}}, DefaultRequestConfig())

	var llmErr *LLMError
	require.ErrorAs(t, err, &llmErr)
	assert.Equal(t, "no message in converse output", llmErr.Message)
}

func TestBedrockLLMProvider_DefaultModel(t *testing.T) {
	mockClient := new(MockBedrockClient)
	output := converseText("ok")
	output.Usage = nil

	mockClient.On("Converse", mock.Anything, mock.MatchedBy(func(params *bedrockruntime.ConverseInput) bool {
		return aws.ToString(params.ModelId) == "anthropic.claude-3-5-sonnet-20240620-v1:0" && params.System == nil
	}), mock.Anything).Return(output, nil)

	provider := NewBedrockLLMProvider(BedrockProviderConfig{Client: mockClient})
	response, err := provider.GetResponse(context.Background(), []LLMMessage{{Role: UserRole, Text: "hi"}}, DefaultRequestConfig())

	require.NoError(t, err)
	assert.Equal(t, "ok", response.Text)
	assert.Zero(t, response.TotalInputToken)
	mockClient.AssertExpectations(t)
}
