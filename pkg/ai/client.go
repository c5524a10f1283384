package ai

import (
	"context"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"baterysul.com.br/ledger/pkg/global"
)

const defaultModel = "gpt-4o-mini"

// Client talks to an OpenAI compatible chat completion endpoint.
// A nil or unconfigured Client is valid and reports IsEnabled() == false.
type Client struct {
	api   *openai.Client
	model string
}

// NewClient builds a client for the given endpoint. Requests are single
// attempt: the SDK's automatic retries are turned off.
func NewClient(endpoint, apiKey, model string) *Client {
	if apiKey == "" {
		return &Client{}
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if endpoint != "" {
		opts = append(opts, option.WithBaseURL(endpoint))
	}
	if model == "" {
		model = defaultModel
	}

	api := openai.NewClient(opts...)
	return &Client{api: &api, model: model}
}

// InitializeAIService reads ADVISOR_ENDPOINT, ADVISOR_API_KEY and ADVISOR_MODEL
func InitializeAIService() *Client {
	apiKey := global.GetEnvOrDefault("ADVISOR_API_KEY", "")
	if apiKey == "" {
		global.Logger().Warn("AI service disabled - ADVISOR_API_KEY not provided")
		return &Client{}
	}

	c := NewClient(
		global.GetEnvOrDefault("ADVISOR_ENDPOINT", ""),
		apiKey,
		global.GetEnvOrDefault("ADVISOR_MODEL", defaultModel),
	)
	global.Logger().WithField("model", c.model).Info("AI service initialized")
	return c
}

// IsEnabled returns whether the AI service is properly initialized
func (c *Client) IsEnabled() bool {
	return c != nil && c.api != nil
}

// generateCompletion is a helper function to generate AI completions
func (c *Client) generateCompletion(ctx context.Context, systemMessage, userMessage string) (string, error) {
	if !c.IsEnabled() {
		return "", &AIError{Message: "AI service is not enabled"}
	}

	resp, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			{
				OfSystem: &openai.ChatCompletionSystemMessageParam{
					Content: openai.ChatCompletionSystemMessageParamContentUnion{
						OfString: openai.String(systemMessage),
					},
				},
			},
			{
				OfUser: &openai.ChatCompletionUserMessageParam{
					Content: openai.ChatCompletionUserMessageParamContentUnion{
						OfString: openai.String(userMessage),
					},
				},
			},
		},
		MaxTokens:   openai.Int(1200),
		Temperature: openai.Float(0.7),
	})
	if err != nil {
		return "", &AIError{Message: "Failed to generate AI response", Cause: err}
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", &AIError{Message: "AI returned empty response", Empty: true}
	}

	return resp.Choices[0].Message.Content, nil
}

// AIError represents an AI service error
type AIError struct {
	Message string
	Cause   error
	Empty   bool
}

func (e *AIError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *AIError) Unwrap() error {
	return e.Cause
}
