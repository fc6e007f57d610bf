package services

import (
	"context"
	"encoding/base64"
	"fmt"

	appconfig "trading-contest/config"
	"trading-contest/models"
	"trading-contest/observability"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

// openaiClient defines the interface for OpenAI API calls (for testing)
type openaiClient interface {
	CreateChatCompletion(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error)
}

// openaiClientWrapper wraps the openai.Client to implement our interface
type openaiClientWrapper struct {
	client openai.Client
}

func (w *openaiClientWrapper) CreateChatCompletion(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error) {
	return w.client.Chat.Completions.New(ctx, params)
}

// OpenAIExtractor extracts trade fields from brokerage screenshots
// using an OpenAI vision model.
type OpenAIExtractor struct {
	client    openaiClient
	model     string
	maxTokens int
}

// NewOpenAIExtractor creates a new OpenAIExtractor instance
func NewOpenAIExtractor(cfg *appconfig.Config) (*OpenAIExtractor, error) {
	if cfg.OpenAI.APIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}

	client := openai.NewClient(option.WithAPIKey(cfg.OpenAI.APIKey))

	return &OpenAIExtractor{
		client:    &openaiClientWrapper{client: client},
		model:     cfg.OpenAI.Model,
		maxTokens: cfg.OpenAI.MaxTokens,
	}, nil
}

// newOpenAIExtractorWithClient creates an OpenAIExtractor with a custom client (for testing)
func newOpenAIExtractorWithClient(client openaiClient, model string, maxTokens int) *OpenAIExtractor {
	return &OpenAIExtractor{
		client:    client,
		model:     model,
		maxTokens: maxTokens,
	}
}

func (s *OpenAIExtractor) Provider() string { return BreakerOpenAI }

// ExtractTrade sends the screenshot to the vision model and parses the
// reply into trade fields. A reply the model could only partially read
// still succeeds with the missing fields empty.
func (s *OpenAIExtractor) ExtractTrade(ctx context.Context, image []byte) (*models.ExtractedTrade, error) {
	metrics := observability.GetMetrics()
	metrics.RecordExternalAPIRequest(BreakerOpenAI, "extract")
	timer := metrics.NewTimer()

	dataURL := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(image)

	text, err := WithCircuitBreaker(ctx, BreakerOpenAI, func() (string, error) {
		var content string

		err := WithRetry(ctx, DefaultRetryConfig, func() error {
			params := openai.ChatCompletionNewParams{
				Model:     shared.ChatModel(s.model),
				MaxTokens: openai.Int(int64(s.maxTokens)),
				Messages: []openai.ChatCompletionMessageParamUnion{
					openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
						openai.TextContentPart(extractionPrompt),
						openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
							URL: dataURL,
						}),
					}),
				},
			}

			completion, err := s.client.CreateChatCompletion(ctx, params)
			if err != nil {
				return fmt.Errorf("failed to invoke OpenAI: %w", err)
			}

			if len(completion.Choices) == 0 {
				return fmt.Errorf("empty response from OpenAI")
			}

			content = completion.Choices[0].Message.Content
			return nil
		})

		return content, err
	})

	timer.ObserveExternalAPI(BreakerOpenAI, "extract")
	if err != nil {
		metrics.RecordExternalAPIError(BreakerOpenAI, "extract", categorizeAPIError(err))
		return nil, err
	}

	result, err := parseExtraction(text)
	if err != nil {
		observability.Warn("screenshot extraction produced unparsable output",
			"provider", BreakerOpenAI, "error", err)
		return nil, err
	}
	return result, nil
}

// categorizeAPIError categorizes an error for metrics purposes
func categorizeAPIError(err error) string {
	if err == nil {
		return "none"
	}
	errStr := err.Error()
	switch {
	case contains(errStr, "timeout", "deadline"):
		return "timeout"
	case contains(errStr, "rate limit", "429"):
		return "rate_limit"
	case contains(errStr, "unauthorized", "401"):
		return "auth_error"
	case contains(errStr, "connection", "network"):
		return "connection_error"
	default:
		return "unknown"
	}
}

// contains checks if the string contains any of the substrings
func contains(s string, substrs ...string) bool {
	for _, sub := range substrs {
		if len(s) >= len(sub) {
			for i := 0; i <= len(s)-len(sub); i++ {
				if s[i:i+len(sub)] == sub {
					return true
				}
			}
		}
	}
	return false
}
