package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"trading-contest/models"
	"trading-contest/observability"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
)

// bedrockClient defines the interface for Bedrock API calls (for testing)
type bedrockClient interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// BedrockExtractor extracts trade fields from brokerage screenshots
// using a Claude vision model on AWS Bedrock.
type BedrockExtractor struct {
	client    bedrockClient
	model     string
	maxTokens int
}

// claudeRequest represents the request format for Claude models via Bedrock
type claudeRequest struct {
	AnthropicVersion string          `json:"anthropic_version"`
	MaxTokens        int             `json:"max_tokens"`
	Messages         []claudeMessage `json:"messages"`
}

// claudeMessage carries multimodal content blocks (text and images)
type claudeMessage struct {
	Role    string          `json:"role"`
	Content []claudeContent `json:"content"`
}

type claudeContent struct {
	Type   string             `json:"type"`
	Text   string             `json:"text,omitempty"`
	Source *claudeImageSource `json:"source,omitempty"`
}

type claudeImageSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

// claudeResponse represents the response from Claude models
type claudeResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

const bedrockAnthropicVersion = "bedrock-2023-05-31"

// NewBedrockExtractor creates a new BedrockExtractor instance
func NewBedrockExtractor(ctx context.Context, region, modelID string, maxTokens int) (*BedrockExtractor, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS SDK config: %w", err)
	}

	return &BedrockExtractor{
		client:    bedrockruntime.NewFromConfig(cfg),
		model:     modelID,
		maxTokens: maxTokens,
	}, nil
}

// newBedrockExtractorWithClient creates a BedrockExtractor with a custom client (for testing)
func newBedrockExtractorWithClient(client bedrockClient, model string, maxTokens int) *BedrockExtractor {
	return &BedrockExtractor{client: client, model: model, maxTokens: maxTokens}
}

func (s *BedrockExtractor) Provider() string { return BreakerBedrock }

// ExtractTrade sends the screenshot to Claude as an image content
// block and parses the reply into trade fields.
func (s *BedrockExtractor) ExtractTrade(ctx context.Context, image []byte) (*models.ExtractedTrade, error) {
	metrics := observability.GetMetrics()
	metrics.RecordExternalAPIRequest(BreakerBedrock, "extract")
	timer := metrics.NewTimer()

	request := claudeRequest{
		AnthropicVersion: bedrockAnthropicVersion,
		MaxTokens:        s.maxTokens,
		Messages: []claudeMessage{
			{
				Role: "user",
				Content: []claudeContent{
					{
						Type: "image",
						Source: &claudeImageSource{
							Type:      "base64",
							MediaType: "image/jpeg",
							Data:      base64.StdEncoding.EncodeToString(image),
						},
					},
					{Type: "text", Text: extractionPrompt},
				},
			},
		},
	}

	text, err := WithCircuitBreaker(ctx, BreakerBedrock, func() (string, error) {
		reqBody, err := json.Marshal(request)
		if err != nil {
			return "", fmt.Errorf("failed to marshal request: %w", err)
		}

		var content string

		err = WithRetry(ctx, DefaultRetryConfig, func() error {
			output, err := s.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
				ModelId:     aws.String(s.model),
				Body:        reqBody,
				ContentType: aws.String("application/json"),
			})
			if err != nil {
				return fmt.Errorf("failed to invoke model: %w", err)
			}

			var response claudeResponse
			if err := json.Unmarshal(output.Body, &response); err != nil {
				return fmt.Errorf("failed to unmarshal response: %w", err)
			}

			if len(response.Content) == 0 {
				return fmt.Errorf("empty response from model")
			}

			content = response.Content[0].Text
			return nil
		})

		return content, err
	})

	timer.ObserveExternalAPI(BreakerBedrock, "extract")
	if err != nil {
		metrics.RecordExternalAPIError(BreakerBedrock, "extract", categorizeAPIError(err))
		return nil, err
	}

	result, err := parseExtraction(text)
	if err != nil {
		observability.Warn("screenshot extraction produced unparsable output",
			"provider", BreakerBedrock, "error", err)
		return nil, err
	}
	return result, nil
}
