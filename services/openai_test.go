package services

import (
	"context"
	"errors"
	"testing"

	"github.com/openai/openai-go"
	"github.com/shopspring/decimal"
)

// mockOpenAIClient implements openaiClient for testing
type mockOpenAIClient struct {
	response *openai.ChatCompletion
	err      error
	gotImage bool
}

func (m *mockOpenAIClient) CreateChatCompletion(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error) {
	m.gotImage = len(params.Messages) > 0
	if m.err != nil {
		return nil, m.err
	}
	return m.response, nil
}

func resetBreakers(t *testing.T) {
	t.Helper()
	SetGlobalRegistry(NewCircuitBreakerRegistry(DefaultCircuitBreakerConfig))
}

func completionWith(content string) *openai.ChatCompletion {
	return &openai.ChatCompletion{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: content}},
		},
	}
}

func TestOpenAIExtractor_ExtractTrade(t *testing.T) {
	resetBreakers(t)
	client := &mockOpenAIClient{
		response: completionWith(`{"trade_type": "buy", "ticker": "AAPL", "quantity": 10, "price": 150, "date": "2025-03-14"}`),
	}
	extractor := newOpenAIExtractorWithClient(client, "gpt-4o", 1024)

	result, err := extractor.ExtractTrade(context.Background(), []byte("fake-image-bytes"))
	if err != nil {
		t.Fatalf("ExtractTrade failed: %v", err)
	}

	if !client.gotImage {
		t.Error("expected the screenshot to be sent to the model")
	}
	if !result.Success {
		t.Error("expected success")
	}
	if result.Ticker != "AAPL" || result.TradeType != "buy" {
		t.Errorf("unexpected fields: %+v", result)
	}
	if result.Quantity == nil || !result.Quantity.Equal(decimal.NewFromInt(10)) {
		t.Errorf("expected quantity 10, got %v", result.Quantity)
	}
}

// flakyOpenAIClient fails a fixed number of calls before succeeding
type flakyOpenAIClient struct {
	failures int
	calls    int
	response *openai.ChatCompletion
}

func (m *flakyOpenAIClient) CreateChatCompletion(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error) {
	m.calls++
	if m.calls <= m.failures {
		return nil, errors.New("transient upstream error")
	}
	return m.response, nil
}

func TestOpenAIExtractor_RetriesTransientErrors(t *testing.T) {
	resetBreakers(t)
	client := &flakyOpenAIClient{
		failures: 2,
		response: completionWith(`{"trade_type": "sell", "ticker": "NVDA", "quantity": 3, "price": 900}`),
	}
	extractor := newOpenAIExtractorWithClient(client, "gpt-4o", 1024)

	result, err := extractor.ExtractTrade(context.Background(), []byte("img"))
	if err != nil {
		t.Fatalf("ExtractTrade failed: %v", err)
	}
	if !result.Success || result.Ticker != "NVDA" {
		t.Errorf("unexpected result: %+v", result)
	}
	if client.calls != 3 {
		t.Errorf("expected 3 attempts, got %d", client.calls)
	}
}

func TestOpenAIExtractor_APIError(t *testing.T) {
	resetBreakers(t)
	client := &mockOpenAIClient{err: errors.New("rate limit exceeded")}
	extractor := newOpenAIExtractorWithClient(client, "gpt-4o", 1024)

	if _, err := extractor.ExtractTrade(context.Background(), []byte("img")); err == nil {
		t.Fatal("expected error from API failure")
	}
}

func TestOpenAIExtractor_EmptyResponse(t *testing.T) {
	resetBreakers(t)
	client := &mockOpenAIClient{response: &openai.ChatCompletion{}}
	extractor := newOpenAIExtractorWithClient(client, "gpt-4o", 1024)

	if _, err := extractor.ExtractTrade(context.Background(), []byte("img")); err == nil {
		t.Fatal("expected error for empty response")
	}
}

func TestOpenAIExtractor_UnparsableOutput(t *testing.T) {
	resetBreakers(t)
	client := &mockOpenAIClient{response: completionWith("I can't read this screenshot.")}
	extractor := newOpenAIExtractorWithClient(client, "gpt-4o", 1024)

	if _, err := extractor.ExtractTrade(context.Background(), []byte("img")); err == nil {
		t.Fatal("expected error for unparsable model output")
	}
}

func TestOpenAIExtractor_Provider(t *testing.T) {
	extractor := newOpenAIExtractorWithClient(&mockOpenAIClient{}, "gpt-4o", 1024)
	if extractor.Provider() != BreakerOpenAI {
		t.Errorf("expected provider %q, got %q", BreakerOpenAI, extractor.Provider())
	}
}

func TestCategorizeAPIError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, "none"},
		{"timeout", errors.New("context deadline exceeded"), "timeout"},
		{"rate limit", errors.New("429 rate limit"), "rate_limit"},
		{"auth", errors.New("401 unauthorized"), "auth_error"},
		{"connection", errors.New("connection refused"), "connection_error"},
		{"other", errors.New("boom"), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := categorizeAPIError(tt.err); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}
