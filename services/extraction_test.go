package services

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseExtraction_PlainJSON(t *testing.T) {
	raw := `{"trade_type": "buy", "ticker": "AAPL", "quantity": 10, "price": 150.25, "date": "2025-03-14"}`

	result, err := parseExtraction(raw)
	if err != nil {
		t.Fatalf("parseExtraction failed: %v", err)
	}

	if !result.Success {
		t.Error("expected success")
	}
	if result.TradeType != "buy" {
		t.Errorf("expected trade_type buy, got %q", result.TradeType)
	}
	if result.Ticker != "AAPL" {
		t.Errorf("expected ticker AAPL, got %q", result.Ticker)
	}
	if result.Quantity == nil || !result.Quantity.Equal(decimal.NewFromInt(10)) {
		t.Errorf("expected quantity 10, got %v", result.Quantity)
	}
	if result.Price == nil || !result.Price.Equal(decimal.RequireFromString("150.25")) {
		t.Errorf("expected price 150.25, got %v", result.Price)
	}
	if result.Date != "2025-03-14" {
		t.Errorf("expected date 2025-03-14, got %q", result.Date)
	}
}

func TestParseExtraction_CodeFence(t *testing.T) {
	raw := "```json\n{\"trade_type\": \"sell\", \"ticker\": \"tsla\", \"quantity\": 5, \"price\": 200, \"date\": null}\n```"

	result, err := parseExtraction(raw)
	if err != nil {
		t.Fatalf("parseExtraction failed: %v", err)
	}

	if result.TradeType != "sell" {
		t.Errorf("expected trade_type sell, got %q", result.TradeType)
	}
	if result.Ticker != "TSLA" {
		t.Errorf("ticker should be upper-cased, got %q", result.Ticker)
	}
	if result.Date != "" {
		t.Errorf("null date should stay empty, got %q", result.Date)
	}
}

func TestParseExtraction_SurroundingProse(t *testing.T) {
	raw := `Here are the trade details I can see in the screenshot:
{"trade_type": "BUY", "ticker": " nvda ", "quantity": 2.5, "price": 880.10, "date": "2025-01-02"}
Let me know if you need anything else.`

	result, err := parseExtraction(raw)
	if err != nil {
		t.Fatalf("parseExtraction failed: %v", err)
	}

	if result.TradeType != "buy" {
		t.Errorf("trade_type should be normalized to lower case, got %q", result.TradeType)
	}
	if result.Ticker != "NVDA" {
		t.Errorf("ticker should be trimmed and upper-cased, got %q", result.Ticker)
	}
	if result.Quantity == nil || !result.Quantity.Equal(decimal.RequireFromString("2.5")) {
		t.Errorf("expected fractional quantity 2.5, got %v", result.Quantity)
	}
}

func TestParseExtraction_NullFieldsArePartialSuccess(t *testing.T) {
	raw := `{"trade_type": null, "ticker": "AAPL", "quantity": null, "price": null, "date": null}`

	result, err := parseExtraction(raw)
	if err != nil {
		t.Fatalf("parseExtraction failed: %v", err)
	}

	if !result.Success {
		t.Error("a partial extraction is still a success")
	}
	if result.TradeType != "" {
		t.Errorf("expected empty trade_type, got %q", result.TradeType)
	}
	if result.Quantity != nil || result.Price != nil {
		t.Error("null quantity/price should stay nil")
	}
}

func TestParseExtraction_UnknownTradeTypeDropped(t *testing.T) {
	raw := `{"trade_type": "short", "ticker": "AAPL"}`

	result, err := parseExtraction(raw)
	if err != nil {
		t.Fatalf("parseExtraction failed: %v", err)
	}
	if result.TradeType != "" {
		t.Errorf("unknown trade_type should be dropped, got %q", result.TradeType)
	}
}

func TestParseExtraction_MultipleObjectsUsesFirst(t *testing.T) {
	raw := `Here are two readings:
{"trade_type": "buy", "ticker": "AAPL", "quantity": 10, "price": 150}
{"trade_type": "sell", "ticker": "TSLA", "quantity": 5, "price": 200}`

	result, err := parseExtraction(raw)
	if err != nil {
		t.Fatalf("parseExtraction failed: %v", err)
	}
	if result.Ticker != "AAPL" || result.TradeType != "buy" {
		t.Errorf("expected the first object's fields, got %+v", result)
	}
}

func TestParseExtraction_NoJSON(t *testing.T) {
	if _, err := parseExtraction("I cannot see any trade in this image."); err == nil {
		t.Error("expected error for output with no JSON object")
	}
}

func TestParseExtraction_MalformedJSON(t *testing.T) {
	if _, err := parseExtraction(`{"trade_type": "buy", "quantity": }`); err == nil {
		t.Error("expected error for malformed JSON")
	}
}
