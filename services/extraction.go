package services

import (
	"encoding/json"
	"fmt"
	"strings"

	"trading-contest/models"

	"github.com/shopspring/decimal"
)

// extractionPrompt asks the vision model for the trade fields visible
// in a brokerage screenshot. Missing fields come back null and stay
// empty in the result; the player fills them in manually.
const extractionPrompt = `Extract these trade details from the brokerage screenshot and return them as a JSON object:
{
  "trade_type": "buy" or "sell",
  "ticker": "stock symbol",
  "quantity": number of shares,
  "price": price per share,
  "date": "YYYY-MM-DD"
}
If any field is not visible, set it to null. Return only the JSON object.`

// modelTradeFields is the shape we try to read out of the model reply.
// Every field is optional.
type modelTradeFields struct {
	TradeType *string          `json:"trade_type"`
	Ticker    *string          `json:"ticker"`
	Quantity  *decimal.Decimal `json:"quantity"`
	Price     *decimal.Decimal `json:"price"`
	Date      *string          `json:"date"`
}

// parseExtraction turns raw model output into an ExtractedTrade.
// Vision models routinely wrap the JSON in prose or a code fence, so
// only the first top-level object in the reply is parsed. A reply with
// no parsable object is an extraction failure, not an error: the
// caller surfaces it as "enter manually".
func parseExtraction(raw string) (*models.ExtractedTrade, error) {
	start := strings.Index(raw, "{")
	if start < 0 {
		return nil, fmt.Errorf("no JSON object in model output")
	}

	// A Decoder stops at the end of the first value, so trailing prose
	// or additional objects are ignored.
	var fields modelTradeFields
	if err := json.NewDecoder(strings.NewReader(raw[start:])).Decode(&fields); err != nil {
		return nil, fmt.Errorf("failed to parse model output as JSON: %w", err)
	}

	result := &models.ExtractedTrade{
		Success:  true,
		Quantity: fields.Quantity,
		Price:    fields.Price,
	}
	if fields.TradeType != nil {
		tradeType := strings.ToLower(strings.TrimSpace(*fields.TradeType))
		if tradeType == "buy" || tradeType == "sell" {
			result.TradeType = tradeType
		}
	}
	if fields.Ticker != nil {
		result.Ticker = strings.ToUpper(strings.TrimSpace(*fields.Ticker))
	}
	if fields.Date != nil {
		result.Date = strings.TrimSpace(*fields.Date)
	}
	return result, nil
}
