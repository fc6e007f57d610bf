package services

import (
	"context"

	"trading-contest/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Extractor defines the screenshot-extraction contract: raw image
// bytes in, best-effort trade fields out. Implementations return an
// error only for transport/model failures; a successfully parsed but
// partial reply is a valid result.
type Extractor interface {
	ExtractTrade(ctx context.Context, image []byte) (*models.ExtractedTrade, error)
	Provider() string
}

// Payer defines the payout contract: create a payee for the winner,
// then send the payment. No idempotency is provided; a retried call
// can pay twice.
type Payer interface {
	PayWinner(ctx context.Context, contestID, winnerID uuid.UUID, winnerName string, amount decimal.Decimal) error
}

// Compile-time interface verification
var _ Extractor = (*OpenAIExtractor)(nil)
var _ Extractor = (*BedrockExtractor)(nil)
var _ Payer = (*PayoutService)(nil)
