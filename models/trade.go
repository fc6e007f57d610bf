package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Trade is one row of the append-only trade ledger. Rows are never
// mutated or deleted after ProcessTrade commits them.
type Trade struct {
	ID          uuid.UUID       `json:"id"`
	PlayerID    uuid.UUID       `json:"player_id"`
	Ticker      string          `json:"ticker"`
	Side        TradeSide       `json:"side"`
	Quantity    decimal.Decimal `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	// TradeDate is user-supplied (the date on the brokerage screenshot)
	// and may differ from CreatedAt.
	TradeDate time.Time `json:"trade_date"`
	CreatedAt time.Time `json:"created_at"`
}

type TradeSide string

const (
	TradeSideBuy  TradeSide = "buy"
	TradeSideSell TradeSide = "sell"
)

func NewTrade(playerID uuid.UUID, ticker string, side TradeSide, quantity, price decimal.Decimal, tradeDate time.Time) *Trade {
	return &Trade{
		ID:          uuid.New(),
		PlayerID:    playerID,
		Ticker:      ticker,
		Side:        side,
		Quantity:    quantity,
		Price:       price,
		TotalAmount: quantity.Mul(price),
		TradeDate:   tradeDate,
		CreatedAt:   time.Now(),
	}
}
